//go:build linux
// +build linux

// File: server/server_linux.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// epoll-backed event loop. Level-triggered: sessions are read once per
// readiness event and written opportunistically; EPOLLOUT is armed only
// while output is queued.

package server

import (
	"context"
	"encoding/binary"
	"fmt"
	"net"
	"time"

	"golang.org/x/sys/unix"

	"github.com/momentics/wsengine/affinity"
	"github.com/momentics/wsengine/control"
	"github.com/momentics/wsengine/reactor"
	"github.com/momentics/wsengine/websocket"
)

// New binds the listener and prepares the reactor. The server does not accept
// connections until Run is called.
func New(cfg *Config, factory HandlerFactory, opts ...Option) (*Server, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	s := newServer(cfg, factory, opts)

	lfd, addr, err := listenTCP(cfg.ListenAddr, cfg.Backlog)
	if err != nil {
		return nil, err
	}
	s.lfd, s.addr = lfd, addr

	r, err := reactor.NewReactor()
	if err != nil {
		unix.Close(lfd)
		return nil, err
	}
	s.reactor = r

	wfd, err := unix.Eventfd(0, unix.EFD_NONBLOCK|unix.EFD_CLOEXEC)
	if err != nil {
		s.releaseResources()
		return nil, fmt.Errorf("eventfd: %w", err)
	}
	s.wakefd = wfd

	if err := r.Register(lfd, reactor.Readable); err != nil {
		s.releaseResources()
		return nil, err
	}
	if err := r.Register(wfd, reactor.Readable); err != nil {
		s.releaseResources()
		return nil, err
	}
	return s, nil
}

// Run executes the event loop until ctx is done (returns nil) or Close is
// called (returns ErrServerClosed). Resources are released on return.
func (s *Server) Run(ctx context.Context) error {
	if !s.running.CompareAndSwap(false, true) {
		return ErrAlreadyRunning
	}
	defer close(s.done)
	defer s.release()
	if s.closed.Load() {
		return ErrServerClosed
	}

	// 1. Optionally pin the loop thread.
	if s.cfg.PinCPU >= 0 {
		if err := affinity.PinThread(s.cfg.PinCPU); err != nil {
			return err
		}
		s.logger.Printf("[server] event loop pinned to cpu %d", s.cfg.PinCPU)
	}

	// 2. Wake the loop when ctx ends.
	stop := context.AfterFunc(ctx, s.wake)
	defer stop()

	// 3. Poll, dispatch, then flush whatever callbacks queued.
	events := make([]reactor.Event, s.cfg.MaxEvents)
	timeout := int(s.cfg.PollTimeout / time.Millisecond)
	if timeout < 1 {
		timeout = 1
	}
	for {
		if s.closed.Load() {
			return ErrServerClosed
		}
		if ctx.Err() != nil {
			return nil
		}
		n, err := s.reactor.Wait(events, timeout)
		if err != nil {
			return err
		}
		for _, ev := range events[:n] {
			switch ev.Fd {
			case s.lfd:
				s.acceptAll()
			case s.wakefd:
				s.drainWake()
			default:
				s.serve(ev)
			}
		}
		s.deliverBroadcasts()
		s.flushDirty()
	}
}

func (s *Server) acceptAll() {
	for {
		nfd, sa, err := unix.Accept4(s.lfd, unix.SOCK_NONBLOCK|unix.SOCK_CLOEXEC)
		if err != nil {
			switch err {
			case unix.EAGAIN, unix.EINTR:
			case unix.ECONNABORTED:
				continue
			default:
				s.logger.Printf("[server] accept: %v", err)
			}
			return
		}
		_ = unix.SetsockoptInt(nfd, unix.IPPROTO_TCP, unix.TCP_NODELAY, 1)
		s.open(nfd, sockaddrToTCP(sa))
	}
}

func (s *Server) open(fd int, remote net.Addr) {
	sess := newSession(fd, remote)
	sess.notify = s.markDirty
	hooks := &sessionHandler{
		sess:    sess,
		metrics: s.metrics,
		logger:  s.logger,
		debug:   s.cfg.Debug,
	}
	sess.hooks = hooks
	sess.conn = websocket.New(
		websocket.WithTransport(fdTransport{fd: fd}),
		websocket.WithMaxMessageLen(s.cfg.MaxMessageLen),
		websocket.WithAllowUnmasked(s.cfg.AllowUnmasked),
		websocket.WithHandler(hooks),
	)

	var user websocket.Handler
	if s.factory != nil {
		user = s.factory(sess)
	}
	if user == nil {
		user = websocket.HandlerFuncs{}
	}
	hooks.user = user

	if err := s.reactor.Register(fd, reactor.Readable); err != nil {
		s.logger.Printf("[server] register fd %d: %v", fd, err)
		unix.Close(fd)
		return
	}
	s.sessions[fd] = sess
	s.active.Add(1)
	s.metrics.Add(control.MetricConnectionsAccepted, 1)
}

func (s *Server) serve(ev reactor.Event) {
	sess := s.sessions[ev.Fd]
	if sess == nil {
		return
	}
	if sess.closing && ev.Hangup {
		s.drop(sess)
		return
	}
	if (ev.Readable || ev.Hangup) && !sess.closing {
		sess.conn.Process()
	}
	sess.conn.Flush()
	s.settle(sess)
}

// settle drops finished sessions and keeps the interest set in line with
// the output queue.
func (s *Server) settle(sess *Session) {
	pending := sess.conn.PendingOutput()
	if !sess.conn.Connected() || (sess.closing && pending == 0) {
		s.drop(sess)
		return
	}
	var want reactor.Interest
	if !sess.closing {
		want = reactor.Readable
	}
	if pending > 0 {
		want |= reactor.Writable
	}
	if want == sess.interest {
		return
	}
	if err := s.reactor.Modify(sess.fd, want); err != nil {
		s.logger.Printf("[server] modify fd %d: %v", sess.fd, err)
		s.drop(sess)
		return
	}
	sess.interest = want
}

func (s *Server) drop(sess *Session) {
	if s.sessions[sess.fd] != sess {
		return
	}
	delete(s.sessions, sess.fd)
	_ = s.reactor.Unregister(sess.fd)
	unix.Close(sess.fd)
	s.active.Add(-1)
	sess.hooks.OnClose()
}

func (s *Server) deliverBroadcasts() {
	n := s.outbox.drain(func(m outgoing) {
		for _, sess := range s.sessions {
			if sess.closing || !sess.conn.Established() {
				continue
			}
			sess.Send(m.payload, m.opcode)
		}
	})
	if n > 0 {
		s.metrics.Add(control.MetricBroadcasts, int64(n))
	}
}

func (s *Server) flushDirty() {
	// Callbacks fired while flushing may append to the list.
	for i := 0; i < len(s.dirty); i++ {
		sess := s.dirty[i]
		sess.dirty = false
		if s.sessions[sess.fd] != sess {
			continue
		}
		sess.conn.Flush()
		s.settle(sess)
	}
	s.dirty = s.dirty[:0]
}

func (s *Server) wake() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.released || s.wakefd < 0 {
		return
	}
	var buf [8]byte
	binary.NativeEndian.PutUint64(buf[:], 1)
	_, _ = unix.Write(s.wakefd, buf[:])
}

func (s *Server) drainWake() {
	var buf [8]byte
	_, _ = unix.Read(s.wakefd, buf[:])
}

func (s *Server) releaseResources() {
	for _, sess := range s.sessions {
		s.drop(sess)
	}
	if s.lfd >= 0 {
		unix.Close(s.lfd)
		s.lfd = -1
	}
	if s.reactor != nil {
		s.reactor.Close()
	}
	s.mu.Lock()
	s.released = true
	if s.wakefd >= 0 {
		unix.Close(s.wakefd)
		s.wakefd = -1
	}
	s.mu.Unlock()
}

// fdTransport adapts a non-blocking socket to api.Transport.
type fdTransport struct{ fd int }

// Recv is only called after a readiness event, so EAGAIN is unexpected and
// reported as a read failure.
func (t fdTransport) Recv(p []byte) int {
	for {
		n, err := unix.Read(t.fd, p)
		if err == unix.EINTR {
			continue
		}
		if err != nil {
			return -1
		}
		return n
	}
}

func (t fdTransport) Send(p []byte) int {
	for {
		n, err := unix.SendmsgN(t.fd, p, nil, nil, unix.MSG_NOSIGNAL|unix.MSG_DONTWAIT)
		switch err {
		case nil:
			return n
		case unix.EINTR:
			continue
		case unix.EAGAIN:
			return 0
		default:
			return -1
		}
	}
}

func listenTCP(address string, backlog int) (int, *net.TCPAddr, error) {
	ta, err := net.ResolveTCPAddr("tcp", address)
	if err != nil {
		return -1, nil, fmt.Errorf("resolve %q: %w", address, err)
	}

	family := unix.AF_INET
	var sa unix.Sockaddr
	if ip4 := ta.IP.To4(); ta.IP == nil || ip4 != nil {
		a := &unix.SockaddrInet4{Port: ta.Port}
		copy(a.Addr[:], ip4)
		sa = a
	} else {
		family = unix.AF_INET6
		a := &unix.SockaddrInet6{Port: ta.Port}
		copy(a.Addr[:], ta.IP.To16())
		sa = a
	}

	fd, err := unix.Socket(family, unix.SOCK_STREAM|unix.SOCK_NONBLOCK|unix.SOCK_CLOEXEC, unix.IPPROTO_TCP)
	if err != nil {
		return -1, nil, fmt.Errorf("socket: %w", err)
	}
	if err := unix.SetsockoptInt(fd, unix.SOL_SOCKET, unix.SO_REUSEADDR, 1); err != nil {
		unix.Close(fd)
		return -1, nil, fmt.Errorf("setsockopt SO_REUSEADDR: %w", err)
	}
	if err := unix.Bind(fd, sa); err != nil {
		unix.Close(fd)
		return -1, nil, fmt.Errorf("bind %s: %w", address, err)
	}
	if err := unix.Listen(fd, backlog); err != nil {
		unix.Close(fd)
		return -1, nil, fmt.Errorf("listen %s: %w", address, err)
	}
	bound, err := unix.Getsockname(fd)
	if err != nil {
		unix.Close(fd)
		return -1, nil, fmt.Errorf("getsockname: %w", err)
	}
	return fd, sockaddrToTCP(bound), nil
}

func sockaddrToTCP(sa unix.Sockaddr) *net.TCPAddr {
	switch a := sa.(type) {
	case *unix.SockaddrInet4:
		return &net.TCPAddr{IP: net.IPv4(a.Addr[0], a.Addr[1], a.Addr[2], a.Addr[3]), Port: a.Port}
	case *unix.SockaddrInet6:
		ip := make(net.IP, net.IPv6len)
		copy(ip, a.Addr[:])
		return &net.TCPAddr{IP: ip, Port: a.Port}
	}
	return nil
}
