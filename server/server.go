// File: server/server.go
// Package server hosts websocket connections on a single-threaded,
// readiness-driven event loop.
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// All sessions are owned by the goroutine that calls Run. Handler callbacks
// execute on that goroutine; Broadcast and Close may be called from anywhere.

package server

import (
	"errors"
	"log"
	"net"
	"sync"
	"sync/atomic"

	"github.com/momentics/wsengine/control"
	"github.com/momentics/wsengine/reactor"
)

var (
	// ErrServerClosed is returned by Run and Broadcast after Close.
	ErrServerClosed = errors.New("server: closed")
	// ErrAlreadyRunning is returned by a second concurrent Run.
	ErrAlreadyRunning = errors.New("server: already running")
)

// Server accepts TCP connections and drives one websocket.Connection per client.
type Server struct {
	cfg     *Config
	factory HandlerFactory
	logger  *log.Logger
	metrics *control.MetricsRegistry
	probes  *control.DebugProbes

	reactor reactor.EventReactor
	lfd     int
	wakefd  int
	addr    net.Addr

	sessions map[int]*Session
	dirty    []*Session
	outbox   *outbox

	active  atomic.Int64
	running atomic.Bool
	closed  atomic.Bool

	mu       sync.Mutex // guards wakefd against concurrent release
	released bool
	once     sync.Once
	done     chan struct{}
}

func newServer(cfg *Config, factory HandlerFactory, opts []Option) *Server {
	s := &Server{
		cfg:      cfg,
		factory:  factory,
		logger:   log.Default(),
		metrics:  control.NewMetricsRegistry(),
		probes:   control.NewDebugProbes(),
		lfd:      -1,
		wakefd:   -1,
		sessions: make(map[int]*Session),
		outbox:   newOutbox(),
		done:     make(chan struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.probes.RegisterProbe("sessions.active", func() any { return s.active.Load() })
	s.probes.RegisterProbe("broadcasts.queued", func() any { return s.outbox.len() })
	s.probes.RegisterProbe("listen.addr", func() any { return s.cfg.ListenAddr })
	return s
}

// Addr returns the bound listener address.
func (s *Server) Addr() net.Addr { return s.addr }

// Metrics returns a snapshot of the server counters.
func (s *Server) Metrics() map[string]int64 {
	out := s.metrics.GetSnapshot()
	out["sessions.active"] = s.active.Load()
	return out
}

// DebugState evaluates the registered debug probes.
func (s *Server) DebugState() map[string]any { return s.probes.DumpState() }

// ActiveSessions returns the number of open sessions.
func (s *Server) ActiveSessions() int { return int(s.active.Load()) }

// Broadcast queues one frame for every established session. The payload is
// copied, so the caller may reuse it.
func (s *Server) Broadcast(opcode byte, payload []byte) error {
	if s.closed.Load() {
		return ErrServerClosed
	}
	s.outbox.push(outgoing{opcode: opcode, payload: append([]byte(nil), payload...)})
	s.wake()
	return nil
}

// Close stops the event loop and releases every session and descriptor.
// It waits for a running Run to return, so it must not be called from a
// handler callback; use Session.Close there.
func (s *Server) Close() error {
	if !s.closed.CompareAndSwap(false, true) {
		return nil
	}
	if s.running.Load() {
		s.wake()
		<-s.done
		return nil
	}
	s.release()
	return nil
}

func (s *Server) markDirty(sess *Session) {
	s.dirty = append(s.dirty, sess)
}

func (s *Server) release() {
	s.once.Do(s.releaseResources)
}
