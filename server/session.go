// File: server/session.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Per-connection state owned by the event loop.

package server

import (
	"log"
	"net"
	"strings"
	"sync/atomic"

	"github.com/momentics/wsengine/api"
	"github.com/momentics/wsengine/control"
	"github.com/momentics/wsengine/core/protocol"
	"github.com/momentics/wsengine/reactor"
	"github.com/momentics/wsengine/websocket"
)

// HandlerFactory builds the event handler for one accepted session.
type HandlerFactory func(s *Session) websocket.Handler

var sessionSeq atomic.Uint64

// Session is one accepted client. Its methods must be called from handler
// callbacks, which run on the event loop goroutine; other goroutines use
// Server.Broadcast.
type Session struct {
	id     uint64
	fd     int
	remote net.Addr
	path   string
	conn   *websocket.Connection

	closing  bool
	dirty    bool
	interest reactor.Interest
	hooks    *sessionHandler
	notify   func(*Session)
}

func newSession(fd int, remote net.Addr) *Session {
	return &Session{
		id:       sessionSeq.Add(1),
		fd:       fd,
		remote:   remote,
		interest: reactor.Readable,
	}
}

// ID returns a process-unique session number.
func (s *Session) ID() uint64 { return s.id }

// RemoteAddr returns the peer address.
func (s *Session) RemoteAddr() net.Addr { return s.remote }

// Path returns the request target of the opening handshake, or "" before it.
func (s *Session) Path() string { return s.path }

// Established reports whether the opening handshake completed.
func (s *Session) Established() bool { return s.conn.Established() }

// Send queues a single unfragmented frame.
func (s *Session) Send(payload []byte, opcode byte) {
	if s.closing {
		return
	}
	s.conn.Send(payload, opcode)
	s.touch()
}

// Close queues a close frame; the session is dropped once it is flushed.
func (s *Session) Close(code uint16, reason string) {
	if s.closing {
		return
	}
	s.conn.Close(code, reason)
	s.closing = true
	s.touch()
}

// touch asks the event loop to flush this session at the end of the
// current iteration.
func (s *Session) touch() {
	if s.dirty || s.notify == nil {
		return
	}
	s.dirty = true
	s.notify(s)
}

// Stats returns the connection counters.
func (s *Session) Stats() websocket.Stats { return s.conn.Stats() }

// sessionHandler records metrics around the user handler.
type sessionHandler struct {
	sess    *Session
	user    websocket.Handler
	metrics *control.MetricsRegistry
	logger  *log.Logger
	debug   bool
	closed  bool
}

func (h *sessionHandler) OnConnect(hs protocol.Handshake) {
	h.sess.path = string(hs.Path)
	h.metrics.Add(control.MetricHandshakes, 1)
	if h.debug {
		h.logger.Printf("[server] session %d connected from %v path=%s", h.sess.id, h.sess.remote, h.sess.path)
	}
	h.user.OnConnect(hs)
}

func (h *sessionHandler) OnMessage(msg protocol.Message) {
	h.user.OnMessage(msg)
}

func (h *sessionHandler) OnError(code api.ErrorCode) {
	h.metrics.Add(errorMetric(code), 1)
	if h.debug || code != api.ErrUnexpectedDisconnect {
		h.logger.Printf("[server] session %d: %v", h.sess.id, code)
	}
	h.user.OnError(code)
}

func (h *sessionHandler) OnClose() {
	if h.closed {
		return
	}
	h.closed = true
	st := h.sess.conn.Stats()
	h.metrics.Add(control.MetricConnectionsClosed, 1)
	h.metrics.Add(control.MetricFramesReceived, st.FramesReceived)
	h.metrics.Add(control.MetricFramesSent, st.FramesSent)
	h.metrics.Add(control.MetricBytesReceived, st.BytesReceived)
	h.metrics.Add(control.MetricBytesSent, st.BytesSent)
	if h.debug {
		h.logger.Printf("[server] session %d closed", h.sess.id)
	}
	h.user.OnClose()
}

func errorMetric(code api.ErrorCode) string {
	return control.MetricErrorsPrefix + strings.ReplaceAll(code.String(), " ", "_")
}
