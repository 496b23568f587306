// File: websocket/connection.go
// Package websocket implements the server-side connection state machine.
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// States: awaiting handshake -> established -> closed. Closed is terminal.

package websocket

import (
	"github.com/momentics/wsengine/api"
	"github.com/momentics/wsengine/core/buffer"
	"github.com/momentics/wsengine/core/protocol"
)

// Connection encapsulates one WebSocket session over host-supplied I/O.
type Connection struct {
	in  *buffer.Staging
	out *buffer.Staging

	recv    api.Receiver
	send    api.Sender
	handler Handler

	maxLen        int
	connected     bool
	established   bool
	allowUnmasked bool

	stats Stats
}

// Stats is a snapshot of connection counters.
type Stats struct {
	BytesReceived  int64
	BytesSent      int64
	FramesReceived int64
	FramesSent     int64
}

// New constructs a connected Connection awaiting the opening handshake.
func New(opts ...Option) *Connection {
	c := &Connection{
		handler:   nopHandler,
		maxLen:    DefaultMaxMessageLen,
		connected: true,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.maxLen <= 0 {
		c.maxLen = DefaultMaxMessageLen
	}
	c.in = buffer.NewStaging(c.maxLen)
	c.out = buffer.NewStaging(c.maxLen)
	return c
}

// SetHandler replaces the event handler. A nil handler discards events.
func (c *Connection) SetHandler(h Handler) {
	if h == nil {
		h = nopHandler
	}
	c.handler = h
}

// Connected reports whether the connection has not yet closed.
func (c *Connection) Connected() bool { return c.connected }

// Established reports whether the opening handshake completed.
func (c *Connection) Established() bool { return c.established }

// PendingOutput returns the number of queued bytes not yet accepted by the sender.
// Output growth is unbounded; hosts that need backpressure must watch this.
func (c *Connection) PendingOutput() int { return c.out.Len() }

// Stats returns the connection counters.
func (c *Connection) Stats() Stats { return c.stats }

// Feed copies inbound bytes into the input buffer for hosts that read the
// transport themselves. Returns the number of bytes accepted, which is less
// than len(p) once the buffer is full; call Process before feeding the rest.
// Feeding into a full buffer fails the connection the same way a read does.
func (c *Connection) Feed(p []byte) int {
	if !c.connected || len(p) == 0 {
		return 0
	}
	c.in.Shrink()
	if c.in.SpaceLeft() == 0 {
		c.overflow()
		return 0
	}
	n := copy(c.in.Space(), p)
	c.in.Commit(n)
	c.stats.BytesReceived += int64(n)
	return n
}

// Process performs at most one read and dispatches every complete handshake
// or frame now buffered.
func (c *Connection) Process() {
	if !c.connected {
		return
	}
	if c.recv != nil && !c.read() {
		return
	}

	if !c.established {
		n, hs, err := protocol.ParseRequest(c.in.Pending())
		if err != nil {
			c.Fail(api.ErrHandshakeMalformed)
			return
		}
		if n == 0 {
			return
		}
		c.in.Skip(n)
		c.out.Reserve(protocol.AcceptResponseLen)
		c.out.Commit(protocol.RenderAcceptResponse(c.out.Space(), hs.Key))
		c.established = true
		c.handler.OnConnect(hs)
	}

	for c.connected {
		n, msg := protocol.DecodeFrame(c.in.Pending())
		if n == 0 {
			return
		}
		c.in.Skip(n)
		c.stats.FramesReceived++

		switch msg.Opcode {
		case protocol.OpcodePing:
			c.Send(msg.Payload, protocol.OpcodePong)
		case protocol.OpcodeClose:
			c.shutdown()
			return
		default:
			if !msg.Masked && !c.allowUnmasked {
				c.Fail(api.ErrUnmaskedMessage)
				return
			}
			c.handler.OnMessage(msg)
		}
	}
}

// read compacts the input buffer and calls the receiver once.
// The buffer capacity bounds the handshake header and any single frame.
func (c *Connection) read() bool {
	c.in.Shrink()
	if c.in.SpaceLeft() == 0 {
		c.overflow()
		return false
	}
	n := c.recv.Recv(c.in.Space())
	switch {
	case n == 0:
		c.Fail(api.ErrUnexpectedDisconnect)
		return false
	case n < 0:
		c.Fail(api.ErrReadFailed)
		return false
	}
	c.in.Commit(n)
	c.stats.BytesReceived += int64(n)
	return true
}

// overflow fails a connection whose input buffer filled before a complete
// handshake or frame arrived.
func (c *Connection) overflow() {
	if c.established {
		c.Fail(api.ErrTooLongMessage)
	} else {
		c.Fail(api.ErrHandshakeFailed)
	}
}

// Flush hands queued output to the sender once. Partial writes leave the
// remainder queued for the next call. A sender that reports a negative count
// or more bytes than it was given fails the connection with ErrWriteFailed.
func (c *Connection) Flush() {
	if !c.connected || c.send == nil || c.out.Len() == 0 {
		return
	}
	n := c.send.Send(c.out.Pending())
	if n < 0 || n > c.out.Len() {
		c.Fail(api.ErrWriteFailed)
		return
	}
	c.out.Skip(n)
	c.out.Shrink()
	c.stats.BytesSent += int64(n)
}

// Send queues one unfragmented, unmasked frame. Payloads sent after the
// connection closed are dropped.
func (c *Connection) Send(payload []byte, opcode byte) {
	if !c.connected {
		return
	}
	c.out.Reserve(len(payload) + protocol.MaxServerHeaderLen)
	c.out.Commit(protocol.WriteFrame(c.out.Space(), payload, opcode&protocol.OpcodeMask|protocol.FinBit))
	c.stats.FramesSent++
}

// SendText queues a text frame.
func (c *Connection) SendText(p []byte) { c.Send(p, protocol.OpcodeText) }

// SendBinary queues a binary frame.
func (c *Connection) SendBinary(p []byte) { c.Send(p, protocol.OpcodeBinary) }

// Ping queues a ping frame. The payload is truncated to the control frame limit.
func (c *Connection) Ping(p []byte) {
	if len(p) > protocol.MaxLen7 {
		p = p[:protocol.MaxLen7]
	}
	c.Send(p, protocol.OpcodePing)
}

// Close queues a close frame carrying code and reason. The connection stays
// open until the host flushes and discards it or the peer answers.
func (c *Connection) Close(code uint16, reason string) {
	if len(reason) > protocol.MaxLen7-2 {
		reason = reason[:protocol.MaxLen7-2]
	}
	payload := make([]byte, 2+len(reason))
	payload[0] = byte(code >> 8)
	payload[1] = byte(code)
	copy(payload[2:], reason)
	c.Send(payload, protocol.OpcodeClose)
}

// Fail reports code, closes the connection and fires OnClose. Only the first
// failure is reported.
func (c *Connection) Fail(code api.ErrorCode) {
	if !c.connected {
		return
	}
	c.connected = false
	c.handler.OnError(code)
	c.handler.OnClose()
}

func (c *Connection) shutdown() {
	if !c.connected {
		return
	}
	c.connected = false
	c.handler.OnClose()
}
