// File: websocket/options.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package websocket

import "github.com/momentics/wsengine/api"

// DefaultMaxMessageLen is the default input buffer capacity. It bounds both
// the handshake header and a single frame.
const DefaultMaxMessageLen = 2048

// Option customizes a Connection.
type Option func(*Connection)

// WithReceiver sets the read capability. Without one, Process only parses
// bytes already fed into the input buffer.
func WithReceiver(r api.Receiver) Option {
	return func(c *Connection) { c.recv = r }
}

// WithSender sets the write capability used by Flush.
func WithSender(s api.Sender) Option {
	return func(c *Connection) { c.send = s }
}

// WithTransport sets both capabilities.
func WithTransport(t api.Transport) Option {
	return func(c *Connection) {
		c.recv = t
		c.send = t
	}
}

// WithHandler sets the event handler.
func WithHandler(h Handler) Option {
	return func(c *Connection) {
		if h != nil {
			c.handler = h
		}
	}
}

// WithMaxMessageLen sets the input buffer capacity (and initial output capacity).
func WithMaxMessageLen(n int) Option {
	return func(c *Connection) { c.maxLen = n }
}

// WithAllowUnmasked accepts unmasked data frames instead of failing with
// ErrUnmaskedMessage.
func WithAllowUnmasked(allow bool) Option {
	return func(c *Connection) { c.allowUnmasked = allow }
}
