// File: api/transport.go
// Author: momentics <momentics@gmail.com>
//
// Host-supplied byte transport capabilities. The protocol engine never owns a
// socket: it asks the host to read into, or write from, a span it provides.
// Any stream (TCP socket, TLS session, pipe, test harness) satisfying these
// contracts works.

package api

// Receiver fills p with inbound bytes.
type Receiver interface {
	// Recv returns the number of bytes read, 0 on orderly disconnect and a
	// negative value on error (POSIX recv semantics).
	Recv(p []byte) int
}

// Sender drains outbound bytes.
type Sender interface {
	// Send returns the number of bytes accepted (possibly fewer than len(p))
	// or -1 on error (POSIX send semantics).
	Send(p []byte) int
}

// Transport bundles both directions.
type Transport interface {
	Receiver
	Sender
}

// RecvFunc adapts a function to Receiver.
type RecvFunc func(p []byte) int

// Recv calls f(p).
func (f RecvFunc) Recv(p []byte) int { return f(p) }

// SendFunc adapts a function to Sender.
type SendFunc func(p []byte) int

// Send calls f(p).
func (f SendFunc) Send(p []byte) int { return f(p) }
