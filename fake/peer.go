// Package fake
// Author: momentics <momentics@gmail.com>
//
// Fake implementations for testing and development.
// Provides predictable, controllable behavior for the host capabilities.

package fake

import (
	"sync"

	"github.com/momentics/wsengine/api"
)

var _ api.Transport = (*Peer)(nil)

// Peer is a scripted api.Transport. Each Recv call delivers (up to len(p)
// bytes of) the next queued chunk; Send records what it accepts.
type Peer struct {
	mu        sync.Mutex
	chunks    [][]byte
	sent      []byte
	recvCalls int
	sendCalls int

	// OnEmpty is returned by Recv when no chunk is queued (0 = disconnect).
	OnEmpty int
	// RecvResult, when non-zero, is returned by every Recv instead of data.
	RecvResult int
	// MaxWrite limits how many bytes a single Send accepts (0 = unlimited).
	MaxWrite int
	// FailWrites makes Send return -1.
	FailWrites bool
}

// NewPeer creates a peer with the given chunks queued for reading.
func NewPeer(chunks ...[]byte) *Peer {
	p := &Peer{}
	p.Feed(chunks...)
	return p
}

// Feed queues chunks for subsequent Recv calls.
func (p *Peer) Feed(chunks ...[]byte) {
	p.mu.Lock()
	defer p.mu.Unlock()
	for _, c := range chunks {
		p.chunks = append(p.chunks, append([]byte(nil), c...))
	}
}

// FeedBytes queues data split into pieces of at most size bytes.
func (p *Peer) FeedBytes(data []byte, size int) {
	if size <= 0 {
		size = len(data)
	}
	for len(data) > 0 {
		n := min(size, len(data))
		p.Feed(data[:n])
		data = data[n:]
	}
}

// Recv implements api.Receiver.
func (p *Peer) Recv(buf []byte) int {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.recvCalls++
	if p.RecvResult != 0 {
		return p.RecvResult
	}
	if len(p.chunks) == 0 {
		return p.OnEmpty
	}
	n := copy(buf, p.chunks[0])
	if n == len(p.chunks[0]) {
		p.chunks = p.chunks[1:]
	} else {
		p.chunks[0] = p.chunks[0][n:]
	}
	return n
}

// Send implements api.Sender.
func (p *Peer) Send(buf []byte) int {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.sendCalls++
	if p.FailWrites {
		return -1
	}
	n := len(buf)
	if p.MaxWrite > 0 && n > p.MaxWrite {
		n = p.MaxWrite
	}
	p.sent = append(p.sent, buf[:n]...)
	return n
}

// Sent returns a copy of every byte accepted so far.
func (p *Peer) Sent() []byte {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]byte(nil), p.sent...)
}

// ClearSent drops the recorded output.
func (p *Peer) ClearSent() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.sent = p.sent[:0]
}

// Queued returns the number of chunks not yet delivered.
func (p *Peer) Queued() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.chunks)
}

// Calls returns the Recv and Send call counts.
func (p *Peer) Calls() (recv, send int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.recvCalls, p.sendCalls
}
