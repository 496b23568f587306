// File: server/outbox.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Goroutine-safe FIFO of broadcasts, filled by any goroutine and drained by
// the event loop.

package server

import (
	"sync"

	"github.com/eapache/queue"
)

type outgoing struct {
	opcode  byte
	payload []byte
}

type outbox struct {
	mu sync.Mutex
	q  *queue.Queue
}

func newOutbox() *outbox {
	return &outbox{q: queue.New()}
}

func (o *outbox) push(m outgoing) {
	o.mu.Lock()
	o.q.Add(m)
	o.mu.Unlock()
}

func (o *outbox) len() int {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.q.Length()
}

// drain removes every queued item and hands them to fn in FIFO order,
// outside the lock.
func (o *outbox) drain(fn func(outgoing)) int {
	o.mu.Lock()
	items := make([]outgoing, 0, o.q.Length())
	for o.q.Length() > 0 {
		items = append(items, o.q.Remove().(outgoing))
	}
	o.mu.Unlock()

	for _, m := range items {
		fn(m)
	}
	return len(items)
}
