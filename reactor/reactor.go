// File: reactor/reactor.go
// Author: momentics <momentics@gmail.com>
//
// Platform-neutral readiness reactor used by the non-blocking server host.

package reactor

// Interest selects the readiness conditions a descriptor is watched for.
type Interest uint8

const (
	Readable Interest = 1 << iota
	Writable
)

// EventReactor defines basic reactor operations across OS platforms.
type EventReactor interface {
	// Register adds fd with the given interest set.
	Register(fd int, interest Interest) error

	// Modify replaces the interest set of a registered fd.
	Modify(fd int, interest Interest) error

	// Unregister removes fd. Closing fd also removes it implicitly.
	Unregister(fd int) error

	// Wait blocks up to timeoutMs (negative = forever) and fills events.
	// Returns the number of events written; an interrupted wait returns 0.
	Wait(events []Event, timeoutMs int) (int, error)

	// Close releases the reactor handle.
	Close() error
}

// Event contains readiness information returned by Wait.
type Event struct {
	Fd       int
	Readable bool
	Writable bool
	// Hangup reports peer shutdown or a socket error; a read will surface it.
	Hangup bool
}
