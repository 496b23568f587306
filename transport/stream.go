// File: transport/stream.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Stream adapts a blocking io.ReadWriter (net.Conn, tls.Conn, pipe) to the
// api.Transport capabilities expected by websocket.Connection.

package transport

import (
	"errors"
	"io"

	"github.com/momentics/wsengine/api"
)

var _ api.Transport = (*Stream)(nil)

// maxEmptyReads bounds retries on readers that return (0, nil).
const maxEmptyReads = 100

// Stream maps io results onto POSIX-style counts: io.EOF -> 0, other errors -> -1.
type Stream struct {
	rw  io.ReadWriter
	err error
}

// NewStream wraps rw.
func NewStream(rw io.ReadWriter) *Stream {
	return &Stream{rw: rw}
}

// Recv implements api.Receiver.
func (s *Stream) Recv(p []byte) int {
	for i := 0; i < maxEmptyReads; i++ {
		n, err := s.rw.Read(p)
		if n > 0 {
			if err != nil {
				s.err = err
			}
			return n
		}
		if err == nil {
			continue
		}
		s.err = err
		if errors.Is(err, io.EOF) {
			return 0
		}
		return -1
	}
	s.err = io.ErrNoProgress
	return -1
}

// Send implements api.Sender. A short write with an error reports the bytes
// that made it; the error surfaces on the next call.
func (s *Stream) Send(p []byte) int {
	if s.err != nil && !errors.Is(s.err, io.EOF) {
		return -1
	}
	n, err := s.rw.Write(p)
	if err != nil {
		s.err = err
		if n == 0 {
			return -1
		}
	}
	return n
}

// Err returns the last transport error observed.
func (s *Stream) Err() error { return s.err }
