// File: core/buffer/staging.go
// Package buffer implements the staging buffer used by the protocol engine.
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Staging is a growable byte region with independent read and write cursors.
// Parsers inspect the pending region in place; producers fill the free space
// directly and commit the number of bytes written.

package buffer

import "io"

// Staging is a single-owner byte region. Layout:
//
//	0 <= cur <= last <= len(data)
//
// [cur, last) holds pending (unconsumed) bytes, [last, len(data)) is free space.
// Slices returned by Pending and Space alias the buffer and are invalidated by
// Skip, Shrink, Reserve and Clear.
type Staging struct {
	data []byte
	cur  int
	last int
}

// NewStaging allocates a staging buffer with the given capacity.
func NewStaging(size int) *Staging {
	if size < 0 {
		size = 0
	}
	return &Staging{data: make([]byte, size)}
}

// Clear resets both cursors to the origin. Capacity is unchanged.
func (s *Staging) Clear() {
	s.cur, s.last = 0, 0
}

// Cap returns the total capacity.
func (s *Staging) Cap() int { return len(s.data) }

// DataLen returns the number of bytes between the origin and the write cursor,
// consumed bytes included.
func (s *Staging) DataLen() int { return s.last }

// Len returns the number of pending bytes.
func (s *Staging) Len() int { return s.last - s.cur }

// Pending returns a zero-copy view of the unconsumed bytes.
func (s *Staging) Pending() []byte { return s.data[s.cur:s.last:s.last] }

// SpaceLeft returns the remaining writable capacity.
func (s *Staging) SpaceLeft() int { return len(s.data) - s.last }

// Space returns a zero-copy view of the free region. Bytes written into it
// become pending only after Commit.
func (s *Staging) Space() []byte { return s.data[s.last:] }

// Skip consumes n pending bytes. It panics if n exceeds Len.
func (s *Staging) Skip(n int) {
	if n < 0 || n > s.Len() {
		panic("buffer: skip past pending data")
	}
	s.cur += n
}

// Commit marks n bytes already written into Space as pending.
func (s *Staging) Commit(n int) {
	if n < 0 || n > s.SpaceLeft() {
		panic("buffer: commit past capacity")
	}
	s.last += n
}

// Write appends p. It panics if p does not fit; call Reserve first.
func (s *Staging) Write(p []byte) {
	if len(p) > s.SpaceLeft() {
		panic("buffer: write past capacity")
	}
	s.last += copy(s.data[s.last:], p)
}

// Push appends a single byte.
func (s *Staging) Push(c byte) {
	if s.SpaceLeft() < 1 {
		panic("buffer: push past capacity")
	}
	s.data[s.last] = c
	s.last++
}

// ReadByte consumes one pending byte.
func (s *Staging) ReadByte() (byte, error) {
	if s.cur == s.last {
		return 0, io.EOF
	}
	c := s.data[s.cur]
	s.cur++
	return c, nil
}

// Reserve grows the buffer so that at least n bytes of free space exist.
// Capacity at least doubles on growth, so repeated appends stay amortized
// linear. Cursor offsets and pending contents are preserved.
func (s *Staging) Reserve(n int) {
	if s.SpaceLeft() >= n {
		return
	}
	grown := make([]byte, max(2*len(s.data), s.last+n))
	copy(grown, s.data[:s.last])
	s.data = grown
}

// Shrink moves the pending region to the origin, reclaiming consumed space.
func (s *Staging) Shrink() {
	if s.cur == 0 {
		return
	}
	n := copy(s.data, s.data[s.cur:s.last])
	s.cur = 0
	s.last = n
}
