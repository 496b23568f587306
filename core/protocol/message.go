// File: core/protocol/message.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package protocol

// Message is a decoded frame. Payload aliases the decoder input and has
// already been unmasked in place.
type Message struct {
	Payload []byte
	Opcode  byte
	Final   bool
	Masked  bool
}

// Len returns the payload length.
func (m Message) Len() int { return len(m.Payload) }

// IsControl reports whether the message is a control frame.
func (m Message) IsControl() bool { return IsControl(m.Opcode) }

// Clone returns a copy whose payload no longer aliases the input buffer.
func (m Message) Clone() Message {
	m.Payload = append([]byte(nil), m.Payload...)
	return m
}
