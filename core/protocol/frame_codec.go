// File: core/protocol/frame_codec.go
// Package protocol implements the zero-copy frame codec.
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Frames are written into caller-provided spans and decoded in place: masked
// payloads are unmasked inside the input span and returned as a view.

package protocol

import "encoding/binary"

// HeaderLen returns the size of an unmasked header announcing n payload bytes.
func HeaderLen(n int) int {
	switch {
	case n <= MaxLen7:
		return MinHeaderLen
	case n <= MaxLen16:
		return MinHeaderLen + 2
	default:
		return MinHeaderLen + 8
	}
}

// FrameLen returns the encoded size of an unmasked frame carrying n bytes.
func FrameLen(n int) int { return HeaderLen(n) + n }

// MaskedFrameLen returns the encoded size of a masked frame carrying n bytes.
func MaskedFrameLen(n int) int { return FrameLen(n) + MaskKeyLen }

// WriteFrame encodes one unmasked frame into dst and returns the bytes written.
// opcodeAndFlags is copied verbatim into the first header byte. dst must hold
// FrameLen(len(payload)) bytes.
func WriteFrame(dst, payload []byte, opcodeAndFlags byte) int {
	if len(dst) < FrameLen(len(payload)) {
		panic("protocol: frame destination too small")
	}
	off := putHeader(dst, len(payload), opcodeAndFlags, 0)
	return off + copy(dst[off:], payload)
}

// WriteMaskedFrame encodes one client-style frame masked with key.
// dst must hold MaskedFrameLen(len(payload)) bytes.
func WriteMaskedFrame(dst, payload []byte, opcodeAndFlags byte, key [4]byte) int {
	if len(dst) < MaskedFrameLen(len(payload)) {
		panic("protocol: frame destination too small")
	}
	off := putHeader(dst, len(payload), opcodeAndFlags, MaskBit)
	off += copy(dst[off:], key[:])
	n := copy(dst[off:], payload)
	MaskBytes(key, dst[off:off+n])
	return off + n
}

func putHeader(dst []byte, n int, b0, maskBit byte) int {
	dst[0] = b0
	switch {
	case n <= MaxLen7:
		dst[1] = maskBit | byte(n)
		return MinHeaderLen
	case n <= MaxLen16:
		dst[1] = maskBit | Len16Code
		binary.BigEndian.PutUint16(dst[2:], uint16(n))
		return MinHeaderLen + 2
	default:
		dst[1] = maskBit | Len64Code
		binary.BigEndian.PutUint64(dst[2:], uint64(n))
		return MinHeaderLen + 8
	}
}

// MaskBytes XORs p with the cycled key. Applying it twice restores p.
func MaskBytes(key [4]byte, p []byte) {
	for i := range p {
		p[i] ^= key[i&3]
	}
}

// DecodeFrame parses one frame from the head of src.
// Returns consumed bytes and the decoded view, or 0 when src does not yet hold
// a complete frame. src is only modified (unmasked) once the frame is complete.
func DecodeFrame(src []byte) (int, Message) {
	if len(src) < MinHeaderLen {
		return 0, Message{}
	}
	msg := Message{
		Opcode: src[0] & OpcodeMask,
		Final:  src[0]&FinBit != 0,
		Masked: src[1]&MaskBit != 0,
	}
	length := uint64(src[1] & LenMask)
	off := MinHeaderLen

	switch length {
	case Len16Code:
		if len(src) < off+2 {
			return 0, Message{}
		}
		length = uint64(binary.BigEndian.Uint16(src[off:]))
		off += 2
	case Len64Code:
		if len(src) < off+8 {
			return 0, Message{}
		}
		length = binary.BigEndian.Uint64(src[off:])
		off += 8
	}

	var key [4]byte
	if msg.Masked {
		if len(src) < off+MaskKeyLen {
			return 0, Message{}
		}
		copy(key[:], src[off:])
		off += MaskKeyLen
	}

	// Lengths beyond the span, including ones not representable as int, stay incomplete.
	if length > uint64(len(src)-off) {
		return 0, Message{}
	}
	end := off + int(length)
	msg.Payload = src[off:end:end]
	if msg.Masked {
		MaskBytes(key, msg.Payload)
	}
	return end, msg
}
