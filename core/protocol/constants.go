// Package protocol
// Author: momentics <momentics@gmail.com>
//
// WebSocket wire protocol constants

package protocol

const (
	// Control opcodes (>=0x8)
	OpcodeContinuation = 0x0
	OpcodeText         = 0x1
	OpcodeBinary       = 0x2
	OpcodeClose        = 0x8
	OpcodePing         = 0x9
	OpcodePong         = 0xA

	OpcodeMask = 0x0F

	// Bit masks
	FinBit  = 0x80
	MaskBit = 0x80
	LenMask = 0x7F

	// Length encoding
	MinHeaderLen = 2
	MaxLen7      = 125
	MaxLen16     = 0xFFFF
	Len16Code    = 126
	Len64Code    = 127
	MaskKeyLen   = 4

	// MaxServerHeaderLen is the largest unmasked header: 1 + 1 + 8.
	MaxServerHeaderLen = 10
	// MaxFrameHeaderLen adds the mask key.
	MaxFrameHeaderLen = MaxServerHeaderLen + MaskKeyLen

	// Close codes
	CloseNormalClosure      = 1000
	CloseGoingAway          = 1001
	CloseProtocolError      = 1002
	CloseUnsupportedData    = 1003
	CloseNoStatusRcvd       = 1005
	CloseAbnormalClosure    = 1006
	CloseInvalidPayloadData = 1007
	ClosePolicyViolation    = 1008
	CloseMessageTooBig      = 1009
	CloseMissingExtension   = 1010
	CloseInternalServerErr  = 1011
)

// IsControl reports whether opcode denotes a control frame.
func IsControl(opcode byte) bool { return opcode&0x8 != 0 }
