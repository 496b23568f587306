// Package api
// Author: momentics <momentics@gmail.com>
//
// Common error types and error handling utilities for wsengine.

package api

import "fmt"

// Common errors used across the library.
var (
	ErrTransportClosed = fmt.Errorf("transport is closed")
	ErrNotSupported    = fmt.Errorf("operation not supported")
)

// ErrorCode is the closed set of terminal connection failures. Every code is
// reported once through the handler, after which the connection is closed.
type ErrorCode int

const (
	// ErrUnexpectedDisconnect: the receiver reported 0 bytes.
	ErrUnexpectedDisconnect ErrorCode = iota + 1
	// ErrReadFailed: the receiver reported a negative count.
	ErrReadFailed
	// ErrWriteFailed: the sender reported -1.
	ErrWriteFailed
	// ErrHandshakeFailed: the input buffer filled before the request header ended.
	ErrHandshakeFailed
	// ErrHandshakeMalformed: a complete request header was not a usable Upgrade request.
	ErrHandshakeMalformed
	// ErrUnmaskedMessage: an unmasked data frame arrived while those are forbidden.
	ErrUnmaskedMessage
	// ErrTooLongMessage: the input buffer filled before a frame completed.
	ErrTooLongMessage
)

var errorText = map[ErrorCode]string{
	ErrUnexpectedDisconnect: "unexpected disconnect",
	ErrReadFailed:           "read failed",
	ErrWriteFailed:          "write failed",
	ErrHandshakeFailed:      "handshake failed",
	ErrHandshakeMalformed:   "malformed handshake",
	ErrUnmaskedMessage:      "received unmasked message",
	ErrTooLongMessage:       "received too long message",
}

// String returns the human-readable description.
func (c ErrorCode) String() string {
	if s, ok := errorText[c]; ok {
		return s
	}
	return fmt.Sprintf("error code %d", int(c))
}

// Error implements the error interface.
func (c ErrorCode) Error() string { return "websocket: " + c.String() }
