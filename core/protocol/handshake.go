// File: core/protocol/handshake.go
// Package protocol implements the server side of the WebSocket opening handshake.
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Parses the HTTP/1.1 Upgrade request straight out of the input span, without
// net/http, and renders the fixed 101 Switching Protocols reply.

package protocol

import (
	"bytes"
	"crypto/sha1"
	"errors"
	"io"
)

// Constants used for handshake processing.
const (
	WebSocketGUID = "258EAFA5-E914-47DA-95CA-C5AB0DC85B11"

	// AcceptKeyLen is the encoded length of a SHA-1 digest.
	AcceptKeyLen = 28

	acceptResponsePrefix = "HTTP/1.1 101 Switching Protocols\r\n" +
		"Upgrade: websocket\r\n" +
		"Connection: Upgrade\r\n" +
		"Sec-WebSocket-Accept: "

	// AcceptResponseLen is the exact size of the rendered 101 response.
	AcceptResponseLen = len(acceptResponsePrefix) + AcceptKeyLen + 4
)

// ErrMalformedHandshake is returned for a complete header block that is not a
// usable Upgrade request.
var ErrMalformedHandshake = errors.New("malformed websocket upgrade request")

var (
	crlf           = []byte("\r\n")
	headerEnd      = []byte("\r\n\r\n")
	methodGet      = []byte("GET ")
	headerSecWSKey = []byte("Sec-WebSocket-Key:")
)

// Handshake names the request path and client key inside the input span.
type Handshake struct {
	Path []byte
	Key  []byte
}

// Clone returns a copy that no longer aliases the input buffer.
func (h Handshake) Clone() Handshake {
	return Handshake{
		Path: append([]byte(nil), h.Path...),
		Key:  append([]byte(nil), h.Key...),
	}
}

// ParseRequest parses an Upgrade request from the head of src.
// Returns (0, _, nil) while the header terminator has not arrived; otherwise
// the byte count through the terminator. A complete request without the GET
// method, a path or a Sec-WebSocket-Key header yields ErrMalformedHandshake.
func ParseRequest(src []byte) (int, Handshake, error) {
	end := bytes.Index(src, headerEnd)
	if end < 0 {
		return 0, Handshake{}, nil
	}
	end += len(headerEnd)
	head := src[:end]

	if !bytes.HasPrefix(head, methodGet) {
		return 0, Handshake{}, ErrMalformedHandshake
	}
	lineEnd := bytes.Index(head, crlf)
	requestLine := head[len(methodGet):lineEnd]
	sp := bytes.IndexByte(requestLine, ' ')
	if sp <= 0 {
		return 0, Handshake{}, ErrMalformedHandshake
	}

	key := headerValue(head[lineEnd+len(crlf):], headerSecWSKey)
	if len(key) == 0 {
		return 0, Handshake{}, ErrMalformedHandshake
	}
	return end, Handshake{Path: requestLine[:sp:sp], Key: key}, nil
}

// headerValue returns the trimmed value of the first header whose name
// matches name (including the colon) ignoring ASCII case.
func headerValue(fields, name []byte) []byte {
	for len(fields) > 0 {
		i := bytes.Index(fields, crlf)
		if i < 0 {
			i = len(fields)
		}
		line := fields[:i]
		if len(line) >= len(name) && bytes.EqualFold(line[:len(name)], name) {
			v := bytes.Trim(line[len(name):], " \t")
			return v[:len(v):len(v)]
		}
		if i == len(fields) {
			break
		}
		fields = fields[i+len(crlf):]
	}
	return nil
}

// AcceptKey writes base64(SHA1(key + GUID)) into dst and returns AcceptKeyLen.
func AcceptKey(dst, key []byte) int {
	h := sha1.New()
	h.Write(key)
	io.WriteString(h, WebSocketGUID)
	var sum [sha1.Size]byte
	return EncodeBase64(dst, h.Sum(sum[:0]))
}

// ComputeAcceptKey computes the Sec-WebSocket-Accept value from the client's key.
// This implements the algorithm specified in RFC6455 Section 1.3.
func ComputeAcceptKey(clientKey string) string {
	var dst [AcceptKeyLen]byte
	n := AcceptKey(dst[:], []byte(clientKey))
	return string(dst[:n])
}

// RenderAcceptResponse writes the 101 response for key into dst and returns
// the bytes written. dst must hold AcceptResponseLen bytes.
func RenderAcceptResponse(dst, key []byte) int {
	if len(dst) < AcceptResponseLen {
		panic("protocol: handshake destination too small")
	}
	n := copy(dst, acceptResponsePrefix)
	n += AcceptKey(dst[n:], key)
	n += copy(dst[n:], headerEnd)
	return n
}
