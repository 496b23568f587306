// File: websocket/handler.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package websocket

import (
	"github.com/momentics/wsengine/api"
	"github.com/momentics/wsengine/core/protocol"
)

// Handler receives connection events. Callbacks run synchronously inside
// Process, Flush or Fail. The Handshake and Message views alias the input
// buffer and must be copied (Clone) if needed after the callback returns.
type Handler interface {
	OnConnect(hs protocol.Handshake)
	OnMessage(msg protocol.Message)
	// OnClose fires exactly once, after a close frame or after OnError.
	OnClose()
	OnError(code api.ErrorCode)
}

// HandlerFuncs adapts optional functions to Handler. Nil fields are skipped.
type HandlerFuncs struct {
	Connect func(hs protocol.Handshake)
	Message func(msg protocol.Message)
	Close   func()
	Error   func(code api.ErrorCode)
}

// OnConnect calls Connect if set.
func (h HandlerFuncs) OnConnect(hs protocol.Handshake) {
	if h.Connect != nil {
		h.Connect(hs)
	}
}

// OnMessage calls Message if set.
func (h HandlerFuncs) OnMessage(msg protocol.Message) {
	if h.Message != nil {
		h.Message(msg)
	}
}

// OnClose calls Close if set.
func (h HandlerFuncs) OnClose() {
	if h.Close != nil {
		h.Close()
	}
}

// OnError calls Error if set.
func (h HandlerFuncs) OnError(code api.ErrorCode) {
	if h.Error != nil {
		h.Error(code)
	}
}

var nopHandler Handler = HandlerFuncs{}
