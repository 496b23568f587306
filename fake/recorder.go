// Package fake
// Author: momentics <momentics@gmail.com>

package fake

import (
	"github.com/momentics/wsengine/api"
	"github.com/momentics/wsengine/core/protocol"
)

// Recorder captures connection events, copying every view it receives.
type Recorder struct {
	Connects []protocol.Handshake
	Messages []protocol.Message
	Errors   []api.ErrorCode
	Closes   int
	// Events lists event names in arrival order: connect, message, close, error.
	Events []string

	// OnMessageHook, if set, runs after a message is recorded.
	OnMessageHook func(msg protocol.Message)
}

func (r *Recorder) OnConnect(hs protocol.Handshake) {
	r.Connects = append(r.Connects, hs.Clone())
	r.Events = append(r.Events, "connect")
}

func (r *Recorder) OnMessage(msg protocol.Message) {
	r.Messages = append(r.Messages, msg.Clone())
	r.Events = append(r.Events, "message")
	if r.OnMessageHook != nil {
		r.OnMessageHook(msg)
	}
}

func (r *Recorder) OnClose() {
	r.Closes++
	r.Events = append(r.Events, "close")
}

func (r *Recorder) OnError(code api.ErrorCode) {
	r.Errors = append(r.Errors, code)
	r.Events = append(r.Events, "error")
}
