// File: transport/listener.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Blocking goroutine-per-connection host for websocket.Connection. Each
// accepted net.Conn is driven by a Process/Flush loop until it closes.

package transport

import (
	"context"
	"errors"
	"io"
	"log"
	"net"

	"github.com/momentics/wsengine/websocket"
)

// HandlerFactory builds the event handler for one accepted connection. The
// returned handler may use conn to queue replies from its callbacks.
type HandlerFactory func(nc net.Conn, conn *websocket.Connection) websocket.Handler

// ServeConn drives a single connection until it closes, then closes nc.
// Replies are flushed after every read, so handlers can only answer inbound
// traffic; use the reactor-based server for unsolicited pushes.
func ServeConn(nc net.Conn, factory HandlerFactory, opts ...websocket.Option) error {
	defer nc.Close()

	stream := NewStream(nc)
	all := make([]websocket.Option, 0, len(opts)+1)
	all = append(all, opts...)
	conn := websocket.New(append(all, websocket.WithTransport(stream))...)
	if factory != nil {
		conn.SetHandler(factory(nc, conn))
	}
	for conn.Connected() {
		conn.Process()
		conn.Flush()
	}
	switch err := stream.Err(); {
	case err == nil, errors.Is(err, io.EOF), errors.Is(err, net.ErrClosed):
		return nil
	default:
		return err
	}
}

// Serve accepts connections from ln until ctx is done or ln fails.
func Serve(ctx context.Context, ln net.Listener, factory HandlerFactory, opts ...websocket.Option) error {
	go func() {
		<-ctx.Done()
		ln.Close()
	}()

	for {
		nc, err := ln.Accept()
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			var ne net.Error
			if errors.As(err, &ne) && ne.Timeout() {
				log.Printf("[transport] accept: %v", err)
				continue
			}
			return err
		}
		go func() {
			defer func() {
				if r := recover(); r != nil {
					log.Printf("[transport] panic in connection %s: %v", nc.RemoteAddr(), r)
				}
			}()
			if err := ServeConn(nc, factory, opts...); err != nil {
				log.Printf("[transport] connection %s: %v", nc.RemoteAddr(), err)
			}
		}()
	}
}
