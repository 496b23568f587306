//go:build linux
// +build linux

package server_test

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net"
	"testing"
	"time"

	nws "nhooyr.io/websocket"

	"github.com/momentics/wsengine/control"
	"github.com/momentics/wsengine/core/protocol"
	"github.com/momentics/wsengine/server"
	"github.com/momentics/wsengine/websocket"
)

func echoFactory(s *server.Session) websocket.Handler {
	return websocket.HandlerFuncs{
		Message: func(msg protocol.Message) {
			if string(msg.Payload) == "bye" {
				s.Close(protocol.CloseNormalClosure, "bye")
				return
			}
			s.Send(msg.Payload, msg.Opcode)
		},
	}
}

func startServer(t *testing.T, factory server.HandlerFactory) (*server.Server, <-chan error) {
	t.Helper()
	cfg := server.DefaultConfig()
	cfg.ListenAddr = "127.0.0.1:0"
	cfg.PollTimeout = 20 * time.Millisecond
	srv, err := server.New(cfg, factory)
	if err != nil {
		t.Skipf("server unavailable: %v", err)
	}
	done := make(chan error, 1)
	go func() { done <- srv.Run(context.Background()) }()
	t.Cleanup(func() { srv.Close() })
	return srv, done
}

func dial(t *testing.T, ctx context.Context, srv *server.Server, path string) *nws.Conn {
	t.Helper()
	c, _, err := nws.Dial(ctx, "ws://"+srv.Addr().String()+path, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(func() { c.CloseNow() })
	return c
}

func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(3 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatalf("timed out waiting for %s", what)
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestServerEcho(t *testing.T) {
	srv, _ := startServer(t, echoFactory)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	c := dial(t, ctx, srv, "/echo")
	c.SetReadLimit(1 << 16)
	payloads := [][]byte{[]byte("hi"), bytes.Repeat([]byte("x"), 40000)}
	for _, p := range payloads {
		if err := c.Write(ctx, nws.MessageBinary, p); err != nil {
			t.Fatalf("write: %v", err)
		}
		typ, got, err := c.Read(ctx)
		if err != nil {
			t.Fatalf("read: %v", err)
		}
		if typ != nws.MessageBinary || !bytes.Equal(got, p) {
			t.Errorf("echo mismatch: %v, %d bytes", typ, len(got))
		}
	}

	c.CloseNow()
	waitFor(t, "session drop", func() bool { return srv.ActiveSessions() == 0 })
	m := srv.Metrics()
	if m[control.MetricConnectionsAccepted] != 1 || m[control.MetricHandshakes] != 1 {
		t.Errorf("metrics = %v", m)
	}
	if m[control.MetricFramesReceived] < 2 || m[control.MetricFramesSent] < 2 {
		t.Errorf("frame counters = %v", m)
	}
}

func TestServerSessionPath(t *testing.T) {
	paths := make(chan string, 1)
	srv, _ := startServer(t, func(s *server.Session) websocket.Handler {
		return websocket.HandlerFuncs{
			Connect: func(protocol.Handshake) { paths <- s.Path() },
		}
	})
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	dial(t, ctx, srv, "/chat?room=1")
	select {
	case p := <-paths:
		if p != "/chat?room=1" {
			t.Errorf("path = %q", p)
		}
	case <-ctx.Done():
		t.Fatal("no connect callback")
	}
}

func TestServerBroadcast(t *testing.T) {
	srv, _ := startServer(t, echoFactory)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	a := dial(t, ctx, srv, "/")
	b := dial(t, ctx, srv, "/")
	waitFor(t, "handshakes", func() bool { return srv.Metrics()[control.MetricHandshakes] == 2 })

	if err := srv.Broadcast(protocol.OpcodeText, []byte("news")); err != nil {
		t.Fatalf("Broadcast: %v", err)
	}
	for _, c := range []*nws.Conn{a, b} {
		typ, got, err := c.Read(ctx)
		if err != nil {
			t.Fatalf("read: %v", err)
		}
		if typ != nws.MessageText || string(got) != "news" {
			t.Errorf("broadcast = %v %q", typ, got)
		}
	}
	waitFor(t, "broadcast counter", func() bool { return srv.Metrics()[control.MetricBroadcasts] == 1 })
}

func TestServerSessionClose(t *testing.T) {
	srv, _ := startServer(t, echoFactory)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	c := dial(t, ctx, srv, "/")
	if err := c.Write(ctx, nws.MessageText, []byte("bye")); err != nil {
		t.Fatalf("write: %v", err)
	}
	_, _, err := c.Read(ctx)
	if code := nws.CloseStatus(err); code != nws.StatusNormalClosure {
		t.Fatalf("read err = %v, close status %d", err, code)
	}
	waitFor(t, "session drop", func() bool { return srv.ActiveSessions() == 0 })
}

func TestServerMalformedHandshake(t *testing.T) {
	srv, _ := startServer(t, nil)

	nc, err := net.Dial("tcp", srv.Addr().String())
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer nc.Close()
	if _, err := nc.Write([]byte("POST / HTTP/1.1\r\nHost: x\r\n\r\n")); err != nil {
		t.Fatalf("write: %v", err)
	}
	nc.SetReadDeadline(time.Now().Add(3 * time.Second))
	if n, err := nc.Read(make([]byte, 64)); err != io.EOF {
		t.Errorf("read = %d, %v; want EOF", n, err)
	}

	key := control.MetricErrorsPrefix + "malformed_handshake"
	waitFor(t, key, func() bool { return srv.Metrics()[key] == 1 })
}

func TestServerCloseStopsRun(t *testing.T) {
	srv, done := startServer(t, nil)
	if got := srv.DebugState()["sessions.active"]; got != int64(0) {
		t.Errorf("sessions.active probe = %v", got)
	}
	if err := srv.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	select {
	case err := <-done:
		if !errors.Is(err, server.ErrServerClosed) {
			t.Errorf("Run = %v, want ErrServerClosed", err)
		}
	case <-time.After(3 * time.Second):
		t.Fatal("Run did not return")
	}
	if err := srv.Broadcast(protocol.OpcodeText, nil); !errors.Is(err, server.ErrServerClosed) {
		t.Errorf("Broadcast after Close = %v", err)
	}
	if err := srv.Close(); err != nil {
		t.Errorf("second Close = %v", err)
	}
}

func TestServerRunContextCancel(t *testing.T) {
	cfg := server.DefaultConfig()
	cfg.ListenAddr = "127.0.0.1:0"
	srv, err := server.New(cfg, nil)
	if err != nil {
		t.Skipf("server unavailable: %v", err)
	}
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- srv.Run(ctx) }()
	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Errorf("Run = %v, want nil", err)
		}
	case <-time.After(3 * time.Second):
		t.Fatal("Run ignored cancellation")
	}
}

func TestNewRejectsInvalidConfig(t *testing.T) {
	cfg := server.DefaultConfig()
	cfg.MaxMessageLen = 0
	if _, err := server.New(cfg, nil); err == nil {
		t.Fatal("New accepted invalid config")
	}
}
