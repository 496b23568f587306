package transport_test

import (
	"bytes"
	"context"
	"net"
	"net/http"
	"testing"
	"time"

	nws "nhooyr.io/websocket"

	"github.com/momentics/wsengine/core/protocol"
	"github.com/momentics/wsengine/transport"
	"github.com/momentics/wsengine/websocket"
)

func echoFactory(_ net.Conn, conn *websocket.Connection) websocket.Handler {
	return websocket.HandlerFuncs{
		Message: func(msg protocol.Message) { conn.Send(msg.Payload, msg.Opcode) },
	}
}

// dialPipe connects a real RFC 6455 client to ServeConn over net.Pipe.
func dialPipe(t *testing.T, ctx context.Context, opts ...websocket.Option) (*nws.Conn, <-chan error) {
	t.Helper()
	srvEnd, cliEnd := net.Pipe()
	done := make(chan error, 1)
	go func() { done <- transport.ServeConn(srvEnd, echoFactory, opts...) }()

	hc := &http.Client{Transport: &http.Transport{
		DialContext: func(context.Context, string, string) (net.Conn, error) { return cliEnd, nil },
	}}
	c, resp, err := nws.Dial(ctx, "ws://pipe.test/echo", &nws.DialOptions{HTTPClient: hc})
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	if resp.StatusCode != http.StatusSwitchingProtocols {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	return c, done
}

func TestServeConnEcho(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	c, done := dialPipe(t, ctx)
	for _, msg := range []string{"hello", "world"} {
		if err := c.Write(ctx, nws.MessageText, []byte(msg)); err != nil {
			t.Fatalf("write: %v", err)
		}
		typ, got, err := c.Read(ctx)
		if err != nil {
			t.Fatalf("read: %v", err)
		}
		if typ != nws.MessageText || string(got) != msg {
			t.Errorf("echo = %v %q, want text %q", typ, got, msg)
		}
	}

	c.CloseNow()
	select {
	case err := <-done:
		if err != nil {
			t.Errorf("ServeConn: %v", err)
		}
	case <-ctx.Done():
		t.Fatal("ServeConn did not return after client close")
	}
}

func TestServeConnLargeBinary(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	c, _ := dialPipe(t, ctx, websocket.WithMaxMessageLen(1<<17))
	defer c.CloseNow()
	c.SetReadLimit(1 << 17)

	payload := bytes.Repeat([]byte{0xde, 0xad, 0xbe, 0xef}, 70000/4)
	if err := c.Write(ctx, nws.MessageBinary, payload); err != nil {
		t.Fatalf("write: %v", err)
	}
	typ, got, err := c.Read(ctx)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if typ != nws.MessageBinary || !bytes.Equal(got, payload) {
		t.Errorf("echo mismatch: type %v, %d bytes", typ, len(got))
	}
}

func TestServe(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Skipf("listen: %v", err)
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	served := make(chan error, 1)
	go func() { served <- transport.Serve(ctx, ln, echoFactory) }()

	c, _, err := nws.Dial(ctx, "ws://"+ln.Addr().String()+"/", nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer c.CloseNow()
	if err := c.Write(ctx, nws.MessageText, []byte("tcp")); err != nil {
		t.Fatalf("write: %v", err)
	}
	if _, got, err := c.Read(ctx); err != nil || string(got) != "tcp" {
		t.Fatalf("read = %q, %v", got, err)
	}

	cancel()
	if err := <-served; err != nil {
		t.Errorf("Serve: %v", err)
	}
}
