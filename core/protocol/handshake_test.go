package protocol_test

import (
	"errors"
	"strings"
	"testing"

	"github.com/momentics/wsengine/core/protocol"
)

const sampleRequest = "GET /chat HTTP/1.1\r\n" +
	"Host: server.example.com\r\n" +
	"Upgrade: websocket\r\n" +
	"Connection: Upgrade\r\n" +
	"Sec-WebSocket-Key: dGhlIHNhbXBsZSBub25jZQ==\r\n" +
	"Sec-WebSocket-Version: 13\r\n" +
	"\r\n"

func TestComputeAcceptKeyRFCVector(t *testing.T) {
	got := protocol.ComputeAcceptKey("dGhlIHNhbXBsZSBub25jZQ==")
	if got != "s3pPLMBiTxaQ9kYGzzhZRbK+xOo=" {
		t.Errorf("accept key = %q", got)
	}
}

func TestParseRequest(t *testing.T) {
	src := []byte(sampleRequest + "\x81\x80")
	n, hs, err := protocol.ParseRequest(src)
	if err != nil {
		t.Fatalf("ParseRequest: %v", err)
	}
	if n != len(sampleRequest) {
		t.Errorf("consumed %d, want %d", n, len(sampleRequest))
	}
	if string(hs.Path) != "/chat" {
		t.Errorf("path = %q", hs.Path)
	}
	if string(hs.Key) != "dGhlIHNhbXBsZSBub25jZQ==" {
		t.Errorf("key = %q", hs.Key)
	}
}

func TestParseRequestIncomplete(t *testing.T) {
	for i := 0; i < len(sampleRequest); i++ {
		n, _, err := protocol.ParseRequest([]byte(sampleRequest[:i]))
		if n != 0 || err != nil {
			t.Fatalf("prefix %d: got (%d, %v), want need-more-data", i, n, err)
		}
	}
}

func TestParseRequestHeaderCase(t *testing.T) {
	req := strings.Replace(sampleRequest, "Sec-WebSocket-Key: ", "sec-websocket-key:\t", 1)
	_, hs, err := protocol.ParseRequest([]byte(req))
	if err != nil {
		t.Fatalf("ParseRequest: %v", err)
	}
	if string(hs.Key) != "dGhlIHNhbXBsZSBub25jZQ==" {
		t.Errorf("key = %q", hs.Key)
	}
}

func TestParseRequestMalformed(t *testing.T) {
	cases := map[string]string{
		"method":  strings.Replace(sampleRequest, "GET ", "POST ", 1),
		"no key":  "GET /chat HTTP/1.1\r\nHost: x\r\n\r\n",
		"no path": "GET \r\nSec-WebSocket-Key: abc\r\n\r\n",
		"empty":   "GET  HTTP/1.1\r\nSec-WebSocket-Key: abc\r\n\r\n",
	}
	for name, req := range cases {
		n, _, err := protocol.ParseRequest([]byte(req))
		if !errors.Is(err, protocol.ErrMalformedHandshake) || n != 0 {
			t.Errorf("%s: got (%d, %v), want ErrMalformedHandshake", name, n, err)
		}
	}
}

func TestRenderAcceptResponse(t *testing.T) {
	dst := make([]byte, protocol.AcceptResponseLen)
	n := protocol.RenderAcceptResponse(dst, []byte("dGhlIHNhbXBsZSBub25jZQ=="))
	want := "HTTP/1.1 101 Switching Protocols\r\n" +
		"Upgrade: websocket\r\n" +
		"Connection: Upgrade\r\n" +
		"Sec-WebSocket-Accept: s3pPLMBiTxaQ9kYGzzhZRbK+xOo=\r\n\r\n"
	if n != len(want) || string(dst[:n]) != want {
		t.Errorf("response = %q, want %q", dst[:n], want)
	}
}

func TestHandshakeClone(t *testing.T) {
	src := []byte(sampleRequest)
	_, hs, _ := protocol.ParseRequest(src)
	c := hs.Clone()
	for i := range src {
		src[i] = 0
	}
	if string(c.Path) != "/chat" || string(c.Key) != "dGhlIHNhbXBsZSBub25jZQ==" {
		t.Errorf("clone aliased input: %q %q", c.Path, c.Key)
	}
}
