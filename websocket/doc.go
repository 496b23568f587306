// Package websocket
// Author: momentics <momentics@gmail.com>
//
// Connection is the server-side WebSocket state machine. It owns an input and
// an output staging buffer and turns host-driven byte I/O into handshake and
// message events:
//
//	for conn.Connected() {
//		conn.Process()
//		conn.Flush()
//	}
//
// Process and Flush each perform at most one read or write attempt and never
// block, so the host picks the polling strategy: a busy loop, a readiness
// reactor, or test-driven stepping. A Connection is not safe for concurrent
// use; distinct Connections share no state.
package websocket
