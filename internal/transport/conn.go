// Package transport carries protocol payloads over persistent connections.
// A TCP stream carries length-prefixed frames; a WebSocket carries one
// payload per binary message.
package transport

import (
	"context"
	"fmt"
	"net"
	"strings"
	"time"

	"github.com/gorilla/websocket"
)

// Conn is a message-oriented, persistent connection.
// Reads must come from a single goroutine; writes are serialized internally.
type Conn interface {
	ReadMessage() ([]byte, error)
	WriteMessage(payload []byte) error
	SetReadDeadline(t time.Time) error
	SetWriteDeadline(t time.Time) error
	RemoteAddr() net.Addr
	Close() error
}

// IsWebSocketURL reports whether addr should be dialed as a WebSocket.
func IsWebSocketURL(addr string) bool {
	return strings.HasPrefix(addr, "ws://") || strings.HasPrefix(addr, "wss://")
}

// Dial connects to addr: a ws:// or wss:// URL, or a TCP host:port.
func Dial(ctx context.Context, addr string, maxFrameSize int) (Conn, error) {
	if IsWebSocketURL(addr) {
		ws, _, err := websocket.DefaultDialer.DialContext(ctx, addr, nil)
		if err != nil {
			return nil, fmt.Errorf("transport: dial %s: %w", addr, err)
		}
		return NewWebSocketConn(ws, maxFrameSize), nil
	}

	var d net.Dialer
	c, err := d.DialContext(ctx, "tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("transport: dial %s: %w", addr, err)
	}
	return NewStreamConn(c, maxFrameSize), nil
}
