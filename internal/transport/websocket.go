package transport

import (
	"fmt"
	"net"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/vovakirdan/bulletverse/internal/protocol"
)

const closeFrameTimeout = 100 * time.Millisecond

// WebSocketConn carries one payload per binary WebSocket message.
type WebSocketConn struct {
	ws      *websocket.Conn
	maxSize int

	writeMu sync.Mutex
}

// NewWebSocketConn wraps ws and limits inbound messages to maxSize bytes.
func NewWebSocketConn(ws *websocket.Conn, maxSize int) *WebSocketConn {
	ws.SetReadLimit(int64(maxSize))
	return &WebSocketConn{ws: ws, maxSize: maxSize}
}

// ReadMessage returns the next data message. Text messages are accepted so
// browser clients can send the handshake identifier as a string.
func (c *WebSocketConn) ReadMessage() ([]byte, error) {
	_, data, err := c.ws.ReadMessage()
	if err != nil {
		if err == websocket.ErrReadLimit {
			return nil, fmt.Errorf("%w: %v", protocol.ErrFrameTooLarge, err)
		}
		return nil, err
	}
	if len(data) == 0 {
		return nil, protocol.ErrEmptyPayload
	}
	return data, nil
}

// WriteMessage sends payload as one binary message.
func (c *WebSocketConn) WriteMessage(payload []byte) error {
	if len(payload) > c.maxSize {
		return fmt.Errorf("%w: %d bytes, limit %d", protocol.ErrFrameTooLarge, len(payload), c.maxSize)
	}
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	return c.ws.WriteMessage(websocket.BinaryMessage, payload)
}

func (c *WebSocketConn) SetReadDeadline(t time.Time) error  { return c.ws.SetReadDeadline(t) }
func (c *WebSocketConn) SetWriteDeadline(t time.Time) error { return c.ws.SetWriteDeadline(t) }
func (c *WebSocketConn) RemoteAddr() net.Addr               { return c.ws.RemoteAddr() }

// Close sends a close frame when no write is in flight and closes the
// socket. A writer blocked on a slow peer does not delay Close.
func (c *WebSocketConn) Close() error {
	if c.writeMu.TryLock() {
		_ = c.ws.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
			time.Now().Add(closeFrameTimeout))
		c.writeMu.Unlock()
	}
	return c.ws.Close()
}
