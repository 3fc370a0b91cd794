package transport

import (
	"bufio"
	"net"
	"sync"
	"time"

	"github.com/vovakirdan/bulletverse/internal/protocol"
)

// StreamConn frames payloads over a byte stream such as TCP.
type StreamConn struct {
	conn    net.Conn
	r       *bufio.Reader
	maxSize int

	writeMu sync.Mutex
}

// NewStreamConn wraps c. Frames larger than maxSize are rejected both ways.
func NewStreamConn(c net.Conn, maxSize int) *StreamConn {
	return &StreamConn{
		conn:    c,
		r:       bufio.NewReader(c),
		maxSize: maxSize,
	}
}

// ReadMessage reads the next frame.
func (s *StreamConn) ReadMessage() ([]byte, error) {
	return protocol.ReadFrame(s.r, s.maxSize)
}

// WriteMessage writes payload as a single frame.
func (s *StreamConn) WriteMessage(payload []byte) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	return protocol.WriteFrame(s.conn, payload, s.maxSize)
}

func (s *StreamConn) SetReadDeadline(t time.Time) error  { return s.conn.SetReadDeadline(t) }
func (s *StreamConn) SetWriteDeadline(t time.Time) error { return s.conn.SetWriteDeadline(t) }
func (s *StreamConn) RemoteAddr() net.Addr               { return s.conn.RemoteAddr() }
func (s *StreamConn) Close() error                       { return s.conn.Close() }
