package multiplayer

import (
	"errors"
	"fmt"

	"github.com/vovakirdan/bulletverse/internal/world"
)

var (
	// ErrServerClosed is returned by operations on a closed server.
	ErrServerClosed = errors.New("multiplayer: server closed")
	// ErrAlreadyStarted is returned when Start is called twice.
	ErrAlreadyStarted = errors.New("multiplayer: server already started")
	// ErrDuplicateID rejects a handshake for an identifier that is connected.
	ErrDuplicateID = errors.New("multiplayer: player already connected")
	// ErrInvalidID rejects an empty, reserved or oversized identifier.
	ErrInvalidID = errors.New("multiplayer: invalid player identifier")
)

// ConnectionError reports a failed accept, handshake, read or write.
type ConnectionError struct {
	Op  string
	ID  world.PlayerID // Empty before the handshake completes
	Err error
}

func (e *ConnectionError) Error() string {
	if e.ID == "" {
		return fmt.Sprintf("multiplayer: %s: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("multiplayer: %s %s: %v", e.Op, e.ID, e.Err)
}

func (e *ConnectionError) Unwrap() error { return e.Err }

// ProtocolError reports a message that violates the wire protocol.
type ProtocolError struct {
	ID  world.PlayerID
	Err error
}

func (e *ProtocolError) Error() string {
	if e.ID == "" {
		return fmt.Sprintf("multiplayer: protocol violation: %v", e.Err)
	}
	return fmt.Sprintf("multiplayer: protocol violation by %s: %v", e.ID, e.Err)
}

func (e *ProtocolError) Unwrap() error { return e.Err }
