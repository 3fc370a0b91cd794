package protocol

import (
	"encoding/binary"
	"fmt"
	"io"
)

// HeaderSize is the length prefix of every frame.
const HeaderSize = 4

// WriteFrame writes payload prefixed by its big-endian length.
func WriteFrame(w io.Writer, payload []byte, maxSize int) error {
	if len(payload) == 0 {
		return ErrEmptyPayload
	}
	if len(payload) > maxSize {
		return fmt.Errorf("%w: %d bytes, limit %d", ErrFrameTooLarge, len(payload), maxSize)
	}

	buf := make([]byte, HeaderSize+len(payload))
	binary.BigEndian.PutUint32(buf, uint32(len(payload)))
	copy(buf[HeaderSize:], payload)

	if _, err := w.Write(buf); err != nil {
		return fmt.Errorf("protocol: write frame: %w", err)
	}
	return nil
}

// ReadFrame reads one length-prefixed frame. An oversize length is rejected
// before the payload is read.
func ReadFrame(r io.Reader, maxSize int) ([]byte, error) {
	var header [HeaderSize]byte
	if _, err := io.ReadFull(r, header[:]); err != nil {
		return nil, err
	}

	n := binary.BigEndian.Uint32(header[:])
	if n == 0 {
		return nil, ErrEmptyPayload
	}
	if uint64(n) > uint64(maxSize) {
		return nil, fmt.Errorf("%w: %d bytes, limit %d", ErrFrameTooLarge, n, maxSize)
	}

	payload := make([]byte, n)
	if _, err := io.ReadFull(r, payload); err != nil {
		return nil, fmt.Errorf("protocol: short frame: %w", err)
	}
	return payload, nil
}
