package protocol

import (
	"bytes"
	"fmt"
	"io"

	"github.com/pierrec/lz4/v4"
	"github.com/vmihailenco/msgpack/v5"
)

// Payload flags. The first byte of every encoded payload is one of these.
const (
	FlagRaw byte = 0
	FlagLZ4 byte = 1
)

// Codec turns messages into payloads: one flag byte followed by a
// MessagePack body, LZ4-compressed when it is larger than the threshold.
type Codec struct {
	threshold int
}

// NewCodec creates a codec. A threshold of zero or less disables compression.
func NewCodec(compressThreshold int) *Codec {
	return &Codec{threshold: compressThreshold}
}

// Encode serializes v into a payload.
func (c *Codec) Encode(v any) ([]byte, error) {
	body, err := msgpack.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("protocol: encode: %w", err)
	}

	if c.threshold > 0 && len(body) > c.threshold {
		packed, err := compress(body)
		if err != nil {
			return nil, err
		}
		// Incompressible bodies go out raw
		if len(packed) < len(body) {
			return append([]byte{FlagLZ4}, packed...), nil
		}
	}

	return append([]byte{FlagRaw}, body...), nil
}

// Decode deserializes a payload produced by Encode into v.
func (c *Codec) Decode(payload []byte, v any) error {
	if len(payload) < 2 {
		return ErrEmptyPayload
	}

	body := payload[1:]
	switch payload[0] {
	case FlagRaw:
	case FlagLZ4:
		var err error
		if body, err = decompress(body); err != nil {
			return err
		}
	default:
		return fmt.Errorf("%w: %d", ErrUnknownFlag, payload[0])
	}

	if err := msgpack.Unmarshal(body, v); err != nil {
		return fmt.Errorf("protocol: decode: %w", err)
	}
	return nil
}

func compress(src []byte) ([]byte, error) {
	var buf bytes.Buffer
	zw := lz4.NewWriter(&buf)
	if _, err := zw.Write(src); err != nil {
		return nil, fmt.Errorf("protocol: compress: %w", err)
	}
	if err := zw.Close(); err != nil {
		return nil, fmt.Errorf("protocol: compress: %w", err)
	}
	return buf.Bytes(), nil
}

func decompress(src []byte) ([]byte, error) {
	var buf bytes.Buffer
	if _, err := io.Copy(&buf, lz4.NewReader(bytes.NewReader(src))); err != nil {
		return nil, fmt.Errorf("protocol: decompress: %w", err)
	}
	return buf.Bytes(), nil
}
