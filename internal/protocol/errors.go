package protocol

import "errors"

var (
	// ErrFrameTooLarge is returned when a frame exceeds the size limit.
	ErrFrameTooLarge = errors.New("protocol: frame too large")
	// ErrEmptyPayload is returned for zero-length frames and payloads.
	ErrEmptyPayload = errors.New("protocol: empty payload")
	// ErrUnknownFlag is returned when a payload carries an unsupported flag byte.
	ErrUnknownFlag = errors.New("protocol: unknown payload flag")
)
