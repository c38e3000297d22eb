package sysex

import (
	"errors"
	"fmt"
)

var (
	// ErrMalformedFrame means the byte sequence is not a SysEx frame at all:
	// missing the 0xF0/0xF7 bookends or too short to carry any payload.
	ErrMalformedFrame = errors.New("sysex: malformed frame")

	// ErrUnknownMessageFormat means the frame is well formed but its body
	// matches none of the known message shapes.
	ErrUnknownMessageFormat = errors.New("sysex: unknown message format")
)

// InvalidControlDataError reports an out-of-range field caught while
// validating a custom mode before any bytes are built.
type InvalidControlDataError struct {
	Field string
	Value int
}

func (e *InvalidControlDataError) Error() string {
	return fmt.Sprintf("sysex: invalid control data: %s = %d", e.Field, e.Value)
}
