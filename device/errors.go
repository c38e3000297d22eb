package device

import "fmt"

// TimeoutError reports which protocol step ran out of time. It unwraps to
// ErrTimeout so errors.Is(err, ErrTimeout) holds.
type TimeoutError struct {
	Step string
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("device: timeout waiting for %s", e.Step)
}

func (e *TimeoutError) Unwrap() error { return ErrTimeout }

// CancelledError reports that a caller-supplied cancellation aborted a wait.
// It unwraps to the context error.
type CancelledError struct {
	Step  string
	cause error
}

func (e *CancelledError) Error() string {
	return fmt.Sprintf("device: cancelled during %s: %v", e.Step, e.cause)
}

func (e *CancelledError) Unwrap() error { return e.cause }

// HandshakeFailedError reports which handshake step broke and why. The
// sequencer is terminal on first failure; there is no partial result.
type HandshakeFailedError struct {
	Step   string
	Reason string
}

func (e *HandshakeFailedError) Error() string {
	return fmt.Sprintf("device: handshake failed at %s: %s", e.Step, e.Reason)
}

// AckMismatchError reports a write acknowledgement whose status byte matches
// neither the expected slot encoding nor the known firmware quirk range.
type AckMismatchError struct {
	Page     uint8
	Expected uint8
	Received uint8
}

func (e *AckMismatchError) Error() string {
	return fmt.Sprintf("device: page %d ack status 0x%02X, expected 0x%02X",
		e.Page, e.Received, e.Expected)
}

// InvalidSlotError reports a slot outside the selectable range 0-14.
type InvalidSlotError struct {
	Slot int
}

func (e *InvalidSlotError) Error() string {
	return fmt.Sprintf("device: slot %d out of range 0-14", e.Slot)
}
