// Package device drives the Launch Control XL 3 protocol exchanges over an
// abstract transport: the identification handshake, slot selection on the
// DAW port, and paged custom-mode reads and writes with acknowledgement
// handling. It never opens or enumerates MIDI ports; see the midi package
// for the gomidi-backed transport.
package device

import (
	"context"
	"errors"
	"time"
)

// Transport is the raw byte-level MIDI connection the engine talks through.
// Send transmits one complete message (a full SysEx frame or a 3-byte
// channel message). WaitFor blocks until a received message satisfies match,
// the timeout elapses (ErrTimeout), or ctx is done.
//
// The device has no correlation IDs: replies are matched by arrival order
// and shape. Callers must serialize operations against one device; Device
// does that with an internal mutex.
type Transport interface {
	Send(msg []byte) error
	WaitFor(ctx context.Context, match func(msg []byte) bool, timeout time.Duration) ([]byte, error)
}

// ErrTimeout is returned by Transport.WaitFor when nothing matching arrives
// in time. The engine wraps it in a TimeoutError naming the waiting step.
var ErrTimeout = errors.New("device: timed out waiting for message")

// ErrWaitUnsupported may be returned by send-only transports that cannot
// observe incoming messages. Optional waits treat it like a timeout.
var ErrWaitUnsupported = errors.New("device: transport cannot wait for messages")

// awaitReply is the single await-with-timeout-and-cancel used at every
// suspension point, so timeout and cancellation behave identically across
// the handshake, the slot selector, and the write orchestrator.
func awaitReply(ctx context.Context, t Transport, step string, match func([]byte) bool, timeout time.Duration) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, &CancelledError{Step: step, cause: err}
	}
	msg, err := t.WaitFor(ctx, match, timeout)
	if err != nil {
		if ctx.Err() != nil || errors.Is(err, context.Canceled) {
			return nil, &CancelledError{Step: step, cause: err}
		}
		if errors.Is(err, ErrTimeout) || errors.Is(err, context.DeadlineExceeded) {
			return nil, &TimeoutError{Step: step}
		}
		return nil, err
	}
	return msg, nil
}

// awaitOptional performs a wait whose absence of an answer is not a failure:
// older firmware and interactive modes do not echo at all. It returns nil on
// timeout or on a transport that cannot listen; cancellation still aborts.
func awaitOptional(ctx context.Context, t Transport, step string, match func([]byte) bool, timeout time.Duration) ([]byte, error) {
	msg, err := awaitReply(ctx, t, step, match, timeout)
	if err != nil {
		var te *TimeoutError
		if errors.As(err, &te) || errors.Is(err, ErrWaitUnsupported) {
			return nil, nil
		}
		return nil, err
	}
	return msg, nil
}
