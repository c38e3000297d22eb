// Package midi adapts gomidi ports to the device.Transport contract and
// handles discovery of Launch Control XL 3 port pairs, including hot-plug.
package midi

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"
	gomidi "gitlab.com/gomidi/midi/v2"
	"gitlab.com/gomidi/midi/v2/drivers"

	"lcxl3/device"
)

// Port is one open in/out MIDI port pair speaking raw bytes. It implements
// device.Transport: sends go straight out, receives land in a buffered
// channel that WaitFor drains.
type Port struct {
	name string
	out  drivers.Out
	in   drivers.In

	send func(msg gomidi.Message) error
	stop func()

	incoming chan []byte
	closed   bool
	mu       sync.Mutex
	log      zerolog.Logger
}

// OpenPort opens the pair. Either side may be nil: an out-only port can
// still Send, and WaitFor then reports device.ErrWaitUnsupported.
func OpenPort(name string, in drivers.In, out drivers.Out, log zerolog.Logger) (*Port, error) {
	p := &Port{
		name:     name,
		in:       in,
		out:      out,
		incoming: make(chan []byte, 64),
		log:      log,
	}

	if out != nil {
		send, err := gomidi.SendTo(out)
		if err != nil {
			return nil, fmt.Errorf("open output %s: %w", name, err)
		}
		p.send = send
	}

	if in != nil {
		stop, err := gomidi.ListenTo(in, func(msg gomidi.Message, timestampms int32) {
			raw := make([]byte, len(msg))
			copy(raw, msg)
			select {
			case p.incoming <- raw:
			default:
				p.log.Debug().Str("port", p.name).Msg("dropping message, receive buffer full")
			}
		}, gomidi.UseSysEx())
		if err != nil {
			return nil, fmt.Errorf("open input %s: %w", name, err)
		}
		p.stop = stop
	}

	return p, nil
}

func (p *Port) Name() string { return p.name }

// Send transmits one complete raw message. SysEx frames arrive here with
// their bookends; gomidi wants the interior only and re-frames them.
func (p *Port) Send(msg []byte) error {
	if p.send == nil {
		return fmt.Errorf("port %s has no output", p.name)
	}
	if len(msg) >= 2 && msg[0] == 0xF0 && msg[len(msg)-1] == 0xF7 {
		return p.send(gomidi.SysEx(msg[1 : len(msg)-1]))
	}
	return p.send(gomidi.Message(msg))
}

// WaitFor blocks until a received message satisfies match. Non-matching
// messages are discarded: the protocol correlates by shape and arrival
// order, so anything else on the wire during a wait is noise.
func (p *Port) WaitFor(ctx context.Context, match func([]byte) bool, timeout time.Duration) ([]byte, error) {
	if p.in == nil {
		return nil, device.ErrWaitUnsupported
	}
	timer := time.NewTimer(timeout)
	defer timer.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case msg := <-p.incoming:
			if match(msg) {
				return msg, nil
			}
			p.log.Debug().Str("port", p.name).Hex("msg", msg).Msg("skipping non-matching message")
		case <-timer.C:
			return nil, device.ErrTimeout
		}
	}
}

// Close stops the listener. The underlying driver ports are owned by the
// manager that discovered them.
func (p *Port) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return nil
	}
	p.closed = true
	if p.stop != nil {
		p.stop()
	}
	return nil
}
