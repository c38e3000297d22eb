package device

import (
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// Options tune the per-step wait deadlines. Zero values take the defaults;
// the page-3 acknowledgement deadline is deliberately much longer because
// the hardware delays or garbles exactly that acknowledgement.
type Options struct {
	HandshakeTimeout time.Duration // SYN-ACK and inquiry-reply waits
	ReadTimeout      time.Duration // custom-mode response waits
	Page0AckTimeout  time.Duration // write ack for the encoder page
	Page3AckTimeout  time.Duration // write ack for the fader/button page
	EchoTimeout      time.Duration // optional slot-selector CC echoes
	Logger           zerolog.Logger
}

func (o *Options) fillDefaults() {
	if o.HandshakeTimeout == 0 {
		o.HandshakeTimeout = 300 * time.Millisecond
	}
	if o.ReadTimeout == 0 {
		o.ReadTimeout = time.Second
	}
	if o.Page0AckTimeout == 0 {
		o.Page0AckTimeout = 500 * time.Millisecond
	}
	if o.Page3AckTimeout == 0 {
		o.Page3AckTimeout = 2 * time.Second
	}
	if o.EchoTimeout == 0 {
		o.EchoTimeout = 150 * time.Millisecond
	}
}

// Device is one logical connection to a Launch Control XL 3. The SysEx
// exchanges run over the MIDI port pair; slot selection runs out of band
// over the DAW port pair. All protocol state lives in this value, so
// independent Device instances can drive multiple controllers concurrently.
//
// The mutex enforces the single-flight rule: the device correlates replies
// by arrival order only, so one handshake, read, or write at a time.
type Device struct {
	midi Transport
	daw  Transport
	opts Options
	log  zerolog.Logger

	mu sync.Mutex
}

// New wires a Device to its two transports. daw may be nil when the DAW
// port pair is unavailable; slot selection then fails fast.
func New(midi, daw Transport, opts Options) *Device {
	opts.fillDefaults()
	return &Device{
		midi: midi,
		daw:  daw,
		opts: opts,
		log:  opts.Logger,
	}
}
