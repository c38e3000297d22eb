package midi

import (
	"github.com/rs/zerolog"

	"lcxl3/device"
	"lcxl3/sysex"
)

// Controller is one discovered Launch Control XL 3: the SysEx-speaking MIDI
// port pair, the DAW port pair used for slot selection, and the protocol
// engine wired to both.
type Controller struct {
	id   string
	midi *Port
	daw  *Port
	dev  *device.Device
	log  zerolog.Logger
}

func newController(id string, midiPort, dawPort *Port, opts device.Options) *Controller {
	var daw device.Transport
	if dawPort != nil {
		daw = dawPort
	}
	return &Controller{
		id:   id,
		midi: midiPort,
		daw:  dawPort,
		dev:  device.New(midiPort, daw, opts),
		log:  opts.Logger,
	}
}

func (c *Controller) ID() string { return c.id }

// Device exposes the protocol engine for this controller.
func (c *Controller) Device() *device.Device { return c.dev }

// LED animation is channel-coded on the wire: a Note On for the control's
// ID with the color as velocity, on channel 0, 1, or 2 for static, flash,
// and pulse.
const (
	ledChannelStatic uint8 = 0
	ledChannelFlash  uint8 = 1
	ledChannelPulse  uint8 = 2
)

func ledChannel(b sysex.ColorBehaviour) uint8 {
	switch b {
	case sysex.ColorFlash:
		return ledChannelFlash
	case sysex.ColorPulse:
		return ledChannelPulse
	default:
		return ledChannelStatic
	}
}

// SetLED lights one control's LED directly, outside any stored mode.
func (c *Controller) SetLED(controlID, color uint8, behaviour sysex.ColorBehaviour) error {
	return c.midi.Send([]byte{0x90 | ledChannel(behaviour), controlID, color})
}

// ApplyColors pushes a mode's LED colors without writing the mode itself.
func (c *Controller) ApplyColors(mode sysex.CustomMode) error {
	for _, col := range mode.Colors {
		if err := c.SetLED(col.ControlID, col.Color, col.Behaviour); err != nil {
			return err
		}
	}
	return nil
}

// ClearLEDs turns every control LED off.
func (c *Controller) ClearLEDs() error {
	for id := uint8(sysex.ControlIDMin); id <= sysex.ControlIDMax; id++ {
		if err := c.SetLED(id, 0, sysex.ColorStatic); err != nil {
			return err
		}
	}
	return nil
}

func (c *Controller) Close() error {
	if err := c.midi.Close(); err != nil {
		return err
	}
	if c.daw != nil {
		return c.daw.Close()
	}
	return nil
}
