package sysex

import (
	"fmt"
	"sort"
)

// ControlBehaviour is how a physical control reports value changes.
type ControlBehaviour uint8

const (
	BehaviourAbsolute ControlBehaviour = iota
	BehaviourRelative1
	BehaviourRelative2
	BehaviourRelative3
)

func (b ControlBehaviour) String() string {
	switch b {
	case BehaviourAbsolute:
		return "absolute"
	case BehaviourRelative1:
		return "relative-1"
	case BehaviourRelative2:
		return "relative-2"
	case BehaviourRelative3:
		return "relative-3"
	}
	return fmt.Sprintf("behaviour(%d)", uint8(b))
}

// ColorBehaviour is an LED animation mode.
type ColorBehaviour uint8

const (
	ColorStatic ColorBehaviour = iota
	ColorFlash
	ColorPulse
)

func (b ColorBehaviour) String() string {
	switch b {
	case ColorStatic:
		return "static"
	case ColorFlash:
		return "flash"
	case ColorPulse:
		return "pulse"
	}
	return fmt.Sprintf("color-behaviour(%d)", uint8(b))
}

// Physical control ID layout. IDs below 0x10 do not exist on the hardware.
//
//	0x10-0x17  encoder row 1    0x28-0x2F  sliders
//	0x18-0x1F  encoder row 2    0x30-0x37  button row 1
//	0x20-0x27  encoder row 3    0x38-0x3F  button row 2
const (
	ControlIDMin = 0x10
	ControlIDMax = 0x3F

	EncoderRow1Start = 0x10
	EncoderRow2Start = 0x18
	EncoderRow3Start = 0x20
	SliderRowStart   = 0x28
	ButtonRow1Start  = 0x30
	ButtonRow2Start  = 0x38

	MaxControls = 48
)

// ControlMapping is one physical control's MIDI assignment.
type ControlMapping struct {
	ControlID uint8
	Channel   uint8
	CC        uint8
	MinValue  uint8
	MaxValue  uint8
	Behaviour ControlBehaviour
	Name      string
}

// ColorMapping assigns an LED color to a control.
type ColorMapping struct {
	ControlID uint8
	Color     uint8
	Behaviour ColorBehaviour
}

// CustomMode is one device-resident configuration slot: a name, the control
// assignments, and the LED colors. A mode decoded from the device is a value;
// editing it changes nothing until it is written back.
type CustomMode struct {
	Name     string
	Slot     uint8
	Controls []ControlMapping
	Colors   []ColorMapping
}

// Control returns the mapping for a control ID, if present.
func (m *CustomMode) Control(id uint8) (ControlMapping, bool) {
	for _, c := range m.Controls {
		if c.ControlID == id {
			return c, true
		}
	}
	return ControlMapping{}, false
}

// Color returns the color mapping for a control ID, if present.
func (m *CustomMode) Color(id uint8) (ColorMapping, bool) {
	for _, c := range m.Colors {
		if c.ControlID == id {
			return c, true
		}
	}
	return ColorMapping{}, false
}

// Merge folds another mode's controls and colors into this one. Used when a
// mode arrives split across the encoder page and the fader/button page.
func (m *CustomMode) Merge(other CustomMode) {
	if m.Name == "" {
		m.Name = other.Name
	}
	for _, c := range other.Controls {
		if _, ok := m.Control(c.ControlID); !ok {
			m.Controls = append(m.Controls, c)
		}
	}
	for _, c := range other.Colors {
		if _, ok := m.Color(c.ControlID); !ok {
			m.Colors = append(m.Colors, c)
		}
	}
	sort.Slice(m.Controls, func(i, j int) bool {
		return m.Controls[i].ControlID < m.Controls[j].ControlID
	})
	sort.Slice(m.Colors, func(i, j int) bool {
		return m.Colors[i].ControlID < m.Colors[j].ControlID
	})
}

// validate checks every field range the wire format can express. It runs
// before any bytes are built so a bad mode never half-transmits.
func (m *CustomMode) validate() error {
	if len(m.Name) > 16 {
		return &InvalidControlDataError{Field: "name length", Value: len(m.Name)}
	}
	if len(m.Controls) > MaxControls {
		return &InvalidControlDataError{Field: "control count", Value: len(m.Controls)}
	}
	for _, c := range m.Controls {
		if c.ControlID < ControlIDMin || c.ControlID > ControlIDMax {
			return &InvalidControlDataError{Field: "controlId", Value: int(c.ControlID)}
		}
		if c.Channel > 15 {
			return &InvalidControlDataError{Field: "channel", Value: int(c.Channel)}
		}
		if c.CC > 127 {
			return &InvalidControlDataError{Field: "ccNumber", Value: int(c.CC)}
		}
		if c.MinValue > 127 {
			return &InvalidControlDataError{Field: "minValue", Value: int(c.MinValue)}
		}
		if c.MaxValue > 127 {
			return &InvalidControlDataError{Field: "maxValue", Value: int(c.MaxValue)}
		}
		if c.MinValue > c.MaxValue {
			return &InvalidControlDataError{Field: "minValue", Value: int(c.MinValue)}
		}
	}
	for _, c := range m.Colors {
		if c.ControlID < ControlIDMin || c.ControlID > ControlIDMax {
			return &InvalidControlDataError{Field: "color controlId", Value: int(c.ControlID)}
		}
		if c.Color > 127 {
			return &InvalidControlDataError{Field: "color", Value: int(c.Color)}
		}
	}
	return nil
}

// controlTypeCode returns the wire "control type" byte for a control ID.
// The per-row codes were captured from device traffic and are not derived
// from any published table; do not generalize them.
func controlTypeCode(id uint8) uint8 {
	switch {
	case id >= EncoderRow1Start && id < EncoderRow2Start:
		return 0x05
	case id >= EncoderRow2Start && id < EncoderRow3Start:
		return 0x09
	case id >= EncoderRow3Start && id < SliderRowStart:
		return 0x0D
	case id >= SliderRowStart && id < ButtonRow1Start:
		return 0x00
	case id >= ButtonRow1Start && id < ButtonRow2Start:
		return 0x19
	default:
		return 0x25
	}
}

// OnEncoderPage reports whether a control travels on write page 0
// (encoders) as opposed to page 3 (sliders and buttons).
func OnEncoderPage(id uint8) bool {
	return id < SliderRowStart
}
