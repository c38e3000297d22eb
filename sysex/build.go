package sysex

import "sort"

// Outbound message construction. Builders are pure: a typed request in,
// a complete 0xF0..0xF7 frame out. Everything is validated before the first
// byte is emitted so a bad request never half-builds.

// BuildSyn returns the vendor handshake SYN.
func BuildSyn() []byte {
	return []byte{SysExStart, vendorByte0, vendorByte1, vendorByte2, 0x00, synCommand, synSubCommand, SysExEnd}
}

// BuildDeviceInquiry returns the universal device inquiry. The device ID is
// the broadcast 0x7F; the device does not answer an inquiry addressed to
// 0x00.
func BuildDeviceInquiry() []byte {
	return []byte{SysExStart, universalNonRealtime, broadcastDeviceID, subIDGeneralInfo, inquiryRequest, SysExEnd}
}

// ReadPage selects which half of a custom mode a read request asks for.
type ReadPage uint8

const (
	ReadPageEncoders     ReadPage = 0 // wire byte 0x00
	ReadPageFadersButton ReadPage = 1 // wire byte 0x03
)

func (p ReadPage) wireByte() uint8 {
	if p == ReadPageEncoders {
		return 0x00
	}
	return 0x03
}

// BuildCustomModeRead returns the read request for one page of a slot.
func BuildCustomModeRead(page ReadPage, slot uint8) ([]byte, error) {
	if page > ReadPageFadersButton {
		return nil, &InvalidControlDataError{Field: "read page", Value: int(page)}
	}
	if slot > 14 {
		return nil, &InvalidControlDataError{Field: "slot", Value: int(slot)}
	}
	return []byte{
		SysExStart, vendorByte0, vendorByte1, vendorByte2,
		deviceIDByte, commandByte, subCommandByte, reservedByte,
		opCustomModeRead, page.wireByte(), slot,
		SysExEnd,
	}, nil
}

// Write pages. Page 0 carries the encoders, page 3 the sliders and buttons.
const (
	WritePageEncoders      uint8 = 0
	WritePageFadersButtons uint8 = 3
)

// BuildCustomModeWrite returns the write request for one page of a mode.
// Only the controls the caller supplied are emitted, sorted by control ID
// and filtered to the rows the page carries; the device fills the rest with
// defaults. The mode name travels on page 0.
func BuildCustomModeWrite(page uint8, mode CustomMode) ([]byte, error) {
	if page != WritePageEncoders && page != WritePageFadersButtons {
		return nil, &InvalidControlDataError{Field: "write page", Value: int(page)}
	}
	if err := mode.validate(); err != nil {
		return nil, err
	}

	frame := []byte{
		SysExStart, vendorByte0, vendorByte1, vendorByte2,
		deviceIDByte, commandByte, subCommandByte, reservedByte,
		opCustomModeWrite, page, 0x00,
	}
	frame = append(frame, encodeWriteBody(page, mode)...)
	return append(frame, SysExEnd), nil
}

func encodeWriteBody(page uint8, mode CustomMode) []byte {
	var body []byte

	if page == WritePageEncoders {
		body = append(body, nameWritePrefix...)
		body = append(body, []byte(mode.Name)...)
		body = append(body, nameWriteTerminator)
	}

	controls := make([]ControlMapping, 0, len(mode.Controls))
	for _, c := range mode.Controls {
		if pageForControl(c.ControlID) == page {
			controls = append(controls, c)
		}
	}
	sort.Slice(controls, func(i, j int) bool {
		return controls[i].ControlID < controls[j].ControlID
	})

	for _, c := range controls {
		body = append(body,
			writeControlMarker,
			c.ControlID,
			0x02, // definition type
			0x01, // active flag
			controlTypeCode(c.ControlID),
			c.Channel,
			uint8(c.Behaviour),
			c.CC,
			c.MinValue,
			0x7F, // max is always full range on the wire
			0x00, // terminator
		)
	}

	for _, c := range mode.Colors {
		if pageForControl(c.ControlID) != page {
			continue
		}
		if _, ok := mode.Control(c.ControlID); !ok {
			continue
		}
		body = append(body, colorMarker, c.ControlID)
	}
	return body
}

func pageForControl(id uint8) uint8 {
	if OnEncoderPage(id) {
		return WritePageEncoders
	}
	return WritePageFadersButtons
}
