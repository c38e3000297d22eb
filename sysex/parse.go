package sysex

import (
	"fmt"

	"lcxl3/midimunge"
)

// Parse decodes a complete SysEx frame (0xF0 ... 0xF7) into a typed message.
// Frames that are structurally broken fail with ErrMalformedFrame; frames
// whose body matches no known shape fail with ErrUnknownMessageFormat.
func Parse(frame []byte) (Message, error) {
	body, err := stripFrame(frame)
	if err != nil {
		return nil, err
	}

	if body[0] == universalNonRealtime {
		return parseInquiryResponse(body)
	}

	if len(body) >= 3 && body[0] == vendorByte0 && body[1] == vendorByte1 && body[2] == vendorByte2 {
		return parseVendor(body[3:])
	}

	return nil, fmt.Errorf("%w: leading byte 0x%02X", ErrUnknownMessageFormat, body[0])
}

// stripFrame validates the bookends and returns the interior bytes.
func stripFrame(frame []byte) ([]byte, error) {
	if len(frame) < 5 {
		return nil, fmt.Errorf("%w: %d bytes", ErrMalformedFrame, len(frame))
	}
	if frame[0] != SysExStart {
		return nil, fmt.Errorf("%w: missing start marker", ErrMalformedFrame)
	}
	if frame[len(frame)-1] != SysExEnd {
		return nil, fmt.Errorf("%w: missing end marker", ErrMalformedFrame)
	}
	return frame[1 : len(frame)-1], nil
}

// parseInquiryResponse handles the universal device inquiry reply:
// 7E <device> 06 02 <manufacturer> <family:2> <member:2> <firmware:4>.
// Family and member pairs arrive big-endian from this device.
func parseInquiryResponse(body []byte) (Message, error) {
	if len(body) < 4 || body[2] != subIDGeneralInfo || body[3] != inquiryReply {
		return nil, fmt.Errorf("%w: not an inquiry reply", ErrUnknownMessageFormat)
	}

	resp := DeviceInquiryResponse{DeviceID: body[1]}
	rest := body[4:]

	// A leading zero marks the extended 3-byte manufacturer ID form.
	if len(rest) > 0 && rest[0] == 0x00 {
		if len(rest) < 3 {
			return nil, fmt.Errorf("%w: truncated manufacturer id", ErrUnknownMessageFormat)
		}
		copy(resp.ManufacturerID[:], rest[:3])
		rest = rest[3:]
	} else if len(rest) > 0 {
		resp.ManufacturerID[0] = rest[0]
		rest = rest[1:]
	}

	if len(rest) < 8 {
		return nil, fmt.Errorf("%w: inquiry reply too short", ErrUnknownMessageFormat)
	}
	resp.FamilyCode = uint16(rest[0])<<8 | uint16(rest[1])
	resp.FamilyMember = uint16(rest[2])<<8 | uint16(rest[3])
	copy(resp.FirmwareRevision[:], rest[4:8])
	return resp, nil
}

// parseVendor dispatches the bytes following the Novation manufacturer ID.
func parseVendor(body []byte) (Message, error) {
	// SYN-ACK: 00 42 02 <serial>.
	if len(body) >= 3 && body[0] == 0x00 && body[1] == synCommand && body[2] == synSubCommand {
		return parseSynAckBody(body[3:])
	}

	// Modern command set: 02 15 05 00 <op>.
	if len(body) >= 5 && body[0] == deviceIDByte && body[1] == commandByte &&
		body[2] == subCommandByte && body[3] == reservedByte {
		return parseModern(body[4], body[5:])
	}

	// Legacy command set: 02 11 <op>.
	if len(body) >= 3 && body[0] == legacyDeviceID && body[1] == legacyCommand {
		return parseLegacy(body[2], body[3:])
	}

	return nil, fmt.Errorf("%w: unrecognized vendor body", ErrUnknownMessageFormat)
}

func parseModern(op byte, rest []byte) (Message, error) {
	switch op {
	case opCustomModeResponse:
		if len(rest) < 2 {
			return nil, fmt.Errorf("%w: short custom-mode response", ErrUnknownMessageFormat)
		}
		mode := decodeModeBody(rest[2:])
		mode.Slot = rest[1]
		return CustomModeResponse{Page: rest[0], Slot: rest[1], Mode: mode}, nil

	case opWriteAck:
		if len(rest) < 2 {
			return nil, fmt.Errorf("%w: short write ack", ErrUnknownMessageFormat)
		}
		return WriteAck{Page: rest[0], Status: rest[1]}, nil
	}
	return nil, fmt.Errorf("%w: vendor operation 0x%02X", ErrUnknownMessageFormat, op)
}

func parseLegacy(op byte, rest []byte) (Message, error) {
	switch op {
	case legacyTemplateOp:
		if len(rest) < 1 {
			return nil, fmt.Errorf("%w: short template change", ErrUnknownMessageFormat)
		}
		return TemplateChange{Template: rest[0]}, nil

	case legacyModeDumpOp:
		if len(rest) < 1 {
			return nil, fmt.Errorf("%w: short legacy dump", ErrUnknownMessageFormat)
		}
		payload, err := midimunge.Decode(rest[1:])
		if err != nil {
			return nil, fmt.Errorf("%w: legacy payload: %v", ErrUnknownMessageFormat, err)
		}
		return LegacyCustomMode{Template: rest[0], Payload: payload}, nil
	}
	return nil, fmt.Errorf("%w: legacy operation 0x%02X", ErrUnknownMessageFormat, op)
}

// ParseSynAck validates the handshake SYN-ACK. The device answers the SYN
// with exactly 22 bytes carrying a 14-character serial at offset 7; any
// deviation invalidates the whole handshake, so this check is strict where
// Parse is lenient.
func ParseSynAck(frame []byte) (SynAck, error) {
	if len(frame) != synAckLength {
		return SynAck{}, fmt.Errorf("%w: syn-ack must be %d bytes, got %d",
			ErrMalformedFrame, synAckLength, len(frame))
	}
	if frame[0] != SysExStart || frame[len(frame)-1] != SysExEnd {
		return SynAck{}, fmt.Errorf("%w: missing markers", ErrMalformedFrame)
	}
	if frame[1] != vendorByte0 || frame[2] != vendorByte1 || frame[3] != vendorByte2 ||
		frame[4] != 0x00 || frame[5] != synCommand || frame[6] != synSubCommand {
		return SynAck{}, fmt.Errorf("%w: syn-ack prefix mismatch", ErrUnknownMessageFormat)
	}
	return parseSynAckBody(frame[serialOffset : serialOffset+serialLength])
}

func parseSynAckBody(serial []byte) (SynAck, error) {
	if len(serial) < serialLength {
		return SynAck{}, fmt.Errorf("%w: serial too short", ErrUnknownMessageFormat)
	}
	serial = serial[:serialLength]
	for _, b := range serial {
		if b < 0x20 || b > 0x7E {
			return SynAck{}, fmt.Errorf("%w: non-printable serial byte 0x%02X",
				ErrUnknownMessageFormat, b)
		}
	}
	s := string(serial)
	if s[:3] != "LX2" {
		return SynAck{}, fmt.Errorf("%w: serial %q does not start with LX2",
			ErrUnknownMessageFormat, s)
	}
	return SynAck{Serial: s}, nil
}
