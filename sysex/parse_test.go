package sysex

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"lcxl3/midimunge"
)

func validSynAck(serial string) []byte {
	frame := []byte{0xF0, 0x00, 0x20, 0x29, 0x00, 0x42, 0x02}
	frame = append(frame, []byte(serial)...)
	return append(frame, 0xF7)
}

func TestParseRejectsMalformedFrames(t *testing.T) {
	cases := map[string][]byte{
		"empty":        {},
		"too short":    {0xF0, 0x00, 0x20, 0xF7},
		"no start":     {0x00, 0x20, 0x29, 0x00, 0x42, 0x02, 0xF7},
		"no end":       {0xF0, 0x00, 0x20, 0x29, 0x00, 0x42, 0x02},
		"both missing": {0x00, 0x20, 0x29, 0x02, 0x15, 0x05},
	}
	for name, frame := range cases {
		_, err := Parse(frame)
		assert.True(t, errors.Is(err, ErrMalformedFrame), "%s: got %v", name, err)
	}
}

func TestParseRejectsUnknownShapes(t *testing.T) {
	cases := map[string][]byte{
		"foreign vendor":    {0xF0, 0x00, 0x21, 0x09, 0x01, 0x02, 0xF7},
		"bad vendor op":     {0xF0, 0x00, 0x20, 0x29, 0x02, 0x15, 0x05, 0x00, 0x7E, 0x00, 0x00, 0xF7},
		"bad legacy op":     {0xF0, 0x00, 0x20, 0x29, 0x02, 0x11, 0x55, 0x00, 0xF7},
		"realtime universe": {0xF0, 0x7F, 0x00, 0x06, 0x01, 0xF7},
	}
	for name, frame := range cases {
		_, err := Parse(frame)
		assert.True(t, errors.Is(err, ErrUnknownMessageFormat), "%s: got %v", name, err)
	}
}

func TestParseDeviceInquiryResponse(t *testing.T) {
	frame := []byte{
		0xF0, 0x7E, 0x00, 0x06, 0x02,
		0x00, 0x20, 0x29, // manufacturer
		0x01, 0x48, // family, big-endian
		0x00, 0x02, // member
		0x01, 0x00, 0x0A, 0x54, // firmware
		0xF7,
	}
	msg, err := Parse(frame)
	require.NoError(t, err)

	inq, ok := msg.(DeviceInquiryResponse)
	require.True(t, ok, "got %T", msg)
	assert.Equal(t, [3]byte{0x00, 0x20, 0x29}, inq.ManufacturerID)
	assert.Equal(t, uint16(0x0148), inq.FamilyCode)
	assert.Equal(t, uint16(0x0002), inq.FamilyMember)
	assert.Equal(t, [4]byte{0x01, 0x00, 0x0A, 0x54}, inq.FirmwareRevision)
}

func TestParseSynAckValid(t *testing.T) {
	ack, err := ParseSynAck(validSynAck("LX212345678901"))
	require.NoError(t, err)
	assert.Equal(t, "LX212345678901", ack.Serial)
}

func TestParseSynAckAnyCorruptByteFails(t *testing.T) {
	golden := validSynAck("LX212345678901")
	require.Len(t, golden, 22)

	for i := range golden {
		mutated := make([]byte, len(golden))
		copy(mutated, golden)
		mutated[i] ^= 0x80

		_, err := ParseSynAck(mutated)
		assert.Error(t, err, "byte %d corrupted but syn-ack accepted", i)
	}
}

func TestParseSynAckWrongLength(t *testing.T) {
	_, err := ParseSynAck(validSynAck("LX212345678901")[:21])
	assert.Error(t, err)

	long := append(validSynAck("LX212345678901"), 0xF7)
	_, err = ParseSynAck(long)
	assert.Error(t, err)
}

func TestParseSynAckWrongSerialPrefix(t *testing.T) {
	_, err := ParseSynAck(validSynAck("AB212345678901"))
	assert.True(t, errors.Is(err, ErrUnknownMessageFormat), "got %v", err)
}

func TestParseSynAckViaGenericDispatch(t *testing.T) {
	msg, err := Parse(validSynAck("LX298765432109"))
	require.NoError(t, err)
	ack, ok := msg.(SynAck)
	require.True(t, ok, "got %T", msg)
	assert.Equal(t, "LX298765432109", ack.Serial)
}

func TestParseWriteAck(t *testing.T) {
	frame := []byte{0xF0, 0x00, 0x20, 0x29, 0x02, 0x15, 0x05, 0x00, 0x15, 0x03, 0x12, 0xF7}
	msg, err := Parse(frame)
	require.NoError(t, err)

	ack, ok := msg.(WriteAck)
	require.True(t, ok, "got %T", msg)
	assert.Equal(t, uint8(3), ack.Page)
	assert.Equal(t, uint8(0x12), ack.Status)
}

func TestParseTemplateChange(t *testing.T) {
	frame := []byte{0xF0, 0x00, 0x20, 0x29, 0x02, 0x11, 0x77, 0x05, 0xF7}
	msg, err := Parse(frame)
	require.NoError(t, err)

	tc, ok := msg.(TemplateChange)
	require.True(t, ok, "got %T", msg)
	assert.Equal(t, uint8(5), tc.Template)
}

func TestParseLegacyCustomModeDump(t *testing.T) {
	payload := []byte{0x90, 0x10, 0xFF, 0x00, 0x42}
	encoded, err := midimunge.Encode(payload)
	require.NoError(t, err)

	frame := []byte{0xF0, 0x00, 0x20, 0x29, 0x02, 0x11, 0x7B, 0x02}
	frame = append(frame, encoded...)
	frame = append(frame, 0xF7)

	msg, err := Parse(frame)
	require.NoError(t, err)

	dump, ok := msg.(LegacyCustomMode)
	require.True(t, ok, "got %T", msg)
	assert.Equal(t, uint8(2), dump.Template)
	assert.Equal(t, payload, dump.Payload)
}

func TestAckStatusForSlot(t *testing.T) {
	assert.Equal(t, uint8(0x06), AckStatusForSlot(0))
	assert.Equal(t, uint8(0x09), AckStatusForSlot(3))
	assert.Equal(t, uint8(0x12), AckStatusForSlot(4))
	assert.Equal(t, uint8(0x1D), AckStatusForSlot(15))
}

func TestIsQuirkAckStatus(t *testing.T) {
	for s := 0x0A; s <= 0x11; s++ {
		assert.True(t, IsQuirkAckStatus(uint8(s)), "0x%02X", s)
	}
	assert.False(t, IsQuirkAckStatus(0x09))
	assert.False(t, IsQuirkAckStatus(0x12))
	assert.False(t, IsQuirkAckStatus(0x05))
}
