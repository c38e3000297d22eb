package sysex

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildSyn(t *testing.T) {
	assert.Equal(t,
		[]byte{0xF0, 0x00, 0x20, 0x29, 0x00, 0x42, 0x02, 0xF7},
		BuildSyn())
}

func TestBuildDeviceInquiryUsesBroadcastID(t *testing.T) {
	frame := BuildDeviceInquiry()
	assert.Equal(t, []byte{0xF0, 0x7E, 0x7F, 0x06, 0x01, 0xF7}, frame)
	// Device ID must be the broadcast 0x7F; the unit ignores 0x00.
	assert.Equal(t, byte(0x7F), frame[2])
}

func TestBuildCustomModeRead(t *testing.T) {
	frame, err := BuildCustomModeRead(ReadPageEncoders, 5)
	require.NoError(t, err)
	assert.Equal(t,
		[]byte{0xF0, 0x00, 0x20, 0x29, 0x02, 0x15, 0x05, 0x00, 0x40, 0x00, 0x05, 0xF7},
		frame)

	frame, err = BuildCustomModeRead(ReadPageFadersButton, 0)
	require.NoError(t, err)
	assert.Equal(t, byte(0x03), frame[9])
	assert.Equal(t, byte(0x00), frame[10])
}

func TestBuildCustomModeReadRejectsBadSlot(t *testing.T) {
	_, err := BuildCustomModeRead(ReadPageEncoders, 15)
	var icd *InvalidControlDataError
	require.ErrorAs(t, err, &icd)
	assert.Equal(t, "slot", icd.Field)
}

func TestBuildCustomModeWriteHeader(t *testing.T) {
	mode := CustomMode{Name: "BASS"}
	frame, err := BuildCustomModeWrite(WritePageEncoders, mode)
	require.NoError(t, err)

	assert.Equal(t,
		[]byte{0xF0, 0x00, 0x20, 0x29, 0x02, 0x15, 0x05, 0x00, 0x45, 0x00, 0x00},
		frame[:11])
	assert.Equal(t, byte(0xF7), frame[len(frame)-1])

	// Page 0 carries the name: prefix, characters, terminator.
	body := frame[11 : len(frame)-1]
	assert.Equal(t, []byte{0x01, 0x20, 0x10, 0x2A, 'B', 'A', 'S', 'S', 0x21}, body)
}

func TestBuildCustomModeWriteControlRecord(t *testing.T) {
	mode := CustomMode{
		Controls: []ControlMapping{
			{ControlID: 0x10, Channel: 2, CC: 13, MinValue: 0, MaxValue: 127, Behaviour: BehaviourRelative1},
		},
	}
	frame, err := BuildCustomModeWrite(WritePageEncoders, mode)
	require.NoError(t, err)

	// Name section (empty name is prefix + terminator), then the record.
	body := frame[11 : len(frame)-1]
	record := body[5:]
	require.Len(t, record, 11)
	assert.Equal(t, []byte{
		0x49, 0x10, 0x02, 0x01,
		0x05, // row 1 encoder type code
		0x02, // channel
		0x01, // relative-1
		13,   // cc
		0x00, // min
		0x7F, // max, always full range on the wire
		0x00, // terminator
	}, record)
}

func TestBuildCustomModeWriteSortsAndFiltersByPage(t *testing.T) {
	mode := CustomMode{
		Controls: []ControlMapping{
			{ControlID: 0x29, CC: 40, MaxValue: 127}, // slider, page 3
			{ControlID: 0x12, CC: 15, MaxValue: 127},
			{ControlID: 0x10, CC: 13, MaxValue: 127},
		},
		Colors: []ColorMapping{
			{ControlID: 0x29, Color: 9},
			{ControlID: 0x10, Color: 5},
		},
	}

	page0, err := BuildCustomModeWrite(WritePageEncoders, mode)
	require.NoError(t, err)

	var page0IDs []uint8
	for i := 11; i < len(page0)-1; i++ {
		if page0[i] == 0x49 {
			page0IDs = append(page0IDs, page0[i+1])
			i += 10
		}
	}
	assert.Equal(t, []uint8{0x10, 0x12}, page0IDs, "page 0 sorted, slider excluded")

	page3, err := BuildCustomModeWrite(WritePageFadersButtons, mode)
	require.NoError(t, err)
	body3 := page3[11 : len(page3)-1]
	require.Len(t, body3, 13, "one record plus one color pair, no name on page 3")
	assert.Equal(t, byte(0x49), body3[0])
	assert.Equal(t, byte(0x29), body3[1])
	assert.Equal(t, byte(0x00), body3[4], "slider type code")
	assert.Equal(t, []byte{0x60, 0x29}, body3[11:])
}

func TestBuildCustomModeWriteValidatesBeforeEmitting(t *testing.T) {
	cases := []struct {
		name  string
		mode  CustomMode
		field string
	}{
		{
			name: "cc out of range",
			mode: CustomMode{Controls: []ControlMapping{
				{ControlID: 0x10, CC: 200, MaxValue: 127},
			}},
			field: "ccNumber",
		},
		{
			name: "channel out of range",
			mode: CustomMode{Controls: []ControlMapping{
				{ControlID: 0x10, CC: 1, Channel: 16, MaxValue: 127},
			}},
			field: "channel",
		},
		{
			name: "min above max",
			mode: CustomMode{Controls: []ControlMapping{
				{ControlID: 0x10, CC: 1, MinValue: 20, MaxValue: 10},
			}},
			field: "minValue",
		},
		{
			name: "nonexistent control id",
			mode: CustomMode{Controls: []ControlMapping{
				{ControlID: 0x05, CC: 1, MaxValue: 127},
			}},
			field: "controlId",
		},
		{
			name: "color out of range",
			mode: CustomMode{Colors: []ColorMapping{
				{ControlID: 0x10, Color: 128},
			}},
			field: "color",
		},
		{
			name:  "name too long",
			mode:  CustomMode{Name: "SEVENTEEN CHARS !"},
			field: "name length",
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			frame, err := BuildCustomModeWrite(WritePageEncoders, tc.mode)
			var icd *InvalidControlDataError
			require.ErrorAs(t, err, &icd)
			assert.Equal(t, tc.field, icd.Field)
			assert.Nil(t, frame, "no bytes before validation")
		})
	}
}

func TestBuildCustomModeWriteRejectsBadPage(t *testing.T) {
	_, err := BuildCustomModeWrite(1, CustomMode{})
	var icd *InvalidControlDataError
	require.ErrorAs(t, err, &icd)
	assert.Equal(t, "write page", icd.Field)
}

func TestControlTypeCodesPerRow(t *testing.T) {
	// Empirical per-row codes captured from device traffic.
	assert.Equal(t, uint8(0x05), controlTypeCode(0x10))
	assert.Equal(t, uint8(0x09), controlTypeCode(0x18))
	assert.Equal(t, uint8(0x0D), controlTypeCode(0x20))
	assert.Equal(t, uint8(0x00), controlTypeCode(0x28))
	assert.Equal(t, uint8(0x19), controlTypeCode(0x30))
	assert.Equal(t, uint8(0x25), controlTypeCode(0x38))
}
