package sysex

// Wire framing and command constants. The vendor commands were reverse
// engineered from USB captures; none of this is in a published spec.
const (
	SysExStart = 0xF0
	SysExEnd   = 0xF7

	// Universal non-realtime space (device inquiry lives here).
	universalNonRealtime = 0x7E
	subIDGeneralInfo     = 0x06
	inquiryRequest       = 0x01
	inquiryReply         = 0x02
	broadcastDeviceID    = 0x7F

	// Novation manufacturer ID.
	vendorByte0 = 0x00
	vendorByte1 = 0x20
	vendorByte2 = 0x29

	// Modern command prefix: device ID, command, sub-command, reserved.
	deviceIDByte   = 0x02
	commandByte    = 0x15
	subCommandByte = 0x05
	reservedByte   = 0x00

	// Operation codes following the modern prefix.
	opCustomModeResponse = 0x10
	opWriteAck           = 0x15
	opCustomModeRead     = 0x40
	opCustomModeWrite    = 0x45

	// Legacy command set (older firmware, Launch Control heritage).
	legacyDeviceID   = 0x02
	legacyCommand    = 0x11
	legacyTemplateOp = 0x77
	legacyModeDumpOp = 0x7B

	// Handshake bytes: SYN command and the serial-bearing SYN-ACK.
	synCommand    = 0x42
	synSubCommand = 0x02
	synAckLength  = 22
	serialOffset  = 7
	serialLength  = 14
)

// MessageKind discriminates parsed messages.
type MessageKind int

const (
	KindDeviceInquiryResponse MessageKind = iota
	KindSynAck
	KindCustomModeResponse
	KindWriteAck
	KindTemplateChange
	KindLegacyCustomMode
)

func (k MessageKind) String() string {
	switch k {
	case KindDeviceInquiryResponse:
		return "device-inquiry-response"
	case KindSynAck:
		return "syn-ack"
	case KindCustomModeResponse:
		return "custom-mode-response"
	case KindWriteAck:
		return "write-ack"
	case KindTemplateChange:
		return "template-change"
	case KindLegacyCustomMode:
		return "legacy-custom-mode"
	}
	return "unknown"
}

// Message is any parsed inbound SysEx message.
type Message interface {
	Kind() MessageKind
}

// DeviceInquiryResponse is the reply to a universal device inquiry.
type DeviceInquiryResponse struct {
	DeviceID         uint8
	ManufacturerID   [3]byte
	FamilyCode       uint16
	FamilyMember     uint16
	FirmwareRevision [4]byte
}

func (DeviceInquiryResponse) Kind() MessageKind { return KindDeviceInquiryResponse }

// SynAck is the serial-bearing reply to the vendor SYN.
type SynAck struct {
	Serial string
}

func (SynAck) Kind() MessageKind { return KindSynAck }

// CustomModeResponse carries one page of a stored custom mode.
type CustomModeResponse struct {
	Page uint8
	Slot uint8
	Mode CustomMode
}

func (CustomModeResponse) Kind() MessageKind { return KindCustomModeResponse }

// WriteAck confirms receipt of one write page. Status encodes the slot the
// write landed in, not a success flag.
type WriteAck struct {
	Page   uint8
	Status uint8
}

func (WriteAck) Kind() MessageKind { return KindWriteAck }

// TemplateChange is the legacy notification that the active template
// changed on the device.
type TemplateChange struct {
	Template uint8
}

func (TemplateChange) Kind() MessageKind { return KindTemplateChange }

// LegacyCustomMode is a custom-mode dump from old firmware, 7-bit packed.
// The payload is kept raw; current tooling only needs to recognize it.
type LegacyCustomMode struct {
	Template uint8
	Payload  []byte
}

func (LegacyCustomMode) Kind() MessageKind { return KindLegacyCustomMode }

// AckStatusForSlot returns the status byte the device reports for a write
// into the given slot. Slots 0-3 and 4-15 sit in two disjoint ranges with a
// gap between them; see IsQuirkAckStatus for what the hardware does with
// that gap.
func AckStatusForSlot(slot uint8) uint8 {
	if slot <= 3 {
		return 0x06 + slot
	}
	return 0x0E + slot
}

// IsQuirkAckStatus reports whether a status byte falls in the 0x0A-0x11 gap
// that no slot encodes to. The firmware emits bytes from this gap on page-3
// acknowledgements even though the write succeeded, so callers accept these
// with a warning instead of failing the write.
func IsQuirkAckStatus(status uint8) bool {
	return status >= 0x0A && status <= 0x11
}
