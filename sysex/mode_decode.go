package sysex

// Custom-mode payload decoding. The device emits two structurally different
// payloads for the same logical message: the echo it sends back after a
// write, and the layout it uses when answering a read request. Both occur in
// practice, so decoding runs an ordered list of shape detectors instead of
// assuming one schema. Bytes that match no known structure are skipped, not
// rejected; real captures contain dead bytes between valid structures.

// writeEchoOrder is the fixed control-ID sequence the write-echo layout
// implies: its 0x40 pairs carry no control ID of their own, the position in
// the stream is the ID. Captured from device traffic.
var writeEchoOrder = func() []uint8 {
	ids := make([]uint8, 0, MaxControls)
	for id := uint8(ControlIDMin); id <= ControlIDMax; id++ {
		ids = append(ids, id)
	}
	return ids
}()

const (
	readControlMarker  = 0x48
	readControlLength  = 10
	writeControlMarker = 0x49
	writeEchoCCMarker  = 0x40
	colorMarker        = 0x60

	labelMarkerLow  = 0x60
	labelMarkerHigh = 0x6F

	nameWriteTerminator = 0x21
	factoryNameLength   = 0x1F
)

var (
	nameWritePrefix = []byte{0x01, 0x20, 0x10, 0x2A}
	nameReadPrefix  = []byte{0x06, 0x20}
)

// decodeModeBody turns a custom-mode payload (bytes after page and slot)
// into a CustomMode. It never fails on unknown interior bytes.
func decodeModeBody(body []byte) CustomMode {
	var mode CustomMode
	mode.Name = decodeName(body)

	controls, lastEnd := decodeReadControls(body)
	if len(controls) > 0 {
		mode.Controls = controls
		attachLabels(&mode, decodeLabels(body[lastEnd:]))
		return mode
	}

	mode.Controls, mode.Colors = decodeWriteEcho(body)
	return mode
}

// decodeReadControls scans for the read layout's 10-byte 0x48 structures.
// A candidate is trusted only if the type byte at +2 and the flag at +4
// check out; anything else is treated as dead bytes and skipped.
func decodeReadControls(body []byte) (controls []ControlMapping, lastEnd int) {
	i := 0
	for i+readControlLength <= len(body) {
		if body[i] != readControlMarker {
			i++
			continue
		}
		c, ok := parseReadControl(body[i : i+readControlLength])
		if !ok {
			i++
			continue
		}
		controls = append(controls, c)
		i += readControlLength
		lastEnd = i
	}
	return controls, lastEnd
}

func parseReadControl(b []byte) (ControlMapping, bool) {
	id := b[1]
	if id < ControlIDMin || id > ControlIDMax {
		return ControlMapping{}, false
	}
	if b[2] != 0x02 {
		return ControlMapping{}, false
	}
	if b[4] != 0x00 && b[4] != 0x01 {
		return ControlMapping{}, false
	}
	channel, cc, min, max := b[5], b[6], b[7], b[8]
	if channel > 15 || cc > 127 || min > 127 || max > 127 || min > max {
		return ControlMapping{}, false
	}
	behaviour := BehaviourAbsolute
	if b[9] <= uint8(BehaviourRelative3) {
		behaviour = ControlBehaviour(b[9])
	}
	return ControlMapping{
		ControlID: id,
		Channel:   channel,
		CC:        cc,
		MinValue:  min,
		MaxValue:  max,
		Behaviour: behaviour,
	}, true
}

// decodeWriteEcho handles the write-echo layout: 0x40 <cc> pairs in the
// fixed control-ID order, then 0x60 <controlID> color markers. The pairs
// carry no range or channel, so those fields keep zero values and max 127.
func decodeWriteEcho(body []byte) (controls []ControlMapping, colors []ColorMapping) {
	// Definitions follow the name section; skip past its terminator so name
	// characters cannot masquerade as markers.
	start := 0
	if idx := indexOf(body, nameWritePrefix); idx >= 0 {
		end := idx + len(nameWritePrefix)
		for end < len(body) && body[end] != nameWriteTerminator {
			end++
		}
		if end < len(body) {
			start = end + 1
		}
	}

	pair := 0
	for i := start; i+1 < len(body); {
		switch body[i] {
		case writeEchoCCMarker:
			if pair < len(writeEchoOrder) {
				controls = append(controls, ControlMapping{
					ControlID: writeEchoOrder[pair],
					CC:        body[i+1],
					MaxValue:  127,
				})
				pair++
			}
			i += 2
		case colorMarker:
			id := body[i+1]
			if id >= ControlIDMin && id <= ControlIDMax {
				colors = append(colors, ColorMapping{ControlID: id})
			}
			i += 2
		default:
			i++
		}
	}
	return controls, colors
}

// decodeName tries the known name encodings in order: the write-format
// prefix, then the read-format length-prefixed form, then a raw scan for
// something identifier-shaped. An empty result means the slot has no custom
// name and the caller substitutes a slot-based default.
func decodeName(body []byte) string {
	if idx := indexOf(body, nameWritePrefix); idx >= 0 {
		return readWriteFormatName(body[idx+len(nameWritePrefix):])
	}
	if name, ok := readReadFormatName(body); ok {
		return name
	}
	return scanASCIIName(body)
}

func readWriteFormatName(b []byte) string {
	var name []byte
	for i := 0; i < len(b) && len(name) < 16; i++ {
		// The 49 21 00 sequence marks the start of control definitions; it
		// outranks the plain 0x21 terminator because 0x49 is printable.
		if i+2 < len(b) && b[i] == writeControlMarker && b[i+1] == nameWriteTerminator && b[i+2] == 0x00 {
			break
		}
		if b[i] == nameWriteTerminator {
			break
		}
		if b[i] < 0x20 || b[i] > 0x7E {
			break
		}
		name = append(name, b[i])
	}
	return string(name)
}

func readReadFormatName(body []byte) (string, bool) {
	for i := 0; i+2 < len(body); i++ {
		if body[i] != nameReadPrefix[0] || body[i+1] != nameReadPrefix[1] {
			continue
		}
		length := int(body[i+2])
		if length == factoryNameLength {
			// Factory/default slot data. The device reports 0x1F where a
			// length belongs; treat as "no custom name", not an error.
			return "", true
		}
		if length > 16 || i+3+length > len(body) {
			continue
		}
		name := body[i+3 : i+3+length]
		if !printableASCII(name) {
			continue
		}
		return string(name), true
	}
	return "", false
}

// scanASCIIName is the last resort: the first run of at least three
// printable characters starting with a letter.
func scanASCIIName(body []byte) string {
	for i := 0; i < len(body); i++ {
		if !isLetter(body[i]) {
			continue
		}
		j := i
		for j < len(body) && j-i < 16 && isNameChar(body[j]) {
			j++
		}
		if j-i >= 3 {
			return string(body[i:j])
		}
		i = j
	}
	return ""
}

// decodeLabels walks the length-encoded label section: a marker byte in
// 0x60-0x6F encodes the label length, the next byte is the control ID, then
// the label text. Dead bytes between entries are skipped.
func decodeLabels(b []byte) map[uint8]string {
	labels := make(map[uint8]string)
	i := 0
	for i+1 < len(b) {
		m := b[i]
		if m < labelMarkerLow || m > labelMarkerHigh {
			i++
			continue
		}
		length := int(m - labelMarkerLow)
		id := b[i+1]
		if i+2+length > len(b) || id < ControlIDMin || id > ControlIDMax {
			i++
			continue
		}
		text := b[i+2 : i+2+length]
		if length > 0 && !printableASCII(text) {
			i++
			continue
		}
		if length > 0 {
			labels[id] = string(text)
		}
		i += 2 + length
	}
	return labels
}

// attachLabels copies per-control names onto the decoded controls. Label IDs
// 25-28 are off by one against the definition section on this firmware and
// remap to id+1.
func attachLabels(mode *CustomMode, labels map[uint8]string) {
	for id, text := range labels {
		canonical := id
		if id >= 25 && id <= 28 {
			canonical = id + 1
		}
		for i := range mode.Controls {
			if mode.Controls[i].ControlID == canonical {
				mode.Controls[i].Name = text
				break
			}
		}
	}
}

func indexOf(haystack, needle []byte) int {
	for i := 0; i+len(needle) <= len(haystack); i++ {
		match := true
		for j := range needle {
			if haystack[i+j] != needle[j] {
				match = false
				break
			}
		}
		if match {
			return i
		}
	}
	return -1
}

func printableASCII(b []byte) bool {
	for _, c := range b {
		if c < 0x20 || c > 0x7E {
			return false
		}
	}
	return true
}

func isLetter(c byte) bool {
	return (c >= 'A' && c <= 'Z') || (c >= 'a' && c <= 'z')
}

func isNameChar(c byte) bool {
	return isLetter(c) || (c >= '0' && c <= '9') || c == ' ' || c == '_' || c == '-'
}
