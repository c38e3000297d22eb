package device

import (
	"context"
	"fmt"

	"lcxl3/sysex"
)

// ReadMode fetches a stored custom mode. The mode travels in two halves,
// encoders and faders/buttons, each requested and parsed separately and then
// merged. A slot holding factory data carries no name; a slot-based default
// is substituted so callers always get something displayable.
func (d *Device) ReadMode(ctx context.Context, slot int) (sysex.CustomMode, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if slot < 0 || slot > maxSlot {
		return sysex.CustomMode{}, &InvalidSlotError{Slot: slot}
	}

	var mode sysex.CustomMode
	for _, page := range []sysex.ReadPage{sysex.ReadPageEncoders, sysex.ReadPageFadersButton} {
		part, err := d.readPage(ctx, page, uint8(slot))
		if err != nil {
			return sysex.CustomMode{}, err
		}
		mode.Merge(part)
	}
	mode.Slot = uint8(slot)

	if mode.Name == "" {
		mode.Name = fmt.Sprintf("Custom %d", slot+1)
	}

	d.log.Debug().
		Int("slot", slot).
		Str("name", mode.Name).
		Int("controls", len(mode.Controls)).
		Msg("custom mode read")
	return mode, nil
}

func (d *Device) readPage(ctx context.Context, page sysex.ReadPage, slot uint8) (sysex.CustomMode, error) {
	req, err := sysex.BuildCustomModeRead(page, slot)
	if err != nil {
		return sysex.CustomMode{}, err
	}
	if err := d.midi.Send(req); err != nil {
		return sysex.CustomMode{}, fmt.Errorf("send read request: %w", err)
	}

	step := fmt.Sprintf("custom-mode-response page %d", page)
	raw, err := awaitReply(ctx, d.midi, step, isCustomModeResponseShaped, d.opts.ReadTimeout)
	if err != nil {
		return sysex.CustomMode{}, err
	}

	msg, err := sysex.Parse(raw)
	if err != nil {
		return sysex.CustomMode{}, err
	}
	resp, ok := msg.(sysex.CustomModeResponse)
	if !ok {
		return sysex.CustomMode{}, fmt.Errorf("%w: expected custom-mode response, got %s",
			sysex.ErrUnknownMessageFormat, msg.Kind())
	}
	return resp.Mode, nil
}

// isCustomModeResponseShaped matches the modern vendor prefix with the
// custom-mode response operation byte.
func isCustomModeResponseShaped(msg []byte) bool {
	return len(msg) >= 10 && msg[0] == sysex.SysExStart &&
		msg[1] == 0x00 && msg[2] == 0x20 && msg[3] == 0x29 &&
		msg[4] == 0x02 && msg[5] == 0x15 && msg[6] == 0x05 && msg[7] == 0x00 &&
		msg[8] == 0x10
}
