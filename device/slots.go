package device

import (
	"context"
	"fmt"
)

// Slot selection is a 2-phase exchange on the DAW port, entirely outside the
// SysEx grammar: a Note On "attention" message on channel 15 brackets a CC 30
// write. The device stores 16 modes but only slots 0-14 are selectable here.
//
// CC 30 values encode the slot as physical (1-based) slot + 5, so logical
// slot 0 travels as 6 and slot 14 as 20. The device echoes the active slot
// on channel 6; the echo is optional and its absence means "carry on".
const (
	slotNote        = 11
	slotCC          = 30
	slotNoteChannel = 15 // Note On/Off bracket
	slotQueryChan   = 7  // CC 30 query goes out here
	slotEchoChan    = 6  // device echoes and accepts selection here

	slotCCOffset = 6
	maxSlot      = 14
)

func noteOn(channel, note, velocity uint8) []byte {
	return []byte{0x90 | channel, note, velocity}
}

func controlChange(channel, cc, value uint8) []byte {
	return []byte{0xB0 | channel, cc, value}
}

// isSlotEcho matches the device's CC 30 report on the echo channel.
func isSlotEcho(msg []byte) bool {
	return len(msg) == 3 && msg[0] == 0xB0|slotEchoChan && msg[1] == slotCC
}

// ActiveSlot asks the device which slot is currently active. The boolean is
// false when the device did not answer within the echo deadline, which older
// firmware simply does not do.
func (d *Device) ActiveSlot(ctx context.Context) (uint8, bool, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.activeSlotLocked(ctx)
}

func (d *Device) activeSlotLocked(ctx context.Context) (uint8, bool, error) {
	if d.daw == nil {
		return 0, false, ErrWaitUnsupported
	}

	if err := d.daw.Send(noteOn(slotNoteChannel, slotNote, 127)); err != nil {
		return 0, false, fmt.Errorf("slot query note on: %w", err)
	}
	if err := d.daw.Send(controlChange(slotQueryChan, slotCC, 0)); err != nil {
		return 0, false, fmt.Errorf("slot query: %w", err)
	}

	echo, err := awaitOptional(ctx, d.daw, "slot-query-echo", isSlotEcho, d.opts.EchoTimeout)

	// Close the bracket regardless of whether an echo arrived.
	if sendErr := d.daw.Send(noteOn(slotNoteChannel, slotNote, 0)); sendErr != nil && err == nil {
		err = fmt.Errorf("slot query note off: %w", sendErr)
	}
	if err != nil {
		return 0, false, err
	}
	if echo == nil || echo[2] < slotCCOffset {
		return 0, false, nil
	}
	return echo[2] - slotCCOffset, true, nil
}

// SelectSlot makes the given slot active on the device. The value is checked
// before any bytes leave the host.
func (d *Device) SelectSlot(ctx context.Context, slot int) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.selectSlotLocked(ctx, slot)
}

func (d *Device) selectSlotLocked(ctx context.Context, slot int) error {
	if slot < 0 || slot > maxSlot {
		return &InvalidSlotError{Slot: slot}
	}
	if d.daw == nil {
		return ErrWaitUnsupported
	}
	value := uint8(slot) + slotCCOffset

	if err := d.daw.Send(noteOn(slotNoteChannel, slotNote, 127)); err != nil {
		return fmt.Errorf("slot select note on: %w", err)
	}
	if err := d.daw.Send(controlChange(slotEchoChan, slotCC, value)); err != nil {
		return fmt.Errorf("slot select: %w", err)
	}
	if err := d.daw.Send(noteOn(slotNoteChannel, slotNote, 0)); err != nil {
		return fmt.Errorf("slot select note off: %w", err)
	}

	echo, err := awaitOptional(ctx, d.daw, "slot-select-echo", isSlotEcho, d.opts.EchoTimeout)
	if err != nil {
		return err
	}
	if echo == nil {
		d.log.Debug().Int("slot", slot).Msg("slot selection not echoed, proceeding")
		return nil
	}
	if echo[2] != value {
		d.log.Warn().
			Int("slot", slot).
			Uint8("echoed", echo[2]).
			Msg("slot echo disagrees with selection")
	}
	return nil
}
