package device

import (
	"context"
	"fmt"

	"lcxl3/sysex"
)

// HandshakeResult identifies a device after a complete 4-step handshake.
type HandshakeResult struct {
	Serial           string
	FamilyCode       uint16
	FamilyMember     uint16
	FirmwareRevision [4]byte
}

// handshakePhase tracks the strict step sequence. The machine is terminal
// on first failure and resets to idle; callers own any retry policy.
type handshakePhase int

const (
	phaseIdle handshakePhase = iota
	phaseSynSent
	phaseSynAckReceived
	phaseInquirySent
	phaseIdentified
)

// Handshake runs the identification exchange: SYN, SYN-ACK with the unit
// serial, universal device inquiry, inquiry reply. The result is valid only
// if all four steps validate.
func (d *Device) Handshake(ctx context.Context) (HandshakeResult, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	phase := phaseIdle
	advance := func(p handshakePhase) {
		phase = p
		d.log.Debug().Int("phase", int(phase)).Msg("handshake")
	}
	var result HandshakeResult

	// Step 1: SYN.
	if err := d.midi.Send(sysex.BuildSyn()); err != nil {
		return HandshakeResult{}, fmt.Errorf("send syn: %w", err)
	}
	advance(phaseSynSent)

	// Step 2: SYN-ACK carrying the serial.
	raw, err := awaitReply(ctx, d.midi, "syn-ack", isSynAckShaped, d.opts.HandshakeTimeout)
	if err != nil {
		return HandshakeResult{}, err
	}
	ack, err := sysex.ParseSynAck(raw)
	if err != nil {
		d.log.Debug().Err(err).Msg("rejecting syn-ack")
		return HandshakeResult{}, &HandshakeFailedError{Step: "syn-ack", Reason: "invalid SYN-ACK"}
	}
	result.Serial = ack.Serial
	advance(phaseSynAckReceived)

	// Step 3: universal device inquiry, broadcast device ID.
	if err := d.midi.Send(sysex.BuildDeviceInquiry()); err != nil {
		return HandshakeResult{}, fmt.Errorf("send inquiry: %w", err)
	}
	advance(phaseInquirySent)

	// Step 4: inquiry reply.
	raw, err = awaitReply(ctx, d.midi, "inquiry-response", isInquiryReplyShaped, d.opts.HandshakeTimeout)
	if err != nil {
		return HandshakeResult{}, err
	}
	msg, err := sysex.Parse(raw)
	if err != nil {
		return HandshakeResult{}, &HandshakeFailedError{Step: "inquiry-response", Reason: err.Error()}
	}
	inq, ok := msg.(sysex.DeviceInquiryResponse)
	if !ok {
		return HandshakeResult{}, &HandshakeFailedError{
			Step:   "inquiry-response",
			Reason: fmt.Sprintf("unexpected message %s", msg.Kind()),
		}
	}
	result.FamilyCode = inq.FamilyCode
	result.FamilyMember = inq.FamilyMember
	result.FirmwareRevision = inq.FirmwareRevision
	advance(phaseIdentified)

	d.log.Info().
		Str("serial", result.Serial).
		Uint16("family", result.FamilyCode).
		Msg("device identified")
	return result, nil
}

// isSynAckShaped is the arrival-order filter for step 2: a vendor frame of
// the right length. Full validation happens in ParseSynAck.
func isSynAckShaped(msg []byte) bool {
	return len(msg) == 22 && msg[0] == sysex.SysExStart &&
		msg[1] == 0x00 && msg[2] == 0x20 && msg[3] == 0x29
}

// isInquiryReplyShaped matches the universal inquiry reply prefix
// F0 7E <id> 06 02.
func isInquiryReplyShaped(msg []byte) bool {
	return len(msg) >= 6 && msg[0] == sysex.SysExStart &&
		msg[1] == 0x7E && msg[3] == 0x06 && msg[4] == 0x02
}
