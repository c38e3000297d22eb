package midi

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
	gomidi "gitlab.com/gomidi/midi/v2"
	"gitlab.com/gomidi/midi/v2/drivers"
	_ "gitlab.com/gomidi/midi/v2/drivers/rtmididrv" // Register MIDI driver

	"lcxl3/device"
)

// DeviceEvent is emitted when controllers connect/disconnect
type DeviceEvent struct {
	Type       DeviceEventType
	Controller *Controller
	ID         string
}

type DeviceEventType int

const (
	DeviceConnected DeviceEventType = iota
	DeviceDisconnected
)

// DeviceManager handles hot-plug detection of Launch Control XL 3 units.
// The controller exposes two port pairs: the MIDI pair carrying the SysEx
// protocol and the DAW pair carrying slot selection. A unit counts as
// present once its MIDI pair shows up; the DAW pair is attached when found.
type DeviceManager struct {
	controllers map[string]*Controller
	mu          sync.RWMutex
	events      chan DeviceEvent
	pollRate    time.Duration
	opts        device.Options
	log         zerolog.Logger
}

// NewDeviceManager creates a new device manager
func NewDeviceManager(opts device.Options) *DeviceManager {
	return &DeviceManager{
		controllers: make(map[string]*Controller),
		events:      make(chan DeviceEvent, 16),
		pollRate:    time.Second,
		opts:        opts,
		log:         opts.Logger,
	}
}

// Events returns a channel of device connect/disconnect events
func (dm *DeviceManager) Events() <-chan DeviceEvent {
	return dm.events
}

// Controllers returns a snapshot of connected controllers
func (dm *DeviceManager) Controllers() map[string]*Controller {
	dm.mu.RLock()
	defer dm.mu.RUnlock()
	copy := make(map[string]*Controller, len(dm.controllers))
	for k, v := range dm.controllers {
		copy[k] = v
	}
	return copy
}

// First returns any connected controller (or nil).
func (dm *DeviceManager) First() *Controller {
	dm.mu.RLock()
	defer dm.mu.RUnlock()
	for _, c := range dm.controllers {
		return c
	}
	return nil
}

// Run starts the polling loop (blocking - run in goroutine)
func (dm *DeviceManager) Run(ctx context.Context) {
	ticker := time.NewTicker(dm.pollRate)
	defer ticker.Stop()

	// Initial scan
	dm.scan()

	for {
		select {
		case <-ctx.Done():
			dm.closeAll()
			close(dm.events)
			return
		case <-ticker.C:
			dm.scan()
		}
	}
}

func (dm *DeviceManager) scan() {
	// Get current MIDI ports with timeout (CoreMIDI can hang)
	type portsResult struct {
		inPorts  []drivers.In
		outPorts []drivers.Out
	}

	ch := make(chan portsResult, 1)
	go func() {
		inPorts := gomidi.GetInPorts()
		outPorts := gomidi.GetOutPorts()
		ch <- portsResult{inPorts: inPorts, outPorts: outPorts}
	}()

	var inPorts []drivers.In
	var outPorts []drivers.Out

	select {
	case result := <-ch:
		inPorts = result.inPorts
		outPorts = result.outPorts
	case <-time.After(3 * time.Second):
		// CoreMIDI is hung - skip this scan
		// User needs to run: sudo killall coreaudiod midiserver
		return
	}

	seenIDs := make(map[string]bool)

	for i, inPort := range inPorts {
		if !isProtocolPort(inPort.String()) {
			continue
		}
		id := inPort.String()
		seenIDs[id] = true

		dm.mu.RLock()
		_, exists := dm.controllers[id]
		dm.mu.RUnlock()
		if exists {
			continue
		}

		ctrl, err := dm.connect(id, inPorts[i], inPorts, outPorts)
		if err != nil {
			dm.log.Debug().Err(err).Str("port", id).Msg("skipping port")
			continue
		}

		dm.mu.Lock()
		dm.controllers[id] = ctrl
		dm.mu.Unlock()

		dm.events <- DeviceEvent{
			Type:       DeviceConnected,
			Controller: ctrl,
			ID:         id,
		}
	}

	// Check for disconnects
	dm.mu.Lock()
	var toRemove []string
	for id := range dm.controllers {
		if !seenIDs[id] {
			toRemove = append(toRemove, id)
		}
	}
	for _, id := range toRemove {
		c := dm.controllers[id]
		c.Close()
		delete(dm.controllers, id)
		dm.events <- DeviceEvent{
			Type: DeviceDisconnected,
			ID:   id,
		}
	}
	dm.mu.Unlock()
}

// connect opens the MIDI pair and, when present, the matching DAW pair.
func (dm *DeviceManager) connect(id string, midiIn drivers.In, inPorts []drivers.In, outPorts []drivers.Out) (*Controller, error) {
	midiOut := findOut(outPorts, midiIn.String())
	midiPort, err := OpenPort(midiIn.String(), midiIn, midiOut, dm.log)
	if err != nil {
		return nil, err
	}

	var dawPort *Port
	dawName := strings.Replace(strings.ToLower(midiIn.String()), "midi", "daw", 1)
	dawIn := findIn(inPorts, dawName)
	dawOut := findOut(outPorts, dawName)
	if dawIn != nil || dawOut != nil {
		dawPort, err = OpenPort(dawName, dawIn, dawOut, dm.log)
		if err != nil {
			dm.log.Debug().Err(err).Str("port", dawName).Msg("DAW pair unavailable")
			dawPort = nil
		}
	}

	return newController(id, midiPort, dawPort, dm.opts), nil
}

func findIn(ports []drivers.In, name string) drivers.In {
	for i, p := range ports {
		if strings.EqualFold(p.String(), name) {
			return ports[i]
		}
	}
	return nil
}

func findOut(ports []drivers.Out, name string) drivers.Out {
	for i, p := range ports {
		if strings.EqualFold(p.String(), name) {
			return ports[i]
		}
	}
	return nil
}

func (dm *DeviceManager) closeAll() {
	dm.mu.Lock()
	defer dm.mu.Unlock()
	for _, c := range dm.controllers {
		c.Close()
	}
	dm.controllers = make(map[string]*Controller)
}

// isProtocolPort matches the SysEx-carrying MIDI pair of an XL 3
// ("LCXL3 1 MIDI Out" and friends), not the DAW pair.
func isProtocolPort(name string) bool {
	name = strings.ToLower(name)
	return strings.Contains(name, "lcxl3") && strings.Contains(name, "midi")
}
