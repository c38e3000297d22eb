package main

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"
	gomidi "gitlab.com/gomidi/midi/v2"
	"gitlab.com/gomidi/midi/v2/drivers"
	_ "gitlab.com/gomidi/midi/v2/drivers/rtmididrv"

	"lcxl3/config"
	"lcxl3/device"
	"lcxl3/midi"
	"lcxl3/sysex"
)

func main() {
	if len(os.Args) < 2 {
		usage()
		return
	}

	switch os.Args[1] {
	case "list":
		listPorts()
	case "detect":
		detect()
	case "handshake":
		withDevice(func(ctx context.Context, d *device.Device) error {
			return runHandshake(ctx, d)
		})
	case "slot":
		if len(os.Args) < 3 {
			usage()
			return
		}
		slot, err := strconv.Atoi(os.Args[2])
		if err != nil {
			fmt.Printf("bad slot %q\n", os.Args[2])
			return
		}
		withDevice(func(ctx context.Context, d *device.Device) error {
			return runSelectSlot(ctx, d, slot)
		})
	case "read":
		if len(os.Args) < 3 {
			usage()
			return
		}
		slot, err := strconv.Atoi(os.Args[2])
		if err != nil {
			fmt.Printf("bad slot %q\n", os.Args[2])
			return
		}
		withDevice(func(ctx context.Context, d *device.Device) error {
			return runRead(ctx, d, slot)
		})
	case "write":
		if len(os.Args) < 3 {
			usage()
			return
		}
		slot, err := strconv.Atoi(os.Args[2])
		if err != nil {
			fmt.Printf("bad slot %q\n", os.Args[2])
			return
		}
		withDevice(func(ctx context.Context, d *device.Device) error {
			return runWriteDemo(ctx, d, slot)
		})
	case "watch":
		watch()
	default:
		usage()
	}
}

func usage() {
	fmt.Println("lcxl3ctl - Launch Control XL 3 protocol tool")
	fmt.Println("")
	fmt.Println("Commands:")
	fmt.Println("  list          - List all MIDI ports")
	fmt.Println("  detect        - Find a Launch Control XL 3")
	fmt.Println("  handshake     - Run the identification handshake")
	fmt.Println("  slot <n>      - Select active slot (0-14)")
	fmt.Println("  read <n>      - Read the custom mode in slot n")
	fmt.Println("  write <n>     - Write a demo custom mode into slot n")
	fmt.Println("  watch         - Watch for device connect/disconnect")
}

func newLogger(cfg *config.Config) zerolog.Logger {
	level := zerolog.InfoLevel
	if cfg.Debug {
		level = zerolog.DebugLevel
	}
	return zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).
		Level(level).
		With().Timestamp().Logger()
}

func listPorts() {
	fmt.Println("=== MIDI Input Ports ===")

	ins := gomidi.GetInPorts()
	outs := gomidi.GetOutPorts()
	for i, p := range ins {
		fmt.Printf("  %d: %s\n", i, p.String())
	}
	fmt.Println("\n=== MIDI Output Ports ===")
	for i, p := range outs {
		fmt.Printf("  %d: %s\n", i, p.String())
	}
}

func detect() {
	fmt.Println("Looking for Launch Control XL 3...")

	found := false
	for _, p := range gomidi.GetInPorts() {
		name := strings.ToLower(p.String())
		if strings.Contains(name, "lcxl3") {
			fmt.Printf("Found input: %s\n", p.String())
			found = true
		}
	}
	for _, p := range gomidi.GetOutPorts() {
		name := strings.ToLower(p.String())
		if strings.Contains(name, "lcxl3") {
			fmt.Printf("Found output: %s\n", p.String())
			found = true
		}
	}

	if found {
		fmt.Println("\nLaunch Control XL 3 detected!")
	} else {
		fmt.Println("\nNo Launch Control XL 3 found")
	}
}

// withDevice opens the port pairs per config and hands a wired Device to the
// given action.
func withDevice(action func(ctx context.Context, d *device.Device) error) {
	cfg, err := config.Load()
	if err != nil {
		fmt.Printf("config: %v\n", err)
		os.Exit(1)
	}
	log := newLogger(cfg)

	midiPort, dawPort, err := openPorts(cfg, log)
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		os.Exit(1)
	}
	defer midiPort.Close()
	if dawPort != nil {
		defer dawPort.Close()
	}

	opts := device.Options{
		HandshakeTimeout: config.Duration(cfg.Timeouts.HandshakeMs),
		ReadTimeout:      config.Duration(cfg.Timeouts.ReadMs),
		Page0AckTimeout:  config.Duration(cfg.Timeouts.Page0AckMs),
		Page3AckTimeout:  config.Duration(cfg.Timeouts.Page3AckMs),
		EchoTimeout:      config.Duration(cfg.Timeouts.EchoMs),
		Logger:           log,
	}

	var daw device.Transport
	if dawPort != nil {
		daw = dawPort
	}
	d := device.New(midiPort, daw, opts)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := action(ctx, d); err != nil {
		fmt.Printf("Error: %v\n", err)
		os.Exit(1)
	}
}

func openPorts(cfg *config.Config, log zerolog.Logger) (*midi.Port, *midi.Port, error) {
	ins := gomidi.GetInPorts()
	outs := gomidi.GetOutPorts()

	midiName := cfg.MIDIPortName
	if midiName == "" {
		midiName = firstMatching(ins, "lcxl3", "midi")
	}
	if midiName == "" {
		return nil, nil, fmt.Errorf("no Launch Control XL 3 MIDI port found")
	}

	midiPort, err := midi.OpenPort(midiName, inByName(ins, midiName), outByName(outs, midiName), log)
	if err != nil {
		return nil, nil, err
	}

	dawName := cfg.DAWPortName
	if dawName == "" {
		dawName = firstMatching(ins, "lcxl3", "daw")
	}
	var dawPort *midi.Port
	if dawName != "" {
		dawPort, err = midi.OpenPort(dawName, inByName(ins, dawName), outByName(outs, dawName), log)
		if err != nil {
			log.Warn().Err(err).Msg("DAW port unavailable, slot selection disabled")
			dawPort = nil
		}
	}
	return midiPort, dawPort, nil
}

func firstMatching(ports []drivers.In, substrings ...string) string {
	for _, p := range ports {
		name := strings.ToLower(p.String())
		ok := true
		for _, s := range substrings {
			if !strings.Contains(name, s) {
				ok = false
				break
			}
		}
		if ok {
			return p.String()
		}
	}
	return ""
}

func inByName(ports []drivers.In, name string) drivers.In {
	for i, p := range ports {
		if strings.EqualFold(p.String(), name) {
			return ports[i]
		}
	}
	return nil
}

func outByName(ports []drivers.Out, name string) drivers.Out {
	for i, p := range ports {
		if strings.EqualFold(p.String(), name) {
			return ports[i]
		}
	}
	return nil
}

func runHandshake(ctx context.Context, d *device.Device) error {
	result, err := d.Handshake(ctx)
	if err != nil {
		return err
	}
	fmt.Printf("Serial:   %s\n", result.Serial)
	fmt.Printf("Family:   0x%04X member 0x%04X\n", result.FamilyCode, result.FamilyMember)
	fmt.Printf("Firmware: % X\n", result.FirmwareRevision)
	return nil
}

func runSelectSlot(ctx context.Context, d *device.Device, slot int) error {
	if current, ok, err := d.ActiveSlot(ctx); err == nil && ok {
		fmt.Printf("Current slot: %d\n", current)
	}
	if err := d.SelectSlot(ctx, slot); err != nil {
		return err
	}
	fmt.Printf("Selected slot %d\n", slot)
	return nil
}

func runRead(ctx context.Context, d *device.Device, slot int) error {
	mode, err := d.ReadMode(ctx, slot)
	if err != nil {
		return err
	}
	fmt.Printf("Slot %d: %q\n", slot, mode.Name)
	for _, c := range mode.Controls {
		fmt.Printf("  control 0x%02X  ch %-2d cc %-3d [%d-%d] %s",
			c.ControlID, c.Channel, c.CC, c.MinValue, c.MaxValue, c.Behaviour)
		if c.Name != "" {
			fmt.Printf("  %q", c.Name)
		}
		fmt.Println()
	}
	for _, col := range mode.Colors {
		fmt.Printf("  led     0x%02X  color %d %s\n", col.ControlID, col.Color, col.Behaviour)
	}
	return nil
}

// runWriteDemo stores a small test mode: first encoder row mapped to
// CC 13-20 with a green LED on the first encoder.
func runWriteDemo(ctx context.Context, d *device.Device, slot int) error {
	mode := sysex.CustomMode{Name: "LCXL3CTL"}
	for i := uint8(0); i < 8; i++ {
		mode.Controls = append(mode.Controls, sysex.ControlMapping{
			ControlID: sysex.EncoderRow1Start + i,
			CC:        13 + i,
			MaxValue:  127,
		})
	}
	mode.Colors = append(mode.Colors, sysex.ColorMapping{
		ControlID: sysex.EncoderRow1Start,
		Color:     0x60,
	})

	result, err := d.WriteMode(ctx, slot, mode)
	if err != nil {
		return fmt.Errorf("%w (last confirmed page %d)", err, result.LastConfirmedPage)
	}
	fmt.Printf("Wrote %q to slot %d\n", mode.Name, slot)
	return nil
}

func watch() {
	cfg, _ := config.Load()
	log := newLogger(cfg)

	dm := midi.NewDeviceManager(device.Options{Logger: log})
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go dm.Run(ctx)

	fmt.Println("Watching for Launch Control XL 3 devices. Ctrl+C to exit.")
	for ev := range dm.Events() {
		switch ev.Type {
		case midi.DeviceConnected:
			fmt.Printf("[%s] connected: %s\n", time.Now().Format("15:04:05"), ev.ID)
		case midi.DeviceDisconnected:
			fmt.Printf("[%s] disconnected: %s\n", time.Now().Format("15:04:05"), ev.ID)
		}
	}
}
