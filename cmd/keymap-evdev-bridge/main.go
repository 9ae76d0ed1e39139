// Command keymap-evdev-bridge drives the keymap engine from a real Linux
// keyboard via evdev, printing each tick's HID boot keyboard report.
//
// This is the external "matrix scanning" collaborator the engine's core
// treats as out of scope: a microcontroller would read a GPIO matrix
// instead of evdev, but this gives the engine a drivable keyboard on a
// Linux host.
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/rgoulter/smart-keymap-go/hidreport"
	"github.com/rgoulter/smart-keymap-go/input"
	"github.com/rgoulter/smart-keymap-go/internal/config"
	"github.com/rgoulter/smart-keymap-go/internal/evdevinput"
	"github.com/rgoulter/smart-keymap-go/key"
	"github.com/rgoulter/smart-keymap-go/key/composite"
	"github.com/rgoulter/smart-keymap-go/key/keyboard"
	"github.com/rgoulter/smart-keymap-go/key/taphold"
	"github.com/rgoulter/smart-keymap-go/keymap"
)

func run() error {
	device := flag.String("device", "", "evdev device path (auto-detect if empty)")
	debug := flag.Bool("debug", false, "enable debug logging to stderr")
	flag.Parse()

	var dbg *log.Logger
	if *debug {
		dbg = log.New(os.Stderr, "[DEBUG] ", log.Ltime|log.Lmicroseconds)
	} else {
		dbg = log.New(io.Discard, "", 0)
	}

	cfgPath := config.DefaultPath()
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	dev, err := evdevinput.FindKeyboard(*device)
	if err != nil {
		return fmt.Errorf("find keyboard: %w", err)
	}
	dbg.Printf("evdev: keyboard device %s", dev.Path())

	layout, keys := passthroughLayout()
	km := keymap.New(layout, keys, cfg.Timing.MsPerTick, dbg)

	bridge := evdevinput.NewBridge(dev)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigCh
		cancel()
	}()

	events := make(chan input.Event, 32)
	go func() {
		err := bridge.Run(ctx, func(ev input.Event) {
			events <- ev
		})
		if err != nil && ctx.Err() == nil {
			dbg.Printf("evdev: bridge error: %v", err)
		}
		close(events)
	}()

	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-events:
			if !ok {
				return nil
			}
			report, _ := km.RegisterInputAfterMs(0, ev)
			printReport(report)
		}
	}
}

func printReport(r hidreport.Report) {
	fmt.Printf("kbd % x\n", r.Keyboard)
}

// passthroughLayout maps a handful of evdev key codes for letter keys,
// digits, and common editing keys directly to their HID boot keyboard
// usage codes; every other evdev code maps to key.NoOpRef, since this
// bridge is a demo rather than a full keymap.
//
// evdev codes follow linux/input-event-codes.h; HID usage codes follow
// the USB HID Usage Tables keyboard/keypad page.
func passthroughLayout() ([]key.Ref, composite.Config) {
	const evdevCodeCount = 256
	var cfg composite.Config

	type mapping struct{ evdevCode, hidUsage uint16 }
	mappings := []mapping{
		{30, 0x04}, {48, 0x05}, {46, 0x06}, {32, 0x07}, {18, 0x08}, // a b c d e
		{33, 0x09}, {34, 0x0a}, {35, 0x0b}, {23, 0x0c}, {36, 0x0d}, // f g h i j
		{37, 0x0e}, {38, 0x0f}, {50, 0x10}, {49, 0x11}, {24, 0x12}, // k l m n o
		{25, 0x13}, {16, 0x14}, {19, 0x15}, {31, 0x16}, {20, 0x17}, // p q r s t
		{22, 0x18}, {47, 0x19}, {17, 0x1a}, {45, 0x1b}, {21, 0x1c}, // u v w x y
		{44, 0x1d}, // z
		{2, 0x1e}, {3, 0x1f}, {4, 0x20}, {5, 0x21}, {6, 0x22}, // 1 2 3 4 5
		{7, 0x23}, {8, 0x24}, {9, 0x25}, {10, 0x26}, {11, 0x27}, // 6 7 8 9 0
		{28, 0x28}, {1, 0x29}, {14, 0x2a}, {15, 0x2b}, {57, 0x2c}, // enter esc backspace tab space
		{42, 0xe1}, {54, 0xe5}, {29, 0xe0}, {97, 0xe4}, // lshift rshift lctrl rctrl
		{56, 0xe2}, {100, 0xe6}, // lalt ralt
	}

	for i, m := range mappings {
		cfg.Keyboard[i] = keyboard.Key{KeyCode: uint8(m.hidUsage)}
	}

	// The space bar doubles as a tap-hold key (tap = space, hold = left
	// control), demonstrating the engine's tap-hold leaf over real
	// hardware input rather than just passing every key straight through.
	const spaceEvdevCode = 57
	spaceKeyboardIdx := len(mappings)
	cfg.Keyboard[spaceKeyboardIdx] = keyboard.Key{KeyCode: 0x2c} // space
	ctrlKeyboardIdx := spaceKeyboardIdx + 1
	cfg.Keyboard[ctrlKeyboardIdx] = keyboard.Key{KeyCode: 0, Modifiers: key.LeftCtrl}
	cfg.TapHold[0] = taphold.Key{
		Tap:               key.Ref{Kind: key.RefKeyboard, Index: uint16(spaceKeyboardIdx)},
		Hold:              key.Ref{Kind: key.RefKeyboard, Index: uint16(ctrlKeyboardIdx)},
		Timeout:           200,
		InterruptResponse: taphold.HoldOnKeyPress,
	}

	layout := make([]key.Ref, evdevCodeCount)
	for i := range layout {
		layout[i] = key.NoOpRef
	}
	for i, m := range mappings {
		if m.evdevCode == spaceEvdevCode {
			continue // space is wired to the tap-hold key below instead
		}
		layout[m.evdevCode] = key.Ref{Kind: key.RefKeyboard, Index: uint16(i)}
	}
	layout[spaceEvdevCode] = key.Ref{Kind: key.RefTapHold, Index: 0}

	return layout, cfg
}

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "keymap-evdev-bridge:", err)
		os.Exit(1)
	}
}
