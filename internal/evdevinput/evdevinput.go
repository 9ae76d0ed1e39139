//go:build linux

// Package evdevinput bridges a real Linux keyboard (via evdev) into the
// keymap engine: it finds a keyboard device, reads its raw key events,
// and forwards them as input.Press/input.Release events keyed by the
// device's own evdev key code (used directly as the keymap index).
//
// This is the external "matrix scanning" collaborator the engine's core
// explicitly treats as out of scope: a real microcontroller firmware
// would read a GPIO matrix instead, but evdev gives the host simulator a
// drivable keyboard with zero extra hardware.
package evdevinput

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	evdev "github.com/holoplot/go-evdev"

	"github.com/rgoulter/smart-keymap-go/input"
)

// FindKeyboard opens a specific device path, or auto-detects a keyboard
// by scanning /dev/input/event* for devices that support letter keys
// (KEY_A through KEY_Z), distinguishing real keyboards from power
// buttons, mice, and other non-keyboard devices.
func FindKeyboard(devicePath string) (*evdev.InputDevice, error) {
	if devicePath != "" {
		dev, err := evdev.Open(devicePath)
		if err != nil {
			return nil, fmt.Errorf("open device %s: %w", devicePath, err)
		}
		return dev, nil
	}

	matches, err := filepath.Glob("/dev/input/event*")
	if err != nil {
		return nil, fmt.Errorf("glob /dev/input/event*: %w", err)
	}

	sort.Slice(matches, func(i, j int) bool {
		ni, _ := strconv.Atoi(strings.TrimPrefix(matches[i], "/dev/input/event"))
		nj, _ := strconv.Atoi(strings.TrimPrefix(matches[j], "/dev/input/event"))
		return ni < nj
	})

	for _, path := range matches {
		dev, err := evdev.Open(path)
		if err != nil {
			continue
		}
		if isKeyboard(dev) {
			return dev, nil
		}
		_ = dev.Close()
	}

	return nil, fmt.Errorf("no keyboard device found in /dev/input/event*")
}

// isKeyboard reports whether dev supports letter keys (KEY_A..KEY_Z) and
// has no relative-axis capability (ruling out mice and trackpads).
func isKeyboard(dev *evdev.InputDevice) bool {
	for _, evType := range dev.CapableTypes() {
		if evType == evdev.EV_REL {
			return false
		}
	}

	keys := dev.CapableEvents(evdev.EV_KEY)
	hasA, hasZ := false, false
	for _, code := range keys {
		if code == 30 { // KEY_A
			hasA = true
		}
		if code == 44 { // KEY_Z
			hasZ = true
		}
	}
	return hasA && hasZ
}

// Bridge reads dev's key events and forwards them to the keymap engine
// as input.Event values, using the evdev key code directly as the
// keymap index.
type Bridge struct {
	dev    *evdev.InputDevice
	closed bool
}

// NewBridge wraps an already-opened evdev device.
func NewBridge(dev *evdev.InputDevice) *Bridge {
	return &Bridge{dev: dev}
}

// Run reads events from the device until ctx is cancelled or the device
// closes, calling onEvent for every key press/release (repeat events,
// value == 2, are ignored: the engine's own tap-hold/tap-dance/chord
// timing replaces OS-level key repeat).
func (b *Bridge) Run(ctx context.Context, onEvent func(input.Event)) error {
	errCh := make(chan error, 1)

	go func() {
		for {
			ev, err := b.dev.ReadOne()
			if err != nil {
				if b.closed || os.IsNotExist(err) || strings.Contains(err.Error(), "file already closed") || strings.Contains(err.Error(), "bad file descriptor") {
					errCh <- nil
					return
				}
				errCh <- fmt.Errorf("read event: %w", err)
				return
			}

			if ev.Type != evdev.EV_KEY {
				continue
			}
			keymapIndex := uint16(ev.Code)
			switch ev.Value {
			case 1:
				onEvent(input.NewPress(keymapIndex))
			case 0:
				onEvent(input.NewRelease(keymapIndex))
			}
		}
	}()

	select {
	case <-ctx.Done():
		b.Stop()
		<-errCh
		return ctx.Err()
	case err := <-errCh:
		return err
	}
}

// Stop closes the underlying device.
func (b *Bridge) Stop() {
	if !b.closed {
		b.closed = true
		_ = b.dev.Close()
	}
}
