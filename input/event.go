// Package input defines the events the keymap scheduler consumes from the
// physical matrix (or a synthesized source, such as a macro or sticky
// modifier) and the events it schedules against its own clock.
package input

import "fmt"

// EventKind tags the variant of an Event.
type EventKind uint8

const (
	// Press is a physical key press, identified by keymap index.
	Press EventKind = iota
	// Release is a physical key release, identified by keymap index.
	Release
	// VirtualKeyPress is a synthesized press of a key output, not tied to
	// any keymap index (e.g. emitted by an automation or sticky modifier).
	VirtualKeyPress
	// VirtualKeyRelease is a synthesized release of a key output.
	VirtualKeyRelease
)

func (k EventKind) String() string {
	switch k {
	case Press:
		return "Press"
	case Release:
		return "Release"
	case VirtualKeyPress:
		return "VirtualKeyPress"
	case VirtualKeyRelease:
		return "VirtualKeyRelease"
	default:
		return fmt.Sprintf("EventKind(%d)", uint8(k))
	}
}

// Event is a matrix-level input event or a keymap-synthesized virtual key
// event. KeymapIndex is meaningful for Press/Release; KeyCode is meaningful
// for VirtualKeyPress/VirtualKeyRelease.
type Event struct {
	Kind        EventKind
	KeymapIndex uint16
	KeyCode     uint8
}

// NewPress constructs a Press event for the given keymap index.
func NewPress(keymapIndex uint16) Event {
	return Event{Kind: Press, KeymapIndex: keymapIndex}
}

// NewRelease constructs a Release event for the given keymap index.
func NewRelease(keymapIndex uint16) Event {
	return Event{Kind: Release, KeymapIndex: keymapIndex}
}

// NewVirtualPress constructs a VirtualKeyPress event for the given HID
// keyboard usage code.
func NewVirtualPress(keyCode uint8) Event {
	return Event{Kind: VirtualKeyPress, KeyCode: keyCode}
}

// NewVirtualRelease constructs a VirtualKeyRelease event for the given HID
// keyboard usage code.
func NewVirtualRelease(keyCode uint8) Event {
	return Event{Kind: VirtualKeyRelease, KeyCode: keyCode}
}

func (e Event) String() string {
	switch e.Kind {
	case Press, Release:
		return fmt.Sprintf("%s{%d}", e.Kind, e.KeymapIndex)
	default:
		return fmt.Sprintf("%s{%#02x}", e.Kind, e.KeyCode)
	}
}
