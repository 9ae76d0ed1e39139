// Package chorded implements the chorded leaf key system: two or more keys
// that, pressed together within a timeout, resolve to a different output
// than any one of them pressed alone.
package chorded

import (
	"github.com/rgoulter/smart-keymap-go/input"
	"github.com/rgoulter/smart-keymap-go/key"
)

// MaxChordSize bounds the number of keymap indices participating in one
// chord.
const MaxChordSize = 4

// Key is a chord definition: Indices lists the keymap indices (positions
// in the keymap's layout, as carried by input events) that must all
// be pressed within TimeoutMs of the first for the chord to resolve to
// Resolved; a single index pressed and released alone (or the chord timing
// out) instead passes through Passthrough.
type Key struct {
	Indices    [MaxChordSize]uint16
	IndexCount uint8
	TimeoutMs  uint16

	Resolved    key.Ref
	Passthrough key.Ref

	RequiredIdleTimeMs uint16
}

func (k Key) has(keymapIndex uint16) bool {
	for i := uint8(0); i < k.IndexCount; i++ {
		if k.Indices[i] == keymapIndex {
			return true
		}
	}
	return false
}

// Context shares the idle-activity clock with tap-hold.
type Context struct {
	LastActivityTick uint32
	CurrentTick      uint32
}

func idleBlocksChord(k Key, ctx Context) bool {
	if k.RequiredIdleTimeMs == 0 {
		return false
	}
	return ctx.CurrentTick-ctx.LastActivityTick < uint32(k.RequiredIdleTimeMs)
}

// eventKind tags chorded's own sub-events.
type eventKind uint8

const evTimeout eventKind = iota

// Event is chorded's own sub-event.
type Event struct {
	Kind eventKind
}

// TimeoutEvent fires when the chord window elapses with fewer than all
// participating indices pressed.
var TimeoutEvent = Event{Kind: evTimeout}

// Resolution tags how a pending chord's press/release sequence should be
// interpreted by the composite dispatcher, which alone can synthesize
// passthrough taps (by calling back into the leaf the chord's Passthrough
// Ref points at).
type Resolution uint8

const (
	// StillPending: not yet resolved.
	StillPending Resolution = iota
	// ResolvedChord: all indices pressed within the window; retarget to
	// Resolved.
	ResolvedChord
	// ResolvedPassthrough: the primary index was released (or the window
	// elapsed) before the rest of the chord completed; the composite
	// dispatcher should synthesize a tap of Passthrough.
	ResolvedPassthrough
)

// PendingKeyState tracks which of a chord's indices have been pressed so
// far.
type PendingKeyState struct {
	PrimaryIndex uint16 // the keymap index that started the chord
	Pressed      [MaxChordSize]bool
	PressedCount uint8
}

// NewPressedKey begins tracking a chord from its first pressed index.
func NewPressedKey(keymapIndex uint16, k Key) (key.PressedKeyResult[PendingKeyState, struct{}], key.Events) {
	var pks PendingKeyState
	pks.PrimaryIndex = keymapIndex
	for i := uint8(0); i < k.IndexCount; i++ {
		if k.Indices[i] == keymapIndex {
			pks.Pressed[i] = true
			pks.PressedCount = 1
		}
	}
	events := key.EventAfter(k.TimeoutMs, key.KeyEventFor(keymapIndex, TimeoutEvent))
	return key.PendingResult[PendingKeyState, struct{}](key.NewKeyPath(keymapIndex), pks), events
}

// UpdatePendingState advances a pending chord given an incoming event
// addressed to this chord's pending slot (by its PrimaryIndex). It reports
// the Resolution reached, if any.
func UpdatePendingState(pks *PendingKeyState, k Key, ctx Context, ev key.Event) Resolution {
	switch ev.Kind {
	case key.EventInput:
		switch ev.Input.Kind {
		case input.Press:
			idx := ev.Input.KeymapIndex
			if !k.has(idx) {
				// A non-participating key pressing aborts the chord the
				// same as a timeout or the primary index releasing: resolve
				// to the passthrough Ref rather than waiting indefinitely.
				return ResolvedPassthrough
			}
			for i := uint8(0); i < k.IndexCount; i++ {
				if k.Indices[i] == idx && !pks.Pressed[i] {
					pks.Pressed[i] = true
					pks.PressedCount++
				}
			}
			if pks.PressedCount == k.IndexCount && !idleBlocksChord(k, ctx) {
				return ResolvedChord
			}
		case input.Release:
			if ev.Input.KeymapIndex == pks.PrimaryIndex {
				return ResolvedPassthrough
			}
		}
	case key.EventKey:
		if te, ok := ev.KeyEvent.(Event); ok && te.Kind == evTimeout && ev.KeymapIndex == pks.PrimaryIndex {
			return ResolvedPassthrough
		}
	}
	return StillPending
}

// Every keymap index participating in a chord references the same Key
// definition (the chord's Indices list every participant, itself
// included): whichever index is physically pressed first becomes the
// pending state's PrimaryIndex, determined dynamically rather than by a
// fixed "primary" role assigned in the keymap. This is why chorded has
// only one leaf Key type instead of a separate primary/auxiliary pair.
