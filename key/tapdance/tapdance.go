// Package tapdance implements the tap-dance leaf key system: repeated taps
// of the same key within a timeout select between several Refs.
package tapdance

import (
	"github.com/rgoulter/smart-keymap-go/input"
	"github.com/rgoulter/smart-keymap-go/key"
)

// MaxTaps bounds the number of distinct tap counts a tap-dance key
// distinguishes between.
const MaxTaps = 4

// Key is a tap-dance definition: Definitions[i] is retargeted to after i+1
// taps; a tap count beyond the configured Count resolves to the last
// configured definition (holding at the maximum).
type Key struct {
	Definitions [MaxTaps]key.Ref
	Count       uint8
	TimeoutMs   uint16
}

// eventKind tags tap-dance's own sub-events.
type eventKind uint8

const evTimeout eventKind = iota

// Event is tap-dance's own sub-event: the inter-tap timeout elapsing.
type Event struct {
	Kind eventKind
}

var TimeoutEvent = Event{Kind: evTimeout}

// PendingKeyState counts taps so far and tracks whether the key is
// currently held down mid-sequence.
type PendingKeyState struct {
	KeymapIndex uint16
	TapCount    uint8
	Held        bool
}

// NewPressedKey begins a tap-dance sequence at one tap, held.
func NewPressedKey(keymapIndex uint16, k Key) (key.PressedKeyResult[PendingKeyState, struct{}], key.Events) {
	pks := PendingKeyState{KeymapIndex: keymapIndex, TapCount: 1, Held: true}
	return key.PendingResult[PendingKeyState, struct{}](key.NewKeyPath(keymapIndex), pks), key.NoEvents()
}

// UpdatePendingState advances a pending tap-dance sequence. It returns a
// non-nil retarget Ref once the sequence is considered final: either the
// inter-tap timeout elapsed (resolve to the tap count reached so far) or
// the configured maximum Count was reached on this release (no further
// taps are distinguishable, so there's no need to wait out the timeout).
func UpdatePendingState(pks *PendingKeyState, k Key, ev key.Event) (retarget *key.Ref, events key.Events) {
	switch ev.Kind {
	case key.EventInput:
		switch ev.Input.Kind {
		case input.Release:
			if ev.Input.KeymapIndex != pks.KeymapIndex {
				return nil, key.NoEvents()
			}
			pks.Held = false
			if pks.TapCount >= k.Count {
				return resolvedRef(k, pks.TapCount), key.NoEvents()
			}
			return nil, key.EventAfter(k.TimeoutMs, key.KeyEventFor(pks.KeymapIndex, TimeoutEvent))
		case input.Press:
			if ev.Input.KeymapIndex != pks.KeymapIndex || pks.Held {
				return nil, key.NoEvents()
			}
			pks.Held = true
			if pks.TapCount < k.Count {
				pks.TapCount++
			}
			return nil, key.NoEvents()
		}
	case key.EventKey:
		if te, ok := ev.KeyEvent.(Event); ok && te.Kind == evTimeout && ev.KeymapIndex == pks.KeymapIndex && !pks.Held {
			return resolvedRef(k, pks.TapCount), key.NoEvents()
		}
	}
	return nil, key.NoEvents()
}

func resolvedRef(k Key, tapCount uint8) *key.Ref {
	idx := tapCount
	if idx == 0 {
		idx = 1
	}
	if idx > MaxTaps {
		idx = MaxTaps
	}
	r := k.Definitions[idx-1]
	return &r
}
