// Package taphold implements the tap-hold leaf key system: a key that
// resolves as "tap" or "hold" depending on whether it's released or
// interrupted before a timeout.
package taphold

import (
	"github.com/rgoulter/smart-keymap-go/input"
	"github.com/rgoulter/smart-keymap-go/key"
)

// InterruptResponse selects how an interrupting key (any key other than
// this one) affects resolution while pending.
type InterruptResponse uint8

const (
	// Ignore: interruptions never resolve the key early.
	Ignore InterruptResponse = iota
	// HoldOnKeyPress: any other key press resolves this as hold.
	HoldOnKeyPress
	// HoldOnKeyTap: another key being fully tapped (press then release)
	// while this one is pending resolves this as hold.
	HoldOnKeyTap
)

// Key is a tap-hold key definition.
type Key struct {
	Tap     key.Ref
	Hold    key.Ref
	Timeout uint16 // ms; assumed 1 tick == 1 ms unless the scheduler says otherwise

	InterruptResponse InterruptResponse

	// RequiredIdleTimeMs, when non-zero, blocks hold resolution unless no
	// other key was pressed within the last RequiredIdleTimeMs.
	RequiredIdleTimeMs uint16
}

// Context tracks activity for RequiredIdleTime checks, shared across all
// tap-hold (and chorded) keys via the composite Context's Activity clock.
type Context struct {
	// LastActivityTick is the tick of the most recent *other* key press,
	// maintained by the composite dispatcher.
	LastActivityTick uint32
	CurrentTick      uint32
}

// eventKind tags taphold's own sub-events.
type eventKind uint8

const (
	evTimeout eventKind = iota
	evInterruptingPress
	evInterruptingTap
)

// Event is taphold's own sub-event type, routed by the composite
// dispatcher to the one pending key it's addressed to.
type Event struct {
	Kind eventKind
}

// TimeoutEvent fires when the hold timeout elapses without resolution.
var TimeoutEvent = Event{Kind: evTimeout}

// InterruptingPressEvent signals that some other key was pressed while
// this one is pending.
var InterruptingPressEvent = Event{Kind: evInterruptingPress}

// InterruptingTapEvent signals that some other key was pressed and
// released (fully tapped) while this one is pending.
var InterruptingTapEvent = Event{Kind: evInterruptingTap}

// PendingKeyState is the scratch state of a tap-hold key awaiting
// resolution.
type PendingKeyState struct {
	KeymapIndex uint16
	// Resolved records whether this key has already resolved, so a later
	// Timeout or any other event arriving afterwards is a no-op.
	Resolved bool
}

// NewPressedKey enters the pending state and schedules a Timeout.
func NewPressedKey(keymapIndex uint16, k Key) (key.PressedKeyResult[PendingKeyState, struct{}], key.Events) {
	pks := PendingKeyState{KeymapIndex: keymapIndex}
	events := key.EventAfter(k.Timeout, key.KeyEventFor(keymapIndex, TimeoutEvent))
	return key.PendingResult[PendingKeyState, struct{}](key.NewKeyPath(keymapIndex), pks), events
}

// idleBlocksHold reports whether a configured RequiredIdleTimeMs blocks
// hold resolution right now.
func idleBlocksHold(k Key, ctx Context) bool {
	if k.RequiredIdleTimeMs == 0 {
		return false
	}
	return ctx.CurrentTick-ctx.LastActivityTick < uint32(k.RequiredIdleTimeMs)
}

// UpdatePendingState advances a pending tap-hold key. It recognizes this
// key's own Release (and tells other keys' presses apart from it) by
// comparing ev's keymap index with pks.KeymapIndex.
func UpdatePendingState(pks *PendingKeyState, k Key, ctx Context, ev key.Event) (retarget *key.Ref, tapped bool, events key.Events) {
	if pks.Resolved {
		return nil, false, key.NoEvents()
	}

	switch ev.Kind {
	case key.EventInput:
		if ev.Input.Kind == input.Release && ev.Input.KeymapIndex == pks.KeymapIndex {
			pks.Resolved = true
			// Resolve as tap. The caller (composite, which holds Config and
			// so can actually resolve k.Tap to its real output) is
			// responsible for synthesizing the virtual press/release; this
			// package only decides that a tap happened.
			return nil, true, key.NoEvents()
		}
		if ev.Input.Kind == input.Press && ev.Input.KeymapIndex != pks.KeymapIndex {
			if k.InterruptResponse == HoldOnKeyPress && !idleBlocksHold(k, ctx) {
				pks.Resolved = true
				r := k.Hold
				return &r, false, key.NoEvents()
			}
		}
	case key.EventKey:
		te, ok := ev.KeyEvent.(Event)
		if !ok || ev.KeymapIndex != pks.KeymapIndex {
			return nil, false, key.NoEvents()
		}
		switch te.Kind {
		case evTimeout:
			if idleBlocksHold(k, ctx) {
				return nil, false, key.NoEvents()
			}
			pks.Resolved = true
			r := k.Hold
			return &r, false, key.NoEvents()
		case evInterruptingTap:
			if k.InterruptResponse == HoldOnKeyTap {
				pks.Resolved = true
				r := k.Hold
				return &r, false, key.NoEvents()
			}
		}
	}
	return nil, false, key.NoEvents()
}
