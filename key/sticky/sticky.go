// Package sticky implements the sticky leaf key system: a one-shot
// modifier that applies to the next resolved key only, rather than a
// held-down modifier.
//
// This differs from layered's built-in Sticky ModifierKind, which arms a
// whole layer: this package wraps an arbitrary modifier Ref (typically a
// keyboard modifier key) and re-presses it once, alongside whichever key
// resolves next, then releases it.
package sticky

import (
	"github.com/rgoulter/smart-keymap-go/input"
	"github.com/rgoulter/smart-keymap-go/key"
)

// ActivationMode selects when a pressed sticky key arms its modifier.
type ActivationMode uint8

const (
	// OnStickyKeyRelease arms the modifier on the sticky key's own
	// release, not its press: pressing a sticky key and pressing another
	// key before releasing it must not yet apply the modifier. Currently
	// the only supported activation mode.
	OnStickyKeyRelease ActivationMode = iota
)

// ReleaseMode selects when an armed sticky modifier is released again.
type ReleaseMode uint8

const (
	// OnModifiedKeyRelease releases the modifier when the key it folded
	// into is itself released.
	OnModifiedKeyRelease ReleaseMode = iota
	// OnNextKeyPress releases the modifier as soon as any other key is
	// next pressed, regardless of whether the folded-into key has been
	// released yet.
	OnNextKeyPress
)

// Key is a sticky modifier definition: Inner is re-pressed for the
// duration of the next resolved key (per Release), once this key's own
// release arms it (per Activation).
type Key struct {
	Inner      key.Ref
	TimeoutMs  uint16
	Activation ActivationMode
	Release    ReleaseMode
}

// eventKind tags sticky's own context-level sub-events.
type eventKind uint8

const evTimeout eventKind = iota

// Event is sticky's own sub-event, routed via key.ContextEvent since it
// must still reach the shared Context after the sticky key's own
// pressed-key record has been torn down by its release.
type Event struct {
	Kind        eventKind
	ArmingIndex uint16
}

func timeoutEvent(armingIndex uint16) Event {
	return Event{Kind: evTimeout, ArmingIndex: armingIndex}
}

// phase tracks a pressed sticky key's own state up to its own release:
// Pending awaits either self-release (arming) or another key's output
// resolving first (flipping to Regular, per "Sticky -> on any other
// ResolvedKeyOutput: flip to Regular").
type phase uint8

const (
	phasePending phase = iota
	phaseRegular
)

// Context tracks the single outstanding armed sticky modifier (one sticky
// key "active" pending the next resolution; a second sticky key's release
// while one is already armed simply re-arms with the new key, per "last
// sticky wins").
type Context struct {
	armed       bool
	armedInner  key.Ref
	release     ReleaseMode
	armingIndex uint16 // the sticky key's own keymap index, for timeout matching
	foldedIndex uint16 // the "next key" the modifier folded into
	folded      bool
}

// ArmedInner reports the currently-armed Inner Ref and whether one is
// armed, for the composite dispatcher to fold into the next resolution's
// output.
func (c Context) ArmedInner() (key.Ref, bool) {
	return c.armedInner, c.armed
}

// Arm activates inner's modifiers; called once the sticky key owning them
// is released.
func (c *Context) Arm(armingIndex uint16, inner key.Ref, release ReleaseMode) {
	c.armed = true
	c.armingIndex = armingIndex
	c.armedInner = inner
	c.release = release
	c.folded = false
}

// Fold records keymapIndex as the key the armed modifier was just folded
// into: the "next resolved output" whose own release, or whose
// successor's press, clears the arm (per Release). A no-op once already
// folded, so later resolutions of the same folded-into key (it may still
// be held, contributing output every tick) keep re-applying the fold
// without moving the tracked index.
func (c *Context) Fold(keymapIndex uint16) {
	if !c.armed || c.folded {
		return
	}
	c.foldedIndex = keymapIndex
	c.folded = true
}

// ObserveKeyPress clears the arm under OnNextKeyPress release, once
// something has already been folded into. Called by the scheduler on
// every fresh physical press.
func (c *Context) ObserveKeyPress() {
	if c.armed && c.folded && c.release == OnNextKeyPress {
		c.armed = false
	}
}

// ObserveRelease clears the arm under OnModifiedKeyRelease release, once
// the folded-into key itself releases.
func (c *Context) ObserveRelease(keymapIndex uint16) {
	if c.armed && c.folded && c.release == OnModifiedKeyRelease && c.foldedIndex == keymapIndex {
		c.armed = false
	}
}

// KeyState is the state of a pressed sticky key, tracked until its own
// release (or until it flips to Regular and behaves as an ordinary held
// modifier for the rest of its own press).
type KeyState struct {
	KeymapIndex uint16
	Inner       key.Ref
	TimeoutMs   uint16
	Release     ReleaseMode
	Phase       phase
}

// IsRegular reports whether this sticky key has flipped from its initial
// one-shot Pending phase into behaving as an ordinary held modifier.
func (ks KeyState) IsRegular() bool {
	return ks.Phase == phaseRegular
}

// NewPressedKey enters the pending phase. Nothing arms yet: per
// OnStickyKeyRelease activation, arming only happens on this key's own
// release (see UpdateState), or not at all if another key resolves first.
func NewPressedKey(keymapIndex uint16, k Key, ctx *Context) (KeyState, key.Events) {
	return KeyState{
		KeymapIndex: keymapIndex,
		Inner:       k.Inner,
		TimeoutMs:   k.TimeoutMs,
		Release:     k.Release,
		Phase:       phasePending,
	}, key.NoEvents()
}

// UpdateState reacts to the sticky key's own release (arming the
// modifier, and scheduling a safety timeout) and to another key's output
// resolving first (flipping to Regular).
func UpdateState(ks *KeyState, ctx *Context, ev key.Event) key.Events {
	switch ev.Kind {
	case key.EventInput:
		if ks.Phase == phasePending && ev.Input.Kind == input.Release && ev.Input.KeymapIndex == ks.KeymapIndex {
			ctx.Arm(ks.KeymapIndex, ks.Inner, ks.Release)
			if ks.TimeoutMs > 0 {
				return key.EventAfter(ks.TimeoutMs, key.ContextEvent(timeoutEvent(ks.KeymapIndex)))
			}
		}
	case key.EventResolvedOutput:
		if ks.Phase == phasePending && ev.ResolvedIndex != ks.KeymapIndex {
			ks.Phase = phaseRegular
		}
	}
	return key.NoEvents()
}

// HandleEvent reacts to the post-arm safety timeout. armingIndex ties the
// timeout back to the specific arming it was scheduled for, so a stale
// timeout can't clear a newer arm (a later sticky key's release replaces
// armingIndex via Arm before this could fire for it).
func HandleEvent(ctx *Context, ev Event) {
	if ev.Kind == evTimeout && ctx.armed && ctx.armingIndex == ev.ArmingIndex {
		ctx.armed = false
	}
}

// KeyOutput: a Pending sticky key never itself contributes to a HID
// report — its Inner is folded into whichever other key resolves next
// instead (see composite.KeyOutput, which also resolves a Regular sticky
// key's own modifier output, since that needs Config access this package
// doesn't have).
func (ks KeyState) KeyOutput() (key.Output, bool) {
	return key.Output{}, false
}
