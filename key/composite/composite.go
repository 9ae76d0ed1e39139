// Package composite aggregates every leaf key system behind the single
// dispatch surface the keymap scheduler drives: one Config holding each
// leaf's key arrays, one Context holding each leaf's shared mutable
// state, and one PendingKeyState/KeyState tagged union spanning every
// leaf's own pending/resolved state types.
//
// This is the Go replacement for the original design's nested generic
// composite key trait: instead of threading a type parameter for "the
// concrete composite key system" through every leaf, every leaf stays a
// plain, independently testable package, and this package is the one
// place that knows about all of them at once.
package composite

import (
	"github.com/rgoulter/smart-keymap-go/input"
	"github.com/rgoulter/smart-keymap-go/key"
	"github.com/rgoulter/smart-keymap-go/key/automation"
	"github.com/rgoulter/smart-keymap-go/key/callback"
	"github.com/rgoulter/smart-keymap-go/key/capsword"
	"github.com/rgoulter/smart-keymap-go/key/chorded"
	"github.com/rgoulter/smart-keymap-go/key/consumer"
	"github.com/rgoulter/smart-keymap-go/key/keyboard"
	"github.com/rgoulter/smart-keymap-go/key/layered"
	"github.com/rgoulter/smart-keymap-go/key/mouse"
	"github.com/rgoulter/smart-keymap-go/key/sticky"
	"github.com/rgoulter/smart-keymap-go/key/tapdance"
	"github.com/rgoulter/smart-keymap-go/key/taphold"
)

// MaxKeysPerSystem bounds each leaf's key array, mirroring the keymap's
// fixed-capacity layout.
const MaxKeysPerSystem = 64

// Config is the full keymap definition: every leaf's key array, indexed
// by key.Ref.Index.
type Config struct {
	Keyboard  [MaxKeysPerSystem]keyboard.Key
	Consumer  [MaxKeysPerSystem]consumer.Key
	Mouse     [MaxKeysPerSystem]mouse.Key
	Modifier  [MaxKeysPerSystem]layered.ModifierKey
	Layered   [MaxKeysPerSystem]layered.LayeredKey
	TapHold   [MaxKeysPerSystem]taphold.Key
	Chorded   [MaxKeysPerSystem]chorded.Key
	Sticky    [MaxKeysPerSystem]sticky.Key
	TapDance  [MaxKeysPerSystem]tapdance.Key
	CapsWord  [MaxKeysPerSystem]capsword.Key
	Automation [MaxKeysPerSystem]automation.Key
	Callback  [MaxKeysPerSystem]callback.Key
}

// Context aggregates every leaf's shared mutable state plus the engine
// clock those leaves key their idle/timeout behaviour off of.
type Context struct {
	Layered  layered.Context
	Sticky   sticky.Context
	CapsWord capsword.Context

	CurrentTick      uint32
	LastActivityTick uint32
}

func (c Context) tapHoldCtx() taphold.Context {
	return taphold.Context{LastActivityTick: c.LastActivityTick, CurrentTick: c.CurrentTick}
}

func (c Context) chordedCtx() chorded.Context {
	return chorded.Context{LastActivityTick: c.LastActivityTick, CurrentTick: c.CurrentTick}
}

// RecordActivity is called by the scheduler on every fresh physical
// press, advancing the idle clock that tap-hold's and chorded's
// RequiredIdleTime gates read.
func (c *Context) RecordActivity() {
	c.LastActivityTick = c.CurrentTick
}

// PendingKeyStateKind tags which leaf's pending state is held.
type PendingKeyStateKind uint8

const (
	PendingNone PendingKeyStateKind = iota
	PendingTapHold
	PendingChorded
	PendingTapDance
	PendingAutomation
)

// PendingKeyState is the tagged union of every leaf's pending state.
type PendingKeyState struct {
	Kind        PendingKeyStateKind
	Ref         key.Ref
	KeymapIndex uint16

	TapHold    taphold.PendingKeyState
	Chorded    chorded.PendingKeyState
	TapDance   tapdance.PendingKeyState
	Automation automation.PendingKeyState
}

// KeyStateKind tags which leaf's resolved state is held.
type KeyStateKind uint8

const (
	KeyStateKeyboard KeyStateKind = iota
	KeyStateConsumer
	KeyStateMouse
	KeyStateModifier
	KeyStateCallback
	KeyStateSticky
	KeyStateNone // automation's "pending forever, never a static resolved output" case
)

// KeyState is the tagged union of every leaf's resolved state.
type KeyState struct {
	Kind        KeyStateKind
	KeymapIndex uint16

	Keyboard keyboard.KeyState
	Consumer consumer.KeyState
	Mouse    mouse.KeyState
	Modifier layered.KeyState
	Callback callback.KeyState
	Sticky   sticky.KeyState
}

// Result is the outcome of resolving one key press: either a pending
// state entered, a resolved KeyState, or a Ref the scheduler should
// retarget to and resolve again (bounded by key.MaxKeyPathLen).
type Result = key.PressedKeyResult[PendingKeyState, KeyState]

// NewPressedKey resolves a freshly pressed Ref against config, mutating
// ctx for any leaf whose press immediately affects shared state (layer
// activation, sticky arming, caps-word toggling).
func NewPressedKey(keymapIndex uint16, ref key.Ref, cfg *Config, ctx *Context) (Result, key.Events) {
	switch ref.Kind {
	case key.RefNoOp:
		return key.ResolvedResult[PendingKeyState, KeyState](KeyState{Kind: KeyStateNone, KeymapIndex: keymapIndex}), key.NoEvents()

	case key.RefKeyboard:
		ks := keyboard.NewPressedKey(cfg.Keyboard[ref.Index])
		return key.ResolvedResult[PendingKeyState, KeyState](KeyState{Kind: KeyStateKeyboard, KeymapIndex: keymapIndex, Keyboard: ks}), key.NoEvents()

	case key.RefConsumer:
		ks := consumer.NewPressedKey(cfg.Consumer[ref.Index])
		return key.ResolvedResult[PendingKeyState, KeyState](KeyState{Kind: KeyStateConsumer, KeymapIndex: keymapIndex, Consumer: ks}), key.NoEvents()

	case key.RefMouse:
		ks := mouse.NewPressedKey(cfg.Mouse[ref.Index])
		return key.ResolvedResult[PendingKeyState, KeyState](KeyState{Kind: KeyStateMouse, KeymapIndex: keymapIndex, Mouse: ks}), key.NoEvents()

	case key.RefCallback:
		ks, evs := callback.NewPressedKey(cfg.Callback[ref.Index])
		return keyStateResolved(keymapIndex, KeyStateCallback, func(s *KeyState) { s.Callback = ks }), evs

	case key.RefLayeredModifier:
		mod := cfg.Modifier[ref.Index]
		ks, evs := layered.NewPressedKey(mod, ctx.Layered)
		applyLayeredEvents(ctx, evs)
		if mod.Kind == layered.Sticky {
			ctx.Layered.ArmSticky(keymapIndex, mod.Layer)
		}
		return keyStateResolved(keymapIndex, KeyStateModifier, func(s *KeyState) { s.Modifier = ks }), evs

	case key.RefLayered:
		target := layered.Resolve(cfg.Layered[ref.Index], ctx.Layered)
		return key.RetargetResult[PendingKeyState, KeyState](target), key.NoEvents()

	case key.RefTapHold:
		r, evs := taphold.NewPressedKey(keymapIndex, cfg.TapHold[ref.Index])
		pks := PendingKeyState{Kind: PendingTapHold, Ref: ref, KeymapIndex: keymapIndex, TapHold: r.Pending}
		return key.PendingResult[PendingKeyState, KeyState](r.Path, pks), evs

	case key.RefChorded:
		r, evs := chorded.NewPressedKey(keymapIndex, cfg.Chorded[ref.Index])
		pks := PendingKeyState{Kind: PendingChorded, Ref: ref, KeymapIndex: keymapIndex, Chorded: r.Pending}
		return key.PendingResult[PendingKeyState, KeyState](r.Path, pks), evs

	case key.RefSticky:
		ks, evs := sticky.NewPressedKey(keymapIndex, cfg.Sticky[ref.Index], &ctx.Sticky)
		return keyStateResolved(keymapIndex, KeyStateSticky, func(s *KeyState) { s.Sticky = ks }), evs

	case key.RefTapDance:
		r, evs := tapdance.NewPressedKey(keymapIndex, cfg.TapDance[ref.Index])
		pks := PendingKeyState{Kind: PendingTapDance, Ref: ref, KeymapIndex: keymapIndex, TapDance: r.Pending}
		return key.PendingResult[PendingKeyState, KeyState](r.Path, pks), evs

	case key.RefCapsWord:
		evs := capsword.NewPressedKey(cfg.CapsWord[ref.Index], &ctx.CapsWord, ctx.CurrentTick)
		return key.ResolvedResult[PendingKeyState, KeyState](KeyState{Kind: KeyStateNone, KeymapIndex: keymapIndex}), evs

	case key.RefAutomation:
		r, evs := automation.NewPressedKey(keymapIndex, cfg.Automation[ref.Index])
		pks := PendingKeyState{Kind: PendingAutomation, Ref: ref, KeymapIndex: keymapIndex, Automation: r.Pending}
		return key.PendingResult[PendingKeyState, KeyState](r.Path, pks), evs
	}
	return key.ResolvedResult[PendingKeyState, KeyState](KeyState{Kind: KeyStateNone, KeymapIndex: keymapIndex}), key.NoEvents()
}

func keyStateResolved(keymapIndex uint16, kind KeyStateKind, fill func(*KeyState)) Result {
	s := KeyState{Kind: kind, KeymapIndex: keymapIndex}
	fill(&s)
	return key.ResolvedResult[PendingKeyState, KeyState](s)
}

func applyLayeredEvents(ctx *Context, evs key.Events) {
	for _, se := range evs.Slice() {
		if se.Event.Kind == key.EventContext {
			if le, ok := se.Event.KeyEvent.(layered.Event); ok && se.Schedule == key.Immediate {
				ctx.Layered.HandleEvent(le)
			}
		}
	}
}

// UpdatePendingStateOutcome tags what happened to a pending key on one
// event.
type UpdatePendingStateOutcome uint8

const (
	StillPending UpdatePendingStateOutcome = iota
	Retargeted
	ResolvedTap
	PassthroughTap
)

// UpdatePendingState advances pks on ev, dispatching to the owning leaf.
// For chorded keys resolved as a passthrough tap, the caller (the
// scheduler) is responsible for synthesizing the virtual press/release of
// whatever KeyOutput the chord's Passthrough Ref resolves to — this
// function only reports that decision, since composite has no channel
// back into the scheduler's own event queue beyond the key.Events it
// returns.
func UpdatePendingState(pks *PendingKeyState, cfg *Config, ctx *Context, ev key.Event) (outcome UpdatePendingStateOutcome, retarget key.Ref, events key.Events) {
	switch pks.Kind {
	case PendingTapHold:
		r, tapped, evs := taphold.UpdatePendingState(&pks.TapHold, cfg.TapHold[pks.Ref.Index], ctx.tapHoldCtx(), ev)
		if tapped {
			tapEvents := resolveVirtualTapEvents(pks.KeymapIndex, cfg.TapHold[pks.Ref.Index].Tap, cfg, ctx)
			evs.Extend(tapEvents)
			return ResolvedTap, key.Ref{}, evs
		}
		if r != nil {
			return Retargeted, *r, evs
		}
		return StillPending, key.Ref{}, evs

	case PendingChorded:
		res := chorded.UpdatePendingState(&pks.Chorded, cfg.Chorded[pks.Ref.Index], ctx.chordedCtx(), ev)
		switch res {
		case chorded.ResolvedChord:
			return Retargeted, cfg.Chorded[pks.Ref.Index].Resolved, key.NoEvents()
		case chorded.ResolvedPassthrough:
			return PassthroughTap, cfg.Chorded[pks.Ref.Index].Passthrough, key.NoEvents()
		}
		return StillPending, key.Ref{}, key.NoEvents()

	case PendingTapDance:
		r, evs := tapdance.UpdatePendingState(&pks.TapDance, cfg.TapDance[pks.Ref.Index], ev)
		if r != nil {
			return Retargeted, *r, evs
		}
		return StillPending, key.Ref{}, evs

	case PendingAutomation:
		done, evs := automation.UpdatePendingState(&pks.Automation, cfg.Automation[pks.Ref.Index], ev)
		if done {
			return ResolvedTap, key.Ref{}, evs
		}
		return StillPending, key.Ref{}, evs
	}
	return StillPending, key.Ref{}, key.NoEvents()
}

// UpdateState advances a resolved KeyState on ev, dispatching to the
// owning leaf. It returns any events the leaf's own-release handling
// emits (layer deactivation, sticky disarming via timeout, etc).
func UpdateState(ks *KeyState, cfg *Config, ctx *Context, ev key.Event) key.Events {
	switch ks.Kind {
	case KeyStateKeyboard:
		return keyboard.UpdateState(&ks.Keyboard, ev)
	case KeyStateConsumer:
		return consumer.UpdateState(&ks.Consumer, ev)
	case KeyStateMouse:
		return mouse.UpdateState(&ks.Mouse, ev)
	case KeyStateModifier:
		evs := layered.UpdateState(&ks.Modifier, ks.KeymapIndex, ev)
		applyLayeredEvents(ctx, evs)
		return evs
	case KeyStateCallback:
		return callback.UpdateState(&ks.Callback, ev)
	case KeyStateSticky:
		return sticky.UpdateState(&ks.Sticky, &ctx.Sticky, ev)
	}
	return key.NoEvents()
}

// KeyOutput returns the HID-report-level Output a resolved KeyState
// contributes, folding in an armed sticky modifier and/or the caps-word
// shift, and recording the key the sticky arm folded into; the arm itself
// clears later, per its ReleaseMode.
func KeyOutput(ks KeyState, cfg *Config, ctx *Context) (key.Output, bool) {
	var out key.Output
	var ok bool
	switch ks.Kind {
	case KeyStateKeyboard:
		out, ok = ks.Keyboard.KeyOutput()
	case KeyStateConsumer:
		out, ok = ks.Consumer.KeyOutput()
	case KeyStateMouse:
		out, ok = ks.Mouse.KeyOutput()
	case KeyStateModifier:
		out, ok = ks.Modifier.KeyOutput()
	case KeyStateCallback:
		out, ok = ks.Callback.KeyOutput()
	case KeyStateSticky:
		if ks.Sticky.IsRegular() {
			if m, isMod := stickyModifier(cfg, ks.Sticky.Inner); isMod {
				return key.FromModifiers(m), true
			}
		}
		return key.Output{}, false
	default:
		return key.Output{}, false
	}
	if !ok {
		return out, ok
	}
	if out.Kind == key.Keyboard {
		out = capsword.Shift(ctx.CapsWord, out)
		capsword.ObserveResolvedOutput(&ctx.CapsWord, out, false, ctx.CurrentTick)
	}
	if inner, armed := ctx.Sticky.ArmedInner(); armed {
		if m, isMod := stickyModifier(cfg, inner); isMod {
			out.Modifiers = out.Modifiers.Union(m)
		}
		ctx.Sticky.Fold(ks.KeymapIndex)
	}
	layerEvs := ctx.Layered.ObserveResolvedOutput(ks.KeymapIndex)
	for _, se := range layerEvs.Slice() {
		if le, ok := se.Event.KeyEvent.(layered.Event); ok {
			ctx.Layered.HandleEvent(le)
		}
	}
	return out, true
}

// resolveVirtualTapEvents resolves ref (a tap-hold key's Tap target) the
// same way the scheduler resolves any freshly pressed key, to emit a
// virtual press/release of its actual resolved output code rather than
// reinterpreting the Ref's array index as a key code. Mirrors the
// scheduler's own resolvePassthroughTap: a throwaway NewPressedKey+
// KeyOutput round trip that never enters the pending-key bookkeeping.
func resolveVirtualTapEvents(keymapIndex uint16, ref key.Ref, cfg *Config, ctx *Context) key.Events {
	var evs key.Events
	for hops := 0; hops < key.MaxKeyPathLen; hops++ {
		result, hopEvents := NewPressedKey(keymapIndex, ref, cfg, ctx)
		evs.Extend(hopEvents)
		switch result.Kind {
		case key.ResultRetarget:
			ref = result.Retarget
			continue
		case key.ResultResolved:
			out, ok := KeyOutput(result.Resolved, cfg, ctx)
			if ok && out.Kind == key.Keyboard {
				evs.Add(key.ScheduledEvent{Event: key.InputEvent(input.NewVirtualPress(out.Value))})
				evs.Add(key.ScheduledEvent{Schedule: key.After, Delay: 1, Event: key.InputEvent(input.NewVirtualRelease(out.Value))})
			}
			return evs
		default:
			return evs
		}
	}
	return evs
}

// stickyModifier resolves a sticky Key's Inner Ref to the Modifiers bit
// it contributes. Only a Ref targeting a keyboard-leaf modifier key (a
// keyboard.Key with KeyCode == 0, carrying only Modifiers) can be wrapped
// by sticky in this engine; wrapping any other leaf kind is a keymap
// configuration error and contributes nothing.
func stickyModifier(cfg *Config, inner key.Ref) (key.Modifiers, bool) {
	if inner.Kind != key.RefKeyboard {
		return 0, false
	}
	k := cfg.Keyboard[inner.Index]
	if k.KeyCode != 0 {
		return 0, false
	}
	return k.Modifiers, true
}
