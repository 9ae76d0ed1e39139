package composite

import (
	"testing"

	"github.com/rgoulter/smart-keymap-go/input"
	"github.com/rgoulter/smart-keymap-go/key"
	"github.com/rgoulter/smart-keymap-go/key/callback"
	"github.com/rgoulter/smart-keymap-go/key/capsword"
	"github.com/rgoulter/smart-keymap-go/key/chorded"
	"github.com/rgoulter/smart-keymap-go/key/keyboard"
	"github.com/rgoulter/smart-keymap-go/key/layered"
	"github.com/rgoulter/smart-keymap-go/key/sticky"
	"github.com/rgoulter/smart-keymap-go/key/taphold"
)

func TestNewPressedKeyKeyboardResolvesImmediately(t *testing.T) {
	var cfg Config
	cfg.Keyboard[0] = keyboard.Key{KeyCode: 0x04}
	var ctx Context

	result, evs := NewPressedKey(1, key.Ref{Kind: key.RefKeyboard, Index: 0}, &cfg, &ctx)

	if result.Kind != key.ResultResolved || result.Resolved.Kind != KeyStateKeyboard {
		t.Fatalf("expected a resolved keyboard key, got %+v", result)
	}
	if result.Resolved.Keyboard.Output.Value != 0x04 {
		t.Errorf("expected key code 0x04, got %+v", result.Resolved.Keyboard.Output)
	}
	if evs.Len() != 0 {
		t.Error("expected no events for a plain keyboard key")
	}
}

func TestNewPressedKeyNoOpResolvesToNone(t *testing.T) {
	var cfg Config
	var ctx Context

	result, _ := NewPressedKey(1, key.NoOpRef, &cfg, &ctx)

	if result.Kind != key.ResultResolved || result.Resolved.Kind != KeyStateNone {
		t.Fatalf("expected KeyStateNone, got %+v", result)
	}
}

func TestNewPressedKeyLayeredModifierHoldActivatesLayer(t *testing.T) {
	var cfg Config
	cfg.Modifier[0] = layered.ModifierKey{Kind: layered.Hold, Layer: 1}
	var ctx Context

	result, _ := NewPressedKey(2, key.Ref{Kind: key.RefLayeredModifier, Index: 0}, &cfg, &ctx)

	if result.Kind != key.ResultResolved || result.Resolved.Kind != KeyStateModifier {
		t.Fatalf("expected a resolved modifier key, got %+v", result)
	}
	if !ctx.Layered.ActiveLayers[1] {
		t.Error("expected layer 1 to activate immediately on a Hold modifier press")
	}
}

func TestNewPressedKeyLayeredModifierStickyArmsStickyLayer(t *testing.T) {
	var cfg Config
	cfg.Modifier[0] = layered.ModifierKey{Kind: layered.Sticky, Layer: 2}
	var ctx Context

	NewPressedKey(2, key.Ref{Kind: key.RefLayeredModifier, Index: 0}, &cfg, &ctx)

	if !ctx.Layered.ActiveLayers[2] {
		t.Error("expected the sticky layer to activate immediately too")
	}
}

func TestNewPressedKeyLayeredRetargetsToActiveOverride(t *testing.T) {
	var cfg Config
	cfg.Keyboard[0] = keyboard.Key{KeyCode: 0x05} // base
	cfg.Keyboard[1] = keyboard.Key{KeyCode: 0x06} // override
	ovr := key.Ref{Kind: key.RefKeyboard, Index: 1}
	cfg.Layered[0] = layered.LayeredKey{
		Base:      key.Ref{Kind: key.RefKeyboard, Index: 0},
		Overrides: [layered.MaxLayers]*key.Ref{1: &ovr},
	}
	var ctx Context
	ctx.Layered.ActiveLayers[1] = true

	result, _ := NewPressedKey(3, key.Ref{Kind: key.RefLayered, Index: 0}, &cfg, &ctx)

	if result.Kind != key.ResultRetarget || result.Retarget != ovr {
		t.Fatalf("expected retarget to the active layer's override, got %+v", result)
	}
}

func TestNewPressedKeyLayeredFallsThroughToBase(t *testing.T) {
	var cfg Config
	base := key.Ref{Kind: key.RefKeyboard, Index: 0}
	cfg.Layered[0] = layered.LayeredKey{Base: base}
	var ctx Context

	result, _ := NewPressedKey(3, key.Ref{Kind: key.RefLayered, Index: 0}, &cfg, &ctx)

	if result.Kind != key.ResultRetarget || result.Retarget != base {
		t.Fatalf("expected retarget to Base with no active layers, got %+v", result)
	}
}

func TestNewPressedKeyTapHoldEntersPending(t *testing.T) {
	var cfg Config
	cfg.TapHold[0] = taphold.Key{
		Tap:     key.Ref{Kind: key.RefKeyboard, Index: 0},
		Hold:    key.Ref{Kind: key.RefKeyboard, Index: 1},
		Timeout: 200,
	}
	var ctx Context

	result, evs := NewPressedKey(4, key.Ref{Kind: key.RefTapHold, Index: 0}, &cfg, &ctx)

	if result.Kind != key.ResultPending || result.Pending.Kind != PendingTapHold {
		t.Fatalf("expected a PendingTapHold result, got %+v", result)
	}
	if result.Pending.KeymapIndex != 4 {
		t.Errorf("expected KeymapIndex 4, got %d", result.Pending.KeymapIndex)
	}
	if evs.Len() != 1 {
		t.Error("expected a scheduled timeout event")
	}
}

func TestNewPressedKeyChordedEntersPending(t *testing.T) {
	var cfg Config
	cfg.Chorded[0] = chorded.Key{Indices: [chorded.MaxChordSize]uint16{7, 8}, IndexCount: 2, TimeoutMs: 50}
	var ctx Context

	result, _ := NewPressedKey(7, key.Ref{Kind: key.RefChorded, Index: 0}, &cfg, &ctx)

	if result.Kind != key.ResultPending || result.Pending.Kind != PendingChorded {
		t.Fatalf("expected a PendingChorded result, got %+v", result)
	}
}

func TestNewPressedKeyStickyResolvesPendingUntilOwnRelease(t *testing.T) {
	var cfg Config
	cfg.Sticky[0] = sticky.Key{Inner: key.Ref{Kind: key.RefKeyboard, Index: 0}, TimeoutMs: 1000}
	var ctx Context

	result, _ := NewPressedKey(5, key.Ref{Kind: key.RefSticky, Index: 0}, &cfg, &ctx)

	if result.Kind != key.ResultResolved || result.Resolved.Kind != KeyStateSticky {
		t.Fatalf("expected a resolved sticky key, got %+v", result)
	}
	if _, armed := ctx.Sticky.ArmedInner(); armed {
		t.Error("expected the sticky modifier to stay unarmed until its own release")
	}

	UpdateState(&result.Resolved, &cfg, &ctx, key.InputEvent(input.NewRelease(5)))

	if _, armed := ctx.Sticky.ArmedInner(); !armed {
		t.Error("expected the sticky modifier to arm on its own release")
	}
}

func TestNewPressedKeyCapsWordTogglesAndResolvesToNone(t *testing.T) {
	var cfg Config
	cfg.CapsWord[0] = capsword.Key{IdleTimeoutMs: 2000}
	var ctx Context

	result, _ := NewPressedKey(6, key.Ref{Kind: key.RefCapsWord, Index: 0}, &cfg, &ctx)

	if result.Kind != key.ResultResolved || result.Resolved.Kind != KeyStateNone {
		t.Fatalf("expected KeyStateNone, got %+v", result)
	}
	if !ctx.CapsWord.Active {
		t.Error("expected caps-word to activate")
	}
}

func TestNewPressedKeyCallbackResolvesAndEmitsEvent(t *testing.T) {
	var cfg Config
	cfg.Callback[0] = callback.Key{ID: callback.Reset}
	var ctx Context

	result, evs := NewPressedKey(8, key.Ref{Kind: key.RefCallback, Index: 0}, &cfg, &ctx)

	if result.Kind != key.ResultResolved || result.Resolved.Kind != KeyStateCallback {
		t.Fatalf("expected a resolved callback key, got %+v", result)
	}
	if evs.Len() != 1 {
		t.Error("expected an immediate callback event")
	}
}

func TestUpdatePendingStateTapHoldResolvesTapThroughComposite(t *testing.T) {
	var cfg Config
	cfg.TapHold[0] = taphold.Key{
		Tap:     key.Ref{Kind: key.RefKeyboard, Index: 4},
		Hold:    key.Ref{Kind: key.RefKeyboard, Index: 5},
		Timeout: 200,
	}
	var ctx Context
	result, _ := NewPressedKey(4, key.Ref{Kind: key.RefTapHold, Index: 0}, &cfg, &ctx)
	pks := result.Pending

	outcome, _, evs := UpdatePendingState(&pks, &cfg, &ctx, key.InputEvent(input.NewRelease(4)))

	if outcome != ResolvedTap {
		t.Fatalf("expected ResolvedTap, got %v", outcome)
	}
	if evs.Len() != 2 {
		t.Errorf("expected a virtual press+release pair, got %d events", evs.Len())
	}
}

func TestUpdatePendingStateTapHoldRetargetsToHoldOnInterrupt(t *testing.T) {
	var cfg Config
	cfg.TapHold[0] = taphold.Key{
		Tap:               key.Ref{Kind: key.RefKeyboard, Index: 4},
		Hold:              key.Ref{Kind: key.RefKeyboard, Index: 5},
		Timeout:           200,
		InterruptResponse: taphold.HoldOnKeyPress,
	}
	var ctx Context
	result, _ := NewPressedKey(4, key.Ref{Kind: key.RefTapHold, Index: 0}, &cfg, &ctx)
	pks := result.Pending

	outcome, retarget, _ := UpdatePendingState(&pks, &cfg, &ctx, key.InputEvent(input.NewPress(9)))

	if outcome != Retargeted || retarget != cfg.TapHold[0].Hold {
		t.Fatalf("expected Retargeted to the hold ref, got outcome=%v retarget=%v", outcome, retarget)
	}
}

func TestUpdatePendingStateChordedResolvesChord(t *testing.T) {
	var cfg Config
	cfg.Chorded[0] = chorded.Key{
		Indices:    [chorded.MaxChordSize]uint16{7, 8},
		IndexCount: 2,
		TimeoutMs:  50,
		Resolved:   key.Ref{Kind: key.RefKeyboard, Index: 6},
	}
	var ctx Context
	result, _ := NewPressedKey(7, key.Ref{Kind: key.RefChorded, Index: 0}, &cfg, &ctx)
	pks := result.Pending

	outcome, retarget, _ := UpdatePendingState(&pks, &cfg, &ctx, key.InputEvent(input.NewPress(8)))

	if outcome != Retargeted || retarget != cfg.Chorded[0].Resolved {
		t.Fatalf("expected Retargeted to the chord's Resolved ref, got outcome=%v retarget=%v", outcome, retarget)
	}
}

func TestUpdatePendingStateChordedResolvesPassthrough(t *testing.T) {
	var cfg Config
	cfg.Chorded[0] = chorded.Key{
		Indices:     [chorded.MaxChordSize]uint16{7, 8},
		IndexCount:  2,
		TimeoutMs:   50,
		Passthrough: key.Ref{Kind: key.RefKeyboard, Index: 2},
	}
	var ctx Context
	result, _ := NewPressedKey(7, key.Ref{Kind: key.RefChorded, Index: 0}, &cfg, &ctx)
	pks := result.Pending

	outcome, retarget, _ := UpdatePendingState(&pks, &cfg, &ctx, key.InputEvent(input.NewRelease(7)))

	if outcome != PassthroughTap || retarget != cfg.Chorded[0].Passthrough {
		t.Fatalf("expected PassthroughTap to the chord's Passthrough ref, got outcome=%v retarget=%v", outcome, retarget)
	}
}

func TestKeyOutputFoldsInArmedStickyModifier(t *testing.T) {
	var cfg Config
	cfg.Keyboard[5] = keyboard.Key{KeyCode: 0, Modifiers: key.LeftShift} // modifier-only key
	cfg.Keyboard[0] = keyboard.Key{KeyCode: 0x04}
	cfg.Sticky[0] = sticky.Key{Inner: key.Ref{Kind: key.RefKeyboard, Index: 5}, TimeoutMs: 1000}
	var ctx Context
	result, _ := NewPressedKey(99, key.Ref{Kind: key.RefSticky, Index: 0}, &cfg, &ctx)
	UpdateState(&result.Resolved, &cfg, &ctx, key.InputEvent(input.NewRelease(99)))

	ks := KeyState{Kind: KeyStateKeyboard, KeymapIndex: 1, Keyboard: keyboard.NewPressedKey(cfg.Keyboard[0])}
	out, ok := KeyOutput(ks, &cfg, &ctx)

	if !ok {
		t.Fatal("expected a keyboard key to contribute output")
	}
	if !out.Modifiers.HasModifiers(key.LeftShift) {
		t.Error("expected the armed sticky modifier folded into the next resolved key")
	}
	if _, armed := ctx.Sticky.ArmedInner(); !armed {
		t.Error("expected the sticky arm to stay until the folded-into key releases")
	}
}

func TestKeyOutputAppliesCapsWordShiftToLetters(t *testing.T) {
	var cfg Config
	cfg.Keyboard[0] = keyboard.Key{KeyCode: 0x04} // 'a'
	var ctx Context
	ctx.CapsWord.Active = true

	ks := KeyState{Kind: KeyStateKeyboard, KeymapIndex: 1, Keyboard: keyboard.NewPressedKey(cfg.Keyboard[0])}
	out, ok := KeyOutput(ks, &cfg, &ctx)

	if !ok {
		t.Fatal("expected output")
	}
	if !out.Modifiers.HasModifiers(key.LeftShift) {
		t.Error("expected caps-word to shift a letter output")
	}
}

func TestKeyOutputCallbackNeverContributes(t *testing.T) {
	var cfg Config
	var ctx Context
	ks := KeyState{Kind: KeyStateCallback, KeymapIndex: 1, Callback: callback.KeyState{Key: callback.Key{ID: callback.Reset}}}

	_, ok := KeyOutput(ks, &cfg, &ctx)
	if ok {
		t.Error("expected a callback key to never contribute HID output")
	}
}

func TestUpdateStateKeyboardDispatchesToLeaf(t *testing.T) {
	var cfg Config
	var ctx Context
	ks := KeyState{Kind: KeyStateKeyboard, KeymapIndex: 1, Keyboard: keyboard.KeyState{Output: key.FromKeyCode(0x04)}}

	evs := UpdateState(&ks, &cfg, &ctx, key.InputEvent(input.NewRelease(1)))

	if evs.Len() != 0 {
		t.Error("expected keyboard keys to emit nothing further on release")
	}
}

func TestStickyModifierOnlyAcceptsPlainModifierKeyboardRef(t *testing.T) {
	var cfg Config
	cfg.Keyboard[0] = keyboard.Key{KeyCode: 0, Modifiers: key.LeftShift}
	cfg.Keyboard[1] = keyboard.Key{KeyCode: 0x04} // not a modifier-only key

	if m, ok := stickyModifier(&cfg, key.Ref{Kind: key.RefKeyboard, Index: 0}); !ok || m != key.LeftShift {
		t.Errorf("expected the modifier-only keyboard key to resolve, got ok=%v m=%v", ok, m)
	}
	if _, ok := stickyModifier(&cfg, key.Ref{Kind: key.RefKeyboard, Index: 1}); ok {
		t.Error("expected a key carrying a key code to not resolve as a sticky modifier")
	}
	if _, ok := stickyModifier(&cfg, key.Ref{Kind: key.RefConsumer, Index: 0}); ok {
		t.Error("expected a non-keyboard Ref to not resolve as a sticky modifier")
	}
}
