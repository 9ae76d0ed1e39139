package layered

import (
	"testing"

	"github.com/rgoulter/smart-keymap-go/input"
	"github.com/rgoulter/smart-keymap-go/key"
)

func TestResolvePicksHighestActiveOverride(t *testing.T) {
	base := key.Ref{Kind: key.RefKeyboard, Index: 0}
	ovr1 := key.Ref{Kind: key.RefKeyboard, Index: 1}
	ovr3 := key.Ref{Kind: key.RefKeyboard, Index: 3}
	lk := LayeredKey{Base: base, Overrides: [MaxLayers]*key.Ref{1: &ovr1, 3: &ovr3}}

	var ctx Context
	ctx.ActiveLayers[1] = true
	ctx.ActiveLayers[3] = true

	got := Resolve(lk, ctx)
	if got != ovr3 {
		t.Errorf("expected the highest-indexed active override (3), got %+v", got)
	}
}

func TestResolveFallsThroughToBaseWhenNoOverrideActive(t *testing.T) {
	base := key.Ref{Kind: key.RefKeyboard, Index: 0}
	ovr1 := key.Ref{Kind: key.RefKeyboard, Index: 1}
	lk := LayeredKey{Base: base, Overrides: [MaxLayers]*key.Ref{1: &ovr1}}

	got := Resolve(lk, Context{})
	if got != base {
		t.Errorf("expected Base with nothing active, got %+v", got)
	}
}

func TestResolveSkipsNilOverrideAtActiveLayer(t *testing.T) {
	base := key.Ref{Kind: key.RefKeyboard, Index: 0}
	ovr1 := key.Ref{Kind: key.RefKeyboard, Index: 1}
	lk := LayeredKey{Base: base, Overrides: [MaxLayers]*key.Ref{1: &ovr1}}

	var ctx Context
	ctx.ActiveLayers[1] = true
	ctx.ActiveLayers[2] = true // active but no override defined here

	got := Resolve(lk, ctx)
	if got != ovr1 {
		t.Errorf("expected to fall through the nil override at layer 2 down to layer 1, got %+v", got)
	}
}

func TestNewPressedKeyHoldActivatesLayer(t *testing.T) {
	_, events := NewPressedKey(ModifierKey{Kind: Hold, Layer: 2}, Context{})

	evs := events.Slice()
	if len(evs) != 1 {
		t.Fatalf("expected a single activate event, got %d", len(evs))
	}
	le, ok := evs[0].Event.KeyEvent.(Event)
	if !ok || !le.Activate || le.Layer != 2 {
		t.Errorf("expected Activate layer 2, got %+v", evs[0].Event.KeyEvent)
	}
}

func TestNewPressedKeyStickyActivatesLikeHold(t *testing.T) {
	_, events := NewPressedKey(ModifierKey{Kind: Sticky, Layer: 4}, Context{})

	evs := events.Slice()
	le, ok := evs[0].Event.KeyEvent.(Event)
	if !ok || !le.Activate || le.Layer != 4 {
		t.Errorf("expected Activate layer 4, got %+v", evs[0].Event.KeyEvent)
	}
}

func TestNewPressedKeyDefaultTogglesOnWhenInactive(t *testing.T) {
	var ctx Context
	ctx.DefaultLayer = 0

	_, events := NewPressedKey(ModifierKey{Kind: Default, Layer: 2}, ctx)

	evs := events.Slice()
	if len(evs) != 2 {
		t.Fatalf("expected deactivate-old then activate-new, got %d", len(evs))
	}
	off, _ := evs[0].Event.KeyEvent.(Event)
	on, _ := evs[1].Event.KeyEvent.(Event)
	if off.Activate || off.Layer != 0 {
		t.Errorf("expected the old default (layer 0) deactivated first, got %+v", off)
	}
	if !on.Activate || on.Layer != 2 {
		t.Errorf("expected the new default (layer 2) activated, got %+v", on)
	}
}

func TestNewPressedKeyDefaultTogglesOffWhenAlreadyActive(t *testing.T) {
	var ctx Context
	ctx.ActiveLayers[2] = true

	_, events := NewPressedKey(ModifierKey{Kind: Default, Layer: 2}, ctx)

	evs := events.Slice()
	if len(evs) != 1 {
		t.Fatalf("expected a single deactivate event, got %d", len(evs))
	}
	off, _ := evs[0].Event.KeyEvent.(Event)
	if off.Activate || off.Layer != 2 {
		t.Errorf("expected layer 2 deactivated, got %+v", off)
	}
}

func TestUpdateStateHoldDeactivatesOnOwnRelease(t *testing.T) {
	ks := KeyState{Key: ModifierKey{Kind: Hold, Layer: 3}}

	events := UpdateState(&ks, 5, key.InputEvent(input.NewRelease(5)))

	evs := events.Slice()
	if len(evs) != 1 {
		t.Fatalf("expected a deactivate event, got %d", len(evs))
	}
	off, _ := evs[0].Event.KeyEvent.(Event)
	if off.Activate || off.Layer != 3 {
		t.Errorf("expected layer 3 deactivated, got %+v", off)
	}
}

func TestUpdateStateStickyDoesNothingOnOwnRelease(t *testing.T) {
	ks := KeyState{Key: ModifierKey{Kind: Sticky, Layer: 3}}

	events := UpdateState(&ks, 5, key.InputEvent(input.NewRelease(5)))

	if len(events.Slice()) != 0 {
		t.Error("expected Sticky to deactivate only via ObserveResolvedOutput, not its own release")
	}
}

func TestUpdateStateIgnoresReleaseOfAnotherIndex(t *testing.T) {
	ks := KeyState{Key: ModifierKey{Kind: Hold, Layer: 3}}

	events := UpdateState(&ks, 5, key.InputEvent(input.NewRelease(9)))

	if len(events.Slice()) != 0 {
		t.Error("expected releases of other indices to be ignored")
	}
}

func TestArmStickyThenObserveOtherKeyDeactivates(t *testing.T) {
	var ctx Context
	ctx.ArmSticky(1, 3)

	events := ctx.ObserveResolvedOutput(2) // a different key resolves
	evs := events.Slice()
	if len(evs) != 1 {
		t.Fatalf("expected a deactivate event, got %d", len(evs))
	}
	off, _ := evs[0].Event.KeyEvent.(Event)
	if off.Activate || off.Layer != 3 {
		t.Errorf("expected layer 3 deactivated, got %+v", off)
	}
	if ctx.stickyArmed {
		t.Error("expected the arming consumed")
	}
}

func TestObserveResolvedOutputIgnoresTheArmingKeyItself(t *testing.T) {
	var ctx Context
	ctx.ArmSticky(1, 3)

	events := ctx.ObserveResolvedOutput(1) // the sticky key's own resolution

	if len(events.Slice()) != 0 {
		t.Error("expected the arming key's own resolution not to self-deactivate")
	}
}

func TestObserveResolvedOutputNoOpWhenNotArmed(t *testing.T) {
	var ctx Context

	events := ctx.ObserveResolvedOutput(1)

	if len(events.Slice()) != 0 {
		t.Error("expected no events when nothing is armed")
	}
}

func TestHandleEventIgnoresOutOfRangeLayer(t *testing.T) {
	var ctx Context

	ctx.HandleEvent(Event{Activate: true, Layer: MaxLayers})

	for i, active := range ctx.ActiveLayers {
		if active {
			t.Errorf("expected no layer activated by an out-of-range index, got layer %d active", i)
		}
	}
}

func TestKeyOutputNeverContributes(t *testing.T) {
	ks := KeyState{Key: ModifierKey{Kind: Hold, Layer: 0}}

	if _, ok := ks.KeyOutput(); ok {
		t.Error("expected a layer modifier key to never contribute output")
	}
}
