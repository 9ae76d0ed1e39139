package chorded

import (
	"testing"

	"github.com/rgoulter/smart-keymap-go/input"
	"github.com/rgoulter/smart-keymap-go/key"
)

func demoKey() Key {
	return Key{
		Indices:     [MaxChordSize]uint16{7, 8},
		IndexCount:  2,
		TimeoutMs:   50,
		Resolved:    key.Ref{Kind: key.RefKeyboard, Index: 6},
		Passthrough: key.Ref{Kind: key.RefKeyboard, Index: 2},
	}
}

func TestNewPressedKeyMarksPrimaryIndexPressed(t *testing.T) {
	k := demoKey()
	result, events := NewPressedKey(7, k)

	if result.Kind != key.ResultPending {
		t.Fatalf("expected a pending result, got %v", result.Kind)
	}
	if result.Pending.PrimaryIndex != 7 {
		t.Errorf("expected PrimaryIndex 7, got %d", result.Pending.PrimaryIndex)
	}
	if result.Pending.PressedCount != 1 {
		t.Errorf("expected PressedCount 1, got %d", result.Pending.PressedCount)
	}
	if !result.Pending.Pressed[0] {
		t.Error("expected index 7's slot marked pressed")
	}

	evs := events.Slice()
	if len(evs) != 1 || evs[0].Schedule != key.After || evs[0].Delay != k.TimeoutMs {
		t.Errorf("expected a single timeout scheduled after %dms, got %+v", k.TimeoutMs, evs)
	}
}

func TestNewPressedKeyFromSecondIndex(t *testing.T) {
	k := demoKey()
	result, _ := NewPressedKey(8, k)

	if result.Pending.PrimaryIndex != 8 {
		t.Errorf("expected PrimaryIndex 8, got %d", result.Pending.PrimaryIndex)
	}
	if !result.Pending.Pressed[1] || result.Pending.Pressed[0] {
		t.Errorf("expected only index 8's slot marked, got %+v", result.Pending.Pressed)
	}
}

func TestUpdatePendingStateResolvesChordWhenAllIndicesPressed(t *testing.T) {
	k := demoKey()
	pks := PendingKeyState{PrimaryIndex: 7}
	pks.Pressed[0] = true
	pks.PressedCount = 1

	res := UpdatePendingState(&pks, k, Context{}, key.InputEvent(input.NewPress(8)))

	if res != ResolvedChord {
		t.Fatalf("expected ResolvedChord, got %v", res)
	}
	if pks.PressedCount != 2 || !pks.Pressed[1] {
		t.Errorf("expected both indices marked pressed, got %+v", pks)
	}
}

func TestUpdatePendingStateNonParticipatingPressResolvesPassthrough(t *testing.T) {
	k := demoKey()
	pks := PendingKeyState{PrimaryIndex: 7}
	pks.Pressed[0] = true
	pks.PressedCount = 1

	res := UpdatePendingState(&pks, k, Context{}, key.InputEvent(input.NewPress(3)))

	if res != ResolvedPassthrough {
		t.Fatalf("expected a non-participating press to resolve as passthrough, got %v", res)
	}
	if pks.PressedCount != 1 {
		t.Errorf("expected PressedCount unchanged, got %d", pks.PressedCount)
	}
}

func TestUpdatePendingStateChordBlockedByRequiredIdleTime(t *testing.T) {
	k := demoKey()
	k.RequiredIdleTimeMs = 50
	pks := PendingKeyState{PrimaryIndex: 7}
	pks.Pressed[0] = true
	pks.PressedCount = 1
	ctx := Context{LastActivityTick: 100, CurrentTick: 120}

	res := UpdatePendingState(&pks, k, ctx, key.InputEvent(input.NewPress(8)))

	if res != StillPending {
		t.Fatalf("expected idle gate to block chord resolution, got %v", res)
	}
}

func TestUpdatePendingStatePrimaryReleaseResolvesPassthrough(t *testing.T) {
	k := demoKey()
	pks := PendingKeyState{PrimaryIndex: 7}
	pks.Pressed[0] = true
	pks.PressedCount = 1

	res := UpdatePendingState(&pks, k, Context{}, key.InputEvent(input.NewRelease(7)))

	if res != ResolvedPassthrough {
		t.Fatalf("expected a primary release to resolve as passthrough, got %v", res)
	}
}

func TestUpdatePendingStateNonPrimaryReleaseStaysPending(t *testing.T) {
	k := demoKey()
	pks := PendingKeyState{PrimaryIndex: 7}
	pks.Pressed[0] = true
	pks.PressedCount = 1

	res := UpdatePendingState(&pks, k, Context{}, key.InputEvent(input.NewRelease(8)))

	if res != StillPending {
		t.Fatalf("expected a non-primary release (index never pressed) to stay pending, got %v", res)
	}
}

func TestUpdatePendingStateTimeoutResolvesPassthrough(t *testing.T) {
	k := demoKey()
	pks := PendingKeyState{PrimaryIndex: 7}
	pks.Pressed[0] = true
	pks.PressedCount = 1

	res := UpdatePendingState(&pks, k, Context{}, key.KeyEventFor(7, TimeoutEvent))

	if res != ResolvedPassthrough {
		t.Fatalf("expected timeout to resolve as passthrough, got %v", res)
	}
}

func TestUpdatePendingStateTimeoutIgnoresOtherPrimary(t *testing.T) {
	k := demoKey()
	pks := PendingKeyState{PrimaryIndex: 7}
	pks.Pressed[0] = true
	pks.PressedCount = 1

	res := UpdatePendingState(&pks, k, Context{}, key.KeyEventFor(8, TimeoutEvent))

	if res != StillPending {
		t.Fatalf("expected a timeout addressed to another primary index to be ignored, got %v", res)
	}
}

func TestKeyHas(t *testing.T) {
	k := demoKey()
	if !k.has(7) || !k.has(8) {
		t.Error("expected both chord indices reported as participants")
	}
	if k.has(9) {
		t.Error("expected a non-participant index to report false")
	}
}
