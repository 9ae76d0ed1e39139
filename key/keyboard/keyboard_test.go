package keyboard

import (
	"testing"

	"github.com/rgoulter/smart-keymap-go/key"
)

func TestNewPressedKeyResolvesImmediately(t *testing.T) {
	ks := NewPressedKey(Key{KeyCode: 0x04})

	out, ok := ks.KeyOutput()
	if !ok {
		t.Fatal("expected a keyboard key to always contribute output")
	}
	if out.Kind != key.Keyboard || out.Value != 0x04 {
		t.Errorf("expected code 0x04, got %+v", out)
	}
}

func TestNewPressedKeyComposesModifiers(t *testing.T) {
	ks := NewPressedKey(Key{KeyCode: 0x04, Modifiers: key.LeftShift})

	out, _ := ks.KeyOutput()
	if !out.HasModifiers(key.LeftShift) {
		t.Errorf("expected Left Shift folded in, got %+v", out)
	}
}

func TestModifiersOnlyKeyCarriesNoCode(t *testing.T) {
	ks := NewPressedKey(Key{Modifiers: key.LeftCtrl})

	out, _ := ks.KeyOutput()
	if out.KeyCode() != 0 {
		t.Errorf("expected no key code for a modifiers-only key, got %#x", out.KeyCode())
	}
	if !out.HasModifiers(key.LeftCtrl) {
		t.Error("expected Left Ctrl present")
	}
}

func TestUpdateStateIsANoOp(t *testing.T) {
	ks := NewPressedKey(Key{KeyCode: 0x04})

	evs := UpdateState(&ks, key.Event{})

	if len(evs.Slice()) != 0 {
		t.Error("expected no events from a stateless keyboard key")
	}
}
