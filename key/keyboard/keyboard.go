// Package keyboard implements the simplest leaf key system: a stateless
// HID keyboard key that resolves immediately to its packed KeyOutput.
package keyboard

import "github.com/rgoulter/smart-keymap-go/key"

// Key is a keyboard key definition: a usage code plus any modifiers it
// always carries. A modifiers-only key (e.g. a plain Left Shift key) has
// KeyCode == 0.
type Key struct {
	KeyCode   uint8
	Modifiers key.Modifiers
}

// KeyState is the resolved state of a pressed keyboard key. Stateless:
// holds only the Output it contributes.
type KeyState struct {
	Output key.Output
}

// NewPressedKey resolves immediately: keyboard keys are never pending.
func NewPressedKey(k Key) KeyState {
	return KeyState{Output: key.FromKeyCodeWithModifiers(k.KeyCode, k.Modifiers)}
}

// UpdateState is a no-op: keyboard keys don't react to further events.
func UpdateState(ks *KeyState, ev key.Event) key.Events {
	return key.NoEvents()
}

// KeyOutput returns the KeyOutput this resolved key contributes.
func (ks KeyState) KeyOutput() (key.Output, bool) {
	return ks.Output, true
}
