// Package mouse implements the mouse leaf key system: stateless keys that
// contribute a button mask and/or x/y/wheel deltas to the mouse report.
package mouse

import "github.com/rgoulter/smart-keymap-go/key"

// Key is a mouse key definition.
type Key struct {
	Report key.MouseReport
}

// KeyState is the resolved state of a pressed mouse key.
type KeyState struct {
	Output key.Output
}

// NewPressedKey resolves immediately.
func NewPressedKey(k Key) KeyState {
	return KeyState{Output: key.FromMouse(k.Report)}
}

// UpdateState is a no-op.
func UpdateState(ks *KeyState, ev key.Event) key.Events {
	return key.NoEvents()
}

// KeyOutput returns the KeyOutput this resolved key contributes.
func (ks KeyState) KeyOutput() (key.Output, bool) {
	return ks.Output, true
}
