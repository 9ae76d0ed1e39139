// Package consumer implements the consumer-control leaf key system.
// Stateless, like keyboard: resolves immediately to its Output.
package consumer

import "github.com/rgoulter/smart-keymap-go/key"

// Key is a consumer-control key definition (e.g. volume up/down, play/pause).
type Key struct {
	Code uint8
}

// KeyState is the resolved state of a pressed consumer key.
type KeyState struct {
	Output key.Output
}

// NewPressedKey resolves immediately.
func NewPressedKey(k Key) KeyState {
	return KeyState{Output: key.FromConsumerCode(k.Code)}
}

// UpdateState is a no-op.
func UpdateState(ks *KeyState, ev key.Event) key.Events {
	return key.NoEvents()
}

// KeyOutput returns the KeyOutput this resolved key contributes.
func (ks KeyState) KeyOutput() (key.Output, bool) {
	return ks.Output, true
}
