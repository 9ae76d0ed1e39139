// Package callback implements the leaf key system that fires a
// host-registered callback by id when pressed.
package callback

import "github.com/rgoulter/smart-keymap-go/key"

// Built-in callback ids, shared with the C ABI.
const (
	Reset              uint8 = 0
	ResetToBootloader  uint8 = 1
)

// CustomID packs a two-byte custom callback id (keymap_register_custom_callback)
// into a single uint8 pair, kept separate since custom ids are host-defined.
type CustomID struct {
	Group uint8
	Code  uint8
}

// Key is a callback key definition: fires ID on press. IsCustom selects
// between the built-in id space and the (Group, Code) custom id space.
type Key struct {
	ID       uint8
	IsCustom bool
	Custom   CustomID
}

// KeyState is the resolved state of a pressed callback key.
type KeyState struct {
	Key Key
}

// NewPressedKey resolves immediately and emits an immediate Keymap Callback
// event; the scheduler/cabi layer dispatches it to a registered host
// function.
func NewPressedKey(k Key) (KeyState, key.Events) {
	if k.IsCustom {
		// Custom callbacks are addressed by (group, code); the event carries
		// only the reserved high-bit id 0x80, which never collides with the
		// built-in id space (0, 1). The (group, code) pair is not encoded.
		return KeyState{Key: k}, key.EventNow(key.CallbackEvent(0x80))
	}
	return KeyState{Key: k}, key.EventNow(key.CallbackEvent(k.ID))
}

// UpdateState is a no-op: a callback key doesn't react to further events.
func UpdateState(ks *KeyState, ev key.Event) key.Events {
	return key.NoEvents()
}

// KeyOutput returns no output: callback keys never contribute to a HID
// report.
func (ks KeyState) KeyOutput() (key.Output, bool) {
	return key.Output{}, false
}
