// Package layered implements the layered leaf key system: modifier keys
// that activate layers, and keys whose resolution depends on which layers
// are active.
package layered

import (
	"github.com/rgoulter/smart-keymap-go/input"
	"github.com/rgoulter/smart-keymap-go/key"
)

// MaxLayers bounds the number of layers a keymap may define.
const MaxLayers = 8

// ModifierKind tags a ModifierKey's activation behaviour.
type ModifierKind uint8

const (
	// Hold activates the layer until this key is released.
	Hold ModifierKind = iota
	// Default toggles the default layer on each press.
	Default
	// Sticky activates the layer until the next non-layered key press.
	Sticky
)

// ModifierKey affects which layers are active.
type ModifierKey struct {
	Kind  ModifierKind
	Layer uint8
}

// LayeredKey resolves to one of its overrides, scanning from the
// highest-indexed active layer down to the base.
type LayeredKey struct {
	Base      key.Ref
	Overrides [MaxLayers]*key.Ref // nil entries fall through
}

// Context holds the active-layer set, the current default layer, and the
// single outstanding Sticky-layer arming (a Sticky layer stays active
// until the next key other than itself resolves).
type Context struct {
	ActiveLayers [MaxLayers]bool
	DefaultLayer uint8

	stickyArmed bool
	stickyIndex uint16
	stickyLayer uint8
}

// Event is the layered leaf's own sub-event: activating/deactivating a
// layer by index.
type Event struct {
	Activate bool
	Layer    uint8
}

// HandleEvent applies a layer activation/deactivation to the context.
func (c *Context) HandleEvent(ev Event) {
	if int(ev.Layer) >= MaxLayers {
		return
	}
	c.ActiveLayers[ev.Layer] = ev.Activate
}

// ArmSticky records that keymapIndex is a Sticky modifier key which has
// just activated layer; the layer deactivates the next time some other
// key resolves (see ObserveResolvedOutput).
func (c *Context) ArmSticky(keymapIndex uint16, layer uint8) {
	c.stickyArmed = true
	c.stickyIndex = keymapIndex
	c.stickyLayer = layer
}

// ObserveResolvedOutput is called by the composite dispatcher whenever
// some keymap index resolves an output; it deactivates an armed Sticky
// layer the first time a *different* key resolves.
func (c *Context) ObserveResolvedOutput(sourceKeymapIndex uint16) key.Events {
	if !c.stickyArmed || sourceKeymapIndex == c.stickyIndex {
		return key.NoEvents()
	}
	layer := c.stickyLayer
	c.stickyArmed = false
	return key.EventNow(key.ContextEvent(Event{Activate: false, Layer: layer}))
}

// KeyState is the resolved state of a pressed ModifierKey: which layer it
// affects, and how to undo that on release.
type KeyState struct {
	Key ModifierKey
}

// NewPressedKey resolves a ModifierKey immediately, returning the context
// update (and, for Default, the toggle) to apply. For Sticky keys, the
// composite dispatcher also calls Context.ArmSticky.
func NewPressedKey(k ModifierKey, ctx Context) (KeyState, key.Events) {
	switch k.Kind {
	case Hold, Sticky:
		return KeyState{Key: k}, key.EventNow(key.ContextEvent(Event{Activate: true, Layer: k.Layer}))
	case Default:
		// Toggling: if already the active default, deactivate; else
		// switch the default layer.
		var events key.Events
		if ctx.ActiveLayers[k.Layer] {
			events.Add(key.ScheduledEvent{Event: key.ContextEvent(Event{Activate: false, Layer: k.Layer})})
		} else {
			events.Add(key.ScheduledEvent{Event: key.ContextEvent(Event{Activate: false, Layer: ctx.DefaultLayer})})
			events.Add(key.ScheduledEvent{Event: key.ContextEvent(Event{Activate: true, Layer: k.Layer})})
		}
		return KeyState{Key: k}, events
	}
	return KeyState{Key: k}, key.NoEvents()
}

// UpdateState reacts to this key's own Release: a Hold modifier
// deactivates its layer immediately. Sticky modifiers deactivate via
// Context.ObserveResolvedOutput instead, and Default keys already toggled
// on press, so neither does anything further on release.
func UpdateState(ks *KeyState, keymapIndex uint16, ev key.Event) key.Events {
	if ev.Kind != key.EventInput {
		return key.NoEvents()
	}
	rel, ok := asRelease(ev.Input)
	if !ok || rel != keymapIndex {
		return key.NoEvents()
	}
	if ks.Key.Kind == Hold {
		return key.EventNow(key.ContextEvent(Event{Activate: false, Layer: ks.Key.Layer}))
	}
	return key.NoEvents()
}

func asRelease(ev input.Event) (uint16, bool) {
	if ev.Kind == input.Release {
		return ev.KeymapIndex, true
	}
	return 0, false
}

// KeyOutput: a layer modifier key never itself contributes to a HID
// report.
func (ks KeyState) KeyOutput() (key.Output, bool) {
	return key.Output{}, false
}

// Resolve picks the Ref a LayeredKey retargets to: the highest-indexed
// active layer with a non-nil override, or Base.
func Resolve(lk LayeredKey, ctx Context) key.Ref {
	for i := MaxLayers - 1; i >= 0; i-- {
		if ctx.ActiveLayers[i] && lk.Overrides[i] != nil {
			return *lk.Overrides[i]
		}
	}
	return lk.Base
}
