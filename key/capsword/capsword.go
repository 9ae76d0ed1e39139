// Package capsword implements the caps-word leaf key system: a toggle key
// that shifts subsequent letter keys (digits and the other continuing keys
// pass through unshifted) until a non-continuing key (or an idle timeout)
// ends the word.
package capsword

import "github.com/rgoulter/smart-keymap-go/key"

// Key is a caps-word toggle key definition.
type Key struct {
	// IdleTimeoutMs ends caps-word if no continuing key arrives within
	// this many ms of the last one. 0 disables the idle timeout.
	IdleTimeoutMs uint16
}

// Context holds the single shared caps-word toggle state: at most one
// caps-word instance is ever active at a time across the whole keymap.
type Context struct {
	Active           bool
	LastKeyTick      uint32
}

// eventKind tags caps-word's own sub-events.
type eventKind uint8

const evIdleTimeout eventKind = iota

// Event is caps-word's own sub-event: the idle timeout elapsing.
type Event struct {
	Kind eventKind
}

var IdleTimeoutEvent = Event{Kind: evIdleTimeout}

// NewPressedKey toggles caps-word on/off.
func NewPressedKey(k Key, ctx *Context, currentTick uint32) key.Events {
	ctx.Active = !ctx.Active
	ctx.LastKeyTick = currentTick
	if ctx.Active && k.IdleTimeoutMs > 0 {
		return key.EventAfter(k.IdleTimeoutMs, key.ContextEvent(IdleTimeoutEvent))
	}
	return key.NoEvents()
}

// continuingKeys are the HID usage codes caps-word keeps active for:
// letters, digits, underscore/hyphen, backspace, delete, and code 0
// (modifier-only output). Any other resolved key output ends the word. Encoded as a lookup table rather than range
// checks since the continuing set (digits plus a couple of punctuation
// codes) isn't a contiguous HID usage range.
var continuingKeys = buildContinuingKeys()

func buildContinuingKeys() [256]bool {
	var t [256]bool
	for c := uint8(0x04); c <= 0x1d; c++ { // A-Z
		t[c] = true
	}
	for c := uint8(0x1e); c <= 0x27; c++ { // 1-0
		t[c] = true
	}
	t[0x2a] = true // Backspace
	t[0x2d] = true // -
	t[0x4c] = true // Delete
	// Modifier-only outputs (shifts held alongside a letter, or a bare
	// modifier with no key code) normalize to code 0 via key.FromKeyCode;
	// holding a modifier must not end the word.
	t[0] = true
	return t
}

// ObserveResolvedOutput is called by the composite dispatcher with every
// key output resolved while caps-word is active, and decides whether it
// continues or ends the word. currentTick refreshes the idle clock; if
// the idle timer previously fired, the caller is expected to have already
// deactivated via HandleEvent before reaching here.
func ObserveResolvedOutput(ctx *Context, out key.Output, isOwnToggleKey bool, currentTick uint32) {
	if !ctx.Active || isOwnToggleKey {
		return
	}
	code := out.KeyCode()
	if continuingKeys[code] {
		ctx.LastKeyTick = currentTick
		return
	}
	ctx.Active = false
}

// HandleEvent reacts to the idle timeout, ending the word if it's still
// waiting on the same activation (a later re-activation schedules its own
// timeout, so a stale one arriving after caps-word was already toggled
// off-then-on again is simply a no-op via the generation check the
// composite dispatcher performs before calling in).
func HandleEvent(ctx *Context, ev Event) {
	if ev.Kind == evIdleTimeout {
		ctx.Active = false
	}
}

// Shift applies the caps-word shift modifier to a keyboard output if
// caps-word is currently active and out is a shiftable letter.
func Shift(ctx Context, out key.Output) key.Output {
	if !ctx.Active {
		return out
	}
	code := out.KeyCode()
	if code >= 0x04 && code <= 0x1d { // letters only; digits aren't shifted
		out.Modifiers = out.Modifiers.Union(key.LeftShift)
	}
	return out
}
