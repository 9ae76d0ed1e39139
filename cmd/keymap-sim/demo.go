package main

import (
	"github.com/rgoulter/smart-keymap-go/key"
	"github.com/rgoulter/smart-keymap-go/key/callback"
	"github.com/rgoulter/smart-keymap-go/key/capsword"
	"github.com/rgoulter/smart-keymap-go/key/chorded"
	"github.com/rgoulter/smart-keymap-go/key/composite"
	"github.com/rgoulter/smart-keymap-go/key/keyboard"
	"github.com/rgoulter/smart-keymap-go/key/layered"
	"github.com/rgoulter/smart-keymap-go/key/sticky"
	"github.com/rgoulter/smart-keymap-go/key/taphold"
)

// demoLayout builds a small keymap exercising every leaf key system, for
// driving interactively or from a trace file:
//
//	0: A                                  5: tap-hold (tap=G, hold=LeftShift)
//	1: B                                  6: sticky LeftShift
//	2: layer-hold(1)                      7,8: chord participants (-> X, passthrough C)
//	3: layered (base=C, L1 override=1)    9: reset callback
//	4: caps-word toggle
func demoLayout() ([]key.Ref, composite.Config, []string) {
	var cfg composite.Config

	cfg.Keyboard[0] = keyboard.Key{KeyCode: 0x04} // A
	cfg.Keyboard[1] = keyboard.Key{KeyCode: 0x05} // B
	cfg.Keyboard[2] = keyboard.Key{KeyCode: 0x06} // C
	cfg.Keyboard[3] = keyboard.Key{KeyCode: 0x19} // V
	cfg.Keyboard[4] = keyboard.Key{KeyCode: 0x0a} // G
	cfg.Keyboard[5] = keyboard.Key{KeyCode: 0xe1} // LeftShift modifier key code
	cfg.Keyboard[6] = keyboard.Key{KeyCode: 0x1b} // X

	cfg.Modifier[0] = layered.ModifierKey{Kind: layered.Hold, Layer: 1}

	cfg.Layered[0] = layered.LayeredKey{
		Base: key.Ref{Kind: key.RefKeyboard, Index: 2}, // C on base layer
		Overrides: [layered.MaxLayers]*key.Ref{
			1: ptr(key.Ref{Kind: key.RefKeyboard, Index: 1}), // B on layer 1
		},
	}

	cfg.TapHold[0] = taphold.Key{
		Tap:               key.Ref{Kind: key.RefKeyboard, Index: 4}, // tap: G
		Hold:              key.Ref{Kind: key.RefKeyboard, Index: 5}, // hold: LeftShift-as-modifier key
		Timeout:           200,
		InterruptResponse: taphold.HoldOnKeyPress,
	}

	cfg.Sticky[0] = sticky.Key{
		Inner:     key.Ref{Kind: key.RefKeyboard, Index: 5}, // LeftShift
		TimeoutMs: 1000,
	}

	cfg.Chorded[0] = chorded.Key{
		Indices:     [chorded.MaxChordSize]uint16{7, 8},
		IndexCount:  2,
		TimeoutMs:   50,
		Resolved:    key.Ref{Kind: key.RefKeyboard, Index: 6}, // X
		Passthrough: key.Ref{Kind: key.RefKeyboard, Index: 2}, // falls through to C
	}

	cfg.CapsWord[0] = capsword.Key{IdleTimeoutMs: 2000}

	cfg.Callback[0] = callback.Key{ID: callback.Reset}

	layout := make([]key.Ref, 10)
	layout[0] = key.Ref{Kind: key.RefKeyboard, Index: 0}
	layout[1] = key.Ref{Kind: key.RefKeyboard, Index: 1}
	layout[2] = key.Ref{Kind: key.RefLayeredModifier, Index: 0}
	layout[3] = key.Ref{Kind: key.RefLayered, Index: 0}
	layout[4] = key.Ref{Kind: key.RefCapsWord, Index: 0}
	layout[5] = key.Ref{Kind: key.RefTapHold, Index: 0}
	layout[6] = key.Ref{Kind: key.RefSticky, Index: 0}
	layout[7] = key.Ref{Kind: key.RefChorded, Index: 0}
	layout[8] = key.Ref{Kind: key.RefChorded, Index: 0}
	layout[9] = key.Ref{Kind: key.RefCallback, Index: 0}

	layerNames := []string{"base", "fn"}

	return layout, cfg, layerNames
}

func ptr(r key.Ref) *key.Ref {
	return &r
}
