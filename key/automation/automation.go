// Package automation implements the automation leaf key system: a key
// that plays back a fixed sequence of virtual key taps (a macro) on
// press, optionally repeats a subsequence while held, and plays another
// on release.
package automation

import (
	"github.com/rgoulter/smart-keymap-go/input"
	"github.com/rgoulter/smart-keymap-go/key"
)

// MaxSteps bounds the number of steps in any one subsequence.
const MaxSteps = 8

// StepKind tags one step of an automation subsequence.
type StepKind uint8

const (
	// StepTap presses then releases KeyCode, DelayMs apart.
	StepTap StepKind = iota
	// StepDelay waits DelayMs before the next step, pressing nothing.
	StepDelay
)

// Step is one element of an automation subsequence.
type Step struct {
	Kind    StepKind
	KeyCode uint8
	DelayMs uint16
}

// Key is an automation definition: OnPress plays once on press,
// WhilePressed repeats for as long as the key is held (after OnPress
// completes), and OnRelease plays once on release. Any of the three may
// be empty.
type Key struct {
	OnPress      [MaxSteps]Step
	OnPressLen   uint8
	WhilePressed [MaxSteps]Step
	WhilePressedLen uint8
	OnRelease    [MaxSteps]Step
	OnReleaseLen uint8
}

// eventKind tags automation's own sub-events: advancing to the next step
// of whichever subsequence is currently playing.
type eventKind uint8

const evAdvance eventKind = iota

// Event is automation's own sub-event.
type Event struct {
	Kind eventKind
}

var AdvanceEvent = Event{Kind: evAdvance}

// phase tracks which subsequence (if any) is currently playing.
type phase uint8

const (
	phaseOnPress phase = iota
	phaseWhilePressed
	phaseOnRelease
	phaseDone
)

// PendingKeyState tracks automation playback. Resolution never actually
// happens via UpdatePendingState's retarget mechanism the way tap-hold or
// chorded do: an automation key stays "pending" for its entire lifetime,
// since it never contributes static HID output of its own and instead
// only ever emits virtual press/release Events as it plays. The composite
// dispatcher keeps calling UpdatePendingState until the key's own Release
// arrives and OnRelease (if any) finishes.
type PendingKeyState struct {
	KeymapIndex uint16
	Phase       phase
	StepIndex   uint8
	Released    bool
}

// NewPressedKey begins playback of OnPress (or, if empty, skips straight
// to WhilePressed).
func NewPressedKey(keymapIndex uint16, k Key) (key.PressedKeyResult[PendingKeyState, struct{}], key.Events) {
	pks := PendingKeyState{KeymapIndex: keymapIndex, Phase: phaseOnPress}
	events := startPhase(keymapIndex, k, &pks)
	return key.PendingResult[PendingKeyState, struct{}](key.NewKeyPath(keymapIndex), pks), events
}

func currentSteps(k Key, p phase) ([MaxSteps]Step, uint8) {
	switch p {
	case phaseOnPress:
		return k.OnPress, k.OnPressLen
	case phaseWhilePressed:
		return k.WhilePressed, k.WhilePressedLen
	case phaseOnRelease:
		return k.OnRelease, k.OnReleaseLen
	}
	return [MaxSteps]Step{}, 0
}

// startPhase emits the events for the first step of pks.Phase, advancing
// through empty phases until it finds one with steps or reaches Done.
func startPhase(keymapIndex uint16, k Key, pks *PendingKeyState) key.Events {
	for {
		steps, n := currentSteps(k, pks.Phase)
		if n > 0 {
			pks.StepIndex = 0
			return emitStep(keymapIndex, steps[0])
		}
		if !advancePhase(k, pks) {
			return key.NoEvents()
		}
	}
}

// advancePhase moves to the next phase, honoring whether the key has
// already been released (skipping WhilePressed if so) and returns false
// once phaseDone is reached.
func advancePhase(k Key, pks *PendingKeyState) bool {
	switch pks.Phase {
	case phaseOnPress:
		if pks.Released {
			pks.Phase = phaseOnRelease
		} else {
			pks.Phase = phaseWhilePressed
		}
		return true
	case phaseWhilePressed:
		if pks.Released {
			pks.Phase = phaseOnRelease
			return true
		}
		if k.WhilePressedLen == 0 {
			// Nothing to repeat while held; wait for release instead of
			// spinning on an empty phase.
			return false
		}
		// Loop WhilePressed again while still held.
		return true
	case phaseOnRelease:
		pks.Phase = phaseDone
		return false
	}
	return false
}

func emitStep(keymapIndex uint16, s Step) key.Events {
	var evs key.Events
	switch s.Kind {
	case StepTap:
		evs.Add(key.ScheduledEvent{Event: key.InputEvent(input.NewVirtualPress(s.KeyCode))})
		evs.Add(key.ScheduledEvent{Schedule: key.After, Delay: s.DelayMs, Event: key.InputEvent(input.NewVirtualRelease(s.KeyCode))})
		evs.Add(key.ScheduledEvent{Schedule: key.After, Delay: s.DelayMs, Event: key.KeyEventFor(keymapIndex, AdvanceEvent)})
	case StepDelay:
		evs.Add(key.ScheduledEvent{Schedule: key.After, Delay: s.DelayMs, Event: key.KeyEventFor(keymapIndex, AdvanceEvent)})
	}
	return evs
}

// UpdatePendingState reacts to the key's own Release (marking Released,
// so WhilePressed stops looping once its current pass finishes) and to
// Advance events (moving to the next step, the next phase, or finishing).
// done is true once OnRelease has fully played (or was empty) after the
// key was released; the composite dispatcher then retires the pending
// slot with no further output.
func UpdatePendingState(pks *PendingKeyState, k Key, ev key.Event) (done bool, events key.Events) {
	if pks.Phase == phaseDone {
		return true, key.NoEvents()
	}
	switch ev.Kind {
	case key.EventInput:
		if ev.Input.Kind == input.Release && ev.Input.KeymapIndex == pks.KeymapIndex {
			pks.Released = true
			// If WhilePressed has nothing in flight, nothing will ever
			// advance this phase on its own; kick it forward now.
			if pks.Phase == phaseWhilePressed && k.WhilePressedLen == 0 {
				evs := startPhase(pks.KeymapIndex, k, pks)
				return pks.Phase == phaseDone, evs
			}
		}
		return false, key.NoEvents()
	case key.EventKey:
		ae, ok := ev.KeyEvent.(Event)
		if !ok || ae.Kind != evAdvance || ev.KeymapIndex != pks.KeymapIndex {
			return false, key.NoEvents()
		}
		steps, n := currentSteps(k, pks.Phase)
		pks.StepIndex++
		if pks.StepIndex < n {
			return false, emitStep(pks.KeymapIndex, steps[pks.StepIndex])
		}
		if !advancePhase(k, pks) {
			return true, key.NoEvents()
		}
		evs := startPhase(pks.KeymapIndex, k, pks)
		return pks.Phase == phaseDone, evs
	}
	return false, key.NoEvents()
}
