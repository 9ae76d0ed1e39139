// Package keymap implements the Keymap Scheduler: the tick-driven loop
// that turns a stream of matrix input events into HID report snapshots,
// owning the pressed-key list, the input queue, and the scheduled-event
// heap that together drive every leaf key system's state machine.
package keymap

import (
	"container/heap"
	"fmt"
	"log"

	"github.com/rgoulter/smart-keymap-go/hidreport"
	"github.com/rgoulter/smart-keymap-go/input"
	"github.com/rgoulter/smart-keymap-go/key"
	"github.com/rgoulter/smart-keymap-go/key/capsword"
	"github.com/rgoulter/smart-keymap-go/key/composite"
	"github.com/rgoulter/smart-keymap-go/key/keyboard"
	"github.com/rgoulter/smart-keymap-go/key/layered"
	"github.com/rgoulter/smart-keymap-go/key/sticky"
	"github.com/rgoulter/smart-keymap-go/key/taphold"
)

// virtualIndexBit tags a pressed-key slot as standing in for a virtual
// tap's own HID output rather than a physical layout index, the same
// high-bit convention LastCallbackID uses to flag a custom callback id.
// A virtual tap never shares a physical keymap index with a real key:
// Layout is always far shorter than this bit, so the two spaces can't
// collide.
const virtualIndexBit uint16 = 0x8000

func virtualKeymapIndex(keyCode uint8) uint16 {
	return virtualIndexBit | uint16(keyCode)
}

// Resource bounds, mirroring the engine's fixed-capacity container model.
const (
	MaxPressedKeys    = 16
	InputQueueSize    = 32
	ScheduledHeapSize = 256
)

// pressedKeyKind tags whether a pressed-key slot holds a pending or
// resolved composite state.
type pressedKeyKind uint8

const (
	slotPending pressedKeyKind = iota
	slotResolved
)

// pressedKey is one entry in the scheduler's insertion-ordered pressed
// list: insertion order is physically meaningful (it determines HID
// report key ordering and the reporter's one-new-key-per-report prefix).
type pressedKey struct {
	keymapIndex uint16
	kind        pressedKeyKind
	pending     composite.PendingKeyState
	resolved    composite.KeyState
}

// heapEntry is one scheduled event awaiting its fire tick.
type heapEntry struct {
	fireAt   uint32
	sequence uint32
	event    key.Event
}

type eventHeap []heapEntry

func (h eventHeap) Len() int { return len(h) }
func (h eventHeap) Less(i, j int) bool {
	if h[i].fireAt != h[j].fireAt {
		return h[i].fireAt < h[j].fireAt
	}
	return h[i].sequence < h[j].sequence
}
func (h eventHeap) Swap(i, j int) { h[i], h[j] = h[j], h[i] }
func (h *eventHeap) Push(x any)   { *h = append(*h, x.(heapEntry)) }
func (h *eventHeap) Pop() any {
	old := *h
	n := len(old)
	e := old[n-1]
	*h = old[:n-1]
	return e
}

// Keymap is the scheduler: one keyboard's worth of configuration, leaf
// context state, and the queues that drive it.
type Keymap struct {
	Layout []key.Ref // keymap index -> top-level Ref
	Config composite.Config
	Context composite.Context

	pressedKeys []pressedKey
	inputQueue  []input.Event
	scheduled   eventHeap

	tickCounter     uint32
	msPerTick       uint8
	sequenceCounter uint32

	reporter *hidreport.Reporter

	logger *log.Logger

	pendingCallbackID uint8
	hasPendingCallback bool
}

// New constructs a Keymap over the given layout and configuration,
// msPerTick defaulting to 1 if given as 0.
func New(layout []key.Ref, cfg composite.Config, msPerTick uint8, logger *log.Logger) *Keymap {
	if msPerTick == 0 {
		msPerTick = 1
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Keymap{
		Layout:    layout,
		Config:    cfg,
		msPerTick: msPerTick,
		reporter:  hidreport.NewReporter(),
		logger:    logger,
	}
}

// RegisterInput enqueues a physical key event. It panics on queue
// overflow, matching the engine's fixed-capacity resource model: a
// keyboard whose matrix can outrun a 32-deep input queue is misconfigured
// for this scheduler's tick rate.
func (km *Keymap) RegisterInput(ev input.Event) {
	if len(km.inputQueue) >= InputQueueSize {
		panic("keymap: input queue overflow")
	}
	km.inputQueue = append(km.inputQueue, ev)
}

// Tick advances the scheduler by one ms_per_tick step and returns the HID
// report snapshot for this cycle. This is the supplemented, Go-idiomatic
// replacement for returning a separate "KeymapOutput" handle that callers
// would otherwise have to thread back through a second query call.
func (km *Keymap) Tick() hidreport.Report {
	km.tickCounter += uint32(km.msPerTick)
	km.drainScheduled()
	km.dequeueOne()
	out := km.snapshotOutput()
	report := km.reporter.Update(out)
	km.reporter.ReportSent()
	return report
}

// RegisterInputAfterMs advances the tick counter by deltaMs (instead of
// ms_per_tick), registers ev, and returns the HID report snapshot plus
// the delay in ms until the next scheduled event (0 if none) — the
// event-based API variant for hosts that want to sleep between timers
// rather than poll at a fixed tick rate.
func (km *Keymap) RegisterInputAfterMs(deltaMs uint32, ev input.Event) (hidreport.Report, uint32) {
	km.tickCounter += deltaMs
	km.RegisterInput(ev)
	km.drainScheduled()
	km.dequeueOne()
	out := km.snapshotOutput()
	report := km.reporter.Update(out)
	km.reporter.ReportSent()
	return report, km.NextEventTimeoutMs()
}

// NextEventTimeoutMs returns the delay, in ms, until the earliest
// scheduled event, or 0 if none are scheduled.
func (km *Keymap) NextEventTimeoutMs() uint32 {
	if len(km.scheduled) == 0 {
		return 0
	}
	next := km.scheduled[0].fireAt
	if next <= km.tickCounter {
		return 0
	}
	return next - km.tickCounter
}

// RequiresPolling reports whether any pressed key is still pending
// resolution (and so needs regular ticks rather than pure event-driven
// wakeups): a pending key's own resolution path isn't always gated by a
// scheduled event (e.g. a chord waiting on further physical presses), so
// hosts relying purely on NextEventTimeoutMs could starve it.
func (km *Keymap) RequiresPolling() bool {
	for _, pk := range km.pressedKeys {
		if pk.kind == slotPending {
			return true
		}
	}
	return false
}

func (km *Keymap) drainScheduled() {
	// Both tick paths reach here first: bring the leaves' shared clock up to date.
	km.Context.CurrentTick = km.tickCounter
	for len(km.scheduled) > 0 && km.scheduled[0].fireAt <= km.tickCounter {
		e := heap.Pop(&km.scheduled).(heapEntry)
		km.routeScheduledEvent(e.event)
	}
}

// routeScheduledEvent feeds a fired scheduled event back in as if it were
// freshly dequeued: EventInput virtual presses/releases go to the input
// queue (so they pass through the ordinary press/release handling below,
// including starting a fresh pending key for a virtual press); everything
// else is routed immediately to every pressed key, matching how a
// same-tick immediate sub-event would be handled.
func (km *Keymap) routeScheduledEvent(ev key.Event) {
	if ev.Kind == key.EventInput {
		km.RegisterInput(ev.Input)
		return
	}
	km.routeToPressedKeys(ev)
}

func (km *Keymap) dequeueOne() {
	if len(km.inputQueue) == 0 {
		return
	}
	ev := km.inputQueue[0]
	km.inputQueue = km.inputQueue[1:]

	switch ev.Kind {
	case input.Press:
		km.handlePress(ev.KeymapIndex)
	case input.Release:
		km.routeToPressedKeys(key.InputEvent(ev))
		km.Context.Sticky.ObserveRelease(ev.KeymapIndex)
		km.removePressed(ev.KeymapIndex)
	case input.VirtualKeyPress:
		km.routeToPressedKeys(key.InputEvent(ev))
		km.pressVirtualTap(ev.KeyCode)
	case input.VirtualKeyRelease:
		km.routeToPressedKeys(key.InputEvent(ev))
		km.removePressed(virtualKeymapIndex(ev.KeyCode))
		km.broadcastInterruptingTap()
	}
}

// pressVirtualTap gives a resolved tap (from tap-hold, tap-dance, a
// chord's passthrough, or an automation step) its own pressed-key slot
// so its HID usage code actually reaches snapshotOutput: the leaf that
// emitted the virtual press already retired its own pending slot (see
// resolveTap), so without this the tap's code would never appear in any
// report at all. Addressed by a synthetic keymap index so the matching
// VirtualKeyRelease can remove exactly this slot via removePressed.
func (km *Keymap) pressVirtualTap(keyCode uint8) {
	idx := virtualKeymapIndex(keyCode)
	ks := composite.KeyState{
		Kind:        composite.KeyStateKeyboard,
		KeymapIndex: idx,
		Keyboard:    keyboard.NewPressedKey(keyboard.Key{KeyCode: keyCode}),
	}
	km.insertPressed(pressedKey{keymapIndex: idx, kind: slotResolved, resolved: ks})
	km.broadcastResolved(idx, ks)
}

// broadcastInterruptingTap signals every still-pending key that some
// other key was just fully tapped (pressed then released), the trigger
// tap-hold's HoldOnKeyTap interrupt response waits for.
func (km *Keymap) broadcastInterruptingTap() {
	for i := range km.pressedKeys {
		pk := &km.pressedKeys[i]
		if pk.kind != slotPending {
			continue
		}
		ev := key.KeyEventFor(pk.keymapIndex, taphold.InterruptingTapEvent)
		outcome, retarget, events := composite.UpdatePendingState(&pk.pending, &km.Config, &km.Context, ev)
		km.mergeEvents(events)
		switch outcome {
		case composite.Retargeted:
			km.resolveRetarget(i, retarget)
		case composite.ResolvedTap:
			km.resolveTap(i)
		case composite.PassthroughTap:
			km.resolvePassthroughTap(i, retarget)
		}
	}
}

// handlePress resolves a freshly pressed keymap index, following
// Retarget results up to MaxKeyPathLen times.
func (km *Keymap) handlePress(keymapIndex uint16) {
	if int(keymapIndex) >= len(km.Layout) {
		km.logger.Printf("keymap: press at out-of-range index %d ignored", keymapIndex)
		return
	}
	// Pending keys (tap-hold, chords) see the press first, as an interruption.
	km.routeToPressedKeys(key.InputEvent(input.NewPress(keymapIndex)))
	km.Context.RecordActivity()
	km.Context.Sticky.ObserveKeyPress()
	ref := km.Layout[keymapIndex]

	for hops := 0; hops < key.MaxKeyPathLen; hops++ {
		result, events := composite.NewPressedKey(keymapIndex, ref, &km.Config, &km.Context)
		km.mergeEvents(events)

		switch result.Kind {
		case key.ResultPending:
			km.insertPressed(pressedKey{keymapIndex: keymapIndex, kind: slotPending, pending: result.Pending})
			return
		case key.ResultResolved:
			km.insertPressed(pressedKey{keymapIndex: keymapIndex, kind: slotResolved, resolved: result.Resolved})
			km.broadcastResolved(keymapIndex, result.Resolved)
			return
		case key.ResultRetarget:
			ref = result.Retarget
			continue
		}
	}
	km.logger.Printf("keymap: retarget chain at index %d exceeded MaxKeyPathLen", keymapIndex)
}

func (km *Keymap) insertPressed(pk pressedKey) {
	if len(km.pressedKeys) >= MaxPressedKeys {
		panic("keymap: pressed-key list overflow (MaxPressedKeys)")
	}
	km.pressedKeys = append(km.pressedKeys, pk)
}

func (km *Keymap) removePressed(keymapIndex uint16) {
	for i, pk := range km.pressedKeys {
		if pk.keymapIndex == keymapIndex {
			km.pressedKeys = append(km.pressedKeys[:i], km.pressedKeys[i+1:]...)
			return
		}
	}
}

// routeToPressedKeys delivers ev to every pressed key's pending/resolved
// update entrypoint, and applies any context-level (layer activation,
// caps-word idle timeout) sub-event directly.
func (km *Keymap) routeToPressedKeys(ev key.Event) {
	if ev.Kind == key.EventContext {
		km.applyContextEvent(ev)
		return
	}

	for i := range km.pressedKeys {
		pk := &km.pressedKeys[i]
		switch pk.kind {
		case slotPending:
			outcome, retarget, events := composite.UpdatePendingState(&pk.pending, &km.Config, &km.Context, ev)
			km.mergeEvents(events)
			switch outcome {
			case composite.Retargeted:
				km.resolveRetarget(i, retarget)
			case composite.ResolvedTap:
				km.resolveTap(i)
			case composite.PassthroughTap:
				km.resolvePassthroughTap(i, retarget)
			}
		case slotResolved:
			events := composite.UpdateState(&pk.resolved, &km.Config, &km.Context, ev)
			km.mergeEvents(events)
		}
	}
}

// resolveRetarget replaces a pending slot with the outcome of resolving
// its retarget Ref fresh, preserving insertion position (per spec's "If a
// pending key's update returns NewPressedKey(r'), replace that slot's
// record with a fresh new_pressed_key outcome").
func (km *Keymap) resolveRetarget(slot int, ref key.Ref) {
	keymapIndex := km.pressedKeys[slot].keymapIndex
	result, events := composite.NewPressedKey(keymapIndex, ref, &km.Config, &km.Context)
	km.mergeEvents(events)
	switch result.Kind {
	case key.ResultPending:
		km.pressedKeys[slot] = pressedKey{keymapIndex: keymapIndex, kind: slotPending, pending: result.Pending}
	case key.ResultResolved:
		km.pressedKeys[slot] = pressedKey{keymapIndex: keymapIndex, kind: slotResolved, resolved: result.Resolved}
		km.broadcastResolved(keymapIndex, result.Resolved)
	case key.ResultRetarget:
		km.resolveRetarget(slot, result.Retarget)
	}
}

// resolveTap finishes a tap-hold/tap-dance/automation key that resolved
// to a virtual tap rather than a retarget: the leaf already scheduled its
// own virtual press/release, which pressVirtualTap turns into a separate
// pressed-key slot carrying the actual HID output, so this original slot
// contributes nothing further and just waits out its physical release.
func (km *Keymap) resolveTap(slot int) {
	keymapIndex := km.pressedKeys[slot].keymapIndex
	km.pressedKeys[slot] = pressedKey{keymapIndex: keymapIndex, kind: slotResolved, resolved: composite.KeyState{Kind: composite.KeyStateNone, KeymapIndex: keymapIndex}}
}

// resolvePassthroughTap handles a chord falling through to its
// Passthrough Ref: synthesizes a virtual press/release of whatever output
// Passthrough resolves to (a full new_pressed_key dispatch, immediately
// torn down), since the chord's own participating keys never directly
// produced their own output.
func (km *Keymap) resolvePassthroughTap(slot int, passthrough key.Ref) {
	keymapIndex := km.pressedKeys[slot].keymapIndex
	result, events := composite.NewPressedKey(keymapIndex, passthrough, &km.Config, &km.Context)
	km.mergeEvents(events)
	if result.Kind == key.ResultResolved {
		km.broadcastResolved(keymapIndex, result.Resolved)
		out, ok := composite.KeyOutput(result.Resolved, &km.Config, &km.Context)
		if ok && out.Kind == key.Keyboard {
			km.enqueueVirtualTap(out.Value)
		}
	}
	km.resolveTap(slot)
}

func (km *Keymap) enqueueVirtualTap(keyCode uint8) {
	km.RegisterInput(input.NewVirtualPress(keyCode))
	km.scheduleAfter(1, key.InputEvent(input.NewVirtualRelease(keyCode)))
}

func (km *Keymap) broadcastResolved(keymapIndex uint16, ks composite.KeyState) {
	if ks.Kind == composite.KeyStateCallback {
		id := ks.Callback.Key.ID
		if ks.Callback.Key.IsCustom {
			id = 0x80
		}
		km.pendingCallbackID = id
		km.hasPendingCallback = true
	}

	out, ok := composite.KeyOutput(ks, &km.Config, &km.Context)
	if !ok {
		return
	}
	km.routeToPressedKeys(key.ResolvedOutputEvent(keymapIndex, out))
}

// LastCallbackID returns the id of the most recently resolved callback
// key since the last call, consuming it (a second call returns false
// until another callback key resolves). Custom callbacks report id 0x80
// (the reserved high bit) since they're addressed by (group, code)
// rather than a single id; the (group, code) pair is not reported.
func (km *Keymap) LastCallbackID() (uint8, bool) {
	if !km.hasPendingCallback {
		return 0, false
	}
	km.hasPendingCallback = false
	return km.pendingCallbackID, true
}

func (km *Keymap) applyContextEvent(ev key.Event) {
	switch ce := ev.KeyEvent.(type) {
	case layered.Event:
		km.Context.Layered.HandleEvent(ce)
	case capsword.Event:
		capsword.HandleEvent(&km.Context.CapsWord, ce)
	case sticky.Event:
		sticky.HandleEvent(&km.Context.Sticky, ce)
	}
}

// mergeEvents routes each of evs's ScheduledEvents to the input queue
// (Immediate) or the scheduled heap (After), per the engine's event
// scheduling rules.
func (km *Keymap) mergeEvents(evs key.Events) {
	for _, se := range evs.Slice() {
		switch se.Schedule {
		case key.Immediate:
			if se.Event.Kind == key.EventInput {
				km.RegisterInput(se.Event.Input)
			} else {
				km.routeToPressedKeys(se.Event)
			}
		case key.After:
			km.scheduleAfter(se.Delay, se.Event)
		}
	}
}

func (km *Keymap) scheduleAfter(delayTicks uint16, ev key.Event) {
	if len(km.scheduled) >= ScheduledHeapSize {
		panic("keymap: scheduled-event heap overflow")
	}
	km.sequenceCounter++
	heap.Push(&km.scheduled, heapEntry{
		fireAt:   km.tickCounter + uint32(delayTicks),
		sequence: km.sequenceCounter,
		event:    ev,
	})
}

// snapshotOutput asks every resolved pressed key for its KeyOutput,
// folding the results (and modifier unions) into one hidreport.Output.
func (km *Keymap) snapshotOutput() hidreport.Output {
	outputs := make([]key.Output, 0, len(km.pressedKeys))
	for _, pk := range km.pressedKeys {
		if pk.kind != slotResolved {
			continue
		}
		if out, ok := composite.KeyOutput(pk.resolved, &km.Config, &km.Context); ok {
			outputs = append(outputs, out)
		}
	}
	return hidreport.NewOutput(outputs)
}

// String renders a compact debug view of the pressed-key list, useful for
// host simulator logging.
func (km *Keymap) String() string {
	return fmt.Sprintf("Keymap{tick=%d pressed=%d queued=%d scheduled=%d}",
		km.tickCounter, len(km.pressedKeys), len(km.inputQueue), len(km.scheduled))
}
