package key

import "github.com/rgoulter/smart-keymap-go/input"

// MaxKeyEvents bounds the number of scheduled events a single Key or
// KeyState update may emit.
const MaxKeyEvents = 4

// EventKind tags the variant of an Event routed through the scheduler.
type EventKind uint8

const (
	// EventInput wraps a matrix or virtual input.Event.
	EventInput EventKind = iota
	// EventKey carries a leaf-specific sub-event (a timer firing, a
	// tap-dance re-press) addressed to a specific keymap index. The
	// concrete payload is leaf-defined and stored in KeyEvent as `any`;
	// a leaf that receives an Event whose KeyEvent isn't its own type
	// drops it (see spec's "unmappable event conversion" rule).
	EventKey
	// EventResolvedOutput is broadcast after a key resolves, observed by
	// sticky and caps-word.
	EventResolvedOutput
	// EventCallback fires a registered host callback.
	EventCallback
	// EventContext carries a leaf-specific sub-event that mutates shared
	// leaf Context state directly (e.g. layer activation), rather than
	// being addressed to one pending key's state by keymap index.
	EventContext
)

// Event is the envelope routed to leaf Context/PendingKeyState/KeyState
// update functions.
type Event struct {
	Kind           EventKind
	Input          input.Event
	KeymapIndex    uint16
	KeyEvent       any
	ResolvedOutput Output
	ResolvedIndex  uint16
	CallbackID     uint8
}

// InputEvent wraps a matrix/virtual input event.
func InputEvent(ev input.Event) Event {
	return Event{Kind: EventInput, Input: ev}
}

// KeyEventFor addresses a leaf-specific sub-event to a keymap index.
func KeyEventFor(keymapIndex uint16, ev any) Event {
	return Event{Kind: EventKey, KeymapIndex: keymapIndex, KeyEvent: ev}
}

// ContextEvent wraps a leaf-specific sub-event that mutates shared leaf
// Context state directly (e.g. layer activation), with no specific
// keymap index to route to.
func ContextEvent(ev any) Event {
	return Event{Kind: EventContext, KeyEvent: ev}
}

// ResolvedOutputEvent broadcasts that keymapIndex resolved to out.
func ResolvedOutputEvent(keymapIndex uint16, out Output) Event {
	return Event{Kind: EventResolvedOutput, ResolvedIndex: keymapIndex, ResolvedOutput: out}
}

// CallbackEvent fires a registered host callback by id.
func CallbackEvent(id uint8) Event {
	return Event{Kind: EventCallback, CallbackID: id}
}

// ScheduleKind tags whether a ScheduledEvent fires immediately or after a
// delay.
type ScheduleKind uint8

const (
	Immediate ScheduleKind = iota
	After
)

// ScheduledEvent pairs an Event with when it should be handled.
type ScheduledEvent struct {
	Schedule ScheduleKind
	Delay    uint16 // ticks; valid when Schedule == After
	Event    Event
}

// Events is a bounded (MaxKeyEvents) list of ScheduledEvents returned by a
// Key/Context/KeyState update. The zero value is an empty list.
type Events struct {
	items [MaxKeyEvents]ScheduledEvent
	n     int
}

// NoEvents returns an empty Events.
func NoEvents() Events { return Events{} }

// EventNow returns an Events containing a single immediate event.
func EventNow(ev Event) Events {
	var e Events
	e.Add(ScheduledEvent{Schedule: Immediate, Event: ev})
	return e
}

// EventAfter returns an Events containing a single event scheduled after
// delay ticks.
func EventAfter(delay uint16, ev Event) Events {
	var e Events
	e.Add(ScheduledEvent{Schedule: After, Delay: delay, Event: ev})
	return e
}

// Add appends a ScheduledEvent. It panics on overflow past MaxKeyEvents:
// per the engine's resource model, that indicates a misconfigured key
// emitting more sub-events than any leaf should ever need.
func (e *Events) Add(se ScheduledEvent) {
	if e.n >= MaxKeyEvents {
		panic("key: Events overflow (> MaxKeyEvents)")
	}
	e.items[e.n] = se
	e.n++
}

// Extend appends all of other's events to e.
func (e *Events) Extend(other Events) {
	for i := 0; i < other.n; i++ {
		e.Add(other.items[i])
	}
}

// Slice returns the scheduled events in emission order.
func (e Events) Slice() []ScheduledEvent {
	return e.items[:e.n]
}

// Len returns the number of scheduled events.
func (e Events) Len() int { return e.n }
