// Package cabi exposes the keymap engine over a stable C ABI: a
// process-wide singleton Keymap, driven one tick or one event at a time
// by a firmware main loop written in C (or another language's FFI).
//
// The ABI mirrors the in-process Go API (keymap.Keymap, hidreport.Report)
// field-for-field so the C structs below can be memcpy'd directly into
// firmware-side equivalents. The keymap layout and key configuration are
// supplied in-process via Configure before the first keymap_init() call:
// real smart-keymap firmware bakes its layout in at build time from a
// generated config rather than accepting it over the C boundary, and this
// package follows the same shape.
package cabi

/*
#include <stdint.h>
#include <stdbool.h>

typedef struct {
    uint8_t event_type;
    uint16_t value;
} KeymapInputEvent;

typedef struct {
    uint8_t pressed_buttons;
    int8_t x;
    int8_t y;
    int8_t vertical_scroll;
    int8_t horizontal_scroll;
} KeymapHidMouseReport;

typedef struct {
    uint8_t keyboard[8];
    uint8_t custom[6];
    uint8_t consumer[4];
    KeymapHidMouseReport mouse;
} KeymapHidReport;

typedef void (*keymap_callback_fn)(void);

static inline void keymap_invoke_callback(keymap_callback_fn fn) {
    if (fn != NULL) {
        fn();
    }
}
*/
import "C"

import (
	"log"
	"os"
	"sync"
	"unsafe"

	"github.com/rgoulter/smart-keymap-go/hidreport"
	"github.com/rgoulter/smart-keymap-go/input"
	"github.com/rgoulter/smart-keymap-go/key"
	"github.com/rgoulter/smart-keymap-go/key/composite"
	"github.com/rgoulter/smart-keymap-go/keymap"
	"github.com/rgoulter/smart-keymap-go/splitcodec"
)

// Event types for KeymapInputEvent.event_type.
const (
	EventTypePress          uint8 = 0
	EventTypeRelease        uint8 = 1
	EventTypeVirtualPress   uint8 = 2
	EventTypeVirtualRelease uint8 = 3
)

// Built-in callback ids for keymap_register_callback.
const (
	CallbackReset             uint8 = 0
	CallbackResetToBootloader uint8 = 1
)

// BluetoothProfileCommand enum tags, preserved verbatim across the ABI
// boundary: Select0..Select5 stay distinct tags rather than collapsing
// to a single Select(u8).
type BluetoothProfileCommand uint8

const (
	BluetoothDisconnect BluetoothProfileCommand = iota
	BluetoothClear
	BluetoothClearAll
	BluetoothPrevious
	BluetoothNext
	BluetoothSelect0
	BluetoothSelect1
	BluetoothSelect2
	BluetoothSelect3
	BluetoothSelect4
	BluetoothSelect5
)

var (
	mu sync.Mutex
	km *keymap.Keymap

	configuredLayout []key.Ref
	configuredConfig composite.Config
	msPerTick        uint8 = 1

	logger = log.New(os.Stderr, "[cabi] ", log.Ltime)

	builtinCallbacks   = map[uint8]C.keymap_callback_fn{}
	customCallbacks    = map[[2]uint8]C.keymap_callback_fn{}
	bluetoothCallbacks = map[BluetoothProfileCommand]C.keymap_callback_fn{}
)

// Configure stores the keymap layout and key configuration used by the
// next keymap_init() call. Called in-process (not over the C boundary)
// by whatever embeds this package, before the C side starts driving it.
func Configure(layout []key.Ref, cfg composite.Config) {
	mu.Lock()
	defer mu.Unlock()
	configuredLayout = layout
	configuredConfig = cfg
}

// Init resets all engine state, constructing a fresh Keymap from the
// most recently Configure-d layout. A misconfigured layout (out-of-range
// Refs, capacity overflow) aborts with a panic.
//
//export keymap_init
func Init() {
	mu.Lock()
	defer mu.Unlock()
	km = keymap.New(configuredLayout, configuredConfig, msPerTick, logger)
	builtinCallbacks = map[uint8]C.keymap_callback_fn{}
	customCallbacks = map[[2]uint8]C.keymap_callback_fn{}
	bluetoothCallbacks = map[BluetoothProfileCommand]C.keymap_callback_fn{}
}

// SetMsPerTick configures the engine's tick granularity in milliseconds,
// taking effect on the next keymap_init().
//
//export keymap_set_ms_per_tick
func SetMsPerTick(v C.uint8_t) {
	mu.Lock()
	defer mu.Unlock()
	msPerTick = uint8(v)
}

func toInputEvent(ev C.KeymapInputEvent) input.Event {
	switch uint8(ev.event_type) {
	case EventTypePress:
		return input.NewPress(uint16(ev.value))
	case EventTypeRelease:
		return input.NewRelease(uint16(ev.value))
	case EventTypeVirtualPress:
		return input.NewVirtualPress(uint8(ev.value))
	case EventTypeVirtualRelease:
		return input.NewVirtualRelease(uint8(ev.value))
	default:
		return input.Event{}
	}
}

// RegisterInputEvent enqueues a raw input event for the next tick.
//
//export keymap_register_input_event
func RegisterInputEvent(ev C.KeymapInputEvent) {
	mu.Lock()
	defer mu.Unlock()
	if km == nil {
		return
	}
	km.RegisterInput(toInputEvent(ev))
}

// RegisterKeypress is the convenience form of RegisterInputEvent for a
// physical key press at keymapIndex.
//
//export keymap_register_keypress
func RegisterKeypress(keymapIndex C.uint16_t) {
	mu.Lock()
	defer mu.Unlock()
	if km == nil {
		return
	}
	km.RegisterInput(input.NewPress(uint16(keymapIndex)))
}

// RegisterKeyrelease is the convenience form of RegisterInputEvent for a
// physical key release at keymapIndex.
//
//export keymap_register_keyrelease
func RegisterKeyrelease(keymapIndex C.uint16_t) {
	mu.Lock()
	defer mu.Unlock()
	if km == nil {
		return
	}
	km.RegisterInput(input.NewRelease(uint16(keymapIndex)))
}

func fillReport(out *C.KeymapHidReport, r hidreport.Report) {
	for i := 0; i < 8; i++ {
		out.keyboard[i] = C.uint8_t(r.Keyboard[i])
	}
	for i := 0; i < 6; i++ {
		out.custom[i] = C.uint8_t(r.Custom[i])
	}
	for i := 0; i < 4; i++ {
		out.consumer[i] = C.uint8_t(r.Consumer[i])
	}
	out.mouse.pressed_buttons = C.uint8_t(r.Mouse.Buttons)
	out.mouse.x = C.int8_t(r.Mouse.X)
	out.mouse.y = C.int8_t(r.Mouse.Y)
	out.mouse.vertical_scroll = C.int8_t(r.Mouse.VerticalScroll)
	out.mouse.horizontal_scroll = C.int8_t(r.Mouse.HorizontalScroll)
}

// Tick advances the engine by one tick, filling report.
//
//export keymap_tick
func Tick(report *C.KeymapHidReport) {
	mu.Lock()
	defer mu.Unlock()
	if km == nil {
		return
	}
	r := km.Tick()
	fillReport(report, r)
	dispatchCallbacks()
}

// RegisterInputAfterMs advances the engine by deltaMs, registers ev, fills
// report, and returns the number of milliseconds until the next scheduled
// event fires (0 if none is pending). Intended for event-driven firmware
// that doesn't poll on a fixed tick.
//
//export keymap_register_input_after_ms
func RegisterInputAfterMs(deltaMs C.uint32_t, ev C.KeymapInputEvent, report *C.KeymapHidReport) C.uint32_t {
	mu.Lock()
	defer mu.Unlock()
	if km == nil {
		return 0
	}
	r, next := km.RegisterInputAfterMs(uint32(deltaMs), toInputEvent(ev))
	fillReport(report, r)
	dispatchCallbacks()
	return C.uint32_t(next)
}

// NextEventTimeout reports the number of milliseconds until the next
// scheduled event fires (0 if none is pending), without advancing state.
//
//export keymap_next_event_timeout
func NextEventTimeout(report *C.KeymapHidReport) C.uint32_t {
	mu.Lock()
	defer mu.Unlock()
	if km == nil {
		return 0
	}
	return C.uint32_t(km.NextEventTimeoutMs())
}

// RequiresPolling reports whether any key is pending resolution, meaning
// the firmware main loop should keep ticking rather than sleep until the
// next physical scan.
//
//export keymap_requires_polling
func RequiresPolling() C.bool {
	mu.Lock()
	defer mu.Unlock()
	return C.bool(km != nil && km.RequiresPolling())
}

// RegisterCallback registers fn against a built-in callback id (0 =
// RESET, 1 = RESET_TO_BOOTLOADER).
//
//export keymap_register_callback
func RegisterCallback(id C.uint8_t, fn C.keymap_callback_fn) {
	mu.Lock()
	defer mu.Unlock()
	builtinCallbacks[uint8(id)] = fn
}

// RegisterCustomCallback registers fn against a host-defined (group, code)
// pair.
//
//export keymap_register_custom_callback
func RegisterCustomCallback(group, code C.uint8_t, fn C.keymap_callback_fn) {
	mu.Lock()
	defer mu.Unlock()
	customCallbacks[[2]uint8{uint8(group), uint8(code)}] = fn
}

// RegisterBluetoothCallback registers fn against a Bluetooth profile
// command tag.
//
//export keymap_register_bluetooth_callback
func RegisterBluetoothCallback(cmd C.uint8_t, fn C.keymap_callback_fn) {
	mu.Lock()
	defer mu.Unlock()
	bluetoothCallbacks[BluetoothProfileCommand(cmd)] = fn
}

// dispatchCallbacks fires any callback keys resolved since the last tick
// or event-driven call. The scheduler broadcasts a resolved callback key
// as a key.EventCallback sub-event internally rather than exposing a
// direct sink, so the cabi layer reads the pending callback id off the
// keymap's last-resolved snapshot. Must be called with mu held.
func dispatchCallbacks() {
	id, ok := km.LastCallbackID()
	if !ok {
		return
	}
	if id&0x80 != 0 {
		// A custom callback arrives as id 0x80 without its (group, code), so
		// no function registered through keymap_register_custom_callback is
		// invoked. Bluetooth callbacks are never invoked either.
		return
	}
	if fn, ok := builtinCallbacks[id]; ok {
		C.keymap_invoke_callback(fn)
	}
}

// SerializeEvent writes ev as a 4-byte split-codec frame into buf, which
// must have at least 4 bytes of capacity.
//
//export keymap_serialize_event
func SerializeEvent(buf *C.uint8_t, ev C.KeymapInputEvent) C.bool {
	frame, err := splitcodec.Encode(toInputEvent(ev))
	if err != nil {
		return false
	}
	out := (*[4]byte)(unsafe.Pointer(buf))
	*out = frame
	return true
}

// MessageBufferReceiveByte accumulates one received byte into buf (a
// 4-byte frame scratch buffer) and, once a full frame has been received,
// decodes it into event and returns true.
//
//export keymap_message_buffer_receive_byte
func MessageBufferReceiveByte(buf *C.uint8_t, pos *C.uint8_t, b C.uint8_t, event *C.KeymapInputEvent) C.bool {
	frame := (*[4]byte)(unsafe.Pointer(buf))
	p := uint8(*pos)
	if p >= 4 {
		p = 0
	}
	frame[p] = byte(b)
	p++
	*pos = C.uint8_t(p)
	if p < 4 {
		return false
	}
	*pos = 0
	ev, err := splitcodec.Decode(*frame)
	if err != nil {
		return false
	}
	switch ev.Kind {
	case input.Press:
		event.event_type = C.uint8_t(EventTypePress)
		event.value = C.uint16_t(ev.KeymapIndex)
	case input.Release:
		event.event_type = C.uint8_t(EventTypeRelease)
		event.value = C.uint16_t(ev.KeymapIndex)
	case input.VirtualKeyPress:
		event.event_type = C.uint8_t(EventTypeVirtualPress)
		event.value = C.uint16_t(ev.KeyCode)
	case input.VirtualKeyRelease:
		event.event_type = C.uint8_t(EventTypeVirtualRelease)
		event.value = C.uint16_t(ev.KeyCode)
	}
	return true
}
