// Package hidreport folds a set of pressed key outputs into boot-keyboard,
// consumer, mouse, and custom HID reports, and smooths report transitions
// so a USB/BLE host doesn't roll up near-simultaneous presses out of order.
package hidreport

import "github.com/rgoulter/smart-keymap-go/key"

// ErrorRollOver is the boot keyboard key-code slot value sent when more
// than 6 distinct keyboard key codes are pressed simultaneously.
const ErrorRollOver = 0x01

// BootKeyboardReport is the 8-byte USB boot keyboard report:
// [modifier_mask, reserved, k1, k2, k3, k4, k5, k6].
type BootKeyboardReport [8]byte

// MouseReport mirrors key.MouseReport for the C ABI layout.
type MouseReport = key.MouseReport

// Report is the full set of HID reports derived from one KeymapOutput
// snapshot.
type Report struct {
	Keyboard BootKeyboardReport
	Custom   [6]byte
	Consumer [4]byte
	Mouse    MouseReport
}

// Output is the per-tick snapshot the scheduler derives: the set of
// KeyOutputs currently contributed by pressed keys, plus the union of
// their keyboard modifier masks.
type Output struct {
	Outputs   []key.Output
	Modifiers key.Modifiers
}

// NewOutput constructs a KeymapOutput, computing the modifier union from
// the keyboard-kind outputs within.
func NewOutput(outputs []key.Output) Output {
	var mods key.Modifiers
	for _, o := range outputs {
		if o.Kind == key.Keyboard {
			mods = mods.Union(o.Modifiers)
		}
	}
	return Output{Outputs: outputs, Modifiers: mods}
}

// KeyboardOutputs returns, in order, the keyboard-kind outputs with a
// non-zero key code, duplicates collapsed.
func (o Output) KeyboardOutputs() []key.Output {
	seen := make(map[uint8]bool, len(o.Outputs))
	var out []key.Output
	for _, kout := range o.Outputs {
		if kout.Kind != key.Keyboard || kout.Value == 0 {
			continue
		}
		if seen[kout.Value] {
			continue
		}
		seen[kout.Value] = true
		out = append(out, kout)
	}
	return out
}

// AsHIDBootKeyboardReport builds the 8-byte boot keyboard report.
//
// Byte 0 is the OR of every pressed keyboard output's modifier mask (not
// just the ones that also carry a key code). Bytes 2..8 carry up to 6
// distinct non-zero key codes; a 7th or later distinct key code rolls the
// whole key-code range over to ErrorRollOver rather than truncating
// silently.
func (o Output) AsHIDBootKeyboardReport() BootKeyboardReport {
	var report BootKeyboardReport
	report[0] = o.Modifiers.Byte()

	codes := o.KeyboardOutputs()
	if len(codes) > 6 {
		for i := 2; i < 8; i++ {
			report[i] = ErrorRollOver
		}
		return report
	}
	for i, kout := range codes {
		report[2+i] = kout.Value
	}
	return report
}

// AsConsumerReport builds the 4-byte consumer report: the first 4
// consumer codes, in pressed order (a repeated code takes a slot each time).
func (o Output) AsConsumerReport() [4]byte {
	var report [4]byte
	i := 0
	for _, kout := range o.Outputs {
		if kout.Kind != key.Consumer {
			continue
		}
		if i >= len(report) {
			break
		}
		report[i] = kout.Value
		i++
	}
	return report
}

// AsCustomReport builds the 6-byte custom report: the first 6 custom
// codes, in pressed order (a repeated code takes a slot each time).
func (o Output) AsCustomReport() [6]byte {
	var report [6]byte
	i := 0
	for _, kout := range o.Outputs {
		if kout.Kind != key.Custom {
			continue
		}
		if i >= len(report) {
			break
		}
		report[i] = kout.Value
		i++
	}
	return report
}

// AsMouseReport folds every Mouse-kind output's deltas into a single
// mouse report (deltas accumulate; buttons OR together).
func (o Output) AsMouseReport() MouseReport {
	var report MouseReport
	for _, kout := range o.Outputs {
		if kout.Kind != key.Mouse {
			continue
		}
		report.Buttons |= kout.MouseButtons
		report.X = addClampInt8(report.X, kout.MouseX)
		report.Y = addClampInt8(report.Y, kout.MouseY)
		report.VerticalScroll = addClampInt8(report.VerticalScroll, kout.MouseVScroll)
		report.HorizontalScroll = addClampInt8(report.HorizontalScroll, kout.MouseHScroll)
	}
	return report
}

func addClampInt8(a, b int8) int8 {
	sum := int(a) + int(b)
	switch {
	case sum > 127:
		return 127
	case sum < -128:
		return -128
	default:
		return int8(sum)
	}
}

// AsReport builds the full Report (all four HID report kinds) from this
// KeymapOutput.
func (o Output) AsReport() Report {
	return Report{
		Keyboard: o.AsHIDBootKeyboardReport(),
		Custom:   o.AsCustomReport(),
		Consumer: o.AsConsumerReport(),
		Mouse:    o.AsMouseReport(),
	}
}
