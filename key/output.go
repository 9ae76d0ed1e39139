package key

// OutputKind tags the HID report the KeyOutput contributes to.
type OutputKind uint8

const (
	// Keyboard contributes to the boot keyboard report (key code and/or
	// modifier mask).
	Keyboard OutputKind = iota
	// Consumer contributes to the consumer-control report.
	Consumer
	// Mouse contributes to the mouse report.
	Mouse
	// Custom contributes to a vendor-defined report.
	Custom
)

// Output is one logical emitted action: a keyboard usage code and/or
// modifier mask, a consumer code, a mouse delta, or a custom code. Two
// Outputs are equal iff Kind, Value, and Modifiers are all equal (the
// mouse-delta fields are not part of the equality the engine relies on:
// a mouse Output is never deduplicated against another).
type Output struct {
	Kind      OutputKind
	Value     uint8
	Modifiers Modifiers

	// Mouse-kind fields; zero for every other Kind.
	MouseButtons uint8
	MouseX       int8
	MouseY       int8
	MouseVScroll int8
	MouseHScroll int8
}

// FromKeyCode constructs a Keyboard Output from a usage code. A modifier
// usage code (0xE0..0xE7) is normalized to the equivalent modifier-mask bit
// with a zero key code, so that a "modifier key" and a "key output that
// happens to carry that modifier" compare equal.
func FromKeyCode(keyCode uint8) Output {
	if m, ok := ModifierFromKeyCode(keyCode); ok {
		return Output{Kind: Keyboard, Value: 0, Modifiers: m}
	}
	return Output{Kind: Keyboard, Value: keyCode}
}

// FromKeyCodeWithModifiers constructs a Keyboard Output from a usage code,
// composed with extra modifiers via bitwise OR of masks.
func FromKeyCodeWithModifiers(keyCode uint8, modifiers Modifiers) Output {
	o := FromKeyCode(keyCode)
	o.Modifiers = o.Modifiers.Union(modifiers)
	return o
}

// FromModifiers constructs a Keyboard Output carrying only modifiers, no
// key code.
func FromModifiers(modifiers Modifiers) Output {
	return Output{Kind: Keyboard, Value: 0, Modifiers: modifiers}
}

// FromConsumerCode constructs a Consumer Output.
func FromConsumerCode(code uint8) Output {
	return Output{Kind: Consumer, Value: code}
}

// FromCustomCode constructs a Custom Output.
func FromCustomCode(code uint8) Output {
	return Output{Kind: Custom, Value: code}
}

// FromMouse constructs a Mouse Output carrying button state and deltas.
func FromMouse(report MouseReport) Output {
	return Output{
		Kind:         Mouse,
		MouseButtons: report.Buttons,
		MouseX:       report.X,
		MouseY:       report.Y,
		MouseVScroll: report.VerticalScroll,
		MouseHScroll: report.HorizontalScroll,
	}
}

// KeyCode returns the keyboard usage code, or 0 if this isn't a Keyboard
// output or carries no key code (modifiers-only).
func (o Output) KeyCode() uint8 {
	if o.Kind != Keyboard {
		return 0
	}
	return o.Value
}

// HasModifiers reports whether this output carries all of the given
// modifier bits.
func (o Output) HasModifiers(other Modifiers) bool {
	return o.Modifiers.HasModifiers(other)
}

// MouseReport is the delta/button state contributed by a Mouse Output.
type MouseReport struct {
	Buttons           uint8
	X, Y              int8
	VerticalScroll    int8
	HorizontalScroll  int8
}
