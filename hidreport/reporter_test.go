package hidreport

import (
	"testing"

	"github.com/rgoulter/smart-keymap-go/key"
)

func TestReporterRevealsOneKeyPerReport(t *testing.T) {
	r := NewReporter()

	first := r.Update(NewOutput([]key.Output{key.FromKeyCode(0x04)}))
	r.ReportSent()
	if first.Keyboard[2] != 0x04 {
		t.Fatalf("expected the first key revealed immediately, got % x", first.Keyboard)
	}

	// A second key arrives in the same cycle's snapshot: it should stay
	// hidden until the next report.
	second := r.Update(NewOutput([]key.Output{key.FromKeyCode(0x04), key.FromKeyCode(0x05)}))
	if second.Keyboard[3] != 0 {
		t.Errorf("expected the second key still hidden, got % x", second.Keyboard)
	}
	r.ReportSent()

	third := r.Update(NewOutput([]key.Output{key.FromKeyCode(0x04), key.FromKeyCode(0x05)}))
	if third.Keyboard[3] != 0x05 {
		t.Errorf("expected the second key revealed on the following report, got % x", third.Keyboard)
	}
}

func TestReporterGrowsPrefixOnlyAfterReportSent(t *testing.T) {
	r := NewReporter()

	r.Update(NewOutput([]key.Output{key.FromKeyCode(0x04)}))
	// No ReportSent call yet: the prefix must not grow even though a
	// second key is already waiting.
	out := r.Update(NewOutput([]key.Output{key.FromKeyCode(0x04), key.FromKeyCode(0x05)}))
	if out.Keyboard[3] != 0 {
		t.Errorf("expected the prefix to stay at 1 until ReportSent, got % x", out.Keyboard)
	}
}

func TestReporterShrinksPrefixWhenAReportedKeyDisappears(t *testing.T) {
	r := NewReporter()

	r.Update(NewOutput([]key.Output{key.FromKeyCode(0x04)}))
	r.ReportSent()
	r.Update(NewOutput([]key.Output{key.FromKeyCode(0x04), key.FromKeyCode(0x05)}))
	r.ReportSent()
	r.Update(NewOutput([]key.Output{key.FromKeyCode(0x04), key.FromKeyCode(0x05)}))
	r.ReportSent() // prefix now 2, both 0x04 and 0x05 reportable

	// 0x04 releases: the reportable prefix should shrink by one rather
	// than silently keeping 0x05 visible one slot early.
	out := r.Update(NewOutput([]key.Output{key.FromKeyCode(0x05)}))
	if out.Keyboard[2] != 0x05 {
		t.Fatalf("expected the remaining key still reported, got % x", out.Keyboard)
	}
}

func TestReporterNeverShrinksBelowOne(t *testing.T) {
	r := NewReporter()

	out := r.Update(NewOutput(nil))
	if out.Keyboard[2] != 0 {
		t.Errorf("expected an empty report with nothing pressed, got % x", out.Keyboard)
	}

	out = r.Update(NewOutput([]key.Output{key.FromKeyCode(0x04)}))
	if out.Keyboard[2] != 0x04 {
		t.Errorf("expected the only key revealed at the floor prefix of 1, got % x", out.Keyboard)
	}
}

func TestReporterPreservesNonKeyboardOutputsWhileLimitingKeyboard(t *testing.T) {
	r := NewReporter()

	out := r.Update(NewOutput([]key.Output{
		key.FromKeyCode(0x04),
		key.FromKeyCode(0x05),
		key.FromConsumerCode(0x01),
	}))

	if out.Consumer[0] != 0x01 {
		t.Errorf("expected the consumer output untouched by the keyboard prefix limit, got % x", out.Consumer)
	}
	if out.Keyboard[3] != 0 {
		t.Errorf("expected the second keyboard code still hidden, got % x", out.Keyboard)
	}
}
