package hidreport

import "github.com/rgoulter/smart-keymap-go/key"

// Reporter serializes report transitions so that new key presses are
// introduced one per report, preventing a USB/BLE host from rolling up
// near-simultaneous presses into the wrong order.
//
// It tracks num_reportable_keys (never below 1 once any key has ever been
// reported): each Update reveals only the first num_reportable_keys of
// the current keyboard outputs, and ReportSent grows that count by one
// whenever more outputs are waiting to be revealed.
type Reporter struct {
	numReportableKeys int
	lastOutputs       []key.Output
}

// NewReporter constructs a Reporter starting with one reportable slot.
func NewReporter() *Reporter {
	return &Reporter{numReportableKeys: 1}
}

// Update folds a fresh Output snapshot through the reporter, returning the
// Report to send this cycle.
//
// If a key that was previously within the reportable prefix has
// disappeared, numReportableKeys shrinks by one (floor 1): the host needs
// a report reflecting that this key is gone, but not before sending it
// the prior reports that justified it being added.
func (r *Reporter) Update(out Output) Report {
	codes := out.KeyboardOutputs()

	prevReportable := r.reportablePrefix()
	if keyDisappeared(prevReportable, codes) && r.numReportableKeys > 1 {
		r.numReportableKeys--
	}

	r.lastOutputs = codes

	limited := out
	if len(codes) > r.numReportableKeys {
		limited.Outputs = limitKeyboardOutputs(out.Outputs, codes[:r.numReportableKeys])
	}
	return limited.AsReport()
}

// ReportSent notifies the reporter that the last report built by Update
// was successfully delivered to the host; if more outputs remain hidden
// behind the reportable prefix, it grows by one for next cycle.
func (r *Reporter) ReportSent() {
	if len(r.lastOutputs) > r.numReportableKeys {
		r.numReportableKeys++
	}
}

func (r *Reporter) reportablePrefix() []key.Output {
	if len(r.lastOutputs) <= r.numReportableKeys {
		return r.lastOutputs
	}
	return r.lastOutputs[:r.numReportableKeys]
}

// keyDisappeared reports whether any output in prefix is absent from
// current.
func keyDisappeared(prefix, current []key.Output) bool {
	for _, p := range prefix {
		found := false
		for _, c := range current {
			if c.Value == p.Value {
				found = true
				break
			}
		}
		if !found {
			return true
		}
	}
	return false
}

// limitKeyboardOutputs keeps every non-keyboard output from outputs
// untouched, but replaces the keyboard-kind outputs with only those in
// allowed (the reportable prefix).
func limitKeyboardOutputs(outputs []key.Output, allowed []key.Output) []key.Output {
	allowedSet := make(map[uint8]bool, len(allowed))
	for _, a := range allowed {
		allowedSet[a.Value] = true
	}
	var kept []key.Output
	for _, o := range outputs {
		if o.Kind == key.Keyboard && o.Value != 0 && !allowedSet[o.Value] {
			continue
		}
		kept = append(kept, o)
	}
	return kept
}
