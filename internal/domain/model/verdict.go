package model

import "fmt"

// Verdict is the binary classifier outcome.
type Verdict int

// Verdict values.
const (
	VerdictNoRisk Verdict = 0
	VerdictAtRisk Verdict = 1
)

// VerdictFromLabel maps a classifier label to a Verdict. Labels other
// than 0 and 1 are rejected rather than coerced.
func VerdictFromLabel(label int) (Verdict, error) {
	switch Verdict(label) {
	case VerdictNoRisk, VerdictAtRisk:
		return Verdict(label), nil
	default:
		return 0, fmt.Errorf("classifier label %d is not binary", label)
	}
}

// Label is the short human-readable form.
func (v Verdict) Label() string {
	if v == VerdictAtRisk {
		return "at-risk"
	}
	return "no risk"
}

// Advice is the longer message shown next to the label.
func (v Verdict) Advice() string {
	if v == VerdictAtRisk {
		return "The student may be at risk of motion sickness. Please take protective measures."
	}
	return "No obvious motion sickness risk. Keep up healthy habits."
}

func (v Verdict) String() string { return v.Label() }
