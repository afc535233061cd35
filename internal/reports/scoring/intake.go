// Package scoring implements the pricing intelligence evaluation: a pure,
// deterministic mapping from a normalized intake to a scored report.
package scoring

import (
	"fmt"
	"strings"
)

// Intake holds the normalized categorical answers from the intake form.
// One value per field, from a fixed set (see allowedValues).
type Intake struct {
	Pages        string `json:"pages"`
	Booking      string `json:"booking"`
	Payments     string `json:"payments"`
	Automation   string `json:"automation"`
	Integrations string `json:"integrations"`
	Content      string `json:"content"`
	Stakeholders string `json:"stakeholders"`
	Timeline     string `json:"timeline"`
}

// Answer values that mark a dimension as unresolved. Unsure answers score a
// small positive delta and register both a risk flag and a pricing buffer.
const (
	AnswerUnsure = "unsure"

	BookingBuiltin     = "builtin"
	PaymentsSystem     = "system"
	AutomationAdvanced = "advanced"
)

var allowedValues = map[string][]string{
	"pages":        {"1", "2-3", "4-5", "6-10"},
	"booking":      {"none", "external", BookingBuiltin, AnswerUnsure},
	"payments":     {"none", "link", PaymentsSystem, AnswerUnsure},
	"automation":   {"none", "basic", AutomationAdvanced, AnswerUnsure},
	"integrations": {"none", "1-2", "3+"},
	"content":      {"ready", "partial", "not-ready"},
	"stakeholders": {"1", "2-3", "4+"},
	"timeline":     {"4+ weeks", "2-3 weeks", "under-14"},
}

// Validate checks every intake field against its allowed value set.
func (in Intake) Validate() error {
	var invalid []string
	for _, field := range []struct {
		name  string
		value string
	}{
		{"pages", in.Pages},
		{"booking", in.Booking},
		{"payments", in.Payments},
		{"automation", in.Automation},
		{"integrations", in.Integrations},
		{"content", in.Content},
		{"stakeholders", in.Stakeholders},
		{"timeline", in.Timeline},
	} {
		if !contains(allowedValues[field.name], field.value) {
			invalid = append(invalid, field.name)
		}
	}
	if len(invalid) > 0 {
		return fmt.Errorf("invalid intake values for: %s", strings.Join(invalid, ", "))
	}
	return nil
}

// SystemFeatureCount returns how many system-level features the intake
// selects. The Advanced tier requires a minimum count of these in addition
// to the score threshold.
func (in Intake) SystemFeatureCount() int {
	count := 0
	if in.Booking == BookingBuiltin {
		count++
	}
	if in.Payments == PaymentsSystem {
		count++
	}
	if in.Automation == AutomationAdvanced {
		count++
	}
	return count
}

func contains(values []string, value string) bool {
	for _, v := range values {
		if v == value {
			return true
		}
	}
	return false
}
