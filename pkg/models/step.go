package models

import "strings"

// StepDescriptor is a single instruction in a workflow.
type StepDescriptor struct {
	Text                  string   `json:"text"                             validate:"required" yaml:"text"`
	ExpectedConfirmations []string `json:"expected_confirmations,omitempty"                     yaml:"expected_confirmations,omitempty"`
}

// ConfirmedBy reports whether text contains one of the step specific confirmations.
// Matching is case-insensitive and substring based.
func (s StepDescriptor) ConfirmedBy(text string) bool {
	normalized := strings.ToLower(strings.TrimSpace(text))
	if normalized == "" {
		return false
	}

	for _, confirmation := range s.ExpectedConfirmations {
		c := strings.ToLower(strings.TrimSpace(confirmation))
		if c != "" && strings.Contains(normalized, c) {
			return true
		}
	}

	return false
}

// CloneSteps returns a deep copy of steps so callers can never share backing arrays.
func CloneSteps(steps []StepDescriptor) []StepDescriptor {
	if steps == nil {
		return nil
	}

	cloned := make([]StepDescriptor, len(steps))
	for i, step := range steps {
		cloned[i] = StepDescriptor{
			Text:                  step.Text,
			ExpectedConfirmations: append([]string(nil), step.ExpectedConfirmations...),
		}
	}

	return cloned
}
