package models

import (
	"fmt"
	"time"
)

// InterruptionRecord captures a digression raised while a workflow was active.
type InterruptionRecord struct {
	SessionID       string    `json:"session_id"         validate:"required"`
	RaisedAt        time.Time `json:"raised_at"          validate:"required"`
	UserText        string    `json:"user_text"`
	StepIndexAtTime int       `json:"step_index_at_time" validate:"min=0"`
	StepText        string    `json:"step_text,omitempty"`
	TotalSteps      int       `json:"total_steps,omitempty"`
	WorkflowType    string    `json:"workflow_type"      validate:"required"`
	Escalated       bool      `json:"escalated"`
}

// NewInterruptionRecord builds a pending record for the state's current step.
func NewInterruptionRecord(state *WorkflowState, userText string, now time.Time) *InterruptionRecord {
	return &InterruptionRecord{
		SessionID:       state.SessionID,
		RaisedAt:        now,
		UserText:        userText,
		StepIndexAtTime: state.CurrentStepIndex,
		StepText:        state.CurrentStep().Text,
		TotalSteps:      state.TotalSteps(),
		WorkflowType:    state.WorkflowType,
		Escalated:       false,
	}
}

// Validate checks the record read back from a store.
func (r *InterruptionRecord) Validate() error {
	if err := validate.Struct(r); err != nil {
		return fmt.Errorf("invalid interruption record: %w", err)
	}

	return nil
}

// Pending reports whether the record still awaits escalation.
func (r *InterruptionRecord) Pending() bool {
	return r != nil && !r.Escalated
}
