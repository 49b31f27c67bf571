// Package models defines the records shared by the guided workflow engine and its stores.
package models

import (
	"fmt"
	"time"
)

// WorkflowStatus represents the lifecycle state of a guided workflow.
type WorkflowStatus string

const (
	WorkflowStatusActive    WorkflowStatus = "active"
	WorkflowStatusCompleted WorkflowStatus = "completed" // Never persisted, the record is deleted instead
)

// WorkflowState is the per-session position inside a workflow.
type WorkflowState struct {
	SessionID              string           `json:"session_id"               validate:"required"`
	WorkflowType           string           `json:"workflow_type"            validate:"required"`
	Steps                  []StepDescriptor `json:"steps"                    validate:"required,min=1,dive"`
	CurrentStepIndex       int              `json:"current_step_index"       validate:"min=0"`
	Status                 WorkflowStatus   `json:"status"                   validate:"required,oneof=active completed"`
	WaitingForConfirmation bool             `json:"waiting_for_confirmation"`
	Context                map[string]any   `json:"context,omitempty"`
	UserInput              string           `json:"user_input,omitempty"`
	StartedAt              time.Time        `json:"started_at"`
	UpdatedAt              time.Time        `json:"updated_at"`
}

// NewWorkflowState creates an active state at the first step with a private copy of steps.
func NewWorkflowState(sessionID, workflowType, userInput string, steps []StepDescriptor, now time.Time) *WorkflowState {
	return &WorkflowState{
		SessionID:              sessionID,
		WorkflowType:           workflowType,
		Steps:                  CloneSteps(steps),
		CurrentStepIndex:       0,
		Status:                 WorkflowStatusActive,
		WaitingForConfirmation: true,
		Context:                map[string]any{},
		UserInput:              userInput,
		StartedAt:              now,
		UpdatedAt:              now,
	}
}

// Validate checks the invariants that struct tags cannot express.
func (s *WorkflowState) Validate() error {
	if err := validate.Struct(s); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidSessionState, err)
	}

	if s.CurrentStepIndex >= len(s.Steps) {
		return fmt.Errorf("%w: step index %d out of range for %d steps",
			ErrInvalidSessionState, s.CurrentStepIndex, len(s.Steps))
	}

	if s.Status != WorkflowStatusActive {
		return fmt.Errorf("%w: stored status %q", ErrInvalidSessionState, s.Status)
	}

	return nil
}

// CurrentStep returns the step the user is working on.
func (s *WorkflowState) CurrentStep() StepDescriptor {
	return s.Steps[s.CurrentStepIndex]
}

// TotalSteps returns the number of steps captured at creation.
func (s *WorkflowState) TotalSteps() int {
	return len(s.Steps)
}

// IsLastStep reports whether the next confirmation completes the workflow.
func (s *WorkflowState) IsLastStep() bool {
	return s.CurrentStepIndex+1 >= len(s.Steps)
}

// Advance moves to the next step. It never moves past the last step.
func (s *WorkflowState) Advance(now time.Time) bool {
	if s.IsLastStep() {
		return false
	}

	s.CurrentStepIndex++
	s.Status = WorkflowStatusActive
	s.WaitingForConfirmation = true
	s.UpdatedAt = now

	return true
}
