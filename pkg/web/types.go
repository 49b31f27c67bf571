package web

import (
	"maps"
	"time"

	"github.com/safehands/guide/pkg/models"
)

// ConnectRequest opens a conversation. UserID only prefixes the generated session id.
type ConnectRequest struct {
	UserID string `json:"user_id" validate:"omitempty,alphanum,max=64"`
}

type ConnectResponse struct {
	SessionID string    `json:"session_id"`
	CreatedAt time.Time `json:"created_at"`
}

// MessageRequest carries one user utterance.
type MessageRequest struct {
	Text string `json:"text" validate:"required,max=2000"`
}

type AcknowledgeResponse struct {
	SessionID    string `json:"session_id"`
	Acknowledged bool   `json:"acknowledged"`
}

type ClearResponse struct {
	SessionID string `json:"session_id"`
	Cleared   bool   `json:"cleared"`
}

type SessionsResponse struct {
	Sessions []string `json:"sessions"`
	Count    int      `json:"count"`
}

type StatsResponse struct {
	ActiveWorkflows int       `json:"active_workflows"`
	WorkflowTypes   []string  `json:"workflow_types"`
	StartedAt       time.Time `json:"started_at"`
	UptimeSeconds   int64     `json:"uptime_seconds"`
}

// StateResponse is the externally visible projection of a WorkflowState.
type StateResponse struct {
	SessionID              string                  `json:"session_id"`
	WorkflowType           string                  `json:"workflow_type"`
	Status                 models.WorkflowStatus   `json:"status"`
	WaitingForConfirmation bool                    `json:"waiting_for_confirmation"`
	CurrentStepIndex       int                     `json:"current_step_index"`
	TotalSteps             int                     `json:"total_steps"`
	CurrentStep            models.StepDescriptor   `json:"current_step"`
	Steps                  []models.StepDescriptor `json:"steps"`
	Context                map[string]any          `json:"context"`
	UserInput              string                  `json:"user_input"`
	StartedAt              time.Time               `json:"started_at"`
	UpdatedAt              time.Time               `json:"updated_at"`
}

func TransformStateResponse(state *models.WorkflowState) StateResponse {
	context := maps.Clone(state.Context)
	if context == nil {
		context = map[string]any{}
	}

	return StateResponse{
		SessionID:              state.SessionID,
		WorkflowType:           state.WorkflowType,
		Status:                 state.Status,
		WaitingForConfirmation: state.WaitingForConfirmation,
		CurrentStepIndex:       state.CurrentStepIndex,
		TotalSteps:             state.TotalSteps(),
		CurrentStep:            state.CurrentStep(),
		Steps:                  models.CloneSteps(state.Steps),
		Context:                context,
		UserInput:              state.UserInput,
		StartedAt:              state.StartedAt,
		UpdatedAt:              state.UpdatedAt,
	}
}
