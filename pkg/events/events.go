// Package events defines notifications emitted as guided workflows and interruptions change state.
package events

import (
	"time"

	"github.com/google/uuid"
)

type EventType string

const Topic = "safehands.workflow.events"

const EventMetadataKey = "key"
const EventTypeMetadataKey = "event_type"

const (
	// Workflow lifecycle events.
	WorkflowStartedEvent      EventType = "workflow.started"
	WorkflowStepAdvancedEvent EventType = "workflow.step_advanced"
	WorkflowCompletedEvent    EventType = "workflow.completed"
	WorkflowClearedEvent      EventType = "workflow.cleared"

	// Interruption escalation events.
	InterruptionRaisedEvent       EventType = "interruption.raised"
	InterruptionAcknowledgedEvent EventType = "interruption.acknowledged"
)

type BaseEvent struct {
	ID           string         `json:"id"`
	Type         EventType      `json:"type"`
	Timestamp    time.Time      `json:"timestamp"`
	SessionID    string         `json:"session_id"`
	WorkflowType string         `json:"workflow_type,omitempty"`
	Metadata     map[string]any `json:"metadata,omitempty"`
}

type WorkflowStarted struct {
	BaseEvent

	TotalSteps int    `json:"total_steps"`
	UserInput  string `json:"user_input"`
	Restarted  bool   `json:"restarted"`
}

func (w WorkflowStarted) GetType() EventType {
	return WorkflowStartedEvent
}

type WorkflowStepAdvanced struct {
	BaseEvent

	FromStep   int `json:"from_step"`
	ToStep     int `json:"to_step"`
	TotalSteps int `json:"total_steps"`
}

func (w WorkflowStepAdvanced) GetType() EventType {
	return WorkflowStepAdvancedEvent
}

type WorkflowCompleted struct {
	BaseEvent

	TotalSteps int           `json:"total_steps"`
	Duration   time.Duration `json:"duration"`
}

func (w WorkflowCompleted) GetType() EventType {
	return WorkflowCompletedEvent
}

type WorkflowCleared struct {
	BaseEvent

	StepIndex int `json:"step_index"`
}

func (w WorkflowCleared) GetType() EventType {
	return WorkflowClearedEvent
}

type InterruptionRaised struct {
	BaseEvent

	StepIndex  int    `json:"step_index"`
	StepText   string `json:"step_text"`
	TotalSteps int    `json:"total_steps"`
	UserText   string `json:"user_text"`
}

func (i InterruptionRaised) GetType() EventType {
	return InterruptionRaisedEvent
}

type InterruptionAcknowledged struct {
	BaseEvent

	StepIndex int       `json:"step_index"`
	RaisedAt  time.Time `json:"raised_at"`
}

func (i InterruptionAcknowledged) GetType() EventType {
	return InterruptionAcknowledgedEvent
}

func NewBaseEvent(eventType EventType, sessionID, workflowType string) BaseEvent {
	return BaseEvent{
		ID:           uuid.New().String(),
		Type:         eventType,
		Timestamp:    time.Now().UTC(),
		SessionID:    sessionID,
		WorkflowType: workflowType,
		Metadata:     make(map[string]any),
	}
}
