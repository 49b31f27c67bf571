package models

// ResponseKind tells the transport how to present a reply.
type ResponseKind string

const (
	ResponseKindInstruction ResponseKind = "instruction"
	ResponseKindError       ResponseKind = "error"
)

// TurnResult is the outcome of processing one inbound message.
type TurnResult struct {
	SessionID      string       `json:"session_id"`
	ReplyText      string       `json:"reply_text"`
	ResponseKind   ResponseKind `json:"response_kind"`
	Classification string       `json:"classification,omitempty"`
	StepIndex      *int         `json:"step_index,omitempty"`
	TotalSteps     int          `json:"total_steps,omitempty"`
}
