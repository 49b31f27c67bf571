package models_test

import (
	"testing"
	"time"

	"github.com/safehands/guide/pkg/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewInterruptionRecord(t *testing.T) {
	now := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)
	state := models.NewWorkflowState("s1", "food_order", "", testSteps, now)
	state.Advance(now)

	record := models.NewInterruptionRecord(state, "what is a rating?", now)

	assert.Equal(t, "s1", record.SessionID)
	assert.Equal(t, "what is a rating?", record.UserText)
	assert.Equal(t, 1, record.StepIndexAtTime)
	assert.Equal(t, "Search for food", record.StepText)
	assert.Equal(t, 3, record.TotalSteps)
	assert.Equal(t, "food_order", record.WorkflowType)
	assert.True(t, record.Pending())
	require.NoError(t, record.Validate())
}

func TestInterruptionRecord_Validate(t *testing.T) {
	tests := []struct {
		name   string
		record models.InterruptionRecord
	}{
		{name: "missing session", record: models.InterruptionRecord{RaisedAt: time.Now(), WorkflowType: "food_order"}},
		{name: "missing raised at", record: models.InterruptionRecord{SessionID: "s1", WorkflowType: "food_order"}},
		{name: "missing type", record: models.InterruptionRecord{SessionID: "s1", RaisedAt: time.Now()}},
		{
			name: "negative step",
			record: models.InterruptionRecord{
				SessionID: "s1", RaisedAt: time.Now(), WorkflowType: "food_order", StepIndexAtTime: -1,
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Error(t, tt.record.Validate())
		})
	}
}

func TestInterruptionRecord_Pending(t *testing.T) {
	var nilRecord *models.InterruptionRecord
	assert.False(t, nilRecord.Pending())

	assert.False(t, (&models.InterruptionRecord{Escalated: true}).Pending())
	assert.True(t, (&models.InterruptionRecord{}).Pending())
}
