package workflow

import (
	"errors"
	"testing"
	"time"

	"github.com/safehands/guide/pkg/mocks"
	"github.com/safehands/guide/pkg/models"
	"github.com/safehands/guide/pkg/persistence"
	"github.com/safehands/guide/pkg/persistence/memory"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func testSteps() []models.StepDescriptor {
	return []models.StepDescriptor{
		{Text: "Open the app"},
		{Text: "Search for food", ExpectedConfirmations: []string{"searched"}},
		{Text: "Place the order"},
	}
}

func TestRepository_SaveLoadDelete(t *testing.T) {
	ctx := t.Context()
	repo := NewRepository(memory.NewStore(time.Minute), persistence.WorkflowNamespace)
	now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)

	state := models.NewWorkflowState("s1", "food_order", "order food", testSteps(), now)
	require.NoError(t, repo.Save(ctx, state))

	loaded, err := repo.Load(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, state.Steps, loaded.Steps)
	assert.Equal(t, 0, loaded.CurrentStepIndex)
	assert.Equal(t, models.WorkflowStatusActive, loaded.Status)
	assert.True(t, loaded.StartedAt.Equal(now))

	ids, err := repo.ListSessionIDs(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"s1"}, ids)

	existed, err := repo.Delete(ctx, "s1")
	require.NoError(t, err)
	assert.True(t, existed)

	_, err = repo.Load(ctx, "s1")
	assert.True(t, persistence.IsNotFound(err))

	existed, err = repo.Delete(ctx, "s1")
	require.NoError(t, err)
	assert.False(t, existed)
}

func TestRepository_LoadInvalidRecords(t *testing.T) {
	tests := []struct {
		name string
		data string
	}{
		{"not json", "{broken"},
		{"missing steps", `{"session_id":"s1","workflow_type":"food_order","current_step_index":0,"status":"active"}`},
		{"empty steps", `{"session_id":"s1","workflow_type":"food_order","steps":[],"current_step_index":0,"status":"active"}`},
		{"index out of range", `{"session_id":"s1","workflow_type":"food_order","steps":[{"text":"a"}],"current_step_index":1,"status":"active"}`},
		{"negative index", `{"session_id":"s1","workflow_type":"food_order","steps":[{"text":"a"}],"current_step_index":-1,"status":"active"}`},
		{"completed status", `{"session_id":"s1","workflow_type":"food_order","steps":[{"text":"a"}],"current_step_index":0,"status":"completed"}`},
		{"foreign session", `{"session_id":"s2","workflow_type":"food_order","steps":[{"text":"a"}],"current_step_index":0,"status":"active"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := t.Context()
			store := memory.NewStore(time.Minute)
			require.NoError(t, store.Put(ctx, "workflow:s1", []byte(tt.data), time.Minute))

			_, err := NewRepository(store, persistence.WorkflowNamespace).Load(ctx, "s1")
			require.Error(t, err)
			assert.True(t, models.IsInvalidSessionState(err))
		})
	}
}

func TestRepository_SaveRejectsInvalidState(t *testing.T) {
	store := memory.NewStore(time.Minute)
	repo := NewRepository(store, persistence.WorkflowNamespace)

	state := models.NewWorkflowState("s1", "food_order", "", testSteps(), time.Now())
	state.CurrentStepIndex = 3

	err := repo.Save(t.Context(), state)
	require.Error(t, err)
	assert.True(t, models.IsInvalidSessionState(err))
	assert.Equal(t, 0, store.Len())
}

func TestRepository_HealthCheck(t *testing.T) {
	message, ok := NewRepository(nil, persistence.WorkflowNamespace).HealthCheck(t.Context())
	assert.False(t, ok)
	assert.Equal(t, "Persistence layer not initialized", message)

	message, ok = NewRepository(memory.NewStore(time.Minute), persistence.WorkflowNamespace).HealthCheck(t.Context())
	assert.True(t, ok)
	assert.Equal(t, "Persistence layer is healthy", message)

	store := &mocks.MockStore{}
	store.On("HealthCheck", mock.Anything).Return(errors.New("connection refused"))

	message, ok = NewRepository(store, persistence.WorkflowNamespace).HealthCheck(t.Context())
	assert.False(t, ok)
	assert.Contains(t, message, "connection refused")
}
