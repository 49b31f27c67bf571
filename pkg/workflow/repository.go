package workflow

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/safehands/guide/pkg/models"
	"github.com/safehands/guide/pkg/persistence"
)

// Repository reads and writes WorkflowState records in a Store namespace.
type Repository struct {
	store     persistence.Store
	namespace persistence.Namespace
}

func NewRepository(store persistence.Store, namespace persistence.Namespace) *Repository {
	return &Repository{
		store:     store,
		namespace: namespace,
	}
}

func (r *Repository) HealthCheck(ctx context.Context) (string, bool) {
	if r.store == nil {
		return "Persistence layer not initialized", false
	}

	if err := r.store.HealthCheck(ctx); err != nil {
		return "Persistence layer is unhealthy: " + err.Error(), false
	}

	return "Persistence layer is healthy", true
}

// Load returns the stored state. Records that fail to decode or validate are
// reported as models.ErrInvalidSessionState.
func (r *Repository) Load(ctx context.Context, sessionID string) (*models.WorkflowState, error) {
	data, err := r.store.Get(ctx, r.namespace.Key(sessionID))
	if err != nil {
		return nil, err
	}

	var state models.WorkflowState

	if err := json.Unmarshal(data, &state); err != nil {
		return nil, fmt.Errorf("%w: session %s: %w", models.ErrInvalidSessionState, sessionID, err)
	}

	if err := state.Validate(); err != nil {
		return nil, fmt.Errorf("session %s: %w", sessionID, err)
	}

	if state.SessionID != sessionID {
		return nil, fmt.Errorf("%w: record for session %s stored under %s",
			models.ErrInvalidSessionState, state.SessionID, sessionID)
	}

	return &state, nil
}

// Save writes the whole record in one Put, refreshing its TTL.
func (r *Repository) Save(ctx context.Context, state *models.WorkflowState) error {
	if err := state.Validate(); err != nil {
		return err
	}

	data, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("failed to encode state for session %s: %w", state.SessionID, err)
	}

	return r.store.Put(ctx, r.namespace.Key(state.SessionID), data, r.namespace.TTL)
}

func (r *Repository) Delete(ctx context.Context, sessionID string) (bool, error) {
	return r.store.Delete(ctx, r.namespace.Key(sessionID))
}

// ListSessionIDs returns the ids of all sessions holding a record.
func (r *Repository) ListSessionIDs(ctx context.Context) ([]string, error) {
	keys, err := r.store.ListKeys(ctx, r.namespace.Prefix)
	if err != nil {
		return nil, err
	}

	ids := make([]string, 0, len(keys))
	for _, key := range keys {
		ids = append(ids, r.namespace.ID(key))
	}

	return ids, nil
}
