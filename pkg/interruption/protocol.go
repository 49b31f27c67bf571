// Package interruption implements the session-scoped escalation channel for digressions.
//
// A session holds at most one pending record. Raising a new record overwrites the
// previous one, and acknowledging removes it atomically so only one caller escalates it.
package interruption

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/safehands/guide/pkg/eventbus"
	"github.com/safehands/guide/pkg/events"
	"github.com/safehands/guide/pkg/metrics"
	"github.com/safehands/guide/pkg/models"
	"github.com/safehands/guide/pkg/persistence"
)

type Config struct {
	Store     persistence.Store
	Namespace persistence.Namespace
	Publisher eventbus.EventPublisher
	Recorder  metrics.Recorder
	Logger    *slog.Logger
}

type Protocol struct {
	store     persistence.Store
	namespace persistence.Namespace
	publisher eventbus.EventPublisher
	recorder  metrics.Recorder
	logger    *slog.Logger
}

func NewProtocol(cfg Config) *Protocol {
	if cfg.Namespace.Prefix == "" {
		cfg.Namespace.Prefix = persistence.InterruptionNamespace.Prefix
	}

	if cfg.Namespace.TTL <= 0 {
		cfg.Namespace.TTL = persistence.InterruptionNamespace.TTL
	}

	if cfg.Recorder == nil {
		cfg.Recorder = metrics.Noop{}
	}

	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}

	return &Protocol{
		store:     cfg.Store,
		namespace: cfg.Namespace,
		publisher: cfg.Publisher,
		recorder:  cfg.Recorder,
		logger:    cfg.Logger.With("module", "interruption"),
	}
}

// Raise stores record as the session's pending interruption, replacing any earlier one.
func (p *Protocol) Raise(ctx context.Context, record *models.InterruptionRecord) error {
	if err := record.Validate(); err != nil {
		return err
	}

	record.Escalated = false

	data, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("failed to encode interruption for session %s: %w", record.SessionID, err)
	}

	if err := p.store.Put(ctx, p.namespace.Key(record.SessionID), data, p.namespace.TTL); err != nil {
		return err
	}

	p.recorder.IncInterruption("raised")
	p.logger.InfoContext(ctx, "Interruption raised",
		"session_id", record.SessionID,
		"step_index", record.StepIndexAtTime,
		"workflow_type", record.WorkflowType)

	p.publish(ctx, record.SessionID, events.InterruptionRaised{
		BaseEvent:  events.NewBaseEvent(events.InterruptionRaisedEvent, record.SessionID, record.WorkflowType),
		StepIndex:  record.StepIndexAtTime,
		StepText:   record.StepText,
		TotalSteps: record.TotalSteps,
		UserText:   record.UserText,
	})

	return nil
}

// Peek returns the pending record without changing it.
// A missing, escalated or unreadable record is reported as persistence.ErrNotFound.
func (p *Protocol) Peek(ctx context.Context, sessionID string) (*models.InterruptionRecord, error) {
	data, err := p.store.Get(ctx, p.namespace.Key(sessionID))
	if err != nil {
		return nil, err
	}

	record, err := decode(data)
	if err != nil {
		p.logger.WarnContext(ctx, "Ignoring unreadable interruption record", "session_id", sessionID, "error", err)

		return nil, fmt.Errorf("%w: interruption for session %s", persistence.ErrNotFound, sessionID)
	}

	if !record.Pending() {
		return nil, fmt.Errorf("%w: interruption for session %s", persistence.ErrNotFound, sessionID)
	}

	return record, nil
}

// Acknowledge marks the pending record escalated and removes it in one step.
// It returns false when there was nothing pending, including after a previous acknowledgement.
func (p *Protocol) Acknowledge(ctx context.Context, sessionID string) (bool, error) {
	data, err := p.store.Take(ctx, p.namespace.Key(sessionID))
	if err != nil {
		if persistence.IsNotFound(err) {
			return false, nil
		}

		return false, err
	}

	record, err := decode(data)
	if err != nil {
		p.logger.WarnContext(ctx, "Discarded unreadable interruption record", "session_id", sessionID, "error", err)

		return false, nil
	}

	if !record.Pending() {
		return false, nil
	}

	record.Escalated = true

	p.recorder.IncInterruption("acknowledged")
	p.logger.InfoContext(ctx, "Interruption acknowledged", "session_id", sessionID, "step_index", record.StepIndexAtTime)

	p.publish(ctx, sessionID, events.InterruptionAcknowledged{
		BaseEvent: events.NewBaseEvent(events.InterruptionAcknowledgedEvent, sessionID, record.WorkflowType),
		StepIndex: record.StepIndexAtTime,
		RaisedAt:  record.RaisedAt,
	})

	return true, nil
}

func (p *Protocol) publish(ctx context.Context, sessionID string, event eventbus.Event) {
	if p.publisher == nil {
		return
	}

	if err := p.publisher.Publish(ctx, sessionID, event); err != nil {
		p.logger.ErrorContext(ctx, "Failed to publish event",
			"session_id", sessionID, "event_type", event.GetType(), "error", err)
	}
}

func decode(data []byte) (*models.InterruptionRecord, error) {
	var record models.InterruptionRecord

	if err := json.Unmarshal(data, &record); err != nil {
		return nil, err
	}

	if err := record.Validate(); err != nil {
		return nil, err
	}

	return &record, nil
}
