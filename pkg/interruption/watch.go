package interruption

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/safehands/guide/pkg/eventbus"
	"github.com/safehands/guide/pkg/events"
)

// Watch logs interruption lifecycle events from sub so pending escalations
// are visible in the service log even without an external consumer.
func Watch(ctx context.Context, sub eventbus.EventSubscriber, logger *slog.Logger) error {
	logger = logger.With("module", "interruption_watch")

	err := sub.Handle(events.InterruptionRaisedEvent, func(ctx context.Context, event any) error {
		raised, ok := event.(*events.InterruptionRaised)
		if !ok {
			return fmt.Errorf("unexpected event payload %T", event)
		}

		logger.WarnContext(ctx, "Interruption awaiting escalation",
			"session_id", raised.SessionID,
			"workflow_type", raised.WorkflowType,
			"step", raised.StepIndex+1,
			"total_steps", raised.TotalSteps,
			"user_text", raised.UserText,
		)

		return nil
	})
	if err != nil {
		return err
	}

	err = sub.Handle(events.InterruptionAcknowledgedEvent, func(ctx context.Context, event any) error {
		acknowledged, ok := event.(*events.InterruptionAcknowledged)
		if !ok {
			return fmt.Errorf("unexpected event payload %T", event)
		}

		logger.InfoContext(ctx, "Interruption escalated",
			"session_id", acknowledged.SessionID,
			"waited", acknowledged.Timestamp.Sub(acknowledged.RaisedAt),
		)

		return nil
	})
	if err != nil {
		return err
	}

	return sub.Subscribe(ctx)
}
