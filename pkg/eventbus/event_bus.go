// Package eventbus carries workflow and interruption notifications to interested consumers.
package eventbus

import (
	"context"

	"github.com/safehands/guide/pkg/events"
)

type Event interface {
	GetType() events.EventType
}

// EventPublisher publishes lifecycle events keyed by session id so one
// session's events keep their order on partitioned transports.
type EventPublisher interface {
	Publish(ctx context.Context, sessionID string, event Event) error
}

// EventSubscriber dispatches decoded events to the handler registered for their type.
type EventSubscriber interface {
	Handle(eventType events.EventType, handler EventHandler) error
	Subscribe(ctx context.Context) error
}

type EventHandler func(ctx context.Context, event any) error

type EventBus interface {
	EventPublisher
	EventSubscriber
	Close() error
	GenerateID() string
}
