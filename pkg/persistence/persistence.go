// Package persistence provides the key-value storage abstraction used for session state.
package persistence

import (
	"context"
	"strings"
	"time"
)

// Store is a key-value store with per-key expiry.
// A key read after its TTL elapsed is reported as ErrNotFound, never as a failure.
type Store interface {
	Put(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Get(ctx context.Context, key string) ([]byte, error)
	Delete(ctx context.Context, key string) (bool, error)
	ListKeys(ctx context.Context, prefix string) ([]string, error)

	// Take atomically reads and removes key. Two concurrent callers never both succeed.
	Take(ctx context.Context, key string) ([]byte, error)

	HealthCheck(ctx context.Context) error
	Close(ctx context.Context) error
}

// Namespace prefixes keys of one record family inside a shared Store.
type Namespace struct {
	Prefix string
	TTL    time.Duration
}

// Key returns the store key for id.
func (n Namespace) Key(id string) string {
	return n.Prefix + id
}

// ID strips the namespace prefix from key.
func (n Namespace) ID(key string) string {
	return strings.TrimPrefix(key, n.Prefix)
}

var (
	WorkflowNamespace     = Namespace{Prefix: "workflow:", TTL: time.Hour}
	InterruptionNamespace = Namespace{Prefix: "interruption:", TTL: 5 * time.Minute}
)
