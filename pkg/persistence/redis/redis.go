// Package redis provides a Store backed by Redis, shared by every API replica.
package redis

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	redis "github.com/redis/go-redis/v9"
	"github.com/safehands/guide/pkg/persistence"
)

const (
	connectTimeout = 5 * time.Second
	scanBatchSize  = 100
)

// Store implements persistence.Store on top of a Redis client.
type Store struct {
	client redis.UniversalClient
	logger *slog.Logger
}

// NewStore connects to the Redis instance described by url (redis://[:password@]host:port/db).
func NewStore(ctx context.Context, url string, logger *slog.Logger) (*Store, error) {
	options, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("invalid redis url: %w", err)
	}

	store := NewStoreWithClient(redis.NewClient(options), logger)

	ctx, cancel := context.WithTimeout(ctx, connectTimeout)
	defer cancel()

	if err := store.HealthCheck(ctx); err != nil {
		_ = store.client.Close()

		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	store.logger.InfoContext(ctx, "Connected to Redis", "addr", options.Addr, "db", options.DB)

	return store, nil
}

// NewStoreWithClient wraps an existing client. The store owns the client from now on.
func NewStoreWithClient(client redis.UniversalClient, logger *slog.Logger) *Store {
	return &Store{
		client: client,
		logger: logger.With("module", "redis_store"),
	}
}

func (s *Store) Put(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if ttl < 0 {
		ttl = 0
	}

	if err := s.client.Set(ctx, key, value, ttl).Err(); err != nil {
		return persistence.NewUnavailableError("Put", key, err)
	}

	return nil
}

func (s *Store) Get(ctx context.Context, key string) ([]byte, error) {
	value, err := s.client.Get(ctx, key).Bytes()
	if err != nil {
		return nil, classify("Get", key, err)
	}

	return value, nil
}

func (s *Store) Delete(ctx context.Context, key string) (bool, error) {
	removed, err := s.client.Del(ctx, key).Result()
	if err != nil {
		return false, persistence.NewUnavailableError("Delete", key, err)
	}

	return removed > 0, nil
}

// Take relies on GETDEL, which Redis executes atomically.
func (s *Store) Take(ctx context.Context, key string) ([]byte, error) {
	value, err := s.client.GetDel(ctx, key).Bytes()
	if err != nil {
		return nil, classify("Take", key, err)
	}

	return value, nil
}

// ListKeys walks the keyspace with SCAN so large databases are never blocked by KEYS.
func (s *Store) ListKeys(ctx context.Context, prefix string) ([]string, error) {
	keys := make([]string, 0)

	iter := s.client.Scan(ctx, 0, prefix+"*", scanBatchSize).Iterator()
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}

	if err := iter.Err(); err != nil {
		return nil, persistence.NewUnavailableError("ListKeys", prefix, err)
	}

	return uniqueKeys(keys), nil
}

// uniqueKeys drops repeats in first-seen order. SCAN may return a key more than
// once when the keyspace is rehashed during iteration.
func uniqueKeys(keys []string) []string {
	seen := make(map[string]struct{}, len(keys))
	unique := keys[:0]

	for _, key := range keys {
		if _, ok := seen[key]; ok {
			continue
		}

		seen[key] = struct{}{}
		unique = append(unique, key)
	}

	return unique
}

func (s *Store) HealthCheck(ctx context.Context) error {
	if err := s.client.Ping(ctx).Err(); err != nil {
		return persistence.NewUnavailableError("HealthCheck", "", err)
	}

	return nil
}

func (s *Store) Close(ctx context.Context) error {
	err := s.client.Close()
	if err != nil {
		s.logger.ErrorContext(ctx, "Error closing Redis client", "error", err)
	}

	return err
}

func classify(op, key string, err error) error {
	if errors.Is(err, redis.Nil) {
		return &persistence.StoreError{Op: op, Key: key, Err: persistence.ErrNotFound}
	}

	return persistence.NewUnavailableError(op, key, err)
}
