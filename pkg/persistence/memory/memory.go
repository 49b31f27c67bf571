// Package memory provides an in-process Store backed by go-cache.
package memory

import (
	"context"
	"hash/fnv"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/patrickmn/go-cache"
	"github.com/safehands/guide/pkg/persistence"
)

const (
	defaultCleanupInterval = time.Minute
	lockStripes            = 64
)

// Store implements persistence.Store in memory. Data does not survive a restart.
type Store struct {
	items *cache.Cache

	// stripes make Take atomic with respect to concurrent writers of the same
	// key. Keys on different stripes never wait for each other.
	stripes [lockStripes]sync.Mutex
}

// NewStore creates an in-memory store that purges expired keys every cleanupInterval.
func NewStore(cleanupInterval time.Duration) *Store {
	if cleanupInterval <= 0 {
		cleanupInterval = defaultCleanupInterval
	}

	return &Store{
		items: cache.New(cache.NoExpiration, cleanupInterval),
	}
}

func (s *Store) Put(_ context.Context, key string, value []byte, ttl time.Duration) error {
	if ttl <= 0 {
		ttl = cache.NoExpiration
	}

	mu := s.stripe(key)
	mu.Lock()
	defer mu.Unlock()

	s.items.Set(key, copyBytes(value), ttl)

	return nil
}

func (s *Store) Get(_ context.Context, key string) ([]byte, error) {
	value, found := s.items.Get(key)
	if !found {
		return nil, &persistence.StoreError{Op: "Get", Key: key, Err: persistence.ErrNotFound}
	}

	return copyBytes(value.([]byte)), nil
}

func (s *Store) Delete(_ context.Context, key string) (bool, error) {
	mu := s.stripe(key)
	mu.Lock()
	defer mu.Unlock()

	_, found := s.items.Get(key)
	s.items.Delete(key)

	return found, nil
}

func (s *Store) Take(_ context.Context, key string) ([]byte, error) {
	mu := s.stripe(key)
	mu.Lock()
	defer mu.Unlock()

	value, found := s.items.Get(key)
	if !found {
		return nil, &persistence.StoreError{Op: "Take", Key: key, Err: persistence.ErrNotFound}
	}

	s.items.Delete(key)

	return copyBytes(value.([]byte)), nil
}

// ListKeys returns the unexpired keys starting with prefix, sorted.
func (s *Store) ListKeys(_ context.Context, prefix string) ([]string, error) {
	keys := make([]string, 0)

	for key := range s.items.Items() {
		if strings.HasPrefix(key, prefix) {
			keys = append(keys, key)
		}
	}

	sort.Strings(keys)

	return keys, nil
}

// Len returns the number of unexpired keys.
func (s *Store) Len() int {
	return s.items.ItemCount()
}

// Flush removes every key.
func (s *Store) Flush() {
	s.items.Flush()
}

func (s *Store) HealthCheck(_ context.Context) error {
	return nil
}

func (s *Store) Close(_ context.Context) error {
	return nil
}

func (s *Store) stripe(key string) *sync.Mutex {
	return &s.stripes[stripeIndex(key)]
}

func stripeIndex(key string) uint32 {
	h := fnv.New32a()
	_, _ = h.Write([]byte(key))

	return h.Sum32() % lockStripes
}

func copyBytes(b []byte) []byte {
	if b == nil {
		return nil
	}

	out := make([]byte, len(b))
	copy(out, b)

	return out
}
