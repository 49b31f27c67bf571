// Package cmd provides common initialization functions for command-line applications.
package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/safehands/guide/pkg/persistence"
	"github.com/safehands/guide/pkg/persistence/memory"
	redisstore "github.com/safehands/guide/pkg/persistence/redis"
)

const memoryCleanupInterval = time.Minute

var supportedStoreProviders = []string{"memory", "redis", "rediss"}

// NewStore builds the state store named by storeURL's scheme.
func NewStore(ctx context.Context, logger *slog.Logger, storeURL string) (persistence.Store, error) {
	provider := parseStoreProvider(storeURL)

	switch provider {
	case "memory":
		logger.InfoContext(ctx, "Using in-memory state store")

		return memory.NewStore(memoryCleanupInterval), nil
	case "redis", "rediss":
		store, err := redisstore.NewStore(ctx, storeURL, logger)
		if err != nil {
			return nil, fmt.Errorf("failed to create redis store: %w", err)
		}

		return store, nil
	default:
		return nil, fmt.Errorf("unsupported store provider %q (supported: %s)",
			provider, strings.Join(supportedStoreProviders, ", "))
	}
}

func parseStoreProvider(storeURL string) string {
	if storeURL == "" {
		return "memory"
	}

	scheme, _, found := strings.Cut(storeURL, "://")
	if !found {
		return storeURL
	}

	return strings.ToLower(scheme)
}
