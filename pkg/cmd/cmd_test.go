package cmd

import (
	"context"
	"errors"
	"log/slog"
	"testing"

	"github.com/safehands/guide/pkg/generation"
	"github.com/safehands/guide/pkg/metrics"
	"github.com/safehands/guide/pkg/persistence/memory"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseStoreProvider(t *testing.T) {
	tests := []struct {
		url      string
		expected string
	}{
		{url: "", expected: "memory"},
		{url: "memory://", expected: "memory"},
		{url: "redis://localhost:6379/0", expected: "redis"},
		{url: "REDISS://cache:6380", expected: "rediss"},
		{url: "postgres://db", expected: "postgres"},
		{url: "bogus", expected: "bogus"},
	}

	for _, tt := range tests {
		t.Run(tt.url, func(t *testing.T) {
			assert.Equal(t, tt.expected, parseStoreProvider(tt.url))
		})
	}
}

func TestNewStore(t *testing.T) {
	ctx := context.Background()

	store, err := NewStore(ctx, slog.Default(), "memory://")
	require.NoError(t, err)
	assert.IsType(t, &memory.Store{}, store)
	require.NoError(t, store.Close(ctx))

	_, err = NewStore(ctx, slog.Default(), "postgres://db")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported store provider")

	_, err = NewStore(ctx, slog.Default(), "redis://%zz")
	require.Error(t, err)
}

func TestNewEventBus(t *testing.T) {
	bus, err := NewEventBus("none", nil, "test", slog.Default())
	require.NoError(t, err)
	assert.Nil(t, bus)

	bus, err = NewEventBus("gochannel", nil, "test", slog.Default())
	require.NoError(t, err)
	require.NotNil(t, bus)
	assert.NotEmpty(t, bus.GenerateID())
	require.NoError(t, bus.Close())

	_, err = NewEventBus("kafka", nil, "test", slog.Default())
	require.Error(t, err)

	_, err = NewEventBus("rabbitmq", nil, "test", slog.Default())
	require.Error(t, err)
}

func TestNewGenerator(t *testing.T) {
	tests := []struct {
		name    string
		cfg     GeneratorConfig
		wantErr bool
	}{
		{name: "none", cfg: GeneratorConfig{Provider: "none"}},
		{name: "empty provider", cfg: GeneratorConfig{}},
		{name: "openai", cfg: GeneratorConfig{Provider: "openai", OpenAIAPIKey: "sk-test"}},
		{name: "anthropic", cfg: GeneratorConfig{Provider: "anthropic", AnthropicAPIKey: "sk-ant-test"}},
		{name: "openai without key", cfg: GeneratorConfig{Provider: "openai"}, wantErr: true},
		{name: "anthropic without key", cfg: GeneratorConfig{Provider: "anthropic"}, wantErr: true},
		{name: "unknown", cfg: GeneratorConfig{Provider: "llama"}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gen, err := NewGenerator(tt.cfg, metrics.Noop{})
			if tt.wantErr {
				require.Error(t, err)

				return
			}

			require.NoError(t, err)
			assert.NotNil(t, gen)
		})
	}
}

func TestNewGenerator_DisabledFails(t *testing.T) {
	gen, err := NewGenerator(GeneratorConfig{Provider: "none"}, metrics.Noop{})
	require.NoError(t, err)

	_, err = gen.Generate(context.Background(), "prompt")
	require.Error(t, err)
	assert.True(t, errors.Is(err, generation.ErrGenerationFailure))
}
