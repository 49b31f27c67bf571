package cmd

import (
	"fmt"

	"github.com/safehands/guide/pkg/generation"
	"github.com/safehands/guide/pkg/generation/anthropic"
	"github.com/safehands/guide/pkg/generation/openai"
	"github.com/safehands/guide/pkg/metrics"
)

type GeneratorConfig struct {
	Provider        string
	OpenAIAPIKey    string
	AnthropicAPIKey string
	Model           string
}

// NewGenerator builds the text generator for cfg.Provider, instrumented with recorder.
// The "none" provider yields a generator that always fails, so digressions get the templated answer.
func NewGenerator(cfg GeneratorConfig, recorder metrics.Recorder) (generation.Generator, error) {
	var (
		gen generation.Generator
		err error
	)

	switch cfg.Provider {
	case "", "none":
		gen = generation.Disabled{}
	case "openai":
		gen, err = openai.NewClient(openai.Config{APIKey: cfg.OpenAIAPIKey, Model: cfg.Model})
	case "anthropic":
		gen, err = anthropic.NewClient(anthropic.Config{APIKey: cfg.AnthropicAPIKey, Model: cfg.Model})
	default:
		return nil, fmt.Errorf("unsupported llm provider: %s", cfg.Provider)
	}

	if err != nil {
		return nil, fmt.Errorf("failed to create %s generator: %w", cfg.Provider, err)
	}

	provider := cfg.Provider
	if provider == "" {
		provider = "none"
	}

	return metrics.InstrumentGenerator(gen, recorder, provider), nil
}
