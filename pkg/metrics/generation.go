package metrics

import (
	"context"
	"time"

	"github.com/safehands/guide/pkg/generation"
)

type instrumentedGenerator struct {
	next     generation.Generator
	recorder Recorder
	provider string
}

// InstrumentGenerator records the outcome and latency of every call to next.
func InstrumentGenerator(next generation.Generator, recorder Recorder, provider string) generation.Generator {
	return &instrumentedGenerator{next: next, recorder: recorder, provider: provider}
}

func (g *instrumentedGenerator) Generate(ctx context.Context, prompt string) (string, error) {
	start := time.Now()
	text, err := g.next.Generate(ctx, prompt)

	errorType := ""

	switch {
	case err == nil:
	case generation.IsTimeout(err):
		errorType = "timeout"
	default:
		errorType = "failure"
	}

	g.recorder.ObserveGeneration(g.provider, err == nil, errorType, time.Since(start))

	return text, err
}
