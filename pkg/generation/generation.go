// Package generation defines the text-generation capability used to answer digressions.
package generation

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
)

// DefaultTimeout bounds a single generation call.
const DefaultTimeout = 30 * time.Second

var (
	// ErrGenerationTimeout indicates the generator exceeded its deadline.
	ErrGenerationTimeout = errors.New("text generation timed out")

	// ErrGenerationFailure indicates the generator failed or returned nothing usable.
	ErrGenerationFailure = errors.New("text generation failed")
)

// Generator turns a prompt into text.
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// Func adapts a function to Generator.
type Func func(ctx context.Context, prompt string) (string, error)

func (f Func) Generate(ctx context.Context, prompt string) (string, error) {
	return f(ctx, prompt)
}

// Disabled is used when no provider is configured. Every call fails so callers take their fallback path.
type Disabled struct{}

func (Disabled) Generate(_ context.Context, _ string) (string, error) {
	return "", fmt.Errorf("%w: no text generation provider configured", ErrGenerationFailure)
}

type timeoutGenerator struct {
	next    Generator
	timeout time.Duration
}

// WithTimeout bounds every call to next and normalizes its failures to
// ErrGenerationTimeout or ErrGenerationFailure.
func WithTimeout(next Generator, timeout time.Duration) Generator {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	return &timeoutGenerator{next: next, timeout: timeout}
}

func (g *timeoutGenerator) Generate(ctx context.Context, prompt string) (string, error) {
	if strings.TrimSpace(prompt) == "" {
		return "", fmt.Errorf("%w: prompt cannot be empty", ErrGenerationFailure)
	}

	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	type outcome struct {
		text string
		err  error
	}

	done := make(chan outcome, 1)

	go func() {
		text, err := g.next.Generate(ctx, prompt)
		done <- outcome{text: text, err: err}
	}()

	select {
	case <-ctx.Done():
		return "", fmt.Errorf("%w after %s", ErrGenerationTimeout, g.timeout)
	case out := <-done:
		switch {
		case errors.Is(out.err, context.DeadlineExceeded) || errors.Is(out.err, ErrGenerationTimeout):
			return "", fmt.Errorf("%w: %w", ErrGenerationTimeout, out.err)
		case out.err != nil:
			if errors.Is(out.err, ErrGenerationFailure) {
				return "", out.err
			}

			return "", fmt.Errorf("%w: %w", ErrGenerationFailure, out.err)
		}

		text := strings.TrimSpace(out.text)
		if text == "" {
			return "", fmt.Errorf("%w: empty response", ErrGenerationFailure)
		}

		return text, nil
	}
}

// IsTimeout checks if an error indicates a generation deadline was exceeded.
func IsTimeout(err error) bool {
	return errors.Is(err, ErrGenerationTimeout)
}
