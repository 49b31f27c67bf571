package otelhelper

import (
	"context"
	"errors"

	"github.com/safehands/guide/pkg/generation"
	"github.com/safehands/guide/pkg/models"
	"github.com/safehands/guide/pkg/persistence"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const ErrorKindKey = "safehands.error.kind"

// ErrorKind maps err onto the small set of failure classes a turn can hit.
func ErrorKind(err error) string {
	switch {
	case persistence.IsStoreUnavailable(err):
		return "store_unavailable"
	case models.IsInvalidSessionState(err):
		return "invalid_state"
	case generation.IsTimeout(err), errors.Is(err, context.DeadlineExceeded):
		return "timeout"
	case errors.Is(err, generation.ErrGenerationFailure):
		return "generation_failure"
	case errors.Is(err, context.Canceled):
		return "canceled"
	default:
		return "internal"
	}
}

// SetError marks span failed and records the error with its kind.
func SetError(span trace.Span, err error, attrs ...attribute.KeyValue) {
	kind := attribute.String(ErrorKindKey, ErrorKind(err))

	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
	span.SetAttributes(kind)
	span.AddEvent("turn_failed", trace.WithAttributes(append(attrs, kind)...))
}
