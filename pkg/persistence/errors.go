// Package persistence provides standardized error types for persistence operations.
package persistence

import (
	"errors"
	"fmt"
)

// Standard persistence error types that all implementations should use.
var (
	// ErrNotFound indicates the key does not exist or has expired.
	ErrNotFound = errors.New("key not found")

	// ErrStoreUnavailable indicates the backing store could not be reached.
	ErrStoreUnavailable = errors.New("state store unavailable")
)

// StoreError wraps store errors with additional context.
type StoreError struct {
	Op  string // Operation being performed (e.g., "Get", "Put", "Take")
	Key string // Key or prefix if applicable
	Err error  // Underlying error
}

func (e *StoreError) Error() string {
	if e.Key == "" {
		return fmt.Sprintf("%s operation failed: %v", e.Op, e.Err)
	}

	return fmt.Sprintf("%s operation failed for key %s: %v", e.Op, e.Key, e.Err)
}

func (e *StoreError) Unwrap() error {
	return e.Err
}

// NewUnavailableError marks cause as a store availability failure.
func NewUnavailableError(op, key string, cause error) *StoreError {
	return &StoreError{
		Op:  op,
		Key: key,
		Err: fmt.Errorf("%w: %w", ErrStoreUnavailable, cause),
	}
}

// IsNotFound checks if an error indicates a missing or expired key.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsStoreUnavailable checks if an error indicates the store could not be reached.
func IsStoreUnavailable(err error) bool {
	return errors.Is(err, ErrStoreUnavailable)
}
