package models

import (
	"errors"

	"github.com/go-playground/validator/v10"
)

// ErrInvalidSessionState indicates a stored workflow state that violates its invariants.
var ErrInvalidSessionState = errors.New("invalid session state")

var validate = validator.New(validator.WithRequiredStructEnabled())

// IsInvalidSessionState checks if an error indicates a corrupt workflow state.
func IsInvalidSessionState(err error) bool {
	return errors.Is(err, ErrInvalidSessionState)
}
