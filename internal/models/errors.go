package models

import (
	"errors"
	"strings"
)

// ErrRuleNotFound is returned when an operation needs an existing rule for a
// device and none is stored.
var ErrRuleNotFound = errors.New("automation rule not found")

// ValidationError carries every violation found in a rule configuration, plus
// non-blocking warnings. Validation runs before any write, so a ValidationError
// never leaves persisted state changed.
type ValidationError struct {
	Errors   []string
	Warnings []string
}

func (e *ValidationError) Error() string {
	if len(e.Errors) == 0 {
		return "validation failed"
	}
	return "validation failed: " + strings.Join(e.Errors, "; ")
}

// NewValidationError builds a ValidationError from a single message.
func NewValidationError(msg string) *ValidationError {
	return &ValidationError{Errors: []string{msg}}
}
