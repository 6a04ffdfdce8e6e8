package engine

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
)

// RuntimeError represents an error detected while walking a scenario.
//
// Runtime errors include:
//   - Quota exceeded: a walk took more jumps than the hop quota allows
//   - Invalid input: a choice for a step that is not current, or an unknown key
//
// Dangling jump targets are not errors: the jump is logged and skipped.
type RuntimeError struct {
	// Code identifies the error category.
	Code RuntimeErrorCode

	// Message is a human-readable description.
	Message string

	// Step identifies the step the walk was at, if known.
	Step uuid.UUID

	// Details contains additional context.
	Details map[string]string

	// Err is the underlying cause, if any.
	Err error
}

// RuntimeErrorCode categorizes runtime errors.
type RuntimeErrorCode string

const (
	// ErrCodeQuotaExceeded indicates a walk exceeded the hop quota.
	ErrCodeQuotaExceeded RuntimeErrorCode = "QUOTA_EXCEEDED"

	// ErrCodeInvalidInput indicates an input that does not fit the current step.
	ErrCodeInvalidInput RuntimeErrorCode = "INVALID_INPUT"
)

// Error implements the error interface.
func (e *RuntimeError) Error() string {
	if e.Step != uuid.Nil {
		return fmt.Sprintf("%s: %s (step=%s)", e.Code, e.Message, e.Step)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause.
func (e *RuntimeError) Unwrap() error {
	return e.Err
}

// IsQuotaError returns true if the error is a quota exceeded error.
// Matches both RuntimeError with ErrCodeQuotaExceeded and StepsExceededError.
// Uses errors.As to handle wrapped errors.
func IsQuotaError(err error) bool {
	var re *RuntimeError
	if errors.As(err, &re) && re.Code == ErrCodeQuotaExceeded {
		return true
	}
	var se *StepsExceededError
	return errors.As(err, &se)
}

// IsInputError returns true if the error rejects a player input.
func IsInputError(err error) bool {
	var re *RuntimeError
	return errors.As(err, &re) && re.Code == ErrCodeInvalidInput
}

// NewQuotaError wraps a StepsExceededError for the step the walk started from.
func NewQuotaError(step uuid.UUID, cause *StepsExceededError) *RuntimeError {
	return &RuntimeError{
		Code:    ErrCodeQuotaExceeded,
		Message: fmt.Sprintf("walk exceeded max hops (%d > %d)", cause.Hops, cause.Limit),
		Step:    step,
		Details: map[string]string{
			"hops":     fmt.Sprintf("%d", cause.Hops),
			"max_hops": fmt.Sprintf("%d", cause.Limit),
		},
		Err: cause,
	}
}

// NewInputError creates a RuntimeError rejecting an input.
func NewInputError(step uuid.UUID, format string, args ...any) *RuntimeError {
	return &RuntimeError{
		Code:    ErrCodeInvalidInput,
		Message: fmt.Sprintf(format, args...),
		Step:    step,
	}
}
