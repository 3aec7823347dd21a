package evidence

import (
	"context"
	"errors"
	"fmt"

	"verity/pkg/platform/sentinel"
)

// ErrUnavailable matches every collaborator failure. Callers degrade to a
// fallback value when errors.Is(err, ErrUnavailable); it is never surfaced as
// a request failure.
var ErrUnavailable = sentinel.ErrUnavailable

// ErrorCategory is the normalized failure taxonomy for collaborator calls.
type ErrorCategory string

const (
	ErrorTimeout        ErrorCategory = "timeout"
	ErrorBadData        ErrorCategory = "bad_data"
	ErrorOutage         ErrorCategory = "outage"
	ErrorCircuitOpen    ErrorCategory = "circuit_open"
	ErrorNotConfigured  ErrorCategory = "not_configured"
	ErrorInternal       ErrorCategory = "internal"
	ErrorSessionFailure ErrorCategory = "session_failure"
)

// CollaboratorError wraps a collaborator failure with its category.
type CollaboratorError struct {
	Category     ErrorCategory
	Collaborator string
	Message      string
	Underlying   error
}

func (e *CollaboratorError) Error() string {
	if e.Underlying != nil {
		return fmt.Sprintf("collaborator %s [%s]: %s: %v", e.Collaborator, e.Category, e.Message, e.Underlying)
	}
	return fmt.Sprintf("collaborator %s [%s]: %s", e.Collaborator, e.Category, e.Message)
}

func (e *CollaboratorError) Unwrap() error {
	return e.Underlying
}

// Is makes every CollaboratorError match ErrUnavailable.
func (e *CollaboratorError) Is(target error) bool {
	return target == ErrUnavailable
}

// NewError creates a categorized collaborator error.
func NewError(category ErrorCategory, collaborator, message string, underlying error) *CollaboratorError {
	return &CollaboratorError{
		Category:     category,
		Collaborator: collaborator,
		Message:      message,
		Underlying:   underlying,
	}
}

// GetCategory extracts the category from an error.
func GetCategory(err error) ErrorCategory {
	var ce *CollaboratorError
	if errors.As(err, &ce) {
		return ce.Category
	}
	return ErrorInternal
}

// classify maps a transport error to a CollaboratorError.
func classify(collaborator string, err error) *CollaboratorError {
	var ce *CollaboratorError
	if errors.As(err, &ce) {
		return ce
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return NewError(ErrorTimeout, collaborator, "call timed out", err)
	}
	return NewError(ErrorOutage, collaborator, "call failed", err)
}
