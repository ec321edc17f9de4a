package domain

import (
	"errors"
	"fmt"
)

// ValidationError signals a business-rule violation. It is always recoverable
// by the caller and carries one of a fixed set of messages.
type ValidationError struct {
	Msg string
}

func (e ValidationError) Error() string {
	return e.Msg
}

// NewValidationError creates a ValidationError with the given message.
func NewValidationError(msg string) ValidationError {
	return ValidationError{Msg: msg}
}

// IsValidationError reports whether err is (or wraps) a ValidationError.
func IsValidationError(err error) bool {
	var ve ValidationError
	return errors.As(err, &ve)
}

// ErrConcurrency is returned when a save fails due to a version mismatch,
// indicating a concurrent modification of the same aggregate. Callers should
// retry the whole load-mutate-save cycle.
type ErrConcurrency struct {
	Msg string
}

func (e ErrConcurrency) Error() string {
	return e.Msg
}

func invalidField(field, entity string) ValidationError {
	return ValidationError{Msg: fmt.Sprintf("Invalid %s for %s", field, entity)}
}
