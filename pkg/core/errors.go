package core

import (
	"errors"
	"fmt"
)

// Common errors.
var (
	ErrValidation = errors.New("validation failed")
	ErrTransient  = errors.New("transient failure")
	ErrNotFound   = errors.New("note not found")
	ErrReadOnly   = errors.New("repository is in read-only mode")
	ErrNoHistory  = errors.New("store keeps no history")
)

// ValidationError reports a missing or empty required field, or a bad intent.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string { return e.Message }

func (e *ValidationError) Is(target error) bool { return target == ErrValidation }

// NewValidationError builds a ValidationError for the given field.
func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{Field: field, Message: message}
}

// TransientError is a retry-safe failure. The note it references is untouched.
type TransientError struct {
	ID  string
	Err error
}

func (e *TransientError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("could not delete note %s: %v", e.ID, e.Err)
	}
	return fmt.Sprintf("could not delete note %s, please retry", e.ID)
}

func (e *TransientError) Is(target error) bool { return target == ErrTransient }

func (e *TransientError) Unwrap() error { return e.Err }
