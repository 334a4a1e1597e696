package models

import (
	"errors"
	"fmt"
)

// ErrMalformedRequest is wrapped by every inbound payload error
var ErrMalformedRequest = errors.New("malformed request")

// ValidationError reports the field that made a signal unusable
type ValidationError struct {
	Field  string
	Reason string
}

// NewValidationError creates a validation error for a field
func NewValidationError(field, reason string) *ValidationError {
	return &ValidationError{Field: field, Reason: reason}
}

// Error implements the error interface
func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s %s", e.Field, e.Reason)
}

// Unwrap lets errors.Is match ErrMalformedRequest
func (e *ValidationError) Unwrap() error {
	return ErrMalformedRequest
}
