package entity

import (
	"errors"
	"fmt"
)

// Sentinel errors for domain layer operations.
var (
	// ErrMissingConfig indicates that one or more required configuration inputs are absent.
	// Together with ErrInvalidConfig it is the only error that ends a run with a non-zero exit status.
	ErrMissingConfig = errors.New("missing required configuration")

	// ErrInvalidConfig indicates that a configuration value is present but unusable
	ErrInvalidConfig = errors.New("invalid configuration")
)

// ValidationError represents a validation error with detailed field information.
// It implements the error interface and provides context about which field failed validation.
type ValidationError struct {
	Field   string
	Message string
}

// Error returns a formatted error message for the validation error.
func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation error on field '%s': %s", e.Field, e.Message)
}

// Unwrap lets callers match validation failures against ErrInvalidConfig.
func (e *ValidationError) Unwrap() error {
	return ErrInvalidConfig
}
