package apperrors

import (
	"errors"
	"fmt"
)

// Common errors
var (
	// Resource errors
	ErrResourceNotFound = errors.New("resource not found")
	ErrCourseNotFound   = errors.New("course not found")

	// Recurrence errors
	ErrConfiguration       = errors.New("invalid recurrence configuration")
	ErrUniquenessViolation = errors.New("occurrence uniqueness violation")

	// Reconciliation errors
	ErrConflict = errors.New("concurrent modification conflict")

	// Lifecycle errors
	ErrInvalidStatus        = errors.New("invalid course status")
	ErrTransitionNotAllowed = errors.New("status transition not allowed")

	// Validation errors
	ErrValidationFailed = errors.New("validation failed")
	ErrBadRequest       = errors.New("bad request")

	// Authentication errors
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrTokenExpired       = errors.New("token expired")
	ErrTokenInvalid       = errors.New("invalid token")

	// Regeneration guard
	ErrOccurrencesInUse = errors.New("occurrences have dependent attendance data")
)

// ConfigurationError reports a recurrence configuration that cannot be
// expanded, naming the field that is missing or contradictory. It must be
// fixed upstream before expansion is retried.
type ConfigurationError struct {
	Field   string
	Message string
}

// Error implements the error interface
func (e *ConfigurationError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("invalid recurrence configuration: %s: %s", e.Field, e.Message)
	}
	return fmt.Sprintf("invalid recurrence configuration: missing required field %q", e.Field)
}

// Unwrap makes ConfigurationError match ErrConfiguration via errors.Is
func (e *ConfigurationError) Unwrap() error {
	return ErrConfiguration
}

// NewConfigurationError creates a ConfigurationError for a missing field
func NewConfigurationError(field string) error {
	return &ConfigurationError{Field: field}
}

// CustomError adds a human readable message on top of a sentinel error
type CustomError struct {
	Err     error
	Message string
}

// Error implements the error interface
func (e *CustomError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	if e.Err != nil {
		return e.Err.Error()
	}
	return "unknown error"
}

// Unwrap implements the errors.Unwrap interface
func (e *CustomError) Unwrap() error {
	return e.Err
}

// NewResourceNotFoundError creates a new custom error for resource not found with a message
func NewResourceNotFoundError(message string) error {
	return &CustomError{
		Err:     ErrResourceNotFound,
		Message: message,
	}
}

// NewConflictError creates a new custom error for concurrent-modification conflicts
func NewConflictError(message string) error {
	return &CustomError{
		Err:     ErrConflict,
		Message: message,
	}
}

// NewUniquenessError creates a new custom error for occurrence collisions
func NewUniquenessError(message string) error {
	return &CustomError{
		Err:     ErrUniquenessViolation,
		Message: message,
	}
}

// NewBadRequestError creates a new custom error for bad request with a message
func NewBadRequestError(message string) error {
	return &CustomError{
		Err:     ErrBadRequest,
		Message: message,
	}
}
