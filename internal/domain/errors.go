// Package domain defines domain-specific errors.
// These errors represent business logic failures and are independent of infrastructure.
package domain

import (
	"errors"
	"fmt"
)

// Common errors that services can return.
var (
	// ErrInvalidInput is the kind behind every ValidationError (bad URL, empty title).
	ErrInvalidInput = errors.New("invalid input")

	// ErrNotFound is returned when a backend reports zero matching items.
	ErrNotFound = errors.New("not found")

	// ErrNoVideoLoaded is returned when a control is used before a video is loaded.
	ErrNoVideoLoaded = errors.New("no video loaded")

	// ErrInvalidVolume is returned when the volume is out of valid range (0.0-1.0).
	ErrInvalidVolume = errors.New("invalid volume: must be between 0.0 and 1.0")

	// ErrSuperseded is returned when a newer request replaced the one that produced a response.
	ErrSuperseded = errors.New("superseded by a newer request")

	// ErrWidgetClosed is returned by a playback widget after Destroy.
	ErrWidgetClosed = errors.New("playback widget closed")
)

// ValidationError represents a validation error.
type ValidationError struct {
	Field   string      // Field that failed validation
	Value   interface{} // Value that failed validation
	Message string      // Error message
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation error for %s: %s (value: %v)", e.Field, e.Message, e.Value)
}

// Unwrap makes every validation error match ErrInvalidInput.
func (e *ValidationError) Unwrap() error {
	return ErrInvalidInput
}

// NewValidationError creates a new ValidationError.
func NewValidationError(field string, value interface{}, message string) *ValidationError {
	return &ValidationError{
		Field:   field,
		Value:   value,
		Message: message,
	}
}

// ServiceError represents a failed call to an external service.
// StatusCode is zero for transport failures.
type ServiceError struct {
	Service    string // Service name (e.g., "youtube", "genius")
	Op         string // Operation that failed
	StatusCode int    // HTTP status, if any
	Message    string // Error message
	Err        error  // Underlying error
}

// Error implements the error interface.
func (e *ServiceError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("service %s.%s failed: %s (status %d)", e.Service, e.Op, e.Message, e.StatusCode)
	}
	return fmt.Sprintf("service %s.%s failed: %s", e.Service, e.Op, e.Message)
}

// Unwrap returns the underlying error.
func (e *ServiceError) Unwrap() error {
	return e.Err
}

// NewServiceError creates a new ServiceError.
func NewServiceError(service, op string, statusCode int, message string, err error) *ServiceError {
	return &ServiceError{
		Service:    service,
		Op:         op,
		StatusCode: statusCode,
		Message:    message,
		Err:        err,
	}
}

// ParseError represents a response whose shape could not be decoded.
type ParseError struct {
	Source  string // What was being parsed (e.g., "youtube.search")
	Message string
	Err     error
}

// Error implements the error interface.
func (e *ParseError) Error() string {
	return fmt.Sprintf("parse %s failed: %s", e.Source, e.Message)
}

// Unwrap returns the underlying error.
func (e *ParseError) Unwrap() error {
	return e.Err
}

// NewParseError creates a new ParseError.
func NewParseError(source, message string, err error) *ParseError {
	return &ParseError{
		Source:  source,
		Message: message,
		Err:     err,
	}
}

// IsServiceError reports whether err carries a ServiceError.
func IsServiceError(err error) bool {
	var se *ServiceError
	return errors.As(err, &se)
}
