package service

import (
	"errors"
	"fmt"
)

// Common service errors - sentinel errors used across service implementations.
//
// Error handling principles:
// 1. Expected conditions are returned as sentinel errors
// 2. Storage failures are wrapped in ServiceError and keep their cause
// 3. Callers use errors.Is/errors.As to check for specific error conditions
// 4. The API layer maps service errors to appropriate HTTP status codes
var (
	// ErrInvalidState indicates an operation that needs a current item or an
	// open action session was called without one. State is left unchanged.
	// API layer should map this to HTTP 409 Conflict.
	ErrInvalidState = errors.New("invalid state for operation")
)

// ServiceError is a custom error type for failures of a controller operation.
type ServiceError struct {
	Component string
	Operation string
	Message   string
	Err       error
}

// Error implements the error interface for ServiceError.
func (e *ServiceError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s %s failed: %s: %v", e.Component, e.Operation, e.Message, e.Err)
	}
	return fmt.Sprintf("%s %s failed: %s", e.Component, e.Operation, e.Message)
}

// Unwrap returns the wrapped error to support errors.Is/errors.As.
func (e *ServiceError) Unwrap() error {
	return e.Err
}

// NewServiceError creates a new ServiceError.
func NewServiceError(component, operation, message string, err error) *ServiceError {
	return &ServiceError{
		Component: component,
		Operation: operation,
		Message:   message,
		Err:       err,
	}
}

func invalidState(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidState, fmt.Sprintf(format, args...))
}
