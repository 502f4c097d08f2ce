// Package domain provides the canonical types of the loan decision pipeline:
// applications, pipeline definitions, step results, run records and errors.
package domain

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrorType represents the category of an error surfaced by the orchestrator.
type ErrorType string

const (
	// ErrorTypeInvalidRequest indicates a malformed or invalid request.
	ErrorTypeInvalidRequest ErrorType = "invalid_request"

	// ErrorTypeNotFound indicates an application, pipeline or run was not found.
	ErrorTypeNotFound ErrorType = "not_found"

	// ErrorTypeUnknownStepType indicates a pipeline references a step type
	// that has no registered implementation.
	ErrorTypeUnknownStepType ErrorType = "unknown_step_type"

	// ErrorTypeUnknownConditionOperator indicates a terminal rule condition
	// matches none of the supported forms.
	ErrorTypeUnknownConditionOperator ErrorType = "unknown_condition_operator"

	// ErrorTypeServer indicates an internal error.
	ErrorTypeServer ErrorType = "server"
)

// APIError is the canonical error type. Transports translate it into their
// own representation using HTTPStatusCode.
type APIError struct {
	// Type is the category of error
	Type ErrorType `json:"type"`

	// Message is the human-readable error message
	Message string `json:"message"`

	// Param is the field that caused the error (if applicable)
	Param string `json:"param,omitempty"`

	// StatusCode overrides the status derived from Type
	StatusCode int `json:"-"`
}

// Error implements the error interface.
func (e *APIError) Error() string {
	if e.Param != "" {
		return fmt.Sprintf("%s (%s): %s", e.Type, e.Param, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Type, e.Message)
}

// HTTPStatusCode returns the appropriate HTTP status code for this error.
func (e *APIError) HTTPStatusCode() int {
	if e.StatusCode != 0 {
		return e.StatusCode
	}

	switch e.Type {
	case ErrorTypeInvalidRequest:
		return http.StatusBadRequest
	case ErrorTypeNotFound:
		return http.StatusNotFound
	case ErrorTypeUnknownStepType, ErrorTypeUnknownConditionOperator:
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

// NewAPIError creates a new error.
func NewAPIError(errType ErrorType, message string) *APIError {
	return &APIError{
		Type:    errType,
		Message: message,
	}
}

// WithParam adds a parameter name to the error.
func (e *APIError) WithParam(param string) *APIError {
	e.Param = param
	return e
}

// WithStatusCode sets a specific HTTP status code.
func (e *APIError) WithStatusCode(code int) *APIError {
	e.StatusCode = code
	return e
}

// ErrInvalidRequest creates an invalid request error.
func ErrInvalidRequest(message string) *APIError {
	return NewAPIError(ErrorTypeInvalidRequest, message)
}

// ErrNotFound creates a not found error.
func ErrNotFound(message string) *APIError {
	return NewAPIError(ErrorTypeNotFound, message)
}

// ErrUnknownStepType creates an unknown step type error.
func ErrUnknownStepType(stepType string) *APIError {
	return NewAPIError(ErrorTypeUnknownStepType, "Unknown step type: "+stepType)
}

// ErrUnknownConditionOperator creates an unknown condition error.
func ErrUnknownConditionOperator(condition string) *APIError {
	return NewAPIError(ErrorTypeUnknownConditionOperator, fmt.Sprintf("Unknown condition format: %q", condition))
}

// ErrServer creates a server error.
func ErrServer(message string) *APIError {
	return NewAPIError(ErrorTypeServer, message)
}

// TypeOf returns the ErrorType carried by err, or ErrorTypeServer when err
// does not wrap an *APIError.
func TypeOf(err error) ErrorType {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Type
	}
	return ErrorTypeServer
}

// IsNotFound reports whether err wraps a not found error.
func IsNotFound(err error) bool {
	return TypeOf(err) == ErrorTypeNotFound
}

// IsUnknownStepType reports whether err wraps an unknown step type error.
func IsUnknownStepType(err error) bool {
	return TypeOf(err) == ErrorTypeUnknownStepType
}
