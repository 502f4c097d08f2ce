package domain

import (
	"errors"
	"fmt"
	"net/http"
	"testing"
)

func TestAPIError_Error(t *testing.T) {
	tests := []struct {
		name     string
		err      *APIError
		expected string
	}{
		{
			name:     "error with type and message",
			err:      &APIError{Type: ErrorTypeInvalidRequest, Message: "bad request"},
			expected: "invalid_request: bad request",
		},
		{
			name:     "error with param",
			err:      ErrInvalidRequest("amount must be greater than 0").WithParam("amount"),
			expected: "invalid_request (amount): amount must be greater than 0",
		},
		{
			name:     "unknown step type",
			err:      ErrUnknownStepType("credit_bureau"),
			expected: "unknown_step_type: Unknown step type: credit_bureau",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.err.Error(); got != tt.expected {
				t.Errorf("Error() = %q, want %q", got, tt.expected)
			}
		})
	}
}

func TestAPIError_HTTPStatusCode(t *testing.T) {
	tests := []struct {
		name     string
		err      *APIError
		expected int
	}{
		{"invalid request", &APIError{Type: ErrorTypeInvalidRequest}, http.StatusBadRequest},
		{"not found", &APIError{Type: ErrorTypeNotFound}, http.StatusNotFound},
		{"unknown step type", &APIError{Type: ErrorTypeUnknownStepType}, http.StatusUnprocessableEntity},
		{"unknown condition", &APIError{Type: ErrorTypeUnknownConditionOperator}, http.StatusUnprocessableEntity},
		{"server error", &APIError{Type: ErrorTypeServer}, http.StatusInternalServerError},
		{"override", ErrInvalidRequest("x").WithStatusCode(http.StatusUnprocessableEntity), http.StatusUnprocessableEntity},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.err.HTTPStatusCode(); got != tt.expected {
				t.Errorf("HTTPStatusCode() = %d, want %d", got, tt.expected)
			}
		})
	}
}

func TestTypeOf_Wrapped(t *testing.T) {
	err := fmt.Errorf("load application: %w", ErrNotFound("Application 7 not found"))

	if !IsNotFound(err) {
		t.Fatalf("IsNotFound(%v) = false, want true", err)
	}
	if IsUnknownStepType(err) {
		t.Errorf("IsUnknownStepType(%v) = true, want false", err)
	}
	if got := TypeOf(errors.New("boom")); got != ErrorTypeServer {
		t.Errorf("TypeOf(plain) = %q, want %q", got, ErrorTypeServer)
	}
}
