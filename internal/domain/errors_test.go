package domain

import (
	"errors"
	"fmt"
	"testing"
	"time"
)

func TestPredictionError(t *testing.T) {
	tests := []struct {
		name     string
		code     string
		message  string
		endpoint string
		status   int
		cause    error
		expected string
	}{
		{
			name:     "Status error without cause",
			code:     ErrHTTPStatus,
			message:  "Invalid input",
			endpoint: "/predict/body",
			status:   400,
			expected: "HTTP_STATUS_ERROR: Invalid input",
		},
		{
			name:     "Transport error with cause",
			code:     ErrTransport,
			message:  MsgUnexpected,
			endpoint: "/predict/mind",
			cause:    errors.New("connection refused"),
			expected: "TRANSPORT_ERROR: An unexpected error occurred.: connection refused",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := NewPredictionError(tt.code, tt.message, tt.endpoint, tt.status, tt.cause)

			if err.Code != tt.code {
				t.Errorf("Expected code %s, got %s", tt.code, err.Code)
			}

			if err.Status != tt.status {
				t.Errorf("Expected status %d, got %d", tt.status, err.Status)
			}

			if err.Endpoint != tt.endpoint {
				t.Errorf("Expected endpoint %s, got %s", tt.endpoint, err.Endpoint)
			}

			if time.Since(err.Timestamp) > time.Minute {
				t.Errorf("Timestamp should be recent, got %v", err.Timestamp)
			}

			if err.Error() != tt.expected {
				t.Errorf("Expected error string %s, got %s", tt.expected, err.Error())
			}

			if tt.cause != nil && !errors.Is(err, tt.cause) {
				t.Errorf("Expected error to unwrap to %v", tt.cause)
			}
		})
	}
}

func TestUserMessage(t *testing.T) {
	wrapped := fmt.Errorf("submit: %w", NewPredictionError(ErrHTTPStatus, "Age is required", "/predict/body", 422, nil))

	if got := UserMessage(wrapped); got != "Age is required" {
		t.Errorf("Expected wrapped prediction error message, got %q", got)
	}

	if got := UserMessage(errors.New("boom")); got != "boom" {
		t.Errorf("Expected plain error text, got %q", got)
	}

	if got := UserMessage(nil); got != "" {
		t.Errorf("Expected empty message for nil error, got %q", got)
	}
}

func TestValidationError(t *testing.T) {
	tests := []struct {
		name    string
		field   string
		message string
		value   interface{}
	}{
		{
			name:    "Unknown field",
			field:   "bmi",
			message: "unknown metric field",
			value:   "31",
		},
		{
			name:    "Reference range",
			field:   "age",
			message: "reference range must satisfy min < optimalLow <= optimalHigh < max",
			value:   20,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := NewValidationError(tt.field, tt.message, tt.value)

			if err.Field != tt.field {
				t.Errorf("Expected field %s, got %s", tt.field, err.Field)
			}

			if err.Value != tt.value {
				t.Errorf("Expected value %v, got %v", tt.value, err.Value)
			}

			expectedError := "validation error for field '" + tt.field + "': " + tt.message
			if err.Error() != expectedError {
				t.Errorf("Expected error string %s, got %s", expectedError, err.Error())
			}
		})
	}
}

func TestErrorConstants(t *testing.T) {
	expected := map[string]string{
		ErrTransport:          "TRANSPORT_ERROR",
		ErrHTTPStatus:         "HTTP_STATUS_ERROR",
		ErrDecode:             "DECODE_ERROR",
		ErrTimeout:            "TIMEOUT",
		ErrServiceUnavailable: "SERVICE_UNAVAILABLE",
		ErrCancelled:          "CANCELLED",
		ErrInvalidInput:       "INVALID_INPUT",
	}

	for actual, want := range expected {
		if actual != want {
			t.Errorf("Expected %s, got %s", want, actual)
		}
	}
}
