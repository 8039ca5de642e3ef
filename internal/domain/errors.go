package domain

import (
	"errors"
	"fmt"
	"time"
)

// PredictionError represents a failed call to the prediction service
type PredictionError struct {
	Code      string    `json:"code"`
	Message   string    `json:"message"`
	Status    int       `json:"status,omitempty"`
	Endpoint  string    `json:"endpoint,omitempty"`
	Timestamp time.Time `json:"timestamp"`
	Err       error     `json:"-"`
}

// Error implements the error interface
func (e *PredictionError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap exposes the underlying cause
func (e *PredictionError) Unwrap() error {
	return e.Err
}

// UserMessage is the text shown next to the form
func (e *PredictionError) UserMessage() string {
	return e.Message
}

// Error codes for different failure scenarios
const (
	ErrTransport          = "TRANSPORT_ERROR"
	ErrHTTPStatus         = "HTTP_STATUS_ERROR"
	ErrDecode             = "DECODE_ERROR"
	ErrTimeout            = "TIMEOUT"
	ErrServiceUnavailable = "SERVICE_UNAVAILABLE"
	ErrCancelled          = "CANCELLED"
	ErrInvalidInput       = "INVALID_INPUT"
)

// User-visible fallback messages
const (
	MsgUnexpected     = "An unexpected error occurred."
	MsgBodyFallback   = "Prediction failed. Please check inputs or try again."
	MsgMindFallback   = "Failed to fetch results. Please try again."
	MsgTimeout        = "The prediction service did not respond in time. Please try again."
	MsgUnavailable    = "The prediction service is temporarily unavailable. Please try again later."
	MsgCancelled      = "The request was cancelled."
	MsgEmptyMoodInput = "Please describe how you feel before submitting."
)

// ValidationError represents input validation errors
type ValidationError struct {
	Field   string      `json:"field"`
	Message string      `json:"message"`
	Value   interface{} `json:"value"`
}

// Error implements the error interface
func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation error for field '%s': %s", e.Field, e.Message)
}

// NewPredictionError creates a new PredictionError with timestamp
func NewPredictionError(code, message, endpoint string, status int, err error) *PredictionError {
	return &PredictionError{
		Code:      code,
		Message:   message,
		Status:    status,
		Endpoint:  endpoint,
		Timestamp: time.Now().UTC(),
		Err:       err,
	}
}

// NewValidationError creates a new ValidationError
func NewValidationError(field, message string, value interface{}) *ValidationError {
	return &ValidationError{
		Field:   field,
		Message: message,
		Value:   value,
	}
}

// UserMessage extracts the text to show for any error returned by the
// prediction pipeline.
func UserMessage(err error) string {
	if err == nil {
		return ""
	}
	var pe *PredictionError
	if errors.As(err, &pe) && pe.Message != "" {
		return pe.Message
	}
	if msg := err.Error(); msg != "" {
		return msg
	}
	return MsgUnexpected
}
