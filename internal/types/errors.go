package types

import (
	"errors"
	"fmt"
)

// ErrorCode represents a namespaced error code for Grazer errors.
type ErrorCode string

// Configuration error codes
const (
	CONFIG_LOAD_FAILED       ErrorCode = "CONFIG_LOAD_FAILED"
	CONFIG_PARSE_FAILED      ErrorCode = "CONFIG_PARSE_FAILED"
	CONFIG_VALIDATION_FAILED ErrorCode = "CONFIG_VALIDATION_FAILED"
)

// Calendar extraction error codes
const (
	CALENDAR_PARSE_FAILED ErrorCode = "CALENDAR_PARSE_FAILED"
	CALENDAR_READ_FAILED  ErrorCode = "CALENDAR_READ_FAILED"
)

// Geocoding error codes
const (
	GEOCODE_NOT_FOUND      ErrorCode = "GEOCODE_NOT_FOUND"
	GEOCODE_AMBIGUOUS      ErrorCode = "GEOCODE_AMBIGUOUS"
	GEOCODE_SERVICE_FAILED ErrorCode = "GEOCODE_SERVICE_FAILED"
	GEOCODE_EMPTY_LOCATION ErrorCode = "GEOCODE_EMPTY_LOCATION"
)

// Candidate source error codes
const (
	CANDIDATE_SOURCE_FAILED ErrorCode = "CANDIDATE_SOURCE_FAILED"
	CANDIDATE_SOURCE_EMPTY  ErrorCode = "CANDIDATE_SOURCE_EMPTY"
)

// Selection stage error codes
const (
	SELECTION_VALIDATION_FAILED ErrorCode = "SELECTION_VALIDATION_FAILED"
	SELECTION_FAILED            ErrorCode = "SELECTION_FAILED"
)

// Itinerary builder error codes
const (
	ITINERARY_INFEASIBLE ErrorCode = "ITINERARY_INFEASIBLE"
	ITINERARY_INVALID    ErrorCode = "ITINERARY_INVALID"
	COMMITMENT_CONFLICT  ErrorCode = "COMMITMENT_CONFLICT"
)

// Run-level error codes
const (
	RUN_TIMEOUT ErrorCode = "RUN_TIMEOUT"
	RUN_FAILED  ErrorCode = "RUN_FAILED"
)

// GrazerError represents a structured error with error code, message, and optional cause.
// It supports error wrapping and retryability hints for error handling logic.
type GrazerError struct {
	Code      ErrorCode
	Message   string
	Retryable bool
	Cause     error
}

// Error implements the error interface, returning a formatted error message.
// Format: "[CODE] message" or "[CODE] message: cause" if cause exists.
func (e *GrazerError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause error for error unwrapping chains.
// This enables using errors.Is() and errors.As() with wrapped errors.
func (e *GrazerError) Unwrap() error {
	return e.Cause
}

// Is checks if the target error matches this error by error code.
// Returns true if target is a GrazerError with the same Code.
func (e *GrazerError) Is(target error) bool {
	var grazerErr *GrazerError
	if errors.As(target, &grazerErr) {
		return e.Code == grazerErr.Code
	}
	return false
}

// NewError creates a new non-retryable GrazerError with the given code and message.
func NewError(code ErrorCode, message string) *GrazerError {
	return &GrazerError{
		Code:      code,
		Message:   message,
		Retryable: false,
		Cause:     nil,
	}
}

// NewRetryableError creates a new retryable GrazerError with the given code and message.
func NewRetryableError(code ErrorCode, message string) *GrazerError {
	return &GrazerError{
		Code:      code,
		Message:   message,
		Retryable: true,
		Cause:     nil,
	}
}

// WrapError wraps an existing error with a GrazerError code and message.
func WrapError(code ErrorCode, message string, cause error) *GrazerError {
	return &GrazerError{
		Code:      code,
		Message:   message,
		Retryable: false,
		Cause:     cause,
	}
}

// WrapRetryableError wraps an existing error marking it as retryable.
func WrapRetryableError(code ErrorCode, message string, cause error) *GrazerError {
	return &GrazerError{
		Code:      code,
		Message:   message,
		Retryable: true,
		Cause:     cause,
	}
}

// IsCode reports whether err carries the given error code anywhere in its chain.
func IsCode(err error, code ErrorCode) bool {
	var grazerErr *GrazerError
	if !errors.As(err, &grazerErr) {
		return false
	}
	return grazerErr.Code == code
}

// IsRetryable reports whether err is marked retryable.
// Errors that are not GrazerErrors are never retryable.
func IsRetryable(err error) bool {
	var grazerErr *GrazerError
	if !errors.As(err, &grazerErr) {
		return false
	}
	return grazerErr.Retryable
}
