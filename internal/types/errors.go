package types

import (
	"errors"
	"fmt"
)

// ErrorCode represents a namespaced error code for Platform Foundation errors.
type ErrorCode string

// Validation and registration error codes
const (
	VALIDATION_FAILED      ErrorCode = "VALIDATION_FAILED"
	DOMAIN_CONFLICT        ErrorCode = "DOMAIN_CONFLICT"
	PATTERN_COMPILE_FAILED ErrorCode = "PATTERN_COMPILE_FAILED"
)

// Storage error codes
const (
	NOT_FOUND           ErrorCode = "NOT_FOUND"
	CONFLICT            ErrorCode = "CONFLICT"
	DANGLING_REFERENCE  ErrorCode = "DANGLING_REFERENCE"
	BACKEND_UNAVAILABLE ErrorCode = "BACKEND_UNAVAILABLE"
	QUERY_FAILED        ErrorCode = "QUERY_FAILED"
	TRANSACTION_FAILED  ErrorCode = "TRANSACTION_FAILED"
)

// Configuration error codes
const (
	CONFIG_LOAD_FAILED       ErrorCode = "CONFIG_LOAD_FAILED"
	CONFIG_PARSE_FAILED      ErrorCode = "CONFIG_PARSE_FAILED"
	CONFIG_VALIDATION_FAILED ErrorCode = "CONFIG_VALIDATION_FAILED"
	CONFIG_NOT_FOUND         ErrorCode = "CONFIG_NOT_FOUND"
)

// Database error codes
const (
	DB_OPEN_FAILED      ErrorCode = "DB_OPEN_FAILED"
	DB_MIGRATION_FAILED ErrorCode = "DB_MIGRATION_FAILED"
	DB_QUERY_FAILED     ErrorCode = "DB_QUERY_FAILED"
	DB_CONNECTION_LOST  ErrorCode = "DB_CONNECTION_LOST"
)

// PlatformError represents a structured error with error code, message, and
// optional cause. It supports error wrapping and retryability hints for error
// handling logic.
type PlatformError struct {
	Code      ErrorCode
	Message   string
	Retryable bool
	Cause     error
}

// Error implements the error interface, returning a formatted error message.
// Format: "[CODE] message" or "[CODE] message: cause" if cause exists.
func (e *PlatformError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause error for error unwrapping chains.
// This enables using errors.Is() and errors.As() with wrapped errors.
func (e *PlatformError) Unwrap() error {
	return e.Cause
}

// Is checks if the target error matches this error by error code.
// Returns true if target is a PlatformError with the same Code.
func (e *PlatformError) Is(target error) bool {
	var platformErr *PlatformError
	if errors.As(target, &platformErr) {
		return e.Code == platformErr.Code
	}
	return false
}

// NewError creates a new non-retryable PlatformError with the given code and message.
func NewError(code ErrorCode, message string) *PlatformError {
	return &PlatformError{
		Code:      code,
		Message:   message,
		Retryable: false,
		Cause:     nil,
	}
}

// NewRetryableError creates a new retryable PlatformError with the given code and message.
// Use this for transient errors that may succeed on retry (e.g., network timeouts).
func NewRetryableError(code ErrorCode, message string) *PlatformError {
	return &PlatformError{
		Code:      code,
		Message:   message,
		Retryable: true,
		Cause:     nil,
	}
}

// WrapError creates a new non-retryable PlatformError that wraps an existing error.
// The wrapped error is accessible via Unwrap() for error chain inspection.
func WrapError(code ErrorCode, message string, cause error) *PlatformError {
	return &PlatformError{
		Code:      code,
		Message:   message,
		Retryable: false,
		Cause:     cause,
	}
}

// WrapRetryableError creates a new retryable PlatformError that wraps an existing error.
func WrapRetryableError(code ErrorCode, message string, cause error) *PlatformError {
	return &PlatformError{
		Code:      code,
		Message:   message,
		Retryable: true,
		Cause:     cause,
	}
}

// IsRetryable reports whether err (or any error in its chain) is a
// PlatformError marked retryable.
func IsRetryable(err error) bool {
	var platformErr *PlatformError
	if errors.As(err, &platformErr) {
		return platformErr.Retryable
	}
	return false
}

// CodeOf returns the error code of err if it is a PlatformError,
// or an empty code otherwise.
func CodeOf(err error) ErrorCode {
	var platformErr *PlatformError
	if errors.As(err, &platformErr) {
		return platformErr.Code
	}
	return ""
}
