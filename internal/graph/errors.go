package graph

import (
	"fmt"

	"github.com/Intelligence-Builder/Cloud-Optimizer-sub001/internal/types"
)

// Helper constructors for the storage error taxonomy. All return
// *types.PlatformError so callers can branch on the code with errors.Is.

// NewValidationError creates a type/property contract violation error.
// Always recoverable by caller correction, never retried automatically.
func NewValidationError(message string, cause error) *types.PlatformError {
	return types.WrapError(types.VALIDATION_FAILED, message, cause)
}

// NewConflictError creates a uniqueness-constraint violation error.
func NewConflictError(message string) *types.PlatformError {
	return types.NewError(types.CONFLICT, message)
}

// NewDanglingReferenceError creates an edge-endpoint-missing error.
// Recoverable: the caller must create the endpoint node first.
func NewDanglingReferenceError(endpoint string, id types.ID) *types.PlatformError {
	return types.NewError(types.DANGLING_REFERENCE,
		fmt.Sprintf("%s node %s does not exist", endpoint, id))
}

// NewNotFoundError creates a read-miss error for a required lookup.
func NewNotFoundError(kind string, id types.ID) *types.PlatformError {
	return types.NewError(types.NOT_FOUND, fmt.Sprintf("%s %s not found", kind, id))
}

// NewBackendUnavailableError creates a transient connection/network error.
// Retryable: safe to retry with backoff.
func NewBackendUnavailableError(message string, cause error) *types.PlatformError {
	return types.WrapRetryableError(types.BACKEND_UNAVAILABLE, message, cause)
}

// NewQueryError creates a query execution error.
// Non-retryable: the query itself may be invalid.
func NewQueryError(message string, cause error) *types.PlatformError {
	return types.WrapError(types.QUERY_FAILED, message, cause)
}

// NewTransactionError creates a transaction failure error.
func NewTransactionError(message string, cause error) *types.PlatformError {
	return types.WrapError(types.TRANSACTION_FAILED, message, cause)
}
