package types

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPlatformError_Error(t *testing.T) {
	tests := []struct {
		name     string
		err      *PlatformError
		expected string
	}{
		{
			name:     "without cause",
			err:      NewError(VALIDATION_FAILED, "missing required property"),
			expected: "[VALIDATION_FAILED] missing required property",
		},
		{
			name:     "with cause",
			err:      WrapError(DB_QUERY_FAILED, "insert failed", fmt.Errorf("disk full")),
			expected: "[DB_QUERY_FAILED] insert failed: disk full",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.err.Error())
		})
	}
}

func TestPlatformError_Unwrap(t *testing.T) {
	cause := fmt.Errorf("connection refused")
	err := WrapRetryableError(BACKEND_UNAVAILABLE, "neo4j unreachable", cause)

	require.ErrorIs(t, err, cause)
	assert.Equal(t, cause, errors.Unwrap(err))
}

func TestPlatformError_Is_MatchesByCode(t *testing.T) {
	err := WrapError(DANGLING_REFERENCE, "target node missing", fmt.Errorf("no rows"))
	target := NewError(DANGLING_REFERENCE, "different message")

	assert.True(t, errors.Is(err, target))
	assert.False(t, errors.Is(err, NewError(NOT_FOUND, "x")))
}

func TestIsRetryable(t *testing.T) {
	assert.True(t, IsRetryable(NewRetryableError(BACKEND_UNAVAILABLE, "timeout")))
	assert.False(t, IsRetryable(NewError(VALIDATION_FAILED, "bad input")))
	assert.False(t, IsRetryable(fmt.Errorf("plain error")))

	// Retryability must survive wrapping with fmt.Errorf.
	wrapped := fmt.Errorf("outer: %w", NewRetryableError(BACKEND_UNAVAILABLE, "timeout"))
	assert.True(t, IsRetryable(wrapped))
}

func TestCodeOf(t *testing.T) {
	assert.Equal(t, DOMAIN_CONFLICT, CodeOf(NewError(DOMAIN_CONFLICT, "dup")))
	assert.Equal(t, ErrorCode(""), CodeOf(fmt.Errorf("plain")))
}
