package graph

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testOperationRecorder struct {
	mu     sync.Mutex
	counts map[[3]string]int
}

func newTestOperationRecorder() *testOperationRecorder {
	return &testOperationRecorder{counts: make(map[[3]string]int)}
}

func (r *testOperationRecorder) RecordOperation(backend, operation, status string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.counts[[3]string{backend, operation, status}]++
}

func (r *testOperationRecorder) count(backend, operation, status string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.counts[[3]string{backend, operation, status}]
}

func TestInstrumentationCountsOutcomes(t *testing.T) {
	ctx := context.Background()
	mock := NewMockBackend(nil)
	rec := newTestOperationRecorder()
	b := WithInstrumentation(mock, "sqlite", rec)
	require.NoError(t, b.Connect(ctx))

	node, err := b.CreateNode(ctx, NodeSpec{Type: "hostname", Domain: "security", Name: "a"})
	require.NoError(t, err)
	_, err = b.GetNode(ctx, node.ID)
	require.NoError(t, err)
	_, err = b.GetNode(ctx, "missing")
	require.Error(t, err)

	assert.Equal(t, 1, rec.count("sqlite", "connect", "ok"))
	assert.Equal(t, 1, rec.count("sqlite", "create_node", "ok"))
	assert.Equal(t, 1, rec.count("sqlite", "get_node", "ok"))
	assert.Equal(t, 1, rec.count("sqlite", "get_node", "NOT_FOUND"))
}

func TestInstrumentationCountsEveryRetryAttempt(t *testing.T) {
	ctx := context.Background()
	mock := NewMockBackend(nil)
	rec := newTestOperationRecorder()
	// Same order as the factory: instrumentation inside retry.
	b := WithRetry(WithInstrumentation(mock, "sqlite", rec), RetryConfig{
		MaxAttempts: 3, BaseDelay: time.Millisecond, MaxDelay: time.Millisecond,
	}, nil)
	require.NoError(t, b.Connect(ctx))

	mock.SetError("create_node", NewBackendUnavailableError("down", nil))
	_, err := b.CreateNode(ctx, NodeSpec{Type: "hostname", Domain: "security", Name: "a"})
	require.Error(t, err)

	assert.Equal(t, 3, rec.count("sqlite", "create_node", "BACKEND_UNAVAILABLE"))
	assert.Equal(t, 0, rec.count("sqlite", "create_node", "ok"))
}
