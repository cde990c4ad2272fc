package graph

import (
	"context"
	"log/slog"
	"time"

	"github.com/Intelligence-Builder/Cloud-Optimizer-sub001/internal/types"
)

// retryBackend decorates a Backend with a bounded exponential-backoff retry
// loop for transient failures. Only errors marked retryable (in practice
// BACKEND_UNAVAILABLE) are retried; validation and structural errors surface
// immediately. Creates stay retry-safe through caller-supplied idempotency
// keys on the spec.
type retryBackend struct {
	inner  Backend
	policy RetryConfig
	logger *slog.Logger
}

// WithRetry wraps a backend so transient failures are retried internally
// before surfacing. A nil logger defaults to slog.Default().
func WithRetry(inner Backend, policy RetryConfig, logger *slog.Logger) Backend {
	policy.applyDefaults()
	if logger == nil {
		logger = slog.Default()
	}
	return &retryBackend{inner: inner, policy: policy, logger: logger}
}

// do runs op, retrying retryable failures with exponential backoff.
func (r *retryBackend) do(ctx context.Context, operation string, op func() error) error {
	var lastErr error
	delay := r.policy.BaseDelay

	for attempt := 1; attempt <= r.policy.MaxAttempts; attempt++ {
		lastErr = op()
		if lastErr == nil || !types.IsRetryable(lastErr) {
			return lastErr
		}
		if attempt == r.policy.MaxAttempts {
			break
		}

		r.logger.Warn("retrying backend operation",
			"operation", operation,
			"attempt", attempt,
			"delay", delay,
			"error", lastErr)

		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return NewBackendUnavailableError("operation cancelled during retry", ctx.Err())
		}

		delay *= 2
		if delay > r.policy.MaxDelay {
			delay = r.policy.MaxDelay
		}
	}
	return lastErr
}

func (r *retryBackend) Connect(ctx context.Context) error {
	return r.do(ctx, "connect", func() error { return r.inner.Connect(ctx) })
}

func (r *retryBackend) Close(ctx context.Context) error {
	return r.inner.Close(ctx)
}

func (r *retryBackend) Health(ctx context.Context) types.HealthStatus {
	return r.inner.Health(ctx)
}

func (r *retryBackend) CreateNode(ctx context.Context, spec NodeSpec) (*Node, error) {
	var node *Node
	err := r.do(ctx, "create_node", func() error {
		var opErr error
		node, opErr = r.inner.CreateNode(ctx, spec)
		return opErr
	})
	return node, err
}

func (r *retryBackend) GetNode(ctx context.Context, id types.ID) (*Node, error) {
	var node *Node
	err := r.do(ctx, "get_node", func() error {
		var opErr error
		node, opErr = r.inner.GetNode(ctx, id)
		return opErr
	})
	return node, err
}

func (r *retryBackend) UpdateNode(ctx context.Context, id types.ID, properties map[string]any) (*Node, error) {
	var node *Node
	err := r.do(ctx, "update_node", func() error {
		var opErr error
		node, opErr = r.inner.UpdateNode(ctx, id, properties)
		return opErr
	})
	return node, err
}

func (r *retryBackend) DeleteNode(ctx context.Context, id types.ID) error {
	return r.do(ctx, "delete_node", func() error { return r.inner.DeleteNode(ctx, id) })
}

func (r *retryBackend) CreateEdge(ctx context.Context, spec EdgeSpec) (*Edge, error) {
	var edge *Edge
	err := r.do(ctx, "create_edge", func() error {
		var opErr error
		edge, opErr = r.inner.CreateEdge(ctx, spec)
		return opErr
	})
	return edge, err
}

func (r *retryBackend) GetEdge(ctx context.Context, id types.ID) (*Edge, error) {
	var edge *Edge
	err := r.do(ctx, "get_edge", func() error {
		var opErr error
		edge, opErr = r.inner.GetEdge(ctx, id)
		return opErr
	})
	return edge, err
}

func (r *retryBackend) DeleteEdge(ctx context.Context, id types.ID) error {
	return r.do(ctx, "delete_edge", func() error { return r.inner.DeleteEdge(ctx, id) })
}

func (r *retryBackend) Traverse(ctx context.Context, start types.ID, opts TraverseOptions) ([]Node, error) {
	var nodes []Node
	err := r.do(ctx, "traverse", func() error {
		var opErr error
		nodes, opErr = r.inner.Traverse(ctx, start, opts)
		return opErr
	})
	return nodes, err
}

func (r *retryBackend) FindShortestPath(ctx context.Context, start, end types.ID) (*Path, error) {
	var path *Path
	err := r.do(ctx, "find_shortest_path", func() error {
		var opErr error
		path, opErr = r.inner.FindShortestPath(ctx, start, end)
		return opErr
	})
	return path, err
}

func (r *retryBackend) BatchCreateNodes(ctx context.Context, specs []NodeSpec) ([]*Node, error) {
	var nodes []*Node
	err := r.do(ctx, "batch_create_nodes", func() error {
		var opErr error
		nodes, opErr = r.inner.BatchCreateNodes(ctx, specs)
		return opErr
	})
	return nodes, err
}

func (r *retryBackend) CountByType(ctx context.Context, domain string) (map[string]int, error) {
	var counts map[string]int
	err := r.do(ctx, "count_by_type", func() error {
		var opErr error
		counts, opErr = r.inner.CountByType(ctx, domain)
		return opErr
	})
	return counts, err
}
