package graph

import (
	"context"

	"github.com/Intelligence-Builder/Cloud-Optimizer-sub001/internal/types"
)

// OperationRecorder receives the outcome of every backend operation so it can
// be exported as metrics. Implementations must be safe for concurrent use.
type OperationRecorder interface {
	// RecordOperation counts one completed operation. status is "ok" or the
	// error code of the failure.
	RecordOperation(backend, operation, status string)
}

// instrumentedBackend counts every operation against the wrapped backend.
type instrumentedBackend struct {
	inner    Backend
	backend  string
	recorder OperationRecorder
}

// WithInstrumentation wraps inner so every operation outcome is reported to
// recorder, labeled with the backend kind.
func WithInstrumentation(inner Backend, backend string, recorder OperationRecorder) Backend {
	return &instrumentedBackend{inner: inner, backend: backend, recorder: recorder}
}

func (m *instrumentedBackend) record(operation string, err error) {
	status := "ok"
	if err != nil {
		status = string(types.CodeOf(err))
	}
	m.recorder.RecordOperation(m.backend, operation, status)
}

func (m *instrumentedBackend) Connect(ctx context.Context) error {
	err := m.inner.Connect(ctx)
	m.record("connect", err)
	return err
}

func (m *instrumentedBackend) Close(ctx context.Context) error {
	return m.inner.Close(ctx)
}

func (m *instrumentedBackend) Health(ctx context.Context) types.HealthStatus {
	return m.inner.Health(ctx)
}

func (m *instrumentedBackend) CreateNode(ctx context.Context, spec NodeSpec) (*Node, error) {
	node, err := m.inner.CreateNode(ctx, spec)
	m.record("create_node", err)
	return node, err
}

func (m *instrumentedBackend) GetNode(ctx context.Context, id types.ID) (*Node, error) {
	node, err := m.inner.GetNode(ctx, id)
	m.record("get_node", err)
	return node, err
}

func (m *instrumentedBackend) UpdateNode(ctx context.Context, id types.ID, properties map[string]any) (*Node, error) {
	node, err := m.inner.UpdateNode(ctx, id, properties)
	m.record("update_node", err)
	return node, err
}

func (m *instrumentedBackend) DeleteNode(ctx context.Context, id types.ID) error {
	err := m.inner.DeleteNode(ctx, id)
	m.record("delete_node", err)
	return err
}

func (m *instrumentedBackend) CreateEdge(ctx context.Context, spec EdgeSpec) (*Edge, error) {
	edge, err := m.inner.CreateEdge(ctx, spec)
	m.record("create_edge", err)
	return edge, err
}

func (m *instrumentedBackend) GetEdge(ctx context.Context, id types.ID) (*Edge, error) {
	edge, err := m.inner.GetEdge(ctx, id)
	m.record("get_edge", err)
	return edge, err
}

func (m *instrumentedBackend) DeleteEdge(ctx context.Context, id types.ID) error {
	err := m.inner.DeleteEdge(ctx, id)
	m.record("delete_edge", err)
	return err
}

func (m *instrumentedBackend) Traverse(ctx context.Context, start types.ID, opts TraverseOptions) ([]Node, error) {
	nodes, err := m.inner.Traverse(ctx, start, opts)
	m.record("traverse", err)
	return nodes, err
}

func (m *instrumentedBackend) FindShortestPath(ctx context.Context, start, end types.ID) (*Path, error) {
	path, err := m.inner.FindShortestPath(ctx, start, end)
	m.record("find_shortest_path", err)
	return path, err
}

func (m *instrumentedBackend) BatchCreateNodes(ctx context.Context, specs []NodeSpec) ([]*Node, error) {
	nodes, err := m.inner.BatchCreateNodes(ctx, specs)
	m.record("batch_create_nodes", err)
	return nodes, err
}

func (m *instrumentedBackend) CountByType(ctx context.Context, domain string) (map[string]int, error) {
	counts, err := m.inner.CountByType(ctx, domain)
	m.record("count_by_type", err)
	return counts, err
}
