package graph

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Intelligence-Builder/Cloud-Optimizer-sub001/internal/types"
)

func newTestNode(t *testing.T, b Backend, name string) *Node {
	t.Helper()
	node, err := b.CreateNode(context.Background(), NodeSpec{
		Type:       "hostname",
		Domain:     "security",
		Name:       name,
		Properties: map[string]any{"name": name},
	})
	require.NoError(t, err)
	return node
}

func linkNodes(t *testing.T, b Backend, from, to types.ID) *Edge {
	t.Helper()
	edge, err := b.CreateEdge(context.Background(), EdgeSpec{
		Type:     "resolves_to",
		Domain:   "security",
		SourceID: from,
		TargetID: to,
	})
	require.NoError(t, err)
	return edge
}

func TestMockBackendNodeLifecycle(t *testing.T) {
	ctx := context.Background()
	b := NewMockBackend(nil)
	require.NoError(t, b.Connect(ctx))

	node := newTestNode(t, b, "api.internal")

	got, err := b.GetNode(ctx, node.ID)
	require.NoError(t, err)
	assert.Equal(t, node.ID, got.ID)
	assert.Equal(t, "api.internal", got.Name)

	updated, err := b.UpdateNode(ctx, node.ID, map[string]any{"name": "api.internal", "env": "prod"})
	require.NoError(t, err)
	assert.Equal(t, "prod", updated.GetStringProperty("env"))

	require.NoError(t, b.DeleteNode(ctx, node.ID))

	_, err = b.GetNode(ctx, node.ID)
	assert.Equal(t, types.NOT_FOUND, types.CodeOf(err))
}

func TestMockBackendIdempotencyKey(t *testing.T) {
	ctx := context.Background()
	b := NewMockBackend(nil)
	require.NoError(t, b.Connect(ctx))

	spec := NodeSpec{
		Type:           "hostname",
		Domain:         "security",
		Name:           "db.internal",
		IdempotencyKey: "ingest-42",
	}
	first, err := b.CreateNode(ctx, spec)
	require.NoError(t, err)

	second, err := b.CreateNode(ctx, spec)
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, 1, b.NodeCount())
}

func TestMockBackendDeleteNodeWithEdgesConflicts(t *testing.T) {
	ctx := context.Background()
	b := NewMockBackend(nil)
	require.NoError(t, b.Connect(ctx))

	a := newTestNode(t, b, "a")
	c := newTestNode(t, b, "c")
	edge := linkNodes(t, b, a.ID, c.ID)

	err := b.DeleteNode(ctx, a.ID)
	assert.Equal(t, types.CONFLICT, types.CodeOf(err))

	require.NoError(t, b.DeleteEdge(ctx, edge.ID))
	require.NoError(t, b.DeleteNode(ctx, a.ID))
}

func TestMockBackendDanglingEdge(t *testing.T) {
	ctx := context.Background()
	b := NewMockBackend(nil)
	require.NoError(t, b.Connect(ctx))

	a := newTestNode(t, b, "a")
	_, err := b.CreateEdge(ctx, EdgeSpec{
		Type:     "resolves_to",
		Domain:   "security",
		SourceID: a.ID,
		TargetID: types.NewID(),
	})
	assert.Equal(t, types.DANGLING_REFERENCE, types.CodeOf(err))
	assert.Equal(t, 0, b.EdgeCount())
}

func TestMockBackendTraverse(t *testing.T) {
	ctx := context.Background()
	b := NewMockBackend(nil)
	require.NoError(t, b.Connect(ctx))

	// a -> c -> d, a -> e; f disconnected.
	a := newTestNode(t, b, "a")
	c := newTestNode(t, b, "c")
	d := newTestNode(t, b, "d")
	e := newTestNode(t, b, "e")
	newTestNode(t, b, "f")
	linkNodes(t, b, a.ID, c.ID)
	linkNodes(t, b, c.ID, d.ID)
	linkNodes(t, b, a.ID, e.ID)

	nodes, err := b.Traverse(ctx, a.ID, TraverseOptions{MaxDepth: 1})
	require.NoError(t, err)
	assert.Len(t, nodes, 3) // a, c, e

	nodes, err = b.Traverse(ctx, a.ID, TraverseOptions{MaxDepth: 5})
	require.NoError(t, err)
	assert.Len(t, nodes, 4) // everything reachable, f excluded

	// Depth zero returns only the start node.
	nodes, err = b.Traverse(ctx, a.ID, TraverseOptions{})
	require.NoError(t, err)
	require.Len(t, nodes, 1)
	assert.Equal(t, a.ID, nodes[0].ID)

	// Ordering is by node id.
	nodes, err = b.Traverse(ctx, a.ID, TraverseOptions{MaxDepth: 5})
	require.NoError(t, err)
	for i := 1; i < len(nodes); i++ {
		assert.Less(t, nodes[i-1].ID.String(), nodes[i].ID.String())
	}
}

func TestMockBackendTraverseRelationshipFilter(t *testing.T) {
	ctx := context.Background()
	b := NewMockBackend(nil)
	require.NoError(t, b.Connect(ctx))

	a := newTestNode(t, b, "a")
	c := newTestNode(t, b, "c")
	d := newTestNode(t, b, "d")
	linkNodes(t, b, a.ID, c.ID)
	_, err := b.CreateEdge(ctx, EdgeSpec{
		Type: "associated_with", Domain: "security", SourceID: a.ID, TargetID: d.ID,
	})
	require.NoError(t, err)

	nodes, err := b.Traverse(ctx, a.ID, TraverseOptions{
		MaxDepth:          3,
		RelationshipTypes: []string{"resolves_to"},
	})
	require.NoError(t, err)
	require.Len(t, nodes, 2)
}

func TestMockBackendShortestPath(t *testing.T) {
	ctx := context.Background()
	b := NewMockBackend(nil)
	require.NoError(t, b.Connect(ctx))

	// Two routes a->d: a->c->d (2 hops) and a->e->f->d (3 hops), plus a cycle
	// d->a to make sure the search terminates.
	a := newTestNode(t, b, "a")
	c := newTestNode(t, b, "c")
	d := newTestNode(t, b, "d")
	e := newTestNode(t, b, "e")
	f := newTestNode(t, b, "f")
	linkNodes(t, b, a.ID, c.ID)
	linkNodes(t, b, c.ID, d.ID)
	linkNodes(t, b, a.ID, e.ID)
	linkNodes(t, b, e.ID, f.ID)
	linkNodes(t, b, f.ID, d.ID)
	linkNodes(t, b, d.ID, a.ID)

	path, err := b.FindShortestPath(ctx, a.ID, d.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, path.Length)
	require.Len(t, path.NodeIDs, 3)
	assert.Equal(t, a.ID, path.NodeIDs[0])
	assert.Equal(t, d.ID, path.NodeIDs[2])

	// Same node: zero-length path.
	path, err = b.FindShortestPath(ctx, a.ID, a.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, path.Length)

	// Disconnected pair.
	g := newTestNode(t, b, "g")
	_, err = b.FindShortestPath(ctx, a.ID, g.ID)
	assert.Equal(t, types.NOT_FOUND, types.CodeOf(err))
}

func TestMockBackendBatchAllOrNothing(t *testing.T) {
	ctx := context.Background()
	b := NewMockBackend(nil)
	require.NoError(t, b.Connect(ctx))

	specs := []NodeSpec{
		{Type: "hostname", Domain: "security", Name: "one"},
		{Type: "hostname", Domain: "security", Name: ""}, // invalid
		{Type: "hostname", Domain: "security", Name: "three"},
	}
	_, err := b.BatchCreateNodes(ctx, specs)
	assert.Equal(t, types.VALIDATION_FAILED, types.CodeOf(err))
	assert.Equal(t, 0, b.NodeCount())

	specs[1].Name = "two"
	nodes, err := b.BatchCreateNodes(ctx, specs)
	require.NoError(t, err)
	assert.Len(t, nodes, 3)
	assert.Equal(t, 3, b.NodeCount())
}

func TestMockBackendCountByType(t *testing.T) {
	ctx := context.Background()
	b := NewMockBackend(nil)
	require.NoError(t, b.Connect(ctx))

	for i := 0; i < 3; i++ {
		newTestNode(t, b, fmt.Sprintf("host-%d", i))
	}
	_, err := b.CreateNode(ctx, NodeSpec{
		Type: "ip_address", Domain: "security", Name: "10.0.0.1",
	})
	require.NoError(t, err)
	_, err = b.CreateNode(ctx, NodeSpec{
		Type: "server", Domain: "infrastructure", Name: "other-domain",
	})
	require.NoError(t, err)

	counts, err := b.CountByType(ctx, "security")
	require.NoError(t, err)
	assert.Equal(t, map[string]int{"hostname": 3, "ip_address": 1}, counts)
}

func TestMockBackendErrorInjection(t *testing.T) {
	ctx := context.Background()
	b := NewMockBackend(nil)
	require.NoError(t, b.Connect(ctx))

	b.SetError("create_node", NewBackendUnavailableError("connection reset", nil))
	_, err := b.CreateNode(ctx, NodeSpec{Type: "hostname", Domain: "security", Name: "x"})
	assert.Equal(t, types.BACKEND_UNAVAILABLE, types.CodeOf(err))
	assert.True(t, types.IsRetryable(err))

	b.SetError("create_node", nil)
	_, err = b.CreateNode(ctx, NodeSpec{Type: "hostname", Domain: "security", Name: "x"})
	assert.NoError(t, err)
}

func TestMockBackendRecordsCalls(t *testing.T) {
	ctx := context.Background()
	b := NewMockBackend(nil)
	require.NoError(t, b.Connect(ctx))
	newTestNode(t, b, "a")
	newTestNode(t, b, "c")

	assert.Len(t, b.CallsByMethod("CreateNode"), 2)
	assert.Len(t, b.CallsByMethod("Connect"), 1)

	b.Reset()
	assert.Empty(t, b.Calls())
	assert.Equal(t, 0, b.NodeCount())
}
