package graph

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Intelligence-Builder/Cloud-Optimizer-sub001/internal/types"
)

type testRecorder struct {
	mu            sync.Mutex
	discrepancies map[string]int
	shadowErrors  map[string]int
}

func newTestRecorder() *testRecorder {
	return &testRecorder{
		discrepancies: make(map[string]int),
		shadowErrors:  make(map[string]int),
	}
}

func (r *testRecorder) RecordDiscrepancy(operation string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.discrepancies[operation]++
}

func (r *testRecorder) RecordShadowError(operation string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.shadowErrors[operation]++
}

func newParityPair(t *testing.T) (*MockBackend, *MockBackend, Backend, *testRecorder) {
	t.Helper()
	primary := NewMockBackend(nil)
	shadow := NewMockBackend(nil)
	rec := newTestRecorder()
	b := WithParity(primary, shadow, nil, rec)
	require.NoError(t, b.Connect(context.Background()))
	return primary, shadow, b, rec
}

func TestParityMirrorsWritesWithSharedIDs(t *testing.T) {
	ctx := context.Background()
	primary, shadow, b, rec := newParityPair(t)

	node, err := b.CreateNode(ctx, NodeSpec{Type: "hostname", Domain: "security", Name: "a"})
	require.NoError(t, err)

	fromPrimary, err := primary.GetNode(ctx, node.ID)
	require.NoError(t, err)
	fromShadow, err := shadow.GetNode(ctx, node.ID)
	require.NoError(t, err)
	assert.Equal(t, fromPrimary.ID, fromShadow.ID)

	other, err := b.CreateNode(ctx, NodeSpec{Type: "hostname", Domain: "security", Name: "c"})
	require.NoError(t, err)
	_, err = b.CreateEdge(ctx, EdgeSpec{
		Type: "resolves_to", Domain: "security", SourceID: node.ID, TargetID: other.ID,
	})
	require.NoError(t, err)
	assert.Equal(t, 1, primary.EdgeCount())
	assert.Equal(t, 1, shadow.EdgeCount())

	assert.Empty(t, rec.discrepancies)
	assert.Empty(t, rec.shadowErrors)
}

func TestParityDetectsTraverseDivergence(t *testing.T) {
	ctx := context.Background()
	primary, _, b, rec := newParityPair(t)

	a, err := b.CreateNode(ctx, NodeSpec{Type: "hostname", Domain: "security", Name: "a"})
	require.NoError(t, err)
	c, err := b.CreateNode(ctx, NodeSpec{Type: "hostname", Domain: "security", Name: "c"})
	require.NoError(t, err)

	// Extra edge only in the primary makes the reachability sets diverge.
	_, err = primary.CreateEdge(ctx, EdgeSpec{
		Type: "resolves_to", Domain: "security", SourceID: a.ID, TargetID: c.ID,
	})
	require.NoError(t, err)

	nodes, err := b.Traverse(ctx, a.ID, TraverseOptions{MaxDepth: 3})
	require.NoError(t, err)
	assert.Len(t, nodes, 2) // primary is authoritative
	assert.Equal(t, 1, rec.discrepancies["traverse"])
}

func TestParityDetectsPathLengthMismatch(t *testing.T) {
	ctx := context.Background()
	primary, shadow, b, rec := newParityPair(t)

	a, err := b.CreateNode(ctx, NodeSpec{Type: "hostname", Domain: "security", Name: "a"})
	require.NoError(t, err)
	c, err := b.CreateNode(ctx, NodeSpec{Type: "hostname", Domain: "security", Name: "c"})
	require.NoError(t, err)
	d, err := b.CreateNode(ctx, NodeSpec{Type: "hostname", Domain: "security", Name: "d"})
	require.NoError(t, err)

	// Primary has a direct shortcut, shadow only the two-hop route.
	_, err = primary.CreateEdge(ctx, EdgeSpec{
		Type: "resolves_to", Domain: "security", SourceID: a.ID, TargetID: d.ID,
	})
	require.NoError(t, err)
	for _, be := range []*MockBackend{primary, shadow} {
		_, err = be.CreateEdge(ctx, EdgeSpec{
			Type: "associated_with", Domain: "security", SourceID: a.ID, TargetID: c.ID,
		})
		require.NoError(t, err)
		_, err = be.CreateEdge(ctx, EdgeSpec{
			Type: "associated_with", Domain: "security", SourceID: c.ID, TargetID: d.ID,
		})
		require.NoError(t, err)
	}

	path, err := b.FindShortestPath(ctx, a.ID, d.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, path.Length) // primary's answer
	assert.Equal(t, 1, rec.discrepancies["find_shortest_path"])
}

func TestParityShadowFailureNeverSurfaces(t *testing.T) {
	ctx := context.Background()
	primary, shadow, b, rec := newParityPair(t)

	shadow.SetError("create_node", NewBackendUnavailableError("down", nil))

	node, err := b.CreateNode(ctx, NodeSpec{Type: "hostname", Domain: "security", Name: "a"})
	require.NoError(t, err)
	assert.NotNil(t, node)
	assert.Equal(t, 1, primary.NodeCount())
	assert.Equal(t, 0, shadow.NodeCount())
	assert.Equal(t, 1, rec.shadowErrors["create_node"])
}

func TestParityPrimaryFailureSurfaces(t *testing.T) {
	ctx := context.Background()
	primary, shadow, b, rec := newParityPair(t)

	primary.SetError("create_node", NewQueryError("disk full", nil))

	_, err := b.CreateNode(ctx, NodeSpec{Type: "hostname", Domain: "security", Name: "a"})
	assert.Equal(t, types.QUERY_FAILED, types.CodeOf(err))

	// The shadow accepted what the primary rejected; that divergence is
	// flagged, not hidden.
	assert.Equal(t, 1, shadow.NodeCount())
	assert.Equal(t, 1, rec.discrepancies["create_node"])
}

func TestParityCountByTypeComparesMaps(t *testing.T) {
	ctx := context.Background()
	primary, _, b, rec := newParityPair(t)

	_, err := b.CreateNode(ctx, NodeSpec{Type: "hostname", Domain: "security", Name: "a"})
	require.NoError(t, err)
	_, err = primary.CreateNode(ctx, NodeSpec{Type: "hostname", Domain: "security", Name: "extra"})
	require.NoError(t, err)

	counts, err := b.CountByType(ctx, "security")
	require.NoError(t, err)
	assert.Equal(t, 2, counts["hostname"])
	assert.Equal(t, 1, rec.discrepancies["count_by_type"])
}

func TestParityBatchSharesIDs(t *testing.T) {
	ctx := context.Background()
	primary, shadow, b, _ := newParityPair(t)

	nodes, err := b.BatchCreateNodes(ctx, []NodeSpec{
		{Type: "hostname", Domain: "security", Name: "a"},
		{Type: "hostname", Domain: "security", Name: "c"},
	})
	require.NoError(t, err)
	require.Len(t, nodes, 2)

	for _, n := range nodes {
		_, err := primary.GetNode(ctx, n.ID)
		require.NoError(t, err)
		_, err = shadow.GetNode(ctx, n.ID)
		require.NoError(t, err)
	}
}
