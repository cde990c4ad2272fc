package neo4j

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Intelligence-Builder/Cloud-Optimizer-sub001/internal/graph"
	"github.com/Intelligence-Builder/Cloud-Optimizer-sub001/internal/types"
)

func TestQuoteLabel(t *testing.T) {
	assert.Equal(t, "`vulnerability`", quoteLabel("vulnerability"))
	assert.Equal(t, "`resolves_to`", quoteLabel("resolves_to"))
	// Backticks cannot be smuggled into the query.
	assert.Equal(t, "`evil`", quoteLabel("ev`il"))
}

func TestMarshalProps(t *testing.T) {
	props, err := marshalProps(nil)
	require.NoError(t, err)
	assert.Equal(t, "{}", props)

	props, err = marshalProps(map[string]any{"severity": "critical", "cvss_score": 10.0})
	require.NoError(t, err)
	assert.JSONEq(t, `{"severity":"critical","cvss_score":10.0}`, props)

	_, err = marshalProps(map[string]any{"bad": func() {}})
	assert.Equal(t, types.VALIDATION_FAILED, types.CodeOf(err))
}

func TestNodeFromValues(t *testing.T) {
	id := types.NewID()
	ts := time.Now().UTC().Format(time.RFC3339Nano)
	node, err := nodeFromValues([]any{
		id.String(), "security", "hostname", "api.internal",
		`{"name":"api.internal"}`, ts, ts,
	})
	require.NoError(t, err)
	assert.Equal(t, id, node.ID)
	assert.Equal(t, "hostname", node.Type)
	assert.Equal(t, "api.internal", node.GetStringProperty("name"))

	_, err = nodeFromValues([]any{
		"not-a-uuid", "security", "hostname", "x", "{}", ts, ts,
	})
	assert.Error(t, err)
}

func TestOperationsFailWhenNotConnected(t *testing.T) {
	ctx := context.Background()
	b := New(graph.Neo4jConfig{URI: "bolt://localhost:7687", Username: "neo4j", Password: "x"}, nil, graph.Tuning{}, nil)

	_, err := b.GetNode(ctx, types.NewID())
	assert.Equal(t, types.BACKEND_UNAVAILABLE, types.CodeOf(err))
	assert.True(t, types.IsRetryable(err))
	assert.True(t, b.Health(ctx).IsUnhealthy())
}

// integrationBackend connects to a live server named by NEO4J_TEST_URI, or
// skips the test.
func integrationBackend(t *testing.T) *Backend {
	t.Helper()
	uri := os.Getenv("NEO4J_TEST_URI")
	if uri == "" {
		t.Skip("NEO4J_TEST_URI not set; skipping integration test")
	}
	cfg := graph.Neo4jConfig{
		URI:      uri,
		Username: envOr("NEO4J_TEST_USER", "neo4j"),
		Password: envOr("NEO4J_TEST_PASSWORD", "password"),
		Database: os.Getenv("NEO4J_TEST_DATABASE"),
	}
	full := graph.Config{Backend: graph.BackendNeo4j, Neo4j: cfg}
	full.ApplyDefaults()

	b := New(full.Neo4j, nil, graph.Tuning{MaxPathDepth: full.MaxPathDepth}, nil)
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	require.NoError(t, b.Connect(ctx))
	t.Cleanup(func() { b.Close(context.Background()) })
	return b
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func TestIntegrationNodeAndEdgeLifecycle(t *testing.T) {
	b := integrationBackend(t)
	ctx := context.Background()

	a, err := b.CreateNode(ctx, graph.NodeSpec{
		Type: "hostname", Domain: "security", Name: "api.internal",
		Properties: map[string]any{"name": "api.internal"},
	})
	require.NoError(t, err)
	defer b.DeleteNode(ctx, a.ID)

	c, err := b.CreateNode(ctx, graph.NodeSpec{
		Type: "ip_address", Domain: "security", Name: "10.0.0.1",
		Properties: map[string]any{"address": "10.0.0.1"},
	})
	require.NoError(t, err)
	defer b.DeleteNode(ctx, c.ID)

	got, err := b.GetNode(ctx, a.ID)
	require.NoError(t, err)
	assert.Equal(t, "api.internal", got.GetStringProperty("name"))

	edge, err := b.CreateEdge(ctx, graph.EdgeSpec{
		Type: "resolves_to", Domain: "security", SourceID: a.ID, TargetID: c.ID,
	})
	require.NoError(t, err)

	// Delete is blocked while the edge exists.
	err = b.DeleteNode(ctx, a.ID)
	assert.Equal(t, types.CONFLICT, types.CodeOf(err))

	require.NoError(t, b.DeleteEdge(ctx, edge.ID))
	require.NoError(t, b.DeleteNode(ctx, a.ID))
	require.NoError(t, b.DeleteNode(ctx, c.ID))
}

func TestIntegrationTraverseAndShortestPath(t *testing.T) {
	b := integrationBackend(t)
	ctx := context.Background()

	ids := make([]types.ID, 4)
	for i := range ids {
		node, err := b.CreateNode(ctx, graph.NodeSpec{
			Type: "hostname", Domain: "security", Name: fmt.Sprintf("n%d", i),
		})
		require.NoError(t, err)
		ids[i] = node.ID
	}

	var edges []types.ID
	for _, l := range [][2]int{{0, 1}, {1, 2}, {0, 3}, {3, 2}} {
		edge, err := b.CreateEdge(ctx, graph.EdgeSpec{
			Type: "resolves_to", Domain: "security",
			SourceID: ids[l[0]], TargetID: ids[l[1]],
		})
		require.NoError(t, err)
		edges = append(edges, edge.ID)
	}
	t.Cleanup(func() {
		for _, id := range edges {
			b.DeleteEdge(ctx, id)
		}
		for _, id := range ids {
			b.DeleteNode(ctx, id)
		}
	})

	nodes, err := b.Traverse(ctx, ids[0], graph.TraverseOptions{MaxDepth: 1})
	require.NoError(t, err)
	assert.Len(t, nodes, 3)

	nodes, err = b.Traverse(ctx, ids[0], graph.TraverseOptions{MaxDepth: 3})
	require.NoError(t, err)
	assert.Len(t, nodes, 4)

	path, err := b.FindShortestPath(ctx, ids[0], ids[2])
	require.NoError(t, err)
	assert.Equal(t, 2, path.Length)

	path, err = b.FindShortestPath(ctx, ids[0], ids[0])
	require.NoError(t, err)
	assert.Equal(t, 0, path.Length)
}

func TestIntegrationIdempotencyKey(t *testing.T) {
	b := integrationBackend(t)
	ctx := context.Background()

	spec := graph.NodeSpec{
		Type: "hostname", Domain: "security", Name: "db.internal",
		IdempotencyKey: fmt.Sprintf("test-%d", time.Now().UnixNano()),
	}
	first, err := b.CreateNode(ctx, spec)
	require.NoError(t, err)
	t.Cleanup(func() { b.DeleteNode(ctx, first.ID) })

	second, err := b.CreateNode(ctx, spec)
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)
}
