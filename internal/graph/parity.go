package graph

import (
	"context"
	"log/slog"
	"sort"

	"golang.org/x/sync/errgroup"

	"github.com/Intelligence-Builder/Cloud-Optimizer-sub001/internal/types"
)

// ParityRecorder receives parity-validation outcomes so they can be exported
// as metrics. Implementations must be safe for concurrent use.
type ParityRecorder interface {
	// RecordDiscrepancy counts a result mismatch between primary and shadow.
	RecordDiscrepancy(operation string)
	// RecordShadowError counts a shadow-backend failure for an operation the
	// primary completed.
	RecordShadowError(operation string)
}

// parityBackend runs every operation against a primary and a shadow backend,
// compares results where the backend contract guarantees equality, and logs
// any divergence. The primary's result is always the one returned; shadow
// failures and mismatches never surface to callers.
//
// Writes pre-assign ids before dispatch so both stores end up with the same
// identifiers and read-side comparison stays meaningful.
type parityBackend struct {
	primary  Backend
	shadow   Backend
	logger   *slog.Logger
	recorder ParityRecorder
}

// WithParity wraps primary so every operation is mirrored onto shadow and
// checked for contract-level agreement. A nil recorder disables metrics; a
// nil logger defaults to slog.Default().
func WithParity(primary, shadow Backend, logger *slog.Logger, recorder ParityRecorder) Backend {
	if logger == nil {
		logger = slog.Default()
	}
	return &parityBackend{primary: primary, shadow: shadow, logger: logger, recorder: recorder}
}

func (p *parityBackend) shadowError(operation string, err error) {
	p.logger.Warn("shadow backend operation failed",
		"operation", operation,
		"error", err)
	if p.recorder != nil {
		p.recorder.RecordShadowError(operation)
	}
}

func (p *parityBackend) discrepancy(operation string, args ...any) {
	p.logger.Error("backend parity discrepancy",
		append([]any{"operation", operation}, args...)...)
	if p.recorder != nil {
		p.recorder.RecordDiscrepancy(operation)
	}
}

// mirror runs the primary and shadow closures concurrently and returns the
// primary's error. Shadow errors are logged and swallowed unless the primary
// failed too, in which case the shadow outcome is irrelevant.
func (p *parityBackend) mirror(operation string, primary, shadow func() error) error {
	var g errgroup.Group
	var shadowErr error
	g.Go(func() error {
		shadowErr = shadow()
		return nil
	})
	primaryErr := primary()
	_ = g.Wait()

	if primaryErr == nil && shadowErr != nil {
		p.shadowError(operation, shadowErr)
	}
	if primaryErr != nil && shadowErr == nil {
		// The shadow accepted a write the primary rejected. The stores have
		// now diverged; flag it so the operator can rebuild the shadow.
		p.discrepancy(operation, "detail", "primary failed but shadow succeeded",
			"primary_error", primaryErr)
	}
	return primaryErr
}

func (p *parityBackend) Connect(ctx context.Context) error {
	return p.mirror("connect",
		func() error { return p.primary.Connect(ctx) },
		func() error { return p.shadow.Connect(ctx) })
}

func (p *parityBackend) Close(ctx context.Context) error {
	if err := p.shadow.Close(ctx); err != nil {
		p.shadowError("close", err)
	}
	return p.primary.Close(ctx)
}

func (p *parityBackend) Health(ctx context.Context) types.HealthStatus {
	return p.primary.Health(ctx)
}

func (p *parityBackend) CreateNode(ctx context.Context, spec NodeSpec) (*Node, error) {
	if spec.ID.IsZero() {
		spec.ID = types.NewID()
	}
	var node *Node
	err := p.mirror("create_node",
		func() error {
			var opErr error
			node, opErr = p.primary.CreateNode(ctx, spec)
			return opErr
		},
		func() error {
			_, opErr := p.shadow.CreateNode(ctx, spec)
			return opErr
		})
	return node, err
}

func (p *parityBackend) GetNode(ctx context.Context, id types.ID) (*Node, error) {
	node, err := p.primary.GetNode(ctx, id)
	shadowNode, shadowErr := p.shadow.GetNode(ctx, id)
	switch {
	case err == nil && shadowErr != nil:
		if types.CodeOf(shadowErr) == types.NOT_FOUND {
			p.discrepancy("get_node", "id", id, "detail", "node missing from shadow")
		} else {
			p.shadowError("get_node", shadowErr)
		}
	case err != nil && shadowErr == nil && types.CodeOf(err) == types.NOT_FOUND:
		p.discrepancy("get_node", "id", id, "detail", "node missing from primary")
	case err == nil && shadowErr == nil && node.Type != shadowNode.Type:
		p.discrepancy("get_node", "id", id,
			"primary_type", node.Type, "shadow_type", shadowNode.Type)
	}
	return node, err
}

func (p *parityBackend) UpdateNode(ctx context.Context, id types.ID, properties map[string]any) (*Node, error) {
	var node *Node
	err := p.mirror("update_node",
		func() error {
			var opErr error
			node, opErr = p.primary.UpdateNode(ctx, id, properties)
			return opErr
		},
		func() error {
			_, opErr := p.shadow.UpdateNode(ctx, id, properties)
			return opErr
		})
	return node, err
}

func (p *parityBackend) DeleteNode(ctx context.Context, id types.ID) error {
	return p.mirror("delete_node",
		func() error { return p.primary.DeleteNode(ctx, id) },
		func() error { return p.shadow.DeleteNode(ctx, id) })
}

func (p *parityBackend) CreateEdge(ctx context.Context, spec EdgeSpec) (*Edge, error) {
	if spec.ID.IsZero() {
		spec.ID = types.NewID()
	}
	var edge *Edge
	err := p.mirror("create_edge",
		func() error {
			var opErr error
			edge, opErr = p.primary.CreateEdge(ctx, spec)
			return opErr
		},
		func() error {
			_, opErr := p.shadow.CreateEdge(ctx, spec)
			return opErr
		})
	return edge, err
}

func (p *parityBackend) GetEdge(ctx context.Context, id types.ID) (*Edge, error) {
	return p.primary.GetEdge(ctx, id)
}

func (p *parityBackend) DeleteEdge(ctx context.Context, id types.ID) error {
	return p.mirror("delete_edge",
		func() error { return p.primary.DeleteEdge(ctx, id) },
		func() error { return p.shadow.DeleteEdge(ctx, id) })
}

// Traverse compares the reachability sets by node id. The contract requires
// set equality, so ordering differences are not discrepancies.
func (p *parityBackend) Traverse(ctx context.Context, start types.ID, opts TraverseOptions) ([]Node, error) {
	var (
		g           errgroup.Group
		shadowNodes []Node
		shadowErr   error
	)
	g.Go(func() error {
		shadowNodes, shadowErr = p.shadow.Traverse(ctx, start, opts)
		return nil
	})
	nodes, err := p.primary.Traverse(ctx, start, opts)
	_ = g.Wait()

	switch {
	case err != nil:
	case shadowErr != nil:
		p.shadowError("traverse", shadowErr)
	default:
		if !sameNodeIDSet(nodes, shadowNodes) {
			p.discrepancy("traverse", "start", start,
				"primary_count", len(nodes), "shadow_count", len(shadowNodes))
		}
	}
	return nodes, err
}

// FindShortestPath compares path lengths only. Distinct same-length routes
// are legitimate when multiple shortest paths tie.
func (p *parityBackend) FindShortestPath(ctx context.Context, start, end types.ID) (*Path, error) {
	var (
		g          errgroup.Group
		shadowPath *Path
		shadowErr  error
	)
	g.Go(func() error {
		shadowPath, shadowErr = p.shadow.FindShortestPath(ctx, start, end)
		return nil
	})
	path, err := p.primary.FindShortestPath(ctx, start, end)
	_ = g.Wait()

	switch {
	case err == nil && shadowErr == nil:
		if path.Length != shadowPath.Length {
			p.discrepancy("find_shortest_path", "start", start, "end", end,
				"primary_length", path.Length, "shadow_length", shadowPath.Length)
		}
	case err == nil && shadowErr != nil:
		if types.CodeOf(shadowErr) == types.NOT_FOUND {
			p.discrepancy("find_shortest_path", "start", start, "end", end,
				"detail", "path exists only in primary")
		} else {
			p.shadowError("find_shortest_path", shadowErr)
		}
	case err != nil && shadowErr == nil && types.CodeOf(err) == types.NOT_FOUND:
		p.discrepancy("find_shortest_path", "start", start, "end", end,
			"detail", "path exists only in shadow")
	}
	return path, err
}

func (p *parityBackend) BatchCreateNodes(ctx context.Context, specs []NodeSpec) ([]*Node, error) {
	// Pre-assign ids once so both stores receive identical specs.
	assigned := make([]NodeSpec, len(specs))
	copy(assigned, specs)
	for i := range assigned {
		if assigned[i].ID.IsZero() {
			assigned[i].ID = types.NewID()
		}
	}
	var nodes []*Node
	err := p.mirror("batch_create_nodes",
		func() error {
			var opErr error
			nodes, opErr = p.primary.BatchCreateNodes(ctx, assigned)
			return opErr
		},
		func() error {
			_, opErr := p.shadow.BatchCreateNodes(ctx, assigned)
			return opErr
		})
	return nodes, err
}

func (p *parityBackend) CountByType(ctx context.Context, domain string) (map[string]int, error) {
	counts, err := p.primary.CountByType(ctx, domain)
	if err != nil {
		return nil, err
	}
	shadowCounts, shadowErr := p.shadow.CountByType(ctx, domain)
	if shadowErr != nil {
		p.shadowError("count_by_type", shadowErr)
		return counts, nil
	}
	if !sameCounts(counts, shadowCounts) {
		p.discrepancy("count_by_type", "domain", domain,
			"primary", counts, "shadow", shadowCounts)
	}
	return counts, nil
}

func sameNodeIDSet(a, b []Node) bool {
	if len(a) != len(b) {
		return false
	}
	ids := func(nodes []Node) []string {
		out := make([]string, len(nodes))
		for i, n := range nodes {
			out[i] = n.ID.String()
		}
		sort.Strings(out)
		return out
	}
	aIDs, bIDs := ids(a), ids(b)
	for i := range aIDs {
		if aIDs[i] != bIDs[i] {
			return false
		}
	}
	return true
}

func sameCounts(a, b map[string]int) bool {
	if len(a) != len(b) {
		return false
	}
	for k, v := range a {
		if b[k] != v {
			return false
		}
	}
	return true
}
