package graph

import (
	"context"

	"github.com/Intelligence-Builder/Cloud-Optimizer-sub001/internal/types"
)

// Backend is the operation contract every storage engine must satisfy.
// The central correctness invariant of the subsystem is backend parity:
// given identical underlying data, Traverse returns the same node set and
// FindShortestPath the same path length from every implementation.
//
// All operations validate types and properties against the domain registry
// before touching storage; the native graph engine has no concept of the
// type system, so validation never lives in the engine.
//
// Thread-safety: implementations must be safe for concurrent use. Blocking
// operations honor context cancellation: on cancellation the backend stops
// scanning or expanding without leaving a partially written node or edge.
type Backend interface {
	// Connect establishes the storage connection.
	Connect(ctx context.Context) error

	// Close releases all resources. Callers own the backend's lifecycle;
	// the factory never shares handles.
	Close(ctx context.Context) error

	// Health returns the current health status of the storage connection.
	Health(ctx context.Context) types.HealthStatus

	// CreateNode validates the spec against the domain registry and persists
	// a node. Fails with VALIDATION_FAILED on a type or property contract
	// violation and CONFLICT on a uniqueness violation. No node is persisted
	// on failure.
	CreateNode(ctx context.Context, spec NodeSpec) (*Node, error)

	// GetNode returns a node by id, or NOT_FOUND.
	GetNode(ctx context.Context, id types.ID) (*Node, error)

	// UpdateNode replaces a node's properties after re-validation.
	UpdateNode(ctx context.Context, id types.ID, properties map[string]any) (*Node, error)

	// DeleteNode removes a node. Fails with CONFLICT while edges still
	// reference it: there is no cascading delete, callers remove dependent
	// edges first.
	DeleteNode(ctx context.Context, id types.ID) error

	// CreateEdge validates the relationship type constraints and persists an
	// edge. Fails with DANGLING_REFERENCE if either endpoint does not exist
	// and VALIDATION_FAILED on a type-constraint violation. No edge is
	// persisted on failure.
	CreateEdge(ctx context.Context, spec EdgeSpec) (*Edge, error)

	// GetEdge returns an edge by id, or NOT_FOUND.
	GetEdge(ctx context.Context, id types.ID) (*Edge, error)

	// DeleteEdge removes an edge by id.
	DeleteEdge(ctx context.Context, id types.ID) error

	// Traverse returns the breadth-first reachability set from start, up to
	// opts.MaxDepth hops along outgoing edges, optionally restricted to the
	// given relationship types. The start node is included. Results are
	// ordered by node id so output is deterministic across backends.
	Traverse(ctx context.Context, start types.ID, opts TraverseOptions) ([]Node, error)

	// FindShortestPath returns a minimal-hop path from start to end, or
	// NOT_FOUND when no path exists. Only the path length is guaranteed to
	// match across backends when several shortest paths tie.
	FindShortestPath(ctx context.Context, start, end types.ID) (*Path, error)

	// BatchCreateNodes creates all specs or none: a single invalid spec
	// aborts the whole batch. Callers needing partial success split the
	// batch themselves. See each backend for its rollback mechanism.
	BatchCreateNodes(ctx context.Context, specs []NodeSpec) ([]*Node, error)

	// CountByType returns node counts per entity type within a domain.
	CountByType(ctx context.Context, domain string) (map[string]int, error)
}
