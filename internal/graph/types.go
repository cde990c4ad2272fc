// Package graph defines the entity/relationship model and the storage
// abstraction that lets the same model run against structurally different
// backends: a relational engine using recursive CTE queries and a native
// graph engine with first-class traversal. Application code depends only on
// the Backend interface; the concrete engine is chosen by the factory from
// configuration.
package graph

import (
	"time"

	"github.com/Intelligence-Builder/Cloud-Optimizer-sub001/internal/types"
)

// Node is a typed, named entity with domain-validated properties.
type Node struct {
	ID         types.ID       `json:"id"`
	Type       string         `json:"type"`
	Domain     string         `json:"domain"`
	Name       string         `json:"name"`
	Properties map[string]any `json:"properties"`
	CreatedAt  time.Time      `json:"created_at"`
	UpdatedAt  time.Time      `json:"updated_at"`
}

// Edge is a typed, directed link between two nodes.
// Both endpoints must exist before the edge is created; there are no
// dangling edges.
type Edge struct {
	ID         types.ID       `json:"id"`
	Type       string         `json:"type"`
	Domain     string         `json:"domain"`
	SourceID   types.ID       `json:"source_id"`
	TargetID   types.ID       `json:"target_id"`
	Properties map[string]any `json:"properties"`
	CreatedAt  time.Time      `json:"created_at"`
}

// NodeSpec describes a node to create.
type NodeSpec struct {
	// ID, when set, is used instead of a generated identifier. The parity
	// layer and finding ingest rely on this to keep ids stable across
	// backends.
	ID types.ID `json:"id,omitempty"`

	Type       string         `json:"type"`
	Domain     string         `json:"domain"`
	Name       string         `json:"name"`
	Properties map[string]any `json:"properties"`

	// IdempotencyKey, when set, makes retried creates safe: a second create
	// with the same key returns the already-persisted node instead of a
	// duplicate.
	IdempotencyKey string `json:"idempotency_key,omitempty"`
}

// EdgeSpec describes an edge to create.
type EdgeSpec struct {
	// ID, when set, is used instead of a generated identifier.
	ID types.ID `json:"id,omitempty"`

	Type       string         `json:"type"`
	Domain     string         `json:"domain"`
	SourceID   types.ID       `json:"source_id"`
	TargetID   types.ID       `json:"target_id"`
	Properties map[string]any `json:"properties"`
}

// GetStringProperty retrieves a string property value by key.
// Returns empty string if the property doesn't exist or isn't a string.
func (n *Node) GetStringProperty(key string) string {
	if val, ok := n.Properties[key].(string); ok {
		return val
	}
	return ""
}

// Path is an ordered node-id sequence from a start node to an end node.
// Length is the hop count: len(NodeIDs) - 1.
//
// When multiple shortest paths of equal length exist, backends may
// legitimately return different sequences; only Length is contractual.
type Path struct {
	NodeIDs []types.ID `json:"node_ids"`
	Length  int        `json:"length"`
}

// TraverseOptions restricts a traversal.
type TraverseOptions struct {
	// MaxDepth bounds the breadth-first expansion in hops. Zero returns only
	// the start node.
	MaxDepth int

	// RelationshipTypes, when non-empty, restricts expansion to edges of the
	// given types.
	RelationshipTypes []string
}
