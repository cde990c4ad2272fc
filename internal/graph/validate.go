package graph

import (
	"golang.org/x/sync/errgroup"

	"github.com/Intelligence-Builder/Cloud-Optimizer-sub001/internal/domain"
)

// Tuning carries the engine-independent knobs every backend honors.
type Tuning struct {
	// MaxPathDepth bounds traversal and shortest-path expansion.
	MaxPathDepth int
	// BatchConcurrency bounds parallel registry validation in batch creates.
	BatchConcurrency int
}

// ApplyDefaults fills zero-valued knobs.
func (t *Tuning) ApplyDefaults() {
	if t.MaxPathDepth <= 0 {
		t.MaxPathDepth = 32
	}
	if t.BatchConcurrency <= 0 {
		t.BatchConcurrency = 8
	}
}

// ValidateNodeSpec checks the structural and domain-registry contract for a
// node create. Backends call this before touching storage so the storage
// engine never sees an invalid spec; the engines themselves have no concept
// of the type system.
func ValidateNodeSpec(domains domain.Registry, spec NodeSpec) error {
	if spec.Domain == "" {
		return NewValidationError("node domain is required", nil)
	}
	if spec.Type == "" {
		return NewValidationError("node type is required", nil)
	}
	if spec.Name == "" {
		return NewValidationError("node name is required", nil)
	}
	if domains != nil {
		if err := domains.ValidateEntity(spec.Domain, spec.Type, spec.Properties); err != nil {
			return err
		}
	}
	return nil
}

// ValidateNodeSpecs checks every spec of a batch before any storage work,
// running the registry checks concurrently bounded by limit. Any failure
// rejects the whole batch.
func ValidateNodeSpecs(domains domain.Registry, specs []NodeSpec, limit int) error {
	if limit <= 0 {
		limit = 8
	}
	var g errgroup.Group
	g.SetLimit(limit)
	for _, spec := range specs {
		spec := spec
		g.Go(func() error {
			return ValidateNodeSpec(domains, spec)
		})
	}
	return g.Wait()
}

// ValidateEdgeSpec checks the structural and domain-registry contract for an
// edge create. sourceType and targetType are the entity types of the already
// resolved endpoint nodes.
func ValidateEdgeSpec(domains domain.Registry, spec EdgeSpec, sourceType, targetType string) error {
	if spec.Domain == "" {
		return NewValidationError("edge domain is required", nil)
	}
	if spec.Type == "" {
		return NewValidationError("edge type is required", nil)
	}
	if spec.SourceID.IsZero() || spec.TargetID.IsZero() {
		return NewValidationError("edge requires source and target node ids", nil)
	}
	if domains != nil {
		if err := domains.ValidateRelationship(spec.Domain, spec.Type, sourceType, targetType); err != nil {
			return err
		}
	}
	return nil
}
