package scan

import (
	"context"
	"fmt"

	"github.com/Intelligence-Builder/Cloud-Optimizer-sub001/internal/graph"
	"github.com/Intelligence-Builder/Cloud-Optimizer-sub001/internal/types"
)

// Finding is a structured observation from a scanner, already typed by the
// caller rather than extracted from text.
type Finding struct {
	Domain     string         `json:"domain" yaml:"domain"`
	EntityType string         `json:"entity_type" yaml:"entity_type"`
	Name       string         `json:"name" yaml:"name"`
	Properties map[string]any `json:"properties,omitempty" yaml:"properties,omitempty"`

	// Related links this finding's entity to other entities, which are
	// created on demand.
	Related []Relation `json:"related,omitempty" yaml:"related,omitempty"`
}

// Relation is one typed link from a finding's entity to another entity.
type Relation struct {
	Type             string         `json:"type" yaml:"type"`
	TargetType       string         `json:"target_type" yaml:"target_type"`
	TargetName       string         `json:"target_name" yaml:"target_name"`
	TargetProperties map[string]any `json:"target_properties,omitempty" yaml:"target_properties,omitempty"`
	Properties       map[string]any `json:"properties,omitempty" yaml:"properties,omitempty"`
}

// IngestResult reports what an ingest persisted.
type IngestResult struct {
	EntityID     types.ID   `json:"entity_id"`
	RelatedIDs   []types.ID `json:"related_ids,omitempty"`
	EdgesCreated int        `json:"edges_created"`
}

// IngestFinding persists a structured finding into the graph. The finding's
// entity and every related entity are created idempotently, so repeated
// ingest of the same finding converges instead of duplicating.
func (s *Service) IngestFinding(ctx context.Context, f Finding) (*IngestResult, error) {
	if s.backend == nil {
		return nil, types.NewError(types.VALIDATION_FAILED,
			"finding ingest requires a graph backend")
	}
	if f.Domain == "" || f.EntityType == "" || f.Name == "" {
		return nil, types.NewError(types.VALIDATION_FAILED,
			"finding requires domain, entity_type and name")
	}

	node, err := s.backend.CreateNode(ctx, graph.NodeSpec{
		Type:           f.EntityType,
		Domain:         f.Domain,
		Name:           f.Name,
		Properties:     withName(f.Properties, f.Name),
		IdempotencyKey: entityKey(f.Domain, f.EntityType, f.Name),
	})
	if err != nil {
		return nil, err
	}

	result := &IngestResult{EntityID: node.ID}
	for i, rel := range f.Related {
		if rel.Type == "" || rel.TargetType == "" || rel.TargetName == "" {
			return nil, types.NewError(types.VALIDATION_FAILED,
				fmt.Sprintf("related[%d] requires type, target_type and target_name", i))
		}
		target, err := s.backend.CreateNode(ctx, graph.NodeSpec{
			Type:           rel.TargetType,
			Domain:         f.Domain,
			Name:           rel.TargetName,
			Properties:     withName(rel.TargetProperties, rel.TargetName),
			IdempotencyKey: entityKey(f.Domain, rel.TargetType, rel.TargetName),
		})
		if err != nil {
			return nil, err
		}
		result.RelatedIDs = append(result.RelatedIDs, target.ID)

		_, err = s.backend.CreateEdge(ctx, graph.EdgeSpec{
			Type:       rel.Type,
			Domain:     f.Domain,
			SourceID:   node.ID,
			TargetID:   target.ID,
			Properties: rel.Properties,
		})
		if err != nil {
			if types.CodeOf(err) == types.CONFLICT {
				continue
			}
			return nil, err
		}
		result.EdgesCreated++
	}

	s.logger.Info("finding ingested",
		"domain", f.Domain,
		"entity_type", f.EntityType,
		"related", len(f.Related))
	return result, nil
}

// withName guarantees the conventional name property without mutating the
// caller's map.
func withName(props map[string]any, name string) map[string]any {
	out := make(map[string]any, len(props)+1)
	for k, v := range props {
		out[k] = v
	}
	if _, ok := out["name"]; !ok {
		out["name"] = name
	}
	return out
}
