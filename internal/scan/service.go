// Package scan runs pattern detection over free text and, when a graph
// backend is attached, persists the accepted candidates as nodes and edges.
// Persistence is idempotent: an entity is keyed by (domain, type, name), so
// re-scanning the same document never duplicates the graph.
package scan

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/Intelligence-Builder/Cloud-Optimizer-sub001/internal/graph"
	"github.com/Intelligence-Builder/Cloud-Optimizer-sub001/internal/observability"
	"github.com/Intelligence-Builder/Cloud-Optimizer-sub001/internal/pattern"
	"github.com/Intelligence-Builder/Cloud-Optimizer-sub001/internal/types"
)

// Result summarizes one scan.
type Result struct {
	EntitiesFound      int                   `json:"entities_found"`
	RelationshipsFound int                   `json:"relationships_found"`
	Entities           []pattern.ScoredMatch `json:"entities"`
	Relationships      []pattern.ScoredMatch `json:"relationships"`
	ProcessingTime     time.Duration         `json:"processing_time"`

	// NodesCreated and EdgesCreated are set only when persistence is enabled.
	NodesCreated int `json:"nodes_created,omitempty"`
	EdgesCreated int `json:"edges_created,omitempty"`
}

// Service ties the pattern registry to the graph backend.
type Service struct {
	patterns *pattern.Registry
	backend  graph.Backend
	metrics  *observability.Metrics
	logger   *slog.Logger
}

// NewService creates a scan service. backend may be nil for detection-only
// use; metrics may be nil.
func NewService(patterns *pattern.Registry, backend graph.Backend, metrics *observability.Metrics, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		patterns: patterns,
		backend:  backend,
		metrics:  metrics,
		logger:   logger,
	}
}

// Scan detects entities and relationships in text for the given domains,
// dropping candidates below minConfidence, and persists the survivors when a
// backend is attached.
func (s *Service) Scan(ctx context.Context, text string, domains []string, minConfidence float64) (*Result, error) {
	if text == "" {
		return nil, types.NewError(types.VALIDATION_FAILED, "scan text is empty")
	}
	if minConfidence < 0 || minConfidence > 1 {
		return nil, types.NewError(types.VALIDATION_FAILED,
			fmt.Sprintf("min confidence %v is outside [0,1]", minConfidence))
	}

	start := time.Now()
	matches := s.patterns.Snapshot().Detect(text, domains, minConfidence)

	result := &Result{}
	for _, m := range matches {
		switch m.Category {
		case pattern.CategoryRelationship:
			result.Relationships = append(result.Relationships, m)
		default:
			result.Entities = append(result.Entities, m)
		}
	}
	result.EntitiesFound = len(result.Entities)
	result.RelationshipsFound = len(result.Relationships)
	result.ProcessingTime = time.Since(start)

	if s.metrics != nil {
		s.metrics.ObserveDetection(result.ProcessingTime, result.EntitiesFound)
	}
	s.logger.Debug("scan complete",
		"entities", result.EntitiesFound,
		"relationships", result.RelationshipsFound,
		"duration", result.ProcessingTime)

	if s.backend != nil {
		if err := s.persist(ctx, result, start); err != nil {
			return nil, err
		}
	}
	return result, nil
}

// Health reports the service's ability to persist. Detection needs no
// storage, so a service without a backend is degraded rather than unhealthy.
func (s *Service) Health(ctx context.Context) types.HealthStatus {
	if s.backend == nil {
		return types.Degraded("detection only, no graph backend attached")
	}
	return s.backend.Health(ctx)
}

// entityKey makes entity persistence idempotent across scans.
func entityKey(domain, entityType, name string) string {
	return domain + "/" + entityType + "/" + name
}

// persist writes accepted matches to the graph. Entities first so
// relationship edges always have both endpoints; an edge whose endpoints
// already exist from an earlier scan reuses them through the idempotency key.
func (s *Service) persist(ctx context.Context, result *Result, scanStart time.Time) error {
	nodeIDs := make(map[string]types.ID)

	for _, m := range result.Entities {
		node, err := s.persistEntity(ctx, m)
		if err != nil {
			return err
		}
		nodeIDs[entityKey(m.Domain, m.Type, m.Text)] = node.ID
		if !node.CreatedAt.Before(scanStart) {
			result.NodesCreated++
		}
	}

	for _, m := range result.Relationships {
		if m.Source == nil || m.Target == nil {
			continue
		}
		sourceID, err := s.resolveEndpoint(ctx, nodeIDs, *m.Source)
		if err != nil {
			return err
		}
		targetID, err := s.resolveEndpoint(ctx, nodeIDs, *m.Target)
		if err != nil {
			return err
		}

		_, err = s.backend.CreateEdge(ctx, graph.EdgeSpec{
			Type:       m.Type,
			Domain:     m.Domain,
			SourceID:   sourceID,
			TargetID:   targetID,
			Properties: m.Properties,
		})
		if err != nil {
			// An identical edge from an earlier scan is not a failure.
			if types.CodeOf(err) == types.CONFLICT {
				continue
			}
			return err
		}
		result.EdgesCreated++
	}

	if s.metrics != nil && result.NodesCreated > 0 {
		s.metrics.NodesPersisted.Add(float64(result.NodesCreated))
	}
	return nil
}

func (s *Service) persistEntity(ctx context.Context, m pattern.ScoredMatch) (*graph.Node, error) {
	props := withName(m.Properties, m.Text)
	props["confidence"] = m.Confidence

	return s.backend.CreateNode(ctx, graph.NodeSpec{
		Type:           m.Type,
		Domain:         m.Domain,
		Name:           m.Text,
		Properties:     props,
		IdempotencyKey: entityKey(m.Domain, m.Type, m.Text),
	})
}

func (s *Service) resolveEndpoint(ctx context.Context, nodeIDs map[string]types.ID, m pattern.ScoredMatch) (types.ID, error) {
	key := entityKey(m.Domain, m.Type, m.Text)
	if id, ok := nodeIDs[key]; ok {
		return id, nil
	}
	// The endpoint entity was filtered out of this scan's entity list (for
	// example by a higher-confidence duplicate); persist it directly.
	node, err := s.persistEntity(ctx, m)
	if err != nil {
		return "", err
	}
	nodeIDs[key] = node.ID
	return node.ID, nil
}
