// Package neo4j implements the graph storage contract on a native graph
// engine. Traversal and shortest-path queries use the engine's variable
// length match and shortestPath primitives; all type and property validation
// happens against the domain registry before any Cypher runs, because the
// engine itself has no concept of the type system.
//
// Nodes carry their own UUID in an `id` property rather than relying on the
// engine's internal element ids, so identifiers stay stable across backends
// and database migrations. Domain properties are stored JSON-encoded in a
// single `properties` field; the engine only ever treats them as opaque.
package neo4j

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"

	"github.com/Intelligence-Builder/Cloud-Optimizer-sub001/internal/domain"
	"github.com/Intelligence-Builder/Cloud-Optimizer-sub001/internal/graph"
	"github.com/Intelligence-Builder/Cloud-Optimizer-sub001/internal/types"
)

// nodeLabel is the shared label carried by every node so id lookups hit the
// per-label index instead of scanning the whole store.
const nodeLabel = "Entity"

// Backend is the native graph.Backend implementation.
type Backend struct {
	cfg     graph.Neo4jConfig
	domains domain.Registry
	logger  *slog.Logger
	tuning  graph.Tuning

	driver neo4j.DriverWithContext
}

// New creates a native graph backend. Connect must be called before use.
func New(cfg graph.Neo4jConfig, domains domain.Registry, tuning graph.Tuning, logger *slog.Logger) *Backend {
	if logger == nil {
		logger = slog.Default()
	}
	tuning.ApplyDefaults()
	return &Backend{
		cfg:     cfg,
		domains: domains,
		logger:  logger,
		tuning:  tuning,
	}
}

// Connect establishes the driver connection with exponential backoff, then
// ensures the id uniqueness constraint exists.
func (b *Backend) Connect(ctx context.Context) error {
	auth := neo4j.BasicAuth(b.cfg.Username, b.cfg.Password, "")
	driverConfig := func(config *neo4j.Config) {
		config.MaxConnectionPoolSize = b.cfg.MaxConnectionPoolSize
		config.ConnectionAcquisitionTimeout = b.cfg.ConnectionTimeout
		config.MaxTransactionRetryTime = b.cfg.MaxTransactionRetryTime
	}

	var driver neo4j.DriverWithContext
	var lastErr error
	maxRetries := 5
	baseDelay := 100 * time.Millisecond

	for attempt := 0; attempt < maxRetries; attempt++ {
		var err error
		driver, err = neo4j.NewDriverWithContext(b.cfg.URI, auth, driverConfig)
		if err == nil {
			err = driver.VerifyConnectivity(ctx)
			if err == nil {
				b.driver = driver
				break
			}
		}
		lastErr = err

		if ctx.Err() != nil {
			return graph.NewBackendUnavailableError("connection attempt cancelled", ctx.Err())
		}

		delay := baseDelay * time.Duration(math.Pow(2, float64(attempt)))
		if delay > b.cfg.ConnectionTimeout {
			delay = b.cfg.ConnectionTimeout
		}
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return graph.NewBackendUnavailableError("connection attempt cancelled", ctx.Err())
		}
	}
	if b.driver == nil {
		return graph.NewBackendUnavailableError(
			fmt.Sprintf("failed to connect after %d attempts", maxRetries), lastErr)
	}

	if err := b.ensureConstraints(ctx); err != nil {
		b.driver.Close(ctx)
		b.driver = nil
		return err
	}

	b.logger.Info("native graph backend connected", "uri", b.cfg.URI)
	return nil
}

func (b *Backend) ensureConstraints(ctx context.Context) error {
	session := b.writeSession(ctx)
	defer session.Close(ctx)

	_, err := session.ExecuteWrite(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		_, err := tx.Run(ctx, fmt.Sprintf(
			"CREATE CONSTRAINT entity_id IF NOT EXISTS FOR (n:%s) REQUIRE n.id IS UNIQUE",
			nodeLabel), nil)
		return nil, err
	})
	if err != nil {
		return graph.NewQueryError("failed to ensure id constraint", err)
	}
	return nil
}

// Close releases the driver.
func (b *Backend) Close(ctx context.Context) error {
	if b.driver == nil {
		return nil
	}
	err := b.driver.Close(ctx)
	b.driver = nil
	if err != nil {
		return graph.NewBackendUnavailableError("failed to close driver", err)
	}
	return nil
}

// Health verifies connectivity with a bounded timeout.
func (b *Backend) Health(ctx context.Context) types.HealthStatus {
	if b.driver == nil {
		return types.Unhealthy("driver not initialized")
	}
	healthCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := b.driver.VerifyConnectivity(healthCtx); err != nil {
		return types.Unhealthy(fmt.Sprintf("connectivity check failed: %v", err))
	}
	return types.Healthy("connected to graph engine")
}

func (b *Backend) readSession(ctx context.Context) neo4j.SessionWithContext {
	return b.driver.NewSession(ctx, neo4j.SessionConfig{
		DatabaseName: b.cfg.Database,
		AccessMode:   neo4j.AccessModeRead,
	})
}

func (b *Backend) writeSession(ctx context.Context) neo4j.SessionWithContext {
	return b.driver.NewSession(ctx, neo4j.SessionConfig{
		DatabaseName: b.cfg.Database,
	})
}

func (b *Backend) CreateNode(ctx context.Context, spec graph.NodeSpec) (*graph.Node, error) {
	if err := graph.ValidateNodeSpec(b.domains, spec); err != nil {
		return nil, err
	}
	if b.driver == nil {
		return nil, graph.NewBackendUnavailableError("driver not connected", nil)
	}

	session := b.writeSession(ctx)
	defer session.Close(ctx)

	result, err := session.ExecuteWrite(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		return createNodeTx(ctx, tx, spec)
	})
	if err != nil {
		return nil, mapWriteError("failed to create node", err)
	}
	return result.(*graph.Node), nil
}

// createNodeTx persists one node within tx, honoring the idempotency key and
// flagging id conflicts before the unique constraint fires.
func createNodeTx(ctx context.Context, tx neo4j.ManagedTransaction, spec graph.NodeSpec) (*graph.Node, error) {
	if spec.IdempotencyKey != "" {
		res, err := tx.Run(ctx, fmt.Sprintf(`
			MATCH (n:%s {idempotency_key: $key})
			RETURN n.id, n.domain, n.type, n.name, n.properties, n.created_at, n.updated_at`,
			nodeLabel), map[string]any{"key": spec.IdempotencyKey})
		if err != nil {
			return nil, err
		}
		if res.Next(ctx) {
			return nodeFromValues(res.Record().Values)
		}
	}

	id := spec.ID
	if id.IsZero() {
		id = types.NewID()
	}

	res, err := tx.Run(ctx, fmt.Sprintf(
		"MATCH (n:%s {id: $id}) RETURN n.id", nodeLabel),
		map[string]any{"id": id.String()})
	if err != nil {
		return nil, err
	}
	if res.Next(ctx) {
		return nil, graph.NewConflictError("node already exists: " + id.String())
	}

	props, err := marshalProps(spec.Properties)
	if err != nil {
		return nil, err
	}
	now := time.Now().UTC()
	params := map[string]any{
		"id":         id.String(),
		"domain":     spec.Domain,
		"type":       spec.Type,
		"name":       spec.Name,
		"properties": props,
		"ts":         now.Format(time.RFC3339Nano),
	}
	if spec.IdempotencyKey != "" {
		params["key"] = spec.IdempotencyKey
	} else {
		params["key"] = nil
	}

	_, err = tx.Run(ctx, fmt.Sprintf(`
		CREATE (n:%s:%s {
			id: $id, domain: $domain, type: $type, name: $name,
			properties: $properties, idempotency_key: $key,
			created_at: $ts, updated_at: $ts
		})`, nodeLabel, quoteLabel(spec.Type)), params)
	if err != nil {
		return nil, err
	}

	return &graph.Node{
		ID:         id,
		Type:       spec.Type,
		Domain:     spec.Domain,
		Name:       spec.Name,
		Properties: spec.Properties,
		CreatedAt:  now,
		UpdatedAt:  now,
	}, nil
}

func (b *Backend) GetNode(ctx context.Context, id types.ID) (*graph.Node, error) {
	if b.driver == nil {
		return nil, graph.NewBackendUnavailableError("driver not connected", nil)
	}
	session := b.readSession(ctx)
	defer session.Close(ctx)

	result, err := session.ExecuteRead(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		res, err := tx.Run(ctx, fmt.Sprintf(`
			MATCH (n:%s {id: $id})
			RETURN n.id, n.domain, n.type, n.name, n.properties, n.created_at, n.updated_at`,
			nodeLabel), map[string]any{"id": id.String()})
		if err != nil {
			return nil, err
		}
		if !res.Next(ctx) {
			return nil, graph.NewNotFoundError("node", id)
		}
		return nodeFromValues(res.Record().Values)
	})
	if err != nil {
		return nil, mapReadError("failed to read node", err)
	}
	return result.(*graph.Node), nil
}

func (b *Backend) UpdateNode(ctx context.Context, id types.ID, properties map[string]any) (*graph.Node, error) {
	if b.driver == nil {
		return nil, graph.NewBackendUnavailableError("driver not connected", nil)
	}
	session := b.writeSession(ctx)
	defer session.Close(ctx)

	result, err := session.ExecuteWrite(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		res, err := tx.Run(ctx, fmt.Sprintf(`
			MATCH (n:%s {id: $id})
			RETURN n.id, n.domain, n.type, n.name, n.properties, n.created_at, n.updated_at`,
			nodeLabel), map[string]any{"id": id.String()})
		if err != nil {
			return nil, err
		}
		if !res.Next(ctx) {
			return nil, graph.NewNotFoundError("node", id)
		}
		node, err := nodeFromValues(res.Record().Values)
		if err != nil {
			return nil, err
		}

		if b.domains != nil {
			if err := b.domains.ValidateEntity(node.Domain, node.Type, properties); err != nil {
				return nil, err
			}
		}

		props, err := marshalProps(properties)
		if err != nil {
			return nil, err
		}
		now := time.Now().UTC()
		_, err = tx.Run(ctx, fmt.Sprintf(`
			MATCH (n:%s {id: $id})
			SET n.properties = $properties, n.updated_at = $ts`,
			nodeLabel), map[string]any{
			"id": id.String(), "properties": props, "ts": now.Format(time.RFC3339Nano),
		})
		if err != nil {
			return nil, err
		}

		node.Properties = properties
		node.UpdatedAt = now
		return node, nil
	})
	if err != nil {
		return nil, mapWriteError("failed to update node", err)
	}
	return result.(*graph.Node), nil
}

func (b *Backend) DeleteNode(ctx context.Context, id types.ID) error {
	if b.driver == nil {
		return graph.NewBackendUnavailableError("driver not connected", nil)
	}
	session := b.writeSession(ctx)
	defer session.Close(ctx)

	_, err := session.ExecuteWrite(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		res, err := tx.Run(ctx, fmt.Sprintf(`
			MATCH (n:%s {id: $id})
			OPTIONAL MATCH (n)-[r]-()
			RETURN n.id, count(r)`, nodeLabel),
			map[string]any{"id": id.String()})
		if err != nil {
			return nil, err
		}
		if !res.Next(ctx) {
			return nil, graph.NewNotFoundError("node", id)
		}
		refs, _ := res.Record().Values[1].(int64)
		if refs > 0 {
			return nil, graph.NewConflictError(
				fmt.Sprintf("node %s is still referenced by %d edges", id, refs))
		}

		_, err = tx.Run(ctx, fmt.Sprintf(
			"MATCH (n:%s {id: $id}) DELETE n", nodeLabel),
			map[string]any{"id": id.String()})
		return nil, err
	})
	if err != nil {
		return mapWriteError("failed to delete node", err)
	}
	return nil
}

func (b *Backend) CreateEdge(ctx context.Context, spec graph.EdgeSpec) (*graph.Edge, error) {
	if b.driver == nil {
		return nil, graph.NewBackendUnavailableError("driver not connected", nil)
	}
	session := b.writeSession(ctx)
	defer session.Close(ctx)

	result, err := session.ExecuteWrite(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		sourceType, err := endpointType(ctx, tx, "source", spec.SourceID)
		if err != nil {
			return nil, err
		}
		targetType, err := endpointType(ctx, tx, "target", spec.TargetID)
		if err != nil {
			return nil, err
		}
		if err := graph.ValidateEdgeSpec(b.domains, spec, sourceType, targetType); err != nil {
			return nil, err
		}

		relType := quoteLabel(spec.Type)
		res, err := tx.Run(ctx, fmt.Sprintf(`
			MATCH (a:%s {id: $source})-[r:%s]->(c:%s {id: $target})
			RETURN r.id`, nodeLabel, relType, nodeLabel),
			map[string]any{"source": spec.SourceID.String(), "target": spec.TargetID.String()})
		if err != nil {
			return nil, err
		}
		if res.Next(ctx) {
			return nil, graph.NewConflictError("edge already exists between nodes")
		}

		id := spec.ID
		if id.IsZero() {
			id = types.NewID()
		}
		props, err := marshalProps(spec.Properties)
		if err != nil {
			return nil, err
		}
		now := time.Now().UTC()
		_, err = tx.Run(ctx, fmt.Sprintf(`
			MATCH (a:%s {id: $source}), (c:%s {id: $target})
			CREATE (a)-[r:%s {
				id: $id, domain: $domain, properties: $properties, created_at: $ts
			}]->(c)`, nodeLabel, nodeLabel, relType),
			map[string]any{
				"source": spec.SourceID.String(), "target": spec.TargetID.String(),
				"id": id.String(), "domain": spec.Domain,
				"properties": props, "ts": now.Format(time.RFC3339Nano),
			})
		if err != nil {
			return nil, err
		}

		return &graph.Edge{
			ID:         id,
			Type:       spec.Type,
			Domain:     spec.Domain,
			SourceID:   spec.SourceID,
			TargetID:   spec.TargetID,
			Properties: spec.Properties,
			CreatedAt:  now,
		}, nil
	})
	if err != nil {
		return nil, mapWriteError("failed to create edge", err)
	}
	return result.(*graph.Edge), nil
}

func endpointType(ctx context.Context, tx neo4j.ManagedTransaction, role string, id types.ID) (string, error) {
	res, err := tx.Run(ctx, fmt.Sprintf(
		"MATCH (n:%s {id: $id}) RETURN n.type", nodeLabel),
		map[string]any{"id": id.String()})
	if err != nil {
		return "", err
	}
	if !res.Next(ctx) {
		return "", graph.NewDanglingReferenceError(role, id)
	}
	nodeType, _ := res.Record().Values[0].(string)
	return nodeType, nil
}

func (b *Backend) GetEdge(ctx context.Context, id types.ID) (*graph.Edge, error) {
	if b.driver == nil {
		return nil, graph.NewBackendUnavailableError("driver not connected", nil)
	}
	session := b.readSession(ctx)
	defer session.Close(ctx)

	result, err := session.ExecuteRead(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		res, err := tx.Run(ctx, fmt.Sprintf(`
			MATCH (a:%s)-[r {id: $id}]->(c:%s)
			RETURN r.id, r.domain, type(r), a.id, c.id, r.properties, r.created_at`,
			nodeLabel, nodeLabel), map[string]any{"id": id.String()})
		if err != nil {
			return nil, err
		}
		if !res.Next(ctx) {
			return nil, graph.NewNotFoundError("edge", id)
		}
		return edgeFromValues(res.Record().Values)
	})
	if err != nil {
		return nil, mapReadError("failed to read edge", err)
	}
	return result.(*graph.Edge), nil
}

func (b *Backend) DeleteEdge(ctx context.Context, id types.ID) error {
	if b.driver == nil {
		return graph.NewBackendUnavailableError("driver not connected", nil)
	}
	session := b.writeSession(ctx)
	defer session.Close(ctx)

	_, err := session.ExecuteWrite(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		res, err := tx.Run(ctx,
			"MATCH ()-[r {id: $id}]->() DELETE r RETURN count(r)",
			map[string]any{"id": id.String()})
		if err != nil {
			return nil, err
		}
		if !res.Next(ctx) {
			return nil, graph.NewNotFoundError("edge", id)
		}
		deleted, _ := res.Record().Values[0].(int64)
		if deleted == 0 {
			return nil, graph.NewNotFoundError("edge", id)
		}
		return nil, nil
	})
	if err != nil {
		return mapWriteError("failed to delete edge", err)
	}
	return nil
}

// Traverse expands outgoing edges with a variable-length match. The depth
// bound must be a query literal; the engine does not accept it as a
// parameter.
func (b *Backend) Traverse(ctx context.Context, start types.ID, opts graph.TraverseOptions) ([]graph.Node, error) {
	if b.driver == nil {
		return nil, graph.NewBackendUnavailableError("driver not connected", nil)
	}
	session := b.readSession(ctx)
	defer session.Close(ctx)

	result, err := session.ExecuteRead(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		res, err := tx.Run(ctx, fmt.Sprintf(`
			MATCH (n:%s {id: $id})
			RETURN n.id, n.domain, n.type, n.name, n.properties, n.created_at, n.updated_at`,
			nodeLabel), map[string]any{"id": start.String()})
		if err != nil {
			return nil, err
		}
		if !res.Next(ctx) {
			return nil, graph.NewNotFoundError("node", start)
		}
		startNode, err := nodeFromValues(res.Record().Values)
		if err != nil {
			return nil, err
		}

		nodes := []graph.Node{*startNode}
		if opts.MaxDepth <= 0 {
			return nodes, nil
		}

		query := fmt.Sprintf(`
			MATCH p = (start:%s {id: $id})-[*1..%d]->(n:%s)`,
			nodeLabel, opts.MaxDepth, nodeLabel)
		params := map[string]any{"id": start.String()}
		if len(opts.RelationshipTypes) > 0 {
			query += "\n\t\t\tWHERE ALL(r IN relationships(p) WHERE type(r) IN $types)"
			params["types"] = opts.RelationshipTypes
		}
		query += `
			RETURN DISTINCT n.id, n.domain, n.type, n.name, n.properties, n.created_at, n.updated_at`

		res, err = tx.Run(ctx, query, params)
		if err != nil {
			return nil, err
		}
		seen := map[string]bool{startNode.ID.String(): true}
		for res.Next(ctx) {
			node, err := nodeFromValues(res.Record().Values)
			if err != nil {
				return nil, err
			}
			if seen[node.ID.String()] {
				continue
			}
			seen[node.ID.String()] = true
			nodes = append(nodes, *node)
		}
		if err := res.Err(); err != nil {
			return nil, err
		}
		return nodes, nil
	})
	if err != nil {
		return nil, mapReadError("traversal failed", err)
	}

	nodes := result.([]graph.Node)
	sort.Slice(nodes, func(i, j int) bool {
		return nodes[i].ID.String() < nodes[j].ID.String()
	})
	return nodes, nil
}

// FindShortestPath delegates to the engine's shortestPath primitive, bounded
// by the configured path depth.
func (b *Backend) FindShortestPath(ctx context.Context, start, end types.ID) (*graph.Path, error) {
	if b.driver == nil {
		return nil, graph.NewBackendUnavailableError("driver not connected", nil)
	}
	if start == end {
		if _, err := b.GetNode(ctx, start); err != nil {
			return nil, err
		}
		return &graph.Path{NodeIDs: []types.ID{start}, Length: 0}, nil
	}

	session := b.readSession(ctx)
	defer session.Close(ctx)

	result, err := session.ExecuteRead(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		for _, id := range []types.ID{start, end} {
			res, err := tx.Run(ctx, fmt.Sprintf(
				"MATCH (n:%s {id: $id}) RETURN n.id", nodeLabel),
				map[string]any{"id": id.String()})
			if err != nil {
				return nil, err
			}
			if !res.Next(ctx) {
				return nil, graph.NewNotFoundError("node", id)
			}
		}

		res, err := tx.Run(ctx, fmt.Sprintf(`
			MATCH (a:%s {id: $start}), (c:%s {id: $end})
			MATCH p = shortestPath((a)-[*..%d]->(c))
			RETURN [n IN nodes(p) | n.id] AS ids, length(p) AS len`,
			nodeLabel, nodeLabel, b.tuning.MaxPathDepth),
			map[string]any{"start": start.String(), "end": end.String()})
		if err != nil {
			return nil, err
		}
		if !res.Next(ctx) {
			return nil, types.NewError(types.NOT_FOUND,
				fmt.Sprintf("no path from %s to %s", start, end))
		}

		rawIDs, _ := res.Record().Values[0].([]any)
		length, _ := res.Record().Values[1].(int64)
		ids := make([]types.ID, 0, len(rawIDs))
		for _, raw := range rawIDs {
			idStr, _ := raw.(string)
			id, err := types.ParseID(idStr)
			if err != nil {
				return nil, graph.NewQueryError("corrupt path node id", err)
			}
			ids = append(ids, id)
		}
		return &graph.Path{NodeIDs: ids, Length: int(length)}, nil
	})
	if err != nil {
		return nil, mapReadError("shortest path failed", err)
	}
	return result.(*graph.Path), nil
}

// BatchCreateNodes creates all specs inside one managed write transaction;
// any failure rolls the whole batch back through the engine's native
// transaction semantics.
func (b *Backend) BatchCreateNodes(ctx context.Context, specs []graph.NodeSpec) ([]*graph.Node, error) {
	if err := graph.ValidateNodeSpecs(b.domains, specs, b.tuning.BatchConcurrency); err != nil {
		return nil, err
	}
	if b.driver == nil {
		return nil, graph.NewBackendUnavailableError("driver not connected", nil)
	}

	session := b.writeSession(ctx)
	defer session.Close(ctx)

	result, err := session.ExecuteWrite(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		nodes := make([]*graph.Node, 0, len(specs))
		for _, spec := range specs {
			node, err := createNodeTx(ctx, tx, spec)
			if err != nil {
				return nil, err
			}
			nodes = append(nodes, node)
		}
		return nodes, nil
	})
	if err != nil {
		return nil, mapWriteError("batch create failed", err)
	}
	return result.([]*graph.Node), nil
}

func (b *Backend) CountByType(ctx context.Context, domainName string) (map[string]int, error) {
	if b.driver == nil {
		return nil, graph.NewBackendUnavailableError("driver not connected", nil)
	}
	session := b.readSession(ctx)
	defer session.Close(ctx)

	result, err := session.ExecuteRead(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		res, err := tx.Run(ctx, fmt.Sprintf(`
			MATCH (n:%s {domain: $domain})
			RETURN n.type, count(*)`, nodeLabel),
			map[string]any{"domain": domainName})
		if err != nil {
			return nil, err
		}
		counts := make(map[string]int)
		for res.Next(ctx) {
			nodeType, _ := res.Record().Values[0].(string)
			count, _ := res.Record().Values[1].(int64)
			counts[nodeType] = int(count)
		}
		if err := res.Err(); err != nil {
			return nil, err
		}
		return counts, nil
	})
	if err != nil {
		return nil, mapReadError("count query failed", err)
	}
	return result.(map[string]int), nil
}

func nodeFromValues(values []any) (*graph.Node, error) {
	idStr, _ := values[0].(string)
	id, err := types.ParseID(idStr)
	if err != nil {
		return nil, graph.NewQueryError("corrupt node id", err)
	}
	node := &graph.Node{ID: id}
	node.Domain, _ = values[1].(string)
	node.Type, _ = values[2].(string)
	node.Name, _ = values[3].(string)

	props, _ := values[4].(string)
	if err := json.Unmarshal([]byte(props), &node.Properties); err != nil {
		return nil, graph.NewQueryError("corrupt node properties", err)
	}
	if node.CreatedAt, err = parseTimestamp(values[5]); err != nil {
		return nil, err
	}
	if node.UpdatedAt, err = parseTimestamp(values[6]); err != nil {
		return nil, err
	}
	return node, nil
}

func edgeFromValues(values []any) (*graph.Edge, error) {
	idStr, _ := values[0].(string)
	id, err := types.ParseID(idStr)
	if err != nil {
		return nil, graph.NewQueryError("corrupt edge id", err)
	}
	edge := &graph.Edge{ID: id}
	edge.Domain, _ = values[1].(string)
	edge.Type, _ = values[2].(string)

	sourceStr, _ := values[3].(string)
	if edge.SourceID, err = types.ParseID(sourceStr); err != nil {
		return nil, graph.NewQueryError("corrupt edge source id", err)
	}
	targetStr, _ := values[4].(string)
	if edge.TargetID, err = types.ParseID(targetStr); err != nil {
		return nil, graph.NewQueryError("corrupt edge target id", err)
	}

	props, _ := values[5].(string)
	if err := json.Unmarshal([]byte(props), &edge.Properties); err != nil {
		return nil, graph.NewQueryError("corrupt edge properties", err)
	}
	if edge.CreatedAt, err = parseTimestamp(values[6]); err != nil {
		return nil, err
	}
	return edge, nil
}

func parseTimestamp(value any) (time.Time, error) {
	str, _ := value.(string)
	ts, err := time.Parse(time.RFC3339Nano, str)
	if err != nil {
		return time.Time{}, graph.NewQueryError("corrupt timestamp", err)
	}
	return ts, nil
}

func marshalProps(props map[string]any) (string, error) {
	if props == nil {
		return "{}", nil
	}
	data, err := json.Marshal(props)
	if err != nil {
		return "", graph.NewValidationError("properties are not JSON-serializable", err)
	}
	return string(data), nil
}

// quoteLabel backtick-quotes a label or relationship type so domain type
// names survive Cypher interpolation.
func quoteLabel(name string) string {
	return "`" + strings.ReplaceAll(name, "`", "") + "`"
}

// mapWriteError keeps already-classified platform errors intact and wraps
// driver failures, marking connectivity problems retryable.
func mapWriteError(message string, err error) error {
	var platformErr *types.PlatformError
	if errors.As(err, &platformErr) {
		return platformErr
	}
	if neo4j.IsConnectivityError(err) {
		return graph.NewBackendUnavailableError(message, err)
	}
	return graph.NewQueryError(message, err)
}

func mapReadError(message string, err error) error {
	return mapWriteError(message, err)
}
