// Package sqlite implements the graph storage contract on a relational
// engine. Reachability and shortest-path queries are expressed as recursive
// CTEs so the relational store answers the same graph questions as the
// native engine, depth-bounded to keep cyclic graphs from expanding forever.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/mattn/go-sqlite3"

	"github.com/Intelligence-Builder/Cloud-Optimizer-sub001/internal/domain"
	"github.com/Intelligence-Builder/Cloud-Optimizer-sub001/internal/graph"
	"github.com/Intelligence-Builder/Cloud-Optimizer-sub001/internal/types"
)

// Backend is the relational graph.Backend implementation.
type Backend struct {
	cfg     graph.SQLiteConfig
	domains domain.Registry
	logger  *slog.Logger
	tuning  graph.Tuning

	db *sql.DB
}

// New creates a relational backend. Connect must be called before use.
func New(cfg graph.SQLiteConfig, domains domain.Registry, tuning graph.Tuning, logger *slog.Logger) *Backend {
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

// Connect opens the database with WAL mode and foreign keys enabled, then
// applies pending schema migrations.
func (b *Backend) Connect(ctx context.Context) error {
	dsn := fmt.Sprintf("file:%s?_journal_mode=WAL&_foreign_keys=on&_busy_timeout=%d",
		b.cfg.Path,
		int(b.cfg.BusyTimeout.Milliseconds()),
	)

	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return graph.NewBackendUnavailableError("failed to open database", err)
	}

	if b.inMemory() {
		// Every pooled connection to :memory: opens its own empty database,
		// so the pool must collapse to the single connection that holds the
		// schema, and that connection must never be recycled.
		db.SetMaxOpenConns(1)
		db.SetMaxIdleConns(1)
		db.SetConnMaxLifetime(0)
	} else {
		db.SetMaxOpenConns(b.cfg.MaxOpenConns)
		db.SetMaxIdleConns(b.cfg.MaxIdleConns)
		db.SetConnMaxLifetime(b.cfg.ConnMaxLifetime)
	}

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return graph.NewBackendUnavailableError("failed to ping database", err)
	}

	// An in-memory database reports journal_mode=memory; only file-backed
	// databases are expected to run in WAL mode.
	if !b.inMemory() {
		var journalMode string
		if err := db.QueryRowContext(ctx, "PRAGMA journal_mode").Scan(&journalMode); err != nil {
			db.Close()
			return graph.NewBackendUnavailableError("failed to verify journal mode", err)
		}
		if journalMode != "wal" {
			db.Close()
			return graph.NewBackendUnavailableError(
				fmt.Sprintf("WAL mode not enabled (got %s)", journalMode), nil)
		}
	}

	if err := migrate(ctx, db); err != nil {
		db.Close()
		return types.WrapError(types.DB_MIGRATION_FAILED, "schema migration failed", err)
	}

	b.db = db
	b.logger.Info("relational graph backend connected", "path", b.cfg.Path)
	return nil
}

// inMemory reports whether the configured path is an in-memory database.
func (b *Backend) inMemory() bool {
	return b.cfg.Path == ":memory:" || strings.HasPrefix(b.cfg.Path, ":memory:")
}

// Close closes the database connection.
func (b *Backend) Close(ctx context.Context) error {
	if b.db == nil {
		return nil
	}
	err := b.db.Close()
	b.db = nil
	return err
}

// Health checks connection liveness with a trivial query.
func (b *Backend) Health(ctx context.Context) types.HealthStatus {
	if b.db == nil {
		return types.Unhealthy("not connected")
	}
	var result int
	if err := b.db.QueryRowContext(ctx, "SELECT 1").Scan(&result); err != nil {
		return types.Unhealthy(fmt.Sprintf("query failed: %v", err))
	}
	return types.Healthy("sqlite backend operational")
}

// withTx runs fn inside a transaction, rolling back on error or panic.
func (b *Backend) withTx(ctx context.Context, fn func(*sql.Tx) error) error {
	tx, err := b.db.BeginTx(ctx, nil)
	if err != nil {
		return graph.NewTransactionError("failed to begin transaction", err)
	}
	defer func() {
		if p := recover(); p != nil {
			tx.Rollback()
			panic(p)
		}
	}()

	if err := fn(tx); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			b.logger.Error("rollback failed", "error", rbErr)
		}
		return err
	}
	if err := tx.Commit(); err != nil {
		return graph.NewTransactionError("failed to commit transaction", err)
	}
	return nil
}

func (b *Backend) CreateNode(ctx context.Context, spec graph.NodeSpec) (*graph.Node, error) {
	if err := graph.ValidateNodeSpec(b.domains, spec); err != nil {
		return nil, err
	}
	var node *graph.Node
	err := b.withTx(ctx, func(tx *sql.Tx) error {
		var txErr error
		node, txErr = insertNode(ctx, tx, spec)
		return txErr
	})
	if err != nil {
		return nil, err
	}
	return node, nil
}

// insertNode persists one node within tx, honoring the idempotency key.
func insertNode(ctx context.Context, tx *sql.Tx, spec graph.NodeSpec) (*graph.Node, error) {
	if spec.IdempotencyKey != "" {
		existing, err := nodeByIdempotencyKey(ctx, tx, spec.IdempotencyKey)
		if err != nil {
			return nil, err
		}
		if existing != nil {
			return existing, nil
		}
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

	var key any
	if spec.IdempotencyKey != "" {
		key = spec.IdempotencyKey
	}
	_, err = tx.ExecContext(ctx, `
		INSERT INTO nodes (id, domain, type, name, properties, idempotency_key, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		id.String(), spec.Domain, spec.Type, spec.Name, props, key,
		now.Format(time.RFC3339Nano), now.Format(time.RFC3339Nano))
	if err != nil {
		if isUniqueViolation(err) {
			return nil, graph.NewConflictError("node already exists: " + id.String())
		}
		return nil, graph.NewQueryError("failed to insert node", err)
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

func nodeByIdempotencyKey(ctx context.Context, tx *sql.Tx, key string) (*graph.Node, error) {
	row := tx.QueryRowContext(ctx, `
		SELECT id, domain, type, name, properties, created_at, updated_at
		FROM nodes WHERE idempotency_key = ?`, key)
	node, err := scanNode(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, graph.NewQueryError("failed to look up idempotency key", err)
	}
	return node, nil
}

func (b *Backend) GetNode(ctx context.Context, id types.ID) (*graph.Node, error) {
	row := b.db.QueryRowContext(ctx, `
		SELECT id, domain, type, name, properties, created_at, updated_at
		FROM nodes WHERE id = ?`, id.String())
	node, err := scanNode(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, graph.NewNotFoundError("node", id)
	}
	if err != nil {
		return nil, graph.NewQueryError("failed to read node", err)
	}
	return node, nil
}

func (b *Backend) UpdateNode(ctx context.Context, id types.ID, properties map[string]any) (*graph.Node, error) {
	var node *graph.Node
	err := b.withTx(ctx, func(tx *sql.Tx) error {
		row := tx.QueryRowContext(ctx, `
			SELECT id, domain, type, name, properties, created_at, updated_at
			FROM nodes WHERE id = ?`, id.String())
		existing, err := scanNode(row)
		if errors.Is(err, sql.ErrNoRows) {
			return graph.NewNotFoundError("node", id)
		}
		if err != nil {
			return graph.NewQueryError("failed to read node", err)
		}

		if b.domains != nil {
			if err := b.domains.ValidateEntity(existing.Domain, existing.Type, properties); err != nil {
				return err
			}
		}

		props, err := marshalProps(properties)
		if err != nil {
			return err
		}
		now := time.Now().UTC()
		if _, err := tx.ExecContext(ctx,
			"UPDATE nodes SET properties = ?, updated_at = ? WHERE id = ?",
			props, now.Format(time.RFC3339Nano), id.String()); err != nil {
			return graph.NewQueryError("failed to update node", err)
		}

		existing.Properties = properties
		existing.UpdatedAt = now
		node = existing
		return nil
	})
	if err != nil {
		return nil, err
	}
	return node, nil
}

func (b *Backend) DeleteNode(ctx context.Context, id types.ID) error {
	return b.withTx(ctx, func(tx *sql.Tx) error {
		var refs int
		err := tx.QueryRowContext(ctx,
			"SELECT COUNT(*) FROM edges WHERE source_id = ? OR target_id = ?",
			id.String(), id.String()).Scan(&refs)
		if err != nil {
			return graph.NewQueryError("failed to count referencing edges", err)
		}
		if refs > 0 {
			return graph.NewConflictError(
				fmt.Sprintf("node %s is still referenced by %d edges", id, refs))
		}

		result, err := tx.ExecContext(ctx, "DELETE FROM nodes WHERE id = ?", id.String())
		if err != nil {
			return graph.NewQueryError("failed to delete node", err)
		}
		affected, err := result.RowsAffected()
		if err != nil {
			return graph.NewQueryError("failed to read delete result", err)
		}
		if affected == 0 {
			return graph.NewNotFoundError("node", id)
		}
		return nil
	})
}

func (b *Backend) CreateEdge(ctx context.Context, spec graph.EdgeSpec) (*graph.Edge, error) {
	var edge *graph.Edge
	err := b.withTx(ctx, func(tx *sql.Tx) error {
		sourceType, ok, err := nodeType(ctx, tx, spec.SourceID)
		if err != nil {
			return err
		}
		if !ok {
			return graph.NewDanglingReferenceError("source", spec.SourceID)
		}
		targetType, ok, err := nodeType(ctx, tx, spec.TargetID)
		if err != nil {
			return err
		}
		if !ok {
			return graph.NewDanglingReferenceError("target", spec.TargetID)
		}
		if err := graph.ValidateEdgeSpec(b.domains, spec, sourceType, targetType); err != nil {
			return err
		}

		id := spec.ID
		if id.IsZero() {
			id = types.NewID()
		}
		props, err := marshalProps(spec.Properties)
		if err != nil {
			return err
		}
		now := time.Now().UTC()
		_, err = tx.ExecContext(ctx, `
			INSERT INTO edges (id, domain, type, source_id, target_id, properties, created_at)
			VALUES (?, ?, ?, ?, ?, ?, ?)`,
			id.String(), spec.Domain, spec.Type,
			spec.SourceID.String(), spec.TargetID.String(), props,
			now.Format(time.RFC3339Nano))
		if err != nil {
			if isUniqueViolation(err) {
				return graph.NewConflictError("edge already exists between nodes")
			}
			return graph.NewQueryError("failed to insert edge", err)
		}

		edge = &graph.Edge{
			ID:         id,
			Type:       spec.Type,
			Domain:     spec.Domain,
			SourceID:   spec.SourceID,
			TargetID:   spec.TargetID,
			Properties: spec.Properties,
			CreatedAt:  now,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return edge, nil
}

func nodeType(ctx context.Context, tx *sql.Tx, id types.ID) (string, bool, error) {
	var nodeType string
	err := tx.QueryRowContext(ctx,
		"SELECT type FROM nodes WHERE id = ?", id.String()).Scan(&nodeType)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, graph.NewQueryError("failed to resolve edge endpoint", err)
	}
	return nodeType, true, nil
}

func (b *Backend) GetEdge(ctx context.Context, id types.ID) (*graph.Edge, error) {
	row := b.db.QueryRowContext(ctx, `
		SELECT id, domain, type, source_id, target_id, properties, created_at
		FROM edges WHERE id = ?`, id.String())
	edge, err := scanEdge(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, graph.NewNotFoundError("edge", id)
	}
	if err != nil {
		return nil, graph.NewQueryError("failed to read edge", err)
	}
	return edge, nil
}

func (b *Backend) DeleteEdge(ctx context.Context, id types.ID) error {
	result, err := b.db.ExecContext(ctx, "DELETE FROM edges WHERE id = ?", id.String())
	if err != nil {
		return graph.NewQueryError("failed to delete edge", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return graph.NewQueryError("failed to read delete result", err)
	}
	if affected == 0 {
		return graph.NewNotFoundError("edge", id)
	}
	return nil
}

// Traverse computes the bounded reachability set with a recursive CTE. The
// UNION keeps (id, depth) pairs unique and the depth bound terminates cycles;
// the outer DISTINCT collapses nodes reached at several depths.
func (b *Backend) Traverse(ctx context.Context, start types.ID, opts graph.TraverseOptions) ([]graph.Node, error) {
	if _, err := b.GetNode(ctx, start); err != nil {
		return nil, err
	}

	query := `
		WITH RECURSIVE reachable(id, depth) AS (
			SELECT ?, 0
			UNION
			SELECT e.target_id, r.depth + 1
			FROM edges e
			JOIN reachable r ON e.source_id = r.id
			WHERE r.depth < ?`
	args := []any{start.String(), opts.MaxDepth}
	if len(opts.RelationshipTypes) > 0 {
		query += " AND e.type IN (" + placeholders(len(opts.RelationshipTypes)) + ")"
		for _, t := range opts.RelationshipTypes {
			args = append(args, t)
		}
	}
	query += `
		)
		SELECT DISTINCT n.id, n.domain, n.type, n.name, n.properties, n.created_at, n.updated_at
		FROM nodes n
		JOIN reachable r ON n.id = r.id
		ORDER BY n.id`

	rows, err := b.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, graph.NewQueryError("traversal query failed", err)
	}
	defer rows.Close()

	var nodes []graph.Node
	for rows.Next() {
		node, err := scanNode(rows)
		if err != nil {
			return nil, graph.NewQueryError("failed to scan traversal result", err)
		}
		nodes = append(nodes, *node)
	}
	if err := rows.Err(); err != nil {
		return nil, graph.NewQueryError("traversal iteration failed", err)
	}
	return nodes, nil
}

// FindShortestPath enumerates simple paths with a recursive CTE, tracking the
// visited set in a '/'-delimited string so cycles are pruned, and keeps the
// minimal-depth row. The search is bounded by the configured path depth.
func (b *Backend) FindShortestPath(ctx context.Context, start, end types.ID) (*graph.Path, error) {
	if _, err := b.GetNode(ctx, start); err != nil {
		return nil, err
	}
	if _, err := b.GetNode(ctx, end); err != nil {
		return nil, err
	}

	query := `
		WITH RECURSIVE walk(id, depth, path) AS (
			SELECT ?, 0, '/' || ? || '/'
			UNION ALL
			SELECT e.target_id, w.depth + 1, w.path || e.target_id || '/'
			FROM edges e
			JOIN walk w ON e.source_id = w.id
			WHERE w.depth < ?
			  AND instr(w.path, '/' || e.target_id || '/') = 0
		)
		SELECT path, depth FROM walk WHERE id = ? ORDER BY depth LIMIT 1`

	var pathStr string
	var depth int
	err := b.db.QueryRowContext(ctx, query,
		start.String(), start.String(), b.tuning.MaxPathDepth, end.String()).
		Scan(&pathStr, &depth)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, types.NewError(types.NOT_FOUND,
			fmt.Sprintf("no path from %s to %s", start, end))
	}
	if err != nil {
		return nil, graph.NewQueryError("shortest path query failed", err)
	}

	ids, err := parsePath(pathStr)
	if err != nil {
		return nil, err
	}
	return &graph.Path{NodeIDs: ids, Length: depth}, nil
}

// BatchCreateNodes creates all specs in one transaction; any failure rolls
// the whole batch back.
func (b *Backend) BatchCreateNodes(ctx context.Context, specs []graph.NodeSpec) ([]*graph.Node, error) {
	if err := graph.ValidateNodeSpecs(b.domains, specs, b.tuning.BatchConcurrency); err != nil {
		return nil, err
	}
	var nodes []*graph.Node
	err := b.withTx(ctx, func(tx *sql.Tx) error {
		nodes = make([]*graph.Node, 0, len(specs))
		for _, spec := range specs {
			node, err := insertNode(ctx, tx, spec)
			if err != nil {
				return err
			}
			nodes = append(nodes, node)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return nodes, nil
}

func (b *Backend) CountByType(ctx context.Context, domainName string) (map[string]int, error) {
	rows, err := b.db.QueryContext(ctx,
		"SELECT type, COUNT(*) FROM nodes WHERE domain = ? GROUP BY type", domainName)
	if err != nil {
		return nil, graph.NewQueryError("count query failed", err)
	}
	defer rows.Close()

	counts := make(map[string]int)
	for rows.Next() {
		var nodeType string
		var count int
		if err := rows.Scan(&nodeType, &count); err != nil {
			return nil, graph.NewQueryError("failed to scan count result", err)
		}
		counts[nodeType] = count
	}
	if err := rows.Err(); err != nil {
		return nil, graph.NewQueryError("count iteration failed", err)
	}
	return counts, nil
}

// scanner covers *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func scanNode(s scanner) (*graph.Node, error) {
	var node graph.Node
	var idStr, props, createdAt, updatedAt string
	if err := s.Scan(&idStr, &node.Domain, &node.Type, &node.Name, &props, &createdAt, &updatedAt); err != nil {
		return nil, err
	}
	id, err := types.ParseID(idStr)
	if err != nil {
		return nil, err
	}
	node.ID = id
	if err := json.Unmarshal([]byte(props), &node.Properties); err != nil {
		return nil, fmt.Errorf("corrupt node properties: %w", err)
	}
	if node.CreatedAt, err = time.Parse(time.RFC3339Nano, createdAt); err != nil {
		return nil, fmt.Errorf("corrupt created_at: %w", err)
	}
	if node.UpdatedAt, err = time.Parse(time.RFC3339Nano, updatedAt); err != nil {
		return nil, fmt.Errorf("corrupt updated_at: %w", err)
	}
	return &node, nil
}

func scanEdge(s scanner) (*graph.Edge, error) {
	var edge graph.Edge
	var idStr, sourceStr, targetStr, props, createdAt string
	if err := s.Scan(&idStr, &edge.Domain, &edge.Type, &sourceStr, &targetStr, &props, &createdAt); err != nil {
		return nil, err
	}
	id, err := types.ParseID(idStr)
	if err != nil {
		return nil, err
	}
	edge.ID = id
	if edge.SourceID, err = types.ParseID(sourceStr); err != nil {
		return nil, err
	}
	if edge.TargetID, err = types.ParseID(targetStr); err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(props), &edge.Properties); err != nil {
		return nil, fmt.Errorf("corrupt edge properties: %w", err)
	}
	if edge.CreatedAt, err = time.Parse(time.RFC3339Nano, createdAt); err != nil {
		return nil, fmt.Errorf("corrupt created_at: %w", err)
	}
	return &edge, nil
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

func parsePath(pathStr string) ([]types.ID, error) {
	parts := strings.Split(strings.Trim(pathStr, "/"), "/")
	ids := make([]types.ID, 0, len(parts))
	for _, part := range parts {
		if part == "" {
			continue
		}
		id, err := types.ParseID(part)
		if err != nil {
			return nil, graph.NewQueryError("corrupt path segment", err)
		}
		ids = append(ids, id)
	}
	return ids, nil
}

func placeholders(n int) string {
	return strings.TrimSuffix(strings.Repeat("?,", n), ",")
}

func isUniqueViolation(err error) bool {
	var sqliteErr sqlite3.Error
	if errors.As(err, &sqliteErr) {
		return sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique ||
			sqliteErr.ExtendedCode == sqlite3.ErrConstraintPrimaryKey
	}
	return false
}
