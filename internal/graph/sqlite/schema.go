package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"sort"
	"strings"
)

// migration represents a single schema migration.
type migration struct {
	version int
	name    string
	up      string
	down    string
}

// getMigrations returns all migrations in order.
func getMigrations() []migration {
	migrations := []migration{
		{
			version: 1,
			name:    "graph_schema",
			up:      getGraphSchema(),
			down:    getDownMigration1(),
		},
		{
			version: 2,
			name:    "idempotency_keys",
			up:      getIdempotencySchema(),
			down:    getDownMigration2(),
		},
	}

	sort.Slice(migrations, func(i, j int) bool {
		return migrations[i].version < migrations[j].version
	})
	return migrations
}

// getGraphSchema returns the initial node/edge storage schema.
func getGraphSchema() string {
	return `
-- Nodes: typed, named entities with JSON properties
CREATE TABLE IF NOT EXISTS nodes (
    id TEXT PRIMARY KEY,
    domain TEXT NOT NULL,
    type TEXT NOT NULL,
    name TEXT NOT NULL,
    properties TEXT NOT NULL DEFAULT '{}',
    created_at TEXT NOT NULL,
    updated_at TEXT NOT NULL
);

-- Edges: typed, directed links between nodes
CREATE TABLE IF NOT EXISTS edges (
    id TEXT PRIMARY KEY,
    domain TEXT NOT NULL,
    type TEXT NOT NULL,
    source_id TEXT NOT NULL,
    target_id TEXT NOT NULL,
    properties TEXT NOT NULL DEFAULT '{}',
    created_at TEXT NOT NULL,
    FOREIGN KEY (source_id) REFERENCES nodes(id),
    FOREIGN KEY (target_id) REFERENCES nodes(id),
    UNIQUE(source_id, target_id, type)
);

-- Indexes for domain-scoped queries and traversal
CREATE INDEX IF NOT EXISTS idx_nodes_domain_type ON nodes(domain, type);
CREATE INDEX IF NOT EXISTS idx_edges_source ON edges(source_id);
CREATE INDEX IF NOT EXISTS idx_edges_target ON edges(target_id);
CREATE INDEX IF NOT EXISTS idx_edges_domain_type ON edges(domain, type);
`
}

func getDownMigration1() string {
	return `
DROP INDEX IF EXISTS idx_edges_domain_type;
DROP INDEX IF EXISTS idx_edges_target;
DROP INDEX IF EXISTS idx_edges_source;
DROP INDEX IF EXISTS idx_nodes_domain_type;
DROP TABLE IF EXISTS edges;
DROP TABLE IF EXISTS nodes;
`
}

// getIdempotencySchema adds retry-safe create support.
func getIdempotencySchema() string {
	return `
ALTER TABLE nodes ADD COLUMN idempotency_key TEXT;
CREATE UNIQUE INDEX IF NOT EXISTS idx_nodes_idempotency_key
    ON nodes(idempotency_key) WHERE idempotency_key IS NOT NULL;
`
}

func getDownMigration2() string {
	return `
DROP INDEX IF EXISTS idx_nodes_idempotency_key;
-- SQLite cannot drop the column; the unique index is the behavior carrier.
`
}

// migrate applies all pending migrations inside transactions.
func migrate(ctx context.Context, db *sql.DB) error {
	if err := ensureMigrationsTable(ctx, db); err != nil {
		return err
	}
	current, err := currentVersion(ctx, db)
	if err != nil {
		return err
	}
	for _, mig := range getMigrations() {
		if mig.version <= current {
			continue
		}
		if err := applyMigration(ctx, db, mig); err != nil {
			return fmt.Errorf("failed to apply migration %d (%s): %w", mig.version, mig.name, err)
		}
	}
	return nil
}

func ensureMigrationsTable(ctx context.Context, db *sql.DB) error {
	query := `
	CREATE TABLE IF NOT EXISTS migrations (
		version INTEGER PRIMARY KEY,
		name TEXT NOT NULL,
		applied_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	)`
	if _, err := db.ExecContext(ctx, query); err != nil {
		return fmt.Errorf("failed to create migrations table: %w", err)
	}
	return nil
}

func currentVersion(ctx context.Context, db *sql.DB) (int, error) {
	var version int
	err := db.QueryRowContext(ctx, "SELECT COALESCE(MAX(version), 0) FROM migrations").Scan(&version)
	if err != nil {
		return 0, fmt.Errorf("failed to query current version: %w", err)
	}
	return version, nil
}

func applyMigration(ctx context.Context, db *sql.DB, mig migration) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	for _, stmt := range splitStatements(mig.up) {
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("failed to execute statement: %w\nStatement: %s", err, stmt)
		}
	}
	if _, err := tx.ExecContext(ctx,
		"INSERT INTO migrations (version, name, applied_at) VALUES (?, ?, CURRENT_TIMESTAMP)",
		mig.version, mig.name); err != nil {
		return fmt.Errorf("failed to record migration: %w", err)
	}
	return tx.Commit()
}

// splitStatements splits a migration script on semicolons, dropping comment
// lines. The schema uses no triggers, so BEGIN...END tracking is unnecessary.
func splitStatements(script string) []string {
	var statements []string
	for _, raw := range strings.Split(script, ";") {
		var lines []string
		for _, line := range strings.Split(raw, "\n") {
			trimmed := strings.TrimSpace(line)
			if trimmed == "" || strings.HasPrefix(trimmed, "--") {
				continue
			}
			lines = append(lines, line)
		}
		stmt := strings.TrimSpace(strings.Join(lines, "\n"))
		if stmt != "" {
			statements = append(statements, stmt)
		}
	}
	return statements
}
