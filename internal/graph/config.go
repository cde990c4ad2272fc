package graph

import (
	"time"

	"github.com/Intelligence-Builder/Cloud-Optimizer-sub001/internal/types"
)

// BackendKind names a storage engine implementation.
type BackendKind string

const (
	// BackendSQLite is the relational engine using recursive CTE traversal.
	BackendSQLite BackendKind = "sqlite"
	// BackendNeo4j is the native graph engine with first-class traversal.
	BackendNeo4j BackendKind = "neo4j"
)

// Config selects and parameterizes the active storage backend.
type Config struct {
	// Backend names the engine: "sqlite" or "neo4j".
	Backend BackendKind `mapstructure:"backend" yaml:"backend"`

	SQLite SQLiteConfig `mapstructure:"sqlite" yaml:"sqlite,omitempty"`
	Neo4j  Neo4jConfig  `mapstructure:"neo4j" yaml:"neo4j,omitempty"`
	Retry  RetryConfig  `mapstructure:"retry" yaml:"retry,omitempty"`

	// BatchConcurrency bounds internal parallelism of batch operations.
	BatchConcurrency int `mapstructure:"batch_concurrency" yaml:"batch_concurrency,omitempty"`

	// MaxPathDepth bounds shortest-path searches so a disconnected pair on a
	// cyclic graph cannot expand forever.
	MaxPathDepth int `mapstructure:"max_path_depth" yaml:"max_path_depth,omitempty"`

	// Shadow, when set, enables dual-write/shadow-read parity validation
	// against a second backend. Discrepancies are logged, never raised; the
	// primary backend's result is always authoritative.
	Shadow *ShadowConfig `mapstructure:"shadow" yaml:"shadow,omitempty"`
}

// SQLiteConfig parameterizes the relational backend.
type SQLiteConfig struct {
	// Path is the database file path. ":memory:" opens an in-memory database.
	Path            string        `mapstructure:"path" yaml:"path"`
	MaxOpenConns    int           `mapstructure:"max_open_conns" yaml:"max_open_conns,omitempty"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns" yaml:"max_idle_conns,omitempty"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime" yaml:"conn_max_lifetime,omitempty"`
	BusyTimeout     time.Duration `mapstructure:"busy_timeout" yaml:"busy_timeout,omitempty"`
}

// Neo4jConfig parameterizes the native graph backend.
type Neo4jConfig struct {
	// URI is the connection URI, e.g. "bolt://host:7687" or "neo4j+s://host".
	URI      string `mapstructure:"uri" yaml:"uri"`
	Username string `mapstructure:"username" yaml:"username"`
	Password string `mapstructure:"password" yaml:"password"`
	// Database name to connect to. Empty uses the server default.
	Database string `mapstructure:"database" yaml:"database,omitempty"`

	MaxConnectionPoolSize   int           `mapstructure:"max_connection_pool_size" yaml:"max_connection_pool_size,omitempty"`
	ConnectionTimeout       time.Duration `mapstructure:"connection_timeout" yaml:"connection_timeout,omitempty"`
	MaxTransactionRetryTime time.Duration `mapstructure:"max_transaction_retry_time" yaml:"max_transaction_retry_time,omitempty"`
}

// RetryConfig bounds the internal retry loop for transient backend failures.
type RetryConfig struct {
	MaxAttempts int           `mapstructure:"max_attempts" yaml:"max_attempts,omitempty"`
	BaseDelay   time.Duration `mapstructure:"base_delay" yaml:"base_delay,omitempty"`
	MaxDelay    time.Duration `mapstructure:"max_delay" yaml:"max_delay,omitempty"`
}

// ShadowConfig selects the shadow backend for parity validation.
type ShadowConfig struct {
	Backend BackendKind  `mapstructure:"backend" yaml:"backend"`
	SQLite  SQLiteConfig `mapstructure:"sqlite" yaml:"sqlite,omitempty"`
	Neo4j   Neo4jConfig  `mapstructure:"neo4j" yaml:"neo4j,omitempty"`
}

// DefaultConfig returns a Config with sensible defaults: the relational
// backend on a local file.
func DefaultConfig() Config {
	cfg := Config{
		Backend: BackendSQLite,
		SQLite:  SQLiteConfig{Path: "foundation.db"},
	}
	cfg.ApplyDefaults()
	return cfg
}

// ApplyDefaults fills zero-valued tuning fields.
func (c *Config) ApplyDefaults() {
	if c.Backend == "" {
		c.Backend = BackendSQLite
	}
	if c.BatchConcurrency <= 0 {
		c.BatchConcurrency = 8
	}
	if c.MaxPathDepth <= 0 {
		c.MaxPathDepth = 32
	}
	c.SQLite.applyDefaults()
	c.Neo4j.applyDefaults()
	c.Retry.applyDefaults()
	if c.Shadow != nil {
		c.Shadow.SQLite.applyDefaults()
		c.Shadow.Neo4j.applyDefaults()
	}
}

func (c *SQLiteConfig) applyDefaults() {
	if c.MaxOpenConns <= 0 {
		c.MaxOpenConns = 10
	}
	if c.MaxIdleConns <= 0 {
		c.MaxIdleConns = 5
	}
	if c.ConnMaxLifetime <= 0 {
		c.ConnMaxLifetime = time.Hour
	}
	if c.BusyTimeout <= 0 {
		c.BusyTimeout = 5 * time.Second
	}
}

func (c *Neo4jConfig) applyDefaults() {
	if c.MaxConnectionPoolSize <= 0 {
		c.MaxConnectionPoolSize = 50
	}
	if c.ConnectionTimeout <= 0 {
		c.ConnectionTimeout = 30 * time.Second
	}
	if c.MaxTransactionRetryTime <= 0 {
		c.MaxTransactionRetryTime = 30 * time.Second
	}
}

func (c *RetryConfig) applyDefaults() {
	if c.MaxAttempts <= 0 {
		c.MaxAttempts = 3
	}
	if c.BaseDelay <= 0 {
		c.BaseDelay = 100 * time.Millisecond
	}
	if c.MaxDelay <= 0 {
		c.MaxDelay = 5 * time.Second
	}
}

// Validate checks that the configuration names a known backend and carries
// the connection parameters that backend needs.
func (c *Config) Validate() error {
	if err := validateSelection(c.Backend, c.SQLite, c.Neo4j); err != nil {
		return err
	}
	if c.Shadow != nil {
		if err := validateSelection(c.Shadow.Backend, c.Shadow.SQLite, c.Shadow.Neo4j); err != nil {
			return err
		}
	}
	return nil
}

func validateSelection(kind BackendKind, sqlite SQLiteConfig, neo4j Neo4jConfig) error {
	switch kind {
	case BackendSQLite:
		if sqlite.Path == "" {
			return types.NewError(types.CONFIG_VALIDATION_FAILED, "sqlite backend requires a path")
		}
	case BackendNeo4j:
		if neo4j.URI == "" {
			return types.NewError(types.CONFIG_VALIDATION_FAILED, "neo4j backend requires a uri")
		}
		if neo4j.Username == "" || neo4j.Password == "" {
			return types.NewError(types.CONFIG_VALIDATION_FAILED, "neo4j backend requires credentials")
		}
	default:
		return types.NewError(types.CONFIG_VALIDATION_FAILED,
			"backend must be \"sqlite\" or \"neo4j\"")
	}
	return nil
}
