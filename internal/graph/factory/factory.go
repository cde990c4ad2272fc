// Package factory constructs a configured graph backend. It lives outside
// the graph package so the storage abstraction never imports its own
// implementations.
package factory

import (
	"log/slog"

	"github.com/Intelligence-Builder/Cloud-Optimizer-sub001/internal/domain"
	"github.com/Intelligence-Builder/Cloud-Optimizer-sub001/internal/graph"
	"github.com/Intelligence-Builder/Cloud-Optimizer-sub001/internal/graph/neo4j"
	"github.com/Intelligence-Builder/Cloud-Optimizer-sub001/internal/graph/sqlite"
	"github.com/Intelligence-Builder/Cloud-Optimizer-sub001/internal/types"
)

// New builds the backend named by cfg, wrapped with the retry decorator and,
// when shadow validation is configured, the parity decorator. A recorder
// that also implements graph.OperationRecorder gets per-operation counts.
// The returned backend is not yet connected; callers own its lifecycle and
// must call Connect before use. A nil recorder disables all metrics.
func New(cfg graph.Config, domains domain.Registry, logger *slog.Logger, recorder graph.ParityRecorder) (graph.Backend, error) {
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = slog.Default()
	}

	tuning := graph.Tuning{
		MaxPathDepth:     cfg.MaxPathDepth,
		BatchConcurrency: cfg.BatchConcurrency,
	}
	primary, err := newBackend(cfg.Backend, cfg.SQLite, cfg.Neo4j, tuning, domains, logger)
	if err != nil {
		return nil, err
	}

	backend := primary
	if cfg.Shadow != nil {
		shadow, err := newBackend(cfg.Shadow.Backend, cfg.Shadow.SQLite, cfg.Shadow.Neo4j,
			tuning, domains, logger)
		if err != nil {
			return nil, err
		}
		backend = graph.WithParity(primary, shadow, logger, recorder)
	}

	if opRecorder, ok := recorder.(graph.OperationRecorder); ok {
		// Instrumentation sits inside retry so every attempt is counted.
		backend = graph.WithInstrumentation(backend, string(cfg.Backend), opRecorder)
	}
	return graph.WithRetry(backend, cfg.Retry, logger), nil
}

func newBackend(kind graph.BackendKind, sqliteCfg graph.SQLiteConfig, neo4jCfg graph.Neo4jConfig,
	tuning graph.Tuning, domains domain.Registry, logger *slog.Logger) (graph.Backend, error) {
	switch kind {
	case graph.BackendSQLite:
		return sqlite.New(sqliteCfg, domains, tuning, logger), nil
	case graph.BackendNeo4j:
		return neo4j.New(neo4jCfg, domains, tuning, logger), nil
	default:
		return nil, types.NewError(types.CONFIG_VALIDATION_FAILED,
			"unknown graph backend: "+string(kind))
	}
}
