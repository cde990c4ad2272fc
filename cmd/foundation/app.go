package main

import (
	"context"
	"os"

	"github.com/Intelligence-Builder/Cloud-Optimizer-sub001/internal/domain"
	"github.com/Intelligence-Builder/Cloud-Optimizer-sub001/internal/graph"
	"github.com/Intelligence-Builder/Cloud-Optimizer-sub001/internal/graph/factory"
	"github.com/Intelligence-Builder/Cloud-Optimizer-sub001/internal/observability"
	"github.com/Intelligence-Builder/Cloud-Optimizer-sub001/internal/pattern"
	"github.com/Intelligence-Builder/Cloud-Optimizer-sub001/internal/scan"
)

// app wires the registries, the graph backend and the scan service for one
// command invocation.
type app struct {
	domains  domain.Registry
	patterns *pattern.Registry
	metrics  *observability.Metrics
	backend  graph.Backend
	scans    *scan.Service
}

// newApp builds the command runtime. When withBackend is false the graph
// backend is never opened, so detection-only commands work without storage.
func newApp(ctx context.Context, withBackend bool) (*app, error) {
	domains := domain.NewRegistry(logger)
	if err := domain.RegisterBuiltin(domains); err != nil {
		return nil, err
	}
	domainLoader := domain.NewLoader()
	for _, path := range cfg.Domains.Paths {
		loaded, err := loadDomainPath(domainLoader, path)
		if err != nil {
			return nil, err
		}
		for _, d := range loaded {
			if err := domains.Register(d); err != nil {
				return nil, err
			}
		}
	}

	patterns := pattern.NewRegistry(domains, logger)
	if err := pattern.LoadBuiltin(patterns); err != nil {
		return nil, err
	}
	for _, path := range cfg.Patterns.Paths {
		if err := pattern.LoadFile(patterns, path); err != nil {
			return nil, err
		}
	}

	a := &app{
		domains:  domains,
		patterns: patterns,
		metrics:  observability.NewMetrics(),
	}

	if withBackend {
		backend, err := factory.New(cfg.Graph, domains, logger, a.metrics)
		if err != nil {
			return nil, err
		}
		if err := backend.Connect(ctx); err != nil {
			return nil, err
		}
		a.backend = backend
	}

	a.scans = scan.NewService(patterns, a.backend, a.metrics, logger)
	return a, nil
}

// loadDomainPath reads one configured domain pack entry, which may name a
// single YAML file or a directory of them.
func loadDomainPath(loader domain.Loader, path string) ([]domain.Domain, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, err
	}
	if info.IsDir() {
		return loader.LoadDir(path)
	}
	return loader.LoadFile(path)
}

// close releases the backend connection if one was opened.
func (a *app) close(ctx context.Context) {
	if a.backend != nil {
		if err := a.backend.Close(ctx); err != nil {
			logger.Warn("backend close failed", "error", err)
		}
	}
}
