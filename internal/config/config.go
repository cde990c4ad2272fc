// Package config loads and validates the platform configuration from YAML,
// with ${VAR} environment interpolation for values that should not live in
// the file, such as backend passwords.
package config

import (
	"time"

	"github.com/Intelligence-Builder/Cloud-Optimizer-sub001/internal/graph"
	"github.com/Intelligence-Builder/Cloud-Optimizer-sub001/internal/observability"
)

// Config is the root configuration for the platform foundation.
type Config struct {
	Core     CoreConfig              `mapstructure:"core" yaml:"core"`
	Graph    graph.Config            `mapstructure:"graph" yaml:"graph"`
	Logging  observability.LogConfig `mapstructure:"logging" yaml:"logging"`
	Metrics  MetricsConfig           `mapstructure:"metrics" yaml:"metrics"`
	Domains  DomainsConfig           `mapstructure:"domains" yaml:"domains"`
	Patterns PatternsConfig          `mapstructure:"patterns" yaml:"patterns"`
	Scan     ScanConfig              `mapstructure:"scan" yaml:"scan"`
}

// CoreConfig contains core application settings.
type CoreConfig struct {
	HomeDir       string        `mapstructure:"home_dir" yaml:"home_dir"`
	DataDir       string        `mapstructure:"data_dir" yaml:"data_dir"`
	ParallelLimit int           `mapstructure:"parallel_limit" yaml:"parallel_limit" validate:"min=1,max=100"`
	Timeout       time.Duration `mapstructure:"timeout" yaml:"timeout" validate:"min=1s"`
	Debug         bool          `mapstructure:"debug" yaml:"debug"`
}

// MetricsConfig contains Prometheus scrape endpoint configuration.
type MetricsConfig struct {
	Enabled bool `mapstructure:"enabled" yaml:"enabled"`
	Port    int  `mapstructure:"port" yaml:"port" validate:"omitempty,min=1024,max=65535"`
}

// DomainsConfig names additional domain pack files or directories to
// register at startup, on top of the built-in security pack.
type DomainsConfig struct {
	Paths []string `mapstructure:"paths" yaml:"paths,omitempty"`
}

// PatternsConfig names additional pattern pack files to register at startup,
// on top of the built-in security pack.
type PatternsConfig struct {
	Paths []string `mapstructure:"paths" yaml:"paths,omitempty"`
}

// ScanConfig carries defaults for text scans.
type ScanConfig struct {
	MinConfidence  float64  `mapstructure:"min_confidence" yaml:"min_confidence" validate:"min=0,max=1"`
	DefaultDomains []string `mapstructure:"default_domains" yaml:"default_domains,omitempty"`
}
