package config

import (
	"os"
	"path/filepath"
	"time"

	"github.com/Intelligence-Builder/Cloud-Optimizer-sub001/internal/graph"
	"github.com/Intelligence-Builder/Cloud-Optimizer-sub001/internal/observability"
)

// DefaultConfig returns a Config with sensible default values: the relational
// backend on a file under the home directory, JSON logs at info level.
func DefaultConfig() *Config {
	homeDir := defaultHomeDir()

	cfg := &Config{
		Core: CoreConfig{
			HomeDir:       homeDir,
			DataDir:       filepath.Join(homeDir, "data"),
			ParallelLimit: 10,
			Timeout:       5 * time.Minute,
		},
		Graph: graph.Config{
			Backend: graph.BackendSQLite,
			SQLite: graph.SQLiteConfig{
				Path: filepath.Join(homeDir, "foundation.db"),
			},
		},
		Logging: observability.LogConfig{
			Level:  "info",
			Format: "json",
		},
		Metrics: MetricsConfig{
			Enabled: false,
			Port:    9090,
		},
		Scan: ScanConfig{
			MinConfidence:  0.5,
			DefaultDomains: []string{"security"},
		},
	}
	cfg.Graph.ApplyDefaults()
	return cfg
}

// defaultHomeDir returns ~/.foundation, falling back to the temp directory
// when the user home cannot be determined.
func defaultHomeDir() string {
	userHome, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(os.TempDir(), ".foundation")
	}
	return filepath.Join(userHome, ".foundation")
}
