package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/Intelligence-Builder/Cloud-Optimizer-sub001/internal/config"
	"github.com/Intelligence-Builder/Cloud-Optimizer-sub001/internal/observability"
)

// Global flag values, bound in init.
var (
	configFile string
	homeDir    string
	verbose    bool
	outputJSON bool
)

// Loaded in loadConfig, available to every subcommand.
var (
	cfg    *config.Config
	logger *slog.Logger
)

var rootCmd = &cobra.Command{
	Use:   "foundation",
	Short: "Knowledge graph foundation for the security scanning platform",
	Long: `foundation manages the platform's knowledge graph: scan text for
security entities, persist them to the configured graph backend, and
query reachability and paths between entities.

Configuration is read from --config, the FOUNDATION_CONFIG environment
variable, or <home>/config.yaml. Values in the file may reference
environment variables with ${VAR} syntax.`,
	PersistentPreRunE: loadConfig,
	SilenceUsage:      true,
	SilenceErrors:     true,
}

// Execute runs the root command with signal handling.
func Execute(ctx context.Context) error {
	ctx, cancel := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	return rootCmd.ExecuteContext(ctx)
}

// loadConfig runs before every command, resolving and loading the config
// file and building the process logger.
func loadConfig(cmd *cobra.Command, args []string) error {
	// .env is optional and only fills unset variables.
	_ = godotenv.Load()

	if cmd.Name() == "version" || cmd.Name() == "help" {
		return nil
	}

	path := configFile
	if path == "" {
		path = os.Getenv("FOUNDATION_CONFIG")
	}
	if path == "" {
		home := homeDir
		if home == "" {
			home = os.Getenv("FOUNDATION_HOME")
		}
		if home != "" {
			path = filepath.Join(home, "config.yaml")
		}
	}

	var err error
	if path == "" {
		cfg = config.DefaultConfig()
		err = config.NewValidator().Validate(cfg)
	} else {
		cfg, err = config.NewLoader(config.NewValidator()).LoadWithDefaults(path)
	}
	if err != nil {
		return err
	}

	if verbose {
		cfg.Logging.Level = "debug"
	}
	logger = observability.NewLogger(cfg.Logging, os.Stderr)
	return nil
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "Path to configuration file")
	rootCmd.PersistentFlags().StringVar(&homeDir, "home", "", "Foundation home directory")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")
	rootCmd.PersistentFlags().BoolVar(&outputJSON, "json", false, "Emit JSON instead of tables")

	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(scanCmd)
	rootCmd.AddCommand(ingestCmd)
	rootCmd.AddCommand(domainCmd)
	rootCmd.AddCommand(graphCmd)
	rootCmd.AddCommand(serveCmd)
}
