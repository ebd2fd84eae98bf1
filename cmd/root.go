package cmd

import (
	"fmt"
	"os"

	"log-reconciler/core/config"
	"log-reconciler/core/database"
	"log-reconciler/core/logger"
	"log-reconciler/core/store"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// RootCmd represents the base command when called without any subcommands
var RootCmd = &cobra.Command{
	Use:   "log-reconciler",
	Short: "RPC log-count reconciliation tool",
	Long: `Log Reconciler fetches aggregate event-log counts from JSON-RPC
endpoints over large block ranges, stores them per chunk, and localizes
count disagreements between providers down to individual blocks.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func Execute() {
	if err := RootCmd.Execute(); err != nil {
		// Use the application's standard logger for error reporting.
		// Console format and debug level give readable ISO8601 output for a CLI tool.
		cfg := &logger.Config{
			Level:  "debug",
			Format: "console",
		}

		l, logErr := logger.New(cfg)
		if logErr == nil {
			l.Error("command failed", zap.Error(err))
			_ = l.Sync()
		} else {
			// Absolute fallback if logger creation fails (rare)
			fmt.Println(err)
		}
		os.Exit(1)
	}
}

// runtime bundles the collaborators every subcommand needs.
type runtime struct {
	cfg   *config.Config
	log   *zap.Logger
	store *store.Store
}

// setup loads configuration, builds the logger and opens the database. A
// missing required connection piece aborts here, before any RPC or DB
// activity.
func setup() (*runtime, error) {
	cfg, err := config.LoadConfig(".")
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	l, err := logger.New(&cfg.Log)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}

	db, err := database.Connect(cfg.Database)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	st := store.New(db)
	if err := st.Migrate(); err != nil {
		return nil, err
	}

	return &runtime{cfg: cfg, log: l, store: st}, nil
}
