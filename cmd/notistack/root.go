package main

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/jmylchreest/notistack/internal/config"
	"github.com/jmylchreest/notistack/internal/store"
)

// Build-time variables (set via ldflags)
var (
	version   = "dev"
	commit    = "unknown"
	buildTime = "unknown"
)

// Global configuration and state
var (
	cfg        *config.DaemonConfig
	globalOpts struct {
		verbose    bool
		configPath string
		dbPath     string
		backend    string
	}
	logger *slog.Logger

	// historyStore is opened lazily by commands that need it
	historyStore store.Store
)

// rootCmd represents the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:   "notistack",
	Short: "Browse the notistackd notification history",
	Long: `notistack reads the notification history recorded by notistackd.

It shares the daemon's configuration file, so the history location and
backend follow whatever the daemon is using. DATABASE_URL (also read
from a .env file in the working directory) overrides the store path.`,
	Version:       fmt.Sprintf("%s (commit: %s, built: %s)", version, commit, buildTime),
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		setupLogger()

		if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
			logger.Warn("failed to read .env", "error", err)
		}

		var err error
		cfg, err = config.LoadDaemonConfig(globalOpts.configPath)
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}
		if globalOpts.backend != "" {
			cfg.Store.Backend = globalOpts.backend
		}
		if globalOpts.dbPath != "" {
			cfg.Store.Path = globalOpts.dbPath
		}
		return nil
	},
	PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
		if historyStore != nil {
			return historyStore.Close()
		}
		return nil
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&globalOpts.verbose, "verbose", "v", false,
		"Enable verbose logging")
	rootCmd.PersistentFlags().StringVar(&globalOpts.configPath, "config", "",
		"Path to config file (default: ~/.config/notistack/notistackd.toml)")
	rootCmd.PersistentFlags().StringVar(&globalOpts.dbPath, "db", "",
		"Path to the history store (default: from config)")
	rootCmd.PersistentFlags().StringVar(&globalOpts.backend, "backend", "",
		"History backend: sqlite or jsonl (default: from config)")
}

// setupLogger configures the global slog logger.
func setupLogger() {
	level := slog.LevelWarn
	if globalOpts.verbose {
		level = slog.LevelDebug
	}

	// Log to stderr so stdout is clean for output
	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})
	logger = slog.New(handler)
	slog.SetDefault(logger)
}

// getStore opens the configured history store on first use.
func getStore() (store.Store, error) {
	if historyStore != nil {
		return historyStore, nil
	}

	path := cfg.StorePath()
	if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("no history at %s (is notistackd recording?)", path)
	}

	st, err := store.Open(store.Options{Backend: cfg.Store.Backend, Path: path})
	if err != nil {
		return nil, fmt.Errorf("failed to open history: %w", err)
	}
	logger.Debug("opened history store", "backend", cfg.Store.Backend, "path", path)
	historyStore = st
	return st, nil
}
