// Package main is the entry point for the notistackd notification daemon.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"os/signal"
	"sync/atomic"
	"syscall"

	"github.com/diamondburned/gotk4-adwaita/pkg/adw"
	"github.com/joho/godotenv"
	"github.com/spf13/pflag"

	"github.com/jmylchreest/notistack/internal/config"
	"github.com/jmylchreest/notistack/internal/daemon"
	"github.com/jmylchreest/notistack/internal/display"
	"github.com/jmylchreest/notistack/internal/theme"
)

const appID = "io.github.jmylchreest.notistackd"

var (
	// Build-time variables
	version = "dev"
)

type flags struct {
	configPath  string
	server      bool
	monitor     bool
	logLevel    string
	verbose     bool
	showVersion bool
	initConfig  bool
	listThemes  bool
}

func parseFlags(args []string) (*flags, error) {
	f := &flags{}
	set := pflag.NewFlagSet("notistackd", pflag.ContinueOnError)
	set.StringVarP(&f.configPath, "config", "c", "", "Path to config file (default: ~/.config/notistack/notistackd.toml)")
	set.BoolVar(&f.server, "server", false, "Own org.freedesktop.Notifications instead of monitoring the bus")
	set.BoolVar(&f.monitor, "monitor", false, "Passively monitor the bus alongside another notification daemon")
	set.StringVar(&f.logLevel, "log-level", "", "Log level: debug, info, warn, error (default: from config)")
	set.BoolVarP(&f.verbose, "verbose", "v", false, "Shorthand for --log-level debug")
	set.BoolVar(&f.showVersion, "version", false, "Show version and exit")
	set.BoolVar(&f.initConfig, "init-config", false, "Write the effective configuration to the config path and exit")
	set.BoolVar(&f.listThemes, "list-themes", false, "List available themes and exit")
	if err := set.Parse(args); err != nil {
		return nil, err
	}
	if f.server && f.monitor {
		return nil, errors.New("--server and --monitor are mutually exclusive")
	}
	return f, nil
}

func main() {
	f, err := parseFlags(os.Args[1:])
	if errors.Is(err, pflag.ErrHelp) {
		return
	}
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}
	if f.showVersion {
		fmt.Println("notistackd version", version)
		return
	}

	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		fmt.Fprintln(os.Stderr, "failed to read .env:", err)
	}

	configPath := f.configPath
	if configPath == "" {
		configPath = config.DaemonConfigPath()
	}
	cfg, err := config.LoadDaemonConfig(configPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	applyFlags(cfg, f)

	switch {
	case f.initConfig:
		if err := initConfig(cfg, configPath); err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
		fmt.Println("wrote", configPath)
		return
	case f.listThemes:
		listThemes(os.Stdout, cfg.Theme.Name)
		return
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: logLevel(cfg.Log.Level),
	}))
	slog.SetDefault(logger)

	os.Exit(run(cfg, configPath, logger))
}

// applyFlags lets command-line flags override the loaded config.
func applyFlags(cfg *config.DaemonConfig, f *flags) {
	switch {
	case f.server:
		cfg.Ingest.Mode = config.ModeServer
	case f.monitor:
		cfg.Ingest.Mode = config.ModeMonitor
	}
	switch {
	case f.verbose:
		cfg.Log.Level = "debug"
	case f.logLevel != "":
		cfg.Log.Level = f.logLevel
	}
}

// initConfig writes cfg to path unless a file is already there.
func initConfig(cfg *config.DaemonConfig, path string) error {
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("%s already exists", path)
	}
	return config.SaveDaemonConfig(cfg, path)
}

// listThemes prints bundled and user themes, marking the configured one.
func listThemes(w io.Writer, current string) {
	for _, info := range theme.List(config.ThemesDir()) {
		marker := " "
		if info.Name == current {
			marker = "*"
		}
		origin := "bundled"
		if !info.Bundled {
			origin = info.Path
		}
		fmt.Fprintf(w, "%s %-16s %s\n", marker, info.Name, origin)
	}
}

// logLevel maps a config level name to slog, defaulting to info.
func logLevel(name string) slog.Level {
	var level slog.Level
	if err := level.UnmarshalText([]byte(name)); err != nil {
		return slog.LevelInfo
	}
	return level
}

// run drives the GTK application and returns the process exit code.
func run(cfg *config.DaemonConfig, configPath string, logger *slog.Logger) int {
	logger.Info("starting notistackd", "version", version, "mode", cfg.Ingest.Mode)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	app := adw.NewApplication(appID, 0)

	var (
		running atomic.Bool
		failed  atomic.Bool
	)

	app.ConnectActivate(func() {
		if running.Load() {
			logger.Warn("application already running")
			return
		}
		running.Store(true)

		// The daemon shows no windows of its own between popups.
		app.Hold()

		themes := theme.NewLoader(config.ThemesDir(), logger.With("component", "theme"))
		if err := themes.Load(cfg.Theme.Name); err != nil {
			logger.Warn("failed to load theme", "error", err)
		}
		themes.Apply(nil)
		display.ApplyColorScheme(config.ColorScheme(cfg.Theme.ColorScheme))

		renderer := display.NewRenderer(&app.Application, display.OptionsFrom(cfg), logger.With("component", "display"))

		d, err := daemon.New(daemon.Options{
			Config:     cfg,
			ConfigPath: configPath,
			Version:    version,
			Renderer:   renderer,
			Dispatch:   display.Dispatch,
			OnReload: func(next *config.DaemonConfig) {
				renderer.SetOptions(display.OptionsFrom(next))
				if next.Theme.Name != cfg.Theme.Name {
					if err := themes.Load(next.Theme.Name); err != nil {
						logger.Warn("failed to load theme", "error", err)
					}
				}
				display.ApplyColorScheme(config.ColorScheme(next.Theme.ColorScheme))
				cfg = next
			},
			Logger: logger,
		})
		if err != nil {
			logger.Error("failed to start daemon", "error", err)
			failed.Store(true)
			app.Release()
			app.Quit()
			return
		}

		go func() {
			if err := themes.Watch(ctx, display.Dispatch); err != nil {
				logger.Warn("theme watcher stopped", "error", err)
			}
		}()

		go func() {
			err := d.Run(ctx)
			if err != nil && !errors.Is(err, context.Canceled) {
				logger.Error("daemon stopped", "error", err)
				failed.Store(true)
			}
			display.Dispatch(func() {
				app.Release()
				app.Quit()
			})
		}()
	})

	// Only argv[0] is handed to GTK; flags were parsed already.
	status := app.Run(os.Args[:1])
	stop()

	if status != 0 {
		logger.Error("application exited with error", "status", status)
		return status
	}
	if failed.Load() {
		return 1
	}
	logger.Info("notistackd stopped")
	return 0
}
