package main

import (
	"bytes"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jmylchreest/notistack/internal/config"
)

func TestParseFlags(t *testing.T) {
	f, err := parseFlags([]string{"--server", "-c", "/tmp/n.toml", "-v"})
	require.NoError(t, err)
	assert.True(t, f.server)
	assert.True(t, f.verbose)
	assert.Equal(t, "/tmp/n.toml", f.configPath)

	_, err = parseFlags([]string{"--server", "--monitor"})
	assert.Error(t, err)

	_, err = parseFlags([]string{"--help"})
	assert.ErrorIs(t, err, pflag.ErrHelp)
}

func TestApplyFlags(t *testing.T) {
	cfg := config.DefaultDaemonConfig()
	applyFlags(cfg, &flags{server: true, logLevel: "warn"})
	assert.Equal(t, config.ModeServer, cfg.Ingest.Mode)
	assert.Equal(t, "warn", cfg.Log.Level)

	applyFlags(cfg, &flags{monitor: true, verbose: true, logLevel: "error"})
	assert.Equal(t, config.ModeMonitor, cfg.Ingest.Mode)
	assert.Equal(t, "debug", cfg.Log.Level)
}

func TestLogLevel(t *testing.T) {
	assert.Equal(t, slog.LevelDebug, logLevel("debug"))
	assert.Equal(t, slog.LevelWarn, logLevel("warn"))
	assert.Equal(t, slog.LevelInfo, logLevel("bogus"))
}

func TestInitConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "notistack", "notistackd.toml")
	cfg := config.DefaultDaemonConfig()
	cfg.Display.Gap = 3

	require.NoError(t, initConfig(cfg, path))
	loaded, err := config.LoadDaemonConfig(path)
	require.NoError(t, err)
	assert.Equal(t, 3, loaded.Display.Gap)

	assert.Error(t, initConfig(cfg, path))
}

func TestListThemes(t *testing.T) {
	home := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", home)
	dir := filepath.Join(home, "notistack", "themes")
	require.NoError(t, os.MkdirAll(dir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "ocean.css"), []byte(""), 0o644))

	var buf bytes.Buffer
	listThemes(&buf, "ocean")

	out := buf.String()
	assert.Contains(t, out, "  default")
	assert.Contains(t, out, "* ocean")
	assert.Contains(t, out, filepath.Join(dir, "ocean.css"))
}
