package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultDaemonConfig_Valid(t *testing.T) {
	cfg := DefaultDaemonConfig()

	require.NoError(t, cfg.Validate())
	assert.Equal(t, ModeMonitor, cfg.Ingest.Mode)
	assert.Equal(t, "top-right", cfg.Display.Position)
	assert.Equal(t, 20, cfg.Display.Margin)
	assert.Equal(t, 10, cfg.Display.Gap)
	assert.Equal(t, 5*time.Second, cfg.Timeouts.Low.Duration())
	assert.Equal(t, time.Duration(0), cfg.Timeouts.Critical.Duration())
	assert.Equal(t, 64, cfg.Broadcast.Capacity)
}

func TestLoadDaemonConfig_MissingFileGivesDefaults(t *testing.T) {
	t.Setenv("DATABASE_URL", "")
	t.Setenv("NOTISTACK_MODE", "")
	t.Setenv("NOTISTACK_LOG_LEVEL", "")

	cfg, err := LoadDaemonConfig(filepath.Join(t.TempDir(), "absent.toml"))
	require.NoError(t, err)
	assert.Equal(t, DefaultDaemonConfig(), cfg)
}

func TestLoadDaemonConfig_ParsesTOML(t *testing.T) {
	t.Setenv("DATABASE_URL", "")
	t.Setenv("NOTISTACK_MODE", "")
	t.Setenv("NOTISTACK_LOG_LEVEL", "")

	path := filepath.Join(t.TempDir(), "notistackd.toml")
	content := `
[ingest]
mode = "server"

[display]
position = "bottom-left"
margin = 32
gap = 4
width = 300

[timeouts]
low = "2s"
normal = "7000"
critical = "1m"

[store]
backend = "jsonl"
path = "/tmp/history.jsonl"

[broadcast]
capacity = 8
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	cfg, err := LoadDaemonConfig(path)
	require.NoError(t, err)

	assert.Equal(t, ModeServer, cfg.Ingest.Mode)
	assert.Equal(t, "bottom-left", cfg.Display.Position)
	assert.Equal(t, 32, cfg.Display.Margin)
	assert.Equal(t, 4, cfg.Display.Gap)
	assert.Equal(t, 300, cfg.Display.Width)
	assert.Equal(t, 2*time.Second, cfg.Timeouts.Low.Duration())
	assert.Equal(t, 7*time.Second, cfg.Timeouts.Normal.Duration())
	assert.Equal(t, time.Minute, cfg.Timeouts.Critical.Duration())
	assert.Equal(t, "jsonl", cfg.Store.Backend)
	assert.Equal(t, "/tmp/history.jsonl", cfg.StorePath())
	assert.Equal(t, 8, cfg.Broadcast.Capacity)
	// Unset sections keep their defaults.
	assert.Equal(t, "default", cfg.Theme.Name)
}

func TestLoadDaemonConfig_RejectsInvalid(t *testing.T) {
	t.Setenv("DATABASE_URL", "")
	t.Setenv("NOTISTACK_MODE", "")
	t.Setenv("NOTISTACK_LOG_LEVEL", "")

	path := filepath.Join(t.TempDir(), "notistackd.toml")
	require.NoError(t, os.WriteFile(path, []byte("[display]\nposition = \"middle\"\n"), 0o644))

	_, err := LoadDaemonConfig(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Position")
}

func TestLoadDaemonConfig_RejectsBadDuration(t *testing.T) {
	path := filepath.Join(t.TempDir(), "notistackd.toml")
	require.NoError(t, os.WriteFile(path, []byte("[timeouts]\nlow = \"soon\"\n"), 0o644))

	_, err := LoadDaemonConfig(path)
	assert.Error(t, err)
}

func TestDaemonConfig_Validate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*DaemonConfig)
	}{
		{"unknown mode", func(c *DaemonConfig) { c.Ingest.Mode = "sniff" }},
		{"negative gap", func(c *DaemonConfig) { c.Display.Gap = -1 }},
		{"narrow width", func(c *DaemonConfig) { c.Display.Width = 10 }},
		{"zero capacity", func(c *DaemonConfig) { c.Broadcast.Capacity = 0 }},
		{"unknown backend", func(c *DaemonConfig) { c.Store.Backend = "redis" }},
		{"unknown level", func(c *DaemonConfig) { c.Log.Level = "trace" }},
		{"unknown scheme", func(c *DaemonConfig) { c.Theme.ColorScheme = "sepia" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultDaemonConfig()
			tt.mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}

func TestApplyEnv(t *testing.T) {
	env := map[string]string{
		"DATABASE_URL":        "sqlite:///var/lib/notistack/h.db?_pragma=foreign_keys(1)",
		"NOTISTACK_MODE":      "SERVER",
		"NOTISTACK_LOG_LEVEL": "Debug",
	}
	lookup := func(k string) (string, bool) {
		v, ok := env[k]
		return v, ok
	}

	cfg := DefaultDaemonConfig()
	cfg.Store.Backend = "jsonl"
	cfg.ApplyEnv(lookup)

	assert.Equal(t, "sqlite", cfg.Store.Backend)
	assert.Equal(t, "/var/lib/notistack/h.db", cfg.StorePath())
	assert.Equal(t, ModeServer, cfg.Ingest.Mode)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.NoError(t, cfg.Validate())
}

func TestParseDatabaseURL(t *testing.T) {
	assert.Equal(t, "/a/b.db", ParseDatabaseURL("sqlite:///a/b.db"))
	assert.Equal(t, "rel.db", ParseDatabaseURL("sqlite:rel.db"))
	assert.Equal(t, ":memory:", ParseDatabaseURL(":memory:"))
	assert.Equal(t, "/x.db", ParseDatabaseURL("/x.db?mode=rwc"))
}

func TestStorePath_Defaults(t *testing.T) {
	dataHome := t.TempDir()
	t.Setenv("XDG_DATA_HOME", dataHome)

	cfg := DefaultDaemonConfig()
	assert.Equal(t, filepath.Join(dataHome, "notistack", "history.db"), cfg.StorePath())

	cfg.Store.Backend = "jsonl"
	assert.Equal(t, filepath.Join(dataHome, "notistack", "history.jsonl"), cfg.StorePath())
}

func TestSaveDaemonConfig_RoundTrip(t *testing.T) {
	t.Setenv("DATABASE_URL", "")
	t.Setenv("NOTISTACK_MODE", "")
	t.Setenv("NOTISTACK_LOG_LEVEL", "")

	path := filepath.Join(t.TempDir(), "sub", "notistackd.toml")
	cfg := DefaultDaemonConfig()
	cfg.Display.Position = "bottom-center"
	cfg.Timeouts.Normal = Duration(3 * time.Second)

	require.NoError(t, SaveDaemonConfig(cfg, path))

	loaded, err := LoadDaemonConfig(path)
	require.NoError(t, err)
	assert.Equal(t, "bottom-center", loaded.Display.Position)
	assert.Equal(t, 3*time.Second, loaded.Timeouts.Normal.Duration())
}

func TestLoadDaemonConfig_InternalSection(t *testing.T) {
	path := filepath.Join(t.TempDir(), "notistackd.toml")
	require.NoError(t, os.WriteFile(path, []byte("[internal]\nenabled = false\nmin_interval = \"1m\"\n"), 0o644))

	cfg, err := LoadDaemonConfig(path)
	require.NoError(t, err)
	assert.False(t, cfg.Internal.Enabled)
	assert.Equal(t, time.Minute, cfg.Internal.MinInterval.Duration())
	assert.True(t, DefaultDaemonConfig().Internal.Enabled)
}
