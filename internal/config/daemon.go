package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
)

// Duration is a time.Duration that can be unmarshaled from human-readable strings.
// Supports formats like "5s", "10s", "1m", "1h30m", or integer milliseconds.
// A value of "0" or 0 means never expire.
type Duration time.Duration

// UnmarshalText implements encoding.TextUnmarshaler for TOML parsing.
func (d *Duration) UnmarshalText(text []byte) error {
	s := string(text)

	if ms, err := strconv.ParseInt(s, 10, 64); err == nil {
		*d = Duration(time.Duration(ms) * time.Millisecond)
		return nil
	}

	dur, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("invalid duration %q: must be like '5s', '1m', '1h30m' or milliseconds: %w", s, err)
	}
	*d = Duration(dur)
	return nil
}

// MarshalText implements encoding.TextMarshaler for TOML output.
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(time.Duration(d).String()), nil
}

// Duration returns the underlying time.Duration.
func (d Duration) Duration() time.Duration {
	return time.Duration(d)
}

// Ingestion modes.
const (
	ModeMonitor = "monitor"
	ModeServer  = "server"
)

// DaemonConfig is the configuration for notistackd.
// Loaded from ~/.config/notistack/notistackd.toml
type DaemonConfig struct {
	Ingest    IngestConfig    `toml:"ingest"`
	Display   DisplayConfig   `toml:"display"`
	Timeouts  TimeoutConfig   `toml:"timeouts"`
	Store     StoreConfig     `toml:"store"`
	Broadcast BroadcastConfig `toml:"broadcast"`
	Theme     ThemeConfig     `toml:"theme"`
	Internal  InternalConfig  `toml:"internal"`
	Log       LogConfig       `toml:"log"`
}

// IngestConfig selects how notifications are obtained from the bus.
type IngestConfig struct {
	Mode string `toml:"mode" validate:"oneof=monitor server"`
}

// DisplayConfig contains display-related settings.
type DisplayConfig struct {
	Position string `toml:"position" validate:"oneof=top-left top-right top-center bottom-left bottom-right bottom-center"`
	OffsetX  int    `toml:"offset_x" validate:"min=0"` // Pixels from the side edge
	Margin   int    `toml:"margin" validate:"min=0"`   // Pixels from the anchor edge to the newest popup
	Gap      int    `toml:"gap" validate:"min=0"`      // Gap between stacked popups
	Width    int    `toml:"width" validate:"min=100,max=1000"`
	Monitor  int    `toml:"monitor" validate:"min=0"` // 0 = compositor choice, 1+ = specific monitor
}

// TimeoutConfig contains default expiry per urgency level, used when a
// notification leaves the choice to the server.
type TimeoutConfig struct {
	Low      Duration `toml:"low"`
	Normal   Duration `toml:"normal"`
	Critical Duration `toml:"critical"`
}

// StoreConfig selects the history backend.
type StoreConfig struct {
	Enabled bool   `toml:"enabled"`
	Backend string `toml:"backend" validate:"oneof=sqlite jsonl"`
	Path    string `toml:"path"` // Empty = default under the data directory
}

// BroadcastConfig sizes the fan-out buffer.
type BroadcastConfig struct {
	Capacity int `toml:"capacity" validate:"min=1,max=65536"`
}

// ThemeConfig contains theme settings.
type ThemeConfig struct {
	Name        string `toml:"name" validate:"required"`
	ColorScheme string `toml:"color_scheme" validate:"oneof=system light dark"`
}

// InternalConfig controls notifications the daemon shows about itself.
type InternalConfig struct {
	Enabled     bool     `toml:"enabled"`
	MinInterval Duration `toml:"min_interval"` // Per message kind
}

// LogConfig contains logging settings.
type LogConfig struct {
	Level string `toml:"level" validate:"oneof=debug info warn error"`
}

// ColorScheme represents the color scheme preference.
type ColorScheme string

const (
	ColorSchemeSystem ColorScheme = "system"
	ColorSchemeLight  ColorScheme = "light"
	ColorSchemeDark   ColorScheme = "dark"
)

// Position represents a popup position on screen.
type Position string

const (
	PositionTopLeft      Position = "top-left"
	PositionTopRight     Position = "top-right"
	PositionTopCenter    Position = "top-center"
	PositionBottomLeft   Position = "bottom-left"
	PositionBottomRight  Position = "bottom-right"
	PositionBottomCenter Position = "bottom-center"
)

// DefaultDaemonConfig returns a new DaemonConfig with default values.
func DefaultDaemonConfig() *DaemonConfig {
	return &DaemonConfig{
		Ingest: IngestConfig{
			Mode: ModeMonitor,
		},
		Display: DisplayConfig{
			Position: string(PositionTopRight),
			OffsetX:  20,
			Margin:   20,
			Gap:      10,
			Width:    400,
		},
		Timeouts: TimeoutConfig{
			Low:      Duration(5 * time.Second),
			Normal:   Duration(10 * time.Second),
			Critical: Duration(0), // Never expires
		},
		Store: StoreConfig{
			Enabled: true,
			Backend: "sqlite",
		},
		Broadcast: BroadcastConfig{
			Capacity: 64,
		},
		Theme: ThemeConfig{
			Name:        "default",
			ColorScheme: string(ColorSchemeSystem),
		},
		Internal: InternalConfig{
			Enabled:     true,
			MinInterval: Duration(5 * time.Second),
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}

// DaemonConfigPath returns the path to the daemon config file.
func DaemonConfigPath() string {
	return filepath.Join(ConfigDir(), "notistackd.toml")
}

// LoadDaemonConfig loads the daemon configuration from path, or from the
// default location when path is empty. A missing file yields the defaults.
// Environment overrides are applied before validation.
func LoadDaemonConfig(path string) (*DaemonConfig, error) {
	if path == "" {
		path = DaemonConfigPath()
	}

	// Start with defaults, then overlay with file contents
	cfg := DefaultDaemonConfig()

	data, err := os.ReadFile(path)
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	if err == nil {
		if err := toml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
	}

	cfg.ApplyEnv(os.LookupEnv)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// SaveDaemonConfig writes cfg to path atomically.
func SaveDaemonConfig(cfg *DaemonConfig, path string) error {
	if path == "" {
		path = DaemonConfigPath()
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := toml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	tmpPath := path + ".tmp"
	if err := os.WriteFile(tmpPath, data, 0o600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return os.Rename(tmpPath, path)
}

// ApplyEnv overlays environment settings. lookup is usually os.LookupEnv.
//
//	DATABASE_URL          store path, optionally prefixed with sqlite:// or sqlite:
//	NOTISTACK_MODE        ingest mode
//	NOTISTACK_LOG_LEVEL   log level
func (c *DaemonConfig) ApplyEnv(lookup func(string) (string, bool)) {
	if v, ok := lookup("DATABASE_URL"); ok && v != "" {
		c.Store.Backend = "sqlite"
		c.Store.Path = ParseDatabaseURL(v)
	}
	if v, ok := lookup("NOTISTACK_MODE"); ok && v != "" {
		c.Ingest.Mode = strings.ToLower(v)
	}
	if v, ok := lookup("NOTISTACK_LOG_LEVEL"); ok && v != "" {
		c.Log.Level = strings.ToLower(v)
	}
}

// Validate checks if the configuration is valid.
func (c *DaemonConfig) Validate() error {
	return validateStruct(c)
}

// StorePath returns the configured history location, or the default for
// the backend.
func (c *DaemonConfig) StorePath() string {
	if c.Store.Path != "" {
		return expandPath(c.Store.Path)
	}
	if c.Store.Backend == "jsonl" {
		return HistoryPath()
	}
	return DatabasePath()
}

// ParseDatabaseURL strips a sqlite scheme from url, leaving a file path.
func ParseDatabaseURL(url string) string {
	for _, prefix := range []string{"sqlite://", "sqlite:"} {
		if strings.HasPrefix(url, prefix) {
			url = strings.TrimPrefix(url, prefix)
			break
		}
	}
	if i := strings.IndexByte(url, '?'); i >= 0 {
		url = url[:i]
	}
	return expandPath(url)
}

// expandPath expands ~ to the user's home directory.
func expandPath(path string) string {
	if strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err == nil {
			return filepath.Join(home, path[2:])
		}
	}
	return path
}
