// Package config handles configuration file loading and parsing.
package config

import (
	"os"
	"path/filepath"
)

// appName is the directory name used under the XDG base directories.
const appName = "notistack"

// ConfigDir returns the configuration directory.
// Uses XDG_CONFIG_HOME if set, otherwise ~/.config.
func ConfigDir() string {
	configHome := os.Getenv("XDG_CONFIG_HOME")
	if configHome == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return ""
		}
		configHome = filepath.Join(home, ".config")
	}
	return filepath.Join(configHome, appName)
}

// DataPath returns the path to the data directory.
// Uses XDG_DATA_HOME if set, otherwise ~/.local/share.
func DataPath() string {
	dataHome := os.Getenv("XDG_DATA_HOME")
	if dataHome == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return ""
		}
		dataHome = filepath.Join(home, ".local", "share")
	}
	return filepath.Join(dataHome, appName)
}

// DatabasePath returns the default SQLite history database.
func DatabasePath() string {
	return filepath.Join(DataPath(), "history.db")
}

// HistoryPath returns the default JSONL history file.
func HistoryPath() string {
	return filepath.Join(DataPath(), "history.jsonl")
}

// ThemesDir returns the directory searched for user CSS themes.
func ThemesDir() string {
	return filepath.Join(ConfigDir(), "themes")
}
