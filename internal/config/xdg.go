package config

import (
	"os"
	"path/filepath"
)

const appName = "healthdash"

// XDGConfigHome returns $XDG_CONFIG_HOME, falling back to ~/.config.
func XDGConfigHome() string {
	return xdgBase("XDG_CONFIG_HOME", ".config")
}

// XDGDataHome returns $XDG_DATA_HOME, falling back to ~/.local/share.
func XDGDataHome() string {
	return xdgBase("XDG_DATA_HOME", ".local", "share")
}

func xdgBase(env string, fallback ...string) string {
	if v := os.Getenv(env); v != "" {
		return v
	}
	home, err := os.UserHomeDir()
	if err != nil || home == "" {
		return "."
	}
	return filepath.Join(append([]string{home}, fallback...)...)
}

func appPath(base string, elem ...string) string {
	return filepath.Join(append([]string{base, appName}, elem...)...)
}

// DefaultDBPath is the SQLite database used when neither --db nor a database URL is set.
func DefaultDBPath() string {
	return appPath(XDGDataHome(), appName+".db")
}

// DefaultUploadDir is where the server keeps uploaded exports.
func DefaultUploadDir() string {
	return appPath(XDGDataHome(), "uploads")
}

// DefaultConfigPath returns the TOML config location.
func DefaultConfigPath() string {
	return appPath(XDGConfigHome(), "config.toml")
}
