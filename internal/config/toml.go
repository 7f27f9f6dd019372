// Package config provides configuration helpers and TOML parsing.
package config

import (
	"fmt"
	"os"

	"github.com/BurntSushi/toml"
)

// FileConfig represents the TOML configuration file.
type FileConfig struct {
	Ingest   IngestConfig   `toml:"ingest"`
	Store    StoreConfig    `toml:"store"`
	Server   ServerConfig   `toml:"server"`
	Insights InsightsConfig `toml:"insights"`
}

// IngestConfig maps export parsing settings.
type IngestConfig struct {
	HistoryDays *int    `toml:"history-days"`
	Format      *string `toml:"format"`
	Notify      *bool   `toml:"notify"`
}

// StoreConfig maps persistence settings.
type StoreConfig struct {
	Path        *string `toml:"path"`
	DatabaseURL *string `toml:"database-url"`
}

// ServerConfig maps HTTP API settings.
type ServerConfig struct {
	Addr      *string `toml:"addr"`
	UploadDir *string `toml:"upload-dir"`
}

// InsightsConfig maps AI commentary settings.
type InsightsConfig struct {
	Model     *string `toml:"model"`
	MaxTokens *int    `toml:"max-tokens"`
}

// LoadConfig reads a TOML config from the given path. Missing file is not an error.
func LoadConfig(path string) (FileConfig, error) {
	if path == "" {
		return FileConfig{}, fmt.Errorf("config path is empty")
	}
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return FileConfig{}, nil
		}
		return FileConfig{}, fmt.Errorf("failed to stat config: %w", err)
	}
	var cfg FileConfig
	md, err := toml.DecodeFile(path, &cfg)
	if err != nil {
		return FileConfig{}, fmt.Errorf("failed to decode config: %w", err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		return FileConfig{}, fmt.Errorf("unknown config key %q", undecoded[0].String())
	}
	return cfg, nil
}

// ApplyEnv overlays DATABASE_URL and PORT onto cfg. Environment wins over the file.
func ApplyEnv(cfg *FileConfig, getenv func(string) string) {
	if v := getenv("DATABASE_URL"); v != "" {
		cfg.Store.DatabaseURL = &v
	}
	if v := getenv("PORT"); v != "" {
		addr := ":" + v
		cfg.Server.Addr = &addr
	}
}
