// Package config loads the client configuration file. Every field has a
// usable default so the client runs with no config at all; flags on the
// binary override anything set here.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

type Config struct {
	// ServerURL is the base URL of the remote game engine
	ServerURL string `yaml:"server_url"`
	// LogLevel is one of error, warn, info, debug, trace
	LogLevel string `yaml:"log_level"`
	// DBPath is the sqlite file for the local session log
	DBPath string `yaml:"db_path"`
	// MigrationsDir holds the sqlite migration files
	MigrationsDir string `yaml:"migrations_dir"`
	// RequestTimeoutSeconds bounds every call to the engine
	RequestTimeoutSeconds int `yaml:"request_timeout_seconds"`
	// SaveIntervalSeconds is how often the save worker drains snapshots
	SaveIntervalSeconds int `yaml:"save_interval_seconds"`
	// EventSeed, when set, makes the engine's event draws deterministic
	EventSeed *int64 `yaml:"event_seed,omitempty"`
}

func Default() Config {
	return Config{
		ServerURL:             "http://localhost:8000",
		LogLevel:              "info",
		DBPath:                "erops.db",
		MigrationsDir:         "migrations",
		RequestTimeoutSeconds: 30,
		SaveIntervalSeconds:   5,
	}
}

// Load reads the config file at path, applying defaults for anything it
// leaves unset. An empty path returns the defaults.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("failed to read config file: %v", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("failed to parse config file: %v", err)
	}

	if cfg.RequestTimeoutSeconds <= 0 {
		return cfg, fmt.Errorf("request_timeout_seconds must be positive")
	}
	if cfg.SaveIntervalSeconds <= 0 {
		return cfg, fmt.Errorf("save_interval_seconds must be positive")
	}
	return cfg, nil
}
