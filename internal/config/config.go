// Package config loads the notesdb tool configuration.
//
// Configuration is explicit: it is read from an optional YAML file and
// overridden by CLI flags. Nothing below the CLI layer consults the
// environment or process-wide defaults.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds everything the CLI needs to construct a store and a logger.
type Config struct {
	// DBPath is the SQLite database file.
	DBPath string `yaml:"db_path"`

	// BusyTimeout bounds how long a statement waits on the store lock.
	BusyTimeout time.Duration `yaml:"busy_timeout"`

	// LogLevel is one of debug, info, warn, error.
	LogLevel string `yaml:"log_level"`

	// LogFormat is "text" (colored console) or "json".
	LogFormat string `yaml:"log_format"`
}

// Default returns the configuration used when no file and no flags are given.
func Default() Config {
	return Config{
		BusyTimeout: 5 * time.Second,
		LogLevel:    "info",
		LogFormat:   "text",
	}
}

// Load reads a YAML config file and merges it over the defaults. Fields
// absent from the file keep their default values.
func Load(path string) (Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("read config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse config %s: %w", path, err)
	}
	return cfg, nil
}
