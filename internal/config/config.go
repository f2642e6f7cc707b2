// Package config loads the productbuilder configuration file.
package config

import (
	"errors"
	"io/fs"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	foundationerrors "git.home.luguber.info/inful/productbuilder/internal/foundation/errors"
)

// DefaultFile is the configuration file looked up when none is given.
const DefaultFile = "productbuilder.yaml"

// Config is the productbuilder configuration.
type Config struct {
	// Root is the host source root that relative project files and task
	// scripts resolve against.
	Root        string         `yaml:"root"`
	ProjectsDir string         `yaml:"projects_dir,omitempty"`
	IncludesDir string         `yaml:"includes_dir,omitempty"`
	Database    string         `yaml:"database,omitempty"`
	Checksum    ChecksumConfig `yaml:"checksum"`
	Logging     LoggingConfig  `yaml:"logging"`
	Metrics     MetricsConfig  `yaml:"metrics,omitempty"`
	Watch       WatchConfig    `yaml:"watch"`
}

// ChecksumConfig tunes manifest generation.
type ChecksumConfig struct {
	Workers int `yaml:"workers"`
}

// LoggingConfig selects the log handler.
type LoggingConfig struct {
	Level  LogLevel  `yaml:"level"`
	Format LogFormat `yaml:"format"`
}

// MetricsConfig controls metric export.
type MetricsConfig struct {
	// Textfile, when set, receives the registry in Prometheus text format
	// after each command.
	Textfile string `yaml:"textfile,omitempty"`
}

// WatchConfig tunes the watch command.
type WatchConfig struct {
	Debounce time.Duration `yaml:"debounce"`
	// Interval, when positive, also rebuilds on a fixed schedule.
	Interval time.Duration `yaml:"interval,omitempty"`
}

// Load reads the configuration at path. Variables from .env and .env.local
// are loaded first and ${VAR} references in the file are expanded. Defaults
// are applied and the result is validated.
func Load(path string) (*Config, error) {
	if err := loadEnvFiles(".env", ".env.local"); err != nil {
		return nil, err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, foundationerrors.ConfigError("configuration file not found").
				WithContext("path", path).
				Build()
		}
		return nil, foundationerrors.ConfigError("read configuration file").
			WithContext("path", path).
			WithCause(err).
			Build()
	}

	var cfg Config
	if err := yaml.Unmarshal([]byte(os.ExpandEnv(string(data))), &cfg); err != nil {
		return nil, foundationerrors.ConfigError("parse configuration file").
			WithContext("path", path).
			WithCause(err).
			Build()
	}

	if err := NewDefaultApplier().ApplyDefaults(&cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Init writes an example configuration to path. An existing file is kept
// unless force is set.
func Init(path string, force bool) error {
	if _, err := os.Stat(path); err == nil && !force {
		return foundationerrors.ConfigError("configuration file already exists (use --force to overwrite)").
			WithContext("path", path).
			Build()
	}

	example := Config{
		Root:        "/var/www/forum",
		ProjectsDir: "projects",
		Database:    "productbuilder.db",
		Checksum:    ChecksumConfig{Workers: DefaultChecksumWorkers},
		Logging:     LoggingConfig{Level: LogLevelInfo, Format: LogFormatText},
		Watch:       WatchConfig{Debounce: DefaultWatchDebounce},
	}
	data, err := yaml.Marshal(&example)
	if err != nil {
		return foundationerrors.InternalError("encode example configuration").WithCause(err).Build()
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return foundationerrors.ConfigError("write configuration file").
			WithContext("path", path).
			WithCause(err).
			Build()
	}
	return nil
}
