package config

import (
	"fmt"
	"path/filepath"
	"time"
)

// Default values.
const (
	DefaultChecksumWorkers = 4
	DefaultWatchDebounce   = 2 * time.Second
	DefaultProjectsDir     = "projects"
)

// DefaultApplier applies defaults for one configuration domain.
type DefaultApplier interface {
	ApplyDefaults(cfg *Config) error
	Domain() string
}

// CompositeDefaultApplier runs every domain applier in order.
type CompositeDefaultApplier struct {
	appliers []DefaultApplier
}

// NewDefaultApplier returns the applier for all domains.
func NewDefaultApplier() *CompositeDefaultApplier {
	return &CompositeDefaultApplier{
		appliers: []DefaultApplier{
			&PathsDefaultApplier{},
			&ChecksumDefaultApplier{},
			&LoggingDefaultApplier{},
			&WatchDefaultApplier{},
		},
	}
}

// ApplyDefaults applies defaults for all domains.
func (c *CompositeDefaultApplier) ApplyDefaults(cfg *Config) error {
	for _, applier := range c.appliers {
		if err := applier.ApplyDefaults(cfg); err != nil {
			return fmt.Errorf("applying defaults for %s: %w", applier.Domain(), err)
		}
	}
	return nil
}

// PathsDefaultApplier fills in directories derived from Root.
type PathsDefaultApplier struct{}

func (PathsDefaultApplier) Domain() string { return "paths" }

func (PathsDefaultApplier) ApplyDefaults(cfg *Config) error {
	if cfg.ProjectsDir == "" {
		cfg.ProjectsDir = DefaultProjectsDir
	}
	if cfg.IncludesDir == "" && cfg.Root != "" {
		cfg.IncludesDir = filepath.Join(cfg.Root, "includes")
	}
	return nil
}

// ChecksumDefaultApplier sets the hashing concurrency.
type ChecksumDefaultApplier struct{}

func (ChecksumDefaultApplier) Domain() string { return "checksum" }

func (ChecksumDefaultApplier) ApplyDefaults(cfg *Config) error {
	if cfg.Checksum.Workers <= 0 {
		cfg.Checksum.Workers = DefaultChecksumWorkers
	}
	return nil
}

// LoggingDefaultApplier normalizes the level and format.
type LoggingDefaultApplier struct{}

func (LoggingDefaultApplier) Domain() string { return "logging" }

func (LoggingDefaultApplier) ApplyDefaults(cfg *Config) error {
	cfg.Logging.Level = NormalizeLogLevel(string(cfg.Logging.Level))
	cfg.Logging.Format = NormalizeLogFormat(string(cfg.Logging.Format))
	return nil
}

// WatchDefaultApplier sets the rebuild debounce.
type WatchDefaultApplier struct{}

func (WatchDefaultApplier) Domain() string { return "watch" }

func (WatchDefaultApplier) ApplyDefaults(cfg *Config) error {
	if cfg.Watch.Debounce == 0 {
		cfg.Watch.Debounce = DefaultWatchDebounce
	}
	return nil
}
