package config

import (
	foundationerrors "git.home.luguber.info/inful/productbuilder/internal/foundation/errors"
)

// Validate reports the first invalid field.
func (c *Config) Validate() error {
	if c.Root == "" {
		return invalid("root", "root is required")
	}
	if c.Checksum.Workers < 1 {
		return invalid("checksum.workers", "checksum workers must be at least 1")
	}
	if c.Watch.Debounce < 0 {
		return invalid("watch.debounce", "watch debounce must not be negative")
	}
	if c.Watch.Interval < 0 {
		return invalid("watch.interval", "watch interval must not be negative")
	}
	return nil
}

func invalid(field, msg string) error {
	return foundationerrors.ValidationError(msg).WithContext("field", field).Build()
}
