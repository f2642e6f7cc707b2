package metrics

import (
	prom "github.com/prometheus/client_golang/prometheus"

	foundationerrors "git.home.luguber.info/inful/productbuilder/internal/foundation/errors"
)

// WriteTextfile writes everything gathered from reg to path in the text
// exposition format. The file is replaced atomically.
func WriteTextfile(path string, reg prom.Gatherer) error {
	if path == "" {
		return nil
	}
	if err := prom.WriteToTextfile(path, reg); err != nil {
		return foundationerrors.IOError("write metrics textfile").
			WithContext("path", path).
			WithCause(err).
			Build()
	}
	return nil
}
