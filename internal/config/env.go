package config

import (
	"errors"
	"io/fs"
	"os"

	"github.com/joho/godotenv"

	foundationerrors "git.home.luguber.info/inful/productbuilder/internal/foundation/errors"
)

// loadEnvFiles loads each existing file into the process environment.
// Variables already set are not overridden; missing files are skipped.
func loadEnvFiles(paths ...string) error {
	for _, path := range paths {
		if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
			continue
		}
		if err := godotenv.Load(path); err != nil {
			return foundationerrors.ConfigError("load environment file").
				WithContext("path", path).
				WithCause(err).
				Build()
		}
	}
	return nil
}
