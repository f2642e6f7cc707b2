package workspace

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	foundationerrors "git.home.luguber.info/inful/productbuilder/internal/foundation/errors"
	"git.home.luguber.info/inful/productbuilder/internal/logfields"
)

// UploadDir is the staged upload tree inside a build directory.
const UploadDir = "upload"

// Manager handles build directory operations (both temporary and persistent).
type Manager struct {
	baseDir    string
	prefix     string
	dir        string
	persistent bool
	now        func() time.Time
}

// NewManager creates a manager for ephemeral timestamped directories named
// <prefix>-<timestamp> under baseDir.
func NewManager(baseDir, prefix string) *Manager {
	if baseDir == "" {
		baseDir = os.TempDir()
	}
	if prefix == "" {
		prefix = "productbuilder"
	}
	return &Manager{baseDir: baseDir, prefix: prefix, now: time.Now}
}

// NewStaging creates a manager for a product's fixed build directory.
func NewStaging(buildPath string) *Manager {
	return &Manager{dir: filepath.Clean(buildPath), persistent: true, now: time.Now}
}

// Create creates the directory.
// For ephemeral mode: creates a timestamped directory
// For persistent mode: ensures the fixed directory exists
func (m *Manager) Create() error {
	if m.persistent {
		if err := os.MkdirAll(m.dir, 0o750); err != nil {
			return foundationerrors.StagingError("could not create build directory").
				WithContext("path", m.dir).
				WithCause(err).
				Build()
		}
		slog.Debug("Using build directory", logfields.Path(m.dir))
		return nil
	}

	timestamp := m.now().Format("20060102-150405")
	dir, err := os.MkdirTemp(m.baseDir, fmt.Sprintf("%s-%s-", m.prefix, timestamp))
	if err != nil {
		return foundationerrors.StagingError("could not create workspace directory").
			WithContext("path", m.baseDir).
			WithCause(err).
			Build()
	}
	m.dir = dir
	slog.Debug("Created workspace", logfields.Path(dir))
	return nil
}

// Path returns the directory path.
func (m *Manager) Path() string {
	return m.dir
}

// UploadPath returns the staged upload tree path.
func (m *Manager) UploadPath() string {
	return filepath.Join(m.dir, UploadDir)
}

// DocumentPath returns the product document path for id.
func (m *Manager) DocumentPath(id string) string {
	return filepath.Join(m.dir, "product-"+id+".xml")
}

// Cleanup removes an ephemeral directory. Persistent directories are kept.
func (m *Manager) Cleanup() error {
	if m.dir == "" {
		return nil
	}
	if m.persistent {
		slog.Debug("Keeping build directory", logfields.Path(m.dir))
		return nil
	}
	if err := os.RemoveAll(m.dir); err != nil {
		return foundationerrors.IOError("failed to clean up workspace").
			WithContext("path", m.dir).
			WithCause(err).
			Build()
	}
	slog.Debug("Cleaned up workspace", logfields.Path(m.dir))
	m.dir = ""
	return nil
}

// CreateSubdir creates a subdirectory within the directory.
func (m *Manager) CreateSubdir(name string) (string, error) {
	if m.dir == "" {
		return "", foundationerrors.InternalError("workspace not created").Build()
	}
	subdir := filepath.Join(m.dir, name)
	if err := os.MkdirAll(subdir, 0o750); err != nil {
		return "", foundationerrors.StagingError("failed to create subdirectory").
			WithContext("path", subdir).
			WithCause(err).
			Build()
	}
	return subdir, nil
}
