package workspace

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	foundationerrors "git.home.luguber.info/inful/productbuilder/internal/foundation/errors"
)

func TestManager_EphemeralMode(t *testing.T) {
	mgr := NewManager(t.TempDir(), "productbuilder-demo")
	mgr.now = func() time.Time { return time.Date(2025, 12, 14, 12, 23, 36, 0, time.UTC) }

	if err := mgr.Create(); err != nil {
		t.Fatalf("Create() failed: %v", err)
	}

	wsPath := mgr.Path()
	if !strings.HasPrefix(filepath.Base(wsPath), "productbuilder-demo-20251214-122336-") {
		t.Errorf("Expected timestamped directory, got: %s", wsPath)
	}
	if _, err := os.Stat(wsPath); os.IsNotExist(err) {
		t.Errorf("Workspace directory does not exist: %s", wsPath)
	}

	if err := mgr.Cleanup(); err != nil {
		t.Fatalf("Cleanup() failed: %v", err)
	}
	if _, err := os.Stat(wsPath); !os.IsNotExist(err) {
		t.Errorf("Workspace directory still exists after cleanup: %s", wsPath)
	}
	if mgr.Path() != "" {
		t.Errorf("Path() should be empty after cleanup, got %s", mgr.Path())
	}
}

func TestManager_StagingMode(t *testing.T) {
	buildPath := filepath.Join(t.TempDir(), "build", "demo")
	mgr := NewStaging(buildPath)

	if err := mgr.Create(); err != nil {
		t.Fatalf("Create() failed: %v", err)
	}
	if mgr.Path() != buildPath {
		t.Errorf("Path() = %s, want %s", mgr.Path(), buildPath)
	}
	if got, want := mgr.DocumentPath("demo"), filepath.Join(buildPath, "product-demo.xml"); got != want {
		t.Errorf("DocumentPath() = %s, want %s", got, want)
	}
	if got, want := mgr.UploadPath(), filepath.Join(buildPath, "upload"); got != want {
		t.Errorf("UploadPath() = %s, want %s", got, want)
	}

	if err := mgr.Cleanup(); err != nil {
		t.Fatalf("Cleanup() failed: %v", err)
	}
	if _, err := os.Stat(buildPath); err != nil {
		t.Errorf("Build directory should survive cleanup: %v", err)
	}
}

func TestManager_StagingCreateFails(t *testing.T) {
	file := filepath.Join(t.TempDir(), "occupied")
	if err := os.WriteFile(file, []byte("x"), 0o600); err != nil {
		t.Fatal(err)
	}

	err := NewStaging(filepath.Join(file, "build")).Create()
	if !foundationerrors.HasCategory(err, foundationerrors.CategoryStaging) {
		t.Fatalf("expected staging error, got %v", err)
	}
}

func TestManager_CreateSubdir(t *testing.T) {
	mgr := NewStaging(t.TempDir())
	if _, err := NewManager("", "").CreateSubdir("x"); err == nil {
		t.Fatal("expected error before Create()")
	}
	if err := mgr.Create(); err != nil {
		t.Fatal(err)
	}

	subdir, err := mgr.CreateSubdir("upload/includes")
	if err != nil {
		t.Fatalf("CreateSubdir() failed: %v", err)
	}
	if info, err := os.Stat(subdir); err != nil || !info.IsDir() {
		t.Errorf("Subdirectory not created: %s", subdir)
	}
}
