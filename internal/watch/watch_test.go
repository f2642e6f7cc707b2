package watch

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

type recorder struct {
	mu      sync.Mutex
	reasons []string
}

func (r *recorder) rebuild(_ context.Context, reason string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.reasons = append(r.reasons, reason)
}

func (r *recorder) count(reason string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, got := range r.reasons {
		if got == reason {
			n++
		}
	}
	return n
}

func start(t *testing.T, w *Watcher) {
	t.Helper()
	ctx, cancel := context.WithCancel(t.Context())
	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = w.Run(ctx)
	}()
	t.Cleanup(func() {
		cancel()
		<-done
	})
}

func TestTriggerIsDebounced(t *testing.T) {
	rec := &recorder{}
	w, err := New([]string{t.TempDir()}, rec.rebuild, Options{Debounce: 100 * time.Millisecond})
	require.NoError(t, err)
	start(t, w)

	for range 5 {
		w.Trigger()
		time.Sleep(10 * time.Millisecond)
	}

	require.Eventually(t, func() bool { return rec.count(ReasonChange) == 1 }, 2*time.Second, 20*time.Millisecond)
	time.Sleep(250 * time.Millisecond)
	require.Equal(t, 1, rec.count(ReasonChange))
}

func TestFileChangeTriggersRebuild(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "plugins"), 0o750))

	rec := &recorder{}
	w, err := New([]string{dir}, rec.rebuild, Options{Debounce: 50 * time.Millisecond})
	require.NoError(t, err)
	start(t, w)

	require.NoError(t, os.WriteFile(filepath.Join(dir, "plugins", "global_start.php"), []byte("<?php\n"), 0o600))
	require.Eventually(t, func() bool { return rec.count(ReasonChange) >= 1 }, 3*time.Second, 20*time.Millisecond)
}

func TestIntervalRebuilds(t *testing.T) {
	rec := &recorder{}
	w, err := New([]string{t.TempDir()}, rec.rebuild, Options{Debounce: time.Second, Interval: 100 * time.Millisecond})
	require.NoError(t, err)
	start(t, w)

	require.Eventually(t, func() bool { return rec.count(ReasonInterval) >= 2 }, 3*time.Second, 20*time.Millisecond)
}

func TestNewMissingDirectory(t *testing.T) {
	_, err := New([]string{filepath.Join(t.TempDir(), "missing")}, func(context.Context, string) {}, Options{})
	require.Error(t, err)
}

func TestBuildOutputDoesNotRetrigger(t *testing.T) {
	dir := t.TempDir()
	out := filepath.Join(dir, "build")

	rec := &recorder{}
	rebuild := func(ctx context.Context, reason string) {
		rec.rebuild(ctx, reason)
		_ = os.MkdirAll(filepath.Join(out, "upload", "includes"), 0o750)
		_ = os.WriteFile(filepath.Join(out, "product-demo.xml"), []byte(time.Now().String()), 0o600)
		_ = os.WriteFile(filepath.Join(out, "upload", "includes", "md5_sums_demo.php"), []byte("<?php"), 0o600)
	}
	w, err := New([]string{dir}, rebuild, Options{Debounce: 50 * time.Millisecond, Ignore: []string{out}})
	require.NoError(t, err)
	start(t, w)

	w.Trigger()
	require.Eventually(t, func() bool { return rec.count(ReasonChange) == 1 }, 2*time.Second, 10*time.Millisecond)
	time.Sleep(500 * time.Millisecond)
	require.Equal(t, 1, rec.count(ReasonChange))

	require.NoError(t, os.WriteFile(filepath.Join(dir, "project.yaml"), []byte("id: demo\n"), 0o600))
	require.Eventually(t, func() bool { return rec.count(ReasonChange) == 2 }, 2*time.Second, 10*time.Millisecond)
	time.Sleep(300 * time.Millisecond)
	require.Equal(t, 2, rec.count(ReasonChange))
}

func TestExistingIgnoredTreeIsNotWatched(t *testing.T) {
	dir := t.TempDir()
	out := filepath.Join(dir, "build")
	require.NoError(t, os.MkdirAll(filepath.Join(out, "upload"), 0o750))

	w, err := New([]string{dir}, func(context.Context, string) {}, Options{Ignore: []string{out}})
	require.NoError(t, err)
	t.Cleanup(func() { _ = w.fs.Close() })

	require.Contains(t, w.fs.WatchList(), dir)
	require.NotContains(t, w.fs.WatchList(), out)
	require.NotContains(t, w.fs.WatchList(), filepath.Join(out, "upload"))
}
