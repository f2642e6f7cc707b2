// Package watch rebuilds projects when their trees change and, optionally,
// on a fixed interval.
package watch

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/go-co-op/gocron/v2"

	"git.home.luguber.info/inful/productbuilder/internal/logfields"
)

// Rebuild reasons.
const (
	ReasonChange   = "change"
	ReasonInterval = "interval"
)

// RebuildFunc runs one rebuild. Calls never overlap.
type RebuildFunc func(ctx context.Context, reason string)

// Options tunes a Watcher.
type Options struct {
	Debounce time.Duration
	Interval time.Duration
	Logger   *slog.Logger
	// Ignore lists paths whose changes never trigger a rebuild, typically
	// build output inside a watched tree. Ignored directories are not watched.
	Ignore []string
}

// Watcher triggers debounced rebuilds for changes under a set of directories.
type Watcher struct {
	dirs     []string
	ignore   []string
	rebuild  RebuildFunc
	debounce time.Duration
	interval time.Duration
	logger   *slog.Logger

	fs      *fsnotify.Watcher
	trigger chan struct{}
	mu      sync.Mutex
}

// New returns a Watcher over dirs. Subdirectories are watched too.
func New(dirs []string, rebuild RebuildFunc, opts Options) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create file watcher: %w", err)
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	dirs, err = absPaths(dirs)
	if err != nil {
		_ = fsw.Close()
		return nil, err
	}
	ignore, err := absPaths(opts.Ignore)
	if err != nil {
		_ = fsw.Close()
		return nil, err
	}
	w := &Watcher{
		dirs:     dirs,
		ignore:   ignore,
		rebuild:  rebuild,
		debounce: opts.Debounce,
		interval: opts.Interval,
		logger:   logger,
		fs:       fsw,
		trigger:  make(chan struct{}, 1),
	}
	for _, dir := range dirs {
		if err := w.addTree(dir); err != nil {
			_ = fsw.Close()
			return nil, err
		}
	}
	return w, nil
}

// Run blocks until ctx is canceled.
func (w *Watcher) Run(ctx context.Context) error {
	defer func() { _ = w.fs.Close() }()

	if w.interval > 0 {
		s, err := gocron.NewScheduler()
		if err != nil {
			return fmt.Errorf("failed to create gocron scheduler: %w", err)
		}
		_, err = s.NewJob(
			gocron.DurationJob(w.interval),
			gocron.NewTask(func() { w.run(ctx, ReasonInterval) }),
			gocron.WithName("interval-rebuild"),
			gocron.WithSingletonMode(gocron.LimitModeReschedule),
		)
		if err != nil {
			return fmt.Errorf("failed to create interval rebuild job: %w", err)
		}
		s.Start()
		defer func() {
			if err := s.Shutdown(); err != nil {
				w.logger.Warn("Failed to stop scheduler", logfields.Error(err))
			}
		}()
	}

	w.logger.Info("Watching project trees", logfields.Count(len(w.dirs)))
	go w.watchLoop(ctx)

	var timer *time.Timer
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-w.trigger:
			if timer != nil {
				timer.Stop()
			}
			timer = time.AfterFunc(w.debounce, func() { w.run(ctx, ReasonChange) })
		}
	}
}

// Trigger requests a debounced rebuild.
func (w *Watcher) Trigger() {
	select {
	case w.trigger <- struct{}{}:
	default:
	}
}

func (w *Watcher) run(ctx context.Context, reason string) {
	if ctx.Err() != nil {
		return
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	w.logger.Debug("Rebuilding", slog.String("reason", reason))
	w.rebuild(ctx, reason)
}

func (w *Watcher) watchLoop(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-w.fs.Events:
			if !ok {
				return
			}
			if event.Op&fsnotify.Chmod == event.Op || w.ignored(event.Name) {
				continue
			}
			if event.Op&fsnotify.Create != 0 {
				if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
					if err := w.addTree(event.Name); err != nil {
						w.logger.Warn("Failed to watch new directory", logfields.Path(event.Name), logfields.Error(err))
					}
				}
			}
			w.logger.Debug("Project change detected", logfields.File(event.Name), slog.String("op", event.Op.String()))
			w.Trigger()
		case err, ok := <-w.fs.Errors:
			if !ok {
				return
			}
			w.logger.Error("Watcher error", logfields.Error(err))
		}
	}
}

func (w *Watcher) addTree(root string) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if (path != root && d.Name() == ".git") || w.ignored(path) {
			return filepath.SkipDir
		}
		if err := w.fs.Add(path); err != nil {
			return fmt.Errorf("failed to watch %s: %w", path, err)
		}
		return nil
	})
}

// ignored reports whether path is, or lies under, an ignored path.
func (w *Watcher) ignored(path string) bool {
	for _, ig := range w.ignore {
		if path == ig || strings.HasPrefix(path, ig+string(filepath.Separator)) {
			return true
		}
	}
	return false
}

func absPaths(paths []string) ([]string, error) {
	out := make([]string, 0, len(paths))
	for _, p := range paths {
		a, err := filepath.Abs(p)
		if err != nil {
			return nil, fmt.Errorf("failed to resolve %s: %w", p, err)
		}
		out = append(out, a)
	}
	return out, nil
}
