// Package commands implements the productbuilder command line.
package commands

import (
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/alecthomas/kong"
	prom "github.com/prometheus/client_golang/prometheus"

	"git.home.luguber.info/inful/productbuilder/internal/builder"
	"git.home.luguber.info/inful/productbuilder/internal/config"
	foundationerrors "git.home.luguber.info/inful/productbuilder/internal/foundation/errors"
	"git.home.luguber.info/inful/productbuilder/internal/hostdb"
	"git.home.luguber.info/inful/productbuilder/internal/metrics"
	"git.home.luguber.info/inful/productbuilder/internal/porter"
	"git.home.luguber.info/inful/productbuilder/internal/project"
)

// Global is passed to every command.
type Global struct {
	// Out receives human-readable command output.
	Out io.Writer
}

// CLI is the root command with its global flags.
type CLI struct {
	Config  string           `short:"c" help:"Configuration file path" default:"productbuilder.yaml"`
	Verbose bool             `short:"v" help:"Enable verbose logging"`
	Version kong.VersionFlag `name:"version" help:"Show version and exit"`

	Build    BuildCmd    `cmd:"" help:"Build product packages from project trees"`
	Port     PortCmd     `cmd:"" help:"Export an installed product into a project tree"`
	Checksum ChecksumCmd `cmd:"" help:"Recompute checksum manifests over an existing staging tree"`
	Watch    WatchCmd    `cmd:"" help:"Rebuild projects when their trees change"`
	History  HistoryCmd  `cmd:"" help:"Show recorded builds"`
	Runtime  RuntimeCmd  `cmd:"" help:"Show what the development runtime injects for projects"`
	Init     InitCmd     `cmd:"" help:"Write an example configuration file"`
}

// AfterApply installs a default logger until the configuration is loaded.
func (c *CLI) AfterApply() error {
	level := slog.LevelInfo
	if c.Verbose {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))
	return nil
}

// env is what a command needs once the configuration is loaded.
type env struct {
	cfg      *config.Config
	logger   *slog.Logger
	db       *hostdb.DB
	registry *prom.Registry
	recorder metrics.Recorder
}

func openEnv(root *CLI) (*env, error) {
	cfg, err := config.Load(root.Config)
	if err != nil {
		return nil, err
	}
	logger := newLogger(cfg.Logging, root.Verbose, os.Stderr)
	slog.SetDefault(logger)

	reg := prom.NewRegistry()
	e := &env{
		cfg:      cfg,
		logger:   logger,
		registry: reg,
		recorder: metrics.NewPrometheusRecorder(reg),
	}
	if cfg.Database != "" {
		db, err := hostdb.Open(cfg.Database)
		if err != nil {
			return nil, err
		}
		e.db = db
	}
	return e, nil
}

// close writes the metrics textfile and closes the database.
func (e *env) close() error {
	var errs []error
	if err := metrics.WriteTextfile(e.cfg.Metrics.Textfile, e.registry); err != nil {
		errs = append(errs, err)
	}
	if e.db != nil {
		if err := e.db.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (e *env) requireDB(command string) (*hostdb.DB, error) {
	if e.db == nil {
		return nil, foundationerrors.ConfigError("command requires a configured database").
			WithContext("command", command).
			Build()
	}
	return e.db, nil
}

func (e *env) builder() *builder.Builder {
	opts := []builder.Option{
		builder.WithRoot(e.cfg.Root),
		builder.WithIncludesDir(e.cfg.IncludesDir),
		builder.WithHashWorkers(e.cfg.Checksum.Workers),
		builder.WithRecorder(e.recorder),
		builder.WithLogger(e.logger),
	}
	if e.db != nil {
		opts = append(opts, builder.WithRegistry(e.db))
	}
	return builder.New(opts...)
}

func newPorter(db *hostdb.DB, e *env) *porter.Porter {
	return porter.New(db, e.logger)
}

// loadProject loads arg as a project directory, or as a project id under
// the configured projects directory.
func (e *env) loadProject(arg string) (*project.Project, error) {
	if info, err := os.Stat(filepath.Join(arg, project.ConfigFile)); err == nil && !info.IsDir() {
		return project.LoadTree(arg)
	}
	return project.LoadTree(filepath.Join(e.cfg.ProjectsDir, arg))
}

func newLogger(lc config.LoggingConfig, verbose bool, w io.Writer) *slog.Logger {
	level := lc.Level.SlogLevel()
	if verbose {
		level = slog.LevelDebug
	}
	opts := &slog.HandlerOptions{Level: level}
	if lc.Format == config.LogFormatJSON {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}

// closeEnv folds the error from closing e into *err.
func closeEnv(e *env, err *error) {
	if cerr := e.close(); cerr != nil && *err == nil {
		*err = cerr
	}
}
