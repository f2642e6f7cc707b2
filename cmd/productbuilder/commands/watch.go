package commands

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	"git.home.luguber.info/inful/productbuilder/internal/builder"
	"git.home.luguber.info/inful/productbuilder/internal/logfields"
	"git.home.luguber.info/inful/productbuilder/internal/project"
	"git.home.luguber.info/inful/productbuilder/internal/watch"
)

// WatchCmd implements the 'watch' command.
type WatchCmd struct {
	Projects []string      `arg:"" name:"project" help:"Project directories or ids under projects_dir"`
	Debounce time.Duration `help:"Quiet period before a rebuild (overrides watch.debounce)"`
	Interval time.Duration `help:"Also rebuild on this interval (overrides watch.interval)"`
}

func (c *WatchCmd) Run(g *Global, root *CLI) (err error) {
	e, err := openEnv(root)
	if err != nil {
		return err
	}
	defer closeEnv(e, &err)

	dirs, ignore, err := e.watchTargets(c.Projects)
	if err != nil {
		return err
	}

	opts := watch.Options{
		Debounce: e.cfg.Watch.Debounce,
		Interval: e.cfg.Watch.Interval,
		Logger:   e.logger,
		Ignore:   ignore,
	}
	if c.Debounce > 0 {
		opts.Debounce = c.Debounce
	}
	if c.Interval > 0 {
		opts.Interval = c.Interval
	}

	bld := e.builder()
	rebuild := func(ctx context.Context, reason string) {
		for _, dir := range dirs {
			p, err := project.LoadTree(dir)
			if err != nil {
				e.logger.Error("Failed to load project", logfields.Path(dir), logfields.Error(err))
				continue
			}
			e.logger.Info("Rebuilding project", logfields.Product(p.ID), "reason", reason)
			_, _ = e.build(ctx, bld, g.Out, p)
		}
	}

	w, err := watch.New(dirs, rebuild, opts)
	if err != nil {
		return err
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	w.Trigger()
	if err := w.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

// watchTargets returns the project directories to watch and the build
// output paths inside them that must not trigger rebuilds.
func (e *env) watchTargets(args []string) (dirs, ignore []string, err error) {
	if e.cfg.IncludesDir != "" {
		ignore = append(ignore, e.cfg.IncludesDir)
	}
	for _, arg := range args {
		p, err := e.loadProject(arg)
		if err != nil {
			return nil, nil, err
		}
		out, err := builder.BuildPath(p)
		if err != nil {
			return nil, nil, err
		}
		dirs = append(dirs, p.Dir)
		ignore = append(ignore, out)
	}
	return dirs, ignore, nil
}
