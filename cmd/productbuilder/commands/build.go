package commands

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"git.home.luguber.info/inful/productbuilder/internal/builder"
	foundationerrors "git.home.luguber.info/inful/productbuilder/internal/foundation/errors"
	"git.home.luguber.info/inful/productbuilder/internal/hostdb"
	"git.home.luguber.info/inful/productbuilder/internal/logfields"
	"git.home.luguber.info/inful/productbuilder/internal/project"
	"git.home.luguber.info/inful/productbuilder/internal/vcs"
	"git.home.luguber.info/inful/productbuilder/internal/workspace"
)

// BuildCmd implements the 'build' command.
type BuildCmd struct {
	Projects []string `arg:"" optional:"" name:"project" help:"Project directories or ids under projects_dir"`
	All      bool     `help:"Build every active project under projects_dir"`
	FromDB   string   `name:"from-db" placeholder:"ID" help:"Port the product from the database into a temporary tree, then build it"`
	Out      string   `placeholder:"DIR" help:"Build directory for --from-db (default: build/<id>)"`
}

func (b *BuildCmd) Run(g *Global, root *CLI) (err error) {
	e, err := openEnv(root)
	if err != nil {
		return err
	}
	defer closeEnv(e, &err)

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	projects, cleanup, err := b.resolve(ctx, e)
	defer func() {
		if cerr := cleanup(); cerr != nil {
			e.logger.Warn("Failed to remove ported tree", logfields.Error(cerr))
		}
	}()
	if err != nil {
		return err
	}

	bld := e.builder()
	var errs []error
	for _, p := range projects {
		if _, err := e.build(ctx, bld, g.Out, p); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// resolve collects the projects to build. The returned cleanup removes any
// temporary tree and is never nil.
func (b *BuildCmd) resolve(ctx context.Context, e *env) ([]*project.Project, func() error, error) {
	cleanup := func() error { return nil }
	var projects []*project.Project
	if b.FromDB != "" {
		tmp := workspace.NewManager("", "productbuilder-"+b.FromDB)
		p, err := b.portTemporary(ctx, e, tmp)
		cleanup = tmp.Cleanup
		if err != nil {
			return nil, cleanup, err
		}
		projects = append(projects, p)
	}
	if b.All {
		all, err := project.LoadAll(e.cfg.ProjectsDir)
		if err != nil {
			return nil, cleanup, err
		}
		for _, p := range all {
			if p.Active {
				projects = append(projects, p)
			}
		}
	}
	for _, arg := range b.Projects {
		p, err := e.loadProject(arg)
		if err != nil {
			return nil, cleanup, err
		}
		projects = append(projects, p)
	}
	if len(projects) == 0 {
		return nil, cleanup, foundationerrors.ValidationError("no projects to build (name projects, --all or --from-db)").Build()
	}
	return projects, cleanup, nil
}

// portTemporary ports the --from-db product into a subdirectory of tmp and
// points its build path at --out.
func (b *BuildCmd) portTemporary(ctx context.Context, e *env, tmp *workspace.Manager) (*project.Project, error) {
	db, err := e.requireDB("build --from-db")
	if err != nil {
		return nil, err
	}
	if err := tmp.Create(); err != nil {
		return nil, err
	}
	dir, err := tmp.CreateSubdir(b.FromDB)
	if err != nil {
		return nil, err
	}
	if _, err := newPorter(db, e).Port(ctx, b.FromDB, dir); err != nil {
		return nil, err
	}
	p, err := project.LoadTree(dir)
	if err != nil {
		return nil, err
	}

	out := b.Out
	if out == "" {
		out = filepath.Join("build", b.FromDB)
	}
	if p.BuildPath, err = filepath.Abs(out); err != nil {
		return nil, foundationerrors.StagingError("invalid build path").WithContext("path", out).WithCause(err).Build()
	}
	return p, nil
}

// build runs one build, prints its log and records it in the history.
func (e *env) build(ctx context.Context, bld *builder.Builder, out io.Writer, p *project.Project) (*builder.Result, error) {
	res, err := bld.Build(ctx, p)
	for _, line := range res.Log.Lines() {
		_, _ = fmt.Fprintln(out, line)
	}

	revision, verr := vcs.Head(p.Dir)
	if verr != nil {
		e.logger.Warn("Failed to read project revision", logfields.Product(p.ID), logfields.Error(verr))
	}
	if e.db != nil {
		rec := hostdb.BuildRecord{
			BuildID:      res.BuildID,
			ProductID:    res.ProductID,
			Status:       string(res.Status),
			StartedAt:    res.StartTime,
			Duration:     res.Duration,
			Revision:     revision,
			DocumentPath: res.DocumentPath,
			FilesStaged:  len(res.StagedFiles),
		}
		if err != nil {
			rec.Error = err.Error()
		}
		if herr := e.db.RecordBuild(ctx, rec); herr != nil {
			e.logger.Warn("Failed to record build", logfields.BuildID(res.BuildID), logfields.Error(herr))
		}
	}
	return res, err
}
