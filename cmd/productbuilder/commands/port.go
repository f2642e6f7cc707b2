package commands

import (
	"context"
	"fmt"
	"path/filepath"
)

// PortCmd implements the 'port' command.
type PortCmd struct {
	ID  string `arg:"" name:"id" help:"Product id in the database"`
	Out string `arg:"" optional:"" name:"out" help:"Output directory (default: projects_dir/<id>)"`
}

func (c *PortCmd) Run(g *Global, root *CLI) (err error) {
	e, err := openEnv(root)
	if err != nil {
		return err
	}
	defer closeEnv(e, &err)

	db, err := e.requireDB("port")
	if err != nil {
		return err
	}
	out := c.Out
	if out == "" {
		out = filepath.Join(e.cfg.ProjectsDir, c.ID)
	}
	p, err := newPorter(db, e).Port(context.Background(), c.ID, out)
	if err != nil {
		return err
	}
	_, _ = fmt.Fprintf(g.Out, "Ported product %s (%s) to %s\n", p.ID, p.Meta.Title, out)
	return nil
}
