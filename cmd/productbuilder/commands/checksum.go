package commands

import (
	"context"
	"fmt"
)

// ChecksumCmd implements the 'checksum' command.
type ChecksumCmd struct {
	Project string `arg:"" name:"project" help:"Project directory or id under projects_dir"`
}

func (c *ChecksumCmd) Run(g *Global, root *CLI) (err error) {
	e, err := openEnv(root)
	if err != nil {
		return err
	}
	defer closeEnv(e, &err)

	p, err := e.loadProject(c.Project)
	if err != nil {
		return err
	}
	res, err := e.builder().Rechecksum(context.Background(), p)
	if err != nil {
		return err
	}
	_, _ = fmt.Fprintf(g.Out, "Created project checksum file %s\n", res.FlatPath)
	_, _ = fmt.Fprintf(g.Out, "Created project checksum file %s\n", res.ExtendedPath)
	return nil
}
