package commands

import (
	"fmt"

	"git.home.luguber.info/inful/productbuilder/internal/config"
)

// InitCmd implements the 'init' command.
type InitCmd struct {
	Force bool `help:"Overwrite an existing configuration file"`
}

func (c *InitCmd) Run(g *Global, root *CLI) error {
	if err := config.Init(root.Config, c.Force); err != nil {
		return err
	}
	_, _ = fmt.Fprintf(g.Out, "Configuration written to %s\n", root.Config)
	_, _ = fmt.Fprintln(g.Out, "Edit root and projects_dir, then run 'productbuilder build --all'.")
	return nil
}
