package main

import (
	"log/slog"
	"os"

	"github.com/alecthomas/kong"

	"git.home.luguber.info/inful/productbuilder/cmd/productbuilder/commands"
	foundationerrors "git.home.luguber.info/inful/productbuilder/internal/foundation/errors"
	"git.home.luguber.info/inful/productbuilder/internal/version"
)

func main() {
	cli := &commands.CLI{}
	parser := kong.Parse(cli,
		kong.Name("productbuilder"),
		kong.Description("Build installable forum product packages from project trees."),
		kong.UsageOnError(),
		kong.Vars{"version": version.String()},
	)

	err := parser.Run(&commands.Global{Out: os.Stdout}, cli)
	foundationerrors.NewCLIErrorAdapter(cli.Verbose, slog.Default()).HandleError(err)
}
