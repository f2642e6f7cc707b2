package commands

import (
	"fmt"
	"sort"
	"text/tabwriter"

	"git.home.luguber.info/inful/productbuilder/internal/project"
	"git.home.luguber.info/inful/productbuilder/internal/runtime"
)

// RuntimeCmd implements the 'runtime' command. It shows what the development
// runtime would inject into a host for the given projects.
type RuntimeCmd struct {
	Projects []string `arg:"" optional:"" name:"project" help:"Project directories or ids (default: every active project under projects_dir)"`
	Hook     string   `help:"Print the code injected at this hook"`
}

func (c *RuntimeCmd) Run(g *Global, root *CLI) (err error) {
	e, err := openEnv(root)
	if err != nil {
		return err
	}
	defer closeEnv(e, &err)

	sink := runtime.NewMemorySink()
	loader := runtime.NewLoader(sink, runtime.WithLogger(e.logger))
	if len(c.Projects) == 0 {
		all, err := project.LoadAll(e.cfg.ProjectsDir)
		if err != nil {
			return err
		}
		loader.LoadAll(all)
	}
	for _, arg := range c.Projects {
		p, err := e.loadProject(arg)
		if err != nil {
			return err
		}
		loader.Load(p, runtime.All)
	}

	if c.Hook != "" {
		code := sink.Hooks[c.Hook]
		if c.Hook == runtime.InitStartupHook {
			code = loader.InitCode()
		}
		_, _ = fmt.Fprint(g.Out, code)
		return nil
	}

	_, _ = fmt.Fprintf(g.Out, "Loaded: %v\n", loader.Loaded())
	_, _ = fmt.Fprintf(g.Out, "Templates: %d  Phrases: %d  Options: %d\n",
		len(sink.Templates), len(sink.Phrases), len(sink.Options))

	hooks := make([]string, 0, len(sink.Hooks))
	for h := range sink.Hooks {
		hooks = append(hooks, h)
	}
	sort.Strings(hooks)
	tw := tabwriter.NewWriter(g.Out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(tw, "HOOK\tBYTES")
	if code := loader.InitCode(); code != "" {
		_, _ = fmt.Fprintf(tw, "%s\t%d\n", runtime.InitStartupHook, len(code))
	}
	for _, h := range hooks {
		_, _ = fmt.Fprintf(tw, "%s\t%d\n", h, len(sink.Hooks[h]))
	}
	return tw.Flush()
}
