package commands

import (
	"context"
	"fmt"
	"text/tabwriter"
	"time"
)

// HistoryCmd implements the 'history' command.
type HistoryCmd struct {
	Product string `help:"Only show builds of this product"`
	Limit   int    `help:"Maximum number of builds to show (0 for all)" default:"20"`
}

func (c *HistoryCmd) Run(g *Global, root *CLI) (err error) {
	e, err := openEnv(root)
	if err != nil {
		return err
	}
	defer closeEnv(e, &err)

	db, err := e.requireDB("history")
	if err != nil {
		return err
	}
	records, err := db.History(context.Background(), c.Product, c.Limit)
	if err != nil {
		return err
	}
	if len(records) == 0 {
		_, _ = fmt.Fprintln(g.Out, "No builds recorded")
		return nil
	}

	tw := tabwriter.NewWriter(g.Out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(tw, "BUILD ID\tPRODUCT\tSTATUS\tSTARTED\tDURATION\tFILES\tREVISION")
	for _, r := range records {
		revision := r.Revision
		if len(revision) > 12 {
			revision = revision[:12]
		}
		_, _ = fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%d\t%s\n",
			r.BuildID, r.ProductID, r.Status,
			r.StartedAt.Local().Format(time.DateTime),
			r.Duration.Round(time.Millisecond),
			r.FilesStaged, revision)
	}
	return tw.Flush()
}
