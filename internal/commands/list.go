package commands

import (
	"context"
	"flag"
	"fmt"
	"io"

	"tasktracker/internal/config"
	"tasktracker/internal/exitcode"
	"tasktracker/internal/output"
	"tasktracker/internal/service"
	"tasktracker/internal/view"
)

func init() {
	Register(&ListCmd{})
}

// ListCmd implements the list command.
// Handles both `tasktracker` (no args) and `tasktracker list [flags]`.
type ListCmd struct {
	search string
	status string
	sort   string
	page   int
}

func (c *ListCmd) Name() string      { return "list" }
func (c *ListCmd) Aliases() []string { return []string{"ls"} }
func (c *ListCmd) Synopsis() string  { return "List tasks" }
func (c *ListCmd) Usage() string {
	return "tasktracker list [--search <text>] [--status <status>] [--sort <order>] [--page <n>]"
}
func (c *ListCmd) NeedsAuth() bool { return true }

func (c *ListCmd) RegisterFlags(fs *flag.FlagSet) {
	fs.StringVar(&c.search, "search", "", "")
	fs.StringVar(&c.search, "s", "", "")
	fs.StringVar(&c.status, "status", "", "")
	fs.StringVar(&c.sort, "sort", "", "")
	fs.IntVar(&c.page, "page", 1, "")
}

func (c *ListCmd) Run(ctx context.Context, cfg *config.Config, svc service.Service, args []string, out, errOut io.Writer) int {
	if len(args) > 0 {
		fmt.Fprintf(errOut, "error: unexpected argument: %s\n", args[0])
		return exitcode.UserError
	}

	// Validate page number
	if c.page < 1 {
		fmt.Fprintf(errOut, "error: invalid page number: %d\n", c.page)
		return exitcode.UserError
	}

	filter, err := view.ParseFilter(c.status)
	if err != nil {
		fmt.Fprintf(errOut, "error: %v\n", err)
		return exitcode.UserError
	}
	order, err := view.ParseSort(c.sort)
	if err != nil {
		fmt.Fprintf(errOut, "error: %v\n", err)
		return exitcode.UserError
	}

	q := view.NewQuery()
	q.SetSearch(c.search)
	q.SetFilter(filter)
	q.SetSort(order)
	q.SetPage(c.page - 1)

	tasks, err := svc.ListAllTasks(ctx)
	if err != nil {
		return report(errOut, err)
	}

	res := view.Derive(tasks, q, cfg.PageSize)
	if res.TotalElements == 0 {
		if !cfg.Quiet {
			output.FormatCounts(out, res.Counts, filter)
			fmt.Fprintln(out, "no tasks found")
		}
		return exitcode.Success
	}
	if len(res.Visible) == 0 {
		fmt.Fprintf(errOut, "error: page out of range: %d (of %d)\n", c.page, res.TotalPages)
		return exitcode.UserError
	}

	if !cfg.Quiet {
		output.FormatCounts(out, res.Counts, filter)
	}
	for _, task := range res.Visible {
		output.FormatTask(out, task)
	}
	if !cfg.Quiet {
		output.FormatFooter(out, res)
	}
	return exitcode.Success
}
