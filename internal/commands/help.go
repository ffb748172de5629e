package commands

import (
	"context"
	"flag"
	"fmt"
	"io"

	"tasktracker/internal/config"
	"tasktracker/internal/exitcode"
	"tasktracker/internal/service"
)

func init() {
	Register(&HelpCmd{})
}

// HelpCmd implements the help command.
type HelpCmd struct{}

func (c *HelpCmd) Name() string      { return "help" }
func (c *HelpCmd) Aliases() []string { return nil }
func (c *HelpCmd) Synopsis() string  { return "Print usage" }
func (c *HelpCmd) Usage() string     { return "tasktracker help" }
func (c *HelpCmd) NeedsAuth() bool   { return false }
func (c *HelpCmd) Offline() bool     { return true }

func (c *HelpCmd) RegisterFlags(fs *flag.FlagSet) {}

func (c *HelpCmd) Run(ctx context.Context, cfg *config.Config, svc service.Service, args []string, out, errOut io.Writer) int {
	fmt.Fprint(out, helpText)
	return exitcode.Success
}

const helpText = `Usage:
  tasktracker                                   List tasks (same as list)
  tasktracker dashboard [common flags]          Open the task dashboard
  tasktracker list [common flags] [--search <text>] [--status <status>]
                   [--sort <order>] [--page <n>]
  tasktracker show [common flags] <id>
  tasktracker add [common flags] [--description <text>] [--due <date>]
                  [--status <status>] <title...>
  tasktracker edit [common flags] [--title <text>] [--description <text>]
                   [--due <date>] [--status <status>] <id>
  tasktracker next [common flags] <id>          Move a task one status forward
  tasktracker prev [common flags] <id>          Move a task one status back
  tasktracker rm [common flags] <id>
  tasktracker register [common flags] [--email <email>]
  tasktracker login [common flags] [--email <email>]
  tasktracker logout [common flags]
  tasktracker whoami [common flags]
  tasktracker help
  tasktracker version

Statuses: todo, in_progress, done
Sort orders: dueDate_desc (default), dueDate_asc, title_asc, title_desc,
             status_asc, status_desc
Dates: 2006-01-02, 2006-01-02T15:04 or RFC 3339; an empty value clears it

Common flags:
  --config <dir>    Override config directory
  --api-url <url>   Override the API base URL
  --quiet           Suppress informational output
  --debug           Print debug logs to stderr
`
