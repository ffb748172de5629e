package commands

import (
	"context"
	"flag"
	"fmt"
	"io"

	"tasktracker/internal/config"
	"tasktracker/internal/exitcode"
	"tasktracker/internal/service"
	"tasktracker/internal/tui"
)

func init() {
	Register(&DashboardCmd{})
}

// DashboardLog is the file in the config directory that receives logs while
// the dashboard runs.
const DashboardLog = "dashboard.log"

// RunDashboard starts the interactive dashboard. Tests replace it.
var RunDashboard = func(ctx context.Context, cfg *config.Config, svc service.Service) error {
	return tui.Run(ctx, svc, cfg.PageSize, cfg.Logger(cfg.LogOutput))
}

// DashboardCmd implements the dashboard command.
type DashboardCmd struct{}

func (c *DashboardCmd) Name() string      { return "dashboard" }
func (c *DashboardCmd) Aliases() []string { return []string{"ui"} }
func (c *DashboardCmd) Synopsis() string  { return "Open the interactive task dashboard" }
func (c *DashboardCmd) Usage() string     { return "tasktracker dashboard [common flags]" }
func (c *DashboardCmd) NeedsAuth() bool   { return true }
func (c *DashboardCmd) LogFile() string   { return DashboardLog }

func (c *DashboardCmd) RegisterFlags(fs *flag.FlagSet) {}

func (c *DashboardCmd) Run(ctx context.Context, cfg *config.Config, svc service.Service, args []string, out, errOut io.Writer) int {
	if len(args) > 0 {
		fmt.Fprintf(errOut, "error: unexpected argument: %s\n", args[0])
		return exitcode.UserError
	}
	if err := RunDashboard(ctx, cfg, svc); err != nil {
		return report(errOut, err)
	}
	return exitcode.Success
}
