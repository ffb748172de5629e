package commands

import (
	"context"
	"flag"
	"fmt"
	"io"
	"time"

	"tasktracker/internal/config"
	"tasktracker/internal/exitcode"
	"tasktracker/internal/service"
)

func init() {
	Register(&LogoutCmd{})
	Register(&WhoamiCmd{})
}

// LogoutCmd implements the logout command.
type LogoutCmd struct{}

func (c *LogoutCmd) Name() string      { return "logout" }
func (c *LogoutCmd) Aliases() []string { return nil }
func (c *LogoutCmd) Synopsis() string  { return "Sign out and forget the stored session" }
func (c *LogoutCmd) Usage() string     { return "tasktracker logout [common flags]" }
func (c *LogoutCmd) NeedsAuth() bool   { return false }

func (c *LogoutCmd) RegisterFlags(fs *flag.FlagSet) {}

func (c *LogoutCmd) Run(ctx context.Context, cfg *config.Config, svc service.Service, args []string, out, errOut io.Writer) int {
	// The local session is cleared even if the server could not be told.
	if err := svc.Logout(ctx); err != nil {
		fmt.Fprintf(errOut, "warning: could not reach server: %v\n", err)
	}

	if !cfg.Quiet {
		fmt.Fprintln(out, "ok")
	}
	return exitcode.Success
}

// WhoamiCmd implements the whoami command.
type WhoamiCmd struct{}

func (c *WhoamiCmd) Name() string      { return "whoami" }
func (c *WhoamiCmd) Aliases() []string { return nil }
func (c *WhoamiCmd) Synopsis() string  { return "Show the signed-in user" }
func (c *WhoamiCmd) Usage() string     { return "tasktracker whoami [common flags]" }
func (c *WhoamiCmd) NeedsAuth() bool   { return true }

func (c *WhoamiCmd) RegisterFlags(fs *flag.FlagSet) {}

func (c *WhoamiCmd) Run(ctx context.Context, cfg *config.Config, svc service.Service, args []string, out, errOut io.Writer) int {
	info, err := svc.Session(ctx)
	if err != nil {
		return report(errOut, err)
	}
	if !info.Authenticated || info.User == nil {
		return report(errOut, service.ErrNotAuthenticated)
	}

	fmt.Fprintf(out, "%s (id %d)\n", info.User.Email, info.User.ID)
	if info.ExpiresAt != nil && !cfg.Quiet {
		left := time.Until(*info.ExpiresAt).Round(time.Second)
		fmt.Fprintf(out, "access token expires in %s\n", max(left, 0))
	}
	return exitcode.Success
}
