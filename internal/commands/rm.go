package commands

import (
	"context"
	"flag"
	"fmt"
	"io"

	"tasktracker/internal/board"
	"tasktracker/internal/config"
	"tasktracker/internal/exitcode"
	"tasktracker/internal/output"
	"tasktracker/internal/service"
)

func init() {
	Register(&RmCmd{})
	Register(&ShowCmd{})
	Register(&MoveCmd{name: "next", forward: true})
	Register(&MoveCmd{name: "prev", forward: false})
}

// RmCmd implements the rm command.
type RmCmd struct{}

func (c *RmCmd) Name() string      { return "rm" }
func (c *RmCmd) Aliases() []string { return []string{"delete"} }
func (c *RmCmd) Synopsis() string  { return "Delete a task" }
func (c *RmCmd) Usage() string     { return "tasktracker rm <id>" }
func (c *RmCmd) NeedsAuth() bool   { return true }

func (c *RmCmd) RegisterFlags(fs *flag.FlagSet) {}

func (c *RmCmd) Run(ctx context.Context, cfg *config.Config, svc service.Service, args []string, out, errOut io.Writer) int {
	id, err := ParseTaskID(args)
	if err != nil {
		fmt.Fprintf(errOut, "error: %v\n", err)
		return exitcode.UserError
	}

	if err := svc.DeleteTask(ctx, id); err != nil {
		return report(errOut, err)
	}

	if !cfg.Quiet {
		fmt.Fprintln(out, "ok")
	}
	return exitcode.Success
}

// ShowCmd implements the show command.
type ShowCmd struct{}

func (c *ShowCmd) Name() string      { return "show" }
func (c *ShowCmd) Aliases() []string { return []string{"get"} }
func (c *ShowCmd) Synopsis() string  { return "Show one task in full" }
func (c *ShowCmd) Usage() string     { return "tasktracker show <id>" }
func (c *ShowCmd) NeedsAuth() bool   { return true }

func (c *ShowCmd) RegisterFlags(fs *flag.FlagSet) {}

func (c *ShowCmd) Run(ctx context.Context, cfg *config.Config, svc service.Service, args []string, out, errOut io.Writer) int {
	id, err := ParseTaskID(args)
	if err != nil {
		fmt.Fprintf(errOut, "error: %v\n", err)
		return exitcode.UserError
	}

	task, err := svc.GetTask(ctx, id)
	if err != nil {
		return report(errOut, err)
	}
	output.FormatTaskDetail(out, task)
	return exitcode.Success
}

// MoveCmd implements next and prev, which move a task one status step.
type MoveCmd struct {
	name    string
	forward bool
}

func (c *MoveCmd) Name() string      { return c.name }
func (c *MoveCmd) Aliases() []string { return nil }
func (c *MoveCmd) Synopsis() string {
	if c.forward {
		return "Move a task one status forward"
	}
	return "Move a task one status back"
}
func (c *MoveCmd) Usage() string   { return "tasktracker " + c.name + " <id>" }
func (c *MoveCmd) NeedsAuth() bool { return true }

func (c *MoveCmd) RegisterFlags(fs *flag.FlagSet) {}

func (c *MoveCmd) Run(ctx context.Context, cfg *config.Config, svc service.Service, args []string, out, errOut io.Writer) int {
	id, err := ParseTaskID(args)
	if err != nil {
		fmt.Fprintf(errOut, "error: %v\n", err)
		return exitcode.UserError
	}

	b := board.New(svc, nil)
	if err := b.Load(ctx); err != nil {
		return report(errOut, err)
	}
	move := b.Retreat
	if c.forward {
		move = b.Advance
	}
	task, err := move(ctx, id)
	if err != nil {
		return report(errOut, err)
	}

	if !cfg.Quiet {
		fmt.Fprintf(out, "ok #%d %s\n", task.ID, task.Status.Label())
	}
	return exitcode.Success
}
