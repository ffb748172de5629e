// Package commands provides the command interface and implementations.
package commands

import (
	"context"
	"flag"
	"io"
	"os"

	"tasktracker/internal/config"
	"tasktracker/internal/service"
)

// Stdin is where commands read prompted input such as passwords.
var Stdin io.Reader = os.Stdin

// Command defines the interface for CLI commands.
type Command interface {
	// Name returns the primary command name.
	Name() string

	// Aliases returns alternative names for the command.
	Aliases() []string

	// Synopsis returns a short description for help output.
	Synopsis() string

	// Usage returns the usage string for help output.
	Usage() string

	// NeedsAuth returns true if the command requires a signed-in user.
	// The dispatcher restores the session and refuses to run the command
	// when nobody is signed in.
	// Commands like help, version, login, logout return false.
	NeedsAuth() bool

	// RegisterFlags registers command-specific flags.
	RegisterFlags(fs *flag.FlagSet)

	// Run executes the command.
	// cfg is always provided (config dir, paths, API URL).
	// svc is nil only for Offline commands.
	// args contains positional arguments after flag parsing.
	// Returns exit code.
	Run(ctx context.Context, cfg *config.Config, svc service.Service, args []string, out, errOut io.Writer) int
}

// Offline is implemented by commands that run without loading config or
// creating a backend, so they work even with a broken config.
type Offline interface {
	Offline() bool
}

// LogFiler is implemented by commands that own the terminal while they run.
// Their logs, including those of the backend, go to LogFile in the config
// directory instead of stderr.
type LogFiler interface {
	LogFile() string
}
