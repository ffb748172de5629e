package commands

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"strings"

	"tasktracker/internal/config"
	"tasktracker/internal/exitcode"
	"tasktracker/internal/service"
)

func init() {
	Register(&LoginCmd{})
	Register(&RegisterCmd{})
}

// LoginCmd implements the login command.
type LoginCmd struct {
	email    string
	password string
}

func (c *LoginCmd) Name() string      { return "login" }
func (c *LoginCmd) Aliases() []string { return nil }
func (c *LoginCmd) Synopsis() string  { return "Sign in with email and password" }
func (c *LoginCmd) Usage() string {
	return "tasktracker login [--email <email>] [--password <password>]"
}
func (c *LoginCmd) NeedsAuth() bool { return false }

func (c *LoginCmd) RegisterFlags(fs *flag.FlagSet) {
	fs.StringVar(&c.email, "email", "", "")
	fs.StringVar(&c.password, "password", "", "")
}

func (c *LoginCmd) Run(ctx context.Context, cfg *config.Config, svc service.Service, args []string, out, errOut io.Writer) int {
	if len(args) > 0 {
		fmt.Fprintf(errOut, "error: unexpected argument: %s\n", args[0])
		return exitcode.UserError
	}

	in := bufio.NewReader(Stdin)
	creds, err := readCredentials(in, errOut, c.email, c.password)
	if err != nil {
		fmt.Fprintf(errOut, "error: %v\n", err)
		return exitcode.UserError
	}

	user, err := svc.Login(ctx, creds)
	if err != nil {
		var verr *service.ValidationError
		if !errors.As(err, &verr) && errors.Is(err, service.ErrNotAuthenticated) {
			fmt.Fprintln(errOut, "error: invalid email or password")
			return exitcode.AuthError
		}
		return report(errOut, err)
	}

	if !cfg.Quiet {
		fmt.Fprintf(out, "logged in as %s\n", user.Email)
	}
	return exitcode.Success
}

// RegisterCmd implements the register command.
type RegisterCmd struct {
	email    string
	password string
	confirm  string
}

func (c *RegisterCmd) Name() string      { return "register" }
func (c *RegisterCmd) Aliases() []string { return []string{"signup"} }
func (c *RegisterCmd) Synopsis() string  { return "Create an account" }
func (c *RegisterCmd) Usage() string {
	return "tasktracker register [--email <email>] [--password <password> --confirm <password>]"
}
func (c *RegisterCmd) NeedsAuth() bool { return false }

func (c *RegisterCmd) RegisterFlags(fs *flag.FlagSet) {
	fs.StringVar(&c.email, "email", "", "")
	fs.StringVar(&c.password, "password", "", "")
	fs.StringVar(&c.confirm, "confirm", "", "")
}

func (c *RegisterCmd) Run(ctx context.Context, cfg *config.Config, svc service.Service, args []string, out, errOut io.Writer) int {
	if len(args) > 0 {
		fmt.Fprintf(errOut, "error: unexpected argument: %s\n", args[0])
		return exitcode.UserError
	}

	in := bufio.NewReader(Stdin)
	creds, err := readCredentials(in, errOut, c.email, c.password)
	if err != nil {
		fmt.Fprintf(errOut, "error: %v\n", err)
		return exitcode.UserError
	}
	confirm := c.confirm
	if confirm == "" {
		if confirm, err = prompt(in, errOut, "Confirm password: "); err != nil {
			fmt.Fprintf(errOut, "error: %v\n", err)
			return exitcode.UserError
		}
	}
	if confirm != creds.Password {
		fmt.Fprintln(errOut, "error: passwords do not match")
		return exitcode.UserError
	}

	user, err := svc.Register(ctx, creds)
	if err != nil {
		return report(errOut, err)
	}

	if !cfg.Quiet {
		fmt.Fprintf(out, "registered %s %s\n", user.Email, loginHint)
	}
	return exitcode.Success
}

// readCredentials fills in whatever the flags left empty by prompting on errOut.
func readCredentials(in *bufio.Reader, errOut io.Writer, email, password string) (service.Credentials, error) {
	var err error
	if email == "" {
		if email, err = prompt(in, errOut, "Email: "); err != nil {
			return service.Credentials{}, err
		}
	}
	if password == "" {
		if password, err = prompt(in, errOut, "Password: "); err != nil {
			return service.Credentials{}, err
		}
	}
	return service.Credentials{Email: strings.TrimSpace(email), Password: password}, nil
}

// prompt prints label and reads one line, without the line ending.
func prompt(in *bufio.Reader, errOut io.Writer, label string) (string, error) {
	fmt.Fprint(errOut, label)
	line, err := in.ReadString('\n')
	if err != nil && (!errors.Is(err, io.EOF) || line == "") {
		if errors.Is(err, io.EOF) {
			return "", fmt.Errorf("no input for %s", strings.TrimSuffix(strings.ToLower(label), ": "))
		}
		return "", err
	}
	return strings.TrimRight(line, "\r\n"), nil
}
