package commands

import (
	"context"
	"errors"
	"fmt"
	"io"

	"tasktracker/internal/board"
	"tasktracker/internal/exitcode"
	"tasktracker/internal/service"
	"tasktracker/internal/session"
)

// loginHint is appended to errors that require a new login.
const loginHint = "(run: tasktracker login)"

// report prints err to errOut and returns the matching exit code.
func report(errOut io.Writer, err error) int {
	var verr *service.ValidationError
	switch {
	case errors.As(err, &verr):
		fmt.Fprintf(errOut, "error: %s\n", verr)
		return exitcode.UserError
	case errors.Is(err, session.ErrSessionExpired):
		fmt.Fprintf(errOut, "error: session expired %s\n", loginHint)
		return exitcode.AuthError
	case errors.Is(err, service.ErrNotAuthenticated):
		fmt.Fprintf(errOut, "error: not logged in %s\n", loginHint)
		return exitcode.AuthError
	case errors.Is(err, service.ErrNotFound):
		fmt.Fprintln(errOut, "error: task not found")
		return exitcode.UserError
	case errors.Is(err, board.ErrNoTransition):
		fmt.Fprintf(errOut, "error: %v\n", err)
		return exitcode.UserError
	case errors.Is(err, service.ErrRejected):
		fmt.Fprintf(errOut, "error: %v\n", err)
		return exitcode.UserError
	case errors.Is(err, context.Canceled):
		fmt.Fprintln(errOut, "error: cancelled")
		return exitcode.UserError
	}
	fmt.Fprintf(errOut, "error: backend error: %v\n", err)
	return exitcode.BackendError
}
