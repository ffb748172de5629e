// Package exitcode defines exit codes for the CLI.
package exitcode

const (
	// Success indicates successful completion.
	Success = 0

	// UserError indicates a user error (bad args, validation, task not found).
	UserError = 1

	// AuthError indicates the user must log in again, or the config is unusable.
	AuthError = 2

	// BackendError indicates an API or network failure.
	BackendError = 3
)
