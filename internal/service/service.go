// Package service defines the backend-agnostic types and interface for task operations.
package service

import "context"

// Service defines the interface for task backend operations.
// All Task Tracker API calls go through this interface.
// Commands never import the HTTP transport directly.
type Service interface {
	// Restore attempts to re-establish a session from the stored refresh
	// credential without user interaction. A rejected credential leaves the
	// session anonymous. It releases the loading gate when done.
	Restore(ctx context.Context)

	// Session blocks while a Restore is in progress and returns the current
	// session. It returns an error when Restore could not reach a decision,
	// for example because the server was unreachable.
	Session(ctx context.Context) (SessionInfo, error)

	// Login authenticates with email and password.
	Login(ctx context.Context, creds Credentials) (User, error)

	// Register creates a new account. It does not sign in.
	Register(ctx context.Context, creds Credentials) (User, error)

	// Logout revokes the refresh credential (best effort) and clears the
	// local session.
	Logout(ctx context.Context) error

	// ListTasks returns one server-side page (0-based) of the user's tasks.
	ListTasks(ctx context.Context, page, size int) (TaskPage, error)

	// ListAllTasks returns every task of the signed-in user in API order.
	ListAllTasks(ctx context.Context) ([]Task, error)

	// GetTask returns a single task.
	GetTask(ctx context.Context, id int64) (Task, error)

	// CreateTask creates a task for the signed-in user.
	CreateTask(ctx context.Context, in TaskInput) (Task, error)

	// UpdateTask replaces the editable fields of a task.
	UpdateTask(ctx context.Context, id int64, in TaskInput) (Task, error)

	// DeleteTask deletes a task.
	DeleteTask(ctx context.Context, id int64) error
}

// SessionWatcher is implemented by services that can report the end of a
// session while a long-running view is open.
type SessionWatcher interface {
	// OnSessionEnd registers fn to run when the session expires (expired is
	// true) or the user logs out. It returns a function that removes fn.
	OnSessionEnd(fn func(expired bool)) (unsubscribe func())
}
