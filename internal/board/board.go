// Package board owns the signed-in user's task collection between fetches.
//
// Mutations are applied locally first and then sent to the backend. When the
// backend rejects one, the board does not try to undo the local edit; it
// reloads the whole collection instead. Concurrent mutations are not ordered:
// whichever response lands last wins.
package board

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"sync"

	"tasktracker/internal/service"
)

// ErrNoTransition is returned when a task is already at the end of the
// workflow in the requested direction.
var ErrNoTransition = errors.New("no adjacent status")

// Board holds the task collection. The revision increases on every change
// so derived views can tell when to recompute.
type Board struct {
	svc    service.Service
	logger *slog.Logger

	mu       sync.Mutex
	tasks    []service.Task
	revision uint64
	loaded   bool
	tempID   int64
}

// New returns an empty board backed by svc.
func New(svc service.Service, logger *slog.Logger) *Board {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Board{svc: svc, logger: logger.With("component", "board")}
}

// Snapshot returns a copy of the tasks and the revision they belong to.
func (b *Board) Snapshot() ([]service.Task, uint64) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return slices.Clone(b.tasks), b.revision
}

// Loaded reports whether a fetch has completed at least once.
func (b *Board) Loaded() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.loaded
}

// Find returns the task with the given ID.
func (b *Board) Find(id int64) (service.Task, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	i := b.index(id)
	if i < 0 {
		return service.Task{}, false
	}
	return b.tasks[i], true
}

// Reset empties the board, e.g. after the session ends.
func (b *Board) Reset() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.tasks = nil
	b.loaded = false
	b.revision++
}

// Load replaces the collection with the backend's.
func (b *Board) Load(ctx context.Context) error {
	tasks, err := b.svc.ListAllTasks(ctx)
	if err != nil {
		return err
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	b.tasks = tasks
	b.loaded = true
	b.revision++
	b.logger.Debug("loaded tasks", "count", len(tasks), "revision", b.revision)
	return nil
}

// Create adds a placeholder at the front, creates the task and swaps the
// placeholder for the stored task.
func (b *Board) Create(ctx context.Context, in service.TaskInput) (service.Task, error) {
	if err := in.Validate(); err != nil {
		return service.Task{}, err
	}
	in = in.Normalize()

	b.mu.Lock()
	b.tempID--
	placeholder := service.Task{
		ID:          b.tempID,
		Title:       in.Title,
		Description: in.Description,
		Status:      in.Status,
		DueDate:     in.DueDate,
	}
	b.tasks = slices.Insert(b.tasks, 0, placeholder)
	b.revision++
	b.mu.Unlock()

	created, err := b.svc.CreateTask(ctx, in)
	if err != nil {
		return service.Task{}, b.reconcile(ctx, "create", err)
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	switch i := b.index(placeholder.ID); {
	case b.index(created.ID) >= 0:
		// A reload raced ahead and already holds the stored task.
		if i >= 0 {
			b.tasks = slices.Delete(b.tasks, i, i+1)
		}
	case i >= 0:
		b.tasks[i] = created
	default:
		b.tasks = slices.Insert(b.tasks, 0, created)
	}
	b.revision++
	return created, nil
}

// Update applies in to the held task and sends it.
func (b *Board) Update(ctx context.Context, id int64, in service.TaskInput) (service.Task, error) {
	if err := in.Validate(); err != nil {
		return service.Task{}, err
	}
	in = in.Normalize()

	b.mu.Lock()
	if i := b.index(id); i >= 0 {
		b.tasks[i] = service.Task{
			ID:          id,
			Title:       in.Title,
			Description: in.Description,
			Status:      in.Status,
			DueDate:     in.DueDate,
		}
		b.revision++
	}
	b.mu.Unlock()

	updated, err := b.svc.UpdateTask(ctx, id, in)
	if err != nil {
		return service.Task{}, b.reconcile(ctx, "update", err)
	}
	b.replace(updated)
	return updated, nil
}

// Delete drops the task locally and on the backend.
func (b *Board) Delete(ctx context.Context, id int64) error {
	b.mu.Lock()
	if i := b.index(id); i >= 0 {
		b.tasks = slices.Delete(b.tasks, i, i+1)
		b.revision++
	}
	b.mu.Unlock()

	if err := b.svc.DeleteTask(ctx, id); err != nil {
		return b.reconcile(ctx, "delete", err)
	}
	return nil
}

// Advance moves a task one step forward: TODO to IN_PROGRESS to DONE.
func (b *Board) Advance(ctx context.Context, id int64) (service.Task, error) {
	return b.step(ctx, id, service.Status.Next)
}

// Retreat moves a task one step back.
func (b *Board) Retreat(ctx context.Context, id int64) (service.Task, error) {
	return b.step(ctx, id, service.Status.Prev)
}

func (b *Board) step(ctx context.Context, id int64, move func(service.Status) (service.Status, bool)) (service.Task, error) {
	t, ok := b.Find(id)
	if !ok {
		return service.Task{}, fmt.Errorf("task %d: %w", id, service.ErrNotFound)
	}
	next, ok := move(t.Status)
	if !ok {
		return service.Task{}, fmt.Errorf("task %d is %s: %w", id, t.Status, ErrNoTransition)
	}
	in := t.Input()
	in.Status = next
	return b.Update(ctx, id, in)
}

// reconcile reloads the collection after a failed mutation and returns the
// original error. A failed reload is only logged.
func (b *Board) reconcile(ctx context.Context, op string, cause error) error {
	b.logger.Info("mutation failed, reloading", "op", op, "error", cause)
	if err := b.Load(ctx); err != nil {
		b.logger.Warn("reload failed", "op", op, "error", err)
	}
	return cause
}

func (b *Board) replace(t service.Task) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if i := b.index(t.ID); i >= 0 {
		b.tasks[i] = t
		b.revision++
	}
}

func (b *Board) index(id int64) int {
	return slices.IndexFunc(b.tasks, func(t service.Task) bool { return t.ID == id })
}
