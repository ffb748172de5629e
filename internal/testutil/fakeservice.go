// Package testutil provides testing utilities.
package testutil

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"tasktracker/internal/service"
)

// ErrBadCredentials is returned by Login for an unknown email or wrong password.
var ErrBadCredentials = fmt.Errorf("invalid email or password: %w", service.ErrNotAuthenticated)

// ErrEmailTaken is returned by Register when the email is already used.
var ErrEmailTaken = fmt.Errorf("email already registered: %w", service.ErrRejected)

// FakeService is an in-memory implementation of service.Service for testing.
type FakeService struct {
	mu       sync.RWMutex
	accounts map[string]string // email -> password
	user     *service.User
	lastUser *service.User
	tasks    []service.Task
	nextID   int64

	listAllCalls int
	restored     bool
	watchers     map[int]func(expired bool)
	nextWatcher  int

	// Error injection for testing
	SessionErr    error
	LoginErr      error
	RegisterErr   error
	LogoutErr     error
	ListTasksErr  error
	ListAllErr    error
	GetTaskErr    error
	CreateTaskErr error
	UpdateTaskErr error
	DeleteTaskErr error

	// BeforeWrite, if set, runs at the start of every create, update and
	// delete, before the fake applies or rejects it.
	BeforeWrite func()
}

// NewFakeService creates an empty FakeService with no signed-in user.
func NewFakeService() *FakeService {
	return &FakeService{accounts: make(map[string]string)}
}

// AddAccount registers an account that Login accepts.
func (f *FakeService) AddAccount(email, password string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.accounts[email] = password
}

// SignIn makes the fake behave as if user had logged in.
func (f *FakeService) SignIn(id int64, email string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.user = &service.User{ID: id, Email: email}
	f.lastUser = f.user
}

// AddTask stores a task, assigning an ID if it has none, and returns it.
func (f *FakeService) AddTask(t service.Task) service.Task {
	f.mu.Lock()
	defer f.mu.Unlock()
	if t.ID == 0 {
		f.nextID++
		t.ID = f.nextID
	} else if t.ID > f.nextID {
		f.nextID = t.ID
	}
	if t.Status == "" {
		t.Status = service.StatusTodo
	}
	f.tasks = append(f.tasks, t)
	return t
}

// Tasks returns a copy of the stored tasks in ID order.
func (f *FakeService) Tasks() []service.Task {
	f.mu.RLock()
	defer f.mu.RUnlock()
	out := make([]service.Task, len(f.tasks))
	copy(out, f.tasks)
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// ListAllCalls reports how many times ListAllTasks was called.
func (f *FakeService) ListAllCalls() int {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.listAllCalls
}

// Restored reports whether Restore was called.
func (f *FakeService) Restored() bool {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.restored
}

func (f *FakeService) beforeWrite() {
	if f.BeforeWrite != nil {
		f.BeforeWrite()
	}
}

// Restore implements service.Service.
func (f *FakeService) Restore(ctx context.Context) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.restored = true
}

// Session implements service.Service.
func (f *FakeService) Session(ctx context.Context) (service.SessionInfo, error) {
	if f.SessionErr != nil {
		return service.SessionInfo{}, f.SessionErr
	}
	f.mu.RLock()
	defer f.mu.RUnlock()
	var info service.SessionInfo
	if f.lastUser != nil {
		u := *f.lastUser
		info.LastUser = &u
	}
	if f.user != nil {
		u := *f.user
		info.User = &u
		info.Authenticated = true
	}
	return info, nil
}

// Login implements service.Service.
func (f *FakeService) Login(ctx context.Context, creds service.Credentials) (service.User, error) {
	if err := creds.Validate(); err != nil {
		return service.User{}, err
	}
	if f.LoginErr != nil {
		return service.User{}, f.LoginErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	pw, ok := f.accounts[creds.Email]
	if !ok || pw != creds.Password {
		return service.User{}, ErrBadCredentials
	}
	f.user = &service.User{ID: 1, Email: creds.Email}
	f.lastUser = f.user
	return *f.user, nil
}

// Register implements service.Service.
func (f *FakeService) Register(ctx context.Context, creds service.Credentials) (service.User, error) {
	if err := creds.Validate(); err != nil {
		return service.User{}, err
	}
	if f.RegisterErr != nil {
		return service.User{}, f.RegisterErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.accounts[creds.Email]; ok {
		return service.User{}, ErrEmailTaken
	}
	f.accounts[creds.Email] = creds.Password
	return service.User{ID: int64(len(f.accounts)), Email: creds.Email}, nil
}

// Logout implements service.Service. The session is cleared even when
// LogoutErr is set.
func (f *FakeService) Logout(ctx context.Context) error {
	f.endSession(false)
	return f.LogoutErr
}

// Expire ends the session as a failed refresh would. The user is still
// reported as LastUser.
func (f *FakeService) Expire() {
	f.endSession(true)
}

func (f *FakeService) endSession(expired bool) {
	f.mu.Lock()
	f.user = nil
	if !expired {
		f.lastUser = nil
	}
	fns := make([]func(bool), 0, len(f.watchers))
	for _, fn := range f.watchers {
		fns = append(fns, fn)
	}
	f.mu.Unlock()
	for _, fn := range fns {
		fn(expired)
	}
}

// OnSessionEnd implements service.SessionWatcher.
func (f *FakeService) OnSessionEnd(fn func(expired bool)) func() {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.watchers == nil {
		f.watchers = make(map[int]func(bool))
	}
	id := f.nextWatcher
	f.nextWatcher++
	f.watchers[id] = fn
	return func() {
		f.mu.Lock()
		defer f.mu.Unlock()
		delete(f.watchers, id)
	}
}

func (f *FakeService) requireUser() error {
	if f.user == nil {
		return service.ErrNotAuthenticated
	}
	return nil
}

// ListTasks implements service.Service.
func (f *FakeService) ListTasks(ctx context.Context, page, size int) (service.TaskPage, error) {
	if f.ListTasksErr != nil {
		return service.TaskPage{}, f.ListTasksErr
	}
	all := f.Tasks()
	f.mu.RLock()
	err := f.requireUser()
	f.mu.RUnlock()
	if err != nil {
		return service.TaskPage{}, err
	}
	if size <= 0 {
		size = 10
	}
	start := min(page*size, len(all))
	end := min(start+size, len(all))
	return service.TaskPage{
		Content:       all[start:end],
		TotalElements: len(all),
		TotalPages:    (len(all) + size - 1) / size,
		Number:        page,
		Size:          size,
	}, nil
}

// ListAllTasks implements service.Service.
func (f *FakeService) ListAllTasks(ctx context.Context) ([]service.Task, error) {
	f.mu.Lock()
	f.listAllCalls++
	err := f.requireUser()
	f.mu.Unlock()
	if f.ListAllErr != nil {
		return nil, f.ListAllErr
	}
	if err != nil {
		return nil, err
	}
	return f.Tasks(), nil
}

// GetTask implements service.Service.
func (f *FakeService) GetTask(ctx context.Context, id int64) (service.Task, error) {
	if f.GetTaskErr != nil {
		return service.Task{}, f.GetTaskErr
	}
	f.mu.RLock()
	defer f.mu.RUnlock()
	if err := f.requireUser(); err != nil {
		return service.Task{}, err
	}
	for _, t := range f.tasks {
		if t.ID == id {
			return t, nil
		}
	}
	return service.Task{}, service.ErrNotFound
}

// CreateTask implements service.Service.
func (f *FakeService) CreateTask(ctx context.Context, in service.TaskInput) (service.Task, error) {
	if err := in.Validate(); err != nil {
		return service.Task{}, err
	}
	f.beforeWrite()
	if f.CreateTaskErr != nil {
		return service.Task{}, f.CreateTaskErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.requireUser(); err != nil {
		return service.Task{}, err
	}
	in = in.Normalize()
	f.nextID++
	t := service.Task{
		ID:          f.nextID,
		Title:       in.Title,
		Description: in.Description,
		Status:      in.Status,
		DueDate:     in.DueDate,
	}
	f.tasks = append(f.tasks, t)
	return t, nil
}

// UpdateTask implements service.Service.
func (f *FakeService) UpdateTask(ctx context.Context, id int64, in service.TaskInput) (service.Task, error) {
	if err := in.Validate(); err != nil {
		return service.Task{}, err
	}
	f.beforeWrite()
	if f.UpdateTaskErr != nil {
		return service.Task{}, f.UpdateTaskErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.requireUser(); err != nil {
		return service.Task{}, err
	}
	in = in.Normalize()
	for i, t := range f.tasks {
		if t.ID == id {
			f.tasks[i] = service.Task{
				ID:          id,
				Title:       in.Title,
				Description: in.Description,
				Status:      in.Status,
				DueDate:     in.DueDate,
			}
			return f.tasks[i], nil
		}
	}
	return service.Task{}, service.ErrNotFound
}

// DeleteTask implements service.Service.
func (f *FakeService) DeleteTask(ctx context.Context, id int64) error {
	f.beforeWrite()
	if f.DeleteTaskErr != nil {
		return f.DeleteTaskErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.requireUser(); err != nil {
		return err
	}
	for i, t := range f.tasks {
		if t.ID == id {
			f.tasks = append(f.tasks[:i], f.tasks[i+1:]...)
			return nil
		}
	}
	return service.ErrNotFound
}

var (
	_ service.Service        = (*FakeService)(nil)
	_ service.SessionWatcher = (*FakeService)(nil)
)
