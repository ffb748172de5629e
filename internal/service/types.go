// Package service defines the backend-agnostic types and interface for task operations.
package service

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// Status is the workflow state of a task.
type Status string

const (
	StatusTodo       Status = "TODO"
	StatusInProgress Status = "IN_PROGRESS"
	StatusDone       Status = "DONE"
)

// Statuses lists every status in workflow order.
var Statuses = []Status{StatusTodo, StatusInProgress, StatusDone}

// Rank returns the position of s in the workflow (TODO=0, IN_PROGRESS=1, DONE=2).
// Unknown statuses rank -1.
func (s Status) Rank() int {
	switch s {
	case StatusTodo:
		return 0
	case StatusInProgress:
		return 1
	case StatusDone:
		return 2
	}
	return -1
}

// IsValid reports whether s is one of the known statuses.
func (s Status) IsValid() bool {
	return s.Rank() >= 0
}

// Next returns the status one step forward, or false at the end of the workflow.
func (s Status) Next() (Status, bool) {
	r := s.Rank()
	if r < 0 || r+1 >= len(Statuses) {
		return "", false
	}
	return Statuses[r+1], true
}

// Prev returns the status one step back, or false at the start of the workflow.
func (s Status) Prev() (Status, bool) {
	r := s.Rank()
	if r <= 0 {
		return "", false
	}
	return Statuses[r-1], true
}

// Label returns a human-readable form, e.g. "IN PROGRESS".
func (s Status) Label() string {
	return strings.ReplaceAll(string(s), "_", " ")
}

// ParseStatus parses a status name case-insensitively.
// Accepts "in_progress", "in-progress" and "in progress".
func ParseStatus(s string) (Status, error) {
	norm := strings.ToUpper(strings.TrimSpace(s))
	norm = strings.NewReplacer("-", "_", " ", "_").Replace(norm)
	st := Status(norm)
	if !st.IsValid() {
		return "", fmt.Errorf("invalid status: %s", s)
	}
	return st, nil
}

// timestampLayout is the zone-less layout the server uses for due dates.
const timestampLayout = "2006-01-02T15:04:05"

// Timestamp is a due date as exchanged with the API.
// It decodes RFC 3339 as well as the server's zone-less layout and
// always encodes zone-less.
type Timestamp struct {
	time.Time
}

// NewTimestamp wraps t.
func NewTimestamp(t time.Time) Timestamp {
	return Timestamp{Time: t}
}

func (ts Timestamp) MarshalJSON() ([]byte, error) {
	if ts.IsZero() {
		return []byte("null"), nil
	}
	return json.Marshal(ts.Format(timestampLayout))
}

func (ts *Timestamp) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		ts.Time = time.Time{}
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("timestamp: %w", err)
	}
	t, err := ParseTimestamp(s)
	if err != nil {
		return err
	}
	ts.Time = t
	return nil
}

// ParseTimestamp parses a due date in any of the accepted layouts:
// RFC 3339, zone-less date-time (optionally with fractional seconds),
// or a bare date.
func ParseTimestamp(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, nil
	}
	if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
		return t, nil
	}
	for _, layout := range []string{"2006-01-02T15:04:05.999999999", timestampLayout, "2006-01-02T15:04", "2006-01-02"} {
		if t, err := time.ParseInLocation(layout, s, time.Local); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid date: %s", s)
}

// Task represents a single task owned by the signed-in user.
type Task struct {
	ID          int64     `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Status      Status    `json:"status"`
	DueDate     Timestamp `json:"dueDate"`
}

// Input returns the editable fields of t.
func (t Task) Input() TaskInput {
	return TaskInput{
		Title:       t.Title,
		Description: t.Description,
		Status:      t.Status,
		DueDate:     t.DueDate,
	}
}

// TaskInput carries the fields of a create or update request.
type TaskInput struct {
	Title       string    `json:"title" validate:"required,max=100"`
	Description string    `json:"description" validate:"max=500"`
	Status      Status    `json:"status" validate:"omitempty,oneof=TODO IN_PROGRESS DONE"`
	DueDate     Timestamp `json:"dueDate"`
}

// TaskPage is one page of a user's tasks as reported by the API.
type TaskPage struct {
	Content       []Task `json:"content"`
	TotalElements int    `json:"totalElements"`
	TotalPages    int    `json:"totalPages"`
	Number        int    `json:"number"`
	Size          int    `json:"size"`
}

// User identifies the signed-in account.
type User struct {
	ID    int64  `json:"id"`
	Email string `json:"email"`
}

// Credentials are submitted to login and register.
type Credentials struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// SessionInfo describes the current session for display.
// User is informational only and never used for authorization.
//
// LastUser is the most recent user seen on this device, kept after the
// session expires so it can be named in messages.
type SessionInfo struct {
	User          *User
	LastUser      *User
	Authenticated bool
	ExpiresAt     *time.Time
}
