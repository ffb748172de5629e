package service

import (
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStatus_Adjacency(t *testing.T) {
	next, ok := StatusTodo.Next()
	require.True(t, ok)
	assert.Equal(t, StatusInProgress, next)

	next, ok = StatusInProgress.Next()
	require.True(t, ok)
	assert.Equal(t, StatusDone, next)

	_, ok = StatusDone.Next()
	assert.False(t, ok, "DONE has no next status")

	prev, ok := StatusDone.Prev()
	require.True(t, ok)
	assert.Equal(t, StatusInProgress, prev)

	_, ok = StatusTodo.Prev()
	assert.False(t, ok, "TODO has no previous status")

	_, ok = Status("BOGUS").Next()
	assert.False(t, ok)
}

func TestParseStatus(t *testing.T) {
	for in, want := range map[string]Status{
		"todo":        StatusTodo,
		"IN_PROGRESS": StatusInProgress,
		"in-progress": StatusInProgress,
		"In Progress": StatusInProgress,
		" done ":      StatusDone,
	} {
		got, err := ParseStatus(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}

	_, err := ParseStatus("later")
	assert.EqualError(t, err, "invalid status: later")
}

func TestTimestamp_DecodesServerLayouts(t *testing.T) {
	var task Task
	err := json.Unmarshal([]byte(`{"id":7,"title":"a","status":"TODO","dueDate":"2025-03-04T10:30:00"}`), &task)
	require.NoError(t, err)
	assert.Equal(t, 2025, task.DueDate.Year())
	assert.Equal(t, time.March, task.DueDate.Month())
	assert.Equal(t, 10, task.DueDate.Hour())

	err = json.Unmarshal([]byte(`{"dueDate":"2025-03-04T10:30:00.123456"}`), &task)
	require.NoError(t, err)
	assert.Equal(t, 30, task.DueDate.Minute())

	err = json.Unmarshal([]byte(`{"dueDate":"2025-03-04T10:30:00Z"}`), &task)
	require.NoError(t, err)
	assert.Equal(t, time.UTC, task.DueDate.Location())

	err = json.Unmarshal([]byte(`{"dueDate":null}`), &task)
	require.NoError(t, err)
	assert.True(t, task.DueDate.IsZero())
}

func TestTimestamp_EncodesZoneless(t *testing.T) {
	in := TaskInput{Title: "x", DueDate: NewTimestamp(time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC))}
	data, err := json.Marshal(in)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"dueDate":"2025-01-02T03:04:05"`)

	data, err = json.Marshal(TaskInput{Title: "x"})
	require.NoError(t, err)
	assert.Contains(t, string(data), `"dueDate":null`)
}

func TestTaskInput_Validate(t *testing.T) {
	assert.NoError(t, TaskInput{Title: "  Write report  "}.Validate())

	err := TaskInput{Title: "   "}.Validate()
	var verr *ValidationError
	require.True(t, errors.As(err, &verr))
	assert.Equal(t, "title is required", verr.Fields["title"])

	err = TaskInput{Title: strings.Repeat("x", 101)}.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "title must be at most 100 characters")

	assert.NoError(t, TaskInput{Title: strings.Repeat("é", 100)}.Validate(), "length counts characters")

	err = TaskInput{Title: "ok", Description: strings.Repeat("d", 501)}.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "description must be at most 500 characters")

	err = TaskInput{Title: "ok", Status: "LATER"}.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status must be one of")
}

func TestTaskInput_NormalizeDefaultsStatus(t *testing.T) {
	in := TaskInput{Title: "  a  ", Description: " b "}.Normalize()
	assert.Equal(t, "a", in.Title)
	assert.Equal(t, "b", in.Description)
	assert.Equal(t, StatusTodo, in.Status)
}

func TestCredentials_Validate(t *testing.T) {
	assert.NoError(t, Credentials{Email: "me@example.com", Password: "pw"}.Validate())
	assert.EqualError(t, Credentials{Email: "nope", Password: "pw"}.Validate(), "email is not valid")
	assert.EqualError(t, Credentials{Email: "me@example.com"}.Validate(), "password is required")
}
