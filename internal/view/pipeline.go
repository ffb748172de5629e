package view

import (
	"cmp"
	"slices"
	"strings"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	"tasktracker/internal/service"
)

// Counts tallies the searched tasks per status, ignoring the active filter.
type Counts struct {
	All        int
	Todo       int
	InProgress int
	Done       int
}

// For returns the count shown next to filter f.
func (c Counts) For(f Filter) int {
	switch f {
	case FilterTodo:
		return c.Todo
	case FilterInProgress:
		return c.InProgress
	case FilterDone:
		return c.Done
	}
	return c.All
}

func (c *Counts) add(s service.Status) {
	c.All++
	switch s {
	case service.StatusTodo:
		c.Todo++
	case service.StatusInProgress:
		c.InProgress++
	case service.StatusDone:
		c.Done++
	}
}

// Result is one derived page.
type Result struct {
	Visible       []service.Task
	Page          int
	PageSize      int
	TotalPages    int
	TotalElements int
	Counts        Counts
}

// Derive runs search, filter, sort and paginate over tasks, in that order.
// It does not modify tasks and returns the same result for the same inputs.
// A pageSize below 1 uses DefaultPageSize.
func Derive(tasks []service.Task, q Query, pageSize int) Result {
	if pageSize < 1 {
		pageSize = DefaultPageSize
	}

	var counts Counts
	filtered := make([]service.Task, 0, len(tasks))
	needle := strings.ToLower(strings.TrimSpace(q.Search))
	for _, t := range tasks {
		if !matchesSearch(t, needle) {
			continue
		}
		counts.add(t.Status)
		if q.Filter.Matches(t.Status) {
			filtered = append(filtered, t)
		}
	}

	slices.SortStableFunc(filtered, comparator(q.Sort))

	page := max(q.Page, 0)
	start := min(page*pageSize, len(filtered))
	end := min(start+pageSize, len(filtered))

	return Result{
		Visible:       filtered[start:end:end],
		Page:          page,
		PageSize:      pageSize,
		TotalPages:    (len(filtered) + pageSize - 1) / pageSize,
		TotalElements: len(filtered),
		Counts:        counts,
	}
}

func matchesSearch(t service.Task, needle string) bool {
	if needle == "" {
		return true
	}
	return strings.Contains(strings.ToLower(t.Title), needle) ||
		strings.Contains(strings.ToLower(t.Description), needle)
}

// comparator returns the ordering for o. Tasks without a due date sort
// after dated tasks in both due date directions.
func comparator(o SortOption) func(a, b service.Task) int {
	switch o {
	case SortDueDateAsc:
		return func(a, b service.Task) int { return compareDue(a, b, false) }
	case SortTitleAsc, SortTitleDesc:
		// A collator keeps internal buffers, so each derivation gets its own.
		col := collate.New(language.Und)
		if o == SortTitleDesc {
			return func(a, b service.Task) int { return col.CompareString(b.Title, a.Title) }
		}
		return func(a, b service.Task) int { return col.CompareString(a.Title, b.Title) }
	case SortStatusAsc:
		return func(a, b service.Task) int { return cmp.Compare(a.Status.Rank(), b.Status.Rank()) }
	case SortStatusDesc:
		return func(a, b service.Task) int { return cmp.Compare(b.Status.Rank(), a.Status.Rank()) }
	}
	return func(a, b service.Task) int { return compareDue(a, b, true) }
}

func compareDue(a, b service.Task, desc bool) int {
	az, bz := a.DueDate.IsZero(), b.DueDate.IsZero()
	switch {
	case az && bz:
		return 0
	case az:
		return 1
	case bz:
		return -1
	}
	if desc {
		return b.DueDate.Compare(a.DueDate.Time)
	}
	return a.DueDate.Compare(b.DueDate.Time)
}
