// Package view derives the visible slice of a task collection from the
// search, filter, sort and page selected by the user.
package view

import (
	"fmt"
	"strings"

	"tasktracker/internal/service"
)

// DefaultPageSize is the number of tasks shown per page.
const DefaultPageSize = 6

// Filter restricts the view to one status, or to every task.
type Filter string

const (
	FilterAll        Filter = "ALL"
	FilterTodo       Filter = Filter(service.StatusTodo)
	FilterInProgress Filter = Filter(service.StatusInProgress)
	FilterDone       Filter = Filter(service.StatusDone)
)

// Filters lists every filter in display order.
var Filters = []Filter{FilterAll, FilterTodo, FilterInProgress, FilterDone}

// ParseFilter accepts a filter name in any case. "all" and "" select every task.
func ParseFilter(s string) (Filter, error) {
	s = strings.TrimSpace(s)
	if s == "" || strings.EqualFold(s, string(FilterAll)) {
		return FilterAll, nil
	}
	st, err := service.ParseStatus(s)
	if err != nil {
		return "", fmt.Errorf("invalid filter %q (want all, todo, in_progress, done)", s)
	}
	return Filter(st), nil
}

// Matches reports whether a task with status s passes the filter.
func (f Filter) Matches(s service.Status) bool {
	return f == FilterAll || f == "" || Filter(s) == f
}

// Next cycles to the following filter, wrapping around.
func (f Filter) Next() Filter {
	for i, v := range Filters {
		if v == f {
			return Filters[(i+1)%len(Filters)]
		}
	}
	return FilterAll
}

var filterLabels = map[Filter]string{
	FilterAll:        "All Tasks",
	FilterTodo:       "To Do",
	FilterInProgress: "In Progress",
	FilterDone:       "Done",
}

func (f Filter) Label() string {
	if f == "" {
		f = FilterAll
	}
	if l, ok := filterLabels[f]; ok {
		return l
	}
	return string(f)
}

// SortOption selects the ordering of the filtered tasks.
type SortOption string

const (
	SortDueDateDesc SortOption = "dueDate_desc"
	SortDueDateAsc  SortOption = "dueDate_asc"
	SortTitleAsc    SortOption = "title_asc"
	SortTitleDesc   SortOption = "title_desc"
	SortStatusAsc   SortOption = "status_asc"
	SortStatusDesc  SortOption = "status_desc"
)

// SortOptions lists every ordering in display order.
var SortOptions = []SortOption{
	SortDueDateDesc, SortDueDateAsc,
	SortTitleAsc, SortTitleDesc,
	SortStatusAsc, SortStatusDesc,
}

var sortLabels = map[SortOption]string{
	SortDueDateDesc: "Due date (latest first)",
	SortDueDateAsc:  "Due date (earliest first)",
	SortTitleAsc:    "Title (A-Z)",
	SortTitleDesc:   "Title (Z-A)",
	SortStatusAsc:   "Status (To Do first)",
	SortStatusDesc:  "Status (Done first)",
}

// ParseSort accepts a sort name, ignoring case. An empty string selects the default.
func ParseSort(s string) (SortOption, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return SortDueDateDesc, nil
	}
	for _, opt := range SortOptions {
		if strings.EqualFold(s, string(opt)) {
			return opt, nil
		}
	}
	names := make([]string, len(SortOptions))
	for i, opt := range SortOptions {
		names[i] = string(opt)
	}
	return "", fmt.Errorf("invalid sort %q (want one of %s)", s, strings.Join(names, ", "))
}

func (o SortOption) Label() string {
	if l, ok := sortLabels[o]; ok {
		return l
	}
	return string(o)
}

// Next cycles to the following sort option, wrapping around.
func (o SortOption) Next() SortOption {
	for i, v := range SortOptions {
		if v == o {
			return SortOptions[(i+1)%len(SortOptions)]
		}
	}
	return SortDueDateDesc
}

// Query is the user's view selection. Changing the search, filter or sort
// through the setters returns to the first page.
type Query struct {
	Search string
	Filter Filter
	Sort   SortOption
	Page   int
}

// NewQuery returns the default selection: every task, latest due date first.
func NewQuery() Query {
	return Query{Filter: FilterAll, Sort: SortDueDateDesc}
}

func (q *Query) SetSearch(s string) {
	if s == q.Search {
		return
	}
	q.Search = s
	q.Page = 0
}

func (q *Query) SetFilter(f Filter) {
	if f == q.Filter {
		return
	}
	q.Filter = f
	q.Page = 0
}

func (q *Query) SetSort(o SortOption) {
	if o == q.Sort {
		return
	}
	q.Sort = o
	q.Page = 0
}

// SetPage moves to page p. Negative pages clamp to 0.
func (q *Query) SetPage(p int) {
	q.Page = max(p, 0)
}
