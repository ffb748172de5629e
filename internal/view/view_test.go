package view

import (
	"fmt"
	"slices"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tasktracker/internal/service"
)

var base = time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)

func task(id int64, title string, status service.Status, dueInDays int) service.Task {
	return service.Task{
		ID:      id,
		Title:   title,
		Status:  status,
		DueDate: service.NewTimestamp(base.AddDate(0, 0, dueInDays)),
	}
}

func titles(tasks []service.Task) []string {
	out := make([]string, len(tasks))
	for i, t := range tasks {
		out[i] = t.Title
	}
	return out
}

func ids(tasks []service.Task) []int64 {
	out := make([]int64, len(tasks))
	for i, t := range tasks {
		out[i] = t.ID
	}
	return out
}

func sample() []service.Task {
	return []service.Task{
		task(1, "Write report", service.StatusTodo, 3),
		task(2, "Review PR", service.StatusInProgress, 1),
		{ID: 3, Title: "Book flights", Description: "for the offsite report", Status: service.StatusDone, DueDate: service.NewTimestamp(base.AddDate(0, 0, 5))},
		task(4, "Call plumber", service.StatusTodo, 2),
		task(5, "Refactor parser", service.StatusInProgress, 4),
	}
}

func TestQuery_SettersResetPage(t *testing.T) {
	q := NewQuery()
	assert.Equal(t, FilterAll, q.Filter)
	assert.Equal(t, SortDueDateDesc, q.Sort)

	q.SetPage(3)
	q.SetSearch("report")
	assert.Equal(t, 0, q.Page)

	q.SetPage(2)
	q.SetFilter(FilterDone)
	assert.Equal(t, 0, q.Page)

	q.SetPage(2)
	q.SetSort(SortTitleAsc)
	assert.Equal(t, 0, q.Page)

	q.SetPage(2)
	q.SetSort(SortTitleAsc)
	q.SetFilter(FilterDone)
	q.SetSearch("report")
	assert.Equal(t, 2, q.Page, "setting the same value keeps the page")

	q.SetPage(-4)
	assert.Equal(t, 0, q.Page)
}

func TestParseFilter(t *testing.T) {
	tests := []struct {
		in      string
		want    Filter
		wantErr bool
	}{
		{"", FilterAll, false},
		{"all", FilterAll, false},
		{"ALL", FilterAll, false},
		{"todo", FilterTodo, false},
		{"in-progress", FilterInProgress, false},
		{"done", FilterDone, false},
		{"blocked", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseFilter(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseSort(t *testing.T) {
	for _, opt := range SortOptions {
		got, err := ParseSort(string(opt))
		require.NoError(t, err)
		assert.Equal(t, opt, got)
	}

	got, err := ParseSort("TITLE_ASC")
	require.NoError(t, err)
	assert.Equal(t, SortTitleAsc, got)

	got, err = ParseSort("")
	require.NoError(t, err)
	assert.Equal(t, SortDueDateDesc, got)

	_, err = ParseSort("priority")
	assert.ErrorContains(t, err, "dueDate_desc")
}

func TestCycling(t *testing.T) {
	assert.Equal(t, FilterTodo, FilterAll.Next())
	assert.Equal(t, FilterAll, FilterDone.Next())
	assert.Equal(t, SortDueDateAsc, SortDueDateDesc.Next())
	assert.Equal(t, SortDueDateDesc, SortStatusDesc.Next())
	assert.Equal(t, "In Progress", FilterInProgress.Label())
	assert.Equal(t, "Title (A-Z)", SortTitleAsc.Label())
}

func TestDerive_IsPure(t *testing.T) {
	tasks := sample()
	before := slices.Clone(tasks)
	q := Query{Search: "re", Filter: FilterAll, Sort: SortTitleAsc}

	first := Derive(tasks, q, 2)
	second := Derive(tasks, q, 2)

	assert.Equal(t, first, second)
	assert.Equal(t, before, tasks, "input is not reordered")
}

func TestDerive_Search(t *testing.T) {
	tasks := sample()

	res := Derive(tasks, Query{Search: "REPORT", Sort: SortDueDateAsc}, 10)
	assert.Equal(t, []int64{1, 3}, ids(res.Visible), "title or description, any case")

	res = Derive(tasks, Query{Search: "   "}, 10)
	assert.Equal(t, 5, res.TotalElements, "blank search matches everything")
}

func TestDerive_Filter(t *testing.T) {
	res := Derive(sample(), Query{Filter: FilterInProgress, Sort: SortDueDateAsc}, 10)
	assert.Equal(t, []int64{2, 5}, ids(res.Visible))
	assert.Equal(t, 2, res.TotalElements)
}

func TestDerive_Sort(t *testing.T) {
	tasks := sample()

	tests := []struct {
		sort SortOption
		want []int64
	}{
		{SortDueDateDesc, []int64{3, 5, 1, 4, 2}},
		{SortDueDateAsc, []int64{2, 4, 1, 5, 3}},
		{SortTitleAsc, []int64{3, 4, 5, 2, 1}},
		{SortTitleDesc, []int64{1, 2, 5, 4, 3}},
		{SortStatusAsc, []int64{1, 4, 2, 5, 3}},
		{SortStatusDesc, []int64{3, 2, 5, 1, 4}},
	}
	for _, tt := range tests {
		t.Run(string(tt.sort), func(t *testing.T) {
			res := Derive(tasks, Query{Sort: tt.sort}, 10)
			assert.Equal(t, tt.want, ids(res.Visible))
		})
	}
}

func TestDerive_TitleSortIsLocaleAware(t *testing.T) {
	tasks := []service.Task{
		{ID: 1, Title: "Banana"},
		{ID: 2, Title: "apple"},
		{ID: 3, Title: "Cherry"},
	}
	res := Derive(tasks, Query{Sort: SortTitleAsc}, 10)
	assert.Equal(t, []string{"apple", "Banana", "Cherry"}, titles(res.Visible))

	res = Derive(tasks, Query{Sort: SortTitleDesc}, 10)
	assert.Equal(t, []string{"Cherry", "Banana", "apple"}, titles(res.Visible))

	accented := []service.Task{{Title: "zebra"}, {Title: "éclair"}, {Title: "eagle"}}
	res = Derive(accented, Query{Sort: SortTitleAsc}, 10)
	assert.Equal(t, []string{"eagle", "éclair", "zebra"}, titles(res.Visible))
}

func TestDerive_EqualKeysKeepInputOrder(t *testing.T) {
	tasks := []service.Task{
		{ID: 1, Title: "a", Status: service.StatusTodo},
		{ID: 2, Title: "b", Status: service.StatusDone},
		{ID: 3, Title: "c", Status: service.StatusTodo},
		{ID: 4, Title: "d", Status: service.StatusTodo},
	}
	res := Derive(tasks, Query{Sort: SortStatusAsc}, 10)
	assert.Equal(t, []int64{1, 3, 4, 2}, ids(res.Visible))
}

func TestDerive_UndatedTasksSortLast(t *testing.T) {
	tasks := []service.Task{
		{ID: 1, Title: "undated"},
		task(2, "later", service.StatusTodo, 5),
		task(3, "sooner", service.StatusTodo, 1),
	}
	assert.Equal(t, []int64{2, 3, 1}, ids(Derive(tasks, Query{Sort: SortDueDateDesc}, 10).Visible))
	assert.Equal(t, []int64{3, 2, 1}, ids(Derive(tasks, Query{Sort: SortDueDateAsc}, 10).Visible))
}

func TestDerive_CountsIgnoreFilter(t *testing.T) {
	tasks := sample()
	want := Counts{All: 2, Todo: 1, InProgress: 0, Done: 1}

	for _, f := range Filters {
		res := Derive(tasks, Query{Search: "report", Filter: f}, 10)
		assert.Equal(t, want, res.Counts, "filter %s", f)
	}

	all := Derive(tasks, Query{}, 10).Counts
	assert.Equal(t, 5, all.For(FilterAll))
	assert.Equal(t, 2, all.For(FilterTodo))
	assert.Equal(t, 2, all.For(FilterInProgress))
	assert.Equal(t, 1, all.For(FilterDone))
}

func TestDerive_Paginate(t *testing.T) {
	var tasks []service.Task
	for i := range 14 {
		tasks = append(tasks, task(int64(i+1), fmt.Sprintf("t%02d", i+1), service.StatusTodo, i))
	}
	q := Query{Sort: SortDueDateAsc}

	res := Derive(tasks, q, 6)
	assert.Equal(t, 3, res.TotalPages)
	assert.Equal(t, 14, res.TotalElements)
	assert.Len(t, res.Visible, 6)
	assert.False(t, res.HasPrev())
	assert.True(t, res.HasNext())

	q.SetPage(2)
	res = Derive(tasks, q, 6)
	assert.Equal(t, []int64{13, 14}, ids(res.Visible))
	first, last := res.Range()
	assert.Equal(t, 13, first)
	assert.Equal(t, 14, last)
	assert.False(t, res.HasNext())

	q.SetPage(9)
	res = Derive(tasks, q, 6)
	assert.Empty(t, res.Visible, "page past the end shows nothing")
	assert.Equal(t, 3, res.TotalPages)

	res = Derive(tasks, Query{}, 0)
	assert.Equal(t, DefaultPageSize, res.PageSize)
}

func TestDerive_PrependedTaskKeepsMostRelevantFirst(t *testing.T) {
	var tasks []service.Task
	for i := range 7 {
		tasks = append(tasks, task(int64(i+1), fmt.Sprintf("task %d", i+1), service.StatusTodo, i))
	}
	q := NewQuery()

	res := Derive(tasks, q, 6)
	require.Len(t, res.Visible, 6)
	assert.Equal(t, 2, res.TotalPages)
	assert.Equal(t, []int64{7, 6, 5, 4, 3, 2}, ids(res.Visible))

	created := task(8, "new task", service.StatusTodo, 3)
	tasks = append([]service.Task{created}, tasks...)

	res = Derive(tasks, q, 6)
	require.Len(t, res.Visible, 6)
	assert.Equal(t, 2, res.TotalPages)
	assert.Equal(t, 8, res.TotalElements)
	assert.Equal(t, []int64{7, 6, 5, 8, 4, 3}, ids(res.Visible))
}

func TestPageWindow(t *testing.T) {
	const E = Ellipsis
	tests := []struct {
		current, total int
		want           []int
	}{
		{0, 0, nil},
		{0, 1, []int{0}},
		{1, 5, []int{0, 1, 2, 3, 4}},
		{0, 10, []int{0, 1, E, 9}},
		{2, 10, []int{0, 1, 2, 3, E, 9}},
		{5, 10, []int{0, E, 4, 5, 6, E, 9}},
		{7, 10, []int{0, E, 6, 7, 8, 9}},
		{9, 10, []int{0, E, 8, 9}},
	}
	for _, tt := range tests {
		t.Run(fmt.Sprintf("%d of %d", tt.current, tt.total), func(t *testing.T) {
			assert.Equal(t, tt.want, PageWindow(tt.current, tt.total))
		})
	}
}

func TestRange(t *testing.T) {
	first, last := Range(0, 6, 14)
	assert.Equal(t, [2]int{1, 6}, [2]int{first, last})

	first, last = Range(1, 6, 14)
	assert.Equal(t, [2]int{7, 12}, [2]int{first, last})

	first, last = Range(0, 6, 0)
	assert.Equal(t, [2]int{0, 0}, [2]int{first, last})

	first, last = Range(5, 6, 14)
	assert.Equal(t, [2]int{0, 0}, [2]int{first, last})
}

func TestMemo(t *testing.T) {
	tasks := sample()
	var m Memo
	q := NewQuery()

	first := m.Derive(tasks, 1, q, 6)
	again := m.Derive(tasks, 1, q, 6)
	assert.Equal(t, first, again)
	assert.Equal(t, 1, m.computed)

	m.Derive(tasks, 2, q, 6)
	assert.Equal(t, 2, m.computed, "new revision recomputes")

	q.SetSearch("report")
	m.Derive(tasks, 2, q, 6)
	assert.Equal(t, 3, m.computed, "new query recomputes")

	m.Derive(tasks, 2, q, 3)
	assert.Equal(t, 4, m.computed, "new page size recomputes")

	m.Invalidate()
	m.Derive(tasks, 2, q, 3)
	assert.Equal(t, 5, m.computed)
}
