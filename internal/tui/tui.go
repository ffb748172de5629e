// Package tui is the interactive task dashboard.
package tui

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"tasktracker/internal/board"
	"tasktracker/internal/output"
	"tasktracker/internal/service"
	"tasktracker/internal/session"
	"tasktracker/internal/view"
)

type mode int

const (
	modeList mode = iota
	modeSearch
	modeAdd
	modeConfirmDelete
)

type loadedMsg struct{ err error }

type doneMsg struct {
	what string
	err  error
}

type sessionEndedMsg struct{ expired bool }

// Model is the bubbletea model of the dashboard.
type Model struct {
	ctx      context.Context
	board    *board.Board
	memo     *view.Memo
	logger   *slog.Logger
	query    view.Query
	pageSize int
	who      string

	cursor  int
	mode    mode
	input   textinput.Model
	status  string
	failed  bool
	loading bool
	target  service.Task // task awaiting delete confirmation
	ended   error
}

// New returns a dashboard model over svc. Init starts the first load.
// The session should already be restored.
func New(ctx context.Context, svc service.Service, pageSize int, logger *slog.Logger) Model {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	ti := textinput.New()
	ti.CharLimit = 100
	ti.Width = 50

	return Model{
		ctx:      ctx,
		board:    board.New(svc, logger),
		memo:     &view.Memo{},
		logger:   logger.With("component", "tui"),
		query:    view.NewQuery(),
		pageSize: pageSize,
		who:      displayName(ctx, svc),
		input:    ti,
		loading:  true,
		status:   "loading…",
	}
}

// Run shows the dashboard until the user quits, ctx is cancelled or the
// session ends. A session that ended while running is reported as an error.
func Run(ctx context.Context, svc service.Service, pageSize int, logger *slog.Logger) error {
	m := New(ctx, svc, pageSize, logger)
	p := tea.NewProgram(m, tea.WithAltScreen())

	if w, ok := svc.(service.SessionWatcher); ok {
		unsubscribe := w.OnSessionEnd(func(expired bool) {
			p.Send(sessionEndedMsg{expired: expired})
		})
		defer unsubscribe()
	}
	stop := context.AfterFunc(ctx, p.Quit)
	defer stop()

	final, err := p.Run()
	if err != nil {
		return err
	}
	if fm, ok := final.(Model); ok && fm.ended != nil {
		return fm.ended
	}
	return ctx.Err()
}

// displayName names the signed-in user, or the last one known to this
// device.
func displayName(ctx context.Context, svc service.Service) string {
	info, _ := svc.Session(ctx)
	switch {
	case info.User != nil:
		return info.User.Email
	case info.LastUser != nil:
		return info.LastUser.Email
	}
	return ""
}

func (m Model) Init() tea.Cmd {
	return m.load()
}

func (m Model) load() tea.Cmd {
	b, ctx := m.board, m.ctx
	return func() tea.Msg {
		return loadedMsg{err: b.Load(ctx)}
	}
}

func (m Model) mutate(what string, fn func() error) tea.Cmd {
	return func() tea.Msg {
		return doneMsg{what: what, err: fn()}
	}
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if msg.Type == tea.KeyCtrlC {
			return m, tea.Quit
		}
		switch m.mode {
		case modeSearch:
			cmd = m.updateSearch(msg)
		case modeAdd:
			cmd = m.updateAdd(msg)
		case modeConfirmDelete:
			cmd = m.updateConfirmDelete(msg.String())
		default:
			cmd = m.updateList(msg.String())
		}
	case tea.WindowSizeMsg:
		m.input.Width = max(msg.Width-20, 10)
	case loadedMsg:
		m.loading = false
		if msg.err != nil {
			m.setError("load", msg.err)
		} else {
			m.status, m.failed = "", false
		}
	case doneMsg:
		if msg.err != nil {
			m.setError(msg.what, msg.err)
		} else {
			m.status, m.failed = msg.what+": ok", false
		}
	case sessionEndedMsg:
		m.board.Reset()
		m.ended = service.ErrNotAuthenticated
		if msg.expired {
			m.ended = session.ErrSessionExpired
		}
		return m, tea.Quit
	}
	m.clamp()
	return m, cmd
}

func (m *Model) setError(what string, err error) {
	m.logger.Debug("operation failed", "op", what, "error", err)
	m.status, m.failed = fmt.Sprintf("%s failed: %v", what, err), true
}

func (m *Model) updateList(key string) tea.Cmd {
	res := m.result()
	switch key {
	case "q":
		return tea.Quit
	case "up", "k":
		m.cursor--
	case "down", "j":
		m.cursor++
	case "left", "h":
		if res.HasPrev() {
			m.query.SetPage(m.query.Page - 1)
			m.cursor = 0
		}
	case "right", "l":
		if res.HasNext() {
			m.query.SetPage(m.query.Page + 1)
			m.cursor = 0
		}
	case "f":
		m.query.SetFilter(m.query.Filter.Next())
	case "s":
		m.query.SetSort(m.query.Sort.Next())
	case "/":
		m.mode = modeSearch
		m.input.Placeholder = "search title or description"
		m.input.SetValue(m.query.Search)
		m.input.CursorEnd()
		return m.input.Focus()
	case "a":
		m.mode = modeAdd
		m.input.Placeholder = "new task title"
		m.input.SetValue("")
		return m.input.Focus()
	case "r":
		m.loading = true
		m.status, m.failed = "loading…", false
		return m.load()
	case "d":
		if t, ok := m.selected(res); ok {
			m.target = t
			m.mode = modeConfirmDelete
		}
	case "]", "[":
		t, ok := m.selected(res)
		if !ok {
			return nil
		}
		b, ctx, id := m.board, m.ctx, t.ID
		if key == "]" {
			return m.mutate("advance", func() error { _, err := b.Advance(ctx, id); return err })
		}
		return m.mutate("retreat", func() error { _, err := b.Retreat(ctx, id); return err })
	}
	return nil
}

func (m *Model) updateSearch(msg tea.KeyMsg) tea.Cmd {
	switch msg.String() {
	case "enter":
		m.mode = modeList
		m.input.Blur()
		return nil
	case "esc":
		m.mode = modeList
		m.input.Blur()
		m.query.SetSearch("")
		return nil
	}
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	m.query.SetSearch(m.input.Value())
	return cmd
}

func (m *Model) updateAdd(msg tea.KeyMsg) tea.Cmd {
	switch msg.String() {
	case "esc":
		m.mode = modeList
		m.input.Blur()
		return nil
	case "enter":
		in := service.TaskInput{Title: m.input.Value(), Status: service.StatusTodo}
		if err := in.Validate(); err != nil {
			m.status, m.failed = err.Error(), true
			return nil
		}
		m.mode = modeList
		m.input.Blur()
		m.input.SetValue("")
		b, ctx := m.board, m.ctx
		return m.mutate("add", func() error { _, err := b.Create(ctx, in); return err })
	}
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return cmd
}

func (m *Model) updateConfirmDelete(key string) tea.Cmd {
	m.mode = modeList
	if key != "y" && key != "Y" {
		m.status, m.failed = "delete cancelled", false
		return nil
	}
	b, ctx, id := m.board, m.ctx, m.target.ID
	return m.mutate("delete", func() error { return b.Delete(ctx, id) })
}

// clamp keeps page and cursor inside the current result after the
// collection or query changed underneath them.
func (m *Model) clamp() {
	res := m.result()
	if res.TotalPages > 0 && m.query.Page >= res.TotalPages {
		m.query.SetPage(res.TotalPages - 1)
		res = m.result()
	}
	m.cursor = min(m.cursor, len(res.Visible)-1)
	m.cursor = max(m.cursor, 0)
}

func (m Model) result() view.Result {
	tasks, rev := m.board.Snapshot()
	return m.memo.Derive(tasks, rev, m.query, m.pageSize)
}

// selected returns the task under the cursor. Placeholders for tasks still
// being created are not selectable.
func (m Model) selected(res view.Result) (service.Task, bool) {
	if m.cursor < 0 || m.cursor >= len(res.Visible) {
		return service.Task{}, false
	}
	t := res.Visible[m.cursor]
	return t, t.ID > 0
}

func (m Model) View() string {
	res := m.result()
	var b strings.Builder

	b.WriteString(titleStyle.Render("Tasks"))
	if m.who != "" {
		b.WriteString(" " + mutedStyle.Render(m.who))
	}
	b.WriteString("  ")
	b.WriteString(m.renderCounts(res.Counts))
	b.WriteString("\n")
	fmt.Fprintf(&b, "%s %s", mutedStyle.Render("sort:"), m.query.Sort.Label())
	if m.query.Search != "" && m.mode != modeSearch {
		fmt.Fprintf(&b, "  %s %q", mutedStyle.Render("search:"), m.query.Search)
	}
	b.WriteString("\n\n")

	switch {
	case m.loading && !m.board.Loaded():
		b.WriteString(mutedStyle.Render("loading…"))
		b.WriteString("\n")
	case len(res.Visible) == 0:
		b.WriteString(mutedStyle.Render("no tasks found"))
		b.WriteString("\n")
	default:
		for i, t := range res.Visible {
			b.WriteString(m.renderTask(t, i == m.cursor))
			b.WriteString("\n")
		}
		first, last := res.Range()
		fmt.Fprintf(&b, "\n%s", mutedStyle.Render(fmt.Sprintf("Showing %d–%d of %d tasks", first, last, res.TotalElements)))
		if res.TotalPages > 1 {
			fmt.Fprintf(&b, "  %s", output.PageWindow(res.Page, res.TotalPages))
		}
		b.WriteString("\n")
	}

	switch m.mode {
	case modeSearch:
		b.WriteString("\nsearch " + m.input.View() + "\n")
	case modeAdd:
		b.WriteString("\nadd " + m.input.View() + "\n")
	case modeConfirmDelete:
		fmt.Fprintf(&b, "\n%s\n", errorStyle.Render(fmt.Sprintf("delete #%d %q? (y/n)", m.target.ID, m.target.Title)))
	}

	if m.status != "" {
		style := successStyle
		if m.failed {
			style = errorStyle
		}
		b.WriteString("\n" + style.Render(m.status) + "\n")
	}
	b.WriteString("\n" + helpStyle.Render("↑/↓ move • ←/→ page • / search • f filter • s sort • [/] status • a add • d delete • r reload • q quit"))
	return panel(b.String())
}

func (m Model) renderCounts(c view.Counts) string {
	parts := make([]string, 0, len(view.Filters))
	for _, f := range view.Filters {
		label := fmt.Sprintf("%s %d", f.Label(), c.For(f))
		if f == m.query.Filter {
			label = accentStyle.Render("[" + label + "]")
		}
		parts = append(parts, label)
	}
	return strings.Join(parts, "  ")
}

func (m Model) renderTask(t service.Task, selected bool) string {
	id := fmt.Sprintf("#%d", t.ID)
	if t.ID < 0 {
		id = "new"
	}
	st := t.Status.Label()
	if style, ok := statusStyles[string(t.Status)]; ok {
		st = style.Render(fmt.Sprintf("%-11s", st))
	}
	line := fmt.Sprintf("%6s  %s  %-16s  %s", id, st, output.FormatDue(t.DueDate), t.Title)
	if selected {
		return selectedStyle.Render("> ") + line
	}
	return "  " + line
}
