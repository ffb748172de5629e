// Package output provides formatters for CLI output.
package output

import (
	"fmt"
	"io"
	"strings"

	"tasktracker/internal/service"
	"tasktracker/internal/view"
)

const (
	// Separator is the rule printed above the pagination footer.
	Separator = "------------"

	// DueLayout is how due dates are printed.
	DueLayout = "2006-01-02 15:04"
)

// FormatTask formats a task row.
// Format: "{ID:>6}  {STATUS:<11}  {DUE:<16}  {TITLE}\n"
func FormatTask(w io.Writer, task service.Task) {
	fmt.Fprintf(w, "%6d  %-11s  %-16s  %s\n", task.ID, task.Status.Label(), FormatDue(task.DueDate), normalizeTitle(task.Title))
}

// FormatTaskDetail prints every field of a task, one per line.
func FormatTaskDetail(w io.Writer, task service.Task) {
	fmt.Fprintf(w, "id:          %d\n", task.ID)
	fmt.Fprintf(w, "title:       %s\n", normalizeTitle(task.Title))
	fmt.Fprintf(w, "status:      %s\n", task.Status.Label())
	fmt.Fprintf(w, "due:         %s\n", FormatDue(task.DueDate))
	if desc := strings.TrimSpace(task.Description); desc != "" {
		fmt.Fprintln(w, "description:")
		for _, line := range strings.Split(desc, "\n") {
			fmt.Fprintf(w, "  %s\n", strings.TrimRight(line, "\r"))
		}
	}
}

// FormatCounts prints the per-filter counts, bracketing the active filter.
// Format: "[All Tasks 5]  To Do 2  In Progress 2  Done 1\n"
func FormatCounts(w io.Writer, counts view.Counts, active view.Filter) {
	parts := make([]string, len(view.Filters))
	for i, f := range view.Filters {
		label := fmt.Sprintf("%s %d", f.Label(), counts.For(f))
		if f == active || (active == "" && f == view.FilterAll) {
			label = "[" + label + "]"
		}
		parts[i] = label
	}
	fmt.Fprintln(w, strings.Join(parts, "  "))
}

// FormatFooter prints the shown range and, with more than one page, the
// page window.
// Format: "Showing 7–12 of 14 tasks" then "pages: 1 [2] 3".
func FormatFooter(w io.Writer, res view.Result) {
	first, last := res.Range()
	fmt.Fprintln(w, Separator)
	fmt.Fprintf(w, "Showing %d–%d of %d tasks\n", first, last, res.TotalElements)
	if res.TotalPages <= 1 {
		return
	}
	fmt.Fprintf(w, "pages: %s\n", PageWindow(res.Page, res.TotalPages))
}

// PageWindow renders the page window with one-based numbers and the
// current page in brackets, e.g. "1 … 4 [5] 6 … 10".
func PageWindow(current, total int) string {
	pages := view.PageWindow(current, total)
	parts := make([]string, len(pages))
	for i, p := range pages {
		switch {
		case p == view.Ellipsis:
			parts[i] = "…"
		case p == current:
			parts[i] = fmt.Sprintf("[%d]", p+1)
		default:
			parts[i] = fmt.Sprint(p + 1)
		}
	}
	return strings.Join(parts, " ")
}

// FormatDue formats a due date, or "-" when unset.
func FormatDue(ts service.Timestamp) string {
	if ts.IsZero() {
		return "-"
	}
	return ts.Format(DueLayout)
}

// normalizeTitle normalizes a task title for display.
// - Empty or whitespace-only titles become "(untitled)"
// - Newlines are replaced with spaces
func normalizeTitle(title string) string {
	// Replace newlines with spaces
	title = strings.ReplaceAll(title, "\r", " ")
	title = strings.ReplaceAll(title, "\n", " ")

	// Trim and check for empty
	if strings.TrimSpace(title) == "" {
		return "(untitled)"
	}
	return title
}
