package view

// Ellipsis marks a gap in a page window.
const Ellipsis = -1

// maxWindow is the most page numbers a window shows without gaps.
const maxWindow = 5

// PageWindow returns the zero-based page numbers to offer for navigation.
// Up to five pages are listed in full; beyond that the first and last pages
// are always present, with the current page and its neighbours between,
// and Ellipsis standing in for the skipped runs.
func PageWindow(current, total int) []int {
	if total <= 0 {
		return nil
	}
	if total <= maxWindow {
		pages := make([]int, total)
		for i := range pages {
			pages[i] = i
		}
		return pages
	}

	pages := []int{0}
	if current > 2 {
		pages = append(pages, Ellipsis)
	}
	for i := max(1, current-1); i <= min(total-2, current+1); i++ {
		pages = append(pages, i)
	}
	if current < total-3 {
		pages = append(pages, Ellipsis)
	}
	return append(pages, total-1)
}

// Range returns the one-based positions of the first and last task on page,
// as in "Showing 7–12 of 14 tasks". Both are zero when nothing is shown.
func Range(page, pageSize, total int) (first, last int) {
	if pageSize < 1 {
		pageSize = DefaultPageSize
	}
	first = page*pageSize + 1
	if total <= 0 || first > total {
		return 0, 0
	}
	return first, min((page+1)*pageSize, total)
}

// Range reports the shown positions of r.
func (r Result) Range() (first, last int) {
	return Range(r.Page, r.PageSize, r.TotalElements)
}

// HasPrev reports whether a previous page exists.
func (r Result) HasPrev() bool { return r.Page > 0 }

// HasNext reports whether a following page exists.
func (r Result) HasNext() bool { return r.Page < r.TotalPages-1 }
