package view

import (
	"sync"

	"tasktracker/internal/service"
)

// Memo caches the last derivation. A collection owner bumps its revision on
// every change, so the tasks themselves are never compared.
type Memo struct {
	mu       sync.Mutex
	valid    bool
	revision uint64
	query    Query
	pageSize int
	result   Result
	computed int
}

// Derive returns the cached result when revision, query and pageSize match
// the previous call and recomputes otherwise.
func (m *Memo) Derive(tasks []service.Task, revision uint64, q Query, pageSize int) Result {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.valid && m.revision == revision && m.query == q && m.pageSize == pageSize {
		return m.result
	}
	m.result = Derive(tasks, q, pageSize)
	m.valid = true
	m.revision = revision
	m.query = q
	m.pageSize = pageSize
	m.computed++
	return m.result
}

// Invalidate forces the next Derive to recompute.
func (m *Memo) Invalidate() {
	m.mu.Lock()
	m.valid = false
	m.mu.Unlock()
}
