// Package readstate tracks which log entries the user has marked read.
//
// The set is not persisted and survives page and filter changes; only an
// explicit UnmarkAllRead or MarkAllRead rebuilds it.
package readstate

import (
	"sync"

	"github.com/tinytelemetry/tflog/internal/model"
)

// Tracker is safe for concurrent use.
type Tracker struct {
	mu  sync.RWMutex
	ids map[string]struct{}
}

func New() *Tracker {
	return &Tracker{ids: make(map[string]struct{})}
}

func (t *Tracker) MarkRead(id string) {
	t.mu.Lock()
	t.ids[id] = struct{}{}
	t.mu.Unlock()
}

func (t *Tracker) UnmarkRead(id string) {
	t.mu.Lock()
	delete(t.ids, id)
	t.mu.Unlock()
}

// Toggle flips the read flag for id and returns the new value.
func (t *Tracker) Toggle(id string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	if _, ok := t.ids[id]; ok {
		delete(t.ids, id)
		return false
	}
	t.ids[id] = struct{}{}
	return true
}

// MarkAllRead replaces the set with exactly the ids of entries.
func (t *Tracker) MarkAllRead(entries []model.LogEntry) {
	next := make(map[string]struct{}, len(entries))
	for _, e := range entries {
		next[e.ID] = struct{}{}
	}
	t.mu.Lock()
	t.ids = next
	t.mu.Unlock()
}

func (t *Tracker) UnmarkAllRead() {
	t.mu.Lock()
	t.ids = make(map[string]struct{})
	t.mu.Unlock()
}

func (t *Tracker) IsRead(id string) bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	_, ok := t.ids[id]
	return ok
}

func (t *Tracker) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.ids)
}

// Visible returns entries, minus read ones when hideRead is set. The input
// slice is never modified.
func (t *Tracker) Visible(entries []model.LogEntry, hideRead bool) []model.LogEntry {
	out := make([]model.LogEntry, 0, len(entries))
	if !hideRead {
		return append(out, entries...)
	}
	t.mu.RLock()
	defer t.mu.RUnlock()
	for _, e := range entries {
		if _, ok := t.ids[e.ID]; !ok {
			out = append(out, e)
		}
	}
	return out
}

// Counts reports how many of entries are read and unread.
func (t *Tracker) Counts(entries []model.LogEntry) (read, unread int) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	for _, e := range entries {
		if _, ok := t.ids[e.ID]; ok {
			read++
		} else {
			unread++
		}
	}
	return read, unread
}
