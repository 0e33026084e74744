// Package history keeps the durable list of previously uploaded files.
package history

import (
	"fmt"
	"sync"

	"github.com/tinytelemetry/tflog/internal/model"
	"github.com/tinytelemetry/tflog/internal/slot"
)

// Store is an ordered, most-recent-first list of uploads, unique by file id
// and bounded in length. Every mutation is written through to its slot.
type Store struct {
	mu    sync.RWMutex
	slot  *slot.Slot[[]model.HistoryItem]
	items []model.HistoryItem
	limit int
}

// New loads the list from s.
func New(s *slot.Slot[[]model.HistoryItem]) *Store {
	return NewWithLimit(s, model.MaxHistoryItems)
}

// NewWithLimit is New with a custom capacity.
func NewWithLimit(s *slot.Slot[[]model.HistoryItem], limit int) *Store {
	if limit <= 0 {
		limit = model.MaxHistoryItems
	}
	h := &Store{slot: s, limit: limit}
	if items, ok := s.Get(); ok {
		h.items = dedupe(items, limit)
	}
	return h
}

// Record puts item at the front, replacing any entry with the same file id.
// The item's ID is always its FileID.
func (h *Store) Record(item model.HistoryItem) error {
	item.ID = item.FileID

	h.mu.Lock()
	defer h.mu.Unlock()

	next := make([]model.HistoryItem, 0, len(h.items)+1)
	next = append(next, item)
	for _, it := range h.items {
		if it.FileID != item.FileID {
			next = append(next, it)
		}
	}
	if len(next) > h.limit {
		next = next[:h.limit]
	}
	return h.commit(next)
}

// Remove drops the entry for fileID. Absent ids are a no-op.
func (h *Store) Remove(fileID string) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	idx := -1
	for i, it := range h.items {
		if it.FileID == fileID {
			idx = i
			break
		}
	}
	if idx < 0 {
		return nil
	}
	next := make([]model.HistoryItem, 0, len(h.items)-1)
	next = append(next, h.items[:idx]...)
	next = append(next, h.items[idx+1:]...)
	return h.commit(next)
}

// Clear empties the list.
func (h *Store) Clear() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.commit([]model.HistoryItem{})
}

// commit persists next and then swaps it in. Caller holds h.mu.
func (h *Store) commit(next []model.HistoryItem) error {
	if err := h.slot.Set(next); err != nil {
		return fmt.Errorf("history: persist: %w", err)
	}
	h.items = next
	return nil
}

// Items returns a copy of the list.
func (h *Store) Items() []model.HistoryItem {
	h.mu.RLock()
	defer h.mu.RUnlock()
	out := make([]model.HistoryItem, len(h.items))
	copy(out, h.items)
	return out
}

// Find returns the entry for fileID.
func (h *Store) Find(fileID string) (model.HistoryItem, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, it := range h.items {
		if it.FileID == fileID {
			return it, true
		}
	}
	return model.HistoryItem{}, false
}

// Len returns the number of items.
func (h *Store) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.items)
}

// dedupe keeps the first occurrence of every file id, up to limit entries.
func dedupe(items []model.HistoryItem, limit int) []model.HistoryItem {
	seen := make(map[string]struct{}, len(items))
	out := make([]model.HistoryItem, 0, len(items))
	for _, it := range items {
		if _, ok := seen[it.FileID]; ok {
			continue
		}
		seen[it.FileID] = struct{}{}
		out = append(out, it)
		if len(out) == limit {
			break
		}
	}
	return out
}
