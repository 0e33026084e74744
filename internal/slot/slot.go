// Package slot provides durable named cells that survive process restarts.
//
// A Slot is read once when opened and written through on every change, so
// a reader of the backing Store always observes the latest value.
package slot

import (
	"encoding/json"
	"fmt"
	"log"
	"sync"
)

// Slot is a typed durable cell.
type Slot[T any] struct {
	mu    sync.Mutex
	store Store
	name  string
	value T
	set   bool
}

// Open reads the current value of name from store. A value that fails to
// decode is logged and treated as absent.
func Open[T any](store Store, name string) (*Slot[T], error) {
	s := &Slot[T]{store: store, name: name}

	data, ok, err := store.Load(name)
	if err != nil {
		return nil, err
	}
	if !ok || len(data) == 0 || string(data) == "null" {
		return s, nil
	}

	var v T
	if err := json.Unmarshal(data, &v); err != nil {
		log.Printf("slot: ignoring unreadable value for %s: %v", name, err)
		return s, nil
	}
	s.value = v
	s.set = true
	return s, nil
}

// Name returns the slot name.
func (s *Slot[T]) Name() string { return s.name }

// Get returns the value and whether one is set.
func (s *Slot[T]) Get() (T, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.value, s.set
}

// Set stores v and writes it through to the backing store.
func (s *Slot[T]) Set(v T) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("slot: marshal %s: %w", s.name, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.store.Save(s.name, data); err != nil {
		return err
	}
	s.value = v
	s.set = true
	return nil
}

// Clear removes the value from memory and from the backing store.
func (s *Slot[T]) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.store.Delete(s.name); err != nil {
		return err
	}
	var zero T
	s.value = zero
	s.set = false
	return nil
}
