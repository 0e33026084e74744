// Package session owns the server-issued session id.
package session

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/tinytelemetry/tflog/internal/model"
	"github.com/tinytelemetry/tflog/internal/slot"
)

var errEmptySession = errors.New("session: backend returned empty id")

// Manager creates the session id lazily and keeps it for the process lifetime.
type Manager struct {
	// mu serializes creation; idMu guards reads of id so ID never waits on
	// a network call.
	mu      sync.Mutex
	idMu    sync.RWMutex
	slot    *slot.Slot[string]
	creator model.SessionCreator
	now     func() time.Time
	id      string
}

// NewManager returns a Manager seeded from any id already in s.
func NewManager(s *slot.Slot[string], creator model.SessionCreator) *Manager {
	m := &Manager{slot: s, creator: creator, now: time.Now}
	if id, ok := s.Get(); ok {
		m.id = id
	}
	return m
}

// SetClock overrides the clock used for synthesized ids.
func (m *Manager) SetClock(now func() time.Time) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if now != nil {
		m.now = now
	}
}

// ID returns the active session id, or "" before EnsureSession.
func (m *Manager) ID() string {
	m.idMu.RLock()
	defer m.idMu.RUnlock()
	return m.id
}

// EnsureSession returns the active id, asking the backend for one if none is
// stored. When the backend cannot provide one a local id is synthesized so
// history stays browsable offline. It never fails.
func (m *Manager) EnsureSession(ctx context.Context) string {
	m.mu.Lock()
	defer m.mu.Unlock()

	if id := m.ID(); id != "" {
		return id
	}

	id, err := m.create(ctx)
	if err != nil {
		id = fmt.Sprintf("client_%d", m.now().UnixMilli())
		log.Printf("session: backend unavailable, using local id %s: %v", id, err)
	}
	if err := m.slot.Set(id); err != nil {
		log.Printf("session: persist id: %v", err)
	}
	m.idMu.Lock()
	m.id = id
	m.idMu.Unlock()
	return id
}

func (m *Manager) create(ctx context.Context) (string, error) {
	if m.creator == nil {
		return "", errors.New("session: no backend")
	}
	id, err := m.creator.GetSession(ctx)
	if err != nil {
		return "", err
	}
	if id == "" {
		return "", errEmptySession
	}
	return id, nil
}
