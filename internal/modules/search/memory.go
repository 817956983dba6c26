// README: In-memory search session store.
package search

import (
	"context"
	"sync"
	"time"

	"freightgo/internal/types"
)

type MemoryStore struct {
	mu       sync.Mutex
	sessions map[types.ID]*Session
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{sessions: make(map[types.ID]*Session)}
}

func (m *MemoryStore) Get(_ context.Context, id types.ID) (*Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[id]
	if !ok {
		return nil, ErrSessionNotFound
	}
	return cloneSession(s), nil
}

func (m *MemoryStore) Save(_ context.Context, s *Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sessions[s.ID] = cloneSession(s)
	return nil
}

func (m *MemoryStore) Deactivate(_ context.Context, id types.ID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[id]
	if !ok {
		return ErrSessionNotFound
	}
	s.Active = false
	return nil
}

func (m *MemoryStore) DeactivateExpired(_ context.Context, now time.Time) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, s := range m.sessions {
		if s.Active && s.Expired(now) {
			s.Active = false
			n++
		}
	}
	return n, nil
}

func cloneSession(s *Session) *Session {
	cp := *s
	cp.Candidates = append(cp.Candidates[:0:0], s.Candidates...)
	return &cp
}
