// README: In-memory account store used by tests and DSN-less runs.
package account

import (
	"context"
	"sync"

	"freightgo/internal/types"
)

type MemoryStore struct {
	mu    sync.Mutex
	users map[types.ID]*User
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{users: make(map[types.ID]*User)}
}

func (m *MemoryStore) Get(_ context.Context, id types.ID) (*User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *u
	return &cp, nil
}

func (m *MemoryStore) Save(_ context.Context, u *User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *u
	m.users[u.ID] = &cp
	return nil
}

func (m *MemoryStore) SetRating(_ context.Context, id types.ID, rating float64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[id]
	if !ok {
		return ErrNotFound
	}
	u.Rating = rating
	return nil
}

func (m *MemoryStore) IncrementCompleted(_ context.Context, id types.ID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[id]
	if !ok {
		return ErrNotFound
	}
	switch u.Role {
	case RoleDriver:
		u.CompletedJobs++
	default:
		u.CompletedOrders++
	}
	return nil
}
