// README: In-memory job store; CAS semantics under one lock.
package order

import (
	"context"
	"sort"
	"sync"
	"time"

	"freightgo/internal/types"
)

type MemoryStore struct {
	mu     sync.Mutex
	jobs   map[types.ID]*TransportJob
	events map[types.ID][]Event
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		jobs:   make(map[types.ID]*TransportJob),
		events: make(map[types.ID][]Event),
	}
}

func (m *MemoryStore) Create(_ context.Context, j *TransportJob) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *j
	m.jobs[j.ID] = &cp
	return nil
}

func (m *MemoryStore) Get(_ context.Context, id types.ID) (*TransportJob, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	j, ok := m.jobs[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *j
	return &cp, nil
}

func (m *MemoryStore) UpdateStatus(_ context.Context, id types.ID, from, to Status, version int, driverID, vehicleID *types.ID, reason *string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	j, ok := m.jobs[id]
	if !ok {
		return false, ErrNotFound
	}
	if j.Status != from || j.StatusVersion != version {
		return false, nil
	}

	j.Status = to
	j.StatusVersion++
	if driverID != nil {
		d := *driverID
		j.DriverID = &d
	}
	if vehicleID != nil {
		v := *vehicleID
		j.VehicleID = &v
	}

	now := time.Now()
	switch to {
	case StatusAccepted:
		j.AcceptedAt = &now
	case StatusEnRoute:
		j.PickupEffectiveAt = &now
	case StatusPickedUp:
		j.PickedUpAt = &now
	case StatusDelivered:
		j.DeliveredAt = &now
	case StatusCancelled:
		j.CancelledAt = &now
		j.CancelReason = reason
	case StatusRefused:
		j.RefusalReason = reason
	}
	return true, nil
}

func (m *MemoryStore) SetRating(_ context.Context, id types.ID, rater string, rating float64, comment *string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	j, ok := m.jobs[id]
	if !ok {
		return false, ErrNotFound
	}
	if rater == "client" {
		if j.ClientRating != nil {
			return false, nil
		}
		j.ClientRating = &rating
		j.ClientComment = comment
	} else {
		if j.DriverRating != nil {
			return false, nil
		}
		j.DriverRating = &rating
		j.DriverComment = comment
	}
	return true, nil
}

func (m *MemoryStore) AvgClientRatingForDriver(_ context.Context, driverID types.ID) (float64, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var sum float64
	var n int
	for _, j := range m.jobs {
		if j.DriverID != nil && *j.DriverID == driverID && j.ClientRating != nil {
			sum += *j.ClientRating
			n++
		}
	}
	if n == 0 {
		return 0, false, nil
	}
	return sum / float64(n), true, nil
}

func (m *MemoryStore) AvgDriverRatingForClient(_ context.Context, clientID types.ID) (float64, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var sum float64
	var n int
	for _, j := range m.jobs {
		if j.ClientID == clientID && j.DriverRating != nil {
			sum += *j.DriverRating
			n++
		}
	}
	if n == 0 {
		return 0, false, nil
	}
	return sum / float64(n), true, nil
}

func (m *MemoryStore) AppendEvent(_ context.Context, e *Event) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events[e.JobID] = append(m.events[e.JobID], *e)
	return nil
}

func (m *MemoryStore) Events(_ context.Context, jobID types.ID) ([]Event, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]Event(nil), m.events[jobID]...), nil
}

func (m *MemoryStore) ListByClient(_ context.Context, clientID types.ID) ([]*TransportJob, error) {
	return m.list(func(j *TransportJob) bool { return j.ClientID == clientID }), nil
}

func (m *MemoryStore) ListByDriver(_ context.Context, driverID types.ID) ([]*TransportJob, error) {
	return m.list(func(j *TransportJob) bool {
		return j.DriverID != nil && *j.DriverID == driverID
	}), nil
}

func (m *MemoryStore) ListByStatus(_ context.Context, status Status) ([]*TransportJob, error) {
	return m.list(func(j *TransportJob) bool { return j.Status == status }), nil
}

func (m *MemoryStore) ActiveByDriver(_ context.Context, driverID types.ID) ([]*TransportJob, error) {
	return m.list(func(j *TransportJob) bool {
		if j.DriverID == nil || *j.DriverID != driverID {
			return false
		}
		for _, s := range ActiveStatuses {
			if j.Status == s {
				return true
			}
		}
		return false
	}), nil
}

func (m *MemoryStore) list(keep func(*TransportJob) bool) []*TransportJob {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*TransportJob
	for _, j := range m.jobs {
		if keep(j) {
			cp := *j
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, k int) bool { return out[i].CreatedAt.After(out[k].CreatedAt) })
	return out
}
