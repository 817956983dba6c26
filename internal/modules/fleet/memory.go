// README: In-memory fleet store; a single lock gives reservation atomicity.
package fleet

import (
	"context"
	"sync"

	"freightgo/internal/modules/geo"
	"freightgo/internal/types"
)

type MemoryStore struct {
	mu       sync.Mutex
	vehicles map[types.ID]*Vehicle
	drivers  map[types.ID]*DriverState
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		vehicles: make(map[types.ID]*Vehicle),
		drivers:  make(map[types.ID]*DriverState),
	}
}

func (m *MemoryStore) GetVehicle(_ context.Context, id types.ID) (*Vehicle, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.vehicles[id]
	if !ok {
		return nil, ErrVehicleNotFound
	}
	cp := *v
	return &cp, nil
}

func (m *MemoryStore) GetDriver(_ context.Context, id types.ID) (*DriverState, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	d, ok := m.drivers[id]
	if !ok {
		return nil, ErrDriverNotFound
	}
	cp := *d
	return &cp, nil
}

func (m *MemoryStore) SaveVehicle(_ context.Context, v *Vehicle) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *v
	m.vehicles[v.ID] = &cp
	return nil
}

func (m *MemoryStore) SaveDriver(_ context.Context, d *DriverState) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *d
	m.drivers[d.ID] = &cp
	return nil
}

func (m *MemoryStore) Reserve(_ context.Context, driverID, vehicleID types.ID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	d, ok := m.drivers[driverID]
	if !ok {
		return ErrDriverNotFound
	}
	v, ok := m.vehicles[vehicleID]
	if !ok {
		return ErrVehicleNotFound
	}
	if !d.Available {
		return ErrDriverUnavailable
	}
	if !v.Available {
		return ErrVehicleUnavailable
	}
	d.Available = false
	d.Version++
	v.Available = false
	v.Version++
	return nil
}

func (m *MemoryStore) Release(_ context.Context, driverID, vehicleID types.ID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if d, ok := m.drivers[driverID]; ok && !d.Available {
		d.Available = true
		d.Version++
	}
	if v, ok := m.vehicles[vehicleID]; ok && !v.Available {
		v.Available = true
		v.Version++
	}
	return nil
}

func (m *MemoryStore) SetPosition(_ context.Context, driverID types.ID, pos types.Point) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	d, ok := m.drivers[driverID]
	if !ok {
		return ErrDriverNotFound
	}
	d.Position = pos
	if v, ok := m.vehicles[d.VehicleID]; ok {
		v.Position = pos
	}
	return nil
}

func (m *MemoryStore) SetOnline(_ context.Context, driverID types.ID, online bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	d, ok := m.drivers[driverID]
	if !ok {
		return ErrDriverNotFound
	}
	d.Online = online
	return nil
}

func (m *MemoryStore) NearbyDriverIDs(_ context.Context, p types.Point, radiusKm float64) ([]types.ID, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	type hit struct {
		id   types.ID
		dist float64
	}
	hits := make([]hit, 0, len(m.drivers))
	for _, d := range m.drivers {
		if !d.Online {
			continue
		}
		dist := geo.HaversineKm(p, d.Position)
		if dist <= radiusKm {
			hits = append(hits, hit{id: d.ID, dist: dist})
		}
	}
	geo.SortByDistance(hits, func(h hit) float64 { return h.dist })
	ids := make([]types.ID, len(hits))
	for i, h := range hits {
		ids[i] = h.id
	}
	return ids, nil
}
