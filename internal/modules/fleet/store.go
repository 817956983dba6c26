// README: Fleet store contract; reservation is a conditional (CAS) update.
package fleet

import (
	"context"
	"errors"

	"freightgo/internal/types"
)

var (
	ErrVehicleNotFound    = errors.New("vehicle not found")
	ErrDriverNotFound     = errors.New("driver not found")
	ErrDriverUnavailable  = errors.New("driver unavailable")
	ErrVehicleUnavailable = errors.New("vehicle unavailable")
)

type Store interface {
	GetVehicle(ctx context.Context, id types.ID) (*Vehicle, error)
	GetDriver(ctx context.Context, id types.ID) (*DriverState, error)
	SaveVehicle(ctx context.Context, v *Vehicle) error
	SaveDriver(ctx context.Context, d *DriverState) error

	// Reserve marks the driver and the vehicle unavailable as one atomic unit.
	// It fails with ErrDriverUnavailable or ErrVehicleUnavailable when either
	// precondition no longer holds, leaving no partial reservation behind.
	Reserve(ctx context.Context, driverID, vehicleID types.ID) error
	// Release is the idempotent inverse of Reserve.
	Release(ctx context.Context, driverID, vehicleID types.ID) error

	// SetPosition moves the driver and, when assigned, their vehicle.
	SetPosition(ctx context.Context, driverID types.ID, pos types.Point) error
	// SetOnline toggles matchability; it never touches reservations.
	SetOnline(ctx context.Context, driverID types.ID, online bool) error

	// NearbyDriverIDs returns online drivers within radiusKm of p, nearest
	// first. Availability and capacity filtering is the matcher's job.
	NearbyDriverIDs(ctx context.Context, p types.Point, radiusKm float64) ([]types.ID, error)
}
