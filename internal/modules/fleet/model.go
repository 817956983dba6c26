// README: Fleet availability projection: vehicles and driver state.
package fleet

import (
	"freightgo/internal/modules/pricing"
	"freightgo/internal/types"
)

// Vehicle is the dispatchable unit. Available is false for the whole time the
// vehicle is held by a non-terminal job.
type Vehicle struct {
	ID           types.ID
	OwnerID      types.ID
	Registration string
	Class        pricing.VehicleClass
	WeightCapT   float64
	VolumeCapM3  float64
	Position     types.Point
	Available    bool
	Version      int
}

// DriverState mirrors the driver's dispatch-relevant fields. Online is a soft
// reachability flag: going offline never releases a reservation, it only
// excludes the driver from new matches.
type DriverState struct {
	ID        types.ID
	VehicleID types.ID
	Position  types.Point
	Available bool
	Online    bool
	Version   int
}

// CanCarry reports whether the vehicle fits the cargo. Weight arrives in kg
// and is compared against the capacity in tonnes; volume is optional.
func (v *Vehicle) CanCarry(weightKg float64, volumeM3 *float64) bool {
	if v.WeightCapT < weightKg/1000.0 {
		return false
	}
	if volumeM3 != nil && v.VolumeCapM3 < *volumeM3 {
		return false
	}
	return true
}
