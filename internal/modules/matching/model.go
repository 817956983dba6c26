// README: Matching inputs and ranked candidate results.
package matching

import (
	"freightgo/internal/modules/fleet"
	"freightgo/internal/modules/pricing"
	"freightgo/internal/types"
)

// Requirements describes the cargo a candidate vehicle must carry.
type Requirements struct {
	WeightKg float64
	VolumeM3 *float64
}

// Candidate is one available vehicle/driver pair ranked by the matcher.
type Candidate struct {
	VehicleID            types.ID             `json:"vehicle_id"`
	DriverID             types.ID             `json:"driver_id"`
	VehicleClass         pricing.VehicleClass `json:"vehicle_class"`
	Registration         string               `json:"registration"`
	Position             types.Point          `json:"position"`
	DistanceFromPickup   float64              `json:"distance_from_pickup_km"`
	EtaMinutes           int                  `json:"eta_minutes"`
	ImmediatelyAvailable bool                 `json:"immediately_available"`
	DriverRating         float64              `json:"driver_rating"`
	DriverCompletedJobs  int                  `json:"driver_completed_jobs"`
}

func candidateFrom(v *fleet.Vehicle, d *fleet.DriverState) Candidate {
	return Candidate{
		VehicleID:    v.ID,
		DriverID:     d.ID,
		VehicleClass: v.Class,
		Registration: v.Registration,
		Position:     d.Position,
	}
}
