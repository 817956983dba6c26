// README: Vehicle classes and price quote definitions.
package pricing

import (
	"time"

	"freightgo/internal/types"
)

type VehicleClass string

const (
	ClassLightVan          VehicleClass = "LIGHT_VAN"
	ClassLightTruck        VehicleClass = "LIGHT_TRUCK"
	ClassMediumTruck       VehicleClass = "MEDIUM_TRUCK"
	ClassHeavyTruck        VehicleClass = "HEAVY_TRUCK"
	ClassRefrigeratedTruck VehicleClass = "REFRIGERATED_TRUCK"
	ClassTipperTruck       VehicleClass = "TIPPER_TRUCK"
)

// ClassSpec carries the pricing coefficient and nominal capacities of a class.
type ClassSpec struct {
	Coefficient float64
	MaxWeightT  float64
	MaxVolumeM3 float64
}

var classSpecs = map[VehicleClass]ClassSpec{
	ClassLightVan:          {Coefficient: 1.0, MaxWeightT: 3.5, MaxVolumeM3: 15.0},
	ClassLightTruck:        {Coefficient: 1.3, MaxWeightT: 7.5, MaxVolumeM3: 25.0},
	ClassMediumTruck:       {Coefficient: 1.6, MaxWeightT: 19.0, MaxVolumeM3: 40.0},
	ClassHeavyTruck:        {Coefficient: 2.0, MaxWeightT: 40.0, MaxVolumeM3: 80.0},
	ClassRefrigeratedTruck: {Coefficient: 1.8, MaxWeightT: 19.0, MaxVolumeM3: 45.0},
	ClassTipperTruck:       {Coefficient: 1.7, MaxWeightT: 30.0, MaxVolumeM3: 35.0},
}

// Spec returns the class table entry; unknown classes fall back to light van.
func Spec(c VehicleClass) ClassSpec {
	if s, ok := classSpecs[c]; ok {
		return s
	}
	return classSpecs[ClassLightVan]
}

func (c VehicleClass) Known() bool {
	_, ok := classSpecs[c]
	return ok
}

// Quote keeps each applied coefficient so the same computation can be
// replayed when a search estimate becomes a binding order price.
type Quote struct {
	DistanceKm     float64      `json:"distance_km"`
	VehicleClass   VehicleClass `json:"vehicle_class"`
	BaseRatePerKm  types.Money  `json:"base_rate_per_km"`
	ClassCoef      float64      `json:"class_coef"`
	WeightCoef     float64      `json:"weight_coef"`
	UrgencyCoef    float64      `json:"urgency_coef"`
	TimeOfDayCoef  float64      `json:"time_of_day_coef"`
	MinimumFare    types.Money  `json:"minimum_fare"`
	MinimumApplied bool         `json:"minimum_applied"`
	QuotedAt       time.Time    `json:"quoted_at"`
	Total          types.Money  `json:"total"`
}
