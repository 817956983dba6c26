// README: Pricing service computes deterministic fare quotes.
package pricing

import (
	"math"
	"time"

	"freightgo/internal/config"
	"freightgo/internal/types"
)

// Service is a pure calculator: same inputs, same quote. No stores, no clock.
type Service struct {
	cfg config.PricingConfig
}

func NewService(cfg config.PricingConfig) *Service {
	return &Service{cfg: cfg}
}

// Quote prices a job: base rate times distance, multiplied in sequence by the
// vehicle-class, weight-tier, urgency, and time-of-day coefficients, floored
// at the minimum fare, rounded half-up to whole cents.
func (s *Service) Quote(distanceKm float64, class VehicleClass, weightKg float64, urgent bool, at time.Time) Quote {
	q := Quote{
		DistanceKm:    distanceKm,
		VehicleClass:  class,
		BaseRatePerKm: types.Money{Amount: s.cfg.BaseRatePerKmCents, Currency: s.cfg.Currency},
		ClassCoef:     Spec(class).Coefficient,
		WeightCoef:    weightCoefficient(weightKg),
		UrgencyCoef:   1.0,
		TimeOfDayCoef: timeOfDayCoefficient(at),
		MinimumFare:   types.Money{Amount: s.cfg.MinimumFareCents, Currency: s.cfg.Currency},
		QuotedAt:      at,
	}
	if urgent {
		q.UrgencyCoef = 1.5
	}

	amount := float64(s.cfg.BaseRatePerKmCents) * distanceKm
	amount *= q.ClassCoef
	amount *= q.WeightCoef
	amount *= q.UrgencyCoef
	amount *= q.TimeOfDayCoef

	cents := roundHalfUp(amount)
	if cents < s.cfg.MinimumFareCents {
		cents = s.cfg.MinimumFareCents
		q.MinimumApplied = true
	}
	q.Total = types.Money{Amount: cents, Currency: s.cfg.Currency}
	return q
}

// RecommendClass maps cargo weight (kg) to the smallest standard class that
// carries it.
func RecommendClass(weightKg float64) VehicleClass {
	t := weightKg / 1000.0
	switch {
	case t <= 3.5:
		return ClassLightVan
	case t <= 7.5:
		return ClassLightTruck
	case t <= 19.0:
		return ClassMediumTruck
	default:
		return ClassHeavyTruck
	}
}

func weightCoefficient(weightKg float64) float64 {
	switch {
	case weightKg <= 100:
		return 1.0
	case weightKg <= 500:
		return 1.1
	case weightKg <= 1000:
		return 1.2
	case weightKg <= 5000:
		return 1.4
	default:
		return 1.6
	}
}

// Peak hours are 7-9 and 17-19 local time, off-peak is 22-6.
func timeOfDayCoefficient(at time.Time) float64 {
	h := at.Hour()
	if (h >= 7 && h <= 9) || (h >= 17 && h <= 19) {
		return 1.2
	}
	if h >= 22 || h <= 6 {
		return 0.9
	}
	return 1.0
}

func roundHalfUp(v float64) int64 {
	return int64(math.Floor(v + 0.5))
}
