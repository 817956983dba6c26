// README: Distance estimator; provider-backed with a deterministic haversine fallback.
package geo

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"freightgo/internal/types"
)

var ErrInvalidCoordinates = errors.New("coordinates out of range")

// DistanceProvider is the external routing/distance dependency. It returns a
// road distance in meters; any error is treated as "provider unavailable".
type DistanceProvider interface {
	RoadDistanceMeters(ctx context.Context, from, to types.Point) (float64, error)
}

const providerTimeout = 2 * time.Second

// Estimator computes point-to-point distances in km, rounded to 2 decimals.
// The provider is optional; without one every call uses the great-circle
// fallback, which never fails for valid coordinates.
type Estimator struct {
	provider DistanceProvider
	log      *zap.Logger
}

func NewEstimator(provider DistanceProvider, log *zap.Logger) *Estimator {
	return &Estimator{provider: provider, log: log}
}

func (e *Estimator) Distance(ctx context.Context, from, to types.Point) (float64, error) {
	if !from.Valid() || !to.Valid() {
		return 0, ErrInvalidCoordinates
	}
	if e.provider != nil {
		pctx, cancel := context.WithTimeout(ctx, providerTimeout)
		meters, err := e.provider.RoadDistanceMeters(pctx, from, to)
		cancel()
		if err == nil && meters >= 0 {
			return round2(meters / 1000.0), nil
		}
		if e.log != nil {
			e.log.Warn("distance provider unavailable, using fallback", zap.Error(err))
		}
	}
	return round2(HaversineKm(from, to)), nil
}
