// README: Proximity matcher; read-only ranking of compatible vehicles.
package matching

import (
	"context"
	"math"

	"go.uber.org/zap"

	"freightgo/internal/config"
	"freightgo/internal/modules/account"
	"freightgo/internal/modules/fleet"
	"freightgo/internal/modules/geo"
	"freightgo/internal/types"
)

// Service ranks available vehicle/driver pairs around a pickup point. It has
// no side effects; reservation happens in the order lifecycle.
type Service struct {
	fleet    fleet.Store
	accounts account.Store
	cfg      config.MatchingConfig
	log      *zap.Logger
}

func NewService(fleetStore fleet.Store, accounts account.Store, cfg config.MatchingConfig, log *zap.Logger) *Service {
	return &Service{fleet: fleetStore, accounts: accounts, cfg: cfg, log: log}
}

// FindCandidates returns compatible pairs within radiusKm of pickup, sorted
// ascending by distance-from-pickup. Drivers must be online and available,
// vehicles available and capacity-compatible.
func (s *Service) FindCandidates(ctx context.Context, pickup types.Point, req Requirements, radiusKm float64) ([]Candidate, error) {
	if radiusKm <= 0 {
		radiusKm = s.cfg.DefaultRadiusKm
	}
	ids, err := s.fleet.NearbyDriverIDs(ctx, pickup, radiusKm)
	if err != nil {
		return nil, err
	}

	out := make([]Candidate, 0, len(ids))
	for _, driverID := range ids {
		d, err := s.fleet.GetDriver(ctx, driverID)
		if err != nil || !d.Online || !d.Available || d.VehicleID == "" {
			continue
		}
		v, err := s.fleet.GetVehicle(ctx, d.VehicleID)
		if err != nil || !v.Available || !v.CanCarry(req.WeightKg, req.VolumeM3) {
			continue
		}
		// Great-circle distance on purpose: routing every candidate through
		// the estimator would cost one provider call per driver in the pool.
		dist := math.Round(geo.HaversineKm(pickup, d.Position)*100) / 100
		if dist > radiusKm {
			continue
		}
		c := candidateFrom(v, d)
		c.DistanceFromPickup = dist
		c.EtaMinutes = int(math.Ceil(dist / s.cfg.AverageSpeedKmH * 60))
		c.ImmediatelyAvailable = float64(c.EtaMinutes) <= s.cfg.ImmediateEtaMin
		if u, err := s.accounts.Get(ctx, driverID); err == nil {
			c.DriverRating = u.Rating
			c.DriverCompletedJobs = u.CompletedJobs
		}
		out = append(out, c)
	}

	geo.SortByDistance(out, func(c Candidate) float64 { return c.DistanceFromPickup })
	return out, nil
}

// DriverCompatible reports whether a driver can take cargo of the given
// requirements with their currently assigned vehicle. Used by direct-job
// accepts, where any compatible driver may claim the job.
func (s *Service) DriverCompatible(ctx context.Context, driverID types.ID, req Requirements) (bool, error) {
	d, err := s.fleet.GetDriver(ctx, driverID)
	if err != nil {
		return false, err
	}
	if !d.Online || d.VehicleID == "" {
		return false, nil
	}
	v, err := s.fleet.GetVehicle(ctx, d.VehicleID)
	if err != nil {
		return false, err
	}
	return v.CanCarry(req.WeightKg, req.VolumeM3), nil
}
