// README: Tracking service; position fan-out and delivery progress snapshots.
package tracking

import (
	"context"
	"errors"
	"math"
	"time"

	"go.uber.org/zap"

	"freightgo/internal/config"
	"freightgo/internal/metrics"
	"freightgo/internal/modules/fleet"
	"freightgo/internal/modules/geo"
	"freightgo/internal/modules/order"
	"freightgo/internal/notify"
	"freightgo/internal/types"
)

type Service struct {
	fleet    fleet.Store
	jobs     order.Store
	notifier notify.Notifier
	cfg      config.MatchingConfig
	log      *zap.Logger
}

func NewService(fleetStore fleet.Store, jobs order.Store, notifier notify.Notifier, cfg config.MatchingConfig, log *zap.Logger) *Service {
	return &Service{fleet: fleetStore, jobs: jobs, notifier: notifier, cfg: cfg, log: log}
}

// UpdatePosition moves the driver (and assigned vehicle) and streams the new
// position to the clients of every job the driver is actively carrying.
func (s *Service) UpdatePosition(ctx context.Context, driverID types.ID, pos types.Point) error {
	if !pos.Valid() {
		return geo.ErrInvalidCoordinates
	}
	if err := s.fleet.SetPosition(ctx, driverID, pos); err != nil {
		return err
	}
	metrics.PositionUpdatesTotal.Inc()

	active, err := s.jobs.ActiveByDriver(ctx, driverID)
	if err != nil {
		s.log.Warn("active job lookup failed", zap.String("driver_id", string(driverID)), zap.Error(err))
		return nil
	}
	for _, j := range active {
		s.push(ctx, notify.ClientTrackingTopic(j.ClientID), "driver_position", map[string]any{
			"job_id": j.ID, "position": pos,
		})
	}
	return nil
}

// SetOnline toggles the driver's matchability flag. Going offline never
// releases reservations; in-flight jobs keep their driver.
func (s *Service) SetOnline(ctx context.Context, driverID types.ID, online bool) error {
	if err := s.fleet.SetOnline(ctx, driverID, online); err != nil {
		return err
	}
	msgType := "driver_online"
	if !online {
		msgType = "driver_offline"
	}
	active, err := s.jobs.ActiveByDriver(ctx, driverID)
	if err != nil {
		s.log.Warn("active job lookup failed", zap.String("driver_id", string(driverID)), zap.Error(err))
		return nil
	}
	for _, j := range active {
		s.push(ctx, notify.ClientTrackingTopic(j.ClientID), msgType, map[string]any{
			"job_id": j.ID,
		})
	}
	return nil
}

// Snapshot builds the tracking view for one job: lifecycle progress, the
// driver's last position and arrival estimates at the nominal tracking speed.
func (s *Service) Snapshot(ctx context.Context, jobID types.ID) (*Snapshot, error) {
	j, err := s.jobs.Get(ctx, jobID)
	if err != nil {
		return nil, err
	}
	snap := &Snapshot{
		JobID:           j.ID,
		Reference:       j.Reference,
		Status:          j.Status,
		ProgressPercent: progressFor(j.Status),
	}

	if events, err := s.jobs.Events(ctx, jobID); err == nil {
		snap.Steps = events
	}

	if j.DriverID == nil {
		return snap, nil
	}
	d, err := s.fleet.GetDriver(ctx, *j.DriverID)
	if err != nil {
		return snap, nil
	}
	snap.DriverPosition = &d.Position

	now := time.Now()
	switch j.Status {
	case order.StatusAccepted, order.StatusEnRoute:
		toPickup := geo.HaversineKm(d.Position, j.Pickup)
		pickupAt := now.Add(s.travelTime(toPickup))
		deliveryAt := now.Add(s.travelTime(toPickup + j.DistanceKm))
		snap.EstimatedPickupAt = &pickupAt
		snap.EstimatedDeliveryAt = &deliveryAt
	case order.StatusPickedUp, order.StatusInDelivery:
		deliveryAt := now.Add(s.travelTime(geo.HaversineKm(d.Position, j.Dropoff)))
		snap.EstimatedDeliveryAt = &deliveryAt
	}
	return snap, nil
}

// AddStep records a driver-supplied waypoint note on the job's trail and
// forwards it to the client's tracking stream.
func (s *Service) AddStep(ctx context.Context, jobID, driverID types.ID, note string) error {
	j, err := s.jobs.Get(ctx, jobID)
	if err != nil {
		return err
	}
	if j.DriverID == nil || *j.DriverID != driverID {
		return order.ErrNotAssignedDriver
	}
	e := &order.Event{
		JobID:      j.ID,
		FromStatus: j.Status,
		ToStatus:   j.Status,
		ActorType:  "driver",
		ActorID:    &driverID,
		Note:       &note,
		CreatedAt:  time.Now(),
	}
	if err := s.jobs.AppendEvent(ctx, e); err != nil {
		return err
	}
	s.push(ctx, notify.ClientTrackingTopic(j.ClientID), "delivery_step", map[string]any{
		"job_id": j.ID, "note": note,
	})
	return nil
}

func (s *Service) travelTime(distanceKm float64) time.Duration {
	minutes := math.Ceil(distanceKm / s.cfg.TrackingSpeedKmH * 60)
	return time.Duration(minutes) * time.Minute
}

func (s *Service) push(ctx context.Context, topic, msgType string, payload any) {
	err := s.notifier.Notify(ctx, topic, notify.Message{Type: msgType, Payload: payload})
	if err != nil && !errors.Is(err, notify.ErrNoSubscriber) {
		metrics.NotifyFailuresTotal.Inc()
		s.log.Warn("notification dropped", zap.String("topic", topic), zap.Error(err))
	}
}
