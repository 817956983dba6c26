// README: Job lifecycle service; reservation and CAS transitions live here.
package order

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"math"
	"time"

	"go.uber.org/zap"

	"freightgo/internal/config"
	"freightgo/internal/metrics"
	"freightgo/internal/modules/account"
	"freightgo/internal/modules/fleet"
	"freightgo/internal/modules/geo"
	"freightgo/internal/modules/matching"
	"freightgo/internal/modules/pricing"
	"freightgo/internal/modules/search"
	"freightgo/internal/notify"
	"freightgo/internal/types"
)

var (
	ErrBadRequest            = errors.New("bad request")
	ErrConflict              = errors.New("job state conflict")
	ErrInvalidTransition     = errors.New("invalid status transition")
	ErrSessionInactive       = errors.New("search session inactive")
	ErrDriverVehicleMismatch = errors.New("driver not assigned to chosen vehicle")
	ErrJobNotPending         = errors.New("job not pending")
	ErrNotAssignedDriver     = errors.New("driver not assigned to job")
	ErrDriverIncompatible    = errors.New("driver vehicle cannot carry cargo")
	ErrUnreachableRoute      = errors.New("no route between pickup and dropoff")
	ErrNotDelivered          = errors.New("job not delivered")
	ErrAlreadyRated          = errors.New("job already rated by this role")
	ErrInvalidRating         = errors.New("rating out of range")
)

// SearchSessions is the slice of the search module the lifecycle needs.
type SearchSessions interface {
	Get(ctx context.Context, id types.ID) (*search.Session, error)
	Deactivate(ctx context.Context, id types.ID) error
}

type Service struct {
	store     Store
	fleet     fleet.Store
	accounts  account.Store
	sessions  SearchSessions
	matcher   *matching.Service
	estimator *geo.Estimator
	pricing   *pricing.Service
	notifier  notify.Notifier
	cfg       config.MatchingConfig
	log       *zap.Logger
}

func NewService(store Store, fleetStore fleet.Store, accounts account.Store, sessions SearchSessions, matcher *matching.Service, estimator *geo.Estimator, pricingSvc *pricing.Service, notifier notify.Notifier, cfg config.MatchingConfig, log *zap.Logger) *Service {
	return &Service{
		store:     store,
		fleet:     fleetStore,
		accounts:  accounts,
		sessions:  sessions,
		matcher:   matcher,
		estimator: estimator,
		pricing:   pricingSvc,
		notifier:  notifier,
		cfg:       cfg,
		log:       log,
	}
}

type CreateFromSearchCommand struct {
	SessionID types.ID
	VehicleID types.ID
	DriverID  types.ID
}

type CreateDirectCommand struct {
	ClientID     types.ID
	Pickup       types.Point
	Dropoff      types.Point
	WeightKg     float64
	VolumeM3     *float64
	VehicleClass pricing.VehicleClass // empty = recommend from weight
	Urgent       bool
	Description  string
}

type AcceptCommand struct {
	JobID    types.ID
	DriverID types.ID
}

type RefuseCommand struct {
	JobID    types.ID
	DriverID types.ID
	Reason   string
}

type ChangeStatusCommand struct {
	JobID     types.ID
	To        Status
	ActorType string
	ActorID   *types.ID
	Reason    string // recorded on CANCELLED
}

type EvaluateCommand struct {
	JobID     types.ID
	RaterRole account.Role
	Rating    float64
	Comment   string
}

// CreateFromSearch turns an active search session into a PENDING job assigned
// to the chosen driver and vehicle. The session is consumed: it deactivates
// whether or not the driver later accepts.
func (s *Service) CreateFromSearch(ctx context.Context, cmd CreateFromSearchCommand) (*TransportJob, error) {
	sess, err := s.sessions.Get(ctx, cmd.SessionID)
	if err != nil {
		return nil, err
	}
	if !sess.Active || sess.Expired(time.Now()) {
		return nil, ErrSessionInactive
	}

	d, err := s.fleet.GetDriver(ctx, cmd.DriverID)
	if err != nil {
		return nil, err
	}
	if !d.Available {
		return nil, fleet.ErrDriverUnavailable
	}
	v, err := s.fleet.GetVehicle(ctx, cmd.VehicleID)
	if err != nil {
		return nil, err
	}
	if !v.Available {
		return nil, fleet.ErrVehicleUnavailable
	}
	if d.VehicleID != cmd.VehicleID {
		return nil, ErrDriverVehicleMismatch
	}

	now := time.Now()
	j := &TransportJob{
		ID:           newID(),
		Reference:    newReference(now),
		ClientID:     sess.ClientID,
		DriverID:     &cmd.DriverID,
		VehicleID:    &cmd.VehicleID,
		SessionID:    &sess.ID,
		Status:       StatusPending,
		Pickup:       sess.Pickup,
		Dropoff:      sess.Dropoff,
		DistanceKm:   sess.DistanceKm,
		WeightKg:     sess.WeightKg,
		VolumeM3:     sess.VolumeM3,
		VehicleClass: sess.VehicleClass,
		Urgent:       sess.Urgent,
		Price:        sess.Quote.Total,
		Quote:        sess.Quote,
		CreatedAt:    now,
	}
	if err := s.store.Create(ctx, j); err != nil {
		return nil, err
	}
	_ = s.store.AppendEvent(ctx, &Event{
		JobID:      j.ID,
		FromStatus: StatusNone,
		ToStatus:   StatusPending,
		ActorType:  "client",
		ActorID:    &j.ClientID,
		CreatedAt:  now,
	})
	if err := s.sessions.Deactivate(ctx, sess.ID); err != nil {
		s.log.Warn("session deactivation failed", zap.String("session_id", string(sess.ID)), zap.Error(err))
	}
	metrics.JobsCreatedTotal.Inc()

	s.push(ctx, notify.DriverJobsTopic(cmd.DriverID), "job_offer", j)
	return j, nil
}

// CreateDirect creates an unassigned PENDING job and broadcasts it to every
// compatible driver nearby; the first compatible accept claims it.
func (s *Service) CreateDirect(ctx context.Context, cmd CreateDirectCommand) (*TransportJob, error) {
	if cmd.ClientID == "" || cmd.WeightKg <= 0 {
		return nil, ErrBadRequest
	}
	if cmd.VehicleClass != "" && !cmd.VehicleClass.Known() {
		return nil, ErrBadRequest
	}

	dist, err := s.estimator.Distance(ctx, cmd.Pickup, cmd.Dropoff)
	if err != nil {
		return nil, ErrUnreachableRoute
	}
	class := cmd.VehicleClass
	if class == "" {
		class = pricing.RecommendClass(cmd.WeightKg)
	}

	now := time.Now()
	quote := s.pricing.Quote(dist, class, cmd.WeightKg, cmd.Urgent, now)
	j := &TransportJob{
		ID:           newID(),
		Reference:    newReference(now),
		ClientID:     cmd.ClientID,
		Status:       StatusPending,
		Pickup:       cmd.Pickup,
		Dropoff:      cmd.Dropoff,
		DistanceKm:   dist,
		WeightKg:     cmd.WeightKg,
		VolumeM3:     cmd.VolumeM3,
		VehicleClass: class,
		Urgent:       cmd.Urgent,
		Description:  cmd.Description,
		Price:        quote.Total,
		Quote:        quote,
		CreatedAt:    now,
	}
	if err := s.store.Create(ctx, j); err != nil {
		return nil, err
	}
	_ = s.store.AppendEvent(ctx, &Event{
		JobID:      j.ID,
		FromStatus: StatusNone,
		ToStatus:   StatusPending,
		ActorType:  "client",
		ActorID:    &j.ClientID,
		CreatedAt:  now,
	})
	metrics.JobsCreatedTotal.Inc()

	req := matching.Requirements{WeightKg: cmd.WeightKg, VolumeM3: cmd.VolumeM3}
	candidates, err := s.matcher.FindCandidates(ctx, cmd.Pickup, req, s.cfg.DefaultRadiusKm)
	if err != nil {
		s.log.Warn("broadcast matching failed", zap.String("job_id", string(j.ID)), zap.Error(err))
		return j, nil
	}
	for _, c := range candidates {
		s.push(ctx, notify.DriverJobsTopic(c.DriverID), "job_offer", j)
	}
	return j, nil
}

// Accept reserves the driver and vehicle, then moves PENDING → ACCEPTED with a
// CAS update. When the CAS loses to a concurrent accept, the reservation is
// compensated so exactly one driver ends up holding the job.
func (s *Service) Accept(ctx context.Context, cmd AcceptCommand) error {
	j, err := s.store.Get(ctx, cmd.JobID)
	if err != nil {
		return err
	}
	if j.Status != StatusPending {
		return ErrJobNotPending
	}

	var vehicleID types.ID
	if j.DriverID != nil {
		if *j.DriverID != cmd.DriverID {
			return ErrNotAssignedDriver
		}
		vehicleID = *j.VehicleID
	} else {
		ok, err := s.matcher.DriverCompatible(ctx, cmd.DriverID, matching.Requirements{WeightKg: j.WeightKg, VolumeM3: j.VolumeM3})
		if err != nil {
			return err
		}
		if !ok {
			return ErrDriverIncompatible
		}
		d, err := s.fleet.GetDriver(ctx, cmd.DriverID)
		if err != nil {
			return err
		}
		vehicleID = d.VehicleID
	}

	if err := s.fleet.Reserve(ctx, cmd.DriverID, vehicleID); err != nil {
		return err
	}
	ok, err := s.store.UpdateStatus(ctx, j.ID, StatusPending, StatusAccepted, j.StatusVersion, &cmd.DriverID, &vehicleID, nil)
	if err != nil || !ok {
		// Another accept won the CAS; give the resources back.
		if rerr := s.fleet.Release(ctx, cmd.DriverID, vehicleID); rerr != nil {
			s.log.Error("compensating release failed", zap.String("driver_id", string(cmd.DriverID)), zap.Error(rerr))
		}
		if err != nil {
			return err
		}
		return ErrConflict
	}

	_ = s.store.AppendEvent(ctx, &Event{
		JobID:      j.ID,
		FromStatus: StatusPending,
		ToStatus:   StatusAccepted,
		ActorType:  "driver",
		ActorID:    &cmd.DriverID,
		CreatedAt:  time.Now(),
	})
	metrics.TransitionsTotal.WithLabelValues(string(StatusAccepted)).Inc()

	s.push(ctx, notify.ClientJobsTopic(j.ClientID), "job_accepted", map[string]any{
		"job_id": j.ID, "driver_id": cmd.DriverID,
	})
	return nil
}

// Refuse declines a PENDING job. A search-originated job is terminal after its
// assigned driver refuses; a broadcast job stays PENDING so other candidates
// can still take it.
func (s *Service) Refuse(ctx context.Context, cmd RefuseCommand) error {
	j, err := s.store.Get(ctx, cmd.JobID)
	if err != nil {
		return err
	}
	if j.Status != StatusPending {
		return ErrJobNotPending
	}
	if j.DriverID == nil {
		s.log.Info("broadcast job refusal ignored",
			zap.String("job_id", string(j.ID)), zap.String("driver_id", string(cmd.DriverID)))
		return nil
	}
	if *j.DriverID != cmd.DriverID {
		return ErrNotAssignedDriver
	}

	reason := cmd.Reason
	ok, err := s.store.UpdateStatus(ctx, j.ID, StatusPending, StatusRefused, j.StatusVersion, nil, nil, &reason)
	if err != nil {
		return err
	}
	if !ok {
		return ErrConflict
	}
	_ = s.store.AppendEvent(ctx, &Event{
		JobID:      j.ID,
		FromStatus: StatusPending,
		ToStatus:   StatusRefused,
		ActorType:  "driver",
		ActorID:    &cmd.DriverID,
		Note:       &reason,
		CreatedAt:  time.Now(),
	})
	metrics.TransitionsTotal.WithLabelValues(string(StatusRefused)).Inc()

	s.push(ctx, notify.ClientJobsTopic(j.ClientID), "job_refused", map[string]any{
		"job_id": j.ID, "reason": cmd.Reason,
	})
	return nil
}

// ChangeStatus moves a job along the delivery path. ACCEPTED and REFUSED have
// dedicated operations because they carry reservation side effects.
func (s *Service) ChangeStatus(ctx context.Context, cmd ChangeStatusCommand) error {
	if cmd.To == StatusAccepted || cmd.To == StatusRefused {
		return ErrInvalidTransition
	}
	j, err := s.store.Get(ctx, cmd.JobID)
	if err != nil {
		return err
	}
	if !CanTransition(j.Status, cmd.To) {
		return ErrInvalidTransition
	}

	var reason *string
	if cmd.To == StatusCancelled && cmd.Reason != "" {
		reason = &cmd.Reason
	}
	ok, err := s.store.UpdateStatus(ctx, j.ID, j.Status, cmd.To, j.StatusVersion, nil, nil, reason)
	if err != nil {
		return err
	}
	if !ok {
		return ErrConflict
	}

	switch cmd.To {
	case StatusDelivered:
		s.releaseResources(ctx, j)
		if err := s.accounts.IncrementCompleted(ctx, *j.DriverID); err != nil {
			s.log.Warn("driver counter increment failed", zap.Error(err))
		}
		if err := s.accounts.IncrementCompleted(ctx, j.ClientID); err != nil {
			s.log.Warn("client counter increment failed", zap.Error(err))
		}
	case StatusCancelled:
		// Reservations only exist after acceptance.
		if j.Status != StatusPending {
			s.releaseResources(ctx, j)
		}
	}

	_ = s.store.AppendEvent(ctx, &Event{
		JobID:      j.ID,
		FromStatus: j.Status,
		ToStatus:   cmd.To,
		ActorType:  cmd.ActorType,
		ActorID:    cmd.ActorID,
		Note:       reason,
		CreatedAt:  time.Now(),
	})
	metrics.TransitionsTotal.WithLabelValues(string(cmd.To)).Inc()

	s.push(ctx, notify.ClientJobsTopic(j.ClientID), "job_status", map[string]any{
		"job_id": j.ID, "status": cmd.To,
	})
	if j.DriverID != nil {
		s.push(ctx, notify.DriverJobsTopic(*j.DriverID), "job_status", map[string]any{
			"job_id": j.ID, "status": cmd.To,
		})
	}
	return nil
}

// Evaluate records a write-once rating per role on a delivered job, then
// recomputes the counterpart's running average over their rated jobs.
func (s *Service) Evaluate(ctx context.Context, cmd EvaluateCommand) error {
	if cmd.Rating < 1.0 || cmd.Rating > 5.0 {
		return ErrInvalidRating
	}
	j, err := s.store.Get(ctx, cmd.JobID)
	if err != nil {
		return err
	}
	if j.Status != StatusDelivered {
		return ErrNotDelivered
	}

	var comment *string
	if cmd.Comment != "" {
		comment = &cmd.Comment
	}

	switch cmd.RaterRole {
	case account.RoleClient:
		if j.ClientRating != nil {
			return ErrAlreadyRated
		}
		ok, err := s.store.SetRating(ctx, j.ID, "client", cmd.Rating, comment)
		if err != nil {
			return err
		}
		if !ok {
			return ErrAlreadyRated
		}
		avg, ok, err := s.store.AvgClientRatingForDriver(ctx, *j.DriverID)
		if err != nil {
			return err
		}
		if ok {
			return s.accounts.SetRating(ctx, *j.DriverID, round2(avg))
		}
	case account.RoleDriver:
		if j.DriverRating != nil {
			return ErrAlreadyRated
		}
		ok, err := s.store.SetRating(ctx, j.ID, "driver", cmd.Rating, comment)
		if err != nil {
			return err
		}
		if !ok {
			return ErrAlreadyRated
		}
		avg, ok, err := s.store.AvgDriverRatingForClient(ctx, j.ClientID)
		if err != nil {
			return err
		}
		if ok {
			return s.accounts.SetRating(ctx, j.ClientID, round2(avg))
		}
	default:
		return ErrBadRequest
	}
	return nil
}

func (s *Service) Get(ctx context.Context, id types.ID) (*TransportJob, error) {
	return s.store.Get(ctx, id)
}

func (s *Service) Events(ctx context.Context, id types.ID) ([]Event, error) {
	return s.store.Events(ctx, id)
}

func (s *Service) ListByClient(ctx context.Context, clientID types.ID) ([]*TransportJob, error) {
	return s.store.ListByClient(ctx, clientID)
}

func (s *Service) ListByDriver(ctx context.Context, driverID types.ID) ([]*TransportJob, error) {
	return s.store.ListByDriver(ctx, driverID)
}

func (s *Service) ListByStatus(ctx context.Context, status Status) ([]*TransportJob, error) {
	return s.store.ListByStatus(ctx, status)
}

func (s *Service) ActiveByDriver(ctx context.Context, driverID types.ID) ([]*TransportJob, error) {
	return s.store.ActiveByDriver(ctx, driverID)
}

func (s *Service) releaseResources(ctx context.Context, j *TransportJob) {
	if j.DriverID == nil || j.VehicleID == nil {
		return
	}
	if err := s.fleet.Release(ctx, *j.DriverID, *j.VehicleID); err != nil {
		s.log.Error("resource release failed",
			zap.String("job_id", string(j.ID)), zap.Error(err))
	}
}

func (s *Service) push(ctx context.Context, topic, msgType string, payload any) {
	err := s.notifier.Notify(ctx, topic, notify.Message{Type: msgType, Payload: payload})
	if err != nil && !errors.Is(err, notify.ErrNoSubscriber) {
		metrics.NotifyFailuresTotal.Inc()
		s.log.Warn("notification dropped", zap.String("topic", topic), zap.Error(err))
	}
}

func newID() types.ID {
	var b [16]byte
	_, _ = rand.Read(b[:])
	return types.ID(hex.EncodeToString(b[:]))
}

func newReference(at time.Time) string {
	return fmt.Sprintf("FRT%d", at.UnixMilli())
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
