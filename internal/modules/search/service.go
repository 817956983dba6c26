// README: Search service; quotes a route, snapshots candidates, pings drivers.
package search

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"freightgo/internal/config"
	"freightgo/internal/metrics"
	"freightgo/internal/modules/geo"
	"freightgo/internal/modules/matching"
	"freightgo/internal/modules/pricing"
	"freightgo/internal/notify"
	"freightgo/internal/types"
)

var (
	ErrBadRequest       = errors.New("bad request")
	ErrUnreachableRoute = errors.New("no route between pickup and dropoff")
	ErrSessionInactive  = errors.New("search session inactive")
)

type Service struct {
	store     Store
	estimator *geo.Estimator
	pricing   *pricing.Service
	matcher   *matching.Service
	notifier  notify.Notifier
	cfg       config.SearchConfig
	log       *zap.Logger
}

func NewService(store Store, estimator *geo.Estimator, pricingSvc *pricing.Service, matcher *matching.Service, notifier notify.Notifier, cfg config.SearchConfig, log *zap.Logger) *Service {
	return &Service{
		store:     store,
		estimator: estimator,
		pricing:   pricingSvc,
		matcher:   matcher,
		notifier:  notifier,
		cfg:       cfg,
		log:       log,
	}
}

type CreateCommand struct {
	ClientID     types.ID
	Pickup       types.Point
	Dropoff      types.Point
	WeightKg     float64
	VolumeM3     *float64
	VehicleClass pricing.VehicleClass // empty = recommend from weight
	Urgent       bool
	RadiusKm     float64 // <= 0 = matcher default
}

// Create quotes the route, snapshots the candidate pool and notifies each
// candidate driver. Session IDs are opaque and never reused.
func (s *Service) Create(ctx context.Context, cmd CreateCommand) (*Session, error) {
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

	req := matching.Requirements{WeightKg: cmd.WeightKg, VolumeM3: cmd.VolumeM3}
	candidates, err := s.matcher.FindCandidates(ctx, cmd.Pickup, req, cmd.RadiusKm)
	if err != nil {
		return nil, err
	}

	sess := &Session{
		ID:           types.ID(uuid.NewString()),
		ClientID:     cmd.ClientID,
		Pickup:       cmd.Pickup,
		Dropoff:      cmd.Dropoff,
		DistanceKm:   dist,
		WeightKg:     cmd.WeightKg,
		VolumeM3:     cmd.VolumeM3,
		VehicleClass: class,
		Urgent:       cmd.Urgent,
		RadiusKm:     cmd.RadiusKm,
		Quote:        quote,
		Candidates:   candidates,
		Active:       true,
		CreatedAt:    now,
		ExpiresAt:    now.Add(time.Duration(s.cfg.SessionTTLMin) * time.Minute),
	}
	if err := s.store.Save(ctx, sess); err != nil {
		return nil, err
	}
	metrics.SearchesTotal.Inc()

	for _, c := range candidates {
		s.push(ctx, notify.DriverSearchesTopic(c.DriverID), "search_request", sess)
	}
	return sess, nil
}

// Refresh re-runs the matcher for a still-active session and tells the session
// owner about the new pool. Inactive or expired sessions refuse the refresh.
// Only the owner may refresh; anyone else sees the session as absent.
func (s *Service) Refresh(ctx context.Context, id, clientID types.ID) (*Session, error) {
	sess, err := s.owned(ctx, id, clientID)
	if err != nil {
		return nil, err
	}
	if !sess.Active || sess.Expired(time.Now()) {
		return nil, ErrSessionInactive
	}

	req := matching.Requirements{WeightKg: sess.WeightKg, VolumeM3: sess.VolumeM3}
	candidates, err := s.matcher.FindCandidates(ctx, sess.Pickup, req, sess.RadiusKm)
	if err != nil {
		return nil, err
	}
	sess.Candidates = candidates
	if err := s.store.Save(ctx, sess); err != nil {
		return nil, err
	}

	s.push(ctx, notify.ClientSearchesTopic(sess.ClientID), "search_refreshed", sess)
	return sess, nil
}

// Deactivate is idempotent: deactivating twice succeeds quietly. Only the
// owner may deactivate.
func (s *Service) Deactivate(ctx context.Context, id, clientID types.ID) error {
	if _, err := s.owned(ctx, id, clientID); err != nil {
		return err
	}
	return s.store.Deactivate(ctx, id)
}

func (s *Service) Get(ctx context.Context, id, clientID types.ID) (*Session, error) {
	return s.owned(ctx, id, clientID)
}

// owned loads a session and hides it from everyone but its owner: a foreign
// caller cannot distinguish another client's session from a missing one.
func (s *Service) owned(ctx context.Context, id, clientID types.ID) (*Session, error) {
	sess, err := s.store.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if sess.ClientID != clientID {
		return nil, ErrSessionNotFound
	}
	return sess, nil
}

// RunExpirySweep periodically deactivates sessions past their TTL. Runs until
// the context is cancelled.
func (s *Service) RunExpirySweep(ctx context.Context) {
	ticker := time.NewTicker(time.Duration(s.cfg.SweepTickSeconds) * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n, err := s.store.DeactivateExpired(ctx, time.Now())
			if err != nil {
				s.log.Warn("search expiry sweep failed", zap.Error(err))
				continue
			}
			if n > 0 {
				s.log.Info("expired search sessions deactivated", zap.Int("count", n))
			}
		}
	}
}

// push delivers best-effort; a dropped notification never fails the caller,
// and an absent subscriber is not a failure at all.
func (s *Service) push(ctx context.Context, topic, msgType string, payload any) {
	err := s.notifier.Notify(ctx, topic, notify.Message{Type: msgType, Payload: payload})
	if err != nil && !errors.Is(err, notify.ErrNoSubscriber) {
		metrics.NotifyFailuresTotal.Inc()
		s.log.Warn("notification dropped", zap.String("topic", topic), zap.Error(err))
	}
}
