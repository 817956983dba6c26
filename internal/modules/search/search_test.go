package search

import (
	"context"
	"errors"
	"testing"
	"time"

	"go.uber.org/zap"

	"freightgo/internal/config"
	"freightgo/internal/modules/account"
	"freightgo/internal/modules/fleet"
	"freightgo/internal/modules/geo"
	"freightgo/internal/modules/matching"
	"freightgo/internal/modules/pricing"
	"freightgo/internal/notify"
	"freightgo/internal/types"
)

var (
	testPickup  = types.Point{Lat: 48.8566, Lng: 2.3522}
	testDropoff = types.Point{Lat: 48.9566, Lng: 2.3522} // ~11 km north
)

type env struct {
	store    *MemoryStore
	fleet    *fleet.MemoryStore
	recorder *notify.Recorder
	svc      *Service
}

func newEnv(t *testing.T) *env {
	t.Helper()
	e := &env{
		store:    NewMemoryStore(),
		fleet:    fleet.NewMemoryStore(),
		recorder: notify.NewRecorder(),
	}
	matchCfg := config.MatchingConfig{DefaultRadiusKm: 50, AverageSpeedKmH: 50, ImmediateEtaMin: 30}
	priceCfg := config.PricingConfig{BaseRatePerKmCents: 250, MinimumFareCents: 2500, Currency: "EUR"}
	searchCfg := config.SearchConfig{SessionTTLMin: 30, SweepTickSeconds: 60}

	estimator := geo.NewEstimator(nil, zap.NewNop())
	matcher := matching.NewService(e.fleet, account.NewMemoryStore(), matchCfg, zap.NewNop())
	e.svc = NewService(e.store, estimator, pricing.NewService(priceCfg), matcher, e.recorder, searchCfg, zap.NewNop())
	return e
}

func (e *env) seedDriver(t *testing.T, driverID, vehicleID types.ID) {
	t.Helper()
	ctx := context.Background()
	err := e.fleet.SaveVehicle(ctx, &fleet.Vehicle{
		ID: vehicleID, OwnerID: "owner-1", Class: pricing.ClassLightTruck,
		WeightCapT: 7.5, VolumeCapM3: 25, Position: testPickup, Available: true,
	})
	if err != nil {
		t.Fatalf("save vehicle: %v", err)
	}
	err = e.fleet.SaveDriver(ctx, &fleet.DriverState{
		ID: driverID, VehicleID: vehicleID, Position: testPickup, Available: true, Online: true,
	})
	if err != nil {
		t.Fatalf("save driver: %v", err)
	}
}

func TestCreateQuotesAndNotifiesCandidates(t *testing.T) {
	e := newEnv(t)
	e.seedDriver(t, "d-1", "v-1")

	sess, err := e.svc.Create(context.Background(), CreateCommand{
		ClientID: "c-1",
		Pickup:   testPickup,
		Dropoff:  testDropoff,
		WeightKg: 600,
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if !sess.Active || sess.ID == "" {
		t.Fatalf("session not active or missing id: %+v", sess)
	}
	if sess.DistanceKm <= 0 {
		t.Errorf("distance = %f, want > 0", sess.DistanceKm)
	}
	if sess.Quote.Total.Amount <= 0 {
		t.Errorf("quote total = %d, want > 0", sess.Quote.Total.Amount)
	}
	if sess.VehicleClass != pricing.ClassLightVan {
		t.Errorf("recommended class = %s, want %s for 600 kg", sess.VehicleClass, pricing.ClassLightVan)
	}
	if len(sess.Candidates) != 1 || sess.Candidates[0].DriverID != "d-1" {
		t.Fatalf("candidates = %+v, want driver d-1", sess.Candidates)
	}

	sent := e.recorder.Sent(notify.DriverSearchesTopic("d-1"))
	if len(sent) != 1 || sent[0].Type != "search_request" {
		t.Fatalf("driver notification = %+v, want one search_request", sent)
	}

	stored, err := e.store.Get(context.Background(), sess.ID)
	if err != nil {
		t.Fatalf("stored session: %v", err)
	}
	if !stored.ExpiresAt.After(stored.CreatedAt) {
		t.Errorf("expiry %v not after creation %v", stored.ExpiresAt, stored.CreatedAt)
	}
}

func TestCreateValidation(t *testing.T) {
	e := newEnv(t)
	cases := []struct {
		name string
		cmd  CreateCommand
		want error
	}{
		{"missing client", CreateCommand{Pickup: testPickup, Dropoff: testDropoff, WeightKg: 100}, ErrBadRequest},
		{"zero weight", CreateCommand{ClientID: "c-1", Pickup: testPickup, Dropoff: testDropoff}, ErrBadRequest},
		{"unknown class", CreateCommand{ClientID: "c-1", Pickup: testPickup, Dropoff: testDropoff, WeightKg: 100, VehicleClass: "HOVERCRAFT"}, ErrBadRequest},
		{"invalid pickup", CreateCommand{ClientID: "c-1", Pickup: types.Point{Lat: 95, Lng: 0}, Dropoff: testDropoff, WeightKg: 100}, ErrUnreachableRoute},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := e.svc.Create(context.Background(), tc.cmd); !errors.Is(err, tc.want) {
				t.Fatalf("Create error = %v, want %v", err, tc.want)
			}
		})
	}
}

func TestCreateWithEmptyPoolStillSucceeds(t *testing.T) {
	e := newEnv(t)
	sess, err := e.svc.Create(context.Background(), CreateCommand{
		ClientID: "c-1", Pickup: testPickup, Dropoff: testDropoff, WeightKg: 600,
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if len(sess.Candidates) != 0 {
		t.Fatalf("expected empty pool, got %+v", sess.Candidates)
	}
	if len(e.recorder.Topics()) != 0 {
		t.Fatalf("no drivers should be notified, got topics %v", e.recorder.Topics())
	}
}

func TestRefreshRematchesAndNotifiesClient(t *testing.T) {
	e := newEnv(t)
	sess, err := e.svc.Create(context.Background(), CreateCommand{
		ClientID: "c-1", Pickup: testPickup, Dropoff: testDropoff, WeightKg: 600,
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if len(sess.Candidates) != 0 {
		t.Fatalf("precondition: empty pool, got %+v", sess.Candidates)
	}

	// A driver comes online after the search was created.
	e.seedDriver(t, "d-late", "v-late")

	got, err := e.svc.Refresh(context.Background(), sess.ID, "c-1")
	if err != nil {
		t.Fatalf("Refresh: %v", err)
	}
	if len(got.Candidates) != 1 || got.Candidates[0].DriverID != "d-late" {
		t.Fatalf("refreshed candidates = %+v, want d-late", got.Candidates)
	}
	sent := e.recorder.Sent(notify.ClientSearchesTopic("c-1"))
	if len(sent) != 1 || sent[0].Type != "search_refreshed" {
		t.Fatalf("client notification = %+v, want one search_refreshed", sent)
	}
}

func TestRefreshInactiveSession(t *testing.T) {
	e := newEnv(t)
	sess, err := e.svc.Create(context.Background(), CreateCommand{
		ClientID: "c-1", Pickup: testPickup, Dropoff: testDropoff, WeightKg: 600,
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if err := e.svc.Deactivate(context.Background(), sess.ID, "c-1"); err != nil {
		t.Fatalf("Deactivate: %v", err)
	}
	// Idempotent: a second deactivation is quiet.
	if err := e.svc.Deactivate(context.Background(), sess.ID, "c-1"); err != nil {
		t.Fatalf("second Deactivate: %v", err)
	}
	if _, err := e.svc.Refresh(context.Background(), sess.ID, "c-1"); !errors.Is(err, ErrSessionInactive) {
		t.Fatalf("Refresh error = %v, want ErrSessionInactive", err)
	}
}

func TestRefreshExpiredSession(t *testing.T) {
	e := newEnv(t)
	now := time.Now()
	sess := &Session{
		ID: "s-expired", ClientID: "c-1", Pickup: testPickup, Dropoff: testDropoff,
		WeightKg: 600, VehicleClass: pricing.ClassLightVan, Active: true,
		CreatedAt: now.Add(-time.Hour), ExpiresAt: now.Add(-30 * time.Minute),
	}
	if err := e.store.Save(context.Background(), sess); err != nil {
		t.Fatalf("save: %v", err)
	}
	if _, err := e.svc.Refresh(context.Background(), "s-expired", "c-1"); !errors.Is(err, ErrSessionInactive) {
		t.Fatalf("Refresh error = %v, want ErrSessionInactive", err)
	}
}

func TestSessionHiddenFromForeignCallers(t *testing.T) {
	e := newEnv(t)
	sess, err := e.svc.Create(context.Background(), CreateCommand{
		ClientID: "c-1", Pickup: testPickup, Dropoff: testDropoff, WeightKg: 600,
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	ctx := context.Background()
	if _, err := e.svc.Get(ctx, sess.ID, "c-other"); !errors.Is(err, ErrSessionNotFound) {
		t.Fatalf("foreign Get = %v, want ErrSessionNotFound", err)
	}
	if _, err := e.svc.Refresh(ctx, sess.ID, "c-other"); !errors.Is(err, ErrSessionNotFound) {
		t.Fatalf("foreign Refresh = %v, want ErrSessionNotFound", err)
	}
	if err := e.svc.Deactivate(ctx, sess.ID, "c-other"); !errors.Is(err, ErrSessionNotFound) {
		t.Fatalf("foreign Deactivate = %v, want ErrSessionNotFound", err)
	}

	// The foreign attempts must not have touched the session.
	got, err := e.svc.Get(ctx, sess.ID, "c-1")
	if err != nil {
		t.Fatalf("owner Get: %v", err)
	}
	if !got.Active {
		t.Fatal("session deactivated by a foreign caller")
	}
}

func TestDeactivateExpiredSweepsOnlyStale(t *testing.T) {
	e := newEnv(t)
	now := time.Now()
	ctx := context.Background()

	stale := &Session{ID: "s-stale", ClientID: "c-1", Active: true,
		CreatedAt: now.Add(-time.Hour), ExpiresAt: now.Add(-time.Minute)}
	fresh := &Session{ID: "s-fresh", ClientID: "c-1", Active: true,
		CreatedAt: now, ExpiresAt: now.Add(time.Hour)}
	for _, s := range []*Session{stale, fresh} {
		if err := e.store.Save(ctx, s); err != nil {
			t.Fatalf("save %s: %v", s.ID, err)
		}
	}

	n, err := e.store.DeactivateExpired(ctx, now)
	if err != nil {
		t.Fatalf("DeactivateExpired: %v", err)
	}
	if n != 1 {
		t.Fatalf("deactivated %d sessions, want 1", n)
	}
	got, err := e.store.Get(ctx, "s-stale")
	if err != nil {
		t.Fatalf("get stale: %v", err)
	}
	if got.Active {
		t.Error("stale session still active after sweep")
	}
	got, err = e.store.Get(ctx, "s-fresh")
	if err != nil {
		t.Fatalf("get fresh: %v", err)
	}
	if !got.Active {
		t.Error("fresh session deactivated by sweep")
	}
}

func TestMemoryStoreIsolatesStoredSessions(t *testing.T) {
	e := newEnv(t)
	e.seedDriver(t, "d-1", "v-1")
	sess, err := e.svc.Create(context.Background(), CreateCommand{
		ClientID: "c-1", Pickup: testPickup, Dropoff: testDropoff, WeightKg: 600,
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	got, err := e.store.Get(context.Background(), sess.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	got.Candidates[0].DriverID = "tampered"
	got.Active = false

	again, err := e.store.Get(context.Background(), sess.ID)
	if err != nil {
		t.Fatalf("get again: %v", err)
	}
	if again.Candidates[0].DriverID != "d-1" || !again.Active {
		t.Fatalf("store returned aliased session: %+v", again)
	}
}
