// README: Matcher tests covering ranking and eligibility filters.
package matching

import (
	"context"
	"testing"

	"go.uber.org/zap"

	"freightgo/internal/config"
	"freightgo/internal/modules/account"
	"freightgo/internal/modules/fleet"
	"freightgo/internal/modules/pricing"
	"freightgo/internal/types"
)

var pickup = types.Point{Lat: 48.8566, Lng: 2.3522}

func testMatchingConfig() config.MatchingConfig {
	return config.MatchingConfig{
		DefaultRadiusKm: 50,
		AverageSpeedKmH: 50,
		ImmediateEtaMin: 30,
	}
}

type fixture struct {
	fleet    *fleet.MemoryStore
	accounts *account.MemoryStore
	svc      *Service
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		fleet:    fleet.NewMemoryStore(),
		accounts: account.NewMemoryStore(),
	}
	f.svc = NewService(f.fleet, f.accounts, testMatchingConfig(), zap.NewNop())
	return f
}

// seedPair registers an online, available driver/vehicle pair latOffset
// degrees north of the pickup point (0.009 degrees is roughly 1 km).
func (f *fixture) seedPair(t *testing.T, driverID, vehicleID types.ID, latOffset float64, weightCapT float64) {
	t.Helper()
	ctx := context.Background()
	pos := types.Point{Lat: pickup.Lat + latOffset, Lng: pickup.Lng}
	err := f.fleet.SaveVehicle(ctx, &fleet.Vehicle{
		ID:          vehicleID,
		OwnerID:     "owner-1",
		Class:       pricing.ClassLightTruck,
		WeightCapT:  weightCapT,
		VolumeCapM3: 25,
		Position:    pos,
		Available:   true,
	})
	if err != nil {
		t.Fatalf("save vehicle: %v", err)
	}
	err = f.fleet.SaveDriver(ctx, &fleet.DriverState{
		ID:        driverID,
		VehicleID: vehicleID,
		Position:  pos,
		Available: true,
		Online:    true,
	})
	if err != nil {
		t.Fatalf("save driver: %v", err)
	}
}

func TestFindCandidatesOrdersByDistance(t *testing.T) {
	f := newFixture(t)
	f.seedPair(t, "d-far", "v-far", 0.045, 7.5)   // ~5 km
	f.seedPair(t, "d-near", "v-near", 0.009, 7.5) // ~1 km
	f.seedPair(t, "d-mid", "v-mid", 0.018, 7.5)   // ~2 km

	got, err := f.svc.FindCandidates(context.Background(), pickup, Requirements{WeightKg: 500}, 50)
	if err != nil {
		t.Fatalf("FindCandidates: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("expected 3 candidates, got %d", len(got))
	}
	wantOrder := []types.ID{"d-near", "d-mid", "d-far"}
	for i, want := range wantOrder {
		if got[i].DriverID != want {
			t.Errorf("candidate[%d] = %s, want %s", i, got[i].DriverID, want)
		}
	}
	for i := 1; i < len(got); i++ {
		if got[i-1].DistanceFromPickup > got[i].DistanceFromPickup {
			t.Fatalf("candidates not sorted by distance: %+v", got)
		}
	}
}

func TestFindCandidatesFiltersOfflineDrivers(t *testing.T) {
	f := newFixture(t)
	f.seedPair(t, "d-on", "v-on", 0.009, 7.5)
	f.seedPair(t, "d-off", "v-off", 0.009, 7.5)
	if err := f.fleet.SetOnline(context.Background(), "d-off", false); err != nil {
		t.Fatalf("set offline: %v", err)
	}

	got, err := f.svc.FindCandidates(context.Background(), pickup, Requirements{WeightKg: 500}, 50)
	if err != nil {
		t.Fatalf("FindCandidates: %v", err)
	}
	if len(got) != 1 || got[0].DriverID != "d-on" {
		t.Fatalf("expected only online driver, got %+v", got)
	}
}

func TestFindCandidatesFiltersReservedPairs(t *testing.T) {
	f := newFixture(t)
	f.seedPair(t, "d-free", "v-free", 0.009, 7.5)
	f.seedPair(t, "d-busy", "v-busy", 0.009, 7.5)
	if err := f.fleet.Reserve(context.Background(), "d-busy", "v-busy"); err != nil {
		t.Fatalf("reserve: %v", err)
	}

	got, err := f.svc.FindCandidates(context.Background(), pickup, Requirements{WeightKg: 500}, 50)
	if err != nil {
		t.Fatalf("FindCandidates: %v", err)
	}
	if len(got) != 1 || got[0].DriverID != "d-free" {
		t.Fatalf("expected only unreserved driver, got %+v", got)
	}
}

func TestFindCandidatesFiltersByCapacity(t *testing.T) {
	f := newFixture(t)
	f.seedPair(t, "d-big", "v-big", 0.009, 19)
	f.seedPair(t, "d-small", "v-small", 0.009, 3.5)

	// 5 tonnes excludes the 3.5 t vehicle.
	got, err := f.svc.FindCandidates(context.Background(), pickup, Requirements{WeightKg: 5000}, 50)
	if err != nil {
		t.Fatalf("FindCandidates: %v", err)
	}
	if len(got) != 1 || got[0].DriverID != "d-big" {
		t.Fatalf("expected only high-capacity driver, got %+v", got)
	}

	vol := 30.0
	got, err = f.svc.FindCandidates(context.Background(), pickup, Requirements{WeightKg: 500, VolumeM3: &vol}, 50)
	if err != nil {
		t.Fatalf("FindCandidates: %v", err)
	}
	if len(got) != 0 {
		t.Fatalf("30 m3 exceeds both 25 m3 vehicles, got %+v", got)
	}
}

func TestFindCandidatesRespectsRadius(t *testing.T) {
	f := newFixture(t)
	f.seedPair(t, "d-near", "v-near", 0.009, 7.5)
	f.seedPair(t, "d-far", "v-far", 0.45, 7.5) // ~50 km

	got, err := f.svc.FindCandidates(context.Background(), pickup, Requirements{WeightKg: 500}, 10)
	if err != nil {
		t.Fatalf("FindCandidates: %v", err)
	}
	if len(got) != 1 || got[0].DriverID != "d-near" {
		t.Fatalf("expected only driver inside radius, got %+v", got)
	}
}

func TestFindCandidatesEtaAndImmediateFlag(t *testing.T) {
	f := newFixture(t)
	f.seedPair(t, "d-quick", "v-quick", 0.009, 7.5) // ~1 km, 2 min
	f.seedPair(t, "d-slow", "v-slow", 0.45, 7.5)    // ~50 km, 60 min

	got, err := f.svc.FindCandidates(context.Background(), pickup, Requirements{WeightKg: 500}, 100)
	if err != nil {
		t.Fatalf("FindCandidates: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 candidates, got %d", len(got))
	}
	quick, slow := got[0], got[1]
	if !quick.ImmediatelyAvailable {
		t.Errorf("1 km candidate should be immediately available (eta=%d)", quick.EtaMinutes)
	}
	if slow.ImmediatelyAvailable {
		t.Errorf("50 km candidate should not be immediately available (eta=%d)", slow.EtaMinutes)
	}
	if quick.EtaMinutes <= 0 || slow.EtaMinutes <= quick.EtaMinutes {
		t.Errorf("eta ordering wrong: quick=%d slow=%d", quick.EtaMinutes, slow.EtaMinutes)
	}
}

func TestFindCandidatesEnrichesDriverProfile(t *testing.T) {
	f := newFixture(t)
	f.seedPair(t, "d-rated", "v-rated", 0.009, 7.5)
	err := f.accounts.Save(context.Background(), &account.User{
		ID: "d-rated", Role: account.RoleDriver, Rating: 4.7, CompletedJobs: 12,
	})
	if err != nil {
		t.Fatalf("save account: %v", err)
	}

	got, err := f.svc.FindCandidates(context.Background(), pickup, Requirements{WeightKg: 500}, 50)
	if err != nil {
		t.Fatalf("FindCandidates: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("expected 1 candidate, got %d", len(got))
	}
	if got[0].DriverRating != 4.7 || got[0].DriverCompletedJobs != 12 {
		t.Fatalf("profile not enriched: %+v", got[0])
	}
}

func TestDriverCompatible(t *testing.T) {
	f := newFixture(t)
	f.seedPair(t, "d-1", "v-1", 0.009, 3.5)

	ok, err := f.svc.DriverCompatible(context.Background(), "d-1", Requirements{WeightKg: 3000})
	if err != nil || !ok {
		t.Fatalf("expected compatible, got ok=%v err=%v", ok, err)
	}
	ok, err = f.svc.DriverCompatible(context.Background(), "d-1", Requirements{WeightKg: 5000})
	if err != nil || ok {
		t.Fatalf("expected incompatible for 5 t, got ok=%v err=%v", ok, err)
	}
	if err := f.fleet.SetOnline(context.Background(), "d-1", false); err != nil {
		t.Fatalf("set offline: %v", err)
	}
	ok, err = f.svc.DriverCompatible(context.Background(), "d-1", Requirements{WeightKg: 3000})
	if err != nil || ok {
		t.Fatalf("offline driver should be incompatible, got ok=%v err=%v", ok, err)
	}
}
