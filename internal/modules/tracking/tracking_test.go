package tracking

import (
	"context"
	"errors"
	"testing"
	"time"

	"go.uber.org/zap"

	"freightgo/internal/config"
	"freightgo/internal/modules/fleet"
	"freightgo/internal/modules/geo"
	"freightgo/internal/modules/order"
	"freightgo/internal/notify"
	"freightgo/internal/types"
)

var (
	trkPickup  = types.Point{Lat: 48.8566, Lng: 2.3522}
	trkDropoff = types.Point{Lat: 48.9566, Lng: 2.3522}
)

type env struct {
	fleet    *fleet.MemoryStore
	jobs     *order.MemoryStore
	recorder *notify.Recorder
	svc      *Service
}

func newEnv(t *testing.T) *env {
	t.Helper()
	e := &env{
		fleet:    fleet.NewMemoryStore(),
		jobs:     order.NewMemoryStore(),
		recorder: notify.NewRecorder(),
	}
	cfg := config.MatchingConfig{DefaultRadiusKm: 50, AverageSpeedKmH: 50, ImmediateEtaMin: 30, TrackingSpeedKmH: 40}
	e.svc = NewService(e.fleet, e.jobs, e.recorder, cfg, zap.NewNop())
	return e
}

func (e *env) seedDriver(t *testing.T, driverID, vehicleID types.ID) {
	t.Helper()
	ctx := context.Background()
	err := e.fleet.SaveVehicle(ctx, &fleet.Vehicle{
		ID: vehicleID, OwnerID: "owner-1", WeightCapT: 7.5, VolumeCapM3: 25,
		Position: trkPickup, Available: true,
	})
	if err != nil {
		t.Fatalf("save vehicle: %v", err)
	}
	err = e.fleet.SaveDriver(ctx, &fleet.DriverState{
		ID: driverID, VehicleID: vehicleID, Position: trkPickup, Available: true, Online: true,
	})
	if err != nil {
		t.Fatalf("save driver: %v", err)
	}
}

func (e *env) seedJob(t *testing.T, id types.ID, status order.Status, driverID *types.ID) {
	t.Helper()
	j := &order.TransportJob{
		ID:         id,
		Reference:  "FRT-" + string(id),
		ClientID:   "c-1",
		DriverID:   driverID,
		Status:     status,
		Pickup:     trkPickup,
		Dropoff:    trkDropoff,
		DistanceKm: 11.12,
		WeightKg:   600,
		CreatedAt:  time.Now(),
	}
	if err := e.jobs.Create(context.Background(), j); err != nil {
		t.Fatalf("create job: %v", err)
	}
}

func TestProgressByStatus(t *testing.T) {
	cases := []struct {
		status order.Status
		want   int
	}{
		{order.StatusPending, 0},
		{order.StatusAccepted, 20},
		{order.StatusEnRoute, 40},
		{order.StatusPickedUp, 60},
		{order.StatusInDelivery, 80},
		{order.StatusDelivered, 100},
		{order.StatusCancelled, 0},
		{order.StatusRefused, 0},
	}
	for _, tc := range cases {
		if got := progressFor(tc.status); got != tc.want {
			t.Errorf("progressFor(%s) = %d, want %d", tc.status, got, tc.want)
		}
	}
}

func TestUpdatePositionNotifiesActiveJobClients(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	e.seedDriver(t, "d-1", "v-1")
	driverID := types.ID("d-1")
	e.seedJob(t, "j-active", order.StatusEnRoute, &driverID)
	e.seedJob(t, "j-done", order.StatusDelivered, &driverID)

	newPos := types.Point{Lat: 48.87, Lng: 2.36}
	if err := e.svc.UpdatePosition(ctx, "d-1", newPos); err != nil {
		t.Fatalf("UpdatePosition: %v", err)
	}

	d, err := e.fleet.GetDriver(ctx, "d-1")
	if err != nil {
		t.Fatalf("get driver: %v", err)
	}
	if d.Position != newPos {
		t.Fatalf("driver position = %+v, want %+v", d.Position, newPos)
	}
	v, err := e.fleet.GetVehicle(ctx, "v-1")
	if err != nil {
		t.Fatalf("get vehicle: %v", err)
	}
	if v.Position != newPos {
		t.Fatalf("vehicle position = %+v, want %+v", v.Position, newPos)
	}

	// One notification for the active job; the delivered one is silent.
	sent := e.recorder.Sent(notify.ClientTrackingTopic("c-1"))
	if len(sent) != 1 || sent[0].Type != "driver_position" {
		t.Fatalf("client notifications = %+v, want one driver_position", sent)
	}
}

func TestUpdatePositionRejectsInvalidCoordinates(t *testing.T) {
	e := newEnv(t)
	e.seedDriver(t, "d-1", "v-1")
	err := e.svc.UpdatePosition(context.Background(), "d-1", types.Point{Lat: 95, Lng: 0})
	if !errors.Is(err, geo.ErrInvalidCoordinates) {
		t.Fatalf("UpdatePosition error = %v, want ErrInvalidCoordinates", err)
	}
	d, _ := e.fleet.GetDriver(context.Background(), "d-1")
	if d.Position != trkPickup {
		t.Fatalf("position moved to %+v on invalid update", d.Position)
	}
}

func TestSetOnlineKeepsReservation(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	e.seedDriver(t, "d-1", "v-1")
	if err := e.fleet.Reserve(ctx, "d-1", "v-1"); err != nil {
		t.Fatalf("reserve: %v", err)
	}
	driverID := types.ID("d-1")
	e.seedJob(t, "j-1", order.StatusAccepted, &driverID)

	if err := e.svc.SetOnline(ctx, "d-1", false); err != nil {
		t.Fatalf("SetOnline: %v", err)
	}
	d, _ := e.fleet.GetDriver(ctx, "d-1")
	if d.Online {
		t.Fatal("driver still online")
	}
	if d.Available {
		t.Fatal("going offline must not release the reservation")
	}
	sent := e.recorder.Sent(notify.ClientTrackingTopic("c-1"))
	if len(sent) != 1 || sent[0].Type != "driver_offline" {
		t.Fatalf("client notifications = %+v, want one driver_offline", sent)
	}
}

func TestSnapshotBeforePickup(t *testing.T) {
	e := newEnv(t)
	e.seedDriver(t, "d-1", "v-1")
	driverID := types.ID("d-1")
	e.seedJob(t, "j-1", order.StatusEnRoute, &driverID)

	snap, err := e.svc.Snapshot(context.Background(), "j-1")
	if err != nil {
		t.Fatalf("Snapshot: %v", err)
	}
	if snap.ProgressPercent != 40 {
		t.Errorf("progress = %d, want 40", snap.ProgressPercent)
	}
	if snap.DriverPosition == nil || *snap.DriverPosition != trkPickup {
		t.Fatalf("driver position = %v, want %+v", snap.DriverPosition, trkPickup)
	}
	if snap.EstimatedPickupAt == nil || snap.EstimatedDeliveryAt == nil {
		t.Fatal("pre-pickup snapshot must estimate both pickup and delivery")
	}
	if !snap.EstimatedDeliveryAt.After(*snap.EstimatedPickupAt) {
		t.Fatalf("delivery estimate %v not after pickup estimate %v",
			snap.EstimatedDeliveryAt, snap.EstimatedPickupAt)
	}
	// 11.12 km of route at 40 km/h is roughly 17 minutes pickup-to-delivery.
	gap := snap.EstimatedDeliveryAt.Sub(*snap.EstimatedPickupAt)
	if gap < 10*time.Minute || gap > 25*time.Minute {
		t.Errorf("pickup-to-delivery gap = %v, want ~17m", gap)
	}
}

func TestSnapshotInTransit(t *testing.T) {
	e := newEnv(t)
	e.seedDriver(t, "d-1", "v-1")
	driverID := types.ID("d-1")
	e.seedJob(t, "j-1", order.StatusInDelivery, &driverID)

	snap, err := e.svc.Snapshot(context.Background(), "j-1")
	if err != nil {
		t.Fatalf("Snapshot: %v", err)
	}
	if snap.ProgressPercent != 80 {
		t.Errorf("progress = %d, want 80", snap.ProgressPercent)
	}
	if snap.EstimatedPickupAt != nil {
		t.Error("in-transit snapshot must not estimate pickup")
	}
	if snap.EstimatedDeliveryAt == nil {
		t.Fatal("in-transit snapshot must estimate delivery")
	}
}

func TestSnapshotUnassignedJob(t *testing.T) {
	e := newEnv(t)
	e.seedJob(t, "j-1", order.StatusPending, nil)

	snap, err := e.svc.Snapshot(context.Background(), "j-1")
	if err != nil {
		t.Fatalf("Snapshot: %v", err)
	}
	if snap.ProgressPercent != 0 || snap.DriverPosition != nil {
		t.Fatalf("unassigned snapshot = %+v", snap)
	}
	if snap.EstimatedPickupAt != nil || snap.EstimatedDeliveryAt != nil {
		t.Fatal("unassigned snapshot must not carry estimates")
	}
}

func TestAddStep(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	e.seedDriver(t, "d-1", "v-1")
	driverID := types.ID("d-1")
	e.seedJob(t, "j-1", order.StatusPickedUp, &driverID)

	err := e.svc.AddStep(ctx, "j-1", "d-2", "wrong driver")
	if !errors.Is(err, order.ErrNotAssignedDriver) {
		t.Fatalf("foreign AddStep = %v, want ErrNotAssignedDriver", err)
	}

	if err := e.svc.AddStep(ctx, "j-1", "d-1", "customs cleared"); err != nil {
		t.Fatalf("AddStep: %v", err)
	}
	events, err := e.jobs.Events(ctx, "j-1")
	if err != nil {
		t.Fatalf("events: %v", err)
	}
	if len(events) != 1 {
		t.Fatalf("got %d events, want 1", len(events))
	}
	ev := events[0]
	if ev.FromStatus != order.StatusPickedUp || ev.ToStatus != order.StatusPickedUp {
		t.Errorf("step event statuses = %s→%s, want PICKED_UP→PICKED_UP", ev.FromStatus, ev.ToStatus)
	}
	if ev.Note == nil || *ev.Note != "customs cleared" {
		t.Errorf("step note = %v, want 'customs cleared'", ev.Note)
	}

	sent := e.recorder.Sent(notify.ClientTrackingTopic("c-1"))
	if len(sent) != 1 || sent[0].Type != "delivery_step" {
		t.Fatalf("client notifications = %+v, want one delivery_step", sent)
	}

	snap, err := e.svc.Snapshot(ctx, "j-1")
	if err != nil {
		t.Fatalf("Snapshot: %v", err)
	}
	if len(snap.Steps) != 1 {
		t.Fatalf("snapshot steps = %+v, want the recorded step", snap.Steps)
	}
}
