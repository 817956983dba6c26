package geo

import (
	"context"
	"errors"
	"math"
	"testing"

	"go.uber.org/zap"

	"freightgo/internal/types"
)

var (
	paris = types.Point{Lat: 48.8566, Lng: 2.3522}
	lyon  = types.Point{Lat: 45.7640, Lng: 4.8357}
)

func TestHaversineKnownDistance(t *testing.T) {
	// Paris-Lyon great-circle distance is roughly 392 km.
	got := HaversineKm(paris, lyon)
	if got < 380 || got > 405 {
		t.Fatalf("HaversineKm(paris, lyon) = %.2f, want ~392", got)
	}
}

func TestHaversineSymmetryAndZero(t *testing.T) {
	if d := HaversineKm(paris, paris); d != 0 {
		t.Fatalf("distance to self = %f, want 0", d)
	}
	ab := HaversineKm(paris, lyon)
	ba := HaversineKm(lyon, paris)
	if math.Abs(ab-ba) > 1e-9 {
		t.Fatalf("asymmetric distance: %f vs %f", ab, ba)
	}
}

func TestEstimatorRejectsInvalidCoordinates(t *testing.T) {
	e := NewEstimator(nil, zap.NewNop())
	cases := []types.Point{
		{Lat: 91, Lng: 0},
		{Lat: -91, Lng: 0},
		{Lat: 0, Lng: 181},
		{Lat: 0, Lng: -181},
	}
	for _, p := range cases {
		if _, err := e.Distance(context.Background(), p, lyon); err != ErrInvalidCoordinates {
			t.Errorf("Distance(%v) error = %v, want ErrInvalidCoordinates", p, err)
		}
		if _, err := e.Distance(context.Background(), paris, p); err != ErrInvalidCoordinates {
			t.Errorf("Distance(to %v) error = %v, want ErrInvalidCoordinates", p, err)
		}
	}
}

type stubProvider struct {
	meters float64
	err    error
}

func (s stubProvider) RoadDistanceMeters(context.Context, types.Point, types.Point) (float64, error) {
	return s.meters, s.err
}

func TestEstimatorPrefersProvider(t *testing.T) {
	e := NewEstimator(stubProvider{meters: 465000}, zap.NewNop())
	got, err := e.Distance(context.Background(), paris, lyon)
	if err != nil {
		t.Fatalf("Distance: %v", err)
	}
	if got != 465.0 {
		t.Fatalf("Distance = %f, want 465.0 from provider", got)
	}
}

func TestEstimatorFallsBackOnProviderError(t *testing.T) {
	e := NewEstimator(stubProvider{err: errors.New("quota exceeded")}, zap.NewNop())
	got, err := e.Distance(context.Background(), paris, lyon)
	if err != nil {
		t.Fatalf("Distance: %v", err)
	}
	want := math.Round(HaversineKm(paris, lyon)*100) / 100
	if got != want {
		t.Fatalf("Distance = %f, want haversine fallback %f", got, want)
	}
}

func TestSortByDistanceOrdersAscending(t *testing.T) {
	type item struct{ d float64 }
	items := []item{{5.0}, {1.2}, {3.3}, {0.4}}
	SortByDistance(items, func(i item) float64 { return i.d })
	for i := 1; i < len(items); i++ {
		if items[i-1].d > items[i].d {
			t.Fatalf("not sorted: %v", items)
		}
	}
}
