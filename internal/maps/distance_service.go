// README: Google Maps distance-matrix provider.
package maps

import (
	"context"
	"fmt"

	"googlemaps.github.io/maps"

	"freightgo/internal/types"
)

// DistanceService queries the Google Distance Matrix API for road distances.
type DistanceService struct {
	client *maps.Client
}

func NewDistanceService(apiKey string) (*DistanceService, error) {
	client, err := maps.NewClient(maps.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create maps client: %w", err)
	}
	return &DistanceService{client: client}, nil
}

// RoadDistanceMeters returns the driving distance between two points. Any
// non-OK element status is reported as an error so callers fall back to the
// analytic estimate.
func (s *DistanceService) RoadDistanceMeters(ctx context.Context, from, to types.Point) (float64, error) {
	r := &maps.DistanceMatrixRequest{
		Origins:      []string{fmt.Sprintf("%f,%f", from.Lat, from.Lng)},
		Destinations: []string{fmt.Sprintf("%f,%f", to.Lat, to.Lng)},
		Mode:         maps.TravelModeDriving,
		Units:        maps.UnitsMetric,
	}
	resp, err := s.client.DistanceMatrix(ctx, r)
	if err != nil {
		return 0, fmt.Errorf("distance matrix error: %w", err)
	}
	if len(resp.Rows) == 0 || len(resp.Rows[0].Elements) == 0 {
		return 0, fmt.Errorf("distance matrix: empty response")
	}
	el := resp.Rows[0].Elements[0]
	if el.Status != "OK" {
		return 0, fmt.Errorf("distance matrix: element status %s", el.Status)
	}
	return float64(el.Distance.Meters), nil
}
