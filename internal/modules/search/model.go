// README: Search session aggregate; a quoted route with a candidate snapshot.
package search

import (
	"time"

	"freightgo/internal/modules/matching"
	"freightgo/internal/modules/pricing"
	"freightgo/internal/types"
)

// Session is one client search: the route, the cargo, the price quoted for it
// and the candidates found at creation/refresh time. Sessions are short-lived;
// an inactive session can never become a job.
type Session struct {
	ID           types.ID             `json:"id"`
	ClientID     types.ID             `json:"client_id"`
	Pickup       types.Point          `json:"pickup"`
	Dropoff      types.Point          `json:"dropoff"`
	DistanceKm   float64              `json:"distance_km"`
	WeightKg     float64              `json:"weight_kg"`
	VolumeM3     *float64             `json:"volume_m3,omitempty"`
	VehicleClass pricing.VehicleClass `json:"vehicle_class"`
	Urgent       bool                 `json:"urgent"`
	RadiusKm     float64              `json:"radius_km"`
	Quote        pricing.Quote        `json:"quote"`
	Candidates   []matching.Candidate `json:"candidates"`
	Active       bool                 `json:"active"`
	CreatedAt    time.Time            `json:"created_at"`
	ExpiresAt    time.Time            `json:"expires_at"`
}

func (s *Session) Expired(now time.Time) bool {
	return now.After(s.ExpiresAt)
}
