// README: Transport job aggregate, status table, and audit events.
package order

import (
	"time"

	"freightgo/internal/modules/pricing"
	"freightgo/internal/types"
)

type Status string

const (
	StatusNone       Status = ""
	StatusPending    Status = "PENDING"
	StatusAccepted   Status = "ACCEPTED"
	StatusEnRoute    Status = "EN_ROUTE"
	StatusPickedUp   Status = "PICKED_UP"
	StatusInDelivery Status = "IN_DELIVERY"
	StatusDelivered  Status = "DELIVERED"
	StatusCancelled  Status = "CANCELLED"
	StatusRefused    Status = "REFUSED"
)

// AllowedTransitions is the exhaustive transition table. Absent statuses are
// terminal.
var AllowedTransitions = map[Status][]Status{
	StatusPending:    {StatusAccepted, StatusRefused, StatusCancelled},
	StatusAccepted:   {StatusEnRoute, StatusCancelled},
	StatusEnRoute:    {StatusPickedUp, StatusCancelled},
	StatusPickedUp:   {StatusInDelivery},
	StatusInDelivery: {StatusDelivered},
}

func CanTransition(from, to Status) bool {
	for _, s := range AllowedTransitions[from] {
		if s == to {
			return true
		}
	}
	return false
}

func (s Status) Terminal() bool {
	return len(AllowedTransitions[s]) == 0
}

// TransportJob is one cargo delivery from creation to a terminal status.
// DriverID stays nil on direct jobs until a driver accepts.
type TransportJob struct {
	ID            types.ID  `json:"id"`
	Reference     string    `json:"reference"`
	ClientID      types.ID  `json:"client_id"`
	DriverID      *types.ID `json:"driver_id,omitempty"`
	VehicleID     *types.ID `json:"vehicle_id,omitempty"`
	SessionID     *types.ID `json:"session_id,omitempty"`
	Status        Status    `json:"status"`
	StatusVersion int       `json:"-"`

	Pickup       types.Point          `json:"pickup"`
	Dropoff      types.Point          `json:"dropoff"`
	DistanceKm   float64              `json:"distance_km"`
	WeightKg     float64              `json:"weight_kg"`
	VolumeM3     *float64             `json:"volume_m3,omitempty"`
	VehicleClass pricing.VehicleClass `json:"vehicle_class"`
	Urgent       bool                 `json:"urgent"`
	Description  string               `json:"description,omitempty"`

	Price types.Money   `json:"price"`
	Quote pricing.Quote `json:"quote"`

	CreatedAt         time.Time  `json:"created_at"`
	AcceptedAt        *time.Time `json:"accepted_at,omitempty"`
	PickupEffectiveAt *time.Time `json:"pickup_effective_at,omitempty"`
	PickedUpAt        *time.Time `json:"picked_up_at,omitempty"`
	DeliveredAt       *time.Time `json:"delivered_at,omitempty"`
	CancelledAt       *time.Time `json:"cancelled_at,omitempty"`

	CancelReason  *string `json:"cancel_reason,omitempty"`
	RefusalReason *string `json:"refusal_reason,omitempty"`

	ClientRating  *float64 `json:"client_rating,omitempty"`
	ClientComment *string  `json:"client_comment,omitempty"`
	DriverRating  *float64 `json:"driver_rating,omitempty"`
	DriverComment *string  `json:"driver_comment,omitempty"`
}

// Event is one entry of a job's append-only audit trail. Note carries
// free-form text for waypoint steps and refusal/cancel reasons.
type Event struct {
	JobID      types.ID  `json:"job_id"`
	FromStatus Status    `json:"from_status"`
	ToStatus   Status    `json:"to_status"`
	ActorType  string    `json:"actor_type"`
	ActorID    *types.ID `json:"actor_id,omitempty"`
	Note       *string   `json:"note,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
}

// ActiveStatuses are the post-acceptance, pre-terminal statuses during which
// the driver and vehicle stay reserved.
var ActiveStatuses = []Status{StatusAccepted, StatusEnRoute, StatusPickedUp, StatusInDelivery}
