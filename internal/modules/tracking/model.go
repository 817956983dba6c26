// README: Delivery tracking snapshot model.
package tracking

import (
	"time"

	"freightgo/internal/modules/order"
	"freightgo/internal/types"
)

// Snapshot is the client-facing view of a job in flight: how far along the
// lifecycle it is, where the driver is, and when pickup/delivery are expected.
type Snapshot struct {
	JobID               types.ID      `json:"job_id"`
	Reference           string        `json:"reference"`
	Status              order.Status  `json:"status"`
	ProgressPercent     int           `json:"progress_percent"`
	DriverPosition      *types.Point  `json:"driver_position,omitempty"`
	EstimatedPickupAt   *time.Time    `json:"estimated_pickup_at,omitempty"`
	EstimatedDeliveryAt *time.Time    `json:"estimated_delivery_at,omitempty"`
	Steps               []order.Event `json:"steps"`
}

var progressByStatus = map[order.Status]int{
	order.StatusPending:    0,
	order.StatusAccepted:   20,
	order.StatusEnRoute:    40,
	order.StatusPickedUp:   60,
	order.StatusInDelivery: 80,
	order.StatusDelivered:  100,
}

func progressFor(s order.Status) int {
	return progressByStatus[s]
}
