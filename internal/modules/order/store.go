// README: Transport job store contract; status moves are CAS updates.
package order

import (
	"context"
	"errors"

	"freightgo/internal/types"
)

var ErrNotFound = errors.New("job not found")

type Store interface {
	Create(ctx context.Context, j *TransportJob) error
	Get(ctx context.Context, id types.ID) (*TransportJob, error)

	// UpdateStatus performs a compare-and-set move: the row changes only when
	// both the current status and the version still match. driverID/vehicleID
	// bind an unclaimed direct job on accept; reason is recorded for REFUSED
	// and CANCELLED. Returns false when a concurrent writer won.
	UpdateStatus(ctx context.Context, id types.ID, from, to Status, version int, driverID, vehicleID *types.ID, reason *string) (bool, error)

	// SetRating records a rating field conditionally: it applies only when the
	// rater's field is still unset and returns false otherwise, so two
	// concurrent evaluations of the same role cannot both land.
	SetRating(ctx context.Context, id types.ID, rater string, rating float64, comment *string) (bool, error)

	// AvgClientRatingForDriver averages client ratings across a driver's rated
	// jobs; ok is false when none exist. AvgDriverRatingForClient mirrors it.
	AvgClientRatingForDriver(ctx context.Context, driverID types.ID) (avg float64, ok bool, err error)
	AvgDriverRatingForClient(ctx context.Context, clientID types.ID) (avg float64, ok bool, err error)

	AppendEvent(ctx context.Context, e *Event) error
	// Events returns the job's audit trail, oldest first.
	Events(ctx context.Context, jobID types.ID) ([]Event, error)

	// Listings are ordered newest first.
	ListByClient(ctx context.Context, clientID types.ID) ([]*TransportJob, error)
	ListByDriver(ctx context.Context, driverID types.ID) ([]*TransportJob, error)
	ListByStatus(ctx context.Context, status Status) ([]*TransportJob, error)
	// ActiveByDriver returns the driver's jobs still holding a reservation.
	ActiveByDriver(ctx context.Context, driverID types.ID) ([]*TransportJob, error)
}
