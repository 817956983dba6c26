// README: Job store backed by PostgreSQL; conditional UPDATEs carry the CAS.
package order

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"freightgo/internal/types"
)

type PostgresStore struct {
	db *pgxpool.Pool
}

func NewPostgresStore(db *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{db: db}
}

const jobColumns = `
	id, reference, client_id, driver_id, vehicle_id, session_id,
	status, status_version,
	pickup_lat, pickup_lng, dropoff_lat, dropoff_lng,
	distance_km, weight_kg, volume_m3, vehicle_class, urgent, description,
	price_cents, currency, quote,
	created_at, accepted_at, pickup_effective_at, picked_up_at,
	delivered_at, cancelled_at, cancel_reason, refusal_reason,
	client_rating, client_comment, driver_rating, driver_comment`

func (s *PostgresStore) Create(ctx context.Context, j *TransportJob) error {
	quoteRaw, err := json.Marshal(j.Quote)
	if err != nil {
		return err
	}
	_, err = s.db.Exec(ctx, `
		INSERT INTO transport_jobs (
			id, reference, client_id, driver_id, vehicle_id, session_id,
			status, status_version,
			pickup_lat, pickup_lng, dropoff_lat, dropoff_lng,
			distance_km, weight_kg, volume_m3, vehicle_class, urgent, description,
			price_cents, currency, quote, created_at
		) VALUES (
			$1, $2, $3, $4, $5, $6,
			$7, $8,
			$9, $10, $11, $12,
			$13, $14, $15, $16, $17, $18,
			$19, $20, $21, $22
		)`,
		string(j.ID), j.Reference, string(j.ClientID),
		toStringPtr(j.DriverID), toStringPtr(j.VehicleID), toStringPtr(j.SessionID),
		string(j.Status), j.StatusVersion,
		j.Pickup.Lat, j.Pickup.Lng, j.Dropoff.Lat, j.Dropoff.Lng,
		j.DistanceKm, j.WeightKg, j.VolumeM3, string(j.VehicleClass), j.Urgent, j.Description,
		j.Price.Amount, j.Price.Currency, quoteRaw, j.CreatedAt,
	)
	return err
}

func (s *PostgresStore) Get(ctx context.Context, id types.ID) (*TransportJob, error) {
	row := s.db.QueryRow(ctx,
		`SELECT `+jobColumns+` FROM transport_jobs WHERE id = $1`, string(id))
	j, err := scanJob(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	return j, err
}

func (s *PostgresStore) UpdateStatus(ctx context.Context, id types.ID, from, to Status, version int, driverID, vehicleID *types.ID, reason *string) (bool, error) {
	tag, err := s.db.Exec(ctx, `
		UPDATE transport_jobs
		SET status = $1,
		    status_version = status_version + 1,
		    driver_id = COALESCE($2, driver_id),
		    vehicle_id = COALESCE($3, vehicle_id),
		    accepted_at = CASE WHEN $1 = 'ACCEPTED' THEN NOW() ELSE accepted_at END,
		    pickup_effective_at = CASE WHEN $1 = 'EN_ROUTE' THEN NOW() ELSE pickup_effective_at END,
		    picked_up_at = CASE WHEN $1 = 'PICKED_UP' THEN NOW() ELSE picked_up_at END,
		    delivered_at = CASE WHEN $1 = 'DELIVERED' THEN NOW() ELSE delivered_at END,
		    cancelled_at = CASE WHEN $1 = 'CANCELLED' THEN NOW() ELSE cancelled_at END,
		    cancel_reason = CASE WHEN $1 = 'CANCELLED' THEN $4 ELSE cancel_reason END,
		    refusal_reason = CASE WHEN $1 = 'REFUSED' THEN $4 ELSE refusal_reason END
		WHERE id = $5 AND status = $6 AND status_version = $7`,
		string(to),
		toStringPtr(driverID),
		toStringPtr(vehicleID),
		reason,
		string(id),
		string(from),
		version,
	)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}

func (s *PostgresStore) SetRating(ctx context.Context, id types.ID, rater string, rating float64, comment *string) (bool, error) {
	// The IS NULL condition makes the write-once rule atomic: a concurrent
	// rating of the same role loses the race and gets zero rows.
	var query string
	if rater == "client" {
		query = `UPDATE transport_jobs SET client_rating = $1, client_comment = $2
			WHERE id = $3 AND client_rating IS NULL`
	} else {
		query = `UPDATE transport_jobs SET driver_rating = $1, driver_comment = $2
			WHERE id = $3 AND driver_rating IS NULL`
	}
	tag, err := s.db.Exec(ctx, query, rating, comment, string(id))
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

func (s *PostgresStore) AvgClientRatingForDriver(ctx context.Context, driverID types.ID) (float64, bool, error) {
	row := s.db.QueryRow(ctx, `
		SELECT AVG(client_rating) FROM transport_jobs
		WHERE driver_id = $1 AND client_rating IS NOT NULL`, string(driverID))
	return scanAvg(row)
}

func (s *PostgresStore) AvgDriverRatingForClient(ctx context.Context, clientID types.ID) (float64, bool, error) {
	row := s.db.QueryRow(ctx, `
		SELECT AVG(driver_rating) FROM transport_jobs
		WHERE client_id = $1 AND driver_rating IS NOT NULL`, string(clientID))
	return scanAvg(row)
}

func (s *PostgresStore) AppendEvent(ctx context.Context, e *Event) error {
	_, err := s.db.Exec(ctx, `
		INSERT INTO job_events (
			job_id, from_status, to_status, actor_type, actor_id, note, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		string(e.JobID), string(e.FromStatus), string(e.ToStatus),
		e.ActorType, toStringPtr(e.ActorID), e.Note, e.CreatedAt,
	)
	return err
}

func (s *PostgresStore) Events(ctx context.Context, jobID types.ID) ([]Event, error) {
	rows, err := s.db.Query(ctx, `
		SELECT job_id, from_status, to_status, actor_type, actor_id, note, created_at
		FROM job_events WHERE job_id = $1 ORDER BY created_at ASC, id ASC`, string(jobID))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Event
	for rows.Next() {
		var e Event
		var actorID, note sql.NullString
		if err := rows.Scan(&e.JobID, &e.FromStatus, &e.ToStatus, &e.ActorType, &actorID, &note, &e.CreatedAt); err != nil {
			return nil, err
		}
		if actorID.Valid {
			id := types.ID(actorID.String)
			e.ActorID = &id
		}
		if note.Valid {
			e.Note = &note.String
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

func (s *PostgresStore) ListByClient(ctx context.Context, clientID types.ID) ([]*TransportJob, error) {
	return s.queryJobs(ctx,
		`SELECT `+jobColumns+` FROM transport_jobs WHERE client_id = $1 ORDER BY created_at DESC`,
		string(clientID))
}

func (s *PostgresStore) ListByDriver(ctx context.Context, driverID types.ID) ([]*TransportJob, error) {
	return s.queryJobs(ctx,
		`SELECT `+jobColumns+` FROM transport_jobs WHERE driver_id = $1 ORDER BY created_at DESC`,
		string(driverID))
}

func (s *PostgresStore) ListByStatus(ctx context.Context, status Status) ([]*TransportJob, error) {
	return s.queryJobs(ctx,
		`SELECT `+jobColumns+` FROM transport_jobs WHERE status = $1 ORDER BY created_at DESC`,
		string(status))
}

func (s *PostgresStore) ActiveByDriver(ctx context.Context, driverID types.ID) ([]*TransportJob, error) {
	return s.queryJobs(ctx,
		`SELECT `+jobColumns+` FROM transport_jobs
		 WHERE driver_id = $1
		   AND status IN ('ACCEPTED','EN_ROUTE','PICKED_UP','IN_DELIVERY')
		 ORDER BY created_at DESC`,
		string(driverID))
}

func (s *PostgresStore) queryJobs(ctx context.Context, query string, args ...any) ([]*TransportJob, error) {
	rows, err := s.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*TransportJob
	for rows.Next() {
		j, err := scanJob(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, j)
	}
	return out, rows.Err()
}

func scanJob(row pgx.Row) (*TransportJob, error) {
	var j TransportJob
	var driverID, vehicleID, sessionID sql.NullString
	var quoteRaw []byte
	var acceptedAt, pickupEffAt, pickedUpAt, deliveredAt, cancelledAt sql.NullTime
	var cancelReason, refusalReason sql.NullString
	var clientRating, driverRating sql.NullFloat64
	var clientComment, driverComment sql.NullString

	err := row.Scan(
		&j.ID, &j.Reference, &j.ClientID, &driverID, &vehicleID, &sessionID,
		&j.Status, &j.StatusVersion,
		&j.Pickup.Lat, &j.Pickup.Lng, &j.Dropoff.Lat, &j.Dropoff.Lng,
		&j.DistanceKm, &j.WeightKg, &j.VolumeM3, &j.VehicleClass, &j.Urgent, &j.Description,
		&j.Price.Amount, &j.Price.Currency, &quoteRaw,
		&j.CreatedAt, &acceptedAt, &pickupEffAt, &pickedUpAt,
		&deliveredAt, &cancelledAt, &cancelReason, &refusalReason,
		&clientRating, &clientComment, &driverRating, &driverComment,
	)
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal(quoteRaw, &j.Quote); err != nil {
		return nil, err
	}

	j.DriverID = toIDPtr(driverID)
	j.VehicleID = toIDPtr(vehicleID)
	j.SessionID = toIDPtr(sessionID)
	j.AcceptedAt = toTimePtr(acceptedAt)
	j.PickupEffectiveAt = toTimePtr(pickupEffAt)
	j.PickedUpAt = toTimePtr(pickedUpAt)
	j.DeliveredAt = toTimePtr(deliveredAt)
	j.CancelledAt = toTimePtr(cancelledAt)
	if cancelReason.Valid {
		j.CancelReason = &cancelReason.String
	}
	if refusalReason.Valid {
		j.RefusalReason = &refusalReason.String
	}
	if clientRating.Valid {
		j.ClientRating = &clientRating.Float64
	}
	if clientComment.Valid {
		j.ClientComment = &clientComment.String
	}
	if driverRating.Valid {
		j.DriverRating = &driverRating.Float64
	}
	if driverComment.Valid {
		j.DriverComment = &driverComment.String
	}
	return &j, nil
}

func scanAvg(row pgx.Row) (float64, bool, error) {
	var avg sql.NullFloat64
	if err := row.Scan(&avg); err != nil {
		return 0, false, err
	}
	if !avg.Valid {
		return 0, false, nil
	}
	return avg.Float64, true, nil
}

func toStringPtr(v *types.ID) *string {
	if v == nil {
		return nil
	}
	s := string(*v)
	return &s
}

func toIDPtr(v sql.NullString) *types.ID {
	if !v.Valid {
		return nil
	}
	id := types.ID(v.String)
	return &id
}

func toTimePtr(v sql.NullTime) *time.Time {
	if !v.Valid {
		return nil
	}
	t := v.Time
	return &t
}
