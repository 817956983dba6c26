// README: Search session store backed by PostgreSQL; quote and candidates as JSONB.
package search

import (
	"context"
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

func (s *PostgresStore) Get(ctx context.Context, id types.ID) (*Session, error) {
	row := s.db.QueryRow(ctx, `
		SELECT id, client_id, pickup_lat, pickup_lng, dropoff_lat, dropoff_lng,
		       distance_km, weight_kg, volume_m3, vehicle_class, urgent, radius_km,
		       quote, candidates, active, created_at, expires_at
		FROM search_sessions WHERE id = $1`, string(id))

	var sess Session
	var quoteRaw, candidatesRaw []byte
	err := row.Scan(
		&sess.ID, &sess.ClientID,
		&sess.Pickup.Lat, &sess.Pickup.Lng, &sess.Dropoff.Lat, &sess.Dropoff.Lng,
		&sess.DistanceKm, &sess.WeightKg, &sess.VolumeM3, &sess.VehicleClass,
		&sess.Urgent, &sess.RadiusKm,
		&quoteRaw, &candidatesRaw, &sess.Active, &sess.CreatedAt, &sess.ExpiresAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrSessionNotFound
	}
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal(quoteRaw, &sess.Quote); err != nil {
		return nil, err
	}
	if err := json.Unmarshal(candidatesRaw, &sess.Candidates); err != nil {
		return nil, err
	}
	return &sess, nil
}

func (s *PostgresStore) Save(ctx context.Context, sess *Session) error {
	quoteRaw, err := json.Marshal(sess.Quote)
	if err != nil {
		return err
	}
	candidatesRaw, err := json.Marshal(sess.Candidates)
	if err != nil {
		return err
	}
	_, err = s.db.Exec(ctx, `
		INSERT INTO search_sessions (
			id, client_id, pickup_lat, pickup_lng, dropoff_lat, dropoff_lng,
			distance_km, weight_kg, volume_m3, vehicle_class, urgent, radius_km,
			quote, candidates, active, created_at, expires_at
		) VALUES (
			$1, $2, $3, $4, $5, $6,
			$7, $8, $9, $10, $11, $12,
			$13, $14, $15, $16, $17
		)
		ON CONFLICT (id) DO UPDATE SET
		    candidates = EXCLUDED.candidates,
		    active = EXCLUDED.active`,
		string(sess.ID), string(sess.ClientID),
		sess.Pickup.Lat, sess.Pickup.Lng, sess.Dropoff.Lat, sess.Dropoff.Lng,
		sess.DistanceKm, sess.WeightKg, sess.VolumeM3, string(sess.VehicleClass),
		sess.Urgent, sess.RadiusKm,
		quoteRaw, candidatesRaw, sess.Active, sess.CreatedAt, sess.ExpiresAt,
	)
	return err
}

func (s *PostgresStore) Deactivate(ctx context.Context, id types.ID) error {
	tag, err := s.db.Exec(ctx, `
		UPDATE search_sessions SET active = FALSE WHERE id = $1`, string(id))
	if err != nil {
		return err
	}
	// Same-value updates still count as affected rows, so zero means the
	// session never existed rather than "already inactive".
	if tag.RowsAffected() == 0 {
		return ErrSessionNotFound
	}
	return nil
}

func (s *PostgresStore) DeactivateExpired(ctx context.Context, now time.Time) (int, error) {
	tag, err := s.db.Exec(ctx, `
		UPDATE search_sessions SET active = FALSE
		WHERE active = TRUE AND expires_at <= $1`, now)
	if err != nil {
		return 0, err
	}
	return int(tag.RowsAffected()), nil
}
