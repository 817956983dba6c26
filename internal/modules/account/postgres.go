// README: Account store backed by PostgreSQL.
package account

import (
	"context"
	"errors"

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

func (s *PostgresStore) Get(ctx context.Context, id types.ID) (*User, error) {
	row := s.db.QueryRow(ctx, `
		SELECT id, role, name, phone, created_at,
		       completed_orders, license_number, completed_jobs, company, rating
		FROM users
		WHERE id = $1`, string(id),
	)
	var u User
	err := row.Scan(
		&u.ID, &u.Role, &u.Name, &u.Phone, &u.CreatedAt,
		&u.CompletedOrders, &u.LicenseNumber, &u.CompletedJobs, &u.Company, &u.Rating,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func (s *PostgresStore) Save(ctx context.Context, u *User) error {
	_, err := s.db.Exec(ctx, `
		INSERT INTO users (id, role, name, phone, created_at,
		                   completed_orders, license_number, completed_jobs, company, rating)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		ON CONFLICT (id) DO UPDATE SET
		    name = EXCLUDED.name,
		    phone = EXCLUDED.phone,
		    license_number = EXCLUDED.license_number,
		    company = EXCLUDED.company`,
		string(u.ID), string(u.Role), u.Name, u.Phone, u.CreatedAt,
		u.CompletedOrders, u.LicenseNumber, u.CompletedJobs, u.Company, u.Rating,
	)
	return err
}

func (s *PostgresStore) SetRating(ctx context.Context, id types.ID, rating float64) error {
	tag, err := s.db.Exec(ctx, `UPDATE users SET rating = $1 WHERE id = $2`, rating, string(id))
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *PostgresStore) IncrementCompleted(ctx context.Context, id types.ID) error {
	tag, err := s.db.Exec(ctx, `
		UPDATE users SET
		    completed_jobs = completed_jobs + CASE WHEN role = 'driver' THEN 1 ELSE 0 END,
		    completed_orders = completed_orders + CASE WHEN role <> 'driver' THEN 1 ELSE 0 END
		WHERE id = $1`, string(id))
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
