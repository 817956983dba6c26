// README: Postgres connection pool initialization using pgxpool.
package infra

import (
	"context"
	_ "embed"

	"github.com/jackc/pgx/v5/pgxpool"
)

//go:embed schema.sql
var schema string

func NewDB(ctx context.Context, dsn string) (*pgxpool.Pool, error) {
	return pgxpool.New(ctx, dsn)
}

// ApplySchema creates the tables if they do not exist yet. Statements are
// idempotent, so running it on every start is safe.
func ApplySchema(ctx context.Context, db *pgxpool.Pool) error {
	_, err := db.Exec(ctx, schema)
	return err
}
