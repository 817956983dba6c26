// README: Account store contract.
package account

import (
	"context"
	"errors"

	"freightgo/internal/types"
)

var ErrNotFound = errors.New("user not found")

type Store interface {
	Get(ctx context.Context, id types.ID) (*User, error)
	Save(ctx context.Context, u *User) error
	// SetRating overwrites the running average rating.
	SetRating(ctx context.Context, id types.ID, rating float64) error
	// IncrementCompleted bumps the role-appropriate completion counter.
	IncrementCompleted(ctx context.Context, id types.ID) error
}
