// README: Search session store contract.
package search

import (
	"context"
	"errors"
	"time"

	"freightgo/internal/types"
)

var ErrSessionNotFound = errors.New("search session not found")

type Store interface {
	Get(ctx context.Context, id types.ID) (*Session, error)
	Save(ctx context.Context, s *Session) error
	// Deactivate clears the active flag. Deactivating an already-inactive
	// session is a no-op, not an error.
	Deactivate(ctx context.Context, id types.ID) error
	// DeactivateExpired flips every active session whose expiry has passed
	// and reports how many it touched.
	DeactivateExpired(ctx context.Context, now time.Time) (int, error)
}
