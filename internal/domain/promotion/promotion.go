// Package promotion resolves the discount applicable to a catalog item at
// a given instant. Promotions are created and edited by catalog admins and
// are read-only to this core.
package promotion

import (
	"context"
	"time"

	"github.com/go-faster/errors"
)

// ErrUnavailable is returned when the promotion collaborator cannot be
// reached in time. Callers may retry with backoff; it is never folded into
// "no promotion".
var ErrUnavailable = errors.New("promotion lookup unavailable")

// Promotion is a time-bounded percentage discount attached to one item.
type Promotion struct {
	ID        string
	ItemID    string
	Discount  int // percent, 0-100
	PromoCode string
	Title     string
	ExpiresAt time.Time
	CreatedAt time.Time
}

// Expired reports whether the promotion is no longer live at the given time.
func (p *Promotion) Expired(now time.Time) bool {
	return !p.ExpiresAt.After(now)
}

// Repository provides lookup of promotions per item. Order of the returned
// slice does not matter; the resolver picks the winner itself.
type Repository interface {
	ListForItem(ctx context.Context, itemID string) ([]Promotion, error)
}
