package promotion

import (
	"context"
	"time"

	"github.com/go-faster/errors"
)

// Resolver picks the single active promotion for an item.
type Resolver struct {
	promos Repository
}

// NewResolver creates a Resolver backed by the given Repository.
func NewResolver(promos Repository) *Resolver {
	return &Resolver{promos: promos}
}

// ActiveFor returns the promotion in effect for itemID at the given time,
// or nil when none applies. When several live promotions overlap, the most
// recently created one wins. Promotions with an out-of-range discount are
// ignored rather than mispriced.
func (r *Resolver) ActiveFor(ctx context.Context, itemID string, now time.Time) (*Promotion, error) {
	promos, err := r.promos.ListForItem(ctx, itemID)
	if err != nil {
		return nil, errors.Wrapf(err, "list promotions for item %s", itemID)
	}

	var active *Promotion
	for i := range promos {
		p := &promos[i]
		if p.Expired(now) {
			continue
		}
		if p.Discount < 0 || p.Discount > 100 {
			continue
		}
		if active == nil || newerThan(p, active) {
			active = p
		}
	}
	if active == nil {
		return nil, nil
	}

	found := *active
	return &found, nil
}

// newerThan orders promotions by creation time, breaking equal timestamps
// on ID so the winner does not depend on iteration order.
func newerThan(a, b *Promotion) bool {
	if !a.CreatedAt.Equal(b.CreatedAt) {
		return a.CreatedAt.After(b.CreatedAt)
	}
	return a.ID > b.ID
}
