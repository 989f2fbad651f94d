package cart

import (
	"context"

	"github.com/go-faster/errors"

	"github.com/myatlin/shwecart/internal/domain/catalog"
)

// Store exposes the cart mutations consumed by the UI layer. Every mutation
// runs under the owner's lock and returns the updated cart snapshot.
type Store struct {
	carts Repository
	items catalog.Repository
	locks *OwnerLocks
}

// NewStore creates a Store with the required collaborators. The OwnerLocks
// instance must be shared with the order service so checkout and cart
// mutations exclude each other.
func NewStore(carts Repository, items catalog.Repository, locks *OwnerLocks) *Store {
	return &Store{
		carts: carts,
		items: items,
		locks: locks,
	}
}

// Get returns the owner's current cart. An owner without a cart gets an
// empty snapshot; no cart is created by a read.
func (s *Store) Get(ctx context.Context, owner string) (*Cart, error) {
	c, err := s.carts.Load(ctx, owner)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return &Cart{Owner: owner}, nil
		}
		return nil, errors.Wrap(err, "load cart")
	}
	return c, nil
}

// AddItem adds qty of the item to the owner's cart, incrementing the
// existing line when present. The cart is created lazily on first add.
func (s *Store) AddItem(ctx context.Context, owner, itemID string, qty int) (*Cart, error) {
	if qty < 1 {
		return nil, &InvalidQuantityError{ItemID: itemID, Quantity: qty}
	}

	if _, err := s.items.GetByID(ctx, itemID); err != nil {
		if errors.Is(err, catalog.ErrNotFound) {
			return nil, &UnknownItemError{ItemID: itemID}
		}
		return nil, errors.Wrapf(err, "resolve item %s", itemID)
	}

	unlock := s.locks.Lock(owner)
	defer unlock()

	c, err := s.carts.LoadOrCreate(ctx, owner)
	if err != nil {
		return nil, errors.Wrap(err, "load cart")
	}
	if err := s.carts.AddLine(ctx, c.ID, itemID, qty); err != nil {
		return nil, errors.Wrapf(err, "add line %s", itemID)
	}

	return s.carts.Load(ctx, owner)
}

// SetQuantity replaces the line's quantity exactly. A quantity below 1
// behaves as removal.
func (s *Store) SetQuantity(ctx context.Context, owner, itemID string, qty int) (*Cart, error) {
	unlock := s.locks.Lock(owner)
	defer unlock()

	if qty < 1 {
		return s.removeLocked(ctx, owner, itemID)
	}

	c, err := s.carts.Load(ctx, owner)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, &LineNotFoundError{ItemID: itemID}
		}
		return nil, errors.Wrap(err, "load cart")
	}
	if err := s.carts.SetLine(ctx, c.ID, itemID, qty); err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, &LineNotFoundError{ItemID: itemID}
		}
		return nil, errors.Wrapf(err, "set line %s", itemID)
	}

	return s.carts.Load(ctx, owner)
}

// RemoveItem deletes the item's line. Removing an absent line, or removing
// from an owner without a cart, is a no-op.
func (s *Store) RemoveItem(ctx context.Context, owner, itemID string) (*Cart, error) {
	unlock := s.locks.Lock(owner)
	defer unlock()

	return s.removeLocked(ctx, owner, itemID)
}

// Clear empties the owner's cart. The cart row itself survives so its ID
// stays stable across checkout cycles.
func (s *Store) Clear(ctx context.Context, owner string) (*Cart, error) {
	unlock := s.locks.Lock(owner)
	defer unlock()

	c, err := s.carts.Load(ctx, owner)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return &Cart{Owner: owner}, nil
		}
		return nil, errors.Wrap(err, "load cart")
	}
	if err := s.carts.ClearLines(ctx, c.ID); err != nil {
		return nil, errors.Wrap(err, "clear lines")
	}

	return s.carts.Load(ctx, owner)
}

func (s *Store) removeLocked(ctx context.Context, owner, itemID string) (*Cart, error) {
	c, err := s.carts.Load(ctx, owner)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return &Cart{Owner: owner}, nil
		}
		return nil, errors.Wrap(err, "load cart")
	}
	if err := s.carts.DeleteLine(ctx, c.ID, itemID); err != nil {
		return nil, errors.Wrapf(err, "delete line %s", itemID)
	}

	return s.carts.Load(ctx, owner)
}
