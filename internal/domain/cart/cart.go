// Package cart owns the mutable per-user cart and enforces its quantity
// invariants: at most one line per item, quantities always >= 1.
package cart

import (
	"context"
	"fmt"

	"github.com/go-faster/errors"
)

// ErrNotFound is returned by Repository.Load when the owner has no cart yet.
var ErrNotFound = errors.New("cart not found")

// InvalidQuantityError indicates an add or update with a quantity below 1.
type InvalidQuantityError struct {
	ItemID   string
	Quantity int
}

func (e *InvalidQuantityError) Error() string {
	return fmt.Sprintf("quantity %d is invalid for item %s: must be at least 1", e.Quantity, e.ItemID)
}

// UnknownItemError indicates an add referencing an item absent from the catalog.
type UnknownItemError struct {
	ItemID string
}

func (e *UnknownItemError) Error() string {
	return fmt.Sprintf("item %s does not exist in the catalog", e.ItemID)
}

// LineNotFoundError indicates a quantity update for an item the cart does not hold.
type LineNotFoundError struct {
	ItemID string
}

func (e *LineNotFoundError) Error() string {
	return fmt.Sprintf("cart has no line for item %s", e.ItemID)
}

// Line is a single (item, quantity) entry. Quantity is always >= 1.
type Line struct {
	ItemID   string
	Quantity int
}

// Cart is the per-user collection of desired items. Exactly one live cart
// exists per owner; it is created lazily on first add and emptied rather
// than deleted, so its ID is stable across checkout cycles.
type Cart struct {
	ID    string
	Owner string
	Lines []Line
}

// Empty reports whether the cart holds no lines.
func (c *Cart) Empty() bool {
	return len(c.Lines) == 0
}

// Quantity returns the quantity held for itemID, or 0 when no line exists.
func (c *Cart) Quantity(itemID string) int {
	for _, l := range c.Lines {
		if l.ItemID == itemID {
			return l.Quantity
		}
	}
	return 0
}

// Repository defines persistence operations for carts. Line-level writes
// rely on the (cart_id, item_id) uniqueness constraint so duplicate lines
// cannot exist regardless of caller behaviour.
type Repository interface {
	// Load returns the owner's cart, or ErrNotFound.
	Load(ctx context.Context, owner string) (*Cart, error)
	// LoadOrCreate returns the owner's cart, creating an empty one first
	// when none exists.
	LoadOrCreate(ctx context.Context, owner string) (*Cart, error)
	// AddLine adds delta to the quantity of the item's line, inserting the
	// line when absent.
	AddLine(ctx context.Context, cartID, itemID string, delta int) error
	// SetLine replaces the line's quantity exactly. Returns ErrNotFound
	// when no such line exists.
	SetLine(ctx context.Context, cartID, itemID string, quantity int) error
	// DeleteLine removes the item's line. Deleting an absent line is a no-op.
	DeleteLine(ctx context.Context, cartID, itemID string) error
	// ClearLines removes every line. Idempotent.
	ClearLines(ctx context.Context, cartID string) error
}
