// Package catalog exposes the read-only product catalog consumed by the
// cart and pricing core. Items are owned by catalog management and are
// never mutated here.
package catalog

import (
	"context"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
)

// ErrNotFound is returned when a requested catalog item does not exist.
var ErrNotFound = errors.New("catalog item not found")

// ErrUnavailable is returned when the catalog collaborator cannot be
// reached in time. Callers may retry with backoff.
var ErrUnavailable = errors.New("catalog unavailable")

// Item is a catalog entry available for purchase. Prices are whole kyat;
// MMK has no minor unit.
type Item struct {
	ID       string
	Name     string
	Price    decimal.Decimal
	Brand    string
	Category string
}

// Repository defines read operations for the catalog.
type Repository interface {
	List(ctx context.Context) ([]Item, error)
	GetByID(ctx context.Context, id string) (*Item, error)
	GetByIDs(ctx context.Context, ids []string) ([]Item, error)
}
