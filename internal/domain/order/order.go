// Package order converts priced carts into immutable orders and governs
// their lifecycle. An order is a financial record: its line prices are
// frozen at creation and never recompute, even when the source promotion
// is later edited or deleted.
package order

import (
	"context"
	"fmt"
	"time"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
)

// Status is an order's lifecycle stage.
type Status string

const (
	// StatusPlaced is the initial state of every order.
	StatusPlaced Status = "Placed"
	// StatusDelivered is terminal: no transition leads out of it and a
	// delivered order can no longer be deleted.
	StatusDelivered Status = "Delivered"
)

// Valid reports whether s is a known status.
func (s Status) Valid() bool {
	return s == StatusPlaced || s == StatusDelivered
}

// Sentinel errors for order validation and lifecycle rules.
var (
	ErrEmptyCart      = errors.New("cart has no lines")
	ErrMissingAddress = errors.New("delivery address required")
	ErrMissingContact = errors.New("delivery contact required")
	ErrNotFound       = errors.New("order not found")
	ErrNotAllowed     = errors.New("caller is not allowed to perform this operation")
	ErrNumberConflict = errors.New("could not allocate a unique order number")

	// ErrNumberTaken is returned by Repository.Create when another order
	// claimed the same number between the existence check and the insert.
	// The service retries with a fresh number.
	ErrNumberTaken = errors.New("order number already taken")
)

// InvalidStateError indicates an operation forbidden in the order's
// current lifecycle state.
type InvalidStateError struct {
	OrderID string
	Status  Status
	Op      string
}

func (e *InvalidStateError) Error() string {
	return fmt.Sprintf("cannot %s order %s in state %s", e.Op, e.OrderID, e.Status)
}

// UnavailableItemsError indicates a checkout on a cart that references
// items no longer present in the catalog. The buyer must fix the cart
// rather than silently pay for a subset of it.
type UnavailableItemsError struct {
	ItemIDs []string
}

func (e *UnavailableItemsError) Error() string {
	return fmt.Sprintf("cart references unavailable items: %v", e.ItemIDs)
}

// CartClearError reports that the order was persisted but the source cart
// could not be cleared. Clearing is idempotent, so the caller should retry
// the clear; it must not retry the whole checkout.
type CartClearError struct {
	Err error
}

func (e *CartClearError) Error() string {
	return fmt.Sprintf("order placed but cart clear failed: %v", e.Err)
}

func (e *CartClearError) Unwrap() error { return e.Err }

// Line is a frozen snapshot of a purchased item: the name and unit price
// actually charged, independent of any later catalog or promotion change.
type Line struct {
	ItemID    string
	ItemName  string
	Quantity  int
	UnitPrice decimal.Decimal
}

// Order is an immutable financial record created from a priced cart at
// checkout. Status is the only mutable field after creation.
type Order struct {
	ID              string
	Number          string
	Owner           string
	DeliveryAddress string
	DeliveryContact string
	Lines           []Line
	Status          Status
	Total           decimal.Decimal
	CreatedAt       time.Time
}

// Repository defines persistence operations for orders.
type Repository interface {
	Create(ctx context.Context, o *Order) error
	GetByID(ctx context.Context, id string) (*Order, error)
	// GetByNumber is the recovery path after a checkout of unknown
	// outcome: callers check whether their order number exists instead of
	// blindly retrying PlaceOrder.
	GetByNumber(ctx context.Context, number string) (*Order, error)
	ListByOwner(ctx context.Context, owner string) ([]Order, error)
	NumberExists(ctx context.Context, number string) (bool, error)
	UpdateStatus(ctx context.Context, id string, status Status) error
	Delete(ctx context.Context, id string) error
}
