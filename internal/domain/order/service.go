package order

import (
	"context"
	"time"

	"github.com/go-faster/errors"
	"github.com/google/uuid"

	"github.com/myatlin/shwecart/internal/domain/auth"
	"github.com/myatlin/shwecart/internal/domain/cart"
	"github.com/myatlin/shwecart/internal/domain/pricing"
)

// numberAttempts bounds the order number collision retry loop.
const numberAttempts = 5

// CartPricer produces the frozen price snapshot for a cart.
type CartPricer interface {
	PriceCart(ctx context.Context, c *cart.Cart, now time.Time) (*pricing.Quote, error)
}

// PlaceOrderRequest holds the input for placing an order.
type PlaceOrderRequest struct {
	Owner           string
	DeliveryAddress string
	DeliveryContact string
}

// Service implements the order lifecycle: creation from a priced cart,
// status transitions, and deletion rules.
type Service struct {
	carts  cart.Repository
	locks  *cart.OwnerLocks
	pricer CartPricer
	orders Repository
	now    func() time.Time
}

// NewService creates an order Service. locks must be the same OwnerLocks
// instance the cart store uses, so checkout excludes concurrent cart
// mutations for the same owner.
func NewService(
	carts cart.Repository,
	locks *cart.OwnerLocks,
	pricer CartPricer,
	orders Repository,
) *Service {
	return &Service{
		carts:  carts,
		locks:  locks,
		pricer: pricer,
		orders: orders,
		now:    time.Now,
	}
}

// PlaceOrder prices the owner's cart, freezes the result into an order in
// state Placed, and clears the cart. The whole operation runs under the
// owner's cart lock, so no concurrent add can slip between the price
// snapshot and the clear.
//
// When order persistence succeeds but the clear fails, the created order is
// returned together with a *CartClearError: the caller retries the clear
// (idempotent), never the checkout.
func (s *Service) PlaceOrder(ctx context.Context, req PlaceOrderRequest) (*Order, error) {
	if req.DeliveryAddress == "" {
		return nil, ErrMissingAddress
	}
	if req.DeliveryContact == "" {
		return nil, ErrMissingContact
	}

	unlock := s.locks.Lock(req.Owner)
	defer unlock()

	c, err := s.carts.Load(ctx, req.Owner)
	if err != nil {
		if errors.Is(err, cart.ErrNotFound) {
			return nil, ErrEmptyCart
		}
		return nil, errors.Wrap(err, "load cart")
	}
	if c.Empty() {
		return nil, ErrEmptyCart
	}

	now := s.now()

	quote, err := s.pricer.PriceCart(ctx, c, now)
	if err != nil {
		return nil, errors.Wrap(err, "price cart")
	}
	if missing := quote.Unavailable(); len(missing) > 0 {
		return nil, &UnavailableItemsError{ItemIDs: missing}
	}

	lines := make([]Line, len(quote.Lines))
	for i, ql := range quote.Lines {
		lines[i] = Line{
			ItemID:    ql.ItemID,
			ItemName:  ql.ItemName,
			Quantity:  ql.Quantity,
			UnitPrice: ql.UnitPrice,
		}
	}

	o := &Order{
		ID:              uuid.New().String(),
		Owner:           req.Owner,
		DeliveryAddress: req.DeliveryAddress,
		DeliveryContact: req.DeliveryContact,
		Lines:           lines,
		Status:          StatusPlaced,
		Total:           quote.GrandTotal,
		CreatedAt:       now,
	}
	if err := s.createNumbered(ctx, o, now); err != nil {
		return nil, err
	}

	// At-least-once clear: one immediate retry, then hand the retry duty
	// to the caller. The order itself is already committed.
	if err := s.carts.ClearLines(ctx, c.ID); err != nil {
		if err = s.carts.ClearLines(ctx, c.ID); err != nil {
			return o, &CartClearError{Err: err}
		}
	}

	return o, nil
}

// createNumbered persists the order under a freshly generated number, giving
// up with ErrNumberConflict after a bounded number of attempts. The existence
// check filters most collisions cheaply; the unique constraint on the number
// column catches the race where two checkouts draw the same number between
// check and insert, surfacing as ErrNumberTaken and costing one attempt like
// any other collision.
func (s *Service) createNumbered(ctx context.Context, o *Order, now time.Time) error {
	for range numberAttempts {
		number := NewNumber(now)
		exists, err := s.orders.NumberExists(ctx, number)
		if err != nil {
			return errors.Wrap(err, "check order number")
		}
		if exists {
			continue
		}

		o.Number = number
		err = s.orders.Create(ctx, o)
		switch {
		case err == nil:
			return nil
		case errors.Is(err, ErrNumberTaken):
			continue
		default:
			return errors.Wrap(err, "create order")
		}
	}
	return ErrNumberConflict
}

// Get returns a single order by ID.
func (s *Service) Get(ctx context.Context, id string) (*Order, error) {
	return s.orders.GetByID(ctx, id)
}

// GetByNumber looks an order up by its human-readable number. This is the
// recovery path after a checkout whose outcome the caller never saw.
func (s *Service) GetByNumber(ctx context.Context, number string) (*Order, error) {
	return s.orders.GetByNumber(ctx, number)
}

// ListByOwner returns the owner's orders, newest first.
func (s *Service) ListByOwner(ctx context.Context, owner string) ([]Order, error) {
	return s.orders.ListByOwner(ctx, owner)
}

// AdvanceStatus moves an order to the next lifecycle state. Only operators
// may advance status. Advancing an already delivered order to Delivered is
// an idempotent no-op; every other transition out of a terminal or into an
// earlier state is rejected.
func (s *Service) AdvanceStatus(ctx context.Context, actor auth.Actor, id string, next Status) (*Order, error) {
	if !actor.Operator() {
		return nil, ErrNotAllowed
	}
	if !next.Valid() {
		return nil, errors.Errorf("unknown order status %q", next)
	}

	o, err := s.orders.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	switch {
	case o.Status == next:
		// Idempotent: repeating a transition that already happened.
		return o, nil
	case o.Status == StatusPlaced && next == StatusDelivered:
		if err := s.orders.UpdateStatus(ctx, id, next); err != nil {
			return nil, errors.Wrap(err, "update status")
		}
		o.Status = next
		return o, nil
	default:
		return nil, &InvalidStateError{OrderID: id, Status: o.Status, Op: "advance"}
	}
}

// Delete removes an order. Permitted only while the order is still Placed;
// the owner may delete their own orders, operators may delete any.
func (s *Service) Delete(ctx context.Context, actor auth.Actor, id string) error {
	o, err := s.orders.GetByID(ctx, id)
	if err != nil {
		return err
	}

	if !actor.Operator() && actor.Subject != o.Owner {
		return ErrNotAllowed
	}
	if o.Status != StatusPlaced {
		return &InvalidStateError{OrderID: id, Status: o.Status, Op: "delete"}
	}

	if err := s.orders.Delete(ctx, id); err != nil {
		return errors.Wrap(err, "delete order")
	}
	return nil
}
