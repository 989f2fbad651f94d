// Package pricing computes per-line discounted prices and cart totals.
// The arithmetic lives in pure functions so the same cart, promotion set,
// and clock always produce identical totals.
package pricing

import (
	"context"
	"time"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"

	"github.com/myatlin/shwecart/internal/domain/cart"
	"github.com/myatlin/shwecart/internal/domain/catalog"
	"github.com/myatlin/shwecart/internal/domain/promotion"
)

var hundred = decimal.NewFromInt(100)

// Line is the frozen pricing of a single cart line. Unavailable marks a
// line whose catalog item no longer exists: such lines carry no prices and
// are excluded from the grand total instead of failing the whole quote.
type Line struct {
	ItemID      string
	ItemName    string
	Quantity    int
	BasePrice   decimal.Decimal
	UnitPrice   decimal.Decimal
	LineTotal   decimal.Decimal
	Discount    int
	PromotionID string
	Unavailable bool
}

// Quote is a fully priced cart snapshot.
type Quote struct {
	Lines      []Line
	GrandTotal decimal.Decimal
}

// Unavailable returns the item IDs of lines that could not be priced.
func (q *Quote) Unavailable() []string {
	var ids []string
	for _, l := range q.Lines {
		if l.Unavailable {
			ids = append(ids, l.ItemID)
		}
	}
	return ids
}

// UnitPrice applies a percentage discount to a base price. The result is
// rounded half-up to the whole kyat; MMK has no minor unit. A zero discount
// leaves the base price untouched.
func UnitPrice(base decimal.Decimal, discount int) decimal.Decimal {
	if discount <= 0 {
		return base
	}
	off := base.Mul(decimal.NewFromInt(int64(discount))).Div(hundred)
	return base.Sub(off).Round(0)
}

// PriceLine freezes the pricing for one line. promo may be nil.
func PriceLine(item catalog.Item, promo *promotion.Promotion, qty int) Line {
	l := Line{
		ItemID:    item.ID,
		ItemName:  item.Name,
		Quantity:  qty,
		BasePrice: item.Price,
	}
	if promo != nil {
		l.Discount = promo.Discount
		l.PromotionID = promo.ID
	}
	l.UnitPrice = UnitPrice(item.Price, l.Discount)
	l.LineTotal = l.UnitPrice.Mul(decimal.NewFromInt(int64(qty)))
	return l
}

// Total sums the line totals of all priced lines, skipping unavailable ones.
func Total(lines []Line) decimal.Decimal {
	sum := decimal.Zero
	for _, l := range lines {
		if l.Unavailable {
			continue
		}
		sum = sum.Add(l.LineTotal)
	}
	return sum
}

// PromotionResolver yields the active promotion for an item, or nil.
type PromotionResolver interface {
	ActiveFor(ctx context.Context, itemID string, now time.Time) (*promotion.Promotion, error)
}

// Engine gathers catalog and promotion data for a cart and prices it.
type Engine struct {
	items  catalog.Repository
	promos PromotionResolver
}

// NewEngine creates a pricing Engine with the required collaborators.
func NewEngine(items catalog.Repository, promos PromotionResolver) *Engine {
	return &Engine{items: items, promos: promos}
}

// PriceCart prices every line of the cart as of the given time. Lines whose
// item has vanished from the catalog come back flagged unavailable; pricing
// the remaining lines still succeeds. Collaborator failures propagate so a
// timeout is never mistaken for "no promotion".
func (e *Engine) PriceCart(ctx context.Context, c *cart.Cart, now time.Time) (*Quote, error) {
	if c.Empty() {
		return &Quote{GrandTotal: decimal.Zero}, nil
	}

	ids := make([]string, len(c.Lines))
	for i, l := range c.Lines {
		ids[i] = l.ItemID
	}

	fetched, err := e.items.GetByIDs(ctx, ids)
	if err != nil {
		return nil, errors.Wrap(err, "get items")
	}
	itemsByID := make(map[string]catalog.Item, len(fetched))
	for _, it := range fetched {
		itemsByID[it.ID] = it
	}

	q := &Quote{Lines: make([]Line, 0, len(c.Lines))}
	for _, cl := range c.Lines {
		item, ok := itemsByID[cl.ItemID]
		if !ok {
			q.Lines = append(q.Lines, Line{
				ItemID:      cl.ItemID,
				Quantity:    cl.Quantity,
				Unavailable: true,
			})
			continue
		}

		promo, err := e.promos.ActiveFor(ctx, cl.ItemID, now)
		if err != nil {
			return nil, errors.Wrapf(err, "resolve promotion for item %s", cl.ItemID)
		}

		q.Lines = append(q.Lines, PriceLine(item, promo, cl.Quantity))
	}

	q.GrandTotal = Total(q.Lines)
	return q, nil
}
