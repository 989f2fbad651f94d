// Package handler exposes the cart, pricing, and order operations over
// HTTP. The domain layer works with plain records; everything JSON lives
// here, encoded and decoded with go-faster/jx.
package handler

import (
	"net/http"

	"go.opentelemetry.io/otel/metric"

	"github.com/myatlin/shwecart/internal/domain/auth"
	"github.com/myatlin/shwecart/internal/domain/cart"
	"github.com/myatlin/shwecart/internal/domain/catalog"
	"github.com/myatlin/shwecart/internal/domain/order"
	"github.com/myatlin/shwecart/internal/domain/pricing"
)

// Handler wires the HTTP surface to the domain services.
type Handler struct {
	items        catalog.Repository
	carts        *cart.Store
	pricer       *pricing.Engine
	orders       *order.Service
	sec          *security
	ordersPlaced metric.Int64Counter
}

// NewHandler constructs a Handler. meter may come from a no-op provider in
// tests.
func NewHandler(
	items catalog.Repository,
	carts *cart.Store,
	pricer *pricing.Engine,
	orders *order.Service,
	apikeys auth.Repository,
	pepper []byte,
	meter metric.Meter,
) (*Handler, error) {
	ordersPlaced, err := meter.Int64Counter("shwecart.orders.placed")
	if err != nil {
		return nil, err
	}

	return &Handler{
		items:        items,
		carts:        carts,
		pricer:       pricer,
		orders:       orders,
		sec:          newSecurity(apikeys, pepper),
		ordersPlaced: ordersPlaced,
	}, nil
}

// Routes registers every API route on a fresh mux.
func (h *Handler) Routes() *http.ServeMux {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /api/items", h.listItems)
	mux.HandleFunc("GET /api/items/{id}", h.getItem)

	mux.HandleFunc("GET /api/cart/{owner}", h.authorized(h.getCart))
	mux.HandleFunc("GET /api/cart/{owner}/quote", h.authorized(h.quoteCart))
	mux.HandleFunc("POST /api/cart/add", h.authorized(h.addToCart))
	mux.HandleFunc("PUT /api/cart/update", h.authorized(h.updateCart))
	mux.HandleFunc("DELETE /api/cart/remove", h.authorized(h.removeFromCart))
	mux.HandleFunc("DELETE /api/cart/clear/{owner}", h.authorized(h.clearCart))

	mux.HandleFunc("POST /api/orders", h.authorized(h.placeOrder))
	mux.HandleFunc("GET /api/orders/user/{owner}", h.authorized(h.listOrders))
	mux.HandleFunc("GET /api/orders/number/{number}", h.authorized(h.getOrderByNumber))
	mux.HandleFunc("PUT /api/orders/{id}/status", h.authorized(h.advanceOrderStatus))
	mux.HandleFunc("DELETE /api/orders/{id}", h.authorized(h.deleteOrder))

	return mux
}
