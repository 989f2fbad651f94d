package handler

import (
	"net/http"

	"github.com/go-faster/errors"
	"github.com/go-faster/jx"
	"github.com/go-faster/sdk/zctx"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.uber.org/zap"

	"github.com/myatlin/shwecart/internal/domain/auth"
	"github.com/myatlin/shwecart/internal/domain/order"
)

func (h *Handler) placeOrder(w http.ResponseWriter, r *http.Request, actor auth.Actor) {
	body, err := decodePlaceOrder(r.Body)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if !canAct(actor, body.Owner) {
		writeError(w, http.StatusForbidden, "cannot order for another user")
		return
	}

	o, err := h.orders.PlaceOrder(r.Context(), order.PlaceOrderRequest{
		Owner:           body.Owner,
		DeliveryAddress: body.DeliveryAddress,
		DeliveryContact: body.DeliveryContact,
	})

	// The order may exist even when err != nil: a failed cart clear still
	// returns the committed order. Respond with it and let the idempotent
	// clear be retried out of band.
	var clearErr *order.CartClearError
	if err != nil && !errors.As(err, &clearErr) {
		writeDomainError(w, err)
		return
	}
	if clearErr != nil {
		zctx.From(r.Context()).Warn("cart clear pending after checkout",
			zap.String("order_number", o.Number),
			zap.Error(clearErr),
		)
	}

	h.ordersPlaced.Add(r.Context(), 1,
		metric.WithAttributes(attribute.Int("lines", len(o.Lines))),
	)

	e := &jx.Encoder{}
	encodeOrder(e, o)
	writeJSON(w, http.StatusCreated, e)
}

func (h *Handler) listOrders(w http.ResponseWriter, r *http.Request, actor auth.Actor) {
	owner := r.PathValue("owner")
	if !canAct(actor, owner) {
		writeError(w, http.StatusForbidden, "cannot list another user's orders")
		return
	}

	orders, err := h.orders.ListByOwner(r.Context(), owner)
	if err != nil {
		zctx.From(r.Context()).Error("list orders", zap.Error(err))
		writeDomainError(w, err)
		return
	}

	e := &jx.Encoder{}
	e.ArrStart()
	for i := range orders {
		encodeOrder(e, &orders[i])
	}
	e.ArrEnd()
	writeJSON(w, http.StatusOK, e)
}

func (h *Handler) getOrderByNumber(w http.ResponseWriter, r *http.Request, actor auth.Actor) {
	o, err := h.orders.GetByNumber(r.Context(), r.PathValue("number"))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	if !canAct(actor, o.Owner) {
		writeError(w, http.StatusForbidden, "cannot read another user's order")
		return
	}

	e := &jx.Encoder{}
	encodeOrder(e, o)
	writeJSON(w, http.StatusOK, e)
}

func (h *Handler) advanceOrderStatus(w http.ResponseWriter, r *http.Request, actor auth.Actor) {
	next, err := decodeStatusUpdate(r.Body)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if !next.Valid() {
		writeError(w, http.StatusBadRequest, "unknown order status")
		return
	}

	o, err := h.orders.AdvanceStatus(r.Context(), actor, r.PathValue("id"), next)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	e := &jx.Encoder{}
	encodeOrder(e, o)
	writeJSON(w, http.StatusOK, e)
}

func (h *Handler) deleteOrder(w http.ResponseWriter, r *http.Request, actor auth.Actor) {
	if err := h.orders.Delete(r.Context(), actor, r.PathValue("id")); err != nil {
		writeDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
