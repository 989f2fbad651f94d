package handler

import (
	"net/http"
	"time"

	"github.com/go-faster/jx"
	"github.com/go-faster/sdk/zctx"
	"go.uber.org/zap"

	"github.com/myatlin/shwecart/internal/domain/auth"
	"github.com/myatlin/shwecart/internal/domain/cart"
)

func (h *Handler) getCart(w http.ResponseWriter, r *http.Request, actor auth.Actor) {
	owner := r.PathValue("owner")
	if !canAct(actor, owner) {
		writeError(w, http.StatusForbidden, "cannot read another user's cart")
		return
	}

	c, err := h.carts.Get(r.Context(), owner)
	if err != nil {
		zctx.From(r.Context()).Error("get cart", zap.Error(err))
		writeDomainError(w, err)
		return
	}
	respondCart(w, c)
}

func (h *Handler) quoteCart(w http.ResponseWriter, r *http.Request, actor auth.Actor) {
	owner := r.PathValue("owner")
	if !canAct(actor, owner) {
		writeError(w, http.StatusForbidden, "cannot price another user's cart")
		return
	}

	c, err := h.carts.Get(r.Context(), owner)
	if err != nil {
		zctx.From(r.Context()).Error("get cart", zap.Error(err))
		writeDomainError(w, err)
		return
	}

	quote, err := h.pricer.PriceCart(r.Context(), c, time.Now())
	if err != nil {
		zctx.From(r.Context()).Error("price cart", zap.Error(err))
		writeDomainError(w, err)
		return
	}

	e := &jx.Encoder{}
	encodeQuote(e, quote)
	writeJSON(w, http.StatusOK, e)
}

func (h *Handler) addToCart(w http.ResponseWriter, r *http.Request, actor auth.Actor) {
	m, err := decodeCartMutation(r.Body)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if !canAct(actor, m.Owner) {
		writeError(w, http.StatusForbidden, "cannot mutate another user's cart")
		return
	}

	qty := m.Quantity
	if !m.QuantitySet {
		qty = 1
	}

	c, err := h.carts.AddItem(r.Context(), m.Owner, m.ItemID, qty)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	respondCart(w, c)
}

func (h *Handler) updateCart(w http.ResponseWriter, r *http.Request, actor auth.Actor) {
	m, err := decodeCartMutation(r.Body)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if !canAct(actor, m.Owner) {
		writeError(w, http.StatusForbidden, "cannot mutate another user's cart")
		return
	}

	c, err := h.carts.SetQuantity(r.Context(), m.Owner, m.ItemID, m.Quantity)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	respondCart(w, c)
}

func (h *Handler) removeFromCart(w http.ResponseWriter, r *http.Request, actor auth.Actor) {
	m, err := decodeCartMutation(r.Body)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if !canAct(actor, m.Owner) {
		writeError(w, http.StatusForbidden, "cannot mutate another user's cart")
		return
	}

	c, err := h.carts.RemoveItem(r.Context(), m.Owner, m.ItemID)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	respondCart(w, c)
}

func (h *Handler) clearCart(w http.ResponseWriter, r *http.Request, actor auth.Actor) {
	owner := r.PathValue("owner")
	if !canAct(actor, owner) {
		writeError(w, http.StatusForbidden, "cannot mutate another user's cart")
		return
	}

	c, err := h.carts.Clear(r.Context(), owner)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	respondCart(w, c)
}

func respondCart(w http.ResponseWriter, c *cart.Cart) {
	e := &jx.Encoder{}
	encodeCart(e, c)
	writeJSON(w, http.StatusOK, e)
}
