package handler

import (
	"net/http"

	"github.com/go-faster/errors"
	"github.com/go-faster/jx"
	"github.com/go-faster/sdk/zctx"
	"go.uber.org/zap"

	"github.com/myatlin/shwecart/internal/domain/catalog"
)

func (h *Handler) listItems(w http.ResponseWriter, r *http.Request) {
	items, err := h.items.List(r.Context())
	if err != nil {
		zctx.From(r.Context()).Error("list items", zap.Error(err))
		writeDomainError(w, err)
		return
	}

	e := &jx.Encoder{}
	e.ArrStart()
	for i := range items {
		encodeItem(e, &items[i])
	}
	e.ArrEnd()
	writeJSON(w, http.StatusOK, e)
}

func (h *Handler) getItem(w http.ResponseWriter, r *http.Request) {
	item, err := h.items.GetByID(r.Context(), r.PathValue("id"))
	if err != nil {
		if !errors.Is(err, catalog.ErrNotFound) {
			zctx.From(r.Context()).Error("get item", zap.Error(err))
		}
		writeDomainError(w, err)
		return
	}

	e := &jx.Encoder{}
	encodeItem(e, item)
	writeJSON(w, http.StatusOK, e)
}
