package handler

import (
	"io"
	"net/http"
	"time"

	"github.com/go-faster/errors"
	"github.com/go-faster/jx"
	"github.com/shopspring/decimal"

	"github.com/myatlin/shwecart/internal/domain/cart"
	"github.com/myatlin/shwecart/internal/domain/catalog"
	"github.com/myatlin/shwecart/internal/domain/order"
	"github.com/myatlin/shwecart/internal/domain/pricing"
	"github.com/myatlin/shwecart/internal/domain/promotion"
)

const decodeBufSize = 4096

// --- Responses ---

func writeJSON(w http.ResponseWriter, status int, e *jx.Encoder) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(e.Bytes())
}

func writeError(w http.ResponseWriter, status int, message string) {
	e := &jx.Encoder{}
	e.ObjStart()
	e.FieldStart("code")
	e.Int(status)
	e.FieldStart("message")
	e.Str(message)
	e.ObjEnd()
	writeJSON(w, status, e)
}

// writeDomainError maps domain errors onto HTTP status codes. Unknown
// errors become opaque 500s so internals never leak to buyers.
func writeDomainError(w http.ResponseWriter, err error) {
	var (
		invalidQty  *cart.InvalidQuantityError
		unknownItem *cart.UnknownItemError
		noLine      *cart.LineNotFoundError
		badState    *order.InvalidStateError
		unavailable *order.UnavailableItemsError
	)

	switch {
	case errors.As(err, &invalidQty):
		writeError(w, http.StatusUnprocessableEntity, invalidQty.Error())
	case errors.As(err, &unknownItem):
		writeError(w, http.StatusUnprocessableEntity, unknownItem.Error())
	case errors.As(err, &unavailable):
		writeError(w, http.StatusUnprocessableEntity, unavailable.Error())
	case errors.As(err, &noLine):
		writeError(w, http.StatusNotFound, noLine.Error())
	case errors.As(err, &badState):
		writeError(w, http.StatusConflict, badState.Error())
	case errors.Is(err, order.ErrEmptyCart),
		errors.Is(err, order.ErrMissingAddress),
		errors.Is(err, order.ErrMissingContact):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, order.ErrNotFound), errors.Is(err, catalog.ErrNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, order.ErrNotAllowed):
		writeError(w, http.StatusForbidden, err.Error())
	case errors.Is(err, order.ErrNumberConflict):
		writeError(w, http.StatusConflict, err.Error())
	case errors.Is(err, catalog.ErrUnavailable), errors.Is(err, promotion.ErrUnavailable):
		w.Header().Set("Retry-After", "1")
		writeError(w, http.StatusServiceUnavailable, "temporarily unavailable, retry shortly")
	default:
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}

func encodeMoney(e *jx.Encoder, d decimal.Decimal) {
	e.Num(jx.Num(d.String()))
}

func encodeItem(e *jx.Encoder, it *catalog.Item) {
	e.ObjStart()
	e.FieldStart("id")
	e.Str(it.ID)
	e.FieldStart("name")
	e.Str(it.Name)
	e.FieldStart("price")
	encodeMoney(e, it.Price)
	e.FieldStart("brand")
	e.Str(it.Brand)
	e.FieldStart("category")
	e.Str(it.Category)
	e.ObjEnd()
}

func encodeCart(e *jx.Encoder, c *cart.Cart) {
	e.ObjStart()
	e.FieldStart("id")
	e.Str(c.ID)
	e.FieldStart("owner")
	e.Str(c.Owner)
	e.FieldStart("lines")
	e.ArrStart()
	for _, l := range c.Lines {
		e.ObjStart()
		e.FieldStart("itemId")
		e.Str(l.ItemID)
		e.FieldStart("quantity")
		e.Int(l.Quantity)
		e.ObjEnd()
	}
	e.ArrEnd()
	e.ObjEnd()
}

func encodeQuote(e *jx.Encoder, q *pricing.Quote) {
	e.ObjStart()
	e.FieldStart("lines")
	e.ArrStart()
	for _, l := range q.Lines {
		e.ObjStart()
		e.FieldStart("itemId")
		e.Str(l.ItemID)
		e.FieldStart("quantity")
		e.Int(l.Quantity)
		if l.Unavailable {
			e.FieldStart("unavailable")
			e.Bool(true)
			e.ObjEnd()
			continue
		}
		e.FieldStart("itemName")
		e.Str(l.ItemName)
		e.FieldStart("basePrice")
		encodeMoney(e, l.BasePrice)
		e.FieldStart("unitPrice")
		encodeMoney(e, l.UnitPrice)
		e.FieldStart("lineTotal")
		encodeMoney(e, l.LineTotal)
		if l.Discount > 0 {
			e.FieldStart("discount")
			e.Int(l.Discount)
			e.FieldStart("promotionId")
			e.Str(l.PromotionID)
		}
		e.ObjEnd()
	}
	e.ArrEnd()
	e.FieldStart("grandTotal")
	encodeMoney(e, q.GrandTotal)
	e.ObjEnd()
}

func encodeOrder(e *jx.Encoder, o *order.Order) {
	e.ObjStart()
	e.FieldStart("id")
	e.Str(o.ID)
	e.FieldStart("orderNumber")
	e.Str(o.Number)
	e.FieldStart("owner")
	e.Str(o.Owner)
	e.FieldStart("deliveryAddress")
	e.Str(o.DeliveryAddress)
	e.FieldStart("deliveryContact")
	e.Str(o.DeliveryContact)
	e.FieldStart("status")
	e.Str(string(o.Status))
	e.FieldStart("total")
	encodeMoney(e, o.Total)
	e.FieldStart("createdAt")
	e.Str(o.CreatedAt.UTC().Format(time.RFC3339))
	e.FieldStart("lines")
	e.ArrStart()
	for _, l := range o.Lines {
		e.ObjStart()
		e.FieldStart("itemId")
		e.Str(l.ItemID)
		e.FieldStart("itemName")
		e.Str(l.ItemName)
		e.FieldStart("quantity")
		e.Int(l.Quantity)
		e.FieldStart("unitPrice")
		encodeMoney(e, l.UnitPrice)
		e.ObjEnd()
	}
	e.ArrEnd()
	e.ObjEnd()
}

// --- Requests ---

type cartMutation struct {
	Owner    string
	ItemID   string
	Quantity int
	// QuantitySet distinguishes an explicit quantity from an omitted one:
	// add defaults to 1, update treats omitted as 0 (removal).
	QuantitySet bool
}

func decodeCartMutation(r io.Reader) (*cartMutation, error) {
	var m cartMutation
	d := jx.Decode(r, decodeBufSize)
	if err := d.Obj(func(d *jx.Decoder, key string) error {
		var err error
		switch key {
		case "owner":
			m.Owner, err = d.Str()
		case "itemId":
			m.ItemID, err = d.Str()
		case "quantity":
			m.Quantity, err = d.Int()
			m.QuantitySet = true
		default:
			err = d.Skip()
		}
		return err
	}); err != nil {
		return nil, errors.Wrap(err, "decode cart mutation")
	}
	if m.Owner == "" || m.ItemID == "" {
		return nil, errors.New("owner and itemId are required")
	}
	return &m, nil
}

type placeOrderBody struct {
	Owner           string
	DeliveryAddress string
	DeliveryContact string
}

func decodePlaceOrder(r io.Reader) (*placeOrderBody, error) {
	var b placeOrderBody
	d := jx.Decode(r, decodeBufSize)
	if err := d.Obj(func(d *jx.Decoder, key string) error {
		var err error
		switch key {
		case "owner":
			b.Owner, err = d.Str()
		case "deliveryAddress":
			b.DeliveryAddress, err = d.Str()
		case "deliveryContact":
			b.DeliveryContact, err = d.Str()
		default:
			err = d.Skip()
		}
		return err
	}); err != nil {
		return nil, errors.Wrap(err, "decode order request")
	}
	if b.Owner == "" {
		return nil, errors.New("owner is required")
	}
	return &b, nil
}

func decodeStatusUpdate(r io.Reader) (order.Status, error) {
	var status string
	d := jx.Decode(r, decodeBufSize)
	if err := d.Obj(func(d *jx.Decoder, key string) error {
		var err error
		switch key {
		case "status":
			status, err = d.Str()
		default:
			err = d.Skip()
		}
		return err
	}); err != nil {
		return "", errors.Wrap(err, "decode status update")
	}
	if status == "" {
		return "", errors.New("status is required")
	}
	return order.Status(status), nil
}
