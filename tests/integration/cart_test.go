//go:build integration

package integration

import (
	"net/http"
	"testing"
)

const mohingaSetID = "af3c8e21-1b36-4f0e-9f6f-3e2db2a1c002"

type cartMutationRequest struct {
	Owner    string `json:"owner"`
	ItemID   string `json:"itemId"`
	Quantity int    `json:"quantity,omitempty"`
}

func TestCart_Unauthorized(t *testing.T) {
	resp := doReq(t, http.MethodGet, "/api/cart/"+customerID, "", nil)
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", resp.StatusCode)
	}
}

func TestCart_ForbiddenForOtherOwner(t *testing.T) {
	resp := doReq(t, http.MethodGet, "/api/cart/someone-else", customerAPIKey, nil)
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", resp.StatusCode)
	}
}

func TestCart_AddAndAccumulate(t *testing.T) {
	clearCart(t)

	resp := doReq(t, http.MethodPost, "/api/cart/add", customerAPIKey, cartMutationRequest{
		Owner:  customerID,
		ItemID: coconutNoodlesID,
	})
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	c := decodeJSON[cartResponse](t, resp)
	if len(c.Lines) != 1 || c.Lines[0].Quantity != 1 {
		t.Fatalf("expected one line with quantity 1, got %+v", c.Lines)
	}

	resp2 := doReq(t, http.MethodPost, "/api/cart/add", customerAPIKey, cartMutationRequest{
		Owner:    customerID,
		ItemID:   coconutNoodlesID,
		Quantity: 2,
	})
	defer resp2.Body.Close()

	c = decodeJSON[cartResponse](t, resp2)
	if len(c.Lines) != 1 {
		t.Fatalf("expected a single merged line, got %d", len(c.Lines))
	}
	if c.Lines[0].Quantity != 3 {
		t.Fatalf("quantity: got %d, want 3", c.Lines[0].Quantity)
	}
}

func TestCart_AddUnknownItem(t *testing.T) {
	resp := doReq(t, http.MethodPost, "/api/cart/add", customerAPIKey, cartMutationRequest{
		Owner:  customerID,
		ItemID: "00000000-0000-0000-0000-000000000000",
	})
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422, got %d", resp.StatusCode)
	}
}

func TestCart_UpdateToZeroRemoves(t *testing.T) {
	clearCart(t)

	resp := doReq(t, http.MethodPost, "/api/cart/add", customerAPIKey, cartMutationRequest{
		Owner:    customerID,
		ItemID:   mohingaSetID,
		Quantity: 2,
	})
	resp.Body.Close()

	resp = doReq(t, http.MethodPut, "/api/cart/update", customerAPIKey, cartMutationRequest{
		Owner:  customerID,
		ItemID: mohingaSetID,
	})
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	c := decodeJSON[cartResponse](t, resp)
	if len(c.Lines) != 0 {
		t.Fatalf("expected empty cart, got %+v", c.Lines)
	}
}

func TestCart_Quote(t *testing.T) {
	clearCart(t)

	resp := doReq(t, http.MethodPost, "/api/cart/add", customerAPIKey, cartMutationRequest{
		Owner:    customerID,
		ItemID:   coconutNoodlesID,
		Quantity: 2,
	})
	resp.Body.Close()
	resp = doReq(t, http.MethodPost, "/api/cart/add", customerAPIKey, cartMutationRequest{
		Owner:  customerID,
		ItemID: mohingaSetID,
	})
	resp.Body.Close()

	resp = doReq(t, http.MethodGet, "/api/cart/"+customerID+"/quote", customerAPIKey, nil)
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	q := decodeJSON[quoteResponse](t, resp)
	if len(q.Lines) != 2 {
		t.Fatalf("expected 2 lines, got %d", len(q.Lines))
	}

	// Seeded NOODLE20 promotion: 10000 at 20% off = 8000 each.
	var noodles *quoteLineResponse
	for i := range q.Lines {
		if q.Lines[i].ItemID == coconutNoodlesID {
			noodles = &q.Lines[i]
			break
		}
	}
	if noodles == nil {
		t.Fatal("coconut noodles line not found in quote")
	}
	if noodles.Discount != 20 {
		t.Errorf("discount: got %d, want 20", noodles.Discount)
	}
	if noodles.UnitPrice != 8000 {
		t.Errorf("unit price: got %v, want 8000", noodles.UnitPrice)
	}
	if noodles.LineTotal != 16000 {
		t.Errorf("line total: got %v, want 16000", noodles.LineTotal)
	}

	if q.GrandTotal != 21000 {
		t.Errorf("grand total: got %v, want 21000", q.GrandTotal)
	}
}
