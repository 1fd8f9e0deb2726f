package client

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tkob-team/TKOB-QROrderSystem-sub008/pkg/apperr"
	"github.com/tkob-team/TKOB-QROrderSystem-sub008/pkg/dto"
	"github.com/tkob-team/TKOB-QROrderSystem-sub008/pkg/status"
)

func twoLineCart(fb *fakeBackend) {
	fb.handle("GET /api/v1/cart", func(w http.ResponseWriter, r *http.Request) {
		c := emptyCart()
		c.Items = []dto.CartItem{burgerLine("a", 1), burgerLine("b", 2)}
		c.ItemCount = 3
		ok(w, c)
	})
}

func TestCheckout_EmptyCartMakesNoRequest(t *testing.T) {
	fb := newFakeBackend(t)
	api := fb.api(t)
	co := &Checkout{API: api, Cart: NewCartStore(api)}

	_, err := co.SubmitOrder(context.Background(), OrderRequest{TableID: 1, PaymentMethod: "BILL_TO_TABLE"})
	assert.ErrorIs(t, err, apperr.ErrValidation)
	assert.Zero(t, fb.calls.Load())
}

func TestCheckout_SuccessSendsLinesAndEmptiesCart(t *testing.T) {
	fb := newFakeBackend(t)
	twoLineCart(fb)
	var sent dto.CheckoutRequest
	fb.handle("POST /api/v1/checkout", func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewDecoder(r.Body).Decode(&sent)
		ok(w, dto.Order{ID: 9, OrderNumber: "ORD-20261015-0001", Status: status.OrderPending, Total: dec("56.75")})
	})

	api := fb.api(t)
	store := NewCartStore(api)
	require.NoError(t, store.Fetch(context.Background()))
	co := &Checkout{API: api, Cart: store}

	order, err := co.SubmitOrder(context.Background(), OrderRequest{
		TableID: 3, CustomerName: "Nok", PaymentMethod: "BILL_TO_TABLE", PromoCode: "WELCOME10",
	})
	require.NoError(t, err)
	assert.Equal(t, uint(9), order.ID)

	assert.Equal(t, []string{"a", "b"}, sent.ItemIDs)
	assert.Equal(t, uint(3), sent.TableID)
	assert.Equal(t, "WELCOME10", sent.PromoCode)

	snap := store.Snapshot()
	assert.Empty(t, snap.Cart.Items)
	assert.Zero(t, snap.Cart.ItemCount)
	assert.Equal(t, CartReady, snap.State)
}

func TestCheckout_FailureLeavesCartForRetry(t *testing.T) {
	fb := newFakeBackend(t)
	twoLineCart(fb)
	fb.handle("POST /api/v1/checkout", func(w http.ResponseWriter, r *http.Request) {
		fail(w, http.StatusConflict, apperr.CodeItemUnavailable, "some items are unavailable",
			map[string]any{"lineIds": []string{"b"}})
	})

	api := fb.api(t)
	store := NewCartStore(api)
	require.NoError(t, store.Fetch(context.Background()))
	co := &Checkout{API: api, Cart: store}

	_, err := co.SubmitOrder(context.Background(), OrderRequest{TableID: 3, PaymentMethod: "SEPAY"})
	var ue *apperr.UnavailableError
	require.True(t, errors.As(err, &ue))
	assert.Equal(t, []string{"b"}, ue.LineIDs)
	assert.Equal(t, []string{"a", "b"}, store.LineIDs())
}

func TestCheckout_ValidatePromo(t *testing.T) {
	fb := newFakeBackend(t)
	fb.handle("POST /api/v1/checkout/validate-promo", func(w http.ResponseWriter, r *http.Request) {
		var req dto.PromoRequest
		_ = json.NewDecoder(r.Body).Decode(&req)
		if req.Code != "WELCOME10" {
			ok(w, dto.PromoResult{Code: req.Code, Error: "promo code not found"})
			return
		}
		ok(w, dto.PromoResult{Valid: true, Code: req.Code, DiscountAmount: req.Subtotal.Mul(dec("0.10"))})
	})

	api := fb.api(t)
	co := &Checkout{API: api, Cart: NewCartStore(api)}

	res, err := co.ValidatePromo(context.Background(), "", dec("10"))
	require.NoError(t, err)
	assert.False(t, res.Valid)
	assert.Zero(t, fb.calls.Load())

	res, err = co.ValidatePromo(context.Background(), " WELCOME10 ", dec("32.90"))
	require.NoError(t, err)
	assert.True(t, res.Valid)
	assert.True(t, dec("3.29").Equal(res.DiscountAmount))

	res, err = co.ValidatePromo(context.Background(), "NOPE", dec("32.90"))
	require.NoError(t, err)
	assert.False(t, res.Valid)
	assert.NotEmpty(t, res.Error)
}
