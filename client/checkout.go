package client

import (
	"context"
	"net/http"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/tkob-team/TKOB-QROrderSystem-sub008/pkg/apperr"
	"github.com/tkob-team/TKOB-QROrderSystem-sub008/pkg/dto"
)

// OrderRequest is what the checkout screen collects.
type OrderRequest struct {
	TableID       uint
	CustomerName  string
	Notes         string
	PaymentMethod string
	PromoCode     string
}

type Checkout struct {
	API  *API
	Cart *CartStore
}

// SubmitOrder sends the current cart lines. The local cart is emptied only
// after the server created the order; any failure leaves it for a retry.
// An *apperr.UnavailableError names the lines to fix.
func (c *Checkout) SubmitOrder(ctx context.Context, in OrderRequest) (*dto.Order, error) {
	ids := c.Cart.LineIDs()
	if len(ids) == 0 {
		return nil, apperr.Validation("cart is empty")
	}
	if strings.TrimSpace(in.PaymentMethod) == "" {
		return nil, apperr.Validation("payment method is required")
	}
	req := dto.CheckoutRequest{
		TableID:       in.TableID,
		ItemIDs:       ids,
		CustomerName:  in.CustomerName,
		Notes:         in.Notes,
		PaymentMethod: in.PaymentMethod,
		PromoCode:     in.PromoCode,
	}
	var out dto.Order
	if err := c.API.do(ctx, http.MethodPost, "/checkout", req, &out); err != nil {
		return nil, err
	}
	c.Cart.resetAfterCheckout()
	return &out, nil
}

// ValidatePromo is optional before SubmitOrder; an invalid code comes back
// as Valid=false, not as an error.
func (c *Checkout) ValidatePromo(ctx context.Context, code string, subtotal decimal.Decimal) (*dto.PromoResult, error) {
	code = strings.TrimSpace(code)
	if code == "" {
		return &dto.PromoResult{Error: "promo code is required"}, nil
	}
	var out dto.PromoResult
	if err := c.API.do(ctx, http.MethodPost, "/checkout/validate-promo", dto.PromoRequest{Code: code, Subtotal: subtotal}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}
