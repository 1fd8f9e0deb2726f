package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tkob-team/TKOB-QROrderSystem-sub008/entity"
	"github.com/tkob-team/TKOB-QROrderSystem-sub008/events"
	"github.com/tkob-team/TKOB-QROrderSystem-sub008/pkg/apperr"
	"github.com/tkob-team/TKOB-QROrderSystem-sub008/pkg/dto"
	"github.com/tkob-team/TKOB-QROrderSystem-sub008/pkg/status"
)

func (e *testEnv) fillCart(t *testing.T, sess *entity.TableSession) *dto.Cart {
	t.Helper()
	cart, err := e.cart.Add(context.Background(), sess, largeBurgerWithCheese(t, e, 2))
	require.NoError(t, err)
	return cart
}

func (e *testEnv) countOrders(t *testing.T) int64 {
	t.Helper()
	var n int64
	require.NoError(t, e.db.Model(&entity.Order{}).Count(&n).Error)
	return n
}

func TestCheckout_EmptyCart(t *testing.T) {
	e := newEnv(t)
	sess := e.session(t, "demo-table-1")

	_, err := e.checkout.Submit(context.Background(), sess, dto.CheckoutRequest{PaymentMethod: "BILL_TO_TABLE"})
	assert.ErrorIs(t, err, apperr.ErrValidation)
	assert.Zero(t, e.countOrders(t))
}

func TestCheckout_BillToTable(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	sess := e.session(t, "demo-table-1")
	cart := e.fillCart(t, sess)

	order, err := e.checkout.Submit(ctx, sess, dto.CheckoutRequest{
		TableID:       sess.TableID,
		ItemIDs:       []string{cart.Items[0].ID},
		CustomerName:  " Mai ",
		PaymentMethod: "bill_to_table",
	})
	require.NoError(t, err)

	assert.NotEmpty(t, order.OrderNumber)
	assert.Equal(t, status.OrderPending, order.Status)
	assert.Equal(t, status.PaymentUnpaid, order.PaymentStatus)
	assert.True(t, order.KitchenActionable)
	assert.Equal(t, "Mai", order.CustomerName)
	assert.True(t, dec("32.90").Equal(order.Subtotal))
	assert.True(t, dec("37.84").Equal(order.Total), order.Total.String())
	require.NotNil(t, order.EstimatedReadyMinutes)
	assert.Equal(t, 15, *order.EstimatedReadyMinutes)

	require.Len(t, order.Items, 1)
	item := order.Items[0]
	assert.Equal(t, "Classic Burger", item.Name)
	assert.Len(t, item.Selections, 2)
	assert.Equal(t, status.ItemQueued, item.Status)

	after, err := e.cart.Get(ctx, sess)
	require.NoError(t, err)
	assert.Empty(t, after.Items)
	assert.Equal(t, 1, e.pub.count(events.OrderNew))

	// the snapshot does not follow later menu changes
	require.NoError(t, e.db.Model(&entity.MenuItem{}).Where("name = ?", "Classic Burger").
		Update("name", "Smash Burger").Error)
	again, err := e.orders.Get(sess, order.ID)
	require.NoError(t, err)
	assert.Equal(t, "Classic Burger", again.Items[0].Name)
}

func TestCheckout_OrderNumbersAreUnique(t *testing.T) {
	e := newEnv(t)
	sess := e.session(t, "demo-table-1")
	seen := map[string]bool{}
	for i := 0; i < 3; i++ {
		e.fillCart(t, sess)
		o, err := e.checkout.Submit(context.Background(), sess, dto.CheckoutRequest{PaymentMethod: "BILL_TO_TABLE"})
		require.NoError(t, err)
		assert.False(t, seen[o.OrderNumber], o.OrderNumber)
		seen[o.OrderNumber] = true
	}
}

func TestCheckout_UnavailableLinesKeepTheCart(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	sess := e.session(t, "demo-table-3")

	cart := e.fillCart(t, sess)
	burgerLine := cart.Items[0].ID
	_, err := e.cart.Add(ctx, sess, dto.AddItemRequest{MenuItemID: e.menu["Iced Coffee"].ID, Quantity: 1})
	require.NoError(t, err)

	require.NoError(t, e.db.Model(&entity.MenuItem{}).Where("id = ?", e.menu["Classic Burger"].ID).
		Update("availability", entity.SoldOut).Error)

	_, err = e.checkout.Submit(ctx, sess, dto.CheckoutRequest{PaymentMethod: "BILL_TO_TABLE"})
	require.ErrorIs(t, err, apperr.ErrItemUnavailable)
	var ue *apperr.UnavailableError
	require.ErrorAs(t, err, &ue)
	assert.Equal(t, []string{burgerLine}, ue.LineIDs)

	left, err := e.cart.Get(ctx, sess)
	require.NoError(t, err)
	assert.Len(t, left.Items, 2)
	assert.Zero(t, e.countOrders(t))
}

func TestCheckout_Rejections(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	sess := e.session(t, "demo-table-1")
	e.fillCart(t, sess)

	_, err := e.checkout.Submit(ctx, sess, dto.CheckoutRequest{PaymentMethod: "CASH_ON_DELIVERY"})
	assert.ErrorIs(t, err, apperr.ErrValidation)

	_, err = e.checkout.Submit(ctx, sess, dto.CheckoutRequest{TableID: sess.TableID + 1, PaymentMethod: "BILL_TO_TABLE"})
	assert.ErrorIs(t, err, apperr.ErrValidation)

	_, err = e.checkout.Submit(ctx, sess, dto.CheckoutRequest{ItemIDs: []string{"stale"}, PaymentMethod: "BILL_TO_TABLE"})
	assert.ErrorIs(t, err, apperr.ErrConflict)

	assert.Zero(t, e.countOrders(t))
}

func TestCheckout_Promotion(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	sess := e.session(t, "demo-table-1")
	e.fillCart(t, sess)

	order, err := e.checkout.Submit(ctx, sess, dto.CheckoutRequest{PaymentMethod: "BILL_TO_TABLE", PromoCode: "welcome10"})
	require.NoError(t, err)
	assert.Equal(t, "WELCOME10", order.PromoCode)
	assert.True(t, dec("3.29").Equal(order.Discount), order.Discount.String())
	assert.True(t, dec("2.96").Equal(order.Tax), order.Tax.String())
	assert.True(t, dec("1.48").Equal(order.ServiceCharge), order.ServiceCharge.String())
	assert.True(t, dec("34.05").Equal(order.Total), order.Total.String())

	// an unknown code does not block the order
	e.fillCart(t, sess)
	order, err = e.checkout.Submit(ctx, sess, dto.CheckoutRequest{PaymentMethod: "BILL_TO_TABLE", PromoCode: "NOPE"})
	require.NoError(t, err)
	assert.Empty(t, order.PromoCode)
	assert.True(t, order.Discount.IsZero())
	assert.True(t, dec("37.84").Equal(order.Total))
}

func TestCheckout_PersistedTotalsAddUp(t *testing.T) {
	tests := []struct {
		name  string
		price string
		promo string
		total string
	}{
		{"fifteen cents", "0.15", "", "0.18"},
		{"twelve fifteen", "12.15", "", "13.98"},
		{"twelve fifteen with promo", "12.15", "WELCOME10", "12.57"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := newEnv(t)
			ctx := context.Background()
			coffee := e.menu["Iced Coffee"]
			require.NoError(t, e.db.Model(&entity.MenuItem{}).Where("id = ?", coffee.ID).
				Update("base_price", dec(tt.price)).Error)

			sess := e.session(t, "demo-table-1")
			_, err := e.cart.Add(ctx, sess, dto.AddItemRequest{MenuItemID: coffee.ID, Quantity: 1})
			require.NoError(t, err)

			order, err := e.checkout.Submit(ctx, sess, dto.CheckoutRequest{PaymentMethod: "BILL_TO_TABLE", PromoCode: tt.promo})
			require.NoError(t, err)

			var saved entity.Order
			require.NoError(t, e.db.First(&saved, order.ID).Error)
			assert.True(t, dec(tt.total).Equal(saved.Total), "total %s", saved.Total)
			sum := saved.Subtotal.Sub(saved.Discount).Add(saved.Tax).Add(saved.ServiceCharge)
			assert.True(t, sum.Equal(saved.Total), "total %s, parts sum to %s", saved.Total, sum)
			assert.True(t, saved.Total.Equal(order.Total))
		})
	}
}

func TestCheckout_OnlinePaymentOpensAttempt(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	sess := e.session(t, "demo-table-1")
	e.fillCart(t, sess)

	order, err := e.checkout.Submit(ctx, sess, dto.CheckoutRequest{PaymentMethod: "sepay-qr"})
	require.NoError(t, err)
	assert.Equal(t, status.PaymentPending, order.PaymentStatus)
	assert.False(t, order.KitchenActionable)

	p, err := e.payments.Status(ctx, sess, order.ID)
	require.NoError(t, err)
	assert.Equal(t, status.AttemptWaiting, p.Status)
	assert.Equal(t, int64(946000), p.AmountVND)
	assert.Equal(t, int64(900), p.TimeRemainingSeconds)
	assert.Equal(t, int64(120), p.WarningThresholdSeconds)

	queue, err := e.orders.StaffList(e.tenant.ID, false)
	require.NoError(t, err)
	assert.Empty(t, queue)
}

func TestPromotion_Validate(t *testing.T) {
	e := newEnv(t)

	res, err := e.promos.Validate(e.tenant.ID, "WELCOME10", dec("80"))
	require.NoError(t, err)
	assert.True(t, res.Valid)
	assert.True(t, dec("5").Equal(res.DiscountAmount), "capped at max discount")

	res, err = e.promos.Validate(e.tenant.ID, "WELCOME10", dec("9.99"))
	require.NoError(t, err)
	assert.False(t, res.Valid)
	assert.NotEmpty(t, res.Error)

	res, err = e.promos.Validate(e.tenant.ID, "MISSING", dec("50"))
	require.NoError(t, err)
	assert.False(t, res.Valid)

	res, err = e.promos.Validate(e.tenant.ID+1, "WELCOME10", dec("50"))
	require.NoError(t, err)
	assert.False(t, res.Valid)
}
