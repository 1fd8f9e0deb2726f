package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tkob-team/TKOB-QROrderSystem-sub008/entity"
	"github.com/tkob-team/TKOB-QROrderSystem-sub008/events"
	"github.com/tkob-team/TKOB-QROrderSystem-sub008/pkg/apperr"
	"github.com/tkob-team/TKOB-QROrderSystem-sub008/pkg/dto"
	"github.com/tkob-team/TKOB-QROrderSystem-sub008/pkg/status"
)

func (e *testEnv) placeOrder(t *testing.T, sess *entity.TableSession, method string) *dto.Order {
	t.Helper()
	e.fillCart(t, sess)
	o, err := e.checkout.Submit(context.Background(), sess, dto.CheckoutRequest{PaymentMethod: method})
	require.NoError(t, err)
	return o
}

func TestPayment_ExpiresAfterTimeout(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	sess := e.session(t, "demo-table-1")
	o := e.placeOrder(t, sess, "CARD_ONLINE")

	e.clock.Advance(14 * time.Minute)
	p, err := e.payments.Status(ctx, sess, o.ID)
	require.NoError(t, err)
	assert.Equal(t, status.AttemptWaiting, p.Status)
	assert.Equal(t, int64(60), p.TimeRemainingSeconds)

	e.clock.Advance(time.Minute)
	p, err = e.payments.Status(ctx, sess, o.ID)
	require.NoError(t, err)
	assert.Equal(t, status.AttemptExpired, p.Status)
	assert.Zero(t, p.TimeRemainingSeconds)

	var row entity.Payment
	require.NoError(t, e.db.Where("transaction_id = ?", p.TransactionID).First(&row).Error)
	assert.Equal(t, status.AttemptExpired, row.Status)

	_, err = e.payments.Extend(ctx, sess, o.ID)
	assert.ErrorIs(t, err, apperr.ErrPaymentTimeout)

	// retry opens a fresh attempt
	next, err := e.payments.Start(ctx, sess, o.ID)
	require.NoError(t, err)
	assert.NotEqual(t, p.TransactionID, next.TransactionID)
	assert.Equal(t, status.AttemptWaiting, next.Status)
	assert.Equal(t, int64(900), next.TimeRemainingSeconds)
}

func TestPayment_ExtendResetsDeadline(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	sess := e.session(t, "demo-table-1")
	o := e.placeOrder(t, sess, "CARD_ONLINE")

	e.clock.Advance(13 * time.Minute)
	p, err := e.payments.Extend(ctx, sess, o.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(900), p.TimeRemainingSeconds)
	assert.Equal(t, 1, e.pub.count(events.TimerUpdate))

	e.clock.Advance(10 * time.Minute)
	p, err = e.payments.Status(ctx, sess, o.ID)
	require.NoError(t, err)
	assert.Equal(t, status.AttemptWaiting, p.Status)

	// Start does not replace a live attempt
	same, err := e.payments.Start(ctx, sess, o.ID)
	require.NoError(t, err)
	assert.Equal(t, p.TransactionID, same.TransactionID)
}

func TestPayment_WebhookSuccessIsIdempotent(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	sess := e.session(t, "demo-table-1")
	o := e.placeOrder(t, sess, "SEPAY_QR")

	p, err := e.payments.Status(ctx, sess, o.ID)
	require.NoError(t, err)

	for i := 0; i < 3; i++ {
		got, err := e.payments.HandleWebhook(ctx, dto.PaymentWebhook{TransactionID: p.TransactionID, Status: "PAID"})
		require.NoError(t, err)
		assert.Equal(t, status.AttemptSuccess, got.Status)
		assert.NotNil(t, got.PaidAt)
	}
	assert.Equal(t, 1, e.pub.count(events.PaymentCompleted))

	order, err := e.orders.Get(sess, o.ID)
	require.NoError(t, err)
	assert.Equal(t, status.PaymentPaid, order.PaymentStatus)
	assert.True(t, order.KitchenActionable)

	_, err = e.payments.HandleWebhook(ctx, dto.PaymentWebhook{TransactionID: p.TransactionID, Status: "failed"})
	assert.ErrorIs(t, err, apperr.ErrConflict)
	_, err = e.payments.Extend(ctx, sess, o.ID)
	assert.ErrorIs(t, err, apperr.ErrConflict)

	// verifying a completed payment keeps reporting success
	again, err := e.payments.Status(ctx, sess, o.ID)
	require.NoError(t, err)
	assert.Equal(t, status.AttemptSuccess, again.Status)
}

func TestPayment_LateSuccessAfterExpiry(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	sess := e.session(t, "demo-table-1")
	o := e.placeOrder(t, sess, "CARD_ONLINE")

	e.clock.Advance(16 * time.Minute)
	p, err := e.payments.Status(ctx, sess, o.ID)
	require.NoError(t, err)
	require.Equal(t, status.AttemptExpired, p.Status)

	got, err := e.payments.HandleWebhook(ctx, dto.PaymentWebhook{TransactionID: p.TransactionID, Status: "success"})
	require.NoError(t, err)
	assert.Equal(t, status.AttemptSuccess, got.Status)
	assert.Equal(t, 1, e.pub.count(events.PaymentCompleted))
}

func TestPayment_WebhookFailure(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	sess := e.session(t, "demo-table-1")
	o := e.placeOrder(t, sess, "CARD_ONLINE")

	p, err := e.payments.Status(ctx, sess, o.ID)
	require.NoError(t, err)

	got, err := e.payments.HandleWebhook(ctx, dto.PaymentWebhook{TransactionID: p.TransactionID, Status: "declined", Reason: "insufficient funds"})
	require.NoError(t, err)
	assert.Equal(t, status.AttemptFailed, got.Status)
	assert.Equal(t, "insufficient funds", got.FailureReason)
	assert.Equal(t, 1, e.pub.count(events.PaymentFailed))

	_, err = e.payments.Extend(ctx, sess, o.ID)
	assert.ErrorIs(t, err, apperr.ErrPaymentFailed)

	order, err := e.orders.Get(sess, o.ID)
	require.NoError(t, err)
	assert.Equal(t, status.PaymentFailed, order.PaymentStatus)

	_, err = e.payments.HandleWebhook(ctx, dto.PaymentWebhook{TransactionID: p.TransactionID, Status: "refunded"})
	assert.ErrorIs(t, err, apperr.ErrValidation)
	_, err = e.payments.HandleWebhook(ctx, dto.PaymentWebhook{TransactionID: "TXN-missing", Status: "success"})
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestPayment_BillToTable(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	sess := e.session(t, "demo-table-1")
	o := e.placeOrder(t, sess, "BILL_TO_TABLE")

	_, err := e.payments.Start(ctx, sess, o.ID)
	assert.ErrorIs(t, err, apperr.ErrValidation)

	paid, err := e.payments.CollectAtTable(ctx, e.tenant.ID, o.ID)
	require.NoError(t, err)
	assert.Equal(t, status.PaymentPaid, paid.PaymentStatus)
	_, err = e.payments.CollectAtTable(ctx, e.tenant.ID, o.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, e.pub.count(events.PaymentCompleted))

	_, err = e.payments.CollectAtTable(ctx, e.tenant.ID+1, o.ID)
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestPayment_QRCodeOnlyForSepay(t *testing.T) {
	e := newEnv(t)
	sess := e.session(t, "demo-table-1")

	qr := e.placeOrder(t, sess, "SEPAY_QR")
	png, err := e.payments.QRCode(sess, qr.ID, 0)
	require.NoError(t, err)
	assert.NotEmpty(t, png)

	card := e.placeOrder(t, sess, "CARD_ONLINE")
	_, err = e.payments.QRCode(sess, card.ID, 0)
	assert.ErrorIs(t, err, apperr.ErrValidation)

	// another table's session cannot see the order
	other := e.session(t, "demo-table-2")
	_, err = e.payments.Status(context.Background(), other, qr.ID)
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}
