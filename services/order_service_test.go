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

func TestTransition_SkipsStampEveryCheckpoint(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	sess := e.session(t, "demo-table-1")
	o := e.placeOrder(t, sess, "BILL_TO_TABLE")

	e.clock.Advance(4 * time.Minute)
	// legacy vocabulary is accepted
	got, err := e.orders.Transition(ctx, e.tenant.ID, o.ID, "Ready")
	require.NoError(t, err)
	assert.Equal(t, status.OrderReady, got.Status)

	var row entity.Order
	require.NoError(t, e.db.First(&row, o.ID).Error)
	for _, at := range []*time.Time{row.ReceivedAt, row.PreparingAt, row.ReadyAt} {
		require.NotNil(t, at)
		assert.True(t, e.clock.Now().Equal(*at))
	}
	assert.Nil(t, row.ServedAt)

	_, err = e.orders.Transition(ctx, e.tenant.ID, o.ID, "PREPARING")
	assert.ErrorIs(t, err, apperr.ErrConflict)
	_, err = e.orders.Transition(ctx, e.tenant.ID, o.ID, "Eaten")
	assert.ErrorIs(t, err, apperr.ErrValidation)

	tr, err := e.orders.Tracking(sess, o.ID)
	require.NoError(t, err)
	require.Len(t, tr.Timeline, len(status.Lifecycle))
	assert.True(t, tr.Timeline[3].Completed)
	assert.Equal(t, "Ready", tr.Timeline[3].LegacyStatus)
	assert.False(t, tr.Timeline[4].Completed)
	assert.Equal(t, 4, tr.ElapsedMinutes)
	assert.Zero(t, tr.EstimatedTimeRemaining)

	assert.Equal(t, 1, e.pub.count(events.OrderStatusChanged))
}

func TestTransition_CancelFromAnyOpenState(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	sess := e.session(t, "demo-table-1")
	o := e.placeOrder(t, sess, "BILL_TO_TABLE")

	_, err := e.orders.Transition(ctx, e.tenant.ID, o.ID, "ACCEPTED")
	require.NoError(t, err)
	got, err := e.orders.Transition(ctx, e.tenant.ID, o.ID, "cancelled")
	require.NoError(t, err)
	assert.Equal(t, status.OrderCancelled, got.Status)

	_, err = e.orders.Transition(ctx, e.tenant.ID, o.ID, "PREPARING")
	assert.ErrorIs(t, err, apperr.ErrConflict)

	tr, err := e.orders.Tracking(sess, o.ID)
	require.NoError(t, err)
	require.Len(t, tr.Timeline, 3)
	assert.Equal(t, status.OrderCancelled, tr.Timeline[2].Status)
	assert.True(t, tr.Terminal)
}

func TestTransition_UnpaidOnlineOrderIsNotActionable(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	sess := e.session(t, "demo-table-1")
	o := e.placeOrder(t, sess, "CARD_ONLINE")

	_, err := e.orders.Transition(ctx, e.tenant.ID, o.ID, "RECEIVED")
	assert.ErrorIs(t, err, apperr.ErrConflict)

	p, err := e.payments.Status(ctx, sess, o.ID)
	require.NoError(t, err)
	_, err = e.payments.HandleWebhook(ctx, dto.PaymentWebhook{TransactionID: p.TransactionID, Status: "success"})
	require.NoError(t, err)

	got, err := e.orders.Transition(ctx, e.tenant.ID, o.ID, "RECEIVED")
	require.NoError(t, err)
	assert.Equal(t, status.OrderReceived, got.Status)

	queue, err := e.orders.StaffList(e.tenant.ID, false)
	require.NoError(t, err)
	require.Len(t, queue, 1)
	assert.Equal(t, o.ID, queue[0].ID)
}

func TestTransition_OtherTenantCannotSeeOrder(t *testing.T) {
	e := newEnv(t)
	sess := e.session(t, "demo-table-1")
	o := e.placeOrder(t, sess, "BILL_TO_TABLE")

	_, err := e.orders.Transition(context.Background(), e.tenant.ID+1, o.ID, "RECEIVED")
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestItemStatus_OnlyMovesForward(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	sess := e.session(t, "demo-table-1")
	o := e.placeOrder(t, sess, "BILL_TO_TABLE")
	itemID := o.Items[0].ID

	got, err := e.orders.ItemStatus(ctx, e.tenant.ID, o.ID, itemID, "ready")
	require.NoError(t, err)
	assert.Equal(t, status.ItemReady, got.Items[0].Status)

	var it entity.OrderItem
	require.NoError(t, e.db.First(&it, itemID).Error)
	assert.NotNil(t, it.StartedAt)
	assert.NotNil(t, it.PreparedAt)
	assert.Nil(t, it.ServedAt)

	_, err = e.orders.ItemStatus(ctx, e.tenant.ID, o.ID, itemID, "preparing")
	assert.ErrorIs(t, err, apperr.ErrConflict)
	_, err = e.orders.ItemStatus(ctx, e.tenant.ID, o.ID, itemID+999, "served")
	assert.ErrorIs(t, err, apperr.ErrNotFound)
	_, err = e.orders.ItemStatus(ctx, e.tenant.ID, o.ID, itemID, "burnt")
	assert.ErrorIs(t, err, apperr.ErrValidation)

	_, err = e.orders.Transition(ctx, e.tenant.ID, o.ID, "COMPLETED")
	require.NoError(t, err)
	_, err = e.orders.ItemStatus(ctx, e.tenant.ID, o.ID, itemID, "served")
	assert.ErrorIs(t, err, apperr.ErrConflict)
	assert.Equal(t, 1, e.pub.count(events.ItemStatusChanged))
}

func TestBuildTracking_Estimate(t *testing.T) {
	created := time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC)
	prep := 15
	o := &entity.Order{
		OrderNumber:           "ORD-20260314-0001",
		Status:                status.OrderPreparing,
		EstimatedReadyMinutes: &prep,
		Items: []entity.OrderItem{
			{Name: "Beef Pho", Quantity: 1, StartedAt: &created},
			{Name: "Iced Coffee", Quantity: 2},
		},
	}
	o.CreatedAt = created
	received := created.Add(time.Minute)
	o.ReceivedAt, o.PreparingAt = &received, &received

	tr := BuildTracking(o, created.Add(6*time.Minute+30*time.Second))
	assert.Equal(t, 6, tr.ElapsedMinutes)
	assert.Equal(t, 9, tr.EstimatedTimeRemaining)
	assert.Equal(t, "Preparing", tr.LegacyStatus)
	assert.False(t, tr.Terminal)
	require.Len(t, tr.Items, 2)
	assert.Equal(t, status.ItemPreparing, tr.Items[0].Status)
	assert.Equal(t, status.ItemQueued, tr.Items[1].Status)

	late := BuildTracking(o, created.Add(40*time.Minute))
	assert.Zero(t, late.EstimatedTimeRemaining)

	done := created.Add(25 * time.Minute)
	o.Status = status.OrderCompleted
	o.ReadyAt, o.ServedAt, o.CompletedAt = &done, &done, &done
	final := BuildTracking(o, created.Add(3*time.Hour))
	assert.Equal(t, 25, final.ElapsedMinutes)
	assert.True(t, final.Terminal)
}

func TestOrders_CustomerSeesOnlyOwnSession(t *testing.T) {
	e := newEnv(t)
	sess := e.session(t, "demo-table-1")
	o := e.placeOrder(t, sess, "BILL_TO_TABLE")

	list, err := e.orders.List(sess)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, o.OrderNumber, list[0].OrderNumber)

	other := e.session(t, "demo-table-2")
	list, err = e.orders.List(other)
	require.NoError(t, err)
	assert.Empty(t, list)
	_, err = e.orders.Tracking(other, o.ID)
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}
