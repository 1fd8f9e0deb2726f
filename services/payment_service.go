package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/url"
	"strings"
	"time"

	"github.com/skip2/go-qrcode"
	"gorm.io/gorm"

	"github.com/tkob-team/TKOB-QROrderSystem-sub008/entity"
	"github.com/tkob-team/TKOB-QROrderSystem-sub008/events"
	"github.com/tkob-team/TKOB-QROrderSystem-sub008/pkg/apperr"
	"github.com/tkob-team/TKOB-QROrderSystem-sub008/pkg/dto"
	"github.com/tkob-team/TKOB-QROrderSystem-sub008/pkg/pricing"
	"github.com/tkob-team/TKOB-QROrderSystem-sub008/pkg/status"
	"github.com/tkob-team/TKOB-QROrderSystem-sub008/repository"
	"github.com/tkob-team/TKOB-QROrderSystem-sub008/utils"
)

type PaymentSettings struct {
	Timeout   time.Duration
	Warning   time.Duration
	Converter pricing.Converter
}

// PaymentService tracks payment attempts. An attempt leaves "waiting"
// exactly once; the confirmed side effects are guarded by Once as well.
type PaymentService struct {
	DB       *gorm.DB
	Orders   *repository.OrderRepository
	Payments *repository.PaymentRepository
	Once     OnceMarker
	Events   events.Publisher
	Settings PaymentSettings
	Clock    Clock
}

func confirmedKey(orderID uint) string { return fmt.Sprintf("payment:confirmed:%d", orderID) }

func (s *PaymentService) onlineOrder(sess *entity.TableSession, orderID uint) (*entity.Order, error) {
	o, err := s.Orders.GetOrderForSession(sess.ID, orderID)
	if err != nil {
		return nil, err
	}
	if !o.PaymentMethod.RequiresOnlinePayment() {
		return nil, apperr.Validation("order %s is billed to the table", o.OrderNumber)
	}
	return o, nil
}

// Start returns the live attempt or opens a new one after a failure or
// timeout. A paid order just returns its successful attempt.
func (s *PaymentService) Start(ctx context.Context, sess *entity.TableSession, orderID uint) (*dto.Payment, error) {
	o, err := s.onlineOrder(sess, orderID)
	if err != nil {
		return nil, err
	}
	now := s.Clock.now()

	latest, err := s.Payments.LatestForOrder(o.ID)
	if err != nil && !errors.Is(err, apperr.ErrNotFound) {
		return nil, err
	}
	if latest != nil {
		if latest.Status == status.AttemptSuccess || (latest.Status == status.AttemptWaiting && now.Before(latest.ExpiresAt)) {
			v := PaymentView(latest, now, s.Settings.Warning)
			return &v, nil
		}
		if o.Status == status.OrderCancelled {
			return nil, fmt.Errorf("%w: order was cancelled", apperr.ErrConflict)
		}
		if _, err := s.expire(latest, now); err != nil {
			return nil, err
		}
	}

	p := &entity.Payment{
		OrderID:       o.ID,
		TransactionID: utils.NewTransactionID(),
		Method:        o.PaymentMethod,
		Status:        status.AttemptWaiting,
		Amount:        o.Total,
		ExpiresAt:     now.Add(s.Settings.Timeout),
	}
	if o.PaymentMethod == status.MethodSepayQR {
		p.AmountVND = s.Settings.Converter.UsdToVnd(o.Total)
	}
	err = s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := s.Payments.Create(tx, p); err != nil {
			return err
		}
		return s.Orders.UpdatePaymentStatus(tx, o.ID, status.PaymentPending)
	})
	if err != nil {
		return nil, err
	}
	s.publishTimer(ctx, o, p)
	v := PaymentView(p, now, s.Settings.Warning)
	return &v, nil
}

// Status is the idempotent verify: it may be called any number of times and
// only reports. An overdue waiting attempt is persisted as expired.
func (s *PaymentService) Status(ctx context.Context, sess *entity.TableSession, orderID uint) (*dto.Payment, error) {
	o, err := s.onlineOrder(sess, orderID)
	if err != nil {
		return nil, err
	}
	p, err := s.Payments.LatestForOrder(o.ID)
	if err != nil {
		return nil, err
	}
	now := s.Clock.now()
	if _, err := s.expire(p, now); err != nil {
		return nil, err
	}
	v := PaymentView(p, now, s.Settings.Warning)
	return &v, nil
}

// expire flips an overdue waiting attempt; p is updated in place.
func (s *PaymentService) expire(p *entity.Payment, now time.Time) (bool, error) {
	if p.Status != status.AttemptWaiting || now.Before(p.ExpiresAt) {
		return false, nil
	}
	ok, err := s.Payments.UpdateStatusGuard(s.DB, p.ID, status.AttemptWaiting, status.AttemptExpired,
		map[string]any{"failure_reason": "payment timed out"})
	if err != nil {
		return false, err
	}
	if !ok {
		// someone else settled it first
		fresh, err := s.Payments.FindByTransaction(p.TransactionID)
		if err != nil {
			return false, err
		}
		*p = *fresh
		return false, nil
	}
	p.Status = status.AttemptExpired
	p.FailureReason = "payment timed out"
	return true, nil
}

// Extend resets the deadline of the live attempt to now + timeout. It is
// only ever called on explicit user request.
func (s *PaymentService) Extend(ctx context.Context, sess *entity.TableSession, orderID uint) (*dto.Payment, error) {
	o, err := s.onlineOrder(sess, orderID)
	if err != nil {
		return nil, err
	}
	p, err := s.Payments.LatestForOrder(o.ID)
	if err != nil {
		return nil, err
	}
	now := s.Clock.now()
	if err := attemptError(p, now); err != nil {
		return nil, err
	}
	expiresAt := now.Add(s.Settings.Timeout)
	ok, err := s.Payments.ExtendDeadline(s.DB.WithContext(ctx), p.ID, now, expiresAt)
	if err != nil {
		return nil, err
	}
	if !ok {
		fresh, err := s.Payments.FindByTransaction(p.TransactionID)
		if err != nil {
			return nil, err
		}
		if err := attemptError(fresh, now); err != nil {
			return nil, err
		}
		return nil, fmt.Errorf("%w: payment is no longer waiting", apperr.ErrConflict)
	}
	p.ExpiresAt = expiresAt
	s.publishTimer(ctx, o, p)
	v := PaymentView(p, now, s.Settings.Warning)
	return &v, nil
}

// attemptError maps a non-waiting attempt onto its error.
func attemptError(p *entity.Payment, now time.Time) error {
	switch {
	case p.Status == status.AttemptSuccess:
		return fmt.Errorf("%w: payment already completed", apperr.ErrConflict)
	case p.Status == status.AttemptFailed:
		return fmt.Errorf("%w: %s", apperr.ErrPaymentFailed, p.FailureReason)
	case p.Status == status.AttemptExpired || !now.Before(p.ExpiresAt):
		return apperr.ErrPaymentTimeout
	}
	return nil
}

// HandleWebhook applies a gateway callback. Replays of the same outcome are
// accepted and do nothing.
func (s *PaymentService) HandleWebhook(ctx context.Context, in dto.PaymentWebhook) (*dto.Payment, error) {
	p, err := s.Payments.FindByTransaction(strings.TrimSpace(in.TransactionID))
	if err != nil {
		return nil, err
	}
	var outcome status.Attempt
	switch strings.ToLower(strings.TrimSpace(in.Status)) {
	case "success", "paid", "completed":
		outcome = status.AttemptSuccess
	case "failed", "failure", "declined":
		outcome = status.AttemptFailed
	default:
		return nil, apperr.Validation("unknown payment outcome %q", in.Status)
	}
	now := s.Clock.now()

	if p.Status == outcome {
		v := PaymentView(p, now, s.Settings.Warning)
		return &v, nil
	}

	var won bool
	err = s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		if outcome == status.AttemptSuccess {
			// money that arrives after the deadline is still recorded
			for _, from := range []status.Attempt{status.AttemptWaiting, status.AttemptExpired} {
				won, err = s.Payments.UpdateStatusGuard(tx, p.ID, from, status.AttemptSuccess,
					map[string]any{"paid_at": now, "failure_reason": ""})
				if err != nil || won {
					break
				}
			}
			if err != nil || !won {
				return err
			}
			return s.Orders.UpdatePaymentStatus(tx, p.OrderID, status.PaymentPaid)
		}
		won, err = s.Payments.UpdateStatusGuard(tx, p.ID, status.AttemptWaiting, status.AttemptFailed,
			map[string]any{"failure_reason": in.Reason})
		if err != nil || !won {
			return err
		}
		return s.Orders.UpdatePaymentStatus(tx, p.OrderID, status.PaymentFailed)
	})
	if err != nil {
		return nil, err
	}

	fresh, err := s.Payments.FindByTransaction(p.TransactionID)
	if err != nil {
		return nil, err
	}
	if !won && fresh.Status != outcome {
		return nil, fmt.Errorf("%w: payment is already %s", apperr.ErrConflict, fresh.Status)
	}
	if won {
		o, err := s.Orders.GetOrder(p.OrderID)
		if err != nil {
			return nil, err
		}
		if outcome == status.AttemptSuccess {
			s.confirmed(ctx, o)
		} else {
			s.Events.Publish(ctx, events.Event{
				Type: events.PaymentFailed, TenantID: o.TenantID, TableID: o.TableID, OrderID: o.ID,
				Payload: map[string]any{"reason": in.Reason},
			})
		}
	}
	v := PaymentView(fresh, now, s.Settings.Warning)
	return &v, nil
}

// CollectAtTable settles a bill-to-table order. Collecting twice is a no-op.
func (s *PaymentService) CollectAtTable(ctx context.Context, tenantID, orderID uint) (*dto.Order, error) {
	o, err := s.Orders.GetOrderForTenant(tenantID, orderID)
	if err != nil {
		return nil, err
	}
	if o.PaymentMethod != status.MethodBillToTable {
		return nil, apperr.Validation("order %s is paid online", o.OrderNumber)
	}
	if o.Status == status.OrderCancelled {
		return nil, fmt.Errorf("%w: order was cancelled", apperr.ErrConflict)
	}
	if o.PaymentStatus != status.PaymentPaid {
		now := s.Clock.now()
		err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			p := &entity.Payment{
				OrderID:       o.ID,
				TransactionID: utils.NewTransactionID(),
				Method:        o.PaymentMethod,
				Status:        status.AttemptSuccess,
				Amount:        o.Total,
				ExpiresAt:     now,
				PaidAt:        &now,
			}
			if err := s.Payments.Create(tx, p); err != nil {
				return err
			}
			return s.Orders.UpdatePaymentStatus(tx, o.ID, status.PaymentPaid)
		})
		if err != nil {
			return nil, err
		}
		o.PaymentStatus = status.PaymentPaid
		s.confirmed(ctx, o)
	}
	v := OrderView(o)
	return &v, nil
}

// confirmed runs the success side effects once per order.
func (s *PaymentService) confirmed(ctx context.Context, o *entity.Order) {
	first, err := s.Once.MarkOnce(ctx, confirmedKey(o.ID), 24*time.Hour)
	if err != nil {
		log.Printf("payment once marker: %v", err)
	}
	if !first && err == nil {
		return
	}
	s.Events.Publish(ctx, events.Event{
		Type: events.PaymentCompleted, TenantID: o.TenantID, TableID: o.TableID, OrderID: o.ID,
		Payload: map[string]any{"orderNumber": o.OrderNumber, "kitchenActionable": true},
	})
}

func (s *PaymentService) publishTimer(ctx context.Context, o *entity.Order, p *entity.Payment) {
	s.Events.Publish(ctx, events.Event{
		Type: events.TimerUpdate, TenantID: o.TenantID, TableID: o.TableID, OrderID: o.ID,
		Payload: map[string]any{"transactionId": p.TransactionID, "expiresAt": p.ExpiresAt},
	})
}

// QRCode renders the SEPAY_QR transfer for the live attempt, amount in VND.
func (s *PaymentService) QRCode(sess *entity.TableSession, orderID uint, size int) ([]byte, error) {
	o, err := s.onlineOrder(sess, orderID)
	if err != nil {
		return nil, err
	}
	if o.PaymentMethod != status.MethodSepayQR {
		return nil, apperr.Validation("order %s is not paid by QR transfer", o.OrderNumber)
	}
	p, err := s.Payments.LatestForOrder(o.ID)
	if err != nil {
		return nil, err
	}
	if err := attemptError(p, s.Clock.now()); err != nil {
		return nil, err
	}
	if size <= 0 {
		size = 256
	}
	q := url.Values{}
	q.Set("txn", p.TransactionID)
	q.Set("amount", fmt.Sprintf("%d", p.AmountVND))
	q.Set("des", o.OrderNumber)
	return qrcode.Encode("sepay://pay?"+q.Encode(), qrcode.Medium, size)
}
