package services

import (
	"context"
	"fmt"
	"math"
	"time"

	"gorm.io/gorm"

	"github.com/tkob-team/TKOB-QROrderSystem-sub008/entity"
	"github.com/tkob-team/TKOB-QROrderSystem-sub008/events"
	"github.com/tkob-team/TKOB-QROrderSystem-sub008/pkg/apperr"
	"github.com/tkob-team/TKOB-QROrderSystem-sub008/pkg/dto"
	"github.com/tkob-team/TKOB-QROrderSystem-sub008/pkg/status"
	"github.com/tkob-team/TKOB-QROrderSystem-sub008/repository"
)

type OrderService struct {
	DB     *gorm.DB
	Repo   *repository.OrderRepository
	Events events.Publisher
	Clock  Clock
}

// ---------------- Customer ----------------

func (s *OrderService) Get(sess *entity.TableSession, orderID uint) (*dto.Order, error) {
	o, err := s.Repo.GetOrderForSession(sess.ID, orderID)
	if err != nil {
		return nil, err
	}
	v := OrderView(o)
	return &v, nil
}

func (s *OrderService) List(sess *entity.TableSession) ([]dto.Order, error) {
	rows, err := s.Repo.ListForSession(sess.ID)
	if err != nil {
		return nil, err
	}
	out := make([]dto.Order, 0, len(rows))
	for i := range rows {
		out = append(out, OrderView(&rows[i]))
	}
	return out, nil
}

func (s *OrderService) Tracking(sess *entity.TableSession, orderID uint) (*dto.Tracking, error) {
	o, err := s.Repo.GetOrderForSession(sess.ID, orderID)
	if err != nil {
		return nil, err
	}
	t := BuildTracking(o, s.Clock.now())
	return &t, nil
}

// BuildTracking derives the timeline from the checkpoint timestamps. A
// checkpoint counts as completed once stamped; a cancelled order shows the
// checkpoints it reached followed by CANCELLED.
func BuildTracking(o *entity.Order, now time.Time) dto.Tracking {
	t := dto.Tracking{
		OrderID:       o.ID,
		OrderNumber:   o.OrderNumber,
		Status:        o.Status,
		LegacyStatus:  o.Status.Legacy(),
		Terminal:      o.Status.IsTerminal(),
		PaymentStatus: o.PaymentStatus,
	}
	for _, st := range status.Lifecycle {
		at := o.CheckpointAt(st)
		if o.Status == status.OrderCancelled && at == nil {
			continue
		}
		t.Timeline = append(t.Timeline, dto.Checkpoint{
			Status: st, LegacyStatus: st.Legacy(), At: at, Completed: at != nil,
		})
	}
	if o.Status == status.OrderCancelled {
		t.Timeline = append(t.Timeline, dto.Checkpoint{
			Status: status.OrderCancelled, LegacyStatus: status.OrderCancelled.Legacy(),
			At: o.CancelledAt, Completed: true,
		})
	}

	end := now
	if o.Status.IsTerminal() {
		if at := o.CheckpointAt(o.Status); at != nil {
			end = *at
		}
	}
	elapsed := end.Sub(o.CreatedAt)
	if elapsed < 0 {
		elapsed = 0
	}
	t.ElapsedMinutes = int(elapsed / time.Minute)

	if o.EstimatedReadyMinutes != nil && o.Status.Position() >= 0 && o.Status.Position() < status.OrderReady.Position() {
		left := float64(*o.EstimatedReadyMinutes) - elapsed.Minutes()
		t.EstimatedTimeRemaining = int(math.Max(0, math.Ceil(left)))
	}

	for _, it := range o.Items {
		t.Items = append(t.Items, dto.ItemTracking{
			ID: it.ID, Name: it.Name, Quantity: it.Quantity,
			Status: status.ItemPrepFrom(it.StartedAt, it.PreparedAt, it.ServedAt),
		})
	}
	return t
}

// ---------------- Staff / kitchen ----------------

// StaffList is the kitchen queue: only actionable, unfinished orders unless
// all is set.
func (s *OrderService) StaffList(tenantID uint, all bool) ([]dto.Order, error) {
	rows, err := s.Repo.ListForTenant(tenantID, repository.TenantOrderFilter{
		ActionableOnly:  !all,
		IncludeTerminal: all,
	})
	if err != nil {
		return nil, err
	}
	out := make([]dto.Order, 0, len(rows))
	for i := range rows {
		out = append(out, OrderView(&rows[i]))
	}
	return out, nil
}

// Transition moves the order forward (skipped checkpoints are stamped with
// the same time) or cancels it. Accepts either status vocabulary.
func (s *OrderService) Transition(ctx context.Context, tenantID, orderID uint, raw string) (*dto.Order, error) {
	to, err := status.ParseOrder(raw)
	if err != nil {
		return nil, apperr.Validation("%s", err.Error())
	}
	o, err := s.Repo.GetOrderForTenant(tenantID, orderID)
	if err != nil {
		return nil, err
	}
	from := o.Status
	if !status.CanTransition(from, to) {
		return nil, fmt.Errorf("%w: cannot move order from %s to %s", apperr.ErrConflict, from, to)
	}
	if to != status.OrderCancelled && !o.KitchenActionable() {
		return nil, fmt.Errorf("%w: order %s is waiting for payment", apperr.ErrConflict, o.OrderNumber)
	}

	var stamps []string
	if to == status.OrderCancelled {
		stamps = append(stamps, entity.CheckpointColumn(to))
	} else {
		for _, st := range status.Lifecycle[from.Position()+1 : to.Position()+1] {
			if o.CheckpointAt(st) == nil {
				stamps = append(stamps, entity.CheckpointColumn(st))
			}
		}
	}

	now := s.Clock.now()
	var ok bool
	err = s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		ok, err = s.Repo.UpdateStatusGuard(tx, o.ID, from, to, stamps, now)
		return err
	})
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("%w: order changed concurrently", apperr.ErrConflict)
	}

	s.Events.Publish(ctx, events.Event{
		Type: events.OrderStatusChanged, TenantID: o.TenantID, TableID: o.TableID, OrderID: o.ID,
		Payload: map[string]any{"status": to, "legacyStatus": to.Legacy(), "previous": from},
	})
	return s.reload(tenantID, orderID)
}

// ItemStatus stamps kitchen progress on one item. Timestamps are only ever
// added, so an item never goes back.
func (s *OrderService) ItemStatus(ctx context.Context, tenantID, orderID, itemID uint, raw string) (*dto.Order, error) {
	target, err := status.ParseItemPrep(raw)
	if err != nil {
		return nil, apperr.Validation("%s", err.Error())
	}
	o, err := s.Repo.GetOrderForTenant(tenantID, orderID)
	if err != nil {
		return nil, err
	}
	if o.Status.IsTerminal() {
		return nil, fmt.Errorf("%w: order is %s", apperr.ErrConflict, o.Status)
	}
	var item *entity.OrderItem
	for i := range o.Items {
		if o.Items[i].ID == itemID {
			item = &o.Items[i]
		}
	}
	if item == nil {
		return nil, apperr.ErrNotFound
	}
	current := status.ItemPrepFrom(item.StartedAt, item.PreparedAt, item.ServedAt)
	if itemRank(target) < itemRank(current) {
		return nil, fmt.Errorf("%w: item is already %s", apperr.ErrConflict, current)
	}

	var cols []string
	switch target {
	case status.ItemServed:
		cols = []string{"started_at", "prepared_at", "served_at"}
	case status.ItemReady:
		cols = []string{"started_at", "prepared_at"}
	case status.ItemPreparing:
		cols = []string{"started_at"}
	}
	now := s.Clock.now()
	err = s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, col := range cols {
			if err := s.Repo.StampItem(tx, o.ID, itemID, col, now); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.Events.Publish(ctx, events.Event{
		Type: events.ItemStatusChanged, TenantID: o.TenantID, TableID: o.TableID, OrderID: o.ID,
		Payload: map[string]any{"itemId": itemID, "status": target},
	})
	return s.reload(tenantID, orderID)
}

func itemRank(p status.ItemPrep) int {
	switch p {
	case status.ItemPreparing:
		return 1
	case status.ItemReady:
		return 2
	case status.ItemServed:
		return 3
	}
	return 0
}

func (s *OrderService) reload(tenantID, orderID uint) (*dto.Order, error) {
	o, err := s.Repo.GetOrderForTenant(tenantID, orderID)
	if err != nil {
		return nil, err
	}
	v := OrderView(o)
	return &v, nil
}
