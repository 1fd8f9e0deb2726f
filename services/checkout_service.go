package services

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/shopspring/decimal"
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

const defaultPrepMinutes = 15

// CheckoutService turns the session cart into an immutable order.
type CheckoutService struct {
	DB       *gorm.DB
	Carts    *repository.CartRepository
	Menus    *repository.MenuRepository
	Tenants  *repository.TenantRepository
	Orders   *repository.OrderRepository
	Payments *repository.PaymentRepository
	Promos   *PromotionService
	Events   events.Publisher

	Rates   pricing.Rates
	Payment PaymentSettings
	Clock   Clock
}

// Submit re-validates every line against the live menu. Nothing is written
// unless the whole order can be created, so a failed submission leaves the
// cart as it was.
func (s *CheckoutService) Submit(ctx context.Context, sess *entity.TableSession, in dto.CheckoutRequest) (*dto.Order, error) {
	method, err := status.ParseMethod(in.PaymentMethod)
	if err != nil {
		return nil, apperr.Validation("%s", err.Error())
	}
	if in.TableID != 0 && in.TableID != sess.TableID {
		return nil, apperr.Validation("table %d does not belong to this session", in.TableID)
	}

	db := s.DB.WithContext(ctx)
	cart, err := s.Carts.GetCartWithItems(db, sess.ID)
	if err != nil {
		return nil, err
	}
	if len(cart.Items) == 0 {
		return nil, apperr.Validation("cart is empty")
	}
	if len(in.ItemIDs) > 0 && !sameLines(cart, in.ItemIDs) {
		return nil, fmt.Errorf("%w: cart changed since it was loaded", apperr.ErrConflict)
	}

	ids := make([]uint, 0, len(cart.Items))
	for _, it := range cart.Items {
		ids = append(ids, it.MenuItemID)
	}
	menu, err := s.Menus.FindMany(sess.TenantID, ids)
	if err != nil {
		return nil, err
	}

	// availability first so the caller gets every offending line at once
	var unavailable []string
	priced := make([]dto.CartItem, len(cart.Items))
	lines := make([]pricing.Line, len(cart.Items))
	for i := range cart.Items {
		row := &cart.Items[i]
		priced[i], lines[i] = priceLine(row, menu[row.MenuItemID])
		if !priced[i].Available {
			unavailable = append(unavailable, row.ID)
		}
	}
	if len(unavailable) > 0 {
		return nil, &apperr.UnavailableError{LineIDs: unavailable}
	}
	for i := range cart.Items {
		row := &cart.Items[i]
		if err := validateSelection(menu[row.MenuItemID], selectionFromRow(row)); err != nil {
			return nil, err
		}
	}

	tenant, err := s.Tenants.FindByID(sess.TenantID)
	if err != nil && !errors.Is(err, apperr.ErrNotFound) {
		return nil, err
	}
	rates := ratesFor(tenant, s.Rates)

	subtotal := pricing.CartTotals(lines, rates).Subtotal
	discount := decimal.Zero
	promoCode := ""
	if code := strings.TrimSpace(in.PromoCode); code != "" && s.Promos != nil {
		res, err := s.Promos.Validate(sess.TenantID, code, subtotal)
		if err != nil {
			return nil, err
		}
		// โค้ดใช้ไม่ได้ก็สั่งต่อได้ แค่ไม่มีส่วนลด
		if res.Valid {
			discount, promoCode = pricing.Round2(res.DiscountAmount), res.Code
		}
	}
	totals := pricing.CartTotalsWithDiscount(lines, rates, discount).Rounded()

	now := s.Clock.now()
	order := &entity.Order{
		TenantID:          sess.TenantID,
		TableID:           sess.TableID,
		TableNumber:       sess.TableNumber,
		SessionID:         sess.ID,
		CustomerName:      strings.TrimSpace(in.CustomerName),
		Notes:             strings.TrimSpace(in.Notes),
		Subtotal:          totals.Subtotal,
		Discount:          totals.Discount,
		Tax:               totals.Tax,
		ServiceCharge:     totals.ServiceCharge,
		Total:             totals.Total,
		TaxRate:           rates.Tax,
		ServiceChargeRate: rates.ServiceCharge,
		PromoCode:         promoCode,
		PaymentMethod:     method,
		PaymentStatus:     status.PaymentUnpaid,
		Status:            status.OrderPending,
	}
	order.CreatedAt = now
	if method.RequiresOnlinePayment() {
		order.PaymentStatus = status.PaymentPending
	}

	prep := 0
	for i := range cart.Items {
		m := menu[cart.Items[i].MenuItemID]
		if m.PrepMinutes > prep {
			prep = m.PrepMinutes
		}
		order.Items = append(order.Items, snapshotItem(&priced[i]))
	}
	if prep == 0 {
		prep = defaultPrepMinutes
	}
	order.EstimatedReadyMinutes = &prep

	err = s.createWithRetry(db, order, func(tx *gorm.DB) error {
		if method.RequiresOnlinePayment() {
			p := &entity.Payment{
				OrderID:       order.ID,
				TransactionID: utils.NewTransactionID(),
				Method:        method,
				Status:        status.AttemptWaiting,
				Amount:        order.Total,
				ExpiresAt:     now.Add(s.Payment.Timeout),
			}
			if method == status.MethodSepayQR {
				p.AmountVND = s.Payment.Converter.UsdToVnd(order.Total)
			}
			if err := s.Payments.Create(tx, p); err != nil {
				return err
			}
		}
		return s.Carts.ClearCart(tx, sess.ID)
	})
	if err != nil {
		return nil, err
	}

	s.Events.Publish(ctx, events.Event{
		Type: events.OrderNew, TenantID: order.TenantID, TableID: order.TableID, OrderID: order.ID,
		Payload: map[string]any{"orderNumber": order.OrderNumber, "kitchenActionable": order.KitchenActionable()},
	})
	s.Events.Publish(ctx, events.Event{Type: events.CartUpdated, TenantID: sess.TenantID, TableID: sess.TableID})

	view := OrderView(order)
	return &view, nil
}

// createWithRetry retries when two checkouts race for the same order number.
func (s *CheckoutService) createWithRetry(db *gorm.DB, order *entity.Order, after func(tx *gorm.DB) error) error {
	var err error
	for attempt := 0; attempt < 3; attempt++ {
		err = db.Transaction(func(tx *gorm.DB) error {
			num, err := s.Orders.NextOrderNumber(tx, order.TenantID, s.Clock.now())
			if err != nil {
				return err
			}
			order.OrderNumber = num
			if err := s.Orders.CreateOrder(tx, order); err != nil {
				return err
			}
			return after(tx)
		})
		if !errors.Is(err, gorm.ErrDuplicatedKey) {
			return err
		}
		resetIDs(order)
	}
	return err
}

func resetIDs(o *entity.Order) {
	o.ID = 0
	for i := range o.Items {
		o.Items[i].ID = 0
		o.Items[i].OrderID = 0
		for j := range o.Items[i].Selections {
			o.Items[i].Selections[j].ID = 0
			o.Items[i].Selections[j].OrderItemID = 0
		}
	}
}

func sameLines(c *entity.Cart, ids []string) bool {
	if len(ids) != len(c.Items) {
		return false
	}
	have := make([]string, 0, len(c.Items))
	for _, it := range c.Items {
		have = append(have, it.ID)
	}
	want := append([]string(nil), ids...)
	sort.Strings(have)
	sort.Strings(want)
	for i := range have {
		if have[i] != want[i] {
			return false
		}
	}
	return true
}

// snapshotItem freezes names and prices as they are right now.
func snapshotItem(it *dto.CartItem) entity.OrderItem {
	out := entity.OrderItem{
		MenuItemID:          it.MenuItemID,
		Name:                it.Name,
		Quantity:            it.Quantity,
		UnitPrice:           it.UnitPrice,
		LineTotal:           it.LineTotal,
		SpecialInstructions: it.SpecialInstructions,
	}
	if it.Size != nil {
		out.Selections = append(out.Selections, entity.OrderItemSelection{
			Kind: entity.SelectionSize, RefID: it.Size.ID, Name: it.Size.Name, PriceDelta: it.Size.Price,
		})
	}
	for _, t := range it.Toppings {
		out.Selections = append(out.Selections, entity.OrderItemSelection{
			Kind: entity.SelectionTopping, RefID: t.ID, Name: t.Name, PriceDelta: t.Price,
		})
	}
	for _, m := range it.Modifiers {
		out.Selections = append(out.Selections, entity.OrderItemSelection{
			Kind: entity.SelectionModifier, RefID: m.OptionID, GroupName: m.GroupName, Name: m.Name, PriceDelta: m.PriceDelta,
		})
	}
	return out
}
