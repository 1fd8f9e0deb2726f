package services

import (
	"time"

	"github.com/tkob-team/TKOB-QROrderSystem-sub008/entity"
	"github.com/tkob-team/TKOB-QROrderSystem-sub008/pkg/dto"
	"github.com/tkob-team/TKOB-QROrderSystem-sub008/pkg/status"
)

func SessionView(s *entity.TableSession) dto.Session {
	return dto.Session{
		SessionID:   s.ID,
		TableID:     s.TableID,
		TenantID:    s.TenantID,
		TableNumber: s.TableNumber,
		ScannedAt:   s.ScannedAt,
		ExpiresAt:   s.ExpiresAt,
		Active:      s.Active,
	}
}

func MenuView(m *entity.MenuItem) dto.MenuItem {
	out := dto.MenuItem{
		ID:           m.ID,
		Name:         m.Name,
		Description:  m.Description,
		ImageURL:     m.ImageURL,
		Category:     m.Category,
		BasePrice:    m.BasePrice,
		Availability: string(m.Availability),
		PrepMinutes:  m.PrepMinutes,
	}
	for _, s := range m.Sizes {
		out.Sizes = append(out.Sizes, dto.PricedOption{ID: s.ID, Name: s.Name, Price: s.Price})
	}
	for _, t := range m.Toppings {
		out.Toppings = append(out.Toppings, dto.PricedOption{ID: t.ID, Name: t.Name, Price: t.Price})
	}
	for _, g := range m.ModifierGroups {
		group := dto.ModifierGroup{
			ID:         g.ID,
			Name:       g.Name,
			Required:   g.Required,
			MinChoices: g.MinChoices,
			MaxChoices: g.MaxChoices,
		}
		for _, o := range g.Options {
			group.Options = append(group.Options, dto.ModifierOption{
				ID: o.ID, Name: o.Name, PriceDelta: o.PriceDelta, Available: o.IsAvailable,
			})
		}
		out.ModifierGroups = append(out.ModifierGroups, group)
	}
	return out
}

func OrderView(o *entity.Order) dto.Order {
	out := dto.Order{
		ID:                    o.ID,
		OrderNumber:           o.OrderNumber,
		TableID:               o.TableID,
		TableNumber:           o.TableNumber,
		Items:                 make([]dto.OrderItem, 0, len(o.Items)),
		CustomerName:          o.CustomerName,
		Notes:                 o.Notes,
		Subtotal:              o.Subtotal,
		Discount:              o.Discount,
		Tax:                   o.Tax,
		ServiceCharge:         o.ServiceCharge,
		Total:                 o.Total,
		PromoCode:             o.PromoCode,
		PaymentMethod:         o.PaymentMethod,
		PaymentStatus:         o.PaymentStatus,
		Status:                o.Status,
		KitchenActionable:     o.KitchenActionable(),
		CreatedAt:             o.CreatedAt,
		EstimatedReadyMinutes: o.EstimatedReadyMinutes,
	}
	for _, it := range o.Items {
		item := dto.OrderItem{
			ID:                  it.ID,
			MenuItemID:          it.MenuItemID,
			Name:                it.Name,
			Quantity:            it.Quantity,
			UnitPrice:           it.UnitPrice,
			LineTotal:           it.LineTotal,
			SpecialInstructions: it.SpecialInstructions,
			Status:              status.ItemPrepFrom(it.StartedAt, it.PreparedAt, it.ServedAt),
		}
		for _, sel := range it.Selections {
			item.Selections = append(item.Selections, dto.OrderSelection{
				Kind: sel.Kind, GroupName: sel.GroupName, Name: sel.Name, PriceDelta: sel.PriceDelta,
			})
		}
		out.Items = append(out.Items, item)
	}
	return out
}

// PaymentView reports the attempt as seen at now; a waiting attempt past its
// deadline is shown as expired even before the row is updated.
func PaymentView(p *entity.Payment, now time.Time, warning time.Duration) dto.Payment {
	st := p.Status
	remaining := int64(0)
	if st == status.AttemptWaiting {
		if left := p.ExpiresAt.Sub(now); left > 0 {
			remaining = int64(left / time.Second)
		} else {
			st = status.AttemptExpired
		}
	}
	return dto.Payment{
		OrderID:                 p.OrderID,
		TransactionID:           p.TransactionID,
		Method:                  p.Method,
		Status:                  st,
		Amount:                  p.Amount,
		AmountVND:               p.AmountVND,
		ExpiresAt:               p.ExpiresAt,
		TimeRemainingSeconds:    remaining,
		WarningThresholdSeconds: int64(warning / time.Second),
		PaidAt:                  p.PaidAt,
		FailureReason:           p.FailureReason,
	}
}
