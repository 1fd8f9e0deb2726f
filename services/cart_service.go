package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/tkob-team/TKOB-QROrderSystem-sub008/entity"
	"github.com/tkob-team/TKOB-QROrderSystem-sub008/events"
	"github.com/tkob-team/TKOB-QROrderSystem-sub008/pkg/apperr"
	"github.com/tkob-team/TKOB-QROrderSystem-sub008/pkg/dto"
	"github.com/tkob-team/TKOB-QROrderSystem-sub008/pkg/pricing"
	"github.com/tkob-team/TKOB-QROrderSystem-sub008/repository"
)

// CartService owns the server-side cart of a table session. Every mutation
// answers with the full recomputed cart.
type CartService struct {
	DB      *gorm.DB
	Carts   *repository.CartRepository
	Menus   *repository.MenuRepository
	Tenants *repository.TenantRepository
	Events  events.Publisher
	Rates   pricing.Rates
}

func (s *CartService) Get(ctx context.Context, sess *entity.TableSession) (*dto.Cart, error) {
	c, err := s.Carts.GetCartWithItems(s.DB.WithContext(ctx), sess.ID)
	if err != nil {
		return nil, err
	}
	return s.view(c, sess.TenantID)
}

func (s *CartService) view(c *entity.Cart, tenantID uint) (*dto.Cart, error) {
	ids := make([]uint, 0, len(c.Items))
	for _, it := range c.Items {
		ids = append(ids, it.MenuItemID)
	}
	menu, err := s.Menus.FindMany(tenantID, ids)
	if err != nil {
		return nil, err
	}
	tenant, err := s.Tenants.FindByID(tenantID)
	if err != nil && !errors.Is(err, apperr.ErrNotFound) {
		return nil, err
	}
	return cartView(c, menu, ratesFor(tenant, s.Rates)), nil
}

// Add merges into the line with an identical configuration, otherwise it
// creates a new line. Unavailable items are rejected here, not flagged later.
func (s *CartService) Add(ctx context.Context, sess *entity.TableSession, in dto.AddItemRequest) (*dto.Cart, error) {
	if in.Quantity == 0 {
		in.Quantity = 1
	}
	if in.Quantity < 0 {
		return nil, apperr.Validation("quantity must be at least 1")
	}
	m, err := s.Menus.FindForTenant(sess.TenantID, in.MenuItemID)
	if errors.Is(err, apperr.ErrNotFound) {
		return nil, apperr.Validation("menu item %d does not exist", in.MenuItemID)
	}
	if err != nil {
		return nil, err
	}
	if !m.IsAvailable() {
		return nil, fmt.Errorf("%w: %s is %s", apperr.ErrItemUnavailable, m.Name, m.Availability)
	}

	sel := normalize(in.SizeID, in.ToppingIDs, in.Modifiers, in.SpecialInstructions)
	if err := validateSelection(m, sel); err != nil {
		return nil, err
	}

	lineID := in.LineID
	if _, err := uuid.Parse(lineID); err != nil {
		lineID = uuid.NewString()
	}
	row := &entity.CartItem{
		ID:                  lineID,
		MenuItemID:          m.ID,
		SizeID:              sel.SizeID,
		SpecialInstructions: sel.Instructions,
		Quantity:            in.Quantity,
		ConfigKey:           configKey(m.ID, sel),
	}
	for _, id := range sel.Toppings {
		row.Toppings = append(row.Toppings, entity.CartItemTopping{MenuToppingID: id})
	}
	for gid, opts := range sel.Modifiers {
		for _, oid := range opts {
			row.Modifiers = append(row.Modifiers, entity.CartItemModifier{ModifierGroupID: gid, ModifierOptionID: oid})
		}
	}

	return s.mutate(ctx, sess, func(tx *gorm.DB, cart *entity.Cart) error {
		_, err := s.Carts.UpsertItem(tx, cart.ID, row)
		return err
	})
}

// UpdateQuantity treats qty <= 0 as removal.
func (s *CartService) UpdateQuantity(ctx context.Context, sess *entity.TableSession, lineID string, qty int) (*dto.Cart, error) {
	return s.mutate(ctx, sess, func(tx *gorm.DB, cart *entity.Cart) error {
		return s.Carts.UpdateQty(tx, cart.ID, lineID, qty)
	})
}

func (s *CartService) Remove(ctx context.Context, sess *entity.TableSession, lineID string) (*dto.Cart, error) {
	return s.mutate(ctx, sess, func(tx *gorm.DB, cart *entity.Cart) error {
		return s.Carts.RemoveItem(tx, cart.ID, lineID)
	})
}

func (s *CartService) Clear(ctx context.Context, sess *entity.TableSession) (*dto.Cart, error) {
	return s.mutate(ctx, sess, func(tx *gorm.DB, _ *entity.Cart) error {
		return s.Carts.ClearCart(tx, sess.ID)
	})
}

func (s *CartService) mutate(ctx context.Context, sess *entity.TableSession, fn func(tx *gorm.DB, cart *entity.Cart) error) (*dto.Cart, error) {
	var out *entity.Cart
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		cart, err := s.Carts.GetOrCreateCart(tx, sess.ID, sess.TenantID)
		if err != nil {
			return err
		}
		if err := fn(tx, cart); err != nil {
			return err
		}
		out, err = s.Carts.GetCartWithItems(tx, sess.ID)
		return err
	})
	if err != nil {
		return nil, err
	}
	view, err := s.view(out, sess.TenantID)
	if err != nil {
		return nil, err
	}
	s.Events.Publish(ctx, events.Event{
		Type:     events.CartUpdated,
		TenantID: sess.TenantID,
		TableID:  sess.TableID,
		Payload:  map[string]any{"itemCount": view.ItemCount},
	})
	return view, nil
}
