package services

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sort"
	"strings"

	"github.com/tkob-team/TKOB-QROrderSystem-sub008/entity"
	"github.com/tkob-team/TKOB-QROrderSystem-sub008/pkg/apperr"
	"github.com/tkob-team/TKOB-QROrderSystem-sub008/pkg/dto"
	"github.com/tkob-team/TKOB-QROrderSystem-sub008/pkg/pricing"
)

// selection is a normalized (deduplicated, sorted) configuration of one line.
type selection struct {
	SizeID       *uint
	Toppings     []uint
	Modifiers    map[uint][]uint // group -> options
	Instructions string
}

func uniqSorted(ids []uint) []uint {
	seen := make(map[uint]bool, len(ids))
	out := make([]uint, 0, len(ids))
	for _, id := range ids {
		if !seen[id] {
			seen[id] = true
			out = append(out, id)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

func normalize(sizeID *uint, toppings []uint, modifiers map[uint][]uint, instructions string) selection {
	sel := selection{
		SizeID:       sizeID,
		Toppings:     uniqSorted(toppings),
		Modifiers:    make(map[uint][]uint, len(modifiers)),
		Instructions: strings.TrimSpace(instructions),
	}
	for g, opts := range modifiers {
		if u := uniqSorted(opts); len(u) > 0 {
			sel.Modifiers[g] = u
		}
	}
	return sel
}

// selectionFromRow rebuilds the selection stored on a cart line.
func selectionFromRow(row *entity.CartItem) selection {
	toppings := make([]uint, 0, len(row.Toppings))
	for _, t := range row.Toppings {
		toppings = append(toppings, t.MenuToppingID)
	}
	mods := make(map[uint][]uint)
	for _, m := range row.Modifiers {
		mods[m.ModifierGroupID] = append(mods[m.ModifierGroupID], m.ModifierOptionID)
	}
	return normalize(row.SizeID, toppings, mods, row.SpecialInstructions)
}

// configKey identifies identical configurations of one menu item; two adds
// with the same key merge into one line.
func configKey(menuItemID uint, sel selection) string {
	var b strings.Builder
	fmt.Fprintf(&b, "m:%d|s:", menuItemID)
	if sel.SizeID != nil {
		fmt.Fprintf(&b, "%d", *sel.SizeID)
	}
	b.WriteString("|t:")
	for _, id := range sel.Toppings {
		fmt.Fprintf(&b, "%d,", id)
	}
	groups := make([]uint, 0, len(sel.Modifiers))
	for g := range sel.Modifiers {
		groups = append(groups, g)
	}
	sort.Slice(groups, func(i, j int) bool { return groups[i] < groups[j] })
	b.WriteString("|g:")
	for _, g := range groups {
		fmt.Fprintf(&b, "%d=", g)
		for _, o := range sel.Modifiers[g] {
			fmt.Fprintf(&b, "%d,", o)
		}
		b.WriteString(";")
	}
	b.WriteString("|n:")
	b.WriteString(sel.Instructions)
	sum := sha256.Sum256([]byte(b.String()))
	return hex.EncodeToString(sum[:])
}

// validateSelection checks the configuration against the menu: every id
// must belong to the item, options must be available, and each modifier
// group's cardinality must hold.
func validateSelection(m *entity.MenuItem, sel selection) error {
	if sel.SizeID != nil && m.FindSize(*sel.SizeID) == nil {
		return apperr.Validation("size %d is not offered for %s", *sel.SizeID, m.Name)
	}
	for _, id := range sel.Toppings {
		if m.FindTopping(id) == nil {
			return apperr.Validation("topping %d is not offered for %s", id, m.Name)
		}
	}
	for gid, opts := range sel.Modifiers {
		g := m.FindGroup(gid)
		if g == nil {
			return apperr.Validation("modifier group %d is not offered for %s", gid, m.Name)
		}
		for _, oid := range opts {
			o := g.FindOption(oid)
			if o == nil {
				return apperr.Validation("option %d is not part of %s", oid, g.Name)
			}
			if !o.IsAvailable {
				return fmt.Errorf("%w: %s / %s", apperr.ErrItemUnavailable, g.Name, o.Name)
			}
		}
	}
	for i := range m.ModifierGroups {
		g := &m.ModifierGroups[i]
		n := len(sel.Modifiers[g.ID])
		least := g.MinChoices
		if g.Required && least < 1 {
			least = 1
		}
		if n < least {
			return apperr.Validation("%s requires at least %d choice(s)", g.Name, least)
		}
		if g.MaxChoices > 0 && n > g.MaxChoices {
			return apperr.Validation("%s allows at most %d choice(s)", g.Name, g.MaxChoices)
		}
	}
	return nil
}

// priceLine resolves a stored line against the live menu. Missing menu rows
// or options make the line unavailable; their price contribution is dropped.
func priceLine(row *entity.CartItem, m *entity.MenuItem) (dto.CartItem, pricing.Line) {
	item := dto.CartItem{
		ID:                  row.ID,
		MenuItemID:          row.MenuItemID,
		SpecialInstructions: row.SpecialInstructions,
		Quantity:            row.Quantity,
		Availability:        string(entity.Unavailable),
	}
	line := pricing.Line{Quantity: row.Quantity}
	if m == nil {
		item.Name = "Unavailable item"
		return item, line
	}

	item.Name = m.Name
	item.ImageURL = m.ImageURL
	item.Availability = string(m.Availability)
	available := m.IsAvailable() && !m.DeletedAt.Valid
	line.BasePrice = m.BasePrice

	if row.SizeID != nil {
		if sz := m.FindSize(*row.SizeID); sz != nil {
			line.SizePrice = decimalPtr(sz.Price)
			item.Size = &dto.PricedOption{ID: sz.ID, Name: sz.Name, Price: sz.Price}
		} else {
			available = false
		}
	}
	for _, t := range row.Toppings {
		tp := m.FindTopping(t.MenuToppingID)
		if tp == nil {
			available = false
			continue
		}
		line.ToppingPrices = append(line.ToppingPrices, tp.Price)
		item.Toppings = append(item.Toppings, dto.PricedOption{ID: tp.ID, Name: tp.Name, Price: tp.Price})
	}
	for _, mod := range row.Modifiers {
		g := m.FindGroup(mod.ModifierGroupID)
		var o *entity.ModifierOption
		if g != nil {
			o = g.FindOption(mod.ModifierOptionID)
		}
		if o == nil {
			available = false
			continue
		}
		if !o.IsAvailable {
			available = false
		}
		line.ModifierDeltas = append(line.ModifierDeltas, o.PriceDelta)
		item.Modifiers = append(item.Modifiers, dto.SelectedModifier{
			GroupID: g.ID, GroupName: g.Name, OptionID: o.ID, Name: o.Name, PriceDelta: o.PriceDelta,
		})
	}

	item.Available = available
	item.UnitPrice = pricing.UnitPrice(line)
	item.LineTotal = pricing.LineTotal(line)
	return item, line
}

// cartView prices every line with the live menu. Amounts are exact; callers
// round for display.
func cartView(c *entity.Cart, menu map[uint]*entity.MenuItem, rates pricing.Rates) *dto.Cart {
	out := &dto.Cart{
		SessionID:         c.SessionID,
		Items:             make([]dto.CartItem, 0, len(c.Items)),
		TaxRate:           rates.Tax,
		ServiceChargeRate: rates.ServiceCharge,
	}
	lines := make([]pricing.Line, 0, len(c.Items))
	for i := range c.Items {
		item, line := priceLine(&c.Items[i], menu[c.Items[i].MenuItemID])
		out.Items = append(out.Items, item)
		out.ItemCount += item.Quantity
		lines = append(lines, line)
	}
	t := pricing.CartTotals(lines, rates)
	out.Subtotal, out.Tax, out.ServiceCharge, out.Total = t.Subtotal, t.Tax, t.ServiceCharge, t.Total
	return out
}
