package client

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"sort"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/tkob-team/TKOB-QROrderSystem-sub008/pkg/apperr"
	"github.com/tkob-team/TKOB-QROrderSystem-sub008/pkg/dto"
	"github.com/tkob-team/TKOB-QROrderSystem-sub008/pkg/pricing"
)

type CartState string

// menuAvailable is the only availability a dish can be ordered in.
const menuAvailable = "Available"

const (
	CartUninitialized CartState = "uninitialized"
	CartLoading       CartState = "loading"
	CartReady         CartState = "ready"
	CartError         CartState = "error"
)

// Selection is what the diner picked in the item sheet.
type Selection struct {
	SizeID              *uint
	ToppingIDs          []uint
	Modifiers           map[uint][]uint
	SpecialInstructions string
	Quantity            int
}

// CartSnapshot is a copy; callers may keep it.
type CartSnapshot struct {
	State   CartState
	Cart    dto.Cart
	Err     error
	Pending int
}

// CartStore is the one cart of a table session. Mutations are applied to
// local state first, sent in the order they were issued, and replaced by
// the server's cart when it answers.
type CartStore struct {
	API      *API
	OnChange func(CartSnapshot)

	mu      sync.Mutex
	state   CartState
	cart    dto.Cart
	err     error
	pending int

	queue fifo
}

func NewCartStore(api *API) *CartStore {
	return &CartStore{API: api, state: CartUninitialized}
}

func (s *CartStore) Snapshot() CartSnapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

func (s *CartStore) snapshotLocked() CartSnapshot {
	c := s.cart
	c.Items = append([]dto.CartItem(nil), s.cart.Items...)
	return CartSnapshot{State: s.state, Cart: c, Err: s.err, Pending: s.pending}
}

func (s *CartStore) State() CartState { return s.Snapshot().State }

func (s *CartStore) ItemCount() int                 { return s.Snapshot().Cart.ItemCount }
func (s *CartStore) Subtotal() decimal.Decimal      { return s.Snapshot().Cart.Subtotal }
func (s *CartStore) Tax() decimal.Decimal           { return s.Snapshot().Cart.Tax }
func (s *CartStore) ServiceCharge() decimal.Decimal { return s.Snapshot().Cart.ServiceCharge }
func (s *CartStore) Total() decimal.Decimal         { return s.Snapshot().Cart.Total }

// LineIDs lists the cart lines in display order.
func (s *CartStore) LineIDs() []string {
	snap := s.Snapshot()
	ids := make([]string, 0, len(snap.Cart.Items))
	for _, it := range snap.Cart.Items {
		ids = append(ids, it.ID)
	}
	return ids
}

func (s *CartStore) notify() {
	if s.OnChange == nil {
		return
	}
	s.OnChange(s.Snapshot())
}

// Fetch pulls the authoritative cart. On failure the last known items stay
// in place and the store moves to CartError.
func (s *CartStore) Fetch(ctx context.Context) error {
	release := s.queue.wait()
	defer release()

	s.mu.Lock()
	s.state = CartLoading
	s.mu.Unlock()
	s.notify()

	var out dto.Cart
	err := s.API.do(ctx, http.MethodGet, "/cart", nil, &out)

	s.mu.Lock()
	if err != nil {
		s.state = CartError
		s.err = err
	} else {
		s.cart = out
		s.state = CartReady
		s.err = nil
	}
	s.mu.Unlock()
	s.notify()
	return err
}

// AddItem merges into the line with the same configuration or adds a new
// line. Items that are not available are refused without a request.
func (s *CartStore) AddItem(ctx context.Context, item dto.MenuItem, sel Selection) error {
	if item.Availability != "" && item.Availability != menuAvailable {
		return fmt.Errorf("%w: %s is %s", apperr.ErrItemUnavailable, item.Name, item.Availability)
	}
	if sel.Quantity == 0 {
		sel.Quantity = 1
	}
	if sel.Quantity < 0 {
		return apperr.Validation("quantity must be at least 1")
	}
	lineID := uuid.NewString()
	req := dto.AddItemRequest{
		LineID:              lineID,
		MenuItemID:          item.ID,
		SizeID:              sel.SizeID,
		ToppingIDs:          sel.ToppingIDs,
		Modifiers:           sel.Modifiers,
		SpecialInstructions: sel.SpecialInstructions,
		Quantity:            sel.Quantity,
	}
	return s.mutate(ctx, http.MethodPost, "/cart/items", req, func(c *dto.Cart) {
		line := optimisticLine(lineID, item, sel)
		key := lineKey(line)
		for i := range c.Items {
			if lineKey(c.Items[i]) == key {
				c.Items[i].Quantity += line.Quantity
				c.Items[i].LineTotal = c.Items[i].UnitPrice.Mul(decimal.NewFromInt(int64(c.Items[i].Quantity)))
				return
			}
		}
		c.Items = append(c.Items, line)
	})
}

// UpdateQuantity with qty <= 0 removes the line.
func (s *CartStore) UpdateQuantity(ctx context.Context, lineID string, qty int) error {
	if qty <= 0 {
		return s.RemoveItem(ctx, lineID)
	}
	path := "/cart/items/" + url.PathEscape(lineID)
	return s.mutate(ctx, http.MethodPatch, path, dto.UpdateQuantityRequest{Quantity: qty}, func(c *dto.Cart) {
		for i := range c.Items {
			if c.Items[i].ID == lineID {
				c.Items[i].Quantity = qty
				c.Items[i].LineTotal = c.Items[i].UnitPrice.Mul(decimal.NewFromInt(int64(qty)))
			}
		}
	})
}

func (s *CartStore) RemoveItem(ctx context.Context, lineID string) error {
	path := "/cart/items/" + url.PathEscape(lineID)
	return s.mutate(ctx, http.MethodDelete, path, nil, func(c *dto.Cart) {
		kept := c.Items[:0]
		for _, it := range c.Items {
			if it.ID != lineID {
				kept = append(kept, it)
			}
		}
		c.Items = kept
	})
}

func (s *CartStore) Clear(ctx context.Context) error {
	return s.mutate(ctx, http.MethodDelete, "/cart", nil, func(c *dto.Cart) {
		c.Items = nil
	})
}

// resetAfterCheckout empties the local cart once the server has turned it
// into an order.
func (s *CartStore) resetAfterCheckout() {
	release := s.queue.wait()
	s.mu.Lock()
	s.cart.Items = nil
	retotal(&s.cart)
	s.state = CartReady
	s.err = nil
	s.mu.Unlock()
	release()
	s.notify()
}

// mutate runs after every earlier mutation has finished. The optimistic
// change is applied on a copy of the last state; a failure restores that
// state exactly.
func (s *CartStore) mutate(ctx context.Context, method, path string, body any, apply func(c *dto.Cart)) error {
	release := s.queue.wait()
	defer release()

	s.mu.Lock()
	before := s.snapshotLocked()
	next := before.Cart
	next.Items = append([]dto.CartItem(nil), before.Cart.Items...)
	apply(&next)
	retotal(&next)
	s.cart = next
	s.pending++
	s.mu.Unlock()
	s.notify()

	var out dto.Cart
	err := s.API.do(ctx, method, path, body, &out)

	s.mu.Lock()
	s.pending--
	if err != nil {
		s.cart = before.Cart
		s.err = err
	} else {
		s.cart = out
		s.state = CartReady
		s.err = nil
	}
	s.mu.Unlock()
	s.notify()
	return err
}

func optimisticLine(id string, item dto.MenuItem, sel Selection) dto.CartItem {
	line := dto.CartItem{
		ID:                  id,
		MenuItemID:          item.ID,
		Name:                item.Name,
		ImageURL:            item.ImageURL,
		SpecialInstructions: strings.TrimSpace(sel.SpecialInstructions),
		Quantity:            sel.Quantity,
		Availability:        item.Availability,
		Available:           true,
	}
	pl := pricing.Line{BasePrice: item.BasePrice, Quantity: sel.Quantity}
	if sel.SizeID != nil {
		for _, sz := range item.Sizes {
			if sz.ID == *sel.SizeID {
				sz := sz
				line.Size = &sz
				pl.SizePrice = &sz.Price
			}
		}
	}
	for _, id := range uniq(sel.ToppingIDs) {
		for _, tp := range item.Toppings {
			if tp.ID == id {
				line.Toppings = append(line.Toppings, tp)
				pl.ToppingPrices = append(pl.ToppingPrices, tp.Price)
			}
		}
	}
	for _, g := range item.ModifierGroups {
		for _, oid := range uniq(sel.Modifiers[g.ID]) {
			for _, o := range g.Options {
				if o.ID == oid {
					line.Modifiers = append(line.Modifiers, dto.SelectedModifier{
						GroupID: g.ID, GroupName: g.Name, OptionID: o.ID, Name: o.Name, PriceDelta: o.PriceDelta,
					})
					pl.ModifierDeltas = append(pl.ModifierDeltas, o.PriceDelta)
				}
			}
		}
	}
	line.UnitPrice = pricing.UnitPrice(pl)
	line.LineTotal = pricing.LineTotal(pl)
	return line
}

// lineKey identifies a configuration the same way the server merges lines.
func lineKey(it dto.CartItem) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%d|", it.MenuItemID)
	if it.Size != nil {
		fmt.Fprintf(&b, "%d", it.Size.ID)
	}
	toppings := make([]uint, 0, len(it.Toppings))
	for _, t := range it.Toppings {
		toppings = append(toppings, t.ID)
	}
	fmt.Fprintf(&b, "|%v|", uniq(toppings))
	mods := make([]string, 0, len(it.Modifiers))
	for _, m := range it.Modifiers {
		mods = append(mods, fmt.Sprintf("%d=%d", m.GroupID, m.OptionID))
	}
	sort.Strings(mods)
	fmt.Fprintf(&b, "%v|%s", mods, strings.TrimSpace(it.SpecialInstructions))
	return b.String()
}

func uniq(ids []uint) []uint {
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

// retotal recomputes the derived amounts of an optimistic cart with the
// rates the server last reported.
func retotal(c *dto.Cart) {
	lines := make([]pricing.Line, 0, len(c.Items))
	c.ItemCount = 0
	for _, it := range c.Items {
		lines = append(lines, pricing.Line{BasePrice: it.UnitPrice, Quantity: it.Quantity})
		c.ItemCount += it.Quantity
	}
	t := pricing.CartTotals(lines, pricing.Rates{Tax: c.TaxRate, ServiceCharge: c.ServiceChargeRate})
	c.Subtotal, c.Tax, c.ServiceCharge, c.Total = t.Subtotal, t.Tax, t.ServiceCharge, t.Total
}

// fifo hands out turns in call order; sync.Mutex does not promise that.
type fifo struct {
	mu   sync.Mutex
	tail chan struct{}
}

func (f *fifo) wait() (release func()) {
	f.mu.Lock()
	prev := f.tail
	mine := make(chan struct{})
	f.tail = mine
	f.mu.Unlock()
	if prev != nil {
		<-prev
	}
	return func() { close(mine) }
}
