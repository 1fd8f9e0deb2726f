package services

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/tkob-team/TKOB-QROrderSystem-sub008/cache"
	"github.com/tkob-team/TKOB-QROrderSystem-sub008/configs"
	"github.com/tkob-team/TKOB-QROrderSystem-sub008/entity"
	"github.com/tkob-team/TKOB-QROrderSystem-sub008/events"
	"github.com/tkob-team/TKOB-QROrderSystem-sub008/pkg/pricing"
	"github.com/tkob-team/TKOB-QROrderSystem-sub008/repository"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []events.Event
}

func (p *recordingPublisher) Publish(_ context.Context, ev events.Event) {
	p.mu.Lock()
	p.events = append(p.events, ev)
	p.mu.Unlock()
}

func (p *recordingPublisher) count(typ string) int {
	p.mu.Lock()
	defer p.mu.Unlock()
	n := 0
	for _, ev := range p.events {
		if ev.Type == typ {
			n++
		}
	}
	return n
}

type testEnv struct {
	db     *gorm.DB
	clock  *fakeClock
	pub    *recordingPublisher
	tenant *entity.Tenant
	menu   map[string]*entity.MenuItem

	sessions *SessionService
	cart     *CartService
	checkout *CheckoutService
	promos   *PromotionService
	payments *PaymentService
	orders   *OrderService
}

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	db, err := configs.Open("sqlite", "file:"+name+"?mode=memory&cache=shared")
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })
	require.NoError(t, configs.SetupDatabase(db))
	return db
}

func newEnv(t *testing.T) *testEnv {
	t.Helper()
	db := newTestDB(t)
	tenant, err := configs.SeedDemo(db)
	require.NoError(t, err)

	e := &testEnv{
		db:     db,
		clock:  &fakeClock{now: time.Now().UTC().Truncate(time.Second)},
		pub:    &recordingPublisher{},
		tenant: tenant,
		menu:   map[string]*entity.MenuItem{},
	}
	clock := Clock(e.clock.Now)

	tenants := repository.NewTenantRepository(db)
	menus := repository.NewMenuRepository(db)
	carts := repository.NewCartRepository(db)
	orders := repository.NewOrderRepository(db)
	payments := repository.NewPaymentRepository(db)

	items, err := menus.ListForTenant(tenant.ID)
	require.NoError(t, err)
	for i := range items {
		e.menu[items[i].Name] = &items[i]
	}

	rates := pricing.Rates{Tax: decimal.RequireFromString("0.10"), ServiceCharge: decimal.RequireFromString("0.05")}
	pay := PaymentSettings{Timeout: 15 * time.Minute, Warning: 120 * time.Second, Converter: pricing.NewConverter(decimal.Zero)}
	mem := cache.NewMemoryCache()

	e.sessions = &SessionService{
		DB: db, Tenants: tenants, Sessions: repository.NewSessionRepository(db), Cache: mem, Events: e.pub,
		Secret: "test-secret", TTL: 3 * time.Hour, BaseURL: "http://qr.test", Clock: clock,
	}
	e.cart = &CartService{DB: db, Carts: carts, Menus: menus, Tenants: tenants, Events: e.pub, Rates: rates}
	e.promos = &PromotionService{Repo: repository.NewPromotionRepository(db), Clock: clock}
	e.checkout = &CheckoutService{
		DB: db, Carts: carts, Menus: menus, Tenants: tenants, Orders: orders, Payments: payments,
		Promos: e.promos, Events: e.pub, Rates: rates, Payment: pay, Clock: clock,
	}
	e.payments = &PaymentService{DB: db, Orders: orders, Payments: payments, Once: mem, Events: e.pub, Settings: pay, Clock: clock}
	e.orders = &OrderService{DB: db, Repo: orders, Events: e.pub, Clock: clock}
	return e
}

func (e *testEnv) session(t *testing.T, token string) *entity.TableSession {
	t.Helper()
	res, err := e.sessions.ResolveQRToken(context.Background(), token)
	require.NoError(t, err)
	return res.Session
}

func sizeID(t *testing.T, m *entity.MenuItem, name string) *uint {
	t.Helper()
	for _, s := range m.Sizes {
		if s.Name == name {
			id := s.ID
			return &id
		}
	}
	t.Fatalf("%s has no size %q", m.Name, name)
	return nil
}

func toppingID(t *testing.T, m *entity.MenuItem, name string) uint {
	t.Helper()
	for _, tp := range m.Toppings {
		if tp.Name == name {
			return tp.ID
		}
	}
	t.Fatalf("%s has no topping %q", m.Name, name)
	return 0
}

// option returns the group id and option id for "Group/Option".
func option(t *testing.T, m *entity.MenuItem, group, name string) (uint, uint) {
	t.Helper()
	for _, g := range m.ModifierGroups {
		if g.Name != group {
			continue
		}
		for _, o := range g.Options {
			if o.Name == name {
				return g.ID, o.ID
			}
		}
	}
	t.Fatalf("%s has no option %s/%s", m.Name, group, name)
	return 0, 0
}

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }
