package client

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tkob-team/TKOB-QROrderSystem-sub008/cache"
	"github.com/tkob-team/TKOB-QROrderSystem-sub008/configs"
	"github.com/tkob-team/TKOB-QROrderSystem-sub008/events"
	"github.com/tkob-team/TKOB-QROrderSystem-sub008/pkg/apperr"
	"github.com/tkob-team/TKOB-QROrderSystem-sub008/pkg/dto"
	"github.com/tkob-team/TKOB-QROrderSystem-sub008/pkg/status"
	"github.com/tkob-team/TKOB-QROrderSystem-sub008/routes"
	"github.com/tkob-team/TKOB-QROrderSystem-sub008/ws"
)

type liveBackend struct {
	URL    string
	svc    *routes.Services
	hub    *ws.OrderHub
	tenant uint
}

// newLiveBackend runs the real router on sqlite with the websocket hub
// behind the event bus.
func newLiveBackend(t *testing.T) *liveBackend {
	t.Helper()
	gin.SetMode(gin.TestMode)

	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	db, err := configs.Open("sqlite", "file:client_"+name+"?mode=memory&cache=shared")
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })
	require.NoError(t, configs.SetupDatabase(db))
	tenant, err := configs.SeedDemo(db)
	require.NoError(t, err)

	cfg := &configs.Config{
		JWTSecret:               "client-test",
		SessionTTL:              3 * time.Hour,
		StaffTokenTTL:           time.Hour,
		SessionCookieName:       "table_session",
		CORSOrigins:             []string{"http://localhost:3000"},
		PublicBaseURL:           "http://qr.test",
		TaxRate:                 decimal.RequireFromString("0.10"),
		ServiceChargeRate:       decimal.RequireFromString("0.05"),
		USDVNDRate:              decimal.NewFromInt(25000),
		PaymentTimeout:          15 * time.Minute,
		PaymentWarningThreshold: 2 * time.Minute,
		WebhookSecret:           "hook",
	}

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	hub := ws.NewOrderHub()
	go hub.Run(ctx)

	r := gin.New()
	svc := routes.RegisterRoutes(r, db, cfg, routes.Infra{
		Cache:  cache.NewMemoryCache(),
		Events: events.NewBus(hub),
		Hub:    hub,
	})
	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	return &liveBackend{URL: srv.URL, svc: svc, hub: hub, tenant: tenant.ID}
}

func menuItem(t *testing.T, api *API, name string) dto.MenuItem {
	t.Helper()
	var menu []dto.MenuItem
	require.NoError(t, api.do(context.Background(), http.MethodGet, "/menu", nil, &menu))
	for _, m := range menu {
		if m.Name == name {
			return m
		}
	}
	t.Fatalf("menu has no %q", name)
	return dto.MenuItem{}
}

func TestCustomerFlow_ScanOrderTrack(t *testing.T) {
	be := newLiveBackend(t)
	ctx := context.Background()

	api, err := NewAPI(be.URL, 5*time.Second)
	require.NoError(t, err)
	var lost int
	api.OnSessionLost = func(error) { lost++ }

	// nothing works before the scan
	store := NewCartStore(api)
	assert.ErrorIs(t, store.Fetch(ctx), apperr.ErrNoSession)
	assert.Equal(t, 1, lost)

	res, err := (&SessionResolver{API: api}).ResolveQRToken(ctx, "demo-table-1")
	require.NoError(t, err)
	assert.Equal(t, "1", res.Session.TableNumber)
	assert.NotContains(t, res.RedirectTo, "demo-table-1")

	require.NoError(t, store.Fetch(ctx))
	coffee := menuItem(t, api, "Iced Coffee")
	require.NoError(t, store.AddItem(ctx, coffee, Selection{Quantity: 2}))
	assert.Equal(t, 2, store.ItemCount())
	assert.True(t, dec("8.05").Equal(store.Total()), store.Total().String())

	co := &Checkout{API: api, Cart: store}
	order, err := co.SubmitOrder(ctx, OrderRequest{TableID: res.Session.TableID, PaymentMethod: string(status.MethodBillToTable)})
	require.NoError(t, err)
	assert.Equal(t, status.OrderPending, order.Status)
	assert.Empty(t, store.LineIDs())

	tracker := &OrderTracker{API: api, OrderID: order.ID, Session: res.Session, PollInterval: time.Hour}
	tctx, cancel := context.WithCancel(ctx)
	defer cancel()
	updates, err := tracker.Track(tctx)
	require.NoError(t, err)
	assert.Equal(t, status.OrderPending, next(t, updates).Status)

	room := ws.TableRoom(be.tenant, res.Session.TableID)
	require.Eventually(t, func() bool { return be.hub.Count(room) == 1 }, 2*time.Second, 5*time.Millisecond)

	_, err = be.svc.Orders.Transition(ctx, be.tenant, order.ID, "Ready")
	require.NoError(t, err)
	got := next(t, updates)
	assert.Equal(t, status.OrderReady, got.Status)
	assert.Equal(t, "Ready", got.LegacyStatus)

	_, err = be.svc.Orders.Transition(ctx, be.tenant, order.ID, "COMPLETED")
	require.NoError(t, err)
	assert.Equal(t, status.OrderCompleted, next(t, updates).Status)
	closed(t, updates)
}
