package routes

import (
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/tkob-team/TKOB-QROrderSystem-sub008/configs"
	"github.com/tkob-team/TKOB-QROrderSystem-sub008/controllers"
	"github.com/tkob-team/TKOB-QROrderSystem-sub008/entity"
	"github.com/tkob-team/TKOB-QROrderSystem-sub008/events"
	"github.com/tkob-team/TKOB-QROrderSystem-sub008/middlewares"
	"github.com/tkob-team/TKOB-QROrderSystem-sub008/pkg/pricing"
	"github.com/tkob-team/TKOB-QROrderSystem-sub008/repository"
	"github.com/tkob-team/TKOB-QROrderSystem-sub008/services"
	"github.com/tkob-team/TKOB-QROrderSystem-sub008/ws"
)

// Cache is what the session and payment services need from the cache layer.
type Cache interface {
	services.SessionCache
	services.OnceMarker
}

// Infra holds the long-lived collaborators main builds before routing.
type Infra struct {
	Cache  Cache
	Events events.Publisher
	Hub    *ws.OrderHub
	Clock  services.Clock
}

// Services is exposed so tests can reach the wired services.
type Services struct {
	Sessions *services.SessionService
	Cart     *services.CartService
	Checkout *services.CheckoutService
	Promos   *services.PromotionService
	Payments *services.PaymentService
	Orders   *services.OrderService
	Menu     *services.MenuService
	Auth     *services.AuthService
}

func BuildServices(db *gorm.DB, cfg *configs.Config, infra Infra) *Services {
	tenants := repository.NewTenantRepository(db)
	sessions := repository.NewSessionRepository(db)
	menus := repository.NewMenuRepository(db)
	carts := repository.NewCartRepository(db)
	orders := repository.NewOrderRepository(db)
	payments := repository.NewPaymentRepository(db)
	promos := repository.NewPromotionRepository(db)
	staff := repository.NewStaffRepository(db)

	rates := pricing.Rates{Tax: cfg.TaxRate, ServiceCharge: cfg.ServiceChargeRate}
	pay := services.PaymentSettings{
		Timeout:   cfg.PaymentTimeout,
		Warning:   cfg.PaymentWarningThreshold,
		Converter: pricing.NewConverter(cfg.USDVNDRate),
	}
	promoSvc := &services.PromotionService{Repo: promos, Clock: infra.Clock}

	return &Services{
		Sessions: &services.SessionService{
			DB: db, Tenants: tenants, Sessions: sessions, Cache: infra.Cache, Events: infra.Events,
			Secret: cfg.JWTSecret, TTL: cfg.SessionTTL, BaseURL: cfg.PublicBaseURL, Clock: infra.Clock,
		},
		Cart: &services.CartService{
			DB: db, Carts: carts, Menus: menus, Tenants: tenants, Events: infra.Events, Rates: rates,
		},
		Checkout: &services.CheckoutService{
			DB: db, Carts: carts, Menus: menus, Tenants: tenants, Orders: orders, Payments: payments,
			Promos: promoSvc, Events: infra.Events, Rates: rates, Payment: pay, Clock: infra.Clock,
		},
		Promos: promoSvc,
		Payments: &services.PaymentService{
			DB: db, Orders: orders, Payments: payments, Once: infra.Cache, Events: infra.Events,
			Settings: pay, Clock: infra.Clock,
		},
		Orders: &services.OrderService{DB: db, Repo: orders, Events: infra.Events, Clock: infra.Clock},
		Menu:   services.NewMenuService(menus, infra.Events),
		Auth:   services.NewAuthService(staff, cfg.JWTSecret, cfg.StaffTokenTTL),
	}
}

func RegisterRoutes(r *gin.Engine, db *gorm.DB, cfg *configs.Config, infra Infra) *Services {
	r.Use(middlewares.CORSMiddleware(cfg.CORSOrigins))
	r.GET("/health", func(c *gin.Context) { c.JSON(200, gin.H{"ok": true}) })

	svc := BuildServices(db, cfg, infra)

	// Controllers
	sessCtrl := controllers.NewSessionController(svc.Sessions, cfg.SessionCookieName, cfg.CookieSecure)
	menuCtrl := controllers.NewMenuController(svc.Menu)
	cartCtrl := controllers.NewCartController(svc.Cart)
	checkoutCtrl := controllers.NewCheckoutController(svc.Checkout, svc.Promos)
	orderCtrl := controllers.NewOrderController(svc.Orders)
	payCtrl := controllers.NewPaymentController(svc.Payments)
	authCtrl := controllers.NewAuthController(svc.Auth)
	staffCtrl := controllers.NewStaffController(svc.Orders, svc.Payments, svc.Sessions, repository.NewTenantRepository(db))

	tableSession := middlewares.TableSession(svc.Sessions, cfg.SessionCookieName)

	// QR entry (token ไม่ค้างใน URL)
	r.GET("/qr/:token", sessCtrl.Enter)

	api := r.Group("/api/v1")
	api.POST("/sessions/resolve", sessCtrl.Resolve)
	api.POST("/payments/webhook", middlewares.WebhookSecret(cfg.WebhookSecret), payCtrl.Webhook)

	// Customer (cookie ของโต๊ะ)
	cust := api.Group("", tableSession)
	{
		cust.GET("/sessions/current", sessCtrl.Current)
		cust.GET("/menu", menuCtrl.List)

		cust.GET("/cart", cartCtrl.Get)
		cust.DELETE("/cart", cartCtrl.Clear)
		cust.POST("/cart/items", cartCtrl.Add)
		cust.PATCH("/cart/items/:id", cartCtrl.UpdateQty)
		cust.DELETE("/cart/items/:id", cartCtrl.Remove)

		cust.POST("/checkout/validate-promo", checkoutCtrl.ValidatePromo)
		cust.POST("/checkout", checkoutCtrl.Submit)

		cust.GET("/orders", orderCtrl.List)
		cust.GET("/orders/:id", orderCtrl.Detail)
		cust.GET("/orders/:id/tracking", orderCtrl.Tracking)

		cust.POST("/payments/:orderId/start", payCtrl.Start)
		cust.GET("/payments/:orderId/status", payCtrl.Status)
		cust.POST("/payments/:orderId/extend", payCtrl.Extend)
		cust.GET("/payments/:orderId/qr.png", payCtrl.QRCode)
	}

	// Staff (Bearer token)
	api.POST("/staff/login", authCtrl.Login)
	staff := api.Group("/staff", middlewares.AuthMiddleware(cfg.JWTSecret, entity.RoleOwner, entity.RoleStaff, entity.RoleKitchen))
	{
		staff.GET("/me", authCtrl.Me)
		staff.GET("/menu", menuCtrl.List)
		staff.GET("/orders", staffCtrl.ListOrders)
		staff.PATCH("/orders/:id/status", staffCtrl.UpdateStatus)
		staff.PATCH("/orders/:id/items/:itemId/status", staffCtrl.UpdateItemStatus)
	}
	// เก็บเงิน/จัดการโต๊ะ/เมนู ไม่ใช่งานของครัว
	floor := api.Group("/staff", middlewares.AuthMiddleware(cfg.JWTSecret, entity.RoleOwner, entity.RoleStaff))
	{
		floor.POST("/orders/:id/payments/collect", staffCtrl.CollectPayment)
		floor.GET("/tables", staffCtrl.ListTables)
		floor.POST("/tables/:id/clear", staffCtrl.ClearTable)
		floor.GET("/tables/:id/qr.png", staffCtrl.TableQR)
		floor.PATCH("/menu/:id/availability", menuCtrl.SetAvailability)
	}
	owner := api.Group("/staff", middlewares.AuthMiddleware(cfg.JWTSecret, entity.RoleOwner))
	{
		owner.POST("/tables/:id/qr/rotate", staffCtrl.RotateQR)
	}

	// Realtime /orders namespace
	if infra.Hub != nil {
		r.GET("/ws/orders", middlewares.WSAuthMiddleware(cfg.JWTSecret, svc.Sessions, cfg.SessionCookieName), infra.Hub.HandleWebSocket)
	}
	return svc
}
