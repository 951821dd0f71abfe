package routes

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/rentease/rentease-backend/api/controllers"
	"github.com/rentease/rentease-backend/api/middleware"
	"github.com/rentease/rentease-backend/internal/auth"
	"github.com/rentease/rentease-backend/internal/cart"
	"github.com/rentease/rentease-backend/internal/checkout"
	"github.com/rentease/rentease-backend/internal/coupons"
	"github.com/rentease/rentease-backend/internal/fulfillment"
	"github.com/rentease/rentease-backend/internal/orders"
	product "github.com/rentease/rentease-backend/internal/products"
	"github.com/rentease/rentease-backend/internal/reports"
	"github.com/rentease/rentease-backend/internal/settings"
	"github.com/rentease/rentease-backend/internal/users"
	"github.com/rentease/rentease-backend/pkg/auth/session"
	"github.com/rentease/rentease-backend/pkg/config"
	"github.com/rentease/rentease-backend/pkg/db"
	"github.com/rentease/rentease-backend/pkg/logger"
	"github.com/rentease/rentease-backend/pkg/metrics"
	pkgredis "github.com/rentease/rentease-backend/pkg/redis"
)

// RedisStore is the slice of the redis client the HTTP layer needs.
type RedisStore interface {
	pkgredis.IdempotencyStore
	Ping(ctx context.Context) error
	middleware.WindowLimiter
}

// Services groups the domain services exposed over HTTP. Nil services answer 500.
type Services struct {
	Auth        auth.Service
	Register    auth.RegisterService
	Users       users.Service
	Products    product.Service
	Cart        cart.Service
	Checkout    checkout.Service
	Orders      orders.Service
	Invoices    controllers.InvoiceService
	Fulfillment fulfillment.Service
	Reports     reports.Service
	Coupons     coupons.Service
	Settings    settings.Service
}

func NewRouter(
	cfg *config.Config,
	logg *logger.Logger,
	dbP db.Pinger,
	redisStore RedisStore,
	sessions session.AccessSessionChecker,
	gatherer prometheus.Gatherer,
	httpMetrics *metrics.HTTPMetrics,
	svc Services,
) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg, httpMetrics),
		middleware.CORS(cfg.App.CORSOrigins...),
	)

	// Untyped nils keep the optional middlewares disabled when redis is absent.
	var (
		idempotencyStore pkgredis.IdempotencyStore
		limiter          middleware.WindowLimiter
		redisPinger      controllers.Pinger
	)
	if redisStore != nil {
		idempotencyStore, limiter, redisPinger = redisStore, redisStore, redisStore
	}
	var dbPinger controllers.Pinger
	if dbP != nil {
		dbPinger = dbP
	}

	loginPolicy := middleware.AuthRateLimitPolicy{
		Name:       "login",
		Window:     cfg.AuthRateLimit.LoginWindow,
		IPLimit:    cfg.AuthRateLimit.LoginIPLimit,
		EmailLimit: cfg.AuthRateLimit.LoginEmailLimit,
	}
	registerPolicy := middleware.AuthRateLimitPolicy{
		Name:       "register",
		Window:     cfg.AuthRateLimit.RegisterWindow,
		IPLimit:    cfg.AuthRateLimit.RegisterIPLimit,
		EmailLimit: cfg.AuthRateLimit.RegisterEmailLimit,
	}

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, map[string]controllers.Pinger{
			"database": dbPinger,
			"redis":    redisPinger,
		}))
	})
	if gatherer != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))
	}

	authenticate := middleware.Auth(cfg.JWT, sessions, logg)

	idempotent := middleware.Idempotency(idempotencyStore, cfg.Idempotency, logg)

	r.Route("/api/v1", func(r chi.Router) {
		r.Route("/auth", func(r chi.Router) {
			r.With(middleware.AuthRateLimit(loginPolicy, limiter, logg)).Post("/login", controllers.AuthLogin(svc.Auth, logg))
			r.With(middleware.AuthRateLimit(registerPolicy, limiter, logg), idempotent).Post("/register", controllers.AuthRegister(svc.Register, logg))
			r.Post("/refresh", controllers.AuthRefresh(svc.Auth, logg))
			r.With(authenticate).Post("/logout", controllers.AuthLogout(svc.Auth, logg))
		})

		r.Get("/products", controllers.ProductList(svc.Products, logg))
		r.Get("/products/{productId}", controllers.ProductDetail(svc.Products, logg))
		r.Get("/products/{productId}/availability", controllers.ProductAvailability(svc.Products, logg))
		r.Get("/products/{productId}/price", controllers.ProductPrice(svc.Products, logg))
		r.Get("/categories", controllers.CategoryList(svc.Products, logg))

		r.Group(func(r chi.Router) {
			r.Use(authenticate)
			r.Use(middleware.RateLimit(limiter, cfg.RateLimit.Limit, cfg.RateLimit.Window, logg))
			r.Use(idempotent)

			r.Get("/me", controllers.MeGet(svc.Users, logg))
			r.Patch("/me", controllers.MeUpdate(svc.Users, logg))

			r.Route("/cart", func(r chi.Router) {
				r.Get("/", controllers.CartGet(svc.Cart, logg))
				r.Post("/lines", controllers.CartAddLine(svc.Cart, logg))
				r.Delete("/lines/{lineId}", controllers.CartRemoveLine(svc.Cart, logg))
				r.Post("/coupon", controllers.CartApplyCoupon(svc.Cart, logg))
				r.Delete("/coupon", controllers.CartRemoveCoupon(svc.Cart, logg))
			})
			r.Post("/checkout", controllers.Checkout(svc.Checkout, logg))

			r.Get("/orders", controllers.OrderList(svc.Orders, logg))
			r.Get("/orders/{orderId}", controllers.OrderDetail(svc.Orders, logg))

			r.Get("/invoices/{invoiceId}", controllers.InvoiceGet(svc.Invoices, logg))
			r.Get("/invoices/{invoiceId}/pdf", controllers.InvoicePDF(svc.Invoices, logg))
			r.Post("/invoices/{invoiceId}/pay", controllers.InvoicePay(svc.Invoices, logg))

			r.Route("/manage", func(r chi.Router) {
				r.Use(middleware.RequireVendorOrAdmin(logg))

				r.Get("/dashboard", controllers.Dashboard(svc.Reports, logg))

				r.Get("/products", controllers.ManagedProductList(svc.Products, logg))
				r.Post("/products", controllers.ProductCreate(svc.Products, logg))
				r.Get("/products/{productId}", controllers.ManagedProductDetail(svc.Products, logg))
				r.Patch("/products/{productId}", controllers.ProductUpdate(svc.Products, logg))
				r.Delete("/products/{productId}", controllers.ProductDelete(svc.Products, logg))
				r.Get("/attributes", controllers.AttributeList(svc.Products, logg))
				r.Post("/attributes", controllers.AttributeCreate(svc.Products, logg))

				r.Get("/orders", controllers.ManagedOrderList(svc.Orders, logg))
				r.Get("/orders/{orderId}", controllers.ManagedOrderDetail(svc.Orders, logg))
				r.Patch("/orders/{orderId}/status", controllers.ManagedOrderStatus(svc.Orders, logg))
				r.Post("/orders/{orderId}/pickup", controllers.OrderPickup(svc.Fulfillment, logg))
				r.Post("/orders/{orderId}/return", controllers.OrderReturn(svc.Fulfillment, logg))
				r.Post("/orders/{orderId}/invoice", controllers.InvoiceEnsure(svc.Invoices, logg))
				r.Get("/return-alerts", controllers.ReturnAlerts(svc.Orders, logg))

				r.Get("/invoices/{invoiceId}", controllers.InvoiceGet(svc.Invoices, logg))
				r.Post("/invoices/{invoiceId}/email", controllers.InvoiceEmail(svc.Invoices, logg))
				r.Post("/invoices/{invoiceId}/payments", controllers.InvoiceRecordPayment(svc.Invoices, logg))
			})

			r.Route("/admin", func(r chi.Router) {
				r.Use(middleware.RequireAdmin(logg))

				r.Post("/categories", controllers.CategoryCreate(svc.Products, logg))
				r.Get("/coupons", controllers.CouponList(svc.Coupons, logg))
				r.Post("/coupons", controllers.CouponCreate(svc.Coupons, logg))
				r.Get("/settings", controllers.SettingsList(svc.Settings, logg))
				r.Put("/settings", controllers.SettingsPut(svc.Settings, logg))
			})
		})
	})

	return r
}
