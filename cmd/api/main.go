package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/rentease/rentease-backend/api/routes"
	"github.com/rentease/rentease-backend/internal/auth"
	"github.com/rentease/rentease-backend/internal/billing"
	"github.com/rentease/rentease-backend/internal/cart"
	"github.com/rentease/rentease-backend/internal/checkout"
	"github.com/rentease/rentease-backend/internal/coupons"
	"github.com/rentease/rentease-backend/internal/fulfillment"
	"github.com/rentease/rentease-backend/internal/inventory"
	"github.com/rentease/rentease-backend/internal/ledger"
	"github.com/rentease/rentease-backend/internal/notifications"
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
	"github.com/rentease/rentease-backend/pkg/migrate"
	"github.com/rentease/rentease-backend/pkg/redis"
)

const shutdownTimeout = 15 * time.Second

func main() {
	logg := logger.New(logger.Options{ServiceName: "api"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "api",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		Environment: cfg.App.Env,
		WarnStack:   cfg.App.LogWarnStack,
		Console:     cfg.App.LogFormat == "console",
	})

	dbClient, err := db.New(context.Background(), cfg.DB, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap database", err)
		os.Exit(1)
	}
	defer func() {
		if err := dbClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing database", err)
		}
	}()

	if err := migrate.MaybeRunDev(context.Background(), cfg, logg, dbClient); err != nil {
		logg.Error(context.Background(), "failed to run dev migrations", err)
		os.Exit(1)
	}

	redisClient, err := redis.New(context.Background(), cfg.Redis, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap redis", err)
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing redis", err)
		}
	}()

	sessionManager, err := session.NewManager(redisClient, cfg.JWT)
	if err != nil {
		logg.Error(context.Background(), "failed to create session manager", err)
		os.Exit(1)
	}

	services, err := buildServices(cfg, logg, dbClient, sessionManager)
	if err != nil {
		logg.Error(context.Background(), "failed to wire services", err)
		os.Exit(1)
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port
	ctx := logg.WithField(context.Background(), "addr", addr)
	logg.Info(ctx, "starting api server")

	server := &http.Server{
		Addr: addr,
		Handler: routes.NewRouter(
			cfg,
			logg,
			dbClient,
			redisClient,
			sessionManager,
			prometheus.DefaultGatherer,
			metrics.NewHTTPMetrics(prometheus.DefaultRegisterer),
			services,
		),
		ReadHeaderTimeout: 10 * time.Second,
	}

	sigCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logg.Error(ctx, "api server stopped unexpectedly", err)
			os.Exit(1)
		}
	case <-sigCtx.Done():
		logg.Info(ctx, "shutting down api server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logg.Error(ctx, "graceful shutdown failed", err)
		}
	}
}

func buildServices(cfg *config.Config, logg *logger.Logger, dbClient *db.Client, sessionManager *session.Manager) (routes.Services, error) {
	conn := dbClient.DB()

	usersRepo := users.NewRepository(conn)
	userService, err := users.NewService(usersRepo)
	if err != nil {
		return routes.Services{}, err
	}
	authService, err := auth.NewService(auth.ServiceParams{
		UserRepo:       usersRepo,
		SessionManager: sessionManager,
		JWTConfig:      cfg.JWT,
		PasswordConfig: cfg.Password,
		Logger:         logg,
	})
	if err != nil {
		return routes.Services{}, err
	}
	registerService, err := auth.NewRegisterService(auth.RegisterServiceParams{
		DB:             dbClient,
		SessionManager: sessionManager,
		JWTConfig:      cfg.JWT,
		PasswordConfig: cfg.Password,
	})
	if err != nil {
		return routes.Services{}, err
	}

	inventoryService, err := inventory.NewService(inventory.NewRepository(conn))
	if err != nil {
		return routes.Services{}, err
	}
	events, err := ledger.NewService(ledger.NewRepository(conn))
	if err != nil {
		return routes.Services{}, err
	}
	rates, err := settings.NewService(settings.NewRepository(conn), cfg.Rental)
	if err != nil {
		return routes.Services{}, err
	}
	couponService, err := coupons.NewService(coupons.NewRepository(conn))
	if err != nil {
		return routes.Services{}, err
	}
	productRepo := product.NewRepository(conn)
	productService, err := product.NewService(productRepo, dbClient, inventoryService)
	if err != nil {
		return routes.Services{}, err
	}

	ordersRepo := orders.NewRepository(conn)
	orderService, err := orders.NewService(orders.ServiceParams{
		Repo:        ordersRepo,
		Tx:          dbClient,
		Inventory:   inventoryService,
		Events:      events,
		AlertWindow: cfg.Rental.ReturnAlertWindow,
		Logger:      logg,
	})
	if err != nil {
		return routes.Services{}, err
	}
	billingService, err := billing.NewService(billing.ServiceParams{
		Repo:   billing.NewRepository(conn),
		Tx:     dbClient,
		Orders: orderService,
		Events: events,
		Rates:  rates,
		Mailer: notifications.NewMailer(cfg.Sendgrid, logg),
		Rental: cfg.Rental,
		Logger: logg,
	})
	if err != nil {
		return routes.Services{}, err
	}

	cartRepo := cart.NewRepository(conn)
	cartService, err := cart.NewService(cart.ServiceParams{
		Repo:      cartRepo,
		Products:  productRepo,
		Inventory: inventoryService,
		Coupons:   couponService,
		Rates:     rates,
		Logger:    logg,
	})
	if err != nil {
		return routes.Services{}, err
	}
	checkoutService, err := checkout.NewService(checkout.ServiceParams{
		Tx:          dbClient,
		CartRepo:    cartRepo,
		OrdersRepo:  ordersRepo,
		Profiles:    usersRepo,
		Reservation: inventoryService,
		Coupons:     couponService,
		Invoices:    billingService,
		Events:      events,
		Rates:       rates,
		Metrics:     metrics.NewCheckoutMetrics(prometheus.DefaultRegisterer),
		Logger:      logg,
	})
	if err != nil {
		return routes.Services{}, err
	}
	fulfillmentService, err := fulfillment.NewService(fulfillment.ServiceParams{
		Repo:       fulfillment.NewRepository(conn),
		OrdersRepo: ordersRepo,
		Orders:     orderService,
		Invoices:   billingService,
		Events:     events,
		Rates:      rates,
		Tx:         dbClient,
		Logger:     logg,
	})
	if err != nil {
		return routes.Services{}, err
	}
	reportService, err := reports.NewService(reports.NewRepository(conn), cfg.Rental.LowStockThreshold)
	if err != nil {
		return routes.Services{}, err
	}

	return routes.Services{
		Auth:        authService,
		Register:    registerService,
		Users:       userService,
		Products:    productService,
		Cart:        cartService,
		Checkout:    checkoutService,
		Orders:      orderService,
		Invoices:    billingService,
		Fulfillment: fulfillmentService,
		Reports:     reportService,
		Coupons:     couponService,
		Settings:    rates,
	}, nil
}
