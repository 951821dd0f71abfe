package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/rentease/rentease-backend/internal/cron"
	"github.com/rentease/rentease-backend/internal/inventory"
	"github.com/rentease/rentease-backend/internal/ledger"
	"github.com/rentease/rentease-backend/internal/notifications"
	"github.com/rentease/rentease-backend/internal/orders"
	"github.com/rentease/rentease-backend/pkg/config"
	"github.com/rentease/rentease-backend/pkg/db"
	"github.com/rentease/rentease-backend/pkg/logger"
	"github.com/rentease/rentease-backend/pkg/metrics"
	"github.com/rentease/rentease-backend/pkg/migrate"
	"github.com/rentease/rentease-backend/pkg/redis"
)

const serviceName = "cron-worker"

func main() {
	logg := logger.New(logger.Options{ServiceName: serviceName})
	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, logg); err != nil {
		logg.Error(ctx, "cron worker exited", err)
		stop()
		os.Exit(1)
	}
}

// run owns every resource so deferred closes execute before main exits.
func run(ctx context.Context, logg *logger.Logger) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	cfg.Service.Kind = serviceName
	logg = logger.New(logger.Options{
		ServiceName: serviceName,
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		Environment: cfg.App.Env,
		WarnStack:   cfg.App.LogWarnStack,
		Console:     cfg.App.LogFormat == "console",
	})

	dbClient, err := db.New(ctx, cfg.DB, logg)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer closeQuietly(logg, "database", dbClient.Close)

	if err := migrate.MaybeRunDev(ctx, cfg, logg, dbClient); err != nil {
		return fmt.Errorf("dev migrations: %w", err)
	}

	redisClient, err := redis.New(ctx, cfg.Redis, logg)
	if err != nil {
		return fmt.Errorf("open redis: %w", err)
	}
	defer closeQuietly(logg, "redis", redisClient.Close)

	job, err := buildReturnAlertJob(cfg, logg, dbClient, redisClient)
	if err != nil {
		return fmt.Errorf("return alert job: %w", err)
	}
	lock, err := cron.NewRedisLock(redisClient, redisClient.LockKey(cron.ReturnAlertJobName), cfg.Cron.LockTTL)
	if err != nil {
		return fmt.Errorf("cron lock: %w", err)
	}
	registry, err := cron.NewRegistry(job)
	if err != nil {
		return fmt.Errorf("cron registry: %w", err)
	}
	service, err := cron.NewService(cron.ServiceParams{
		Logger:   logg,
		Registry: registry,
		Lock:     lock,
		Metrics:  metrics.NewCronJobMetrics(prometheus.DefaultRegisterer),
		Schedule: cfg.Cron.Schedule,
	})
	if err != nil {
		return fmt.Errorf("cron service: %w", err)
	}

	if cfg.Cron.MetricsAddr != "" {
		srv := metricsServer(cfg.Cron.MetricsAddr)
		go func() {
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logg.Error(ctx, "cron metrics listener failed", err)
			}
		}()
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = srv.Shutdown(shutdownCtx)
		}()
	}

	ctx = logg.WithFields(ctx, map[string]any{
		"schedule":     cfg.Cron.Schedule,
		"metrics_addr": cfg.Cron.MetricsAddr,
	})
	logg.Info(ctx, "cron worker started")
	if err := service.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	logg.Info(ctx, "cron worker stopped")
	return nil
}

func metricsServer(addr string) *http.Server {
	r := chi.NewRouter()
	r.Handle("/metrics", promhttp.Handler())
	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})
	return &http.Server{Addr: addr, Handler: r, ReadHeaderTimeout: 5 * time.Second}
}

func closeQuietly(logg *logger.Logger, name string, closeFn func() error) {
	if err := closeFn(); err != nil {
		logg.Error(context.Background(), "close "+name, err)
	}
}

func buildReturnAlertJob(cfg *config.Config, logg *logger.Logger, dbClient *db.Client, redisClient *redis.Client) (cron.Job, error) {
	conn := dbClient.DB()

	inventoryService, err := inventory.NewService(inventory.NewRepository(conn))
	if err != nil {
		return nil, err
	}
	events, err := ledger.NewService(ledger.NewRepository(conn))
	if err != nil {
		return nil, err
	}
	orderService, err := orders.NewService(orders.ServiceParams{
		Repo:        orders.NewRepository(conn),
		Tx:          dbClient,
		Inventory:   inventoryService,
		Events:      events,
		AlertWindow: cfg.Rental.ReturnAlertWindow,
		Logger:      logg,
	})
	if err != nil {
		return nil, err
	}

	return cron.NewReturnAlertJob(cron.ReturnAlertJobParams{
		Logger:         logg,
		Alerts:         orderService,
		Reminders:      redisClient,
		Mailer:         notifications.NewMailer(cfg.Sendgrid, logg),
		Events:         events,
		Brand:          cfg.Rental.BrandName,
		SupportContact: cfg.Rental.SupportContact,
	})
}
