package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/davidcarrillo/adfactura-backend/api/routes"
	"github.com/davidcarrillo/adfactura-backend/internal/companies"
	"github.com/davidcarrillo/adfactura-backend/internal/dashboard"
	"github.com/davidcarrillo/adfactura-backend/internal/documents"
	"github.com/davidcarrillo/adfactura-backend/internal/notifier"
	"github.com/davidcarrillo/adfactura-backend/internal/requests"
	"github.com/davidcarrillo/adfactura-backend/pkg/config"
	"github.com/davidcarrillo/adfactura-backend/pkg/db"
	"github.com/davidcarrillo/adfactura-backend/pkg/logger"
	"github.com/davidcarrillo/adfactura-backend/pkg/metrics"
	"github.com/davidcarrillo/adfactura-backend/pkg/migrate"
	"github.com/davidcarrillo/adfactura-backend/pkg/redis"
)

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
		WarnStack:   cfg.App.LogWarnStack,
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

	publisher, err := notifier.NewRedisPublisher(redisClient, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create event publisher", err)
		os.Exit(1)
	}

	companyService, err := companies.NewService(companies.NewRepository(dbClient.DB()))
	if err != nil {
		logg.Error(context.Background(), "failed to create company service", err)
		os.Exit(1)
	}

	requestsRepo := requests.NewRepository(dbClient.DB())
	store := documents.NewLocalStore("")
	requestService, err := requests.NewService(requests.ServiceParams{
		Repo:          requestsRepo,
		Tx:            dbClient,
		Registry:      companyService,
		Publisher:     publisher,
		Invoices:      store,
		Proofs:        store,
		Metrics:       metrics.NewLifecycleMetrics(prometheus.DefaultRegisterer),
		Logger:        logg,
		InvoicePrefix: cfg.Invoice.SeriesPrefix,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create request service", err)
		os.Exit(1)
	}

	dashboardService, err := dashboard.NewService(requestsRepo)
	if err != nil {
		logg.Error(context.Background(), "failed to create dashboard service", err)
		os.Exit(1)
	}

	router := routes.NewRouter(routes.RouterParams{
		Config:    cfg,
		Logger:    logg,
		DB:        dbClient,
		Redis:     redisClient,
		Requests:  requestService,
		Admin:     requestService,
		Dashboard: dashboardService,
		Companies: companyService,
	})

	server := &http.Server{
		Addr:              ":" + cfg.App.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logg.Error(shutdownCtx, "server shutdown failed", err)
		}
	}()

	startCtx := logg.WithFields(ctx, map[string]any{"env": cfg.App.Env, "port": cfg.App.Port})
	logg.Info(startCtx, "starting api server")

	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logg.Error(ctx, "api server stopped unexpectedly", err)
		os.Exit(1)
	}

	logg.Info(ctx, "api server shut down gracefully")
}
