package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	apphandler "benefits/internal/application/handler"
	appmetrics "benefits/internal/application/metrics"
	"benefits/internal/application/service"
	appstore "benefits/internal/application/store"
	"benefits/internal/audit"
	"benefits/internal/geography"
	"benefits/internal/platform/config"
	"benefits/internal/platform/httpserver"
	"benefits/internal/platform/logger"
	"benefits/internal/platform/metrics"
	"benefits/internal/platform/postgres"
	platformredis "benefits/internal/platform/redis"
	"benefits/internal/registry"
	"benefits/internal/statistics"
	statshandler "benefits/internal/statistics/handler"
	httptransport "benefits/internal/transport/http"
)

// main wires high-level dependencies, exposes the HTTP router, and keeps the
// server lifecycle small. Business logic lives in the internal packages.
func main() {
	cfg := config.FromEnv()
	log := logger.New()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := postgres.Open(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Error("failed to open database", "error", err)
		os.Exit(1)
	}
	defer db.Close()
	if err := postgres.Migrate(ctx, db); err != nil {
		log.Error("failed to migrate schema", "error", err)
		os.Exit(1)
	}

	rdb, err := platformredis.New(cfg.Redis)
	if err != nil {
		log.Error("failed to connect to redis", "error", err)
		os.Exit(1)
	}
	if rdb != nil {
		defer rdb.Close()
	}

	// Audit pipeline: non-blocking publisher, background worker draining to
	// Postgres.
	publisher := audit.NewPublisher(cfg.AuditBuffer, log)
	worker := audit.NewWorker(audit.NewPostgresSink(db), publisher.Inbox(), log)
	workerDone := make(chan struct{})
	go func() {
		defer close(workerDone)
		if err := worker.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			log.Error("audit worker stopped", "error", err)
		}
	}()

	store := appstore.NewPostgres(db)
	reg := registry.NewPostgresReader(db)
	geo := geography.NewPostgresDirectory(db)

	appSvc, err := service.New(store, reg, cfg.LaunchYear,
		service.WithLogger(log),
		service.WithAuditor(publisher),
		service.WithMetrics(appmetrics.New()),
	)
	if err != nil {
		log.Error("failed to build application service", "error", err)
		os.Exit(1)
	}

	statsOpts := []statistics.Option{statistics.WithLogger(log)}
	if rdb != nil {
		statsOpts = append(statsOpts, statistics.WithCache(
			statistics.NewRedisCache(rdb.Client, cfg.Redis.CacheTTL, log)))
	}
	statsSvc, err := statistics.New(store, reg, geo, statsOpts...)
	if err != nil {
		log.Error("failed to build statistics service", "error", err)
		os.Exit(1)
	}

	router := httptransport.NewRouter(httptransport.Deps{
		Applications: apphandler.New(appSvc, log),
		Statistics:   statshandler.New(statsSvc, log),
		Metrics:      metrics.New(),
		DB:           db,
		Redis:        rdb,
	})
	srv := httpserver.New(cfg.Addr, router)

	go func() {
		log.Info("benefits engine listening", "addr", cfg.Addr, "launch_year", cfg.LaunchYear)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("server error", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	log.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("graceful shutdown failed", "error", err)
	}
	// The worker drains buffered audit entries after cancellation.
	<-workerDone
}
