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

	"salescatalog/internal/config"
	"salescatalog/internal/infra"
	"salescatalog/internal/metrics"
	"salescatalog/internal/middleware"
	"salescatalog/internal/repository"
	"salescatalog/internal/router"
	"salescatalog/internal/seed"
	"salescatalog/internal/worker"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}

	// Structured logger: dev pretty, prod JSON
	if !cfg.IsProduction() {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})
	}

	db, err := infra.NewDatabase(cfg.DBDriver, cfg.DatabaseURL)
	if err != nil {
		log.Fatal().Err(err).Str("driver", cfg.DBDriver).Msg("failed to open store")
	}

	rdb, err := infra.NewRedis(cfg.RedisURL)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to redis")
	}
	if rdb == nil {
		log.Info().Msg("REDIS_URL not set: seed jobs run in-process")
	}

	// Cancelled on shutdown: stops the worker pool, the scheduler and any
	// in-flight background seed.
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	m := metrics.New()
	productRepo := repository.NewProductRepository(db)
	saleRepo := repository.NewSaleRepository(db)

	seedCB := infra.NewCircuitBreaker(infra.DefaultCBConfig("seed-upstream"))
	seeder := seed.New(productRepo, saleRepo,
		infra.NewSeedClient(cfg.SeedProductsURL, cfg.SeedSalesURL),
		seedCB, m,
		seed.Config{
			MaxAttempts:   cfg.SeedMaxAttempts,
			FallbackDir:   cfg.SeedFallbackDir,
			AllowFallback: cfg.IsDevelopment(),
		})
	seeder.AfterInsert = func(ctx context.Context) error {
		return infra.SyncSequences(db.WithContext(ctx))
	}
	seedRunner := timeoutRunner{seeder: seeder, timeout: cfg.SeedTimeout}

	var alerts *worker.AlertNotifier
	if cfg.AlertsEnabled() {
		mailer := infra.NewMailer(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUser, cfg.SMTPPassword)
		alerts = worker.NewAlertNotifier(mailer, cfg.AlertEmail)
		log.Info().Str("to", cfg.AlertEmail).Msg("seed failure alerts enabled")
	}

	var dispatcher *worker.Dispatcher
	if rdb != nil {
		dispatcher = worker.NewDispatcher(rdb)
		worker.StartWorkerPool(ctx, rdb, &worker.WorkerHandlers{Seed: seedRunner, Alerts: alerts}, cfg.WorkerPoolSize)
	}
	trigger := worker.NewSeedTrigger(ctx, dispatcher, seedRunner)
	trigger.Alerts = alerts

	if _, err := worker.StartSeedSchedule(ctx, cfg.SeedSchedule, trigger); err != nil {
		log.Fatal().Err(err).Str("schedule", cfg.SeedSchedule).Msg("invalid SEED_SCHEDULE")
	}
	if cfg.SeedOnStartup {
		if _, err := trigger.Trigger(ctx, worker.SeedJobPayload{Trigger: "startup"}); err != nil {
			log.Warn().Err(err).Msg("startup seed could not be triggered")
		}
	}

	limiter := middleware.NewRateLimiter(cfg.RateLimitPerMinute, time.Minute)
	limiter.UseRedis(rdb)
	limiter.StartPurge(ctx)

	r := router.New(cfg, router.Deps{
		DB:          db,
		Redis:       rdb,
		Metrics:     m,
		Seeder:      seeder,
		SeedRunner:  seedRunner,
		SeedTrigger: trigger,
		SeedBreaker: seedCB,
		RateLimiter: limiter,
	})

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      r,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown on SIGINT / SIGTERM
	go func() {
		log.Info().Str("env", cfg.Env).Str("driver", cfg.DBDriver).Msgf("sales catalog listening on :%d", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutting down server")
	cancel()
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("forced shutdown")
	}
	if rdb != nil {
		_ = rdb.Close()
	}
	if sqlDB, err := db.DB(); err == nil {
		_ = sqlDB.Close()
	}
	log.Info().Msg("server exited")
}

// timeoutRunner bounds each seed run by SEED_TIMEOUT.
type timeoutRunner struct {
	seeder  *seed.Seeder
	timeout time.Duration
}

func (r timeoutRunner) Run(ctx context.Context) (seed.Result, error) {
	if r.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.timeout)
		defer cancel()
	}
	return r.seeder.Run(ctx)
}
