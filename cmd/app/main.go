package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"learning-entitlement/internal/config"
	"learning-entitlement/internal/domain/model"
	pg "learning-entitlement/internal/infra/db/postgres"
	"learning-entitlement/internal/infra/logging"
	"learning-entitlement/internal/infra/metrics"
	red "learning-entitlement/internal/infra/redis"
	"learning-entitlement/internal/infra/sched"
	"learning-entitlement/internal/infra/web"
	"learning-entitlement/internal/usecase"
)

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	logger := logging.New(cfg.Log, cfg.Runtime.Dev)
	metrics.MustRegister()

	loc, err := time.LoadLocation(cfg.Entitlement.Timezone)
	if err != nil {
		logger.Fatal().Err(err).Str("timezone", cfg.Entitlement.Timezone).Msg("invalid timezone")
	}
	clock := model.NewPeriodClock(loc)

	// ---- Postgres ----
	pool, err := pg.Connect(ctx, cfg.Database.URL)
	if err != nil {
		logger.Fatal().Err(err).Msg("postgres connect")
	}
	defer pool.Close()

	// ---- Redis ----
	redisClient, err := red.NewClient(ctx, &cfg.Redis)
	if err != nil {
		logger.Fatal().Err(err).Msg("redis connect")
	}
	defer redisClient.Close()
	rateLimiter := red.NewRateLimiter(redisClient)

	// ---- Repositories ----
	subRepo := pg.NewSubscriptionRepo(pool)
	usageRepo := pg.NewUsageRepo(pool)
	eventRepo := pg.NewPaymentEventRepo(pool)
	progressRepo := pg.NewProgressRepoCacheDecorator(pg.NewProgressRepo(pool), redisClient, cfg.Redis.TTL)
	txManager := pg.NewTxManager(pool)

	// ---- Use cases ----
	store := usecase.NewSubscriptionStore(subRepo, logger)
	ledger := usecase.NewUsageLedger(usageRepo, clock, logger)
	unlock := usecase.NewUnlockResolver(progressRepo, model.PassingScorePredicate(cfg.Entitlement.PassingScore), logger)
	reconciler := usecase.NewPaymentReconciler(subRepo, eventRepo, txManager,
		cfg.Entitlement.SubscriptionDays, cfg.Scheduler.ReplayStaleAfter, logger)
	gate := usecase.NewEntitlementGate(store, unlock, ledger, reconciler, progressRepo, logger)

	// ---- Background workers ----
	go func() {
		_ = sched.NewExpiryWorker(cfg.Scheduler.ExpiryInterval, store, logger).Run(ctx)
	}()
	go func() {
		_ = sched.NewReplayWorker(reconciler, cfg.Scheduler.ReplayInterval, logger).Run(ctx)
	}()

	// ---- HTTP ----
	server := web.NewServer(gate, unlock, ledger, reconciler, rateLimiter, cfg, logger)
	go func() {
		if err := server.Start(); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("http server")
		}
	}()

	// ---- Shutdown ----
	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig
	logger.Info().Msg("shutting down")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("http shutdown")
	}
}
