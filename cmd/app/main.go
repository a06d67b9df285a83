// File: cmd/app/main.go
package main

import (
	"context"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"whatsapp-subscription-billing/internal/config"
	"whatsapp-subscription-billing/internal/gateway"
	pg "whatsapp-subscription-billing/internal/infra/db/postgres"
	"whatsapp-subscription-billing/internal/infra/logging"
	"whatsapp-subscription-billing/internal/infra/metrics"
	red "whatsapp-subscription-billing/internal/infra/redis"
	"whatsapp-subscription-billing/internal/infra/sched"
	"whatsapp-subscription-billing/internal/infra/web"
	"whatsapp-subscription-billing/internal/usecase"
)

var (
	version = "dev"
	commit  = "none"
)

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// ---- CLI flags ----
	cfgPath := flag.String("config", "config.yaml", "path to YAML config file")
	devMode := flag.Bool("dev", false, "enable developer mode (console logs, no sampling)")
	flag.Parse()

	cfg, err := config.LoadConfig(*cfgPath, *devMode)
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	logger := logging.New(cfg.Log, cfg.Runtime.Dev)
	if cfg.Runtime.Dev {
		logger.Info().Msg("[DEV MODE] Enabled")
	}

	metrics.MustRegister()
	metrics.SetBuildInfo(version, commit)

	// ---- Postgres ----
	pool, err := pg.NewPgxPool(ctx, cfg.Database.URL, 10)
	if err != nil {
		log.Fatalf("postgres: %v", err)
	}
	defer pool.Close()

	// ---- Redis ----
	redisClient, err := red.NewClient(ctx, &cfg.Redis)
	if err != nil {
		log.Fatalf("redis: %v", err)
	}
	defer redisClient.Close()
	locker := red.NewLocker(redisClient)

	// ---- Repositories ----
	tm := pg.NewTxManager(pool)
	txRepo := pg.NewTransactionRepo(pool)
	payRepo := pg.NewPaymentRepo(pool)
	detailRepo := pg.NewPurchaseDetailRepo(pool)
	subRepo := pg.NewSubscriptionRepo(pool)
	pkgRepo := pg.NewPackageRepo(pool)
	methodRepo := pg.NewPaymentMethodRepo(pool)

	// ---- Gateways ----
	duitku := gateway.NewDuitkuGateway(cfg.Payment.Duitku)
	if err := duitku.ValidateConfiguration(); err != nil {
		logger.Warn().Err(err).Msg("duitku not fully configured; gateway methods will fall back to manual")
	}
	manual := gateway.NewManualGateway(payRepo)
	registry := gateway.NewRegistry(methodRepo, manual, logger, duitku)

	// ---- Use cases ----
	activationUC := usecase.NewActivationUseCase(tm, txRepo, payRepo, detailRepo, subRepo, locker, cfg.Redis.LockTTL, logger)
	settlementUC := usecase.NewSettlementUseCase(tm, payRepo, txRepo, registry, activationUC, logger)
	checkoutUC := usecase.NewCheckoutUseCase(txRepo, payRepo, detailRepo, pkgRepo, registry, logger)
	catalogUC := usecase.NewCatalogUseCase(methodRepo, pkgRepo, logger)

	// ---- HTTP server ----
	auth := web.NewAuthManager(cfg.Admin.JWTSecret, !cfg.Runtime.Dev, "", cfg.Admin.SessionTTL)
	srv := web.NewServer(cfg, checkoutUC, settlementUC, catalogUC, registry, auth, logger)
	go func() {
		if err := srv.Start(); err != nil && err != http.ErrServerClosed {
			logger.Error().Err(err).Msg("http server error")
			cancel()
		}
	}()

	// ---- Background workers ----
	sweeper := sched.NewExpirationSweeper(cfg.Scheduler.SweepInterval, settlementUC, logger)
	go func() { _ = sweeper.Run(ctx) }()

	reconciler := sched.NewPaymentReconciler(cfg.Scheduler.ReconcileInterval, cfg.Scheduler.ReconcileStale, payRepo, settlementUC, logger)
	go func() { _ = reconciler.Run(ctx) }()

	// ---- DB pool gauge ----
	go func() {
		ticker := time.NewTicker(15 * time.Second)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				st := pool.Stat()
				metrics.SetDBPoolStats(st.TotalConns(), st.IdleConns(), st.AcquiredConns())
			}
		}
	}()

	// ---- Graceful shutdown ----
	sigc := make(chan os.Signal, 1)
	signal.Notify(sigc, syscall.SIGINT, syscall.SIGTERM)
	<-sigc
	logger.Info().Msg("shutdown requested")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("http shutdown error")
	}
}
