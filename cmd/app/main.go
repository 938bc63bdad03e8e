// File: cmd/app/main.go
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"

	"study-access-redemption/internal/config"
	"study-access-redemption/internal/domain/ports/repository"
	"study-access-redemption/internal/infra/api"
	apiv1 "study-access-redemption/internal/infra/api/apiv1"
	pg "study-access-redemption/internal/infra/db/postgres"
	"study-access-redemption/internal/infra/logging"
	"study-access-redemption/internal/infra/metrics"
	red "study-access-redemption/internal/infra/redis"
	"study-access-redemption/internal/infra/sched"
	"study-access-redemption/internal/infra/web"
	"study-access-redemption/internal/usecase"
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
	devMode := flag.Bool("dev", false, "development mode")
	flag.Parse()

	cfg, err := config.LoadConfig(*cfgPath, *devMode)
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	logger := logging.New(cfg.Log, cfg.Runtime.Dev)
	metrics.MustRegister()
	metrics.SetBuildInfo(version, commit)

	// ---- Postgres ----
	pool, err := pg.NewPgxPool(ctx, cfg.Database.URL, cfg.Database.MaxConns)
	if err != nil {
		logger.Fatal().Err(err).Msg("postgres")
	}
	defer pool.Close()

	// ---- Redis (optional; leases only narrow the claim race) ----
	var locker repository.Locker
	if cfg.Redis.URL != "" {
		redisClient, err := red.NewClient(ctx, &cfg.Redis)
		if err != nil {
			logger.Fatal().Err(err).Msg("redis")
		}
		defer redisClient.Close()
		locker = red.NewLocker(redisClient)
	} else {
		logger.Warn().Msg("redis not configured; redemption runs without leases")
	}

	// ---- Repositories ----
	codeRepo := pg.NewAccessCodeRepo(pool)
	subRepo := pg.NewSubscriptionRepo(pool)

	// ---- Use cases ----
	redeemUC := usecase.NewRedemptionUseCase(codeRepo, subRepo, locker, usecase.SystemClock(), logger)
	redeemUC.SetLeaseTTL(cfg.Redemption.LeaseTTL.Std())
	codeUC := usecase.NewCodeUseCase(codeRepo, logger)

	// ---- HTTP ----
	jwtSecret := cfg.Admin.JWTSecret
	if jwtSecret == "" {
		jwtSecret = cfg.Admin.APIKey
	}
	auth := web.NewAuthManager(jwtSecret, !cfg.Runtime.Dev, "", cfg.Admin.SessionTTL.Std())
	srv := apiv1.NewServer(redeemUC, codeUC, auth, cfg.Admin.APIKey, logger)

	r := chi.NewRouter()
	r.Use(api.TraceID(logger))
	r.Use(api.RequestLog(logger))
	r.Use(api.Recover(logger))
	r.Use(api.Timeout(15 * time.Second))
	srv.RegisterRoutes(r)

	server := &http.Server{Addr: fmt.Sprintf(":%d", cfg.Server.Port), Handler: r}
	go func() {
		logger.Info().Str("addr", server.Addr).Msg("http server listening")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error().Err(err).Msg("http server error")
		}
	}()

	// ---- Expiry sweeper ----
	worker := sched.NewExpiryWorker(cfg.Sweeper.Interval.Std(), subRepo, usecase.SystemClock(), logger)
	go func() { _ = worker.Run(ctx) }()

	// ---- Pool stats ----
	go func() {
		ticker := time.NewTicker(30 * time.Second)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				pg.ReportPoolStats(pool)
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
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("http shutdown")
	}
}
