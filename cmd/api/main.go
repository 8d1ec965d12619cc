// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

// Command api is the entry point for the Yomira identity server.
//
// # Startup Sequence
//
//  1. Initialize structured logger.
//  2. Load configuration from environment variables.
//  3. Connect to PostgreSQL (pgxpool).
//  4. Connect to Redis.
//  5. Run database migrations (idempotent).
//  6. Connect to the mail broker when configured.
//  7. Wire HTTP handlers.
//  8. Start HTTP server with graceful shutdown.
//
// No business logic lives here. All wiring is explicit constructor injection.
package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/taibuivan/yomira-auth/internal/api"
	"github.com/taibuivan/yomira-auth/internal/platform/config"
	"github.com/taibuivan/yomira-auth/internal/platform/constants"
	"github.com/taibuivan/yomira-auth/internal/platform/mailer"
	"github.com/taibuivan/yomira-auth/internal/platform/middleware"
	"github.com/taibuivan/yomira-auth/internal/platform/migration"
	pgstore "github.com/taibuivan/yomira-auth/internal/platform/postgres"
	redisstore "github.com/taibuivan/yomira-auth/internal/platform/redis"
	"github.com/taibuivan/yomira-auth/internal/platform/sec"
	"github.com/taibuivan/yomira-auth/internal/users/account"
	"github.com/taibuivan/yomira-auth/internal/users/auth"
)

func main() {
	// ── 1. Logger ──────────────────────────────────────────────────────────
	// Initialize first so that subsequent startup errors are structured JSON.
	rawLog := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))

	log := rawLog.With(slog.String(constants.FieldApp, constants.AppName))
	slog.SetDefault(log)

	log.Info("[Yomira] service_initializing", slog.String(constants.FieldVersion, constants.AppVersion))

	// ── 2. Configuration ──────────────────────────────────────────────────
	cfg, err := config.Load()
	must(log, err, "load configuration")

	if cfg.Debug {
		debugLog := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
			Level: slog.LevelDebug,
		}))
		log = debugLog.With(slog.String(constants.FieldApp, constants.AppName))
		slog.SetDefault(log)
		log.Debug("debug_logging_enabled")
	}

	log.Info("configuration_loaded",
		slog.String("environment", cfg.Environment),
		slog.String("port", cfg.ServerPort),
		slog.Bool("mail_enabled", cfg.MailEnabled()),
	)

	// Process-wide context; cancelled on shutdown so background sweepers stop.
	rootCtx, rootCancel := context.WithCancel(context.Background())
	defer rootCancel()

	startupCtx, startupCancel := context.WithTimeout(rootCtx, 30*time.Second)
	defer startupCancel()

	// ── 3. PostgreSQL ─────────────────────────────────────────────────────
	pool, err := pgstore.NewPool(startupCtx, cfg.DatabaseURL, cfg.DatabaseMaxConns, log)
	must(log, err, "connect to postgres")
	defer func() {
		log.Info("closing postgres pool")
		pool.Close()
	}()

	// ── 4. Redis ──────────────────────────────────────────────────────────
	rdb, err := redisstore.NewClient(startupCtx, cfg.RedisURL, cfg.RedisPoolSize, log)
	must(log, err, "connect to redis")
	defer func() {
		log.Info("closing redis client")
		if cerr := rdb.Close(); cerr != nil {
			log.Error("redis close error", slog.Any("error", cerr))
		}
	}()

	// ── 5. Migrations ─────────────────────────────────────────────────────
	must(log, migration.RunUp(cfg.DatabaseURL, cfg.MigrationPath, log), "run migrations")

	// ── 6. Mail Delivery ──────────────────────────────────────────────────
	checks := []api.DependencyCheck{
		{Name: "postgres", Check: func(ctx context.Context) error { return pgstore.Ping(ctx, pool) }},
		{Name: "redis", Check: func(ctx context.Context) error { return redisstore.Ping(ctx, rdb) }},
	}

	var dispatcher auth.EmailDispatcher = mailer.NewLogDispatcher(log, cfg.Debug)
	if cfg.MailEnabled() {
		broker, err := mailer.Dial(cfg.AMQPURL, cfg.MailExchange, log)
		must(log, err, "connect to mail broker")
		defer func() {
			log.Info("closing mail broker")
			if cerr := broker.Close(); cerr != nil {
				log.Error("broker close error", slog.Any("error", cerr))
			}
		}()

		dispatcher = mailer.NewAMQPDispatcher(broker.Channel(), broker.Exchange(), log)
		checks = append(checks, api.DependencyCheck{Name: "broker", Check: broker.Ping})
	}

	// ── 7. Domain Wiring ──────────────────────────────────────────────────
	tokens, err := sec.NewTokenService(cfg.JWTSecret, cfg.JWTIssuer, cfg.AccessTokenTTL, cfg.RefreshTokenTTL)
	must(log, err, "initialize token service")

	accountStore := auth.NewAccountStore(pool)
	verification := auth.NewVerificationWorkflow(auth.NewVerificationTokenStore(rdb), cfg.VerificationTokenTTL)
	recovery := auth.NewRecoveryWorkflow(
		auth.NewRecoveryTokenStore(rdb),
		cfg.RecoveryTokenTTL,
		auth.WithApprovalTTL(cfg.ApprovalTokenTTL),
	)

	authService := auth.NewService(
		accountStore,
		sec.NewBcryptHasher(cfg.BcryptCost),
		tokens,
		verification,
		recovery,
		dispatcher,
		log,
	)
	credentialGuard := middleware.RateLimit(rootCtx, constants.CredentialRateLimitRPS, constants.CredentialRateLimitBurst)
	authHandler := auth.NewHandler(authService, cfg.RefreshTokenTTL, credentialGuard)

	accountService := account.NewService(accountStore, account.NewDirectory(pool), tokens, log)
	accountHandler := account.NewHandler(accountService)

	liveness, readiness := api.NewHealthHandlers(checks, log)

	// ── 8. HTTP Server ────────────────────────────────────────────────────
	server := api.NewServer(rootCtx, cfg, log, tokens, api.Handlers{
		Liveness:  liveness,
		Readiness: readiness,
		Auth:      authHandler,
		Accounts:  accountHandler,
	})

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGTERM, syscall.SIGINT)

	serverErr := make(chan error, 1)
	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	// Block until OS signal or server error.
	select {
	case sig := <-quit:
		log.Info("shutdown signal received", slog.String("signal", sig.String()))
	case err := <-serverErr:
		log.Error("server startup error", slog.Any("error", err))
	}

	shutdownTimeout := constants.ShutdownTimeout
	log.Info("shutting down server", slog.Duration("timeout", shutdownTimeout))

	if err := server.Shutdown(shutdownTimeout); err != nil {
		log.Error("shutdown error", slog.Any("error", err))
		rootCancel()
		os.Exit(1)
	}

	log.Info("server stopped cleanly")
}

// must logs a structured fatal error and terminates the process if err is non-nil.
//
// It is limited to startup wiring. After startup, all errors are returned
// and handled explicitly.
func must(log *slog.Logger, err error, context string) {
	if err != nil {
		log.Error("startup failure",
			slog.String("context", context),
			slog.Any("error", err),
		)
		os.Exit(1)
	}
}
