package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	goredis "github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"

	_ "github.com/controld-portal/profile-manager/docs"
	"github.com/controld-portal/profile-manager/internal/api"
	"github.com/controld-portal/profile-manager/internal/core/service"
	"github.com/controld-portal/profile-manager/internal/infrastructure/config"
	"github.com/controld-portal/profile-manager/internal/infrastructure/controld"
	mongodb "github.com/controld-portal/profile-manager/internal/infrastructure/db/mongo"
	redisstore "github.com/controld-portal/profile-manager/internal/infrastructure/db/redis"
	"github.com/controld-portal/profile-manager/internal/infrastructure/http/handlers"
	"github.com/controld-portal/profile-manager/internal/infrastructure/queue"
	"github.com/controld-portal/profile-manager/internal/infrastructure/ratelimit"
)

func newServeCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		Long: `Run the HTTP API with graceful shutdown.

On SIGINT or SIGTERM the server stops accepting connections, drains in-flight
requests and flushes queued audit events for at most SHUTDOWN_TIMEOUT.`,
		RunE: a.runServe,
	}
}

func (a *app) runServe(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	cfg, err := config.Load(ctx)
	if err != nil {
		return err
	}
	a.initLogger(cfg.LogLevel, cfg.Env)
	log := a.log

	// --- MongoDB ---
	client, db, err := mongodb.Connect(ctx, mongodb.Config{URI: cfg.Mongo.URI, Database: cfg.Mongo.Database})
	if err != nil {
		return err
	}
	defer func() {
		dctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = client.Disconnect(dctx)
	}()

	users := mongodb.NewUserRepository(db)
	admins := mongodb.NewAdminRepository(db)
	if err := mongodb.EnsureIndexes(ctx, users, admins); err != nil {
		return err
	}

	// --- Rate limit backend ---
	var (
		limiter echomiddleware.RateLimiterStore
		rdb     *goredis.Client
	)
	switch cfg.RateLimit.Backend {
	case "redis":
		rdb, err = redisstore.Connect(ctx, redisstore.Config{Addr: cfg.Redis.Addr, DB: cfg.Redis.DB})
		if err != nil {
			return err
		}
		defer rdb.Close()
		limiter = redisstore.NewRateLimitStore(rdb, cfg.RateLimit.Window, cfg.RateLimit.Max, log)
	default:
		limiter = ratelimit.NewMemoryStore(cfg.RateLimit.Window, cfg.RateLimit.Max)
	}

	// --- Audit trail ---
	audit := queue.NewDispatcher(cfg.Audit.Workers, mongodb.NewAuthEventRepository(db), log)
	audit.Start(ctx)

	// --- Services ---
	tokens, err := service.NewTokenService(cfg.JWTSecret)
	if err != nil {
		return err
	}
	gateway := controld.NewClient(controld.Config{
		BaseURL:     cfg.ControlD.BaseURL,
		APIKey:      cfg.ControlD.APIKey,
		Timeout:     cfg.ControlD.Timeout,
		ReadRetries: cfg.ControlD.ReadRetries,
	}, log)

	checks := map[string]handlers.Check{"mongodb": handlers.MongoCheck(db)}
	if rdb != nil {
		checks["redis"] = handlers.RedisCheck(rdb)
	}

	e := api.NewRouter(api.Deps{
		Log:         log,
		FrontendURL: cfg.FrontendURL,
		Auth:        service.NewAuthService(users, admins, tokens, audit, log),
		Admin:       service.NewAdminService(users, admins, audit, log),
		Profile:     service.NewProfileService(gateway, log),
		Limiter:     limiter,
		Health:      handlers.NewHealthHandler(checks),
	})

	// --- Run until signalled ---
	serverErr := make(chan error, 1)
	go func() {
		log.Info().Str("port", cfg.Port).Str("env", cfg.Env).Str("rate_limit_backend", cfg.RateLimit.Backend).Msg("server listening")
		if err := e.Start(":" + cfg.Port); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
		close(serverErr)
	}()

	select {
	case err := <-serverErr:
		if err != nil {
			return fmt.Errorf("server: %w", err)
		}
	case <-ctx.Done():
	}

	log.Info().Dur("timeout", cfg.ShutdownTimeout).Msg("shutting down")
	return shutdown(e, audit, cfg.ShutdownTimeout)
}

func shutdown(e *echo.Echo, audit *queue.Dispatcher, timeout time.Duration) error {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	var errs []error
	if err := e.Shutdown(ctx); err != nil {
		errs = append(errs, fmt.Errorf("http shutdown: %w", err))
	}
	if err := audit.Close(ctx); err != nil {
		errs = append(errs, fmt.Errorf("audit flush: %w", err))
	}
	return errors.Join(errs...)
}
