// Package api assembles the HTTP surface: global middleware, the rate-limited
// /api group, metrics, docs and health probes.
package api

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo-contrib/echoprometheus"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	echoSwagger "github.com/swaggo/echo-swagger"

	"github.com/controld-portal/profile-manager/internal/api/handler"
	"github.com/controld-portal/profile-manager/internal/api/middleware"
	"github.com/controld-portal/profile-manager/internal/core/domain"
	"github.com/controld-portal/profile-manager/internal/core/ports"
	"github.com/controld-portal/profile-manager/internal/infrastructure/http/handlers"
)

const bodyLimit = "1M"

// Deps is everything the router needs. Limiter and the three services are
// required; Health defaults to a liveness-only handler.
type Deps struct {
	Log         zerolog.Logger
	FrontendURL string

	Auth    ports.AuthService
	Admin   ports.AdminService
	Profile ports.ProfileService

	Limiter echomiddleware.RateLimiterStore
	Health  *handlers.HealthHandler

	// Registry receives the HTTP metrics and backs /metrics. Nil means the
	// default Prometheus registry.
	Registry *prometheus.Registry
}

// NewRouter builds and returns the Echo instance with all routes registered.
func NewRouter(deps Deps) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Validator = handler.NewValidator()
	e.HTTPErrorHandler = NewHTTPErrorHandler(deps.Log)
	// X-Forwarded-For is honoured only from private and loopback proxies
	e.IPExtractor = echo.ExtractIPFromXFFHeader()

	var (
		registerer prometheus.Registerer = prometheus.DefaultRegisterer
		gatherer   prometheus.Gatherer   = prometheus.DefaultGatherer
	)
	if deps.Registry != nil {
		registerer, gatherer = deps.Registry, deps.Registry
	}

	// --- Global middleware ---
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.RequestIDWithConfig(echomiddleware.RequestIDConfig{
		Generator: uuid.NewString,
	}))
	e.Use(requestLogger(deps.Log))
	e.Use(middleware.SecureHeaders())
	e.Use(middleware.CORS(deps.FrontendURL))
	e.Use(echomiddleware.BodyLimit(bodyLimit))
	e.Use(echoprometheus.NewMiddlewareWithConfig(echoprometheus.MiddlewareConfig{
		Subsystem:  "http",
		Registerer: registerer,
	}))

	// --- Operational routes (not rate limited) ---
	health := deps.Health
	if health == nil {
		health = handlers.NewHealthHandler(nil)
	}
	e.GET("/health", health.Liveness)
	e.GET("/health/ready", health.Readiness)
	e.GET("/metrics", echoprometheus.NewHandlerWithConfig(echoprometheus.HandlerConfig{Gatherer: gatherer}))
	e.GET("/swagger/*", echoSwagger.WrapHandler)

	// --- API ---
	authHandler := handler.NewAuthHandler(deps.Auth)
	adminHandler := handler.NewAdminHandler(deps.Admin)
	profileHandler := handler.NewProfileHandler(deps.Profile)

	userGuard := middleware.Guard(domain.PrincipalUser, deps.Auth)
	adminGuard := middleware.Guard(domain.PrincipalAdmin, deps.Auth)

	api := e.Group("/api", middleware.RateLimit(deps.Limiter, deps.Log))

	api.POST("/auth/login", authHandler.UserLogin)
	api.POST("/admin/login", authHandler.AdminLogin)

	api.POST("/admin/users", adminHandler.CreateUser, adminGuard)
	api.GET("/admin/users", adminHandler.ListUsers, adminGuard)

	api.GET("/profile", profileHandler.Get, userGuard)
	api.PUT("/profile", profileHandler.Update, userGuard)

	return e
}

// requestLogger writes one zerolog event per request.
func requestLogger(log zerolog.Logger) echo.MiddlewareFunc {
	return echomiddleware.RequestLoggerWithConfig(echomiddleware.RequestLoggerConfig{
		LogMethod:    true,
		LogURI:       true,
		LogStatus:    true,
		LogLatency:   true,
		LogRequestID: true,
		LogRemoteIP:  true,
		LogError:     true,
		HandleError:  true,
		LogValuesFunc: func(c echo.Context, v echomiddleware.RequestLoggerValues) error {
			ev := log.Info()
			switch {
			case v.Status >= http.StatusInternalServerError:
				ev = log.Error().Err(v.Error)
			case v.Status >= http.StatusBadRequest:
				ev = log.Warn()
			}
			ev.Str("method", v.Method).
				Str("uri", v.URI).
				Int("status", v.Status).
				Dur("latency", v.Latency).
				Str("request_id", v.RequestID).
				Str("remote_ip", v.RemoteIP).
				Msg("request")
			return nil
		},
	})
}
