package middleware

import (
	"net/http"

	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog"

	"github.com/controld-portal/profile-manager/pkg/metrics"
)

const rateLimitedMessage = "Too many requests from this IP"

// RateLimit rejects clients that exceed the store's budget with 429 before
// any handler runs. Clients are keyed by c.RealIP().
//
// A store that fails open returns (true, err); echo lets such requests
// through and the store is expected to log the error itself.
func RateLimit(store echomiddleware.RateLimiterStore, log zerolog.Logger) echo.MiddlewareFunc {
	return echomiddleware.RateLimiterWithConfig(echomiddleware.RateLimiterConfig{
		Store: store,
		IdentifierExtractor: func(c echo.Context) (string, error) {
			return c.RealIP(), nil
		},
		ErrorHandler: func(c echo.Context, err error) error {
			return echo.NewHTTPError(http.StatusForbidden, "Unable to identify client")
		},
		DenyHandler: func(c echo.Context, identifier string, err error) error {
			if err != nil {
				log.Warn().Err(err).Str("client_ip", identifier).Msg("rate limit store error")
			}
			metrics.RateLimitedTotal.Inc()
			return echo.NewHTTPError(http.StatusTooManyRequests, rateLimitedMessage)
		},
	})
}
