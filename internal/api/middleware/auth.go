package middleware

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/controld-portal/profile-manager/internal/core/domain"
	"github.com/controld-portal/profile-manager/internal/core/ports"
	"github.com/controld-portal/profile-manager/pkg/metrics"
)

// PrincipalKey is the echo context key holding the authenticated domain.Principal.
const PrincipalKey = "principal"

// guardMessages are the client-facing rejections for one principal kind.
type guardMessages struct {
	missing string // no usable bearer token
	invalid string // token failed verification or belongs to the other kind
	subject string // token is fine but its subject no longer qualifies
}

var messages = map[domain.PrincipalKind]guardMessages{
	domain.PrincipalUser: {
		missing: "Access token required",
		invalid: "Invalid token",
		subject: "Invalid or inactive user",
	},
	domain.PrincipalAdmin: {
		missing: "Admin token required",
		invalid: "Invalid admin token",
		subject: "Invalid admin credentials",
	},
}

// Guard authenticates the bearer token as a principal of the given kind and
// stores it under PrincipalKey. Missing tokens are rejected with 401, tokens
// that do not resolve to a qualifying principal with 403.
func Guard(kind domain.PrincipalKind, auth ports.AuthService) echo.MiddlewareFunc {
	msg, ok := messages[kind]
	if !ok {
		panic("middleware: unknown principal kind " + kind.String())
	}

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			token, ok := bearerToken(c.Request().Header.Get(echo.HeaderAuthorization))
			if !ok {
				return reject(kind, http.StatusUnauthorized, msg.missing)
			}

			principal, err := auth.Authenticate(c.Request().Context(), kind, token)
			switch {
			case err == nil:
			case errors.Is(err, domain.ErrInvalidToken):
				return reject(kind, http.StatusForbidden, msg.invalid)
			case errors.Is(err, domain.ErrUserNotFound),
				errors.Is(err, domain.ErrInactiveAccount),
				errors.Is(err, domain.ErrAdminNotFound):
				return reject(kind, http.StatusForbidden, msg.subject)
			default:
				// store failure; the error handler logs it and answers 500
				return err
			}

			c.Set(PrincipalKey, principal)
			return next(c)
		}
	}
}

// bearerToken extracts <t> from "Bearer <t>". The scheme is case-insensitive.
func bearerToken(header string) (string, bool) {
	scheme, token, found := strings.Cut(strings.TrimSpace(header), " ")
	if !found || !strings.EqualFold(scheme, "bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}

func reject(kind domain.PrincipalKind, status int, message string) error {
	metrics.GuardRejectionsTotal.WithLabelValues(kind.String(), strconv.Itoa(status)).Inc()
	return echo.NewHTTPError(status, message)
}
