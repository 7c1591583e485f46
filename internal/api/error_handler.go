package api

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/controld-portal/profile-manager/internal/core/domain"
)

const internalErrorMessage = "Internal server error"

// errorResponse is the canonical error envelope for all API errors.
type errorResponse struct {
	Error string `json:"error"`
}

// NewHTTPErrorHandler returns an echo.HTTPErrorHandler that:
//   - Renders handler and middleware rejections (*echo.HTTPError) as they are.
//   - Surfaces upstream profile API failures as 500 with the provider's message.
//   - Logs anything else and answers a generic 500 without leaking details.
func NewHTTPErrorHandler(log zerolog.Logger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		code, msg := resolveError(err, log, c)
		if c.Request().Method == http.MethodHead {
			_ = c.NoContent(code)
			return
		}
		_ = c.JSON(code, errorResponse{Error: msg})
	}
}

func resolveError(err error, log zerolog.Logger, c echo.Context) (int, string) {
	var he *echo.HTTPError
	if errors.As(err, &he) {
		if he.Internal != nil {
			log.Debug().Err(he.Internal).Str("path", c.Path()).Msg("http error")
		}
		return he.Code, fmt.Sprintf("%v", he.Message)
	}

	var upErr *domain.UpstreamError
	if errors.As(err, &upErr) {
		log.Warn().
			Err(err).
			Str("op", upErr.Op).
			Int("upstream_status", upErr.StatusCode).
			Str("path", c.Path()).
			Msg("upstream profile API failed")
		return http.StatusInternalServerError, upErr.Message
	}

	switch {
	case errors.Is(err, domain.ErrNotTenant):
		return http.StatusForbidden, "Invalid or inactive user"
	case errors.Is(err, domain.ErrInvalidToken):
		return http.StatusForbidden, "Invalid token"
	case errors.Is(err, domain.ErrInvalidCredentials):
		return http.StatusUnauthorized, "Invalid credentials"
	case errors.Is(err, domain.ErrUserExists):
		return http.StatusBadRequest, "Username or endpoint ID already exists"
	case errors.Is(err, domain.ErrInvalidInput), errors.Is(err, domain.ErrPasswordTooLong):
		return http.StatusBadRequest, err.Error()
	}

	log.Error().
		Err(err).
		Str("method", c.Request().Method).
		Str("path", c.Path()).
		Msg("unhandled error")

	return http.StatusInternalServerError, internalErrorMessage
}
