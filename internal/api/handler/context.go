package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/controld-portal/profile-manager/internal/api/middleware"
	"github.com/controld-portal/profile-manager/internal/core/domain"
)

// ctxPrincipal returns the principal attached by middleware.Guard. A missing
// or mismatched principal means the route was registered without its guard.
func ctxPrincipal(c echo.Context, kind domain.PrincipalKind) (domain.Principal, error) {
	p, ok := c.Get(middleware.PrincipalKey).(domain.Principal)
	if !ok || p.Kind != kind {
		return domain.Principal{}, echo.NewHTTPError(http.StatusUnauthorized, "missing authentication principal")
	}
	return p, nil
}
