package handler

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/controld-portal/profile-manager/internal/core/domain"
	"github.com/controld-portal/profile-manager/internal/core/ports"
)

var errNotObject = errors.New("body is not a JSON object")

// ProfileHandler relays the caller's own profile. The endpoint id is always
// the principal's; nothing in the request can select another one.
type ProfileHandler struct {
	service ports.ProfileService
}

func NewProfileHandler(service ports.ProfileService) *ProfileHandler {
	return &ProfileHandler{service: service}
}

// Get returns the caller's profile document as the provider sent it.
//
// @Summary      Get own profile
// @Tags         profile
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  object
// @Failure      401  {object}  errorResponse
// @Failure      403  {object}  errorResponse
// @Failure      500  {object}  errorResponse
// @Router       /profile [get]
func (h *ProfileHandler) Get(c echo.Context) error {
	principal, err := ctxPrincipal(c, domain.PrincipalUser)
	if err != nil {
		return err
	}

	profile, err := h.service.GetProfile(c.Request().Context(), principal)
	if err != nil {
		return err
	}
	return c.JSONBlob(http.StatusOK, profile)
}

// Update forwards the request body to the provider unchanged.
//
// @Summary      Update own profile
// @Tags         profile
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body  body      object  true  "Profile patch"
// @Success      200   {object}  object
// @Failure      400   {object}  errorResponse
// @Failure      401   {object}  errorResponse
// @Failure      403   {object}  errorResponse
// @Failure      500   {object}  errorResponse
// @Router       /profile [put]
func (h *ProfileHandler) Update(c echo.Context) error {
	principal, err := ctxPrincipal(c, domain.PrincipalUser)
	if err != nil {
		return err
	}

	patch, err := readObject(c.Request().Body)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "request body must be a JSON object")
	}

	profile, err := h.service.UpdateProfile(c.Request().Context(), principal, patch)
	if err != nil {
		return err
	}
	return c.JSONBlob(http.StatusOK, profile)
}

// readObject reads a JSON object body verbatim.
func readObject(r io.Reader) (domain.ProfileData, error) {
	raw, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || raw[0] != '{' || !json.Valid(raw) {
		return nil, errNotObject
	}
	return domain.ProfileData(raw), nil
}
