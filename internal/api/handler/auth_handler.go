package handler

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/controld-portal/profile-manager/internal/core/domain"
	"github.com/controld-portal/profile-manager/internal/core/ports"
)

type AuthHandler struct {
	authService ports.AuthService
}

func NewAuthHandler(authService ports.AuthService) *AuthHandler {
	return &AuthHandler{authService: authService}
}

// UserLogin exchanges user credentials for a 24h session token.
//
// @Summary      User login
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        body  body      loginRequest  true  "User credentials"
// @Success      200   {object}  userLoginResponse
// @Failure      400   {object}  errorResponse
// @Failure      401   {object}  errorResponse
// @Failure      429   {object}  errorResponse
// @Router       /auth/login [post]
func (h *AuthHandler) UserLogin(c echo.Context) error {
	var req loginRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Username and password required")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Username and password required")
	}

	token, user, err := h.authService.LoginUser(c.Request().Context(), req.Username, req.Password)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrInvalidInput):
			return echo.NewHTTPError(http.StatusBadRequest, "Username and password required")
		case errors.Is(err, domain.ErrInactiveAccount):
			return echo.NewHTTPError(http.StatusUnauthorized, "Invalid credentials or inactive account")
		case errors.Is(err, domain.ErrInvalidCredentials):
			return echo.NewHTTPError(http.StatusUnauthorized, "Invalid credentials")
		}
		return err
	}

	return c.JSON(http.StatusOK, userLoginResponse{
		Token: token,
		User:  userView{ID: user.ID, Username: user.Username, EndpointID: user.EndpointID},
	})
}

// AdminLogin exchanges admin credentials for a 7 day session token.
//
// @Summary      Admin login
// @Tags         admin
// @Accept       json
// @Produce      json
// @Param        body  body      loginRequest  true  "Admin credentials"
// @Success      200   {object}  adminLoginResponse
// @Failure      401   {object}  errorResponse
// @Failure      429   {object}  errorResponse
// @Router       /admin/login [post]
func (h *AuthHandler) AdminLogin(c echo.Context) error {
	var req loginRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusUnauthorized, "Invalid credentials")
	}

	token, err := h.authService.LoginAdmin(c.Request().Context(), req.Username, req.Password)
	if err != nil {
		if errors.Is(err, domain.ErrInvalidCredentials) {
			return echo.NewHTTPError(http.StatusUnauthorized, "Invalid credentials")
		}
		return err
	}

	return c.JSON(http.StatusOK, adminLoginResponse{Token: token})
}
