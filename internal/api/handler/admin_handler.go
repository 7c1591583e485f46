package handler

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/controld-portal/profile-manager/internal/core/domain"
	"github.com/controld-portal/profile-manager/internal/core/ports"
)

// AdminHandler serves the admin-guarded user provisioning routes.
type AdminHandler struct {
	service ports.AdminService
}

func NewAdminHandler(service ports.AdminService) *AdminHandler {
	return &AdminHandler{service: service}
}

// CreateUser provisions an active user bound to one upstream endpoint.
//
// @Summary      Create a user
// @Tags         admin
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body  body      createUserRequest  true  "New user"
// @Success      200   {object}  userResponse
// @Failure      400   {object}  errorResponse
// @Failure      401   {object}  errorResponse
// @Failure      403   {object}  errorResponse
// @Router       /admin/users [post]
func (h *AdminHandler) CreateUser(c echo.Context) error {
	actor, err := ctxPrincipal(c, domain.PrincipalAdmin)
	if err != nil {
		return err
	}

	var req createUserRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	user, err := h.service.CreateUser(c.Request().Context(), actor, req.Username, req.Password, req.EndpointID)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrUserExists):
			return echo.NewHTTPError(http.StatusBadRequest, "Username or endpoint ID already exists")
		case errors.Is(err, domain.ErrInvalidInput):
			return echo.NewHTTPError(http.StatusBadRequest, "username, password and endpointId are required")
		case errors.Is(err, domain.ErrPasswordTooLong):
			return echo.NewHTTPError(http.StatusBadRequest, domain.ErrPasswordTooLong.Error())
		}
		return err
	}

	return c.JSON(http.StatusOK, toUserResponse(user))
}

// ListUsers returns every user with its creation time.
//
// @Summary      List users
// @Tags         admin
// @Produce      json
// @Security     BearerAuth
// @Success      200  {array}   userResponse
// @Failure      401  {object}  errorResponse
// @Failure      403  {object}  errorResponse
// @Router       /admin/users [get]
func (h *AdminHandler) ListUsers(c echo.Context) error {
	users, err := h.service.ListUsers(c.Request().Context())
	if err != nil {
		return err
	}

	out := make([]userResponse, 0, len(users))
	for _, u := range users {
		out = append(out, toUserResponse(u))
	}
	return c.JSON(http.StatusOK, out)
}

func toUserResponse(u *domain.User) userResponse {
	return userResponse{
		ID:         u.ID,
		Username:   u.Username,
		EndpointID: u.EndpointID,
		IsActive:   u.IsActive,
		CreatedAt:  u.CreatedAt,
	}
}
