package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	apperrors "catalog/internal/errors"
	"catalog/internal/middleware"
	"catalog/internal/service"
)

// UserHandler serves the profile of the authenticated user.
type UserHandler struct {
	svc service.AuthService
}

// NewUserHandler creates a handler layer.
func NewUserHandler(svc service.AuthService) *UserHandler {
	return &UserHandler{svc: svc}
}

// Profile godoc
// @Summary Current user's profile
// @Tags users
// @Produce json
// @Security BearerAuth
// @Success 200 {object} UserResponse
// @Failure 401 {object} errors.ErrorResponse
// @Router /users/profile/ [get]
func (h *UserHandler) Profile(c echo.Context) error {
	claims := middleware.ClaimsFrom(c)
	if claims == nil {
		return apperrors.EchoError(apperrors.ErrUnauthorized)
	}
	user, err := h.svc.Profile(c.Request().Context(), claims.UserID)
	if err != nil {
		return apperrors.EchoError(err)
	}
	return c.JSON(http.StatusOK, newUserResponse(user))
}
