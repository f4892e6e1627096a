package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	apperrors "catalog/internal/errors"
	"catalog/internal/middleware"
	"catalog/internal/service"
	"catalog/internal/validation"
)

// AuthHandler handles authentication endpoints.
type AuthHandler struct {
	authService service.AuthService
}

// NewAuthHandler creates a new auth handler.
func NewAuthHandler(authService service.AuthService) *AuthHandler {
	return &AuthHandler{authService: authService}
}

// RegisterRequest represents a user registration request.
type RegisterRequest struct {
	Username  string `json:"username" example:"john_doe"`
	Email     string `json:"email" example:"john@example.com"`
	Password  string `json:"password" example:"securepassword123"`
	FirstName string `json:"first_name" example:"John"`
	LastName  string `json:"last_name" example:"Doe"`
}

// LoginRequest represents a login request. Username may also be an email address.
type LoginRequest struct {
	Username string `json:"username" example:"john_doe"`
	Password string `json:"password" example:"securepassword123"`
}

// RefreshRequest carries a refresh token.
type RefreshRequest struct {
	Refresh string `json:"refresh"`
}

// Register godoc
// @Summary Register a new user
// @Tags users
// @Accept json
// @Produce json
// @Param request body RegisterRequest true "Registration data"
// @Success 201 {object} RegisterResponse
// @Failure 400 {object} map[string][]string
// @Failure 500 {object} errors.ErrorResponse
// @Router /users/register/ [post]
func (h *AuthHandler) Register(c echo.Context) error {
	var req RegisterRequest
	malformed, err := decodeBody(c, &req)
	if err != nil {
		return err
	}

	user, err := h.authService.Register(c.Request().Context(), validation.UserFields{
		Username:  req.Username,
		Email:     req.Email,
		Password:  req.Password,
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Malformed: malformed,
	})
	if err != nil {
		return apperrors.EchoError(err)
	}

	return c.JSON(http.StatusCreated, RegisterResponse{
		Message: "User created successfully",
		User:    newUserResponse(user),
	})
}

// Login godoc
// @Summary Obtain an access and refresh token pair
// @Tags auth
// @Accept json
// @Produce json
// @Param request body LoginRequest true "Login credentials"
// @Success 200 {object} service.TokenPair
// @Failure 400 {object} map[string][]string
// @Failure 401 {object} errors.ErrorResponse
// @Failure 500 {object} errors.ErrorResponse
// @Router /token/ [post]
func (h *AuthHandler) Login(c echo.Context) error {
	var req LoginRequest
	if err := bindJSON(c, &req); err != nil {
		return err
	}

	pair, err := h.authService.Login(c.Request().Context(), req.Username, req.Password)
	if err != nil {
		return apperrors.EchoError(err)
	}
	return c.JSON(http.StatusOK, pair)
}

// Refresh godoc
// @Summary Rotate a refresh token
// @Description The presented refresh token is blacklisted and a new pair is returned.
// @Tags auth
// @Accept json
// @Produce json
// @Param request body RefreshRequest true "Refresh token"
// @Success 200 {object} service.TokenPair
// @Failure 400 {object} map[string][]string
// @Failure 401 {object} errors.ErrorResponse
// @Failure 500 {object} errors.ErrorResponse
// @Router /token/refresh/ [post]
func (h *AuthHandler) Refresh(c echo.Context) error {
	var req RefreshRequest
	if err := bindJSON(c, &req); err != nil {
		return err
	}

	pair, err := h.authService.Refresh(c.Request().Context(), req.Refresh)
	if err != nil {
		return apperrors.EchoError(err)
	}
	return c.JSON(http.StatusOK, pair)
}

// Blacklist godoc
// @Summary Log out
// @Description Blacklists the refresh token and, when a bearer token is sent, that access token too.
// @Tags auth
// @Accept json
// @Produce json
// @Param request body RefreshRequest true "Refresh token"
// @Success 200 {object} map[string]string
// @Failure 400 {object} map[string][]string
// @Failure 401 {object} errors.ErrorResponse
// @Failure 500 {object} errors.ErrorResponse
// @Router /token/blacklist/ [post]
func (h *AuthHandler) Blacklist(c echo.Context) error {
	var req RefreshRequest
	if err := bindJSON(c, &req); err != nil {
		return err
	}

	if err := h.authService.Logout(c.Request().Context(), req.Refresh, middleware.ClaimsFrom(c)); err != nil {
		return apperrors.EchoError(err)
	}
	return c.JSON(http.StatusOK, map[string]string{})
}
