package router

import (
	"log/slog"
	"strings"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	echoSwagger "github.com/swaggo/echo-swagger"

	"catalog/internal/handler"
	"catalog/internal/middleware"
)

// Handlers groups everything Register mounts.
type Handlers struct {
	Info     *handler.InfoHandler
	Auth     *handler.AuthHandler
	User     *handler.UserHandler
	Category *handler.CategoryHandler
	Product  *handler.ProductHandler
}

// Register wires routes and middleware.
func Register(e *echo.Echo, logger *slog.Logger, authenticator middleware.Authenticator, h Handlers) {
	e.HTTPErrorHandler = middleware.ErrorHandler

	// API paths are canonical with a trailing slash.
	e.Pre(echomw.AddTrailingSlashWithConfig(echomw.TrailingSlashConfig{
		Skipper: func(c echo.Context) bool {
			return !strings.HasPrefix(c.Request().URL.Path, "/api/")
		},
	}))
	e.Use(echomw.RequestID())
	e.Use(middleware.RequestLogger(logger))
	e.Use(echomw.Recover())

	e.GET("/", h.Info.Info)
	e.GET("/healthz", h.Info.Health)
	e.GET("/swagger/*", echoSwagger.WrapHandler)

	api := e.Group("/api")

	// Token endpoints
	api.POST("/token/", h.Auth.Login)
	api.POST("/token/refresh/", h.Auth.Refresh)
	api.POST("/token/blacklist/", h.Auth.Blacklist, middleware.OptionalAuth(authenticator))

	// User routes
	api.POST("/users/register/", h.Auth.Register)
	api.GET("/users/profile/", h.User.Profile, middleware.RequireAuth(authenticator, nil))

	// Catalog routes: reads are public, writes require a token
	catalog := api.Group("/products", middleware.RequireAuth(authenticator, middleware.SafeMethods))

	catalog.GET("/categories/", h.Category.List)
	catalog.POST("/categories/", h.Category.Create)
	catalog.GET("/categories/:id/", h.Category.Get)
	catalog.PUT("/categories/:id/", h.Category.Update)
	catalog.PATCH("/categories/:id/", h.Category.Patch)
	catalog.DELETE("/categories/:id/", h.Category.Delete)

	catalog.GET("/products/", h.Product.List)
	catalog.POST("/products/", h.Product.Create)
	catalog.GET("/products/:id/", h.Product.Get)
	catalog.PUT("/products/:id/", h.Product.Update)
	catalog.PATCH("/products/:id/", h.Product.Patch)
	catalog.DELETE("/products/:id/", h.Product.Delete)
}
