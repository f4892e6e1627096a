package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
)

// Pinger is a dependency whose liveness /healthz reports.
type Pinger interface {
	Ping(ctx context.Context) error
}

// InfoHandler serves the API index and the health check.
type InfoHandler struct {
	database Pinger
	cache    Pinger
}

// NewInfoHandler creates a new info handler. Either pinger may be nil.
func NewInfoHandler(database, cache Pinger) *InfoHandler {
	return &InfoHandler{database: database, cache: cache}
}

// InfoResponse describes the API entry points.
type InfoResponse struct {
	Message   string            `json:"message" example:"Welcome to E-Commerce API"`
	Version   string            `json:"version" example:"v1"`
	Endpoints map[string]string `json:"endpoints"`
}

// HealthResponse reports the state of the service and its dependencies.
type HealthResponse struct {
	Status   string `json:"status" example:"ok"`
	Database string `json:"database" example:"ok"`
	Cache    string `json:"cache" example:"ok"`
}

// Info lists the API entry points.
func (h *InfoHandler) Info(c echo.Context) error {
	return c.JSON(http.StatusOK, InfoResponse{
		Message: "Welcome to E-Commerce API",
		Version: "v1",
		Endpoints: map[string]string{
			"api_docs":        "/swagger/index.html",
			"categories":      "/api/products/categories/",
			"products":        "/api/products/products/",
			"register":        "/api/users/register/",
			"profile":         "/api/users/profile/",
			"token":           "/api/token/",
			"token_refresh":   "/api/token/refresh/",
			"token_blacklist": "/api/token/blacklist/",
		},
	})
}

// Health reports 503 when the database does not answer. A cache outage only
// degrades the service.
func (h *InfoHandler) Health(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 2*time.Second)
	defer cancel()

	resp := HealthResponse{Status: "ok", Database: pingStatus(ctx, h.database), Cache: pingStatus(ctx, h.cache)}
	status := http.StatusOK
	switch {
	case resp.Database != "ok" && resp.Database != "disabled":
		resp.Status = "unavailable"
		status = http.StatusServiceUnavailable
	case resp.Cache != "ok" && resp.Cache != "disabled":
		resp.Status = "degraded"
	}
	return c.JSON(status, resp)
}

func pingStatus(ctx context.Context, p Pinger) string {
	if p == nil {
		return "disabled"
	}
	if err := p.Ping(ctx); err != nil {
		return "error"
	}
	return "ok"
}
