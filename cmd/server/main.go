package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"

	"catalog/docs"
	"catalog/internal/auth"
	"catalog/internal/cache"
	"catalog/internal/config"
	"catalog/internal/db"
	"catalog/internal/events"
	"catalog/internal/handler"
	"catalog/internal/logging"
	"catalog/internal/repository"
	"catalog/internal/router"
	"catalog/internal/service"
)

// @title E-Commerce API
// @version v1
// @description RESTful API for an e-commerce product catalog.
// @license.name MIT License
// @host localhost:8080
// @BasePath /api
// @schemes http
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and JWT token.
func main() {
	cfg := config.Load()
	logger := logging.New(cfg.LogLevel)
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	gormDB, err := db.Open(ctx, cfg.DBDriver, cfg.DBDSN, logger)
	if err != nil {
		fatal(logger, "database init", err)
	}

	// Drop tables if RESET_DB is set
	if cfg.ResetDB {
		logger.Warn("RESET_DB set, dropping all tables")
		if err := db.Reset(gormDB); err != nil {
			logger.Warn("drop tables", "error", err)
		}
	}
	if err := db.Migrate(gormDB); err != nil {
		fatal(logger, "migrate", err)
	}

	cacheClient := cache.New(cfg.RedisAddr, cfg.RedisPass, cfg.RedisDB)
	defer cacheClient.Close()
	if err := cacheClient.Ping(ctx); err != nil {
		logger.Warn("redis unavailable, continuing without cache", "addr", cfg.RedisAddr, "error", err)
	}

	publisher, err := events.FromConfig(ctx, cfg, logger)
	if err != nil {
		fatal(logger, "events init", err)
	}
	defer publisher.Close()

	// Initialize repositories
	categoryRepo := repository.NewCategoryRepository(gormDB)
	productRepo := repository.NewProductRepository(gormDB)
	userRepo := repository.NewUserRepository(gormDB)
	tokenRepo := repository.NewTokenRepository(gormDB)

	// Initialize auth components
	jwtService := auth.NewJWTService(cfg.JWTSecret, cfg.AccessTokenTTL, cfg.RefreshTokenTTL)
	tokenStore := auth.NewTokenStore(tokenRepo, cacheClient)
	hasher := auth.NewPasswordHasher(cfg.BcryptCost)
	if purged, err := tokenStore.PurgeExpired(ctx); err != nil {
		logger.Warn("purge expired tokens", "error", err)
	} else if purged > 0 {
		logger.Info("purged expired tokens", "count", purged)
	}

	// Initialize services
	userService := service.NewUserService(userRepo, cacheClient)
	authService := service.NewAuthService(userRepo, userService, jwtService, tokenStore, hasher)
	categoryService := service.NewCategoryService(categoryRepo, productRepo, cacheClient, publisher)
	productService := service.NewProductService(productRepo, categoryRepo, cacheClient, publisher)

	// Initialize handlers
	pages := handler.Pagination{DefaultSize: cfg.PageSize, MaxSize: cfg.MaxPageSize}
	handlers := router.Handlers{
		Info:     handler.NewInfoHandler(db.Pinger{DB: gormDB}, cacheClient),
		Auth:     handler.NewAuthHandler(authService),
		User:     handler.NewUserHandler(authService),
		Category: handler.NewCategoryHandler(categoryService, pages),
		Product:  handler.NewProductHandler(productService, pages),
	}

	e := echo.New()
	e.HideBanner = true
	router.Register(e, logger, authService, handlers)

	if cfg.SwaggerHost != "" {
		docs.SwaggerInfo.Host = strings.TrimPrefix(strings.TrimPrefix(cfg.SwaggerHost, "http://"), "https://")
	}
	logger.Info("swagger documentation available", "url", swaggerURL(cfg))

	srv := &http.Server{
		Addr:              ":" + cfg.ServerPort,
		Handler:           e,
		ReadTimeout:       15 * time.Second,
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		logger.Info("server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			fatal(logger, "server start", err)
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown", "error", err)
	}
}

func swaggerURL(cfg *config.Config) string {
	host := cfg.SwaggerHost
	if host == "" {
		host = "localhost:" + cfg.ServerPort
	}
	if !strings.HasPrefix(host, "http://") && !strings.HasPrefix(host, "https://") {
		host = "http://" + host
	}
	return host + "/swagger/index.html"
}

func fatal(logger *slog.Logger, msg string, err error) {
	logger.Error(msg, "error", err)
	os.Exit(1)
}
