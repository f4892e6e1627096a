package main

import (
	"context"
	"flag"
	"log/slog"
	"os"

	"catalog/internal/auth"
	"catalog/internal/cache"
	"catalog/internal/config"
	"catalog/internal/db"
	"catalog/internal/events"
	"catalog/internal/logging"
	"catalog/internal/repository"
	"catalog/internal/service"
)

func main() {
	categories := flag.Int("categories", 5, "Number of categories to create")
	products := flag.Int("products", 20, "Number of products to create per category")
	adminUser := flag.String("admin-user", "admin", "Username of the admin account created when no user exists (empty to skip)")
	adminEmail := flag.String("admin-email", "admin@example.com", "Email of the admin account")
	adminPassword := flag.String("admin-password", "admin123", "Password of the admin account")
	flag.Parse()

	cfg := config.Load()
	logger := logging.New(cfg.LogLevel)
	ctx := logging.IntoContext(context.Background(), logger)
	logger.Info("starting seed")

	// Connect to database
	gormDB, err := db.Open(ctx, cfg.DBDriver, cfg.DBDSN, logger)
	if err != nil {
		fatal(logger, "failed to connect to database", err)
	}
	if err := db.Migrate(gormDB); err != nil {
		fatal(logger, "failed to run migrations", err)
	}

	cacheClient := cache.New(cfg.RedisAddr, cfg.RedisPass, cfg.RedisDB)
	defer cacheClient.Close()

	publisher, err := events.FromConfig(ctx, cfg, logger)
	if err != nil {
		fatal(logger, "events init", err)
	}
	defer publisher.Close()

	categoryRepo := repository.NewCategoryRepository(gormDB)
	productRepo := repository.NewProductRepository(gormDB)
	s := &seeder{
		categoryRepo: categoryRepo,
		categories:   service.NewCategoryService(categoryRepo, productRepo, cacheClient, publisher),
		products:     service.NewProductService(productRepo, categoryRepo, cacheClient, publisher),
		users:        repository.NewUserRepository(gormDB),
		hasher:       auth.NewPasswordHasher(cfg.BcryptCost),
		rand:         newRand(),
	}

	report, err := s.seedCatalog(ctx, *categories, *products)
	if err != nil {
		fatal(logger, "failed to seed catalog", err)
	}
	if *adminUser != "" {
		created, err := s.seedAdmin(ctx, *adminUser, *adminEmail, *adminPassword)
		if err != nil {
			fatal(logger, "failed to create admin", err)
		}
		if created {
			logger.Info("created admin account", "username", *adminUser)
		}
	}

	logger.Info("seed completed",
		"categories", report.categories,
		"categories_created", report.categoriesCreated,
		"products_created", report.productsCreated,
	)
}

func fatal(logger *slog.Logger, msg string, err error) {
	logger.Error(msg, "error", err)
	os.Exit(1)
}
