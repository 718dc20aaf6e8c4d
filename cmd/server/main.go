package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/avoronova/foodgram-backend/config"
	"github.com/avoronova/foodgram-backend/internal/app/controller"
	"github.com/avoronova/foodgram-backend/internal/app/repository"
	"github.com/avoronova/foodgram-backend/internal/app/service"
	"github.com/avoronova/foodgram-backend/internal/db"
	"github.com/avoronova/foodgram-backend/internal/middleware"
	"github.com/avoronova/foodgram-backend/internal/router"
	"github.com/avoronova/foodgram-backend/internal/scheduler"
	"github.com/avoronova/foodgram-backend/internal/storage"
	"github.com/avoronova/foodgram-backend/pkg/logger"
	"github.com/avoronova/foodgram-backend/pkg/redis"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("Failed to load configuration", err)
	}

	logLevel := "info"
	if cfg.Server.Environment == "development" {
		logLevel = "debug"
	}
	logger.Initialize(logger.Config{
		Level:       logLevel,
		Format:      "console", // Use "json" for production
		EnableColor: true,
	})

	logger.Info("Starting Foodgram Backend Server", map[string]interface{}{
		"environment": cfg.Server.Environment,
		"port":        cfg.Server.Port,
		"log_level":   logLevel,
	})

	if err := db.Initialize(&cfg.Database); err != nil {
		logger.Fatal("Failed to initialize database", err)
	}
	defer func() {
		if err := db.Close(); err != nil {
			logger.Error("Failed to close database connection", err)
		}
	}()

	if err := db.Migrate(); err != nil {
		logger.Fatal("Failed to run migrations", err)
	}

	if err := db.Seed(); err != nil {
		logger.Warn("Failed to seed database", map[string]interface{}{
			"error": err.Error(),
		})
	}

	// Redis is used for the logout token blacklist; the server still works
	// without it, tokens just stay valid until they expire.
	if err := redis.Init(&cfg.Redis); err != nil {
		logger.Warn("Failed to connect to Redis, token revocation disabled", map[string]interface{}{
			"error": err.Error(),
		})
	} else {
		defer func() {
			if err := redis.Close(); err != nil {
				logger.Error("Failed to close Redis connection", err)
			}
		}()
	}

	// Repositories
	userRepo := repository.NewUserRepository(db.GetDB())
	ingredientRepo := repository.NewIngredientRepository(db.GetDB())
	tagRepo := repository.NewTagRepository(db.GetDB())
	recipeRepo := repository.NewRecipeRepository(db.GetDB())
	favoriteRepo := repository.NewFavoriteRepository(db.GetDB())
	cartRepo := repository.NewCartRepository(db.GetDB())
	subscriptionRepo := repository.NewSubscriptionRepository(db.GetDB())

	// Image storage
	imageStore := storage.NewS3Storage(
		cfg.S3.Region,
		cfg.S3.Bucket,
		cfg.S3.AccessKeyID,
		cfg.S3.SecretAccessKey,
		cfg.S3.BaseURL,
	)

	// Services
	authService := service.NewAuthService(
		userRepo,
		cfg.JWT.Secret,
		cfg.JWT.AccessTokenExpiry,
		cfg.JWT.RefreshTokenExpiry,
	)
	ingredientService := service.NewIngredientService(ingredientRepo)
	tagService := service.NewTagService(tagRepo)
	recipeService := service.NewRecipeService(recipeRepo, ingredientRepo, tagRepo, imageStore)
	favoriteService := service.NewFavoriteService(favoriteRepo, recipeRepo)
	cartService := service.NewCartService(cartRepo, recipeRepo)
	subscriptionService := service.NewSubscriptionService(subscriptionRepo, userRepo, recipeRepo)
	cleanupService := service.NewCleanupService(recipeRepo)

	// Controllers
	authController := controller.NewAuthController(authService)
	userController := controller.NewUserController(authService, subscriptionService, favoriteService, cartService, &cfg.Pagination)
	tagController := controller.NewTagController(tagService)
	ingredientController := controller.NewIngredientController(ingredientService)
	recipeController := controller.NewRecipeController(recipeService, favoriteService, cartService, subscriptionService, &cfg.Pagination)

	authMiddleware := middleware.NewAuthMiddleware(cfg.JWT.Secret)

	cleanupScheduler := scheduler.NewCleanupScheduler(cleanupService, cfg.Retention.DeletedRecipeTTL)
	if err := cleanupScheduler.Start(); err != nil {
		logger.Error("Failed to start cleanup scheduler", err)
	}
	defer cleanupScheduler.Stop()

	r := router.NewRouter(
		authController,
		userController,
		tagController,
		ingredientController,
		recipeController,
		authMiddleware,
		cfg,
	)
	engine := r.Setup()

	go func() {
		addr := fmt.Sprintf(":%s", cfg.Server.Port)
		logger.Info("Server started successfully", map[string]interface{}{
			"address": addr,
			"pid":     os.Getpid(),
		})
		if err := engine.Run(addr); err != nil {
			logger.Fatal("Failed to start server", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server gracefully...")
	logger.Info("Server stopped successfully")
}
