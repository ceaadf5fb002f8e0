package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"studytrack/internal/config"
	"studytrack/internal/content"
	"studytrack/internal/database"
	"studytrack/internal/handlers"
	"studytrack/internal/identity"
	"studytrack/internal/logger"
	"studytrack/internal/repository"
	"studytrack/internal/service"
)

func main() {
	// Load configuration
	cfg := config.Load()

	zlog, err := logger.New(cfg.Env)
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer zlog.Sync()

	if cfg.JWTSecret == "" {
		zlog.Fatal("JWT_SECRET must be set")
	}

	// Initialize database with config (supports sqlite, postgres, mysql)
	db, err := database.InitializeWithConfig(cfg)
	if err != nil {
		zlog.Fatal("Failed to initialize database", zap.Error(err))
	}
	defer db.Close()

	zlog.Info("Database connection established", zap.String("type", cfg.DatabaseType))

	// Run migrations
	if err := db.RunMigrations(context.Background(), cfg.MigrationsPath); err != nil {
		zlog.Fatal("Failed to run migrations", zap.Error(err))
	}

	zlog.Info("Migrations completed")

	// Initialize repositories
	activityRepo := repository.NewActivityRepository(db)
	progressRepo := repository.NewProgressRepository(db)
	milestoneRepo := repository.NewMilestoneRepository(db)

	// Initialize services
	usageService := service.NewUsageService(activityRepo, cfg.FreeTierLimit, cfg.StoreTimeout, zlog)
	milestoneService := service.NewMilestoneService(milestoneRepo, cfg.StoreTimeout, zlog)
	progressService := service.NewProgressService(progressRepo, activityRepo, milestoneService, cfg.StoreTimeout, zlog)

	generator := content.NewInferenceClient(cfg.InferenceAPIURL, cfg.InferenceAPIKey)
	contentService := service.NewContentService(usageService, generator, zlog)

	resolver := identity.NewJWTResolver(cfg.JWTSecret)

	// Initialize handlers
	apiHandler := handlers.NewAPIHandler(resolver, contentService, progressService, milestoneService, zlog)

	// Setup routes
	mux := http.NewServeMux()
	apiHandler.Routes(mux)

	// Wrap with logging middleware
	handler := handlers.Logging(zlog, mux)

	// Start server
	addr := ":" + cfg.ServerPort
	server := &http.Server{
		Addr:         addr,
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		zlog.Info("Server starting", zap.String("addr", addr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			zlog.Fatal("Server failed", zap.Error(err))
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	zlog.Info("Server shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		zlog.Error("Shutdown failed", zap.Error(err))
	}
}
