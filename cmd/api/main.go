package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/locality-resolver/app/config"
	"github.com/locality-resolver/app/controllers"
	"github.com/locality-resolver/app/services"
	"github.com/locality-resolver/routes"
)

func main() {
	// .env là tùy chọn
	_ = godotenv.Load()

	cfg, err := config.Load(getEnv("CONFIG_PATH", ""))
	if err != nil {
		log.Fatal("Cannot load config: ", err)
	}

	logger, err := config.NewLogger(cfg.App.Env)
	if err != nil {
		log.Fatal(err)
	}
	defer logger.Sync()

	logger.Info("Starting Locality Resolver Service...", zap.String("env", cfg.App.Env))

	ctx := context.Background()
	container, err := services.Bootstrap(ctx, cfg, logger)
	if err != nil {
		logger.Fatal("Failed to initialize services", zap.Error(err))
	}
	defer func() {
		if err := container.Close(context.Background()); err != nil {
			logger.Error("Error closing services", zap.Error(err))
		}
	}()

	locationController := controllers.NewLocationController(container.Locations, logger)
	collegeController := controllers.NewCollegeController(container.Colleges, logger)
	adminController := controllers.NewAdminController(container.Admin, routes.Version, logger)

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	routes.SetupAllRoutes(router, logger, locationController, collegeController, adminController)

	srv := &http.Server{
		Addr:              ":" + cfg.App.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info("Starting HTTP server", zap.String("port", cfg.App.Port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	// Wait for interrupt signal to gracefully shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...")

	// Request đang chạy có tối đa một chu kỳ retry store để hoàn tất
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Resolver.ReadTimeout+cfg.Resolver.RetryTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Server forced to shutdown", zap.Error(err))
	}
	logger.Info("Server exited")
}

// getEnv lấy environment variable với default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
