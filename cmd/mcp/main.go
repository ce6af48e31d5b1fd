package main

import (
	"context"
	"os"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/locality-resolver/app/config"
	"github.com/locality-resolver/app/services"
	"github.com/locality-resolver/internal/mcp"
	"github.com/locality-resolver/routes"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load(os.Getenv("CONFIG_PATH"))
	if err != nil {
		panic(err)
	}
	// stdout dành cho giao thức MCP, NewLogger chỉ ghi ra stderr
	logger, err := config.NewLogger(cfg.App.Env)
	if err != nil {
		panic(err)
	}
	defer logger.Sync()

	ctx := context.Background()
	container, err := services.Bootstrap(ctx, cfg, logger)
	if err != nil {
		logger.Fatal("Không khởi tạo được service", zap.Error(err))
	}
	defer container.Close(ctx)

	logger.Info("MCP server sẵn sàng trên stdio", zap.String("version", routes.Version))
	if err := mcp.NewServer(container.Locations, container.Colleges, routes.Version, logger).Serve(); err != nil {
		logger.Error("MCP server dừng với lỗi", zap.Error(err))
	}
}
