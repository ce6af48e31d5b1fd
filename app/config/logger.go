package config

import (
	"fmt"

	"go.uber.org/zap"
)

// NewLogger khởi tạo structured logger. Production dùng JSON, còn lại dùng console.
// Cả hai đều ghi ra stderr nên an toàn với MCP stdio.
func NewLogger(env string) (*zap.Logger, error) {
	var cfg zap.Config
	if env == "production" {
		cfg = zap.NewProductionConfig()
	} else {
		cfg = zap.NewDevelopmentConfig()
	}
	logger, err := cfg.Build()
	if err != nil {
		return nil, fmt.Errorf("không thể khởi tạo logger: %w", err)
	}
	return logger, nil
}
