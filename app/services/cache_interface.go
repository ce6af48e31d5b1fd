package services

import (
	"context"
	"time"

	"github.com/locality-resolver/app/models"
)

// CacheStats thống kê cache
type CacheStats struct {
	Driver     string  `json:"driver"`
	HitRate    float64 `json:"hit_rate"`
	TotalHits  int64   `json:"total_hits"`
	TotalMiss  int64   `json:"total_miss"`
	TotalItems int64   `json:"total_items"`
	Evictions  int64   `json:"evictions"`
}

// IResultCache interface định nghĩa các method cần thiết cho cache kết quả
type IResultCache interface {
	// Get lấy entry chưa hết hạn
	Get(ctx context.Context, key string) (*models.CacheEntry, bool, error)

	// Set lưu giá trị với TTL
	Set(ctx context.Context, key string, value models.CacheValue, ttl time.Duration) error

	// Delete xóa một key
	Delete(ctx context.Context, key string) error

	// TTL thời gian sống còn lại của key, 0 nếu không có
	TTL(ctx context.Context, key string) (time.Duration, error)

	// Clear xóa tất cả cache
	Clear(ctx context.Context) error

	// GetStats lấy thống kê cache
	GetStats(ctx context.Context) (*CacheStats, error)

	// Close đóng kết nối (nếu cần)
	Close() error
}

func hitRate(hits, misses int64) float64 {
	if total := hits + misses; total > 0 {
		return float64(hits) / float64(total)
	}
	return 0
}
