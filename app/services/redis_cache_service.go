package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/locality-resolver/app/models"
)

const redisScanCount = 500

// RedisCacheService cache tạm dùng chung giữa nhiều instance, TTL do Redis quản lý
type RedisCacheService struct {
	client *redis.Client
	logger *zap.Logger
	prefix string

	hits   atomic.Int64
	misses atomic.Int64
}

// NewRedisCacheService tạo mới Redis cache service
func NewRedisCacheService(redisURL, prefix string, logger *zap.Logger) (*RedisCacheService, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("lỗi parse Redis URL: %w", err)
	}

	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("không thể kết nối Redis: %w", err)
	}

	return &RedisCacheService{client: client, logger: logger, prefix: prefix}, nil
}

// Get lấy entry từ Redis
func (rcs *RedisCacheService) Get(ctx context.Context, key string) (*models.CacheEntry, bool, error) {
	val, err := rcs.client.Get(ctx, rcs.prefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		rcs.misses.Add(1)
		return nil, false, nil
	}
	if err != nil {
		rcs.logger.Error("Lỗi get từ Redis", zap.Error(err), zap.String("key", key))
		return nil, false, err
	}

	var entry models.CacheEntry
	if err := json.Unmarshal(val, &entry); err != nil {
		rcs.logger.Error("Lỗi unmarshal cache data", zap.Error(err), zap.String("key", key))
		return nil, false, err
	}

	rcs.hits.Add(1)
	rcs.logger.Debug("Redis cache hit", zap.String("key", key))
	return &entry, true, nil
}

// Set lưu entry vào Redis với TTL
func (rcs *RedisCacheService) Set(ctx context.Context, key string, value models.CacheValue, ttl time.Duration) error {
	data, err := json.Marshal(models.CacheEntry{Key: key, Value: value, ExpiresAt: time.Now().Add(ttl)})
	if err != nil {
		return fmt.Errorf("lỗi marshal cache data: %w", err)
	}
	if err := rcs.client.Set(ctx, rcs.prefix+key, data, ttl).Err(); err != nil {
		rcs.logger.Error("Lỗi set vào Redis", zap.Error(err), zap.String("key", key))
		return err
	}
	return nil
}

// Delete xóa key khỏi cache
func (rcs *RedisCacheService) Delete(ctx context.Context, key string) error {
	if err := rcs.client.Del(ctx, rcs.prefix+key).Err(); err != nil {
		rcs.logger.Error("Lỗi delete từ Redis", zap.Error(err), zap.String("key", key))
		return err
	}
	return nil
}

// TTL lấy TTL của key
func (rcs *RedisCacheService) TTL(ctx context.Context, key string) (time.Duration, error) {
	ttl, err := rcs.client.TTL(ctx, rcs.prefix+key).Result()
	if err != nil {
		return 0, err
	}
	if ttl < 0 {
		return 0, nil
	}
	return ttl, nil
}

// scanKeys duyệt các key có prefix bằng SCAN
func (rcs *RedisCacheService) scanKeys(ctx context.Context, fn func(keys []string) error) error {
	var cursor uint64
	for {
		keys, next, err := rcs.client.Scan(ctx, cursor, rcs.prefix+"*", redisScanCount).Result()
		if err != nil {
			return fmt.Errorf("lỗi scan keys: %w", err)
		}
		if len(keys) > 0 {
			if err := fn(keys); err != nil {
				return err
			}
		}
		if next == 0 {
			return nil
		}
		cursor = next
	}
}

// Clear xóa toàn bộ key có prefix
func (rcs *RedisCacheService) Clear(ctx context.Context) error {
	deleted := 0
	err := rcs.scanKeys(ctx, func(keys []string) error {
		if err := rcs.client.Del(ctx, keys...).Err(); err != nil {
			return fmt.Errorf("lỗi xóa keys: %w", err)
		}
		deleted += len(keys)
		return nil
	})
	if err != nil {
		return err
	}
	rcs.logger.Info("Đã clear Redis cache", zap.Int("keys_deleted", deleted))
	return nil
}

// GetStats lấy thống kê cache
func (rcs *RedisCacheService) GetStats(ctx context.Context) (*CacheStats, error) {
	var items int64
	err := rcs.scanKeys(ctx, func(keys []string) error {
		items += int64(len(keys))
		return nil
	})
	if err != nil {
		rcs.logger.Warn("Không thể đếm Redis keys", zap.Error(err))
	}

	hits, misses := rcs.hits.Load(), rcs.misses.Load()
	return &CacheStats{
		Driver:     "redis",
		HitRate:    hitRate(hits, misses),
		TotalHits:  hits,
		TotalMiss:  misses,
		TotalItems: items,
	}, nil
}

// Close đóng kết nối Redis
func (rcs *RedisCacheService) Close() error {
	return rcs.client.Close()
}
