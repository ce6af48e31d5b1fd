package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/locality-resolver/app/models"
)

// HybridCacheService cache kết hợp memory (L1) + Redis (L2)
type HybridCacheService struct {
	l1     *CacheService // L1 cache - trong process
	l2     IResultCache  // L2 cache - dùng chung
	clock  Clock
	logger *zap.Logger
}

// NewHybridCacheService tạo mới hybrid cache service
func NewHybridCacheService(l1 *CacheService, l2 IResultCache, logger *zap.Logger) *HybridCacheService {
	return &HybridCacheService{l1: l1, l2: l2, clock: l1.clock, logger: logger}
}

// Get lấy entry (L1 trước, L2 sau). Hit ở L2 được đẩy lên L1 với TTL còn lại.
func (hcs *HybridCacheService) Get(ctx context.Context, key string) (*models.CacheEntry, bool, error) {
	if entry, found, _ := hcs.l1.Get(ctx, key); found {
		hcs.logger.Debug("L1 cache hit", zap.String("key", key))
		return entry, true, nil
	}

	entry, found, err := hcs.l2.Get(ctx, key)
	if err != nil {
		return nil, false, err
	}
	if !found {
		return nil, false, nil
	}

	if remaining := entry.ExpiresAt.Sub(hcs.clock()); remaining > 0 {
		if err := hcs.l1.Set(ctx, key, entry.Value, remaining); err != nil {
			hcs.logger.Warn("Lỗi promote L2->L1", zap.Error(err), zap.String("key", key))
		}
	}
	hcs.logger.Debug("L2 cache hit", zap.String("key", key))
	return entry, true, nil
}

// Set lưu vào cả hai tầng
func (hcs *HybridCacheService) Set(ctx context.Context, key string, value models.CacheValue, ttl time.Duration) error {
	if err := hcs.l1.Set(ctx, key, value, ttl); err != nil {
		return err
	}
	if err := hcs.l2.Set(ctx, key, value, ttl); err != nil {
		return fmt.Errorf("lỗi lưu L2: %w", err)
	}
	return nil
}

// Delete xóa key khỏi cả hai tầng
func (hcs *HybridCacheService) Delete(ctx context.Context, key string) error {
	return errors.Join(hcs.l1.Delete(ctx, key), hcs.l2.Delete(ctx, key))
}

// TTL lấy TTL từ L2 (nguồn chuẩn)
func (hcs *HybridCacheService) TTL(ctx context.Context, key string) (time.Duration, error) {
	return hcs.l2.TTL(ctx, key)
}

// Clear xóa toàn bộ cache ở cả hai tầng
func (hcs *HybridCacheService) Clear(ctx context.Context) error {
	if err := errors.Join(hcs.l1.Clear(ctx), hcs.l2.Clear(ctx)); err != nil {
		return fmt.Errorf("clear errors: %w", err)
	}
	hcs.logger.Info("Cleared hybrid cache")
	return nil
}

// GetStats cộng thống kê hai tầng. Items lấy theo L2.
func (hcs *HybridCacheService) GetStats(ctx context.Context) (*CacheStats, error) {
	l1, _ := hcs.l1.GetStats(ctx)
	l2, err := hcs.l2.GetStats(ctx)
	if err != nil {
		return nil, err
	}
	hits := l1.TotalHits + l2.TotalHits
	// miss ở L1 mà hit ở L2 không tính là miss
	misses := l2.TotalMiss
	return &CacheStats{
		Driver:     "hybrid",
		HitRate:    hitRate(hits, misses),
		TotalHits:  hits,
		TotalMiss:  misses,
		TotalItems: l2.TotalItems,
		Evictions:  l1.Evictions,
	}, nil
}

// Close đóng cả hai tầng
func (hcs *HybridCacheService) Close() error {
	return errors.Join(hcs.l1.Close(), hcs.l2.Close())
}
