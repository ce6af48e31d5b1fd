package services

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
	"go.uber.org/zap"

	"github.com/locality-resolver/app/models"
)

// Clock nguồn thời gian, thay được trong test
type Clock func() time.Time

// CacheService cache in-memory (tầng tạm). LRU giữ thứ tự truy cập,
// entry hết hạn bị xóa lười khi Get và khi quét trong Set.
type CacheService struct {
	entries   *lru.Cache[string, models.CacheEntry]
	clock     Clock
	watermark int // vượt ngưỡng này thì quét
	logger    *zap.Logger

	sweepMu   sync.Mutex
	hits      atomic.Int64
	misses    atomic.Int64
	evictions atomic.Int64
}

// NewCacheService tạo mới CacheService. capacity là giới hạn cứng của LRU,
// watermark là kích thước mục tiêu sau mỗi lần quét.
func NewCacheService(capacity, watermark int, clock Clock, logger *zap.Logger) (*CacheService, error) {
	if watermark <= 0 {
		watermark = 100
	}
	if capacity < watermark+1 {
		capacity = watermark + 1
	}
	if clock == nil {
		clock = time.Now
	}
	entries, err := lru.New[string, models.CacheEntry](capacity)
	if err != nil {
		return nil, fmt.Errorf("không thể tạo LRU cache: %w", err)
	}
	return &CacheService{
		entries:   entries,
		clock:     clock,
		watermark: watermark,
		logger:    logger,
	}, nil
}

// Get lấy entry từ cache
func (cs *CacheService) Get(ctx context.Context, key string) (*models.CacheEntry, bool, error) {
	entry, ok := cs.entries.Get(key)
	if !ok {
		cs.misses.Add(1)
		return nil, false, nil
	}
	if entry.IsExpired(cs.clock()) {
		cs.entries.Remove(key)
		cs.misses.Add(1)
		return nil, false, nil
	}
	cs.hits.Add(1)
	return &entry, true, nil
}

// Set lưu giá trị vào cache rồi quét nếu vượt watermark
func (cs *CacheService) Set(ctx context.Context, key string, value models.CacheValue, ttl time.Duration) error {
	cs.entries.Add(key, models.CacheEntry{
		Key:       key,
		Value:     value,
		ExpiresAt: cs.clock().Add(ttl),
	})
	if cs.entries.Len() > cs.watermark {
		cs.sweep()
	}
	return nil
}

// sweep xóa entry hết hạn trước, sau đó xóa entry cũ nhất tới khi về watermark
func (cs *CacheService) sweep() {
	cs.sweepMu.Lock()
	defer cs.sweepMu.Unlock()

	now := cs.clock()
	expired := 0
	for _, key := range cs.entries.Keys() {
		if entry, ok := cs.entries.Peek(key); ok && entry.IsExpired(now) {
			cs.entries.Remove(key)
			expired++
		}
	}

	evicted := 0
	for cs.entries.Len() > cs.watermark {
		if _, _, ok := cs.entries.RemoveOldest(); !ok {
			break
		}
		evicted++
	}
	cs.evictions.Add(int64(expired + evicted))

	cs.logger.Debug("Cache sweep",
		zap.Int("expired", expired),
		zap.Int("evicted", evicted),
		zap.Int("size", cs.entries.Len()))
}

// Delete xóa item khỏi cache
func (cs *CacheService) Delete(ctx context.Context, key string) error {
	cs.entries.Remove(key)
	return nil
}

// TTL lấy TTL còn lại của key
func (cs *CacheService) TTL(ctx context.Context, key string) (time.Duration, error) {
	entry, ok := cs.entries.Peek(key)
	if !ok {
		return 0, nil
	}
	remaining := entry.ExpiresAt.Sub(cs.clock())
	if remaining < 0 {
		return 0, nil
	}
	return remaining, nil
}

// Clear xóa toàn bộ cache
func (cs *CacheService) Clear(ctx context.Context) error {
	cs.entries.Purge()
	return nil
}

// Size lấy kích thước cache
func (cs *CacheService) Size() int {
	return cs.entries.Len()
}

// GetStats lấy thống kê cache
func (cs *CacheService) GetStats(ctx context.Context) (*CacheStats, error) {
	hits, misses := cs.hits.Load(), cs.misses.Load()
	return &CacheStats{
		Driver:     "memory",
		HitRate:    hitRate(hits, misses),
		TotalHits:  hits,
		TotalMiss:  misses,
		TotalItems: int64(cs.entries.Len()),
		Evictions:  cs.evictions.Load(),
	}, nil
}

// Close đóng kết nối (không cần thiết cho in-memory cache)
func (cs *CacheService) Close() error {
	return nil
}
