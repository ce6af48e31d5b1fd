package services

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// Cần Redis thật: REDIS_URL=redis://localhost:6379/15 go test ./app/services/
func newRedisCache(t *testing.T) *RedisCacheService {
	t.Helper()
	url := os.Getenv("REDIS_URL")
	if url == "" {
		t.Skip("REDIS_URL chưa được đặt")
	}
	prefix := "test:" + uuid.NewString() + ":"
	cache, err := NewRedisCacheService(url, prefix, zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() {
		cache.Clear(context.Background())
		cache.Close()
	})
	return cache
}

func TestRedisCacheService_RoundTrip(t *testing.T) {
	cache := newRedisCache(t)
	ctx := context.Background()

	require.NoError(t, cache.Set(ctx, "exact:pincode:673001", locValue("Kozhikode"), time.Minute))

	entry, found, err := cache.Get(ctx, "exact:pincode:673001")
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, "Kozhikode", entry.Value.Location.Name)

	ttl, err := cache.TTL(ctx, "exact:pincode:673001")
	require.NoError(t, err)
	assert.Greater(t, ttl, 50*time.Second)

	require.NoError(t, cache.Delete(ctx, "exact:pincode:673001"))
	_, found, err = cache.Get(ctx, "exact:pincode:673001")
	require.NoError(t, err)
	assert.False(t, found)
}

func TestRedisCacheService_ClearOnlyOwnPrefix(t *testing.T) {
	cache := newRedisCache(t)
	ctx := context.Background()

	for _, k := range []string{"a", "b", "c"} {
		require.NoError(t, cache.Set(ctx, k, locValue(k), time.Minute))
	}
	stats, err := cache.GetStats(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(3), stats.TotalItems)

	require.NoError(t, cache.Clear(ctx))
	stats, err = cache.GetStats(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(0), stats.TotalItems)
}
