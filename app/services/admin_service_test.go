package services

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/locality-resolver/app/models"
	"github.com/locality-resolver/internal/store"
)

type adminFixture struct {
	sqlite    *store.SQLiteStore
	providers providerSet
	cache     *CacheService
	locations *LocationService
	admin     *AdminService
}

func newAdminFixture(t *testing.T) *adminFixture {
	t.Helper()
	f := &adminFixture{sqlite: newSQLite(t), providers: newProviders(), cache: newMemoryCache(t, newFakeClock())}
	opts := testOptions()
	chain := f.providers.chain()
	f.locations = NewLocationService(f.sqlite.Locations(), chain, f.cache, nil, opts, zap.NewNop())
	colleges := NewCollegeService(f.sqlite.Colleges(), f.cache, nil, opts, zap.NewNop())
	f.admin = NewAdminService(f.sqlite, f.locations, colleges, chain, f.cache, nil, opts.Policy, zap.NewNop())
	return f
}

func seedFile() models.SeedFile {
	return models.SeedFile{
		Locations: []models.SeedLocation{
			{Code: "680001", Name: "Thrissur", District: "Thrissur", State: "Kerala", Latitude: fptr(10.5276), Longitude: fptr(76.2144)},
			{Code: "673001", Name: "Kozhikode", District: "Kozhikode", State: "Kerala"},
			{Code: "686001", Name: "Kottayam", District: "Kottayam", State: "Kerala"},
			{Code: "12345", Name: "Broken"},
			{Code: "560001", Name: "  "},
		},
		Colleges: []models.SeedCollege{
			{Name: "Govt College Kottayam", Code: "686001", District: "Kottayam", State: "Kerala"},
			{Name: "Farook College", Category: "autonomous", Code: "673632"},
		},
	}
}

func TestAdminSeed_Idempotent(t *testing.T) {
	f := newAdminFixture(t)
	ctx := context.Background()

	first, err := f.admin.Seed(ctx, seedFile())
	require.NoError(t, err)
	assert.Equal(t, 3, first.LocationsInserted)
	assert.Equal(t, 2, first.CollegesInserted)
	assert.Equal(t, 2, first.Invalid)

	second, err := f.admin.Seed(ctx, seedFile())
	require.NoError(t, err)
	assert.Zero(t, second.LocationsInserted)
	assert.Equal(t, 3, second.LocationsSkipped)
	assert.Zero(t, second.CollegesInserted)
	assert.Equal(t, 2, second.CollegesSkipped)

	rows, err := f.sqlite.Colleges().List(ctx, 0)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "autonomous", rows[0].Category)
	assert.Equal(t, "college", rows[1].Category)

	thrissur, err := f.sqlite.Locations().FindByCode(ctx, "680001")
	require.NoError(t, err)
	assert.Equal(t, "seed", thrissur.Source)
	assert.NotEmpty(t, thrissur.Geohash)
}

func TestAdminBackfillMissing(t *testing.T) {
	f := newAdminFixture(t)
	ctx := context.Background()
	_, err := f.admin.Seed(ctx, seedFile())
	require.NoError(t, err)

	// kết quả cũ chưa có toạ độ nằm trong cache
	stale, err := f.locations.ResolveByCode(ctx, "673001")
	require.NoError(t, err)
	require.False(t, stale.Record.HasCoordinates())
	f.providers.b.resolve = func(code string) *models.NormalizedCandidate {
		if code != "673001" {
			return nil
		}
		return &models.NormalizedCandidate{Code: code, Name: "Calicut", Latitude: fptr(11.2588), Longitude: fptr(75.7804)}
	}

	var total int
	var progress atomic.Int32
	res, err := f.admin.BackfillMissing(ctx, BackfillOptions{
		Concurrency: 2,
		Interval:    time.Millisecond,
		OnStart:     func(n int) { total = n },
		OnProgress:  func() { progress.Add(1) },
	})
	require.NoError(t, err)
	assert.Equal(t, 2, res.Scanned)
	assert.Equal(t, 2, total)
	assert.Equal(t, int32(2), progress.Load())
	assert.Equal(t, int64(1), res.Updated)
	assert.Equal(t, int64(1), res.Missed)
	assert.Zero(t, res.Failed)

	rec, err := f.sqlite.Locations().FindByCode(ctx, "673001")
	require.NoError(t, err)
	require.True(t, rec.HasCoordinates())
	assert.Equal(t, "Kozhikode", rec.Name, "backfill chỉ cập nhật toạ độ")

	fresh, err := f.locations.ResolveByCode(ctx, "673001")
	require.NoError(t, err)
	assert.False(t, fresh.CacheHit, "cache cũ phải bị xóa sau backfill")
	assert.True(t, fresh.Record.HasCoordinates())
}

func TestAdminInvalidateCache(t *testing.T) {
	f := newAdminFixture(t)
	ctx := context.Background()
	_, err := f.admin.Seed(ctx, seedFile())
	require.NoError(t, err)

	_, err = f.locations.SearchByName(ctx, "Thrissur")
	require.NoError(t, err)
	require.Equal(t, 2, f.cache.Size())

	res, err := f.admin.InvalidateCache(ctx, InvalidateOptions{Scope: models.ScopeLocation, Query: " THRISSUR"})
	require.NoError(t, err)
	assert.Contains(t, res.Deleted, "norm:location:thrissur")
	assert.Equal(t, 1, f.cache.Size(), "khóa exact của truy vấn khác vẫn còn")

	res, err = f.admin.InvalidateCache(ctx, InvalidateOptions{All: true})
	require.NoError(t, err)
	assert.True(t, res.Cleared)
	assert.Equal(t, 0, f.cache.Size())

	_, err = f.admin.InvalidateCache(ctx, InvalidateOptions{})
	assert.Equal(t, KindInvalidInput, KindOf(err))
	_, err = f.admin.InvalidateCache(ctx, InvalidateOptions{Scope: "planet", Query: "x"})
	assert.Equal(t, KindInvalidInput, KindOf(err))
}

func TestAdminExplainFuzzy(t *testing.T) {
	f := newAdminFixture(t)
	seedDistricts(t, f.sqlite.Locations())

	out, err := f.admin.ExplainFuzzy(context.Background(), "", "Trichur")
	require.NoError(t, err)
	assert.Equal(t, models.ScopeLocation, out.Scope)
	assert.Equal(t, "trichur", out.Normalized)
	require.NotEmpty(t, out.Candidates)
	assert.Equal(t, "Thrissur", out.Candidates[0].Name)
	assert.True(t, out.Candidates[0].Accepted)
	assert.Zero(t, f.cache.Size(), "explain không ghi cache")

	_, err = f.admin.ExplainFuzzy(context.Background(), "galaxy", "Trichur")
	assert.Equal(t, KindInvalidInput, KindOf(err))
}

func TestAdminReindexDisabled(t *testing.T) {
	f := newAdminFixture(t)

	_, err := f.admin.Reindex(context.Background())
	require.Error(t, err)
	assert.Equal(t, KindBackingStoreUnavailable, KindOf(err))
}

func TestAdminSystemStats(t *testing.T) {
	f := newAdminFixture(t)

	stats, err := f.admin.GetSystemStats(context.Background())
	require.NoError(t, err)
	assert.True(t, stats.Store.Available)
	assert.Equal(t, []string{"postal_index", "zippopotam", "nominatim"}, stats.Providers)
	assert.False(t, stats.Search)
	assert.Equal(t, "memory", stats.Cache.Driver)
	assert.Contains(t, stats.MemoryUsage, "alloc_mb")
}

func TestAdminWithoutStore(t *testing.T) {
	cache := newMemoryCache(t, newFakeClock())
	admin := NewAdminService(nil, nil, nil, nil, cache, nil, testOptions().Policy, zap.NewNop())
	ctx := context.Background()

	stats, err := admin.GetSystemStats(ctx)
	require.NoError(t, err)
	assert.False(t, stats.Store.Available)
	assert.NotEmpty(t, stats.Store.Error)

	_, err = admin.Seed(ctx, seedFile())
	assert.Equal(t, KindBackingStoreUnavailable, KindOf(err))
	_, err = admin.BackfillMissing(ctx, BackfillOptions{})
	assert.Equal(t, KindBackingStoreUnavailable, KindOf(err))
}
