package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/locality-resolver/app/models"
	"github.com/locality-resolver/internal/store"
)

var colleges = []models.EntityRecord{
	{Name: "Govt College Kottayam", Category: "college", Code: "686001", District: "Kottayam", State: "Kerala"},
	{Name: "St Thomas College Thrissur", Category: "college", Code: "680001", District: "Thrissur", State: "Kerala"},
	{Name: "Farook College", Category: "college", Code: "673632", District: "Kozhikode", State: "Kerala"},
	{Name: "Maharajas College", Category: "college", Code: "682011", District: "Ernakulam", State: "Kerala"},
}

func newCollegeFixture(t *testing.T) (*CollegeService, store.EntityStore, *CacheService) {
	t.Helper()
	sqlite := newSQLite(t)
	for i := range colleges {
		rec := colleges[i]
		require.NoError(t, sqlite.Colleges().Insert(context.Background(), &rec))
	}
	cache := newMemoryCache(t, newFakeClock())
	return NewCollegeService(sqlite.Colleges(), cache, nil, testOptions(), zap.NewNop()), sqlite.Colleges(), cache
}

func TestCollegeSearch_SubstringMatch(t *testing.T) {
	svc, _, cache := newCollegeFixture(t)
	ctx := context.Background()

	res, err := svc.SearchByName(ctx, "kottayam")
	require.NoError(t, err)
	assert.Equal(t, "Govt College Kottayam", res.Record.Name)
	assert.Equal(t, models.StrategyExact, res.Strategy)

	_, found, _ := cache.Get(ctx, models.CacheKey(models.NamespaceNorm, models.ScopeCollege, "kottayam"))
	assert.True(t, found)
	// khóa college không đụng tới không gian khóa location
	_, found, _ = cache.Get(ctx, models.CacheKey(models.NamespaceNorm, models.ScopeLocation, "kottayam"))
	assert.False(t, found)
}

func TestCollegeSearch_Fuzzy(t *testing.T) {
	svc, _, _ := newCollegeFixture(t)

	res, err := svc.SearchByName(context.Background(), "Farok Colege")
	require.NoError(t, err)
	assert.Equal(t, "Farook College", res.Record.Name)
}

func TestCollegeSearch_DuplicateNamesReturnFirst(t *testing.T) {
	svc, colleges, _ := newCollegeFixture(t)
	dup := models.EntityRecord{Name: "Farook College", Code: "673633", Category: "college"}
	require.NoError(t, colleges.Insert(context.Background(), &dup))

	res, err := svc.SearchByName(context.Background(), "Farook College")
	require.NoError(t, err)
	assert.Equal(t, "Farook College", res.Record.Name)
}

func TestCollegeSearch_BlankQuery(t *testing.T) {
	svc, _, _ := newCollegeFixture(t)

	_, err := svc.SearchByName(context.Background(), "   ")
	assert.Equal(t, KindInvalidInput, KindOf(err))
}

func TestCollegeList(t *testing.T) {
	svc, _, _ := newCollegeFixture(t)

	rows, err := svc.List(context.Background(), 2)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "Farook College", rows[0].Name)
	assert.Equal(t, "Govt College Kottayam", rows[1].Name)
}

func TestCollegeSearch_StoreNotConfigured(t *testing.T) {
	svc := NewCollegeService(nil, newMemoryCache(t, newFakeClock()), nil, testOptions(), zap.NewNop())

	_, err := svc.SearchByName(context.Background(), "Farook College")
	assert.Equal(t, KindBackingStoreUnavailable, KindOf(err))
}
