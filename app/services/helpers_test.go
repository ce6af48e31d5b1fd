package services

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/locality-resolver/app/models"
	"github.com/locality-resolver/internal/provider"
	"github.com/locality-resolver/internal/store"
	"github.com/locality-resolver/internal/timebox"
)

func fptr(f float64) *float64 { return &f }

func newSQLite(t *testing.T) *store.SQLiteStore {
	t.Helper()
	s, err := store.NewSQLiteStore(":memory:", zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { s.Close(context.Background()) })
	return s
}

// fakeClock đồng hồ điều khiển được
type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

func newMemoryCache(t *testing.T, clock *fakeClock) *CacheService {
	t.Helper()
	cache, err := NewCacheService(1000, 100, clock.Now, zap.NewNop())
	require.NoError(t, err)
	return cache
}

// countingLocations đếm số lần đọc store và có thể chèn độ trễ hoặc lỗi
type countingLocations struct {
	store.LocationStore
	reads     atomic.Int32
	inserts   atomic.Int32
	delay     time.Duration
	readErr   error
	insertErr error
	beforeInsert func(ctx context.Context, rec *models.LocationRecord)
}

func (c *countingLocations) wait() {
	c.reads.Add(1)
	if c.delay > 0 {
		time.Sleep(c.delay)
	}
}

func (c *countingLocations) FindByCode(ctx context.Context, code string) (*models.LocationRecord, error) {
	c.wait()
	if c.readErr != nil {
		return nil, c.readErr
	}
	return c.LocationStore.FindByCode(ctx, code)
}

func (c *countingLocations) FindNameEqual(ctx context.Context, name string) ([]models.LocationRecord, error) {
	c.wait()
	if c.readErr != nil {
		return nil, c.readErr
	}
	return c.LocationStore.FindNameEqual(ctx, name)
}

func (c *countingLocations) FindNameContains(ctx context.Context, fragment string) ([]models.LocationRecord, error) {
	c.wait()
	return c.LocationStore.FindNameContains(ctx, fragment)
}

func (c *countingLocations) FindNameAnyToken(ctx context.Context, tokens []string) ([]models.LocationRecord, error) {
	c.wait()
	return c.LocationStore.FindNameAnyToken(ctx, tokens)
}

func (c *countingLocations) List(ctx context.Context, limit int) ([]models.LocationRecord, error) {
	c.wait()
	return c.LocationStore.List(ctx, limit)
}

func (c *countingLocations) ListByState(ctx context.Context, state string, limit int) ([]models.LocationRecord, error) {
	c.wait()
	return c.LocationStore.ListByState(ctx, state, limit)
}

func (c *countingLocations) Insert(ctx context.Context, rec *models.LocationRecord) error {
	c.inserts.Add(1)
	if c.beforeInsert != nil {
		c.beforeInsert(ctx, rec)
	}
	if c.insertErr != nil {
		return c.insertErr
	}
	return c.LocationStore.Insert(ctx, rec)
}

// fakeProvider provider giả, trả candidate theo hàm resolve
type fakeProvider struct {
	name    string
	coords  bool
	resolve func(code string) *models.NormalizedCandidate
	calls   atomic.Int32
}

func (f *fakeProvider) Name() string              { return f.name }
func (f *fakeProvider) SuppliesCoordinates() bool { return f.coords }
func (f *fakeProvider) Resolve(_ context.Context, code string) (*models.NormalizedCandidate, error) {
	f.calls.Add(1)
	if f.resolve == nil {
		return nil, nil
	}
	return f.resolve(code), nil
}

func fixed(c models.NormalizedCandidate) func(string) *models.NormalizedCandidate {
	return func(code string) *models.NormalizedCandidate {
		out := c
		out.Code = code
		return &out
	}
}

// providerSet A (không toạ độ), B và C (có toạ độ) như chuỗi thật
type providerSet struct {
	a, b, c *fakeProvider
}

func (p providerSet) chain() *provider.Chain {
	return provider.NewChain(zap.NewNop(), p.a, p.b, p.c)
}

func newProviders() providerSet {
	return providerSet{
		a: &fakeProvider{name: "postal_index"},
		b: &fakeProvider{name: "zippopotam", coords: true},
		c: &fakeProvider{name: "nominatim", coords: true},
	}
}

func testOptions() ResolverOptions {
	opts := DefaultResolverOptions()
	opts.Policy = timebox.Policy{First: 2 * time.Second, Retry: 2 * time.Second}
	return opts
}

var keralaDistricts = []string{
	"Thrissur", "Kannur", "Kollam", "Kottayam", "Palakkad", "Idukki", "Wayanad",
	"Ernakulam", "Kasaragod", "Alappuzha", "Pathanamthitta", "Kozhikode",
	"Malappuram", "Thiruvananthapuram",
}

// seedDistricts lưu mỗi quận một bản ghi với mã giả
func seedDistricts(t *testing.T, locs store.LocationStore) {
	t.Helper()
	for i, name := range keralaDistricts {
		rec := models.LocationRecord{
			Code:   codeFor(i),
			Name:   name,
			State:  "Kerala",
			Source: "seed",
		}
		rec.SetCoordinates(10+float64(i)/10, 76)
		require.NoError(t, locs.Insert(context.Background(), &rec))
	}
}

func codeFor(i int) string {
	return string([]byte{'6', '9', '0', '0', byte('0' + i/10), byte('0' + i%10)})
}
