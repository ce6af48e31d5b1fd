package store

import (
	"context"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/locality-resolver/app/models"
)

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	s, err := NewSQLiteStore(":memory:", zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { s.Close(context.Background()) })
	return s
}

func ptr(f float64) *float64 { return &f }

func seedLocations(t *testing.T, s *SQLiteStore, recs ...models.LocationRecord) {
	t.Helper()
	for i := range recs {
		require.NoError(t, s.Locations().Insert(context.Background(), &recs[i]))
	}
}

func names[T interface{ DisplayName() string }](rows []T) []string {
	out := make([]string, len(rows))
	for i, r := range rows {
		out[i] = r.DisplayName()
	}
	return out
}

func TestSQLiteLocations_InsertAndFindByCode(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	rec := models.LocationRecord{Code: "680001", Name: "Thrissur", District: "Thrissur", State: "Kerala", Source: "seed"}
	rec.SetCoordinates(10.5276, 76.2144)
	require.NoError(t, s.Locations().Insert(ctx, &rec))

	got, err := s.Locations().FindByCode(ctx, "680001")
	require.NoError(t, err)
	want := struct {
		Code, Name, District, State, Geohash string
		Lat, Lon                             float64
	}{"680001", "Thrissur", "Thrissur", "Kerala", rec.Geohash, 10.5276, 76.2144}
	have := struct {
		Code, Name, District, State, Geohash string
		Lat, Lon                             float64
	}{got.Code, got.Name, got.District, got.State, got.Geohash, *got.Latitude, *got.Longitude}
	if diff := cmp.Diff(want, have); diff != "" {
		t.Errorf("FindByCode mismatch (-want +got):\n%s", diff)
	}

	_, err = s.Locations().FindByCode(ctx, "000000")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestSQLiteLocations_DuplicateCode(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	first := models.LocationRecord{Code: "673001", Name: "Kozhikode", State: "Kerala"}
	require.NoError(t, s.Locations().Insert(ctx, &first))

	dup := models.LocationRecord{Code: "673001", Name: "Calicut", State: "Kerala"}
	err := s.Locations().Insert(ctx, &dup)
	assert.ErrorIs(t, err, ErrDuplicateKey)

	got, err := s.Locations().FindByCode(ctx, "673001")
	require.NoError(t, err)
	assert.Equal(t, "Kozhikode", got.Name)
}

func TestSQLiteLocations_NameQueries(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	seedLocations(t, s,
		models.LocationRecord{Code: "673001", Name: "Kozhikode", State: "Kerala"},
		models.LocationRecord{Code: "673032", Name: "Kozhikode Beach", State: "Kerala"},
		models.LocationRecord{Code: "673005", Name: "West Hill", State: "Kerala"},
		models.LocationRecord{Code: "600001", Name: "Chennai GPO", State: "Tamil Nadu"},
		models.LocationRecord{Code: "600100", Name: "100%_Nagar", State: "Tamil Nadu"},
	)

	rows, err := s.Locations().FindNameEqual(ctx, "kozhikode")
	require.NoError(t, err)
	assert.Equal(t, []string{"Kozhikode"}, names(rows))

	rows, err = s.Locations().FindNameContains(ctx, "KOZHI")
	require.NoError(t, err)
	assert.Equal(t, []string{"Kozhikode", "Kozhikode Beach"}, names(rows))

	rows, err = s.Locations().FindNameContains(ctx, "%_")
	require.NoError(t, err)
	assert.Equal(t, []string{"100%_Nagar"}, names(rows))

	rows, err = s.Locations().FindNameAnyToken(ctx, []string{"hill", "gpo"})
	require.NoError(t, err)
	assert.Equal(t, []string{"Chennai GPO", "West Hill"}, names(rows))

	rows, err = s.Locations().List(ctx, 2)
	require.NoError(t, err)
	assert.Len(t, rows, 2)

	rows, err = s.Locations().ListByState(ctx, "tamil nadu", 0)
	require.NoError(t, err)
	assert.Len(t, rows, 2)
}

func TestSQLiteLocations_UpdateCoordinates(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	seedLocations(t, s,
		models.LocationRecord{Code: "673001", Name: "Kozhikode", State: "Kerala"},
		models.LocationRecord{Code: "680001", Name: "Thrissur", State: "Kerala", Latitude: ptr(10.52), Longitude: ptr(76.21)},
	)

	missing, err := s.Locations().ListMissingCoordinates(ctx, 10)
	require.NoError(t, err)
	assert.Equal(t, []string{"Kozhikode"}, names(missing))

	require.NoError(t, s.Locations().UpdateCoordinates(ctx, "673001", 11.2588, 75.7804, "t9wb5dx"))

	got, err := s.Locations().FindByCode(ctx, "673001")
	require.NoError(t, err)
	require.True(t, got.HasCoordinates())
	assert.InDelta(t, 11.2588, *got.Latitude, 1e-9)
	assert.Equal(t, "t9wb5dx", got.Geohash)

	missing, err = s.Locations().ListMissingCoordinates(ctx, 10)
	require.NoError(t, err)
	assert.Empty(t, missing)

	assert.ErrorIs(t, s.Locations().UpdateCoordinates(ctx, "999999", 1, 1, ""), ErrNotFound)
}

func TestSQLiteColleges_DuplicateNamesAllowed(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	a := models.EntityRecord{Name: "St. Thomas College", Category: "college", Code: "680001", Locality: "Thrissur"}
	b := models.EntityRecord{Name: "St. Thomas College", Category: "college", Code: "686101", Locality: "Kozhencherry"}
	require.NoError(t, s.Colleges().Insert(ctx, &a))
	require.NoError(t, s.Colleges().Insert(ctx, &b))

	rows, err := s.Colleges().FindNameEqual(ctx, "st. thomas college")
	require.NoError(t, err)
	assert.Len(t, rows, 2)
}

func TestOpen_UnknownDriver(t *testing.T) {
	_, err := Open(context.Background(), Options{Driver: "cassandra"}, zap.NewNop())
	assert.Error(t, err)
}
