package provider

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/locality-resolver/app/models"
)

func fptr(f float64) *float64 { return &f }

// stubProvider provider giả có đếm số lần gọi
type stubProvider struct {
	name   string
	coords bool
	cand   *models.NormalizedCandidate
	err    error
	calls  atomic.Int32
}

func (s *stubProvider) Name() string              { return s.name }
func (s *stubProvider) SuppliesCoordinates() bool { return s.coords }
func (s *stubProvider) Resolve(context.Context, string) (*models.NormalizedCandidate, error) {
	s.calls.Add(1)
	if s.cand == nil {
		return nil, s.err
	}
	c := *s.cand
	return &c, s.err
}

func TestValidCandidate(t *testing.T) {
	tests := []struct {
		name string
		cand *models.NormalizedCandidate
		want bool
	}{
		{"nil", nil, false},
		{"empty", &models.NormalizedCandidate{Name: "  "}, false},
		{"unknown sentinel", &models.NormalizedCandidate{Name: "Unknown"}, false},
		{"unknown lowercase", &models.NormalizedCandidate{Name: "unknown"}, false},
		{"echoes code", &models.NormalizedCandidate{Name: "673001"}, false},
		{"real name", &models.NormalizedCandidate{Name: "Kozhikode"}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ValidCandidate(tt.cand, "673001"))
		})
	}
}

func TestChain_FirstValidWins(t *testing.T) {
	a := &stubProvider{name: "a", cand: &models.NormalizedCandidate{Name: "Kozhikode", District: "Kozhikode", State: "Kerala"}}
	b := &stubProvider{name: "b", coords: true, cand: &models.NormalizedCandidate{Name: "Calicut", Latitude: fptr(11.25), Longitude: fptr(75.78)}}
	chain := NewChain(zap.NewNop(), a, b)

	cand, winner := chain.Resolve(context.Background(), "673001")
	require.NotNil(t, cand)
	assert.Equal(t, "a", winner)
	assert.Equal(t, "Kozhikode", cand.Name)
	assert.Equal(t, "673001", cand.Code)
	assert.Equal(t, "a", cand.Source)
	assert.Equal(t, int32(0), b.calls.Load())
}

func TestChain_PlaceholderRejectedWithoutError(t *testing.T) {
	a := &stubProvider{name: "a", cand: &models.NormalizedCandidate{Name: "673001"}}
	b := &stubProvider{name: "b", err: errors.New("connection refused")}
	c := &stubProvider{name: "c", coords: true, cand: &models.NormalizedCandidate{Name: "Kozhikode", Latitude: fptr(11.25), Longitude: fptr(75.78)}}
	chain := NewChain(zap.NewNop(), a, b, c)

	cand, winner := chain.Resolve(context.Background(), "673001")
	require.NotNil(t, cand)
	assert.Equal(t, "c", winner)
	assert.Equal(t, int32(1), a.calls.Load())
	assert.Equal(t, int32(1), b.calls.Load())
}

func TestChain_Exhausted(t *testing.T) {
	a := &stubProvider{name: "a"}
	b := &stubProvider{name: "b", cand: &models.NormalizedCandidate{Name: "Unknown"}}
	cand, winner := NewChain(zap.NewNop(), a, b).Resolve(context.Background(), "999999")
	assert.Nil(t, cand)
	assert.Empty(t, winner)
}

func TestChain_InvalidCoordinatesStripped(t *testing.T) {
	a := &stubProvider{name: "a", cand: &models.NormalizedCandidate{Name: "Somewhere", Latitude: fptr(123), Longitude: fptr(75)}}
	cand, _ := NewChain(zap.NewNop(), a).Resolve(context.Background(), "111111")
	require.NotNil(t, cand)
	assert.False(t, cand.HasCoordinates())
}

func TestChain_BackfillSkipsWinnerAndNonCoordinateSources(t *testing.T) {
	a := &stubProvider{name: "a", cand: &models.NormalizedCandidate{Name: "Kozhikode"}}
	b := &stubProvider{name: "b", coords: true, cand: &models.NormalizedCandidate{Name: "Calicut"}}
	c := &stubProvider{name: "c", coords: true, cand: &models.NormalizedCandidate{Name: "Kozhikode", Latitude: fptr(11.25), Longitude: fptr(75.78)}}
	chain := NewChain(zap.NewNop(), a, b, c)

	got, ok := chain.Backfill(context.Background(), "673001", "a")
	require.True(t, ok)
	assert.Equal(t, "c", got.Source)
	assert.InDelta(t, 11.25, got.Latitude, 1e-9)
	assert.Equal(t, int32(0), a.calls.Load())
	assert.Equal(t, int32(1), b.calls.Load())
	assert.Equal(t, int32(1), c.calls.Load())
}

func TestChain_BackfillFailureIsNonFatal(t *testing.T) {
	b := &stubProvider{name: "b", coords: true, err: errors.New("timeout")}
	_, ok := NewChain(zap.NewNop(), b).Backfill(context.Background(), "673001", "")
	assert.False(t, ok)
}

func TestPostalIndexProvider(t *testing.T) {
	var ua string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ua = r.Header.Get("User-Agent")
		switch r.URL.Path {
		case "/pincode/673001":
			w.Write([]byte(`[{"Message":"Number of pincode(s) found:2","Status":"Success","PostOffice":[
				{"Name":"Bilathikulam","BranchType":"Sub Post Office","DeliveryStatus":"Non-Delivery","District":"Kozhikode","State":"Kerala","Pincode":"673001"},
				{"Name":"Kozhikode","BranchType":"Head Post Office","DeliveryStatus":"Delivery","District":"Kozhikode","State":"Kerala","Pincode":"673001"}]}]`))
		default:
			w.Write([]byte(`[{"Message":"No records found","Status":"Error","PostOffice":null}]`))
		}
	}))
	defer srv.Close()

	p := NewPostalIndexProvider(srv.URL, NewHTTPClient("test-agent/1.0", time.Second))
	cand, err := p.Resolve(context.Background(), "673001")
	require.NoError(t, err)
	require.NotNil(t, cand)
	assert.Equal(t, "Kozhikode", cand.Name)
	assert.Equal(t, "Kozhikode", cand.District)
	assert.Equal(t, "Kerala", cand.State)
	assert.False(t, cand.HasCoordinates())
	assert.Equal(t, "test-agent/1.0", ua)

	cand, err = p.Resolve(context.Background(), "000000")
	require.NoError(t, err)
	assert.Nil(t, cand)
}

func TestZippopotamProvider(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/in/673001" {
			http.NotFound(w, r)
			return
		}
		w.Write([]byte(`{"post code":"673001","country":"India","places":[{"place name":"Calicut","longitude":"75.7804","state":"Kerala","state abbreviation":"KL","latitude":"11.2588"}]}`))
	}))
	defer srv.Close()

	p := NewZippopotamProvider(srv.URL, NewHTTPClient("", time.Second))
	cand, err := p.Resolve(context.Background(), "673001")
	require.NoError(t, err)
	require.NotNil(t, cand)
	assert.Equal(t, "Calicut", cand.Name)
	assert.Empty(t, cand.District)
	require.True(t, cand.HasCoordinates())
	assert.InDelta(t, 11.2588, *cand.Latitude, 1e-9)
	assert.InDelta(t, 75.7804, *cand.Longitude, 1e-9)

	cand, err = p.Resolve(context.Background(), "999999")
	require.NoError(t, err)
	assert.Nil(t, cand)
}

func TestNominatimProvider(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/search", r.URL.Path)
		assert.Equal(t, "680001", r.URL.Query().Get("postalcode"))
		assert.Equal(t, "jsonv2", r.URL.Query().Get("format"))
		w.Write([]byte(`[{"lat":"10.5276","lon":"76.2144","display_name":"Thrissur, Kerala, India",
			"address":{"city":"Thrissur","county":"Thrissur","state_district":"Thrissur District","state":"Kerala","postcode":"680001"}}]`))
	}))
	defer srv.Close()

	p := NewNominatimProvider(srv.URL, NewHTTPClient("", time.Second))
	cand, err := p.Resolve(context.Background(), "680001")
	require.NoError(t, err)
	require.NotNil(t, cand)
	assert.Equal(t, "Thrissur", cand.Name)
	assert.Equal(t, "Thrissur District", cand.District)
	assert.True(t, cand.HasCoordinates())
}

func TestGoogleGeocodingProvider(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "secret", r.URL.Query().Get("key"))
		w.Write([]byte(`{"status":"OK","results":[{"address_components":[
			{"long_name":"673001","types":["postal_code"]},
			{"long_name":"Kozhikode","types":["locality","political"]},
			{"long_name":"Kozhikode","types":["administrative_area_level_3","political"]},
			{"long_name":"Kerala","types":["administrative_area_level_1","political"]}],
			"geometry":{"location":{"lat":11.2588,"lng":75.7804}}}]}`))
	}))
	defer srv.Close()

	p := NewGoogleGeocodingProvider(srv.URL, "secret", NewHTTPClient("", time.Second))
	cand, err := p.Resolve(context.Background(), "673001")
	require.NoError(t, err)
	require.NotNil(t, cand)
	assert.Equal(t, "Kozhikode", cand.Name)
	assert.Equal(t, "Kerala", cand.State)
	assert.True(t, cand.HasCoordinates())
}

func TestGetJSON_ClassifiesStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()

	p := NewNominatimProvider(srv.URL, NewHTTPClient("", time.Second))
	_, err := p.Resolve(context.Background(), "680001")
	require.Error(t, err)
	assert.Equal(t, ErrorTypeRateLimit, TypeOf(err))
}

func TestSoftThrottle_SpacesCalls(t *testing.T) {
	now := time.Unix(1_700_000_000, 0)
	var slept []time.Duration

	th := NewSoftThrottle(time.Second)
	th.now = func() time.Time { return now }
	th.sleep = func(_ context.Context, d time.Duration) error {
		slept = append(slept, d)
		now = now.Add(d)
		return nil
	}

	require.NoError(t, th.Wait(context.Background()))
	assert.Empty(t, slept)

	now = now.Add(300 * time.Millisecond)
	require.NoError(t, th.Wait(context.Background()))
	require.Len(t, slept, 1)
	assert.Equal(t, 700*time.Millisecond, slept[0])

	now = now.Add(2 * time.Second)
	require.NoError(t, th.Wait(context.Background()))
	assert.Len(t, slept, 1)
}

func TestSoftThrottle_ContextCancelled(t *testing.T) {
	th := NewSoftThrottle(time.Hour)
	require.NoError(t, th.Wait(context.Background()))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, th.Wait(ctx), context.Canceled)
}

func TestThrottled_ForwardsCapabilities(t *testing.T) {
	inner := &stubProvider{name: "c", coords: true, cand: &models.NormalizedCandidate{Name: "Thrissur"}}
	wrapped := WithThrottle(inner, NewTokenBucket(time.Millisecond))
	assert.Equal(t, "c", wrapped.Name())
	assert.True(t, wrapped.SuppliesCoordinates())

	cand, err := wrapped.Resolve(context.Background(), "680001")
	require.NoError(t, err)
	assert.Equal(t, "Thrissur", cand.Name)
}
