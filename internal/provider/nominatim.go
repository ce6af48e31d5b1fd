package provider

import (
	"context"
	"net/http"
	"net/url"
	"strings"

	"github.com/locality-resolver/app/models"
)

const (
	NominatimName    = "nominatim"
	DefaultNominatim = "https://nominatim.openstreetmap.org"
)

// NominatimProvider is the geocoding fallback. Its usage policy asks for
// at most one request per second, so it is always wrapped in a throttle.
type NominatimProvider struct {
	baseURL string
	country string
	client  *http.Client
}

// NewNominatimProvider creates the provider.
func NewNominatimProvider(baseURL string, client *http.Client) *NominatimProvider {
	if baseURL == "" {
		baseURL = DefaultNominatim
	}
	return &NominatimProvider{baseURL: strings.TrimRight(baseURL, "/"), country: "India", client: client}
}

func (p *NominatimProvider) Name() string              { return NominatimName }
func (p *NominatimProvider) SuppliesCoordinates() bool { return true }

type nominatimPlace struct {
	Lat         string `json:"lat"`
	Lon         string `json:"lon"`
	DisplayName string `json:"display_name"`
	Address     struct {
		Suburb        string `json:"suburb"`
		Village       string `json:"village"`
		Town          string `json:"town"`
		CityDistrict  string `json:"city_district"`
		City          string `json:"city"`
		County        string `json:"county"`
		StateDistrict string `json:"state_district"`
		State         string `json:"state"`
		Postcode      string `json:"postcode"`
	} `json:"address"`
}

func (p *NominatimProvider) Resolve(ctx context.Context, code string) (*models.NormalizedCandidate, error) {
	params := url.Values{}
	params.Set("postalcode", code)
	params.Set("country", p.country)
	params.Set("format", "jsonv2")
	params.Set("addressdetails", "1")
	params.Set("limit", "1")

	var places []nominatimPlace
	if err := getJSON(ctx, p.client, NominatimName, p.baseURL+"/search?"+params.Encode(), &places); err != nil {
		return nil, err
	}
	if len(places) == 0 {
		return nil, nil
	}

	pl := places[0]
	a := pl.Address
	cand := &models.NormalizedCandidate{
		Code:     code,
		Name:     firstNonEmpty(a.Suburb, a.Village, a.Town, a.CityDistrict, a.City, a.County),
		District: firstNonEmpty(a.StateDistrict, a.County),
		State:    a.State,
		Source:   NominatimName,
	}
	cand.Latitude = parseCoord(pl.Lat)
	cand.Longitude = parseCoord(pl.Lon)
	return cand, nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			return v
		}
	}
	return ""
}
