package provider

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/locality-resolver/app/models"
)

const (
	GoogleName    = "google"
	DefaultGoogle = "https://maps.googleapis.com/maps/api/geocode/json"
)

// GoogleGeocodingProvider is an optional last resort, enabled only when an
// API key is configured.
type GoogleGeocodingProvider struct {
	endpoint string
	apiKey   string
	client   *http.Client
}

// NewGoogleGeocodingProvider creates the provider.
func NewGoogleGeocodingProvider(endpoint, apiKey string, client *http.Client) *GoogleGeocodingProvider {
	if endpoint == "" {
		endpoint = DefaultGoogle
	}
	return &GoogleGeocodingProvider{endpoint: endpoint, apiKey: apiKey, client: client}
}

func (p *GoogleGeocodingProvider) Name() string              { return GoogleName }
func (p *GoogleGeocodingProvider) SuppliesCoordinates() bool { return true }

type googleResponse struct {
	Status  string `json:"status"`
	Results []struct {
		AddressComponents []struct {
			LongName string   `json:"long_name"`
			Types    []string `json:"types"`
		} `json:"address_components"`
		Geometry struct {
			Location struct {
				Lat float64 `json:"lat"`
				Lng float64 `json:"lng"`
			} `json:"location"`
		} `json:"geometry"`
	} `json:"results"`
}

func (p *GoogleGeocodingProvider) Resolve(ctx context.Context, code string) (*models.NormalizedCandidate, error) {
	params := url.Values{}
	params.Set("components", "postal_code:"+code+"|country:IN")
	params.Set("key", p.apiKey)

	var resp googleResponse
	if err := getJSON(ctx, p.client, GoogleName, p.endpoint+"?"+params.Encode(), &resp); err != nil {
		return nil, err
	}
	switch resp.Status {
	case "OK":
	case "ZERO_RESULTS":
		return nil, nil
	case "OVER_QUERY_LIMIT":
		return nil, &Error{Provider: GoogleName, Type: ErrorTypeRateLimit, Message: resp.Status}
	default:
		return nil, &Error{Provider: GoogleName, Type: ErrorTypeUpstream, Message: fmt.Sprintf("status %s", resp.Status)}
	}
	if len(resp.Results) == 0 {
		return nil, nil
	}

	r := resp.Results[0]
	parts := map[string]string{}
	for _, c := range r.AddressComponents {
		for _, t := range c.Types {
			if _, ok := parts[t]; !ok {
				parts[t] = strings.TrimSpace(c.LongName)
			}
		}
	}
	lat, lng := r.Geometry.Location.Lat, r.Geometry.Location.Lng
	return &models.NormalizedCandidate{
		Code:      code,
		Name:      firstNonEmpty(parts["sublocality"], parts["sublocality_level_1"], parts["locality"]),
		District:  firstNonEmpty(parts["administrative_area_level_3"], parts["administrative_area_level_2"]),
		State:     parts["administrative_area_level_1"],
		Latitude:  &lat,
		Longitude: &lng,
		Source:    GoogleName,
	}, nil
}
