package provider

import (
	"context"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/locality-resolver/app/models"
)

const (
	ZippopotamName    = "zippopotam"
	DefaultZippopotam = "https://api.zippopotam.us"
)

// ZippopotamProvider is the secondary index. It returns name, state and
// coordinates, but no district.
type ZippopotamProvider struct {
	baseURL string
	client  *http.Client
}

// NewZippopotamProvider creates the provider.
func NewZippopotamProvider(baseURL string, client *http.Client) *ZippopotamProvider {
	if baseURL == "" {
		baseURL = DefaultZippopotam
	}
	return &ZippopotamProvider{baseURL: strings.TrimRight(baseURL, "/"), client: client}
}

func (p *ZippopotamProvider) Name() string              { return ZippopotamName }
func (p *ZippopotamProvider) SuppliesCoordinates() bool { return true }

type zippopotamResponse struct {
	PostCode string `json:"post code"`
	Places   []struct {
		PlaceName string `json:"place name"`
		State     string `json:"state"`
		Latitude  string `json:"latitude"`
		Longitude string `json:"longitude"`
	} `json:"places"`
}

func (p *ZippopotamProvider) Resolve(ctx context.Context, code string) (*models.NormalizedCandidate, error) {
	var resp zippopotamResponse
	err := getJSON(ctx, p.client, ZippopotamName, p.baseURL+"/in/"+url.PathEscape(code), &resp)
	if TypeOf(err) == ErrorTypeNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if len(resp.Places) == 0 {
		return nil, nil
	}

	place := resp.Places[0]
	cand := &models.NormalizedCandidate{
		Code:   code,
		Name:   strings.TrimSpace(place.PlaceName),
		State:  strings.TrimSpace(place.State),
		Source: ZippopotamName,
	}
	cand.Latitude = parseCoord(place.Latitude)
	cand.Longitude = parseCoord(place.Longitude)
	return cand, nil
}

func parseCoord(s string) *float64 {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil
	}
	return &v
}
