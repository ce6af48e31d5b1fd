package provider

import (
	"context"
	"net/http"
	"net/url"
	"strings"

	"github.com/locality-resolver/app/models"
)

const (
	PostalIndexName    = "postal_index"
	DefaultPostalIndex = "https://api.postalpincode.in"
)

// PostalIndexProvider queries the India Post pincode directory. It is
// authoritative for names but never returns coordinates.
type PostalIndexProvider struct {
	baseURL string
	client  *http.Client
}

// NewPostalIndexProvider creates the provider.
func NewPostalIndexProvider(baseURL string, client *http.Client) *PostalIndexProvider {
	if baseURL == "" {
		baseURL = DefaultPostalIndex
	}
	return &PostalIndexProvider{baseURL: strings.TrimRight(baseURL, "/"), client: client}
}

func (p *PostalIndexProvider) Name() string { return PostalIndexName }

type postOffice struct {
	Name           string `json:"Name"`
	BranchType     string `json:"BranchType"`
	DeliveryStatus string `json:"DeliveryStatus"`
	District       string `json:"District"`
	State          string `json:"State"`
	Pincode        string `json:"Pincode"`
}

type postalIndexResponse []struct {
	Message    string       `json:"Message"`
	Status     string       `json:"Status"`
	PostOffice []postOffice `json:"PostOffice"`
}

func (p *PostalIndexProvider) Resolve(ctx context.Context, code string) (*models.NormalizedCandidate, error) {
	var resp postalIndexResponse
	if err := getJSON(ctx, p.client, PostalIndexName, p.baseURL+"/pincode/"+url.PathEscape(code), &resp); err != nil {
		return nil, err
	}
	if len(resp) == 0 || !strings.EqualFold(resp[0].Status, "success") || len(resp[0].PostOffice) == 0 {
		return nil, nil
	}

	po := pickPostOffice(resp[0].PostOffice)
	return &models.NormalizedCandidate{
		Code:     code,
		Name:     strings.TrimSpace(po.Name),
		District: strings.TrimSpace(po.District),
		State:    strings.TrimSpace(po.State),
		Source:   PostalIndexName,
	}, nil
}

// pickPostOffice prefers the head office, then any delivery office.
func pickPostOffice(offices []postOffice) postOffice {
	for _, o := range offices {
		if strings.EqualFold(o.BranchType, "Head Post Office") {
			return o
		}
	}
	for _, o := range offices {
		if strings.EqualFold(o.DeliveryStatus, "Delivery") {
			return o
		}
	}
	return offices[0]
}
