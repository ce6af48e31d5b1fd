package provider

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// DefaultUserAgent is sent on every provider request.
const DefaultUserAgent = "locality-resolver/1.0 (+https://github.com/locality-resolver)"

// headerRoundTripper sets fixed headers on each request.
type headerRoundTripper struct {
	transport http.RoundTripper
	headers   map[string]string
}

// RoundTrip implements the http.RoundTripper interface.
func (t *headerRoundTripper) RoundTrip(req *http.Request) (*http.Response, error) {
	req = req.Clone(req.Context())
	for k, v := range t.headers {
		req.Header.Set(k, v)
	}
	return t.transport.RoundTrip(req)
}

// NewHTTPClient builds the client shared by all providers.
func NewHTTPClient(userAgent string, timeout time.Duration) *http.Client {
	if userAgent == "" {
		userAgent = DefaultUserAgent
	}
	if timeout <= 0 {
		timeout = 8 * time.Second
	}
	return &http.Client{
		Timeout: timeout,
		Transport: &headerRoundTripper{
			transport: http.DefaultTransport,
			headers: map[string]string{
				"User-Agent": userAgent,
				"Accept":     "application/json",
			},
		},
	}
}

// getJSON issues a GET and decodes a JSON body into out.
func getJSON(ctx context.Context, client *http.Client, provider, reqURL string, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return fmt.Errorf("%s: building request: %w", provider, err)
	}

	resp, err := client.Do(req)
	if err != nil {
		return transportError(provider, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return ClassifyHTTPError(provider, resp.StatusCode)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return decodeError(provider, err)
	}
	return nil
}
