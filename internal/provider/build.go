package provider

import (
	"time"

	"go.uber.org/zap"
)

// Options configures the default chain.
type Options struct {
	UserAgent   string
	HTTPTimeout time.Duration

	PostalIndexURL string
	ZippopotamURL  string
	NominatimURL   string

	NominatimMinInterval time.Duration
	NominatimStrict      bool

	GoogleURL    string
	GoogleAPIKey string
}

// Build assembles postal index -> zippopotam -> nominatim, plus Google
// when a key is set. Nominatim shares a single throttle across callers.
func Build(opts Options, logger *zap.Logger) *Chain {
	client := NewHTTPClient(opts.UserAgent, opts.HTTPTimeout)

	interval := opts.NominatimMinInterval
	if interval <= 0 {
		interval = time.Second
	}
	var throttle Throttle = NewSoftThrottle(interval)
	if opts.NominatimStrict {
		throttle = NewTokenBucket(interval)
	}

	providers := []LocationProvider{
		NewPostalIndexProvider(opts.PostalIndexURL, client),
		NewZippopotamProvider(opts.ZippopotamURL, client),
		WithThrottle(NewNominatimProvider(opts.NominatimURL, client), throttle),
	}
	if opts.GoogleAPIKey != "" {
		providers = append(providers, NewGoogleGeocodingProvider(opts.GoogleURL, opts.GoogleAPIKey, client))
	}

	chain := NewChain(logger, providers...)
	logger.Info("Provider chain ready", zap.Strings("providers", chain.Names()))
	return chain
}
