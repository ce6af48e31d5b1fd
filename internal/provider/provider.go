// Package provider resolves postal codes against external postal and
// geocoding sources. Providers are tried in order behind one contract and
// never fail the request: errors are logged and the chain moves on.
package provider

import (
	"context"
	"strings"

	"github.com/golang/geo/s2"
	"go.uber.org/zap"

	"github.com/locality-resolver/app/models"
)

// LocationProvider resolves a postal code to a candidate. A nil candidate
// with a nil error means the source has no data for the code.
type LocationProvider interface {
	Name() string
	Resolve(ctx context.Context, code string) (*models.NormalizedCandidate, error)
}

// CoordinateSource is implemented by providers that return coordinates
// and can be used for backfill.
type CoordinateSource interface {
	SuppliesCoordinates() bool
}

// Coordinates is a backfilled lat/lon pair and where it came from.
type Coordinates struct {
	Latitude  float64
	Longitude float64
	Source    string
}

// placeholderName is echoed by some sources when they have no locality.
const placeholderName = "unknown"

// ValidCandidate rejects empty, sentinel and code-echo names.
func ValidCandidate(c *models.NormalizedCandidate, code string) bool {
	if c == nil {
		return false
	}
	name := strings.TrimSpace(c.Name)
	switch {
	case name == "":
		return false
	case strings.EqualFold(name, placeholderName):
		return false
	case name == strings.TrimSpace(code):
		return false
	}
	return true
}

// validCoordinates reports whether lat/lon form a real point.
func validCoordinates(lat, lon *float64) bool {
	if lat == nil || lon == nil {
		return false
	}
	if *lat == 0 && *lon == 0 {
		return false
	}
	return s2.LatLngFromDegrees(*lat, *lon).IsValid()
}

// sanitize drops coordinates that are out of range.
func sanitize(c *models.NormalizedCandidate) {
	if c.Latitude == nil && c.Longitude == nil {
		return
	}
	if !validCoordinates(c.Latitude, c.Longitude) {
		c.Latitude, c.Longitude = nil, nil
	}
}

// Throttled wraps a provider with a shared throttle.
type Throttled struct {
	LocationProvider
	throttle Throttle
}

// WithThrottle wraps p so every Resolve waits on t first.
func WithThrottle(p LocationProvider, t Throttle) *Throttled {
	return &Throttled{LocationProvider: p, throttle: t}
}

// Resolve waits on the throttle, then delegates.
func (t *Throttled) Resolve(ctx context.Context, code string) (*models.NormalizedCandidate, error) {
	if err := t.throttle.Wait(ctx); err != nil {
		return nil, err
	}
	return t.LocationProvider.Resolve(ctx, code)
}

// SuppliesCoordinates forwards to the wrapped provider.
func (t *Throttled) SuppliesCoordinates() bool {
	return suppliesCoordinates(t.LocationProvider)
}

func suppliesCoordinates(p LocationProvider) bool {
	cs, ok := p.(CoordinateSource)
	return ok && cs.SuppliesCoordinates()
}

// Chain is an ordered list of providers.
type Chain struct {
	providers []LocationProvider
	logger    *zap.Logger
}

// NewChain creates a chain tried in the given order.
func NewChain(logger *zap.Logger, providers ...LocationProvider) *Chain {
	return &Chain{providers: providers, logger: logger}
}

// Names lists the providers in order.
func (c *Chain) Names() []string {
	out := make([]string, len(c.providers))
	for i, p := range c.providers {
		out[i] = p.Name()
	}
	return out
}

// Resolve returns the first valid candidate and the name of the provider
// that produced it, or nil when every provider is exhausted.
func (c *Chain) Resolve(ctx context.Context, code string) (*models.NormalizedCandidate, string) {
	for _, p := range c.providers {
		cand, err := p.Resolve(ctx, code)
		if err != nil {
			c.logger.Warn("Provider lỗi, chuyển sang provider kế tiếp",
				zap.String("provider", p.Name()),
				zap.String("code", code),
				zap.Stringer("error_type", TypeOf(err)),
				zap.Error(err))
			continue
		}
		if !ValidCandidate(cand, code) {
			c.logger.Debug("Provider trả về dữ liệu placeholder",
				zap.String("provider", p.Name()),
				zap.String("code", code))
			continue
		}
		sanitize(cand)
		if cand.Code == "" {
			cand.Code = code
		}
		if cand.Source == "" {
			cand.Source = p.Name()
		}
		c.logger.Info("Provider resolved code",
			zap.String("provider", p.Name()),
			zap.String("code", code),
			zap.String("name", cand.Name),
			zap.Bool("has_coordinates", cand.HasCoordinates()))
		return cand, p.Name()
	}
	return nil, ""
}

// Backfill asks the coordinate-capable providers, in order and skipping
// exclude, for coordinates only. It is best effort.
func (c *Chain) Backfill(ctx context.Context, code, exclude string) (Coordinates, bool) {
	for _, p := range c.providers {
		if p.Name() == exclude || !suppliesCoordinates(p) {
			continue
		}
		cand, err := p.Resolve(ctx, code)
		if err != nil {
			c.logger.Warn("Backfill toạ độ thất bại",
				zap.String("provider", p.Name()),
				zap.String("code", code),
				zap.Error(err))
			continue
		}
		if cand == nil || !validCoordinates(cand.Latitude, cand.Longitude) {
			continue
		}
		return Coordinates{Latitude: *cand.Latitude, Longitude: *cand.Longitude, Source: p.Name()}, true
	}
	return Coordinates{}, false
}
