// Package geocode resolves project addresses to coordinates with a city-level fallback.
package geocode

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"CEQAScanner/internal/domain"
)

const (
	DefaultState       = "CA"
	DefaultMinInterval = time.Second
)

// Provider performs one geocoding lookup. found == false with a nil error
// means the provider answered with no result.
type Provider interface {
	Geocode(ctx context.Context, query string) (point domain.Coordinates, found bool, err error)
}

// Adapter owns the pacing contract: consecutive provider calls are spaced by
// at least the configured interval no matter how many callers share it.
type Adapter struct {
	provider Provider
	limiter  *rate.Limiter
	state    string
	logger   *slog.Logger
}

// Options tune an Adapter; zero values take the defaults.
type Options struct {
	State       string
	MinInterval time.Duration
}

// NewAdapter wraps provider with a one-call-per-interval limiter.
func NewAdapter(provider Provider, opts Options, log *slog.Logger) *Adapter {
	if opts.State == "" {
		opts.State = DefaultState
	}
	if opts.MinInterval <= 0 {
		opts.MinInterval = DefaultMinInterval
	}
	return &Adapter{
		provider: provider,
		limiter:  rate.NewLimiter(rate.Every(opts.MinInterval), 1),
		state:    opts.State,
		logger:   log,
	}
}

// Locate tries the full address, then the city alone. Provider faults are
// logged and reported as absence.
func (a *Adapter) Locate(ctx context.Context, address, city, county string) *domain.Coordinates {
	if a == nil || a.provider == nil || strings.TrimSpace(address) == "" {
		return nil
	}

	point, found, err := a.lookup(ctx, FullQuery(address, city, county, a.state))
	if err != nil {
		a.warn("geocoding failed", "address", address, "error", err)
		return nil
	}
	if found {
		a.debug("geocoded", "address", address, "tier", "address")
		return &point
	}

	if strings.TrimSpace(city) == "" {
		return nil
	}

	point, found, err = a.lookup(ctx, CityQuery(city, a.state))
	if err != nil {
		a.warn("city geocoding failed", "city", city, "error", err)
		return nil
	}
	if !found {
		return nil
	}
	a.debug("geocoded", "address", address, "tier", "city")
	return &point
}

func (a *Adapter) lookup(ctx context.Context, query string) (domain.Coordinates, bool, error) {
	if err := a.limiter.Wait(ctx); err != nil {
		return domain.Coordinates{}, false, fmt.Errorf("wait for geocoder slot: %w", err)
	}
	return a.provider.Geocode(ctx, query)
}

// FullQuery formats "address, city, county County, state".
func FullQuery(address, city, county, state string) string {
	return fmt.Sprintf("%s, %s, %s County, %s", address, city, county, state)
}

// CityQuery formats "city, state".
func CityQuery(city, state string) string {
	return fmt.Sprintf("%s, %s", city, state)
}

func (a *Adapter) warn(msg string, args ...any) {
	if a.logger != nil {
		a.logger.Warn(msg, args...)
	}
}

func (a *Adapter) debug(msg string, args ...any) {
	if a.logger != nil {
		a.logger.Debug(msg, args...)
	}
}
