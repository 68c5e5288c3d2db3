package filter

import (
	"log/slog"

	"github.com/tkingovr/reqguard/internal/counter"
	"github.com/tkingovr/reqguard/internal/geo"
)

// ChainConfig holds the configuration for building the request chain.
type ChainConfig struct {
	Logger       *slog.Logger
	MaxBodyBytes int64
	Countries    geo.CountrySet
	Resolver     geo.Resolver
	Counter      counter.Counter
	RateLimit    RateLimit
}

// BuildChain constructs the request chain in its fixed order:
// cors → body_shape → size → geo → rate_limit → headers.
// A nil Counter gets an in-memory one without background cleanup.
func BuildChain(cfg ChainConfig) *Chain {
	c := cfg.Counter
	if c == nil {
		c = counter.NewMemory(counter.WithCleanupInterval(0))
	}
	countries := cfg.Countries
	if countries.Len() == 0 {
		countries = geo.NewCountrySet(geo.DefaultCountries...)
	}

	return NewChain(cfg.Logger,
		NewCORSFilter(),
		NewBodyFilter(),
		NewSizeFilter(cfg.MaxBodyBytes),
		NewGeoFilter(countries, cfg.Resolver, cfg.Logger),
		NewRateLimitFilter(c, cfg.RateLimit),
		NewHeadersFilter(),
	)
}
