package filter

import (
	"context"
	"log/slog"
	"net/netip"

	"github.com/tkingovr/reqguard/api"
	"github.com/tkingovr/reqguard/internal/geo"
)

// GeoFilter rejects callers whose country is not in the allow-list.
// Loopback callers are the "localhost" country; an address the resolver
// cannot place has no country and is rejected.
type GeoFilter struct {
	allowed  geo.CountrySet
	resolver geo.Resolver
	logger   *slog.Logger
}

func NewGeoFilter(allowed geo.CountrySet, resolver geo.Resolver, logger *slog.Logger) *GeoFilter {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &GeoFilter{allowed: allowed, resolver: resolver, logger: logger}
}

func (f *GeoFilter) Name() string { return "geo" }

func (f *GeoFilter) Process(_ context.Context, fc *FilterContext) (Result, error) {
	fc.Country = f.country(fc.ClientIP)
	if !f.allowed.Contains(fc.Country) {
		return Reject(api.AccessDenied()), nil
	}
	return Proceed(), nil
}

func (f *GeoFilter) country(ip string) string {
	if geo.IsLoopbackLiteral(ip) {
		return geo.Localhost
	}
	if f.resolver == nil {
		return ""
	}
	addr, err := netip.ParseAddr(ip)
	if err != nil {
		return ""
	}
	code, err := f.resolver.Lookup(addr)
	if err != nil {
		f.logger.Warn("geo lookup failed", "client_ip", ip, "error", err)
		return ""
	}
	return code
}
