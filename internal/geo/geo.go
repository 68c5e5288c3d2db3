// Package geo resolves caller addresses to country codes and holds the
// country allow-list consulted by the geographic gate.
package geo

import (
	"net/netip"
	"strings"
)

// Localhost is the sentinel country for loopback callers.
const Localhost = "localhost"

// DefaultCountries is the allow-list used when none is configured.
var DefaultCountries = []string{"US", "CA", "MX", "EG", Localhost}

// Resolver maps an IP address to an ISO 3166-1 alpha-2 country code.
// An empty code with a nil error means the address has no known country.
type Resolver interface {
	Lookup(addr netip.Addr) (string, error)
}

// ResolverFunc adapts a function to the Resolver interface.
type ResolverFunc func(addr netip.Addr) (string, error)

func (f ResolverFunc) Lookup(addr netip.Addr) (string, error) { return f(addr) }

// CountrySet is an immutable allow-list of country codes.
type CountrySet struct {
	codes map[string]struct{}
}

// NewCountrySet builds a set from codes. Codes are matched
// case-insensitively; the localhost sentinel is kept as is.
func NewCountrySet(codes ...string) CountrySet {
	s := CountrySet{codes: make(map[string]struct{}, len(codes))}
	for _, c := range codes {
		c = normalize(c)
		if c == "" {
			continue
		}
		s.codes[c] = struct{}{}
	}
	return s
}

// Contains reports whether code is allowed. The empty code (no country) is
// never allowed.
func (s CountrySet) Contains(code string) bool {
	code = normalize(code)
	if code == "" {
		return false
	}
	_, ok := s.codes[code]
	return ok
}

// Codes returns the members in no particular order.
func (s CountrySet) Codes() []string {
	out := make([]string, 0, len(s.codes))
	for c := range s.codes {
		out = append(out, c)
	}
	return out
}

// Len returns the number of members.
func (s CountrySet) Len() int { return len(s.codes) }

func normalize(code string) string {
	code = strings.TrimSpace(code)
	if strings.EqualFold(code, Localhost) {
		return Localhost
	}
	return strings.ToUpper(code)
}

// IsLoopbackLiteral reports whether host is one of the loopback literals
// that map to the localhost sentinel.
func IsLoopbackLiteral(host string) bool {
	return host == "::1" || host == "127.0.0.1"
}

// Chain tries each resolver in order and returns the first country found.
// Errors from earlier resolvers are only returned when no later resolver
// produced a match.
type Chain []Resolver

func (c Chain) Lookup(addr netip.Addr) (string, error) {
	var firstErr error
	for _, r := range c {
		code, err := r.Lookup(addr)
		if err != nil {
			if firstErr == nil {
				firstErr = err
			}
			continue
		}
		if code != "" {
			return code, nil
		}
	}
	return "", firstErr
}
