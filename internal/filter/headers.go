package filter

import (
	"context"
	"net/http"
)

// hardeningHeaders is the fixed defensive response header set.
var hardeningHeaders = [][2]string{
	{"Content-Security-Policy", "default-src 'self';base-uri 'self';font-src 'self' https: data:;form-action 'self';frame-ancestors 'self';img-src 'self' data:;object-src 'none';script-src 'self';script-src-attr 'none';style-src 'self' https: 'unsafe-inline';upgrade-insecure-requests"},
	{"Cross-Origin-Opener-Policy", "same-origin"},
	{"Cross-Origin-Resource-Policy", "same-origin"},
	{"Origin-Agent-Cluster", "?1"},
	{"Referrer-Policy", "no-referrer"},
	{"Strict-Transport-Security", "max-age=31536000; includeSubDomains"},
	{"X-Content-Type-Options", "nosniff"},
	{"X-DNS-Prefetch-Control", "off"},
	{"X-Download-Options", "noopen"},
	{"X-Frame-Options", "SAMEORIGIN"},
	{"X-Permitted-Cross-Domain-Policies", "none"},
	{"X-XSS-Protection", "0"},
}

// ApplyHardening sets the hardening header set on h and removes
// X-Powered-By. Applying it more than once leaves h unchanged.
func ApplyHardening(h http.Header) {
	for _, kv := range hardeningHeaders {
		h.Set(kv[0], kv[1])
	}
	h.Del("X-Powered-By")
}

// HardeningHeaderNames returns the names of the headers ApplyHardening sets.
func HardeningHeaderNames() []string {
	names := make([]string, len(hardeningHeaders))
	for i, kv := range hardeningHeaders {
		names[i] = kv[0]
	}
	return names
}

// HeadersFilter applies the hardening header set. It never rejects.
type HeadersFilter struct{}

func NewHeadersFilter() *HeadersFilter { return &HeadersFilter{} }

func (f *HeadersFilter) Name() string { return "headers" }

func (f *HeadersFilter) Process(_ context.Context, fc *FilterContext) (Result, error) {
	ApplyHardening(fc.Header)
	return Proceed(), nil
}
