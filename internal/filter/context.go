package filter

import (
	"context"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/tkingovr/reqguard/api"
)

// FilterContext carries a single request and its decision through the
// filter chain.
type FilterContext struct {
	// Request is the inbound request.
	Request *http.Request

	// ClientIP is the caller address used as the geo lookup input and the
	// rate counter key.
	ClientIP string

	// Country is set by the geo filter.
	Country string

	// Header collects response headers added by filters.
	Header http.Header

	// Outcome is set when the chain finishes. Empty while pending.
	Outcome api.Outcome

	// Failure is set when a filter rejected the request.
	Failure *api.Failure

	// Status is the direct response status when a filter responded.
	Status int

	// HaltedBy names the filter that rejected or responded.
	HaltedBy string

	// StartTime records when the request entered the pipeline.
	StartTime time.Time

	body *bodySnapshot
}

// NewFilterContext creates a new FilterContext for r.
func NewFilterContext(r *http.Request, clientIP string) *FilterContext {
	return &FilterContext{
		Request:   r,
		ClientIP:  clientIP,
		Header:    make(http.Header),
		StartTime: time.Now(),
	}
}

// Halted reports whether a filter stopped the chain.
func (fc *FilterContext) Halted() bool {
	return fc.Outcome == api.OutcomeRejected || fc.Outcome == api.OutcomePreflight
}

// ResponseStatus is the status code the caller receives for a halted
// request, or 0 when the request was accepted.
func (fc *FilterContext) ResponseStatus() int {
	switch fc.Outcome {
	case api.OutcomeRejected:
		return fc.Failure.Status()
	case api.OutcomePreflight:
		return fc.Status
	}
	return 0
}

// CopyHeaders sets every collected header on dst, replacing existing values.
func (fc *FilterContext) CopyHeaders(dst http.Header) {
	for k, v := range fc.Header {
		dst[k] = append([]string(nil), v...)
	}
}

// ToAuditRecord converts the filter context into an audit record.
func (fc *FilterContext) ToAuditRecord() *api.AuditRecord {
	rec := &api.AuditRecord{
		Timestamp: fc.StartTime,
		Method:    fc.Request.Method,
		ClientIP:  fc.ClientIP,
		Country:   fc.Country,
		Outcome:   fc.Outcome,
		Filter:    fc.HaltedBy,
		Status:    fc.ResponseStatus(),
		Duration:  time.Since(fc.StartTime),
	}
	if fc.Request.URL != nil {
		rec.Path = fc.Request.URL.Path
	}
	if fc.Failure != nil {
		rec.Message = fc.Failure.Message
	}
	return rec
}

type ctxKey struct{}

// WithContext returns a copy of ctx carrying fc.
func WithContext(ctx context.Context, fc *FilterContext) context.Context {
	return context.WithValue(ctx, ctxKey{}, fc)
}

// FromContext returns the FilterContext stored in ctx, if any.
func FromContext(ctx context.Context) (*FilterContext, bool) {
	fc, ok := ctx.Value(ctxKey{}).(*FilterContext)
	return fc, ok
}

// ClientIP extracts the caller address from r. With trustProxy set, the
// first X-Forwarded-For hop wins; otherwise the transport peer address is
// used.
func ClientIP(r *http.Request, trustProxy bool) string {
	if trustProxy {
		if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
			first, _, _ := strings.Cut(xff, ",")
			if ip := strings.TrimSpace(first); ip != "" {
				return stripPort(ip)
			}
		}
	}
	return stripPort(r.RemoteAddr)
}

func stripPort(addr string) string {
	if host, _, err := net.SplitHostPort(addr); err == nil {
		return host
	}
	return strings.Trim(addr, "[]")
}
