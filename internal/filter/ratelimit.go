package filter

import (
	"context"
	"math"
	"strconv"
	"time"

	"github.com/tkingovr/reqguard/api"
	"github.com/tkingovr/reqguard/internal/counter"
)

// Default rate limit: 100 requests per caller per minute.
const (
	DefaultRateMax    = 100
	DefaultRateWindow = 60_000 * time.Millisecond
)

// RateLimit defines a single rate limit: max requests per time window.
type RateLimit struct {
	Max    int
	Window time.Duration
}

// RateLimitFilter caps the requests a single caller address may issue
// within a fixed window. Counting is delegated to a counter.Counter so the
// state can live in process memory or in a shared store.
type RateLimitFilter struct {
	limit   RateLimit
	counter counter.Counter
}

// NewRateLimitFilter creates a new rate limit filter. Zero fields of limit
// take the defaults.
func NewRateLimitFilter(c counter.Counter, limit RateLimit) *RateLimitFilter {
	if limit.Max <= 0 {
		limit.Max = DefaultRateMax
	}
	if limit.Window <= 0 {
		limit.Window = DefaultRateWindow
	}
	return &RateLimitFilter{limit: limit, counter: c}
}

func (f *RateLimitFilter) Name() string { return "rate_limit" }

func (f *RateLimitFilter) Process(ctx context.Context, fc *FilterContext) (Result, error) {
	hit, err := f.counter.Increment(ctx, fc.ClientIP, f.limit.Window)
	if err != nil {
		return Result{}, err
	}

	remaining := int64(f.limit.Max) - hit.Count
	if remaining < 0 {
		remaining = 0
	}
	reset := secondsUntil(hit.ResetAt, time.Now())

	h := fc.Header
	h.Set("RateLimit-Limit", strconv.Itoa(f.limit.Max))
	h.Set("RateLimit-Remaining", strconv.FormatInt(remaining, 10))
	h.Set("RateLimit-Reset", strconv.Itoa(reset))

	if hit.Count > int64(f.limit.Max) {
		h.Set("Retry-After", strconv.Itoa(reset))
		return Reject(api.RateLimited()), nil
	}
	return Proceed(), nil
}

// Limit returns the effective limit.
func (f *RateLimitFilter) Limit() RateLimit { return f.limit }

func secondsUntil(t, now time.Time) int {
	d := t.Sub(now)
	if d <= 0 {
		return 0
	}
	return int(math.Ceil(d.Seconds()))
}
