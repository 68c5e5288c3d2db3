package filter

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tkingovr/reqguard/api"
	"github.com/tkingovr/reqguard/internal/counter"
)

func newTestCounter(t *testing.T) *counter.Memory {
	t.Helper()
	c := counter.NewMemory(counter.WithCleanupInterval(0))
	t.Cleanup(func() { _ = c.Close() })
	return c
}

func TestRateLimiter_PerCallerLimit(t *testing.T) {
	f := NewRateLimitFilter(newTestCounter(t), RateLimit{Max: 3, Window: time.Minute})

	for i := 0; i < 3; i++ {
		fc := newTestContext(http.MethodGet, "", "203.0.113.1")
		res, err := f.Process(context.Background(), fc)
		require.NoError(t, err)
		assert.Equal(t, ActionProceed, res.Action, "request %d should not be rate limited", i+1)
	}

	// 4th request should be denied
	fc := newTestContext(http.MethodGet, "", "203.0.113.1")
	res, err := f.Process(context.Background(), fc)
	require.NoError(t, err)
	require.Equal(t, ActionReject, res.Action)
	assert.Equal(t, api.RateLimited(), res.Failure)
	assert.Equal(t, http.StatusTooManyRequests, res.Failure.Code)
	assert.NotEmpty(t, fc.Header.Get("Retry-After"))
	assert.Equal(t, "0", fc.Header.Get("RateLimit-Remaining"))

	// Another caller has its own window.
	fc = newTestContext(http.MethodGet, "", "203.0.113.2")
	res, err = f.Process(context.Background(), fc)
	require.NoError(t, err)
	assert.Equal(t, ActionProceed, res.Action)
}

func TestRateLimiter_Defaults(t *testing.T) {
	f := NewRateLimitFilter(newTestCounter(t), RateLimit{})
	assert.Equal(t, RateLimit{Max: 100, Window: 60 * time.Second}, f.Limit())

	for i := 1; i <= 100; i++ {
		fc := newTestContext(http.MethodGet, "", "203.0.113.1")
		res, err := f.Process(context.Background(), fc)
		require.NoError(t, err)
		require.Equal(t, ActionProceed, res.Action, "request %d", i)
	}

	fc := newTestContext(http.MethodGet, "", "203.0.113.1")
	res, err := f.Process(context.Background(), fc)
	require.NoError(t, err)
	assert.Equal(t, ActionReject, res.Action, "the 101st request is limited")
}

func TestRateLimiter_Headers(t *testing.T) {
	f := NewRateLimitFilter(newTestCounter(t), RateLimit{Max: 10, Window: time.Minute})

	fc := newTestContext(http.MethodGet, "", "203.0.113.1")
	_, err := f.Process(context.Background(), fc)
	require.NoError(t, err)

	assert.Equal(t, "10", fc.Header.Get("RateLimit-Limit"))
	assert.Equal(t, "9", fc.Header.Get("RateLimit-Remaining"))
	assert.Equal(t, "60", fc.Header.Get("RateLimit-Reset"))
	assert.Empty(t, fc.Header.Get("Retry-After"))
}

func TestRateLimiter_WindowExpiry(t *testing.T) {
	f := NewRateLimitFilter(newTestCounter(t), RateLimit{Max: 1, Window: 50 * time.Millisecond})

	fc := newTestContext(http.MethodGet, "", "203.0.113.1")
	res, _ := f.Process(context.Background(), fc)
	assert.Equal(t, ActionProceed, res.Action, "first request should be allowed")

	fc = newTestContext(http.MethodGet, "", "203.0.113.1")
	res, _ = f.Process(context.Background(), fc)
	assert.Equal(t, ActionReject, res.Action, "second request should be rate limited")

	// Wait for window to expire
	time.Sleep(60 * time.Millisecond)

	fc = newTestContext(http.MethodGet, "", "203.0.113.1")
	res, _ = f.Process(context.Background(), fc)
	assert.Equal(t, ActionProceed, res.Action, "request after window expiry should be allowed")
}

func TestRateLimiter_Concurrent(t *testing.T) {
	f := NewRateLimitFilter(newTestCounter(t), RateLimit{Max: 100, Window: time.Minute})

	var allowed, rejected atomic.Int64
	var wg sync.WaitGroup
	for i := 0; i < 150; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			fc := newTestContext(http.MethodGet, "", "203.0.113.1")
			res, err := f.Process(context.Background(), fc)
			assert.NoError(t, err)
			if res.Action == ActionProceed {
				allowed.Add(1)
			} else {
				rejected.Add(1)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, int64(100), allowed.Load())
	assert.Equal(t, int64(50), rejected.Load())
}

type brokenCounter struct{}

func (brokenCounter) Increment(context.Context, string, time.Duration) (counter.Hit, error) {
	return counter.Hit{}, errors.New("connection refused")
}

func (brokenCounter) Close() error { return nil }

func TestRateLimiter_CounterError(t *testing.T) {
	f := NewRateLimitFilter(brokenCounter{}, RateLimit{})

	fc := newTestContext(http.MethodGet, "", "203.0.113.1")
	_, err := f.Process(context.Background(), fc)
	require.Error(t, err)
}

func TestSecondsUntil(t *testing.T) {
	now := time.Now()
	assert.Equal(t, 0, secondsUntil(now.Add(-time.Second), now))
	assert.Equal(t, 1, secondsUntil(now.Add(100*time.Millisecond), now))
	assert.Equal(t, 60, secondsUntil(now.Add(time.Minute), now))
}
