// Package counter provides keyed request counters with a fixed window per key,
// used by the rate gate to track how many requests a caller issued.
package counter

import (
	"context"
	"errors"
	"time"
)

// ErrClosed is returned by Increment after Close.
var ErrClosed = errors.New("counter: closed")

// Hit is the state of a key after an increment.
type Hit struct {
	// Count is the number of increments in the current window, this one included.
	Count int64

	// ResetAt is when the current window ends and the count starts over.
	ResetAt time.Time
}

// Counter defines the interface for per-key windowed counting.
type Counter interface {
	// Increment adds one to key's count. A key whose window has elapsed
	// starts a new window of the given length with a count of one.
	Increment(ctx context.Context, key string, window time.Duration) (Hit, error)

	// Close releases resources held by the counter.
	Close() error
}
