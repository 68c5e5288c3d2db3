package counter

import (
	"context"
	"sync"
	"time"
)

const defaultCleanupInterval = 5 * time.Minute

type windowEntry struct {
	mu      sync.Mutex
	count   int64
	resetAt time.Time
	removed bool
}

// Memory is an in-process fixed-window counter. Expired windows are swept
// periodically so idle callers do not accumulate.
type Memory struct {
	mu      sync.RWMutex
	entries map[string]*windowEntry
	now     func() time.Time
	closed  bool

	cleanupInterval time.Duration
	stop            chan struct{}
	done            chan struct{}
}

// MemoryOption configures a Memory counter.
type MemoryOption func(*Memory)

// WithClock overrides the time source (useful for testing).
func WithClock(now func() time.Time) MemoryOption {
	return func(m *Memory) { m.now = now }
}

// WithCleanupInterval sets how often expired windows are removed.
// A non-positive interval disables the background sweep.
func WithCleanupInterval(d time.Duration) MemoryOption {
	return func(m *Memory) { m.cleanupInterval = d }
}

// NewMemory creates an in-memory counter.
func NewMemory(opts ...MemoryOption) *Memory {
	m := &Memory{
		entries:         make(map[string]*windowEntry),
		now:             time.Now,
		cleanupInterval: defaultCleanupInterval,
		stop:            make(chan struct{}),
		done:            make(chan struct{}),
	}
	for _, opt := range opts {
		opt(m)
	}
	if m.cleanupInterval > 0 {
		go m.cleanupLoop()
	} else {
		close(m.done)
	}
	return m
}

func (m *Memory) Increment(_ context.Context, key string, window time.Duration) (Hit, error) {
	now := m.now()

	for {
		e, err := m.entry(key)
		if err != nil {
			return Hit{}, err
		}

		e.mu.Lock()
		if e.removed {
			// Swept between lookup and lock; count on the live entry.
			e.mu.Unlock()
			continue
		}
		if !now.Before(e.resetAt) {
			e.count = 0
			e.resetAt = now.Add(window)
		}
		e.count++
		hit := Hit{Count: e.count, ResetAt: e.resetAt}
		e.mu.Unlock()
		return hit, nil
	}
}

func (m *Memory) entry(key string) (*windowEntry, error) {
	m.mu.RLock()
	closed := m.closed
	e, ok := m.entries[key]
	m.mu.RUnlock()
	if closed {
		return nil, ErrClosed
	}
	if ok {
		return e, nil
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	// Double-check after acquiring write lock
	if e, ok = m.entries[key]; !ok {
		e = &windowEntry{}
		m.entries[key] = e
	}
	return e, nil
}

// Len returns the number of tracked keys.
func (m *Memory) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.entries)
}

// Sweep removes every key whose window has ended.
func (m *Memory) Sweep() {
	now := m.now()

	m.mu.Lock()
	defer m.mu.Unlock()
	for key, e := range m.entries {
		e.mu.Lock()
		if !now.Before(e.resetAt) {
			e.removed = true
			delete(m.entries, key)
		}
		e.mu.Unlock()
	}
}

// Reset clears all windows.
func (m *Memory) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, e := range m.entries {
		e.mu.Lock()
		e.removed = true
		e.mu.Unlock()
	}
	m.entries = make(map[string]*windowEntry)
}

func (m *Memory) Close() error {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return nil
	}
	m.closed = true
	m.mu.Unlock()

	if m.cleanupInterval > 0 {
		close(m.stop)
	}
	<-m.done
	return nil
}

func (m *Memory) cleanupLoop() {
	defer close(m.done)

	ticker := time.NewTicker(m.cleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			m.Sweep()
		case <-m.stop:
			return
		}
	}
}
