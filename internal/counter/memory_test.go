package counter

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func newTestMemory(t *testing.T) (*Memory, *fakeClock) {
	t.Helper()
	clock := &fakeClock{now: time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)}
	m := NewMemory(WithClock(clock.Now), WithCleanupInterval(0))
	t.Cleanup(func() { _ = m.Close() })
	return m, clock
}

func TestMemory_CountsPerKey(t *testing.T) {
	m, clock := newTestMemory(t)
	ctx := context.Background()

	for i := 1; i <= 3; i++ {
		hit, err := m.Increment(ctx, "10.0.0.1", time.Minute)
		require.NoError(t, err)
		assert.Equal(t, int64(i), hit.Count)
		assert.Equal(t, clock.Now().Add(time.Minute), hit.ResetAt)
	}

	hit, err := m.Increment(ctx, "10.0.0.2", time.Minute)
	require.NoError(t, err)
	assert.Equal(t, int64(1), hit.Count, "keys must not share counts")
	assert.Equal(t, 2, m.Len())
}

func TestMemory_WindowExpiry(t *testing.T) {
	m, clock := newTestMemory(t)
	ctx := context.Background()

	start := clock.Now()
	for i := 0; i < 5; i++ {
		_, err := m.Increment(ctx, "k", time.Minute)
		require.NoError(t, err)
	}

	// Still inside the window: the reset time does not slide.
	clock.Advance(59 * time.Second)
	hit, err := m.Increment(ctx, "k", time.Minute)
	require.NoError(t, err)
	assert.Equal(t, int64(6), hit.Count)
	assert.Equal(t, start.Add(time.Minute), hit.ResetAt)

	clock.Advance(time.Second)
	hit, err = m.Increment(ctx, "k", time.Minute)
	require.NoError(t, err)
	assert.Equal(t, int64(1), hit.Count)
	assert.Equal(t, clock.Now().Add(time.Minute), hit.ResetAt)
}

func TestMemory_ConcurrentIncrements(t *testing.T) {
	m, _ := newTestMemory(t)
	ctx := context.Background()

	const workers = 50
	const perWorker = 40

	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < perWorker; i++ {
				_, err := m.Increment(ctx, "shared", time.Minute)
				assert.NoError(t, err)
			}
		}()
	}
	wg.Wait()

	hit, err := m.Increment(ctx, "shared", time.Minute)
	require.NoError(t, err)
	assert.Equal(t, int64(workers*perWorker+1), hit.Count)
}

func TestMemory_Sweep(t *testing.T) {
	m, clock := newTestMemory(t)
	ctx := context.Background()

	_, err := m.Increment(ctx, "old", time.Second)
	require.NoError(t, err)
	_, err = m.Increment(ctx, "fresh", time.Hour)
	require.NoError(t, err)

	clock.Advance(2 * time.Second)
	m.Sweep()
	assert.Equal(t, 1, m.Len())
}

func TestMemory_SweptEntryIsNotCounted(t *testing.T) {
	m, clock := newTestMemory(t)
	ctx := context.Background()

	_, err := m.Increment(ctx, "k", time.Second)
	require.NoError(t, err)
	stale, err := m.entry("k")
	require.NoError(t, err)

	clock.Advance(2 * time.Second)
	m.Sweep()
	assert.True(t, stale.removed)

	_, err = m.Increment(ctx, "k", time.Minute)
	require.NoError(t, err)
	hit, err := m.Increment(ctx, "k", time.Minute)
	require.NoError(t, err)
	assert.Equal(t, int64(2), hit.Count)
	assert.Equal(t, int64(1), stale.count, "swept entry must not receive hits")
}

func TestMemory_SweepDuringRollover(t *testing.T) {
	m, clock := newTestMemory(t)
	ctx := context.Background()

	const rounds = 200
	const workers = 8
	for round := 0; round < rounds; round++ {
		key := fmt.Sprintf("k%d", round)
		_, err := m.Increment(ctx, key, time.Second)
		require.NoError(t, err)
		clock.Advance(2 * time.Second)

		var wg sync.WaitGroup
		for i := 0; i < workers; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				_, _ = m.Increment(ctx, key, time.Hour)
			}()
		}
		wg.Add(1)
		go func() {
			defer wg.Done()
			m.Sweep()
		}()
		wg.Wait()

		hit, err := m.Increment(ctx, key, time.Hour)
		require.NoError(t, err)
		require.Equal(t, int64(workers+1), hit.Count, "round %d", round)
	}
}

func TestMemory_Reset(t *testing.T) {
	m, _ := newTestMemory(t)
	ctx := context.Background()

	_, _ = m.Increment(ctx, "k", time.Minute)
	m.Reset()

	hit, err := m.Increment(ctx, "k", time.Minute)
	require.NoError(t, err)
	assert.Equal(t, int64(1), hit.Count)
}

func TestMemory_Closed(t *testing.T) {
	m := NewMemory(WithCleanupInterval(10 * time.Millisecond))
	require.NoError(t, m.Close())
	require.NoError(t, m.Close())

	_, err := m.Increment(context.Background(), "k", time.Minute)
	assert.ErrorIs(t, err, ErrClosed)
}
