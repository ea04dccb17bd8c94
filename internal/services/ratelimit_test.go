package services

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/waorder/internal/database"
)

func newTestLimiter(t *testing.T, limit int) (*RateLimiter, *fakeClock, *database.MemoryStore, *Background) {
	t.Helper()
	store := database.NewMemoryStore()
	bg := newTestBackground(t)
	clock := newFakeClock()
	rl := NewRateLimiter(limit, time.Minute, store, bg, discardLogger())
	rl.now = clock.Now
	return rl, clock, store, bg
}

func TestRateLimiter_WindowCorrectness(t *testing.T) {
	rl, clock, _, _ := newTestLimiter(t, 30)
	clock.Set(time.Date(2025, 3, 1, 10, 0, 5, 0, time.UTC))

	for i := 1; i <= 30; i++ {
		allowed, remaining := rl.Check("923001")
		require.True(t, allowed, "request %d", i)
		assert.Equal(t, 30-i, remaining)
		clock.Advance(time.Second)
	}

	allowed, remaining := rl.Check("923001")
	assert.False(t, allowed)
	assert.Zero(t, remaining)

	clock.Set(time.Date(2025, 3, 1, 10, 1, 0, 0, time.UTC))
	allowed, remaining = rl.Check("923001")
	assert.True(t, allowed, "first request of a new window always passes")
	assert.Equal(t, 29, remaining)
}

func TestRateLimiter_DeniedRequestsDoNotAccumulate(t *testing.T) {
	rl, _, _, _ := newTestLimiter(t, 2)

	rl.Check("a")
	rl.Check("a")
	for i := 0; i < 5; i++ {
		allowed, _ := rl.Check("a")
		assert.False(t, allowed)
	}
	assert.Equal(t, 2, rl.windows["a"].count)
}

func TestRateLimiter_BoundariesAreClockAligned(t *testing.T) {
	rl, clock, _, _ := newTestLimiter(t, 1)

	clock.Set(time.Date(2025, 3, 1, 10, 0, 59, 0, time.UTC))
	allowedA, _ := rl.Check("a")
	require.True(t, allowedA)

	clock.Set(time.Date(2025, 3, 1, 10, 1, 0, 0, time.UTC))
	allowedA, _ = rl.Check("a")
	allowedB, _ := rl.Check("b")
	assert.True(t, allowedA, "a new minute opens a new window regardless of arrival time")
	assert.True(t, allowedB)

	assert.Equal(t, rl.windows["a"].start, rl.windows["b"].start)
}

func TestRateLimiter_SendersIndependent(t *testing.T) {
	rl, _, _, _ := newTestLimiter(t, 1)

	allowed, _ := rl.Check("a")
	require.True(t, allowed)
	allowed, _ = rl.Check("a")
	require.False(t, allowed)

	allowed, remaining := rl.Check("b")
	assert.True(t, allowed)
	assert.Zero(t, remaining)
}

func TestRateLimiter_MirrorsToStore(t *testing.T) {
	rl, _, store, bg := newTestLimiter(t, 5)

	rl.Check("923001")
	rl.Check("923001")
	rl.Check("923001")
	drain(t, bg)

	windows := store.RateWindows("923001")
	require.Len(t, windows, 1)
	assert.Equal(t, 3, windows[0].RequestCount)
	assert.Equal(t, time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC), windows[0].WindowStart)
}

func TestRateLimiter_Sweep(t *testing.T) {
	rl, clock, _, _ := newTestLimiter(t, 5)

	rl.Check("old")
	clock.Advance(2 * time.Minute)
	rl.Check("fresh")

	assert.Equal(t, 1, rl.Sweep())
	assert.Equal(t, 1, rl.Len())
	_, ok := rl.windows["fresh"]
	assert.True(t, ok)
}

func TestRateLimiter_ConcurrentChecks(t *testing.T) {
	rl, _, _, _ := newTestLimiter(t, 30)

	var allowed atomic.Int32
	var wg sync.WaitGroup
	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if ok, _ := rl.Check("923001"); ok {
				allowed.Add(1)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(30), allowed.Load())
}

func TestRateLimiter_RunStopsWithContext(t *testing.T) {
	rl, _, _, _ := newTestLimiter(t, 5)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		rl.Run(ctx, time.Millisecond)
		close(done)
	}()

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Run did not return after cancel")
	}
}
