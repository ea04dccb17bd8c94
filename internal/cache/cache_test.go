package cache

import (
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

func (f *fakeClock) Now() time.Time {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.now
}

func (f *fakeClock) Advance(d time.Duration) {
	f.mu.Lock()
	f.now = f.now.Add(d)
	f.mu.Unlock()
}

func newTestCache(ttl time.Duration) (*Cache[string], *fakeClock) {
	clock := &fakeClock{now: time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)}
	return New[string](ttl, WithClock[string](clock.Now)), clock
}

func TestCache_Expiry(t *testing.T) {
	c, clock := newTestCache(time.Minute)

	c.SetWithTTL("k", "v", 10*time.Second)

	clock.Advance(9*time.Second + 999*time.Millisecond)
	v, ok := c.Get("k")
	require.True(t, ok)
	assert.Equal(t, "v", v)

	clock.Advance(time.Millisecond)
	_, ok = c.Get("k")
	assert.False(t, ok, "entry must be absent exactly at its expiry instant")
	assert.Equal(t, 0, c.Len(), "expired entry is evicted on read")
}

func TestCache_DefaultTTL(t *testing.T) {
	c, clock := newTestCache(5 * time.Second)

	c.Set("a", "1")
	c.SetWithTTL("b", "2", 0)

	clock.Advance(4 * time.Second)
	_, okA := c.Get("a")
	_, okB := c.Get("b")
	assert.True(t, okA)
	assert.True(t, okB)

	clock.Advance(time.Second)
	_, okA = c.Get("a")
	_, okB = c.Get("b")
	assert.False(t, okA)
	assert.False(t, okB)
}

func TestCache_OverwriteExtendsExpiry(t *testing.T) {
	c, clock := newTestCache(time.Minute)

	c.SetWithTTL("k", "old", time.Second)
	clock.Advance(500 * time.Millisecond)
	c.SetWithTTL("k", "new", time.Second)
	clock.Advance(700 * time.Millisecond)

	v, ok := c.Get("k")
	require.True(t, ok)
	assert.Equal(t, "new", v)
}

func TestCache_DeleteAndClear(t *testing.T) {
	c, _ := newTestCache(time.Minute)

	c.Set("a", "1")
	c.Set("b", "2")
	c.Delete("a")
	c.Delete("missing")

	_, ok := c.Get("a")
	assert.False(t, ok)
	assert.Equal(t, 1, c.Len())

	c.Clear()
	_, ok = c.Get("b")
	assert.False(t, ok)
	assert.Equal(t, 0, c.Len())
}

func TestCache_ConcurrentAccess(t *testing.T) {
	c := New[int](time.Minute)

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			key := fmt.Sprintf("k%d", i%5)
			c.Set(key, i)
			c.Get(key)
			if i%7 == 0 {
				c.Delete(key)
			}
		}(i)
	}
	wg.Wait()

	assert.LessOrEqual(t, c.Len(), 5)
}

func TestCache_Add(t *testing.T) {
	c, clock := newTestCache(time.Minute)

	assert.True(t, c.Add("k", "first", time.Second))
	assert.False(t, c.Add("k", "second", time.Second))

	v, _ := c.Get("k")
	assert.Equal(t, "first", v)

	clock.Advance(time.Second)
	assert.True(t, c.Add("k", "third", time.Second), "an expired entry can be replaced")
}

func TestCache_AddSingleWinner(t *testing.T) {
	c := New[int](time.Minute)

	var wins int32
	var mu sync.Mutex
	var wg sync.WaitGroup
	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			if c.Add("same", i, time.Minute) {
				mu.Lock()
				wins++
				mu.Unlock()
			}
		}(i)
	}
	wg.Wait()

	assert.Equal(t, int32(1), wins)
}
