package services

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)}
}

func (f *fakeClock) Now() time.Time {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.now
}

func (f *fakeClock) Set(t time.Time) {
	f.mu.Lock()
	f.now = t
	f.mu.Unlock()
}

func (f *fakeClock) Advance(d time.Duration) {
	f.mu.Lock()
	f.now = f.now.Add(d)
	f.mu.Unlock()
}

func newTestBackground(t *testing.T) *Background {
	t.Helper()
	bg := NewBackground(2, 256, time.Second, discardLogger())
	t.Cleanup(func() {
		_ = bg.Shutdown(context.Background())
	})
	return bg
}

// drain waits until every task queued so far has run.
func drain(t *testing.T, bg *Background) {
	t.Helper()
	require.Eventually(t, bg.Idle, 2*time.Second, 5*time.Millisecond)
}
