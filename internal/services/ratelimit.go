package services

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/example/waorder/internal/database"
	"github.com/example/waorder/internal/models"
)

type rateWindow struct {
	start time.Time
	count int
}

// RateLimiter counts requests per sender in fixed, clock-aligned windows.
// Decisions come from memory only; every allowed request is mirrored to the store in
// the background for observability.
type RateLimiter struct {
	mu        sync.Mutex
	windows   map[string]*rateWindow
	limit     int
	window    time.Duration
	retention time.Duration
	store     database.Store
	bg        *Background
	now       func() time.Time
	log       *slog.Logger
}

// RateLimiterOption configures a RateLimiter.
type RateLimiterOption func(*RateLimiter)

// WithRateClock replaces time.Now as the limiter's clock.
func WithRateClock(now func() time.Time) RateLimiterOption {
	return func(r *RateLimiter) { r.now = now }
}

// NewRateLimiter allows limit requests per sender in each window.
func NewRateLimiter(limit int, window time.Duration, store database.Store, bg *Background, log *slog.Logger, opts ...RateLimiterOption) *RateLimiter {
	r := &RateLimiter{
		windows:   make(map[string]*rateWindow),
		limit:     limit,
		window:    window,
		retention: window,
		store:     store,
		bg:        bg,
		now:       time.Now,
		log:       log,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Limit is the number of requests allowed per window.
func (r *RateLimiter) Limit() int { return r.limit }

// windowStart truncates t to the window grid, so boundaries depend only on the clock.
func (r *RateLimiter) windowStart(t time.Time) time.Time {
	return t.UTC().Truncate(r.window)
}

// Check counts one request from sender and reports whether it is allowed and how many
// requests remain in the current window.
func (r *RateLimiter) Check(sender string) (bool, int) {
	start := r.windowStart(r.now())

	r.mu.Lock()
	w, ok := r.windows[sender]
	if !ok || w.start.Before(start) {
		w = &rateWindow{start: start}
		r.windows[sender] = w
	}
	if w.count >= r.limit {
		r.mu.Unlock()
		return false, 0
	}
	w.count++
	count := w.count
	r.mu.Unlock()

	r.mirror(sender, start, count)
	return true, r.limit - count
}

func (r *RateLimiter) mirror(sender string, start time.Time, count int) {
	if r.store == nil || r.bg == nil {
		return
	}
	record := &models.RateWindow{WaID: sender, WindowStart: start, RequestCount: count}
	r.bg.Go("ratelimit.mirror", func(ctx context.Context) error {
		return r.store.UpsertRateWindow(ctx, record)
	})
}

// Sweep drops windows that ended more than the retention horizon ago and returns how
// many were removed.
func (r *RateLimiter) Sweep() int {
	cutoff := r.windowStart(r.now()).Add(-r.retention)

	r.mu.Lock()
	defer r.mu.Unlock()
	removed := 0
	for sender, w := range r.windows {
		if !w.start.After(cutoff) {
			delete(r.windows, sender)
			removed++
		}
	}
	return removed
}

// Run sweeps on every interval until ctx is done.
func (r *RateLimiter) Run(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = time.Hour
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if removed := r.Sweep(); removed > 0 {
				r.log.Debug("rate limit windows swept", slog.Int("removed", removed))
			}
		}
	}
}

// Len is the number of senders with a live window.
func (r *RateLimiter) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.windows)
}
