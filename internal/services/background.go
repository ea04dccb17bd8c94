package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"
)

// ErrBackgroundClosed is returned by Submit after Shutdown.
var ErrBackgroundClosed = errors.New("background pool closed")

// ErrBackgroundFull is returned by Submit when the queue has no room.
var ErrBackgroundFull = errors.New("background queue full")

type task struct {
	name string
	fn   func(ctx context.Context) error
}

// Background runs best-effort side effects (activity touches, dedup log inserts,
// rate-limit mirrors, message logs, notifications) on a bounded queue drained by a
// fixed set of workers. Results are never observed by the submitter: failures and
// panics are logged and dropped, nothing is retried.
type Background struct {
	queue   chan task
	timeout time.Duration
	log     *slog.Logger
	wg      sync.WaitGroup

	mu     sync.RWMutex
	closed bool

	outstanding atomic.Int64
	dropped     atomic.Int64
	failed      atomic.Int64
}

// NewBackground starts workers goroutines draining a queue of queueSize tasks.
// Each task runs with its own timeout context.
func NewBackground(workers, queueSize int, timeout time.Duration, log *slog.Logger) *Background {
	if workers <= 0 {
		workers = 1
	}
	if queueSize <= 0 {
		queueSize = 1
	}
	b := &Background{
		queue:   make(chan task, queueSize),
		timeout: timeout,
		log:     log,
	}
	for i := 0; i < workers; i++ {
		b.wg.Add(1)
		go b.worker()
	}
	return b
}

// Go queues fn without blocking. A full or closed queue drops the task with a warning.
func (b *Background) Go(name string, fn func(ctx context.Context) error) {
	if err := b.Submit(name, fn); err != nil {
		b.dropped.Add(1)
		b.log.Warn("background task dropped", slog.String("task", name), slog.Any("error", err))
	}
}

// Submit queues fn without blocking.
func (b *Background) Submit(name string, fn func(ctx context.Context) error) error {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.closed {
		return ErrBackgroundClosed
	}
	b.outstanding.Add(1)
	select {
	case b.queue <- task{name: name, fn: fn}:
		return nil
	default:
		b.outstanding.Add(-1)
		return ErrBackgroundFull
	}
}

func (b *Background) worker() {
	defer b.wg.Done()
	for t := range b.queue {
		b.run(t)
	}
}

func (b *Background) run(t task) {
	defer b.outstanding.Add(-1)

	ctx := context.Background()
	var cancel context.CancelFunc = func() {}
	if b.timeout > 0 {
		ctx, cancel = context.WithTimeout(ctx, b.timeout)
	}
	defer cancel()

	err := func() (err error) {
		defer func() {
			if r := recover(); r != nil {
				err = fmt.Errorf("panic: %v", r)
			}
		}()
		return t.fn(ctx)
	}()
	if err != nil {
		b.failed.Add(1)
		b.log.Error("background task failed", slog.String("task", t.name), slog.Any("error", err))
	}
}

// Shutdown stops accepting tasks and waits for queued ones until ctx is done.
func (b *Background) Shutdown(ctx context.Context) error {
	b.mu.Lock()
	if !b.closed {
		b.closed = true
		close(b.queue)
	}
	b.mu.Unlock()

	done := make(chan struct{})
	go func() {
		b.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Pending is the number of queued tasks.
func (b *Background) Pending() int { return len(b.queue) }

// Idle reports whether every accepted task has finished.
func (b *Background) Idle() bool { return b.outstanding.Load() == 0 }

// Dropped counts tasks rejected because the queue was full or closed.
func (b *Background) Dropped() int64 { return b.dropped.Load() }

// Failed counts tasks that returned an error or panicked.
func (b *Background) Failed() int64 { return b.failed.Load() }
