package services

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBackground_RunsTasks(t *testing.T) {
	bg := newTestBackground(t)

	var ran atomic.Int32
	for i := 0; i < 20; i++ {
		bg.Go("count", func(context.Context) error {
			ran.Add(1)
			return nil
		})
	}

	drain(t, bg)
	assert.Equal(t, int32(20), ran.Load())
	assert.Zero(t, bg.Failed())
}

func TestBackground_SwallowsErrorsAndPanics(t *testing.T) {
	bg := newTestBackground(t)

	bg.Go("fails", func(context.Context) error { return errors.New("store down") })
	bg.Go("panics", func(context.Context) error { panic("boom") })

	var ran atomic.Bool
	bg.Go("after", func(context.Context) error {
		ran.Store(true)
		return nil
	})

	drain(t, bg)
	assert.True(t, ran.Load(), "a failing task must not stop the workers")
	assert.Equal(t, int64(2), bg.Failed())
}

func TestBackground_DropsWhenFull(t *testing.T) {
	bg := NewBackground(1, 1, time.Second, discardLogger())

	started := make(chan struct{})
	release := make(chan struct{})
	require.NoError(t, bg.Submit("blocker", func(context.Context) error {
		close(started)
		<-release
		return nil
	}))
	<-started

	require.NoError(t, bg.Submit("queued", func(context.Context) error { return nil }))
	assert.ErrorIs(t, bg.Submit("overflow", func(context.Context) error { return nil }), ErrBackgroundFull)

	bg.Go("overflow", func(context.Context) error { return nil })
	assert.Equal(t, int64(1), bg.Dropped())

	close(release)
	require.NoError(t, bg.Shutdown(context.Background()))
	assert.True(t, bg.Idle())
}

func TestBackground_TaskTimeout(t *testing.T) {
	bg := NewBackground(1, 4, 20*time.Millisecond, discardLogger())
	defer bg.Shutdown(context.Background())

	var deadline atomic.Bool
	bg.Go("slow", func(ctx context.Context) error {
		<-ctx.Done()
		deadline.Store(errors.Is(ctx.Err(), context.DeadlineExceeded))
		return ctx.Err()
	})

	drain(t, bg)
	assert.True(t, deadline.Load())
}

func TestBackground_SubmitAfterShutdown(t *testing.T) {
	bg := NewBackground(1, 4, time.Second, discardLogger())
	require.NoError(t, bg.Shutdown(context.Background()))

	assert.ErrorIs(t, bg.Submit("late", func(context.Context) error { return nil }), ErrBackgroundClosed)
	require.NoError(t, bg.Shutdown(context.Background()), "shutdown is idempotent")
}
