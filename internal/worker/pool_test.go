package worker

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPool_RunsEverySubmittedTask(t *testing.T) {
	pool := NewPool("test", 3)
	ctx := context.Background()
	pool.Start(ctx)

	var done int64
	for i := 0; i < 50; i++ {
		require.NoError(t, pool.Submit(ctx, func(context.Context) error {
			atomic.AddInt64(&done, 1)
			return nil
		}))
	}

	pool.Stop()
	assert.Equal(t, int64(50), atomic.LoadInt64(&done))
}

func TestPool_SubmitHonoursContext(t *testing.T) {
	pool := NewPool("test", 1) // not started, so the buffer of 2 fills up
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	noop := func(context.Context) error { return nil }
	require.NoError(t, pool.Submit(ctx, noop))
	require.NoError(t, pool.Submit(ctx, noop))

	assert.ErrorIs(t, pool.Submit(ctx, noop), context.DeadlineExceeded)
}

func TestPool_SurvivesPanickingTask(t *testing.T) {
	pool := NewPool("test", 1)
	ctx := context.Background()
	pool.Start(ctx)

	var done int64
	require.NoError(t, pool.Submit(ctx, func(context.Context) error { panic("boom") }))
	require.NoError(t, pool.Submit(ctx, func(context.Context) error {
		atomic.AddInt64(&done, 1)
		return nil
	}))

	pool.Stop()
	assert.Equal(t, int64(1), atomic.LoadInt64(&done))
}

func TestPool_DrainsQueuedTasksAfterCancel(t *testing.T) {
	pool := NewPool("test", 1)
	ctx, cancel := context.WithCancel(context.Background())
	pool.Start(ctx)

	release := make(chan struct{})
	started := make(chan struct{})
	var ran, cancelled int64
	record := func(ctx context.Context) error {
		atomic.AddInt64(&ran, 1)
		if ctx.Err() != nil {
			atomic.AddInt64(&cancelled, 1)
		}
		return nil
	}

	require.NoError(t, pool.Submit(ctx, func(ctx context.Context) error {
		close(started)
		<-release
		return record(ctx)
	}))
	<-started
	require.NoError(t, pool.Submit(ctx, record))
	require.NoError(t, pool.Submit(ctx, record))

	cancel()
	close(release)
	pool.Stop()

	assert.Equal(t, int64(3), atomic.LoadInt64(&ran))
	assert.Equal(t, int64(0), atomic.LoadInt64(&cancelled))
}

func TestPool_SubmitAfterStop(t *testing.T) {
	pool := NewPool("test", 1)
	pool.Start(context.Background())
	pool.Stop()

	err := pool.Submit(context.Background(), func(context.Context) error { return nil })
	assert.ErrorIs(t, err, ErrPoolStopped)
}

func TestPool_StopIsIdempotent(t *testing.T) {
	pool := NewPool("test", 2)
	pool.Start(context.Background())
	pool.Stop()
	assert.NotPanics(t, pool.Stop)
}
