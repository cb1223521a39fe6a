package core

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestImportLimiter_AcquireRelease(t *testing.T) {
	limiter := NewImportLimiter(2, time.Second)
	ctx := context.Background()

	assert.Equal(t, 0, limiter.ActiveCount())
	assert.Equal(t, 2, limiter.Status().Available)

	require.NoError(t, limiter.Acquire(ctx))
	require.NoError(t, limiter.Acquire(ctx))
	assert.Equal(t, 2, limiter.ActiveCount())
	assert.Equal(t, 0, limiter.Status().Available)

	limiter.Release()
	assert.Equal(t, 1, limiter.ActiveCount())
	assert.Equal(t, 1, limiter.Status().Available)

	limiter.Release()
	assert.Equal(t, LimiterStatus{Active: 0, Available: 2, MaxConcurrent: 2}, limiter.Status())
}

func TestImportLimiter_TimesOutWhenFull(t *testing.T) {
	limiter := NewImportLimiter(1, 50*time.Millisecond)
	ctx := context.Background()

	require.NoError(t, limiter.Acquire(ctx))
	defer limiter.Release()

	start := time.Now()
	err := limiter.Acquire(ctx)
	assert.ErrorIs(t, err, ErrTooManyImports)
	assert.GreaterOrEqual(t, time.Since(start), 40*time.Millisecond)
}

func TestImportLimiter_ContextCancelled(t *testing.T) {
	limiter := NewImportLimiter(1, time.Minute)
	require.NoError(t, limiter.Acquire(context.Background()))
	defer limiter.Release()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	assert.ErrorIs(t, limiter.Acquire(ctx), context.Canceled)
}

func TestImportLimiter_TryAcquire(t *testing.T) {
	limiter := NewImportLimiter(1, time.Second)

	assert.True(t, limiter.TryAcquire())
	assert.False(t, limiter.TryAcquire())

	limiter.Release()
	assert.True(t, limiter.TryAcquire())
	limiter.Release()
}

func TestImportLimiter_Defaults(t *testing.T) {
	limiter := NewImportLimiter(0, 0)

	assert.Equal(t, DefaultMaxConcurrentImports, limiter.Status().MaxConcurrent)
	assert.Equal(t, DefaultMaxWaitTime, limiter.maxWait)
}

func TestImportLimiter_NeverExceedsMax(t *testing.T) {
	const maxConcurrent = 3
	limiter := NewImportLimiter(maxConcurrent, 5*time.Second)

	var (
		wg      sync.WaitGroup
		current atomic.Int32
		peak    atomic.Int32
	)
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := limiter.Acquire(context.Background()); err != nil {
				t.Errorf("Acquire: %v", err)
				return
			}
			defer limiter.Release()

			n := current.Add(1)
			for {
				p := peak.Load()
				if n <= p || peak.CompareAndSwap(p, n) {
					break
				}
			}
			time.Sleep(5 * time.Millisecond)
			current.Add(-1)
		}()
	}
	wg.Wait()

	assert.LessOrEqual(t, int(peak.Load()), maxConcurrent)
	assert.Equal(t, 0, limiter.ActiveCount())
}

func TestImportLimiter_WaitForDrain(t *testing.T) {
	limiter := NewImportLimiter(2, time.Second)
	require.NoError(t, limiter.Acquire(context.Background()))

	go func() {
		time.Sleep(20 * time.Millisecond)
		limiter.Release()
	}()

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	assert.NoError(t, limiter.WaitForDrain(ctx))
	assert.Equal(t, 0, limiter.ActiveCount())
}

func TestImportLimiter_WaitForDrainTimeout(t *testing.T) {
	limiter := NewImportLimiter(1, time.Second)
	require.NoError(t, limiter.Acquire(context.Background()))
	defer limiter.Release()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
	defer cancel()
	assert.ErrorIs(t, limiter.WaitForDrain(ctx), context.DeadlineExceeded)
}
