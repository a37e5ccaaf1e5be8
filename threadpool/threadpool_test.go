package threadpool

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestSubmitRunsJobs(t *testing.T) {
	p := New(context.Background(), 4, 8)
	defer p.Stop()

	var ran atomic.Int32
	for i := 0; i < 10; i++ {
		ok := p.Submit(func(ctx context.Context) { ran.Add(1) }, nil)
		require.True(t, ok)
	}

	require.Eventually(t, func() bool { return ran.Load() == 10 }, time.Second, time.Millisecond)
}

func TestSubmitReportsFullQueue(t *testing.T) {
	p := New(context.Background(), 1, 1)
	defer p.Stop()

	block := make(chan struct{})
	require.True(t, p.Submit(func(ctx context.Context) { <-block }, nil))

	ok := false
	require.Eventually(t, func() bool {
		ok = p.Submit(func(ctx context.Context) {}, nil)
		return !ok
	}, time.Second, time.Millisecond)
	require.False(t, ok)
	close(block)
}

func TestStopRunsCleanupForUndispatchedJobs(t *testing.T) {
	p := New(context.Background(), 1, 4)

	block := make(chan struct{})
	require.True(t, p.Submit(func(ctx context.Context) { <-block }, nil))

	var cleaned atomic.Int32
	require.True(t, p.Submit(func(ctx context.Context) {}, func() { cleaned.Add(1) }))
	require.True(t, p.Submit(func(ctx context.Context) {}, func() { cleaned.Add(1) }))

	go func() {
		time.Sleep(10 * time.Millisecond)
		close(block)
	}()
	p.Stop()

	require.Equal(t, int32(2), cleaned.Load())
	require.False(t, p.Submit(func(ctx context.Context) {}, nil))
}
