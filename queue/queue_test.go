package queue

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestPushRejectsWhenFull(t *testing.T) {
	q := New[int](2)
	require.True(t, q.Push(1))
	require.True(t, q.Push(2))
	require.False(t, q.Push(3))
	require.Equal(t, 2, q.Len())
}

func TestPopIsFIFO(t *testing.T) {
	q := New[int](4)
	q.Push(1)
	q.Push(2)
	q.Push(3)

	v, ok := q.Pop()
	require.True(t, ok)
	require.Equal(t, 1, v)

	v, ok = q.Pop()
	require.True(t, ok)
	require.Equal(t, 2, v)
}

func TestWaitForTimesOutWhenEmpty(t *testing.T) {
	q := New[int](4)
	start := time.Now()
	ok := q.WaitFor(50 * time.Millisecond)
	require.False(t, ok)
	require.GreaterOrEqual(t, time.Since(start), 40*time.Millisecond)
}

func TestWaitForWakesOnPush(t *testing.T) {
	q := New[int](4)
	go func() {
		time.Sleep(10 * time.Millisecond)
		q.Push(7)
	}()
	ok := q.WaitFor(time.Second)
	require.True(t, ok)
	v, _ := q.Front()
	require.Equal(t, 7, v)
}

func TestPushWaitBlocksUntilSpace(t *testing.T) {
	q := New[int](1)
	require.True(t, q.Push(1))

	done := make(chan error, 1)
	go func() {
		done <- q.PushWait(context.Background(), 2)
	}()

	select {
	case <-done:
		t.Fatal("PushWait returned before space was freed")
	case <-time.After(30 * time.Millisecond):
	}

	_, _ = q.Pop()
	err := <-done
	require.NoError(t, err)
	require.Equal(t, 1, q.Len())
}

func TestPushWaitRespectsContextCancellation(t *testing.T) {
	q := New[int](1)
	require.True(t, q.Push(1))

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	err := q.PushWait(ctx, 2)
	require.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestCloseDrainsWithCleanup(t *testing.T) {
	q := New[int](4)
	q.Push(1)
	q.Push(2)

	var cleaned []int
	q.Close(func(v int) { cleaned = append(cleaned, v) })

	require.Equal(t, []int{1, 2}, cleaned)
	require.True(t, q.Empty())
}
