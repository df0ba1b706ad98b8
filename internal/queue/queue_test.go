package queue

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInProcDeliversEachTaskOnce(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	q := NewInProc(16)
	var mu sync.Mutex
	got := make(map[uint]int)
	done := make(chan struct{}, 16)

	q.Start(ctx, 4, func(_ context.Context, sessionID uint) {
		mu.Lock()
		got[sessionID]++
		mu.Unlock()
		done <- struct{}{}
	})

	for id := uint(1); id <= 8; id++ {
		require.NoError(t, q.Enqueue(ctx, id))
	}
	for i := 0; i < 8; i++ {
		select {
		case <-done:
		case <-time.After(2 * time.Second):
			t.Fatal("timed out waiting for task delivery")
		}
	}

	mu.Lock()
	defer mu.Unlock()
	assert.Len(t, got, 8)
	for id, n := range got {
		assert.Equal(t, 1, n, "session %d delivered more than once", id)
	}
}

func TestInProcEnqueueHonorsContext(t *testing.T) {
	q := NewInProc(1)
	ctx, cancel := context.WithCancel(context.Background())

	require.NoError(t, q.Enqueue(ctx, 1))
	cancel()
	// Buffer is full and the context is gone; Enqueue must not block.
	assert.ErrorIs(t, q.Enqueue(ctx, 2), context.Canceled)
}

func TestInProcWorkersStopOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	q := NewInProc(1)
	q.Start(ctx, 2, func(context.Context, uint) {})
	cancel()

	finished := make(chan struct{})
	go func() {
		q.Wait()
		close(finished)
	}()
	select {
	case <-finished:
	case <-time.After(2 * time.Second):
		t.Fatal("workers did not stop after cancel")
	}
}
