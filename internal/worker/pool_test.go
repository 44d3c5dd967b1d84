package worker

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestPoolRunsSubmittedTasks(t *testing.T) {
	p := NewPool(2, 16, zap.NewNop().Sugar())

	var ran atomic.Int64
	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		err := p.Submit(func() {
			defer wg.Done()
			ran.Add(1)
		})
		require.NoError(t, err)
	}
	wg.Wait()

	assert.Equal(t, int64(10), ran.Load())
	assert.NoError(t, p.Shutdown(context.Background()))
}

func TestPoolRejectsWhenQueueFull(t *testing.T) {
	p := NewPool(1, 1, zap.NewNop().Sugar())

	block := make(chan struct{})
	started := make(chan struct{})
	require.NoError(t, p.Submit(func() {
		close(started)
		<-block
	}))
	<-started

	// The worker is busy; fill the one queue slot, then overflow.
	require.NoError(t, p.Submit(func() {}))

	err := p.Submit(func() {})
	assert.ErrorIs(t, err, ErrQueueFull)

	close(block)
	assert.NoError(t, p.Shutdown(context.Background()))
}

func TestPoolShutdownDrainsQueue(t *testing.T) {
	p := NewPool(1, 8, zap.NewNop().Sugar())

	var ran atomic.Int64
	for i := 0; i < 5; i++ {
		require.NoError(t, p.Submit(func() {
			ran.Add(1)
		}))
	}

	require.NoError(t, p.Shutdown(context.Background()))
	assert.Equal(t, int64(5), ran.Load())

	err := p.Submit(func() {})
	assert.Error(t, err)
}

func TestPoolShutdownHonoursContext(t *testing.T) {
	p := NewPool(1, 1, zap.NewNop().Sugar())

	block := make(chan struct{})
	started := make(chan struct{})
	require.NoError(t, p.Submit(func() {
		close(started)
		<-block
	}))
	<-started

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	err := p.Shutdown(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	close(block)
}

func TestPoolRecoversFromPanickingTask(t *testing.T) {
	p := NewPool(1, 4, zap.NewNop().Sugar())

	require.NoError(t, p.Submit(func() { panic("boom") }))

	done := make(chan struct{})
	require.NoError(t, p.Submit(func() { close(done) }))

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("pool stopped processing after panic")
	}
	assert.NoError(t, p.Shutdown(context.Background()))
}
