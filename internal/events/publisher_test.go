package events

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/corebank/ledger-service/internal/monitoring"
	"github.com/corebank/ledger-service/internal/worker"
)

// recordingPublisher captures publishes in memory.
type recordingPublisher struct {
	mu      sync.Mutex
	calls   []string
	failErr error
}

func (p *recordingPublisher) Publish(_ context.Context, stream, eventType string, _ any) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.failErr != nil {
		return p.failErr
	}
	p.calls = append(p.calls, stream+"/"+eventType)
	return nil
}

func (p *recordingPublisher) count() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.calls)
}

func TestPublishAsyncDelivers(t *testing.T) {
	inner := &recordingPublisher{}
	metrics := monitoring.New()
	pool := worker.NewPool(2, 16, zap.NewNop().Sugar())
	p := NewAsyncPublisher(inner, pool, zap.NewNop().Sugar(), metrics)

	for i := 0; i < 5; i++ {
		p.PublishAsync(TransactionEventsStream, TransactionCreated, map[string]any{"i": i})
	}

	require.NoError(t, pool.Shutdown(context.Background()))
	assert.Equal(t, 5, inner.count())
	assert.Equal(t, int64(5), metrics.Snapshot()["events_published"])
}

func TestPublishAsyncCountsFailures(t *testing.T) {
	inner := &recordingPublisher{failErr: errors.New("stream unavailable")}
	metrics := monitoring.New()
	pool := worker.NewPool(1, 4, zap.NewNop().Sugar())
	p := NewAsyncPublisher(inner, pool, zap.NewNop().Sugar(), metrics)

	p.PublishAsync(AccountEventsStream, AccountCreated, nil)

	require.NoError(t, pool.Shutdown(context.Background()))
	assert.Equal(t, int64(1), metrics.Snapshot()["publish_failed"])
}

func TestPublishAsyncDropsOnOverflow(t *testing.T) {
	inner := &recordingPublisher{}
	metrics := monitoring.New()
	pool := worker.NewPool(1, 1, zap.NewNop().Sugar())
	p := NewAsyncPublisher(inner, pool, zap.NewNop().Sugar(), metrics)

	// Stall the single worker, fill the one queue slot, then overflow.
	block := make(chan struct{})
	started := make(chan struct{})
	require.NoError(t, pool.Submit(func() {
		close(started)
		<-block
	}))
	<-started

	p.PublishAsync(AccountEventsStream, AccountCreated, nil)
	p.PublishAsync(AccountEventsStream, AccountCreated, nil)

	assert.Equal(t, int64(1), metrics.Snapshot()["publish_dropped"])

	close(block)
	require.NoError(t, pool.Shutdown(context.Background()))
}

func TestPublishSynchronous(t *testing.T) {
	inner := &recordingPublisher{}
	metrics := monitoring.New()
	pool := worker.NewPool(1, 4, zap.NewNop().Sugar())
	p := NewAsyncPublisher(inner, pool, zap.NewNop().Sugar(), metrics)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	require.NoError(t, p.Publish(ctx, AccountEventsStream, AccountCreated, nil))
	assert.Equal(t, 1, inner.count())
	require.NoError(t, pool.Shutdown(context.Background()))
}
