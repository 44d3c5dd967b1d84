package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/corebank/ledger-service/internal/monitoring"
	"github.com/corebank/ledger-service/internal/worker"
)

// Publisher delivers a domain event to a stream.
type Publisher interface {
	Publish(ctx context.Context, stream, eventType string, data any) error
}

// StreamPublisher appends events to Redis Streams.
type StreamPublisher struct {
	client *redis.Client
}

func NewStreamPublisher(client *redis.Client) *StreamPublisher {
	return &StreamPublisher{client: client}
}

func (p *StreamPublisher) Publish(ctx context.Context, stream, eventType string, data any) error {
	event := Event{
		Type:      eventType,
		Timestamp: time.Now().UTC(),
		Data:      data,
	}

	eventJSON, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	args := &redis.XAddArgs{
		Stream: stream,
		Values: map[string]any{
			"event": eventJSON,
		},
	}

	if _, err := p.client.XAdd(ctx, args).Result(); err != nil {
		return fmt.Errorf("failed to publish event: %w", err)
	}

	return nil
}

const publishTimeout = 10 * time.Second

// AsyncPublisher hands events to a bounded worker pool so the write path
// never waits on the bus. Publication is best effort: failures and queue
// overflow are logged and counted, never surfaced to the caller, and never
// retried here; recovery is the consumer's responsibility.
type AsyncPublisher struct {
	inner   Publisher
	pool    *worker.Pool
	logger  *zap.SugaredLogger
	metrics *monitoring.Metrics
}

func NewAsyncPublisher(inner Publisher, pool *worker.Pool, logger *zap.SugaredLogger, metrics *monitoring.Metrics) *AsyncPublisher {
	return &AsyncPublisher{
		inner:   inner,
		pool:    pool,
		logger:  logger,
		metrics: metrics,
	}
}

// Publish delivers synchronously, blocking until dispatch returns.
func (p *AsyncPublisher) Publish(ctx context.Context, stream, eventType string, data any) error {
	if err := p.inner.Publish(ctx, stream, eventType, data); err != nil {
		p.metrics.IncPublishFailed()
		return err
	}
	p.metrics.IncEventsPublished()
	return nil
}

// PublishAsync enqueues the event and returns immediately. Callers must only
// invoke this after the originating storage transaction has committed.
func (p *AsyncPublisher) PublishAsync(stream, eventType string, data any) {
	err := p.pool.Submit(func() {
		ctx, cancel := context.WithTimeout(context.Background(), publishTimeout)
		defer cancel()

		if err := p.inner.Publish(ctx, stream, eventType, data); err != nil {
			p.metrics.IncPublishFailed()
			p.logger.Errorw("failed to publish event", "stream", stream, "type", eventType, "error", err)
			return
		}
		p.metrics.IncEventsPublished()
	})
	if err != nil {
		p.metrics.IncPublishDropped()
		p.logger.Warnw("event publication dropped", "stream", stream, "type", eventType, "error", err)
	}
}
