// Package projection applies domain events to the read-view store. Each
// handling attempt runs in its own storage transaction, retried a bounded
// number of times; an event whose retries are exhausted is counted and
// dropped, leaving the read view stale until corrected out of band.
package projection

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/corebank/ledger-service/internal/events"
	"github.com/corebank/ledger-service/internal/models"
	"github.com/corebank/ledger-service/internal/monitoring"
	"github.com/corebank/ledger-service/internal/retry"
)

// Store is the read-view side of the ledger as the projector sees it.
type Store interface {
	InsertAccountView(ctx context.Context, view *models.AccountReadView) error
	// ProjectTransaction applies one transaction to the read views in a single
	// storage transaction, returning false when it was already projected.
	ProjectTransaction(ctx context.Context, view *models.TransactionReadView) (bool, error)
}

type Projector struct {
	store   Store
	policy  retry.Policy
	logger  *zap.SugaredLogger
	metrics *monitoring.Metrics
}

func NewProjector(store Store, policy retry.Policy, logger *zap.SugaredLogger, metrics *monitoring.Metrics) *Projector {
	return &Projector{
		store:   store,
		policy:  policy,
		logger:  logger,
		metrics: metrics,
	}
}

// HandleEvent dispatches a delivered event to its projection. It always
// returns nil: after the bounded retries are exhausted the event is dropped
// rather than redelivered, since redelivery would repeat the same attempts.
func (p *Projector) HandleEvent(ctx context.Context, event events.Event) error {
	switch event.Type {
	case events.AccountCreated:
		var data events.AccountCreatedEvent
		if err := event.DecodeData(&data); err != nil {
			p.dropUndecodable(event.Type, err)
			return nil
		}
		p.process(ctx, event.Type, func(ctx context.Context) error {
			return p.applyAccountCreated(ctx, data)
		})
	case events.TransactionCreated:
		var data events.TransactionCreatedEvent
		if err := event.DecodeData(&data); err != nil {
			p.dropUndecodable(event.Type, err)
			return nil
		}
		p.process(ctx, event.Type, func(ctx context.Context) error {
			return p.applyTransactionCreated(ctx, data)
		})
	default:
		p.logger.Debugw("ignoring unknown event type", "type", event.Type)
	}
	return nil
}

// dropUndecodable records an event that can never be applied. Retrying is
// pointless, so it is counted as dropped and ACKed like a retry exhaustion.
func (p *Projector) dropUndecodable(eventType string, err error) {
	p.metrics.IncEventsDropped()
	p.logger.Errorw("undecodable event dropped", "type", eventType, "error", err)
}

func (p *Projector) process(ctx context.Context, eventType string, apply func(context.Context) error) {
	start := time.Now()
	if err := retry.Do(ctx, p.policy, apply); err != nil {
		p.metrics.IncEventsDropped()
		p.logger.Errorw("event dropped after retries exhausted",
			"type", eventType, "attempts", p.policy.MaxAttempts, "error", err)
		return
	}
	p.metrics.IncEventsProcessed()
	p.logger.Infow("event projected", "type", eventType, "duration", time.Since(start))
}

func (p *Projector) applyAccountCreated(ctx context.Context, data events.AccountCreatedEvent) error {
	now := time.Now().UTC()
	return p.store.InsertAccountView(ctx, &models.AccountReadView{
		AccountID:        data.AccountID,
		AccountNumber:    data.AccountNumber,
		HolderName:       data.HolderName,
		Balance:          data.InitialBalance,
		TransactionCount: 0,
		TotalDeposits:    decimal.Zero,
		TotalWithdrawals: decimal.Zero,
		CreatedAt:        now,
		LastUpdatedAt:    now,
	})
}

func (p *Projector) applyTransactionCreated(ctx context.Context, data events.TransactionCreatedEvent) error {
	applied, err := p.store.ProjectTransaction(ctx, &models.TransactionReadView{
		TransactionID: data.TransactionID,
		AccountID:     data.AccountID,
		AccountNumber: data.AccountNumber,
		Type:          data.Type,
		Direction:     data.Direction,
		Amount:        data.Amount,
		BalanceAfter:  data.BalanceAfter,
		Description:   data.Description,
		CreatedAt:     time.Now().UTC(),
	})
	if err != nil {
		return err
	}
	if !applied {
		p.metrics.IncEventsDuplicate()
		p.logger.Infow("duplicate transaction event skipped", "transactionId", data.TransactionID)
	}
	return nil
}
