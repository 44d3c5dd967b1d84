package query

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"github.com/corebank/ledger-service/internal/breaker"
	"github.com/corebank/ledger-service/internal/commons"
	"github.com/corebank/ledger-service/internal/cqrs"
	"github.com/corebank/ledger-service/internal/models"
	"github.com/corebank/ledger-service/internal/monitoring"
)

// ViewReader serves the denormalised read models the query side consumes.
type ViewReader interface {
	GetAccountViewByNumber(ctx context.Context, accountNumber string) (*models.AccountReadView, error)
	ListAccountViews(ctx context.Context) ([]models.AccountReadView, error)
	ListTransactionViews(ctx context.Context, accountNumber string, limit int) ([]models.TransactionReadView, error)
}

// AccountQueryService answers reads from the projected views. Results are
// eventually consistent with the write side; the staleness window is the
// projection lag. All reads run through the account-read circuit breaker.
type AccountQueryService struct {
	reader   ViewReader
	breakers *breaker.Registry
	logger   *zap.SugaredLogger
	metrics  *monitoring.Metrics
}

func NewAccountQueryService(reader ViewReader, breakers *breaker.Registry, logger *zap.SugaredLogger, metrics *monitoring.Metrics) *AccountQueryService {
	return &AccountQueryService{
		reader:   reader,
		breakers: breakers,
		logger:   logger,
		metrics:  metrics,
	}
}

// readOutcome mirrors the command side's breaker discipline: a missing
// account is an answer, not a fault, so it travels as a value.
type readOutcome struct {
	value       any
	businessErr error
}

func (s *AccountQueryService) runProtected(op func() (any, error)) (any, error) {
	res, err := s.breakers.Execute(breaker.AccountRead, func() (any, error) {
		value, opErr := op()
		if opErr != nil && commons.IsValidation(opErr) {
			return readOutcome{businessErr: opErr}, nil
		}
		return readOutcome{value: value}, opErr
	})
	if err != nil {
		if errors.Is(err, commons.ErrCircuitOpen) {
			s.metrics.IncBreakerRejections()
		}
		return nil, err
	}
	out := res.(readOutcome)
	if out.businessErr != nil {
		return nil, out.businessErr
	}
	return out.value, nil
}

func (s *AccountQueryService) GetAccount(ctx context.Context, q cqrs.GetAccountQuery) (*models.AccountReadView, error) {
	res, err := s.runProtected(func() (any, error) {
		return s.reader.GetAccountViewByNumber(ctx, q.AccountNumber)
	})
	if err != nil {
		return nil, err
	}
	return res.(*models.AccountReadView), nil
}

func (s *AccountQueryService) GetTransactionHistory(ctx context.Context, q cqrs.TransactionHistoryQuery) ([]models.TransactionReadView, error) {
	res, err := s.runProtected(func() (any, error) {
		// An unknown account yields not-found rather than an empty history.
		if _, err := s.reader.GetAccountViewByNumber(ctx, q.AccountNumber); err != nil {
			return nil, err
		}
		return s.reader.ListTransactionViews(ctx, q.AccountNumber, q.Limit)
	})
	if err != nil {
		return nil, err
	}
	return res.([]models.TransactionReadView), nil
}

func (s *AccountQueryService) ListAccounts(ctx context.Context, _ cqrs.ListAccountsQuery) ([]models.AccountReadView, error) {
	res, err := s.runProtected(func() (any, error) {
		return s.reader.ListAccountViews(ctx)
	})
	if err != nil {
		return nil, err
	}
	return res.([]models.AccountReadView), nil
}
