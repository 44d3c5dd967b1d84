package query

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/corebank/ledger-service/internal/breaker"
	"github.com/corebank/ledger-service/internal/commons"
	"github.com/corebank/ledger-service/internal/cqrs"
	"github.com/corebank/ledger-service/internal/models"
	"github.com/corebank/ledger-service/internal/monitoring"
	"github.com/corebank/ledger-service/internal/repository/memory"
)

func newQueryFixture(t *testing.T) (*AccountQueryService, *memory.Store, *monitoring.Metrics) {
	t.Helper()

	store := memory.NewStore()
	metrics := monitoring.New()
	breakerCfg := breaker.DefaultConfig()
	breakerCfg.OpenTimeout = time.Minute

	svc := NewAccountQueryService(store, breaker.NewRegistry(breakerCfg, zap.NewNop().Sugar()), zap.NewNop().Sugar(), metrics)
	return svc, store, metrics
}

func seedView(t *testing.T, store *memory.Store, id, number string) {
	t.Helper()
	now := time.Now().UTC()
	require.NoError(t, store.InsertAccountView(context.Background(), &models.AccountReadView{
		AccountID:        id,
		AccountNumber:    number,
		HolderName:       "Holder " + number,
		Balance:          decimal.RequireFromString("100.00"),
		TotalDeposits:    decimal.Zero,
		TotalWithdrawals: decimal.Zero,
		CreatedAt:        now,
		LastUpdatedAt:    now,
	}))
}

func seedTransaction(t *testing.T, store *memory.Store, txID, accountID, number string, createdAt time.Time) {
	t.Helper()
	applied, err := store.ProjectTransaction(context.Background(), &models.TransactionReadView{
		TransactionID: txID,
		AccountID:     accountID,
		AccountNumber: number,
		Type:          models.TypeDeposit,
		Direction:     models.DirectionCredit,
		Amount:        decimal.RequireFromString("10.00"),
		BalanceAfter:  decimal.RequireFromString("110.00"),
		CreatedAt:     createdAt,
	})
	require.NoError(t, err)
	require.True(t, applied)
}

func TestGetAccount(t *testing.T) {
	svc, store, _ := newQueryFixture(t)
	seedView(t, store, "acc-1", "01000001")

	view, err := svc.GetAccount(context.Background(), cqrs.GetAccountQuery{AccountNumber: "01000001"})
	require.NoError(t, err)
	assert.Equal(t, "acc-1", view.AccountID)
	assert.True(t, view.Balance.Equal(decimal.RequireFromString("100.00")))
}

func TestGetAccountNotFound(t *testing.T) {
	svc, _, _ := newQueryFixture(t)

	_, err := svc.GetAccount(context.Background(), cqrs.GetAccountQuery{AccountNumber: "01999999"})
	assert.ErrorIs(t, err, commons.ErrAccountNotFound)
}

func TestGetTransactionHistoryNewestFirst(t *testing.T) {
	svc, store, _ := newQueryFixture(t)
	seedView(t, store, "acc-1", "01000001")

	base := time.Now().UTC()
	seedTransaction(t, store, "tan-1", "acc-1", "01000001", base.Add(-2*time.Minute))
	seedTransaction(t, store, "tan-2", "acc-1", "01000001", base.Add(-time.Minute))
	seedTransaction(t, store, "tan-3", "acc-1", "01000001", base)

	history, err := svc.GetTransactionHistory(context.Background(), cqrs.TransactionHistoryQuery{
		AccountNumber: "01000001",
		Limit:         2,
	})
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, "tan-3", history[0].TransactionID)
	assert.Equal(t, "tan-2", history[1].TransactionID)
}

func TestGetTransactionHistoryUnknownAccount(t *testing.T) {
	svc, _, _ := newQueryFixture(t)

	_, err := svc.GetTransactionHistory(context.Background(), cqrs.TransactionHistoryQuery{
		AccountNumber: "01999999",
	})
	assert.ErrorIs(t, err, commons.ErrAccountNotFound)
}

func TestListAccounts(t *testing.T) {
	svc, store, _ := newQueryFixture(t)
	seedView(t, store, "acc-1", "01000001")
	seedView(t, store, "acc-2", "01000002")

	views, err := svc.ListAccounts(context.Background(), cqrs.ListAccountsQuery{})
	require.NoError(t, err)
	assert.Len(t, views, 2)
}

// failingReader simulates a read-store outage.
type failingReader struct{}

func (failingReader) GetAccountViewByNumber(context.Context, string) (*models.AccountReadView, error) {
	return nil, errors.New("connection refused")
}
func (failingReader) ListAccountViews(context.Context) ([]models.AccountReadView, error) {
	return nil, errors.New("connection refused")
}
func (failingReader) ListTransactionViews(context.Context, string, int) ([]models.TransactionReadView, error) {
	return nil, errors.New("connection refused")
}

func TestReadFaultsOpenReadBreaker(t *testing.T) {
	metrics := monitoring.New()
	breakerCfg := breaker.DefaultConfig()
	breakerCfg.OpenTimeout = time.Minute
	svc := NewAccountQueryService(failingReader{}, breaker.NewRegistry(breakerCfg, zap.NewNop().Sugar()), zap.NewNop().Sugar(), metrics)

	for i := 0; i < 3; i++ {
		_, err := svc.ListAccounts(context.Background(), cqrs.ListAccountsQuery{})
		require.Error(t, err)
		assert.NotErrorIs(t, err, commons.ErrCircuitOpen)
	}

	_, err := svc.ListAccounts(context.Background(), cqrs.ListAccountsQuery{})
	assert.ErrorIs(t, err, commons.ErrCircuitOpen)
	assert.Equal(t, int64(1), metrics.Snapshot()["breaker_rejections"])
}
