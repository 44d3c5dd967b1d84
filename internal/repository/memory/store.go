// Package memory provides map-backed implementations of the ledger's write
// store and read-view store. Each operation is atomic under a store-wide
// mutex, mirroring the single-transaction guarantees of the PostgreSQL
// repositories. Used by tests and local development.
package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/corebank/ledger-service/internal/commons"
	"github.com/corebank/ledger-service/internal/models"
	"github.com/corebank/ledger-service/internal/utils"
)

// Store is an in-memory ledger store and read-view store.
type Store struct {
	mu           sync.Mutex
	accounts     map[string]*models.Account // keyed by account number
	transactions []*models.Transaction

	accountViews     map[string]*models.AccountReadView // keyed by account ID
	transactionViews map[string]*models.TransactionReadView

	// TransferErr and ProjectErr, when set, are returned by the respective
	// operations before any mutation. Tests use them to inject storage faults.
	TransferErr error
	ProjectErr  error
}

func NewStore() *Store {
	return &Store{
		accounts:         make(map[string]*models.Account),
		accountViews:     make(map[string]*models.AccountReadView),
		transactionViews: make(map[string]*models.TransactionReadView),
	}
}

func (s *Store) CreateAccount(_ context.Context, account *models.Account) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.accounts[account.AccountNumber]; exists {
		return fmt.Errorf("account %s already exists", account.AccountNumber)
	}
	copied := *account
	s.accounts[account.AccountNumber] = &copied
	return nil
}

func (s *Store) GetAccountByNumber(_ context.Context, accountNumber string) (*models.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	account, ok := s.accounts[accountNumber]
	if !ok {
		return nil, fmt.Errorf("account %s: %w", accountNumber, commons.ErrAccountNotFound)
	}
	copied := *account
	return &copied, nil
}

func (s *Store) Transfer(_ context.Context, fromAccountNumber, toAccountNumber string, amount decimal.Decimal) (*models.TransferResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.TransferErr != nil {
		return nil, s.TransferErr
	}

	from, ok := s.accounts[fromAccountNumber]
	if !ok {
		return nil, fmt.Errorf("source account %s: %w", fromAccountNumber, commons.ErrAccountNotFound)
	}
	if from.Balance.LessThan(amount) {
		return nil, fmt.Errorf("account %s: %w", fromAccountNumber, commons.ErrInsufficientFunds)
	}
	to, ok := s.accounts[toAccountNumber]
	if !ok {
		return nil, fmt.Errorf("destination account %s: %w", toAccountNumber, commons.ErrAccountNotFound)
	}

	from.Balance = from.Balance.Sub(amount)
	to.Balance = to.Balance.Add(amount)

	now := time.Now().UTC()
	debit := &models.Transaction{
		ID:            utils.GenerateID("tan"),
		AccountID:     from.ID,
		AccountNumber: from.AccountNumber,
		Amount:        amount,
		Type:          models.TypeTransfer,
		Description:   fmt.Sprintf("Transfer to %s", toAccountNumber),
		CreatedAt:     now,
	}
	credit := &models.Transaction{
		ID:            utils.GenerateID("tan"),
		AccountID:     to.ID,
		AccountNumber: to.AccountNumber,
		Amount:        amount,
		Type:          models.TypeTransfer,
		Description:   fmt.Sprintf("Transfer from %s", fromAccountNumber),
		CreatedAt:     now,
	}
	s.transactions = append(s.transactions, debit, credit)

	fromCopy, toCopy := *from, *to
	return &models.TransferResult{
		FromAccount:       &fromCopy,
		ToAccount:         &toCopy,
		DebitTransaction:  debit,
		CreditTransaction: credit,
	}, nil
}

func (s *Store) ApplyTransaction(_ context.Context, accountNumber string, amount decimal.Decimal, txType models.TransactionType, description string) (*models.TransactionResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	account, ok := s.accounts[accountNumber]
	if !ok {
		return nil, fmt.Errorf("account %s: %w", accountNumber, commons.ErrAccountNotFound)
	}

	switch txType {
	case models.TypeDeposit:
		account.Balance = account.Balance.Add(amount)
	case models.TypeWithdrawal:
		if account.Balance.LessThan(amount) {
			return nil, fmt.Errorf("account %s: %w", accountNumber, commons.ErrInsufficientFunds)
		}
		account.Balance = account.Balance.Sub(amount)
	default:
		return nil, fmt.Errorf("unsupported transaction type %q", txType)
	}

	record := &models.Transaction{
		ID:            utils.GenerateID("tan"),
		AccountID:     account.ID,
		AccountNumber: account.AccountNumber,
		Amount:        amount,
		Type:          txType,
		Description:   description,
		CreatedAt:     time.Now().UTC(),
	}
	s.transactions = append(s.transactions, record)

	copied := *account
	return &models.TransactionResult{Account: &copied, Transaction: record}, nil
}

// Transactions returns a snapshot of all committed transaction rows.
func (s *Store) Transactions() []models.Transaction {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]models.Transaction, 0, len(s.transactions))
	for _, t := range s.transactions {
		out = append(out, *t)
	}
	return out
}

// ---- read-view store ----

func (s *Store) InsertAccountView(_ context.Context, view *models.AccountReadView) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.ProjectErr != nil {
		return s.ProjectErr
	}
	if _, exists := s.accountViews[view.AccountID]; exists {
		return nil
	}
	copied := *view
	s.accountViews[view.AccountID] = &copied
	return nil
}

func (s *Store) ProjectTransaction(_ context.Context, view *models.TransactionReadView) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.ProjectErr != nil {
		return false, s.ProjectErr
	}
	if _, exists := s.transactionViews[view.TransactionID]; exists {
		return false, nil
	}

	account, ok := s.accountViews[view.AccountID]
	if !ok {
		return false, fmt.Errorf("account view %s: %w", view.AccountID, commons.ErrAccountNotFound)
	}

	copied := *view
	s.transactionViews[view.TransactionID] = &copied

	account.TransactionCount++
	if view.Inbound() {
		account.TotalDeposits = account.TotalDeposits.Add(view.Amount)
	} else {
		account.TotalWithdrawals = account.TotalWithdrawals.Add(view.Amount)
	}
	account.Balance = view.BalanceAfter
	account.LastUpdatedAt = time.Now().UTC()
	return true, nil
}

func (s *Store) GetAccountViewByNumber(_ context.Context, accountNumber string) (*models.AccountReadView, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, view := range s.accountViews {
		if view.AccountNumber == accountNumber {
			copied := *view
			return &copied, nil
		}
	}
	return nil, fmt.Errorf("account %s: %w", accountNumber, commons.ErrAccountNotFound)
}

func (s *Store) ListAccountViews(_ context.Context) ([]models.AccountReadView, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	views := make([]models.AccountReadView, 0, len(s.accountViews))
	for _, view := range s.accountViews {
		views = append(views, *view)
	}
	return views, nil
}

func (s *Store) ListTransactionViews(_ context.Context, accountNumber string, limit int) ([]models.TransactionReadView, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var views []models.TransactionReadView
	for _, view := range s.transactionViews {
		if view.AccountNumber == accountNumber {
			views = append(views, *view)
		}
	}
	// Newest first, matching the SQL read path.
	sort.Slice(views, func(i, j int) bool {
		return views[i].CreatedAt.After(views[j].CreatedAt)
	})
	if limit > 0 && len(views) > limit {
		views = views[:limit]
	}
	return views, nil
}

// SetProjectErr atomically sets the injected projection fault.
func (s *Store) SetProjectErr(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ProjectErr = err
}

// SetTransferErr atomically sets the injected transfer fault.
func (s *Store) SetTransferErr(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.TransferErr = err
}
