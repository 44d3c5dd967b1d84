package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/corebank/ledger-service/internal/commons"
	"github.com/corebank/ledger-service/internal/models"
	"github.com/corebank/ledger-service/internal/utils"
)

// AccountRepository is the write-side ledger store. Balances and transaction
// rows are only ever mutated here, inside storage transactions; callers are
// responsible for holding the relevant account locks.
type AccountRepository struct {
	db     *sql.DB
	logger *zap.SugaredLogger
}

func NewAccountRepository(db *sql.DB, logger *zap.SugaredLogger) *AccountRepository {
	return &AccountRepository{db: db, logger: logger}
}

func (r *AccountRepository) CreateAccount(ctx context.Context, account *models.Account) error {
	query := `
		INSERT INTO accounts (id, account_number, holder_name, balance, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`
	_, err := r.db.ExecContext(ctx, query,
		account.ID, account.AccountNumber, account.HolderName,
		account.Balance, account.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create account: %w", err)
	}
	return nil
}

func (r *AccountRepository) GetAccountByNumber(ctx context.Context, accountNumber string) (*models.Account, error) {
	query := `
		SELECT id, account_number, holder_name, balance, created_at
		FROM accounts
		WHERE account_number = $1
	`
	var account models.Account
	err := r.db.QueryRowContext(ctx, query, accountNumber).Scan(
		&account.ID, &account.AccountNumber, &account.HolderName,
		&account.Balance, &account.CreatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("account %s: %w", accountNumber, commons.ErrAccountNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get account: %w", err)
	}
	return &account, nil
}

// Transfer debits from, credits to, and writes both TRANSFER rows as one
// all-or-nothing storage transaction. Validation order matters: the source
// account is resolved and funds-checked before the destination lookup, so a
// missing destination leaves the source untouched. Must be called with both
// account locks held.
func (r *AccountRepository) Transfer(ctx context.Context, fromAccountNumber, toAccountNumber string, amount decimal.Decimal) (*models.TransferResult, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transfer transaction: %w", err)
	}
	defer tx.Rollback()

	from, err := getAccountForUpdate(ctx, tx, fromAccountNumber)
	if err != nil {
		return nil, fmt.Errorf("source %w", err)
	}
	if from.Balance.LessThan(amount) {
		return nil, fmt.Errorf("account %s: %w", fromAccountNumber, commons.ErrInsufficientFunds)
	}

	to, err := getAccountForUpdate(ctx, tx, toAccountNumber)
	if err != nil {
		return nil, fmt.Errorf("destination %w", err)
	}

	from.Balance = from.Balance.Sub(amount)
	to.Balance = to.Balance.Add(amount)

	if err := updateBalance(ctx, tx, from); err != nil {
		return nil, err
	}
	if err := updateBalance(ctx, tx, to); err != nil {
		return nil, err
	}

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

	if err := insertTransaction(ctx, tx, debit); err != nil {
		return nil, err
	}
	if err := insertTransaction(ctx, tx, credit); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transfer: %w", err)
	}

	return &models.TransferResult{
		FromAccount:       from,
		ToAccount:         to,
		DebitTransaction:  debit,
		CreditTransaction: credit,
	}, nil
}

// ApplyTransaction atomically applies a single-account movement (deposit or
// withdrawal) and records its transaction row. Must be called with the
// account lock held.
func (r *AccountRepository) ApplyTransaction(ctx context.Context, accountNumber string, amount decimal.Decimal, txType models.TransactionType, description string) (*models.TransactionResult, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	account, err := getAccountForUpdate(ctx, tx, accountNumber)
	if err != nil {
		return nil, err
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

	if err := updateBalance(ctx, tx, account); err != nil {
		return nil, err
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
	if err := insertTransaction(ctx, tx, record); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	return &models.TransactionResult{Account: account, Transaction: record}, nil
}

func getAccountForUpdate(ctx context.Context, tx *sql.Tx, accountNumber string) (*models.Account, error) {
	query := `
		SELECT id, account_number, holder_name, balance, created_at
		FROM accounts
		WHERE account_number = $1
		FOR UPDATE
	`
	var account models.Account
	err := tx.QueryRowContext(ctx, query, accountNumber).Scan(
		&account.ID, &account.AccountNumber, &account.HolderName,
		&account.Balance, &account.CreatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("account %s: %w", accountNumber, commons.ErrAccountNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get account: %w", err)
	}
	return &account, nil
}

func updateBalance(ctx context.Context, tx *sql.Tx, account *models.Account) error {
	_, err := tx.ExecContext(ctx,
		`UPDATE accounts SET balance = $1 WHERE id = $2`,
		account.Balance, account.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update balance for %s: %w", account.AccountNumber, err)
	}
	return nil
}

func insertTransaction(ctx context.Context, tx *sql.Tx, t *models.Transaction) error {
	query := `
		INSERT INTO transactions (id, account_id, account_number, amount, type, description, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`
	_, err := tx.ExecContext(ctx, query,
		t.ID, t.AccountID, t.AccountNumber, t.Amount, t.Type, t.Description, t.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert transaction: %w", err)
	}
	return nil
}
