package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/corebank/ledger-service/internal/commons"
	"github.com/corebank/ledger-service/internal/models"
	"github.com/corebank/ledger-service/internal/redis"
)

const accountViewKeyPrefix = "account:view:"

// ReadViewRepository owns the denormalised read models. The projection
// consumer is its only writer; queries are served Redis-first with a
// PostgreSQL fallback that warms the cache.
type ReadViewRepository struct {
	db     *sql.DB
	cache  *redis.ViewCache[models.AccountReadView]
	logger *zap.SugaredLogger
}

func NewReadViewRepository(db *sql.DB, redisClient *goredis.Client, logger *zap.SugaredLogger) *ReadViewRepository {
	return &ReadViewRepository{
		db:     db,
		cache:  redis.NewViewCache[models.AccountReadView](redisClient, 0, logger),
		logger: logger,
	}
}

// InsertAccountView creates the read view for a new account. Inserting the
// same account twice is a no-op, so redelivered AccountCreated events are
// harmless.
func (r *ReadViewRepository) InsertAccountView(ctx context.Context, view *models.AccountReadView) error {
	query := `
		INSERT INTO account_read_views
			(account_id, account_number, holder_name, balance, transaction_count,
			 total_deposits, total_withdrawals, created_at, last_updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (account_id) DO NOTHING
	`
	_, err := r.db.ExecContext(ctx, query,
		view.AccountID, view.AccountNumber, view.HolderName, view.Balance,
		view.TransactionCount, view.TotalDeposits, view.TotalWithdrawals,
		view.CreatedAt, view.LastUpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert account view: %w", err)
	}
	r.cache.Set(ctx, accountViewKeyPrefix+view.AccountNumber, view)
	return nil
}

// ProjectTransaction applies one TransactionCreated event in a single storage
// transaction: insert the transaction view, then fold it into the account
// view's aggregates. Returns false without any mutation when the transaction
// was already projected (duplicate delivery).
func (r *ReadViewRepository) ProjectTransaction(ctx context.Context, view *models.TransactionReadView) (bool, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return false, fmt.Errorf("failed to begin projection transaction: %w", err)
	}
	defer tx.Rollback()

	insert := `
		INSERT INTO transaction_read_views
			(transaction_id, account_id, account_number, type, direction,
			 amount, balance_after, description, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (transaction_id) DO NOTHING
	`
	res, err := tx.ExecContext(ctx, insert,
		view.TransactionID, view.AccountID, view.AccountNumber, view.Type,
		view.Direction, view.Amount, view.BalanceAfter, view.Description,
		view.CreatedAt,
	)
	if err != nil {
		return false, fmt.Errorf("failed to insert transaction view: %w", err)
	}
	inserted, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to read projection result: %w", err)
	}
	if inserted == 0 {
		// Already projected; commit releases the no-op transaction.
		if err := tx.Commit(); err != nil {
			return false, fmt.Errorf("failed to commit projection: %w", err)
		}
		return false, nil
	}

	account, err := getAccountView(ctx, tx, view.AccountID)
	if err != nil {
		return false, err
	}

	account.TransactionCount++
	if view.Inbound() {
		account.TotalDeposits = account.TotalDeposits.Add(view.Amount)
	} else {
		account.TotalWithdrawals = account.TotalWithdrawals.Add(view.Amount)
	}
	account.Balance = view.BalanceAfter
	account.LastUpdatedAt = time.Now().UTC()

	update := `
		UPDATE account_read_views
		SET balance = $1, transaction_count = $2, total_deposits = $3,
		    total_withdrawals = $4, last_updated_at = $5
		WHERE account_id = $6
	`
	if _, err := tx.ExecContext(ctx, update,
		account.Balance, account.TransactionCount, account.TotalDeposits,
		account.TotalWithdrawals, account.LastUpdatedAt, account.AccountID,
	); err != nil {
		return false, fmt.Errorf("failed to update account view: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return false, fmt.Errorf("failed to commit projection: %w", err)
	}

	r.cache.Set(ctx, accountViewKeyPrefix+account.AccountNumber, account)
	return true, nil
}

// GetAccountViewByNumber returns an account view, trying Redis first then
// PostgreSQL, warming the cache on a cold read.
func (r *ReadViewRepository) GetAccountViewByNumber(ctx context.Context, accountNumber string) (*models.AccountReadView, error) {
	cacheKey := accountViewKeyPrefix + accountNumber
	if view, ok := r.cache.Get(ctx, cacheKey); ok {
		return view, nil
	}

	query := selectAccountView + ` WHERE account_number = $1`
	var view models.AccountReadView
	err := r.db.QueryRowContext(ctx, query, accountNumber).Scan(scanAccountView(&view)...)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("account %s: %w", accountNumber, commons.ErrAccountNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get account view: %w", err)
	}

	r.cache.Set(ctx, cacheKey, &view)
	return &view, nil
}

// ListAccountViews returns every account view ordered by creation time.
func (r *ReadViewRepository) ListAccountViews(ctx context.Context) ([]models.AccountReadView, error) {
	query := selectAccountView + ` ORDER BY created_at`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list account views: %w", err)
	}
	defer rows.Close()

	var views []models.AccountReadView
	for rows.Next() {
		var view models.AccountReadView
		if err := rows.Scan(scanAccountView(&view)...); err != nil {
			return nil, fmt.Errorf("failed to scan account view: %w", err)
		}
		views = append(views, view)
	}
	return views, rows.Err()
}

// ListTransactionViews returns transactions for an account, newest first.
// A limit of zero returns all of them.
func (r *ReadViewRepository) ListTransactionViews(ctx context.Context, accountNumber string, limit int) ([]models.TransactionReadView, error) {
	query := `
		SELECT transaction_id, account_id, account_number, type, direction,
		       amount, balance_after, description, created_at
		FROM transaction_read_views
		WHERE account_number = $1
		ORDER BY created_at DESC
	`
	args := []any{accountNumber}
	if limit > 0 {
		query += ` LIMIT $2`
		args = append(args, limit)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list transaction views: %w", err)
	}
	defer rows.Close()

	var views []models.TransactionReadView
	for rows.Next() {
		var view models.TransactionReadView
		var description sql.NullString
		if err := rows.Scan(
			&view.TransactionID, &view.AccountID, &view.AccountNumber,
			&view.Type, &view.Direction, &view.Amount, &view.BalanceAfter,
			&description, &view.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan transaction view: %w", err)
		}
		if description.Valid {
			view.Description = description.String
		}
		views = append(views, view)
	}
	return views, rows.Err()
}

const selectAccountView = `
	SELECT account_id, account_number, holder_name, balance, transaction_count,
	       total_deposits, total_withdrawals, created_at, last_updated_at
	FROM account_read_views`

func scanAccountView(view *models.AccountReadView) []any {
	return []any{
		&view.AccountID, &view.AccountNumber, &view.HolderName, &view.Balance,
		&view.TransactionCount, &view.TotalDeposits, &view.TotalWithdrawals,
		&view.CreatedAt, &view.LastUpdatedAt,
	}
}

func getAccountView(ctx context.Context, tx *sql.Tx, accountID string) (*models.AccountReadView, error) {
	query := selectAccountView + ` WHERE account_id = $1 FOR UPDATE`
	var view models.AccountReadView
	err := tx.QueryRowContext(ctx, query, accountID).Scan(scanAccountView(&view)...)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("account view %s: %w", accountID, commons.ErrAccountNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get account view: %w", err)
	}
	return &view, nil
}
