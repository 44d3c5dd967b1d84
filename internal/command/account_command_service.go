package command

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/corebank/ledger-service/internal/breaker"
	"github.com/corebank/ledger-service/internal/commons"
	"github.com/corebank/ledger-service/internal/cqrs"
	"github.com/corebank/ledger-service/internal/events"
	"github.com/corebank/ledger-service/internal/lock"
	"github.com/corebank/ledger-service/internal/models"
	"github.com/corebank/ledger-service/internal/monitoring"
	"github.com/corebank/ledger-service/internal/utils"
)

// LedgerStore is the authoritative write store as the command side sees it.
// Transfer and ApplyTransaction must be all-or-nothing: on error no partial
// state is visible.
type LedgerStore interface {
	CreateAccount(ctx context.Context, account *models.Account) error
	GetAccountByNumber(ctx context.Context, accountNumber string) (*models.Account, error)
	Transfer(ctx context.Context, fromAccountNumber, toAccountNumber string, amount decimal.Decimal) (*models.TransferResult, error)
	ApplyTransaction(ctx context.Context, accountNumber string, amount decimal.Decimal, txType models.TransactionType, description string) (*models.TransactionResult, error)
}

// EventPublisher hands committed domain events to the bus without blocking.
type EventPublisher interface {
	PublishAsync(stream, eventType string, data any)
}

// AccountCommandService executes the write-side operations: account creation
// and the money movements. Every operation runs through the account-write
// circuit breaker; movements additionally serialise on the lock coordinator.
// Events are published only after the storage transaction has committed.
type AccountCommandService struct {
	store     LedgerStore
	locks     *lock.Coordinator
	breakers  *breaker.Registry
	publisher EventPublisher
	logger    *zap.SugaredLogger
	metrics   *monitoring.Metrics
}

func NewAccountCommandService(
	store LedgerStore,
	locks *lock.Coordinator,
	breakers *breaker.Registry,
	publisher EventPublisher,
	logger *zap.SugaredLogger,
	metrics *monitoring.Metrics,
) *AccountCommandService {
	return &AccountCommandService{
		store:     store,
		locks:     locks,
		breakers:  breakers,
		publisher: publisher,
		logger:    logger,
		metrics:   metrics,
	}
}

// outcome carries an operation result through the circuit breaker. Business
// failures travel as values so that a run of insufficient-funds responses
// can never open the breaker; only infrastructure faults count against it.
type outcome struct {
	value       any
	businessErr error
}

func (s *AccountCommandService) runProtected(op func() (any, error)) (any, error) {
	res, err := s.breakers.Execute(breaker.AccountWrite, func() (any, error) {
		value, opErr := op()
		if opErr != nil && commons.IsValidation(opErr) {
			return outcome{businessErr: opErr}, nil
		}
		return outcome{value: value}, opErr
	})
	if err != nil {
		if errors.Is(err, commons.ErrCircuitOpen) {
			s.metrics.IncBreakerRejections()
		}
		return nil, err
	}
	out := res.(outcome)
	if out.businessErr != nil {
		return nil, out.businessErr
	}
	return out.value, nil
}

func (s *AccountCommandService) CreateAccount(ctx context.Context, cmd cqrs.CreateAccountCommand) (*models.Account, error) {
	res, err := s.runProtected(func() (any, error) {
		return s.createAccount(ctx, cmd)
	})
	if err != nil {
		return nil, err
	}
	return res.(*models.Account), nil
}

func (s *AccountCommandService) createAccount(ctx context.Context, cmd cqrs.CreateAccountCommand) (*models.Account, error) {
	if cmd.InitialBalance.IsNegative() {
		return nil, fmt.Errorf("initial balance must not be negative: %w", commons.ErrInvalidAmount)
	}

	account := &models.Account{
		ID:            utils.GenerateID("acc"),
		AccountNumber: utils.GenerateAccountNumber(),
		HolderName:    cmd.HolderName,
		Balance:       cmd.InitialBalance,
		CreatedAt:     time.Now().UTC(),
	}
	if err := s.store.CreateAccount(ctx, account); err != nil {
		return nil, err
	}

	s.metrics.IncAccountsCreated()
	s.logger.Infow("account created", "accountNumber", account.AccountNumber, "holder", account.HolderName)

	s.publisher.PublishAsync(events.AccountEventsStream, events.AccountCreated, events.AccountCreatedEvent{
		AccountID:      account.ID,
		AccountNumber:  account.AccountNumber,
		HolderName:     account.HolderName,
		InitialBalance: account.Balance,
	})
	return account, nil
}

func (s *AccountCommandService) Transfer(ctx context.Context, cmd cqrs.TransferCommand) (*models.TransferResult, error) {
	res, err := s.runProtected(func() (any, error) {
		return s.transfer(ctx, cmd)
	})
	if err != nil {
		return nil, err
	}
	return res.(*models.TransferResult), nil
}

func (s *AccountCommandService) transfer(ctx context.Context, cmd cqrs.TransferCommand) (*models.TransferResult, error) {
	if !cmd.Amount.IsPositive() {
		return nil, commons.ErrInvalidAmount
	}
	if cmd.FromAccountNumber == cmd.ToAccountNumber {
		return nil, commons.ErrSelfTransfer
	}

	var result *models.TransferResult
	err := s.locks.WithTransferLock(ctx, cmd.FromAccountNumber, cmd.ToAccountNumber, func() error {
		r, err := s.store.Transfer(ctx, cmd.FromAccountNumber, cmd.ToAccountNumber, cmd.Amount)
		if err != nil {
			return err
		}
		result = r
		return nil
	})
	if err != nil {
		s.metrics.IncTransfersFailed()
		return nil, err
	}

	// The storage transaction is committed and both locks are released;
	// only now may the two transfer legs go out on the bus.
	s.publishTransactionEvent(result.DebitTransaction, models.DirectionDebit, result.FromAccount.Balance)
	s.publishTransactionEvent(result.CreditTransaction, models.DirectionCredit, result.ToAccount.Balance)

	s.metrics.IncTransfersCompleted()
	s.logger.Infow("transfer completed",
		"from", cmd.FromAccountNumber, "to", cmd.ToAccountNumber, "amount", cmd.Amount)
	return result, nil
}

func (s *AccountCommandService) Deposit(ctx context.Context, cmd cqrs.DepositCommand) (*models.TransactionResult, error) {
	return s.applyMovement(ctx, cmd.AccountNumber, cmd.Amount, models.TypeDeposit, cmd.Description)
}

func (s *AccountCommandService) Withdraw(ctx context.Context, cmd cqrs.WithdrawCommand) (*models.TransactionResult, error) {
	return s.applyMovement(ctx, cmd.AccountNumber, cmd.Amount, models.TypeWithdrawal, cmd.Description)
}

func (s *AccountCommandService) applyMovement(ctx context.Context, accountNumber string, amount decimal.Decimal, txType models.TransactionType, description string) (*models.TransactionResult, error) {
	res, err := s.runProtected(func() (any, error) {
		if !amount.IsPositive() {
			return nil, commons.ErrInvalidAmount
		}

		var result *models.TransactionResult
		lockErr := s.locks.WithAccountLock(ctx, accountNumber, func() error {
			r, err := s.store.ApplyTransaction(ctx, accountNumber, amount, txType, description)
			if err != nil {
				return err
			}
			result = r
			return nil
		})
		if lockErr != nil {
			return nil, lockErr
		}

		direction := models.DirectionCredit
		if txType == models.TypeWithdrawal {
			direction = models.DirectionDebit
		}
		s.publishTransactionEvent(result.Transaction, direction, result.Account.Balance)

		s.logger.Infow("movement applied",
			"accountNumber", accountNumber, "type", txType, "amount", amount)
		return result, nil
	})
	if err != nil {
		return nil, err
	}
	return res.(*models.TransactionResult), nil
}

func (s *AccountCommandService) publishTransactionEvent(t *models.Transaction, direction string, balanceAfter decimal.Decimal) {
	s.publisher.PublishAsync(events.TransactionEventsStream, events.TransactionCreated, events.TransactionCreatedEvent{
		TransactionID: t.ID,
		AccountID:     t.AccountID,
		AccountNumber: t.AccountNumber,
		Type:          t.Type,
		Direction:     direction,
		Amount:        t.Amount,
		BalanceAfter:  balanceAfter,
		Description:   t.Description,
	})
}
