package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// TransactionType classifies a ledger movement. A transfer writes two rows of
// type TypeTransfer, one for each leg.
type TransactionType string

const (
	TypeDeposit    TransactionType = "DEPOSIT"
	TypeWithdrawal TransactionType = "WITHDRAWAL"
	TypeTransfer   TransactionType = "TRANSFER"
)

// Direction of a transaction relative to its account.
const (
	DirectionCredit = "credit"
	DirectionDebit  = "debit"
)

// Account is the authoritative write-side record. Balance is mutated only
// under the lock coordinator, inside a storage transaction.
type Account struct {
	ID            string          `json:"id"`
	AccountNumber string          `json:"accountNumber"`
	HolderName    string          `json:"holderName"`
	Balance       decimal.Decimal `json:"balance"`
	CreatedAt     time.Time       `json:"createdAt"`
}

// Transaction is an immutable ledger entry.
type Transaction struct {
	ID            string          `json:"id"`
	AccountID     string          `json:"accountId"`
	AccountNumber string          `json:"accountNumber"`
	Amount        decimal.Decimal `json:"amount"`
	Type          TransactionType `json:"type"`
	Description   string          `json:"description"`
	CreatedAt     time.Time       `json:"createdAt"`
}

// TransferResult carries the committed state of a completed transfer: both
// accounts with their post-transfer balances and the two TRANSFER rows.
type TransferResult struct {
	FromAccount       *Account     `json:"fromAccount"`
	ToAccount         *Account     `json:"toAccount"`
	DebitTransaction  *Transaction `json:"debitTransaction"`
	CreditTransaction *Transaction `json:"creditTransaction"`
}

// TransactionResult carries the committed state of a single-account movement.
type TransactionResult struct {
	Account     *Account     `json:"account"`
	Transaction *Transaction `json:"transaction"`
}
