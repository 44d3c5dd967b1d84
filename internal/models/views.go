package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// AccountReadView is the denormalised read-side projection of an account.
// Owned exclusively by the projection consumer; eventually consistent with
// the write-side Account.
type AccountReadView struct {
	AccountID        string          `json:"accountId"`
	AccountNumber    string          `json:"accountNumber"`
	HolderName       string          `json:"holderName"`
	Balance          decimal.Decimal `json:"balance"`
	TransactionCount int64           `json:"transactionCount"`
	TotalDeposits    decimal.Decimal `json:"totalDeposits"`
	TotalWithdrawals decimal.Decimal `json:"totalWithdrawals"`
	CreatedAt        time.Time       `json:"createdAt"`
	LastUpdatedAt    time.Time       `json:"lastUpdatedAt"`
}

// TransactionReadView is the read-side projection of a transaction, enriched
// with the account balance observed when the event was produced.
type TransactionReadView struct {
	TransactionID string          `json:"transactionId"`
	AccountID     string          `json:"accountId"`
	AccountNumber string          `json:"accountNumber"`
	Type          TransactionType `json:"type"`
	Direction     string          `json:"direction"`
	Amount        decimal.Decimal `json:"amount"`
	BalanceAfter  decimal.Decimal `json:"balanceAfter"`
	Description   string          `json:"description,omitempty"`
	CreatedAt     time.Time       `json:"createdAt"`
}

// Inbound reports whether the transaction moves money into its account.
// Deposits and transfer credit legs are inbound; withdrawals and transfer
// debit legs are outbound.
func (v *TransactionReadView) Inbound() bool {
	switch v.Type {
	case TypeDeposit:
		return true
	case TypeWithdrawal:
		return false
	case TypeTransfer:
		return v.Direction == DirectionCredit
	default:
		return false
	}
}
