package events

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/corebank/ledger-service/internal/models"
)

// Event types
const (
	AccountCreated     = "account.created"
	TransactionCreated = "transaction.created"
)

// Stream names
const (
	AccountEventsStream     = "ledger.account.events"
	TransactionEventsStream = "ledger.transaction.events"
)

// Event is the envelope carried on the bus.
type Event struct {
	Type      string    `json:"type"`
	Timestamp time.Time `json:"timestamp"`
	Data      any       `json:"data"`
}

// DecodeData unmarshals the envelope payload into v. Payloads arrive as
// generic JSON after transport, so they are round-tripped through encoding.
func (e Event) DecodeData(v any) error {
	raw, err := json.Marshal(e.Data)
	if err != nil {
		return fmt.Errorf("failed to encode event data: %w", err)
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return fmt.Errorf("failed to decode event data: %w", err)
	}
	return nil
}

// AccountCreatedEvent is published after an account row commits.
type AccountCreatedEvent struct {
	AccountID      string          `json:"accountId"`
	AccountNumber  string          `json:"accountNumber"`
	HolderName     string          `json:"holderName"`
	InitialBalance decimal.Decimal `json:"initialBalance"`
}

// TransactionCreatedEvent is published after a transaction row commits.
// Direction disambiguates the two legs of a transfer, which share the
// TRANSFER type: the debit leg belongs to the source account, the credit leg
// to the destination.
type TransactionCreatedEvent struct {
	TransactionID string                 `json:"transactionId"`
	AccountID     string                 `json:"accountId"`
	AccountNumber string                 `json:"accountNumber"`
	Type          models.TransactionType `json:"type"`
	Direction     string                 `json:"direction"`
	Amount        decimal.Decimal        `json:"amount"`
	BalanceAfter  decimal.Decimal        `json:"balanceAfter"`
	Description   string                 `json:"description"`
}
