package cqrs

// GetAccountQuery fetches a single account read view by account number.
type GetAccountQuery struct {
	AccountNumber string
}

// TransactionHistoryQuery fetches transactions for an account, newest first.
// Limit caps the result count; zero means no cap.
type TransactionHistoryQuery struct {
	AccountNumber string
	Limit         int
}

// ListAccountsQuery fetches all account read views.
type ListAccountsQuery struct{}
