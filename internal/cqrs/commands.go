package cqrs

import "github.com/shopspring/decimal"

type CreateAccountCommand struct {
	HolderName     string
	InitialBalance decimal.Decimal
}

type TransferCommand struct {
	FromAccountNumber string
	ToAccountNumber   string
	Amount            decimal.Decimal
}

type DepositCommand struct {
	AccountNumber string
	Amount        decimal.Decimal
	Description   string
}

type WithdrawCommand struct {
	AccountNumber string
	Amount        decimal.Decimal
	Description   string
}
