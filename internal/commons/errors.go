package commons

import "errors"

// Business failures. These are expected outcomes of ledger operations and are
// returned as values; they never trip a circuit breaker.
var (
	ErrAccountNotFound   = errors.New("account not found")
	ErrInsufficientFunds = errors.New("insufficient funds")
	ErrInvalidAmount     = errors.New("amount must be greater than zero")
	ErrSelfTransfer      = errors.New("source and destination accounts must differ")
)

// Infrastructure failures. These count against the circuit breaker.
var (
	ErrLockTimeout = errors.New("could not acquire account lock")
	ErrCircuitOpen = errors.New("operation temporarily unavailable")
)

// IsValidation reports whether err is a business failure rather than an
// infrastructure fault.
func IsValidation(err error) bool {
	return errors.Is(err, ErrAccountNotFound) ||
		errors.Is(err, ErrInsufficientFunds) ||
		errors.Is(err, ErrInvalidAmount) ||
		errors.Is(err, ErrSelfTransfer)
}
