package handler

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"github.com/corebank/ledger-service/internal/commons"
	"github.com/corebank/ledger-service/internal/cqrs"
	"github.com/corebank/ledger-service/internal/middleware"
	"github.com/corebank/ledger-service/internal/models"
)

// AccountCommander defines the write-side operations used by WriteHandler.
type AccountCommander interface {
	CreateAccount(ctx context.Context, cmd cqrs.CreateAccountCommand) (*models.Account, error)
	Transfer(ctx context.Context, cmd cqrs.TransferCommand) (*models.TransferResult, error)
	Deposit(ctx context.Context, cmd cqrs.DepositCommand) (*models.TransactionResult, error)
	Withdraw(ctx context.Context, cmd cqrs.WithdrawCommand) (*models.TransactionResult, error)
}

// WriteHandler handles the command-side HTTP requests.
type WriteHandler struct {
	commands AccountCommander
}

func NewWriteHandler(commands AccountCommander) *WriteHandler {
	return &WriteHandler{commands: commands}
}

// Amounts travel as strings so no precision is lost in JSON float parsing.
type CreateAccountRequest struct {
	HolderName     string `json:"holderName" validate:"required,min=1,max=100"`
	InitialBalance string `json:"initialBalance" validate:"omitempty"`
}

type TransferRequest struct {
	FromAccountNumber string `json:"fromAccountNumber" validate:"required,account_number"`
	ToAccountNumber   string `json:"toAccountNumber" validate:"required,account_number"`
	Amount            string `json:"amount" validate:"required"`
}

type MovementRequest struct {
	Amount      string `json:"amount" validate:"required"`
	Description string `json:"description" validate:"max=200"`
}

func (h *WriteHandler) CreateAccount(c *gin.Context) {
	var req CreateAccountRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.RespondWithError(c, http.StatusBadRequest, "Invalid request body")
		return
	}
	if validationErrors := middleware.ValidateRequest(req); validationErrors != nil {
		middleware.RespondWithValidationError(c, validationErrors)
		return
	}

	initialBalance := decimal.Zero
	if req.InitialBalance != "" {
		parsed, err := decimal.NewFromString(req.InitialBalance)
		if err != nil {
			middleware.RespondWithError(c, http.StatusBadRequest, "Invalid initial balance")
			return
		}
		initialBalance = parsed
	}

	account, err := h.commands.CreateAccount(c.Request.Context(), cqrs.CreateAccountCommand{
		HolderName:     req.HolderName,
		InitialBalance: initialBalance,
	})
	if err != nil {
		respondCommandError(c, err)
		return
	}

	c.JSON(http.StatusCreated, commons.SuccessResponse("Account created", account))
}

func (h *WriteHandler) Transfer(c *gin.Context) {
	var req TransferRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.RespondWithError(c, http.StatusBadRequest, "Invalid request body")
		return
	}
	if validationErrors := middleware.ValidateRequest(req); validationErrors != nil {
		middleware.RespondWithValidationError(c, validationErrors)
		return
	}

	amount, err := decimal.NewFromString(req.Amount)
	if err != nil {
		middleware.RespondWithError(c, http.StatusBadRequest, "Invalid amount")
		return
	}

	result, err := h.commands.Transfer(c.Request.Context(), cqrs.TransferCommand{
		FromAccountNumber: req.FromAccountNumber,
		ToAccountNumber:   req.ToAccountNumber,
		Amount:            amount,
	})
	if err != nil {
		respondCommandError(c, err)
		return
	}

	c.JSON(http.StatusCreated, commons.SuccessResponse("Transfer completed", result))
}

func (h *WriteHandler) Deposit(c *gin.Context) {
	h.applyMovement(c, func(ctx context.Context, accountNumber string, amount decimal.Decimal, description string) (*models.TransactionResult, error) {
		return h.commands.Deposit(ctx, cqrs.DepositCommand{
			AccountNumber: accountNumber,
			Amount:        amount,
			Description:   description,
		})
	}, "Deposit completed")
}

func (h *WriteHandler) Withdraw(c *gin.Context) {
	h.applyMovement(c, func(ctx context.Context, accountNumber string, amount decimal.Decimal, description string) (*models.TransactionResult, error) {
		return h.commands.Withdraw(ctx, cqrs.WithdrawCommand{
			AccountNumber: accountNumber,
			Amount:        amount,
			Description:   description,
		})
	}, "Withdrawal completed")
}

func (h *WriteHandler) applyMovement(c *gin.Context, apply func(context.Context, string, decimal.Decimal, string) (*models.TransactionResult, error), message string) {
	accountNumber := c.Param("accountNumber")

	var req MovementRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.RespondWithError(c, http.StatusBadRequest, "Invalid request body")
		return
	}
	if validationErrors := middleware.ValidateRequest(req); validationErrors != nil {
		middleware.RespondWithValidationError(c, validationErrors)
		return
	}

	amount, err := decimal.NewFromString(req.Amount)
	if err != nil {
		middleware.RespondWithError(c, http.StatusBadRequest, "Invalid amount")
		return
	}

	result, err := apply(c.Request.Context(), accountNumber, amount, req.Description)
	if err != nil {
		respondCommandError(c, err)
		return
	}

	c.JSON(http.StatusCreated, commons.SuccessResponse(message, result))
}

// respondCommandError maps service errors to HTTP statuses. Business failures
// keep their message; infrastructure faults get a generic one.
func respondCommandError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, commons.ErrAccountNotFound):
		middleware.RespondWithError(c, http.StatusNotFound, "Account not found")
	case errors.Is(err, commons.ErrInsufficientFunds):
		middleware.RespondWithError(c, http.StatusUnprocessableEntity, "Insufficient funds")
	case errors.Is(err, commons.ErrInvalidAmount), errors.Is(err, commons.ErrSelfTransfer):
		middleware.RespondWithError(c, http.StatusBadRequest, err.Error())
	case errors.Is(err, commons.ErrLockTimeout):
		middleware.RespondWithError(c, http.StatusConflict, "Account is busy, please retry")
	case errors.Is(err, commons.ErrCircuitOpen):
		middleware.RespondWithError(c, http.StatusServiceUnavailable, "Service temporarily unavailable")
	default:
		middleware.RespondWithError(c, http.StatusInternalServerError, "Internal server error")
	}
}
