package handler

import (
	"context"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/corebank/ledger-service/internal/commons"
	"github.com/corebank/ledger-service/internal/cqrs"
	"github.com/corebank/ledger-service/internal/middleware"
	"github.com/corebank/ledger-service/internal/models"
)

const defaultHistoryLimit = 50

// AccountQuerier defines the read-side operations used by ReadHandler.
type AccountQuerier interface {
	GetAccount(ctx context.Context, q cqrs.GetAccountQuery) (*models.AccountReadView, error)
	GetTransactionHistory(ctx context.Context, q cqrs.TransactionHistoryQuery) ([]models.TransactionReadView, error)
	ListAccounts(ctx context.Context, q cqrs.ListAccountsQuery) ([]models.AccountReadView, error)
}

// ReadHandler serves queries against the projected read views. Responses are
// eventually consistent with the write side.
type ReadHandler struct {
	queries AccountQuerier
}

func NewReadHandler(queries AccountQuerier) *ReadHandler {
	return &ReadHandler{queries: queries}
}

func (h *ReadHandler) GetAccount(c *gin.Context) {
	view, err := h.queries.GetAccount(c.Request.Context(), cqrs.GetAccountQuery{
		AccountNumber: c.Param("accountNumber"),
	})
	if err != nil {
		respondCommandError(c, err)
		return
	}

	c.JSON(http.StatusOK, commons.SuccessResponse("Account retrieved", view))
}

func (h *ReadHandler) GetTransactionHistory(c *gin.Context) {
	limit := defaultHistoryLimit
	if raw := c.Query("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 0 {
			middleware.RespondWithError(c, http.StatusBadRequest, "Invalid limit")
			return
		}
		limit = parsed
	}

	views, err := h.queries.GetTransactionHistory(c.Request.Context(), cqrs.TransactionHistoryQuery{
		AccountNumber: c.Param("accountNumber"),
		Limit:         limit,
	})
	if err != nil {
		respondCommandError(c, err)
		return
	}
	if views == nil {
		views = []models.TransactionReadView{}
	}

	c.JSON(http.StatusOK, commons.SuccessResponse("Transactions retrieved", views))
}

func (h *ReadHandler) ListAccounts(c *gin.Context) {
	views, err := h.queries.ListAccounts(c.Request.Context(), cqrs.ListAccountsQuery{})
	if err != nil {
		respondCommandError(c, err)
		return
	}
	if views == nil {
		views = []models.AccountReadView{}
	}

	c.JSON(http.StatusOK, commons.SuccessResponse("Accounts retrieved", views))
}
