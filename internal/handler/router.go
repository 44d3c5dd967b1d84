package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/corebank/ledger-service/internal/middleware"
	"github.com/corebank/ledger-service/internal/monitoring"
)

// NewRouter wires the HTTP surface: the command routes, the query routes, and
// the operational endpoints.
func NewRouter(write *WriteHandler, read *ReadHandler, metrics *monitoring.Metrics, logger *zap.SugaredLogger) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.RequestLogger(logger))

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	router.GET("/metrics", func(c *gin.Context) {
		c.JSON(http.StatusOK, metrics.Snapshot())
	})

	v1 := router.Group("/v1")
	{
		v1.POST("/accounts", write.CreateAccount)
		v1.POST("/transfers", write.Transfer)
		v1.POST("/accounts/:accountNumber/deposits", write.Deposit)
		v1.POST("/accounts/:accountNumber/withdrawals", write.Withdraw)

		v1.GET("/accounts", read.ListAccounts)
		v1.GET("/accounts/:accountNumber", read.GetAccount)
		v1.GET("/accounts/:accountNumber/transactions", read.GetTransactionHistory)
	}

	return router
}
