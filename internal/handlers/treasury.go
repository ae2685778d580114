package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"coinflip-backend/internal/middleware"
	"coinflip-backend/internal/models"
	"coinflip-backend/internal/services"
)

type TreasuryHandler struct {
	ledger *services.Ledger
	store  *services.RedisStore
}

func NewTreasuryHandler(ledger *services.Ledger, store *services.RedisStore) *TreasuryHandler {
	return &TreasuryHandler{
		ledger: ledger,
		store:  store,
	}
}

// GetTreasury exposes the current configuration and profit. Readable by
// anyone.
func (h *TreasuryHandler) GetTreasury(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"treasury": gin.H{
			"min_bet": h.ledger.MinBet(),
			"max_bet": h.ledger.MaxBet(),
			"coeff":   h.ledger.Coeff(),
			"profit":  h.ledger.Profit(),
		},
	})
}

// SetBetRange replaces the bet bounds. Owner only.
func (h *TreasuryHandler) SetBetRange(c *gin.Context) {
	caller, ok := middleware.CallerAddress(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Not authenticated"})
		return
	}

	var req models.BetRangeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request",
			"details": err.Error(),
		})
		return
	}

	if err := h.ledger.SetBetRange(caller, req.MinBet, req.MaxBet); err != nil {
		c.JSON(statusForError(err), gin.H{
			"error":   "Failed to set bet range",
			"details": err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"min_bet": h.ledger.MinBet(),
		"max_bet": h.ledger.MaxBet(),
	})
}

// SetCoeff updates the payout coefficient. Owner only.
func (h *TreasuryHandler) SetCoeff(c *gin.Context) {
	caller, ok := middleware.CallerAddress(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Not authenticated"})
		return
	}

	var req models.CoeffRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request",
			"details": err.Error(),
		})
		return
	}

	if err := h.ledger.SetCoeff(caller, req.Coeff); err != nil {
		c.JSON(statusForError(err), gin.H{
			"error":   "Failed to set coefficient",
			"details": err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"coeff":   h.ledger.Coeff(),
	})
}

// Withdraw moves house profit to the owner's balance. Owner only.
func (h *TreasuryHandler) Withdraw(c *gin.Context) {
	caller, ok := middleware.CallerAddress(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Not authenticated"})
		return
	}

	var req models.WithdrawRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request",
			"details": err.Error(),
		})
		return
	}

	if err := h.ledger.Withdraw(caller, req.Amount); err != nil {
		c.JSON(statusForError(err), gin.H{
			"error":   "Failed to withdraw",
			"details": err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"profit":  h.ledger.Profit(),
		"balance": h.ledger.Balance(caller),
	})
}

// Deposit credits the caller's wallet.
func (h *TreasuryHandler) Deposit(c *gin.Context) {
	caller, ok := middleware.CallerAddress(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Not authenticated"})
		return
	}

	var req models.DepositRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request",
			"details": err.Error(),
		})
		return
	}

	balance, err := h.ledger.Deposit(caller, req.Amount)
	if err != nil {
		c.JSON(statusForError(err), gin.H{
			"error":   "Failed to deposit",
			"details": err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"balance": balance,
	})
}

// GetBalance returns the caller's wallet balance and recent transactions.
func (h *TreasuryHandler) GetBalance(c *gin.Context) {
	caller, ok := middleware.CallerAddress(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Not authenticated"})
		return
	}

	limit := parseLimit(c.DefaultQuery("limit", "50"))

	transactions, err := h.store.GetTransactions(caller, limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "Failed to fetch transactions",
			"details": err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":      true,
		"balance":      h.ledger.Balance(caller),
		"transactions": transactions,
	})
}
