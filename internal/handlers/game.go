package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"coinflip-backend/internal/middleware"
	"coinflip-backend/internal/models"
	"coinflip-backend/internal/services"
)

type GameHandler struct {
	ledger *services.Ledger
	store  *services.RedisStore
}

func NewGameHandler(ledger *services.Ledger, store *services.RedisStore) *GameHandler {
	return &GameHandler{
		ledger: ledger,
		store:  store,
	}
}

// Play creates a wager for the authenticated player.
func (h *GameHandler) Play(c *gin.Context) {
	player, ok := middleware.CallerAddress(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Not authenticated"})
		return
	}

	var req models.PlayRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request",
			"details": err.Error(),
		})
		return
	}

	seed, err := models.ParseSeed(req.Seed)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid seed",
			"details": err.Error(),
		})
		return
	}

	game, err := h.ledger.Play(player, req.Choice, seed, req.Stake)
	if err != nil {
		c.JSON(statusForError(err), gin.H{
			"error":   "Failed to place bet",
			"details": err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"game":    gameResponse(game),
	})
}

// Confirm settles a wager with the croupie's signature. Any caller
// bearing a valid signature may submit it.
func (h *GameHandler) Confirm(c *gin.Context) {
	var req models.ConfirmRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request",
			"details": err.Error(),
		})
		return
	}

	seed, err := models.ParseSeed(req.Seed)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid seed",
			"details": err.Error(),
		})
		return
	}

	r, err := models.ParseSignatureWord(req.R)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid signature",
			"details": err.Error(),
		})
		return
	}

	s, err := models.ParseSignatureWord(req.S)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid signature",
			"details": err.Error(),
		})
		return
	}

	game, err := h.ledger.Confirm(seed, req.V, r, s)
	if err != nil {
		c.JSON(statusForError(err), gin.H{
			"error":   "Failed to confirm game",
			"details": err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"game":    gameResponse(game),
	})
}

// GetGame returns the wager stored for a seed.
func (h *GameHandler) GetGame(c *gin.Context) {
	seed, err := models.ParseSeed(c.Param("seed"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid seed",
			"details": err.Error(),
		})
		return
	}

	game, exists := h.ledger.Game(seed)
	if !exists {
		c.JSON(http.StatusNotFound, gin.H{"error": "Game not found"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"game":    gameResponse(game),
	})
}

// GetRecentGames lists the newest wagers across all players.
func (h *GameHandler) GetRecentGames(c *gin.Context) {
	limit := parseLimit(c.DefaultQuery("limit", "50"))

	games, err := h.store.GetRecentGames(limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "Failed to fetch games",
			"details": err.Error(),
		})
		return
	}

	response := make([]gin.H, 0, len(games))
	for _, game := range games {
		response = append(response, gameResponse(game))
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"games":   response,
		"count":   len(response),
	})
}

// GetMyGames lists the authenticated player's wagers.
func (h *GameHandler) GetMyGames(c *gin.Context) {
	player, ok := middleware.CallerAddress(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Not authenticated"})
		return
	}

	limit := parseLimit(c.DefaultQuery("limit", "50"))

	games, err := h.store.GetPlayerGames(player, limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "Failed to fetch games",
			"details": err.Error(),
		})
		return
	}

	response := make([]gin.H, 0, len(games))
	for _, game := range games {
		response = append(response, gameResponse(game))
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"games":   response,
		"count":   len(response),
	})
}

func gameResponse(game *models.Game) gin.H {
	resp := gin.H{
		"id":         game.ID,
		"seed":       game.Seed.Hex(),
		"player":     game.Player.Hex(),
		"choice":     game.Choice,
		"bet_amount": game.BetAmount,
		"prize":      game.Prize,
		"status":     game.Status.String(),
		"created_at": game.CreatedAt,
	}

	if game.Status == models.StatusConfirmed {
		resp["result"] = game.Result
		resp["confirmed_at"] = game.ConfirmedAt
	}

	return resp
}

func parseLimit(limitStr string) int64 {
	limit, err := strconv.ParseInt(limitStr, 10, 64)
	if err != nil || limit <= 0 || limit > 100 {
		return 50
	}
	return limit
}

func statusForError(err error) int {
	switch {
	case errors.Is(err, services.ErrUnauthorized):
		return http.StatusForbidden
	case errors.Is(err, services.ErrNoSuchGame):
		return http.StatusNotFound
	case errors.Is(err, services.ErrDuplicateSeed), errors.Is(err, services.ErrAlreadyConfirmed):
		return http.StatusConflict
	case errors.Is(err, services.ErrInsufficientTreasury):
		return http.StatusServiceUnavailable
	default:
		return http.StatusBadRequest
	}
}
