package handlers

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"net/http"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/gin-gonic/gin"

	"coinflip-backend/internal/middleware"
	"coinflip-backend/internal/models"
	"coinflip-backend/internal/services"
)

// AuthHandler authenticates callers by signature: the server hands out a
// random challenge, the caller personal-signs it, and the recovered
// address becomes the JWT identity. The same secp256k1 recovery the
// settlement core trusts for randomness also proves key ownership here.
type AuthHandler struct {
	store      *services.RedisStore
	jwtService *services.JWTService
	ledger     *services.Ledger
}

func NewAuthHandler(store *services.RedisStore, jwtService *services.JWTService, ledger *services.Ledger) *AuthHandler {
	return &AuthHandler{
		store:      store,
		jwtService: jwtService,
		ledger:     ledger,
	}
}

func (h *AuthHandler) Challenge(c *gin.Context) {
	var req models.ChallengeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request",
			"details": err.Error(),
		})
		return
	}

	if !common.IsHexAddress(req.Address) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Not a hex address"})
		return
	}
	addr := common.HexToAddress(req.Address)

	nonce, err := generateNonce()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to generate challenge"})
		return
	}

	message := fmt.Sprintf("coinflip login %s %s", addr.Hex(), nonce)
	if err := h.store.SaveLoginChallenge(addr, message); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to store challenge"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": message,
	})
}

func (h *AuthHandler) Login(c *gin.Context) {
	var req models.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request",
			"details": err.Error(),
		})
		return
	}

	if !common.IsHexAddress(req.Address) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Not a hex address"})
		return
	}
	addr := common.HexToAddress(req.Address)

	message, err := h.store.GetLoginChallenge(addr)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "No pending challenge"})
		return
	}

	sig, err := hex.DecodeString(strings.TrimPrefix(req.Signature, "0x"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Signature is not valid hex"})
		return
	}

	signer, err := services.RecoverTextSigner([]byte(message), sig)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{
			"error":   "Signature verification failed",
			"details": err.Error(),
		})
		return
	}

	if signer != addr {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Signature does not match address"})
		return
	}

	h.store.DeleteLoginChallenge(addr)

	token, err := h.jwtService.GenerateToken(addr)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to issue token"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"token":   token,
		"address": addr.Hex(),
	})
}

// Me returns the authenticated caller's identity and balance.
func (h *AuthHandler) Me(c *gin.Context) {
	addr, ok := middleware.CallerAddress(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Not authenticated"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"address": addr.Hex(),
		"balance": h.ledger.Balance(addr),
		"owner":   addr == h.ledger.Owner(),
	})
}

func generateNonce() (string, error) {
	bytes := make([]byte, 16)
	if _, err := rand.Read(bytes); err != nil {
		return "", fmt.Errorf("failed to generate nonce: %v", err)
	}
	return hex.EncodeToString(bytes), nil
}
