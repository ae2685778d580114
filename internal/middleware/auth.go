package middleware

import (
	"net/http"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/gin-gonic/gin"

	"coinflip-backend/internal/services"
)

func AuthMiddleware(jwtService *services.JWTService) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		var tokenString string

		if authHeader != "" {
			parts := strings.SplitN(authHeader, " ", 2)
			if len(parts) != 2 || parts[0] != "Bearer" {
				c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid authorization format"})
				c.Abort()
				return
			}
			tokenString = parts[1]
		} else {
			tokenString = c.Query("token")
			if tokenString == "" {
				c.JSON(http.StatusUnauthorized, gin.H{"error": "Authorization header required"})
				c.Abort()
				return
			}
		}

		claims, err := jwtService.ValidateToken(tokenString)
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid or expired token"})
			c.Abort()
			return
		}

		c.Set("address", common.HexToAddress(claims.Address))

		c.Next()
	}
}

// RateLimitMiddleware throttles wager traffic per caller: by address
// when authenticated, by client IP on the open confirmation route.
func RateLimitMiddleware(store *services.RedisStore) gin.HandlerFunc {
	return func(c *gin.Context) {
		caller := c.ClientIP()
		if addr, ok := CallerAddress(c); ok {
			caller = addr.Hex()
		}

		path := c.Request.URL.Path

		var limit int
		var window time.Duration

		switch {
		case strings.Contains(path, "/games/play"):
			limit = 30 // 30 bets per minute
			window = time.Minute
		case strings.Contains(path, "/games/confirm"):
			limit = 60 // 60 confirmations per minute
			window = time.Minute
		default:
			c.Next()
			return
		}

		allowed, err := store.CheckRateLimit(caller, path, limit, window)
		if err != nil || !allowed {
			c.JSON(http.StatusTooManyRequests, gin.H{
				"error":       "Rate limit exceeded",
				"retry_after": window.Seconds(),
			})
			c.Abort()
			return
		}

		c.Next()
	}
}

// CallerAddress pulls the authenticated address out of the gin context.
func CallerAddress(c *gin.Context) (common.Address, bool) {
	value, exists := c.Get("address")
	if !exists {
		return common.Address{}, false
	}

	addr, ok := value.(common.Address)
	return addr, ok
}
