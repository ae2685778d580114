package main

import (
	"log"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"

	"coinflip-backend/internal/config"
	"coinflip-backend/internal/handlers"
	"coinflip-backend/internal/middleware"
	"coinflip-backend/internal/services"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	store, err := services.NewRedisStore(cfg)
	if err != nil {
		log.Fatalf("Failed to connect to Redis: %v", err)
	}
	defer store.Close()

	jwtService := services.NewJWTService(cfg)

	access := services.NewAccessControl(cfg.Owner, cfg.Croupie)
	betConfig := services.NewBetConfig(cfg.MinBet, cfg.MaxBet, cfg.Coeff)
	treasury := services.NewTreasury(cfg.Bankroll)
	ledger := services.NewLedger(access, betConfig, treasury, store)

	if profit, escrow, found, err := store.GetTreasury(); err != nil {
		log.Printf("Failed to read treasury snapshot: %v", err)
	} else if found {
		games, err := store.GetAllGames()
		if err != nil {
			log.Fatalf("Failed to reload games: %v", err)
		}
		if err := ledger.Restore(games, profit, escrow); err != nil {
			log.Fatalf("Failed to restore ledger: %v", err)
		}
		log.Printf("Restored %d games, profit %d, escrow %d", len(games), profit, escrow)
	}

	wsHandler := handlers.NewWebSocketHandler()
	ledger.SetBroadcaster(wsHandler)

	authHandler := handlers.NewAuthHandler(store, jwtService, ledger)
	gameHandler := handlers.NewGameHandler(ledger, store)
	treasuryHandler := handlers.NewTreasuryHandler(ledger, store)

	if cfg.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.Default()

	router.Use(func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}

		c.Next()
	})

	router.POST("/auth/challenge", authHandler.Challenge)
	router.POST("/auth/login", authHandler.Login)

	// Reads and confirmation are open: anyone may inspect the ledger,
	// and anyone bearing the croupie's signature may settle a game.
	router.GET("/games", gameHandler.GetRecentGames)
	router.GET("/games/:seed", gameHandler.GetGame)
	router.POST("/games/confirm", middleware.RateLimitMiddleware(store), gameHandler.Confirm)
	router.GET("/treasury", treasuryHandler.GetTreasury)

	protected := router.Group("/api")
	protected.Use(middleware.AuthMiddleware(jwtService))
	{
		protected.GET("/me", authHandler.Me)

		protected.GET("/ws", wsHandler.HandleWebSocket)

		games := protected.Group("/games")
		{
			games.POST("/play", middleware.RateLimitMiddleware(store), gameHandler.Play)
			games.GET("/mine", gameHandler.GetMyGames)
		}

		funds := protected.Group("/treasury")
		{
			funds.POST("/betrange", treasuryHandler.SetBetRange)
			funds.POST("/coeff", treasuryHandler.SetCoeff)
			funds.POST("/withdraw", treasuryHandler.Withdraw)
			funds.POST("/deposit", treasuryHandler.Deposit)
			funds.GET("/balance", treasuryHandler.GetBalance)
		}
	}

	port := cfg.Port
	if port == "" {
		port = "8080"
	}

	log.Printf("Server starting on port %s", port)
	if err := router.Run(":" + port); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}
