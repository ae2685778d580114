package services

import "time"

const (
	KeyGame           = "game:seed:%s"
	KeyGamesByID      = "games:by_id"
	KeyPlayerGames    = "player:%s:games"
	KeyTransaction    = "transaction:%s"
	KeyTransactions   = "address:%s:transactions"
	KeyTreasury       = "treasury:state"
	KeyLoginChallenge = "login:challenge:%s"
	KeyRateLimit      = "ratelimit:%s:%s"

	TTLTransaction    = 30 * 24 * time.Hour // 30 days
	TTLLoginChallenge = 5 * time.Minute

	MaxTransactionHistory = 100
)
