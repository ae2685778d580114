package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/ethereum/go-ethereum/common"
)

type Config struct {
	Env  string
	Port string

	RedisURL  string
	RedisPass string
	RedisDB   int

	JWTSecret string

	Owner   common.Address
	Croupie common.Address

	// Initial treasury parameters, all amounts in cents.
	MinBet   int64
	MaxBet   int64
	Coeff    int64
	Bankroll int64
}

func Load() (*Config, error) {
	cfg := &Config{
		Env:       getEnv("ENV", "development"),
		Port:      getEnv("PORT", "8080"),
		RedisURL:  getEnv("REDIS_URL", "localhost:6379"),
		RedisPass: getEnv("REDIS_PASSWORD", ""),
		JWTSecret: getEnv("JWT_SECRET", ""),
	}

	if cfg.JWTSecret == "" {
		return nil, fmt.Errorf("JWT_SECRET is required")
	}

	db, err := strconv.Atoi(getEnv("REDIS_DB", "0"))
	if err != nil {
		return nil, fmt.Errorf("invalid REDIS_DB: %v", err)
	}
	cfg.RedisDB = db

	owner := os.Getenv("OWNER_ADDRESS")
	if !common.IsHexAddress(owner) {
		return nil, fmt.Errorf("OWNER_ADDRESS is missing or not a hex address")
	}
	cfg.Owner = common.HexToAddress(owner)

	croupie := os.Getenv("CROUPIE_ADDRESS")
	if !common.IsHexAddress(croupie) {
		return nil, fmt.Errorf("CROUPIE_ADDRESS is missing or not a hex address")
	}
	cfg.Croupie = common.HexToAddress(croupie)

	if cfg.MinBet, err = getEnvInt64("MIN_BET", 200); err != nil {
		return nil, err
	}
	if cfg.MaxBet, err = getEnvInt64("MAX_BET", 500); err != nil {
		return nil, err
	}
	if cfg.Coeff, err = getEnvInt64("COEFF", 200); err != nil {
		return nil, err
	}
	if cfg.Bankroll, err = getEnvInt64("BANKROLL", 1000000); err != nil {
		return nil, err
	}

	if cfg.MinBet > cfg.MaxBet {
		return nil, fmt.Errorf("MIN_BET must not exceed MAX_BET")
	}
	if cfg.Coeff < 100 {
		return nil, fmt.Errorf("COEFF must be at least 100")
	}

	return cfg, nil
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getEnvInt64(key string, fallback int64) (int64, error) {
	value := os.Getenv(key)
	if value == "" {
		return fallback, nil
	}

	n, err := strconv.ParseInt(value, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %v", key, err)
	}
	return n, nil
}
