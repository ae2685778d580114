package services

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/redis/go-redis/v9"

	"coinflip-backend/internal/config"
	"coinflip-backend/internal/models"
)

// RedisStore mirrors the ledger's state into Redis: games and the
// treasury snapshot survive restarts, transactions form a capped
// per-address history, and login challenges live here with a short TTL.
type RedisStore struct {
	client *redis.Client
	ctx    context.Context
}

func NewRedisStore(cfg *config.Config) (*RedisStore, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisURL,
		Password: cfg.RedisPass,
		DB:       cfg.RedisDB,
	})

	ctx := context.Background()

	if _, err := client.Ping(ctx).Result(); err != nil {
		return nil, fmt.Errorf("failed to connect to redis: %v", err)
	}

	return &RedisStore{
		client: client,
		ctx:    ctx,
	}, nil
}

func (s *RedisStore) Close() error {
	return s.client.Close()
}

// SaveGame writes a game and indexes it by id and by player. Games are
// never expired; the ledger is append-only.
func (s *RedisStore) SaveGame(game *models.Game) error {
	key := fmt.Sprintf(KeyGame, game.Seed.Hex())

	data, err := json.Marshal(game)
	if err != nil {
		return fmt.Errorf("failed to marshal game: %v", err)
	}

	if err := s.client.Set(s.ctx, key, data, 0).Err(); err != nil {
		return fmt.Errorf("failed to save game: %v", err)
	}

	if err := s.client.ZAdd(s.ctx, KeyGamesByID, redis.Z{
		Score:  float64(game.ID),
		Member: game.Seed.Hex(),
	}).Err(); err != nil {
		return fmt.Errorf("failed to index game: %v", err)
	}

	playerKey := fmt.Sprintf(KeyPlayerGames, game.Player.Hex())
	return s.client.ZAdd(s.ctx, playerKey, redis.Z{
		Score:  float64(game.ID),
		Member: game.Seed.Hex(),
	}).Err()
}

func (s *RedisStore) GetGame(seed common.Hash) (*models.Game, error) {
	key := fmt.Sprintf(KeyGame, seed.Hex())

	data, err := s.client.Get(s.ctx, key).Result()
	if err != nil {
		if err == redis.Nil {
			return nil, fmt.Errorf("game not found: %s", seed.Hex())
		}
		return nil, fmt.Errorf("failed to get game: %v", err)
	}

	var game models.Game
	if err := json.Unmarshal([]byte(data), &game); err != nil {
		return nil, fmt.Errorf("failed to unmarshal game: %v", err)
	}

	return &game, nil
}

// GetRecentGames returns the newest games, highest id first.
func (s *RedisStore) GetRecentGames(limit int64) ([]*models.Game, error) {
	if limit <= 0 || limit > 100 {
		limit = 50
	}

	seeds, err := s.client.ZRevRange(s.ctx, KeyGamesByID, 0, limit-1).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to get game index: %v", err)
	}

	return s.bulkGetGames(seeds)
}

// GetPlayerGames returns a player's newest games, highest id first.
func (s *RedisStore) GetPlayerGames(player common.Address, limit int64) ([]*models.Game, error) {
	if limit <= 0 || limit > 100 {
		limit = 50
	}

	playerKey := fmt.Sprintf(KeyPlayerGames, player.Hex())
	seeds, err := s.client.ZRevRange(s.ctx, playerKey, 0, limit-1).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to get player game index: %v", err)
	}

	return s.bulkGetGames(seeds)
}

func (s *RedisStore) bulkGetGames(seeds []string) ([]*models.Game, error) {
	if len(seeds) == 0 {
		return []*models.Game{}, nil
	}

	pipe := s.client.Pipeline()
	cmds := make([]*redis.StringCmd, len(seeds))

	for i, seed := range seeds {
		key := fmt.Sprintf(KeyGame, seed)
		cmds[i] = pipe.Get(s.ctx, key)
	}

	_, err := pipe.Exec(s.ctx)
	if err != nil && err != redis.Nil {
		return nil, fmt.Errorf("pipeline execution failed: %v", err)
	}

	var games []*models.Game
	for _, cmd := range cmds {
		data, err := cmd.Result()
		if err != nil {
			continue
		}

		var game models.Game
		if err := json.Unmarshal([]byte(data), &game); err != nil {
			continue
		}

		games = append(games, &game)
	}

	return games, nil
}

func (s *RedisStore) SaveTransaction(tx *models.Transaction) error {
	txKey := fmt.Sprintf(KeyTransaction, tx.ID)

	data, err := json.Marshal(tx)
	if err != nil {
		return fmt.Errorf("failed to marshal transaction: %v", err)
	}

	if err := s.client.Set(s.ctx, txKey, data, TTLTransaction).Err(); err != nil {
		return fmt.Errorf("failed to save transaction: %v", err)
	}

	historyKey := fmt.Sprintf(KeyTransactions, tx.Address.Hex())
	if err := s.client.ZAdd(s.ctx, historyKey, redis.Z{
		Score:  float64(tx.CreatedAt.Unix()),
		Member: tx.ID,
	}).Err(); err != nil {
		return fmt.Errorf("failed to index transaction: %v", err)
	}

	// Keep only the newest entries per address.
	s.client.ZRemRangeByRank(s.ctx, historyKey, 0, int64(-(MaxTransactionHistory + 1)))

	return nil
}

func (s *RedisStore) GetTransactions(addr common.Address, limit int64) ([]*models.Transaction, error) {
	if limit <= 0 || limit > 100 {
		limit = 50
	}

	historyKey := fmt.Sprintf(KeyTransactions, addr.Hex())

	txIDs, err := s.client.ZRevRange(s.ctx, historyKey, 0, limit-1).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to get transaction IDs: %v", err)
	}

	var transactions []*models.Transaction
	for _, txID := range txIDs {
		txKey := fmt.Sprintf(KeyTransaction, txID)

		data, err := s.client.Get(s.ctx, txKey).Result()
		if err != nil {
			continue
		}

		var tx models.Transaction
		if err := json.Unmarshal([]byte(data), &tx); err != nil {
			continue
		}

		transactions = append(transactions, &tx)
	}

	return transactions, nil
}

type treasurySnapshot struct {
	Profit int64 `json:"profit"`
	Escrow int64 `json:"escrow"`
}

func (s *RedisStore) SaveTreasury(profit, escrow int64) error {
	data, err := json.Marshal(treasurySnapshot{Profit: profit, Escrow: escrow})
	if err != nil {
		return fmt.Errorf("failed to marshal treasury: %v", err)
	}

	return s.client.Set(s.ctx, KeyTreasury, data, 0).Err()
}

func (s *RedisStore) GetTreasury() (profit, escrow int64, found bool, err error) {
	data, err := s.client.Get(s.ctx, KeyTreasury).Result()
	if err == redis.Nil {
		return 0, 0, false, nil
	}
	if err != nil {
		return 0, 0, false, fmt.Errorf("failed to get treasury: %v", err)
	}

	var snapshot treasurySnapshot
	if err := json.Unmarshal([]byte(data), &snapshot); err != nil {
		return 0, 0, false, fmt.Errorf("failed to unmarshal treasury: %v", err)
	}

	return snapshot.Profit, snapshot.Escrow, true, nil
}

// GetAllGames loads the full game collection, oldest first, for ledger
// recovery at startup.
func (s *RedisStore) GetAllGames() ([]*models.Game, error) {
	seeds, err := s.client.ZRange(s.ctx, KeyGamesByID, 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to get game index: %v", err)
	}

	return s.bulkGetGames(seeds)
}

func (s *RedisStore) SaveLoginChallenge(addr common.Address, nonce string) error {
	key := fmt.Sprintf(KeyLoginChallenge, addr.Hex())
	return s.client.Set(s.ctx, key, nonce, TTLLoginChallenge).Err()
}

func (s *RedisStore) GetLoginChallenge(addr common.Address) (string, error) {
	key := fmt.Sprintf(KeyLoginChallenge, addr.Hex())

	nonce, err := s.client.Get(s.ctx, key).Result()
	if err == redis.Nil {
		return "", fmt.Errorf("no pending challenge for %s", addr.Hex())
	}
	if err != nil {
		return "", fmt.Errorf("failed to get challenge: %v", err)
	}

	return nonce, nil
}

func (s *RedisStore) DeleteLoginChallenge(addr common.Address) error {
	key := fmt.Sprintf(KeyLoginChallenge, addr.Hex())
	return s.client.Del(s.ctx, key).Err()
}

// CheckRateLimit counts an action for a caller inside a rolling window
// and reports whether it is still under the limit.
func (s *RedisStore) CheckRateLimit(caller, action string, limit int, window time.Duration) (bool, error) {
	key := fmt.Sprintf(KeyRateLimit, caller, action)

	count, err := s.client.Incr(s.ctx, key).Result()
	if err != nil {
		return false, fmt.Errorf("failed to check rate limit: %v", err)
	}

	if count == 1 {
		s.client.Expire(s.ctx, key, window)
	}

	return count <= int64(limit), nil
}

func (s *RedisStore) ClearRateLimit(caller, action string) error {
	key := fmt.Sprintf(KeyRateLimit, caller, action)
	return s.client.Del(s.ctx, key).Err()
}

func (s *RedisStore) DeleteGame(seed common.Hash) error {
	key := fmt.Sprintf(KeyGame, seed.Hex())
	s.client.ZRem(s.ctx, KeyGamesByID, seed.Hex())
	return s.client.Del(s.ctx, key).Err()
}
