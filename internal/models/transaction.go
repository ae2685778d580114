package models

import (
	"time"

	"github.com/ethereum/go-ethereum/common"
)

type TransactionType string

const (
	TransactionTypeBet      TransactionType = "bet"
	TransactionTypePayout   TransactionType = "payout"
	TransactionTypeProfit   TransactionType = "profit"
	TransactionTypeDeposit  TransactionType = "deposit"
	TransactionTypeWithdraw TransactionType = "withdraw"
)

type Transaction struct {
	ID            string          `json:"id" redis:"id"`
	Address       common.Address  `json:"address" redis:"address"`
	Type          TransactionType `json:"type" redis:"type"`
	Amount        int64           `json:"amount" redis:"amount"`
	BalanceBefore int64           `json:"balance_before" redis:"balance_before"`
	BalanceAfter  int64           `json:"balance_after" redis:"balance_after"`
	GameSeed      string          `json:"game_seed,omitempty" redis:"game_seed"`
	Description   string          `json:"description" redis:"description"`
	CreatedAt     time.Time       `json:"created_at" redis:"created_at"`
}
