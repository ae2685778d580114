package models

import (
	"time"

	"github.com/ethereum/go-ethereum/common"
)

type GameStatus uint8

const (
	StatusCreated GameStatus = iota
	StatusConfirmed
)

// ResultNone marks a game whose outcome has not been derived yet.
const ResultNone uint8 = 2

func (s GameStatus) String() string {
	switch s {
	case StatusCreated:
		return "created"
	case StatusConfirmed:
		return "confirmed"
	default:
		return "unknown"
	}
}

// Game is one wager, keyed by its seed. A seed maps to at most one game,
// ever, and a game moves Created -> Confirmed exactly once.
type Game struct {
	ID        uint64         `json:"id" redis:"id"`
	Seed      common.Hash    `json:"seed" redis:"seed"`
	Player    common.Address `json:"player" redis:"player"`
	Choice    uint8          `json:"choice" redis:"choice"`
	BetAmount int64          `json:"bet_amount" redis:"bet_amount"`
	Result    uint8          `json:"result" redis:"result"`
	Prize     int64          `json:"prize" redis:"prize"`
	Status    GameStatus     `json:"status" redis:"status"`

	CreatedAt   time.Time `json:"created_at" redis:"created_at"`
	ConfirmedAt time.Time `json:"confirmed_at,omitempty" redis:"confirmed_at"`
}

type GameCreatedEvent struct {
	Player common.Address `json:"player"`
	Stake  int64          `json:"stake"`
	Choice uint8          `json:"choice"`
}

type GamePlayedEvent struct {
	Player common.Address `json:"player"`
	Prize  int64          `json:"prize"`
	Choice uint8          `json:"choice"`
	Result uint8          `json:"result"`
	Status GameStatus     `json:"status"`
}
