package models

type PlayRequest struct {
	Seed   string `json:"seed" binding:"required"`
	Choice uint8  `json:"choice"`
	Stake  int64  `json:"stake" binding:"required,gt=0"`
}

type ConfirmRequest struct {
	Seed string `json:"seed" binding:"required"`
	V    uint8  `json:"v" binding:"required"`
	R    string `json:"r" binding:"required"`
	S    string `json:"s" binding:"required"`
}

type BetRangeRequest struct {
	MinBet int64 `json:"min_bet"`
	MaxBet int64 `json:"max_bet"`
}

type CoeffRequest struct {
	Coeff int64 `json:"coeff" binding:"required"`
}

type WithdrawRequest struct {
	Amount int64 `json:"amount" binding:"required,gt=0"`
}

type DepositRequest struct {
	Amount int64 `json:"amount" binding:"required,gt=0"`
}

type ChallengeRequest struct {
	Address string `json:"address" binding:"required"`
}

type LoginRequest struct {
	Address   string `json:"address" binding:"required"`
	Signature string `json:"signature" binding:"required"`
}
