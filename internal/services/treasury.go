package services

import "github.com/ethereum/go-ethereum/common"

// Treasury owns the running house profit and every wallet balance the
// ledger knows about. Stakes taken at bet time live in escrow: they are
// neither profit nor player funds until the wager settles. Like
// BetConfig, it relies on the Ledger's mutex for serialization.
type Treasury struct {
	profit   int64
	escrow   int64
	balances map[common.Address]int64
}

func NewTreasury(bankroll int64) *Treasury {
	return &Treasury{
		profit:   bankroll,
		balances: make(map[common.Address]int64),
	}
}

func (t *Treasury) Profit() int64 { return t.profit }
func (t *Treasury) Escrow() int64 { return t.escrow }

func (t *Treasury) Balance(addr common.Address) int64 {
	return t.balances[addr]
}

func (t *Treasury) Deposit(addr common.Address, amount int64) int64 {
	t.balances[addr] += amount
	return t.balances[addr]
}

// TakeStake moves a stake from the player's balance into escrow.
func (t *Treasury) TakeStake(player common.Address, stake int64) error {
	if t.balances[player] < stake {
		return ErrInsufficientFunds
	}

	t.balances[player] -= stake
	t.escrow += stake
	return nil
}

// PayPrize settles a winning wager: the escrowed stake comes back to the
// player and the excess over the stake is drawn from profit. The payout
// never happens partially; if profit cannot cover the excess nothing
// moves.
func (t *Treasury) PayPrize(player common.Address, stake, prize int64) error {
	if t.profit < prize-stake {
		return ErrInsufficientTreasury
	}

	t.profit -= prize - stake
	t.escrow -= stake
	t.balances[player] += prize
	return nil
}

// AccrueLoss settles a losing wager: the escrowed stake becomes profit.
func (t *Treasury) AccrueLoss(stake int64) {
	t.escrow -= stake
	t.profit += stake
}

// Withdraw moves profit to the owner's balance.
func (t *Treasury) Withdraw(owner common.Address, amount int64) error {
	if amount > t.profit {
		return ErrInsufficientBalance
	}

	t.profit -= amount
	t.balances[owner] += amount
	return nil
}
