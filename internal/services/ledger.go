package services

import (
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/common"

	"coinflip-backend/internal/models"
)

// Ledger drives the wager state machine. Every mutating and reading
// entry point runs under one mutex, so each operation commits in full
// isolation with a total order across all of them. Multi-field
// invariants (bet-range ordering, settlement plus treasury effect)
// depend on that whole-transaction exclusivity.
type Ledger struct {
	mu sync.Mutex

	access   *AccessControl
	config   *BetConfig
	verifier *SignatureVerifier
	treasury *Treasury

	games  map[common.Hash]*models.Game
	nextID uint64

	store       Store
	broadcaster Broadcaster
}

func NewLedger(access *AccessControl, config *BetConfig, treasury *Treasury, store Store) *Ledger {
	return &Ledger{
		access:   access,
		config:   config,
		verifier: NewSignatureVerifier(access),
		treasury: treasury,
		games:    make(map[common.Hash]*models.Game),
		nextID:   1,
		store:    store,
	}
}

// SetBroadcaster attaches the live event feed. Call before serving.
func (l *Ledger) SetBroadcaster(b Broadcaster) {
	l.broadcaster = b
}

// Restore reloads persisted games into an empty ledger. Wallet balances
// are not part of the snapshot; confirmed prizes and deposits made in a
// previous run must be re-deposited out of band.
func (l *Ledger) Restore(games []*models.Game, profit, escrow int64) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if len(l.games) > 0 {
		return fmt.Errorf("ledger already has %d games", len(l.games))
	}

	for _, game := range games {
		snapshot := *game
		l.games[game.Seed] = &snapshot
		if game.ID >= l.nextID {
			l.nextID = game.ID + 1
		}
	}

	l.treasury.profit = profit
	l.treasury.escrow = escrow
	return nil
}

// Play creates a wager: validates the choice, the seed's uniqueness and
// the stake against the current bounds, debits the stake into escrow and
// stores the game as Created. Bounds are checked at creation only; a
// later config change does not invalidate a pending wager.
func (l *Ledger) Play(player common.Address, choice uint8, seed common.Hash, stake int64) (*models.Game, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if choice > 1 {
		return nil, ErrInvalidChoice
	}
	if _, exists := l.games[seed]; exists {
		return nil, ErrDuplicateSeed
	}
	if !l.config.InRange(stake) {
		return nil, fmt.Errorf("%w: stake %d outside [%d, %d]",
			ErrOutOfRange, stake, l.config.MinBet(), l.config.MaxBet())
	}

	if err := l.treasury.TakeStake(player, stake); err != nil {
		return nil, err
	}

	game := &models.Game{
		ID:        l.nextID,
		Seed:      seed,
		Player:    player,
		Choice:    choice,
		BetAmount: stake,
		Result:    models.ResultNone,
		Status:    models.StatusCreated,
		CreatedAt: time.Now(),
	}

	l.nextID++
	l.games[seed] = game

	l.persistGame(game)
	l.recordTransaction(player, models.TransactionTypeBet, stake, seed,
		fmt.Sprintf("Staked %s on %d", models.FormatCurrency(stake), choice))

	if l.broadcaster != nil {
		l.broadcaster.BroadcastGameCreated(&models.GameCreatedEvent{
			Player: player,
			Stake:  stake,
			Choice: choice,
		})
	}

	snapshot := *game
	return &snapshot, nil
}

// Confirm settles a wager with the croupie's signature over its seed.
// Verification failures leave the game and the treasury untouched; on
// success the result, prize, status and fund movement commit together.
func (l *Ledger) Confirm(seed common.Hash, v uint8, r, s [32]byte) (*models.Game, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	game, exists := l.games[seed]
	if !exists {
		return nil, ErrNoSuchGame
	}
	if game.Status != models.StatusCreated {
		return nil, ErrAlreadyConfirmed
	}

	result, err := l.verifier.Outcome(seed, v, r, s)
	if err != nil {
		return nil, err
	}

	var prize int64
	if result == game.Choice {
		prize, err = l.config.Prize(game.BetAmount)
		if err != nil {
			return nil, err
		}
		if err := l.treasury.PayPrize(game.Player, game.BetAmount, prize); err != nil {
			return nil, err
		}
		l.recordTransaction(game.Player, models.TransactionTypePayout, prize, seed,
			fmt.Sprintf("Won %s on game %d", models.FormatCurrency(prize), game.ID))
	} else {
		l.treasury.AccrueLoss(game.BetAmount)
		l.recordTransaction(game.Player, models.TransactionTypeProfit, game.BetAmount, seed,
			fmt.Sprintf("Lost %s on game %d", models.FormatCurrency(game.BetAmount), game.ID))
	}

	game.Result = result
	game.Prize = prize
	game.Status = models.StatusConfirmed
	game.ConfirmedAt = time.Now()

	l.persistGame(game)

	if l.broadcaster != nil {
		l.broadcaster.BroadcastGamePlayed(&models.GamePlayedEvent{
			Player: game.Player,
			Prize:  prize,
			Choice: game.Choice,
			Result: result,
			Status: game.Status,
		})
	}

	snapshot := *game
	return &snapshot, nil
}

// SetBetRange replaces both bet bounds atomically. Owner only.
func (l *Ledger) SetBetRange(caller common.Address, min, max int64) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if err := l.access.RequireOwner(caller); err != nil {
		return err
	}
	return l.config.SetBetRange(min, max)
}

// SetCoeff updates the payout coefficient. Owner only.
func (l *Ledger) SetCoeff(caller common.Address, coeff int64) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if err := l.access.RequireOwner(caller); err != nil {
		return err
	}
	return l.config.SetCoeff(coeff)
}

// Withdraw moves house profit to the owner's balance. Owner only.
func (l *Ledger) Withdraw(caller common.Address, amount int64) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if err := l.access.RequireOwner(caller); err != nil {
		return err
	}
	if amount <= 0 {
		return fmt.Errorf("withdraw amount must be positive, got %d", amount)
	}
	if err := l.treasury.Withdraw(l.access.Owner(), amount); err != nil {
		return err
	}

	l.persistTreasury()
	l.recordTransaction(l.access.Owner(), models.TransactionTypeWithdraw, amount, common.Hash{},
		fmt.Sprintf("Withdrew %s from profit", models.FormatCurrency(amount)))
	return nil
}

// Deposit credits a wallet so it can cover stakes.
func (l *Ledger) Deposit(addr common.Address, amount int64) (int64, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if amount <= 0 {
		return 0, fmt.Errorf("deposit amount must be positive, got %d", amount)
	}

	balance := l.treasury.Deposit(addr, amount)
	l.recordTransaction(addr, models.TransactionTypeDeposit, amount, common.Hash{},
		fmt.Sprintf("Deposited %s", models.FormatCurrency(amount)))
	return balance, nil
}

// Game returns a copy of the wager stored for a seed, if any.
func (l *Ledger) Game(seed common.Hash) (*models.Game, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()

	game, exists := l.games[seed]
	if !exists {
		return nil, false
	}

	snapshot := *game
	return &snapshot, true
}

func (l *Ledger) GameCount() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.games)
}

func (l *Ledger) MinBet() int64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.config.MinBet()
}

func (l *Ledger) MaxBet() int64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.config.MaxBet()
}

func (l *Ledger) Coeff() int64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.config.Coeff()
}

func (l *Ledger) Profit() int64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.treasury.Profit()
}

func (l *Ledger) Balance(addr common.Address) int64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.treasury.Balance(addr)
}

func (l *Ledger) Owner() common.Address {
	return l.access.Owner()
}

func (l *Ledger) Croupie() common.Address {
	return l.access.Croupie()
}

func (l *Ledger) persistGame(game *models.Game) {
	if l.store == nil {
		return
	}

	snapshot := *game
	if err := l.store.SaveGame(&snapshot); err != nil {
		log.Printf("Failed to persist game %d: %v", game.ID, err)
	}
	l.persistTreasury()
}

func (l *Ledger) persistTreasury() {
	if l.store == nil {
		return
	}

	if err := l.store.SaveTreasury(l.treasury.Profit(), l.treasury.Escrow()); err != nil {
		log.Printf("Failed to persist treasury: %v", err)
	}
}

func (l *Ledger) recordTransaction(addr common.Address, txType models.TransactionType, amount int64, seed common.Hash, description string) {
	if l.store == nil {
		return
	}

	balance := l.treasury.Balance(addr)
	before := balance
	switch txType {
	case models.TransactionTypeBet:
		before = balance + amount
	case models.TransactionTypePayout, models.TransactionTypeDeposit, models.TransactionTypeWithdraw:
		before = balance - amount
	}

	tx := &models.Transaction{
		ID:            models.GenerateTransactionID(),
		Address:       addr,
		Type:          txType,
		Amount:        amount,
		BalanceBefore: before,
		BalanceAfter:  balance,
		Description:   description,
		CreatedAt:     time.Now(),
	}
	if (seed != common.Hash{}) {
		tx.GameSeed = seed.Hex()
	}

	if err := l.store.SaveTransaction(tx); err != nil {
		log.Printf("Failed to record transaction: %v", err)
	}
}
