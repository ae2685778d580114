package services_test

import (
	"crypto/ecdsa"
	"errors"
	"math"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"

	"coinflip-backend/internal/models"
	"coinflip-backend/internal/services"
)

var (
	ownerAddr  = common.HexToAddress("0x1000000000000000000000000000000000000001")
	playerAddr = common.HexToAddress("0x2000000000000000000000000000000000000002")
	otherAddr  = common.HexToAddress("0x3000000000000000000000000000000000000003")
)

func newTestLedger(t *testing.T, bankroll int64) (*services.Ledger, *ecdsa.PrivateKey) {
	t.Helper()

	croupieKey, err := crypto.GenerateKey()
	if err != nil {
		t.Fatalf("Failed to generate croupie key: %v", err)
	}
	croupieAddr := crypto.PubkeyToAddress(croupieKey.PublicKey)

	access := services.NewAccessControl(ownerAddr, croupieAddr)
	config := services.NewBetConfig(2, 5, 200)
	treasury := services.NewTreasury(bankroll)

	return services.NewLedger(access, config, treasury, nil), croupieKey
}

// signSeed signs a seed the way the croupie does and returns the
// signature components plus the outcome its s-parity encodes.
func signSeed(t *testing.T, key *ecdsa.PrivateKey, seed common.Hash) (v uint8, r, s [32]byte, outcome uint8) {
	t.Helper()

	sig, err := crypto.Sign(services.SeedDigest(seed), key)
	if err != nil {
		t.Fatalf("Failed to sign seed: %v", err)
	}

	copy(r[:], sig[0:32])
	copy(s[:], sig[32:64])
	v = sig[64] + 27

	return v, r, s, s[31] & 1
}

// findSeed searches for a seed whose croupie signature derives the wanted
// outcome. Signature parity is effectively a coin flip, so a handful of
// attempts is always enough.
func findSeed(t *testing.T, key *ecdsa.PrivateKey, want uint8) (common.Hash, uint8, [32]byte, [32]byte) {
	t.Helper()

	for i := byte(0); i < 64; i++ {
		seed := common.BytesToHash(crypto.Keccak256([]byte{i, byte(want)}))
		v, r, s, outcome := signSeed(t, key, seed)
		if outcome == want {
			return seed, v, r, s
		}
	}

	t.Fatal("Could not find a seed with the wanted outcome")
	return common.Hash{}, 0, [32]byte{}, [32]byte{}
}

// recordingStore keeps everything the ledger persists, in memory.
type recordingStore struct {
	games         []*models.Game
	transactions  []*models.Transaction
	profit        int64
	escrow        int64
	treasurySaves int
}

func (s *recordingStore) SaveGame(game *models.Game) error {
	s.games = append(s.games, game)
	return nil
}

func (s *recordingStore) SaveTransaction(tx *models.Transaction) error {
	s.transactions = append(s.transactions, tx)
	return nil
}

func (s *recordingStore) SaveTreasury(profit, escrow int64) error {
	s.profit = profit
	s.escrow = escrow
	s.treasurySaves++
	return nil
}

func TestSetBetRange(t *testing.T) {
	ledger, _ := newTestLedger(t, 0)

	if err := ledger.SetBetRange(ownerAddr, 10, 50); err != nil {
		t.Fatalf("Failed to set bet range: %v", err)
	}
	if ledger.MinBet() != 10 || ledger.MaxBet() != 50 {
		t.Errorf("Expected range [10, 50], got [%d, %d]", ledger.MinBet(), ledger.MaxBet())
	}

	if err := ledger.SetBetRange(playerAddr, 1, 2); !errors.Is(err, services.ErrUnauthorized) {
		t.Errorf("Expected ErrUnauthorized for non-owner, got %v", err)
	}

	if err := ledger.SetBetRange(ownerAddr, 0, 0); !errors.Is(err, services.ErrInvalidRange) {
		t.Errorf("Expected ErrInvalidRange for (0,0), got %v", err)
	}

	if err := ledger.SetBetRange(ownerAddr, 5, 2); !errors.Is(err, services.ErrInvalidRange) {
		t.Errorf("Expected ErrInvalidRange for min > max, got %v", err)
	}

	// Failed updates must leave the bounds untouched.
	if ledger.MinBet() != 10 || ledger.MaxBet() != 50 {
		t.Errorf("Bounds changed after failed updates: [%d, %d]", ledger.MinBet(), ledger.MaxBet())
	}
}

func TestSetCoeff(t *testing.T) {
	ledger, _ := newTestLedger(t, 0)

	if err := ledger.SetCoeff(ownerAddr, 150); err != nil {
		t.Fatalf("Failed to set coeff: %v", err)
	}
	if ledger.Coeff() != 150 {
		t.Errorf("Expected coeff 150, got %d", ledger.Coeff())
	}

	if err := ledger.SetCoeff(ownerAddr, 99); !errors.Is(err, services.ErrInvalidCoefficient) {
		t.Errorf("Expected ErrInvalidCoefficient for 99, got %v", err)
	}
	if ledger.Coeff() != 150 {
		t.Errorf("Coeff changed after failed update: %d", ledger.Coeff())
	}

	if err := ledger.SetCoeff(playerAddr, 200); !errors.Is(err, services.ErrUnauthorized) {
		t.Errorf("Expected ErrUnauthorized for non-owner, got %v", err)
	}

	if err := ledger.SetCoeff(ownerAddr, 100); err != nil {
		t.Errorf("Coeff 100 should be accepted: %v", err)
	}
}

func TestPlay(t *testing.T) {
	ledger, _ := newTestLedger(t, 100)
	seed := common.HexToHash("0x01")

	if _, err := ledger.Deposit(playerAddr, 100); err != nil {
		t.Fatalf("Failed to deposit: %v", err)
	}

	game, err := ledger.Play(playerAddr, 1, seed, 2)
	if err != nil {
		t.Fatalf("Failed to play: %v", err)
	}

	if game.ID != 1 {
		t.Errorf("Expected first game id 1, got %d", game.ID)
	}
	if game.Player != playerAddr {
		t.Errorf("Wrong player: %s", game.Player.Hex())
	}
	if game.Choice != 1 || game.BetAmount != 2 {
		t.Errorf("Wrong choice/stake: %d/%d", game.Choice, game.BetAmount)
	}
	if game.Result != models.ResultNone || game.Prize != 0 {
		t.Errorf("New game should have no result and no prize, got %d/%d", game.Result, game.Prize)
	}
	if game.Status != models.StatusCreated {
		t.Errorf("Expected status created, got %s", game.Status)
	}

	if ledger.Balance(playerAddr) != 98 {
		t.Errorf("Stake not escrowed, balance %d", ledger.Balance(playerAddr))
	}

	stored, exists := ledger.Game(seed)
	if !exists || stored.ID != game.ID {
		t.Error("Game not retrievable by seed")
	}
}

func TestPlayValidation(t *testing.T) {
	ledger, _ := newTestLedger(t, 100)
	seed := common.HexToHash("0x01")

	ledger.Deposit(playerAddr, 100)

	if _, err := ledger.Play(playerAddr, 2, seed, 2); !errors.Is(err, services.ErrInvalidChoice) {
		t.Errorf("Expected ErrInvalidChoice, got %v", err)
	}

	if _, err := ledger.Play(playerAddr, 1, seed, 2); err != nil {
		t.Fatalf("Failed to play: %v", err)
	}

	// The same seed is rejected forever, regardless of other arguments.
	if _, err := ledger.Play(otherAddr, 0, seed, 3); !errors.Is(err, services.ErrDuplicateSeed) {
		t.Errorf("Expected ErrDuplicateSeed, got %v", err)
	}
	if ledger.GameCount() != 1 {
		t.Errorf("Ledger size changed on rejected play: %d", ledger.GameCount())
	}

	if _, err := ledger.Play(playerAddr, 1, common.HexToHash("0x02"), 1); !errors.Is(err, services.ErrOutOfRange) {
		t.Errorf("Expected ErrOutOfRange below min, got %v", err)
	}
	if _, err := ledger.Play(playerAddr, 1, common.HexToHash("0x02"), 6); !errors.Is(err, services.ErrOutOfRange) {
		t.Errorf("Expected ErrOutOfRange above max, got %v", err)
	}
	if ledger.GameCount() != 1 {
		t.Errorf("Ledger size changed on rejected play: %d", ledger.GameCount())
	}

	if _, err := ledger.Play(otherAddr, 1, common.HexToHash("0x02"), 2); !errors.Is(err, services.ErrInsufficientFunds) {
		t.Errorf("Expected ErrInsufficientFunds for unfunded player, got %v", err)
	}
}

func TestConfirmWin(t *testing.T) {
	ledger, croupieKey := newTestLedger(t, 100)
	ledger.Deposit(playerAddr, 100)

	// choice 1, outcome 1: prize = 2 * 200 / 100 = 4, profit -= 2.
	seed, v, r, s := findSeed(t, croupieKey, 1)
	if _, err := ledger.Play(playerAddr, 1, seed, 2); err != nil {
		t.Fatalf("Failed to play: %v", err)
	}

	profitBefore := ledger.Profit()
	balanceBefore := ledger.Balance(playerAddr)

	game, err := ledger.Confirm(seed, v, r, s)
	if err != nil {
		t.Fatalf("Failed to confirm: %v", err)
	}

	if game.Status != models.StatusConfirmed {
		t.Errorf("Expected status confirmed, got %s", game.Status)
	}
	if game.Result != 1 {
		t.Errorf("Expected result 1, got %d", game.Result)
	}
	if game.Prize != 4 {
		t.Errorf("Expected prize 4, got %d", game.Prize)
	}
	if ledger.Profit() != profitBefore-2 {
		t.Errorf("Expected profit %d, got %d", profitBefore-2, ledger.Profit())
	}
	if ledger.Balance(playerAddr) != balanceBefore+4 {
		t.Errorf("Expected balance %d, got %d", balanceBefore+4, ledger.Balance(playerAddr))
	}
}

func TestConfirmLoss(t *testing.T) {
	ledger, croupieKey := newTestLedger(t, 100)
	ledger.Deposit(playerAddr, 100)

	// choice 1, outcome 0: prize = 0, profit += 2.
	seed, v, r, s := findSeed(t, croupieKey, 0)
	if _, err := ledger.Play(playerAddr, 1, seed, 2); err != nil {
		t.Fatalf("Failed to play: %v", err)
	}

	profitBefore := ledger.Profit()
	balanceBefore := ledger.Balance(playerAddr)

	game, err := ledger.Confirm(seed, v, r, s)
	if err != nil {
		t.Fatalf("Failed to confirm: %v", err)
	}

	if game.Result != 0 {
		t.Errorf("Expected result 0, got %d", game.Result)
	}
	if game.Prize != 0 {
		t.Errorf("Expected prize 0, got %d", game.Prize)
	}
	if ledger.Profit() != profitBefore+2 {
		t.Errorf("Expected profit %d, got %d", profitBefore+2, ledger.Profit())
	}
	if ledger.Balance(playerAddr) != balanceBefore {
		t.Errorf("Loser balance changed: %d", ledger.Balance(playerAddr))
	}
}

func TestConfirmErrors(t *testing.T) {
	ledger, croupieKey := newTestLedger(t, 100)
	ledger.Deposit(playerAddr, 100)

	seed, v, r, s := findSeed(t, croupieKey, 1)

	if _, err := ledger.Confirm(seed, v, r, s); !errors.Is(err, services.ErrNoSuchGame) {
		t.Errorf("Expected ErrNoSuchGame, got %v", err)
	}

	if _, err := ledger.Play(playerAddr, 1, seed, 2); err != nil {
		t.Fatalf("Failed to play: %v", err)
	}

	// A signature from a key that is not the croupie's must be rejected
	// and leave the game untouched.
	strangerKey, err := crypto.GenerateKey()
	if err != nil {
		t.Fatalf("Failed to generate key: %v", err)
	}
	sv, sr, ss, _ := signSeed(t, strangerKey, seed)
	if _, err := ledger.Confirm(seed, sv, sr, ss); !errors.Is(err, services.ErrUnauthorized) {
		t.Errorf("Expected ErrUnauthorized for stranger signature, got %v", err)
	}

	// A malformed recovery id must be rejected too.
	if _, err := ledger.Confirm(seed, 99, r, s); !errors.Is(err, services.ErrBadSignature) {
		t.Errorf("Expected ErrBadSignature for bad v, got %v", err)
	}

	game, _ := ledger.Game(seed)
	if game.Status != models.StatusCreated || game.Result != models.ResultNone {
		t.Error("Failed confirmation mutated the game")
	}

	if _, err := ledger.Confirm(seed, v, r, s); err != nil {
		t.Fatalf("Failed to confirm: %v", err)
	}

	confirmed, _ := ledger.Game(seed)
	if _, err := ledger.Confirm(seed, v, r, s); !errors.Is(err, services.ErrAlreadyConfirmed) {
		t.Errorf("Expected ErrAlreadyConfirmed, got %v", err)
	}

	after, _ := ledger.Game(seed)
	if after.Result != confirmed.Result || after.Prize != confirmed.Prize {
		t.Error("Repeated confirmation changed result or prize")
	}
}

func TestConfirmInsufficientTreasury(t *testing.T) {
	ledger, croupieKey := newTestLedger(t, 0)
	ledger.Deposit(playerAddr, 100)

	seed, v, r, s := findSeed(t, croupieKey, 1)
	if _, err := ledger.Play(playerAddr, 1, seed, 2); err != nil {
		t.Fatalf("Failed to play: %v", err)
	}

	balanceBefore := ledger.Balance(playerAddr)

	// A winning payout of 4 needs 2 from profit, which is empty. The
	// confirmation must fail whole, never silently underpay.
	if _, err := ledger.Confirm(seed, v, r, s); !errors.Is(err, services.ErrInsufficientTreasury) {
		t.Errorf("Expected ErrInsufficientTreasury, got %v", err)
	}

	game, _ := ledger.Game(seed)
	if game.Status != models.StatusCreated {
		t.Errorf("Game should stay created for a retry, got %s", game.Status)
	}
	if ledger.Balance(playerAddr) != balanceBefore {
		t.Errorf("Balance changed on failed confirmation: %d", ledger.Balance(playerAddr))
	}
	if ledger.Profit() != 0 {
		t.Errorf("Profit changed on failed confirmation: %d", ledger.Profit())
	}
}

func TestWithdraw(t *testing.T) {
	ledger, _ := newTestLedger(t, 5)

	if err := ledger.Withdraw(playerAddr, 1); !errors.Is(err, services.ErrUnauthorized) {
		t.Errorf("Expected ErrUnauthorized for non-owner, got %v", err)
	}
	if ledger.Profit() != 5 {
		t.Errorf("Profit changed on unauthorized withdraw: %d", ledger.Profit())
	}

	if err := ledger.Withdraw(ownerAddr, 6); !errors.Is(err, services.ErrInsufficientBalance) {
		t.Errorf("Expected ErrInsufficientBalance, got %v", err)
	}

	if err := ledger.Withdraw(ownerAddr, 1); err != nil {
		t.Fatalf("Failed to withdraw: %v", err)
	}
	if ledger.Profit() != 4 {
		t.Errorf("Expected profit 4 after withdraw, got %d", ledger.Profit())
	}
	if ledger.Balance(ownerAddr) != 1 {
		t.Errorf("Expected owner balance 1, got %d", ledger.Balance(ownerAddr))
	}
}

func TestWithdrawPersistsTreasury(t *testing.T) {
	croupieKey, err := crypto.GenerateKey()
	if err != nil {
		t.Fatalf("Failed to generate croupie key: %v", err)
	}
	access := services.NewAccessControl(ownerAddr, crypto.PubkeyToAddress(croupieKey.PublicKey))
	store := &recordingStore{}
	ledger := services.NewLedger(access, services.NewBetConfig(2, 5, 200), services.NewTreasury(100), store)

	if err := ledger.Withdraw(ownerAddr, 40); err != nil {
		t.Fatalf("Failed to withdraw: %v", err)
	}

	if store.treasurySaves == 0 {
		t.Fatal("Withdraw did not persist the treasury snapshot")
	}
	if store.profit != 60 {
		t.Errorf("Expected persisted profit 60, got %d", store.profit)
	}
	if ledger.Profit() != store.profit {
		t.Errorf("Snapshot profit %d disagrees with ledger profit %d", store.profit, ledger.Profit())
	}
}

func TestConfirmPrizeOverflow(t *testing.T) {
	croupieKey, err := crypto.GenerateKey()
	if err != nil {
		t.Fatalf("Failed to generate croupie key: %v", err)
	}
	access := services.NewAccessControl(ownerAddr, crypto.PubkeyToAddress(croupieKey.PublicKey))

	// The constructor does not re-check the product, so a config loaded
	// with an enormous bet range can still produce an overflowing payout.
	stake := int64(math.MaxInt64 / 100)
	config := services.NewBetConfig(1, stake, 200)
	ledger := services.NewLedger(access, config, services.NewTreasury(0), nil)

	ledger.Deposit(playerAddr, stake)
	seed, v, r, s := findSeed(t, croupieKey, 0)
	if _, err := ledger.Play(playerAddr, 0, seed, stake); err != nil {
		t.Fatalf("Failed to play: %v", err)
	}

	if _, err := ledger.Confirm(seed, v, r, s); !errors.Is(err, services.ErrInvalidCoefficient) {
		t.Errorf("Expected ErrInvalidCoefficient for overflowing payout, got %v", err)
	}

	game, _ := ledger.Game(seed)
	if game.Status != models.StatusCreated {
		t.Errorf("Game settled despite overflowing payout: %v", game.Status)
	}
}

func TestGameIDsAreMonotonic(t *testing.T) {
	ledger, _ := newTestLedger(t, 100)
	ledger.Deposit(playerAddr, 100)

	for i := uint64(1); i <= 3; i++ {
		seed := common.BytesToHash([]byte{byte(i)})
		game, err := ledger.Play(playerAddr, 0, seed, 2)
		if err != nil {
			t.Fatalf("Failed to play game %d: %v", i, err)
		}
		if game.ID != i {
			t.Errorf("Expected game id %d, got %d", i, game.ID)
		}
	}
}

func TestRestore(t *testing.T) {
	ledger, _ := newTestLedger(t, 100)
	ledger.Deposit(playerAddr, 10)
	if _, err := ledger.Play(playerAddr, 1, common.HexToHash("0x01"), 2); err != nil {
		t.Fatalf("Failed to play: %v", err)
	}

	game, _ := ledger.Game(common.HexToHash("0x01"))

	restored, _ := newTestLedger(t, 0)
	if err := restored.Restore([]*models.Game{game}, 42, 2); err != nil {
		t.Fatalf("Failed to restore: %v", err)
	}

	if restored.Profit() != 42 {
		t.Errorf("Expected restored profit 42, got %d", restored.Profit())
	}
	if _, exists := restored.Game(common.HexToHash("0x01")); !exists {
		t.Error("Restored ledger lost the game")
	}

	restored.Deposit(playerAddr, 10)
	next, err := restored.Play(playerAddr, 0, common.HexToHash("0x02"), 2)
	if err != nil {
		t.Fatalf("Failed to play after restore: %v", err)
	}
	if next.ID != game.ID+1 {
		t.Errorf("Expected id %d after restore, got %d", game.ID+1, next.ID)
	}

	if err := restored.Restore(nil, 0, 0); err == nil {
		t.Error("Restore into a non-empty ledger should fail")
	}
}
