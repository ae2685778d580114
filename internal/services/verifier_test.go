package services_test

import (
	"errors"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"

	"coinflip-backend/internal/services"
)

func TestOutcomeMatchesSignatureParity(t *testing.T) {
	croupieKey, err := crypto.GenerateKey()
	if err != nil {
		t.Fatalf("Failed to generate key: %v", err)
	}
	croupieAddr := crypto.PubkeyToAddress(croupieKey.PublicKey)

	access := services.NewAccessControl(ownerAddr, croupieAddr)
	verifier := services.NewSignatureVerifier(access)

	for i := byte(0); i < 16; i++ {
		seed := common.BytesToHash(crypto.Keccak256([]byte{i}))
		v, r, s, parity := signSeed(t, croupieKey, seed)

		outcome, err := verifier.Outcome(seed, v, r, s)
		if err != nil {
			t.Fatalf("Failed to derive outcome: %v", err)
		}
		if outcome != parity {
			t.Errorf("Outcome %d does not match s parity %d", outcome, parity)
		}
	}
}

func TestOutcomeIsDeterministic(t *testing.T) {
	croupieKey, err := crypto.GenerateKey()
	if err != nil {
		t.Fatalf("Failed to generate key: %v", err)
	}

	access := services.NewAccessControl(ownerAddr, crypto.PubkeyToAddress(croupieKey.PublicKey))
	verifier := services.NewSignatureVerifier(access)

	seed := common.HexToHash("0xdeadbeef")
	v, r, s, _ := signSeed(t, croupieKey, seed)

	first, err := verifier.Outcome(seed, v, r, s)
	if err != nil {
		t.Fatalf("Failed to derive outcome: %v", err)
	}

	second, err := verifier.Outcome(seed, v, r, s)
	if err != nil {
		t.Fatalf("Failed to derive outcome: %v", err)
	}

	if first != second {
		t.Errorf("Same signature derived different outcomes: %d vs %d", first, second)
	}
}

func TestOutcomeRejectsNonCroupie(t *testing.T) {
	croupieKey, _ := crypto.GenerateKey()
	strangerKey, _ := crypto.GenerateKey()

	access := services.NewAccessControl(ownerAddr, crypto.PubkeyToAddress(croupieKey.PublicKey))
	verifier := services.NewSignatureVerifier(access)

	seed := common.HexToHash("0x01")
	v, r, s, _ := signSeed(t, strangerKey, seed)

	if _, err := verifier.Outcome(seed, v, r, s); !errors.Is(err, services.ErrUnauthorized) {
		t.Errorf("Expected ErrUnauthorized, got %v", err)
	}
}

func TestOutcomeRejectsMalformedSignature(t *testing.T) {
	croupieKey, _ := crypto.GenerateKey()

	access := services.NewAccessControl(ownerAddr, crypto.PubkeyToAddress(croupieKey.PublicKey))
	verifier := services.NewSignatureVerifier(access)

	seed := common.HexToHash("0x01")
	v, r, s, _ := signSeed(t, croupieKey, seed)

	if _, err := verifier.Outcome(seed, 33, r, s); !errors.Is(err, services.ErrBadSignature) {
		t.Errorf("Expected ErrBadSignature for bad v, got %v", err)
	}

	// Zeroed components cannot recover a public key.
	var zero [32]byte
	if _, err := verifier.Outcome(seed, v, zero, zero); !errors.Is(err, services.ErrBadSignature) {
		t.Errorf("Expected ErrBadSignature for zeroed r/s, got %v", err)
	}
}

func TestRecoverTextSigner(t *testing.T) {
	key, err := crypto.GenerateKey()
	if err != nil {
		t.Fatalf("Failed to generate key: %v", err)
	}

	message := []byte("coinflip login test")
	sig, err := crypto.Sign(services.TextDigest(message), key)
	if err != nil {
		t.Fatalf("Failed to sign message: %v", err)
	}

	signer, err := services.RecoverTextSigner(message, sig)
	if err != nil {
		t.Fatalf("Failed to recover signer: %v", err)
	}

	if signer != crypto.PubkeyToAddress(key.PublicKey) {
		t.Errorf("Recovered wrong signer: %s", signer.Hex())
	}

	if _, err := services.RecoverTextSigner(message, sig[:64]); !errors.Is(err, services.ErrBadSignature) {
		t.Errorf("Expected ErrBadSignature for short signature, got %v", err)
	}
}
