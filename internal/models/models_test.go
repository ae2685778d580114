package models_test

import (
	"strings"
	"testing"

	"coinflip-backend/internal/models"
)

func TestParseSeed(t *testing.T) {
	seed, err := models.ParseSeed("0x" + strings.Repeat("ab", 32))
	if err != nil {
		t.Fatalf("Failed to parse seed: %v", err)
	}
	if seed[0] != 0xab {
		t.Errorf("Seed decoded wrong: %x", seed[0])
	}

	if _, err := models.ParseSeed("0x1234"); err == nil {
		t.Error("Short seed should be rejected")
	}
	if _, err := models.ParseSeed("0x" + strings.Repeat("zz", 32)); err == nil {
		t.Error("Non-hex seed should be rejected")
	}
}

func TestParseSignatureWord(t *testing.T) {
	word, err := models.ParseSignatureWord(strings.Repeat("01", 32))
	if err != nil {
		t.Fatalf("Failed to parse signature word: %v", err)
	}
	if word[31] != 0x01 {
		t.Errorf("Word decoded wrong: %x", word[31])
	}

	if _, err := models.ParseSignatureWord("0xffff"); err == nil {
		t.Error("Short word should be rejected")
	}
}

func TestGameStatusString(t *testing.T) {
	if models.StatusCreated.String() != "created" {
		t.Errorf("Unexpected name: %s", models.StatusCreated.String())
	}
	if models.StatusConfirmed.String() != "confirmed" {
		t.Errorf("Unexpected name: %s", models.StatusConfirmed.String())
	}
	if models.GameStatus(9).String() != "unknown" {
		t.Errorf("Unexpected name for bogus status")
	}
}

func TestFormatCurrency(t *testing.T) {
	if got := models.FormatCurrency(1234); got != "$12.34" {
		t.Errorf("Expected $12.34, got %s", got)
	}
	if got := models.FormatCurrency(5); got != "$0.05" {
		t.Errorf("Expected $0.05, got %s", got)
	}
}

func TestGenerateTransactionID(t *testing.T) {
	first := models.GenerateTransactionID()
	second := models.GenerateTransactionID()

	if first == "" || first == second {
		t.Error("Transaction IDs should be unique and non-empty")
	}
	if !strings.HasPrefix(first, "tx_") {
		t.Errorf("Unexpected ID format: %s", first)
	}
}
