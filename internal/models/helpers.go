package models

import (
	"encoding/hex"
	"fmt"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/google/uuid"
)

func GenerateTransactionID() string {
	return fmt.Sprintf("tx_%s_%d",
		time.Now().Format("20060102"),
		uuid.New().ID())
}

// ParseSeed decodes a 0x-prefixed 32-byte hex seed.
func ParseSeed(s string) (common.Hash, error) {
	raw := strings.TrimPrefix(s, "0x")
	if len(raw) != 2*common.HashLength {
		return common.Hash{}, fmt.Errorf("seed must be 32 bytes, got %d hex chars", len(raw))
	}
	if _, err := hex.DecodeString(raw); err != nil {
		return common.Hash{}, fmt.Errorf("seed is not valid hex: %v", err)
	}
	return common.HexToHash(s), nil
}

// ParseSignatureWord decodes a 0x-prefixed 32-byte signature component (r or s).
func ParseSignatureWord(s string) ([32]byte, error) {
	var word [32]byte

	raw := strings.TrimPrefix(s, "0x")
	if len(raw) != 64 {
		return word, fmt.Errorf("signature component must be 32 bytes, got %d hex chars", len(raw))
	}

	decoded, err := hex.DecodeString(raw)
	if err != nil {
		return word, fmt.Errorf("signature component is not valid hex: %v", err)
	}

	copy(word[:], decoded)
	return word, nil
}

func FormatCurrency(cents int64) string {
	return fmt.Sprintf("$%d.%02d", cents/100, cents%100)
}
