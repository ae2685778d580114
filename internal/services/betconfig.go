package services

import (
	"fmt"
	"math"
)

// BetConfig holds the mutable treasury parameters. It is not safe for
// concurrent use on its own; the Ledger serializes every access to it
// under its own mutex.
type BetConfig struct {
	minBet int64
	maxBet int64
	coeff  int64
}

func NewBetConfig(minBet, maxBet, coeff int64) *BetConfig {
	return &BetConfig{
		minBet: minBet,
		maxBet: maxBet,
		coeff:  coeff,
	}
}

func (c *BetConfig) MinBet() int64 { return c.minBet }
func (c *BetConfig) MaxBet() int64 { return c.maxBet }
func (c *BetConfig) Coeff() int64  { return c.coeff }

// SetBetRange replaces both bounds as a unit. No caller may ever observe
// minBet > maxBet, even transiently.
func (c *BetConfig) SetBetRange(min, max int64) error {
	if min < 0 || max < 0 {
		return ErrInvalidRange
	}
	if min == 0 && max == 0 {
		return ErrInvalidRange
	}
	if min > max {
		return ErrInvalidRange
	}
	// The largest possible payout must stay representable.
	if max > 0 && c.coeff > math.MaxInt64/max {
		return ErrInvalidRange
	}

	c.minBet = min
	c.maxBet = max
	return nil
}

// SetCoeff updates the payout coefficient, a percentage basis (200 pays
// twice the stake on a win). A coefficient below 100 would pay less than
// the stake on a win, which is never allowed.
func (c *BetConfig) SetCoeff(coeff int64) error {
	if coeff < 100 {
		return ErrInvalidCoefficient
	}
	if c.maxBet > 0 && coeff > math.MaxInt64/c.maxBet {
		return ErrInvalidCoefficient
	}

	c.coeff = coeff
	return nil
}

// Prize computes the payout for a winning stake. Bounds are checked at
// creation time only, so a stake may exceed the current maxBet; the
// product is re-checked here rather than trusted.
func (c *BetConfig) Prize(stake int64) (int64, error) {
	if stake > 0 && c.coeff > math.MaxInt64/stake {
		return 0, fmt.Errorf("%w: payout for stake %d overflows", ErrInvalidCoefficient, stake)
	}
	return stake * c.coeff / 100, nil
}

// InRange reports whether a stake lies within the current bounds.
func (c *BetConfig) InRange(stake int64) bool {
	return stake >= c.minBet && stake <= c.maxBet
}
