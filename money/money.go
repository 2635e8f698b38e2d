// Package money centralizes the decimal amount type and the validation
// rules shared by the Bank and every Auction House item engine.
package money

import (
	"errors"

	"github.com/shopspring/decimal"
)

// Amount is the wire and in-memory representation of every monetary value
// in the system. decimal.Decimal cannot represent NaN or +/-Infinity, so
// the "amounts must be finite" half of spec.md §4.1 holds structurally;
// only positivity needs a runtime check.
type Amount = decimal.Decimal

// Zero is the additive identity, used as the initial blocked/current-bid value.
var Zero = decimal.Zero

var (
	// ErrNotPositive is returned when an amount that must be strictly
	// greater than zero is zero or negative.
	ErrNotPositive = errors.New("amount must be positive")
)

// RequirePositive validates that amt > 0.
func RequirePositive(amt Amount) error {
	if !amt.IsPositive() {
		return ErrNotPositive
	}
	return nil
}

// New builds an Amount from a float64, for call sites (tests, CLI flags)
// that only have a float to hand.
func New(f float64) Amount {
	return decimal.NewFromFloat(f)
}

// Parse parses a decimal string, e.g. from a CLI flag or config value.
func Parse(s string) (Amount, error) {
	return decimal.NewFromString(s)
}
