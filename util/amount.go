package util

import (
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
)

// ErrInvalidAmount is returned when a decimal amount cannot be represented
// exactly in minor units.
var ErrInvalidAmount = errors.New("invalid amount")

var minorUnitsPerCoin = decimal.New(MinorUnitsPerCoin, 0)

// Amount represents a coin value in minor units (1e-8 of a coin). All
// arithmetic on amounts is done on integers so that no rounding drift can
// appear between inputs, outputs and fees.
type Amount uint64

// ParseAmount parses a decimal coin amount such as "10.00000000" or "0.0005"
// into minor units. Amounts with more than 8 fractional digits, negative
// amounts and amounts above MaxMinorUnits are rejected rather than rounded.
func ParseAmount(amount string) (Amount, error) {
	value, err := decimal.NewFromString(amount)
	if err != nil {
		return 0, errors.Wrapf(ErrInvalidAmount, "%q: %s", amount, err)
	}
	return AmountFromDecimal(value)
}

// AmountFromDecimal converts an exact decimal coin amount into minor units.
func AmountFromDecimal(value decimal.Decimal) (Amount, error) {
	if value.Sign() < 0 {
		return 0, errors.Wrapf(ErrInvalidAmount, "%s is negative", value)
	}
	minorUnits := value.Mul(minorUnitsPerCoin)
	if !minorUnits.Equal(minorUnits.Truncate(0)) {
		return 0, errors.Wrapf(ErrInvalidAmount, "%s has more than %d decimal places", value, AmountDecimals)
	}
	if minorUnits.GreaterThan(decimal.New(MaxMinorUnits, 0)) {
		return 0, errors.Wrapf(ErrInvalidAmount, "%s exceeds the maximum amount", value)
	}
	return Amount(minorUnits.IntPart()), nil
}

// Decimal returns the amount in whole coins as an exact decimal.
func (a Amount) Decimal() decimal.Decimal {
	return decimal.New(int64(a), -AmountDecimals)
}

// String formats the amount in whole coins with all 8 fractional digits,
// e.g. "9.99950000".
func (a Amount) String() string {
	return a.Decimal().StringFixed(AmountDecimals)
}
