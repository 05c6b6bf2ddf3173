package util

const (
	// AmountDecimals is the number of fractional digits of a coin amount.
	AmountDecimals = 8

	// MinorUnitsPerCoin is the number of minor units in one whole coin.
	MinorUnitsPerCoin = 100000000

	// MaxMinorUnits is the maximum transaction amount allowed in minor units.
	MaxMinorUnits = 1200000000 * MinorUnitsPerCoin
)
