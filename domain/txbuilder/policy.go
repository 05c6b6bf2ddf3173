package txbuilder

import (
	"github.com/dfinet/dfitx/domain/wire"
	"github.com/dfinet/dfitx/util"
	"github.com/pkg/errors"
)

const (
	// DefaultDustThreshold is the smallest change output worth creating.
	DefaultDustThreshold util.Amount = 546

	// DefaultFallbackFeeRate is used when no fee rate estimate is
	// available, in minor units per 1000 virtual bytes.
	DefaultFallbackFeeRate util.Amount = 5000

	// DefaultMaxCollectRounds bounds the number of times the builder asks
	// for more spendable outputs.
	DefaultMaxCollectRounds = 16

	// maxStandardTxVirtualSize is the virtual size of the largest standard
	// transaction.
	maxStandardTxVirtualSize = 100000

	// MaxFeeRate is the highest fee rate the builder pays, in minor units
	// per 1000 virtual bytes. Higher estimates are capped to it.
	MaxFeeRate util.Amount = util.MaxMinorUnits / maxStandardTxVirtualSize
)

// Policy holds the parameters of transaction construction.
type Policy struct {
	// DustThreshold is the smallest change output worth creating. Smaller
	// remainders are added to the fee.
	DustThreshold util.Amount

	// FallbackFeeRate replaces an unavailable fee rate estimate, in minor
	// units per 1000 virtual bytes.
	FallbackFeeRate util.Amount

	// MaxCollectRounds bounds the number of PrevoutProvider.Collect calls
	// per build.
	MaxCollectRounds int

	// TxVersion is the version of built transactions.
	TxVersion int32
}

// DefaultPolicy returns the policy used when none is configured.
func DefaultPolicy() Policy {
	return Policy{
		DustThreshold:    DefaultDustThreshold,
		FallbackFeeRate:  DefaultFallbackFeeRate,
		MaxCollectRounds: DefaultMaxCollectRounds,
		TxVersion:        wire.TxVersion,
	}
}

// Validate checks that the policy can drive a build.
func (p Policy) Validate() error {
	if p.DustThreshold == 0 {
		return errors.New("dust threshold must be positive")
	}
	if p.FallbackFeeRate == 0 {
		return errors.New("fallback fee rate must be positive")
	}
	if p.FallbackFeeRate > MaxFeeRate {
		return errors.Errorf("fallback fee rate %s exceeds the maximum of %s", p.FallbackFeeRate, MaxFeeRate)
	}
	if p.MaxCollectRounds < 1 {
		return errors.Errorf("max collect rounds must be at least 1, got %d", p.MaxCollectRounds)
	}
	if p.TxVersion < 1 {
		return errors.Errorf("invalid transaction version %d", p.TxVersion)
	}
	return nil
}
