package config

import (
	"github.com/dfinet/dfitx/domain/txbuilder"
	"github.com/dfinet/dfitx/util"
	"github.com/pkg/errors"
)

// PolicyFlags holds the transaction building policy. Amounts are decimal coin
// amounts, converted exactly to minor units.
type PolicyFlags struct {
	Dust             string `long:"dust" description:"Smallest change output to create, in coins; smaller change goes to the fee" default:"0.00000546"`
	FallbackFee      string `long:"fallback-fee" description:"Fee rate in coins per 1000 virtual bytes used when the node cannot estimate one" default:"0.00005"`
	MaxCollectRounds int    `long:"max-collect-rounds" description:"Maximum number of times to ask for more spendable outputs" default:"16"`
}

// Policy converts the flags into a builder policy.
func (policyFlags *PolicyFlags) Policy() (txbuilder.Policy, error) {
	policy := txbuilder.DefaultPolicy()

	if policyFlags.Dust != "" {
		dust, err := util.ParseAmount(policyFlags.Dust)
		if err != nil {
			return txbuilder.Policy{}, errors.Wrap(err, "invalid --dust")
		}
		policy.DustThreshold = dust
	}

	if policyFlags.FallbackFee != "" {
		fallbackFee, err := util.ParseAmount(policyFlags.FallbackFee)
		if err != nil {
			return txbuilder.Policy{}, errors.Wrap(err, "invalid --fallback-fee")
		}
		policy.FallbackFeeRate = fallbackFee
	}

	if policyFlags.MaxCollectRounds != 0 {
		policy.MaxCollectRounds = policyFlags.MaxCollectRounds
	}

	err := policy.Validate()
	if err != nil {
		return txbuilder.Policy{}, err
	}
	return policy, nil
}
