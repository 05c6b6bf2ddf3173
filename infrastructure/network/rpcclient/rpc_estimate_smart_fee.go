package rpcclient

import (
	"context"
	"strings"

	"github.com/dfinet/dfitx/domain/txbuilder"
	"github.com/dfinet/dfitx/util"
	"github.com/pkg/errors"
)

// EstimateSmartFee returns the fee rate, in minor units per 1000 virtual
// bytes, for confirmation within confTarget blocks. It returns
// txbuilder.ErrFeeEstimationUnavailable when the node has no estimate.
func (c *RPCClient) EstimateSmartFee(ctx context.Context, confTarget int) (util.Amount, error) {
	result, err := c.post(ctx, "estimatesmartfee", confTarget)
	if err != nil {
		return 0, err
	}

	feeRate := result.Get("feerate")
	if !feeRate.Exists() {
		var reasons []string
		for _, reason := range result.Get("errors").Array() {
			reasons = append(reasons, reason.String())
		}
		return 0, errors.Wrapf(txbuilder.ErrFeeEstimationUnavailable, "estimatesmartfee %d: %s",
			confTarget, strings.Join(reasons, "; "))
	}
	rate, err := parseAmount(feeRate)
	if err != nil {
		return 0, errors.Wrap(err, "estimatesmartfee")
	}
	return rate, nil
}
