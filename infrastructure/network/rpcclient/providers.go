package rpcclient

import (
	"context"
	"sort"

	"github.com/dfinet/dfitx/domain/txbuilder"
	"github.com/dfinet/dfitx/util"
)

// DefaultConfTarget is the confirmation target of fee rate estimates.
const DefaultConfTarget = 6

// PrevoutSource provides the spendable native-coin outputs of the node
// wallet to the transaction builder.
type PrevoutSource struct {
	client    *RPCClient
	minConf   int
	addresses []string
}

// NewPrevoutSource returns a PrevoutSource listing outputs with at least
// minConf confirmations paying to addresses, or to any wallet address when
// none are given.
func NewPrevoutSource(client *RPCClient, minConf int, addresses ...string) *PrevoutSource {
	return &PrevoutSource{
		client:    client,
		minConf:   minConf,
		addresses: addresses,
	}
}

// Collect implements txbuilder.PrevoutProvider. It returns every spendable
// native-coin output, largest first, so that the builder needs as few inputs
// as possible.
func (s *PrevoutSource) Collect(ctx context.Context, minimum util.Amount) ([]*txbuilder.SpendableOutput, error) {
	const maxConf = 9999999
	unspent, err := s.client.ListUnspent(ctx, s.minConf, maxConf, s.addresses)
	if err != nil {
		return nil, err
	}

	var outputs []*txbuilder.SpendableOutput
	var total util.Amount
	for _, output := range unspent {
		if !output.Spendable || output.TokenID != 0 {
			continue
		}
		outputs = append(outputs, &txbuilder.SpendableOutput{
			Outpoint:     output.Outpoint,
			Value:        output.Amount,
			ScriptPubKey: output.ScriptPubKey,
			TokenID:      output.TokenID,
		})
		total += output.Amount
	}
	sort.SliceStable(outputs, func(i, j int) bool {
		return outputs[i].Value > outputs[j].Value
	})

	log.Debugf("Node wallet offers %d spendable outputs worth %s for %s", len(outputs), total, minimum)
	return outputs, nil
}

// FeeEstimator provides the fee rate estimate of the node.
type FeeEstimator struct {
	client     *RPCClient
	confTarget int
}

// NewFeeEstimator returns a FeeEstimator for confirmation within confTarget
// blocks.
func NewFeeEstimator(client *RPCClient, confTarget int) *FeeEstimator {
	return &FeeEstimator{client: client, confTarget: confTarget}
}

// Estimate implements txbuilder.FeeRateProvider.
func (e *FeeEstimator) Estimate(ctx context.Context) (util.Amount, error) {
	return e.client.EstimateSmartFee(ctx, e.confTarget)
}
