package txbuilder

import (
	"context"
	"fmt"

	"github.com/dfinet/dfitx/domain/wire"
	"github.com/dfinet/dfitx/util"
	"github.com/pkg/errors"
)

// SpendableOutput is an unspent output controlled by the signer.
type SpendableOutput struct {
	Outpoint     wire.Outpoint
	Value        util.Amount
	ScriptPubKey []byte
	// TokenID is zero for the native coin.
	TokenID uint32
}

// String returns the outpoint and value of the output.
func (o *SpendableOutput) String() string {
	return fmt.Sprintf("%s (%s)", o.Outpoint, o.Value)
}

// PrevoutProvider sources spendable outputs.
type PrevoutProvider interface {
	// Collect returns outputs worth at least minimum where available. The
	// order of the returned outputs is unspecified, and outputs returned by
	// an earlier call may be returned again.
	Collect(ctx context.Context, minimum util.Amount) ([]*SpendableOutput, error)
}

// ErrFeeEstimationUnavailable is returned by fee rate providers that cannot
// produce an estimate. The builder falls back to its policy rate.
var ErrFeeEstimationUnavailable = errors.New("fee estimation unavailable")

// FeeRateProvider estimates the fee rate, in minor units per 1000 virtual
// bytes.
type FeeRateProvider interface {
	Estimate(ctx context.Context) (util.Amount, error)
}

// SigningKeyResolver resolves the key that controls a spendable output.
type SigningKeyResolver interface {
	KeyFor(output *SpendableOutput) (*util.KeyPair, error)
}
