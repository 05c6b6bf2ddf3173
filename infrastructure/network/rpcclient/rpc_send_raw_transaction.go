package rpcclient

import (
	"context"
	"encoding/hex"

	"github.com/dfinet/dfitx/domain/hashes"
	"github.com/dfinet/dfitx/domain/wire"
	"github.com/pkg/errors"
)

// SendRawTransaction submits tx to the node and returns the id the node
// assigned to it.
func (c *RPCClient) SendRawTransaction(ctx context.Context, tx *wire.MsgTx) (*hashes.Hash, error) {
	result, err := c.post(ctx, "sendrawtransaction", hex.EncodeToString(tx.Bytes()))
	if err != nil {
		return nil, err
	}
	txID, err := hashes.FromString(result.String())
	if err != nil {
		return nil, errors.Wrapf(err, "sendrawtransaction: invalid txid %s", result.Raw)
	}
	if expected := tx.TxID(); !txID.IsEqual(&expected) {
		log.Warnf("Node accepted transaction %s as %s", expected, txID)
	}
	return txID, nil
}
