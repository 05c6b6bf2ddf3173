package txbuilder

import (
	"github.com/dfinet/dfitx/domain/hashes"
	"github.com/dfinet/dfitx/domain/wire"
	"github.com/dfinet/dfitx/util"
)

// Result is a built and signed transaction.
type Result struct {
	Tx  *wire.MsgTx
	Fee util.Amount

	// Inputs are the spent outputs, in input order.
	Inputs []*SpendableOutput

	// ChangeIndex is the index of the change output, or -1 when the
	// remainder was added to the fee.
	ChangeIndex int
}

// Serialize returns the serialized transaction, witnesses included.
func (r *Result) Serialize() []byte {
	return r.Tx.Bytes()
}

// TxID returns the id of the transaction.
func (r *Result) TxID() hashes.Hash {
	return r.Tx.TxID()
}

// Change returns the change value, zero when there is no change output.
func (r *Result) Change() util.Amount {
	if r.ChangeIndex < 0 {
		return 0
	}
	return util.Amount(r.Tx.TxOut[r.ChangeIndex].Value)
}
