package walletstore

import (
	"bytes"
	"encoding/binary"

	"github.com/dfinet/dfitx/domain/hashes"
	"github.com/dfinet/dfitx/domain/serialization"
	"github.com/dfinet/dfitx/domain/txbuilder"
	"github.com/dfinet/dfitx/domain/wire"
	"github.com/dfinet/dfitx/util"
	"github.com/pkg/errors"
)

// outputKeyPrefix prefixes the keys of spendable outputs. The rest of the
// key is the outpoint: the transaction id followed by the big endian index,
// so that the outputs of a transaction are adjacent.
var outputKeyPrefix = []byte("output-")

const outpointKeySize = hashes.HashSize + 4

// maxScriptSize bounds the script of a stored output.
const maxScriptSize = 10000

// record is a stored spendable output.
type record struct {
	output   *txbuilder.SpendableOutput
	reserved bool
}

func outputKey(outpoint *wire.Outpoint) []byte {
	key := make([]byte, len(outputKeyPrefix)+outpointKeySize)
	copy(key, outputKeyPrefix)
	copy(key[len(outputKeyPrefix):], outpoint.TxID[:])
	binary.BigEndian.PutUint32(key[len(outputKeyPrefix)+hashes.HashSize:], outpoint.Index)
	return key
}

func outpointFromKey(key []byte) (wire.Outpoint, error) {
	if len(key) != len(outputKeyPrefix)+outpointKeySize || !bytes.HasPrefix(key, outputKeyPrefix) {
		return wire.Outpoint{}, errors.Wrapf(ErrCorruptRecord, "unexpected key %x", key)
	}
	var outpoint wire.Outpoint
	copy(outpoint.TxID[:], key[len(outputKeyPrefix):])
	outpoint.Index = binary.BigEndian.Uint32(key[len(outputKeyPrefix)+hashes.HashSize:])
	return outpoint, nil
}

// serializeRecord encodes the value of a stored output as its value, token
// id, reservation flag and script.
func serializeRecord(r *record) ([]byte, error) {
	w := &bytes.Buffer{}
	err := serialization.WriteElements(w, uint64(r.output.Value), r.output.TokenID, r.reserved)
	if err != nil {
		return nil, err
	}
	err = serialization.WriteVarBytes(w, r.output.ScriptPubKey)
	if err != nil {
		return nil, err
	}
	return w.Bytes(), nil
}

func deserializeRecord(key, value []byte) (*record, error) {
	outpoint, err := outpointFromKey(key)
	if err != nil {
		return nil, err
	}

	r := bytes.NewReader(value)
	output := &txbuilder.SpendableOutput{Outpoint: outpoint}
	var amount uint64
	var reserved bool
	err = serialization.ReadElements(r, &amount, &output.TokenID, &reserved)
	if err != nil {
		return nil, errors.Wrapf(ErrCorruptRecord, "output %s: %s", outpoint, err)
	}
	output.ScriptPubKey, err = serialization.ReadVarBytes(r, maxScriptSize, "output script")
	if err != nil {
		return nil, errors.Wrapf(ErrCorruptRecord, "output %s: %s", outpoint, err)
	}
	if r.Len() != 0 {
		return nil, errors.Wrapf(ErrCorruptRecord, "output %s: %d trailing bytes", outpoint, r.Len())
	}
	output.Value = util.Amount(amount)
	return &record{output: output, reserved: reserved}, nil
}
