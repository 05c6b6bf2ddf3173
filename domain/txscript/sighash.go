package txscript

import (
	"bytes"

	"github.com/dfinet/dfitx/domain/hashes"
	"github.com/dfinet/dfitx/domain/serialization"
	"github.com/dfinet/dfitx/domain/wire"
	"github.com/pkg/errors"
)

// SigHashType represents hash type bits at the end of a signature.
type SigHashType uint32

// Hash type bits from the end of a signature.
const (
	SigHashAll          SigHashType = 0x1
	SigHashNone         SigHashType = 0x2
	SigHashSingle       SigHashType = 0x3
	SigHashAnyOneCanPay SigHashType = 0x80

	// sigHashMask defines the number of bits of the hash type which is used
	// to identify which outputs are signed.
	sigHashMask = 0x1f
)

// ErrInvalidSigHashIndex indicates a signature hash requested for an input
// the transaction does not have.
var ErrInvalidSigHashIndex = errors.New("input index out of range")

// TxSigHashes houses the partial set of sighashes introduced within the
// witness signature digest in order to make signature hashing linear in the
// number of inputs. They are computed once per transaction and shared by the
// signing of every input.
type TxSigHashes struct {
	HashPrevOuts hashes.Hash
	HashSequence hashes.Hash
	HashOutputs  hashes.Hash
}

// NewTxSigHashes computes, and returns the cached sighashes of the given
// transaction.
func NewTxSigHashes(tx *wire.MsgTx) *TxSigHashes {
	return &TxSigHashes{
		HashPrevOuts: calcHashPrevOuts(tx),
		HashSequence: calcHashSequence(tx),
		HashOutputs:  calcHashOutputs(tx),
	}
}

func calcHashPrevOuts(tx *wire.MsgTx) hashes.Hash {
	writer := hashes.NewDoubleHashWriter()
	for _, in := range tx.TxIn {
		_ = serialization.WriteElements(writer, &in.PreviousOutpoint.TxID, in.PreviousOutpoint.Index)
	}
	return writer.Finalize()
}

func calcHashSequence(tx *wire.MsgTx) hashes.Hash {
	writer := hashes.NewDoubleHashWriter()
	for _, in := range tx.TxIn {
		_ = serialization.WriteElement(writer, in.Sequence)
	}
	return writer.Finalize()
}

// calcHashOutputs hashes the outputs in their container layout, token id
// included for token aware versions.
func calcHashOutputs(tx *wire.MsgTx) hashes.Hash {
	writer := hashes.NewDoubleHashWriter()
	for _, out := range tx.TxOut {
		_ = wire.WriteTxOut(writer, tx.Version, out)
	}
	return writer.Finalize()
}

// CalcWitnessSignatureHash computes the digest the signature of input idx
// commits to under the version 0 witness scheme. script is the locking script
// of the spent output; a witness pubkey hash script is replaced by its
// pay-to-pubkey-hash script code. amount is the value of the spent output.
func CalcWitnessSignatureHash(script []byte, sigHashes *TxSigHashes, hashType SigHashType,
	tx *wire.MsgTx, idx int, amount int64) ([]byte, error) {

	if idx < 0 || idx >= len(tx.TxIn) {
		return nil, errors.Wrapf(ErrInvalidSigHashIndex, "idx %d but %d txins", idx, len(tx.TxIn))
	}
	if sigHashes == nil {
		sigHashes = NewTxSigHashes(tx)
	}

	var zeroHash hashes.Hash
	var sigHash bytes.Buffer

	_ = serialization.WriteElement(&sigHash, tx.Version)

	// Unless anyone can pay, commit to every previous outpoint.
	if hashType&SigHashAnyOneCanPay == 0 {
		sigHash.Write(sigHashes.HashPrevOuts[:])
	} else {
		sigHash.Write(zeroHash[:])
	}

	// The sequences are committed to only when all outputs are signed and
	// other inputs are fixed.
	if hashType&SigHashAnyOneCanPay == 0 &&
		hashType&sigHashMask != SigHashSingle &&
		hashType&sigHashMask != SigHashNone {
		sigHash.Write(sigHashes.HashSequence[:])
	} else {
		sigHash.Write(zeroHash[:])
	}

	txIn := tx.TxIn[idx]
	_ = serialization.WriteElements(&sigHash, &txIn.PreviousOutpoint.TxID, txIn.PreviousOutpoint.Index)

	scriptCode := script
	if pubKeyHash := ExtractWitnessPubKeyHash(script); pubKeyHash != nil {
		scriptCode = witnessPubKeyHashScriptCode(pubKeyHash)
	}
	_ = serialization.WriteVarBytes(&sigHash, scriptCode)

	_ = serialization.WriteElements(&sigHash, amount, txIn.Sequence)

	switch {
	case hashType&sigHashMask != SigHashSingle && hashType&sigHashMask != SigHashNone:
		sigHash.Write(sigHashes.HashOutputs[:])
	case hashType&sigHashMask == SigHashSingle && idx < len(tx.TxOut):
		writer := hashes.NewDoubleHashWriter()
		_ = wire.WriteTxOut(writer, tx.Version, tx.TxOut[idx])
		singleOutput := writer.Finalize()
		sigHash.Write(singleOutput[:])
	default:
		sigHash.Write(zeroHash[:])
	}

	_ = serialization.WriteElements(&sigHash, tx.LockTime, uint32(hashType))

	return hashes.DoubleHashB(sigHash.Bytes()), nil
}
