package txscript

import (
	"bytes"

	"github.com/dfinet/dfitx/domain/wire"
	"github.com/dfinet/dfitx/util"
	"github.com/pkg/errors"
)

// ErrUnsupportedScript indicates a locking script this package cannot sign
// or verify.
var ErrUnsupportedScript = errors.New("unsupported locking script")

// ErrKeyMismatch indicates that a key does not control the output it is
// asked to sign for.
var ErrKeyMismatch = errors.New("key does not match locking script")

// ErrInvalidWitness indicates a witness that does not satisfy its locking
// script.
var ErrInvalidWitness = errors.New("invalid witness")

// RawTxInWitnessSignature returns the serialized ECDSA signature for the
// input idx of the given transaction, with hashType appended to it.
func RawTxInWitnessSignature(tx *wire.MsgTx, sigHashes *TxSigHashes, idx int, amount int64,
	script []byte, hashType SigHashType, key *util.KeyPair) ([]byte, error) {

	hash, err := CalcWitnessSignatureHash(script, sigHashes, hashType, tx, idx, amount)
	if err != nil {
		return nil, err
	}

	signature, err := key.Sign(hash)
	if err != nil {
		return nil, errors.Wrapf(err, "cannot sign tx input %d", idx)
	}

	return append(signature, byte(hashType)), nil
}

// WitnessSignature creates the witness that spends the witness pubkey hash
// output script of value amount as input idx of tx: the signature followed
// by the compressed public key. tx must include all inputs and outputs.
func WitnessSignature(tx *wire.MsgTx, sigHashes *TxSigHashes, idx int, amount int64,
	script []byte, hashType SigHashType, key *util.KeyPair) (wire.TxWitness, error) {

	pubKeyHash := ExtractWitnessPubKeyHash(script)
	if pubKeyHash == nil {
		return nil, errors.Wrapf(ErrUnsupportedScript, "cannot sign %s script", GetScriptClass(script))
	}
	if !bytes.Equal(pubKeyHash, key.PubKeyHash()) {
		return nil, errors.Wrapf(ErrKeyMismatch, "input %d pays to %x", idx, pubKeyHash)
	}

	sig, err := RawTxInWitnessSignature(tx, sigHashes, idx, amount, script, hashType, key)
	if err != nil {
		return nil, err
	}

	return wire.TxWitness{sig, key.PublicKey()}, nil
}

// VerifyWitness checks that the witness of input idx satisfies the witness
// pubkey hash script of the spent output of value amount.
func VerifyWitness(tx *wire.MsgTx, sigHashes *TxSigHashes, idx int, amount int64, script []byte) error {
	if idx < 0 || idx >= len(tx.TxIn) {
		return errors.Wrapf(ErrInvalidSigHashIndex, "idx %d but %d txins", idx, len(tx.TxIn))
	}
	pubKeyHash := ExtractWitnessPubKeyHash(script)
	if pubKeyHash == nil {
		return errors.Wrapf(ErrUnsupportedScript, "cannot verify %s script", GetScriptClass(script))
	}

	witness := tx.TxIn[idx].Witness
	if len(witness) != 2 || len(witness[0]) == 0 {
		return errors.Wrapf(ErrInvalidWitness, "input %d has %d witness items", idx, len(witness))
	}
	sig, pubKey := witness[0], witness[1]
	if !bytes.Equal(util.Hash160(pubKey), pubKeyHash) {
		return errors.Wrapf(ErrInvalidWitness, "input %d public key does not match", idx)
	}

	hashType := SigHashType(sig[len(sig)-1])
	hash, err := CalcWitnessSignatureHash(script, sigHashes, hashType, tx, idx, amount)
	if err != nil {
		return err
	}
	if !util.VerifySignature(sig[:len(sig)-1], hash, pubKey) {
		return errors.Wrapf(ErrInvalidWitness, "input %d signature does not verify", idx)
	}
	return nil
}
