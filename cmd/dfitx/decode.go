package main

import (
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/davecgh/go-spew/spew"
	"github.com/dfinet/dfitx/domain/dfiparams"
	"github.com/dfinet/dfitx/domain/txscript"
	"github.com/dfinet/dfitx/domain/wire"
	"github.com/dfinet/dfitx/util"
	"github.com/pkg/errors"
)

func decode(conf *decodeConfig) error {
	serialized, err := hex.DecodeString(strings.TrimSpace(conf.Transaction))
	if err != nil {
		return errors.Wrap(err, "transaction is not valid hex")
	}
	tx, err := wire.DeserializeBytes(serialized)
	if err != nil {
		return err
	}
	fmt.Print(describeTransaction(tx, conf.NetParams()))
	return nil
}

// describeTransaction renders tx for humans, decoding the instruction it
// carries if any.
func describeTransaction(tx *wire.MsgTx, params *dfiparams.Params) string {
	var sb strings.Builder
	txID := tx.TxID()
	witnessTxID := tx.WitnessTxID()
	fmt.Fprintf(&sb, "Transaction ID: %s\n", txID)
	fmt.Fprintf(&sb, "Witness transaction ID: %s\n", witnessTxID)
	fmt.Fprintf(&sb, "Version: %d, lock time: %d, size: %d, virtual size: %d\n",
		tx.Version, tx.LockTime, tx.SerializeSize(), tx.VirtualSize())

	fmt.Fprintf(&sb, "Inputs:\n")
	for i, txIn := range tx.TxIn {
		fmt.Fprintf(&sb, "\t%d: %s, sequence %d, %d witness items\n",
			i, txIn.PreviousOutpoint, txIn.Sequence, len(txIn.Witness))
	}

	fmt.Fprintf(&sb, "Outputs:\n")
	for i, txOut := range tx.TxOut {
		fmt.Fprintf(&sb, "\t%d: %s", i, util.Amount(txOut.Value))
		if txOut.TokenID != 0 {
			fmt.Fprintf(&sb, " of token %d", txOut.TokenID)
		}
		class, address, err := txscript.ExtractScriptAddress(txOut.ScriptPubKey, params)
		if err == nil {
			fmt.Fprintf(&sb, " to %s\n", address)
			continue
		}
		fmt.Fprintf(&sb, " (%s) %s\n", class, txscript.DisasmString(txOut.ScriptPubKey))
		if class != txscript.NullDataTy {
			continue
		}
		instruction, err := txscript.ExtractInstruction(txOut.ScriptPubKey)
		if err != nil {
			if !errors.Is(err, txscript.ErrNotInstructionScript) {
				fmt.Fprintf(&sb, "\t   invalid instruction: %s\n", err)
			}
			continue
		}
		fmt.Fprintf(&sb, "\t   %s instruction: %s", instruction.Type(), spew.Sdump(instruction))
	}
	return sb.String()
}
