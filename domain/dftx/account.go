package dftx

import (
	"bytes"
	"io"

	"github.com/dfinet/dfitx/domain/serialization"
)

// UtxosToAccount credits native coins locked in the instruction output to
// the listed accounts.
type UtxosToAccount struct {
	To []ScriptBalances
}

// Type implements Instruction.
func (*UtxosToAccount) Type() Type { return TypeUtxosToAccount }

func (ins *UtxosToAccount) serialize(w io.Writer) error {
	return writeScriptBalances(w, ins.To)
}

func (ins *UtxosToAccount) deserialize(r *bytes.Reader) (err error) {
	ins.To, err = readScriptBalances(r)
	return err
}

// AccountToUtxos moves balances of account From into transaction outputs
// starting at index MintingOutputsStart.
type AccountToUtxos struct {
	From                []byte
	Balances            []TokenAmount
	MintingOutputsStart uint32
}

// Type implements Instruction.
func (*AccountToUtxos) Type() Type { return TypeAccountToUtxos }

func (ins *AccountToUtxos) serialize(w io.Writer) error {
	err := writeScript(w, ins.From)
	if err != nil {
		return err
	}
	err = writeTokenAmounts(w, ins.Balances)
	if err != nil {
		return err
	}
	return serialization.WriteElement(w, ins.MintingOutputsStart)
}

func (ins *AccountToUtxos) deserialize(r *bytes.Reader) (err error) {
	ins.From, err = readScript(r)
	if err != nil {
		return err
	}
	ins.Balances, err = readTokenAmounts(r)
	if err != nil {
		return err
	}
	return serialization.ReadElement(r, &ins.MintingOutputsStart)
}

// AccountToAccount moves balances of account From to the listed accounts.
type AccountToAccount struct {
	From []byte
	To   []ScriptBalances
}

// Type implements Instruction.
func (*AccountToAccount) Type() Type { return TypeAccountToAccount }

func (ins *AccountToAccount) serialize(w io.Writer) error {
	err := writeScript(w, ins.From)
	if err != nil {
		return err
	}
	return writeScriptBalances(w, ins.To)
}

func (ins *AccountToAccount) deserialize(r *bytes.Reader) (err error) {
	ins.From, err = readScript(r)
	if err != nil {
		return err
	}
	ins.To, err = readScriptBalances(r)
	return err
}

// AnyAccountToAccount moves balances from several accounts to several
// accounts.
type AnyAccountToAccount struct {
	From []ScriptBalances
	To   []ScriptBalances
}

// Type implements Instruction.
func (*AnyAccountToAccount) Type() Type { return TypeAnyAccountToAccount }

func (ins *AnyAccountToAccount) serialize(w io.Writer) error {
	err := writeScriptBalances(w, ins.From)
	if err != nil {
		return err
	}
	return writeScriptBalances(w, ins.To)
}

func (ins *AnyAccountToAccount) deserialize(r *bytes.Reader) (err error) {
	ins.From, err = readScriptBalances(r)
	if err != nil {
		return err
	}
	ins.To, err = readScriptBalances(r)
	return err
}
