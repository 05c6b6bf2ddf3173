package dftx

import (
	"bytes"
	"io"

	"github.com/dfinet/dfitx/domain/hashes"
	"github.com/dfinet/dfitx/domain/serialization"
)

// SetCollateralToken accepts Token as vault collateral valued through the
// CurrencyPair price feed at Factor, from block ActivateAfterBlock on.
type SetCollateralToken struct {
	Token              uint32
	Factor             int64
	CurrencyPair       CurrencyPair
	ActivateAfterBlock uint32
}

// Type implements Instruction.
func (*SetCollateralToken) Type() Type { return TypeSetCollateralToken }

func (ins *SetCollateralToken) serialize(w io.Writer) error {
	err := writeVarUint32(w, ins.Token)
	if err != nil {
		return err
	}
	err = serialization.WriteElement(w, ins.Factor)
	if err != nil {
		return err
	}
	err = ins.CurrencyPair.serialize(w)
	if err != nil {
		return err
	}
	return serialization.WriteElement(w, ins.ActivateAfterBlock)
}

func (ins *SetCollateralToken) deserialize(r *bytes.Reader) (err error) {
	ins.Token, err = readVarUint32(r)
	if err != nil {
		return err
	}
	err = serialization.ReadElement(r, &ins.Factor)
	if err != nil {
		return err
	}
	err = ins.CurrencyPair.deserialize(r)
	if err != nil {
		return err
	}
	return serialization.ReadElement(r, &ins.ActivateAfterBlock)
}

// LoanToken describes a token that can be borrowed from vaults.
type LoanToken struct {
	Symbol       string
	Name         string
	CurrencyPair CurrencyPair
	Mintable     bool
	Interest     int64
}

func (t *LoanToken) serialize(w io.Writer) error {
	err := serialization.WriteVarString(w, t.Symbol)
	if err != nil {
		return err
	}
	err = serialization.WriteVarString(w, t.Name)
	if err != nil {
		return err
	}
	err = t.CurrencyPair.serialize(w)
	if err != nil {
		return err
	}
	return serialization.WriteElements(w, t.Mintable, t.Interest)
}

func (t *LoanToken) deserialize(r io.Reader) (err error) {
	t.Symbol, err = readString(r)
	if err != nil {
		return err
	}
	t.Name, err = readString(r)
	if err != nil {
		return err
	}
	err = t.CurrencyPair.deserialize(r)
	if err != nil {
		return err
	}
	return serialization.ReadElements(r, &t.Mintable, &t.Interest)
}

// SetLoanToken creates a loan token.
type SetLoanToken struct {
	LoanToken
}

// Type implements Instruction.
func (*SetLoanToken) Type() Type { return TypeSetLoanToken }

func (ins *SetLoanToken) serialize(w io.Writer) error {
	return ins.LoanToken.serialize(w)
}

func (ins *SetLoanToken) deserialize(r *bytes.Reader) error {
	return ins.LoanToken.deserialize(r)
}

// UpdateLoanToken replaces the definition of the loan token created by
// transaction TokenTx.
type UpdateLoanToken struct {
	LoanToken
	TokenTx hashes.Hash
}

// Type implements Instruction.
func (*UpdateLoanToken) Type() Type { return TypeUpdateLoanToken }

func (ins *UpdateLoanToken) serialize(w io.Writer) error {
	err := ins.LoanToken.serialize(w)
	if err != nil {
		return err
	}
	return serialization.WriteElement(w, &ins.TokenTx)
}

func (ins *UpdateLoanToken) deserialize(r *bytes.Reader) error {
	err := ins.LoanToken.deserialize(r)
	if err != nil {
		return err
	}
	return serialization.ReadElement(r, &ins.TokenTx)
}

// SetLoanScheme creates or, when Update is non-zero, schedules an update of
// the loan scheme Identifier: minimum collateral Ratio in percent and
// interest Rate in minor units of one percent.
type SetLoanScheme struct {
	Ratio      uint32
	Rate       int64
	Identifier string
	Update     int64
}

// Type implements Instruction.
func (*SetLoanScheme) Type() Type { return TypeSetLoanScheme }

func (ins *SetLoanScheme) serialize(w io.Writer) error {
	err := serialization.WriteElements(w, ins.Ratio, ins.Rate)
	if err != nil {
		return err
	}
	err = serialization.WriteVarString(w, ins.Identifier)
	if err != nil {
		return err
	}
	return serialization.WriteElement(w, ins.Update)
}

func (ins *SetLoanScheme) deserialize(r *bytes.Reader) (err error) {
	err = serialization.ReadElements(r, &ins.Ratio, &ins.Rate)
	if err != nil {
		return err
	}
	ins.Identifier, err = readString(r)
	if err != nil {
		return err
	}
	return serialization.ReadElement(r, &ins.Update)
}

// SetDefaultLoanScheme makes Identifier the default loan scheme.
type SetDefaultLoanScheme struct {
	Identifier string
}

// Type implements Instruction.
func (*SetDefaultLoanScheme) Type() Type { return TypeSetDefaultLoanScheme }

func (ins *SetDefaultLoanScheme) serialize(w io.Writer) error {
	return serialization.WriteVarString(w, ins.Identifier)
}

func (ins *SetDefaultLoanScheme) deserialize(r *bytes.Reader) (err error) {
	ins.Identifier, err = readString(r)
	return err
}

// DestroyLoanScheme destroys loan scheme Identifier at Height, or
// immediately when Height is zero.
type DestroyLoanScheme struct {
	Identifier string
	Height     int64
}

// Type implements Instruction.
func (*DestroyLoanScheme) Type() Type { return TypeDestroyLoanScheme }

func (ins *DestroyLoanScheme) serialize(w io.Writer) error {
	err := serialization.WriteVarString(w, ins.Identifier)
	if err != nil {
		return err
	}
	return serialization.WriteElement(w, ins.Height)
}

func (ins *DestroyLoanScheme) deserialize(r *bytes.Reader) (err error) {
	ins.Identifier, err = readString(r)
	if err != nil {
		return err
	}
	return serialization.ReadElement(r, &ins.Height)
}
