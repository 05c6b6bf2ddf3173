package dftx

import (
	"bytes"
	"io"

	"github.com/dfinet/dfitx/domain/hashes"
	"github.com/dfinet/dfitx/domain/serialization"
)

// Token flags.
const (
	TokenFlagMintable  uint8 = 0x01
	TokenFlagTradeable uint8 = 0x02
	TokenFlagDAT       uint8 = 0x04
	TokenFlagLPS       uint8 = 0x08
	TokenFlagFinalized uint8 = 0x10
	TokenFlagLoanToken uint8 = 0x20
	TokenFlagDefault         = TokenFlagMintable | TokenFlagTradeable
)

// TokenDefinition describes a token.
type TokenDefinition struct {
	Symbol  string
	Name    string
	Decimal uint8
	Limit   int64
	Flags   uint8
}

func (t *TokenDefinition) serialize(w io.Writer) error {
	err := serialization.WriteVarString(w, t.Symbol)
	if err != nil {
		return err
	}
	err = serialization.WriteVarString(w, t.Name)
	if err != nil {
		return err
	}
	return serialization.WriteElements(w, t.Decimal, t.Limit, t.Flags)
}

func (t *TokenDefinition) deserialize(r io.Reader) (err error) {
	t.Symbol, err = readString(r)
	if err != nil {
		return err
	}
	t.Name, err = readString(r)
	if err != nil {
		return err
	}
	return serialization.ReadElements(r, &t.Decimal, &t.Limit, &t.Flags)
}

// CreateToken creates a new token.
type CreateToken struct {
	TokenDefinition
}

// Type implements Instruction.
func (*CreateToken) Type() Type { return TypeCreateToken }

func (ins *CreateToken) serialize(w io.Writer) error {
	return ins.TokenDefinition.serialize(w)
}

func (ins *CreateToken) deserialize(r *bytes.Reader) error {
	return ins.TokenDefinition.deserialize(r)
}

// UpdateTokenAny replaces the definition of the token created by transaction
// CreationTx.
type UpdateTokenAny struct {
	CreationTx hashes.Hash
	TokenDefinition
}

// Type implements Instruction.
func (*UpdateTokenAny) Type() Type { return TypeUpdateTokenAny }

func (ins *UpdateTokenAny) serialize(w io.Writer) error {
	err := serialization.WriteElement(w, &ins.CreationTx)
	if err != nil {
		return err
	}
	return ins.TokenDefinition.serialize(w)
}

func (ins *UpdateTokenAny) deserialize(r *bytes.Reader) error {
	err := serialization.ReadElement(r, &ins.CreationTx)
	if err != nil {
		return err
	}
	return ins.TokenDefinition.deserialize(r)
}

// MintToken mints amounts of tokens owned by the sender.
type MintToken struct {
	Balances []TokenAmount
}

// Type implements Instruction.
func (*MintToken) Type() Type { return TypeMintToken }

func (ins *MintToken) serialize(w io.Writer) error {
	return writeTokenAmounts(w, ins.Balances)
}

func (ins *MintToken) deserialize(r *bytes.Reader) (err error) {
	ins.Balances, err = readTokenAmounts(r)
	return err
}
