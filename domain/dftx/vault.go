package dftx

import (
	"bytes"
	"io"

	"github.com/dfinet/dfitx/domain/hashes"
	"github.com/dfinet/dfitx/domain/serialization"
)

// CreateVault opens a vault owned by OwnerAddress under loan scheme
// SchemeID. An empty SchemeID selects the default scheme.
type CreateVault struct {
	OwnerAddress []byte
	SchemeID     string
}

// Type implements Instruction.
func (*CreateVault) Type() Type { return TypeCreateVault }

func (ins *CreateVault) serialize(w io.Writer) error {
	err := writeScript(w, ins.OwnerAddress)
	if err != nil {
		return err
	}
	return serialization.WriteVarString(w, ins.SchemeID)
}

func (ins *CreateVault) deserialize(r *bytes.Reader) (err error) {
	ins.OwnerAddress, err = readScript(r)
	if err != nil {
		return err
	}
	ins.SchemeID, err = readString(r)
	return err
}

// UpdateVault changes the owner and loan scheme of a vault.
type UpdateVault struct {
	VaultID      hashes.Hash
	OwnerAddress []byte
	SchemeID     string
}

// Type implements Instruction.
func (*UpdateVault) Type() Type { return TypeUpdateVault }

func (ins *UpdateVault) serialize(w io.Writer) error {
	err := serialization.WriteElement(w, &ins.VaultID)
	if err != nil {
		return err
	}
	err = writeScript(w, ins.OwnerAddress)
	if err != nil {
		return err
	}
	return serialization.WriteVarString(w, ins.SchemeID)
}

func (ins *UpdateVault) deserialize(r *bytes.Reader) (err error) {
	err = serialization.ReadElement(r, &ins.VaultID)
	if err != nil {
		return err
	}
	ins.OwnerAddress, err = readScript(r)
	if err != nil {
		return err
	}
	ins.SchemeID, err = readString(r)
	return err
}

// vaultTransfer is the layout shared by deposits and withdrawals: a vault,
// an account, and a token amount.
type vaultTransfer struct {
	VaultID hashes.Hash
	Script  []byte
	Amount  VarTokenAmount
}

func (t *vaultTransfer) serialize(w io.Writer) error {
	err := serialization.WriteElement(w, &t.VaultID)
	if err != nil {
		return err
	}
	err = writeScript(w, t.Script)
	if err != nil {
		return err
	}
	return t.Amount.serialize(w)
}

func (t *vaultTransfer) deserialize(r *bytes.Reader) (err error) {
	err = serialization.ReadElement(r, &t.VaultID)
	if err != nil {
		return err
	}
	t.Script, err = readScript(r)
	if err != nil {
		return err
	}
	return t.Amount.deserialize(r)
}

// DepositToVault deposits collateral from account From into a vault.
type DepositToVault struct {
	VaultID hashes.Hash
	From    []byte
	Amount  VarTokenAmount
}

// Type implements Instruction.
func (*DepositToVault) Type() Type { return TypeDepositToVault }

func (ins *DepositToVault) serialize(w io.Writer) error {
	return (&vaultTransfer{VaultID: ins.VaultID, Script: ins.From, Amount: ins.Amount}).serialize(w)
}

func (ins *DepositToVault) deserialize(r *bytes.Reader) error {
	var transfer vaultTransfer
	err := transfer.deserialize(r)
	if err != nil {
		return err
	}
	ins.VaultID, ins.From, ins.Amount = transfer.VaultID, transfer.Script, transfer.Amount
	return nil
}

// WithdrawFromVault withdraws collateral from a vault to account To.
type WithdrawFromVault struct {
	VaultID hashes.Hash
	To      []byte
	Amount  VarTokenAmount
}

// Type implements Instruction.
func (*WithdrawFromVault) Type() Type { return TypeWithdrawFromVault }

func (ins *WithdrawFromVault) serialize(w io.Writer) error {
	return (&vaultTransfer{VaultID: ins.VaultID, Script: ins.To, Amount: ins.Amount}).serialize(w)
}

func (ins *WithdrawFromVault) deserialize(r *bytes.Reader) error {
	var transfer vaultTransfer
	err := transfer.deserialize(r)
	if err != nil {
		return err
	}
	ins.VaultID, ins.To, ins.Amount = transfer.VaultID, transfer.Script, transfer.Amount
	return nil
}

// CloseVault closes a vault, returning its collateral to account To.
type CloseVault struct {
	VaultID hashes.Hash
	To      []byte
}

// Type implements Instruction.
func (*CloseVault) Type() Type { return TypeCloseVault }

func (ins *CloseVault) serialize(w io.Writer) error {
	err := serialization.WriteElement(w, &ins.VaultID)
	if err != nil {
		return err
	}
	return writeScript(w, ins.To)
}

func (ins *CloseVault) deserialize(r *bytes.Reader) (err error) {
	err = serialization.ReadElement(r, &ins.VaultID)
	if err != nil {
		return err
	}
	ins.To, err = readScript(r)
	return err
}

// TakeLoan borrows loan tokens against a vault, crediting account To. An
// empty To credits the vault owner.
type TakeLoan struct {
	VaultID  hashes.Hash
	To       []byte
	Balances []TokenAmount
}

// Type implements Instruction.
func (*TakeLoan) Type() Type { return TypeTakeLoan }

func (ins *TakeLoan) serialize(w io.Writer) error {
	err := serialization.WriteElement(w, &ins.VaultID)
	if err != nil {
		return err
	}
	err = writeScript(w, ins.To)
	if err != nil {
		return err
	}
	return writeTokenAmounts(w, ins.Balances)
}

func (ins *TakeLoan) deserialize(r *bytes.Reader) (err error) {
	err = serialization.ReadElement(r, &ins.VaultID)
	if err != nil {
		return err
	}
	ins.To, err = readScript(r)
	if err != nil {
		return err
	}
	ins.Balances, err = readTokenAmounts(r)
	return err
}

// PaybackLoan repays loan tokens of a vault from account From.
type PaybackLoan struct {
	VaultID  hashes.Hash
	From     []byte
	Balances []TokenAmount
}

// Type implements Instruction.
func (*PaybackLoan) Type() Type { return TypePaybackLoan }

func (ins *PaybackLoan) serialize(w io.Writer) error {
	err := serialization.WriteElement(w, &ins.VaultID)
	if err != nil {
		return err
	}
	err = writeScript(w, ins.From)
	if err != nil {
		return err
	}
	return writeTokenAmounts(w, ins.Balances)
}

func (ins *PaybackLoan) deserialize(r *bytes.Reader) (err error) {
	err = serialization.ReadElement(r, &ins.VaultID)
	if err != nil {
		return err
	}
	ins.From, err = readScript(r)
	if err != nil {
		return err
	}
	ins.Balances, err = readTokenAmounts(r)
	return err
}

// PlaceAuctionBid bids on batch Index of the auction of a liquidated vault.
type PlaceAuctionBid struct {
	VaultID hashes.Hash
	Index   uint32
	From    []byte
	Amount  VarTokenAmount
}

// Type implements Instruction.
func (*PlaceAuctionBid) Type() Type { return TypePlaceAuctionBid }

func (ins *PlaceAuctionBid) serialize(w io.Writer) error {
	err := serialization.WriteElements(w, &ins.VaultID, ins.Index)
	if err != nil {
		return err
	}
	err = writeScript(w, ins.From)
	if err != nil {
		return err
	}
	return ins.Amount.serialize(w)
}

func (ins *PlaceAuctionBid) deserialize(r *bytes.Reader) (err error) {
	err = serialization.ReadElements(r, &ins.VaultID, &ins.Index)
	if err != nil {
		return err
	}
	ins.From, err = readScript(r)
	if err != nil {
		return err
	}
	return ins.Amount.deserialize(r)
}
