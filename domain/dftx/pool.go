package dftx

import (
	"bytes"
	"io"

	"github.com/dfinet/dfitx/domain/serialization"
)

// CreatePoolPair creates a liquidity pool for a pair of tokens. CustomRewards
// is optional and only written when non-empty.
type CreatePoolPair struct {
	TokenA        uint32
	TokenB        uint32
	Commission    int64
	OwnerAddress  []byte
	Status        bool
	PairSymbol    string
	CustomRewards []TokenAmount
}

// Type implements Instruction.
func (*CreatePoolPair) Type() Type { return TypeCreatePoolPair }

func (ins *CreatePoolPair) serialize(w io.Writer) error {
	err := writeVarUint32(w, ins.TokenA)
	if err != nil {
		return err
	}
	err = writeVarUint32(w, ins.TokenB)
	if err != nil {
		return err
	}
	err = serialization.WriteElement(w, ins.Commission)
	if err != nil {
		return err
	}
	err = writeScript(w, ins.OwnerAddress)
	if err != nil {
		return err
	}
	err = serialization.WriteElement(w, ins.Status)
	if err != nil {
		return err
	}
	err = serialization.WriteVarString(w, ins.PairSymbol)
	if err != nil {
		return err
	}
	if len(ins.CustomRewards) > 0 {
		return writeTokenAmounts(w, ins.CustomRewards)
	}
	return nil
}

func (ins *CreatePoolPair) deserialize(r *bytes.Reader) (err error) {
	ins.TokenA, err = readVarUint32(r)
	if err != nil {
		return err
	}
	ins.TokenB, err = readVarUint32(r)
	if err != nil {
		return err
	}
	err = serialization.ReadElement(r, &ins.Commission)
	if err != nil {
		return err
	}
	ins.OwnerAddress, err = readScript(r)
	if err != nil {
		return err
	}
	err = serialization.ReadElement(r, &ins.Status)
	if err != nil {
		return err
	}
	ins.PairSymbol, err = readString(r)
	if err != nil {
		return err
	}
	if r.Len() > 0 {
		ins.CustomRewards, err = readTokenAmounts(r)
	}
	return err
}

// UpdatePoolPair changes the status, commission, owner, and optionally the
// custom rewards of a pool.
type UpdatePoolPair struct {
	PoolID        uint32
	Status        uint32
	Commission    int64
	OwnerAddress  []byte
	CustomRewards []TokenAmount
}

// Type implements Instruction.
func (*UpdatePoolPair) Type() Type { return TypeUpdatePoolPair }

func (ins *UpdatePoolPair) serialize(w io.Writer) error {
	err := writeVarUint32(w, ins.PoolID)
	if err != nil {
		return err
	}
	err = serialization.WriteElements(w, ins.Status, ins.Commission)
	if err != nil {
		return err
	}
	err = writeScript(w, ins.OwnerAddress)
	if err != nil {
		return err
	}
	if len(ins.CustomRewards) > 0 {
		return writeTokenAmounts(w, ins.CustomRewards)
	}
	return nil
}

func (ins *UpdatePoolPair) deserialize(r *bytes.Reader) (err error) {
	ins.PoolID, err = readVarUint32(r)
	if err != nil {
		return err
	}
	err = serialization.ReadElements(r, &ins.Status, &ins.Commission)
	if err != nil {
		return err
	}
	ins.OwnerAddress, err = readScript(r)
	if err != nil {
		return err
	}
	if r.Len() > 0 {
		ins.CustomRewards, err = readTokenAmounts(r)
	}
	return err
}

// MaxPrice bounds the price a swap accepts as Integer + Fraction/1e8.
type MaxPrice struct {
	Integer  int64
	Fraction int64
}

// PoolSwap swaps FromAmount of FromToken owned by From into ToToken credited
// to To.
type PoolSwap struct {
	From       []byte
	FromToken  uint32
	FromAmount int64
	To         []byte
	ToToken    uint32
	MaxPrice   MaxPrice
}

// Type implements Instruction.
func (*PoolSwap) Type() Type { return TypePoolSwap }

func (ins *PoolSwap) serialize(w io.Writer) error {
	err := writeScript(w, ins.From)
	if err != nil {
		return err
	}
	err = writeVarUint32(w, ins.FromToken)
	if err != nil {
		return err
	}
	err = serialization.WriteElement(w, ins.FromAmount)
	if err != nil {
		return err
	}
	err = writeScript(w, ins.To)
	if err != nil {
		return err
	}
	err = writeVarUint32(w, ins.ToToken)
	if err != nil {
		return err
	}
	return serialization.WriteElements(w, ins.MaxPrice.Integer, ins.MaxPrice.Fraction)
}

func (ins *PoolSwap) deserialize(r *bytes.Reader) (err error) {
	ins.From, err = readScript(r)
	if err != nil {
		return err
	}
	ins.FromToken, err = readVarUint32(r)
	if err != nil {
		return err
	}
	err = serialization.ReadElement(r, &ins.FromAmount)
	if err != nil {
		return err
	}
	ins.To, err = readScript(r)
	if err != nil {
		return err
	}
	ins.ToToken, err = readVarUint32(r)
	if err != nil {
		return err
	}
	return serialization.ReadElements(r, &ins.MaxPrice.Integer, &ins.MaxPrice.Fraction)
}

// CompositeSwap is a PoolSwap routed through the listed pools.
type CompositeSwap struct {
	PoolSwap
	Pools []uint32
}

// Type implements Instruction.
func (*CompositeSwap) Type() Type { return TypeCompositeSwap }

func (ins *CompositeSwap) serialize(w io.Writer) error {
	err := ins.PoolSwap.serialize(w)
	if err != nil {
		return err
	}
	err = serialization.WriteVarInt(w, uint64(len(ins.Pools)))
	if err != nil {
		return err
	}
	for _, pool := range ins.Pools {
		err = writeVarUint32(w, pool)
		if err != nil {
			return err
		}
	}
	return nil
}

func (ins *CompositeSwap) deserialize(r *bytes.Reader) error {
	err := ins.PoolSwap.deserialize(r)
	if err != nil {
		return err
	}
	count, err := readCount(r)
	if err != nil || count == 0 {
		return err
	}
	ins.Pools = make([]uint32, count)
	for i := range ins.Pools {
		ins.Pools[i], err = readVarUint32(r)
		if err != nil {
			return err
		}
	}
	return nil
}

// AddPoolLiquidity adds token amounts from accounts to a pool, crediting the
// liquidity share to ShareAddress.
type AddPoolLiquidity struct {
	From         []ScriptBalances
	ShareAddress []byte
}

// Type implements Instruction.
func (*AddPoolLiquidity) Type() Type { return TypeAddPoolLiquidity }

func (ins *AddPoolLiquidity) serialize(w io.Writer) error {
	err := writeScriptBalances(w, ins.From)
	if err != nil {
		return err
	}
	return writeScript(w, ins.ShareAddress)
}

func (ins *AddPoolLiquidity) deserialize(r *bytes.Reader) (err error) {
	ins.From, err = readScriptBalances(r)
	if err != nil {
		return err
	}
	ins.ShareAddress, err = readScript(r)
	return err
}

// RemovePoolLiquidity redeems an amount of a liquidity share token.
type RemovePoolLiquidity struct {
	Script []byte
	Amount VarTokenAmount
}

// Type implements Instruction.
func (*RemovePoolLiquidity) Type() Type { return TypeRemovePoolLiquidity }

func (ins *RemovePoolLiquidity) serialize(w io.Writer) error {
	err := writeScript(w, ins.Script)
	if err != nil {
		return err
	}
	return ins.Amount.serialize(w)
}

func (ins *RemovePoolLiquidity) deserialize(r *bytes.Reader) (err error) {
	ins.Script, err = readScript(r)
	if err != nil {
		return err
	}
	return ins.Amount.deserialize(r)
}
