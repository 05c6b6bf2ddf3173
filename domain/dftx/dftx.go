// Package dftx encodes and decodes the custom ledger instructions carried in
// null data outputs.
//
// Every instruction is written as a one byte selector followed by its fields
// in declared order. On chain the selector is preceded by the four byte
// envelope marker "DfTx".
package dftx

import (
	"bytes"
	"fmt"
	"io"

	"github.com/pkg/errors"
)

// Type is the selector byte of an instruction.
type Type byte

// Selectors of the supported instructions.
const (
	TypeCreateMasternode     Type = 'C'
	TypeResignMasternode     Type = 'R'
	TypeUpdateMasternode     Type = 'm'
	TypeCreateToken          Type = 'T'
	TypeUpdateTokenAny       Type = 'n'
	TypeMintToken            Type = 'M'
	TypeCreatePoolPair       Type = 'p'
	TypeUpdatePoolPair       Type = 'u'
	TypePoolSwap             Type = 's'
	TypeCompositeSwap        Type = 'i'
	TypeAddPoolLiquidity     Type = 'l'
	TypeRemovePoolLiquidity  Type = 'r'
	TypeUtxosToAccount       Type = 'U'
	TypeAccountToUtxos       Type = 'b'
	TypeAccountToAccount     Type = 'B'
	TypeAnyAccountToAccount  Type = 'a'
	TypeSetGovernance        Type = 'G'
	TypeAppointOracle        Type = 'o'
	TypeRemoveOracle         Type = 'h'
	TypeUpdateOracle         Type = 't'
	TypeSetOracleData        Type = 'y'
	TypeSetCollateralToken   Type = 'c'
	TypeSetLoanToken         Type = 'g'
	TypeUpdateLoanToken      Type = 'x'
	TypeSetLoanScheme        Type = 'L'
	TypeSetDefaultLoanScheme Type = 'd'
	TypeDestroyLoanScheme    Type = 'D'
	TypeCreateVault          Type = 'V'
	TypeUpdateVault          Type = 'v'
	TypeDepositToVault       Type = 'S'
	TypeWithdrawFromVault    Type = 'J'
	TypeCloseVault           Type = 'e'
	TypeTakeLoan             Type = 'X'
	TypePaybackLoan          Type = 'H'
	TypePlaceAuctionBid      Type = 'I'
	TypeCreateCfp            Type = 'z'
	TypeCreateVoc            Type = 'E'
	TypeVote                 Type = 'O'
	TypeAutoAuthPrep         Type = 'A'
)

var typeNames = map[Type]string{
	TypeCreateMasternode:     "CreateMasternode",
	TypeResignMasternode:     "ResignMasternode",
	TypeUpdateMasternode:     "UpdateMasternode",
	TypeCreateToken:          "CreateToken",
	TypeUpdateTokenAny:       "UpdateTokenAny",
	TypeMintToken:            "MintToken",
	TypeCreatePoolPair:       "CreatePoolPair",
	TypeUpdatePoolPair:       "UpdatePoolPair",
	TypePoolSwap:             "PoolSwap",
	TypeCompositeSwap:        "CompositeSwap",
	TypeAddPoolLiquidity:     "AddPoolLiquidity",
	TypeRemovePoolLiquidity:  "RemovePoolLiquidity",
	TypeUtxosToAccount:       "UtxosToAccount",
	TypeAccountToUtxos:       "AccountToUtxos",
	TypeAccountToAccount:     "AccountToAccount",
	TypeAnyAccountToAccount:  "AnyAccountToAccount",
	TypeSetGovernance:        "SetGovernance",
	TypeAppointOracle:        "AppointOracle",
	TypeRemoveOracle:         "RemoveOracle",
	TypeUpdateOracle:         "UpdateOracle",
	TypeSetOracleData:        "SetOracleData",
	TypeSetCollateralToken:   "SetCollateralToken",
	TypeSetLoanToken:         "SetLoanToken",
	TypeUpdateLoanToken:      "UpdateLoanToken",
	TypeSetLoanScheme:        "SetLoanScheme",
	TypeSetDefaultLoanScheme: "SetDefaultLoanScheme",
	TypeDestroyLoanScheme:    "DestroyLoanScheme",
	TypeCreateVault:          "CreateVault",
	TypeUpdateVault:          "UpdateVault",
	TypeDepositToVault:       "DepositToVault",
	TypeWithdrawFromVault:    "WithdrawFromVault",
	TypeCloseVault:           "CloseVault",
	TypeTakeLoan:             "TakeLoan",
	TypePaybackLoan:          "PaybackLoan",
	TypePlaceAuctionBid:      "PlaceAuctionBid",
	TypeCreateCfp:            "CreateCfp",
	TypeCreateVoc:            "CreateVoc",
	TypeVote:                 "Vote",
	TypeAutoAuthPrep:         "AutoAuthPrep",
}

// String returns the name of the instruction kind.
func (t Type) String() string {
	if name, ok := typeNames[t]; ok {
		return name
	}
	return fmt.Sprintf("Unknown(0x%02x)", byte(t))
}

// Instruction is a custom ledger instruction. Implementations are the
// concrete types of this package.
type Instruction interface {
	Type() Type
	serialize(w io.Writer) error
	deserialize(r *bytes.Reader) error
}

// registry maps every supported selector to a constructor of its empty
// instruction. It is never modified.
var registry = map[Type]func() Instruction{
	TypeCreateMasternode:     func() Instruction { return &CreateMasternode{} },
	TypeResignMasternode:     func() Instruction { return &ResignMasternode{} },
	TypeUpdateMasternode:     func() Instruction { return &UpdateMasternode{} },
	TypeCreateToken:          func() Instruction { return &CreateToken{} },
	TypeUpdateTokenAny:       func() Instruction { return &UpdateTokenAny{} },
	TypeMintToken:            func() Instruction { return &MintToken{} },
	TypeCreatePoolPair:       func() Instruction { return &CreatePoolPair{} },
	TypeUpdatePoolPair:       func() Instruction { return &UpdatePoolPair{} },
	TypePoolSwap:             func() Instruction { return &PoolSwap{} },
	TypeCompositeSwap:        func() Instruction { return &CompositeSwap{} },
	TypeAddPoolLiquidity:     func() Instruction { return &AddPoolLiquidity{} },
	TypeRemovePoolLiquidity:  func() Instruction { return &RemovePoolLiquidity{} },
	TypeUtxosToAccount:       func() Instruction { return &UtxosToAccount{} },
	TypeAccountToUtxos:       func() Instruction { return &AccountToUtxos{} },
	TypeAccountToAccount:     func() Instruction { return &AccountToAccount{} },
	TypeAnyAccountToAccount:  func() Instruction { return &AnyAccountToAccount{} },
	TypeSetGovernance:        func() Instruction { return &SetGovernance{} },
	TypeAppointOracle:        func() Instruction { return &AppointOracle{} },
	TypeRemoveOracle:         func() Instruction { return &RemoveOracle{} },
	TypeUpdateOracle:         func() Instruction { return &UpdateOracle{} },
	TypeSetOracleData:        func() Instruction { return &SetOracleData{} },
	TypeSetCollateralToken:   func() Instruction { return &SetCollateralToken{} },
	TypeSetLoanToken:         func() Instruction { return &SetLoanToken{} },
	TypeUpdateLoanToken:      func() Instruction { return &UpdateLoanToken{} },
	TypeSetLoanScheme:        func() Instruction { return &SetLoanScheme{} },
	TypeSetDefaultLoanScheme: func() Instruction { return &SetDefaultLoanScheme{} },
	TypeDestroyLoanScheme:    func() Instruction { return &DestroyLoanScheme{} },
	TypeCreateVault:          func() Instruction { return &CreateVault{} },
	TypeUpdateVault:          func() Instruction { return &UpdateVault{} },
	TypeDepositToVault:       func() Instruction { return &DepositToVault{} },
	TypeWithdrawFromVault:    func() Instruction { return &WithdrawFromVault{} },
	TypeCloseVault:           func() Instruction { return &CloseVault{} },
	TypeTakeLoan:             func() Instruction { return &TakeLoan{} },
	TypePaybackLoan:          func() Instruction { return &PaybackLoan{} },
	TypePlaceAuctionBid:      func() Instruction { return &PlaceAuctionBid{} },
	TypeCreateCfp:            func() Instruction { return &CreateCfp{} },
	TypeCreateVoc:            func() Instruction { return &CreateVoc{} },
	TypeVote:                 func() Instruction { return &Vote{} },
	TypeAutoAuthPrep:         func() Instruction { return &AutoAuthPrep{} },
}

// IsSupported returns whether instructions of kind t can be encoded and
// decoded.
func IsSupported(t Type) bool {
	_, ok := registry[t]
	return ok
}

// Magic is the envelope marker that precedes an instruction on chain.
var Magic = []byte{'D', 'f', 'T', 'x'}

var (
	// ErrUnsupportedInstruction indicates a selector with no registered
	// instruction kind.
	ErrUnsupportedInstruction = errors.New("unsupported instruction")

	// ErrMalformedInstruction indicates instruction data that is truncated,
	// invalid, or followed by trailing bytes.
	ErrMalformedInstruction = errors.New("malformed instruction")
)

// Encode serializes the instruction: its selector byte followed by its
// fields.
func Encode(instruction Instruction) ([]byte, error) {
	var buf bytes.Buffer
	err := encodeTo(&buf, instruction)
	if err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// EncodeWithMagic serializes the instruction preceded by Magic.
func EncodeWithMagic(instruction Instruction) ([]byte, error) {
	var buf bytes.Buffer
	buf.Write(Magic)
	err := encodeTo(&buf, instruction)
	if err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func encodeTo(buf *bytes.Buffer, instruction Instruction) error {
	if instruction == nil {
		return errors.Wrap(ErrUnsupportedInstruction, "nil instruction")
	}
	if !IsSupported(instruction.Type()) {
		return errors.Wrapf(ErrUnsupportedInstruction, "%s", instruction.Type())
	}
	buf.WriteByte(byte(instruction.Type()))
	return instruction.serialize(buf)
}

// Decode parses an instruction serialized by Encode. Unknown selectors fail
// with ErrUnsupportedInstruction; anything else that does not parse exactly
// fails with ErrMalformedInstruction.
func Decode(data []byte) (Instruction, error) {
	if len(data) == 0 {
		return nil, errors.Wrap(ErrMalformedInstruction, "empty instruction")
	}

	typ := Type(data[0])
	newInstruction, ok := registry[typ]
	if !ok {
		return nil, errors.Wrapf(ErrUnsupportedInstruction, "selector 0x%02x", data[0])
	}

	instruction := newInstruction()
	r := bytes.NewReader(data[1:])
	err := instruction.deserialize(r)
	if err != nil {
		return nil, errors.Wrapf(ErrMalformedInstruction, "%s: %s", typ, err)
	}
	if r.Len() != 0 {
		return nil, errors.Wrapf(ErrMalformedInstruction, "%s: %d trailing bytes", typ, r.Len())
	}
	return instruction, nil
}

// HasMagic returns whether data starts with the envelope marker.
func HasMagic(data []byte) bool {
	return bytes.HasPrefix(data, Magic)
}

// DecodeWithMagic parses an instruction serialized by EncodeWithMagic.
func DecodeWithMagic(data []byte) (Instruction, error) {
	if !HasMagic(data) {
		return nil, errors.Wrap(ErrMalformedInstruction, "missing envelope marker")
	}
	return Decode(data[len(Magic):])
}
