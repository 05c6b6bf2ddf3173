package txscript

import (
	"bytes"

	"github.com/dfinet/dfitx/domain/dfiparams"
	"github.com/dfinet/dfitx/domain/dftx"
	"github.com/dfinet/dfitx/domain/serialization"
	"github.com/dfinet/dfitx/util"
	"github.com/pkg/errors"
)

// ScriptClass is an enumeration for the list of standard types of script.
type ScriptClass byte

// Classes of script payment known about in the ledger.
const (
	NonStandardTy         ScriptClass = iota // None of the recognized forms.
	PubKeyHashTy                             // Pay pubkey hash.
	ScriptHashTy                             // Pay to script hash.
	WitnessV0PubKeyHashTy                    // Pay witness pubkey hash.
	NullDataTy                               // Provably unspendable data carrier.
)

var scriptClassToName = []string{
	NonStandardTy:         "nonstandard",
	PubKeyHashTy:          "pubkeyhash",
	ScriptHashTy:          "scripthash",
	WitnessV0PubKeyHashTy: "witness_v0_keyhash",
	NullDataTy:            "nulldata",
}

// String implements the Stringer interface by returning the name of
// the enum script class. If the enum is invalid then "Invalid" will be
// returned.
func (t ScriptClass) String() string {
	if int(t) >= len(scriptClassToName) {
		return "Invalid"
	}
	return scriptClassToName[t]
}

// ErrNotInstructionScript indicates that a script does not carry an
// embedded instruction.
var ErrNotInstructionScript = errors.New("script does not carry an instruction")

// ErrUnsupportedAddress indicates an address type no standard script pays to.
var ErrUnsupportedAddress = errors.New("unsupported address type")

// isWitnessPubKeyHash returns true if the script is the canonical
// single-signature witness locking script.
func isWitnessPubKeyHash(script []byte) bool {
	return len(script) == 22 &&
		script[0] == OP_0 &&
		script[1] == OP_DATA_20
}

// isPubKeyHash returns true if the script is a legacy pay-to-pubkey-hash.
func isPubKeyHash(script []byte) bool {
	return len(script) == 25 &&
		script[0] == OP_DUP &&
		script[1] == OP_HASH160 &&
		script[2] == OP_DATA_20 &&
		script[23] == OP_EQUALVERIFY &&
		script[24] == OP_CHECKSIG
}

// isScriptHash returns true if the script is a pay-to-script-hash.
func isScriptHash(script []byte) bool {
	return len(script) == 23 &&
		script[0] == OP_HASH160 &&
		script[1] == OP_DATA_20 &&
		script[22] == OP_EQUAL
}

// isNullData returns true if the script starts with OP_RETURN and pushes
// data only.
func isNullData(script []byte) bool {
	if len(script) == 0 || script[0] != OP_RETURN {
		return false
	}
	pops, err := parseScript(script[1:])
	if err != nil {
		return false
	}
	for i := range pops {
		if !pops[i].isPush() {
			return false
		}
	}
	return true
}

// GetScriptClass returns the class of the script passed.
func GetScriptClass(script []byte) ScriptClass {
	switch {
	case isWitnessPubKeyHash(script):
		return WitnessV0PubKeyHashTy
	case isPubKeyHash(script):
		return PubKeyHashTy
	case isScriptHash(script):
		return ScriptHashTy
	case isNullData(script):
		return NullDataTy
	}
	return NonStandardTy
}

// PayToWitnessPubKeyHashScript creates the canonical single-signature
// locking script: OP_0 followed by a push of the 20-byte key hash.
func PayToWitnessPubKeyHashScript(pubKeyHash []byte) ([]byte, error) {
	if len(pubKeyHash) != util.Hash160Size {
		return nil, errors.Errorf("witness key hash must be %d bytes, got %d",
			util.Hash160Size, len(pubKeyHash))
	}
	return NewScriptBuilder().AddOp(OP_0).AddData(pubKeyHash).Script()
}

// PayToPubKeyHashScript creates a legacy pay-to-pubkey-hash script.
func PayToPubKeyHashScript(pubKeyHash []byte) ([]byte, error) {
	if len(pubKeyHash) != util.Hash160Size {
		return nil, errors.Errorf("key hash must be %d bytes, got %d",
			util.Hash160Size, len(pubKeyHash))
	}
	return NewScriptBuilder().AddOp(OP_DUP).AddOp(OP_HASH160).
		AddData(pubKeyHash).AddOp(OP_EQUALVERIFY).AddOp(OP_CHECKSIG).
		Script()
}

// PayToScriptHashScript creates a pay-to-script-hash script.
func PayToScriptHashScript(scriptHash []byte) ([]byte, error) {
	if len(scriptHash) != util.Hash160Size {
		return nil, errors.Errorf("script hash must be %d bytes, got %d",
			util.Hash160Size, len(scriptHash))
	}
	return NewScriptBuilder().AddOp(OP_HASH160).AddData(scriptHash).
		AddOp(OP_EQUAL).Script()
}

// PayToAddrScript creates a script to pay to the provided address.
func PayToAddrScript(addr util.Address) ([]byte, error) {
	switch addr := addr.(type) {
	case *util.AddressWitnessPubKeyHash:
		if addr == nil {
			return nil, errors.WithStack(ErrUnsupportedAddress)
		}
		return PayToWitnessPubKeyHashScript(addr.ScriptAddress())

	case *util.AddressPubKeyHash:
		if addr == nil {
			return nil, errors.WithStack(ErrUnsupportedAddress)
		}
		return PayToPubKeyHashScript(addr.ScriptAddress())

	case *util.AddressScriptHash:
		if addr == nil {
			return nil, errors.WithStack(ErrUnsupportedAddress)
		}
		return PayToScriptHashScript(addr.ScriptAddress())
	}

	return nil, errors.Wrapf(ErrUnsupportedAddress, "%T", addr)
}

// ExtractScriptAddress returns the address a standard locking script pays
// to.
func ExtractScriptAddress(script []byte, params *dfiparams.Params) (ScriptClass, util.Address, error) {
	class := GetScriptClass(script)
	var addr util.Address
	var err error
	switch class {
	case WitnessV0PubKeyHashTy:
		addr, err = util.NewAddressWitnessPubKeyHash(script[2:22], params)
	case PubKeyHashTy:
		addr, err = util.NewAddressPubKeyHash(script[3:23], params)
	case ScriptHashTy:
		addr, err = util.NewAddressScriptHashFromHash(script[2:22], params)
	default:
		return class, nil, errors.Errorf("%s script has no address", class)
	}
	if err != nil {
		return class, nil, err
	}
	return class, addr, nil
}

// ExtractWitnessPubKeyHash returns the key hash of a witness pubkey hash
// script, or nil if script is of any other form.
func ExtractWitnessPubKeyHash(script []byte) []byte {
	if !isWitnessPubKeyHash(script) {
		return nil
	}
	return script[2:22]
}

// NullDataScript creates a provably unspendable script carrying data:
// OP_RETURN followed by a single push of the data.
func NullDataScript(data []byte) ([]byte, error) {
	return NewScriptBuilder().AddOp(OP_RETURN).AddData(data).Script()
}

// EmbedInstruction encodes the instruction with its envelope and wraps it in
// a null data script.
func EmbedInstruction(instruction dftx.Instruction) ([]byte, error) {
	payload, err := dftx.EncodeWithMagic(instruction)
	if err != nil {
		return nil, err
	}
	return NullDataScript(payload)
}

// ExtractInstruction decodes the instruction embedded in a null data script
// created by EmbedInstruction.
func ExtractInstruction(script []byte) (dftx.Instruction, error) {
	if len(script) == 0 || script[0] != OP_RETURN {
		return nil, errors.Wrap(ErrNotInstructionScript, "script does not start with OP_RETURN")
	}
	pops, err := parseScript(script[1:])
	if err != nil {
		return nil, err
	}
	if len(pops) != 1 || !pops[0].isPush() || !dftx.HasMagic(pops[0].data) {
		return nil, errors.WithStack(ErrNotInstructionScript)
	}
	return dftx.DecodeWithMagic(pops[0].data)
}

// SerializeScript returns the script prefixed with its compact size length,
// the way scripts appear inside transactions and instructions.
func SerializeScript(script []byte) []byte {
	var buf bytes.Buffer
	buf.Grow(serialization.VarBytesSerializeSize(script))
	// Writing to a bytes.Buffer never fails.
	_ = serialization.WriteVarBytes(&buf, script)
	return buf.Bytes()
}

// witnessPubKeyHashScriptCode returns the script code a witness pubkey hash
// input commits to in its signature hash.
func witnessPubKeyHashScriptCode(pubKeyHash []byte) []byte {
	script, _ := PayToPubKeyHashScript(pubKeyHash)
	return script
}
