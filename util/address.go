package util

import (
	"strings"

	"github.com/btcsuite/btcutil/base58"
	"github.com/btcsuite/btcutil/bech32"
	"github.com/dfinet/dfitx/domain/dfiparams"
	"github.com/pkg/errors"
)

var (
	// ErrInvalidPrefix describes an error where an address or key carries
	// a network prefix (bech32 human-readable part or version byte) that
	// does not belong to the expected network.
	ErrInvalidPrefix = errors.New("invalid network prefix")

	// ErrInvalidChecksum describes an error where an encoded address or key
	// fails its checksum.
	ErrInvalidChecksum = errors.New("invalid checksum")

	// ErrInvalidFormat describes an error where an encoded address or key
	// is structurally malformed.
	ErrInvalidFormat = errors.New("invalid format")
)

// Address is an interface type for any type of destination a transaction
// output may spend to.
type Address interface {
	// String returns the string encoding of the transaction output
	// destination.
	String() string

	// EncodeAddress returns the string encoding of the address.
	EncodeAddress() string

	// ScriptAddress returns the raw bytes of the address to be used
	// when inserting the address into a txout's script.
	ScriptAddress() []byte

	// IsForNet returns whether or not the address is associated with the
	// passed network.
	IsForNet(params *dfiparams.Params) bool
}

// AddressWitnessPubKeyHash is an Address for a pay-to-witness-pubkey-hash
// (P2WPKH) output.
type AddressWitnessPubKeyHash struct {
	hrp            string
	witnessVersion byte
	witnessProgram [Hash160Size]byte
}

// NewAddressWitnessPubKeyHash returns a new AddressWitnessPubKeyHash for the
// given network.
func NewAddressWitnessPubKeyHash(witnessProgram []byte, params *dfiparams.Params) (*AddressWitnessPubKeyHash, error) {
	if len(witnessProgram) != Hash160Size {
		return nil, errors.Wrapf(ErrInvalidFormat, "witness program must be %d bytes, got %d",
			Hash160Size, len(witnessProgram))
	}
	addr := &AddressWitnessPubKeyHash{
		hrp:            params.Bech32HRP,
		witnessVersion: params.WitnessVersion,
	}
	copy(addr.witnessProgram[:], witnessProgram)
	return addr, nil
}

// NewAddressWitnessPubKeyHashFromPublicKey returns the P2WPKH address of the
// given serialized public key.
func NewAddressWitnessPubKeyHashFromPublicKey(serializedPublicKey []byte, params *dfiparams.Params) (
	*AddressWitnessPubKeyHash, error) {

	return NewAddressWitnessPubKeyHash(Hash160(serializedPublicKey), params)
}

// EncodeAddress returns the bech32 string encoding of the address.
func (a *AddressWitnessPubKeyHash) EncodeAddress() string {
	converted, err := bech32.ConvertBits(a.witnessProgram[:], 8, 5, true)
	if err != nil {
		return ""
	}
	data := append([]byte{a.witnessVersion}, converted...)
	encoded, err := bech32.Encode(a.hrp, data)
	if err != nil {
		return ""
	}
	return encoded
}

// ScriptAddress returns the witness program of the address.
func (a *AddressWitnessPubKeyHash) ScriptAddress() []byte {
	return a.witnessProgram[:]
}

// IsForNet returns whether or not the address is associated with the passed
// network.
func (a *AddressWitnessPubKeyHash) IsForNet(params *dfiparams.Params) bool {
	return a.hrp == params.Bech32HRP
}

// String returns a human-readable string for the address.
func (a *AddressWitnessPubKeyHash) String() string {
	return a.EncodeAddress()
}

// WitnessVersion returns the witness version of the address.
func (a *AddressWitnessPubKeyHash) WitnessVersion() byte {
	return a.witnessVersion
}

// AddressPubKeyHash is an Address for a legacy pay-to-pubkey-hash (P2PKH)
// output.
type AddressPubKeyHash struct {
	hash  [Hash160Size]byte
	netID byte
}

// NewAddressPubKeyHash returns a new AddressPubKeyHash. pkHash must be 20
// bytes.
func NewAddressPubKeyHash(pkHash []byte, params *dfiparams.Params) (*AddressPubKeyHash, error) {
	return newAddressPubKeyHash(pkHash, params.PubKeyHashAddrID)
}

func newAddressPubKeyHash(pkHash []byte, netID byte) (*AddressPubKeyHash, error) {
	if len(pkHash) != Hash160Size {
		return nil, errors.Wrapf(ErrInvalidFormat, "pkHash must be %d bytes, got %d", Hash160Size, len(pkHash))
	}
	addr := &AddressPubKeyHash{netID: netID}
	copy(addr.hash[:], pkHash)
	return addr, nil
}

// EncodeAddress returns the base58check string encoding of the address.
func (a *AddressPubKeyHash) EncodeAddress() string {
	return base58.CheckEncode(a.hash[:], a.netID)
}

// ScriptAddress returns the bytes to be included in a txout script to pay
// to a pubkey hash.
func (a *AddressPubKeyHash) ScriptAddress() []byte {
	return a.hash[:]
}

// IsForNet returns whether or not the address is associated with the passed
// network.
func (a *AddressPubKeyHash) IsForNet(params *dfiparams.Params) bool {
	return a.netID == params.PubKeyHashAddrID
}

// String returns a human-readable string for the address.
func (a *AddressPubKeyHash) String() string {
	return a.EncodeAddress()
}

// AddressScriptHash is an Address for a legacy pay-to-script-hash (P2SH)
// output.
type AddressScriptHash struct {
	hash  [Hash160Size]byte
	netID byte
}

// NewAddressScriptHash returns a new AddressScriptHash paying to the hash160
// of the given redeem script.
func NewAddressScriptHash(redeemScript []byte, params *dfiparams.Params) (*AddressScriptHash, error) {
	return NewAddressScriptHashFromHash(Hash160(redeemScript), params)
}

// NewAddressScriptHashFromHash returns a new AddressScriptHash. scriptHash
// must be 20 bytes.
func NewAddressScriptHashFromHash(scriptHash []byte, params *dfiparams.Params) (*AddressScriptHash, error) {
	return newAddressScriptHashFromHash(scriptHash, params.ScriptHashAddrID)
}

func newAddressScriptHashFromHash(scriptHash []byte, netID byte) (*AddressScriptHash, error) {
	if len(scriptHash) != Hash160Size {
		return nil, errors.Wrapf(ErrInvalidFormat, "scriptHash must be %d bytes, got %d",
			Hash160Size, len(scriptHash))
	}
	addr := &AddressScriptHash{netID: netID}
	copy(addr.hash[:], scriptHash)
	return addr, nil
}

// EncodeAddress returns the base58check string encoding of the address.
func (a *AddressScriptHash) EncodeAddress() string {
	return base58.CheckEncode(a.hash[:], a.netID)
}

// ScriptAddress returns the bytes to be included in a txout script to pay
// to a script hash.
func (a *AddressScriptHash) ScriptAddress() []byte {
	return a.hash[:]
}

// IsForNet returns whether or not the address is associated with the passed
// network.
func (a *AddressScriptHash) IsForNet(params *dfiparams.Params) bool {
	return a.netID == params.ScriptHashAddrID
}

// String returns a human-readable string for the address.
func (a *AddressScriptHash) String() string {
	return a.EncodeAddress()
}

// DecodeAddress decodes the string encoding of an address and returns the
// Address if addr is a valid encoding for a known address type of the given
// network.
//
// Segwit addresses are recognised by the network's bech32 human-readable
// part, legacy addresses by their base58check version byte. An address that
// belongs to another network fails with ErrInvalidPrefix and a corrupted one
// with ErrInvalidChecksum.
func DecodeAddress(addr string, params *dfiparams.Params) (Address, error) {
	hrp, looksLikeBech32 := bech32HRP(addr)
	var segwitErr error
	if looksLikeBech32 && hrp == params.Bech32HRP {
		address, err := decodeSegwitAddress(addr, params)
		if err == nil {
			return address, nil
		}
		segwitErr = err
	}

	decoded, netID, err := base58.CheckDecode(addr)
	if err != nil {
		if segwitErr != nil {
			return nil, segwitErr
		}
		if looksLikeBech32 && isSegwitAddress(addr, hrp) {
			return nil, errors.Wrapf(ErrInvalidPrefix, "address %s has prefix %q, expected %q",
				addr, hrp, params.Bech32HRP)
		}
		if errors.Is(err, base58.ErrChecksum) {
			return nil, errors.Wrapf(ErrInvalidChecksum, "address %s", addr)
		}
		return nil, errors.Wrapf(ErrInvalidFormat, "address %s: %s", addr, err)
	}

	if len(decoded) != Hash160Size {
		return nil, errors.Wrapf(ErrInvalidFormat, "address %s decodes to %d bytes, expected %d",
			addr, len(decoded), Hash160Size)
	}
	switch netID {
	case params.PubKeyHashAddrID:
		return newAddressPubKeyHash(decoded, netID)
	case params.ScriptHashAddrID:
		return newAddressScriptHashFromHash(decoded, netID)
	default:
		return nil, errors.Wrapf(ErrInvalidPrefix, "address %s has version byte 0x%02x which is not "+
			"used by %s", addr, netID, params.Name)
	}
}

func decodeSegwitAddress(addr string, params *dfiparams.Params) (Address, error) {
	_, data, err := bech32.Decode(addr)
	if err != nil {
		return nil, errors.Wrapf(ErrInvalidChecksum, "address %s: %s", addr, err)
	}
	if len(data) < 1 {
		return nil, errors.Wrapf(ErrInvalidFormat, "address %s has no witness version", addr)
	}

	witnessVersion := data[0]
	if witnessVersion != params.WitnessVersion {
		return nil, errors.Wrapf(ErrInvalidFormat, "address %s has unsupported witness version %d",
			addr, witnessVersion)
	}
	program, err := bech32.ConvertBits(data[1:], 5, 8, false)
	if err != nil {
		return nil, errors.Wrapf(ErrInvalidFormat, "address %s: %s", addr, err)
	}
	if len(program) != Hash160Size {
		return nil, errors.Wrapf(ErrInvalidFormat, "address %s has a %d byte witness program, "+
			"only %d byte programs are supported", addr, len(program), Hash160Size)
	}

	return NewAddressWitnessPubKeyHash(program, params)
}

// isSegwitAddress reports whether addr is a segwit address of some network:
// its prefix is the bech32 prefix of a known network, or it is a well formed
// bech32 string. Base58 strings that merely look like bech32 are not.
func isSegwitAddress(addr, hrp string) bool {
	for _, params := range dfiparams.All {
		if hrp == params.Bech32HRP {
			return true
		}
	}
	_, _, err := bech32.Decode(addr)
	return err == nil
}

// bech32HRP returns the human-readable part of addr when addr has the shape
// of a bech32 string: a lower-case alphabetic prefix followed by the '1'
// separator.
func bech32HRP(addr string) (string, bool) {
	lower := strings.ToLower(addr)
	separator := strings.LastIndexByte(lower, '1')
	if separator < 1 || separator+7 > len(lower) {
		return "", false
	}
	hrp := lower[:separator]
	for _, c := range hrp {
		if c < 'a' || c > 'z' {
			return "", false
		}
	}
	return hrp, true
}
