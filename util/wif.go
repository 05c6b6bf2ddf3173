package util

import (
	"github.com/btcsuite/btcutil/base58"
	"github.com/dfinet/dfitx/domain/dfiparams"
	"github.com/pkg/errors"
)

// compressMagic is the magic byte used to identify a WIF encoding for
// an address created from a compressed serialized public key.
const compressMagic byte = 0x01

// WIF contains the individual components described by the Wallet Import
// Format (WIF). A WIF string is typically used to represent a private key
// and its associated address in a way that may be easily copied and
// imported into or exported from wallet software.
type WIF struct {
	keyPair *KeyPair

	// CompressPubKey specifies whether the address controlled by the
	// imported or exported private key was created by hashing a
	// compressed (33-byte) serialized public key, rather than an
	// uncompressed (65-byte) one.
	CompressPubKey bool

	netID byte
}

// NewWIF creates a new WIF structure to export an address and its private key
// as a string encoded in the Wallet Import Format.
func NewWIF(keyPair *KeyPair, params *dfiparams.Params, compress bool) *WIF {
	return &WIF{keyPair: keyPair, CompressPubKey: compress, netID: params.PrivateKeyID}
}

// DecodeWIF creates a new WIF structure by decoding the string encoding of
// the import format for the given network.
//
// The WIF string must be a base58check encoded private key with the network
// version byte prepended and an optional 0x01 compression flag appended.
// A key of another network fails with ErrInvalidPrefix, a corrupted one with
// ErrInvalidChecksum.
func DecodeWIF(wif string, params *dfiparams.Params) (*WIF, error) {
	decoded, netID, err := base58.CheckDecode(wif)
	if err != nil {
		if errors.Is(err, base58.ErrChecksum) {
			return nil, errors.WithStack(ErrInvalidChecksum)
		}
		return nil, errors.Wrapf(ErrInvalidFormat, "malformed private key: %s", err)
	}

	var compress bool
	switch len(decoded) {
	case PrivateKeySize + 1:
		if decoded[PrivateKeySize] != compressMagic {
			return nil, errors.Wrap(ErrInvalidFormat, "malformed private key compression flag")
		}
		compress = true
	case PrivateKeySize:
		compress = false
	default:
		return nil, errors.Wrapf(ErrInvalidFormat, "malformed private key of %d bytes", len(decoded))
	}

	if netID != params.PrivateKeyID {
		return nil, errors.Wrapf(ErrInvalidPrefix, "private key version byte 0x%02x is not used by %s",
			netID, params.Name)
	}

	keyPair, err := KeyPairFromBytes(decoded[:PrivateKeySize])
	if err != nil {
		return nil, err
	}
	return &WIF{keyPair: keyPair, CompressPubKey: compress, netID: netID}, nil
}

// KeyPair returns the key pair encoded by the WIF.
func (w *WIF) KeyPair() *KeyPair {
	return w.keyPair
}

// IsForNet returns whether or not the decoded WIF structure is associated
// with the passed network.
func (w *WIF) IsForNet(params *dfiparams.Params) bool {
	return w.netID == params.PrivateKeyID
}

// SerializePubKey serializes the associated public key of the imported or
// exported private key in either a compressed or uncompressed format. The
// serialization format chosen depends on the value of w.CompressPubKey.
func (w *WIF) SerializePubKey() []byte {
	if w.CompressPubKey {
		return w.keyPair.publicKey.SerializeCompressed()
	}
	return w.keyPair.publicKey.SerializeUncompressed()
}

// String creates the Wallet Import Format string encoding of a WIF structure.
// See DecodeWIF for a detailed breakdown of the format and requirements of
// a valid WIF string.
func (w *WIF) String() string {
	payload := w.keyPair.Serialize()
	if w.CompressPubKey {
		payload = append(payload, compressMagic)
	}
	return base58.CheckEncode(payload, w.netID)
}
