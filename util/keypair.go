package util

import (
	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/btcsuite/btcd/btcec/v2/ecdsa"
	"github.com/dfinet/dfitx/domain/dfiparams"
	"github.com/pkg/errors"
)

// PrivateKeySize is the size of a serialized private scalar.
const PrivateKeySize = 32

// CompressedPublicKeySize is the size of a compressed serialized public key.
const CompressedPublicKeySize = 33

// KeyPair holds a secp256k1 private scalar and its derived public point.
// Network-scoped encodings (WIF, addresses) are derived on demand.
type KeyPair struct {
	privateKey *btcec.PrivateKey
	publicKey  *btcec.PublicKey
}

// GenerateKeyPair generates a new random key pair.
func GenerateKeyPair() (*KeyPair, error) {
	privateKey, err := btcec.NewPrivateKey()
	if err != nil {
		return nil, errors.Wrap(err, "failed to generate private key")
	}
	return &KeyPair{privateKey: privateKey, publicKey: privateKey.PubKey()}, nil
}

// KeyPairFromBytes returns the key pair of the given 32-byte private scalar.
func KeyPairFromBytes(privateKeyBytes []byte) (*KeyPair, error) {
	if len(privateKeyBytes) != PrivateKeySize {
		return nil, errors.Wrapf(ErrInvalidFormat, "private key must be %d bytes, got %d",
			PrivateKeySize, len(privateKeyBytes))
	}
	var scalar btcec.ModNScalar
	overflow := scalar.SetByteSlice(privateKeyBytes)
	if overflow || scalar.IsZero() {
		return nil, errors.Wrap(ErrInvalidFormat, "private key is not a valid secp256k1 scalar")
	}
	privateKey, publicKey := btcec.PrivKeyFromBytes(privateKeyBytes)
	return &KeyPair{privateKey: privateKey, publicKey: publicKey}, nil
}

// Serialize returns the 32-byte private scalar.
func (kp *KeyPair) Serialize() []byte {
	return kp.privateKey.Serialize()
}

// PublicKey returns the compressed serialized public key.
func (kp *KeyPair) PublicKey() []byte {
	return kp.publicKey.SerializeCompressed()
}

// PubKeyHash returns hash160 of the compressed public key.
func (kp *KeyPair) PubKeyHash() []byte {
	return Hash160(kp.PublicKey())
}

// Sign signs a 32-byte message hash. The nonce is derived from the key and
// the message (RFC6979) so equal inputs always give equal signatures, and
// the S value is always the lower of its two valid forms. The signature is
// returned DER encoded.
func (kp *KeyPair) Sign(hash []byte) ([]byte, error) {
	if len(hash) != 32 {
		return nil, errors.Errorf("message hash must be 32 bytes, got %d", len(hash))
	}
	signature := ecdsa.Sign(kp.privateKey, hash)
	return signature.Serialize(), nil
}

// Verify checks a DER encoded signature of hash against this key pair's
// public key.
func (kp *KeyPair) Verify(signature []byte, hash []byte) bool {
	return VerifySignature(signature, hash, kp.PublicKey())
}

// WitnessAddress returns the P2WPKH address of this key pair on the given
// network.
func (kp *KeyPair) WitnessAddress(params *dfiparams.Params) (*AddressWitnessPubKeyHash, error) {
	return NewAddressWitnessPubKeyHash(kp.PubKeyHash(), params)
}

// LegacyAddress returns the P2PKH address of this key pair on the given
// network.
func (kp *KeyPair) LegacyAddress(params *dfiparams.Params) (*AddressPubKeyHash, error) {
	return NewAddressPubKeyHash(kp.PubKeyHash(), params)
}

// WIF returns the compressed WIF encoding of the private key on the given
// network.
func (kp *KeyPair) WIF(params *dfiparams.Params) *WIF {
	return &WIF{keyPair: kp, CompressPubKey: true, netID: params.PrivateKeyID}
}

// VerifySignature checks a DER encoded signature of hash against a
// serialized public key. Signatures whose S value is in the upper half of the
// curve order are rejected as non-canonical.
func VerifySignature(signature []byte, hash []byte, serializedPublicKey []byte) bool {
	publicKey, err := btcec.ParsePubKey(serializedPublicKey)
	if err != nil {
		return false
	}
	parsed, err := ecdsa.ParseDERSignature(signature)
	if err != nil {
		return false
	}
	if !isLowS(signature) {
		return false
	}
	return parsed.Verify(hash, publicKey)
}

// isLowS reports whether the S value of a DER signature is at most half the
// curve order.
func isLowS(derSignature []byte) bool {
	// 0x30 <len> 0x02 <lenR> <R> 0x02 <lenS> <S>
	if len(derSignature) < 8 {
		return false
	}
	rLen := int(derSignature[3])
	sOffset := 4 + rLen
	if len(derSignature) < sOffset+2 {
		return false
	}
	sLen := int(derSignature[sOffset+1])
	sBytes := derSignature[sOffset+2:]
	if len(sBytes) < sLen {
		return false
	}
	sValue := sBytes[:sLen]
	for len(sValue) > 0 && sValue[0] == 0x00 {
		sValue = sValue[1:]
	}
	if len(sValue) > 32 {
		return false
	}
	var s btcec.ModNScalar
	if s.SetByteSlice(sValue) {
		return false
	}
	return !s.IsOverHalfOrder()
}
