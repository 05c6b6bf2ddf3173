package bip32

import (
	"encoding/binary"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/btcsuite/btcutil/base58"
	"github.com/dfinet/dfitx/util"
	"github.com/pkg/errors"
)

const (
	versionSerializationLen     = 4
	depthSerializationLen       = 1
	fingerprintSerializationLen = 4
	childNumberSerializationLen = 4
	chainCodeSerializationLen   = 32
	keySerializationLen         = 33
	checkSumLen                 = 4
)

const extendedKeySerializationLen = versionSerializationLen +
	depthSerializationLen +
	fingerprintSerializationLen +
	childNumberSerializationLen +
	chainCodeSerializationLen +
	keySerializationLen +
	checkSumLen

// ExtendedKey is a BIP32 extended private or public key.
type ExtendedKey struct {
	privateKey *btcec.PrivateKey
	publicKey  *btcec.PublicKey

	Version           [4]byte
	Depth             uint8
	ParentFingerprint [4]byte
	ChildNumber       uint32
	ChainCode         [32]byte
}

// IsPrivate returns whether the key holds a private key.
func (extKey *ExtendedKey) IsPrivate() bool {
	return extKey.privateKey != nil
}

// PublicKey returns the public key of extKey.
func (extKey *ExtendedKey) PublicKey() (*btcec.PublicKey, error) {
	if extKey.publicKey == nil {
		if extKey.privateKey == nil {
			return nil, errors.New("extended key holds no key")
		}
		extKey.publicKey = extKey.privateKey.PubKey()
	}
	return extKey.publicKey, nil
}

// KeyPair returns the signing key pair of a private extended key.
func (extKey *ExtendedKey) KeyPair() (*util.KeyPair, error) {
	if !extKey.IsPrivate() {
		return nil, errors.New("a public extended key holds no private key")
	}
	return util.KeyPairFromBytes(extKey.privateKey.Serialize())
}

// Public returns the public extended key of extKey.
func (extKey *ExtendedKey) Public() (*ExtendedKey, error) {
	if !extKey.IsPrivate() {
		return extKey, nil
	}

	publicKey, err := extKey.PublicKey()
	if err != nil {
		return nil, errors.Wrap(err, "error calculating point")
	}

	version, err := toPublicVersion(extKey.Version)
	if err != nil {
		return nil, err
	}

	return &ExtendedKey{
		publicKey:         publicKey,
		Version:           version,
		Depth:             extKey.Depth,
		ParentFingerprint: extKey.ParentFingerprint,
		ChildNumber:       extKey.ChildNumber,
		ChainCode:         extKey.ChainCode,
	}, nil
}

func (extKey *ExtendedKey) serialize() ([]byte, error) {
	serialized := make([]byte, 0, extendedKeySerializationLen)
	serialized = append(serialized, extKey.Version[:]...)
	serialized = append(serialized, extKey.Depth)
	serialized = append(serialized, extKey.ParentFingerprint[:]...)
	serialized = append(serialized, serializeUint32(extKey.ChildNumber)...)
	serialized = append(serialized, extKey.ChainCode[:]...)
	if extKey.IsPrivate() {
		serialized = append(serialized, 0x00)
		serialized = append(serialized, extKey.privateKey.Serialize()...)
	} else {
		publicKey, err := extKey.PublicKey()
		if err != nil {
			return nil, err
		}
		serialized = append(serialized, publicKey.SerializeCompressed()...)
	}
	return append(serialized, calcChecksum(serialized)...), nil
}

// String returns the base58 encoding of the extended key.
func (extKey *ExtendedKey) String() string {
	serialized, err := extKey.serialize()
	if err != nil {
		return "<invalid extended key>"
	}
	return base58.Encode(serialized)
}

// DeserializeExtendedKey decodes a base58 encoded extended key.
func DeserializeExtendedKey(extKeyString string) (*ExtendedKey, error) {
	serialized := base58.Decode(extKeyString)
	if len(serialized) != extendedKeySerializationLen {
		return nil, errors.Errorf("key length must be %d bytes but got %d", extendedKeySerializationLen, len(serialized))
	}

	err := validateChecksum(serialized)
	if err != nil {
		return nil, err
	}

	extKey := &ExtendedKey{}
	offset := 0
	copy(extKey.Version[:], serialized[offset:])
	offset += versionSerializationLen
	extKey.Depth = serialized[offset]
	offset += depthSerializationLen
	copy(extKey.ParentFingerprint[:], serialized[offset:])
	offset += fingerprintSerializationLen
	extKey.ChildNumber = binary.BigEndian.Uint32(serialized[offset:])
	offset += childNumberSerializationLen
	copy(extKey.ChainCode[:], serialized[offset:])
	offset += chainCodeSerializationLen
	keyBytes := serialized[offset : offset+keySerializationLen]

	switch {
	case isPrivateVersion(extKey.Version):
		if keyBytes[0] != 0 {
			return nil, errors.Errorf("expected 0 padding for private key but got %d", keyBytes[0])
		}
		var scalar btcec.ModNScalar
		overflow := scalar.SetByteSlice(keyBytes[1:])
		if overflow || scalar.IsZero() {
			return nil, errors.New("invalid private key")
		}
		extKey.privateKey, _ = btcec.PrivKeyFromBytes(keyBytes[1:])
	case isPublicVersion(extKey.Version):
		extKey.publicKey, err = btcec.ParsePubKey(keyBytes)
		if err != nil {
			return nil, errors.Wrap(err, "invalid public key")
		}
	default:
		return nil, errors.Errorf("unknown extended key version %x", extKey.Version)
	}

	return extKey, nil
}
