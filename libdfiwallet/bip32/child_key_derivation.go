package bip32

import (
	"encoding/binary"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/dfinet/dfitx/util"
	"github.com/pkg/errors"
)

const hardenedIndexStart = 0x80000000

// ErrInvalidChild is returned for the rare indexes whose derived key is not
// valid. The next index should be used instead.
var ErrInvalidChild = errors.New("the extended key at this index is invalid")

// NewMaster returns the master extended private key of seed.
func NewMaster(seed []byte, version [4]byte) (*ExtendedKey, error) {
	if len(seed) < MinSeedBytes || len(seed) > MaxSeedBytes {
		return nil, ErrInvalidSeedLen
	}
	if !isPrivateVersion(version) {
		return nil, errors.Errorf("%x is not a private key version", version)
	}

	mac := newHMACWriter([]byte("Bitcoin seed"))
	mac.InfallibleWrite(seed)
	I := mac.Sum(nil)

	var iL, iR [32]byte
	copy(iL[:], I[:32])
	copy(iR[:], I[32:])

	var scalar btcec.ModNScalar
	overflow := scalar.SetByteSlice(iL[:])
	if overflow || scalar.IsZero() {
		return nil, errors.New("the seed generates an invalid master key")
	}
	privateKey, _ := btcec.PrivKeyFromBytes(iL[:])

	return &ExtendedKey{
		privateKey:        privateKey,
		Version:           version,
		Depth:             0,
		ParentFingerprint: [4]byte{},
		ChildNumber:       0,
		ChainCode:         iR,
	}, nil
}

func isHardened(i uint32) bool {
	return i >= hardenedIndexStart
}

// Child returns the child of extKey at index i. Indexes from
// 0x80000000 on are hardened and can only be derived from private keys.
func (extKey *ExtendedKey) Child(i uint32) (*ExtendedKey, error) {
	if extKey.Depth == 255 {
		return nil, errors.New("cannot derive beyond depth 255")
	}

	I, err := extKey.calcI(i)
	if err != nil {
		return nil, err
	}

	var iL, iR [32]byte
	copy(iL[:], I[:32])
	copy(iR[:], I[32:])

	var tweak btcec.ModNScalar
	if overflow := tweak.SetByteSlice(iL[:]); overflow {
		return nil, ErrInvalidChild
	}

	fingerPrint, err := extKey.calcFingerprint()
	if err != nil {
		return nil, err
	}

	childExt := &ExtendedKey{
		Version:           extKey.Version,
		Depth:             extKey.Depth + 1,
		ParentFingerprint: fingerPrint,
		ChildNumber:       i,
		ChainCode:         iR,
	}

	if extKey.IsPrivate() {
		childExt.privateKey, err = privateKeyAdd(extKey.privateKey, &tweak)
		if err != nil {
			return nil, err
		}
	} else {
		publicKey, err := extKey.PublicKey()
		if err != nil {
			return nil, err
		}

		childExt.publicKey, err = pointAdd(publicKey, &tweak)
		if err != nil {
			return nil, err
		}
	}

	return childExt, nil
}

func (extKey *ExtendedKey) calcFingerprint() ([4]byte, error) {
	publicKey, err := extKey.PublicKey()
	if err != nil {
		return [4]byte{}, err
	}

	hash := util.Hash160(publicKey.SerializeCompressed())
	var fingerprint [4]byte
	copy(fingerprint[:], hash[:4])
	return fingerprint, nil
}

func privateKeyAdd(k *btcec.PrivateKey, tweak *btcec.ModNScalar) (*btcec.PrivateKey, error) {
	var sum btcec.ModNScalar
	sum.Set(&k.Key).Add(tweak)
	if sum.IsZero() {
		return nil, ErrInvalidChild
	}

	sumBytes := sum.Bytes()
	privateKey, _ := btcec.PrivKeyFromBytes(sumBytes[:])
	return privateKey, nil
}

func (extKey *ExtendedKey) calcI(i uint32) ([]byte, error) {
	if isHardened(i) && !extKey.IsPrivate() {
		return nil, errors.Errorf("Cannot calculate hardened child for public key")
	}

	mac := newHMACWriter(extKey.ChainCode[:])
	if isHardened(i) {
		mac.InfallibleWrite([]byte{0x00})
		mac.InfallibleWrite(extKey.privateKey.Serialize())
	} else {
		publicKey, err := extKey.PublicKey()
		if err != nil {
			return nil, err
		}

		mac.InfallibleWrite(publicKey.SerializeCompressed())
	}

	mac.InfallibleWrite(serializeUint32(i))
	return mac.Sum(nil), nil
}

func serializeUint32(v uint32) []byte {
	serialized := make([]byte, 4)
	binary.BigEndian.PutUint32(serialized, v)
	return serialized
}

func pointAdd(point *btcec.PublicKey, tweak *btcec.ModNScalar) (*btcec.PublicKey, error) {
	var tweakPoint, parentPoint, sum btcec.JacobianPoint
	btcec.ScalarBaseMultNonConst(tweak, &tweakPoint)
	point.AsJacobian(&parentPoint)
	btcec.AddNonConst(&tweakPoint, &parentPoint, &sum)

	if (sum.X.IsZero() && sum.Y.IsZero()) || sum.Z.IsZero() {
		return nil, ErrInvalidChild
	}
	sum.ToAffine()

	return btcec.NewPublicKey(&sum.X, &sum.Y), nil
}
