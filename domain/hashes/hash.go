package hashes

import (
	"crypto/sha256"
	"encoding/hex"

	"github.com/pkg/errors"
)

// HashSize of array used to store hashes.
const HashSize = 32

// MaxHashStringSize is the maximum length of a Hash hash string.
const MaxHashStringSize = HashSize * 2

// ErrHashStrSize describes an error that indicates the caller specified a hash
// string that has too many characters.
var ErrHashStrSize = errors.Errorf("max hash string length is %d bytes", MaxHashStringSize)

// Hash is used in several of the ledger messages and common structures. It
// typically represents the double sha256 of data. It is stored in internal
// byte order and displayed byte-reversed.
type Hash [HashSize]byte

// String returns the Hash as the hexadecimal string of the byte-reversed
// hash.
func (hash Hash) String() string {
	for i := 0; i < HashSize/2; i++ {
		hash[i], hash[HashSize-1-i] = hash[HashSize-1-i], hash[i]
	}
	return hex.EncodeToString(hash[:])
}

// ByteSlice returns a copy of the hash bytes in internal order.
func (hash *Hash) ByteSlice() []byte {
	b := make([]byte, HashSize)
	copy(b, hash[:])
	return b
}

// SetBytes sets the bytes which represent the hash. An error is returned if
// the number of bytes passed in is not HashSize.
func (hash *Hash) SetBytes(newHash []byte) error {
	if len(newHash) != HashSize {
		return errors.Errorf("invalid hash length of %d, want %d", len(newHash), HashSize)
	}
	copy(hash[:], newHash)
	return nil
}

// IsEqual returns true if target is the same as hash.
func (hash *Hash) IsEqual(target *Hash) bool {
	if hash == nil && target == nil {
		return true
	}
	if hash == nil || target == nil {
		return false
	}
	return *hash == *target
}

// FromBytes creates a Hash from the given byte slice, in internal byte order.
func FromBytes(hashBytes []byte) (*Hash, error) {
	var hash Hash
	err := hash.SetBytes(hashBytes)
	if err != nil {
		return nil, err
	}
	return &hash, nil
}

// FromString creates a Hash from a byte-reversed hex string, as displayed by
// String and by node RPC responses.
func FromString(hashStr string) (*Hash, error) {
	if len(hashStr) != MaxHashStringSize {
		if len(hashStr) > MaxHashStringSize {
			return nil, ErrHashStrSize
		}
		return nil, errors.Errorf("hash string %q has length %d, want %d", hashStr, len(hashStr), MaxHashStringSize)
	}
	decoded, err := hex.DecodeString(hashStr)
	if err != nil {
		return nil, errors.WithStack(err)
	}
	var hash Hash
	for i, b := range decoded {
		hash[HashSize-1-i] = b
	}
	return &hash, nil
}

// DoubleHashB calculates sha256(sha256(b)) and returns the resulting bytes.
func DoubleHashB(b []byte) []byte {
	first := sha256.Sum256(b)
	second := sha256.Sum256(first[:])
	return second[:]
}

// DoubleHashH calculates sha256(sha256(b)) and returns the resulting bytes as
// a Hash.
func DoubleHashH(b []byte) Hash {
	first := sha256.Sum256(b)
	return sha256.Sum256(first[:])
}
