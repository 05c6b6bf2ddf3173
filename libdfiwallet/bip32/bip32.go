// Package bip32 implements hierarchical deterministic keys as defined by
// BIP32.
package bip32

import (
	"crypto/rand"

	"github.com/pkg/errors"
)

const (
	// MinSeedBytes is the minimum number of bytes allowed for a seed.
	MinSeedBytes = 16

	// MaxSeedBytes is the maximum number of bytes allowed for a seed.
	MaxSeedBytes = 64

	// RecommendedSeedLen is the recommended length in bytes for a seed.
	RecommendedSeedLen = 32
)

// ErrInvalidSeedLen is returned for seeds outside the allowed length range.
var ErrInvalidSeedLen = errors.Errorf("seed length must be between %d and %d bytes", MinSeedBytes, MaxSeedBytes)

// GenerateSeed generates seed that can be used to initialize a master key.
func GenerateSeed() ([]byte, error) {
	randBytes := make([]byte, RecommendedSeedLen)
	_, err := rand.Read(randBytes)
	if err != nil {
		return nil, err
	}

	return randBytes, nil
}

// NewMasterWithPath returns a new master key based on the given seed and version, with a derivation
// to the given path.
func NewMasterWithPath(seed []byte, version [4]byte, pathString string) (*ExtendedKey, error) {
	masterKey, err := NewMaster(seed, version)
	if err != nil {
		return nil, err
	}

	return masterKey.DeriveFromPath(pathString)
}

// NewPublicMasterWithPath returns a new public master key based on the given seed and version, with a derivation
// to the given path.
func NewPublicMasterWithPath(seed []byte, version [4]byte, pathString string) (*ExtendedKey, error) {
	descendantKey, err := NewMasterWithPath(seed, version, pathString)
	if err != nil {
		return nil, err
	}

	return descendantKey.Public()
}
