package bip32

import (
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

type path struct {
	isPrivate bool
	indexes   []uint32
}

// parsePath parses a derivation path such as m/44'/1129'/0'/0/1. A path
// starting with m derives private keys and one starting with M public keys.
// Hardened indexes are marked with ' or h.
func parsePath(pathString string) (*path, error) {
	parts := strings.Split(pathString, "/")
	isPrivate := false
	switch parts[0] {
	case "m":
		isPrivate = true
	case "M":
		isPrivate = false
	default:
		return nil, errors.Errorf("%s is an invalid extended key type", parts[0])
	}

	indexes := make([]uint32, 0, len(parts)-1)
	for _, part := range parts[1:] {
		index, err := parseIndex(part)
		if err != nil {
			return nil, errors.Wrapf(err, "invalid path %s", pathString)
		}
		indexes = append(indexes, index)
	}

	return &path{
		isPrivate: isPrivate,
		indexes:   indexes,
	}, nil
}

func parseIndex(part string) (uint32, error) {
	hardened := strings.HasSuffix(part, "'") || strings.HasSuffix(part, "h")
	if hardened {
		part = part[:len(part)-1]
	}
	index, err := strconv.ParseUint(part, 10, 32)
	if err != nil {
		return 0, err
	}
	if index >= hardenedIndexStart {
		return 0, errors.Errorf("index %d is out of range", index)
	}
	if hardened {
		index += hardenedIndexStart
	}
	return uint32(index), nil
}

// DeriveFromPath returns the descendant of extKey at the given path.
func (extKey *ExtendedKey) DeriveFromPath(pathString string) (*ExtendedKey, error) {
	path, err := parsePath(pathString)
	if err != nil {
		return nil, err
	}

	return extKey.path(path)
}

func (extKey *ExtendedKey) path(path *path) (*ExtendedKey, error) {
	if path.isPrivate && !extKey.IsPrivate() {
		return nil, errors.New("cannot derive a private path from a public key")
	}

	descendantExtKey := extKey
	for _, index := range path.indexes {
		var err error
		descendantExtKey, err = descendantExtKey.Child(index)
		if err != nil {
			return nil, err
		}
	}

	if !path.isPrivate && descendantExtKey.IsPrivate() {
		return descendantExtKey.Public()
	}
	return descendantExtKey, nil
}
