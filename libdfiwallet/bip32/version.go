package bip32

import "github.com/pkg/errors"

// Extended key versions. DeFi networks use the Bitcoin prefixes.
var (
	BitcoinMainnetPrivate = [4]byte{0x04, 0x88, 0xad, 0xe4} // xprv
	BitcoinMainnetPublic  = [4]byte{0x04, 0x88, 0xb2, 0x1e} // xpub
	BitcoinTestnetPrivate = [4]byte{0x04, 0x35, 0x83, 0x94} // tprv
	BitcoinTestnetPublic  = [4]byte{0x04, 0x35, 0x87, 0xcf} // tpub
)

var privateToPublicVersion = map[[4]byte][4]byte{
	BitcoinMainnetPrivate: BitcoinMainnetPublic,
	BitcoinTestnetPrivate: BitcoinTestnetPublic,
}

func toPublicVersion(version [4]byte) ([4]byte, error) {
	publicVersion, ok := privateToPublicVersion[version]
	if !ok {
		return [4]byte{}, errors.Errorf("unknown private version %x", version)
	}
	return publicVersion, nil
}

func isPrivateVersion(version [4]byte) bool {
	_, ok := privateToPublicVersion[version]
	return ok
}

func isPublicVersion(version [4]byte) bool {
	for _, publicVersion := range privateToPublicVersion {
		if publicVersion == version {
			return true
		}
	}
	return false
}
