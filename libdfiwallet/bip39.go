package libdfiwallet

import (
	"fmt"

	"github.com/dfinet/dfitx/domain/dfiparams"
	"github.com/dfinet/dfitx/libdfiwallet/bip32"
	"github.com/dfinet/dfitx/util"
	"github.com/pkg/errors"
	"github.com/tyler-smith/go-bip39"
)

// CreateMnemonic returns a new random 24 word mnemonic.
func CreateMnemonic() (string, error) {
	entropy, err := bip39.NewEntropy(256)
	if err != nil {
		return "", err
	}
	return bip39.NewMnemonic(entropy)
}

// AccountPath returns the BIP44 path of the first account of the network.
func AccountPath(params *dfiparams.Params) string {
	return fmt.Sprintf("m/44'/%d'/0'", params.HDCoinType)
}

// HDKeyring is a keyring whose keys are derived from a mnemonic along the
// external chain of the first BIP44 account.
type HDKeyring struct {
	*Keyring

	params  *dfiparams.Params
	account *bip32.ExtendedKey
	next    uint32
}

// NewHDKeyring derives the first count keys of mnemonic and passphrase.
func NewHDKeyring(mnemonic, passphrase string, params *dfiparams.Params, count int) (*HDKeyring, error) {
	account, err := extendedKeyFromMnemonicAndPath(mnemonic, passphrase, AccountPath(params), params)
	if err != nil {
		return nil, err
	}

	keyring := &HDKeyring{
		Keyring: NewKeyring(),
		params:  params,
		account: account,
	}
	for i := 0; i < count; i++ {
		if _, err := keyring.DeriveNext(); err != nil {
			return nil, err
		}
	}
	return keyring, nil
}

// DeriveNext derives the next key of the external chain and adds it to the
// keyring. It must not be called concurrently with itself.
func (k *HDKeyring) DeriveNext() (*util.KeyPair, error) {
	for {
		index := k.next
		k.next++
		extendedKey, err := k.account.DeriveFromPath(fmt.Sprintf("m/0/%d", index))
		if errors.Is(err, bip32.ErrInvalidChild) {
			continue
		}
		if err != nil {
			return nil, err
		}
		keyPair, err := extendedKey.KeyPair()
		if err != nil {
			return nil, err
		}
		k.Add(keyPair)
		return keyPair, nil
	}
}

// ExtendedPublicKey returns the extended public key of the account.
func (k *HDKeyring) ExtendedPublicKey() (string, error) {
	extendedPublicKey, err := k.account.Public()
	if err != nil {
		return "", err
	}
	return extendedPublicKey.String(), nil
}

func extendedKeyFromMnemonicAndPath(mnemonic, passphrase, path string, params *dfiparams.Params) (*bip32.ExtendedKey, error) {
	if !bip39.IsMnemonicValid(mnemonic) {
		return nil, errors.New("invalid mnemonic")
	}
	seed := bip39.NewSeed(mnemonic, passphrase)
	version := versionFromParams(params)

	master, err := bip32.NewMasterWithPath(seed, version, path)
	if err != nil {
		return nil, err
	}

	return master, nil
}

func versionFromParams(params *dfiparams.Params) [4]byte {
	if params.Name == dfiparams.MainnetParams.Name {
		return bip32.BitcoinMainnetPrivate
	}
	return bip32.BitcoinTestnetPrivate
}
