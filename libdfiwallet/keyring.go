// Package libdfiwallet holds the signing keys of a wallet and resolves the
// key that controls a spendable output.
package libdfiwallet

import (
	"encoding/hex"
	"sync"

	"github.com/dfinet/dfitx/domain/dfiparams"
	"github.com/dfinet/dfitx/domain/txbuilder"
	"github.com/dfinet/dfitx/domain/txscript"
	"github.com/dfinet/dfitx/util"
	"github.com/pkg/errors"
)

// ErrUnknownKey is returned for outputs that no key of the keyring controls.
var ErrUnknownKey = errors.New("no key controls the output")

// Keyring is a set of key pairs indexed by public key hash. It is safe for
// concurrent use.
type Keyring struct {
	mu   sync.RWMutex
	keys map[string]*util.KeyPair
	// order keeps the insertion order of the keys.
	order []*util.KeyPair
}

// NewKeyring returns a keyring holding keyPairs.
func NewKeyring(keyPairs ...*util.KeyPair) *Keyring {
	keyring := &Keyring{keys: make(map[string]*util.KeyPair)}
	for _, keyPair := range keyPairs {
		keyring.Add(keyPair)
	}
	return keyring
}

// KeyringFromWIFs returns a keyring holding the WIF encoded private keys of
// the network.
func KeyringFromWIFs(params *dfiparams.Params, wifs ...string) (*Keyring, error) {
	keyring := NewKeyring()
	for i, wifString := range wifs {
		wif, err := util.DecodeWIF(wifString, params)
		if err != nil {
			return nil, errors.Wrapf(err, "key %d", i)
		}
		keyring.Add(wif.KeyPair())
	}
	return keyring, nil
}

// Add adds keyPair to the keyring. Adding a key twice has no effect.
func (k *Keyring) Add(keyPair *util.KeyPair) {
	k.mu.Lock()
	defer k.mu.Unlock()

	id := hex.EncodeToString(keyPair.PubKeyHash())
	if _, ok := k.keys[id]; ok {
		return
	}
	k.keys[id] = keyPair
	k.order = append(k.order, keyPair)
}

// Len returns the number of keys in the keyring.
func (k *Keyring) Len() int {
	k.mu.RLock()
	defer k.mu.RUnlock()
	return len(k.order)
}

// KeyPairs returns the keys of the keyring in insertion order.
func (k *Keyring) KeyPairs() []*util.KeyPair {
	k.mu.RLock()
	defer k.mu.RUnlock()
	return append([]*util.KeyPair(nil), k.order...)
}

// KeyFor implements txbuilder.SigningKeyResolver for witness pubkey hash
// outputs.
func (k *Keyring) KeyFor(output *txbuilder.SpendableOutput) (*util.KeyPair, error) {
	pubKeyHash := txscript.ExtractWitnessPubKeyHash(output.ScriptPubKey)
	if pubKeyHash == nil {
		return nil, errors.Wrapf(txscript.ErrUnsupportedScript, "output %s pays to a %s script",
			output.Outpoint, txscript.GetScriptClass(output.ScriptPubKey))
	}
	keyPair, ok := k.lookup(pubKeyHash)
	if !ok {
		return nil, errors.Wrapf(ErrUnknownKey, "output %s", output.Outpoint)
	}
	return keyPair, nil
}

// Owns returns whether script is a witness pubkey hash script of a key of the
// keyring.
func (k *Keyring) Owns(script []byte) bool {
	pubKeyHash := txscript.ExtractWitnessPubKeyHash(script)
	if pubKeyHash == nil {
		return false
	}
	_, ok := k.lookup(pubKeyHash)
	return ok
}

func (k *Keyring) lookup(pubKeyHash []byte) (*util.KeyPair, bool) {
	k.mu.RLock()
	defer k.mu.RUnlock()
	keyPair, ok := k.keys[hex.EncodeToString(pubKeyHash)]
	return keyPair, ok
}
