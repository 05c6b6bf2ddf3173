// Package dfiparams defines the per-network parameters used to encode
// addresses and private keys and to talk to a node of a given network.
package dfiparams

import (
	"strings"

	"github.com/pkg/errors"
)

// Params defines a network by its address prefixes and related defaults.
type Params struct {
	// Name defines a human-readable identifier for the network.
	Name string

	// DefaultRPCPort defines the default port of the node JSON-RPC server.
	DefaultRPCPort string

	// Bech32HRP is the human-readable part of segwit addresses.
	Bech32HRP string

	// WitnessVersion is the witness program version used for generated
	// segwit addresses.
	WitnessVersion byte

	// PubKeyHashAddrID is the version byte of legacy pay-to-pubkey-hash
	// addresses.
	PubKeyHashAddrID byte

	// ScriptHashAddrID is the version byte of legacy pay-to-script-hash
	// addresses.
	ScriptHashAddrID byte

	// PrivateKeyID is the version byte of WIF encoded private keys.
	PrivateKeyID byte

	// HDCoinType is the BIP44 coin type used by hierarchical deterministic
	// key derivation.
	HDCoinType uint32

	// FoundationAddress receives community development funds on networks
	// that have one. It is informational only.
	FoundationAddress string
}

// MainnetParams defines the network parameters for the main network.
var MainnetParams = Params{
	Name:              "mainnet",
	DefaultRPCPort:    "8554",
	Bech32HRP:         "df",
	WitnessVersion:    0x00,
	PubKeyHashAddrID:  0x12, // starts with 8
	ScriptHashAddrID:  0x5a, // starts with d
	PrivateKeyID:      0x80,
	HDCoinType:        1129,
	FoundationAddress: "dZcHjYhKtEM88TtZLjp314H2xZjkztXtRc",
}

// TestnetParams defines the network parameters for the public test network.
var TestnetParams = Params{
	Name:             "testnet",
	DefaultRPCPort:   "18554",
	Bech32HRP:        "tf",
	WitnessVersion:   0x00,
	PubKeyHashAddrID: 0x0f, // starts with 7
	ScriptHashAddrID: 0x80, // starts with t
	PrivateKeyID:     0xef,
	HDCoinType:       1,
}

// RegtestParams defines the network parameters for the local development
// network.
var RegtestParams = Params{
	Name:             "regtest",
	DefaultRPCPort:   "19554",
	Bech32HRP:        "bcrt",
	WitnessVersion:   0x00,
	PubKeyHashAddrID: 0x6f, // starts with m or n
	ScriptHashAddrID: 0xc4, // starts with 2
	PrivateKeyID:     0xef,
	HDCoinType:       1,
}

// All lists the parameters of every supported network.
var All = []*Params{&MainnetParams, &TestnetParams, &RegtestParams}

// ByName returns the parameters of the network with the given name.
func ByName(name string) (*Params, error) {
	for _, params := range All {
		if params.Name == strings.ToLower(name) {
			return params, nil
		}
	}
	return nil, errors.Errorf("unknown network %q", name)
}
