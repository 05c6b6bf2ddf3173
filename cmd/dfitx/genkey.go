package main

import (
	"fmt"

	"github.com/dfinet/dfitx/libdfiwallet"
	"github.com/dfinet/dfitx/util"
)

func genKey(conf *genKeyConfig) error {
	params := conf.NetParams()

	if conf.Mnemonic {
		mnemonic, err := libdfiwallet.CreateMnemonic()
		if err != nil {
			return err
		}
		keyring, err := libdfiwallet.NewHDKeyring(mnemonic, "", params, 1)
		if err != nil {
			return err
		}
		extendedPublicKey, err := keyring.ExtendedPublicKey()
		if err != nil {
			return err
		}
		address, err := keyring.KeyPairs()[0].WitnessAddress(params)
		if err != nil {
			return err
		}
		fmt.Printf("Mnemonic (keep it secret):\n%s\n\n", mnemonic)
		fmt.Printf("Extended public key of %s: %s\n", libdfiwallet.AccountPath(params), extendedPublicKey)
		fmt.Printf("First address: %s\n", address)
		return nil
	}

	keyPair, err := util.GenerateKeyPair()
	if err != nil {
		return err
	}
	witnessAddress, err := keyPair.WitnessAddress(params)
	if err != nil {
		return err
	}
	legacyAddress, err := keyPair.LegacyAddress(params)
	if err != nil {
		return err
	}
	fmt.Printf("Private key (WIF, keep it secret): %s\n", keyPair.WIF(params))
	fmt.Printf("Public key: %x\n", keyPair.PublicKey())
	fmt.Printf("Address: %s\n", witnessAddress)
	fmt.Printf("Legacy address: %s\n", legacyAddress)
	return nil
}
