package main

import (
	"fmt"

	"github.com/dfinet/dfitx/util"
)

func showAddresses(conf *addressConfig) error {
	params := conf.NetParams()
	keyring, err := loadKeys(&conf.keyFlags, params)
	if err != nil {
		return err
	}

	for i, keyPair := range keyring.KeyPairs() {
		var address util.Address
		if conf.Legacy {
			address, err = keyPair.LegacyAddress(params)
		} else {
			address, err = keyPair.WitnessAddress(params)
		}
		if err != nil {
			return err
		}
		fmt.Printf("%d: %s\n", i, address)
	}
	return nil
}
