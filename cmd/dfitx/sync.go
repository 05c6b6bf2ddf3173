package main

import (
	"context"
	"fmt"

	"github.com/dfinet/dfitx/infrastructure/db/walletstore"
	"github.com/dfinet/dfitx/infrastructure/network/rpcclient"
	"github.com/pkg/errors"
)

func syncWallet(conf *syncConfig) error {
	params := conf.NetParams()
	keyring, err := loadKeys(&conf.keyFlags, params)
	if err != nil {
		return err
	}
	client, err := connectToRPC(&conf.RPCFlags, conf.RPCTLS, params)
	if err != nil {
		return err
	}

	addresses := make([]string, 0, keyring.Len())
	for _, keyPair := range keyring.KeyPairs() {
		address, err := keyPair.WitnessAddress(params)
		if err != nil {
			return err
		}
		addresses = append(addresses, address.EncodeAddress())
	}

	outputs, err := rpcclient.NewPrevoutSource(client, conf.MinConf, addresses...).Collect(context.Background(), 0)
	if err != nil {
		return err
	}

	store, err := walletstore.Open(conf.WalletDB)
	if err != nil {
		return err
	}
	defer func() {
		err := store.Close()
		if err != nil {
			log.Errorf("Error closing the wallet store: %s", err)
		}
	}()

	added := 0
	for _, output := range outputs {
		_, _, err := store.Get(&output.Outpoint)
		if err == nil {
			continue
		}
		if !errors.Is(err, walletstore.ErrNotFound) {
			return err
		}
		err = store.Put(output)
		if err != nil {
			return err
		}
		added++
	}

	balance, err := store.Balance()
	if err != nil {
		return err
	}
	fmt.Printf("Added %d outputs, balance is %s\n", added, balance)
	return nil
}
