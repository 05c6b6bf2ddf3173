package main

import (
	"context"
	"encoding/hex"
	"fmt"
	"os"
	"strings"

	"github.com/dfinet/dfitx/domain/dfiparams"
	"github.com/dfinet/dfitx/domain/txbuilder"
	"github.com/dfinet/dfitx/domain/txscript"
	"github.com/dfinet/dfitx/domain/wire"
	"github.com/dfinet/dfitx/infrastructure/config"
	"github.com/dfinet/dfitx/infrastructure/db/walletstore"
	"github.com/dfinet/dfitx/infrastructure/network/rpcclient"
	"github.com/dfinet/dfitx/libdfiwallet"
	"github.com/dfinet/dfitx/util"
	"github.com/pkg/errors"
)

func printErrorAndExit(err error) {
	fmt.Fprintf(os.Stderr, "%s\n", err)
	os.Exit(1)
}

// loadKeys builds the keyring selected by conf. When neither keys nor a
// mnemonic are given, the mnemonic and its passphrase are read from the
// terminal.
func loadKeys(conf *keyFlags, params *dfiparams.Params) (*libdfiwallet.Keyring, error) {
	if conf.Mnemonic == "" && len(conf.Keys) == 0 {
		mnemonic, err := readSecret("Mnemonic: ")
		if err != nil {
			return nil, errors.Wrap(err, "either --key or --mnemonic is required")
		}
		conf.Mnemonic = strings.Join(strings.Fields(mnemonic), " ")
		if conf.Passphrase == "" {
			conf.Passphrase, err = readSecret("Passphrase (leave empty for none): ")
			if err != nil {
				return nil, err
			}
		}
	}
	if conf.Mnemonic != "" {
		if len(conf.Keys) > 0 {
			return nil, errors.New("--key and --mnemonic cannot be used together")
		}
		hdKeyring, err := libdfiwallet.NewHDKeyring(conf.Mnemonic, conf.Passphrase, params, conf.NumKeys)
		if err != nil {
			return nil, err
		}
		return hdKeyring.Keyring, nil
	}
	return libdfiwallet.KeyringFromWIFs(params, conf.Keys...)
}

func addressToScript(address string, params *dfiparams.Params) ([]byte, error) {
	addr, err := util.DecodeAddress(address, params)
	if err != nil {
		return nil, errors.Wrapf(err, "invalid address %q", address)
	}
	return txscript.PayToAddrScript(addr)
}

// ownerScript returns the script paying to address, or to the first key of
// keyring when address is empty.
func ownerScript(address string, keyring *libdfiwallet.Keyring, params *dfiparams.Params) ([]byte, error) {
	if address != "" {
		return addressToScript(address, params)
	}
	keyPairs := keyring.KeyPairs()
	if len(keyPairs) == 0 {
		return nil, errors.New("the wallet has no keys")
	}
	return txscript.PayToWitnessPubKeyHashScript(keyPairs[0].PubKeyHash())
}

func connectToRPC(conf *config.RPCFlags, useTLS bool, params *dfiparams.Params) (*rpcclient.RPCClient, error) {
	address, err := conf.RPCAddress(params)
	if err != nil {
		return nil, err
	}
	if conf.RPCUser != "" && conf.RPCPassword == "" {
		conf.RPCPassword, err = readSecret("RPC password: ")
		if err != nil {
			return nil, errors.Wrap(err, "--rpcpass is required with --rpcuser")
		}
	}
	return rpcclient.NewRPCClient(&rpcclient.ConnConfig{
		Host:       address,
		User:       conf.RPCUser,
		Password:   conf.RPCPassword,
		DisableTLS: !useTLS,
		Timeout:    conf.RPCTimeout,
	})
}

// fallbackFeeRate never has an estimate, so the builder always uses the
// policy fallback rate.
type fallbackFeeRate struct{}

func (fallbackFeeRate) Estimate(context.Context) (util.Amount, error) {
	return 0, errors.WithStack(txbuilder.ErrFeeEstimationUnavailable)
}

// wallet is everything a building command needs.
type wallet struct {
	params  *dfiparams.Params
	keyring *libdfiwallet.Keyring
	client  *rpcclient.RPCClient
	store   *walletstore.Store
	builder *txbuilder.Builder
}

func openWallet(conf *buildFlags, params *dfiparams.Params) (*wallet, error) {
	if conf.Offline && conf.WalletDB == "" {
		return nil, errors.New("--offline requires --walletdb")
	}
	if conf.Offline && conf.Broadcast {
		return nil, errors.New("--offline and --broadcast cannot be used together")
	}

	keyring, err := loadKeys(&conf.keyFlags, params)
	if err != nil {
		return nil, err
	}
	policy, err := conf.Policy()
	if err != nil {
		return nil, err
	}

	w := &wallet{params: params, keyring: keyring}
	if !conf.Offline {
		w.client, err = connectToRPC(&conf.RPCFlags, conf.RPCTLS, params)
		if err != nil {
			return nil, err
		}
	}

	var prevouts txbuilder.PrevoutProvider
	if conf.WalletDB != "" {
		w.store, err = walletstore.Open(conf.WalletDB)
		if err != nil {
			return nil, err
		}
		prevouts = w.store
	} else {
		addresses := make([]string, 0, keyring.Len())
		for _, keyPair := range keyring.KeyPairs() {
			address, err := keyPair.WitnessAddress(params)
			if err != nil {
				return nil, err
			}
			addresses = append(addresses, address.EncodeAddress())
		}
		prevouts = rpcclient.NewPrevoutSource(w.client, conf.MinConf, addresses...)
	}

	var feeRates txbuilder.FeeRateProvider = fallbackFeeRate{}
	if w.client != nil {
		feeRates = rpcclient.NewFeeEstimator(w.client, conf.ConfTarget)
	}

	w.builder, err = txbuilder.New(prevouts, feeRates, keyring, policy)
	if err != nil {
		w.close()
		return nil, err
	}
	return w, nil
}

func (w *wallet) close() {
	if w.store == nil {
		return
	}
	err := w.store.Close()
	if err != nil {
		log.Errorf("Error closing the wallet store: %s", err)
	}
}

// finish prints the built transaction and, when asked to, broadcasts it. The
// wallet store learns about the transaction either way: its inputs are
// reserved so the next build does not spend them again, and once broadcast
// the outputs paying to the wallet become spendable.
func (w *wallet) finish(ctx context.Context, result *txbuilder.Result, broadcast bool) error {
	txID := result.TxID()
	fmt.Printf("Transaction ID: %s\n", txID)
	fmt.Printf("Fee: %s\n", result.Fee)
	if result.ChangeIndex >= 0 {
		fmt.Printf("Change: %s (output %d)\n", result.Change(), result.ChangeIndex)
	}
	fmt.Printf("Transaction: %s\n", hex.EncodeToString(result.Serialize()))

	if !broadcast {
		if w.store != nil {
			return w.store.MarkSpent(spentOutpoints(result)...)
		}
		return nil
	}

	broadcastID, err := w.client.SendRawTransaction(ctx, result.Tx)
	if err != nil {
		return err
	}
	log.Infof("Broadcast transaction %s", broadcastID)
	fmt.Printf("Broadcast: %s\n", broadcastID)

	if w.store != nil {
		return w.store.ApplyTransaction(result.Tx, w.keyring.Owns)
	}
	return nil
}

func spentOutpoints(result *txbuilder.Result) []wire.Outpoint {
	outpoints := make([]wire.Outpoint, len(result.Inputs))
	for i, input := range result.Inputs {
		outpoints[i] = input.Outpoint
	}
	return outpoints
}
