package main

import (
	"bytes"
	"context"
	"path/filepath"
	"testing"

	"github.com/dfinet/dfitx/domain/dfiparams"
	"github.com/dfinet/dfitx/domain/hashes"
	"github.com/dfinet/dfitx/domain/txbuilder"
	"github.com/dfinet/dfitx/domain/txscript"
	"github.com/dfinet/dfitx/domain/wire"
	"github.com/dfinet/dfitx/infrastructure/config"
	"github.com/dfinet/dfitx/infrastructure/db/walletstore"
	"github.com/dfinet/dfitx/libdfiwallet"
	"github.com/dfinet/dfitx/util"
	"github.com/pkg/errors"
)

func TestCombineNetworkFlags(t *testing.T) {
	dst := &config.NetworkFlags{}
	combineNetworkFlags(dst, &config.NetworkFlags{Testnet: true})
	if !dst.Testnet || dst.Regtest {
		t.Fatalf("unexpected combined flags %+v", dst)
	}
}

// stubSecrets makes readSecret answer from secrets in order and records the
// prompts.
func stubSecrets(t *testing.T, secrets ...string) *[]string {
	prompts := &[]string{}
	original := readSecret
	readSecret = func(prompt string) (string, error) {
		*prompts = append(*prompts, prompt)
		if len(*prompts) > len(secrets) {
			return "", errors.New("standard input is not a terminal")
		}
		return secrets[len(*prompts)-1], nil
	}
	t.Cleanup(func() { readSecret = original })
	return prompts
}

const testMnemonic = "abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon about"

func TestLoadKeys(t *testing.T) {
	params := &dfiparams.RegtestParams

	prompts := stubSecrets(t)
	_, err := loadKeys(&keyFlags{}, params)
	if err == nil {
		t.Fatalf("loadKeys without keys or a terminal unexpectedly succeeded")
	}
	if len(*prompts) != 1 {
		t.Fatalf("expected a single prompt, got %v", *prompts)
	}

	keyPair, err := util.GenerateKeyPair()
	if err != nil {
		t.Fatalf("GenerateKeyPair: %s", err)
	}
	_, err = loadKeys(&keyFlags{Keys: []string{keyPair.WIF(params).String()}, Mnemonic: "abandon"}, params)
	if err == nil {
		t.Fatalf("loadKeys with both --key and --mnemonic unexpectedly succeeded")
	}

	keyring, err := loadKeys(&keyFlags{Keys: []string{keyPair.WIF(params).String()}}, params)
	if err != nil {
		t.Fatalf("loadKeys: %s", err)
	}
	if keyring.Len() != 1 {
		t.Fatalf("expected 1 key, got %d", keyring.Len())
	}

	keyring, err = loadKeys(&keyFlags{Mnemonic: testMnemonic, NumKeys: 3}, params)
	if err != nil {
		t.Fatalf("loadKeys: %s", err)
	}
	if keyring.Len() != 3 {
		t.Fatalf("expected 3 keys, got %d", keyring.Len())
	}
}

func TestLoadKeysPromptsForMnemonic(t *testing.T) {
	params := &dfiparams.RegtestParams
	prompts := stubSecrets(t, "  abandon abandon abandon abandon abandon abandon\nabandon abandon abandon abandon abandon about ", "secret")

	keyring, err := loadKeys(&keyFlags{NumKeys: 2}, params)
	if err != nil {
		t.Fatalf("loadKeys: %s", err)
	}
	if len(*prompts) != 2 {
		t.Fatalf("expected mnemonic and passphrase prompts, got %v", *prompts)
	}

	expected, err := libdfiwallet.NewHDKeyring(testMnemonic, "secret", params, 2)
	if err != nil {
		t.Fatalf("NewHDKeyring: %s", err)
	}
	got, want := keyring.KeyPairs(), expected.KeyPairs()
	if len(got) != len(want) {
		t.Fatalf("got %d keys, want %d", len(got), len(want))
	}
	for i := range want {
		if !bytes.Equal(got[i].PublicKey(), want[i].PublicKey()) {
			t.Errorf("key %d: got %x, want %x", i, got[i].PublicKey(), want[i].PublicKey())
		}
	}

	// A mnemonic given as a flag is never prompted for.
	prompts = stubSecrets(t)
	_, err = loadKeys(&keyFlags{Mnemonic: testMnemonic, NumKeys: 1}, params)
	if err != nil {
		t.Fatalf("loadKeys: %s", err)
	}
	if len(*prompts) != 0 {
		t.Fatalf("unexpected prompts %v", *prompts)
	}
}

func TestConnectToRPCPromptsForPassword(t *testing.T) {
	params := &dfiparams.RegtestParams

	prompts := stubSecrets(t, "hunter2")
	conf := &config.RPCFlags{RPCServer: "127.0.0.1", RPCUser: "user"}
	client, err := connectToRPC(conf, false, params)
	if err != nil {
		t.Fatalf("connectToRPC: %s", err)
	}
	if len(*prompts) != 1 || conf.RPCPassword != "hunter2" {
		t.Fatalf("prompts %v, password %q", *prompts, conf.RPCPassword)
	}
	if client.Address() != "http://127.0.0.1:"+params.DefaultRPCPort {
		t.Fatalf("unexpected address %s", client.Address())
	}

	prompts = stubSecrets(t)
	_, err = connectToRPC(&config.RPCFlags{RPCServer: "127.0.0.1", RPCUser: "user"}, false, params)
	if err == nil {
		t.Fatalf("connectToRPC without a password or a terminal unexpectedly succeeded")
	}

	_, err = connectToRPC(&config.RPCFlags{RPCServer: "127.0.0.1"}, false, params)
	if err != nil {
		t.Fatalf("connectToRPC without credentials: %s", err)
	}
	if len(*prompts) != 1 {
		t.Fatalf("expected a single prompt, got %v", *prompts)
	}
}

func TestFallbackFeeRate(t *testing.T) {
	_, err := fallbackFeeRate{}.Estimate(context.Background())
	if !errors.Is(err, txbuilder.ErrFeeEstimationUnavailable) {
		t.Fatalf("unexpected error %v", err)
	}
}

func TestOpenWalletFlagConflicts(t *testing.T) {
	params := &dfiparams.RegtestParams
	_, err := openWallet(&buildFlags{Offline: true}, params)
	if err == nil {
		t.Fatalf("--offline without --walletdb unexpectedly succeeded")
	}
	_, err = openWallet(&buildFlags{Offline: true, WalletDB: t.TempDir(), Broadcast: true}, params)
	if err == nil {
		t.Fatalf("--offline with --broadcast unexpectedly succeeded")
	}
}

func TestOfflineSendReservesInputs(t *testing.T) {
	params := &dfiparams.RegtestParams
	keyPair, err := util.KeyPairFromBytes(hashes.DoubleHashB([]byte("offline")))
	if err != nil {
		t.Fatalf("KeyPairFromBytes: %s", err)
	}
	script, err := txscript.PayToWitnessPubKeyHashScript(keyPair.PubKeyHash())
	if err != nil {
		t.Fatalf("PayToWitnessPubKeyHashScript: %s", err)
	}

	path := filepath.Join(t.TempDir(), "wallet")
	store, err := walletstore.Open(path)
	if err != nil {
		t.Fatalf("Open: %s", err)
	}
	funding := &txbuilder.SpendableOutput{
		Outpoint:     *wire.NewOutpoint(&hashes.Hash{9}, 0),
		Value:        1000000000,
		ScriptPubKey: script,
	}
	err = store.Put(funding)
	if err != nil {
		t.Fatalf("Put: %s", err)
	}
	err = store.Close()
	if err != nil {
		t.Fatalf("Close: %s", err)
	}

	conf := &buildFlags{
		keyFlags: keyFlags{Keys: []string{keyPair.WIF(params).String()}},
		WalletDB: path,
		Offline:  true,
	}
	w, err := openWallet(conf, params)
	if err != nil {
		t.Fatalf("openWallet: %s", err)
	}
	defer w.close()

	changeScript, err := ownerScript("", w.keyring, params)
	if err != nil {
		t.Fatalf("ownerScript: %s", err)
	}
	ctx := context.Background()
	result, err := w.builder.Send(ctx, script, 100000000, changeScript)
	if err != nil {
		t.Fatalf("Send: %s", err)
	}
	if result.Fee <= 0 {
		t.Fatalf("expected a positive fee, got %s", result.Fee)
	}

	err = w.finish(ctx, result, false)
	if err != nil {
		t.Fatalf("finish: %s", err)
	}
	_, reserved, err := w.store.Get(&funding.Outpoint)
	if err != nil {
		t.Fatalf("Get: %s", err)
	}
	if !reserved {
		t.Fatalf("the spent output was not reserved")
	}

	_, err = w.builder.Send(ctx, script, 100000000, changeScript)
	if !errors.Is(err, txbuilder.ErrInsufficientFunds) {
		t.Fatalf("expected ErrInsufficientFunds after reservation, got %v", err)
	}
}
