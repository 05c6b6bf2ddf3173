package main

import (
	"os"

	"github.com/dfinet/dfitx/infrastructure/config"
	"github.com/jessevdk/go-flags"
	"github.com/pkg/errors"
)

const (
	genKeySubCmd         = "genkey"
	addressSubCmd        = "address"
	sendSubCmd           = "send"
	utxosToAccountSubCmd = "utxostoaccount"
	decodeSubCmd         = "decode"
	syncSubCmd           = "sync"
)

type configFlags struct {
	LogDir   string `long:"logdir" description:"Directory to write logs to"`
	LogLevel string `long:"loglevel" short:"d" description:"Logging level for all subsystems {trace, debug, info, warn, error, critical} -- You may also specify <subsystem>=<level>,<subsystem2>=<level>,... to set the log level for individual subsystems"`
	config.NetworkFlags
}

// keyFlags select the keys that own the spent outputs.
type keyFlags struct {
	Keys       []string `long:"key" short:"k" description:"WIF encoded private key of the wallet; may be repeated"`
	Mnemonic   string   `long:"mnemonic" description:"Mnemonic of an HD wallet, used instead of --key; prompted for when neither is given"`
	Passphrase string   `long:"passphrase" description:"Passphrase of the mnemonic"`
	NumKeys    int      `long:"num-keys" description:"Number of HD wallet keys to derive" default:"20"`
}

// buildFlags hold the settings shared by the commands that build transactions.
type buildFlags struct {
	keyFlags
	config.RPCFlags
	config.PolicyFlags
	ChangeAddress string `long:"change-address" description:"Address receiving the change; defaults to the first wallet key"`
	WalletDB      string `long:"walletdb" description:"Spend the outputs of this wallet store instead of the node wallet outputs"`
	Offline       bool   `long:"offline" description:"Do not contact the node; requires --walletdb and uses the fallback fee rate"`
	ConfTarget    int    `long:"conf-target" description:"Confirmation target of the fee rate estimate, in blocks" default:"6"`
	MinConf       int    `long:"minconf" description:"Minimum confirmations of the node wallet outputs to spend" default:"1"`
	Broadcast     bool   `long:"broadcast" description:"Broadcast the transaction instead of only printing it"`
	RPCTLS        bool   `long:"rpctls" description:"Connect to the RPC server over https"`
}

type genKeyConfig struct {
	Mnemonic bool `long:"mnemonic" description:"Generate a mnemonic instead of a single key"`
	config.NetworkFlags
}

type addressConfig struct {
	keyFlags
	Legacy bool `long:"legacy" description:"Show legacy pay-to-pubkey-hash addresses"`
	config.NetworkFlags
}

type sendConfig struct {
	buildFlags
	ToAddress  string `long:"to-address" short:"t" description:"The address to send to" required:"true"`
	SendAmount string `long:"send-amount" short:"v" description:"An amount to send in coins (e.g. 1234.12345678)" required:"true"`
	config.NetworkFlags
}

type utxosToAccountConfig struct {
	buildFlags
	ToAddress string `long:"to-address" short:"t" description:"The address of the account to credit; defaults to the first wallet key"`
	Amount    string `long:"amount" short:"v" description:"An amount to convert in coins (e.g. 1234.12345678)" required:"true"`
	config.NetworkFlags
}

type syncConfig struct {
	keyFlags
	config.RPCFlags
	WalletDB string `long:"walletdb" description:"The wallet store to fill" required:"true"`
	MinConf  int    `long:"minconf" description:"Minimum confirmations of the outputs to store" default:"1"`
	RPCTLS   bool   `long:"rpctls" description:"Connect to the RPC server over https"`
	config.NetworkFlags
}

type decodeConfig struct {
	Transaction string `long:"transaction" short:"t" description:"The transaction to decode (encoded in hex)" required:"true"`
	config.NetworkFlags
}

func parseCommandLine() (subCommand string, globalConfig *configFlags, config interface{}) {
	cfg := &configFlags{}
	parser := flags.NewParser(cfg, flags.PrintErrors|flags.HelpFlag)

	genKeyConf := &genKeyConfig{}
	parser.AddCommand(genKeySubCmd, "Generates a new key",
		"Generates a new private key, or a mnemonic with --mnemonic, and shows its addresses", genKeyConf)

	addressConf := &addressConfig{}
	parser.AddCommand(addressSubCmd, "Shows the addresses of keys",
		"Shows the addresses of the given WIF keys or of the first keys of a mnemonic", addressConf)

	sendConf := &sendConfig{}
	parser.AddCommand(sendSubCmd, "Sends coins to an address",
		"Builds, signs and optionally broadcasts a transaction sending coins to an address", sendConf)

	utxosToAccountConf := &utxosToAccountConfig{}
	parser.AddCommand(utxosToAccountSubCmd, "Converts coins into an account balance",
		"Builds, signs and optionally broadcasts a transaction converting coins into the balance of an account",
		utxosToAccountConf)

	decodeConf := &decodeConfig{}
	parser.AddCommand(decodeSubCmd, "Decodes a transaction",
		"Decodes a serialized transaction and the instruction it carries", decodeConf)

	syncConf := &syncConfig{}
	parser.AddCommand(syncSubCmd, "Fills a wallet store from the node",
		"Stores the spendable outputs the node wallet holds for the given keys in a wallet store, "+
			"so that transactions can later be built with --walletdb", syncConf)

	_, err := parser.Parse()

	if err != nil {
		var flagsErr *flags.Error
		if ok := errors.As(err, &flagsErr); ok && flagsErr.Type == flags.ErrHelp {
			os.Exit(0)
		} else {
			os.Exit(1)
		}
		return "", nil, nil
	}

	switch parser.Command.Active.Name {
	case genKeySubCmd:
		config, err = resolve(parser, &genKeyConf.NetworkFlags, &cfg.NetworkFlags, genKeyConf)
	case addressSubCmd:
		config, err = resolve(parser, &addressConf.NetworkFlags, &cfg.NetworkFlags, addressConf)
	case sendSubCmd:
		config, err = resolve(parser, &sendConf.NetworkFlags, &cfg.NetworkFlags, sendConf)
	case utxosToAccountSubCmd:
		config, err = resolve(parser, &utxosToAccountConf.NetworkFlags, &cfg.NetworkFlags, utxosToAccountConf)
	case decodeSubCmd:
		config, err = resolve(parser, &decodeConf.NetworkFlags, &cfg.NetworkFlags, decodeConf)
	case syncSubCmd:
		config, err = resolve(parser, &syncConf.NetworkFlags, &cfg.NetworkFlags, syncConf)
	}
	if err != nil {
		printErrorAndExit(err)
	}

	return parser.Command.Active.Name, cfg, config
}

func resolve(parser *flags.Parser, dst, src *config.NetworkFlags, conf interface{}) (interface{}, error) {
	combineNetworkFlags(dst, src)
	err := dst.ResolveNetwork(parser)
	if err != nil {
		return nil, err
	}
	return conf, nil
}

func combineNetworkFlags(dst, src *config.NetworkFlags) {
	dst.Testnet = dst.Testnet || src.Testnet
	dst.Regtest = dst.Regtest || src.Regtest
}
