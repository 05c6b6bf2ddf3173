package config

import (
	"fmt"
	"os"

	"github.com/dfinet/dfitx/domain/dfiparams"
	"github.com/jessevdk/go-flags"
	"github.com/pkg/errors"
)

// NetworkFlags holds the network configuration, that is which network is selected.
type NetworkFlags struct {
	Testnet bool `long:"testnet" description:"Use the test network"`
	Regtest bool `long:"regtest" description:"Use the regression test network"`

	ActiveNetParams *dfiparams.Params
}

// ResolveNetwork parses the network command line argument and sets ActiveNetParams accordingly.
// It returns error if more than one network was selected, nil otherwise.
func (networkFlags *NetworkFlags) ResolveNetwork(parser *flags.Parser) error {
	// Default net is main net
	networkFlags.ActiveNetParams = &dfiparams.MainnetParams
	numNets := 0
	if networkFlags.Testnet {
		numNets++
		networkFlags.ActiveNetParams = &dfiparams.TestnetParams
	}
	if networkFlags.Regtest {
		numNets++
		networkFlags.ActiveNetParams = &dfiparams.RegtestParams
	}
	if numNets > 1 {
		message := "Multiple networks parameters (testnet, regtest) cannot be used " +
			"together. Please choose only one network"
		err := errors.New(message)
		if parser != nil {
			fmt.Fprintln(os.Stderr, err)
			parser.WriteHelp(os.Stderr)
		}
		return err
	}

	return nil
}

// NetParams returns the ActiveNetParams
func (networkFlags *NetworkFlags) NetParams() *dfiparams.Params {
	return networkFlags.ActiveNetParams
}
