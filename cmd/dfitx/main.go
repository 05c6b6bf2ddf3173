package main

import (
	"github.com/dfinet/dfitx/infrastructure/logger"
	"github.com/pkg/errors"
)

func main() {
	subCmd, globalConfig, config := parseCommandLine()

	err := initLog(globalConfig.LogDir, globalConfig.LogLevel)
	if err != nil {
		printErrorAndExit(err)
	}
	defer logger.BackendLog.Close()

	switch subCmd {
	case genKeySubCmd:
		err = genKey(config.(*genKeyConfig))
	case addressSubCmd:
		err = showAddresses(config.(*addressConfig))
	case sendSubCmd:
		err = send(config.(*sendConfig))
	case utxosToAccountSubCmd:
		err = utxosToAccount(config.(*utxosToAccountConfig))
	case decodeSubCmd:
		err = decode(config.(*decodeConfig))
	case syncSubCmd:
		err = syncWallet(config.(*syncConfig))
	default:
		err = errors.Errorf("Unknown sub-command '%s'\n", subCmd)
	}

	if err != nil {
		logger.BackendLog.Close()
		printErrorAndExit(err)
	}
}
