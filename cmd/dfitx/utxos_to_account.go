package main

import (
	"context"

	"github.com/dfinet/dfitx/util"
	"github.com/pkg/errors"
)

func utxosToAccount(conf *utxosToAccountConfig) error {
	params := conf.NetParams()

	amount, err := util.ParseAmount(conf.Amount)
	if err != nil {
		return errors.Wrap(err, "invalid --amount")
	}

	w, err := openWallet(&conf.buildFlags, params)
	if err != nil {
		return err
	}
	defer w.close()

	accountScript, err := ownerScript(conf.ToAddress, w.keyring, params)
	if err != nil {
		return err
	}
	changeScript, err := ownerScript(conf.ChangeAddress, w.keyring, params)
	if err != nil {
		return err
	}

	ctx := context.Background()
	result, err := w.builder.UtxosToAccount(ctx, accountScript, amount, changeScript)
	if err != nil {
		return err
	}
	log.Infof("Built transaction %s converting %s into an account balance", result.TxID(), amount)
	return w.finish(ctx, result, conf.Broadcast)
}
