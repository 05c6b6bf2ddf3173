package main

import (
	"context"

	"github.com/dfinet/dfitx/util"
	"github.com/pkg/errors"
)

func send(conf *sendConfig) error {
	params := conf.NetParams()

	toScript, err := addressToScript(conf.ToAddress, params)
	if err != nil {
		return err
	}
	sendAmount, err := util.ParseAmount(conf.SendAmount)
	if err != nil {
		return errors.Wrap(err, "invalid --send-amount")
	}

	w, err := openWallet(&conf.buildFlags, params)
	if err != nil {
		return err
	}
	defer w.close()

	changeScript, err := ownerScript(conf.ChangeAddress, w.keyring, params)
	if err != nil {
		return err
	}

	ctx := context.Background()
	result, err := w.builder.Send(ctx, toScript, sendAmount, changeScript)
	if err != nil {
		return err
	}
	log.Infof("Built transaction %s sending %s to %s", result.TxID(), sendAmount, conf.ToAddress)
	return w.finish(ctx, result, conf.Broadcast)
}
