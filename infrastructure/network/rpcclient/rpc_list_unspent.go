package rpcclient

import (
	"context"
	"encoding/hex"

	"github.com/dfinet/dfitx/domain/hashes"
	"github.com/dfinet/dfitx/domain/wire"
	"github.com/dfinet/dfitx/util"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"github.com/tidwall/gjson"
)

// UnspentOutput is an entry of the listunspent result.
type UnspentOutput struct {
	Outpoint      wire.Outpoint
	Address       string
	ScriptPubKey  []byte
	Amount        util.Amount
	TokenID       uint32
	Confirmations int64
	Spendable     bool
}

// ListUnspent returns the unspent outputs of the node wallet with between
// minConf and maxConf confirmations, paying to one of addresses. All
// addresses of the wallet are included when addresses is empty.
func (c *RPCClient) ListUnspent(ctx context.Context, minConf, maxConf int, addresses []string) ([]*UnspentOutput, error) {
	if addresses == nil {
		addresses = []string{}
	}
	result, err := c.post(ctx, "listunspent", minConf, maxConf, addresses)
	if err != nil {
		return nil, err
	}
	if !result.IsArray() {
		return nil, errors.Errorf("listunspent: result is not an array: %s", result.Raw)
	}

	entries := result.Array()
	outputs := make([]*UnspentOutput, 0, len(entries))
	for i, entry := range entries {
		output, err := parseUnspentOutput(entry)
		if err != nil {
			return nil, errors.Wrapf(err, "listunspent: entry %d", i)
		}
		outputs = append(outputs, output)
	}
	return outputs, nil
}

func parseUnspentOutput(entry gjson.Result) (*UnspentOutput, error) {
	txID, err := hashes.FromString(entry.Get("txid").String())
	if err != nil {
		return nil, errors.Wrap(err, "invalid txid")
	}
	vout := entry.Get("vout")
	if vout.Type != gjson.Number || vout.Int() < 0 || vout.Uint() > uint64(wire.MaxPrevOutIndex) {
		return nil, errors.Errorf("invalid vout %s", vout.Raw)
	}
	scriptPubKey, err := hex.DecodeString(entry.Get("scriptPubKey").String())
	if err != nil {
		return nil, errors.Wrap(err, "invalid scriptPubKey")
	}
	amount, err := parseAmount(entry.Get("amount"))
	if err != nil {
		return nil, err
	}
	tokenID := entry.Get("tokenId")
	if tokenID.Exists() && tokenID.Uint() > 0xffffffff {
		return nil, errors.Errorf("invalid tokenId %s", tokenID.Raw)
	}

	spendable := entry.Get("spendable")
	return &UnspentOutput{
		Outpoint:      *wire.NewOutpoint(txID, uint32(vout.Uint())),
		Address:       entry.Get("address").String(),
		ScriptPubKey:  scriptPubKey,
		Amount:        amount,
		TokenID:       uint32(tokenID.Uint()),
		Confirmations: entry.Get("confirmations").Int(),
		Spendable:     !spendable.Exists() || spendable.Bool(),
	}, nil
}

// parseAmount converts a coin amount from the text of its JSON number, so
// that no floating point rounding is involved.
func parseAmount(value gjson.Result) (util.Amount, error) {
	var text string
	switch value.Type {
	case gjson.Number:
		text = value.Raw
	case gjson.String:
		text = value.Str
	default:
		return 0, errors.Errorf("invalid amount %q", value.Raw)
	}
	amount, err := decimal.NewFromString(text)
	if err != nil {
		return 0, errors.Wrapf(err, "invalid amount %q", text)
	}
	return util.AmountFromDecimal(amount)
}
