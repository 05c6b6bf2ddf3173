package dftx

import (
	"bytes"
	"io"
	"math"

	"github.com/dfinet/dfitx/domain/serialization"
	"github.com/pkg/errors"
)

// TokenAmount is an amount of a token in minor units. The token id is
// written as a fixed four byte integer.
type TokenAmount struct {
	Token  uint32
	Amount int64
}

// VarTokenAmount is an amount of a token in minor units whose token id is
// written as a compact size integer.
type VarTokenAmount struct {
	Token  uint32
	Amount int64
}

// ScriptBalances are the token amounts held by, or sent to, an account
// identified by its locking script.
type ScriptBalances struct {
	Script   []byte
	Balances []TokenAmount
}

// CurrencyPair names a price feed: a token priced in a currency.
type CurrencyPair struct {
	Token    string
	Currency string
}

// CurrencyAmount is a price in minor units of a currency.
type CurrencyAmount struct {
	Currency string
	Amount   int64
}

// TokenPrice lists the prices of a token in several currencies.
type TokenPrice struct {
	Token  string
	Prices []CurrencyAmount
}

func writeScript(w io.Writer, script []byte) error {
	return serialization.WriteVarBytes(w, script)
}

func readScript(r io.Reader) ([]byte, error) {
	return serialization.ReadVarBytes(r, serialization.MaxMessagePayload, "script")
}

func readString(r io.Reader) (string, error) {
	return serialization.ReadVarString(r, serialization.MaxMessagePayload)
}

func writeVarUint32(w io.Writer, val uint32) error {
	return serialization.WriteVarInt(w, uint64(val))
}

func readVarUint32(r io.Reader) (uint32, error) {
	val, err := serialization.ReadVarInt(r)
	if err != nil {
		return 0, err
	}
	if val > math.MaxUint32 {
		return 0, errors.Errorf("value %d does not fit in 32 bits", val)
	}
	return uint32(val), nil
}

func writeFixed(w io.Writer, b []byte) error {
	_, err := w.Write(b)
	return errors.WithStack(err)
}

func readFixed(r io.Reader, b []byte) error {
	_, err := io.ReadFull(r, b)
	return errors.WithStack(err)
}

// readCount reads a list length. Every list element takes at least one
// byte, so a count larger than the remaining data is rejected before
// anything is allocated.
func readCount(r *bytes.Reader) (int, error) {
	count, err := serialization.ReadVarInt(r)
	if err != nil {
		return 0, err
	}
	if count > uint64(r.Len()) {
		return 0, errors.Errorf("list of %d elements exceeds the %d remaining bytes", count, r.Len())
	}
	return int(count), nil
}

func writeTokenAmounts(w io.Writer, amounts []TokenAmount) error {
	err := serialization.WriteVarInt(w, uint64(len(amounts)))
	if err != nil {
		return err
	}
	for _, amount := range amounts {
		err = serialization.WriteElements(w, amount.Token, amount.Amount)
		if err != nil {
			return err
		}
	}
	return nil
}

func readTokenAmounts(r *bytes.Reader) ([]TokenAmount, error) {
	count, err := readCount(r)
	if err != nil || count == 0 {
		return nil, err
	}
	amounts := make([]TokenAmount, count)
	for i := range amounts {
		err = serialization.ReadElements(r, &amounts[i].Token, &amounts[i].Amount)
		if err != nil {
			return nil, err
		}
	}
	return amounts, nil
}

func (a *VarTokenAmount) serialize(w io.Writer) error {
	err := writeVarUint32(w, a.Token)
	if err != nil {
		return err
	}
	return serialization.WriteElement(w, a.Amount)
}

func (a *VarTokenAmount) deserialize(r io.Reader) (err error) {
	a.Token, err = readVarUint32(r)
	if err != nil {
		return err
	}
	return serialization.ReadElement(r, &a.Amount)
}

func writeScriptBalances(w io.Writer, accounts []ScriptBalances) error {
	err := serialization.WriteVarInt(w, uint64(len(accounts)))
	if err != nil {
		return err
	}
	for _, account := range accounts {
		err = writeScript(w, account.Script)
		if err != nil {
			return err
		}
		err = writeTokenAmounts(w, account.Balances)
		if err != nil {
			return err
		}
	}
	return nil
}

func readScriptBalances(r *bytes.Reader) ([]ScriptBalances, error) {
	count, err := readCount(r)
	if err != nil || count == 0 {
		return nil, err
	}
	accounts := make([]ScriptBalances, count)
	for i := range accounts {
		accounts[i].Script, err = readScript(r)
		if err != nil {
			return nil, err
		}
		accounts[i].Balances, err = readTokenAmounts(r)
		if err != nil {
			return nil, err
		}
	}
	return accounts, nil
}

func (p *CurrencyPair) serialize(w io.Writer) error {
	err := serialization.WriteVarString(w, p.Token)
	if err != nil {
		return err
	}
	return serialization.WriteVarString(w, p.Currency)
}

func (p *CurrencyPair) deserialize(r io.Reader) (err error) {
	p.Token, err = readString(r)
	if err != nil {
		return err
	}
	p.Currency, err = readString(r)
	return err
}

func writeCurrencyPairs(w io.Writer, pairs []CurrencyPair) error {
	err := serialization.WriteVarInt(w, uint64(len(pairs)))
	if err != nil {
		return err
	}
	for i := range pairs {
		err = pairs[i].serialize(w)
		if err != nil {
			return err
		}
	}
	return nil
}

func readCurrencyPairs(r *bytes.Reader) ([]CurrencyPair, error) {
	count, err := readCount(r)
	if err != nil || count == 0 {
		return nil, err
	}
	pairs := make([]CurrencyPair, count)
	for i := range pairs {
		err = pairs[i].deserialize(r)
		if err != nil {
			return nil, err
		}
	}
	return pairs, nil
}

func writeTokenPrices(w io.Writer, tokenPrices []TokenPrice) error {
	err := serialization.WriteVarInt(w, uint64(len(tokenPrices)))
	if err != nil {
		return err
	}
	for _, tokenPrice := range tokenPrices {
		err = serialization.WriteVarString(w, tokenPrice.Token)
		if err != nil {
			return err
		}
		err = serialization.WriteVarInt(w, uint64(len(tokenPrice.Prices)))
		if err != nil {
			return err
		}
		for _, price := range tokenPrice.Prices {
			err = serialization.WriteVarString(w, price.Currency)
			if err != nil {
				return err
			}
			err = serialization.WriteElement(w, price.Amount)
			if err != nil {
				return err
			}
		}
	}
	return nil
}

func readTokenPrices(r *bytes.Reader) ([]TokenPrice, error) {
	count, err := readCount(r)
	if err != nil || count == 0 {
		return nil, err
	}
	tokenPrices := make([]TokenPrice, count)
	for i := range tokenPrices {
		tokenPrices[i].Token, err = readString(r)
		if err != nil {
			return nil, err
		}
		priceCount, err := readCount(r)
		if err != nil {
			return nil, err
		}
		if priceCount == 0 {
			continue
		}
		tokenPrices[i].Prices = make([]CurrencyAmount, priceCount)
		for j := range tokenPrices[i].Prices {
			price := &tokenPrices[i].Prices[j]
			price.Currency, err = readString(r)
			if err != nil {
				return nil, err
			}
			err = serialization.ReadElement(r, &price.Amount)
			if err != nil {
				return nil, err
			}
		}
	}
	return tokenPrices, nil
}
