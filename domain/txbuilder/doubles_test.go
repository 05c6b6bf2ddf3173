package txbuilder

import (
	"context"
	"encoding/hex"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/dfinet/dfitx/domain/hashes"
	"github.com/dfinet/dfitx/domain/txscript"
	"github.com/dfinet/dfitx/domain/wire"
	"github.com/dfinet/dfitx/util"
	"github.com/pkg/errors"
)

// batchPrevouts returns its batches one per Collect call, then nothing.
type batchPrevouts struct {
	mu       sync.Mutex
	batches  [][]*SpendableOutput
	err      error
	calls    int
	minimums []util.Amount
}

func (p *batchPrevouts) Collect(_ context.Context, minimum util.Amount) ([]*SpendableOutput, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.calls++
	p.minimums = append(p.minimums, minimum)
	if p.err != nil {
		return nil, p.err
	}
	if p.calls > len(p.batches) {
		return nil, nil
	}
	return p.batches[p.calls-1], nil
}

// endlessPrevouts offers a new output of the same value on every call.
type endlessPrevouts struct {
	value  util.Amount
	script []byte
	calls  int
}

func (p *endlessPrevouts) Collect(context.Context, util.Amount) ([]*SpendableOutput, error) {
	p.calls++
	return []*SpendableOutput{newSpendable(p.calls, 0, p.value, p.script)}, nil
}

type fixedFeeRate struct {
	rate util.Amount
	err  error
}

func (f fixedFeeRate) Estimate(context.Context) (util.Amount, error) {
	return f.rate, f.err
}

// scriptKeys resolves keys by the script of the spent output.
type scriptKeys struct {
	keys  map[string]*util.KeyPair
	calls int32
}

func newScriptKeys(keyPairs ...*util.KeyPair) *scriptKeys {
	keys := &scriptKeys{keys: make(map[string]*util.KeyPair)}
	for _, keyPair := range keyPairs {
		script, err := txscript.PayToWitnessPubKeyHashScript(keyPair.PubKeyHash())
		if err != nil {
			panic(err)
		}
		keys.keys[hex.EncodeToString(script)] = keyPair
	}
	return keys
}

func (k *scriptKeys) KeyFor(output *SpendableOutput) (*util.KeyPair, error) {
	atomic.AddInt32(&k.calls, 1)
	keyPair, ok := k.keys[hex.EncodeToString(output.ScriptPubKey)]
	if !ok {
		return nil, errors.Errorf("no key for script %x", output.ScriptPubKey)
	}
	return keyPair, nil
}

func testKeyPair(t *testing.T, lastByte byte) *util.KeyPair {
	privateKey := make([]byte, util.PrivateKeySize)
	privateKey[len(privateKey)-1] = lastByte
	keyPair, err := util.KeyPairFromBytes(privateKey)
	if err != nil {
		t.Fatalf("KeyPairFromBytes: %s", err)
	}
	return keyPair
}

func witnessScript(t *testing.T, keyPair *util.KeyPair) []byte {
	script, err := txscript.PayToWitnessPubKeyHashScript(keyPair.PubKeyHash())
	if err != nil {
		t.Fatalf("PayToWitnessPubKeyHashScript: %s", err)
	}
	return script
}

func newSpendable(n int, index uint32, value util.Amount, script []byte) *SpendableOutput {
	var txID hashes.Hash
	txID[0] = byte(n)
	txID[1] = byte(n >> 8)
	return &SpendableOutput{
		Outpoint:     *wire.NewOutpoint(&txID, index),
		Value:        value,
		ScriptPubKey: script,
	}
}
