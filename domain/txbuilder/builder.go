package txbuilder

import (
	"context"

	"github.com/dfinet/dfitx/domain/dftx"
	"github.com/dfinet/dfitx/domain/txscript"
	"github.com/dfinet/dfitx/domain/wire"
	"github.com/dfinet/dfitx/infrastructure/logger"
	"github.com/dfinet/dfitx/util"
	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"
)

var (
	// ErrInsufficientFunds is returned when the spendable outputs cannot
	// cover the outputs and the fee.
	ErrInsufficientFunds = errors.New("insufficient funds")

	// ErrSigningFailure is returned when an input cannot be signed. No
	// partially signed transaction is returned alongside it.
	ErrSigningFailure = errors.New("signing failure")

	// ErrInvalidRequest is returned for build requests that describe no
	// valid transaction.
	ErrInvalidRequest = errors.New("invalid build request")
)

// Placeholder witness item sizes: a maximum-size DER signature with its
// sighash type byte and a compressed public key.
const (
	placeholderSignatureSize = 73
	placeholderPublicKeySize = util.CompressedPublicKeySize
)

// BuildRequest describes the transaction to build.
type BuildRequest struct {
	// Instruction is embedded in the first output when set.
	Instruction dftx.Instruction

	// InstructionValue is the value carried by the instruction output.
	InstructionValue util.Amount

	// Outputs are native-coin transfers following the instruction output.
	Outputs []*wire.TxOut

	// ChangeScript receives the change, if any is worth creating.
	ChangeScript []byte
}

// Builder turns build requests into signed transactions.
type Builder struct {
	prevouts PrevoutProvider
	feeRates FeeRateProvider
	keys     SigningKeyResolver
	policy   Policy
}

// New returns a builder that funds transactions from prevouts, prices them
// with feeRates and signs them with keys.
func New(prevouts PrevoutProvider, feeRates FeeRateProvider, keys SigningKeyResolver, policy Policy) (*Builder, error) {
	if prevouts == nil || feeRates == nil || keys == nil {
		return nil, errors.New("prevout, fee rate and key providers are required")
	}
	if err := policy.Validate(); err != nil {
		return nil, err
	}
	return &Builder{
		prevouts: prevouts,
		feeRates: feeRates,
		keys:     keys,
		policy:   policy,
	}, nil
}

// Policy returns the policy of the builder.
func (b *Builder) Policy() Policy {
	return b.policy
}

// Send builds a transaction paying amount to the script to.
func (b *Builder) Send(ctx context.Context, to []byte, amount util.Amount, changeScript []byte) (*Result, error) {
	return b.Build(ctx, &BuildRequest{
		Outputs:      []*wire.TxOut{wire.NewTxOut(int64(amount), to)},
		ChangeScript: changeScript,
	})
}

// BuildInstruction builds a transaction carrying instruction in a zero value
// output.
func (b *Builder) BuildInstruction(ctx context.Context, instruction dftx.Instruction, changeScript []byte) (*Result, error) {
	return b.Build(ctx, &BuildRequest{
		Instruction:  instruction,
		ChangeScript: changeScript,
	})
}

// UtxosToAccount builds a transaction converting amount of native coins into
// the account balance of the script to. The converted value is locked in the
// instruction output.
func (b *Builder) UtxosToAccount(ctx context.Context, to []byte, amount util.Amount, changeScript []byte) (*Result, error) {
	instruction := &dftx.UtxosToAccount{
		To: []dftx.ScriptBalances{{
			Script:   to,
			Balances: []dftx.TokenAmount{{Token: 0, Amount: int64(amount)}},
		}},
	}
	return b.Build(ctx, &BuildRequest{
		Instruction:      instruction,
		InstructionValue: amount,
		ChangeScript:     changeScript,
	})
}

// Build funds, prices and signs the transaction described by request.
//
// Outputs are laid out as the instruction output, the transfer outputs and
// the change output, in that order. The fee is computed on the estimated
// virtual size of the transaction with maximum-size witnesses, so the
// returned transaction never pays less than the fee rate.
func (b *Builder) Build(ctx context.Context, request *BuildRequest) (*Result, error) {
	defer logger.LogAndMeasureExecutionTime(log, "Builder.Build")()

	outputs, target, err := b.requestOutputs(request)
	if err != nil {
		return nil, err
	}

	rate := b.feeRate(ctx)
	changeOutput := wire.NewTxOut(0, request.ChangeScript)
	withChange := append(append([]*wire.TxOut{}, outputs...), changeOutput)

	inputs, total, err := b.collect(ctx, target, func(numInputs int) util.Amount {
		return b.fee(numInputs, outputs, rate)
	})
	if err != nil {
		return nil, err
	}

	feeWithChange := b.fee(len(inputs), withChange, rate)
	feeWithoutChange := b.fee(len(inputs), outputs, rate)

	var fee util.Amount
	changeIndex := -1
	switch {
	case total >= target+feeWithChange && total-target-feeWithChange >= b.policy.DustThreshold:
		fee = feeWithChange
		changeOutput.Value = int64(total - target - feeWithChange)
		outputs = withChange
		changeIndex = len(outputs) - 1
	case total >= target+feeWithoutChange:
		// The remainder is not worth an output and goes to the fee.
		fee = total - target
	default:
		return nil, errors.Wrapf(ErrInsufficientFunds, "have %s, need %s", total, target+feeWithoutChange)
	}

	tx := wire.NewMsgTx(b.policy.TxVersion)
	for _, input := range inputs {
		outpoint := input.Outpoint
		tx.AddTxIn(wire.NewTxIn(&outpoint))
	}
	for _, output := range outputs {
		tx.AddTxOut(output)
	}

	err = b.sign(ctx, tx, inputs)
	if err != nil {
		return nil, err
	}

	log.Debugf("Built transaction %s: %d inputs, %d outputs, fee %s at %s/kB",
		tx.TxID(), len(tx.TxIn), len(tx.TxOut), fee, rate)

	return &Result{
		Tx:          tx,
		Fee:         fee,
		Inputs:      inputs,
		ChangeIndex: changeIndex,
	}, nil
}

// requestOutputs returns the non-change outputs of request and the native
// value they spend.
func (b *Builder) requestOutputs(request *BuildRequest) ([]*wire.TxOut, util.Amount, error) {
	if request == nil {
		return nil, 0, errors.Wrap(ErrInvalidRequest, "nil request")
	}
	if len(request.ChangeScript) == 0 {
		return nil, 0, errors.Wrap(ErrInvalidRequest, "missing change script")
	}
	if request.Instruction == nil && len(request.Outputs) == 0 {
		return nil, 0, errors.Wrap(ErrInvalidRequest, "nothing to build")
	}

	var outputs []*wire.TxOut
	var target util.Amount
	if request.Instruction != nil {
		script, err := txscript.EmbedInstruction(request.Instruction)
		if err != nil {
			return nil, 0, err
		}
		outputs = append(outputs, wire.NewTxOut(int64(request.InstructionValue), script))
		target = request.InstructionValue
	}

	for i, output := range request.Outputs {
		if output.TokenID != 0 {
			return nil, 0, errors.Wrapf(ErrInvalidRequest, "output %d transfers token %d", i, output.TokenID)
		}
		if output.Value < 0 {
			return nil, 0, errors.Wrapf(ErrInvalidRequest, "output %d has negative value %d", i, output.Value)
		}
		outputs = append(outputs, &wire.TxOut{
			Value:        output.Value,
			ScriptPubKey: output.ScriptPubKey,
		})
		target += util.Amount(output.Value)
	}

	if target > util.MaxMinorUnits {
		return nil, 0, errors.Wrapf(ErrInvalidRequest, "outputs total %s exceeds the maximum amount", target)
	}
	return outputs, target, nil
}

// feeRate returns the estimated fee rate, or the fallback rate when no
// estimate is available. Estimates above MaxFeeRate are capped.
func (b *Builder) feeRate(ctx context.Context) util.Amount {
	rate, err := b.feeRates.Estimate(ctx)
	if err != nil {
		log.Warnf("Using fallback fee rate %s/kB: %s", b.policy.FallbackFeeRate, err)
		return b.policy.FallbackFeeRate
	}
	if rate == 0 {
		log.Warnf("Using fallback fee rate %s/kB: estimate is zero", b.policy.FallbackFeeRate)
		return b.policy.FallbackFeeRate
	}
	if rate > MaxFeeRate {
		log.Warnf("Capping fee rate estimate %s/kB to %s/kB", rate, MaxFeeRate)
		return MaxFeeRate
	}
	return rate
}

// collect asks the prevout provider for native-coin outputs until they cover
// target plus the fee of spending them, or until no new output is offered
// or the round limit is reached.
func (b *Builder) collect(ctx context.Context, target util.Amount,
	feeFor func(numInputs int) util.Amount) ([]*SpendableOutput, util.Amount, error) {

	var selected []*SpendableOutput
	var total util.Amount
	seen := make(map[wire.Outpoint]struct{})

	for round := 0; round < b.policy.MaxCollectRounds; round++ {
		// Any funded transaction spends at least one input.
		need := target + feeFor(max(1, len(selected)))
		if total >= need {
			break
		}
		if err := ctx.Err(); err != nil {
			return nil, 0, err
		}

		candidates, err := b.prevouts.Collect(ctx, need-total)
		if err != nil {
			return nil, 0, errors.Wrap(err, "cannot collect spendable outputs")
		}
		log.Tracef("Collect round %d offered %d outputs for %s", round, len(candidates), need-total)

		added := 0
		for _, candidate := range candidates {
			if candidate.TokenID != 0 {
				continue
			}
			if _, ok := seen[candidate.Outpoint]; ok {
				continue
			}
			seen[candidate.Outpoint] = struct{}{}
			selected = append(selected, candidate)
			total += candidate.Value
			added++
			if total >= target+feeFor(len(selected)) {
				break
			}
		}
		if added == 0 {
			break
		}
	}

	return selected, total, nil
}

// fee returns the fee at rate of a transaction spending numInputs witness
// pubkey hash inputs into outputs.
func (b *Builder) fee(numInputs int, outputs []*wire.TxOut, rate util.Amount) util.Amount {
	return calcFee(b.estimateVirtualSize(numInputs, outputs), rate)
}

// estimateVirtualSize returns the virtual size of a transaction with
// numInputs inputs carrying placeholder witnesses and the given outputs.
func (b *Builder) estimateVirtualSize(numInputs int, outputs []*wire.TxOut) int {
	tx := wire.NewMsgTx(b.policy.TxVersion)
	for i := 0; i < numInputs; i++ {
		input := wire.NewTxIn(&wire.Outpoint{})
		input.Witness = wire.TxWitness{
			make([]byte, placeholderSignatureSize),
			make([]byte, placeholderPublicKeySize),
		}
		tx.AddTxIn(input)
	}
	for _, output := range outputs {
		tx.AddTxOut(output)
	}
	return tx.VirtualSize()
}

// calcFee returns ceil(virtualSize * rate / 1000).
func calcFee(virtualSize int, rate util.Amount) util.Amount {
	return (util.Amount(virtualSize)*rate + 999) / 1000
}

// sign signs every input of tx concurrently. Witnesses are attached only once
// every input has been signed.
func (b *Builder) sign(ctx context.Context, tx *wire.MsgTx, inputs []*SpendableOutput) error {
	sigHashes := txscript.NewTxSigHashes(tx)
	witnesses := make([]wire.TxWitness, len(inputs))

	group, groupCtx := errgroup.WithContext(ctx)
	for i, input := range inputs {
		i, input := i, input
		group.Go(func() error {
			if err := groupCtx.Err(); err != nil {
				return err
			}
			key, err := b.keys.KeyFor(input)
			if err != nil {
				return errors.Wrapf(ErrSigningFailure, "no key for input %d spending %s: %s", i, input, err)
			}
			witness, err := txscript.WitnessSignature(tx, sigHashes, i, int64(input.Value),
				input.ScriptPubKey, txscript.SigHashAll, key)
			if err != nil {
				return errors.Wrapf(ErrSigningFailure, "cannot sign input %d spending %s: %s", i, input, err)
			}
			witnesses[i] = witness
			return nil
		})
	}
	if err := group.Wait(); err != nil {
		return err
	}

	for i, witness := range witnesses {
		tx.TxIn[i].Witness = witness
	}
	return nil
}
