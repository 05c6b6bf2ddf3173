package dftx

import (
	"bytes"
	"io"

	"github.com/dfinet/dfitx/domain/serialization"
	"github.com/pkg/errors"
)

// Governance variable names.
const (
	GovLPDailyDFIReward = "LP_DAILY_DFI_REWARD"
	GovLPSplits         = "LP_SPLITS"
	GovOracleDeviation  = "ORACLE_DEVIATION"
)

// GovernanceVariable is a named governance setting. Implementations are
// LPDailyDFIReward, LPSplits and OracleDeviation.
type GovernanceVariable interface {
	Name() string
	serialize(w io.Writer) error
	deserialize(r *bytes.Reader) error
}

// LPDailyDFIReward sets the daily native coin reward shared by liquidity
// pools.
type LPDailyDFIReward struct {
	Amount int64
}

// Name implements GovernanceVariable.
func (*LPDailyDFIReward) Name() string { return GovLPDailyDFIReward }

func (v *LPDailyDFIReward) serialize(w io.Writer) error {
	return serialization.WriteElement(w, v.Amount)
}

func (v *LPDailyDFIReward) deserialize(r *bytes.Reader) error {
	return serialization.ReadElement(r, &v.Amount)
}

// PoolSplit is the share of the daily reward, in minor units of 1.0, a pool
// receives.
type PoolSplit struct {
	PoolID  uint32
	Percent int64
}

// LPSplits sets how the daily reward is split between pools.
type LPSplits struct {
	Splits []PoolSplit
}

// Name implements GovernanceVariable.
func (*LPSplits) Name() string { return GovLPSplits }

func (v *LPSplits) serialize(w io.Writer) error {
	err := serialization.WriteVarInt(w, uint64(len(v.Splits)))
	if err != nil {
		return err
	}
	for _, split := range v.Splits {
		err = serialization.WriteElements(w, split.PoolID, split.Percent)
		if err != nil {
			return err
		}
	}
	return nil
}

func (v *LPSplits) deserialize(r *bytes.Reader) error {
	count, err := readCount(r)
	if err != nil || count == 0 {
		return err
	}
	v.Splits = make([]PoolSplit, count)
	for i := range v.Splits {
		err = serialization.ReadElements(r, &v.Splits[i].PoolID, &v.Splits[i].Percent)
		if err != nil {
			return err
		}
	}
	return nil
}

// OracleDeviation sets the maximum price deviation accepted between oracles.
type OracleDeviation struct {
	Deviation int64
}

// Name implements GovernanceVariable.
func (*OracleDeviation) Name() string { return GovOracleDeviation }

func (v *OracleDeviation) serialize(w io.Writer) error {
	return serialization.WriteElement(w, v.Deviation)
}

func (v *OracleDeviation) deserialize(r *bytes.Reader) error {
	return serialization.ReadElement(r, &v.Deviation)
}

var governanceVariables = map[string]func() GovernanceVariable{
	GovLPDailyDFIReward: func() GovernanceVariable { return &LPDailyDFIReward{} },
	GovLPSplits:         func() GovernanceVariable { return &LPSplits{} },
	GovOracleDeviation:  func() GovernanceVariable { return &OracleDeviation{} },
}

// SetGovernance sets governance variables. Each variable is written as its
// name followed by its value, and the list runs to the end of the data.
type SetGovernance struct {
	Variables []GovernanceVariable
}

// Type implements Instruction.
func (*SetGovernance) Type() Type { return TypeSetGovernance }

func (ins *SetGovernance) serialize(w io.Writer) error {
	for _, variable := range ins.Variables {
		if variable == nil {
			return errors.New("nil governance variable")
		}
		err := serialization.WriteVarString(w, variable.Name())
		if err != nil {
			return err
		}
		err = variable.serialize(w)
		if err != nil {
			return err
		}
	}
	return nil
}

func (ins *SetGovernance) deserialize(r *bytes.Reader) error {
	for r.Len() > 0 {
		name, err := readString(r)
		if err != nil {
			return err
		}
		newVariable, ok := governanceVariables[name]
		if !ok {
			return errors.Errorf("unknown governance variable %q", name)
		}
		variable := newVariable()
		err = variable.deserialize(r)
		if err != nil {
			return err
		}
		ins.Variables = append(ins.Variables, variable)
	}
	return nil
}
