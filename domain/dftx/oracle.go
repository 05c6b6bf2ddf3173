package dftx

import (
	"bytes"
	"io"

	"github.com/dfinet/dfitx/domain/hashes"
	"github.com/dfinet/dfitx/domain/serialization"
)

// OracleDefinition describes an oracle: the script it publishes from, its
// weight, and the price feeds it serves.
type OracleDefinition struct {
	Script     []byte
	Weightage  uint8
	PriceFeeds []CurrencyPair
}

func (o *OracleDefinition) serialize(w io.Writer) error {
	err := writeScript(w, o.Script)
	if err != nil {
		return err
	}
	err = serialization.WriteElement(w, o.Weightage)
	if err != nil {
		return err
	}
	return writeCurrencyPairs(w, o.PriceFeeds)
}

func (o *OracleDefinition) deserialize(r *bytes.Reader) (err error) {
	o.Script, err = readScript(r)
	if err != nil {
		return err
	}
	err = serialization.ReadElement(r, &o.Weightage)
	if err != nil {
		return err
	}
	o.PriceFeeds, err = readCurrencyPairs(r)
	return err
}

// AppointOracle appoints a new oracle.
type AppointOracle struct {
	OracleDefinition
}

// Type implements Instruction.
func (*AppointOracle) Type() Type { return TypeAppointOracle }

func (ins *AppointOracle) serialize(w io.Writer) error {
	return ins.OracleDefinition.serialize(w)
}

func (ins *AppointOracle) deserialize(r *bytes.Reader) error {
	return ins.OracleDefinition.deserialize(r)
}

// RemoveOracle removes the oracle appointed by transaction OracleID.
type RemoveOracle struct {
	OracleID hashes.Hash
}

// Type implements Instruction.
func (*RemoveOracle) Type() Type { return TypeRemoveOracle }

func (ins *RemoveOracle) serialize(w io.Writer) error {
	return serialization.WriteElement(w, &ins.OracleID)
}

func (ins *RemoveOracle) deserialize(r *bytes.Reader) error {
	return serialization.ReadElement(r, &ins.OracleID)
}

// UpdateOracle replaces the definition of oracle OracleID.
type UpdateOracle struct {
	OracleID hashes.Hash
	OracleDefinition
}

// Type implements Instruction.
func (*UpdateOracle) Type() Type { return TypeUpdateOracle }

func (ins *UpdateOracle) serialize(w io.Writer) error {
	err := serialization.WriteElement(w, &ins.OracleID)
	if err != nil {
		return err
	}
	return ins.OracleDefinition.serialize(w)
}

func (ins *UpdateOracle) deserialize(r *bytes.Reader) error {
	err := serialization.ReadElement(r, &ins.OracleID)
	if err != nil {
		return err
	}
	return ins.OracleDefinition.deserialize(r)
}

// SetOracleData publishes token prices observed at Timestamp, in seconds.
type SetOracleData struct {
	OracleID    hashes.Hash
	Timestamp   int64
	TokenPrices []TokenPrice
}

// Type implements Instruction.
func (*SetOracleData) Type() Type { return TypeSetOracleData }

func (ins *SetOracleData) serialize(w io.Writer) error {
	err := serialization.WriteElements(w, &ins.OracleID, ins.Timestamp)
	if err != nil {
		return err
	}
	return writeTokenPrices(w, ins.TokenPrices)
}

func (ins *SetOracleData) deserialize(r *bytes.Reader) (err error) {
	err = serialization.ReadElements(r, &ins.OracleID, &ins.Timestamp)
	if err != nil {
		return err
	}
	ins.TokenPrices, err = readTokenPrices(r)
	return err
}
