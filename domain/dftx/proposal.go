package dftx

import (
	"bytes"
	"io"

	"github.com/dfinet/dfitx/domain/hashes"
	"github.com/dfinet/dfitx/domain/serialization"
)

// Proposal types.
const (
	ProposalTypeCommunityFund    uint8 = 0x01
	ProposalTypeVoteOfConfidence uint8 = 0x03
)

// Vote decisions.
const (
	VoteYes     uint8 = 0x01
	VoteNo      uint8 = 0x02
	VoteNeutral uint8 = 0x03
)

// Proposal is the content of an on-chain governance proposal.
type Proposal struct {
	ProposalType uint8
	Address      []byte
	Amount       int64
	Title        string
	Context      string
	ContextHash  string
	Cycles       uint8
	Options      uint8
}

func (p *Proposal) serialize(w io.Writer) error {
	err := serialization.WriteElement(w, p.ProposalType)
	if err != nil {
		return err
	}
	err = writeScript(w, p.Address)
	if err != nil {
		return err
	}
	err = serialization.WriteElement(w, p.Amount)
	if err != nil {
		return err
	}
	for _, text := range []string{p.Title, p.Context, p.ContextHash} {
		err = serialization.WriteVarString(w, text)
		if err != nil {
			return err
		}
	}
	return serialization.WriteElements(w, p.Cycles, p.Options)
}

func (p *Proposal) deserialize(r *bytes.Reader) (err error) {
	err = serialization.ReadElement(r, &p.ProposalType)
	if err != nil {
		return err
	}
	p.Address, err = readScript(r)
	if err != nil {
		return err
	}
	err = serialization.ReadElement(r, &p.Amount)
	if err != nil {
		return err
	}
	for _, text := range []*string{&p.Title, &p.Context, &p.ContextHash} {
		*text, err = readString(r)
		if err != nil {
			return err
		}
	}
	return serialization.ReadElements(r, &p.Cycles, &p.Options)
}

// CreateCfp requests Amount from the community fund, paid to Address.
type CreateCfp struct {
	Proposal
}

// Type implements Instruction.
func (*CreateCfp) Type() Type { return TypeCreateCfp }

// CreateVoc asks masternodes for a vote of confidence.
type CreateVoc struct {
	Proposal
}

// Type implements Instruction.
func (*CreateVoc) Type() Type { return TypeCreateVoc }

// Vote casts the vote of a masternode on a proposal.
type Vote struct {
	ProposalID   hashes.Hash
	MasternodeID hashes.Hash
	Decision     uint8
}

// Type implements Instruction.
func (*Vote) Type() Type { return TypeVote }

func (ins *Vote) serialize(w io.Writer) error {
	return serialization.WriteElements(w, &ins.ProposalID, &ins.MasternodeID, ins.Decision)
}

func (ins *Vote) deserialize(r *bytes.Reader) error {
	return serialization.ReadElements(r, &ins.ProposalID, &ins.MasternodeID, &ins.Decision)
}

// AutoAuthPrep marks a transaction as preparation for automatic
// authorisation. It has no fields.
type AutoAuthPrep struct{}

// Type implements Instruction.
func (*AutoAuthPrep) Type() Type { return TypeAutoAuthPrep }

func (*AutoAuthPrep) serialize(io.Writer) error { return nil }

func (*AutoAuthPrep) deserialize(*bytes.Reader) error { return nil }
