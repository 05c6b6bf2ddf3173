package dftx

import (
	"bytes"
	"io"

	"github.com/dfinet/dfitx/domain/hashes"
	"github.com/dfinet/dfitx/domain/serialization"
)

// PubKeyHashSize is the size of the key hashes masternodes are operated by.
const PubKeyHashSize = 20

// Masternode operator address types.
const (
	OperatorTypePubKeyHash        uint8 = 1
	OperatorTypeWitnessPubKeyHash uint8 = 4
)

// Masternode timelocks, in weeks. Zero means no timelock.
const (
	MasternodeTimelockNone     uint16 = 0
	MasternodeTimelockFiveYear uint16 = 260
	MasternodeTimelockTenYear  uint16 = 520
)

// CreateMasternode registers a masternode operated by the given key hash.
// Timelock is optional and only written when non-zero.
type CreateMasternode struct {
	OperatorType       uint8
	OperatorPubKeyHash [PubKeyHashSize]byte
	Timelock           uint16
}

// Type implements Instruction.
func (*CreateMasternode) Type() Type { return TypeCreateMasternode }

func (ins *CreateMasternode) serialize(w io.Writer) error {
	err := serialization.WriteElement(w, ins.OperatorType)
	if err != nil {
		return err
	}
	err = writeFixed(w, ins.OperatorPubKeyHash[:])
	if err != nil {
		return err
	}
	if ins.Timelock != MasternodeTimelockNone {
		return serialization.WriteElement(w, ins.Timelock)
	}
	return nil
}

func (ins *CreateMasternode) deserialize(r *bytes.Reader) error {
	err := serialization.ReadElement(r, &ins.OperatorType)
	if err != nil {
		return err
	}
	err = readFixed(r, ins.OperatorPubKeyHash[:])
	if err != nil {
		return err
	}
	if r.Len() > 0 {
		return serialization.ReadElement(r, &ins.Timelock)
	}
	return nil
}

// ResignMasternode resigns the masternode created by transaction NodeID.
type ResignMasternode struct {
	NodeID hashes.Hash
}

// Type implements Instruction.
func (*ResignMasternode) Type() Type { return TypeResignMasternode }

func (ins *ResignMasternode) serialize(w io.Writer) error {
	return serialization.WriteElement(w, &ins.NodeID)
}

func (ins *ResignMasternode) deserialize(r *bytes.Reader) error {
	return serialization.ReadElement(r, &ins.NodeID)
}

// Masternode update kinds.
const (
	MasternodeUpdateOwnerAddress    uint8 = 1
	MasternodeUpdateOperatorAddress uint8 = 2
	MasternodeUpdateSetRewardAddr   uint8 = 3
	MasternodeUpdateRemRewardAddr   uint8 = 4
)

// MasternodeUpdate changes one address of a masternode.
type MasternodeUpdate struct {
	UpdateType  uint8
	AddressType uint8
	Address     []byte
}

// UpdateMasternode applies a list of address updates to a masternode.
type UpdateMasternode struct {
	NodeID  hashes.Hash
	Updates []MasternodeUpdate
}

// Type implements Instruction.
func (*UpdateMasternode) Type() Type { return TypeUpdateMasternode }

func (ins *UpdateMasternode) serialize(w io.Writer) error {
	err := serialization.WriteElement(w, &ins.NodeID)
	if err != nil {
		return err
	}
	err = serialization.WriteVarInt(w, uint64(len(ins.Updates)))
	if err != nil {
		return err
	}
	for _, update := range ins.Updates {
		err = serialization.WriteElements(w, update.UpdateType, update.AddressType)
		if err != nil {
			return err
		}
		err = serialization.WriteVarBytes(w, update.Address)
		if err != nil {
			return err
		}
	}
	return nil
}

func (ins *UpdateMasternode) deserialize(r *bytes.Reader) error {
	err := serialization.ReadElement(r, &ins.NodeID)
	if err != nil {
		return err
	}
	count, err := readCount(r)
	if err != nil || count == 0 {
		return err
	}
	ins.Updates = make([]MasternodeUpdate, count)
	for i := range ins.Updates {
		update := &ins.Updates[i]
		err = serialization.ReadElements(r, &update.UpdateType, &update.AddressType)
		if err != nil {
			return err
		}
		update.Address, err = serialization.ReadVarBytes(r, serialization.MaxMessagePayload, "masternode address")
		if err != nil {
			return err
		}
	}
	return nil
}
