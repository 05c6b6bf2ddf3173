package wire

import (
	"bytes"
	"io"
	"math"
	"strconv"

	"github.com/dfinet/dfitx/domain/hashes"
	"github.com/dfinet/dfitx/domain/serialization"
	"github.com/pkg/errors"
)

const (
	// TxVersion is the transaction version produced by default.
	TxVersion = 4

	// TokenAwareTxVersion is the first transaction version whose outputs
	// carry a token id after their script.
	TokenAwareTxVersion = 4

	// MaxTxInSequenceNum is the maximum sequence number the sequence field
	// of a transaction input can be.
	MaxTxInSequenceNum uint32 = 0xffffffff

	// MaxPrevOutIndex is the maximum index the index field of a previous
	// outpoint can be.
	MaxPrevOutIndex uint32 = 0xffffffff

	// witnessMarker and witnessFlag follow the version of a transaction
	// that carries witness data.
	witnessMarker byte = 0x00
	witnessFlag   byte = 0x01

	// minTxInPayload is the minimum payload size for a transaction input.
	// PreviousOutpoint.TxID + PreviousOutpoint.Index 4 bytes + Varint for
	// SignatureScript length 1 byte + Sequence 4 bytes.
	minTxInPayload = 9 + hashes.HashSize

	// maxTxInPerMessage is the maximum number of transaction inputs that
	// a transaction which fits into a message could possibly have.
	maxTxInPerMessage = (serialization.MaxMessagePayload / minTxInPayload) + 1

	// minTxOutPayload is the minimum payload size for a transaction output.
	// Value 8 bytes + Varint for ScriptPubKey length 1 byte.
	minTxOutPayload = 9

	// maxTxOutPerMessage is the maximum number of transaction outputs that
	// a transaction which fits into a message could possibly have.
	maxTxOutPerMessage = (serialization.MaxMessagePayload / minTxOutPayload) + 1

	// maxWitnessItemsPerInput bounds the number of witness items a single
	// input may carry.
	maxWitnessItemsPerInput = 500000

	// maxWitnessItemSize bounds the size of a single witness item.
	maxWitnessItemSize = 11000

	// witnessScaleFactor is the weight of a non-witness byte relative to a
	// witness byte.
	witnessScaleFactor = 4
)

// ErrMalformedTransaction indicates that a byte sequence is not a valid
// serialized transaction.
var ErrMalformedTransaction = errors.New("malformed transaction")

// Outpoint defines a data type that is used to track previous transaction
// outputs.
type Outpoint struct {
	TxID  hashes.Hash
	Index uint32
}

// NewOutpoint returns a new transaction outpoint with the provided id and
// index.
func NewOutpoint(txID *hashes.Hash, index uint32) *Outpoint {
	return &Outpoint{
		TxID:  *txID,
		Index: index,
	}
}

// String returns the Outpoint in the human-readable form "txID:index".
func (o Outpoint) String() string {
	buf := make([]byte, 2*hashes.HashSize+1, 2*hashes.HashSize+1+10)
	copy(buf, o.TxID.String())
	buf[2*hashes.HashSize] = ':'
	buf = strconv.AppendUint(buf, uint64(o.Index), 10)
	return string(buf)
}

// TxWitness is the ordered stack of witness items of a single input.
type TxWitness [][]byte

// SerializeSize returns the number of bytes it would take to serialize the
// witness.
func (t TxWitness) SerializeSize() int {
	n := serialization.VarIntSerializeSize(uint64(len(t)))
	for _, item := range t {
		n += serialization.VarBytesSerializeSize(item)
	}
	return n
}

// TxIn defines a transaction input.
type TxIn struct {
	PreviousOutpoint Outpoint
	SignatureScript  []byte
	Sequence         uint32
	Witness          TxWitness
}

// NewTxIn returns a new transaction input spending prevOut with an empty
// signature script and the maximum sequence number.
func NewTxIn(prevOut *Outpoint) *TxIn {
	return &TxIn{
		PreviousOutpoint: *prevOut,
		Sequence:         MaxTxInSequenceNum,
	}
}

// serializeSize returns the number of bytes the input takes without its
// witness.
func (ti *TxIn) serializeSize() int {
	// Outpoint TxID 32 bytes + Outpoint Index 4 bytes + Sequence 4 bytes +
	// serialized varint size for the length of SignatureScript +
	// SignatureScript bytes.
	return 40 + serialization.VarBytesSerializeSize(ti.SignatureScript)
}

// TxOut defines a transaction output. TokenID 0 is the native coin.
type TxOut struct {
	Value        int64
	ScriptPubKey []byte
	TokenID      uint32
}

// NewTxOut returns a new native coin transaction output.
func NewTxOut(value int64, scriptPubKey []byte) *TxOut {
	return &TxOut{
		Value:        value,
		ScriptPubKey: scriptPubKey,
	}
}

// SerializeSize returns the number of bytes the output takes in a
// transaction of the given version.
func (to *TxOut) SerializeSize(txVersion int32) int {
	// Value 8 bytes + serialized varint size for the length of ScriptPubKey +
	// ScriptPubKey bytes.
	n := 8 + serialization.VarBytesSerializeSize(to.ScriptPubKey)
	if txVersion >= TokenAwareTxVersion {
		n += serialization.VarIntSerializeSize(uint64(to.TokenID))
	}
	return n
}

// MsgTx represents a ledger transaction.
//
// Use the AddTxIn and AddTxOut functions to build up the list of transaction
// inputs and outputs.
type MsgTx struct {
	Version  int32
	TxIn     []*TxIn
	TxOut    []*TxOut
	LockTime uint32
}

// NewMsgTx returns a new transaction with the given version and no inputs
// or outputs.
func NewMsgTx(version int32) *MsgTx {
	return &MsgTx{Version: version}
}

// AddTxIn adds a transaction input to the message.
func (msg *MsgTx) AddTxIn(ti *TxIn) {
	msg.TxIn = append(msg.TxIn, ti)
}

// AddTxOut adds a transaction output to the message.
func (msg *MsgTx) AddTxOut(to *TxOut) {
	msg.TxOut = append(msg.TxOut, to)
}

// HasWitness returns whether any input carries witness data.
func (msg *MsgTx) HasWitness() bool {
	for _, txIn := range msg.TxIn {
		if len(txIn.Witness) != 0 {
			return true
		}
	}
	return false
}

// TxID returns the transaction id: the double SHA256 of the serialization
// without witness data.
func (msg *MsgTx) TxID() hashes.Hash {
	writer := hashes.NewDoubleHashWriter()
	// A hash writer never fails.
	_ = msg.SerializeNoWitness(writer)
	return writer.Finalize()
}

// WitnessTxID returns the double SHA256 of the full serialization. It equals
// TxID when no input carries witness data.
func (msg *MsgTx) WitnessTxID() hashes.Hash {
	if !msg.HasWitness() {
		return msg.TxID()
	}
	writer := hashes.NewDoubleHashWriter()
	_ = msg.Serialize(writer)
	return writer.Finalize()
}

// Copy creates a deep copy of a transaction so that the original does not get
// modified when the copy is manipulated.
func (msg *MsgTx) Copy() *MsgTx {
	newTx := MsgTx{
		Version:  msg.Version,
		TxIn:     make([]*TxIn, 0, len(msg.TxIn)),
		TxOut:    make([]*TxOut, 0, len(msg.TxOut)),
		LockTime: msg.LockTime,
	}

	for _, oldTxIn := range msg.TxIn {
		newTxIn := TxIn{
			PreviousOutpoint: oldTxIn.PreviousOutpoint,
			SignatureScript:  copyBytes(oldTxIn.SignatureScript),
			Sequence:         oldTxIn.Sequence,
		}
		if oldTxIn.Witness != nil {
			newTxIn.Witness = make(TxWitness, len(oldTxIn.Witness))
			for i, item := range oldTxIn.Witness {
				newTxIn.Witness[i] = copyBytes(item)
			}
		}
		newTx.TxIn = append(newTx.TxIn, &newTxIn)
	}

	for _, oldTxOut := range msg.TxOut {
		newTx.TxOut = append(newTx.TxOut, &TxOut{
			Value:        oldTxOut.Value,
			ScriptPubKey: copyBytes(oldTxOut.ScriptPubKey),
			TokenID:      oldTxOut.TokenID,
		})
	}

	return &newTx
}

func copyBytes(b []byte) []byte {
	if b == nil {
		return nil
	}
	c := make([]byte, len(b))
	copy(c, b)
	return c
}

// Serialize encodes the transaction to w, including witness data when any
// input carries some.
func (msg *MsgTx) Serialize(w io.Writer) error {
	return msg.encode(w, true)
}

// SerializeNoWitness encodes the transaction to w without witness data.
func (msg *MsgTx) SerializeNoWitness(w io.Writer) error {
	return msg.encode(w, false)
}

// Bytes returns the full serialization of the transaction.
func (msg *MsgTx) Bytes() []byte {
	buf := bytes.NewBuffer(make([]byte, 0, msg.SerializeSize()))
	_ = msg.Serialize(buf)
	return buf.Bytes()
}

func (msg *MsgTx) encode(w io.Writer, withWitness bool) error {
	err := serialization.WriteElement(w, msg.Version)
	if err != nil {
		return err
	}

	doWitness := withWitness && msg.HasWitness()
	if doWitness {
		err = serialization.WriteElements(w, witnessMarker, witnessFlag)
		if err != nil {
			return err
		}
	}

	err = serialization.WriteVarInt(w, uint64(len(msg.TxIn)))
	if err != nil {
		return err
	}
	for _, ti := range msg.TxIn {
		err = writeTxIn(w, ti)
		if err != nil {
			return err
		}
	}

	err = serialization.WriteVarInt(w, uint64(len(msg.TxOut)))
	if err != nil {
		return err
	}
	for _, to := range msg.TxOut {
		err = writeTxOut(w, msg.Version, to)
		if err != nil {
			return err
		}
	}

	if doWitness {
		for _, ti := range msg.TxIn {
			err = writeTxWitness(w, ti.Witness)
			if err != nil {
				return err
			}
		}
	}

	return serialization.WriteElement(w, msg.LockTime)
}

func writeTxIn(w io.Writer, ti *TxIn) error {
	err := serialization.WriteElements(w, &ti.PreviousOutpoint.TxID, ti.PreviousOutpoint.Index)
	if err != nil {
		return err
	}
	err = serialization.WriteVarBytes(w, ti.SignatureScript)
	if err != nil {
		return err
	}
	return serialization.WriteElement(w, ti.Sequence)
}

// WriteTxOut encodes to into w in the layout of a transaction of the given
// version.
func WriteTxOut(w io.Writer, txVersion int32, to *TxOut) error {
	return writeTxOut(w, txVersion, to)
}

func writeTxOut(w io.Writer, txVersion int32, to *TxOut) error {
	err := serialization.WriteElement(w, to.Value)
	if err != nil {
		return err
	}
	err = serialization.WriteVarBytes(w, to.ScriptPubKey)
	if err != nil {
		return err
	}
	if txVersion >= TokenAwareTxVersion {
		return serialization.WriteVarInt(w, uint64(to.TokenID))
	}
	return nil
}

func writeTxWitness(w io.Writer, witness TxWitness) error {
	err := serialization.WriteVarInt(w, uint64(len(witness)))
	if err != nil {
		return err
	}
	for _, item := range witness {
		err = serialization.WriteVarBytes(w, item)
		if err != nil {
			return err
		}
	}
	return nil
}

// DeserializeBytes decodes a transaction serialized by Serialize or
// SerializeNoWitness. The whole input must be consumed.
//
// A serialization without inputs starts with the same 0x00 byte as the
// witness marker, so the witness layout is only accepted when it carries
// witness data and consumes every byte; otherwise the plain layout is used.
func DeserializeBytes(b []byte) (*MsgTx, error) {
	if len(b) > 5 && b[4] == witnessMarker && b[5] == witnessFlag {
		msg, err := decode(b, true)
		if err == nil && msg.HasWitness() {
			return msg, nil
		}
	}
	return decode(b, false)
}

// Deserialize decodes a transaction from everything remaining in r.
func (msg *MsgTx) Deserialize(r io.Reader) error {
	b, err := io.ReadAll(r)
	if err != nil {
		return errors.WithStack(err)
	}
	decoded, err := DeserializeBytes(b)
	if err != nil {
		return err
	}
	*msg = *decoded
	return nil
}

func decode(b []byte, withWitness bool) (*MsgTx, error) {
	r := bytes.NewReader(b)
	msg, err := readMsgTx(r, withWitness)
	if err != nil {
		return nil, errors.Wrap(ErrMalformedTransaction, err.Error())
	}
	if r.Len() != 0 {
		return nil, errors.Wrapf(ErrMalformedTransaction, "%d trailing bytes", r.Len())
	}
	return msg, nil
}

func readMsgTx(r io.Reader, withWitness bool) (*MsgTx, error) {
	msg := &MsgTx{}
	err := serialization.ReadElement(r, &msg.Version)
	if err != nil {
		return nil, err
	}

	if withWitness {
		var marker, flag byte
		err = serialization.ReadElements(r, &marker, &flag)
		if err != nil {
			return nil, err
		}
	}

	inputCount, err := serialization.ReadVarInt(r)
	if err != nil {
		return nil, err
	}
	if inputCount > maxTxInPerMessage {
		return nil, errors.Errorf("too many input transactions to fit into "+
			"max message size [count %d, max %d]", inputCount, maxTxInPerMessage)
	}
	msg.TxIn = make([]*TxIn, inputCount)
	for i := range msg.TxIn {
		msg.TxIn[i], err = readTxIn(r)
		if err != nil {
			return nil, err
		}
	}

	outputCount, err := serialization.ReadVarInt(r)
	if err != nil {
		return nil, err
	}
	if outputCount > maxTxOutPerMessage {
		return nil, errors.Errorf("too many output transactions to fit into "+
			"max message size [count %d, max %d]", outputCount, maxTxOutPerMessage)
	}
	msg.TxOut = make([]*TxOut, outputCount)
	for i := range msg.TxOut {
		msg.TxOut[i], err = readTxOut(r, msg.Version)
		if err != nil {
			return nil, err
		}
	}

	if withWitness {
		for _, ti := range msg.TxIn {
			ti.Witness, err = readTxWitness(r)
			if err != nil {
				return nil, err
			}
		}
	}

	err = serialization.ReadElement(r, &msg.LockTime)
	if err != nil {
		return nil, err
	}
	return msg, nil
}

func readTxIn(r io.Reader) (*TxIn, error) {
	ti := &TxIn{}
	err := serialization.ReadElements(r, &ti.PreviousOutpoint.TxID, &ti.PreviousOutpoint.Index)
	if err != nil {
		return nil, err
	}
	ti.SignatureScript, err = serialization.ReadVarBytes(r, serialization.MaxMessagePayload,
		"transaction input signature script")
	if err != nil {
		return nil, err
	}
	err = serialization.ReadElement(r, &ti.Sequence)
	if err != nil {
		return nil, err
	}
	return ti, nil
}

func readTxOut(r io.Reader, txVersion int32) (*TxOut, error) {
	to := &TxOut{}
	err := serialization.ReadElement(r, &to.Value)
	if err != nil {
		return nil, err
	}
	to.ScriptPubKey, err = serialization.ReadVarBytes(r, serialization.MaxMessagePayload,
		"transaction output public key script")
	if err != nil {
		return nil, err
	}
	if txVersion >= TokenAwareTxVersion {
		tokenID, err := serialization.ReadVarInt(r)
		if err != nil {
			return nil, err
		}
		if tokenID > math.MaxUint32 {
			return nil, errors.Errorf("token id %d is out of range", tokenID)
		}
		to.TokenID = uint32(tokenID)
	}
	return to, nil
}

func readTxWitness(r io.Reader) (TxWitness, error) {
	itemCount, err := serialization.ReadVarInt(r)
	if err != nil {
		return nil, err
	}
	if itemCount > maxWitnessItemsPerInput {
		return nil, errors.Errorf("too many witness items [count %d, max %d]",
			itemCount, maxWitnessItemsPerInput)
	}
	if itemCount == 0 {
		return nil, nil
	}
	witness := make(TxWitness, itemCount)
	for i := range witness {
		witness[i], err = serialization.ReadVarBytes(r, maxWitnessItemSize, "witness item")
		if err != nil {
			return nil, err
		}
		if witness[i] == nil {
			witness[i] = []byte{}
		}
	}
	return witness, nil
}

// SerializeSize returns the number of bytes it would take to serialize the
// transaction, witness data included.
func (msg *MsgTx) SerializeSize() int {
	n := msg.SerializeSizeStripped()
	if msg.HasWitness() {
		// The marker and flag fields take up two additional bytes.
		n += 2
		for _, txIn := range msg.TxIn {
			n += txIn.Witness.SerializeSize()
		}
	}
	return n
}

// SerializeSizeStripped returns the number of bytes it would take to
// serialize the transaction without witness data.
func (msg *MsgTx) SerializeSizeStripped() int {
	// Version 4 bytes + LockTime 4 bytes + serialized varint size for the
	// number of transaction inputs and outputs.
	n := 8 + serialization.VarIntSerializeSize(uint64(len(msg.TxIn))) +
		serialization.VarIntSerializeSize(uint64(len(msg.TxOut)))

	for _, txIn := range msg.TxIn {
		n += txIn.serializeSize()
	}
	for _, txOut := range msg.TxOut {
		n += txOut.SerializeSize(msg.Version)
	}
	return n
}

// Weight returns the transaction weight: stripped bytes count four times,
// witness bytes once.
func (msg *MsgTx) Weight() int {
	stripped := msg.SerializeSizeStripped()
	return stripped*(witnessScaleFactor-1) + msg.SerializeSize()
}

// VirtualSize returns the weight divided by four, rounded up.
func (msg *MsgTx) VirtualSize() int {
	return (msg.Weight() + witnessScaleFactor - 1) / witnessScaleFactor
}
