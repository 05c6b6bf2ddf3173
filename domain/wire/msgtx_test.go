package wire

import (
	"bytes"
	"reflect"
	"testing"

	"github.com/davecgh/go-spew/spew"
	"github.com/dfinet/dfitx/domain/hashes"
	"github.com/pkg/errors"
)

func sampleTx(version int32) *MsgTx {
	var prevTxID hashes.Hash
	for i := range prevTxID {
		prevTxID[i] = 0x11
	}
	tx := NewMsgTx(version)
	tx.AddTxIn(NewTxIn(NewOutpoint(&prevTxID, 1)))
	tx.AddTxOut(NewTxOut(1000, append([]byte{0x00, 0x14}, bytes.Repeat([]byte{0x22}, 20)...)))
	return tx
}

func sampleTxBytes(version byte, withTokenID bool) [][]byte {
	output := [][]byte{
		{0xe8, 0x03, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00}, // value 1000
		{0x16, 0x00, 0x14},
		bytes.Repeat([]byte{0x22}, 20),
	}
	if withTokenID {
		output = append(output, []byte{0x00})
	}
	return [][]byte{
		{version, 0x00, 0x00, 0x00},
		{0x01},
		bytes.Repeat([]byte{0x11}, 32),
		{0x01, 0x00, 0x00, 0x00}, // previous index
		{0x00},                   // empty signature script
		{0xff, 0xff, 0xff, 0xff}, // sequence
		{0x01},
		bytes.Join(output, nil),
	}
}

func TestTxSerialize(t *testing.T) {
	tx := sampleTx(4)
	expected := bytes.Join(append(sampleTxBytes(4, true), []byte{0x00, 0x00, 0x00, 0x00}), nil)
	if got := tx.Bytes(); !bytes.Equal(got, expected) {
		t.Fatalf("Serialize: got %x, want %x", got, expected)
	}
	if tx.SerializeSize() != len(expected) || tx.SerializeSizeStripped() != len(expected) {
		t.Errorf("SerializeSize: got %d/%d, want %d", tx.SerializeSize(),
			tx.SerializeSizeStripped(), len(expected))
	}
	if tx.VirtualSize() != len(expected) {
		t.Errorf("VirtualSize: got %d, want %d", tx.VirtualSize(), len(expected))
	}

	legacy := sampleTx(2)
	expectedLegacy := bytes.Join(append(sampleTxBytes(2, false), []byte{0x00, 0x00, 0x00, 0x00}), nil)
	if got := legacy.Bytes(); !bytes.Equal(got, expectedLegacy) {
		t.Fatalf("Serialize: got %x, want %x", got, expectedLegacy)
	}
}

func TestTxSerializeWitness(t *testing.T) {
	tx := sampleTx(4)
	tx.TxIn[0].Witness = TxWitness{{0xab, 0xcd}, {0xef}}

	parts := sampleTxBytes(4, true)
	withMarker := append([][]byte{parts[0], {witnessMarker, witnessFlag}}, parts[1:]...)
	expected := bytes.Join(append(withMarker,
		[]byte{0x02, 0x02, 0xab, 0xcd, 0x01, 0xef},
		[]byte{0x00, 0x00, 0x00, 0x00}), nil)

	if got := tx.Bytes(); !bytes.Equal(got, expected) {
		t.Fatalf("Serialize: got %x, want %x", got, expected)
	}
	if tx.SerializeSize() != len(expected) {
		t.Errorf("SerializeSize: got %d, want %d", tx.SerializeSize(), len(expected))
	}

	var stripped bytes.Buffer
	if err := tx.SerializeNoWitness(&stripped); err != nil {
		t.Fatalf("SerializeNoWitness: %v", err)
	}
	if stripped.Len() != tx.SerializeSizeStripped() {
		t.Errorf("SerializeSizeStripped: got %d, want %d", tx.SerializeSizeStripped(), stripped.Len())
	}

	expectedWeight := stripped.Len()*3 + len(expected)
	if tx.Weight() != expectedWeight {
		t.Errorf("Weight: got %d, want %d", tx.Weight(), expectedWeight)
	}
	if tx.VirtualSize() != (expectedWeight+3)/4 {
		t.Errorf("VirtualSize: got %d, want %d", tx.VirtualSize(), (expectedWeight+3)/4)
	}
}

func TestTxIDAndWitnessTxID(t *testing.T) {
	tx := sampleTx(4)
	unsignedID := tx.TxID()
	if unsignedID != tx.WitnessTxID() {
		t.Fatalf("WitnessTxID must equal TxID when there is no witness")
	}
	if unsignedID != hashes.DoubleHashH(tx.Bytes()) {
		t.Fatalf("TxID is not the double hash of the serialization")
	}

	tx.TxIn[0].Witness = TxWitness{{0x01, 0x02, 0x03}, {0x04}}
	if tx.TxID() != unsignedID {
		t.Errorf("TxID changed after adding a witness")
	}
	if tx.WitnessTxID() == tx.TxID() {
		t.Errorf("WitnessTxID must differ from TxID when there is a witness")
	}
	if tx.WitnessTxID() != hashes.DoubleHashH(tx.Bytes()) {
		t.Errorf("WitnessTxID is not the double hash of the full serialization")
	}
}

func TestTxRoundTrip(t *testing.T) {
	var otherTxID hashes.Hash
	otherTxID[0] = 0x99

	witnessed := sampleTx(4)
	witnessed.AddTxIn(NewTxIn(NewOutpoint(&otherTxID, 0)))
	witnessed.TxIn[0].Witness = TxWitness{bytes.Repeat([]byte{0x30}, 72), bytes.Repeat([]byte{0x02}, 33)}
	witnessed.TxIn[1].Witness = TxWitness{{0x01}}
	witnessed.TxOut[0].TokenID = 300
	witnessed.AddTxOut(&TxOut{Value: 0, ScriptPubKey: []byte{0x6a, 0x02, 0x44, 0x66}})
	witnessed.LockTime = 123456

	oneOutputNoInputs := NewMsgTx(4)
	oneOutputNoInputs.AddTxOut(NewTxOut(5, []byte{0x51}))

	tests := []struct {
		name string
		tx   *MsgTx
	}{
		{name: "unsigned", tx: sampleTx(4)},
		{name: "legacy version", tx: sampleTx(2)},
		{name: "witnessed", tx: witnessed},
		{name: "no inputs or outputs", tx: NewMsgTx(4)},
		{name: "no inputs, one output", tx: oneOutputNoInputs},
	}

	for _, test := range tests {
		serialized := test.tx.Bytes()
		decoded, err := DeserializeBytes(serialized)
		if err != nil {
			t.Errorf("%s: DeserializeBytes: %v", test.name, err)
			continue
		}
		if !reflect.DeepEqual(normalize(decoded), normalize(test.tx)) {
			t.Errorf("%s: round trip mismatch - got %v, want %v", test.name,
				spew.Sdump(decoded), spew.Sdump(test.tx))
		}
		if !bytes.Equal(decoded.Bytes(), serialized) {
			t.Errorf("%s: re-serialization differs", test.name)
		}

		var viaReader MsgTx
		if err := viaReader.Deserialize(bytes.NewReader(serialized)); err != nil {
			t.Errorf("%s: Deserialize: %v", test.name, err)
		}
	}
}

// normalize maps empty slices to nil so that decoded and constructed
// transactions compare equal.
func normalize(tx *MsgTx) *MsgTx {
	tx = tx.Copy()
	if len(tx.TxIn) == 0 {
		tx.TxIn = nil
	}
	if len(tx.TxOut) == 0 {
		tx.TxOut = nil
	}
	return tx
}

func TestTxDeserializeErrors(t *testing.T) {
	valid := sampleTx(4).Bytes()

	tests := []struct {
		name string
		buf  []byte
	}{
		{name: "empty", buf: nil},
		{name: "truncated version", buf: valid[:3]},
		{name: "truncated input", buf: valid[:20]},
		{name: "truncated lock time", buf: valid[:len(valid)-1]},
		{name: "trailing byte", buf: append(append([]byte{}, valid...), 0x00)},
		{name: "non-canonical input count", buf: append([]byte{0x04, 0x00, 0x00, 0x00, 0xfd, 0x01, 0x00},
			valid[5:]...)},
	}

	for _, test := range tests {
		_, err := DeserializeBytes(test.buf)
		if !errors.Is(err, ErrMalformedTransaction) {
			t.Errorf("%s: expected ErrMalformedTransaction, got %v", test.name, err)
		}
	}
}

func TestTxCopy(t *testing.T) {
	tx := sampleTx(4)
	tx.TxIn[0].Witness = TxWitness{{0x01}}
	tx.TxIn[0].SignatureScript = []byte{0x51}

	copied := tx.Copy()
	if !reflect.DeepEqual(copied, tx) {
		t.Fatalf("Copy: mismatched tx - got %v, want %v", spew.Sdump(copied), spew.Sdump(tx))
	}

	copied.TxIn[0].Witness[0][0] = 0x02
	copied.TxIn[0].SignatureScript[0] = 0x52
	copied.TxOut[0].ScriptPubKey[0] = 0x51
	if tx.TxIn[0].Witness[0][0] != 0x01 || tx.TxIn[0].SignatureScript[0] != 0x51 ||
		tx.TxOut[0].ScriptPubKey[0] != 0x00 {
		t.Fatalf("Copy: modifying the copy changed the original")
	}
}

func TestOutpointString(t *testing.T) {
	var txID hashes.Hash
	txID[0] = 0x01
	outpoint := NewOutpoint(&txID, 7)
	expected := txID.String() + ":7"
	if outpoint.String() != expected {
		t.Errorf("String: got %s, want %s", outpoint, expected)
	}
}
