package txscript

import (
	"bytes"
	"encoding/hex"
	"testing"

	"github.com/dfinet/dfitx/domain/dfiparams"
	"github.com/dfinet/dfitx/domain/dftx"
	"github.com/dfinet/dfitx/util"
	"github.com/pkg/errors"
)

func TestPayToWitnessPubKeyHashScript(t *testing.T) {
	hash := bytes.Repeat([]byte{0x5c}, 20)
	script, err := PayToWitnessPubKeyHashScript(hash)
	if err != nil {
		t.Fatalf("PayToWitnessPubKeyHashScript: %v", err)
	}
	expected := append([]byte{0x00, 0x14}, hash...)
	if !bytes.Equal(script, expected) {
		t.Fatalf("PayToWitnessPubKeyHashScript: got %x, want %x", script, expected)
	}
	if GetScriptClass(script) != WitnessV0PubKeyHashTy {
		t.Errorf("GetScriptClass: got %s", GetScriptClass(script))
	}
	if !bytes.Equal(ExtractWitnessPubKeyHash(script), hash) {
		t.Errorf("ExtractWitnessPubKeyHash: got %x", ExtractWitnessPubKeyHash(script))
	}

	if _, err := PayToWitnessPubKeyHashScript(hash[:19]); err == nil {
		t.Errorf("PayToWitnessPubKeyHashScript: expected error for a 19-byte hash")
	}
}

func TestStandardScripts(t *testing.T) {
	hash := bytes.Repeat([]byte{0x01}, 20)
	pubKeyHashScript, _ := PayToPubKeyHashScript(hash)
	scriptHashScript, _ := PayToScriptHashScript(hash)
	nullData, _ := NullDataScript([]byte("hello"))

	tests := []struct {
		name   string
		script []byte
		hex    string
		class  ScriptClass
		disasm string
	}{
		{
			name:   "pay to pubkey hash",
			script: pubKeyHashScript,
			hex:    "76a914" + hex.EncodeToString(hash) + "88ac",
			class:  PubKeyHashTy,
			disasm: "OP_DUP OP_HASH160 " + hex.EncodeToString(hash) + " OP_EQUALVERIFY OP_CHECKSIG",
		},
		{
			name:   "pay to script hash",
			script: scriptHashScript,
			hex:    "a914" + hex.EncodeToString(hash) + "87",
			class:  ScriptHashTy,
			disasm: "OP_HASH160 " + hex.EncodeToString(hash) + " OP_EQUAL",
		},
		{
			name:   "null data",
			script: nullData,
			hex:    "6a0568656c6c6f",
			class:  NullDataTy,
			disasm: "OP_RETURN 68656c6c6f",
		},
		{
			name:   "non standard",
			script: []byte{OP_1, OP_DUP},
			hex:    "5176",
			class:  NonStandardTy,
			disasm: "OP_1 OP_DUP",
		},
	}

	for _, test := range tests {
		if hex.EncodeToString(test.script) != test.hex {
			t.Errorf("%s: got script %x, want %s", test.name, test.script, test.hex)
		}
		if class := GetScriptClass(test.script); class != test.class {
			t.Errorf("%s: got class %s, want %s", test.name, class, test.class)
		}
		if disasm := DisasmString(test.script); disasm != test.disasm {
			t.Errorf("%s: got disasm %q, want %q", test.name, disasm, test.disasm)
		}
	}
}

func TestPayToAddrScript(t *testing.T) {
	hash := bytes.Repeat([]byte{0x07}, 20)
	params := &dfiparams.TestnetParams

	witness, _ := util.NewAddressWitnessPubKeyHash(hash, params)
	pubKeyHash, _ := util.NewAddressPubKeyHash(hash, params)
	scriptHash, _ := util.NewAddressScriptHashFromHash(hash, params)

	for _, addr := range []util.Address{witness, pubKeyHash, scriptHash} {
		script, err := PayToAddrScript(addr)
		if err != nil {
			t.Fatalf("PayToAddrScript(%s): %v", addr, err)
		}
		_, extracted, err := ExtractScriptAddress(script, params)
		if err != nil {
			t.Fatalf("ExtractScriptAddress(%x): %v", script, err)
		}
		if extracted.EncodeAddress() != addr.EncodeAddress() {
			t.Errorf("ExtractScriptAddress: got %s, want %s", extracted, addr)
		}
	}

	var nilAddr *util.AddressWitnessPubKeyHash
	if _, err := PayToAddrScript(nilAddr); !errors.Is(err, ErrUnsupportedAddress) {
		t.Errorf("PayToAddrScript(nil): expected ErrUnsupportedAddress, got %v", err)
	}
}

func TestScriptBuilderAddData(t *testing.T) {
	tests := []struct {
		name     string
		data     []byte
		expected []byte
	}{
		{name: "empty", data: nil, expected: []byte{OP_0}},
		{name: "small int", data: []byte{0x05}, expected: []byte{0x55}},
		{name: "negative one", data: []byte{0x81}, expected: []byte{OP_1NEGATE}},
		{name: "one byte", data: []byte{0x20}, expected: []byte{0x01, 0x20}},
		{name: "75 bytes", data: bytes.Repeat([]byte{0x49}, 75),
			expected: append([]byte{OP_DATA_75}, bytes.Repeat([]byte{0x49}, 75)...)},
		{name: "76 bytes", data: bytes.Repeat([]byte{0x49}, 76),
			expected: append([]byte{OP_PUSHDATA1, 76}, bytes.Repeat([]byte{0x49}, 76)...)},
		{name: "256 bytes", data: bytes.Repeat([]byte{0x49}, 256),
			expected: append([]byte{OP_PUSHDATA2, 0x00, 0x01}, bytes.Repeat([]byte{0x49}, 256)...)},
		{name: "65536 bytes", data: bytes.Repeat([]byte{0x49}, 65536),
			expected: append([]byte{OP_PUSHDATA4, 0x00, 0x00, 0x01, 0x00}, bytes.Repeat([]byte{0x49}, 65536)...)},
	}

	builder := NewScriptBuilder()
	for _, test := range tests {
		script, err := builder.Reset().AddData(test.data).Script()
		if err != nil {
			t.Errorf("%s: unexpected error: %v", test.name, err)
			continue
		}
		if !bytes.Equal(script, test.expected) {
			t.Errorf("%s: got %x, want %x", test.name, script, test.expected)
			continue
		}
		pops, err := parseScript(script)
		if err != nil || len(pops) != 1 {
			t.Errorf("%s: parseScript: %v, %d opcodes", test.name, err, len(pops))
		}
	}
}

func TestScriptBuilderAddInt64(t *testing.T) {
	tests := []struct {
		val      int64
		expected []byte
	}{
		{0, []byte{OP_0}},
		{-1, []byte{OP_1NEGATE}},
		{1, []byte{OP_1}},
		{16, []byte{OP_16}},
		{17, []byte{0x01, 0x11}},
		{127, []byte{0x01, 0x7f}},
		{128, []byte{0x02, 0x80, 0x00}},
		{-128, []byte{0x02, 0x80, 0x80}},
		{256, []byte{0x02, 0x00, 0x01}},
		{-2, []byte{0x01, 0x82}},
	}

	for _, test := range tests {
		script, err := NewScriptBuilder().AddInt64(test.val).Script()
		if err != nil {
			t.Errorf("AddInt64(%d): unexpected error: %v", test.val, err)
			continue
		}
		if !bytes.Equal(script, test.expected) {
			t.Errorf("AddInt64(%d): got %x, want %x", test.val, script, test.expected)
		}
	}
}

func TestParseScriptMalformed(t *testing.T) {
	scripts := [][]byte{
		{OP_DATA_20, 0x01},
		{OP_PUSHDATA1},
		{OP_PUSHDATA2, 0x01},
		{OP_PUSHDATA4, 0xff, 0xff, 0xff, 0xff},
	}
	for _, script := range scripts {
		if _, err := parseScript(script); !errors.Is(err, ErrMalformedScript) {
			t.Errorf("parseScript(%x): expected ErrMalformedScript, got %v", script, err)
		}
		if GetScriptClass(append([]byte{OP_RETURN}, script...)) != NonStandardTy {
			t.Errorf("GetScriptClass(%x): malformed null data should be non standard", script)
		}
	}
}

func TestEmbedInstruction(t *testing.T) {
	instruction := &dftx.UtxosToAccount{
		To: []dftx.ScriptBalances{{
			Script:   bytes.Repeat([]byte{0x0a}, 22),
			Balances: []dftx.TokenAmount{{Token: 0, Amount: 100000000}},
		}},
	}

	script, err := EmbedInstruction(instruction)
	if err != nil {
		t.Fatalf("EmbedInstruction: %v", err)
	}
	if script[0] != OP_RETURN {
		t.Fatalf("EmbedInstruction: script does not start with OP_RETURN: %x", script)
	}
	if GetScriptClass(script) != NullDataTy {
		t.Errorf("GetScriptClass: got %s", GetScriptClass(script))
	}

	payload, err := dftx.EncodeWithMagic(instruction)
	if err != nil {
		t.Fatalf("EncodeWithMagic: %v", err)
	}
	expected := append([]byte{OP_RETURN, byte(len(payload))}, payload...)
	if !bytes.Equal(script, expected) {
		t.Errorf("EmbedInstruction: got %x, want %x", script, expected)
	}

	extracted, err := ExtractInstruction(script)
	if err != nil {
		t.Fatalf("ExtractInstruction: %v", err)
	}
	decoded, ok := extracted.(*dftx.UtxosToAccount)
	if !ok {
		t.Fatalf("ExtractInstruction: got %T", extracted)
	}
	if len(decoded.To) != 1 || decoded.To[0].Balances[0].Amount != 100000000 {
		t.Errorf("ExtractInstruction: got %+v", decoded)
	}

	notInstruction, _ := NullDataScript([]byte("hello"))
	if _, err := ExtractInstruction(notInstruction); !errors.Is(err, ErrNotInstructionScript) {
		t.Errorf("ExtractInstruction: expected ErrNotInstructionScript, got %v", err)
	}
	witnessScript, _ := PayToWitnessPubKeyHashScript(bytes.Repeat([]byte{0x01}, 20))
	if _, err := ExtractInstruction(witnessScript); !errors.Is(err, ErrNotInstructionScript) {
		t.Errorf("ExtractInstruction: expected ErrNotInstructionScript, got %v", err)
	}
}

func TestSerializeScript(t *testing.T) {
	script := bytes.Repeat([]byte{0x51}, 300)
	serialized := SerializeScript(script)
	if !bytes.Equal(serialized[:3], []byte{0xfd, 0x2c, 0x01}) {
		t.Errorf("SerializeScript: got prefix %x", serialized[:3])
	}
	if !bytes.Equal(serialized[3:], script) {
		t.Errorf("SerializeScript: script bytes changed")
	}

	short := SerializeScript([]byte{0x00, 0x14})
	if !bytes.Equal(short, []byte{0x02, 0x00, 0x14}) {
		t.Errorf("SerializeScript: got %x", short)
	}
}
