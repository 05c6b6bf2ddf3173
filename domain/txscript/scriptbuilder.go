package txscript

import (
	"encoding/binary"
	"math"

	"github.com/pkg/errors"
)

// ErrScriptNotCanonical identifies a push that could not be encoded.
var ErrScriptNotCanonical = errors.New("script is not canonical")

// ScriptBuilder provides a facility for building custom scripts. It allows
// you to push opcodes, ints, and data while respecting canonical encoding.
// Errors are latched: once an operation fails every later call is a no-op
// and Script returns the error.
//
// For example, the following would build a pay-to-pubkey-hash script:
//
//	builder := txscript.NewScriptBuilder()
//	builder.AddOp(txscript.OP_DUP).AddOp(txscript.OP_HASH160)
//	builder.AddData(pubKeyHash)
//	builder.AddOp(txscript.OP_EQUALVERIFY).AddOp(txscript.OP_CHECKSIG)
//	script, err := builder.Script()
type ScriptBuilder struct {
	script []byte
	err    error
}

// NewScriptBuilder returns a new instance of a script builder.
func NewScriptBuilder() *ScriptBuilder {
	return &ScriptBuilder{
		script: make([]byte, 0, 32),
	}
}

// AddOp pushes the passed opcode to the end of the script.
func (b *ScriptBuilder) AddOp(opcode byte) *ScriptBuilder {
	if b.err != nil {
		return b
	}
	b.script = append(b.script, opcode)
	return b
}

// AddOps pushes the passed opcodes to the end of the script.
func (b *ScriptBuilder) AddOps(opcodes []byte) *ScriptBuilder {
	if b.err != nil {
		return b
	}
	b.script = append(b.script, opcodes...)
	return b
}

// AddData pushes the passed data to the end of the script using the
// smallest push opcode able to carry it.
func (b *ScriptBuilder) AddData(data []byte) *ScriptBuilder {
	if b.err != nil {
		return b
	}
	if uint64(len(data)) > math.MaxUint32 {
		b.err = errors.Wrapf(ErrScriptNotCanonical, "data push of %d bytes is too large", len(data))
		return b
	}

	b.script = appendData(b.script, data)
	return b
}

func appendData(script, data []byte) []byte {
	dataLen := len(data)
	switch {
	case dataLen == 0 || dataLen == 1 && data[0] == 0:
		return append(script, OP_0)
	case dataLen == 1 && data[0] <= 16:
		return append(script, OP_1-1+data[0])
	case dataLen == 1 && data[0] == 0x81:
		return append(script, OP_1NEGATE)
	}

	if dataLen < OP_PUSHDATA1 {
		script = append(script, byte(OP_DATA_1-1+dataLen))
	} else if dataLen <= 0xff {
		script = append(script, OP_PUSHDATA1, byte(dataLen))
	} else if dataLen <= 0xffff {
		buf := make([]byte, 2)
		binary.LittleEndian.PutUint16(buf, uint16(dataLen))
		script = append(script, OP_PUSHDATA2)
		script = append(script, buf...)
	} else {
		buf := make([]byte, 4)
		binary.LittleEndian.PutUint32(buf, uint32(dataLen))
		script = append(script, OP_PUSHDATA4)
		script = append(script, buf...)
	}

	return append(script, data...)
}

// AddInt64 pushes the passed integer to the end of the script.
func (b *ScriptBuilder) AddInt64(val int64) *ScriptBuilder {
	if b.err != nil {
		return b
	}

	// Fast path for small integers and OP_1NEGATE.
	if val == 0 {
		b.script = append(b.script, OP_0)
		return b
	}
	if val == -1 || (val >= 1 && val <= 16) {
		b.script = append(b.script, byte((OP_1-1)+val))
		return b
	}

	return b.AddData(scriptNumBytes(val))
}

// scriptNumBytes returns the minimal little endian sign-magnitude encoding
// of n used by numeric pushes.
func scriptNumBytes(n int64) []byte {
	if n == 0 {
		return nil
	}

	isNegative := n < 0
	magnitude := uint64(n)
	if isNegative {
		magnitude = uint64(-n)
	}

	result := make([]byte, 0, 9)
	for magnitude > 0 {
		result = append(result, byte(magnitude&0xff))
		magnitude >>= 8
	}

	// When the most significant byte already has the high bit set, an
	// additional high byte is required to indicate whether the number is
	// negative or positive.
	if result[len(result)-1]&0x80 != 0 {
		extraByte := byte(0x00)
		if isNegative {
			extraByte = 0x80
		}
		result = append(result, extraByte)
	} else if isNegative {
		result[len(result)-1] |= 0x80
	}

	return result
}

// Reset resets the script so it has no content.
func (b *ScriptBuilder) Reset() *ScriptBuilder {
	b.script = b.script[0:0]
	b.err = nil
	return b
}

// Script returns the currently built script. When any errors occurred while
// building the script, the script will be returned up the point of the first
// error along with the error.
func (b *ScriptBuilder) Script() ([]byte, error) {
	return b.script, b.err
}
