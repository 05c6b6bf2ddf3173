package txscript

import (
	"encoding/binary"
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/pkg/errors"
)

// These constants are the values of the opcodes the ledger's standard
// scripts are made of.
const (
	OP_0           = 0x00 // 0
	OP_FALSE       = 0x00 // 0 - AKA OP_0
	OP_DATA_1      = 0x01 // 1
	OP_DATA_20     = 0x14 // 20
	OP_DATA_32     = 0x20 // 32
	OP_DATA_33     = 0x21 // 33
	OP_DATA_75     = 0x4b // 75
	OP_PUSHDATA1   = 0x4c // 76
	OP_PUSHDATA2   = 0x4d // 77
	OP_PUSHDATA4   = 0x4e // 78
	OP_1NEGATE     = 0x4f // 79
	OP_1           = 0x51 // 81 - AKA OP_TRUE
	OP_TRUE        = 0x51 // 81
	OP_16          = 0x60 // 96
	OP_NOP         = 0x61 // 97
	OP_RETURN      = 0x6a // 106
	OP_DUP         = 0x76 // 118
	OP_EQUAL       = 0x87 // 135
	OP_EQUALVERIFY = 0x88 // 136
	OP_HASH160     = 0xa9 // 169
	OP_CHECKSIG    = 0xac // 172
)

var opcodeNames = map[byte]string{
	OP_0:           "OP_0",
	OP_PUSHDATA1:   "OP_PUSHDATA1",
	OP_PUSHDATA2:   "OP_PUSHDATA2",
	OP_PUSHDATA4:   "OP_PUSHDATA4",
	OP_1NEGATE:     "OP_1NEGATE",
	OP_NOP:         "OP_NOP",
	OP_RETURN:      "OP_RETURN",
	OP_DUP:         "OP_DUP",
	OP_EQUAL:       "OP_EQUAL",
	OP_EQUALVERIFY: "OP_EQUALVERIFY",
	OP_HASH160:     "OP_HASH160",
	OP_CHECKSIG:    "OP_CHECKSIG",
}

// ErrMalformedScript indicates a script whose pushes run past its end.
var ErrMalformedScript = errors.New("malformed script")

// parsedOpcode is an opcode together with the data it pushes, if any.
type parsedOpcode struct {
	opcode byte
	data   []byte
}

func (pop *parsedOpcode) isPush() bool {
	return pop.opcode <= OP_16 && pop.opcode != 0x50
}

func (pop *parsedOpcode) String() string {
	if pop.opcode >= OP_DATA_1 && pop.opcode <= OP_PUSHDATA4 {
		return hex.EncodeToString(pop.data)
	}
	if pop.opcode >= OP_1 && pop.opcode <= OP_16 {
		return fmt.Sprintf("OP_%d", pop.opcode-(OP_1-1))
	}
	if name, ok := opcodeNames[pop.opcode]; ok {
		return name
	}
	return fmt.Sprintf("OP_UNKNOWN%d", pop.opcode)
}

// parseScript splits script into its opcodes and their push data.
func parseScript(script []byte) ([]parsedOpcode, error) {
	pops := make([]parsedOpcode, 0, len(script))
	for i := 0; i < len(script); {
		opcode := script[i]
		i++

		var dataLen int
		switch {
		case opcode >= OP_DATA_1 && opcode <= OP_DATA_75:
			dataLen = int(opcode)

		case opcode == OP_PUSHDATA1:
			if len(script)-i < 1 {
				return nil, errors.Wrapf(ErrMalformedScript, "OP_PUSHDATA1 at %d has no length", i-1)
			}
			dataLen = int(script[i])
			i++

		case opcode == OP_PUSHDATA2:
			if len(script)-i < 2 {
				return nil, errors.Wrapf(ErrMalformedScript, "OP_PUSHDATA2 at %d has no length", i-1)
			}
			dataLen = int(binary.LittleEndian.Uint16(script[i:]))
			i += 2

		case opcode == OP_PUSHDATA4:
			if len(script)-i < 4 {
				return nil, errors.Wrapf(ErrMalformedScript, "OP_PUSHDATA4 at %d has no length", i-1)
			}
			length := binary.LittleEndian.Uint32(script[i:])
			if uint64(length) > uint64(len(script)) {
				return nil, errors.Wrapf(ErrMalformedScript, "OP_PUSHDATA4 at %d pushes %d bytes", i-1, length)
			}
			dataLen = int(length)
			i += 4
		}

		if len(script)-i < dataLen {
			return nil, errors.Wrapf(ErrMalformedScript, "opcode at %d pushes %d bytes, %d remain",
				i-1, dataLen, len(script)-i)
		}
		pop := parsedOpcode{opcode: opcode}
		if dataLen > 0 {
			pop.data = script[i : i+dataLen]
		}
		i += dataLen
		pops = append(pops, pop)
	}
	return pops, nil
}

// DisasmString formats a script as space separated opcode names with push
// data in hex. A script that fails to parse is disassembled up to the
// failing opcode followed by "[error]".
func DisasmString(script []byte) string {
	pops, err := parseScript(script)
	if err != nil {
		return hex.EncodeToString(script) + " [error]"
	}
	parts := make([]string, len(pops))
	for i := range pops {
		parts[i] = pops[i].String()
	}
	return strings.Join(parts, " ")
}
