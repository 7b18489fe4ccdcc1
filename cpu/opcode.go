package cpu

import (
	"fmt"
	"iter"
	"slices"
	"strings"
)

// Mode is an addressing mode.
type Mode int

const (
	MODE_IMPLIED          = Mode(0)  // imp
	MODE_ACCUMULATOR      = Mode(1)  // acc
	MODE_IMMEDIATE        = Mode(2)  // imm
	MODE_ZERO_PAGE        = Mode(3)  // zp
	MODE_ZERO_PAGE_X      = Mode(4)  // zpx
	MODE_ZERO_PAGE_Y      = Mode(5)  // zpy
	MODE_ABSOLUTE         = Mode(6)  // abs
	MODE_ABSOLUTE_X       = Mode(7)  // absx
	MODE_ABSOLUTE_Y       = Mode(8)  // absy
	MODE_INDIRECT         = Mode(9)  // ind
	MODE_INDEXED_INDIRECT = Mode(10) // indx
	MODE_INDIRECT_INDEXED = Mode(11) // indy
	MODE_RELATIVE         = Mode(12) // rel
	MODE_COUNT            = 13
)

var modeName = [MODE_COUNT]string{
	"imp", "acc", "imm", "zp", "zpx", "zpy", "abs", "absx", "absy",
	"ind", "indx", "indy", "rel",
}

func (mode Mode) String() string {
	if mode < 0 || int(mode) >= len(modeName) {
		return fmt.Sprintf("Mode(%d)", int(mode))
	}
	return modeName[mode]
}

// Length returns the total instruction length, opcode included.
func (mode Mode) Length() int {
	switch mode {
	case MODE_IMPLIED, MODE_ACCUMULATOR:
		return 1
	case MODE_ABSOLUTE, MODE_ABSOLUTE_X, MODE_ABSOLUTE_Y, MODE_INDIRECT:
		return 3
	default:
		return 2
	}
}

// Mnemonic is an instruction name.
type Mnemonic int

const (
	OP_ADC = Mnemonic(iota)
	OP_AND
	OP_ASL
	OP_BCC
	OP_BCS
	OP_BEQ
	OP_BIT
	OP_BMI
	OP_BNE
	OP_BPL
	OP_BRK
	OP_BVC
	OP_BVS
	OP_CLC
	OP_CLD
	OP_CLI
	OP_CLV
	OP_CMP
	OP_CPX
	OP_CPY
	OP_DEC
	OP_DEX
	OP_DEY
	OP_EOR
	OP_INC
	OP_INX
	OP_INY
	OP_JMP
	OP_JSR
	OP_LDA
	OP_LDX
	OP_LDY
	OP_LSR
	OP_NOP
	OP_ORA
	OP_PHA
	OP_PHP
	OP_PLA
	OP_PLP
	OP_ROL
	OP_ROR
	OP_RTI
	OP_RTS
	OP_SBC
	OP_SEC
	OP_SED
	OP_SEI
	OP_STA
	OP_STX
	OP_STY
	OP_TAX
	OP_TAY
	OP_TSX
	OP_TXA
	OP_TXS
	OP_TYA
	OP_COUNT
)

var mnemonicName = [OP_COUNT]string{
	"ADC", "AND", "ASL", "BCC", "BCS", "BEQ", "BIT", "BMI", "BNE", "BPL",
	"BRK", "BVC", "BVS", "CLC", "CLD", "CLI", "CLV", "CMP", "CPX", "CPY",
	"DEC", "DEX", "DEY", "EOR", "INC", "INX", "INY", "JMP", "JSR", "LDA",
	"LDX", "LDY", "LSR", "NOP", "ORA", "PHA", "PHP", "PLA", "PLP", "ROL",
	"ROR", "RTI", "RTS", "SBC", "SEC", "SED", "SEI", "STA", "STX", "STY",
	"TAX", "TAY", "TSX", "TXA", "TXS", "TYA",
}

func (m Mnemonic) String() string {
	if m < 0 || m >= OP_COUNT {
		return fmt.Sprintf("Mnemonic(%d)", int(m))
	}
	return mnemonicName[m]
}

// ParseMnemonic looks up a mnemonic by name, ignoring case.
func ParseMnemonic(name string) (m Mnemonic, ok bool) {
	index := slices.Index(mnemonicName[:], strings.ToUpper(name))
	if index < 0 {
		return
	}
	return Mnemonic(index), true
}

// Instruction is one legal (mnemonic, addressing mode) encoding.
type Instruction struct {
	Mnemonic Mnemonic
	Mode     Mode
	Opcode   byte
	Length   int
}

func (inst Instruction) String() string {
	return fmt.Sprintf("%v.%v $%02X/%d", inst.Mnemonic, inst.Mode, inst.Opcode, inst.Length)
}

// instructionTable is the single source of truth for both the assembler
// and the CPU decoder. Lengths are derived from the mode at init.
var instructionTable = []Instruction{
	{OP_ADC, MODE_IMMEDIATE, 0x69, 0},
	{OP_ADC, MODE_ZERO_PAGE, 0x65, 0},
	{OP_ADC, MODE_ZERO_PAGE_X, 0x75, 0},
	{OP_ADC, MODE_ABSOLUTE, 0x6D, 0},
	{OP_ADC, MODE_ABSOLUTE_X, 0x7D, 0},
	{OP_ADC, MODE_ABSOLUTE_Y, 0x79, 0},
	{OP_ADC, MODE_INDEXED_INDIRECT, 0x61, 0},
	{OP_ADC, MODE_INDIRECT_INDEXED, 0x71, 0},

	{OP_AND, MODE_IMMEDIATE, 0x29, 0},
	{OP_AND, MODE_ZERO_PAGE, 0x25, 0},
	{OP_AND, MODE_ZERO_PAGE_X, 0x35, 0},
	{OP_AND, MODE_ABSOLUTE, 0x2D, 0},
	{OP_AND, MODE_ABSOLUTE_X, 0x3D, 0},
	{OP_AND, MODE_ABSOLUTE_Y, 0x39, 0},
	{OP_AND, MODE_INDEXED_INDIRECT, 0x21, 0},
	{OP_AND, MODE_INDIRECT_INDEXED, 0x31, 0},

	{OP_ASL, MODE_ACCUMULATOR, 0x0A, 0},
	{OP_ASL, MODE_ZERO_PAGE, 0x06, 0},
	{OP_ASL, MODE_ZERO_PAGE_X, 0x16, 0},
	{OP_ASL, MODE_ABSOLUTE, 0x0E, 0},
	{OP_ASL, MODE_ABSOLUTE_X, 0x1E, 0},

	{OP_BCC, MODE_RELATIVE, 0x90, 0},
	{OP_BCS, MODE_RELATIVE, 0xB0, 0},
	{OP_BEQ, MODE_RELATIVE, 0xF0, 0},
	{OP_BMI, MODE_RELATIVE, 0x30, 0},
	{OP_BNE, MODE_RELATIVE, 0xD0, 0},
	{OP_BPL, MODE_RELATIVE, 0x10, 0},
	{OP_BVC, MODE_RELATIVE, 0x50, 0},
	{OP_BVS, MODE_RELATIVE, 0x70, 0},

	{OP_BIT, MODE_ZERO_PAGE, 0x24, 0},
	{OP_BIT, MODE_ABSOLUTE, 0x2C, 0},

	{OP_BRK, MODE_IMPLIED, 0x00, 0},

	{OP_CLC, MODE_IMPLIED, 0x18, 0},
	{OP_CLD, MODE_IMPLIED, 0xD8, 0},
	{OP_CLI, MODE_IMPLIED, 0x58, 0},
	{OP_CLV, MODE_IMPLIED, 0xB8, 0},

	{OP_CMP, MODE_IMMEDIATE, 0xC9, 0},
	{OP_CMP, MODE_ZERO_PAGE, 0xC5, 0},
	{OP_CMP, MODE_ZERO_PAGE_X, 0xD5, 0},
	{OP_CMP, MODE_ABSOLUTE, 0xCD, 0},
	{OP_CMP, MODE_ABSOLUTE_X, 0xDD, 0},
	{OP_CMP, MODE_ABSOLUTE_Y, 0xD9, 0},
	{OP_CMP, MODE_INDEXED_INDIRECT, 0xC1, 0},
	{OP_CMP, MODE_INDIRECT_INDEXED, 0xD1, 0},

	{OP_CPX, MODE_IMMEDIATE, 0xE0, 0},
	{OP_CPX, MODE_ZERO_PAGE, 0xE4, 0},
	{OP_CPX, MODE_ABSOLUTE, 0xEC, 0},

	{OP_CPY, MODE_IMMEDIATE, 0xC0, 0},
	{OP_CPY, MODE_ZERO_PAGE, 0xC4, 0},
	{OP_CPY, MODE_ABSOLUTE, 0xCC, 0},

	{OP_DEC, MODE_ZERO_PAGE, 0xC6, 0},
	{OP_DEC, MODE_ZERO_PAGE_X, 0xD6, 0},
	{OP_DEC, MODE_ABSOLUTE, 0xCE, 0},
	{OP_DEC, MODE_ABSOLUTE_X, 0xDE, 0},

	{OP_DEX, MODE_IMPLIED, 0xCA, 0},
	{OP_DEY, MODE_IMPLIED, 0x88, 0},

	{OP_EOR, MODE_IMMEDIATE, 0x49, 0},
	{OP_EOR, MODE_ZERO_PAGE, 0x45, 0},
	{OP_EOR, MODE_ZERO_PAGE_X, 0x55, 0},
	{OP_EOR, MODE_ABSOLUTE, 0x4D, 0},
	{OP_EOR, MODE_ABSOLUTE_X, 0x5D, 0},
	{OP_EOR, MODE_ABSOLUTE_Y, 0x59, 0},
	{OP_EOR, MODE_INDEXED_INDIRECT, 0x41, 0},
	{OP_EOR, MODE_INDIRECT_INDEXED, 0x51, 0},

	{OP_INC, MODE_ZERO_PAGE, 0xE6, 0},
	{OP_INC, MODE_ZERO_PAGE_X, 0xF6, 0},
	{OP_INC, MODE_ABSOLUTE, 0xEE, 0},
	{OP_INC, MODE_ABSOLUTE_X, 0xFE, 0},

	{OP_INX, MODE_IMPLIED, 0xE8, 0},
	{OP_INY, MODE_IMPLIED, 0xC8, 0},

	{OP_JMP, MODE_ABSOLUTE, 0x4C, 0},
	{OP_JMP, MODE_INDIRECT, 0x6C, 0},

	{OP_JSR, MODE_ABSOLUTE, 0x20, 0},

	{OP_LDA, MODE_IMMEDIATE, 0xA9, 0},
	{OP_LDA, MODE_ZERO_PAGE, 0xA5, 0},
	{OP_LDA, MODE_ZERO_PAGE_X, 0xB5, 0},
	{OP_LDA, MODE_ABSOLUTE, 0xAD, 0},
	{OP_LDA, MODE_ABSOLUTE_X, 0xBD, 0},
	{OP_LDA, MODE_ABSOLUTE_Y, 0xB9, 0},
	{OP_LDA, MODE_INDEXED_INDIRECT, 0xA1, 0},
	{OP_LDA, MODE_INDIRECT_INDEXED, 0xB1, 0},

	{OP_LDX, MODE_IMMEDIATE, 0xA2, 0},
	{OP_LDX, MODE_ZERO_PAGE, 0xA6, 0},
	{OP_LDX, MODE_ZERO_PAGE_Y, 0xB6, 0},
	{OP_LDX, MODE_ABSOLUTE, 0xAE, 0},
	{OP_LDX, MODE_ABSOLUTE_Y, 0xBE, 0},

	{OP_LDY, MODE_IMMEDIATE, 0xA0, 0},
	{OP_LDY, MODE_ZERO_PAGE, 0xA4, 0},
	{OP_LDY, MODE_ZERO_PAGE_X, 0xB4, 0},
	{OP_LDY, MODE_ABSOLUTE, 0xAC, 0},
	{OP_LDY, MODE_ABSOLUTE_X, 0xBC, 0},

	{OP_LSR, MODE_ACCUMULATOR, 0x4A, 0},
	{OP_LSR, MODE_ZERO_PAGE, 0x46, 0},
	{OP_LSR, MODE_ZERO_PAGE_X, 0x56, 0},
	{OP_LSR, MODE_ABSOLUTE, 0x4E, 0},
	{OP_LSR, MODE_ABSOLUTE_X, 0x5E, 0},

	{OP_NOP, MODE_IMPLIED, 0xEA, 0},

	{OP_ORA, MODE_IMMEDIATE, 0x09, 0},
	{OP_ORA, MODE_ZERO_PAGE, 0x05, 0},
	{OP_ORA, MODE_ZERO_PAGE_X, 0x15, 0},
	{OP_ORA, MODE_ABSOLUTE, 0x0D, 0},
	{OP_ORA, MODE_ABSOLUTE_X, 0x1D, 0},
	{OP_ORA, MODE_ABSOLUTE_Y, 0x19, 0},
	{OP_ORA, MODE_INDEXED_INDIRECT, 0x01, 0},
	{OP_ORA, MODE_INDIRECT_INDEXED, 0x11, 0},

	{OP_PHA, MODE_IMPLIED, 0x48, 0},
	{OP_PHP, MODE_IMPLIED, 0x08, 0},
	{OP_PLA, MODE_IMPLIED, 0x68, 0},
	{OP_PLP, MODE_IMPLIED, 0x28, 0},

	{OP_ROL, MODE_ACCUMULATOR, 0x2A, 0},
	{OP_ROL, MODE_ZERO_PAGE, 0x26, 0},
	{OP_ROL, MODE_ZERO_PAGE_X, 0x36, 0},
	{OP_ROL, MODE_ABSOLUTE, 0x2E, 0},
	{OP_ROL, MODE_ABSOLUTE_X, 0x3E, 0},

	{OP_ROR, MODE_ACCUMULATOR, 0x6A, 0},
	{OP_ROR, MODE_ZERO_PAGE, 0x66, 0},
	{OP_ROR, MODE_ZERO_PAGE_X, 0x76, 0},
	{OP_ROR, MODE_ABSOLUTE, 0x6E, 0},
	{OP_ROR, MODE_ABSOLUTE_X, 0x7E, 0},

	{OP_RTI, MODE_IMPLIED, 0x40, 0},
	{OP_RTS, MODE_IMPLIED, 0x60, 0},

	{OP_SBC, MODE_IMMEDIATE, 0xE9, 0},
	{OP_SBC, MODE_ZERO_PAGE, 0xE5, 0},
	{OP_SBC, MODE_ZERO_PAGE_X, 0xF5, 0},
	{OP_SBC, MODE_ABSOLUTE, 0xED, 0},
	{OP_SBC, MODE_ABSOLUTE_X, 0xFD, 0},
	{OP_SBC, MODE_ABSOLUTE_Y, 0xF9, 0},
	{OP_SBC, MODE_INDEXED_INDIRECT, 0xE1, 0},
	{OP_SBC, MODE_INDIRECT_INDEXED, 0xF1, 0},

	{OP_SEC, MODE_IMPLIED, 0x38, 0},
	{OP_SED, MODE_IMPLIED, 0xF8, 0},
	{OP_SEI, MODE_IMPLIED, 0x78, 0},

	{OP_STA, MODE_ZERO_PAGE, 0x85, 0},
	{OP_STA, MODE_ZERO_PAGE_X, 0x95, 0},
	{OP_STA, MODE_ABSOLUTE, 0x8D, 0},
	{OP_STA, MODE_ABSOLUTE_X, 0x9D, 0},
	{OP_STA, MODE_ABSOLUTE_Y, 0x99, 0},
	{OP_STA, MODE_INDEXED_INDIRECT, 0x81, 0},
	{OP_STA, MODE_INDIRECT_INDEXED, 0x91, 0},

	{OP_STX, MODE_ZERO_PAGE, 0x86, 0},
	{OP_STX, MODE_ZERO_PAGE_Y, 0x96, 0},
	{OP_STX, MODE_ABSOLUTE, 0x8E, 0},

	{OP_STY, MODE_ZERO_PAGE, 0x84, 0},
	{OP_STY, MODE_ZERO_PAGE_X, 0x94, 0},
	{OP_STY, MODE_ABSOLUTE, 0x8C, 0},

	{OP_TAX, MODE_IMPLIED, 0xAA, 0},
	{OP_TAY, MODE_IMPLIED, 0xA8, 0},
	{OP_TSX, MODE_IMPLIED, 0xBA, 0},
	{OP_TXA, MODE_IMPLIED, 0x8A, 0},
	{OP_TXS, MODE_IMPLIED, 0x9A, 0},
	{OP_TYA, MODE_IMPLIED, 0x98, 0},
}

type instructionKey struct {
	mnemonic Mnemonic
	mode     Mode
}

var (
	byEncoding = map[instructionKey]Instruction{}
	byOpcode   [256]*Instruction
)

func init() {
	for n := range instructionTable {
		inst := &instructionTable[n]
		inst.Length = inst.Mode.Length()

		key := instructionKey{inst.Mnemonic, inst.Mode}
		if _, dup := byEncoding[key]; dup {
			panic(fmt.Sprintf("duplicate encoding %v", inst))
		}
		if byOpcode[inst.Opcode] != nil {
			panic(fmt.Sprintf("duplicate opcode %v", inst))
		}
		byEncoding[key] = *inst
		byOpcode[inst.Opcode] = inst
	}
}

// Lookup returns the encoding of a mnemonic in an addressing mode.
func Lookup(m Mnemonic, mode Mode) (inst Instruction, ok bool) {
	inst, ok = byEncoding[instructionKey{m, mode}]
	return
}

// Decode returns the encoding for an opcode byte.
func Decode(opcode byte) (inst Instruction, ok bool) {
	ptr := byOpcode[opcode]
	if ptr == nil {
		return
	}
	return *ptr, true
}

// Instructions iterates over every legal encoding.
func Instructions() iter.Seq[Instruction] {
	return slices.Values(instructionTable)
}

// Modes returns the addressing modes a mnemonic supports.
func Modes(m Mnemonic) (modes []Mode) {
	for _, inst := range instructionTable {
		if inst.Mnemonic == m {
			modes = append(modes, inst.Mode)
		}
	}
	return
}

// Has reports whether a mnemonic supports an addressing mode.
func Has(m Mnemonic, mode Mode) bool {
	_, ok := byEncoding[instructionKey{m, mode}]
	return ok
}
