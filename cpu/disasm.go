package cpu

import (
	"fmt"
)

// Disassemble decodes the instruction at addr. Bytes that are not a legal
// opcode are rendered as a one byte .BYTE directive.
func Disassemble(read func(addr uint16) byte, addr uint16) (text string, length int) {
	inst, ok := Decode(read(addr))
	if !ok {
		return fmt.Sprintf(".BYTE $%02X", read(addr)), 1
	}

	length = inst.Length
	lo := read(addr + 1)
	word := uint16(read(addr+2))<<8 | uint16(lo)

	var operand string
	switch inst.Mode {
	case MODE_IMPLIED:
	case MODE_ACCUMULATOR:
		operand = "A"
	case MODE_IMMEDIATE:
		operand = fmt.Sprintf("#$%02X", lo)
	case MODE_ZERO_PAGE:
		operand = fmt.Sprintf("$%02X", lo)
	case MODE_ZERO_PAGE_X:
		operand = fmt.Sprintf("$%02X,X", lo)
	case MODE_ZERO_PAGE_Y:
		operand = fmt.Sprintf("$%02X,Y", lo)
	case MODE_ABSOLUTE:
		operand = fmt.Sprintf("$%04X", word)
	case MODE_ABSOLUTE_X:
		operand = fmt.Sprintf("$%04X,X", word)
	case MODE_ABSOLUTE_Y:
		operand = fmt.Sprintf("$%04X,Y", word)
	case MODE_INDIRECT:
		operand = fmt.Sprintf("($%04X)", word)
	case MODE_INDEXED_INDIRECT:
		operand = fmt.Sprintf("($%02X,X)", lo)
	case MODE_INDIRECT_INDEXED:
		operand = fmt.Sprintf("($%02X),Y", lo)
	case MODE_RELATIVE:
		target := addr + 2 + uint16(int8(lo))
		operand = fmt.Sprintf("$%04X", target)
	}

	text = inst.Mnemonic.String()
	if len(operand) > 0 {
		text += " " + operand
	}

	return
}
