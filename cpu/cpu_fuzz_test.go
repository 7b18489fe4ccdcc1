package cpu

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func FuzzCpu(f *testing.F) {
	for opcode := range 0x100 {
		f.Add(byte(opcode), byte(0x10), byte(0x20), byte(0x00), byte(0x24), byte(0x80))
		f.Add(byte(opcode), byte(0xFF), byte(0xFF), byte(0xFF), byte(0xFF), byte(0x00))
	}

	f.Fuzz(func(t *testing.T, opcode byte, lo byte, hi byte, reg byte, p byte, sp byte) {
		assert := assert.New(t)

		const start = uint16(0x0400)

		mem := &Memory{}
		for n := range mem {
			mem[n] = byte(n*7 + int(reg))
		}
		mem[start] = opcode
		mem[start+1] = lo
		mem[start+2] = hi
		mem.SetWord(RESET_VECTOR, start)

		var output []rune
		cpu := NewCpu(mem, func(ch rune) { output = append(output, ch) })
		cpu.A, cpu.X, cpu.Y = reg, reg^0x5A, reg^0xA5
		cpu.P = p
		cpu.SP = sp

		before := cpu.Registers()
		cpu.Step()
		after := cpu.Registers()

		state := cpu.String()

		assert.Equal(1, cpu.Ticks, state)

		inst, ok := Decode(opcode)
		if !ok {
			assert.False(Handles(opcode))
			before.PC = start + 1
			assert.Equal(before, after, state)
			return
		}

		switch inst.Mnemonic {
		case OP_JMP, OP_JSR, OP_RTS, OP_RTI, OP_BRK:
		default:
			if inst.Mode == MODE_RELATIVE {
				taken := start + 2 + uint16(int8(lo))
				assert.Contains([]uint16{start + 2, taken}, after.PC, state)
			} else {
				assert.Equal(start+uint16(inst.Length), after.PC, state)
			}
		}

		switch inst.Mnemonic {
		case OP_PLP, OP_RTI:
			assert.NotZero(after.P&UNUSED_FLAG, state)
			assert.Zero(after.P&BREAK_FLAG, state)
		case OP_PHA, OP_PHP:
			assert.Equal(before.SP-1, after.SP, state)
		case OP_PLA:
			assert.Equal(before.SP+1, after.SP, state)
		case OP_JSR:
			assert.Equal(before.SP-2, after.SP, state)
			assert.Equal(uint16(hi)<<8|uint16(lo), after.PC, state)
		case OP_BRK:
			assert.Equal(before.SP-3, after.SP, state)
			assert.NotZero(after.P&INTERRUPT_FLAG, state)
			assert.Equal(mem.Word(IRQ_VECTOR), after.PC, state)
		case OP_STA, OP_STX, OP_STY, OP_INC, OP_DEC, OP_ASL, OP_LSR, OP_ROL, OP_ROR:
			assert.LessOrEqual(len(output), 1, state)
		default:
			assert.Empty(output, state)
		}
	})
}
