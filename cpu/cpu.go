package cpu

import (
	"fmt"
	"log"
	"strings"
)

// Status register flags.
const (
	CARRY_FLAG     = byte(0x01) // Carry
	ZERO_FLAG      = byte(0x02) // Zero
	INTERRUPT_FLAG = byte(0x04) // Interrupt disable
	DECIMAL_FLAG   = byte(0x08) // Decimal mode, stored but never used
	BREAK_FLAG     = byte(0x10) // Break, only meaningful on the stack
	UNUSED_FLAG    = byte(0x20) // Always 1
	OVERFLOW_FLAG  = byte(0x40) // Overflow
	NEGATIVE_FLAG  = byte(0x80) // Negative
)

const STACK_RESET = 0xFD // SP after Reset().

// Registers is a snapshot of the CPU register set.
type Registers struct {
	A, X, Y byte
	SP      byte
	P       byte
	PC      uint16
}

// String returns the register set in the style of a monitor dump.
func (regs Registers) String() string {
	var flags strings.Builder
	for n, name := range "NV-BDIZC" {
		if regs.P&(0x80>>n) != 0 {
			flags.WriteRune(name)
		} else {
			flags.WriteRune('.')
		}
	}
	return fmt.Sprintf("PC=%04X A=%02X X=%02X Y=%02X SP=%02X P=%02X [%v]",
		regs.PC, regs.A, regs.X, regs.Y, regs.SP, regs.P, flags.String())
}

// Cpu is the execution context for a 6502 attached to a memory image.
type Cpu struct {
	Verbose bool // Set to enable per-instruction trace logging.

	Memory *Memory       // Caller-owned memory image.
	Output func(ch rune) // Console output callback, may be nil.
	A      byte          // Accumulator.
	X      byte          // X index register.
	Y      byte          // Y index register.
	SP     byte          // Stack pointer, offset into page one.
	P      byte          // Status register.
	PC     uint16        // Program counter.
	Ticks  int           // Instructions stepped since reset.
}

// operation executes one instruction after its opcode has been fetched.
type operation func(cpu *Cpu, mode Mode)

// decoded is a dispatch table entry.
type decoded struct {
	op   operation
	mode Mode
}

var operations = [OP_COUNT]operation{
	OP_ADC: (*Cpu).adc, OP_AND: (*Cpu).and, OP_ASL: (*Cpu).asl,
	OP_BCC: (*Cpu).bcc, OP_BCS: (*Cpu).bcs, OP_BEQ: (*Cpu).beq,
	OP_BIT: (*Cpu).bit, OP_BMI: (*Cpu).bmi, OP_BNE: (*Cpu).bne,
	OP_BPL: (*Cpu).bpl, OP_BRK: (*Cpu).brk, OP_BVC: (*Cpu).bvc,
	OP_BVS: (*Cpu).bvs, OP_CLC: (*Cpu).clc, OP_CLD: (*Cpu).cld,
	OP_CLI: (*Cpu).cli, OP_CLV: (*Cpu).clv, OP_CMP: (*Cpu).cmp,
	OP_CPX: (*Cpu).cpx, OP_CPY: (*Cpu).cpy, OP_DEC: (*Cpu).dec,
	OP_DEX: (*Cpu).dex, OP_DEY: (*Cpu).dey, OP_EOR: (*Cpu).eor,
	OP_INC: (*Cpu).inc, OP_INX: (*Cpu).inx, OP_INY: (*Cpu).iny,
	OP_JMP: (*Cpu).jmp, OP_JSR: (*Cpu).jsr, OP_LDA: (*Cpu).lda,
	OP_LDX: (*Cpu).ldx, OP_LDY: (*Cpu).ldy, OP_LSR: (*Cpu).lsr,
	OP_NOP: (*Cpu).nop, OP_ORA: (*Cpu).ora, OP_PHA: (*Cpu).pha,
	OP_PHP: (*Cpu).php, OP_PLA: (*Cpu).pla, OP_PLP: (*Cpu).plp,
	OP_ROL: (*Cpu).rol, OP_ROR: (*Cpu).ror, OP_RTI: (*Cpu).rti,
	OP_RTS: (*Cpu).rts, OP_SBC: (*Cpu).sbc, OP_SEC: (*Cpu).sec,
	OP_SED: (*Cpu).sed, OP_SEI: (*Cpu).sei, OP_STA: (*Cpu).sta,
	OP_STX: (*Cpu).stx, OP_STY: (*Cpu).sty, OP_TAX: (*Cpu).tax,
	OP_TAY: (*Cpu).tay, OP_TSX: (*Cpu).tsx, OP_TXA: (*Cpu).txa,
	OP_TXS: (*Cpu).txs, OP_TYA: (*Cpu).tya,
}

// dispatch is generated from the instruction table; unlisted opcodes
// have a nil operation and execute as no-ops.
var dispatch [256]decoded

func init() {
	for _, inst := range instructionTable {
		op := operations[inst.Mnemonic]
		if op == nil {
			panic(fmt.Sprintf("no operation for %v", inst.Mnemonic))
		}
		dispatch[inst.Opcode] = decoded{op: op, mode: inst.Mode}
	}
}

// Handles reports whether the decoder executes an opcode.
func Handles(opcode byte) bool {
	return dispatch[opcode].op != nil
}

// NewCpu creates a CPU attached to a caller-owned memory image, and
// resets it. output is called once per byte written to CONSOLE_OUT.
func NewCpu(mem *Memory, output func(ch rune)) (cpu *Cpu) {
	cpu = &Cpu{
		Memory: mem,
		Output: output,
	}

	cpu.Reset()

	return
}

// Reset the CPU state.
// - Zeros A, X and Y.
// - Sets P to Unused|Interrupt-disable and SP to 0xFD.
// - Loads PC from the reset vector.
func (cpu *Cpu) Reset() {
	cpu.A, cpu.X, cpu.Y = 0, 0, 0
	cpu.P = UNUSED_FLAG | INTERRUPT_FLAG
	cpu.SP = STACK_RESET
	cpu.PC = cpu.read16(RESET_VECTOR)
	cpu.Ticks = 0

	if cpu.Verbose {
		log.Printf("cpu: reset, pc=%04X", cpu.PC)
	}
}

// Registers returns a snapshot of the register set.
func (cpu *Cpu) Registers() Registers {
	return Registers{A: cpu.A, X: cpu.X, Y: cpu.Y, SP: cpu.SP, P: cpu.P, PC: cpu.PC}
}

// String returns the current CPU state as a string.
func (cpu *Cpu) String() string {
	return cpu.Registers().String()
}

// Read is the memory read gate. The console port is write-only and reads
// as zero.
func (cpu *Cpu) Read(addr uint16) byte {
	if addr == CONSOLE_OUT {
		return 0
	}
	return cpu.Memory[addr]
}

// Write is the memory write gate. A write to the console port is stored
// and also sent to the output callback.
func (cpu *Cpu) Write(addr uint16, value byte) {
	cpu.Memory[addr] = value
	if addr == CONSOLE_OUT && cpu.Output != nil {
		cpu.Output(rune(value))
	}
}

func (cpu *Cpu) read16(addr uint16) uint16 {
	lo := cpu.Read(addr)
	hi := cpu.Read(addr + 1)
	return uint16(hi)<<8 | uint16(lo)
}

func (cpu *Cpu) fetch() (value byte) {
	value = cpu.Read(cpu.PC)
	cpu.PC++
	return
}

func (cpu *Cpu) fetch16() (value uint16) {
	value = cpu.read16(cpu.PC)
	cpu.PC += 2
	return
}

// Step executes one instruction.
func (cpu *Cpu) Step() {
	if cpu.Verbose {
		text, _ := Disassemble(cpu.Read, cpu.PC)
		log.Printf("%04X: %-16v %v", cpu.PC, text, cpu.Registers())
	}

	entry := &dispatch[cpu.fetch()]
	cpu.Ticks++

	if entry.op == nil {
		return
	}

	entry.op(cpu, entry.mode)
}

// address resolves the effective address of an operand, advancing PC past
// the operand bytes.
func (cpu *Cpu) address(mode Mode) (addr uint16) {
	switch mode {
	case MODE_IMMEDIATE, MODE_RELATIVE:
		addr = cpu.PC
		cpu.PC++
	case MODE_ZERO_PAGE:
		addr = uint16(cpu.fetch())
	case MODE_ZERO_PAGE_X:
		addr = uint16(cpu.fetch() + cpu.X)
	case MODE_ZERO_PAGE_Y:
		addr = uint16(cpu.fetch() + cpu.Y)
	case MODE_ABSOLUTE:
		addr = cpu.fetch16()
	case MODE_ABSOLUTE_X:
		addr = cpu.fetch16() + uint16(cpu.X)
	case MODE_ABSOLUTE_Y:
		addr = cpu.fetch16() + uint16(cpu.Y)
	case MODE_INDIRECT:
		// The pointer fetch crosses pages normally; the NMOS page-wrap
		// quirk is not reproduced.
		addr = cpu.read16(cpu.fetch16())
	case MODE_INDEXED_INDIRECT:
		zp := cpu.fetch() + cpu.X
		addr = uint16(cpu.Read(uint16(zp+1)))<<8 | uint16(cpu.Read(uint16(zp)))
	case MODE_INDIRECT_INDEXED:
		zp := cpu.fetch()
		base := uint16(cpu.Read(uint16(zp+1)))<<8 | uint16(cpu.Read(uint16(zp)))
		addr = base + uint16(cpu.Y)
	}
	return
}

func (cpu *Cpu) load(mode Mode) byte {
	return cpu.Read(cpu.address(mode))
}

// modify applies fn to the accumulator or to an addressed byte, and sets
// Z and N from the result.
func (cpu *Cpu) modify(mode Mode, fn func(value byte) byte) {
	var result byte
	if mode == MODE_ACCUMULATOR {
		result = fn(cpu.A)
		cpu.A = result
	} else {
		addr := cpu.address(mode)
		result = fn(cpu.Read(addr))
		cpu.Write(addr, result)
	}
	cpu.updateNZ(result)
}

func (cpu *Cpu) setFlag(flag byte, on bool) {
	if on {
		cpu.P |= flag
	} else {
		cpu.P &^= flag
	}
}

// Flag reports whether a status flag is set.
func (cpu *Cpu) Flag(flag byte) bool {
	return cpu.P&flag != 0
}

func (cpu *Cpu) updateNZ(value byte) {
	cpu.setFlag(ZERO_FLAG, value == 0)
	cpu.setFlag(NEGATIVE_FLAG, value&0x80 != 0)
}

// addCarry is binary add-with-carry; the decimal flag is ignored.
func (cpu *Cpu) addCarry(m byte) {
	var carry uint16
	if cpu.Flag(CARRY_FLAG) {
		carry = 1
	}
	sum := uint16(cpu.A) + uint16(m) + carry
	result := byte(sum)
	cpu.setFlag(OVERFLOW_FLAG, ^(cpu.A^m)&(cpu.A^result)&0x80 != 0)
	cpu.setFlag(CARRY_FLAG, sum > 0xFF)
	cpu.A = result
	cpu.updateNZ(result)
}

func (cpu *Cpu) compare(reg byte, mode Mode) {
	m := cpu.load(mode)
	cpu.setFlag(CARRY_FLAG, reg >= m)
	cpu.updateNZ(reg - m)
}

// branch always consumes the displacement byte.
func (cpu *Cpu) branch(mode Mode, taken bool) {
	disp := int8(cpu.load(mode))
	if taken {
		cpu.PC += uint16(disp)
	}
}

// pullStatus restores P with Unused set and Break clear.
func (cpu *Cpu) pullStatus() {
	cpu.P = (cpu.Pop() | UNUSED_FLAG) &^ BREAK_FLAG
}

// pushStatus pushes P with Break and Unused set.
func (cpu *Cpu) pushStatus() {
	cpu.Push(cpu.P | BREAK_FLAG | UNUSED_FLAG)
}

func (cpu *Cpu) adc(mode Mode) { cpu.addCarry(cpu.load(mode)) }
func (cpu *Cpu) sbc(mode Mode) { cpu.addCarry(^cpu.load(mode)) }

func (cpu *Cpu) and(mode Mode) { cpu.A &= cpu.load(mode); cpu.updateNZ(cpu.A) }
func (cpu *Cpu) ora(mode Mode) { cpu.A |= cpu.load(mode); cpu.updateNZ(cpu.A) }
func (cpu *Cpu) eor(mode Mode) { cpu.A ^= cpu.load(mode); cpu.updateNZ(cpu.A) }

func (cpu *Cpu) asl(mode Mode) {
	cpu.modify(mode, func(v byte) byte {
		cpu.setFlag(CARRY_FLAG, v&0x80 != 0)
		return v << 1
	})
}

func (cpu *Cpu) lsr(mode Mode) {
	cpu.modify(mode, func(v byte) byte {
		cpu.setFlag(CARRY_FLAG, v&0x01 != 0)
		return v >> 1
	})
}

func (cpu *Cpu) rol(mode Mode) {
	cpu.modify(mode, func(v byte) byte {
		var in byte
		if cpu.Flag(CARRY_FLAG) {
			in = 0x01
		}
		cpu.setFlag(CARRY_FLAG, v&0x80 != 0)
		return v<<1 | in
	})
}

func (cpu *Cpu) ror(mode Mode) {
	cpu.modify(mode, func(v byte) byte {
		var in byte
		if cpu.Flag(CARRY_FLAG) {
			in = 0x80
		}
		cpu.setFlag(CARRY_FLAG, v&0x01 != 0)
		return v>>1 | in
	})
}

func (cpu *Cpu) bcc(mode Mode) { cpu.branch(mode, !cpu.Flag(CARRY_FLAG)) }
func (cpu *Cpu) bcs(mode Mode) { cpu.branch(mode, cpu.Flag(CARRY_FLAG)) }
func (cpu *Cpu) beq(mode Mode) { cpu.branch(mode, cpu.Flag(ZERO_FLAG)) }
func (cpu *Cpu) bne(mode Mode) { cpu.branch(mode, !cpu.Flag(ZERO_FLAG)) }
func (cpu *Cpu) bmi(mode Mode) { cpu.branch(mode, cpu.Flag(NEGATIVE_FLAG)) }
func (cpu *Cpu) bpl(mode Mode) { cpu.branch(mode, !cpu.Flag(NEGATIVE_FLAG)) }
func (cpu *Cpu) bvc(mode Mode) { cpu.branch(mode, !cpu.Flag(OVERFLOW_FLAG)) }
func (cpu *Cpu) bvs(mode Mode) { cpu.branch(mode, cpu.Flag(OVERFLOW_FLAG)) }

func (cpu *Cpu) bit(mode Mode) {
	m := cpu.load(mode)
	cpu.setFlag(ZERO_FLAG, cpu.A&m == 0)
	cpu.setFlag(NEGATIVE_FLAG, m&0x80 != 0)
	cpu.setFlag(OVERFLOW_FLAG, m&0x40 != 0)
}

// brk skips its padding byte, pushes the return address and status, and
// vectors through IRQ_VECTOR.
func (cpu *Cpu) brk(mode Mode) {
	cpu.PC++
	cpu.Push16(cpu.PC)
	cpu.pushStatus()
	cpu.setFlag(INTERRUPT_FLAG, true)
	cpu.PC = cpu.read16(IRQ_VECTOR)
}

func (cpu *Cpu) clc(mode Mode) { cpu.setFlag(CARRY_FLAG, false) }
func (cpu *Cpu) cld(mode Mode) { cpu.setFlag(DECIMAL_FLAG, false) }
func (cpu *Cpu) cli(mode Mode) { cpu.setFlag(INTERRUPT_FLAG, false) }
func (cpu *Cpu) clv(mode Mode) { cpu.setFlag(OVERFLOW_FLAG, false) }
func (cpu *Cpu) sec(mode Mode) { cpu.setFlag(CARRY_FLAG, true) }
func (cpu *Cpu) sed(mode Mode) { cpu.setFlag(DECIMAL_FLAG, true) }
func (cpu *Cpu) sei(mode Mode) { cpu.setFlag(INTERRUPT_FLAG, true) }

func (cpu *Cpu) cmp(mode Mode) { cpu.compare(cpu.A, mode) }
func (cpu *Cpu) cpx(mode Mode) { cpu.compare(cpu.X, mode) }
func (cpu *Cpu) cpy(mode Mode) { cpu.compare(cpu.Y, mode) }

func (cpu *Cpu) dec(mode Mode) { cpu.modify(mode, func(v byte) byte { return v - 1 }) }
func (cpu *Cpu) inc(mode Mode) { cpu.modify(mode, func(v byte) byte { return v + 1 }) }

func (cpu *Cpu) dex(mode Mode) { cpu.X--; cpu.updateNZ(cpu.X) }
func (cpu *Cpu) dey(mode Mode) { cpu.Y--; cpu.updateNZ(cpu.Y) }
func (cpu *Cpu) inx(mode Mode) { cpu.X++; cpu.updateNZ(cpu.X) }
func (cpu *Cpu) iny(mode Mode) { cpu.Y++; cpu.updateNZ(cpu.Y) }

func (cpu *Cpu) jmp(mode Mode) { cpu.PC = cpu.address(mode) }

// jsr pushes the address of its own last byte; rts adds the 1 back.
func (cpu *Cpu) jsr(mode Mode) {
	target := cpu.address(mode)
	cpu.Push16(cpu.PC - 1)
	cpu.PC = target
}

func (cpu *Cpu) rts(mode Mode) { cpu.PC = cpu.Pop16() + 1 }

func (cpu *Cpu) rti(mode Mode) {
	cpu.pullStatus()
	cpu.PC = cpu.Pop16()
}

func (cpu *Cpu) lda(mode Mode) { cpu.A = cpu.load(mode); cpu.updateNZ(cpu.A) }
func (cpu *Cpu) ldx(mode Mode) { cpu.X = cpu.load(mode); cpu.updateNZ(cpu.X) }
func (cpu *Cpu) ldy(mode Mode) { cpu.Y = cpu.load(mode); cpu.updateNZ(cpu.Y) }

func (cpu *Cpu) sta(mode Mode) { cpu.Write(cpu.address(mode), cpu.A) }
func (cpu *Cpu) stx(mode Mode) { cpu.Write(cpu.address(mode), cpu.X) }
func (cpu *Cpu) sty(mode Mode) { cpu.Write(cpu.address(mode), cpu.Y) }

func (cpu *Cpu) nop(mode Mode) {}

func (cpu *Cpu) pha(mode Mode) { cpu.Push(cpu.A) }
func (cpu *Cpu) php(mode Mode) { cpu.pushStatus() }
func (cpu *Cpu) pla(mode Mode) { cpu.A = cpu.Pop(); cpu.updateNZ(cpu.A) }
func (cpu *Cpu) plp(mode Mode) { cpu.pullStatus() }

func (cpu *Cpu) tax(mode Mode) { cpu.X = cpu.A; cpu.updateNZ(cpu.X) }
func (cpu *Cpu) tay(mode Mode) { cpu.Y = cpu.A; cpu.updateNZ(cpu.Y) }
func (cpu *Cpu) tsx(mode Mode) { cpu.X = cpu.SP; cpu.updateNZ(cpu.X) }
func (cpu *Cpu) txa(mode Mode) { cpu.A = cpu.X; cpu.updateNZ(cpu.A) }
func (cpu *Cpu) txs(mode Mode) { cpu.SP = cpu.X }
func (cpu *Cpu) tya(mode Mode) { cpu.A = cpu.Y; cpu.updateNZ(cpu.A) }
