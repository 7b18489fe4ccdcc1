package cpu

// The hardware stack lives in page one, indexed by SP. Neither direction
// checks for overflow; SP simply wraps within the page.

// Push writes a byte at 0x0100+SP, then decrements SP.
func (cpu *Cpu) Push(value byte) {
	cpu.Write(STACK_BASE+uint16(cpu.SP), value)
	cpu.SP--
}

// Pop increments SP, then reads the byte at 0x0100+SP.
func (cpu *Cpu) Pop() (value byte) {
	cpu.SP++
	return cpu.Read(STACK_BASE + uint16(cpu.SP))
}

// Push16 pushes the high byte, then the low byte.
func (cpu *Cpu) Push16(value uint16) {
	cpu.Push(byte(value >> 8))
	cpu.Push(byte(value))
}

// Pop16 pops the low byte, then the high byte.
func (cpu *Cpu) Pop16() uint16 {
	lo := cpu.Pop()
	hi := cpu.Pop()
	return uint16(hi)<<8 | uint16(lo)
}

// Peek returns the byte on top of the stack without popping it.
func (cpu *Cpu) Peek() byte {
	return cpu.Read(STACK_BASE + uint16(cpu.SP+1))
}
