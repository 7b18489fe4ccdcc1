package cpu

const (
	MEMORY_SIZE = 0x10000 // Flat 64KB address space.

	ZERO_PAGE     = 0x0000 // Zero page base.
	STACK_BASE    = 0x0100 // Stack page base, indexed by SP.
	LOAD_ADDRESS  = 0x8000 // Default program load address.
	SCREEN_BASE   = 0xC000 // 64x64 framebuffer, one byte per pixel.
	SCREEN_WIDTH  = 64
	SCREEN_HEIGHT = 64
	SCREEN_SIZE   = SCREEN_WIDTH * SCREEN_HEIGHT
	CONSOLE_OUT   = 0xF001 // Write-only console output port.

	NMI_VECTOR   = 0xFFFA
	RESET_VECTOR = 0xFFFC
	IRQ_VECTOR   = 0xFFFE // Also used by BRK.
)

// Memory is the flat address space shared by the loader and the CPU.
type Memory [MEMORY_SIZE]byte

// Clear zeros the entire image.
func (mem *Memory) Clear() {
	clear(mem[:])
}

// Load copies data into memory starting at addr, wrapping at the top of
// the address space.
func (mem *Memory) Load(addr uint16, data []byte) {
	for n, b := range data {
		mem[addr+uint16(n)] = b
	}
}

// Word reads a little-endian 16-bit value.
func (mem *Memory) Word(addr uint16) uint16 {
	return uint16(mem[addr]) | uint16(mem[addr+1])<<8
}

// SetWord writes a little-endian 16-bit value.
func (mem *Memory) SetWord(addr uint16, value uint16) {
	mem[addr] = byte(value)
	mem[addr+1] = byte(value >> 8)
}

// Screen returns the framebuffer region.
func (mem *Memory) Screen() []byte {
	return mem[SCREEN_BASE : SCREEN_BASE+SCREEN_SIZE]
}
