// Package cpu implements the processor and assembler for the m6502 system.
//
// The CPU is a MOS 6502 with three 8-bit registers (A, X, Y), an 8-bit
// stack pointer into page one, a status register, and a 16-bit program
// counter. It executes all 151 documented opcodes against a flat 64KB
// memory image; decimal mode is accepted but arithmetic is always binary.
// A write to CONSOLE_OUT is delivered to an output callback.
//
// The assembler is a two-pass assembler for the same instruction set,
// supporting labels, the .ORG and .BYTE directives, and compile-time
// expression evaluation. Every diagnostic carries its source line.
package cpu
