package cpu

import (
	"errors"
	"iter"

	"github.com/ezrec/m6502/internal"
)

// Program is the result of one assembler run.
type Program struct {
	Code    []byte            // Flat machine code, loaded at Start.
	Errors  []error           // Line-numbered diagnostics, in line order.
	Start   uint16            // Load address of Code[0].
	LineMap map[uint16]int    // Instruction address to 1-based source line.
	Labels  map[string]uint16 // Final label table.
}

// Err joins every diagnostic, or returns nil for a clean program.
func (prog *Program) Err() error {
	if len(prog.Errors) == 0 {
		return nil
	}
	return errors.Join(append([]error{ErrProgramDiagnostics}, prog.Errors...)...)
}

// Diagnostics renders every diagnostic as a string.
func (prog *Program) Diagnostics() (text []string) {
	for _, err := range prog.Errors {
		text = append(text, err.Error())
	}
	return
}

// Debug returns the source line of the instruction at addr, or 0.
func (prog *Program) Debug(addr uint16) (lineNo int) {
	return prog.LineMap[addr]
}

// End is the address one past the last byte of Code.
func (prog *Program) End() int {
	return int(prog.Start) + len(prog.Code)
}

// Instructions iterates over instruction addresses in ascending order with
// their source lines.
func (prog *Program) Instructions() iter.Seq2[uint16, int] {
	return func(yield func(addr uint16, lineNo int) bool) {
		for addr := range internal.SortedKeys(prog.LineMap) {
			if !yield(addr, prog.LineMap[addr]) {
				return
			}
		}
	}
}
