// Copyright 2024, Jason S. McMullan <jason.mcmullan@gmail.com>

package emulator

import (
	"context"
	"fmt"
	"iter"
	"log"
	"maps"

	"github.com/ezrec/m6502/cpu"
	"github.com/ezrec/m6502/internal"
	"github.com/ezrec/m6502/io"
)

const (
	BATCH_SIZE = 1000 // Default steps between cancellation checks.
)

var _emulator_defines = map[string]string{
	"LOAD_ADDRESS": fmt.Sprintf("$%04X", cpu.LOAD_ADDRESS),
	"STACK_BASE":   fmt.Sprintf("$%04X", cpu.STACK_BASE),
	"NMI_VECTOR":   fmt.Sprintf("$%04X", cpu.NMI_VECTOR),
	"RESET_VECTOR": fmt.Sprintf("$%04X", cpu.RESET_VECTOR),
	"IRQ_VECTOR":   fmt.Sprintf("$%04X", cpu.IRQ_VECTOR),
}

// Emulator state. CPU + memory + host devices.
type Emulator struct {
	Verbose  bool         // If set, enables verbose logging.
	*cpu.Cpu              // Reference to the CPU simulation.
	Program  *cpu.Program // Reference to the currently running program listing.
	Limit    int          // Maximum steps per Run; 0 is unlimited.

	Ram     cpu.Memory // Memory image the CPU is attached to.
	Console io.Console // Console output device.
	Screen  io.Screen  // Framebuffer device.
	Rom     io.Rom     // Image installed on every reset.

	halted bool
}

// NewEmulator creates a new emulator.
func NewEmulator() (emu *Emulator) {
	emu = &Emulator{
		Program: &cpu.Program{},
	}

	emu.Cpu = cpu.NewCpu(&emu.Ram, emu.Console.Emit)

	return
}

// Defines returns an iterator over all of the defines
func (emu *Emulator) Defines() iter.Seq2[string, string] {
	return internal.IterSeq2Concat(maps.All(_emulator_defines),
		emu.Console.Defines(),
		emu.Screen.Defines(),
		emu.Rom.Defines(),
	)
}

// Assembler returns an assembler that knows the emulator defines.
func (emu *Emulator) Assembler() (asm *cpu.Assembler, err error) {
	asm = &cpu.Assembler{Verbose: emu.Verbose}
	for name, value := range emu.Defines() {
		err = asm.Predefine(name, value)
		if err != nil {
			return
		}
	}
	return
}

// Load installs an assembled program, and resets the emulator. A program
// with diagnostics is refused.
func (emu *Emulator) Load(prog *cpu.Program) (err error) {
	err = prog.Err()
	if err != nil {
		return
	}

	emu.Program = prog
	emu.Rom = io.Rom{Origin: prog.Start, Data: prog.Code}

	err = emu.Reset()
	return
}

// LoadBinary installs a raw image at origin, and resets the emulator.
// No source lines are known for it.
func (emu *Emulator) LoadBinary(data []byte, origin uint16) (err error) {
	emu.Program = &cpu.Program{Start: origin, Code: data}
	emu.Rom = io.Rom{Origin: origin, Data: data}

	err = emu.Reset()
	return
}

// Reset clears memory, reinstalls the image, and resets the CPU.
func (emu *Emulator) Reset() (err error) {
	emu.Ram.Clear()

	err = emu.Rom.Install(&emu.Ram)
	if err != nil {
		return
	}

	emu.Console.Reset()
	emu.halted = false

	emu.Cpu.Verbose = emu.Verbose
	emu.Cpu.Reset()

	if emu.Verbose {
		log.Printf("emulator: reset, %d bytes at $%04X", len(emu.Rom.Data), emu.Rom.Origin)
	}

	return
}

// Ticks returns the total instructions stepped since a reset.
func (emu *Emulator) Ticks() int {
	return emu.Cpu.Ticks
}

// Halted reports whether the program has stopped making progress.
func (emu *Emulator) Halted() bool {
	return emu.halted
}

// LineNo returns the current line number for the executing instruction,
// or 0 if the program counter is not at an assembled instruction.
func (emu *Emulator) LineNo() int {
	return emu.Program.Debug(emu.Cpu.PC)
}

// Tick performs a single instruction step. The emulator is halted when the
// step leaves the program counter unchanged, as with `JMP *`.
func (emu *Emulator) Tick() (halted bool, err error) {
	if emu.halted {
		halted = true
		return
	}

	// Set CPU verbosity
	emu.Cpu.Verbose = emu.Verbose

	lineno := emu.LineNo()
	defer func() {
		if err != nil {
			err = &ErrRuntime{LineNo: lineno, Err: err}
		}
	}()

	pc := emu.Cpu.PC
	emu.Cpu.Step()

	emu.halted = emu.Cpu.PC == pc
	halted = emu.halted

	err = emu.Console.Err()
	return
}

// Run steps the emulator in batches until it halts, Limit is reached, or
// ctx is done. Cancellation is only observed between batches.
func (emu *Emulator) Run(ctx context.Context, batch int) (steps int, err error) {
	if batch <= 0 {
		batch = BATCH_SIZE
	}

	if emu.halted {
		return
	}

	for {
		err = ctx.Err()
		if err != nil {
			return
		}

		for range batch {
			if emu.Limit > 0 && steps >= emu.Limit {
				err = ErrStepLimit
				return
			}

			var halted bool
			halted, err = emu.Tick()
			steps++
			if err != nil || halted {
				return
			}
		}
	}
}
