package emulator

import (
	"bytes"
	"context"
	"maps"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/ezrec/m6502/cpu"
)

func TestEmulator(t *testing.T) {
	assert := assert.New(t)

	emu := NewEmulator()

	assert.False(emu.Verbose)
	assert.NotNil(emu.Cpu)
	assert.Equal(&emu.Ram, emu.Cpu.Memory)
	assert.Equal(0, emu.LineNo())

	defines := maps.Collect(emu.Defines())
	assert.Equal("$8000", defines["LOAD_ADDRESS"])
	assert.Equal("$FFFC", defines["RESET_VECTOR"])
	assert.Equal("$F001", defines["CONSOLE_OUT"])
	assert.Equal("$C000", defines["SCREEN"])
}

func doAssemble(emu *Emulator, program []string, t *testing.T) (prog *cpu.Program) {
	assert := assert.New(t)

	asm, err := emu.Assembler()
	assert.NoError(err)

	prog, err = asm.Parse(strings.NewReader(strings.Join(program, "\n")))
	assert.NoError(err)
	if err := prog.Err(); err != nil {
		t.Fatal(err)
	}

	err = emu.Load(prog)
	assert.NoError(err)

	return
}

// doRunSingle steps until halted, checking the line of every instruction.
func doRunSingle(emu *Emulator, program []string, t *testing.T) (output string) {
	assert := assert.New(t)

	prog := doAssemble(emu, program, t)

	for range 10000 {
		lineNo := emu.LineNo()
		if !assert.NotZero(lineNo, emu.Cpu.String()) {
			t.FailNow()
		}
		assert.Equal(prog.LineMap[emu.Cpu.PC], lineNo)
		here := program[lineNo-1]

		halted, err := emu.Tick()
		assert.NoError(err, here)
		if halted {
			break
		}
	}
	assert.True(emu.Halted())

	output = emu.Console.String()
	return
}

var helloProgram = []string{
	"        LDX #0",
	"LOOP:   LDA MSG,X",
	"        BEQ DONE",
	"        STA CONSOLE_OUT",
	"        INX",
	"        JMP LOOP",
	"DONE:   JMP DONE",
	`MSG:    .BYTE "Hello"`,
	"        .BYTE 0",
}

func TestEmulatorHello(t *testing.T) {
	assert := assert.New(t)

	emu := NewEmulator()
	output := &bytes.Buffer{}
	emu.Console.Output = output

	text := doRunSingle(emu, helloProgram, t)
	assert.Equal("Hello", text)
	assert.Equal("Hello", output.String())
	assert.Equal(7, emu.LineNo())
	assert.Equal(1+5*5+2+1, emu.Ticks())

	// A halted emulator stays halted.
	halted, err := emu.Tick()
	assert.NoError(err)
	assert.True(halted)
	assert.Equal(1+5*5+2+1, emu.Ticks())
}

func TestEmulatorRun(t *testing.T) {
	assert := assert.New(t)

	emu := NewEmulator()
	doAssemble(emu, helloProgram, t)

	steps, err := emu.Run(context.Background(), 4)
	assert.NoError(err)
	assert.Equal(1+5*5+2+1, steps)
	assert.Equal("Hello", emu.Console.String())

	steps, err = emu.Run(context.Background(), 4)
	assert.NoError(err)
	assert.Equal(0, steps)

	// Reset reinstalls the program and clears the console.
	assert.NoError(emu.Reset())
	assert.False(emu.Halted())
	assert.Equal("", emu.Console.String())
	assert.Equal(uint16(cpu.LOAD_ADDRESS), emu.Cpu.PC)
	assert.Equal(1, emu.LineNo())

	steps, err = emu.Run(context.Background(), 0)
	assert.NoError(err)
	assert.Equal(1+5*5+2+1, steps)
}

func TestEmulatorRunCancel(t *testing.T) {
	assert := assert.New(t)

	emu := NewEmulator()
	doAssemble(emu, []string{
		"LOOP: NOP",
		"      JMP LOOP",
	}, t)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	steps, err := emu.Run(ctx, 100)
	assert.ErrorIs(err, context.Canceled)
	assert.Equal(0, steps)

	emu.Limit = 250
	steps, err = emu.Run(context.Background(), 100)
	assert.ErrorIs(err, ErrStepLimit)
	assert.Equal(250, steps)
	assert.False(emu.Halted())
}

func TestEmulatorLoadRefused(t *testing.T) {
	assert := assert.New(t)

	emu := NewEmulator()
	prog := cpu.Assemble("BOGUS")

	err := emu.Load(prog)
	assert.ErrorIs(err, cpu.ErrProgramDiagnostics)
	assert.ErrorIs(err, cpu.ErrMnemonicUnknown)
	assert.NotEqual(prog, emu.Program)
}

func TestEmulatorLoadBinary(t *testing.T) {
	assert := assert.New(t)

	emu := NewEmulator()
	err := emu.LoadBinary([]byte{0xA9, 0x42, 0x4C, 0x02, 0x90}, 0x9000)
	assert.NoError(err)
	assert.Equal(uint16(0x9000), emu.Cpu.PC)
	assert.Equal(uint16(0x9000), emu.Ram.Word(cpu.RESET_VECTOR))

	steps, err := emu.Run(context.Background(), 0)
	assert.NoError(err)
	assert.Equal(2, steps)
	assert.Equal(byte(0x42), emu.Cpu.A)
	assert.Equal(0, emu.LineNo())

	assert.Error(emu.LoadBinary(nil, 0x9000))
}

func TestEmulatorConsoleError(t *testing.T) {
	assert := assert.New(t)

	emu := NewEmulator()
	emu.Console.Output = failWriter{}
	doAssemble(emu, helloProgram, t)

	_, err := emu.Run(context.Background(), 0)

	var runtime *ErrRuntime
	if assert.ErrorAs(err, &runtime) {
		assert.Equal(4, runtime.LineNo)
	}
	assert.Equal("H", emu.Console.String())
}

type failWriter struct{}

func (failWriter) Write(p []byte) (int, error) {
	return 0, ErrStepLimit
}

// Draws a background, a filled rectangle, and two vertical lines.
var demoProgram = []string{
	"; 6502 Screen Drawing Demo",
	".org $8000",
	"START:",
	"  LDA #13",
	"  LDX #0",
	"  LDY #0",
	"FILL_BG:",
	"  STA $C000,X",
	"  DEX",
	"  BNE FILL_BG",
	"  INY",
	"  CPY #$40 ; 64 rows",
	"  BNE FILL_BG",
	"  LDA #6",
	"  LDY #8",
	"OUTER_RECT:",
	"  LDX #8",
	"INNER_RECT:",
	"  STA $C000 + (16*64) + 16, Y ; Offset by X and Y",
	"  INX",
	"  CPX #48",
	"  BNE INNER_RECT",
	"  INY",
	"  CPY #48",
	"  BNE OUTER_RECT",
	"  LDA #2",
	"  LDX #0",
	"CROSS_LOOP:",
	"  STA $C000 + (8*64) + 8, X",
	"  STA $C000 + (8*64) + 55, X",
	"  INX",
	"  CPX #48",
	"  BNE CROSS_LOOP",
	"DONE:",
	"  JMP DONE ; Infinite loop to show result",
}

func TestEmulatorDemo(t *testing.T) {
	assert := assert.New(t)

	emu := NewEmulator()
	doAssemble(emu, demoProgram, t)

	_, err := emu.Run(context.Background(), BATCH_SIZE)
	assert.NoError(err)
	assert.True(emu.Halted())
	assert.Equal(35, emu.LineNo())

	screen := emu.Ram.Screen()
	assert.Equal(byte(13), screen[0x000])
	assert.Equal(byte(13), screen[0x0FF])
	assert.Equal(byte(0), screen[0x100])
	assert.Equal(byte(6), screen[0x418])
	assert.Equal(byte(6), screen[0x43F])
	assert.Equal(byte(0), screen[0x440])
	assert.Equal(byte(2), screen[0x208])
	assert.Equal(byte(2), screen[0x266])
	assert.Equal(byte(0), screen[0x267])

	frame := emu.Screen.Frame(&emu.Ram)
	assert.Equal(uint8(13), frame.ColorIndexAt(0, 0))
	assert.Equal(uint8(6), frame.ColorIndexAt(0x18, 0x10))
}
