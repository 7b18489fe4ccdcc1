package io

import (
	"bytes"
	"errors"
	"image"
	"image/color"
	"image/png"
	"maps"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/ezrec/m6502/cpu"
)

type failWriter struct{}

var errFail = errors.New("write failed")

func (failWriter) Write(p []byte) (int, error) {
	return 0, errFail
}

func TestConsole(t *testing.T) {
	assert := assert.New(t)

	output := &bytes.Buffer{}
	con := &Console{Output: output}

	for _, ch := range "Hello" {
		con.Emit(ch)
	}
	assert.Equal("Hello", con.String())
	assert.Equal("Hello", output.String())
	assert.NoError(con.Err())

	con.Reset()
	assert.Equal("", con.String())

	defines := maps.Collect(con.Defines())
	assert.Equal("$F001", defines["CONSOLE_OUT"])
}

func TestConsole_Error(t *testing.T) {
	assert := assert.New(t)

	con := &Console{Output: failWriter{}}
	con.Emit('a')
	con.Emit('b')

	assert.Equal("ab", con.String())
	assert.ErrorIs(con.Err(), errFail)
	assert.ErrorAs(con.Err(), new(*ErrConsole))

	con.Reset()
	assert.NoError(con.Err())
}

func TestConsole_CpuPort(t *testing.T) {
	assert := assert.New(t)

	prog := cpu.Assemble(strings.Join([]string{
		"LDA #'O'",
		"STA CONSOLE_OUT",
		"LDA #'K'",
		"STA CONSOLE_OUT",
		"DONE: JMP DONE",
	}, "\n"))
	// CONSOLE_OUT is not predefined here.
	assert.Error(prog.Err())

	asm := &cpu.Assembler{}
	con := &Console{}
	for name, value := range con.Defines() {
		assert.NoError(asm.Predefine(name, value))
	}
	prog = asm.Assemble(strings.Join([]string{
		"LDA #'O'",
		"STA CONSOLE_OUT",
		"LDA #'K'",
		"STA CONSOLE_OUT",
	}, "\n"))
	assert.NoError(prog.Err())

	mem := &cpu.Memory{}
	rom := &Rom{Origin: prog.Start, Data: prog.Code}
	assert.NoError(rom.Install(mem))

	proc := cpu.NewCpu(mem, con.Emit)
	for range 4 {
		proc.Step()
	}
	assert.Equal("OK", con.String())
}

func TestRom(t *testing.T) {
	assert := assert.New(t)

	rom := &Rom{Origin: 0x9000}
	n, err := rom.ReadFrom(bytes.NewReader([]byte{0xA9, 0x01, 0x00}))
	assert.NoError(err)
	assert.Equal(int64(3), n)

	mem := &cpu.Memory{}
	assert.NoError(rom.Install(mem))
	assert.Equal([]byte{0xA9, 0x01, 0x00}, mem[0x9000:0x9003])
	assert.Equal(uint16(0x9000), mem.Word(cpu.RESET_VECTOR))

	output := &bytes.Buffer{}
	n, err = rom.WriteTo(output)
	assert.NoError(err)
	assert.Equal(int64(3), n)
	assert.Equal(rom.Data, output.Bytes())

	defines := maps.Collect(rom.Defines())
	assert.Equal("$9000", defines["ROM_ORIGIN"])
	assert.Equal("$9003", defines["ROM_END"])

	rom.Reset()
	assert.ErrorIs(rom.Install(mem), ErrRomEmpty)
}

func TestRom_Size(t *testing.T) {
	assert := assert.New(t)

	rom := &Rom{Origin: 0xFFF0, Data: make([]byte, 0x20)}
	err := rom.Install(&cpu.Memory{})

	var size *ErrRomSize
	if assert.ErrorAs(err, &size) {
		assert.Equal(uint16(0xFFF0), size.Origin)
		assert.Equal(0x20, size.Size)
	}

	rom = &Rom{Origin: 0xFFF0, Data: make([]byte, 0x10)}
	assert.NoError(rom.Install(&cpu.Memory{}))
}

func TestScreen_Frame(t *testing.T) {
	assert := assert.New(t)

	mem := &cpu.Memory{}
	mem[cpu.SCREEN_BASE] = 0x01
	mem[cpu.SCREEN_BASE+cpu.SCREEN_WIDTH+2] = 0xF2 // high nibble ignored
	mem[cpu.SCREEN_BASE+cpu.SCREEN_SIZE-1] = 0x0D

	sc := &Screen{}
	frame := sc.Frame(mem)
	assert.Equal(image.Rect(0, 0, 64, 64), frame.Bounds())
	assert.Equal(uint8(1), frame.ColorIndexAt(0, 0))
	assert.Equal(uint8(2), frame.ColorIndexAt(2, 1))
	assert.Equal(uint8(13), frame.ColorIndexAt(63, 63))
	assert.Equal(uint8(0), frame.ColorIndexAt(1, 0))

	r, g, b, _ := frame.At(2, 1).RGBA()
	assert.Equal([]uint32{0x8888, 0, 0}, []uint32{r, g, b})
	assert.Len(Palette, 16)
}

func TestScreen_Image(t *testing.T) {
	assert := assert.New(t)

	mem := &cpu.Memory{}
	mem[cpu.SCREEN_BASE+1] = 0x01

	sc := &Screen{Scale: 4}
	img, err := sc.Image(mem)
	assert.NoError(err)
	assert.Equal(image.Rect(0, 0, 256, 256), img.Bounds())

	white := color.RGBAModel.Convert(Palette[1])
	black := color.RGBAModel.Convert(Palette[0])
	assert.Equal(white, color.RGBAModel.Convert(img.At(4, 0)))
	assert.Equal(white, color.RGBAModel.Convert(img.At(7, 3)))
	assert.Equal(black, color.RGBAModel.Convert(img.At(3, 0)))
	assert.Equal(black, color.RGBAModel.Convert(img.At(8, 0)))

	sc.Scale = -1
	_, err = sc.Image(mem)
	assert.ErrorIs(err, ErrScreenScale)

	sc.Reset()
	img, err = sc.Image(mem)
	assert.NoError(err)
	assert.Equal(image.Rect(0, 0, 64, 64), img.Bounds())

	defines := maps.Collect(sc.Defines())
	assert.Equal("$C000", defines["SCREEN"])
	assert.Equal("64", defines["SCREEN_WIDTH"])
}

func TestScreen_WritePNG(t *testing.T) {
	assert := assert.New(t)

	mem := &cpu.Memory{}
	for n := range cpu.SCREEN_SIZE {
		mem[cpu.SCREEN_BASE+n] = byte(n)
	}

	sc := &Screen{Scale: 2}
	output := &bytes.Buffer{}
	assert.NoError(sc.WritePNG(output, mem))

	img, err := png.Decode(output)
	assert.NoError(err)
	assert.Equal(image.Rect(0, 0, 128, 128), img.Bounds())
	assert.Equal(color.RGBAModel.Convert(Palette[5]), color.RGBAModel.Convert(img.At(10, 0)))
}

func TestHexDump(t *testing.T) {
	assert := assert.New(t)

	output := &strings.Builder{}
	hd := &HexDump{Width: 4}
	err := hd.Write(output, 0x8000, []byte{0xA9, 'H', 0x8D, 0x01, 0xF0, 'i'})
	assert.NoError(err)
	assert.Equal(
		"8000: A9 48 8D 01  .H..\n"+
			"8004: F0 69        .i\n",
		output.String())

	output.Reset()
	hd = &HexDump{}
	assert.NoError(hd.Write(output, 0, make([]byte, 17)))
	lines := strings.Split(strings.TrimSuffix(output.String(), "\n"), "\n")
	assert.Len(lines, 2)
	assert.True(strings.HasPrefix(lines[1], "0010: 00"))

	assert.ErrorIs(hd.Write(failWriter{}, 0, []byte{1}), errFail)
}

func TestHexDump_Width(t *testing.T) {
	assert := assert.New(t)

	assert.Equal(16, Width(80))
	assert.Equal(8, Width(40))
	assert.Equal(1, Width(0))
	assert.Equal(64, Width(1000))
}
