package io

import (
	"fmt"
	"image"
	"image/color"
	"image/png"
	"io"
	"iter"
	"maps"

	"golang.org/x/image/draw"

	"github.com/ezrec/m6502/cpu"
)

// Palette maps the low nibble of a framebuffer byte to a colour.
var Palette = color.Palette{
	color.RGBA{0x00, 0x00, 0x00, 0xFF}, // black
	color.RGBA{0xFF, 0xFF, 0xFF, 0xFF}, // white
	color.RGBA{0x88, 0x00, 0x00, 0xFF}, // red
	color.RGBA{0xAA, 0xFF, 0xEE, 0xFF}, // cyan
	color.RGBA{0xCC, 0x44, 0xCC, 0xFF}, // purple
	color.RGBA{0x00, 0xCC, 0x55, 0xFF}, // green
	color.RGBA{0x00, 0x00, 0xAA, 0xFF}, // blue
	color.RGBA{0xEE, 0xEE, 0x77, 0xFF}, // yellow
	color.RGBA{0xDD, 0x88, 0x55, 0xFF}, // orange
	color.RGBA{0x66, 0x44, 0x00, 0xFF}, // brown
	color.RGBA{0xFF, 0x77, 0x77, 0xFF}, // light red
	color.RGBA{0x33, 0x33, 0x33, 0xFF}, // dark grey
	color.RGBA{0x77, 0x77, 0x77, 0xFF}, // grey
	color.RGBA{0xAA, 0xFF, 0x66, 0xFF}, // light green
	color.RGBA{0x00, 0x88, 0xFF, 0xFF}, // light blue
	color.RGBA{0xBB, 0xBB, 0xBB, 0xFF}, // light grey
}

// Screen renders the memory mapped framebuffer.
type Screen struct {
	Scale int // Pixel magnification; 0 means 1.
}

var _ Device = (*Screen)(nil)

// Defines returns the framebuffer geometry.
func (sc *Screen) Defines() iter.Seq2[string, string] {
	return maps.All(map[string]string{
		"SCREEN":        fmt.Sprintf("$%04X", cpu.SCREEN_BASE),
		"SCREEN_WIDTH":  fmt.Sprintf("%d", cpu.SCREEN_WIDTH),
		"SCREEN_HEIGHT": fmt.Sprintf("%d", cpu.SCREEN_HEIGHT),
	})
}

// Reset restores unit scale.
func (sc *Screen) Reset() {
	sc.Scale = 0
}

// Frame returns the framebuffer at its native size, one palette index per
// pixel in row-major order.
func (sc *Screen) Frame(mem *cpu.Memory) (img *image.Paletted) {
	img = image.NewPaletted(image.Rect(0, 0, cpu.SCREEN_WIDTH, cpu.SCREEN_HEIGHT), Palette)
	for n, value := range mem.Screen() {
		img.Pix[n] = value & 0x0F
	}
	return
}

// Image returns the framebuffer magnified by Scale.
func (sc *Screen) Image(mem *cpu.Memory) (img image.Image, err error) {
	scale := sc.Scale
	switch {
	case scale == 0:
		scale = 1
	case scale < 0:
		err = ErrScreenScale
		return
	}

	frame := sc.Frame(mem)
	if scale == 1 {
		img = frame
		return
	}

	bounds := image.Rect(0, 0, cpu.SCREEN_WIDTH*scale, cpu.SCREEN_HEIGHT*scale)
	rgba := image.NewRGBA(bounds)
	draw.NearestNeighbor.Scale(rgba, bounds, frame, frame.Bounds(), draw.Src, nil)
	img = rgba

	return
}

// WritePNG encodes the framebuffer as a PNG.
func (sc *Screen) WritePNG(w io.Writer, mem *cpu.Memory) (err error) {
	img, err := sc.Image(mem)
	if err != nil {
		return
	}

	err = png.Encode(w, img)
	return
}
