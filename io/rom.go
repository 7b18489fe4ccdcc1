package io

import (
	"fmt"
	"io"
	"iter"
	"maps"

	"github.com/ezrec/m6502/cpu"
)

// Rom is a raw binary image with the address it loads at.
type Rom struct {
	Origin uint16
	Data   []byte
}

var _ Device = (*Rom)(nil)

// Defines returns the load window of the image.
func (rc *Rom) Defines() iter.Seq2[string, string] {
	return maps.All(map[string]string{
		"ROM_ORIGIN": fmt.Sprintf("$%04X", rc.Origin),
		"ROM_END":    fmt.Sprintf("$%04X", int(rc.Origin)+len(rc.Data)),
	})
}

// Reset discards the image.
func (rc *Rom) Reset() {
	rc.Data = nil
}

// ReadFrom replaces the image with the entire contents of r.
func (rc *Rom) ReadFrom(r io.Reader) (n int64, err error) {
	data, err := io.ReadAll(r)
	n = int64(len(data))
	if err != nil {
		return
	}

	rc.Data = data
	return
}

// WriteTo writes the raw image to w.
func (rc *Rom) WriteTo(w io.Writer) (n int64, err error) {
	count, err := w.Write(rc.Data)
	n = int64(count)
	return
}

// Install copies the image into memory at Origin, and points the reset
// vector at it.
func (rc *Rom) Install(mem *cpu.Memory) (err error) {
	if len(rc.Data) == 0 {
		err = ErrRomEmpty
		return
	}

	if int(rc.Origin)+len(rc.Data) > cpu.MEMORY_SIZE {
		err = &ErrRomSize{Origin: rc.Origin, Size: len(rc.Data)}
		return
	}

	mem.Load(rc.Origin, rc.Data)
	mem.SetWord(cpu.RESET_VECTOR, rc.Origin)

	return
}
