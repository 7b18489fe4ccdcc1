// Package io provides the host-side devices of the m6502 emulator.
// It includes the console output sink (Console), raw binary images (Rom),
// the framebuffer renderer (Screen), and a memory dumper (HexDump).
package io

import (
	"iter"
)

// Device defines the interface for all host devices attached to the
// emulator's memory map.
type Device interface {
	// Reset returns the device to its power-on state.
	Reset()
	// Defines returns the assembler symbols the device contributes.
	Defines() iter.Seq2[string, string]
}
