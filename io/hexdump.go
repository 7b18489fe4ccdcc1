package io

import (
	"fmt"
	"io"
	"strings"

	"github.com/ezrec/m6502/cpu"
)

const HEXDUMP_WIDTH = 16 // Default bytes per row.

// HexDump formats memory as rows of address, hex bytes and printable text.
type HexDump struct {
	Width int // Bytes per row; 0 means HEXDUMP_WIDTH.
}

// Write dumps data, whose first byte is at addr.
//
//	8000: A9 48 8D 01 F0              .H...
func (hd *HexDump) Write(w io.Writer, addr uint16, data []byte) (err error) {
	width := hd.Width
	if width <= 0 {
		width = HEXDUMP_WIDTH
	}

	var line strings.Builder
	for offset := 0; offset < len(data); offset += width {
		row := data[offset:min(offset+width, len(data))]

		line.Reset()
		fmt.Fprintf(&line, "%04X:", addr+uint16(offset))
		for _, value := range row {
			fmt.Fprintf(&line, " %02X", value)
		}
		line.WriteString(strings.Repeat("   ", width-len(row)))
		line.WriteString("  ")
		for _, value := range row {
			if value >= 0x20 && value <= 0x7E {
				line.WriteByte(value)
			} else {
				line.WriteByte('.')
			}
		}
		line.WriteByte('\n')

		_, err = io.WriteString(w, line.String())
		if err != nil {
			return
		}
	}

	return
}

// Width returns the widest power-of-two row, up to one screen line, that
// fits in columns of text.
func Width(columns int) (width int) {
	width = 1
	for {
		next := width * 2
		// "AAAA:" + " XX" per byte + two spaces + one character per byte
		if next > cpu.SCREEN_WIDTH || 5+3*next+2+next > columns {
			return
		}
		width = next
	}
}
