package io

import (
	"fmt"
	"io"
	"iter"
	"maps"
	"strings"

	"github.com/ezrec/m6502/cpu"
)

// Console receives the characters a program writes to the console output
// port. Every character is kept in a transcript, and is also written to
// Output when one is attached.
type Console struct {
	Output io.Writer

	transcript strings.Builder
	err        error
}

var _ Device = (*Console)(nil)

// Defines returns an iter of defines for the console.
func (con *Console) Defines() iter.Seq2[string, string] {
	return maps.All(map[string]string{
		"CONSOLE_OUT": fmt.Sprintf("$%04X", cpu.CONSOLE_OUT),
	})
}

// Reset discards the transcript and any latched write error.
func (con *Console) Reset() {
	con.transcript.Reset()
	con.err = nil
}

// Emit is the CPU output callback.
func (con *Console) Emit(ch rune) {
	con.transcript.WriteRune(ch)

	if con.Output == nil || con.err != nil {
		return
	}

	_, err := io.WriteString(con.Output, string(ch))
	if err != nil {
		con.err = &ErrConsole{Err: err}
	}
}

// String returns the transcript since the last reset.
func (con *Console) String() string {
	return con.transcript.String()
}

// Err returns the first error writing to Output, if any. Once an error
// occurs, characters are only kept in the transcript.
func (con *Console) Err() error {
	return con.err
}
