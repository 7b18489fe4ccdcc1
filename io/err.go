package io

import (
	"errors"

	"github.com/ezrec/m6502/translate"
)

var f = translate.From

var (
	// Device errors
	ErrRomEmpty    = errors.New(f("rom image is empty"))
	ErrScreenScale = errors.New(f("screen scale must be positive"))
)

// ErrRomSize is an image that does not fit above its origin.
type ErrRomSize struct {
	Origin uint16
	Size   int
}

func (err *ErrRomSize) Error() string {
	return f("rom image of %v bytes does not fit at $%04X", err.Size, err.Origin)
}

// ErrConsole is a failure writing console output to the host.
type ErrConsole struct {
	Err error
}

func (err *ErrConsole) Error() string {
	return f("console: %v", err.Err)
}

func (err *ErrConsole) Unwrap() error {
	return err.Err
}
