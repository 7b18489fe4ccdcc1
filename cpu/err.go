package cpu

import (
	"errors"

	"github.com/ezrec/m6502/translate"
)

var f = translate.From

var (
	// Assembler errors
	ErrLabelDuplicate     = errors.New(f("label duplicated"))
	ErrLabelSyntax        = errors.New(f("label syntax"))
	ErrMnemonicUnknown    = errors.New(f("unknown mnemonic"))
	ErrModeInvalid        = errors.New(f("invalid addressing mode"))
	ErrOperandMissing     = errors.New(f("operand missing"))
	ErrOriginBackwards    = errors.New(f("origin moves backwards"))
	ErrOriginSyntax       = errors.New(f(".org syntax"))
	ErrByteSyntax         = errors.New(f(".byte syntax"))
	ErrDirectiveUnknown   = errors.New(f("unknown directive"))
	ErrExpressionEmpty    = errors.New(f("empty expression"))
	ErrProgramDiagnostics = errors.New(f("program has diagnostics"))
)

// ErrLabelMissing is an operand reference to an undefined label.
type ErrLabelMissing string

func (el ErrLabelMissing) Error() string {
	return f("label %v missing", string(el))
}

// ErrParseNumber is a malformed numeric literal.
type ErrParseNumber string

func (err ErrParseNumber) Error() string {
	return f("'%v' is not a number", string(err))
}

// ErrParseExpression is an operand expression that failed to evaluate.
type ErrParseExpression struct {
	Expr string
	Err  error
}

func (err *ErrParseExpression) Error() string {
	return f("'%v' is not a valid expression: %v", err.Expr, err.Err)
}

func (err *ErrParseExpression) Unwrap() error {
	return err.Err
}

// ErrBranchRange is a relative branch whose displacement does not fit a byte.
type ErrBranchRange int

func (err ErrBranchRange) Error() string {
	return f("branch target out of range (%d)", int(err))
}

// ErrMode is an operand whose addressing mode the mnemonic does not support.
type ErrMode struct {
	Mnemonic Mnemonic
	Operand  string
}

func (err *ErrMode) Error() string {
	return f("invalid addressing mode for %v: %v", err.Mnemonic, err.Operand)
}

func (err *ErrMode) Is(target error) bool {
	return target == ErrModeInvalid
}

// ErrMnemonic is an unknown mnemonic.
type ErrMnemonic string

func (err ErrMnemonic) Error() string {
	return f("unknown mnemonic '%v'", string(err))
}

func (err ErrMnemonic) Is(target error) bool {
	return target == ErrMnemonicUnknown
}

// ErrDuplicate is a label bound more than once.
type ErrDuplicate string

func (err ErrDuplicate) Error() string {
	return f("duplicate label '%v'", string(err))
}

func (err ErrDuplicate) Is(target error) bool {
	return target == ErrLabelDuplicate
}

// ErrSyntax locates an assembler diagnostic in the source.
type ErrSyntax struct {
	LineNo int
	Line   string
	Err    error
}

func (err *ErrSyntax) Error() string {
	return f("line %d: %v", err.LineNo, err.Err)
}

func (err *ErrSyntax) Unwrap() error {
	return err.Err
}
