package cpu

import (
	"fmt"
	"strconv"
	"strings"

	"go.starlark.net/starlark"
	"go.starlark.net/syntax"
)

// Symbols resolves a case-folded identifier to an address.
type Symbols func(name string) (value uint16, ok bool)

func isIdentStart(ch byte) bool {
	return ch == '_' || (ch >= 'A' && ch <= 'Z') || (ch >= 'a' && ch <= 'z')
}

func isIdent(ch byte) bool {
	return isIdentStart(ch) || (ch >= '0' && ch <= '9')
}

// valueOf parses a single literal or symbol without an expression engine.
//
//	$1F      hexadecimal
//	%0101    binary
//	42       decimal
//	'A'      character code
//	LABEL    symbol address
func valueOf(word string, symbols Symbols) (value int, err error) {
	if len(word) == 0 {
		err = ErrExpressionEmpty
		return
	}

	var v64 int64
	switch {
	case word[0] == '$':
		v64, err = strconv.ParseInt(word[1:], 16, 32)
	case word[0] == '%':
		v64, err = strconv.ParseInt(word[1:], 2, 32)
	case word[0] >= '0' && word[0] <= '9':
		v64, err = strconv.ParseInt(word, 10, 32)
	case len(word) == 3 && word[0] == '\'' && word[2] == '\'':
		v64 = int64(word[1])
	case isIdentStart(word[0]):
		name := strings.ToUpper(word)
		for n := range len(word) {
			if !isIdent(word[n]) {
				err = ErrParseNumber(word)
				return
			}
		}
		addr, ok := symbols(name)
		if !ok {
			err = ErrLabelMissing(name)
			return
		}
		value = int(addr)
		return
	default:
		err = ErrParseNumber(word)
		return
	}

	if err != nil {
		err = ErrParseNumber(word)
		return
	}

	value = int(v64)
	return
}

// isSimple reports whether a word needs no expression evaluation.
func isSimple(word string) bool {
	if len(word) == 3 && word[0] == '\'' && word[2] == '\'' {
		return true
	}
	for n := range len(word) {
		ch := word[n]
		if !isIdent(ch) && !(n == 0 && (ch == '$' || ch == '%')) {
			return false
		}
	}
	return true
}

// toStarlark rewrites an assembler expression into starlark source,
// collecting the symbols it references.
func toStarlark(expr string, symbols Symbols, pred starlark.StringDict) (src string, err error) {
	var out strings.Builder

	operand := true
	for n := 0; n < len(expr); {
		ch := expr[n]

		switch {
		case ch == ' ' || ch == '\t':
			out.WriteByte(ch)
			n++
			continue
		case ch == '\'':
			if n+2 >= len(expr) || expr[n+2] != '\'' {
				err = ErrParseNumber(expr[n:])
				return
			}
			fmt.Fprintf(&out, "%d", expr[n+1])
			n += 3
			operand = false
			continue
		case ch == '$' || (ch == '%' && operand) || (ch >= '0' && ch <= '9') || isIdentStart(ch):
			end := n + 1
			for end < len(expr) && isIdent(expr[end]) {
				end++
			}
			word := expr[n:end]
			var value int
			value, err = valueOf(word, symbols)
			if err != nil {
				return
			}
			if isIdentStart(ch) {
				name := strings.ToUpper(word)
				pred[name] = starlark.MakeInt(value)
				out.WriteString(name)
			} else {
				fmt.Fprintf(&out, "%d", value)
			}
			n = end
			operand = false
			continue
		case ch == '(':
			operand = true
		case ch == ')':
			operand = false
		case ch == '/':
			// Integer division only.
			if n+1 < len(expr) && expr[n+1] == '/' {
				n++
			}
			out.WriteString("//")
			n++
			operand = true
			continue
		case ch == '<' || ch == '>':
			if n+1 >= len(expr) || expr[n+1] != ch {
				err = &ErrParseExpression{Expr: expr, Err: ErrParseNumber(string(ch))}
				return
			}
			out.WriteByte(ch)
			out.WriteByte(ch)
			n += 2
			operand = true
			continue
		case strings.IndexByte("+-*%&|^~", ch) >= 0:
			operand = true
		default:
			err = &ErrParseExpression{Expr: expr, Err: ErrParseNumber(string(ch))}
			return
		}

		out.WriteByte(ch)
		n++
	}

	src = out.String()
	return
}

// Evaluate computes the value of an operand expression. Literals and
// symbols are handled directly; anything with operators is evaluated by
// starlark with the referenced symbols predeclared.
func Evaluate(expr string, symbols Symbols) (value int, err error) {
	expr = strings.TrimSpace(expr)
	if len(expr) == 0 {
		err = ErrExpressionEmpty
		return
	}

	if isSimple(expr) {
		return valueOf(expr, symbols)
	}

	pred := starlark.StringDict{}
	src, err := toStarlark(expr, symbols, pred)
	if err != nil {
		return
	}

	thread := starlark.Thread{Name: "expr"}
	opts := syntax.FileOptions{}
	prog := "rc = (" + src + ")\n"
	dict, err := starlark.ExecFileOptions(&opts, &thread, "expr", prog, pred)
	if err != nil {
		err = &ErrParseExpression{Expr: expr, Err: err}
		return
	}

	st_int, ok := dict["rc"].(starlark.Int)
	if !ok {
		err = &ErrParseExpression{Expr: expr, Err: ErrParseNumber(expr)}
		return
	}
	st_int64, ok := st_int.Int64()
	if !ok {
		err = &ErrParseExpression{Expr: expr, Err: ErrParseNumber(expr)}
		return
	}

	value = int(st_int64)
	return
}
