// Copyright 2024, Jason S. McMullan <jason.mcmullan@gmail.com>

package cpu

import (
	"bufio"
	"cmp"
	"fmt"
	"io"
	"log"
	"maps"
	"regexp"
	"slices"
	"strings"
	"unicode/utf8"
)

// Assembler is a two pass assembler for the 6502 instruction set.
type Assembler struct {
	Verbose bool // If set, verbosely logs the assembler actions.

	predefine map[string]uint16 // Host symbols, shadowed by labels.
}

// Predefine defines a new host symbol or redefines an existing one.
func (asm *Assembler) Predefine(name string, value string) (err error) {
	v, err := valueOf(value, func(string) (uint16, bool) { return 0, false })
	if err != nil {
		return
	}

	if asm.predefine == nil {
		asm.predefine = make(map[string]uint16)
	}
	asm.predefine[strings.ToUpper(name)] = uint16(v)
	return
}

// stmtKind classifies a source line after pass 1.
type stmtKind int

const (
	STMT_NONE = stmtKind(iota)
	STMT_ORG
	STMT_BYTE
	STMT_INSTRUCTION
)

// statement is one source line, with the decisions pass 1 made for it.
type statement struct {
	lineNo   int
	line     string
	label    string
	mnemonic string
	operand  string

	kind    stmtKind
	address uint16
	inst    Instruction
	expr    string   // Operand expression resolved in pass 2.
	items   []string // .BYTE values.
	data    []byte   // .BYTE string literal.
	size    int
}

var (
	reLabel       = regexp.MustCompile(`^([A-Za-z_][A-Za-z0-9_]*):`)
	reIndexedX    = regexp.MustCompile(`(?i)^(.*?)\s*,\s*X$`)
	reIndexedY    = regexp.MustCompile(`(?i)^(.*?)\s*,\s*Y$`)
	reIndirectX   = regexp.MustCompile(`(?i)^\((.*?)\s*,\s*X\s*\)$`)
	reIndirectY   = regexp.MustCompile(`(?i)^(\(.*\))\s*,\s*Y$`)
	reStringBytes = regexp.MustCompile(`^"([^"]*)"\s*$`)
)

// stripComment removes a ';' comment that is not inside a quoted literal.
func stripComment(text string) string {
	var quote byte
	for n := range len(text) {
		ch := text[n]
		switch {
		case quote != 0:
			if ch == quote {
				quote = 0
			}
		case ch == '"' || ch == '\'':
			quote = ch
		case ch == ';':
			return text[:n]
		}
	}
	return text
}

// enclosed reports whether the opening parenthesis of text is closed by its
// final character.
func enclosed(text string) bool {
	if len(text) < 2 || text[0] != '(' || text[len(text)-1] != ')' {
		return false
	}
	depth := 0
	for n := range len(text) {
		switch text[n] {
		case '(':
			depth++
		case ')':
			depth--
			if depth == 0 && n != len(text)-1 {
				return false
			}
		}
	}
	return depth == 0
}

// splitLine separates the label, mnemonic and operand of a source line.
func splitLine(text string) (label, mnemonic, operand string) {
	line := strings.TrimSpace(stripComment(text))

	if match := reLabel.FindStringSubmatch(line); match != nil {
		label = strings.ToUpper(match[1])
		line = strings.TrimSpace(line[len(match[0]):])
	}

	if len(line) == 0 {
		return
	}

	mnemonic = line
	if n := strings.IndexAny(line, " \t"); n >= 0 {
		mnemonic = line[:n]
		operand = strings.TrimSpace(line[n:])
	}
	mnemonic = strings.ToUpper(mnemonic)
	return
}

// assembly is the per-call state of an assembler run.
type assembly struct {
	*Assembler

	labels  map[string]uint16
	sourced map[string]bool // Every label named in the source.
	errors  []error
}

// symbol resolves a label, then a host symbol that no source label shadows.
func (as *assembly) symbol(name string) (value uint16, ok bool) {
	value, ok = as.labels[name]
	if !ok && !as.sourced[name] {
		value, ok = as.predefine[name]
	}
	return
}

func (as *assembly) diagnose(st *statement, err error) {
	if as.Verbose {
		log.Printf("%v: %v", st.lineNo, err)
	}
	as.errors = append(as.errors, &ErrSyntax{LineNo: st.lineNo, Line: st.line, Err: err})
}

// selectMode infers the addressing mode from the operand syntax. Values
// that cannot be resolved yet select the widest encoding available.
func (as *assembly) selectMode(m Mnemonic, operand string) (inst Instruction, expr string, err error) {
	mode := MODE_IMPLIED
	upper := strings.ToUpper(operand)

	// pick chooses the zero-page form when the value fits a byte.
	pick := func(base string, zp, abs Mode) Mode {
		expr = base
		value, err := Evaluate(base, as.symbol)
		small := err == nil && value >= 0 && value <= 0xFF
		switch {
		case small && Has(m, zp):
			return zp
		case Has(m, abs):
			return abs
		default:
			return zp
		}
	}

	switch {
	case len(operand) == 0:
		switch {
		case Has(m, MODE_IMPLIED):
			mode = MODE_IMPLIED
		case Has(m, MODE_ACCUMULATOR):
			mode = MODE_ACCUMULATOR
		default:
			err = ErrOperandMissing
			return
		}
	case upper == "A":
		mode = MODE_ACCUMULATOR
	case operand[0] == '#':
		mode = MODE_IMMEDIATE
		expr = operand[1:]
	case reIndirectX.MatchString(operand):
		mode = MODE_INDEXED_INDIRECT
		expr = reIndirectX.FindStringSubmatch(operand)[1]
	case reIndirectY.MatchString(operand) && enclosed(reIndirectY.FindStringSubmatch(operand)[1]):
		mode = MODE_INDIRECT_INDEXED
		inner := reIndirectY.FindStringSubmatch(operand)[1]
		expr = inner[1 : len(inner)-1]
	case enclosed(operand):
		mode = MODE_INDIRECT
		expr = operand[1 : len(operand)-1]
	case reIndexedX.MatchString(operand):
		mode = pick(reIndexedX.FindStringSubmatch(operand)[1], MODE_ZERO_PAGE_X, MODE_ABSOLUTE_X)
	case reIndexedY.MatchString(operand):
		mode = pick(reIndexedY.FindStringSubmatch(operand)[1], MODE_ZERO_PAGE_Y, MODE_ABSOLUTE_Y)
	case Has(m, MODE_RELATIVE):
		mode = MODE_RELATIVE
		expr = operand
	default:
		mode = pick(operand, MODE_ZERO_PAGE, MODE_ABSOLUTE)
	}

	inst, ok := Lookup(m, mode)
	if !ok {
		err = &ErrMode{Mnemonic: m, Operand: operand}
		return
	}

	if inst.Length > 1 && len(strings.TrimSpace(expr)) == 0 {
		err = ErrOperandMissing
		return
	}

	return
}

// pass1 binds labels and sizes every line.
func (as *assembly) pass1(lines []string) (stmts []*statement) {
	cursor := uint16(LOAD_ADDRESS)

	for n, text := range lines {
		st := &statement{lineNo: n + 1, line: text}
		st.label, st.mnemonic, st.operand = splitLine(text)
		st.address = cursor
		stmts = append(stmts, st)

		if as.Verbose {
			log.Printf("%v: %v", st.lineNo, text)
		}

		if len(st.label) != 0 {
			if _, dup := as.labels[st.label]; dup {
				as.diagnose(st, ErrDuplicate(st.label))
			}
			as.labels[st.label] = cursor
		}

		if len(st.mnemonic) == 0 {
			continue
		}

		if strings.Contains(st.mnemonic, ":") {
			as.diagnose(st, fmt.Errorf("%w: %v", ErrLabelSyntax, st.mnemonic))
			continue
		}

		switch st.mnemonic {
		case ".ORG":
			value, err := Evaluate(st.operand, as.symbol)
			if err != nil {
				as.diagnose(st, fmt.Errorf("%w: %w", ErrOriginSyntax, err))
				continue
			}
			st.kind = STMT_ORG
			cursor = uint16(value)
			st.address = cursor
			continue
		case ".BYTE":
			switch {
			case len(st.operand) == 0:
				as.diagnose(st, ErrByteSyntax)
				continue
			case st.operand[0] == '"':
				match := reStringBytes.FindStringSubmatch(st.operand)
				if match == nil {
					as.diagnose(st, ErrByteSyntax)
					continue
				}
				for _, r := range match[1] {
					st.data = append(st.data, byte(r))
				}
				st.size = utf8.RuneCountInString(match[1])
			default:
				st.items = strings.Split(st.operand, ",")
				st.size = len(st.items)
			}
			st.kind = STMT_BYTE
			cursor += uint16(st.size)
			continue
		}

		m, ok := ParseMnemonic(st.mnemonic)
		if !ok {
			if st.mnemonic[0] == '.' {
				as.diagnose(st, fmt.Errorf("%w: %v", ErrDirectiveUnknown, st.mnemonic))
			} else {
				as.diagnose(st, ErrMnemonic(st.mnemonic))
			}
			continue
		}

		inst, expr, err := as.selectMode(m, st.operand)
		if err != nil {
			as.diagnose(st, err)
			continue
		}

		st.kind = STMT_INSTRUCTION
		st.inst = inst
		st.expr = expr
		st.size = inst.Length
		cursor += uint16(st.size)
	}

	return
}

// resolve evaluates an operand against the complete label table,
// substituting 0 on failure.
func (as *assembly) resolve(st *statement, expr string) int {
	value, err := Evaluate(expr, as.symbol)
	if err != nil {
		as.diagnose(st, err)
		return 0
	}
	return value
}

// pass2 emits code for every line using the pass 1 decisions.
func (as *assembly) pass2(stmts []*statement) (prog *Program) {
	prog = &Program{
		Start:   LOAD_ADDRESS,
		LineMap: make(map[uint16]int),
	}

	started := false
	var backwards *statement
	var origin *statement

	for _, st := range stmts {
		switch st.kind {
		case STMT_ORG:
			origin = st
			if !started {
				prog.Start = st.address
			}
			continue
		case STMT_BYTE, STMT_INSTRUCTION:
		default:
			continue
		}

		if !started {
			prog.Start = st.address
			started = true
		}

		// The output is flat: a forward .ORG zero-fills the gap.
		offset := int(st.address) - int(prog.Start)
		if offset < len(prog.Code) {
			if origin != nil && origin != backwards {
				backwards = origin
				as.diagnose(origin, ErrOriginBackwards)
			}
			continue
		}
		for range offset - len(prog.Code) {
			prog.Code = append(prog.Code, 0)
		}

		var code []byte
		switch st.kind {
		case STMT_BYTE:
			code = st.data
			for _, item := range st.items {
				if len(strings.TrimSpace(item)) == 0 {
					as.diagnose(st, ErrByteSyntax)
					code = append(code, 0)
					continue
				}
				code = append(code, byte(as.resolve(st, item)))
			}
		case STMT_INSTRUCTION:
			inst := st.inst
			prog.LineMap[st.address] = st.lineNo
			code = append(code, inst.Opcode)
			if inst.Length == 1 {
				break
			}
			value := as.resolve(st, st.expr)
			switch inst.Mode {
			case MODE_RELATIVE:
				disp := value - (int(st.address) + 2)
				if disp < -128 || disp > 127 {
					as.diagnose(st, ErrBranchRange(disp))
				}
				code = append(code, byte(disp))
			case MODE_ZERO_PAGE, MODE_ZERO_PAGE_X, MODE_ZERO_PAGE_Y:
				if value < 0 || value > 0xFF {
					as.diagnose(st, &ErrMode{Mnemonic: inst.Mnemonic, Operand: st.operand})
				}
				code = append(code, byte(value))
			default:
				code = append(code, byte(value))
				if inst.Length == 3 {
					code = append(code, byte(value>>8))
				}
			}
		}

		if as.Verbose {
			log.Printf("%04X: % X", st.address, code)
		}
		prog.Code = append(prog.Code, code...)
	}

	return
}

// Assemble assembles source text into a Program. It never fails: problems
// are reported as line-numbered diagnostics in Program.Errors, and any
// diagnostic suppresses the machine code.
func (asm *Assembler) Assemble(source string) (prog *Program) {
	as := &assembly{
		Assembler: asm,
		labels:    make(map[string]uint16),
		sourced:   make(map[string]bool),
	}

	lines := strings.Split(strings.ReplaceAll(source, "\r\n", "\n"), "\n")
	for _, text := range lines {
		label, _, _ := splitLine(text)
		if len(label) != 0 {
			as.sourced[label] = true
		}
	}

	stmts := as.pass1(lines)
	prog = as.pass2(stmts)
	prog.Labels = maps.Clone(as.labels)

	slices.SortStableFunc(as.errors, func(a, b error) int {
		return cmp.Compare(a.(*ErrSyntax).LineNo, b.(*ErrSyntax).LineNo)
	})
	prog.Errors = as.errors

	if len(prog.Errors) != 0 {
		prog.Code = []byte{}
		clear(prog.LineMap)
	}

	return
}

// Parse reads source text from a stream and assembles it. The returned
// error reports only stream failures; see Program.Err for diagnostics.
func (asm *Assembler) Parse(input io.Reader) (prog *Program, err error) {
	scanner := bufio.NewScanner(input)

	var lines []string
	for scanner.Scan() {
		lines = append(lines, scanner.Text())
	}
	err = scanner.Err()
	if err != nil {
		return
	}

	prog = asm.Assemble(strings.Join(lines, "\n"))
	return
}

// Assemble assembles source text with a default Assembler.
func Assemble(source string) *Program {
	asm := &Assembler{}
	return asm.Assemble(source)
}
