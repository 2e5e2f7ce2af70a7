// Copyright 2025, Jason S. McMullan <jason.mcmullan@gmail.com>

package vm

import (
	"bufio"
	"fmt"
	"io"
	"log"
	"maps"
	"regexp"
	"slices"
	"strconv"
	"strings"

	"go.starlark.net/starlark"
	"go.starlark.net/syntax"
)

// Macro represents a macro definition in the assembly language.
type Macro struct {
	LineNo int      // Line number of the macro definition.
	Args   []string // Arguments for the macro.
	Lines  []string // Lines of macro text to expand.
}

// Predefined system equates
var sysEquate = map[string]string{
	"LINENO": "0",
}

// Assembler is a single pass macro assembler for the word machine.
type Assembler struct {
	Verbose   bool        // If set, verbosely logs the assembler actions.
	Statement []Statement // List of generated statements.

	predefine map[string]string   // Predefines
	Label     map[string]int      // Map of labels to addresses.
	Equate    map[string]string   // Map of equates.
	Macro     map[string](*Macro) // Map of macros.

	origin    int // Address of the next generated word.
	expansion int // Count of macro expansions, for unique @ labels.
}

// Predefine defines a new equate or redefines an existing equate.
func (asm *Assembler) Predefine(equ string, value string) {
	if asm.predefine == nil {
		asm.predefine = map[string]string{equ: value}
	} else {
		asm.predefine[equ] = value
	}
}

// regMap is a map of register names to literals.
var regMap = map[string]Word{
	"r0": REG_BASE + 0, "r1": REG_BASE + 1, "r2": REG_BASE + 2, "r3": REG_BASE + 3,
	"r4": REG_BASE + 4, "r5": REG_BASE + 5, "r6": REG_BASE + 6, "r7": REG_BASE + 7,
}

var (
	reLabel  = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_.]*$`)
	reChar   = regexp.MustCompile(`'\\?[^']'`)
	reString = regexp.MustCompile(`"(\\.|[^"\\])*"`)
	reParen  = regexp.MustCompile(`\$\([^\$]*\)`)
)

// valueOf returns the value of a numeric word. Negative numbers wrap into
// the upper half of the 15-bit range.
func (asm *Assembler) valueOf(word string) (value Word, err error) {
	invert := false
	if word[0] == '~' {
		invert = true
		word = word[1:]
	}
	v64, err := strconv.ParseInt(strings.ReplaceAll(word, "_", ""), 0, 32)
	if err != nil || v64 < -MODULUS || v64 > 0xffff {
		err = ErrParseNumber(word)
		return
	}

	if v64 < 0 {
		v64 += MODULUS
	}
	value = Word(v64)

	if invert {
		value = ^value & MASK
	}

	return
}

// operand encodes a single operand word. Words that are neither registers
// nor numbers are labels, resolved when the program is linked.
func (asm *Assembler) operand(word string) (value Word, label string, err error) {
	value, ok := regMap[strings.ToLower(word)]
	if ok {
		return
	}

	if reLabel.MatchString(word) {
		label = word
		return
	}

	value, err = asm.valueOf(word)
	if err != nil {
		err = ErrParseValue(word)
	}
	return
}

// parenEval does compile-time $(...) evaluations
func (asm *Assembler) parenEval(expr string) (value Word, err error) {
	thread := starlark.Thread{}
	opts := syntax.FileOptions{}
	pred := starlark.StringDict{}
	for key, str := range asm.Equate {
		var word Word
		word, err = asm.valueOf(str)
		if err != nil {
			// Ignore non-integer equates. They may be registers
			// or something else.
			err = nil
			continue
		}
		pred[key] = starlark.MakeInt(int(word))
	}
	for key, ip := range asm.Label {
		pred[key] = starlark.MakeInt(ip)
	}
	prog := "rc=" + expr + "\n"
	dict, err := starlark.ExecFileOptions(&opts, &thread, "expr", prog, pred)
	if err != nil {
		return
	}
	st_rc, ok := dict["rc"]
	if !ok {
		err = ErrParseExpression(expr)
		return
	}
	st_int, ok := st_rc.(starlark.Int)
	if !ok {
		err = ErrParseExpression(expr)
		return
	}
	st_int64, ok := st_int.Int64()
	if !ok || st_int64 < -MODULUS || st_int64 > 0xffff {
		err = ErrParseExpression(expr)
		return
	}
	if st_int64 < 0 {
		st_int64 += MODULUS
	}
	value = Word(st_int64)
	return
}

// unescape decodes a backslash escape, returning false if unknown.
func unescape(c byte) (out byte, ok bool) {
	ok = true
	switch c {
	case '\\', '\'', '"':
		out = c
	case 'n':
		out = '\n'
	case 'r':
		out = '\r'
	case 't':
		out = '\t'
	case 'e':
		out = '\033'
	case '0':
		out = 0
	default:
		ok = false
	}
	return
}

// stripComment removes a ';' comment, ignoring ';' in quotes.
func stripComment(text string) string {
	quote := byte(0)
	for n := 0; n < len(text); n++ {
		c := text[n]
		switch {
		case quote != 0 && c == '\\':
			n++
		case quote != 0 && c == quote:
			quote = 0
		case quote == 0 && (c == '"' || c == '\''):
			quote = c
		case quote == 0 && c == ';':
			return text[:n]
		}
	}
	return text
}

// parseLine expands a single line into words, handling equates, labels and
// macros.
func (asm *Assembler) parseLine(line string, lineno int) (words []string, err error) {
	// Set line number.
	asm.Equate["LINENO"] = fmt.Sprintf("%v", lineno)

	// Do "string" evaluations
	line = reString.ReplaceAllStringFunc(line, func(word string) string {
		str := word[1 : len(word)-1]
		var codes []string
		for n := 0; n < len(str); n++ {
			c := str[n]
			if c == '\\' && n+1 < len(str) {
				n++
				esc, ok := unescape(str[n])
				if !ok {
					err = ErrStringSyntax
				}
				c = esc
			}
			codes = append(codes, fmt.Sprintf("%v", c))
		}
		return strings.Join(codes, " ")
	})
	if err != nil {
		return
	}

	// Do 'x' evaluations
	line = reChar.ReplaceAllStringFunc(line, func(word string) string {
		str := word[1 : len(word)-1]
		if str[0] == '\\' {
			c, ok := unescape(str[1])
			if !ok {
				return word
			}
			return fmt.Sprintf("%v", c)
		} else if len(str) != 1 {
			return word
		}
		return fmt.Sprintf("%v", str[0])
	})

	// Do $() evaluations
	line = reParen.ReplaceAllStringFunc(line, func(str string) string {
		value, _err := asm.parenEval(str[2 : len(str)-1])
		if _err != nil {
			err = _err
		}
		return fmt.Sprintf("%v", value)
	})
	if err != nil {
		return
	}

	words = strings.Fields(line)

	if len(words) == 0 {
		return
	}

	// .equ CONST VALUE
	if words[0] == ".equ" {
		if len(words) != 3 {
			err = ErrEquateSyntax
			return
		}
		_, ok := asm.Equate[words[1]]
		if ok {
			err = ErrEquateDuplicate
			return
		}
		asm.Equate[words[1]] = words[2]
		words = words[:0]
		return
	}

	for n, word := range words {
		// Check for equate next
		equate, ok := asm.Equate[word]
		if ok {
			words[n] = equate
		}
	}

	for strings.HasSuffix(words[0], ":") {
		label := words[0][:len(words[0])-1]
		_, ok := asm.Label[label]
		if ok {
			err = ErrLabelDuplicate
			return
		}

		asm.Label[label] = asm.origin
		words = words[1:]
		if len(words) == 0 {
			return
		}
	}

	// .macro processing
	macro, ok := asm.Macro[words[0]]
	if ok {
		name := words[0]

		args := words[1:]
		if len(args) != len(macro.Args) {
			err = ErrMacroSyntax
			return
		}
		// Turn args into equs
		old_equate := maps.Clone(asm.Equate)
		for n, arg := range macro.Args {
			asm.Equate[arg] = args[n]
		}
		defer func() { asm.Equate = old_equate }()

		asm.expansion++
		prefix := fmt.Sprintf("%v_%v_", name, asm.expansion)
		for n, line := range macro.Lines {
			lineno := macro.LineNo + n

			line = strings.ReplaceAll(line, "@", prefix)
			words, err = asm.parseLine(line, lineno)
			if err != nil {
				err = &ErrMacro{Macro: name, Line: lineno, Err: err}
				return
			}

			err = asm.parseWords(words, lineno)
			if err != nil {
				err = &ErrMacro{Macro: name, Line: lineno, Err: err}
				return
			}
		}

		words = nil
		return
	}

	return
}

// Parse parses an input stream into an assembled Program.
func (asm *Assembler) Parse(input io.Reader) (prog *Program, err error) {
	scanner := bufio.NewScanner(input)

	var line string
	var lineno int
	var macro *Macro

	defer func() {
		if err != nil {
			err = &ErrSyntax{LineNo: lineno, Line: line, Err: err}
		}
	}()

	asm.Statement = asm.Statement[:0]
	asm.origin = 0
	asm.expansion = 0
	asm.Label = make(map[string]int, 16)
	asm.Macro = make(map[string](*Macro))
	asm.Equate = maps.Clone(sysEquate)
	for attr, val := range asm.predefine {
		asm.Equate[attr] = val
	}

	for scanner.Scan() {
		text := scanner.Text()
		lineno += 1

		if asm.Verbose {
			log.Printf("asm: %v: %v", lineno, text)
		}

		line = strings.TrimSpace(stripComment(text))
		words := strings.Fields(line)

		// .macro NAME arg...
		if len(words) > 0 && words[0] == ".macro" {
			if macro != nil {
				err = ErrMacroNesting
				return
			}
			if len(words) < 2 {
				err = ErrMacroSyntax
				return
			}
			_, ok := asm.Macro[words[1]]
			if ok {
				err = ErrMacroDuplicate
				return
			}
			macro = &Macro{
				LineNo: lineno + 1,
			}
			if len(words) > 2 {
				macro.Args = words[2:]
			}
			asm.Macro[words[1]] = macro
			continue
		}

		if len(words) > 0 && words[0] == ".endm" {
			if macro == nil {
				err = ErrMacroLonelyEndm
				return
			}
			macro = nil
			continue
		}

		if macro != nil {
			macro.Lines = append(macro.Lines, line)
			continue
		}

		words, err = asm.parseLine(line, lineno)
		if err != nil {
			return
		}

		err = asm.parseWords(words, lineno)
		if err != nil {
			return
		}
	}

	err = scanner.Err()
	if err != nil {
		return
	}

	if macro != nil {
		err = ErrMacroLonely
		return
	}

	// Final linking of labels.
	for n := range asm.Statement {
		st := &asm.Statement[n]
		for _, link := range st.Links {
			ip, ok := asm.Label[link.Label]
			if !ok {
				lineno = st.LineNo
				line = strings.Join(st.Words, " ")
				err = ErrLabelMissing(link.Label)
				return
			}
			st.Codes[link.Index] = Word(ip)
		}
	}

	prog = &Program{
		Statements: slices.Clone(asm.Statement),
		Labels:     maps.Clone(asm.Label),
	}

	return
}

// emit appends a statement at the current origin.
func (asm *Assembler) emit(st Statement) (err error) {
	if asm.origin+len(st.Codes) > MEMORY_SIZE {
		err = ErrProgramTooLarge
		return
	}
	st.Ip = asm.origin
	asm.origin += len(st.Codes)
	asm.Statement = append(asm.Statement, st)
	return
}

// encode appends the operand words to a statement.
func (asm *Assembler) encode(st *Statement, words []string) (err error) {
	for _, word := range words {
		value, label, err := asm.operand(word)
		if err != nil {
			return err
		}
		if len(label) != 0 {
			st.Links = append(st.Links, Link{Index: len(st.Codes), Label: label})
		}
		st.Codes = append(st.Codes, value)
	}
	return
}

// parseWords evaluates the words in a line of assembly text.
func (asm *Assembler) parseWords(words []string, lineno int) (err error) {
	// no-op
	if len(words) == 0 {
		return
	}

	switch words[0] {
	case ".org":
		if len(words) != 2 {
			err = ErrOpcodeArgs
			return
		}
		var addr Word
		addr, err = asm.valueOf(words[1])
		if err != nil {
			return
		}
		if int(addr) < asm.origin {
			err = ErrOriginBackwards
			return
		}
		asm.origin = int(addr)
		return
	case ".word", ".string":
		st := Statement{LineNo: lineno, Words: words}
		err = asm.encode(&st, words[1:])
		if err != nil {
			return
		}
		err = asm.emit(st)
		return
	case "print":
		// print CHAR... => out CHAR, one per character
		for _, word := range words[1:] {
			err = asm.parseWords([]string{"out", word}, lineno)
			if err != nil {
				return
			}
		}
		return
	}

	op, ok := opcodeMap[words[0]]
	if !ok {
		err = ErrInstructionInvalid
		return
	}

	inst := &Instructions[op]
	if len(words)-1 != inst.Args {
		err = ErrOpcodeArgs
		return
	}

	st := Statement{LineNo: lineno, Words: words, Codes: []Word{Word(op)}}
	err = asm.encode(&st, words[1:])
	if err != nil {
		return
	}

	err = asm.emit(st)
	return
}
