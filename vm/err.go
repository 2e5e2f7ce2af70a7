package vm

import (
	"errors"

	"github.com/ezrec/wordvm/translate"
)

var f = translate.From

var (
	// Machine errors
	ErrOutOfRange         = errors.New(f("literal out of range"))
	ErrInvalidValue       = errors.New(f("value out of range"))
	ErrImmutableTarget    = errors.New(f("cannot assign a numeric literal"))
	ErrStackUnderflow     = errors.New(f("stack underflow"))
	ErrArithmetic         = errors.New(f("division by zero"))
	ErrIllegalInstruction = errors.New(f("illegal instruction"))
	ErrEndOfInput         = errors.New(f("end of input"))
	ErrAlreadyHalted      = errors.New(f("machine halted"))

	// Operand errors
	ErrOpcodeArg1 = errors.New(f("arg1"))
	ErrOpcodeArg2 = errors.New(f("arg2"))
	ErrOpcodeArg3 = errors.New(f("arg3"))

	// Assembler errors
	ErrEquateSyntax       = errors.New(f(".equ syntax"))
	ErrEquateDuplicate    = errors.New(f(".equ duplicated"))
	ErrLabelDuplicate     = errors.New(f("label duplicated"))
	ErrMacroSyntax        = errors.New(f(".macro syntax"))
	ErrMacroNesting       = errors.New(f(".macro in .macro prohibited"))
	ErrMacroDuplicate     = errors.New(f(".macro duplicated"))
	ErrMacroLonely        = errors.New(f(".macro without .endm"))
	ErrMacroLonelyEndm    = errors.New(f(".endm without .macro"))
	ErrOpcodeArgs         = errors.New(f("wrong number of arguments"))
	ErrStringSyntax       = errors.New(f(".string syntax"))
	ErrOriginBackwards    = errors.New(f(".org moves backwards"))
	ErrProgramTooLarge    = errors.New(f("program exceeds memory"))
	ErrInstructionInvalid = errors.New(f("instruction invalid"))
)

// argErr tags operand errors with the operand position.
var argErr = [3]error{ErrOpcodeArg1, ErrOpcodeArg2, ErrOpcodeArg3}

// ErrFault reports a failed step, with the address and opcode word of the
// faulting instruction.
type ErrFault struct {
	Ip     uint32
	Opcode Word
	Err    error
}

func (err *ErrFault) Error() string {
	name := "?"
	if inst, ok := Lookup(err.Opcode); ok {
		name = inst.Name
	}
	return f("fault at %d: %v (opcode %d) %v", err.Ip, name, uint16(err.Opcode), err.Err)
}

func (err *ErrFault) Unwrap() error {
	return err.Err
}

type ErrLabelMissing string

func (el ErrLabelMissing) Error() string {
	return f("label %v missing", string(el))
}

type ErrSyntax struct {
	LineNo int
	Line   string
	Err    error
}

func (err ErrSyntax) Error() string {
	return f("line %d '%v' %v", err.LineNo, err.Line, err.Err)
}

func (err ErrSyntax) Unwrap() error {
	return err.Err
}

type ErrParseNumber string

func (err ErrParseNumber) Error() string {
	return f("'%v' is not a number", string(err))
}

type ErrParseValue string

func (err ErrParseValue) Error() string {
	return f("'%v' is not a value or register", string(err))
}

type ErrParseExpression string

func (err ErrParseExpression) Error() string {
	return f("$(%v) is not a valid expression", string(err))
}

type ErrMacro struct {
	Macro string
	Line  int
	Err   error
}

func (err ErrMacro) Error() string {
	return f("macro %v line %v %v", err.Macro, err.Line, err.Err.Error())
}

func (err ErrMacro) Unwrap() error {
	return err.Err
}
