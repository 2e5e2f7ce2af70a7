package vm

import (
	"fmt"
	"strings"
)

// Opcode is an instruction number.
type Opcode Word

const (
	OP_HALT = Opcode(0)  // halt
	OP_SET  = Opcode(1)  // set a b
	OP_PUSH = Opcode(2)  // push a
	OP_POP  = Opcode(3)  // pop a
	OP_EQ   = Opcode(4)  // eq a b c
	OP_GT   = Opcode(5)  // gt a b c
	OP_JMP  = Opcode(6)  // jmp a
	OP_JT   = Opcode(7)  // jt a b
	OP_JF   = Opcode(8)  // jf a b
	OP_ADD  = Opcode(9)  // add a b c
	OP_MULT = Opcode(10) // mult a b c
	OP_MOD  = Opcode(11) // mod a b c
	OP_AND  = Opcode(12) // and a b c
	OP_OR   = Opcode(13) // or a b c
	OP_NOT  = Opcode(14) // not a b
	OP_RMEM = Opcode(15) // rmem a b
	OP_WMEM = Opcode(16) // wmem a b
	OP_CALL = Opcode(17) // call a
	OP_RET  = Opcode(18) // ret
	OP_OUT  = Opcode(19) // out a
	OP_IN   = Opcode(20) // in a
	OP_NOOP = Opcode(21) // noop

	OP_COUNT = 22 // Number of opcodes.
)

// Action performs an instruction on the machine, given its raw operands.
// When jump is set, target replaces the instruction pointer.
type Action func(m *Machine, args []Word) (jump bool, target uint32, err error)

// Instruction is an entry of the opcode table.
type Instruction struct {
	Opcode Opcode // Instruction number.
	Name   string // Mnemonic.
	Args   int    // Operand count.
	Action Action // Semantics.
}

// Instructions is the opcode table, indexed by opcode.
var Instructions = [OP_COUNT]Instruction{
	{OP_HALT, "halt", 0, opHalt},
	{OP_SET, "set", 2, opSet},
	{OP_PUSH, "push", 1, opPush},
	{OP_POP, "pop", 1, opPop},
	{OP_EQ, "eq", 3, opEq},
	{OP_GT, "gt", 3, opGt},
	{OP_JMP, "jmp", 1, opJmp},
	{OP_JT, "jt", 2, opJt},
	{OP_JF, "jf", 2, opJf},
	{OP_ADD, "add", 3, opAdd},
	{OP_MULT, "mult", 3, opMult},
	{OP_MOD, "mod", 3, opMod},
	{OP_AND, "and", 3, opAnd},
	{OP_OR, "or", 3, opOr},
	{OP_NOT, "not", 2, opNot},
	{OP_RMEM, "rmem", 2, opRmem},
	{OP_WMEM, "wmem", 2, opWmem},
	{OP_CALL, "call", 1, opCall},
	{OP_RET, "ret", 0, opRet},
	{OP_OUT, "out", 1, opOut},
	{OP_IN, "in", 1, opIn},
	{OP_NOOP, "noop", 0, opNoop},
}

// opcodeMap maps mnemonics to opcodes.
var opcodeMap = func() map[string]Opcode {
	names := make(map[string]Opcode, OP_COUNT)
	for _, inst := range Instructions {
		names[inst.Name] = inst.Opcode
	}
	return names
}()

// Lookup returns the opcode table entry for an opcode word.
func Lookup(word Word) (inst *Instruction, ok bool) {
	if int(word) >= len(Instructions) {
		return
	}

	return &Instructions[word], true
}

// String returns the mnemonic of the opcode.
func (op Opcode) String() string {
	inst, ok := Lookup(Word(op))
	if !ok {
		return fmt.Sprintf("Opcode(%d)", uint16(op))
	}
	return inst.Name
}

// FormatLiteral renders an operand for listings: small numbers in decimal,
// numbers with the top bit set as negative, registers as R0-R7 and invalid
// encodings as ?value/Rn.
func FormatLiteral(lit Word) string {
	switch {
	case lit < MODULUS/2:
		return fmt.Sprintf("%d", lit)
	case lit < REG_BASE:
		return fmt.Sprintf("%d", int(lit)-MODULUS)
	case lit < REG_LIMIT:
		return fmt.Sprintf("R%d", lit-REG_BASE)
	default:
		return fmt.Sprintf("?%d/R%d", lit, int(lit)-MODULUS)
	}
}

// FormatInstruction renders a mnemonic and its raw operands.
func FormatInstruction(name string, args []Word) string {
	var sb strings.Builder
	sb.WriteString(name)
	for _, arg := range args {
		sb.WriteByte(' ')
		sb.WriteString(FormatLiteral(arg))
	}
	return sb.String()
}
