package vm

import (
	"fmt"
	"iter"
	"maps"
)

// Word is a 16-bit machine word. Values produced by arithmetic are always
// below MODULUS; memory may hold any 16-bit value, as operands that name
// registers are stored there.
type Word uint16

const (
	MODULUS     = 1 << 15     // Arithmetic modulus.
	MASK        = MODULUS - 1 // 15-bit value mask.
	MEMORY_SIZE = MODULUS     // Words of memory.
	REGISTERS   = 8           // Number of general registers.

	REG_BASE  = Word(MODULUS)             // Literal naming r0.
	REG_LIMIT = Word(MODULUS + REGISTERS) // First invalid literal.

	IP_HALTED = ^uint32(0) // Instruction pointer of a halted machine.
)

var _vm_defines = map[string]string{
	"MODULUS":     fmt.Sprintf("%v", MODULUS),
	"MASK":        fmt.Sprintf("%v", MASK),
	"MEMORY_SIZE": fmt.Sprintf("%v", MEMORY_SIZE),
}

// Defines returns the machine constants available to assembly source.
func Defines() iter.Seq2[string, string] {
	return maps.All(_vm_defines)
}

// Register returns the literal that names register n.
func Register(n int) Word {
	return REG_BASE + Word(n)
}

// IsRegister reports whether the literal names a register.
func (w Word) IsRegister() bool {
	return w >= REG_BASE && w < REG_LIMIT
}

// IsNumber reports whether the literal is a numeric constant.
func (w Word) IsNumber() bool {
	return w < REG_BASE
}
