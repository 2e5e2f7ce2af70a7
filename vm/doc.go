// Package vm implements the word machine and its assembler.
//
// The machine has a flat memory of 32768 16-bit words, eight registers
// (r0-r7), an unbounded stack and an instruction pointer. Each of the 22
// instructions is an opcode word followed by zero to three operand words.
// An operand is a literal: values below 32768 stand for themselves, values
// 32768-32775 name registers r0-r7, anything larger is invalid.
//
// The assembler provides a small assembly language for the instruction set,
// supporting labels, equates, macros, data directives and compile-time
// expression evaluation. The disassembler renders memory back into the same
// mnemonics without executing anything.
package vm
