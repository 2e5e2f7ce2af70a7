// Copyright 2025, Jason S. McMullan <jason.mcmullan@gmail.com>

package vm

import (
	"errors"
	"fmt"
	"io"
	"log"
	"strings"
)

// Input is a line-buffered text source. ReadLine returns one full line,
// including its trailing newline.
type Input interface {
	ReadLine() (line string, err error)
}

// Output is a character sink that can be flushed.
type Output interface {
	WriteRune(r rune) (size int, err error)
	Flush() error
}

// Machine is the state of a word machine: instruction pointer, registers,
// stack and memory, plus the console it talks to.
type Machine struct {
	Verbose bool // Set to enable verbose logging.

	Ip       uint32            // Address of the next opcode, or IP_HALTED.
	Register [REGISTERS]Word   // Register bank.
	Stack    Stack             // Call and data stack.
	Memory   [MEMORY_SIZE]Word // Word memory.

	Ticks int // Steps executed since reset.

	Input    Input    // Source for 'in'.
	Output   Output   // Sink for 'out'. Nil discards output.
	Observer Observer // Optional step and register observer.

	line []rune // Unconsumed remainder of the current input line.
}

// NewMachine creates a new, zeroed machine.
func NewMachine() (m *Machine) {
	m = &Machine{}

	return
}

// Reset clears registers, stack, memory, pending input and counters, and
// points the instruction pointer at address 0.
func (m *Machine) Reset() {
	if m.Verbose {
		log.Printf("vm: reset")
	}

	m.Ip = 0
	clear(m.Register[:])
	clear(m.Memory[:])
	m.Stack.Reset()
	m.Ticks = 0
	m.line = nil
}

// Halted reports whether the machine has halted.
func (m *Machine) Halted() bool {
	return m.Ip == IP_HALTED
}

// ReadLiteral resolves a literal: numbers stand for themselves, register
// references yield the register's contents.
func (m *Machine) ReadLiteral(lit Word) (value Word, err error) {
	switch {
	case lit < REG_BASE:
		value = lit
	case lit < REG_LIMIT:
		reg := int(lit - REG_BASE)
		value = m.Register[reg]
		if m.Observer != nil {
			m.Observer.Register(reg, value, false)
		}
	default:
		err = ErrOutOfRange
	}

	return
}

// WriteLiteral stores value into the register named by lit.
func (m *Machine) WriteLiteral(lit Word, value Word) (err error) {
	if value >= MODULUS {
		err = ErrInvalidValue
		return
	}

	switch {
	case lit < REG_BASE:
		err = ErrImmutableTarget
	case lit < REG_LIMIT:
		reg := int(lit - REG_BASE)
		m.Register[reg] = value
		if m.Observer != nil {
			m.Observer.Register(reg, value, true)
		}
	default:
		err = ErrOutOfRange
	}

	return
}

// fetch reads a memory word; addresses wrap at the end of memory.
func (m *Machine) fetch(addr uint32) Word {
	return m.Memory[addr&MASK]
}

// readChar consumes one character of input, pulling a new line when the
// current one is used up.
func (m *Machine) readChar() (r rune, err error) {
	if len(m.line) == 0 {
		if m.Input == nil {
			err = ErrEndOfInput
			return
		}
		var text string
		text, err = m.Input.ReadLine()
		if len(text) == 0 {
			if err == nil || errors.Is(err, io.EOF) {
				err = ErrEndOfInput
			} else {
				err = errors.Join(ErrEndOfInput, err)
			}
			return
		}
		err = nil
		if !strings.HasSuffix(text, "\n") {
			text += "\n"
		}
		m.line = []rune(text)
	}

	r = m.line[0]
	m.line = m.line[1:]

	return
}

// writeChar sends one character to the output, flushing on newline.
func (m *Machine) writeChar(r rune) (err error) {
	if m.Output == nil {
		return
	}

	_, err = m.Output.WriteRune(r)
	if err != nil {
		return
	}

	if r == '\n' {
		err = m.Output.Flush()
	}

	return
}

// String returns the current machine state as a string.
func (m *Machine) String() (text string) {
	if m.Halted() {
		text += fmt.Sprintf("% 5s: %v\n", "ip", "halted")
	} else {
		text += fmt.Sprintf("% 5s: %05d\n", "ip", m.Ip)
	}
	for n, val := range m.Register {
		text += fmt.Sprintf("% 5s: %05d\n", fmt.Sprintf("r%d", n), val)
	}
	strval := "-----"
	if val, ok := m.Stack.Peek(); ok {
		strval = fmt.Sprintf("%05d", val)
	}
	text += fmt.Sprintf("% 5s: %v (depth %d)\n", "stack", strval, m.Stack.Len())

	return
}
