package vm

import (
	"fmt"
	"strings"
)

// Line is one disassembled instruction.
type Line struct {
	Ip    uint32 // Address of the opcode.
	Words []Word // Opcode and operand words.
	Text  string // Rendered instruction.
}

// String returns the line as "ip: text".
func (line Line) String() string {
	return fmt.Sprintf("%d: %s", line.Ip, line.Text)
}

// Disassemble renders the instructions starting in [ip, ip+span) of mem.
// Unknown opcodes render as ILLOP and occupy one word. An instruction whose
// operands run past the end of mem is rendered partially, marked EOM, and
// ends the listing.
func Disassemble(mem []Word, ip uint32, span int) (lines []Line) {
	end := uint64(ip) + uint64(max(span, 0))
	size := uint64(len(mem))

	for addr := uint64(ip); addr < end && addr < size; {
		opcode := mem[addr]
		line := Line{Ip: uint32(addr), Words: []Word{opcode}}

		inst, ok := Lookup(opcode)
		if !ok {
			line.Text = fmt.Sprintf("ILLOP %d", opcode)
			lines = append(lines, line)
			addr++
			continue
		}

		var sb strings.Builder
		sb.WriteString(inst.Name)
		for n := range uint64(inst.Args) {
			if addr+1+n >= size {
				sb.WriteString(" EOM")
				line.Text = sb.String()
				lines = append(lines, line)
				return
			}
			arg := mem[addr+1+n]
			line.Words = append(line.Words, arg)
			sb.WriteByte(' ')
			sb.WriteString(FormatLiteral(arg))
		}

		line.Text = sb.String()
		lines = append(lines, line)
		addr += 1 + uint64(inst.Args)
	}

	return
}

// Disassemble renders the machine's memory starting at ip.
func (m *Machine) Disassemble(ip uint32, span int) []Line {
	return Disassemble(m.Memory[:], ip, span)
}
