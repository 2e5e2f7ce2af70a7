package vm

import (
	"log"
)

// Observer watches a running machine. A nil Observer costs nothing.
type Observer interface {
	// Step is called before an instruction executes, with its raw operands.
	Step(ip uint32, inst *Instruction, args []Word)
	// Register is called on every register read or write made through
	// literal resolution.
	Register(reg int, value Word, write bool)
}

// LogObserver traces execution through the standard logger.
type LogObserver struct {
	Registers bool // Also trace register accesses.
}

var _ Observer = (*LogObserver)(nil)

func (lo *LogObserver) Step(ip uint32, inst *Instruction, args []Word) {
	log.Printf("vm: %05d: %v", ip, FormatInstruction(inst.Name, args))
}

func (lo *LogObserver) Register(reg int, value Word, write bool) {
	if !lo.Registers {
		return
	}
	if write {
		log.Printf("vm: r%d <- %d", reg, value)
	} else {
		log.Printf("vm: r%d -> %d", reg, value)
	}
}
