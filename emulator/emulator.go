// Copyright 2025, Jason S. McMullan <jason.mcmullan@gmail.com>

package emulator

import (
	"errors"
	"fmt"
	goio "io"
	"iter"
	"log"
	"maps"

	"github.com/ezrec/wordvm/internal"
	"github.com/ezrec/wordvm/io"
	"github.com/ezrec/wordvm/vm"
)

const (
	ENTRY_POINT = 0 // Address execution starts at.
)

var _emulator_defines = map[string]string{
	"ENTRY_POINT": fmt.Sprintf("%v", ENTRY_POINT),
}

// Emulator state. Machine + console + optional program listing.
type Emulator struct {
	Verbose     bool        // If set, enables verbose logging.
	*vm.Machine             // Reference to the machine simulation.
	Program     *vm.Program // Listing of the loaded program, if assembled.

	Console io.Console // Console IO.
}

// NewEmulator creates a new emulator.
func NewEmulator() (emu *Emulator) {
	emu = &Emulator{
		Machine: vm.NewMachine(),
	}

	emu.Machine.Input = &emu.Console
	emu.Machine.Output = &emu.Console

	return
}

// Defines returns an iterator over all of the defines
func (emu *Emulator) Defines() iter.Seq2[string, string] {
	return internal.IterSeq2Concat(maps.All(_emulator_defines),
		vm.Defines(),
		emu.Console.Defines(),
	)
}

// Close the emulator, flushing pending output.
func (emu *Emulator) Close() (err error) {
	err = emu.Console.Flush()

	return
}

// setVerbose propagates verbosity to the machine.
func (emu *Emulator) setVerbose() {
	emu.Machine.Verbose = emu.Verbose
	if emu.Verbose {
		if emu.Machine.Observer == nil {
			emu.Machine.Observer = &vm.LogObserver{}
		}
	} else if _, ok := emu.Machine.Observer.(*vm.LogObserver); ok {
		emu.Machine.Observer = nil
	}
}

// Reset the machine, and load the assembled program if there is one.
func (emu *Emulator) Reset() (err error) {
	emu.setVerbose()

	emu.Console.Rewind()
	emu.Machine.Reset()

	if emu.Program != nil {
		emu.Machine.LoadWords(emu.Program.Binary())
	}

	emu.Machine.Ip = ENTRY_POINT

	return
}

// Load resets the machine and loads a binary image. Any program listing is
// discarded.
func (emu *Emulator) Load(r goio.Reader) (err error) {
	emu.Program = nil

	err = emu.Reset()
	if err != nil {
		return
	}

	words, err := emu.Machine.Load(r)
	if err != nil {
		return
	}

	if emu.Verbose {
		log.Printf("emulator: image of %d words", words)
	}

	return
}

// LineNo returns the source line number for the executing instruction, or
// 0 if there is no listing.
func (emu *Emulator) LineNo() int {
	if emu.Program == nil || emu.Machine.Halted() {
		return 0
	}

	return emu.Program.LineNo(emu.Machine.Ip)
}

// Tick performs a single instruction. done is set once the machine halts.
func (emu *Emulator) Tick() (done bool, err error) {
	emu.setVerbose()

	ip := emu.Machine.Ip
	lineno := emu.LineNo()
	defer func() {
		if err != nil {
			err = &ErrRuntime{Ip: ip, LineNo: lineno, Err: err}
		}
	}()

	err = emu.Machine.Step()
	if err != nil {
		return
	}

	done = emu.Machine.Halted()

	return
}

// Run executes up to limit instructions, or until halted if limit is
// negative. Output is flushed before returning.
func (emu *Emulator) Run(limit int) (done bool, err error) {
	defer func() {
		flush_err := emu.Console.Flush()
		if err == nil {
			err = flush_err
		}
	}()

	for steps := 0; limit < 0 || steps < limit; steps++ {
		if emu.Machine.Halted() {
			done = true
			return
		}
		_, err = emu.Tick()
		if err != nil {
			return
		}
	}

	done = emu.Machine.Halted()

	return
}

// Fault returns the machine fault wrapped in err, if any.
func Fault(err error) (fault *vm.ErrFault, ok bool) {
	ok = errors.As(err, &fault)
	return
}
