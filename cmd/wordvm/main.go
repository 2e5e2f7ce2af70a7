// Copyright 2025, Jason S. McMullan <jason.mcmullan@gmail.com>

package main

import (
	"flag"
	"fmt"
	"log"
	"os"

	"golang.org/x/term"

	"github.com/ezrec/wordvm/emulator"
	"github.com/ezrec/wordvm/internal"
	"github.com/ezrec/wordvm/translate"
	"github.com/ezrec/wordvm/vm"
)

func main() {
	var compile string
	var save string
	var disasm bool
	var addr uint
	var span int
	var steps int
	var input string
	var output string
	var echo bool
	var verbose bool
	var defines bool

	flag.StringVar(&compile, "c", "", ".asm file to assemble")
	flag.StringVar(&save, "s", "", "Save assembled image to file, do not execute")
	flag.BoolVar(&disasm, "d", false, "Disassemble the image, do not execute")
	flag.UintVar(&addr, "a", 0, "Disassembly start address")
	flag.IntVar(&span, "n", vm.MEMORY_SIZE, "Disassembly span in words")
	flag.IntVar(&steps, "steps", -1, "Maximum steps to execute (-1 for no limit)")
	flag.StringVar(&input, "i", "-", "Console input")
	flag.StringVar(&output, "o", "-", "Console output")
	flag.BoolVar(&echo, "echo", false, "Echo input lines to stderr (default when input is not a terminal)")
	flag.BoolVar(&verbose, "v", false, "Verbose mode")
	flag.BoolVar(&defines, "defines", false, "List the predefined assembler equates, and exit")

	flag.Parse()

	if verbose {
		log.Printf("%v: locale %v", os.Args[0], translate.Tag())
	}

	emu := emulator.NewEmulator()
	emu.Verbose = verbose
	defer emu.Close()

	if defines {
		for key, value := range internal.IterSeq2Sorted(emu.Defines()) {
			fmt.Printf(".equ %v %v\n", key, value)
		}
		return
	}

	switch {
	case len(compile) != 0:
		if flag.NArg() != 0 {
			log.Fatalf("%v: Unknown arguments: %v", os.Args[0], flag.Args())
		}
		inf, err := os.Open(compile)
		if err != nil {
			log.Fatalf("%v: %v", compile, err)
		}
		defer inf.Close()

		asm := &vm.Assembler{Verbose: verbose}
		for key, value := range emu.Defines() {
			asm.Predefine(key, value)
		}
		prog, err := asm.Parse(inf)
		if err != nil {
			log.Fatalf("%v: %v", compile, err)
		}
		emu.Program = prog
		err = emu.Reset()
		if err != nil {
			log.Fatalf("%v: %v", compile, err)
		}
	case flag.NArg() == 1:
		image := flag.Arg(0)
		inf, err := os.Open(image)
		if err != nil {
			log.Fatalf("%v: %v", image, err)
		}
		defer inf.Close()

		err = emu.Load(inf)
		if err != nil {
			log.Fatalf("%v: %v", image, err)
		}
	default:
		fmt.Fprintf(os.Stderr, "usage: %v [flags] <image.bin> | -c <file.asm>\n", os.Args[0])
		flag.PrintDefaults()
		os.Exit(1)
	}

	if len(save) != 0 {
		if emu.Program == nil {
			log.Fatalf("%v: -s requires -c", os.Args[0])
		}
		ouf, err := os.Create(save)
		if err != nil {
			log.Fatalf("%v: %v", save, err)
		}
		_, err = emu.Program.WriteTo(ouf)
		if err == nil {
			err = ouf.Close()
		}
		if err != nil {
			log.Fatalf("%v: %v", save, err)
		}
		return
	}

	if disasm {
		for _, line := range emu.Machine.Disassemble(uint32(addr), span) {
			fmt.Println(line)
		}
		return
	}

	if input == "-" {
		emu.Console.Input = os.Stdin
		if !term.IsTerminal(int(os.Stdin.Fd())) {
			echo = true
		}
	} else {
		inf, err := os.Open(input)
		if err != nil {
			log.Fatalf("%v: %v", input, err)
		}
		defer inf.Close()
		emu.Console.Input = inf
		echo = true
	}
	if echo {
		emu.Console.Echo = os.Stderr
	}

	if output == "-" {
		emu.Console.Output = os.Stdout
	} else {
		ouf, err := os.Create(output)
		if err != nil {
			log.Fatalf("%v: %v", output, err)
		}
		defer ouf.Close()
		emu.Console.Output = ouf
	}

	done, err := emu.Run(steps)
	if err != nil {
		if fault, ok := emulator.Fault(err); ok && verbose {
			log.Printf("%v", emu.Machine.String())
			for _, line := range emu.Machine.Disassemble(fault.Ip, 1) {
				log.Printf("%v", line)
			}
		}
		log.Fatal(err)
	}
	if !done && verbose {
		log.Printf("%v: stopped after %d steps", os.Args[0], emu.Machine.Ticks)
	}
}
