package emulator

import (
	"bytes"
	"errors"
	"maps"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/ezrec/wordvm/vm"
)

func TestEmulator(t *testing.T) {
	assert := assert.New(t)

	emu := NewEmulator()

	assert.False(emu.Verbose)
	assert.NotNil(emu.Machine)
	assert.Nil(emu.Program)
	assert.Equal(&emu.Console, emu.Machine.Input)
	assert.Equal(&emu.Console, emu.Machine.Output)
}

func TestEmulator_Defines(t *testing.T) {
	assert := assert.New(t)

	emu := NewEmulator()
	defines := maps.Collect(emu.Defines())

	assert.Equal("0", defines["ENTRY_POINT"])
	assert.Equal("10", defines["NEWLINE"])
	assert.Equal("32768", defines["MODULUS"])
}

func doAssemble(emu *Emulator, program []string, t *testing.T) {
	t.Helper()

	asm := &vm.Assembler{}
	for key, value := range emu.Defines() {
		asm.Predefine(key, value)
	}
	prog, err := asm.Parse(strings.NewReader(strings.Join(program, "\n")))
	if err != nil {
		t.Fatal(err)
	}
	emu.Program = prog

	err = emu.Reset()
	if err != nil {
		t.Fatal(err)
	}
}

func doRun(program []string, input string, t *testing.T) (output string, err error) {
	emu := NewEmulator()
	doAssemble(emu, program, t)

	out := &bytes.Buffer{}
	emu.Console.Input = strings.NewReader(input)
	emu.Console.Output = out

	_, err = emu.Run(10000)
	output = out.String()
	return
}

func TestEmulator_Tick(t *testing.T) {
	assert := assert.New(t)

	program := []string{
		"add r0 4 5",
		"out r0",
		"halt",
	}

	emu := NewEmulator()
	doAssemble(emu, program, t)
	out := &bytes.Buffer{}
	emu.Console.Output = out

	for n := range program {
		assert.Equal(n+1, emu.LineNo())
		done, err := emu.Tick()
		assert.NoError(err, program[n])
		assert.Equal(n == len(program)-1, done, program[n])
	}
	assert.Equal(0, emu.LineNo())

	assert.NoError(emu.Close())
	assert.Equal([]byte{9}, out.Bytes())
}

func TestEmulator_Echo(t *testing.T) {
	assert := assert.New(t)

	program := []string{
		"LOOP:",
		"in r0",
		"eq r1 r0 NEWLINE",
		"jt r1 DONE",
		"add r0 r0 1",
		"out r0",
		"jmp LOOP",
		"DONE:",
		"out NEWLINE",
		"halt",
	}

	output, err := doRun(program, "HAL\n", t)
	assert.NoError(err)
	assert.Equal("IBM\n", output)
}

func TestEmulator_PartialLine(t *testing.T) {
	assert := assert.New(t)

	program := []string{
		"in r0",
		"in r1",
		"out r1",
		"out r0",
		"halt",
	}

	output, err := doRun(program, "x", t)
	assert.NoError(err)
	assert.Equal("\nx", output)
}

func TestEmulator_Fault(t *testing.T) {
	assert := assert.New(t)

	program := []string{
		`print "ok"`,
		"pop r0",
		"halt",
	}

	output, err := doRun(program, "", t)
	assert.ErrorIs(err, vm.ErrStackUnderflow)
	assert.Equal("ok", output)

	var runtime *ErrRuntime
	if assert.True(errors.As(err, &runtime)) {
		assert.Equal(2, runtime.LineNo)
		assert.Equal(uint32(4), runtime.Ip)
	}

	fault, ok := Fault(err)
	if assert.True(ok) {
		assert.Equal(uint32(4), fault.Ip)
		assert.Equal(vm.Word(vm.OP_POP), fault.Opcode)
	}
}

func TestEmulator_EndOfInput(t *testing.T) {
	assert := assert.New(t)

	output, err := doRun([]string{"in r0", "halt"}, "", t)
	assert.ErrorIs(err, vm.ErrEndOfInput)
	assert.Empty(output)
}

func TestEmulator_Run_Limit(t *testing.T) {
	assert := assert.New(t)

	emu := NewEmulator()
	doAssemble(emu, []string{"SPIN: jmp SPIN"}, t)

	done, err := emu.Run(100)
	assert.NoError(err)
	assert.False(done)
	assert.Equal(100, emu.Machine.Ticks)

	// Reset reloads the program.
	emu.Machine.Memory[0] = vm.Word(vm.OP_HALT)
	assert.NoError(emu.Reset())
	assert.Equal(vm.Word(vm.OP_JMP), emu.Machine.Memory[0])
	assert.Equal(0, emu.Machine.Ticks)
}

func TestEmulator_Load(t *testing.T) {
	assert := assert.New(t)

	image := []vm.Word{9, 32768, 4, 5, 19, 32768, 0}
	buf := &bytes.Buffer{}
	_, err := vm.WriteImage(buf, image)
	assert.NoError(err)

	emu := NewEmulator()
	emu.Program = &vm.Program{}
	assert.NoError(emu.Load(buf))
	assert.Nil(emu.Program)
	assert.Equal(0, emu.LineNo())

	out := &bytes.Buffer{}
	emu.Console.Output = out

	done, err := emu.Run(-1)
	assert.NoError(err)
	assert.True(done)
	assert.Equal([]byte{9}, out.Bytes())
}

func TestEmulator_Verbose(t *testing.T) {
	assert := assert.New(t)

	emu := NewEmulator()
	emu.Verbose = true
	doAssemble(emu, []string{"noop", "halt"}, t)

	_, ok := emu.Machine.Observer.(*vm.LogObserver)
	assert.True(ok)

	done, err := emu.Run(-1)
	assert.NoError(err)
	assert.True(done)

	emu.Verbose = false
	assert.NoError(emu.Reset())
	assert.Nil(emu.Machine.Observer)
}

func TestEmulator_ConsoleEcho(t *testing.T) {
	assert := assert.New(t)

	program := []string{
		"LOOP:",
		"in r0",
		"out r0",
		"eq r1 r0 NEWLINE",
		"jf r1 LOOP",
		"halt",
	}

	emu := NewEmulator()
	doAssemble(emu, program, t)

	out := &bytes.Buffer{}
	echo := &bytes.Buffer{}
	emu.Console.Input = strings.NewReader("look\n")
	emu.Console.Output = out
	emu.Console.Echo = echo

	done, err := emu.Run(-1)
	assert.NoError(err)
	assert.True(done)
	assert.Equal("look\n", out.String())
	assert.Equal(">>> look\n", echo.String())
}
