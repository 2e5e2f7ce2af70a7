package vm

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStep_AddOut(t *testing.T) {
	assert := assert.New(t)

	out := &testOutput{}
	m := loadMachine(9, 32768, 4, 5, 19, 32768, 0)
	m.Output = out

	assert.NoError(m.Step())
	assert.Equal(Word(9), m.Register[0])
	assert.Equal(uint32(4), m.Ip)

	assert.NoError(m.Step())
	assert.Equal([]byte{9}, out.Bytes())

	assert.NoError(m.Step())
	assert.True(m.Halted())
	assert.Equal(3, m.Ticks)
}

func TestStep_Noop(t *testing.T) {
	assert := assert.New(t)

	m := loadMachine(21)
	before := *m

	assert.NoError(m.Step())
	assert.Equal(uint32(1), m.Ip)
	assert.Equal(before.Register, m.Register)
	assert.Equal(before.Memory, m.Memory)
	assert.True(m.Stack.Empty())
}

func TestStep_IllegalInstruction(t *testing.T) {
	assert := assert.New(t)

	m := loadMachine(21, 99)
	assert.NoError(m.Step())

	err := m.Step()
	assert.ErrorIs(err, ErrIllegalInstruction)

	var fault *ErrFault
	if assert.ErrorAs(err, &fault) {
		assert.Equal(uint32(1), fault.Ip)
		assert.Equal(Word(99), fault.Opcode)
	}
	assert.Equal(uint32(1), m.Ip)
	assert.False(m.Halted())

	// Still faulting on a retry.
	assert.ErrorIs(m.Step(), ErrIllegalInstruction)
}

func TestStep_Halted(t *testing.T) {
	assert := assert.New(t)

	m := loadMachine(0)
	assert.NoError(m.Step())
	assert.True(m.Halted())

	err := m.Step()
	assert.ErrorIs(err, ErrAlreadyHalted)
	assert.Equal(1, m.Ticks)
}

func TestStep_Wrap(t *testing.T) {
	assert := assert.New(t)

	// set r0 7 at 32766, its last operand wrapping to address 0.
	m := loadMachine(7)
	m.Ip = MEMORY_SIZE - 2
	m.Memory[MEMORY_SIZE-2] = Word(OP_SET)
	m.Memory[MEMORY_SIZE-1] = r0

	assert.NoError(m.Step())
	assert.Equal(Word(7), m.Register[0])
	assert.Equal(uint32(1), m.Ip)
}

func TestRun_Limit(t *testing.T) {
	assert := assert.New(t)

	// 0: add r0 r0 1; 4: jmp 0
	m := loadMachine(9, r0, r0, 1, 6, 0)

	steps, err := m.Run(10)
	assert.NoError(err)
	assert.Equal(10, steps)
	assert.Equal(Word(5), m.Register[0])
	assert.False(m.Halted())

	steps, err = m.RunTo(16)
	assert.NoError(err)
	assert.Equal(6, steps)
	assert.Equal(16, m.Ticks)
	assert.Equal(Word(8), m.Register[0])

	steps, err = m.RunTo(10)
	assert.NoError(err)
	assert.Equal(0, steps)
}

func TestRun_Halt(t *testing.T) {
	assert := assert.New(t)

	// 0: add r0 r0 1; 4: eq r1 r0 3; 8: jf r1 0; 11: halt
	m := loadMachine(9, r0, r0, 1, 4, r1, r0, 3, 8, r1, 0, 0)

	steps, err := m.Run(-1)
	assert.NoError(err)
	assert.Equal(10, steps)
	assert.True(m.Halted())
	assert.Equal(Word(3), m.Register[0])

	steps, err = m.Run(-1)
	assert.NoError(err)
	assert.Equal(0, steps)
}

func TestRun_Fault(t *testing.T) {
	assert := assert.New(t)

	m := loadMachine(21, 21, 3, r0)

	steps, err := m.Run(-1)
	assert.ErrorIs(err, ErrStackUnderflow)
	assert.Equal(2, steps)
	assert.Equal(uint32(2), m.Ip)
}

type recordObserver struct {
	steps  []string
	writes map[int]Word
	reads  int
}

func (ro *recordObserver) Step(ip uint32, inst *Instruction, args []Word) {
	ro.steps = append(ro.steps, FormatInstruction(inst.Name, args))
}

func (ro *recordObserver) Register(reg int, value Word, write bool) {
	if write {
		ro.writes[reg] = value
	} else {
		ro.reads++
	}
}

func TestStep_Observer(t *testing.T) {
	assert := assert.New(t)

	ro := &recordObserver{writes: map[int]Word{}}
	m := loadMachine(1, r1, 40, 9, r2, r1, 2, 0)
	m.Observer = ro

	_, err := m.Run(-1)
	assert.NoError(err)
	assert.Equal([]string{"set R1 40", "add R2 R1 2", "halt"}, ro.steps)
	assert.Equal(map[int]Word{1: 40, 2: 42}, ro.writes)
	assert.Equal(1, ro.reads)

	// The same program without an observer behaves identically.
	plain := loadMachine(1, r1, 40, 9, r2, r1, 2, 0)
	_, err = plain.Run(-1)
	assert.NoError(err)
	assert.Equal(m.Register, plain.Register)
}

func TestLogObserver(t *testing.T) {
	assert := assert.New(t)

	m := loadMachine(1, r1, 40, 0)
	m.Observer = &LogObserver{Registers: true}

	_, err := m.Run(-1)
	assert.NoError(err)
	assert.Equal(Word(40), m.Register[1])
}
