package vm

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func FuzzStep(f *testing.F) {
	for op := range Word(OP_COUNT + 2) {
		f.Add(uint16(op), uint16(REG_BASE), uint16(7), uint16(0x8001), "x")
		f.Add(uint16(op), uint16(0), uint16(0xffff), uint16(REG_LIMIT), "")
	}

	f.Fuzz(func(t *testing.T, opcode, a, b, c uint16, input string) {
		assert := assert.New(t)

		out := &testOutput{}
		m := loadMachine(Word(opcode), Word(a), Word(b), Word(c))
		m.Output = out
		if len(input) > 0 {
			m.Input = &testInput{Lines: []string{input}}
		}
		for n := range REGISTERS {
			m.Register[n] = Word(n * 1000)
		}
		m.Stack.Push(3)

		err := m.Step()
		if err != nil {
			var fault *ErrFault
			assert.True(errors.As(err, &fault))
			assert.Equal(uint32(0), fault.Ip)
			assert.Equal(uint32(0), m.Ip)
			assert.Equal(0, m.Ticks)
			return
		}

		assert.Equal(1, m.Ticks)
		if !m.Halted() {
			assert.Less(m.Ip, uint32(MEMORY_SIZE))
		}
		for n, value := range m.Register {
			assert.True(value.IsNumber(), "r%d = %d", n, value)
		}
		for _, value := range m.Stack.Data {
			assert.True(value.IsNumber())
		}
	})
}
