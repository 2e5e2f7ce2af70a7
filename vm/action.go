package vm

import (
	"errors"
)

// arg resolves operand n.
func (m *Machine) arg(args []Word, n int) (value Word, err error) {
	value, err = m.ReadLiteral(args[n])
	if err != nil {
		err = errors.Join(argErr[n], err)
	}
	return
}

// store writes value to the register named by operand n.
func (m *Machine) store(args []Word, n int, value Word) (err error) {
	err = m.WriteLiteral(args[n], value)
	if err != nil {
		err = errors.Join(argErr[n], err)
	}
	return
}

// binary resolves operands 1 and 2, and stores op(b, c) in operand 0.
func (m *Machine) binary(args []Word, op func(b, c uint32) (uint32, error)) (err error) {
	b, err := m.arg(args, 1)
	if err != nil {
		return
	}
	c, err := m.arg(args, 2)
	if err != nil {
		return
	}
	value, err := op(uint32(b), uint32(c))
	if err != nil {
		return
	}
	err = m.store(args, 0, Word(value))
	return
}

// target resolves operand n as a jump destination.
func (m *Machine) target(args []Word, n int) (jump bool, target uint32, err error) {
	addr, err := m.arg(args, n)
	if err != nil {
		return
	}
	jump = true
	target = uint32(addr)
	return
}

func boolWord(cond bool) uint32 {
	if cond {
		return 1
	}
	return 0
}

func opHalt(m *Machine, args []Word) (jump bool, target uint32, err error) {
	return true, IP_HALTED, nil
}

func opSet(m *Machine, args []Word) (jump bool, target uint32, err error) {
	value, err := m.arg(args, 1)
	if err != nil {
		return
	}
	err = m.store(args, 0, value)
	return
}

func opPush(m *Machine, args []Word) (jump bool, target uint32, err error) {
	value, err := m.arg(args, 0)
	if err != nil {
		return
	}
	m.Stack.Push(value)
	return
}

func opPop(m *Machine, args []Word) (jump bool, target uint32, err error) {
	// Validate the destination before disturbing the stack.
	if !args[0].IsRegister() {
		err = m.store(args, 0, 0)
		return
	}
	value, ok := m.Stack.Pop()
	if !ok {
		err = ErrStackUnderflow
		return
	}
	err = m.store(args, 0, value)
	return
}

func opEq(m *Machine, args []Word) (jump bool, target uint32, err error) {
	err = m.binary(args, func(b, c uint32) (uint32, error) { return boolWord(b == c), nil })
	return
}

func opGt(m *Machine, args []Word) (jump bool, target uint32, err error) {
	err = m.binary(args, func(b, c uint32) (uint32, error) { return boolWord(b > c), nil })
	return
}

func opJmp(m *Machine, args []Word) (jump bool, target uint32, err error) {
	return m.target(args, 0)
}

func opJt(m *Machine, args []Word) (jump bool, target uint32, err error) {
	cond, err := m.arg(args, 0)
	if err != nil || cond == 0 {
		return
	}
	return m.target(args, 1)
}

func opJf(m *Machine, args []Word) (jump bool, target uint32, err error) {
	cond, err := m.arg(args, 0)
	if err != nil || cond != 0 {
		return
	}
	return m.target(args, 1)
}

func opAdd(m *Machine, args []Word) (jump bool, target uint32, err error) {
	err = m.binary(args, func(b, c uint32) (uint32, error) { return (b + c) % MODULUS, nil })
	return
}

func opMult(m *Machine, args []Word) (jump bool, target uint32, err error) {
	err = m.binary(args, func(b, c uint32) (uint32, error) { return (b * c) % MODULUS, nil })
	return
}

func opMod(m *Machine, args []Word) (jump bool, target uint32, err error) {
	err = m.binary(args, func(b, c uint32) (uint32, error) {
		if c == 0 {
			return 0, errors.Join(ErrOpcodeArg3, ErrArithmetic)
		}
		return b % c, nil
	})
	return
}

func opAnd(m *Machine, args []Word) (jump bool, target uint32, err error) {
	err = m.binary(args, func(b, c uint32) (uint32, error) { return (b & c) & MASK, nil })
	return
}

func opOr(m *Machine, args []Word) (jump bool, target uint32, err error) {
	err = m.binary(args, func(b, c uint32) (uint32, error) { return (b | c) & MASK, nil })
	return
}

func opNot(m *Machine, args []Word) (jump bool, target uint32, err error) {
	value, err := m.arg(args, 1)
	if err != nil {
		return
	}
	err = m.store(args, 0, ^value&MASK)
	return
}

func opRmem(m *Machine, args []Word) (jump bool, target uint32, err error) {
	addr, err := m.arg(args, 1)
	if err != nil {
		return
	}
	err = m.store(args, 0, m.Memory[addr&MASK])
	return
}

func opWmem(m *Machine, args []Word) (jump bool, target uint32, err error) {
	addr, err := m.arg(args, 0)
	if err != nil {
		return
	}
	value, err := m.arg(args, 1)
	if err != nil {
		return
	}
	m.Memory[addr&MASK] = value
	return
}

func opCall(m *Machine, args []Word) (jump bool, target uint32, err error) {
	jump, target, err = m.target(args, 0)
	if err != nil {
		return
	}
	// Ip already points past the operand.
	m.Stack.Push(Word(m.Ip & MASK))
	return
}

func opRet(m *Machine, args []Word) (jump bool, target uint32, err error) {
	addr, ok := m.Stack.Pop()
	if !ok {
		return true, IP_HALTED, nil
	}
	return true, uint32(addr), nil
}

func opOut(m *Machine, args []Word) (jump bool, target uint32, err error) {
	value, err := m.arg(args, 0)
	if err != nil {
		return
	}
	err = m.writeChar(rune(value))
	return
}

func opIn(m *Machine, args []Word) (jump bool, target uint32, err error) {
	if !args[0].IsRegister() {
		err = m.store(args, 0, 0)
		return
	}
	r, err := m.readChar()
	if err != nil {
		return
	}
	if r >= MODULUS {
		err = errors.Join(ErrOpcodeArg1, ErrInvalidValue)
		return
	}
	err = m.store(args, 0, Word(r))
	return
}

func opNoop(m *Machine, args []Word) (jump bool, target uint32, err error) {
	return
}
