// Copyright 2025, Jason S. McMullan <jason.mcmullan@gmail.com>

package vm

// Step executes a single instruction. On failure the instruction pointer is
// left at the faulting instruction and the error is an *ErrFault.
func (m *Machine) Step() (err error) {
	if m.Halted() {
		err = ErrAlreadyHalted
		return
	}

	ip := m.Ip
	opcode := m.fetch(ip)

	defer func() {
		if err != nil {
			m.Ip = ip
			err = &ErrFault{Ip: ip, Opcode: opcode, Err: err}
		}
	}()

	inst, ok := Lookup(opcode)
	if !ok {
		err = ErrIllegalInstruction
		return
	}

	var argv [3]Word
	args := argv[:inst.Args]
	for n := range args {
		args[n] = m.fetch(ip + 1 + uint32(n))
	}

	if m.Observer != nil {
		m.Observer.Step(ip, inst, args)
	}

	m.Ip = (ip + 1 + uint32(inst.Args)) & MASK

	jump, target, err := inst.Action(m, args)
	if err != nil {
		return
	}

	if jump {
		m.Ip = target
	}

	m.Ticks++

	return
}

// Run executes up to limit instructions; a negative limit runs until the
// machine halts. Reaching the halt is not an error.
func (m *Machine) Run(limit int) (steps int, err error) {
	for limit < 0 || steps < limit {
		if m.Halted() {
			return
		}
		err = m.Step()
		if err != nil {
			return
		}
		steps++
	}

	return
}

// RunTo executes instructions until Ticks reaches total, or the machine
// halts.
func (m *Machine) RunTo(total int) (steps int, err error) {
	if total <= m.Ticks {
		return
	}

	return m.Run(total - m.Ticks)
}
