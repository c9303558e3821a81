package q1asm

import (
	"fmt"
	"strconv"
)

// Register names a general purpose sequencer register.
type Register int

// String renders the register the way Q1ASM expects (R0, R1, ...).
func (r Register) String() string {
	return "R" + strconv.Itoa(int(r))
}

// RegisterManager hands out registers, always the lowest free one first.
type RegisterManager struct {
	inUse []bool
}

// NewRegisterManager creates a manager for n registers.
func NewRegisterManager(n int) *RegisterManager {
	return &RegisterManager{inUse: make([]bool, n)}
}

// Allocate reserves the lowest free register.
func (m *RegisterManager) Allocate() (Register, error) {
	for i, used := range m.inUse {
		if !used {
			m.inUse[i] = true
			return Register(i), nil
		}
	}
	return 0, fmt.Errorf("%w: all %d in use", ErrNoFreeRegister, len(m.inUse))
}

// Free releases r.
func (m *RegisterManager) Free(r Register) error {
	if int(r) < 0 || int(r) >= len(m.inUse) || !m.inUse[r] {
		return fmt.Errorf("%w: %s", ErrRegisterNotAllocated, r)
	}
	m.inUse[r] = false
	return nil
}

// Available returns the number of free registers.
func (m *RegisterManager) Available() int {
	n := 0
	for _, used := range m.inUse {
		if !used {
			n++
		}
	}
	return n
}
