package q1asm

import "errors"

var (
	// ErrAmplitudeRange indicates a normalized value outside [-1, 1].
	ErrAmplitudeRange = errors.New("q1asm: value outside normalized range [-1, 1]")
	// ErrInvalidTiming indicates a duration that cannot be expressed on the grid.
	ErrInvalidTiming = errors.New("q1asm: invalid timing")
	// ErrNoFreeRegister indicates every register is allocated.
	ErrNoFreeRegister = errors.New("q1asm: no free register")
	// ErrRegisterNotAllocated indicates a free of a register that is not in use.
	ErrRegisterNotAllocated = errors.New("q1asm: register not allocated")
	// ErrInvalidRepetitions indicates a loop with fewer than one repetition.
	ErrInvalidRepetitions = errors.New("q1asm: loop repetitions must be positive")
)
