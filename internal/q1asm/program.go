package q1asm

import (
	"errors"
	"fmt"
	"strings"

	"github.com/roach88/qpulse/internal/ir"
)

// Program is an instruction stream for one sequencer together with its
// elapsed-time counter.
//
// A Program is not safe for concurrent use.
type Program struct {
	hw           ir.HardwareConfig
	instructions []Instruction
	elapsed      int64
	registers    *RegisterManager
}

// NewProgram creates an empty program for hw. Zero hardware fields take
// their defaults.
func NewProgram(hw ir.HardwareConfig) *Program {
	hw = hw.WithDefaults()
	return &Program{
		hw:        hw,
		registers: NewRegisterManager(hw.NumRegisters),
	}
}

// Hardware returns the configuration the program was built for.
func (p *Program) Hardware() ir.HardwareConfig {
	return p.hw
}

// Emit appends an instruction. Register arguments render as Rn; every other
// argument is formatted with fmt.Sprint.
func (p *Program) Emit(mnemonic string, args ...any) {
	p.EmitWithComment("", mnemonic, args...)
}

// EmitWithComment appends an instruction carrying a listing comment.
func (p *Program) EmitWithComment(comment, mnemonic string, args ...any) {
	p.instructions = append(p.instructions, Instruction{
		Mnemonic: mnemonic,
		Args:     formatArgs(args),
		Comment:  comment,
	})
}

// EmitLabel appends a label row. The next instruction is the jump target.
func (p *Program) EmitLabel(label string) {
	p.instructions = append(p.instructions, Instruction{Label: label})
}

// Instructions returns the emitted rows. The slice must not be modified.
func (p *Program) Instructions() []Instruction {
	return p.instructions
}

// Len returns the number of emitted rows.
func (p *Program) Len() int {
	return len(p.instructions)
}

// ElapsedTime returns the counter in ns.
func (p *Program) ElapsedTime() int64 {
	return p.elapsed
}

// Advance moves the elapsed-time counter forward by ns.
func (p *Program) Advance(ns int64) {
	p.elapsed += ns
}

// Registers returns the program's register manager.
func (p *Program) Registers() *RegisterManager {
	return p.registers
}

// TempRegisters allocates n registers for the duration of body and frees
// them afterwards, also when body fails.
func (p *Program) TempRegisters(n int, body func(regs []Register) error) (err error) {
	regs := make([]Register, 0, n)
	defer func() {
		for _, r := range regs {
			if ferr := p.registers.Free(r); ferr != nil && err == nil {
				err = ferr
			}
		}
	}()
	for i := 0; i < n; i++ {
		r, aerr := p.registers.Allocate()
		if aerr != nil {
			return aerr
		}
		regs = append(regs, r)
	}
	return body(regs)
}

// Loop emits body once inside a counted loop:
//
//	move   reps,Rn
//	label:
//	       <body>
//	loop   Rn,@label
//
// The elapsed-time counter is left to the caller.
func (p *Program) Loop(label string, reps int, body func() error) error {
	if reps < 1 {
		return fmt.Errorf("%w: %s has %d", ErrInvalidRepetitions, label, reps)
	}
	return p.TempRegisters(1, func(regs []Register) error {
		counter := regs[0]
		p.EmitWithComment(fmt.Sprintf("iterator for loop with label %s", label), Move, reps, counter)
		p.EmitLabel(label)
		if err := body(); err != nil {
			return err
		}
		p.Emit(Loop, counter, "@"+label)
		return nil
	})
}

// AutoWait emits the waits needed to let ns nanoseconds pass and advances
// the counter by ns. ns must be a multiple of the grid time. Waits longer
// than the largest immediate are split, using a loop when more than one
// full-length wait is needed.
func (p *Program) AutoWait(ns int64) error {
	grid := p.hw.GridTimeNs
	switch {
	case ns < 0:
		return fmt.Errorf("%w: negative wait of %d ns", ErrInvalidTiming, ns)
	case ns == 0:
		return nil
	case ns%grid != 0:
		return fmt.Errorf("%w: wait of %d ns is not a multiple of the %d ns grid", ErrInvalidTiming, ns, grid)
	}

	maxWait := p.hw.ImmediateMaxWaitNs
	if ns <= maxWait {
		p.EmitWithComment(fmt.Sprintf("auto generated wait (%d ns)", ns), Wait, ns)
		p.Advance(ns)
		return nil
	}

	reps := ns / maxWait
	tail := ns % maxWait
	switch {
	case reps > 1:
		label := fmt.Sprintf("wait_loop%d", p.Len())
		err := p.Loop(label, int(reps), func() error {
			p.Emit(Wait, maxWait)
			return nil
		})
		if err != nil {
			return err
		}
	case reps == 1:
		p.Emit(Wait, maxWait)
	}
	if tail > 0 {
		p.EmitWithComment(fmt.Sprintf("auto generated wait (%d ns)", ns), Wait, tail)
	}
	p.Advance(ns)
	return nil
}

// SetGainFromAmplitude emits set_awg_gain for the two normalized path
// amplitudes. Negative gains are wrapped into the register range.
func (p *Program) SetGainFromAmplitude(amp0, amp1 float64, name string) error {
	imm0, err := ExpandFromNormalisedRange(amp0, p.hw.ImmediateSzGain, "gain_awg_path0")
	if err != nil {
		return err
	}
	imm1, err := ExpandFromNormalisedRange(amp1, p.hw.ImmediateSzGain, "gain_awg_path1")
	if err != nil {
		return err
	}
	p.EmitWithComment(fmt.Sprintf("setting gain for %s", name), SetAwgGain,
		ToRegisterImmediate(imm0, p.hw.RegisterSize),
		ToRegisterImmediate(imm1, p.hw.RegisterSize))
	return nil
}

// SetMarker emits set_mrk with the given marker bits.
func (p *Program) SetMarker(bits int) {
	p.EmitWithComment(fmt.Sprintf("set markers to %d (0b%04b)", bits, bits), SetMarker, bits)
}

// Format renders the listing, one row per line.
func (p *Program) Format() string {
	var b strings.Builder
	for _, in := range p.instructions {
		b.WriteString(in.String())
		b.WriteByte('\n')
	}
	return b.String()
}

// String implements fmt.Stringer.
func (p *Program) String() string {
	return p.Format()
}

// IsTimingError reports whether err is a grid or wait timing failure.
func IsTimingError(err error) bool {
	return errors.Is(err, ErrInvalidTiming)
}

// IsRangeError reports whether err is a normalized-range failure.
func IsRangeError(err error) bool {
	return errors.Is(err, ErrAmplitudeRange)
}
