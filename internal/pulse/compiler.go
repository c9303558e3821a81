package pulse

import (
	"context"
	"fmt"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"github.com/roach88/qpulse/internal/ir"
	"github.com/roach88/qpulse/internal/q1asm"
	"github.com/roach88/qpulse/internal/wavetable"
)

// Result is the compiled form of one sequencer program.
type Result struct {
	ProgramID string
	Name      string
	Hardware  ir.HardwareConfig
	Program   *q1asm.Program
	Table     *wavetable.Table
	Warnings  []Warning
}

// Compiler turns sequencer programs into waveform tables and instruction
// streams. A Compiler holds no per-program state and may be shared.
type Compiler struct {
	logger *slog.Logger
}

// Option configures a Compiler.
type Option func(*Compiler)

// WithLogger sets the logger used for warnings and progress.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Compiler) {
		c.logger = logger
	}
}

// NewCompiler creates a compiler. Without options it logs to slog.Default().
func NewCompiler(opts ...Option) *Compiler {
	c := &Compiler{logger: slog.Default()}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Compile compiles the pulses of prog in order. Each pulse starts at its
// StartTime, or right after the previous pulse when StartTime is nil; gaps
// are filled with waits and the program is padded to the end of its last
// pulse before stop. Any error aborts the whole program.
func (c *Compiler) Compile(prog ir.SequencerProgram) (*Result, error) {
	hw := prog.Hardware.WithDefaults()
	if err := hw.Validate(); err != nil {
		return nil, fmt.Errorf("program %s: %w", prog.Name, err)
	}
	prog.Hardware = hw

	id, err := ir.ProgramID(prog)
	if err != nil {
		return nil, fmt.Errorf("program %s: %w", prog.Name, err)
	}

	res := &Result{
		ProgramID: id,
		Name:      prog.Name,
		Hardware:  hw,
		Program:   q1asm.NewProgram(hw),
		Table:     wavetable.New(hw.MaxWaveformSamples),
	}
	c.logger.Debug("compiling program",
		"program", prog.Name,
		"program_id", id,
		"pulses", len(prog.Pulses),
	)

	var end int64 // end of the latest pulse so far, ns
	for i, op := range prog.Pulses {
		pulseEnd, warnings, err := c.compilePulse(op, end, res)
		res.Warnings = append(res.Warnings, warnings...)
		if err != nil {
			return nil, fmt.Errorf("program %s, pulse %d: %w", prog.Name, i, err)
		}
		end = max(end, pulseEnd, res.Program.ElapsedTime())
	}

	if pad := q1asm.CeilToGrid(end, hw.GridTimeNs) - res.Program.ElapsedTime(); pad > 0 {
		if err := res.Program.AutoWait(pad); err != nil {
			return nil, fmt.Errorf("program %s: %w", prog.Name, asPulseError(ir.PulseOperation{}, err))
		}
	}
	res.Program.Emit(q1asm.Stop)

	c.logger.Info("program compiled",
		"program", prog.Name,
		"program_id", id,
		"instructions", res.Program.Len(),
		"waveforms", res.Table.Len(),
		"elapsed_ns", res.Program.ElapsedTime(),
		"warnings", len(res.Warnings),
	)
	return res, nil
}

// compilePulse places op after prevEnd, runs generate, map and emit, and
// returns the nominal end of the pulse.
func (c *Compiler) compilePulse(op ir.PulseOperation, prevEnd int64, res *Result) (int64, []Warning, error) {
	if op.Duration <= 0 {
		return 0, nil, newError(ErrCodeInvalidTiming, op, nil, "duration must be positive, got %g s", op.Duration)
	}

	// without an explicit start the pulse follows on the next grid step
	start := q1asm.CeilToGrid(prevEnd, res.Hardware.GridTimeNs)
	if op.StartTime != nil {
		start = DurationNs(*op.StartTime)
	}
	elapsed := res.Program.ElapsedTime()
	if start < elapsed {
		return 0, nil, newError(ErrCodeOverlappingPulse, op, nil,
			"starts at %d ns but the sequencer is already at %d ns", start, elapsed)
	}

	g, err := Generate(op, res.Table, res.Hardware)
	if err != nil {
		return 0, nil, err
	}
	enc, err := MapPaths(g, op.IOMode)
	if err != nil {
		return 0, nil, asPulseError(op, err)
	}

	if err := res.Program.AutoWait(start - elapsed); err != nil {
		return 0, nil, asPulseError(op, err)
	}
	warnings, err := Emit(op, enc, res.Program)
	for _, w := range warnings {
		c.logger.Warn("pulse compiled with warning",
			"code", string(w.Code),
			"pulse", w.Pulse,
			"message", w.Message,
		)
	}
	if err != nil {
		return 0, warnings, err
	}

	c.logger.Debug("pulse emitted",
		"pulse", op.Name,
		"shape", string(op.Shape.Kind()),
		"start_ns", start,
		"elapsed_ns", res.Program.ElapsedTime(),
	)
	return start + DurationNs(op.Duration), warnings, nil
}

// CompileAll compiles independent programs concurrently. Programs share no
// state; results are returned in input order. The first error cancels the
// remaining work.
func (c *Compiler) CompileAll(ctx context.Context, progs []ir.SequencerProgram) ([]*Result, error) {
	results := make([]*Result, len(progs))
	g, ctx := errgroup.WithContext(ctx)
	for i, prog := range progs {
		i, prog := i, prog
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			res, err := c.Compile(prog)
			if err != nil {
				return err
			}
			results[i] = res
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}
