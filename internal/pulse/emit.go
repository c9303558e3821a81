package pulse

import (
	"errors"
	"fmt"
	"math"

	"github.com/roach88/qpulse/internal/ir"
	"github.com/roach88/qpulse/internal/q1asm"
)

// Emit appends the instructions of op to prog and advances its elapsed-time
// counter. It returns the non-fatal warnings raised on the way.
func Emit(op ir.PulseOperation, enc EncodedPulse, prog *q1asm.Program) ([]Warning, error) {
	switch s := op.Shape.(type) {
	case ir.GenericShape:
		return nil, emitGeneric(op, enc, prog)
	case ir.StitchedSquareShape:
		return emitStitchedSquare(op, enc, prog)
	case ir.StaircaseShape:
		return emitStaircase(op, s, prog)
	case ir.MarkerShape:
		return nil, emitMarker(op, s, prog)
	default:
		return nil, newError(ErrCodeUnknownWaveform, op, nil, "pulse has no shape")
	}
}

// DurationNs converts seconds to integer nanoseconds.
func DurationNs(seconds float64) int64 {
	return int64(math.Round(seconds * 1e9))
}

// emitGeneric starts playback and advances one grid time; the waveform
// keeps playing while the following instructions are executed.
func emitGeneric(op ir.PulseOperation, enc EncodedPulse, prog *q1asm.Program) error {
	if enc.Silent() {
		return asPulseError(op, prog.AutoWait(DurationNs(op.Duration)))
	}

	if err := prog.SetGainFromAmplitude(enc.Amp0, enc.Amp1, op.Name); err != nil {
		return asPulseError(op, err)
	}

	// both paths need an index; a silent path reuses the other one at zero gain
	idx0, idx1 := enc.Path0Index, enc.Path1Index
	if idx0 == ir.NoWaveform {
		idx0 = idx1
	}
	if idx1 == ir.NoWaveform {
		idx1 = idx0
	}
	grid := prog.Hardware().GridTimeNs
	prog.EmitWithComment(fmt.Sprintf("play %s (%d ns)", op.Name, enc.Length), q1asm.Play, idx0, idx1, grid)
	prog.Advance(grid)
	return nil
}

func emitStitchedSquare(op ir.PulseOperation, enc EncodedPulse, prog *q1asm.Program) ([]Warning, error) {
	hw := prog.Hardware()
	warnings := []Warning{newWarning(WarnDeprecatedStrategy, op,
		"stitched square pulses are deprecated, use a generic square waveform")}

	duration := DurationNs(op.Duration)
	chunk := hw.StitchDurationNs
	repetitions := duration / chunk

	if err := prog.SetGainFromAmplitude(enc.Amp0, enc.Amp1, op.Name); err != nil {
		return warnings, asPulseError(op, err)
	}

	switch {
	case repetitions > 1:
		label := fmt.Sprintf("stitch%d", prog.Len())
		err := prog.Loop(label, int(repetitions), func() error {
			prog.Emit(q1asm.Play, enc.Path0Index, enc.Path1Index, chunk)
			return nil
		})
		if err != nil {
			return warnings, asPulseError(op, err)
		}
		prog.Advance(repetitions * chunk)
	case repetitions == 1:
		prog.Emit(q1asm.Play, enc.Path0Index, enc.Path1Index, chunk)
		prog.Advance(chunk)
	}

	remaining := duration % chunk
	if remaining == 0 {
		return warnings, nil
	}
	warnings = append(warnings, newWarning(WarnStitchRemainder, op,
		"duration %d ns is not a multiple of the %d ns stitch chunk", duration, chunk))
	if remaining%hw.GridTimeNs != 0 {
		rounded := q1asm.RoundToGrid(remaining, hw.GridTimeNs)
		warnings = append(warnings, newWarning(WarnMisalignedDuration, op,
			"stitch remainder of %d ns rounded to %d ns", remaining, rounded))
		remaining = rounded
	}
	if remaining > 0 {
		prog.Emit(q1asm.Play, enc.Path0Index, enc.Path1Index, remaining)
		prog.EmitWithComment("set to 0 at end of pulse", q1asm.SetAwgGain, 0, 0)
		prog.Advance(remaining)
	}
	return warnings, nil
}

// staircaseParams holds the immediates of a staircase.
type staircaseParams struct {
	startImm int64
	stepImm  int64
	stepNs   int64
	numSteps int
}

// StaircaseLoopAccounting returns the time added after the staircase loop
// for the repetitions beyond the first, which the loop body accounts itself.
func StaircaseLoopAccounting(stepNs int64, numSteps int) int64 {
	if numSteps <= 1 {
		return 0
	}
	return stepNs * int64(numSteps-1)
}

func staircaseParameters(op ir.PulseOperation, s ir.StaircaseShape, hw ir.HardwareConfig) (staircaseParams, error) {
	if s.NumSteps < 1 {
		return staircaseParams{}, newError(ErrCodeInvalidTiming, op, nil, "num_steps must be positive, got %d", s.NumSteps)
	}
	stepNs, err := q1asm.ToGridTime(op.Duration/float64(s.NumSteps), hw.GridTimeNs)
	if err != nil {
		return staircaseParams{}, asPulseError(op, err)
	}
	if stepNs < hw.GridTimeNs {
		return staircaseParams{}, newError(ErrCodeInvalidTiming, op, nil, "step of %d ns is shorter than the grid", stepNs)
	}

	param := "offset_awg_path0"
	if op.IOMode == ir.IOModeImag {
		param = "offset_awg_path1"
	}
	startImm, err := q1asm.ExpandFromNormalisedRange(s.StartAmp, hw.ImmediateSzOffset, param)
	if err != nil {
		return staircaseParams{}, asPulseError(op, err)
	}
	var ampStep float64
	if s.NumSteps > 1 {
		ampStep = (s.FinalAmp - s.StartAmp) / float64(s.NumSteps-1)
	}
	stepImm, err := q1asm.ExpandFromNormalisedRange(ampStep, hw.ImmediateSzOffset, param)
	if err != nil {
		return staircaseParams{}, asPulseError(op, err)
	}
	return staircaseParams{
		startImm: q1asm.ToRegisterImmediate(startImm, hw.RegisterSize),
		stepImm:  stepImm,
		stepNs:   stepNs,
		numSteps: s.NumSteps,
	}, nil
}

// emitStaircase builds the staircase from offset instructions in a loop,
// without waveform memory. The signal appears on path0 for real and complex
// mode and on path1 for imag mode.
func emitStaircase(op ir.PulseOperation, s ir.StaircaseShape, prog *q1asm.Program) ([]Warning, error) {
	hw := prog.Hardware()
	warnings := []Warning{newWarning(WarnDeprecatedStrategy, op,
		"staircase pulses are deprecated, use a generic staircase waveform")}

	params, err := staircaseParameters(op, s, hw)
	if err != nil {
		return warnings, err
	}

	err = prog.TempRegisters(2, func(regs []q1asm.Register) error {
		offs, zero := regs[0], regs[1]
		prog.EmitWithComment("set gain to known value", q1asm.SetAwgGain, hw.ImmediateSzGain/2, hw.ImmediateSzGain/2)
		prog.EmitWithComment("keeps track of the offsets", q1asm.Move, params.startImm, offs)
		prog.EmitWithComment("zero for unused output path", q1asm.Move, 0, zero)

		label := fmt.Sprintf("ramp%d", prog.Len())
		err := prog.Loop(label, params.numSteps, func() error {
			if op.IOMode == ir.IOModeImag {
				prog.Emit(q1asm.SetAwgOffset, zero, offs)
			} else {
				prog.Emit(q1asm.SetAwgOffset, offs, zero)
			}
			prog.Emit(q1asm.UpdParam, hw.GridTimeNs)
			prog.Advance(hw.GridTimeNs)
			if params.stepImm >= 0 {
				prog.EmitWithComment(fmt.Sprintf("next incr offs by %d", params.stepImm), q1asm.Add, offs, params.stepImm, offs)
			} else {
				prog.EmitWithComment(fmt.Sprintf("next decr offs by %d", -params.stepImm), q1asm.Sub, offs, -params.stepImm, offs)
			}
			return prog.AutoWait(params.stepNs - hw.GridTimeNs)
		})
		if err != nil {
			return err
		}
		prog.Advance(StaircaseLoopAccounting(params.stepNs, params.numSteps))
		prog.EmitWithComment("return offset to 0 after staircase", q1asm.SetAwgOffset, 0, 0)
		return nil
	})
	return warnings, asPulseError(op, err)
}

// ResolveMarkerOutput maps a logical marker output to the set_mrk bit for
// the instrument. RF variants reserve the two lowest bits for the output
// switches, and the QRM-RF has outputs 3 and 4 swapped.
func ResolveMarkerOutput(output int, instrumentType string) int {
	if instrumentType == ir.InstrumentQCMRF || instrumentType == ir.InstrumentQRMRF {
		output += 2
	}
	if instrumentType == ir.InstrumentQRMRF {
		switch output {
		case 3:
			output = 4
		case 4:
			output = 3
		}
	}
	return output
}

// maxMarkerBit bounds the set_mrk bit index.
const maxMarkerBit = 15

func emitMarker(op ir.PulseOperation, s ir.MarkerShape, prog *q1asm.Program) error {
	if op.IOMode != ir.IOModeDigital {
		return newError(ErrCodeUnsupportedDigitalMode, op, nil, "marker pulses require digital io_mode, not %s", op.IOMode)
	}
	hw := prog.Hardware()
	bit := ResolveMarkerOutput(s.Output, hw.InstrumentType)
	if bit < 0 || bit > maxMarkerBit {
		return newError(ErrCodeUnsupportedDigitalMode, op, nil, "marker output %d out of range", s.Output)
	}

	duration := DurationNs(op.Duration)
	grid := hw.GridTimeNs
	if duration < 2*grid {
		return newError(ErrCodeInvalidTiming, op, nil, "marker pulse of %d ns is shorter than two grid times", duration)
	}

	defaultMarker := hw.Marker()
	prog.SetMarker((1 << bit) | defaultMarker)
	prog.Emit(q1asm.UpdParam, grid)
	prog.Advance(grid)
	// one grid time per upd_param
	if err := prog.AutoWait(duration - 2*grid); err != nil {
		return asPulseError(op, err)
	}
	prog.SetMarker(defaultMarker)
	prog.Emit(q1asm.UpdParam, grid)
	prog.Advance(grid)
	return nil
}

// asPulseError converts q1asm failures into coded pulse errors.
func asPulseError(op ir.PulseOperation, err error) error {
	if err == nil {
		return nil
	}
	var pe *PulseError
	if errors.As(err, &pe) {
		if pe.Pulse == "" {
			pe.Pulse = op.Name
		}
		return err
	}
	switch {
	case q1asm.IsRangeError(err):
		return newError(ErrCodeAmplitudeRange, op, err, "value outside normalized range")
	case q1asm.IsTimingError(err):
		return newError(ErrCodeInvalidTiming, op, err, "invalid timing")
	case errors.Is(err, q1asm.ErrNoFreeRegister):
		return newError(ErrCodeRegisterExhausted, op, err, "out of registers")
	default:
		return newError(ErrCodeInvalidTiming, op, err, "instruction emission failed")
	}
}
