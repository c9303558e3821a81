package testutil

import "github.com/roach88/qpulse/internal/ir"

// Nanoseconds converts integer nanoseconds to the seconds used by
// ir.PulseOperation.
func Nanoseconds(ns int64) float64 {
	return float64(ns) * 1e-9
}

// Square returns a generic square pulse.
func Square(name string, durationNs int64, amp float64, mode ir.IOMode) ir.PulseOperation {
	return Generic(name, durationNs, mode, "square", map[string]float64{"amp": amp})
}

// Generic returns a generic pulse sampled from the named shape function.
func Generic(name string, durationNs int64, mode ir.IOMode, fn string, params map[string]float64) ir.PulseOperation {
	return ir.PulseOperation{
		Name:     name,
		Duration: Nanoseconds(durationNs),
		IOMode:   mode,
		Shape:    ir.GenericShape{Waveform: ir.WaveformSpec{Func: fn, Params: params}},
	}
}

// Marker returns a marker pulse on a digital output.
func Marker(name string, durationNs int64, output int) ir.PulseOperation {
	return ir.PulseOperation{
		Name:     name,
		Duration: Nanoseconds(durationNs),
		IOMode:   ir.IOModeDigital,
		Shape:    ir.MarkerShape{Output: output},
	}
}

// Staircase returns a register-based staircase pulse.
func Staircase(name string, durationNs int64, start, final float64, steps int, mode ir.IOMode) ir.PulseOperation {
	return ir.PulseOperation{
		Name:     name,
		Duration: Nanoseconds(durationNs),
		IOMode:   mode,
		Shape:    ir.StaircaseShape{StartAmp: start, FinalAmp: final, NumSteps: steps},
	}
}

// StitchedSquare returns a stitched square pulse.
func StitchedSquare(name string, durationNs int64, amp float64, mode ir.IOMode) ir.PulseOperation {
	return ir.PulseOperation{
		Name:     name,
		Duration: Nanoseconds(durationNs),
		IOMode:   mode,
		Shape:    ir.StitchedSquareShape{Amp: amp},
	}
}

// At returns op with an explicit start time in nanoseconds.
func At(op ir.PulseOperation, startNs int64) ir.PulseOperation {
	start := Nanoseconds(startNs)
	op.StartTime = &start
	return op
}

// Program returns a sequencer program for instrument with default hardware.
func Program(name, instrument string, ops ...ir.PulseOperation) ir.SequencerProgram {
	return ir.SequencerProgram{
		Name:     name,
		Hardware: ir.HardwareConfig{InstrumentType: instrument},
		Pulses:   ops,
	}
}
