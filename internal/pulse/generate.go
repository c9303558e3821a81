package pulse

import (
	"errors"
	"math"

	"github.com/roach88/qpulse/internal/ir"
	"github.com/roach88/qpulse/internal/waveform"
	"github.com/roach88/qpulse/internal/wavetable"
)

// Generated is the output of the waveform data generator: table indices of
// the real and imaginary channel (ir.NoWaveform when silent) and the scale
// removed from each channel by normalization.
type Generated struct {
	Kind      ir.ShapeKind
	IndexReal int
	IndexImag int
	AmpReal   float64
	AmpImag   float64
	Length    int // samples
}

func silent(kind ir.ShapeKind) Generated {
	return Generated{Kind: kind, IndexReal: ir.NoWaveform, IndexImag: ir.NoWaveform}
}

// Generate produces the waveform data of op and registers it in table.
// Every check runs before the table is touched, so a failing pulse leaves
// the table unchanged.
func Generate(op ir.PulseOperation, table *wavetable.Table, hw ir.HardwareConfig) (Generated, error) {
	if err := checkMode(op); err != nil {
		return Generated{}, err
	}

	switch s := op.Shape.(type) {
	case ir.GenericShape:
		return generateGeneric(op, s, table, hw)
	case ir.StitchedSquareShape:
		return generateStitchedSquare(op, s, table, hw)
	case ir.StaircaseShape:
		return silent(ir.ShapeStaircase), nil
	case ir.MarkerShape:
		return silent(ir.ShapeMarker), nil
	default:
		return Generated{}, newError(ErrCodeUnknownWaveform, op, nil, "pulse has no shape")
	}
}

// checkMode validates the output mode against the shape.
func checkMode(op ir.PulseOperation) error {
	if !ir.ValidIOModes[op.IOMode] {
		return newError(ErrCodeInvalidOutputMode, op, nil, "unknown io_mode %q", op.IOMode)
	}
	_, isMarker := op.Shape.(ir.MarkerShape)
	if isMarker && op.IOMode != ir.IOModeDigital {
		return newError(ErrCodeUnsupportedDigitalMode, op, nil,
			"marker pulses require digital io_mode, not %s", op.IOMode)
	}
	if !isMarker && op.IOMode == ir.IOModeDigital {
		return newError(ErrCodeUnsupportedDigitalMode, op, nil,
			"digital io_mode only supports marker pulses")
	}
	return nil
}

func generateGeneric(op ir.PulseOperation, s ir.GenericShape, table *wavetable.Table, hw ir.HardwareConfig) (Generated, error) {
	data, err := waveform.Sample(s.Waveform, op.Duration, hw.SamplingRate)
	if err != nil {
		return Generated{}, newError(ErrCodeUnknownWaveform, op, err, "cannot sample waveform %q", s.Waveform.Func)
	}
	norm, ampReal, ampImag := waveform.Normalize(data)

	if waveform.IsComplex(norm) && op.IOMode != ir.IOModeComplex {
		return Generated{}, newError(ErrCodeInvalidOutputMode, op, nil,
			"complex valued waveform on an output in %s mode", op.IOMode)
	}
	if ampReal > 1 || ampImag > 1 {
		return Generated{}, newError(ErrCodeAmplitudeRange, op, nil,
			"peak amplitude (%g, %g) outside [-1, 1]", ampReal, ampImag)
	}

	g := Generated{
		Kind:      ir.ShapeGeneric,
		IndexReal: ir.NoWaveform,
		IndexImag: ir.NoWaveform,
		AmpReal:   ampReal,
		AmpImag:   ampImag,
		Length:    len(norm),
	}

	var arrays [][]float64
	var slots []*int
	if !waveform.IsZero(ampReal) {
		arrays = append(arrays, waveform.RealPart(norm))
		slots = append(slots, &g.IndexReal)
	}
	if !waveform.IsZero(ampImag) {
		arrays = append(arrays, waveform.ImagPart(norm))
		slots = append(slots, &g.IndexImag)
	}
	if len(arrays) == 0 {
		return g, nil
	}

	indices, err := table.AddAll(arrays...)
	if err != nil {
		return Generated{}, tableError(op, err)
	}
	for i, idx := range indices {
		*slots[i] = idx
	}
	return g, nil
}

// generateStitchedSquare stores one stitch chunk of ones, plus a chunk of
// zeros for path1 in complex mode.
func generateStitchedSquare(op ir.PulseOperation, s ir.StitchedSquareShape, table *wavetable.Table, hw ir.HardwareConfig) (Generated, error) {
	if math.Abs(s.Amp) > 1 {
		return Generated{}, newError(ErrCodeAmplitudeRange, op, nil, "amp %g outside [-1, 1]", s.Amp)
	}
	n := waveform.NumSamples(float64(hw.StitchDurationNs)*1e-9, hw.SamplingRate)
	ones := waveform.Ones(n)

	g := Generated{
		Kind:      ir.ShapeStitchedSquare,
		IndexImag: ir.NoWaveform,
		AmpReal:   s.Amp,
		Length:    n,
	}
	if op.IOMode == ir.IOModeComplex {
		indices, err := table.AddAll(ones, make([]float64, n))
		if err != nil {
			return Generated{}, tableError(op, err)
		}
		g.IndexReal, g.IndexImag = indices[0], indices[1]
		return g, nil
	}

	idx, err := table.AddIfUnique(ones)
	if err != nil {
		return Generated{}, tableError(op, err)
	}
	g.IndexReal = idx
	return g, nil
}

func tableError(op ir.PulseOperation, err error) error {
	if errors.Is(err, wavetable.ErrWaveformMemoryExceeded) {
		return newError(ErrCodeWaveformMemoryExceeded, op, err, "waveform memory exceeded")
	}
	return err
}
