package pulse

import (
	"github.com/roach88/qpulse/internal/ir"
)

// EncodedPulse is a pulse routed onto the two output paths of a sequencer.
type EncodedPulse struct {
	Path0Index int     `json:"path0_index"`
	Path1Index int     `json:"path1_index"`
	Amp0       float64 `json:"amp0"`
	Amp1       float64 `json:"amp1"`
	Length     int     `json:"length"`
}

// Silent reports whether neither path carries a waveform.
func (e EncodedPulse) Silent() bool {
	return e.Path0Index == ir.NoWaveform && e.Path1Index == ir.NoWaveform
}

// MapPaths assigns the generated channels to path0 and path1.
//
// In imag mode the channels are swapped and the amplitude moved to path0 is
// negated, which undoes the 90 degree shift of the swapped NCO inputs.
// Digital mode only applies to marker pulses, which carry no waveform.
func MapPaths(g Generated, mode ir.IOMode) (EncodedPulse, error) {
	if mode == ir.IOModeDigital {
		if g.Kind == ir.ShapeMarker {
			return EncodedPulse{Path0Index: ir.NoWaveform, Path1Index: ir.NoWaveform}, nil
		}
		return EncodedPulse{}, &PulseError{
			Code:    ErrCodeUnsupportedDigitalMode,
			Message: "digital io_mode cannot carry waveform data",
		}
	}
	if !ir.ValidIOModes[mode] {
		return EncodedPulse{}, &PulseError{
			Code:    ErrCodeInvalidOutputMode,
			Message: "unknown io_mode " + string(mode),
		}
	}

	if g.Kind == ir.ShapeStitchedSquare {
		return mapStitched(g, mode), nil
	}

	enc := EncodedPulse{Length: g.Length}
	if mode == ir.IOModeImag {
		enc.Path0Index, enc.Path1Index = g.IndexImag, g.IndexReal
		enc.Amp0, enc.Amp1 = -g.AmpImag, g.AmpReal
		return enc, nil
	}
	enc.Path0Index, enc.Path1Index = g.IndexReal, g.IndexImag
	enc.Amp0, enc.Amp1 = g.AmpReal, g.AmpImag
	return enc, nil
}

// mapStitched routes the chunk of ones. Outside complex mode both paths play
// the ones chunk and the gain selects the active path.
func mapStitched(g Generated, mode ir.IOMode) EncodedPulse {
	enc := EncodedPulse{Length: g.Length}
	switch mode {
	case ir.IOModeComplex:
		enc.Path0Index, enc.Path1Index = g.IndexReal, g.IndexImag
		enc.Amp0, enc.Amp1 = g.AmpReal, 0
	case ir.IOModeImag:
		enc.Path0Index, enc.Path1Index = g.IndexReal, g.IndexReal
		enc.Amp0, enc.Amp1 = 0, g.AmpReal
	default:
		enc.Path0Index, enc.Path1Index = g.IndexReal, g.IndexReal
		enc.Amp0, enc.Amp1 = g.AmpReal, 0
	}
	return enc
}
