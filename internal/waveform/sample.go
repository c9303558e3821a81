package waveform

import (
	"fmt"
	"math"

	"github.com/roach88/qpulse/internal/ir"
)

// ZeroTolerance is the absolute tolerance under which an amplitude counts as zero.
const ZeroTolerance = 1e-8

// NumSamples returns the number of samples a pulse of the given duration
// occupies at samplingRate.
func NumSamples(duration, samplingRate float64) int {
	return int(math.Round(duration * samplingRate))
}

// Sample evaluates spec over round(duration*samplingRate) points spaced
// 1/samplingRate apart, starting at t=0.
func Sample(spec ir.WaveformSpec, duration, samplingRate float64) ([]complex128, error) {
	fn, err := Lookup(spec.Func)
	if err != nil {
		return nil, err
	}
	if duration <= 0 {
		return nil, fmt.Errorf("%w: duration must be positive, got %g", ErrInvalidParameter, duration)
	}
	n := NumSamples(duration, samplingRate)
	if n == 0 {
		return nil, fmt.Errorf("%w: %g s at %g Sa/s", ErrEmptyWaveform, duration, samplingRate)
	}

	t := make([]float64, n)
	for i := range t {
		t[i] = float64(i) / samplingRate
	}
	data, err := fn(t, duration, spec)
	if err != nil {
		return nil, err
	}
	for i, v := range data {
		if math.IsNaN(real(v)) || math.IsNaN(imag(v)) || math.IsInf(real(v), 0) || math.IsInf(imag(v), 0) {
			return nil, fmt.Errorf("%w: %s produced a non-finite sample at index %d", ErrInvalidParameter, spec.Func, i)
		}
	}
	return data, nil
}

// Normalize scales each channel of data to unit peak amplitude and returns
// the removed scale factors. A channel with zero peak is returned as zeros
// with amplitude 0. data is not modified.
func Normalize(data []complex128) (norm []complex128, ampReal, ampImag float64) {
	for _, v := range data {
		ampReal = math.Max(ampReal, math.Abs(real(v)))
		ampImag = math.Max(ampImag, math.Abs(imag(v)))
	}

	norm = make([]complex128, len(data))
	for i, v := range data {
		var re, im float64
		if ampReal != 0 {
			re = real(v) / ampReal
		}
		if ampImag != 0 {
			im = imag(v) / ampImag
		}
		norm[i] = complex(re, im)
	}
	return norm, ampReal, ampImag
}

// IsZero reports whether amp is within ZeroTolerance of zero.
func IsZero(amp float64) bool {
	return math.Abs(amp) <= ZeroTolerance
}

// IsComplex reports whether any sample has a non-zero imaginary part.
func IsComplex(data []complex128) bool {
	for _, v := range data {
		if imag(v) != 0 {
			return true
		}
	}
	return false
}

// RealPart returns the real components of data.
func RealPart(data []complex128) []float64 {
	out := make([]float64, len(data))
	for i, v := range data {
		out[i] = real(v)
	}
	return out
}

// ImagPart returns the imaginary components of data.
func ImagPart(data []complex128) []float64 {
	out := make([]float64, len(data))
	for i, v := range data {
		out[i] = imag(v)
	}
	return out
}

// Ones returns n samples of value 1.
func Ones(n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = 1
	}
	return out
}
