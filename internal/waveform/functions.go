package waveform

import (
	"fmt"
	"math"
	"math/cmplx"
	"sort"

	"github.com/roach88/qpulse/internal/ir"
)

// Func evaluates a shape at the sample times t (seconds from pulse start).
// duration is the pulse duration in seconds.
type Func func(t []float64, duration float64, spec ir.WaveformSpec) ([]complex128, error)

// functions is the registry of shape functions, keyed by WaveformSpec.Func.
var functions = map[string]Func{
	"square":           square,
	"square_imaginary": squareImaginary,
	"ramp":             ramp,
	"staircase":        staircase,
	"drag":             drag,
	"gaussian":         gaussian,
	"chirp":            chirp,
	"interpolated":     interpolated,
}

// Lookup returns the shape function registered under name.
func Lookup(name string) (Func, error) {
	fn, ok := functions[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownFunction, name)
	}
	return fn, nil
}

// Names returns the registered shape function names in sorted order.
func Names() []string {
	names := make([]string, 0, len(functions))
	for name := range functions {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func param(spec ir.WaveformSpec, name string) (float64, error) {
	v, ok := spec.Params[name]
	if !ok {
		return 0, fmt.Errorf("%w: %s requires %q", ErrMissingParameter, spec.Func, name)
	}
	return v, nil
}

func paramOr(spec ir.WaveformSpec, name string, def float64) float64 {
	if v, ok := spec.Params[name]; ok {
		return v
	}
	return def
}

func square(t []float64, _ float64, spec ir.WaveformSpec) ([]complex128, error) {
	amp, err := param(spec, "amp")
	if err != nil {
		return nil, err
	}
	out := make([]complex128, len(t))
	for i := range out {
		out[i] = complex(amp, 0)
	}
	return out, nil
}

func squareImaginary(t []float64, _ float64, spec ir.WaveformSpec) ([]complex128, error) {
	amp, err := param(spec, "amp")
	if err != nil {
		return nil, err
	}
	out := make([]complex128, len(t))
	for i := range out {
		out[i] = complex(0, amp)
	}
	return out, nil
}

// ramp rises linearly from offset towards amp+offset; the final value is
// not reached (endpoint excluded).
func ramp(t []float64, _ float64, spec ir.WaveformSpec) ([]complex128, error) {
	amp, err := param(spec, "amp")
	if err != nil {
		return nil, err
	}
	offset := paramOr(spec, "offset", 0)
	n := float64(len(t))
	out := make([]complex128, len(t))
	for i := range out {
		out[i] = complex(offset+amp*float64(i)/n, 0)
	}
	return out, nil
}

// staircase splits the samples into num_steps equal plateaus; samples left
// over by the integer division hold final_amp.
func staircase(t []float64, _ float64, spec ir.WaveformSpec) ([]complex128, error) {
	start, err := param(spec, "start_amp")
	if err != nil {
		return nil, err
	}
	final, err := param(spec, "final_amp")
	if err != nil {
		return nil, err
	}
	steps, err := param(spec, "num_steps")
	if err != nil {
		return nil, err
	}
	numSteps := int(steps)
	if numSteps < 1 || float64(numSteps) != steps {
		return nil, fmt.Errorf("%w: staircase num_steps must be a positive integer, got %g", ErrInvalidParameter, steps)
	}

	var step float64
	if numSteps > 1 {
		step = (final - start) / float64(numSteps-1)
	}
	plateau := len(t) / numSteps
	out := make([]complex128, len(t))
	for i := range out {
		if plateau == 0 || i/plateau >= numSteps {
			out[i] = complex(final, 0)
			continue
		}
		out[i] = complex(start+float64(i/plateau)*step, 0)
	}
	return out, nil
}

// drag is a Gaussian envelope on I with its scaled derivative on Q,
// rotated by phase (degrees).
func drag(t []float64, duration float64, spec ir.WaveformSpec) ([]complex128, error) {
	gAmp, err := param(spec, "G_amp")
	if err != nil {
		return nil, err
	}
	dAmp, err := param(spec, "D_amp")
	if err != nil {
		return nil, err
	}
	return gaussianEnvelope(t, duration, spec, gAmp, dAmp)
}

func gaussian(t []float64, duration float64, spec ir.WaveformSpec) ([]complex128, error) {
	amp, err := param(spec, "amp")
	if err != nil {
		return nil, err
	}
	return gaussianEnvelope(t, duration, spec, amp, 0)
}

func gaussianEnvelope(t []float64, duration float64, spec ir.WaveformSpec, gAmp, dAmp float64) ([]complex128, error) {
	nrSigma := paramOr(spec, "nr_sigma", 4)
	sigma := paramOr(spec, "sigma", duration/(2*nrSigma))
	if sigma <= 0 {
		return nil, fmt.Errorf("%w: %s sigma must be positive, got %g", ErrInvalidParameter, spec.Func, sigma)
	}
	phase := paramOr(spec, "phase", 0) * math.Pi / 180
	subtractOffset := paramOr(spec, "subtract_offset", 1) != 0

	if len(t) == 0 {
		return nil, ErrEmptyWaveform
	}
	mu := t[0] + duration/2
	env := make([]float64, len(t))
	deriv := make([]float64, len(t))
	for i, ti := range t {
		x := (ti - mu) / sigma
		g := math.Exp(-0.5 * x * x)
		env[i] = gAmp * g
		deriv[i] = -dAmp * x * g
	}

	if subtractOffset {
		envOffset := (env[0] + env[len(env)-1]) / 2
		derivOffset := (deriv[0] + deriv[len(deriv)-1]) / 2
		for i := range env {
			env[i] -= envOffset
			deriv[i] -= derivOffset
		}
	}

	rot := cmplx.Exp(complex(0, phase))
	out := make([]complex128, len(t))
	for i := range out {
		out[i] = rot * complex(env[i], deriv[i])
	}
	return out, nil
}

// chirp sweeps the instantaneous frequency linearly from start_freq to
// end_freq over the pulse duration.
func chirp(t []float64, duration float64, spec ir.WaveformSpec) ([]complex128, error) {
	amp, err := param(spec, "amp")
	if err != nil {
		return nil, err
	}
	f0, err := param(spec, "start_freq")
	if err != nil {
		return nil, err
	}
	f1, err := param(spec, "end_freq")
	if err != nil {
		return nil, err
	}
	rate := (f1 - f0) / duration
	out := make([]complex128, len(t))
	for i, ti := range t {
		out[i] = complex(amp, 0) * cmplx.Exp(complex(0, 2*math.Pi*(f0*ti+rate*ti*ti/2)))
	}
	return out, nil
}

// interpolated linearly interpolates user supplied samples. Times outside
// the supplied range hold the nearest end value.
func interpolated(t []float64, _ float64, spec ir.WaveformSpec) ([]complex128, error) {
	ts := spec.TimeSamples
	re := spec.SamplesReal
	im := spec.SamplesImag
	if len(ts) == 0 {
		return nil, fmt.Errorf("%w: interpolated requires time_samples", ErrMissingParameter)
	}
	if len(re) != len(ts) {
		return nil, fmt.Errorf("%w: samples_real has %d values for %d time samples", ErrInvalidParameter, len(re), len(ts))
	}
	if len(im) != 0 && len(im) != len(ts) {
		return nil, fmt.Errorf("%w: samples_imag has %d values for %d time samples", ErrInvalidParameter, len(im), len(ts))
	}
	for i := 1; i < len(ts); i++ {
		if ts[i] <= ts[i-1] {
			return nil, fmt.Errorf("%w: time_samples must be strictly increasing", ErrInvalidParameter)
		}
	}

	out := make([]complex128, len(t))
	for i, ti := range t {
		r := interp(ti, ts, re)
		var q float64
		if len(im) > 0 {
			q = interp(ti, ts, im)
		}
		out[i] = complex(r, q)
	}
	return out, nil
}

func interp(x float64, xs, ys []float64) float64 {
	if x <= xs[0] {
		return ys[0]
	}
	last := len(xs) - 1
	if x >= xs[last] {
		return ys[last]
	}
	j := sort.SearchFloat64s(xs, x)
	if xs[j] == x {
		return ys[j]
	}
	x0, x1 := xs[j-1], xs[j]
	return ys[j-1] + (ys[j]-ys[j-1])*(x-x0)/(x1-x0)
}
