package ir

import "fmt"

// IOMode selects which physical output path(s) carry a pulse.
type IOMode string

const (
	IOModeReal    IOMode = "real"    // path0 only
	IOModeImag    IOMode = "imag"    // path1 only, NCO inputs swapped
	IOModeComplex IOMode = "complex" // I on path0, Q on path1
	IOModeDigital IOMode = "digital" // marker outputs
)

// ValidIOModes defines allowed output modes.
var ValidIOModes = map[IOMode]bool{
	IOModeReal:    true,
	IOModeImag:    true,
	IOModeComplex: true,
	IOModeDigital: true,
}

// ShapeKind names a pulse shape variant.
type ShapeKind string

const (
	ShapeGeneric        ShapeKind = "generic"
	ShapeStitchedSquare ShapeKind = "stitched_square"
	ShapeStaircase      ShapeKind = "staircase"
	ShapeMarker         ShapeKind = "marker"
)

// Shape is a sealed interface over the supported pulse shapes.
// Only GenericShape, StitchedSquareShape, StaircaseShape and MarkerShape
// implement it.
type Shape interface {
	Kind() ShapeKind
	shape() // Sealed
}

// GenericShape is an arbitrary waveform sampled from a shape function.
type GenericShape struct {
	Waveform WaveformSpec `json:"waveform"`
}

func (GenericShape) Kind() ShapeKind { return ShapeGeneric }
func (GenericShape) shape()          {}

// StitchedSquareShape is a long square pulse realized by looping a fixed
// duration chunk of ones.
//
// Deprecated: kept for schedules that still request it; new schedules
// should use a generic square waveform.
type StitchedSquareShape struct {
	Amp float64 `json:"amp"`
}

func (StitchedSquareShape) Kind() ShapeKind { return ShapeStitchedSquare }
func (StitchedSquareShape) shape()          {}

// StaircaseShape is a staircase realized through DC offset instructions
// without using waveform memory.
//
// Deprecated: kept for schedules that still request it.
type StaircaseShape struct {
	StartAmp float64 `json:"start_amp"`
	FinalAmp float64 `json:"final_amp"`
	NumSteps int     `json:"num_steps"`
}

func (StaircaseShape) Kind() ShapeKind { return ShapeStaircase }
func (StaircaseShape) shape()          {}

// MarkerShape toggles one digital marker output for the pulse duration.
type MarkerShape struct {
	Output int `json:"output"`
}

func (MarkerShape) Kind() ShapeKind { return ShapeMarker }
func (MarkerShape) shape()          {}

// NoWaveform marks an absent waveform table index (a silent path).
const NoWaveform = -1

// WaveformSpec describes the samples of a generic pulse.
//
// Func selects a shape function from the waveform package. Params holds its
// numeric parameters by name. The interpolated function uses SamplesReal,
// SamplesImag and TimeSamples instead of Params.
type WaveformSpec struct {
	Func        string             `json:"func"`
	Params      map[string]float64 `json:"params,omitempty"`
	SamplesReal []float64          `json:"samples_real,omitempty"`
	SamplesImag []float64          `json:"samples_imag,omitempty"`
	TimeSamples []float64          `json:"time_samples,omitempty"`
}

// PulseOperation is the abstract description of one pulse to play.
// It is constructed upstream, consumed once by the pulse compiler and never
// mutated afterwards.
type PulseOperation struct {
	Name      string   `json:"name"`
	Shape     Shape    `json:"-"`
	Duration  float64  `json:"duration"`             // seconds, > 0
	StartTime *float64 `json:"start_time,omitempty"` // seconds; nil means "right after the previous pulse"
	IOMode    IOMode   `json:"io_mode"`
}

// String implements fmt.Stringer for log and error messages.
func (op PulseOperation) String() string {
	kind := ShapeKind("none")
	if op.Shape != nil {
		kind = op.Shape.Kind()
	}
	return fmt.Sprintf("Pulse(name=%q, shape=%s, duration=%g, io_mode=%s)", op.Name, kind, op.Duration, op.IOMode)
}

// SequencerProgram is one compilation unit: the pulses played by a single
// sequencer, in non-decreasing start order, plus the hardware it targets.
type SequencerProgram struct {
	Name     string           `json:"name"`
	Hardware HardwareConfig   `json:"hardware"`
	Pulses   []PulseOperation `json:"pulses"`
}

// CanonicalMap converts a pulse operation to a map for canonical JSON.
// The shape variant is flattened under "shape" with its kind.
func (op PulseOperation) CanonicalMap() map[string]any {
	m := map[string]any{
		"name":     op.Name,
		"duration": op.Duration,
		"io_mode":  string(op.IOMode),
	}
	if op.StartTime != nil {
		m["start_time"] = *op.StartTime
	}

	switch s := op.Shape.(type) {
	case GenericShape:
		m["shape"] = map[string]any{
			"kind":     string(s.Kind()),
			"waveform": s.Waveform.canonicalMap(),
		}
	case StitchedSquareShape:
		m["shape"] = map[string]any{"kind": string(s.Kind()), "amp": s.Amp}
	case StaircaseShape:
		m["shape"] = map[string]any{
			"kind":      string(s.Kind()),
			"start_amp": s.StartAmp,
			"final_amp": s.FinalAmp,
			"num_steps": s.NumSteps,
		}
	case MarkerShape:
		m["shape"] = map[string]any{"kind": string(s.Kind()), "output": s.Output}
	}
	return m
}

func (w WaveformSpec) canonicalMap() map[string]any {
	m := map[string]any{"func": w.Func}
	if len(w.Params) > 0 {
		params := make(map[string]any, len(w.Params))
		for k, v := range w.Params {
			params[k] = v
		}
		m["params"] = params
	}
	if len(w.SamplesReal) > 0 {
		m["samples_real"] = floatsToAny(w.SamplesReal)
	}
	if len(w.SamplesImag) > 0 {
		m["samples_imag"] = floatsToAny(w.SamplesImag)
	}
	if len(w.TimeSamples) > 0 {
		m["time_samples"] = floatsToAny(w.TimeSamples)
	}
	return m
}

// CanonicalMap converts a sequencer program to a map for canonical JSON.
func (p SequencerProgram) CanonicalMap() map[string]any {
	pulses := make([]any, len(p.Pulses))
	for i, op := range p.Pulses {
		pulses[i] = op.CanonicalMap()
	}
	return map[string]any{
		"name":     p.Name,
		"hardware": p.Hardware.CanonicalMap(),
		"pulses":   pulses,
	}
}

func floatsToAny(vals []float64) []any {
	out := make([]any, len(vals))
	for i, v := range vals {
		out[i] = v
	}
	return out
}
