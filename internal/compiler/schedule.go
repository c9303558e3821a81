package compiler

import (
	"fmt"
	"strconv"
	"strings"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/errors"
	"cuelang.org/go/cue/token"

	"github.com/roach88/qpulse/internal/ir"
)

// CompileSchedule parses a CUE schedule into sequencer programs.
//
// The schedule declares hardware defaults and one struct per sequencer:
//
//	hardware: instrument_type: "QRM"
//	program: seq0: {
//		hardware: grid_time_ns: 4 // optional per-program override
//		pulses: [{
//			name:     "x90"
//			duration: 20e-9
//			io_mode:  "complex"
//			shape: {kind: "generic", waveform: {func: "drag", params: {G_amp: 0.5, D_amp: 0.1}}}
//		}]
//	}
//
// Programs are returned in declaration order.
func CompileSchedule(v cue.Value, defaults ir.HardwareConfig) ([]ir.SequencerProgram, error) {
	if err := v.Err(); err != nil {
		return nil, formatCUEError(err)
	}

	hw, err := CompileHardware(v.LookupPath(cue.ParsePath("hardware")), defaults)
	if err != nil {
		return nil, err
	}

	progVal := v.LookupPath(cue.ParsePath("program"))
	if !progVal.Exists() {
		return nil, nil
	}
	iter, err := progVal.Fields()
	if err != nil {
		return nil, formatCUEError(err)
	}

	var progs []ir.SequencerProgram
	for iter.Next() {
		prog, err := CompileProgram(iter.Value(), hw)
		if err != nil {
			return nil, err
		}
		progs = append(progs, *prog)
	}
	return progs, nil
}

// CompileProgram parses one program struct. The program name is the last
// label of v's path; a hardware block inside the program overrides hw.
func CompileProgram(v cue.Value, hw ir.HardwareConfig) (*ir.SequencerProgram, error) {
	if err := v.Err(); err != nil {
		return nil, formatCUEError(err)
	}

	prog := &ir.SequencerProgram{}
	labels := v.Path().Selectors()
	if len(labels) > 0 {
		prog.Name = unquoteLabel(labels[len(labels)-1].String())
	}

	var err error
	prog.Hardware, err = CompileHardware(v.LookupPath(cue.ParsePath("hardware")), hw)
	if err != nil {
		return nil, err
	}

	pulsesVal := v.LookupPath(cue.ParsePath("pulses"))
	if !pulsesVal.Exists() {
		return nil, &CompileError{
			Field:   "pulses",
			Message: "pulses is required",
			Pos:     v.Pos(),
		}
	}
	iter, err := pulsesVal.List()
	if err != nil {
		return nil, formatCUEError(err)
	}
	for i := 0; iter.Next(); i++ {
		op, err := parsePulse(iter.Value(), fmt.Sprintf("pulses[%d]", i))
		if err != nil {
			return nil, err
		}
		prog.Pulses = append(prog.Pulses, op)
	}
	return prog, nil
}

// CompileHardware decodes a hardware block and overlays its set fields on
// base. A missing block returns base unchanged.
func CompileHardware(v cue.Value, base ir.HardwareConfig) (ir.HardwareConfig, error) {
	if !v.Exists() {
		return base, nil
	}
	var over ir.HardwareConfig
	if err := v.Decode(&over); err != nil {
		return base, formatCUEError(err)
	}
	return mergeHardware(base, over), nil
}

func mergeHardware(base, over ir.HardwareConfig) ir.HardwareConfig {
	if over.InstrumentType != "" {
		base.InstrumentType = over.InstrumentType
	}
	if over.SamplingRate != 0 {
		base.SamplingRate = over.SamplingRate
	}
	if over.GridTimeNs != 0 {
		base.GridTimeNs = over.GridTimeNs
	}
	if over.StitchDurationNs != 0 {
		base.StitchDurationNs = over.StitchDurationNs
	}
	if over.ImmediateSzGain != 0 {
		base.ImmediateSzGain = over.ImmediateSzGain
	}
	if over.ImmediateSzOffset != 0 {
		base.ImmediateSzOffset = over.ImmediateSzOffset
	}
	if over.RegisterSize != 0 {
		base.RegisterSize = over.RegisterSize
	}
	if over.ImmediateMaxWaitNs != 0 {
		base.ImmediateMaxWaitNs = over.ImmediateMaxWaitNs
	}
	if over.MaxWaveformSamples != 0 {
		base.MaxWaveformSamples = over.MaxWaveformSamples
	}
	if over.NumRegisters != 0 {
		base.NumRegisters = over.NumRegisters
	}
	if over.DefaultMarker != nil {
		marker := *over.DefaultMarker
		base.DefaultMarker = &marker
	}
	return base
}

// parsePulse parses one entry of a pulses list. field is the entry's path
// used in error messages.
func parsePulse(v cue.Value, field string) (ir.PulseOperation, error) {
	var op ir.PulseOperation
	var err error

	if op.Name, err = requireString(v, "name", field); err != nil {
		return op, err
	}
	if op.Duration, err = requireFloat(v, "duration", field); err != nil {
		return op, err
	}

	startVal := v.LookupPath(cue.ParsePath("start_time"))
	if startVal.Exists() {
		start, err := startVal.Float64()
		if err != nil {
			return op, formatCUEError(err)
		}
		op.StartTime = &start
	}

	mode, err := requireString(v, "io_mode", field)
	if err != nil {
		return op, err
	}
	op.IOMode = ir.IOMode(mode)

	shapeVal := v.LookupPath(cue.ParsePath("shape"))
	if !shapeVal.Exists() {
		return op, &CompileError{
			Field:   field + ".shape",
			Message: "shape is required",
			Pos:     v.Pos(),
		}
	}
	op.Shape, err = parseShape(shapeVal, field+".shape")
	return op, err
}

// parseShape dispatches on the shape kind.
func parseShape(v cue.Value, field string) (ir.Shape, error) {
	kind, err := requireString(v, "kind", field)
	if err != nil {
		return nil, err
	}

	switch ir.ShapeKind(kind) {
	case ir.ShapeGeneric:
		wfVal := v.LookupPath(cue.ParsePath("waveform"))
		if !wfVal.Exists() {
			return nil, &CompileError{
				Field:   field + ".waveform",
				Message: "generic shapes require a waveform",
				Pos:     v.Pos(),
			}
		}
		var spec ir.WaveformSpec
		if err := wfVal.Decode(&spec); err != nil {
			return nil, formatCUEError(err)
		}
		if spec.Func == "" {
			return nil, &CompileError{
				Field:   field + ".waveform.func",
				Message: "func is required",
				Pos:     wfVal.Pos(),
			}
		}
		return ir.GenericShape{Waveform: spec}, nil

	case ir.ShapeStitchedSquare:
		amp, err := requireFloat(v, "amp", field)
		if err != nil {
			return nil, err
		}
		return ir.StitchedSquareShape{Amp: amp}, nil

	case ir.ShapeStaircase:
		start, err := requireFloat(v, "start_amp", field)
		if err != nil {
			return nil, err
		}
		final, err := requireFloat(v, "final_amp", field)
		if err != nil {
			return nil, err
		}
		steps, err := requireInt(v, "num_steps", field)
		if err != nil {
			return nil, err
		}
		return ir.StaircaseShape{StartAmp: start, FinalAmp: final, NumSteps: steps}, nil

	case ir.ShapeMarker:
		output, err := requireInt(v, "output", field)
		if err != nil {
			return nil, err
		}
		return ir.MarkerShape{Output: output}, nil

	default:
		return nil, &CompileError{
			Field:   field + ".kind",
			Message: fmt.Sprintf("unknown shape kind %q", kind),
			Pos:     v.LookupPath(cue.ParsePath("kind")).Pos(),
		}
	}
}

func requireString(v cue.Value, name, field string) (string, error) {
	fv := v.LookupPath(cue.ParsePath(name))
	if !fv.Exists() {
		return "", missingField(v, name, field)
	}
	s, err := fv.String()
	if err != nil {
		return "", formatCUEError(err)
	}
	return s, nil
}

func requireFloat(v cue.Value, name, field string) (float64, error) {
	fv := v.LookupPath(cue.ParsePath(name))
	if !fv.Exists() {
		return 0, missingField(v, name, field)
	}
	f, err := fv.Float64()
	if err != nil {
		return 0, formatCUEError(err)
	}
	return f, nil
}

func requireInt(v cue.Value, name, field string) (int, error) {
	fv := v.LookupPath(cue.ParsePath(name))
	if !fv.Exists() {
		return 0, missingField(v, name, field)
	}
	i, err := fv.Int64()
	if err != nil {
		return 0, formatCUEError(err)
	}
	return int(i), nil
}

func missingField(v cue.Value, name, field string) error {
	return &CompileError{
		Field:   field + "." + name,
		Message: name + " is required",
		Pos:     v.Pos(),
	}
}

// unquoteLabel strips the quotes CUE keeps on non-identifier labels such as
// "q0:mw".
func unquoteLabel(label string) string {
	if strings.HasPrefix(label, `"`) {
		if s, err := strconv.Unquote(label); err == nil {
			return s
		}
	}
	return label
}

// CompileError represents a CUE schedule compilation error.
type CompileError struct {
	Field   string
	Message string
	Pos     token.Pos
}

func (e *CompileError) Error() string {
	if e.Pos.IsValid() {
		return fmt.Sprintf("%s:%d:%d: %s: %s",
			e.Pos.Filename(), e.Pos.Line(), e.Pos.Column(),
			e.Field, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// formatCUEError extracts position info from CUE errors.
func formatCUEError(err error) error {
	if err == nil {
		return nil
	}

	// CUE errors may contain multiple errors
	errs := errors.Errors(err)
	if len(errs) == 0 {
		return err
	}

	firstErr := errs[0]
	positions := errors.Positions(firstErr)
	if len(positions) > 0 {
		return &CompileError{
			Field:   "cue",
			Message: firstErr.Error(),
			Pos:     positions[0],
		}
	}

	return err
}
