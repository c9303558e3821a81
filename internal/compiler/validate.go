package compiler

import (
	"fmt"
	"math"
	"strings"

	"github.com/roach88/qpulse/internal/ir"
	"github.com/roach88/qpulse/internal/waveform"
)

// Validation error codes (E100-E199)
const (
	// General validation errors (E100)
	ErrUnsupportedIRType = "E100" // unsupported IR type for validation

	// SequencerProgram errors (E101-E109)
	ErrProgramNoPulses  = "E101" // at least one pulse required
	ErrInvalidHardware  = "E102" // hardware config rejected
	ErrProgramNameEmpty = "E103" // program name is required
	ErrStartTimeOrder   = "E104" // explicit start times must not decrease

	// PulseOperation errors (E110-E119)
	ErrPulseNameEmpty      = "E110" // pulse name is required
	ErrInvalidDuration     = "E111" // duration must be positive
	ErrInvalidIOMode       = "E112" // unknown io_mode
	ErrMissingShape        = "E113" // shape is required
	ErrUnknownWaveformFn   = "E114" // unknown shape function
	ErrAmplitudeOutOfRange = "E115" // amplitude outside [-1, 1]
	ErrDigitalMismatch     = "E116" // marker off digital or digital without marker
	ErrInvalidNumSteps     = "E117" // staircase num_steps < 1
	ErrInvalidStartTime    = "E118" // negative start time
	ErrOffGridTiming       = "E119" // duration or start time not on the grid
)

// amplitudeParams are the generic waveform parameters bounded to [-1, 1].
var amplitudeParams = []string{"amp", "G_amp", "start_amp", "final_amp"}

// ValidationError represents a schema validation error.
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
	Code    string `json:"code"`
	Line    int    `json:"line,omitempty"`
}

// Error implements the error interface.
func (e ValidationError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("[%s] line %d: %s: %s", e.Code, e.Line, e.Field, e.Message)
	}
	return fmt.Sprintf("[%s] %s: %s", e.Code, e.Field, e.Message)
}

// Validate validates compiled IR against schema rules.
// Returns all errors found (does not fail-fast).
// Supports SequencerProgram and PulseOperation types.
func Validate(v any) []ValidationError {
	switch p := v.(type) {
	case *ir.SequencerProgram:
		return validateProgram(p)
	case ir.SequencerProgram:
		return validateProgram(&p)
	case *ir.PulseOperation:
		return validatePulse(p, "pulse", ir.DefaultGridTimeNs)
	case ir.PulseOperation:
		return validatePulse(&p, "pulse", ir.DefaultGridTimeNs)
	default:
		return []ValidationError{{
			Field:   "type",
			Message: fmt.Sprintf("unsupported IR type: %T", v),
			Code:    ErrUnsupportedIRType,
		}}
	}
}

func validateProgram(p *ir.SequencerProgram) []ValidationError {
	var errs []ValidationError

	if strings.TrimSpace(p.Name) == "" {
		errs = append(errs, ValidationError{
			Field:   "name",
			Message: "program name is required",
			Code:    ErrProgramNameEmpty,
		})
	}

	hw := p.Hardware.WithDefaults()
	if err := hw.Validate(); err != nil {
		errs = append(errs, ValidationError{
			Field:   "hardware",
			Message: err.Error(),
			Code:    ErrInvalidHardware,
		})
	}

	if len(p.Pulses) == 0 {
		errs = append(errs, ValidationError{
			Field:   "pulses",
			Message: "at least one pulse is required",
			Code:    ErrProgramNoPulses,
		})
	}

	lastStart := math.Inf(-1)
	for i := range p.Pulses {
		op := &p.Pulses[i]
		field := fmt.Sprintf("pulses[%d]", i)
		errs = append(errs, validatePulse(op, field, hw.GridTimeNs)...)

		if op.StartTime == nil {
			continue
		}
		if *op.StartTime < lastStart {
			errs = append(errs, ValidationError{
				Field:   field + ".start_time",
				Message: fmt.Sprintf("start time %g s is before the previous explicit start %g s", *op.StartTime, lastStart),
				Code:    ErrStartTimeOrder,
			})
		}
		lastStart = *op.StartTime
	}

	return errs
}

// validatePulse checks op in isolation. gridNs is the sequencer grid time
// that durations and start times must align to.
func validatePulse(op *ir.PulseOperation, field string, gridNs int64) []ValidationError {
	var errs []ValidationError

	if strings.TrimSpace(op.Name) == "" {
		errs = append(errs, ValidationError{
			Field:   field + ".name",
			Message: "pulse name is required",
			Code:    ErrPulseNameEmpty,
		})
	}

	if !(op.Duration > 0) {
		errs = append(errs, ValidationError{
			Field:   field + ".duration",
			Message: fmt.Sprintf("duration must be positive, got %g s", op.Duration),
			Code:    ErrInvalidDuration,
		})
	}

	if op.StartTime != nil && *op.StartTime < 0 {
		errs = append(errs, ValidationError{
			Field:   field + ".start_time",
			Message: fmt.Sprintf("start time must not be negative, got %g s", *op.StartTime),
			Code:    ErrInvalidStartTime,
		})
	}

	// stitched squares round their remainder onto the grid themselves
	_, stitched := op.Shape.(ir.StitchedSquareShape)
	if op.Duration > 0 && !stitched && gridNs > 0 {
		errs = append(errs, checkGrid(op.Duration, gridNs, field+".duration")...)
	}
	if op.StartTime != nil && *op.StartTime >= 0 && gridNs > 0 {
		errs = append(errs, checkGrid(*op.StartTime, gridNs, field+".start_time")...)
	}

	if !ir.ValidIOModes[op.IOMode] {
		errs = append(errs, ValidationError{
			Field:   field + ".io_mode",
			Message: fmt.Sprintf("invalid io_mode %q, must be \"real\", \"imag\", \"complex\" or \"digital\"", op.IOMode),
			Code:    ErrInvalidIOMode,
		})
	}

	if op.Shape == nil {
		errs = append(errs, ValidationError{
			Field:   field + ".shape",
			Message: "shape is required",
			Code:    ErrMissingShape,
		})
		return errs
	}

	isMarker := op.Shape.Kind() == ir.ShapeMarker
	if isMarker != (op.IOMode == ir.IOModeDigital) && ir.ValidIOModes[op.IOMode] {
		errs = append(errs, ValidationError{
			Field:   field + ".io_mode",
			Message: fmt.Sprintf("%s shape cannot be played on %s outputs", op.Shape.Kind(), op.IOMode),
			Code:    ErrDigitalMismatch,
		})
	}

	switch s := op.Shape.(type) {
	case ir.GenericShape:
		if _, err := waveform.Lookup(s.Waveform.Func); err != nil {
			errs = append(errs, ValidationError{
				Field:   field + ".shape.waveform.func",
				Message: fmt.Sprintf("unknown waveform function %q, known: %s", s.Waveform.Func, strings.Join(waveform.Names(), ", ")),
				Code:    ErrUnknownWaveformFn,
			})
		}
		for _, name := range amplitudeParams {
			if v, ok := s.Waveform.Params[name]; ok {
				errs = append(errs, checkAmplitude(v, field+".shape.waveform.params."+name)...)
			}
		}
	case ir.StitchedSquareShape:
		errs = append(errs, checkAmplitude(s.Amp, field+".shape.amp")...)
	case ir.StaircaseShape:
		errs = append(errs, checkAmplitude(s.StartAmp, field+".shape.start_amp")...)
		errs = append(errs, checkAmplitude(s.FinalAmp, field+".shape.final_amp")...)
		if s.NumSteps < 1 {
			errs = append(errs, ValidationError{
				Field:   field + ".shape.num_steps",
				Message: fmt.Sprintf("num_steps must be at least 1, got %d", s.NumSteps),
				Code:    ErrInvalidNumSteps,
			})
		}
	}

	return errs
}

func checkGrid(seconds float64, gridNs int64, field string) []ValidationError {
	ns := int64(math.Round(seconds * 1e9))
	if ns%gridNs == 0 {
		return nil
	}
	return []ValidationError{{
		Field:   field,
		Message: fmt.Sprintf("%g s (%d ns) is not a multiple of the %d ns grid", seconds, ns, gridNs),
		Code:    ErrOffGridTiming,
	}}
}

func checkAmplitude(v float64, field string) []ValidationError {
	if math.Abs(v) <= 1 {
		return nil
	}
	return []ValidationError{{
		Field:   field,
		Message: fmt.Sprintf("amplitude %g outside [-1, 1]", v),
		Code:    ErrAmplitudeOutOfRange,
	}}
}
