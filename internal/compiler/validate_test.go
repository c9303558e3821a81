package compiler

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/roach88/qpulse/internal/ir"
)

func validProgram() ir.SequencerProgram {
	return ir.SequencerProgram{
		Name:     "seq0",
		Hardware: ir.HardwareConfig{InstrumentType: ir.InstrumentQRM},
		Pulses: []ir.PulseOperation{
			{
				Name:     "x90",
				Duration: 20e-9,
				IOMode:   ir.IOModeComplex,
				Shape: ir.GenericShape{Waveform: ir.WaveformSpec{
					Func:   "drag",
					Params: map[string]float64{"G_amp": 0.5, "D_amp": 0.1},
				}},
			},
			{
				Name:     "trigger",
				Duration: 40e-9,
				IOMode:   ir.IOModeDigital,
				Shape:    ir.MarkerShape{Output: 0},
			},
		},
	}
}

func codes(errs []ValidationError) []string {
	out := make([]string, len(errs))
	for i, e := range errs {
		out[i] = e.Code
	}
	return out
}

func TestValidateProgramValid(t *testing.T) {
	p := validProgram()
	assert.Empty(t, Validate(p))
	assert.Empty(t, Validate(&p))
}

func TestValidateProgram(t *testing.T) {
	start := func(s float64) *float64 { return &s }

	tests := []struct {
		name      string
		mutate    func(p *ir.SequencerProgram)
		wantCode  string
		wantField string
	}{
		{
			name:      "empty name",
			mutate:    func(p *ir.SequencerProgram) { p.Name = " " },
			wantCode:  ErrProgramNameEmpty,
			wantField: "name",
		},
		{
			name:      "no pulses",
			mutate:    func(p *ir.SequencerProgram) { p.Pulses = nil },
			wantCode:  ErrProgramNoPulses,
			wantField: "pulses",
		},
		{
			name:      "bad instrument",
			mutate:    func(p *ir.SequencerProgram) { p.Hardware.InstrumentType = "AWG" },
			wantCode:  ErrInvalidHardware,
			wantField: "hardware",
		},
		{
			name: "start times decrease",
			mutate: func(p *ir.SequencerProgram) {
				p.Pulses[0].StartTime = start(100e-9)
				p.Pulses[1].StartTime = start(40e-9)
			},
			wantCode:  ErrStartTimeOrder,
			wantField: "pulses[1].start_time",
		},
		{
			name:      "negative start",
			mutate:    func(p *ir.SequencerProgram) { p.Pulses[0].StartTime = start(-4e-9) },
			wantCode:  ErrInvalidStartTime,
			wantField: "pulses[0].start_time",
		},
		{
			name:      "off-grid start",
			mutate:    func(p *ir.SequencerProgram) { p.Pulses[1].StartTime = start(10e-9) },
			wantCode:  ErrOffGridTiming,
			wantField: "pulses[1].start_time",
		},
		{
			name:      "off-grid marker duration",
			mutate:    func(p *ir.SequencerProgram) { p.Pulses[1].Duration = 42e-9 },
			wantCode:  ErrOffGridTiming,
			wantField: "pulses[1].duration",
		},
		{
			name:      "off-grid generic duration",
			mutate:    func(p *ir.SequencerProgram) { p.Pulses[0].Duration = 10e-9 },
			wantCode:  ErrOffGridTiming,
			wantField: "pulses[0].duration",
		},
		{
			name:      "empty pulse name",
			mutate:    func(p *ir.SequencerProgram) { p.Pulses[1].Name = "" },
			wantCode:  ErrPulseNameEmpty,
			wantField: "pulses[1].name",
		},
		{
			name:      "zero duration",
			mutate:    func(p *ir.SequencerProgram) { p.Pulses[0].Duration = 0 },
			wantCode:  ErrInvalidDuration,
			wantField: "pulses[0].duration",
		},
		{
			name:      "unknown io mode",
			mutate:    func(p *ir.SequencerProgram) { p.Pulses[0].IOMode = "stereo" },
			wantCode:  ErrInvalidIOMode,
			wantField: "pulses[0].io_mode",
		},
		{
			name:      "missing shape",
			mutate:    func(p *ir.SequencerProgram) { p.Pulses[0].Shape = nil },
			wantCode:  ErrMissingShape,
			wantField: "pulses[0].shape",
		},
		{
			name: "unknown function",
			mutate: func(p *ir.SequencerProgram) {
				p.Pulses[0].Shape = ir.GenericShape{Waveform: ir.WaveformSpec{Func: "sawtooth"}}
			},
			wantCode:  ErrUnknownWaveformFn,
			wantField: "pulses[0].shape.waveform.func",
		},
		{
			name: "generic amplitude",
			mutate: func(p *ir.SequencerProgram) {
				p.Pulses[0].Shape = ir.GenericShape{Waveform: ir.WaveformSpec{
					Func:   "square",
					Params: map[string]float64{"amp": 1.5},
				}}
			},
			wantCode:  ErrAmplitudeOutOfRange,
			wantField: "pulses[0].shape.waveform.params.amp",
		},
		{
			name:      "stitched amplitude",
			mutate:    func(p *ir.SequencerProgram) { p.Pulses[0].Shape = ir.StitchedSquareShape{Amp: -1.01} },
			wantCode:  ErrAmplitudeOutOfRange,
			wantField: "pulses[0].shape.amp",
		},
		{
			name: "staircase final amplitude",
			mutate: func(p *ir.SequencerProgram) {
				p.Pulses[0].Shape = ir.StaircaseShape{StartAmp: 0, FinalAmp: 2, NumSteps: 4}
			},
			wantCode:  ErrAmplitudeOutOfRange,
			wantField: "pulses[0].shape.final_amp",
		},
		{
			name: "staircase steps",
			mutate: func(p *ir.SequencerProgram) {
				p.Pulses[0].Shape = ir.StaircaseShape{StartAmp: 0, FinalAmp: 1, NumSteps: 0}
			},
			wantCode:  ErrInvalidNumSteps,
			wantField: "pulses[0].shape.num_steps",
		},
		{
			name:      "marker on analog output",
			mutate:    func(p *ir.SequencerProgram) { p.Pulses[1].IOMode = ir.IOModeReal },
			wantCode:  ErrDigitalMismatch,
			wantField: "pulses[1].io_mode",
		},
		{
			name:      "waveform on digital output",
			mutate:    func(p *ir.SequencerProgram) { p.Pulses[0].IOMode = ir.IOModeDigital },
			wantCode:  ErrDigitalMismatch,
			wantField: "pulses[0].io_mode",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := validProgram()
			tt.mutate(&p)

			errs := Validate(p)
			assert.Len(t, errs, 1, "got %v", errs)
			assert.Contains(t, codes(errs), tt.wantCode)
			if len(errs) > 0 {
				assert.Equal(t, tt.wantField, errs[0].Field)
			}
		})
	}
}

func TestValidateCollectsAll(t *testing.T) {
	p := validProgram()
	p.Pulses[0].Duration = -1
	p.Pulses[0].IOMode = "stereo"
	p.Pulses[1].Name = ""

	errs := Validate(p)
	assert.ElementsMatch(t, []string{ErrInvalidDuration, ErrInvalidIOMode, ErrPulseNameEmpty}, codes(errs))
}

func TestValidatePulseOperation(t *testing.T) {
	op := ir.PulseOperation{Name: "p", Duration: 20e-9, IOMode: ir.IOModeReal, Shape: ir.MarkerShape{}}
	errs := Validate(op)
	assert.Equal(t, []string{ErrDigitalMismatch}, codes(errs))
	assert.Equal(t, "pulse.io_mode", errs[0].Field)
}

func TestValidateUnsupportedType(t *testing.T) {
	errs := Validate("not IR")
	assert.Len(t, errs, 1)
	assert.Equal(t, ErrUnsupportedIRType, errs[0].Code)
}

func TestValidationErrorFormat(t *testing.T) {
	err := ValidationError{Field: "pulses[0].duration", Message: "duration must be positive, got 0 s", Code: ErrInvalidDuration}
	assert.Equal(t, "[E111] pulses[0].duration: duration must be positive, got 0 s", err.Error())

	err.Line = 7
	assert.Equal(t, "[E111] line 7: pulses[0].duration: duration must be positive, got 0 s", err.Error())
}

func TestValidateGridFollowsHardware(t *testing.T) {
	p := validProgram()
	p.Pulses[1].Duration = 42e-9
	assert.Equal(t, []string{ErrOffGridTiming}, codes(Validate(p)))

	p.Hardware.GridTimeNs = 2
	assert.Empty(t, Validate(p), "42 ns is on a 2 ns grid")
}

func TestValidateStitchedRemainderIsNotAGridError(t *testing.T) {
	p := validProgram()
	p.Pulses[0].Shape = ir.StitchedSquareShape{Amp: 0.5}
	p.Pulses[0].IOMode = ir.IOModeReal
	p.Pulses[0].Duration = 1002e-9
	assert.Empty(t, Validate(p), "the stitch remainder is rounded by the emitter")
}
