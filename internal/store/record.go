package store

import (
	"fmt"

	"github.com/roach88/qpulse/internal/ir"
	"github.com/roach88/qpulse/internal/pulse"
)

// Run is one invocation of the compiler that archived programs.
type Run struct {
	ID              string `json:"id"`
	Seq             int64  `json:"seq"`
	CompilerVersion string `json:"compiler_version"`
	IRVersion       string `json:"ir_version"`
}

// ProgramRecord is the archived form of one compiled sequencer program.
type ProgramRecord struct {
	ID           string            `json:"id"`
	RunID        string            `json:"run_id"`
	Name         string            `json:"name"`
	Hardware     ir.HardwareConfig `json:"hardware"`
	Source       string            `json:"source"` // canonical JSON of the input program
	Listing      string            `json:"listing"`
	ElapsedNs    int64             `json:"elapsed_ns"`
	Instructions int               `json:"instructions"`
	Waveforms    []WaveformRecord  `json:"waveforms"`
	Warnings     []pulse.Warning   `json:"warnings"`
}

// WaveformRecord is one waveform table entry of a program.
type WaveformRecord struct {
	Index   int       `json:"index"`
	Key     string    `json:"key"`
	Samples []float64 `json:"data"`
}

// ProgramSummary is a listing row for ListPrograms.
type ProgramSummary struct {
	ID           string `json:"id"`
	RunID        string `json:"run_id"`
	Name         string `json:"name"`
	Instrument   string `json:"instrument_type"`
	ElapsedNs    int64  `json:"elapsed_ns"`
	Instructions int    `json:"instructions"`
	Waveforms    int    `json:"waveforms"`
	Warnings     int    `json:"warnings"`
}

// NewProgramRecord builds the archive record of res, compiled from prog
// during run runID.
func NewProgramRecord(runID string, prog ir.SequencerProgram, res *pulse.Result) (ProgramRecord, error) {
	// the source is stored with the hardware defaults the compiler applied
	prog.Hardware = res.Hardware
	source, err := ir.MarshalCanonical(prog.CanonicalMap())
	if err != nil {
		return ProgramRecord{}, fmt.Errorf("program record %s: %w", prog.Name, err)
	}

	entries := res.Table.Entries()
	waveforms := make([]WaveformRecord, len(entries))
	for i, e := range entries {
		waveforms[i] = WaveformRecord{Index: e.Index, Key: e.Key, Samples: e.Samples}
	}

	return ProgramRecord{
		ID:           res.ProgramID,
		RunID:        runID,
		Name:         res.Name,
		Hardware:     res.Hardware,
		Source:       string(source),
		Listing:      res.Program.Format(),
		ElapsedNs:    res.Program.ElapsedTime(),
		Instructions: res.Program.Len(),
		Waveforms:    waveforms,
		Warnings:     append([]pulse.Warning(nil), res.Warnings...),
	}, nil
}
