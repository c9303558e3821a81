package store

import (
	"io"
	"log/slog"
	"path/filepath"
	"testing"

	"github.com/roach88/qpulse/internal/ir"
	"github.com/roach88/qpulse/internal/pulse"
	"github.com/roach88/qpulse/internal/testutil"
)

// createTestStore creates a new file-backed store for testing.
func createTestStore(t *testing.T) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.db")
	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

// testProgram is a small program with two waveforms and a deprecation warning.
func testProgram(name string) ir.SequencerProgram {
	return testutil.Program(name, ir.InstrumentQRM,
		testutil.Square("x", 20, 0.5, ir.IOModeReal),
		testutil.Generic("ramp", 16, ir.IOModeReal, "ramp", map[string]float64{"amp": 0.25}),
		testutil.Staircase("steps", 40, 0, 0.5, 2, ir.IOModeReal),
	)
}

// compileRecord compiles prog and builds its archive record for runID.
func compileRecord(t *testing.T, runID string, prog ir.SequencerProgram) ProgramRecord {
	t.Helper()
	c := pulse.NewCompiler(pulse.WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))))
	res, err := c.Compile(prog)
	if err != nil {
		t.Fatalf("Compile() failed: %v", err)
	}
	rec, err := NewProgramRecord(runID, prog, res)
	if err != nil {
		t.Fatalf("NewProgramRecord() failed: %v", err)
	}
	return rec
}
