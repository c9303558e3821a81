package harness

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"

	"github.com/roach88/qpulse/internal/compiler"
	"github.com/roach88/qpulse/internal/ir"
	"github.com/roach88/qpulse/internal/pulse"
	"github.com/roach88/qpulse/internal/store"
	"github.com/roach88/qpulse/internal/testutil"
)

const defaultRunID = "test-run-0001"

// Harness is the test execution engine.
// It compiles scenario programs with a deterministic run ID into a private
// store.
type Harness struct {
	store    *store.Store
	compiler *pulse.Compiler
	runIDs   store.RunIDGenerator
	logger   *slog.Logger
}

// Run executes a test scenario and returns the result.
//
// Each scenario runs in a fresh in-memory database for isolation.
//
// Execution flow:
// 1. Create fresh in-memory database
// 2. Load the CUE schedules and select the program
// 3. Validate the program, then compile it
// 4. Archive the compiled program
// 5. Check the expect clause and evaluate assertions
//
// A returned error means the scenario could not be executed; a failing
// scenario is reported through Result.Pass and Result.Errors.
func Run(scenario *Scenario) (*Result, error) {
	st, err := store.Open(":memory:")
	if err != nil {
		return nil, fmt.Errorf("failed to create in-memory store: %w", err)
	}
	defer st.Close()

	runID := scenario.RunID
	if runID == "" {
		runID = defaultRunID
	}

	logger := slog.New(slog.NewTextHandler(io.Discard, nil)) // Suppress logs in tests
	h := &Harness{
		store:    st,
		compiler: pulse.NewCompiler(pulse.WithLogger(logger)),
		runIDs:   testutil.NewFixedRunIDs(runID),
		logger:   logger,
	}

	prog, err := LoadProgram(scenario.Schedules, scenario.Program)
	if err != nil {
		return nil, err
	}

	ctx := context.Background()
	result := NewResult()
	if err := h.compile(ctx, prog, result); err != nil {
		return nil, err
	}

	if !checkExpect(scenario.Expect, result) || result.ErrorCode != "" {
		return result, nil
	}

	actx := &AssertionContext{
		Store: st,
		Ctx:   ctx,
	}
	for _, errMsg := range EvaluateAssertions(result, scenario.Assertions, actx) {
		result.AddError(errMsg)
	}

	return result, nil
}

// compile validates and compiles prog into result. Validation and
// compilation failures are recorded in result.ErrorCode; only store failures
// are returned.
func (h *Harness) compile(ctx context.Context, prog ir.SequencerProgram, result *Result) error {
	if errs := compiler.Validate(prog); len(errs) > 0 {
		result.ErrorCode = errs[0].Code
		msgs := make([]string, len(errs))
		for i, e := range errs {
			msgs[i] = e.Error()
		}
		h.logger.Info("program rejected by validation", "program", prog.Name, "errors", len(errs))
		result.Errors = append(result.Errors, msgs...)
		return nil
	}

	res, err := h.compiler.Compile(prog)
	if err != nil {
		result.ErrorCode = string(pulse.CodeOf(err))
		result.Errors = append(result.Errors, err.Error())
		h.logger.Info("program failed to compile", "program", prog.Name, "error", err)
		return nil
	}

	result.ProgramID = res.ProgramID
	result.Listing = res.Program.Format()
	result.ElapsedNs = res.Program.ElapsedTime()
	result.Waveforms = res.Table.Len()
	result.addInstructions(res.Program.Instructions())
	for _, w := range res.Warnings {
		result.Warnings = append(result.Warnings, WarningEvent{Code: string(w.Code), Message: w.Message, Pulse: w.Pulse})
	}

	run, err := h.store.BeginRun(ctx, h.runIDs)
	if err != nil {
		return fmt.Errorf("failed to begin run: %w", err)
	}
	rec, err := store.NewProgramRecord(run.ID, prog, res)
	if err != nil {
		return err
	}
	if _, err := h.store.WriteProgram(ctx, rec); err != nil {
		return fmt.Errorf("failed to archive program: %w", err)
	}

	h.logger.Info("program compiled",
		"program", prog.Name,
		"program_id", res.ProgramID,
		"run_id", run.ID,
	)
	return nil
}

// checkExpect compares the outcome with the expect clause and records a
// mismatch. Errors left in result by compile are cleared when they were
// expected. It reports whether the outcome matched.
func checkExpect(expect *ExpectClause, result *Result) bool {
	switch {
	case expect == nil && result.ErrorCode == "":
		return true
	case expect == nil:
		result.Pass = false
		return false
	case result.ErrorCode == "":
		result.AddError(fmt.Sprintf("expected error %s, but the program compiled", expect.Error))
		return false
	case result.ErrorCode != expect.Error:
		result.AddError(fmt.Sprintf("expected error %s, got %s", expect.Error, result.ErrorCode))
		return false
	default:
		result.Errors = []string{}
		return true
	}
}

// LoadProgram compiles the CUE schedule files and returns the named program.
// An empty name selects the only program of the schedules.
func LoadProgram(paths []string, name string) (ir.SequencerProgram, error) {
	ctx := cuecontext.New()

	var progs []ir.SequencerProgram
	for _, path := range paths {
		data, err := os.ReadFile(path)
		if err != nil {
			return ir.SequencerProgram{}, fmt.Errorf("failed to read schedule: %w", err)
		}
		v := ctx.CompileBytes(data, cue.Filename(path))
		fileProgs, err := compiler.CompileSchedule(v, ir.HardwareConfig{})
		if err != nil {
			return ir.SequencerProgram{}, fmt.Errorf("failed to compile schedule %s: %w", path, err)
		}
		progs = append(progs, fileProgs...)
	}

	if name == "" {
		if len(progs) != 1 {
			return ir.SequencerProgram{}, fmt.Errorf("schedules declare %d programs, scenario must name one", len(progs))
		}
		return progs[0], nil
	}

	var names []string
	for _, p := range progs {
		if p.Name == name {
			return p, nil
		}
		names = append(names, p.Name)
	}
	return ir.SequencerProgram{}, fmt.Errorf("program %q not found in schedules (have: %s)", name, strings.Join(names, ", "))
}
