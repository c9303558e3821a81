package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/roach88/qpulse/internal/compiler"
	"github.com/roach88/qpulse/internal/ir"
	"github.com/roach88/qpulse/internal/pulse"
	"github.com/roach88/qpulse/internal/store"
)

// CompileOptions holds flags for the compile command.
type CompileOptions struct {
	*RootOptions
	Output    string // JSON sequence file path
	Listing   string // directory for textual listings
	Waveforms string // directory for Parquet waveform exports
	DB        string // SQLite archive path
}

// CompiledProgram is the per-program entry of the --output file: the
// waveform table keyed by content key and the textual program.
type CompiledProgram struct {
	Name      string                  `json:"name"`
	ProgramID string                  `json:"program_id"`
	Hardware  ir.HardwareConfig       `json:"hardware"`
	ElapsedNs int64                   `json:"elapsed_ns"`
	Waveforms map[string]WaveformJSON `json:"waveforms"`
	Program   string                  `json:"program"`
	Warnings  []pulse.Warning         `json:"warnings,omitempty"`
}

// WaveformJSON is one waveform of a CompiledProgram.
type WaveformJSON struct {
	Data  []float64 `json:"data"`
	Index int       `json:"index"`
}

// ProgramStats is the summary line of one compiled program.
type ProgramStats struct {
	Name         string          `json:"name"`
	ProgramID    string          `json:"program_id"`
	ElapsedNs    int64           `json:"elapsed_ns"`
	Instructions int             `json:"instructions"`
	Waveforms    int             `json:"waveforms"`
	Samples      int             `json:"waveform_samples"` // stored in waveform memory
	Memory       int             `json:"waveform_memory"`  // capacity in samples
	Warnings     []pulse.Warning `json:"warnings,omitempty"`
}

// CompilationResult is the payload reported by the compile command.
type CompilationResult struct {
	Programs []ProgramStats `json:"programs"`
	RunID    string         `json:"run_id,omitempty"`
}

// NewCompileCommand creates the compile command.
func NewCompileCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &CompileOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "compile <schedule-dir>",
		Short: "Compile CUE schedules to waveform tables and Q1ASM",
		Long: `Compile every program of a CUE schedule directory.

Each program is validated, then compiled into a deduplicated waveform table
and a Q1ASM instruction stream. Programs are compiled concurrently and any
error aborts the command.

Outputs:
  --output     JSON file with waveforms and program text per sequencer
  --listing    directory receiving one <program>.q1asm listing per program
  --waveforms  directory receiving one <program>.parquet sample export
  --db         SQLite archive; programs are stored under a new run`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true, // Don't print usage on errors - we handle our own error output
		SilenceErrors: true, // Don't print errors - we handle our own error output
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCompile(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVarP(&opts.Output, "output", "o", "", "output file path")
	cmd.Flags().StringVar(&opts.Listing, "listing", "", "directory for Q1ASM listings")
	cmd.Flags().StringVar(&opts.Waveforms, "waveforms", "", "directory for Parquet waveform exports")
	cmd.Flags().StringVar(&opts.DB, "db", "", "SQLite archive path")

	return cmd
}

func runCompile(opts *CompileOptions, scheduleDir string, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd)

	loadResult, loadErrors := LoadSchedules(scheduleDir, LoadModeCollectAll)
	if loadResult == nil && len(loadErrors) > 0 {
		var loadErr *LoadError
		if errors.As(loadErrors[0], &loadErr) {
			return outputCompileError(formatter, loadErr.Code, loadErr.Message, nil)
		}
		return outputCompileError(formatter, ErrCodeGeneric, loadErrors[0].Error(), nil)
	}

	formatter.VerboseLog("Found %d CUE file(s) in %s", loadResult.FileCount, scheduleDir)

	if len(loadErrors) > 0 {
		return outputCompileErrors(formatter, loadErrors)
	}

	var validationErrs []error
	for _, prog := range loadResult.Programs {
		formatter.VerboseLog("Validating program: %s", prog.Name)
		for _, verr := range compiler.Validate(prog) {
			validationErrs = append(validationErrs, &LoadError{
				Code:    verr.Code,
				Message: fmt.Sprintf("program.%s: %s: %s", prog.Name, verr.Field, verr.Message),
			})
		}
	}
	if len(validationErrs) > 0 {
		return outputCompileErrors(formatter, validationErrs)
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	c := pulse.NewCompiler(pulse.WithLogger(slog.Default()))
	results, err := c.CompileAll(ctx, loadResult.Programs)
	if err != nil {
		return outputCompileErrors(formatter, []error{err})
	}

	out := &CompilationResult{}
	for _, res := range results {
		out.Programs = append(out.Programs, ProgramStats{
			Name:         res.Name,
			ProgramID:    res.ProgramID,
			ElapsedNs:    res.Program.ElapsedTime(),
			Instructions: res.Program.Len(),
			Waveforms:    res.Table.Len(),
			Samples:      res.Table.TotalSamples(),
			Memory:       res.Table.MaxSamples(),
			Warnings:     res.Warnings,
		})
	}

	if opts.Output != "" {
		if err := writeSequenceFile(results, opts.Output); err != nil {
			return outputCompileError(formatter, ErrCodeWriteFailed, fmt.Sprintf("writing output file: %v", err), nil)
		}
		formatter.VerboseLog("Wrote %s", opts.Output)
	}
	if opts.Listing != "" {
		if err := writeListings(results, opts.Listing); err != nil {
			return outputCompileError(formatter, ErrCodeWriteFailed, fmt.Sprintf("writing listings: %v", err), nil)
		}
		formatter.VerboseLog("Wrote %d listing(s) to %s", len(results), opts.Listing)
	}
	if opts.Waveforms != "" {
		if err := writeWaveformExports(results, opts.Waveforms); err != nil {
			return outputCompileError(formatter, ErrCodeWriteFailed, fmt.Sprintf("writing waveform exports: %v", err), nil)
		}
		formatter.VerboseLog("Wrote %d waveform export(s) to %s", len(results), opts.Waveforms)
	}
	if opts.DB != "" {
		runID, err := archivePrograms(ctx, opts.DB, loadResult.Programs, results, formatter)
		if err != nil {
			return outputCompileError(formatter, ErrCodeStoreFailed, fmt.Sprintf("archiving programs: %v", err), nil)
		}
		out.RunID = runID
	}

	return outputCompileSuccess(formatter, out, opts)
}

// archivePrograms stores every result under a new run and returns its ID.
// results[i] must be the compilation of progs[i].
func archivePrograms(ctx context.Context, dbPath string, progs []ir.SequencerProgram, results []*pulse.Result, formatter *OutputFormatter) (string, error) {
	st, err := store.Open(dbPath)
	if err != nil {
		return "", err
	}
	defer st.Close()

	run, err := st.BeginRun(ctx, store.UUIDv7Generator{})
	if err != nil {
		return "", err
	}

	for i, res := range results {
		rec, err := store.NewProgramRecord(run.ID, progs[i], res)
		if err != nil {
			return "", err
		}
		inserted, err := st.WriteProgram(ctx, rec)
		if err != nil {
			return "", err
		}
		if !inserted {
			formatter.VerboseLog("Program %s already archived as %s", res.Name, res.ProgramID)
		}
	}
	return run.ID, nil
}

// outputCompileSuccess outputs successful compilation results.
func outputCompileSuccess(formatter *OutputFormatter, result *CompilationResult, opts *CompileOptions) error {
	if formatter.JSON() {
		return formatter.Success(result)
	}

	fmt.Fprintf(formatter.Writer, "✓ Compiled %d program(s)\n\n", len(result.Programs))

	for _, p := range result.Programs {
		fmt.Fprintf(formatter.Writer, "  %s: %d ns, %d instruction(s), %d waveform(s), %d/%d samples\n",
			p.Name, p.ElapsedNs, p.Instructions, p.Waveforms, p.Samples, p.Memory)
		for _, w := range p.Warnings {
			fmt.Fprintf(formatter.Writer, "    warning %s\n", w)
		}
	}
	fmt.Fprintln(formatter.Writer)

	if opts.Output != "" {
		fmt.Fprintf(formatter.Writer, "Wrote sequence file to %s\n", opts.Output)
	}
	if opts.Listing != "" {
		fmt.Fprintf(formatter.Writer, "Wrote listings to %s\n", opts.Listing)
	}
	if opts.Waveforms != "" {
		fmt.Fprintf(formatter.Writer, "Wrote waveform exports to %s\n", opts.Waveforms)
	}
	if result.RunID != "" {
		fmt.Fprintf(formatter.Writer, "Archived run %s in %s\n", result.RunID, opts.DB)
	}

	return nil
}

// outputCompileError outputs a single compilation error.
func outputCompileError(formatter *OutputFormatter, code, message string, details any) error {
	_ = formatter.Error(code, message, details)
	// Compilation errors are command-level errors (exit code 2)
	return WrapExitError(ExitCommandError, fmt.Sprintf("%s: %s", code, message), nil)
}

// outputCompileErrors outputs multiple compilation errors.
func outputCompileErrors(formatter *OutputFormatter, errs []error) error {
	failed := NewExitError(ExitCommandError, fmt.Sprintf("compilation failed with %d error(s)", len(errs)))

	if formatter.JSON() {
		cliErrors := make([]CLIError, len(errs))
		for i, err := range errs {
			code, message := parseCompileError(err)
			cliErrors[i] = CLIError{Code: code, Message: message}
		}
		if err := formatter.Failure(cliErrors, cliErrors[0]); err != nil {
			return err
		}
		return failed
	}

	fmt.Fprintln(formatter.Writer, "✗ Compilation failed")
	fmt.Fprintln(formatter.Writer)

	for _, err := range errs {
		code, message := parseCompileError(err)
		var loadErr *LoadError
		if errors.As(err, &loadErr) {
			formatter.Location(loadErr.Pos)
		}
		fmt.Fprintf(formatter.Writer, "  %s: %s\n\n", code, message)
	}

	return failed
}

// parseCompileError extracts error code and message from an error.
func parseCompileError(err error) (string, string) {
	var loadErr *LoadError
	if errors.As(err, &loadErr) {
		return loadErr.Code, loadErr.Message
	}
	var pulseErr *pulse.PulseError
	if errors.As(err, &pulseErr) {
		return string(pulseErr.Code), err.Error()
	}
	return ErrCodeGeneric, err.Error()
}

// writeSequenceFile writes the compiled programs to a JSON file keyed by
// program name.
func writeSequenceFile(results []*pulse.Result, filename string) error {
	doc := make(map[string]CompiledProgram, len(results))
	for _, res := range results {
		waveforms := make(map[string]WaveformJSON, res.Table.Len())
		for _, e := range res.Table.Entries() {
			waveforms[e.Key] = WaveformJSON{Data: e.Samples, Index: e.Index}
		}
		doc[res.Name] = CompiledProgram{
			Name:      res.Name,
			ProgramID: res.ProgramID,
			Hardware:  res.Hardware,
			ElapsedNs: res.Program.ElapsedTime(),
			Waveforms: waveforms,
			Program:   res.Program.Format(),
			Warnings:  res.Warnings,
		}
	}

	// Indented for readability; canonical JSON is only used for hashing
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling sequences: %w", err)
	}

	if err := os.WriteFile(filename, data, 0644); err != nil {
		return fmt.Errorf("writing file: %w", err)
	}

	return nil
}

// writeListings writes <dir>/<program>.q1asm for every result.
func writeListings(results []*pulse.Result, dir string) error {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}
	for _, res := range results {
		path := filepath.Join(dir, res.Name+".q1asm")
		if err := os.WriteFile(path, []byte(res.Program.Format()), 0644); err != nil {
			return fmt.Errorf("writing %s: %w", path, err)
		}
	}
	return nil
}

// writeWaveformExports writes <dir>/<program>.parquet for every result.
func writeWaveformExports(results []*pulse.Result, dir string) error {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}
	for _, res := range results {
		path := filepath.Join(dir, res.Name+".parquet")
		if err := writeParquetFile(res, path); err != nil {
			return fmt.Errorf("writing %s: %w", path, err)
		}
	}
	return nil
}

func writeParquetFile(res *pulse.Result, path string) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := f.Close(); err == nil {
			err = cerr
		}
	}()
	hw := res.Hardware
	return res.Table.WriteParquet(f, &hw)
}
