package cli

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/roach88/qpulse/internal/querysql"
	"github.com/roach88/qpulse/internal/store"
)

// InspectOptions holds flags for the inspect command.
type InspectOptions struct {
	*RootOptions
	Database   string
	Samples    bool // print waveform samples of a single program
	Name       string
	Instrument string
	RunID      string
	Warning    string
}

// filter builds the program filter from the filter flags, or nil when none
// is set.
func (o *InspectOptions) filter() querysql.Predicate {
	var preds []querysql.Predicate
	if o.Name != "" {
		preds = append(preds, querysql.Equals{Field: querysql.FieldName, Value: o.Name})
	}
	if o.Instrument != "" {
		preds = append(preds, querysql.Equals{Field: querysql.FieldInstrument, Value: o.Instrument})
	}
	if o.RunID != "" {
		preds = append(preds, querysql.Equals{Field: querysql.FieldRunID, Value: o.RunID})
	}
	if o.Warning != "" {
		preds = append(preds, querysql.HasWarning{Code: o.Warning})
	}
	if len(preds) == 0 {
		return nil
	}
	return querysql.And{Predicates: preds}
}

// InspectList is the payload of inspect without a program ID.
type InspectList struct {
	Runs     []store.Run            `json:"runs"`
	Programs []store.ProgramSummary `json:"programs"`
}

// NewInspectCommand creates the inspect command.
func NewInspectCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &InspectOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "inspect [program-id]",
		Short: "Inspect archived programs",
		Long: `Inspect the programs archived by compile --db.

Without arguments, lists the runs and the programs they stored, optionally
filtered by name, instrument, run or warning code. With a program ID, prints
the archived listing, waveform table and warnings.

Examples:
  qpulse inspect --db ./qpulse.db
  qpulse inspect --db ./qpulse.db --instrument QRM-RF --warning W003
  qpulse inspect --db ./qpulse.db 3f2a...e1 --samples
  qpulse inspect --db ./qpulse.db --format json`,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runInspect(opts, args, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite database (required)")
	_ = cmd.MarkFlagRequired("db")
	cmd.Flags().BoolVar(&opts.Samples, "samples", false, "print waveform samples")
	cmd.Flags().StringVar(&opts.Name, "name", "", "only programs with this name")
	cmd.Flags().StringVar(&opts.Instrument, "instrument", "", "only programs for this instrument type")
	cmd.Flags().StringVar(&opts.RunID, "run", "", "only programs stored by this run")
	cmd.Flags().StringVar(&opts.Warning, "warning", "", "only programs that raised this warning code")

	return cmd
}

func runInspect(opts *InspectOptions, args []string, cmd *cobra.Command) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	// store.Open would create a missing database
	if _, err := os.Stat(opts.Database); err != nil {
		return WrapExitError(ExitCommandError, fmt.Sprintf("database not found: %s", opts.Database), err)
	}

	st, err := store.Open(opts.Database)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to open database", err)
	}
	defer st.Close()

	if len(args) == 0 {
		return inspectList(ctx, st, opts, cmd)
	}
	return inspectProgram(ctx, st, args[0], opts, cmd)
}

func inspectList(ctx context.Context, st *store.Store, opts *InspectOptions, cmd *cobra.Command) error {
	runs, err := st.ListRuns(ctx)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to list runs", err)
	}
	filter := opts.filter()
	programs, err := st.FindPrograms(ctx, filter)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to list programs", err)
	}

	if opts.Format == "json" {
		if runs == nil {
			runs = []store.Run{}
		}
		if programs == nil {
			programs = []store.ProgramSummary{}
		}
		return newFormatter(opts.RootOptions, cmd).Success(InspectList{Runs: runs, Programs: programs})
	}

	w := cmd.OutOrStdout()
	if len(programs) == 0 {
		if filter != nil {
			fmt.Fprintln(w, "No programs match the filter.")
			return nil
		}
		fmt.Fprintln(w, "No programs archived.")
		return nil
	}

	fmt.Fprintf(w, "%d run(s), %d program(s)\n\n", len(runs), len(programs))
	for _, run := range runs {
		var stored []store.ProgramSummary
		for _, p := range programs {
			if p.RunID == run.ID {
				stored = append(stored, p)
			}
		}
		if len(stored) == 0 && filter != nil {
			continue
		}
		fmt.Fprintf(w, "Run %d  %s  (compiler %s, ir %s)\n", run.Seq, run.ID, run.CompilerVersion, run.IRVersion)
		for _, p := range stored {
			fmt.Fprintf(w, "  %s  %-16s %-7s %6d ns  %4d instr  %3d wf  %d warn\n",
				shortID(p.ID), p.Name, p.Instrument, p.ElapsedNs, p.Instructions, p.Waveforms, p.Warnings)
		}
	}
	return nil
}

func inspectProgram(ctx context.Context, st *store.Store, id string, opts *InspectOptions, cmd *cobra.Command) error {
	rec, err := st.ReadProgram(ctx, id)
	if errors.Is(err, store.ErrNotFound) {
		return NewExitError(ExitCommandError, fmt.Sprintf("%s: program not found: %s", ErrCodeNotFound, id))
	}
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to read program", err)
	}

	if !opts.Samples {
		for i := range rec.Waveforms {
			rec.Waveforms[i].Samples = nil
		}
	}

	if opts.Format == "json" {
		return newFormatter(opts.RootOptions, cmd).Success(rec)
	}

	w := cmd.OutOrStdout()
	fmt.Fprintf(w, "Program:      %s\n", rec.Name)
	fmt.Fprintf(w, "ID:           %s\n", rec.ID)
	fmt.Fprintf(w, "Run:          %s\n", rec.RunID)
	fmt.Fprintf(w, "Instrument:   %s\n", rec.Hardware.InstrumentType)
	fmt.Fprintf(w, "Elapsed:      %d ns\n", rec.ElapsedNs)
	fmt.Fprintf(w, "Instructions: %d\n", rec.Instructions)

	fmt.Fprintf(w, "\nWaveforms (%d):\n", len(rec.Waveforms))
	for _, wf := range rec.Waveforms {
		users, err := st.WaveformUsers(ctx, wf.Key)
		if err != nil {
			return WrapExitError(ExitCommandError, "failed to read waveform users", err)
		}
		if shared := len(users) - 1; shared > 0 {
			fmt.Fprintf(w, "  [%d] %s  shared with %d other program(s)\n", wf.Index, shortID(wf.Key), shared)
		} else {
			fmt.Fprintf(w, "  [%d] %s\n", wf.Index, shortID(wf.Key))
		}
		if opts.Samples {
			fmt.Fprintf(w, "      %v\n", wf.Samples)
		}
	}

	if len(rec.Warnings) > 0 {
		fmt.Fprintf(w, "\nWarnings (%d):\n", len(rec.Warnings))
		for _, warn := range rec.Warnings {
			fmt.Fprintf(w, "  %s\n", warn)
		}
	}

	fmt.Fprintf(w, "\nListing:\n%s", rec.Listing)
	return nil
}

// shortID abbreviates a content hash for text output.
func shortID(id string) string {
	if len(id) <= 12 {
		return id
	}
	return id[:12]
}
