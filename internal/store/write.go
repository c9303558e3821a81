package store

import (
	"context"
	"fmt"

	"github.com/roach88/qpulse/internal/ir"
)

// BeginRun records a new compilation run and returns it. The run's seq is
// one past the highest seq in the store.
func (s *Store) BeginRun(ctx context.Context, gen RunIDGenerator) (Run, error) {
	run := Run{
		ID:              gen.Generate(),
		CompilerVersion: ir.CompilerVersion,
		IRVersion:       ir.IRVersion,
	}

	err := s.db.QueryRowContext(ctx, `
		INSERT INTO runs (id, seq, compiler_version, ir_version)
		SELECT ?, COALESCE(MAX(seq), 0) + 1, ?, ?
		FROM runs
		RETURNING seq
	`, run.ID, run.CompilerVersion, run.IRVersion).Scan(&run.Seq)
	if err != nil {
		return Run{}, fmt.Errorf("begin run: %w", err)
	}
	return run, nil
}

// WriteProgram archives a compiled program with its waveforms and warnings.
// Uses ON CONFLICT(id) DO NOTHING for idempotency: a program whose content
// hash is already stored is left untouched and inserted is false.
//
// Note: The run referenced by RunID must exist (foreign key constraint).
func (s *Store) WriteProgram(ctx context.Context, rec ProgramRecord) (inserted bool, err error) {
	hardware, err := marshalHardware(rec.Hardware)
	if err != nil {
		return false, fmt.Errorf("write program: %w", err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return false, fmt.Errorf("write program: begin tx: %w", err)
	}
	defer tx.Rollback() // No-op if committed

	result, err := tx.ExecContext(ctx, `
		INSERT INTO programs
		(id, run_id, name, hardware, source, listing, elapsed_ns, instructions)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO NOTHING
	`,
		rec.ID,
		rec.RunID,
		rec.Name,
		hardware,
		rec.Source,
		rec.Listing,
		rec.ElapsedNs,
		rec.Instructions,
	)
	if err != nil {
		return false, fmt.Errorf("write program: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("write program: rows affected: %w", err)
	}
	if affected == 0 {
		return false, nil
	}

	for _, wf := range rec.Waveforms {
		samples, err := marshalSamples(wf.Samples)
		if err != nil {
			return false, fmt.Errorf("write program: waveform %d: %w", wf.Index, err)
		}
		_, err = tx.ExecContext(ctx, `
			INSERT INTO waveforms (program_id, idx, key, samples)
			VALUES (?, ?, ?, ?)
		`, rec.ID, wf.Index, wf.Key, samples)
		if err != nil {
			return false, fmt.Errorf("write program: waveform %d: %w", wf.Index, err)
		}
	}

	for i, w := range rec.Warnings {
		_, err = tx.ExecContext(ctx, `
			INSERT INTO warnings (program_id, seq, code, message, pulse, pulse_id)
			VALUES (?, ?, ?, ?, ?, ?)
		`, rec.ID, i+1, string(w.Code), w.Message, w.Pulse, w.PulseID)
		if err != nil {
			return false, fmt.Errorf("write program: warning %d: %w", i, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return false, fmt.Errorf("write program: commit: %w", err)
	}
	return true, nil
}
