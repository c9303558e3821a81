package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/roach88/qpulse/internal/pulse"
	"github.com/roach88/qpulse/internal/querysql"
)

// ReadProgram returns the archived program with the given content hash,
// including its waveforms in index order and warnings in emission order.
// Returns an error wrapping ErrNotFound if no such program exists.
func (s *Store) ReadProgram(ctx context.Context, id string) (ProgramRecord, error) {
	var rec ProgramRecord
	var hardware string
	err := s.db.QueryRowContext(ctx, `
		SELECT id, run_id, name, hardware, source, listing, elapsed_ns, instructions
		FROM programs
		WHERE id = ?
	`, id).Scan(
		&rec.ID,
		&rec.RunID,
		&rec.Name,
		&hardware,
		&rec.Source,
		&rec.Listing,
		&rec.ElapsedNs,
		&rec.Instructions,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return ProgramRecord{}, fmt.Errorf("read program %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return ProgramRecord{}, fmt.Errorf("read program %s: %w", id, err)
	}

	rec.Hardware, err = unmarshalHardware(hardware)
	if err != nil {
		return ProgramRecord{}, fmt.Errorf("read program %s: %w", id, err)
	}

	rec.Waveforms, err = s.readWaveforms(ctx, id)
	if err != nil {
		return ProgramRecord{}, err
	}
	rec.Warnings, err = s.readWarnings(ctx, id)
	if err != nil {
		return ProgramRecord{}, err
	}
	return rec, nil
}

func (s *Store) readWaveforms(ctx context.Context, programID string) ([]WaveformRecord, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT idx, key, samples
		FROM waveforms
		WHERE program_id = ?
		ORDER BY idx ASC
	`, programID)
	if err != nil {
		return nil, fmt.Errorf("query waveforms: %w", err)
	}
	defer rows.Close()

	waveforms := []WaveformRecord{}
	for rows.Next() {
		var wf WaveformRecord
		var samples string
		if err := rows.Scan(&wf.Index, &wf.Key, &samples); err != nil {
			return nil, fmt.Errorf("scan waveform: %w", err)
		}
		if wf.Samples, err = unmarshalSamples(samples); err != nil {
			return nil, fmt.Errorf("waveform %d: %w", wf.Index, err)
		}
		waveforms = append(waveforms, wf)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate waveforms: %w", err)
	}
	return waveforms, nil
}

func (s *Store) readWarnings(ctx context.Context, programID string) ([]pulse.Warning, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT code, message, pulse, pulse_id
		FROM warnings
		WHERE program_id = ?
		ORDER BY seq ASC
	`, programID)
	if err != nil {
		return nil, fmt.Errorf("query warnings: %w", err)
	}
	defer rows.Close()

	warnings := []pulse.Warning{}
	for rows.Next() {
		var w pulse.Warning
		var code string
		if err := rows.Scan(&code, &w.Message, &w.Pulse, &w.PulseID); err != nil {
			return nil, fmt.Errorf("scan warning: %w", err)
		}
		w.Code = pulse.WarningCode(code)
		warnings = append(warnings, w)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate warnings: %w", err)
	}
	return warnings, nil
}

// WaveformUsers returns the IDs of the archived programs whose waveform
// table holds the waveform with content key key, in ascending order.
func (s *Store) WaveformUsers(ctx context.Context, key string) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT DISTINCT program_id
		FROM waveforms
		WHERE key = ?
		ORDER BY program_id ASC
	`, key)
	if err != nil {
		return nil, fmt.Errorf("query waveform users: %w", err)
	}
	defer rows.Close()

	ids := []string{}
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan waveform user: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate waveform users: %w", err)
	}
	return ids, nil
}

// ListPrograms returns a summary of every archived program, ordered by the
// seq of the run that stored it, then by name and id.
//
// Returns an empty slice (not nil) if the store holds no programs.
func (s *Store) ListPrograms(ctx context.Context) ([]ProgramSummary, error) {
	return s.FindPrograms(ctx, nil)
}

// FindPrograms returns the summaries of the programs matching filter, in
// ListPrograms order. A nil filter matches every program.
func (s *Store) FindPrograms(ctx context.Context, filter querysql.Predicate) ([]ProgramSummary, error) {
	where, params, err := querysql.Compile(filter)
	if err != nil {
		return nil, fmt.Errorf("compile filter: %w", err)
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT p.id, p.run_id, p.name, p.hardware, p.elapsed_ns, p.instructions,
			(SELECT COUNT(*) FROM waveforms w WHERE w.program_id = p.id),
			(SELECT COUNT(*) FROM warnings x WHERE x.program_id = p.id)
		FROM programs p
		JOIN runs r ON p.run_id = r.id
		WHERE `+where+`
		ORDER BY r.seq ASC, p.name COLLATE BINARY ASC, p.id COLLATE BINARY ASC
	`, params...)
	if err != nil {
		return nil, fmt.Errorf("query programs: %w", err)
	}
	defer rows.Close()

	summaries := []ProgramSummary{}
	for rows.Next() {
		var sum ProgramSummary
		var hardware string
		if err := rows.Scan(
			&sum.ID,
			&sum.RunID,
			&sum.Name,
			&hardware,
			&sum.ElapsedNs,
			&sum.Instructions,
			&sum.Waveforms,
			&sum.Warnings,
		); err != nil {
			return nil, fmt.Errorf("scan program: %w", err)
		}
		hw, err := unmarshalHardware(hardware)
		if err != nil {
			return nil, fmt.Errorf("program %s: %w", sum.ID, err)
		}
		sum.Instrument = hw.InstrumentType
		summaries = append(summaries, sum)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate programs: %w", err)
	}
	return summaries, nil
}

// ListRuns returns every run ordered by seq.
func (s *Store) ListRuns(ctx context.Context) ([]Run, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, seq, compiler_version, ir_version
		FROM runs
		ORDER BY seq ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer rows.Close()

	runs := []Run{}
	for rows.Next() {
		var r Run
		if err := rows.Scan(&r.ID, &r.Seq, &r.CompilerVersion, &r.IRVersion); err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		runs = append(runs, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate runs: %w", err)
	}
	return runs, nil
}
