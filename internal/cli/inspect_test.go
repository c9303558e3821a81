package cli

import (
	"context"
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/qpulse/internal/store"
)

// compileToDB archives the valid schedules and returns the database path
// and the program summaries.
func compileToDB(t *testing.T) (string, []store.ProgramSummary) {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "qpulse.db")
	_, err := execute(NewCompileCommand(&RootOptions{Format: "text"}), validScheduleDir, "--db", dbPath)
	require.NoError(t, err)

	st, err := store.Open(dbPath)
	require.NoError(t, err)
	defer st.Close()
	programs, err := st.ListPrograms(context.Background())
	require.NoError(t, err)
	return dbPath, programs
}

func findProgram(t *testing.T, programs []store.ProgramSummary, name string) store.ProgramSummary {
	t.Helper()
	for _, p := range programs {
		if p.Name == name {
			return p
		}
	}
	t.Fatalf("program %s not archived", name)
	return store.ProgramSummary{}
}

func TestInspectList(t *testing.T) {
	dbPath, _ := compileToDB(t)

	out, err := execute(NewInspectCommand(&RootOptions{Format: "text"}), "--db", dbPath)
	require.NoError(t, err)
	assert.Contains(t, out, "1 run(s), 3 program(s)")
	assert.Contains(t, out, "Run 1 ")
	assert.Contains(t, out, "rf_marker")
	assert.Contains(t, out, "QRM-RF")
}

func TestInspectListJSON(t *testing.T) {
	dbPath, _ := compileToDB(t)

	out, err := execute(NewInspectCommand(&RootOptions{Format: "json"}), "--db", dbPath)
	require.NoError(t, err)

	var resp struct {
		Status string      `json:"status"`
		Data   InspectList `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "ok", resp.Status)
	require.Len(t, resp.Data.Runs, 1)
	assert.Len(t, resp.Data.Programs, 3)
	for _, p := range resp.Data.Programs {
		assert.Equal(t, resp.Data.Runs[0].ID, p.RunID)
	}
}

func TestInspectEmptyDatabase(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "empty.db")
	st, err := store.Open(dbPath)
	require.NoError(t, err)
	require.NoError(t, st.Close())

	out, err := execute(NewInspectCommand(&RootOptions{Format: "text"}), "--db", dbPath)
	require.NoError(t, err)
	assert.Contains(t, out, "No programs archived.")
}

func TestInspectProgram(t *testing.T) {
	dbPath, programs := compileToDB(t)
	flux := findProgram(t, programs, "flux")

	out, err := execute(NewInspectCommand(&RootOptions{Format: "text"}), "--db", dbPath, flux.ID)
	require.NoError(t, err)
	assert.Contains(t, out, "Program:      flux")
	assert.Contains(t, out, "Elapsed:      2500 ns")
	assert.Contains(t, out, "Waveforms (2):")
	assert.Contains(t, out, "W002")
	assert.Contains(t, out, "Listing:\n")
	assert.Contains(t, out, "stop")
}

func TestInspectProgramJSONSamples(t *testing.T) {
	dbPath, programs := compileToDB(t)
	mixed := findProgram(t, programs, "mixed")

	tests := []struct {
		name        string
		args        []string
		wantSamples bool
	}{
		{"without samples", []string{"--db", dbPath, mixed.ID}, false},
		{"with samples", []string{"--db", dbPath, mixed.ID, "--samples"}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := execute(NewInspectCommand(&RootOptions{Format: "json"}), tt.args...)
			require.NoError(t, err)

			var resp struct {
				Data store.ProgramRecord `json:"data"`
			}
			require.NoError(t, json.Unmarshal([]byte(out), &resp))
			assert.Equal(t, mixed.ID, resp.Data.ID)
			require.Len(t, resp.Data.Waveforms, 1)
			if tt.wantSamples {
				assert.Len(t, resp.Data.Waveforms[0].Samples, 20)
			} else {
				assert.Empty(t, resp.Data.Waveforms[0].Samples)
			}
		})
	}
}

func TestInspectErrors(t *testing.T) {
	dbPath, _ := compileToDB(t)

	_, err := execute(NewInspectCommand(&RootOptions{Format: "text"}), "--db", dbPath, "no-such-program")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, err.Error(), "program not found")

	_, err = execute(NewInspectCommand(&RootOptions{Format: "text"}), "--db", filepath.Join(t.TempDir(), "missing.db"))
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, err.Error(), "database not found")
}

func TestInspectListFiltered(t *testing.T) {
	dbPath, _ := compileToDB(t)

	tests := []struct {
		name string
		args []string
		want []string
	}{
		{"instrument", []string{"--instrument", "QRM-RF"}, []string{"rf_marker"}},
		{"warning", []string{"--warning", "W002"}, []string{"flux"}},
		{"name and warning", []string{"--name", "mixed", "--warning", "W003"}, []string{"mixed"}},
		{"no match", []string{"--name", "mixed", "--warning", "W002"}, []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			args := append([]string{"--db", dbPath}, tt.args...)
			out, err := execute(NewInspectCommand(&RootOptions{Format: "json"}), args...)
			require.NoError(t, err)

			var resp struct {
				Data InspectList `json:"data"`
			}
			require.NoError(t, json.Unmarshal([]byte(out), &resp))
			names := []string{}
			for _, p := range resp.Data.Programs {
				names = append(names, p.Name)
			}
			assert.Equal(t, tt.want, names)
		})
	}

	out, err := execute(NewInspectCommand(&RootOptions{Format: "text"}), "--db", dbPath, "--run", "no-such-run")
	require.NoError(t, err)
	assert.Contains(t, out, "No programs match the filter.")
}

func TestInspectProgramSharedWaveforms(t *testing.T) {
	dir := writeSchedule(t, `
hardware: instrument_type: "QRM"

#square: {
	name:     string
	duration: 20e-9
	io_mode:  "real"
	shape: {kind: "generic", waveform: {func: "square", params: amp: 0.5}}
}

program: a: pulses: [#square & {name: "x"}]
program: b: pulses: [#square & {name: "y"}]
`)
	dbPath := filepath.Join(t.TempDir(), "qpulse.db")
	_, err := execute(NewCompileCommand(&RootOptions{Format: "text"}), dir, "--db", dbPath)
	require.NoError(t, err)

	st, err := store.Open(dbPath)
	require.NoError(t, err)
	programs, err := st.ListPrograms(context.Background())
	require.NoError(t, err)
	require.NoError(t, st.Close())

	out, err := execute(NewInspectCommand(&RootOptions{Format: "text"}), "--db", dbPath, findProgram(t, programs, "a").ID)
	require.NoError(t, err)
	assert.Contains(t, out, "shared with 1 other program(s)")
}
