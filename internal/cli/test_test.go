package cli

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// writeScenario writes a scenario compiling the rf_marker program into a
// fresh directory and returns the directory.
func writeScenario(t *testing.T, name string, elapsed int) string {
	t.Helper()
	schedule, err := filepath.Abs(filepath.Join(validScheduleDir, "mixed.cue"))
	require.NoError(t, err)

	dir := t.TempDir()
	content := "name: " + name + "\n" +
		"description: RF marker timing\n" +
		"schedules: [" + schedule + "]\n" +
		"program: rf_marker\n" +
		"assertions:\n" +
		"  - type: elapsed\n" +
		"    value: " + strconv.Itoa(elapsed) + "\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, name+".yaml"), []byte(content), 0o644))
	return dir
}

func TestRunScenarios(t *testing.T) {
	out, err := execute(NewTestCommand(&RootOptions{Format: "text"}), scenarioDir)
	require.NoError(t, err)
	assert.Contains(t, out, "✓ mixed_program")
	assert.Contains(t, out, "✓ overlap")
	assert.Contains(t, out, "Test Summary: 7 passed, 0 failed, 7 total")
	assert.Contains(t, out, "✓ All scenarios passed")
}

func TestRunScenariosFilterJSON(t *testing.T) {
	out, err := execute(NewTestCommand(&RootOptions{Format: "json"}), scenarioDir, "--filter", "rf_*")
	require.NoError(t, err)

	var resp struct {
		Status string     `json:"status"`
		Data   TestResult `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "ok", resp.Status)
	assert.Equal(t, 1, resp.Data.Total)
	require.Len(t, resp.Data.Scenarios, 1)
	assert.Equal(t, "rf_marker", resp.Data.Scenarios[0].Name)
	assert.True(t, resp.Data.Scenarios[0].Pass)
}

func TestRunScenariosNoMatch(t *testing.T) {
	out, err := execute(NewTestCommand(&RootOptions{Format: "text"}), scenarioDir, "--filter", "nothing_*")
	require.NoError(t, err)
	assert.Contains(t, out, "No scenarios found.")
}

func TestRunScenariosFailure(t *testing.T) {
	dir := writeScenario(t, "wrong_elapsed", 44)

	out, err := execute(NewTestCommand(&RootOptions{Format: "text"}), dir)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, out, "✗ wrong_elapsed")
	assert.Contains(t, out, "44 ns elapsed")
	assert.Contains(t, out, "Test Summary: 0 passed, 1 failed, 1 total")
}

func TestRunScenariosGolden(t *testing.T) {
	dir := writeScenario(t, "rf_golden", 40)
	goldenPath := filepath.Join(dir, "golden", "rf_golden.golden")

	out, err := execute(NewTestCommand(&RootOptions{Format: "text"}), dir, "--update")
	require.NoError(t, err)
	assert.Contains(t, out, "✓ rf_golden (golden updated)")

	golden, err := os.ReadFile(goldenPath)
	require.NoError(t, err)
	assert.Contains(t, string(golden), "# scenario: rf_golden\n# elapsed_ns: 40\n# waveforms: 0\n")
	assert.Contains(t, string(golden), "set_mrk")

	_, err = execute(NewTestCommand(&RootOptions{Format: "text"}), dir)
	require.NoError(t, err)

	require.NoError(t, os.WriteFile(goldenPath, []byte("# scenario: rf_golden\n"), 0o644))
	out, err = execute(NewTestCommand(&RootOptions{Format: "text"}), dir)
	require.Error(t, err)
	assert.Contains(t, out, "snapshot does not match golden file")
}

func TestRunScenariosCommandErrors(t *testing.T) {
	_, err := execute(NewTestCommand(&RootOptions{Format: "text"}), "/nonexistent/scenarios")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))

	_, err = execute(NewTestCommand(&RootOptions{Format: "text"}), scenarioDir, "--filter", "[")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, err.Error(), "invalid filter pattern")
}
