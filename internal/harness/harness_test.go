package harness

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const scenarioDir = "../../testdata/scenarios"

func TestRun_Scenarios(t *testing.T) {
	paths, err := DiscoverScenarios(scenarioDir)
	require.NoError(t, err)
	require.NotEmpty(t, paths)

	for _, path := range paths {
		t.Run(filepath.Base(path), func(t *testing.T) {
			scenario, err := LoadScenario(path)
			require.NoError(t, err)

			result, err := Run(scenario)
			require.NoError(t, err)
			assert.True(t, result.Pass, "errors: %v", result.Errors)
		})
	}
}

func TestRun_ExpectedErrorRecorded(t *testing.T) {
	scenario, err := LoadScenario(filepath.Join(scenarioDir, "complex_on_real.yaml"))
	require.NoError(t, err)

	result, err := Run(scenario)
	require.NoError(t, err)
	assert.True(t, result.Pass)
	assert.Equal(t, "E201", result.ErrorCode)
	assert.Empty(t, result.ProgramID)
	assert.Empty(t, result.Errors)
}

func TestRun_WrongExpectedError(t *testing.T) {
	scenario, err := LoadScenario(filepath.Join(scenarioDir, "overlap.yaml"))
	require.NoError(t, err)
	scenario.Expect.Error = "E204"

	result, err := Run(scenario)
	require.NoError(t, err)
	assert.False(t, result.Pass)
	assert.Equal(t, "E206", result.ErrorCode)
	assert.Contains(t, result.Errors[len(result.Errors)-1], "expected error E204, got E206")
}

func TestRun_ExpectedErrorButCompiled(t *testing.T) {
	scenario, err := LoadScenario(filepath.Join(scenarioDir, "rf_marker.yaml"))
	require.NoError(t, err)
	scenario.Expect = &ExpectClause{Error: "E202"}

	result, err := Run(scenario)
	require.NoError(t, err)
	assert.False(t, result.Pass)
	assert.Contains(t, result.Errors, "expected error E202, but the program compiled")
}

func TestRun_UnexpectedError(t *testing.T) {
	scenario, err := LoadScenario(filepath.Join(scenarioDir, "overlap.yaml"))
	require.NoError(t, err)
	scenario.Expect = nil

	result, err := Run(scenario)
	require.NoError(t, err)
	assert.False(t, result.Pass)
	assert.Equal(t, "E206", result.ErrorCode)
	assert.NotEmpty(t, result.Errors)
}

func TestRun_FailingAssertion(t *testing.T) {
	scenario, err := LoadScenario(filepath.Join(scenarioDir, "rf_marker.yaml"))
	require.NoError(t, err)
	scenario.Assertions = []Assertion{{Type: AssertElapsed, Value: 44}}

	result, err := Run(scenario)
	require.NoError(t, err)
	assert.False(t, result.Pass)
	require.Len(t, result.Errors, 1)
	assert.Contains(t, result.Errors[0], "44 ns elapsed")
}

func TestRun_TraceAndProgramID(t *testing.T) {
	scenario, err := LoadScenario(filepath.Join(scenarioDir, "rf_marker.yaml"))
	require.NoError(t, err)

	result, err := Run(scenario)
	require.NoError(t, err)
	require.True(t, result.Pass, "errors: %v", result.Errors)

	assert.Regexp(t, `^[0-9a-f]{64}$`, result.ProgramID)
	require.NotEmpty(t, result.Trace)
	assert.Equal(t, "stop", result.Trace[len(result.Trace)-1].Mnemonic)
	assert.Contains(t, result.Listing, "set_mrk")
}

func TestRun_Deterministic(t *testing.T) {
	scenario, err := LoadScenario(filepath.Join(scenarioDir, "stitched_square.yaml"))
	require.NoError(t, err)

	first, err := Run(scenario)
	require.NoError(t, err)
	second, err := Run(scenario)
	require.NoError(t, err)

	assert.Equal(t, first.ProgramID, second.ProgramID)
	assert.Equal(t, first.Listing, second.Listing)
	assert.Equal(t, first.Warnings, second.Warnings)
}

func TestLoadProgram(t *testing.T) {
	dir := t.TempDir()
	single := filepath.Join(dir, "single.cue")
	require.NoError(t, os.WriteFile(single, []byte(`
program: only: pulses: [{
	name:     "sq"
	duration: 20e-9
	io_mode:  "real"
	shape: {kind: "generic", waveform: {func: "square", params: amp: 1}}
}]
`), 0o644))
	broken := filepath.Join(dir, "broken.cue")
	require.NoError(t, os.WriteFile(broken, []byte(`program: p: pulses: [{name: 1}]`), 0o644))

	t.Run("only program selected without a name", func(t *testing.T) {
		prog, err := LoadProgram([]string{single}, "")
		require.NoError(t, err)
		assert.Equal(t, "only", prog.Name)
		require.Len(t, prog.Pulses, 1)
	})

	t.Run("name required for several programs", func(t *testing.T) {
		_, err := LoadProgram([]string{"../../testdata/schedules/valid/mixed.cue"}, "")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "scenario must name one")
	})

	t.Run("unknown program", func(t *testing.T) {
		_, err := LoadProgram([]string{single}, "missing")
		require.Error(t, err)
		assert.Contains(t, err.Error(), `program "missing" not found`)
		assert.Contains(t, err.Error(), "have: only")
	})

	t.Run("missing file", func(t *testing.T) {
		_, err := LoadProgram([]string{filepath.Join(dir, "nope.cue")}, "")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "failed to read schedule")
	})

	t.Run("schedule that does not compile", func(t *testing.T) {
		_, err := LoadProgram([]string{broken}, "")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "failed to compile schedule")
	})
}

func TestRunSuite(t *testing.T) {
	paths, err := DiscoverScenarios(scenarioDir)
	require.NoError(t, err)

	result := RunSuite(paths)
	assert.Equal(t, len(paths), result.Total)
	assert.Equal(t, result.Total, result.Passed)
	assert.Zero(t, result.Failed)
	assert.Empty(t, result.Failures)
}

func TestRunSuite_ReportsFailures(t *testing.T) {
	dir := t.TempDir()
	bad := filepath.Join(dir, "bad.yaml")
	require.NoError(t, os.WriteFile(bad, []byte("name: bad\n"), 0o644))

	result := RunSuite([]string{filepath.Join(scenarioDir, "overlap.yaml"), bad})
	assert.Equal(t, 2, result.Total)
	assert.Equal(t, 1, result.Passed)
	assert.Equal(t, 1, result.Failed)
	require.Len(t, result.Failures, 1)
	assert.Equal(t, bad, result.Failures[0].ScenarioPath)
	assert.Contains(t, result.Failures[0].Error, "failed to load scenario")
}

func TestDiscoverScenarios(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"b.yaml", "a.yml", "notes.txt"} {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), nil, 0o644))
	}
	require.NoError(t, os.Mkdir(filepath.Join(dir, "nested.yaml"), 0o755))

	paths, err := DiscoverScenarios(dir)
	require.NoError(t, err)
	assert.Equal(t, []string{filepath.Join(dir, "a.yml"), filepath.Join(dir, "b.yaml")}, paths)

	_, err = DiscoverScenarios(filepath.Join(dir, "b.yaml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "is not a directory")

	_, err = DiscoverScenarios(filepath.Join(dir, "missing"))
	require.Error(t, err)
}
