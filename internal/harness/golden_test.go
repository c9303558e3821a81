package harness

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGolden_MixedProgram(t *testing.T) {
	scenario, err := LoadScenario(filepath.Join(scenarioDir, "mixed_program.yaml"))
	require.NoError(t, err)

	result, err := RunWithGolden(t, scenario)
	require.NoError(t, err)
	assert.True(t, result.Pass, "errors: %v", result.Errors)
}

func TestGolden_Overlap(t *testing.T) {
	scenario, err := LoadScenario(filepath.Join(scenarioDir, "overlap.yaml"))
	require.NoError(t, err)

	result, err := RunWithGolden(t, scenario)
	require.NoError(t, err)
	assert.True(t, result.Pass)
}

func TestSnapshot_ErrorOmitsListing(t *testing.T) {
	result := NewResult()
	result.ErrorCode = "E204"
	result.Listing = "stop"

	assert.Equal(t, "# scenario: s\n# error: E204\n", string(Snapshot("s", result)))
}
