package harness

import (
	"fmt"
	"strings"
	"testing"

	"github.com/sebdah/goldie/v2"
)

// Snapshot renders the observable outcome of a scenario as text: a comment
// header with the counters and warnings followed by the listing.
func Snapshot(scenarioName string, result *Result) []byte {
	var b strings.Builder
	fmt.Fprintf(&b, "# scenario: %s\n", scenarioName)
	if result.ErrorCode != "" {
		fmt.Fprintf(&b, "# error: %s\n", result.ErrorCode)
		return []byte(b.String())
	}
	fmt.Fprintf(&b, "# elapsed_ns: %d\n", result.ElapsedNs)
	fmt.Fprintf(&b, "# waveforms: %d\n", result.Waveforms)
	for _, w := range result.Warnings {
		fmt.Fprintf(&b, "# warning: %s %s (pulse=%s)\n", w.Code, w.Message, w.Pulse)
	}
	b.WriteString(result.Listing)
	return []byte(b.String())
}

// RunWithGolden executes a scenario and compares its snapshot against a
// golden file stored in testdata/golden/{scenario.Name}.golden
//
// To regenerate golden files, run:
//
//	go test ./internal/harness -update
//
// Returns error if scenario execution fails.
// Test failure (via goldie) occurs if the snapshot doesn't match.
func RunWithGolden(t *testing.T, scenario *Scenario) (*Result, error) {
	t.Helper()

	result, err := Run(scenario)
	if err != nil {
		return nil, err
	}

	AssertGolden(t, scenario.Name, result)
	return result, nil
}

// AssertGolden compares the snapshot of an existing result against a golden
// file without re-running the scenario.
func AssertGolden(t *testing.T, scenarioName string, result *Result) {
	t.Helper()

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, scenarioName, Snapshot(scenarioName, result))
}
