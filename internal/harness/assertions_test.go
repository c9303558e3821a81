package harness

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleResult() *Result {
	r := NewResult()
	r.ElapsedNs = 60
	r.Waveforms = 2
	r.Trace = []TraceEvent{
		{Mnemonic: "set_awg_gain", Args: []string{"16383", "0"}},
		{Mnemonic: "play", Args: []string{"0", "1", "4"}},
		{Mnemonic: "wait", Args: []string{"16"}},
		{Label: "ramp3"},
		{Mnemonic: "play", Args: []string{"1", "0", "4"}},
		{Mnemonic: "stop"},
	}
	r.Warnings = []WarningEvent{{Code: "W003", Message: "deprecated", Pulse: "stairs"}}
	return r
}

func TestEvaluateAssertions_Pass(t *testing.T) {
	assertions := []Assertion{
		{Type: AssertElapsed, Value: 60},
		{Type: AssertWaveformCount, Count: 2},
		{Type: AssertInstructionCount, Mnemonic: "play", Count: 2},
		{Type: AssertInstructionCount, Mnemonic: "loop", Count: 0},
		{Type: AssertInstructionContains, Mnemonic: "wait"},
		{Type: AssertInstructionContains, Mnemonic: "play", Args: []string{"1", "0", "4"}},
		{Type: AssertInstructionOrder, Mnemonics: []string{"set_awg_gain", "play", "play", "stop"}},
		{Type: AssertWarning, Code: "W003"},
		{Type: AssertWarning, Code: "W003", Pulse: "stairs"},
	}

	errs := EvaluateAssertions(sampleResult(), assertions, nil)
	assert.Empty(t, errs)
}

func TestEvaluateAssertions_Fail(t *testing.T) {
	tests := []struct {
		name      string
		assertion Assertion
		wantMsg   string
	}{
		{"elapsed", Assertion{Type: AssertElapsed, Value: 64}, "64 ns elapsed"},
		{"waveforms", Assertion{Type: AssertWaveformCount, Count: 1}, "1 waveforms"},
		{"count", Assertion{Type: AssertInstructionCount, Mnemonic: "play", Count: 1}, "2 occurrences"},
		{"contains args", Assertion{Type: AssertInstructionContains, Mnemonic: "wait", Args: []string{"20"}}, "wait 20"},
		{"contains mnemonic", Assertion{Type: AssertInstructionContains, Mnemonic: "set_mrk"}, "not found in trace"},
		{"order", Assertion{Type: AssertInstructionOrder, Mnemonics: []string{"wait", "set_awg_gain"}}, "set_awg_gain (position 2)"},
		{"order repeated", Assertion{Type: AssertInstructionOrder, Mnemonics: []string{"stop", "stop"}}, "not found after"},
		{"warning code", Assertion{Type: AssertWarning, Code: "W002"}, "W003(stairs)"},
		{"warning pulse", Assertion{Type: AssertWarning, Code: "W003", Pulse: "sq"}, "W003 for pulse sq"},
		{"archived without store", Assertion{Type: AssertArchived, Count: 1}, "requires database context"},
		{"unknown", Assertion{Type: "final_state"}, "unknown assertion type"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			errs := EvaluateAssertions(sampleResult(), []Assertion{tt.assertion}, nil)
			require.Len(t, errs, 1)
			assert.Contains(t, errs[0], tt.wantMsg)
		})
	}
}

func TestAssertionError_IncludesTrace(t *testing.T) {
	err := assertInstructionContains(sampleResult().Trace, Assertion{Mnemonic: "set_mrk"})
	require.Error(t, err)

	msg := err.Error()
	assert.Contains(t, msg, "Assertion failed: instruction_contains")
	assert.Contains(t, msg, "[2] play 0,1,4")
	assert.Contains(t, msg, "[4] ramp3:")
}
