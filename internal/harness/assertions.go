package harness

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/roach88/qpulse/internal/store"
)

// AssertionError is returned when an assertion fails.
// It includes detailed context to help debug the failure.
type AssertionError struct {
	Type     string       // Assertion type for categorization
	Expected string       // Human-readable expected outcome
	Actual   string       // Human-readable actual outcome
	Trace    []TraceEvent // Full trace for debugging context
}

// Error implements the error interface.
func (e *AssertionError) Error() string {
	var buf strings.Builder

	fmt.Fprintf(&buf, "Assertion failed: %s\n", e.Type)
	fmt.Fprintf(&buf, "  Expected: %s\n", e.Expected)
	fmt.Fprintf(&buf, "  Actual: %s\n", e.Actual)

	if len(e.Trace) > 0 {
		fmt.Fprintf(&buf, "\nFull trace:\n")
		for i, event := range e.Trace {
			if event.Mnemonic == "" {
				fmt.Fprintf(&buf, "  [%d] %s:\n", i+1, event.Label)
				continue
			}
			fmt.Fprintf(&buf, "  [%d] %s %s\n", i+1, event.Mnemonic, strings.Join(event.Args, ","))
		}
	}

	return buf.String()
}

// assertElapsed checks the final elapsed-time counter.
func assertElapsed(result *Result, assertion Assertion) error {
	if result.ElapsedNs == assertion.Value {
		return nil
	}
	return &AssertionError{
		Type:     AssertElapsed,
		Expected: fmt.Sprintf("%d ns elapsed", assertion.Value),
		Actual:   fmt.Sprintf("%d ns elapsed", result.ElapsedNs),
		Trace:    result.Trace,
	}
}

// assertInstructionContains checks that an instruction with the mnemonic
// and, when given, exactly the args was emitted.
func assertInstructionContains(trace []TraceEvent, assertion Assertion) error {
	for _, event := range trace {
		if event.Mnemonic != assertion.Mnemonic {
			continue
		}
		if len(assertion.Args) == 0 || slices.Equal(event.Args, assertion.Args) {
			return nil
		}
	}

	expected := assertion.Mnemonic
	if len(assertion.Args) > 0 {
		expected = fmt.Sprintf("%s %s", assertion.Mnemonic, strings.Join(assertion.Args, ","))
	}
	return &AssertionError{
		Type:     AssertInstructionContains,
		Expected: expected,
		Actual:   "not found in trace",
		Trace:    trace,
	}
}

// assertInstructionCount checks that the mnemonic was emitted exactly Count
// times.
func assertInstructionCount(trace []TraceEvent, assertion Assertion) error {
	count := 0
	for _, event := range trace {
		if event.Mnemonic == assertion.Mnemonic {
			count++
		}
	}

	if count != assertion.Count {
		return &AssertionError{
			Type:     AssertInstructionCount,
			Expected: fmt.Sprintf("%d occurrences of %s", assertion.Count, assertion.Mnemonic),
			Actual:   fmt.Sprintf("%d occurrences", count),
			Trace:    trace,
		}
	}
	return nil
}

// assertInstructionOrder checks that the mnemonics appear in the given order.
// Mnemonics don't need to be consecutive and each match consumes one row, so
// a repeated mnemonic must be emitted repeatedly.
func assertInstructionOrder(trace []TraceEvent, assertion Assertion) error {
	next := 0
	for i := 0; i < len(trace) && next < len(assertion.Mnemonics); i++ {
		if trace[i].Mnemonic == assertion.Mnemonics[next] {
			next++
		}
	}

	if next < len(assertion.Mnemonics) {
		return &AssertionError{
			Type:     AssertInstructionOrder,
			Expected: fmt.Sprintf("mnemonics in order: %v", assertion.Mnemonics),
			Actual:   fmt.Sprintf("%s (position %d) not found after %v", assertion.Mnemonics[next], next+1, assertion.Mnemonics[:next]),
			Trace:    trace,
		}
	}
	return nil
}

// assertWaveformCount checks the number of waveform table entries.
func assertWaveformCount(result *Result, assertion Assertion) error {
	if result.Waveforms == assertion.Count {
		return nil
	}
	return &AssertionError{
		Type:     AssertWaveformCount,
		Expected: fmt.Sprintf("%d waveforms", assertion.Count),
		Actual:   fmt.Sprintf("%d waveforms", result.Waveforms),
	}
}

// assertWarning checks that a warning with the code (and pulse) was raised.
func assertWarning(result *Result, assertion Assertion) error {
	for _, w := range result.Warnings {
		if w.Code == assertion.Code && (assertion.Pulse == "" || w.Pulse == assertion.Pulse) {
			return nil
		}
	}

	actual := make([]string, len(result.Warnings))
	for i, w := range result.Warnings {
		actual[i] = fmt.Sprintf("%s(%s)", w.Code, w.Pulse)
	}
	expected := assertion.Code
	if assertion.Pulse != "" {
		expected = fmt.Sprintf("%s for pulse %s", assertion.Code, assertion.Pulse)
	}
	return &AssertionError{
		Type:     AssertWarning,
		Expected: expected,
		Actual:   fmt.Sprintf("warnings %v", actual),
	}
}

// assertArchived checks that the compiled program was archived with Count
// waveforms and the same listing.
func assertArchived(ctx context.Context, st *store.Store, result *Result, assertion Assertion) error {
	if result.ProgramID == "" {
		return &AssertionError{
			Type:     AssertArchived,
			Expected: "archived program",
			Actual:   "program did not compile",
		}
	}

	rec, err := st.ReadProgram(ctx, result.ProgramID)
	if errors.Is(err, store.ErrNotFound) {
		return &AssertionError{
			Type:     AssertArchived,
			Expected: fmt.Sprintf("program %s in store", result.ProgramID),
			Actual:   "not found",
		}
	}
	if err != nil {
		return fmt.Errorf("archived: %w", err)
	}

	if len(rec.Waveforms) != assertion.Count {
		return &AssertionError{
			Type:     AssertArchived,
			Expected: fmt.Sprintf("%d archived waveforms", assertion.Count),
			Actual:   fmt.Sprintf("%d archived waveforms", len(rec.Waveforms)),
		}
	}
	if rec.Listing != result.Listing {
		return &AssertionError{
			Type:     AssertArchived,
			Expected: "archived listing equal to compiled listing",
			Actual:   "listings differ",
		}
	}
	return nil
}

// AssertionContext provides store access for archived assertions.
type AssertionContext struct {
	Store *store.Store
	Ctx   context.Context
}

// EvaluateAssertions evaluates all assertions against the result.
// Returns a list of error messages for failed assertions.
// The actx parameter provides database access for archived assertions.
func EvaluateAssertions(result *Result, assertions []Assertion, actx *AssertionContext) []string {
	var errs []string

	for i, assertion := range assertions {
		var err error

		switch assertion.Type {
		case AssertElapsed:
			err = assertElapsed(result, assertion)
		case AssertInstructionContains:
			err = assertInstructionContains(result.Trace, assertion)
		case AssertInstructionCount:
			err = assertInstructionCount(result.Trace, assertion)
		case AssertInstructionOrder:
			err = assertInstructionOrder(result.Trace, assertion)
		case AssertWaveformCount:
			err = assertWaveformCount(result, assertion)
		case AssertWarning:
			err = assertWarning(result, assertion)
		case AssertArchived:
			if actx == nil || actx.Store == nil {
				err = fmt.Errorf("assertion[%d]: archived requires database context", i)
			} else {
				err = assertArchived(actx.Ctx, actx.Store, result, assertion)
			}
		default:
			err = fmt.Errorf("assertion[%d]: unknown assertion type %q", i, assertion.Type)
		}

		if err != nil {
			errs = append(errs, err.Error())
		}
	}

	return errs
}
