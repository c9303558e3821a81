package harness

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"regexp"

	"gopkg.in/yaml.v3"
)

// Scenario defines a conformance test scenario.
// Scenarios compile one program from CUE schedules and assert on the
// emitted instructions, waveform table, warnings and archived record.
type Scenario struct {
	// Name uniquely identifies this scenario.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// Schedules lists paths to CUE schedule files to compile.
	// Paths are relative to the scenario file location.
	Schedules []string `yaml:"schedules"`

	// Program selects the program to compile by name. It may be omitted when
	// the schedules declare exactly one program.
	Program string `yaml:"program,omitempty"`

	// Expect specifies the expected failure. If nil, compilation must
	// succeed.
	Expect *ExpectClause `yaml:"expect,omitempty"`

	// Assertions validate the compiled program.
	// Supported types: elapsed, instruction_contains, instruction_count,
	// instruction_order, waveform_count, warning, archived
	Assertions []Assertion `yaml:"assertions"`

	// RunID is an optional fixed run ID for the archived record.
	// If empty, defaults to "test-run-0001".
	RunID string `yaml:"run_id,omitempty"`
}

// ExpectClause specifies expected compilation failure.
type ExpectClause struct {
	// Error is the expected error code, E1xx for schedule validation or
	// E2xx for pulse compilation.
	Error string `yaml:"error"`
}

// Assertion validates the compiled program.
type Assertion struct {
	// Type specifies the assertion type:
	// - "elapsed": the elapsed-time counter equals Value ns
	// - "instruction_contains": an instruction with Mnemonic (and Args, when
	//   given) was emitted
	// - "instruction_count": Mnemonic was emitted exactly Count times
	// - "instruction_order": Mnemonics appear in order
	// - "waveform_count": the waveform table holds Count entries
	// - "warning": a warning with Code (and Pulse, when given) was raised
	// - "archived": the program is in the store with Count waveforms
	Type string `yaml:"type"`

	// Value is the expected elapsed time in ns (used by elapsed).
	Value int64 `yaml:"value,omitempty"`

	// Mnemonic is the instruction mnemonic (used by instruction_contains,
	// instruction_count).
	Mnemonic string `yaml:"mnemonic,omitempty"`

	// Args are the expected instruction arguments, exact match
	// (used by instruction_contains).
	Args []string `yaml:"args,omitempty"`

	// Count is the expected number of occurrences (used by
	// instruction_count, waveform_count, archived).
	Count int `yaml:"count,omitempty"`

	// Mnemonics is the expected mnemonic order (used by instruction_order).
	Mnemonics []string `yaml:"mnemonics,omitempty"`

	// Code is the expected warning code (used by warning).
	Code string `yaml:"code,omitempty"`

	// Pulse is the expected pulse name (used by warning).
	Pulse string `yaml:"pulse,omitempty"`
}

// Assertion type constants.
const (
	AssertElapsed             = "elapsed"
	AssertInstructionContains = "instruction_contains"
	AssertInstructionCount    = "instruction_count"
	AssertInstructionOrder    = "instruction_order"
	AssertWaveformCount       = "waveform_count"
	AssertWarning             = "warning"
	AssertArchived            = "archived"
)

var errorCodePattern = regexp.MustCompile(`^E[12][0-9]{2}$`)

var warningCodePattern = regexp.MustCompile(`^W[0-9]{3}$`)

// LoadScenario reads and parses a scenario YAML file. Schedule paths are
// resolved relative to the scenario file.
// Returns an error if the file doesn't exist, is malformed,
// contains unknown fields (typos), or is missing required fields.
func LoadScenario(path string) (*Scenario, error) {
	return LoadScenarioWithBasePath(path, filepath.Dir(path))
}

// LoadScenarioWithBasePath reads and parses a scenario YAML file,
// resolving schedule paths relative to the provided base path.
func LoadScenarioWithBasePath(path, basePath string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}

	// Strict field validation catches typos like "assertion:" vs "assertions:"
	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	for i, schedulePath := range scenario.Schedules {
		if !filepath.IsAbs(schedulePath) && basePath != "" {
			scenario.Schedules[i] = filepath.Join(basePath, schedulePath)
		}
	}

	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}

	return &scenario, nil
}

// validateScenario checks that required fields are present and valid.
func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}

	if s.Description == "" {
		return fmt.Errorf("description is required")
	}

	if len(s.Schedules) == 0 {
		return fmt.Errorf("schedules list is required and must be non-empty")
	}

	if s.Expect == nil && len(s.Assertions) == 0 {
		return fmt.Errorf("assertions list is required unless an error is expected")
	}

	for _, schedulePath := range s.Schedules {
		if _, err := os.Stat(schedulePath); os.IsNotExist(err) {
			return fmt.Errorf("schedule file not found: %s", schedulePath)
		}
	}

	if s.Expect != nil && !errorCodePattern.MatchString(s.Expect.Error) {
		return fmt.Errorf("expect.error: %q is not an error code like E206", s.Expect.Error)
	}

	for i, assertion := range s.Assertions {
		if err := validateAssertion(i, &assertion); err != nil {
			return err
		}
	}

	return nil
}

// validateAssertion validates a single assertion based on its type.
func validateAssertion(index int, a *Assertion) error {
	if a.Type == "" {
		return fmt.Errorf("assertions[%d]: type is required", index)
	}

	switch a.Type {
	case AssertElapsed:
		if a.Value < 0 {
			return fmt.Errorf("assertions[%d]: value must be non-negative for elapsed", index)
		}
	case AssertInstructionContains:
		if a.Mnemonic == "" {
			return fmt.Errorf("assertions[%d]: mnemonic is required for instruction_contains", index)
		}
	case AssertInstructionCount:
		if a.Mnemonic == "" {
			return fmt.Errorf("assertions[%d]: mnemonic is required for instruction_count", index)
		}
		if a.Count < 0 {
			return fmt.Errorf("assertions[%d]: count must be non-negative for instruction_count", index)
		}
	case AssertInstructionOrder:
		if len(a.Mnemonics) == 0 {
			return fmt.Errorf("assertions[%d]: mnemonics list is required for instruction_order", index)
		}
	case AssertWaveformCount, AssertArchived:
		if a.Count < 0 {
			return fmt.Errorf("assertions[%d]: count must be non-negative for %s", index, a.Type)
		}
	case AssertWarning:
		if !warningCodePattern.MatchString(a.Code) {
			return fmt.Errorf("assertions[%d]: code %q is not a warning code like W001", index, a.Code)
		}
	default:
		return fmt.Errorf("assertions[%d]: unknown assertion type %q", index, a.Type)
	}

	return nil
}
