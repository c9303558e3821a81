package harness

import "github.com/roach88/qpulse/internal/q1asm"

// TraceEvent is one emitted instruction row.
type TraceEvent struct {
	Label    string   `json:"label,omitempty"`
	Mnemonic string   `json:"mnemonic,omitempty"`
	Args     []string `json:"args,omitempty"`
	Comment  string   `json:"comment,omitempty"`
}

// WarningEvent is a warning raised while compiling the scenario program.
type WarningEvent struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Pulse   string `json:"pulse,omitempty"`
}

// Result is the outcome of a test scenario execution.
type Result struct {
	// Pass indicates overall test success.
	Pass bool `json:"pass"`

	// ProgramID is the content hash of the compiled program.
	// Empty when compilation failed.
	ProgramID string `json:"program_id,omitempty"`

	// ErrorCode is the code of the compilation or validation error, if any.
	ErrorCode string `json:"error_code,omitempty"`

	// Trace contains the emitted instructions in order.
	Trace []TraceEvent `json:"trace"`

	// Listing is the textual program listing.
	Listing string `json:"listing,omitempty"`

	// ElapsedNs is the final value of the elapsed-time counter.
	ElapsedNs int64 `json:"elapsed_ns"`

	// Waveforms is the number of waveform table entries.
	Waveforms int `json:"waveforms"`

	// Warnings are the non-fatal findings, in emission order.
	Warnings []WarningEvent `json:"warnings,omitempty"`

	// Errors contains validation error messages.
	// Empty if Pass is true.
	Errors []string `json:"errors,omitempty"`
}

// NewResult creates a new passing result.
// Used as the starting point for test execution.
func NewResult() *Result {
	return &Result{
		Pass:   true,
		Trace:  []TraceEvent{},
		Errors: []string{},
	}
}

// AddError adds a validation error and marks the result as failed.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}

// addInstructions appends the rows of an instruction stream to the trace.
func (r *Result) addInstructions(instructions []q1asm.Instruction) {
	for _, in := range instructions {
		r.Trace = append(r.Trace, TraceEvent{
			Label:    in.Label,
			Mnemonic: in.Mnemonic,
			Args:     append([]string(nil), in.Args...),
			Comment:  in.Comment,
		})
	}
}
