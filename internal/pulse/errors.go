package pulse

import (
	"errors"
	"fmt"

	"github.com/roach88/qpulse/internal/ir"
)

// PulseError represents an error detected while compiling one pulse.
//
// Pulse errors include:
//   - Invalid output mode: complex data routed to a real output
//   - Digital mode mismatch: marker shapes off digital outputs and vice versa
//   - Amplitude range: a gain or offset outside [-1, 1]
//   - Waveform memory: the waveform table would overflow
//   - Timing: off-grid steps, negative waits or overlapping pulses
//
// A PulseError aborts compilation of the whole program.
type PulseError struct {
	// Code identifies the error category.
	Code ErrorCode

	// Message is a human-readable description.
	Message string

	// Pulse names the operation being compiled, if any.
	Pulse string

	// Details contains additional context.
	Details map[string]string

	// Cause is the underlying error, if any.
	Cause error
}

// ErrorCode categorizes pulse errors.
type ErrorCode string

const (
	// ErrCodeInvalidOutputMode indicates complex data on a non-complex output
	// or an unknown output mode.
	ErrCodeInvalidOutputMode ErrorCode = "E201"

	// ErrCodeUnsupportedDigitalMode indicates a digital/marker mismatch.
	ErrCodeUnsupportedDigitalMode ErrorCode = "E202"

	// ErrCodeAmplitudeRange indicates a normalized value outside [-1, 1].
	ErrCodeAmplitudeRange ErrorCode = "E203"

	// ErrCodeWaveformMemoryExceeded indicates the waveform table is full.
	ErrCodeWaveformMemoryExceeded ErrorCode = "E204"

	// ErrCodeInvalidTiming indicates a duration or wait that cannot be
	// expressed on the grid.
	ErrCodeInvalidTiming ErrorCode = "E205"

	// ErrCodeOverlappingPulse indicates a pulse starting before the previous
	// one has been emitted.
	ErrCodeOverlappingPulse ErrorCode = "E206"

	// ErrCodeUnknownWaveform indicates an unknown shape function or unusable
	// shape parameters.
	ErrCodeUnknownWaveform ErrorCode = "E207"

	// ErrCodeRegisterExhausted indicates the program ran out of registers.
	ErrCodeRegisterExhausted ErrorCode = "E208"
)

// Error implements the error interface.
func (e *PulseError) Error() string {
	msg := fmt.Sprintf("%s: %s", e.Code, e.Message)
	if e.Pulse != "" {
		msg = fmt.Sprintf("%s (pulse=%s)", msg, e.Pulse)
	}
	if e.Cause != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Cause)
	}
	return msg
}

// Unwrap returns the underlying error.
func (e *PulseError) Unwrap() error {
	return e.Cause
}

func newError(code ErrorCode, op ir.PulseOperation, cause error, format string, args ...any) *PulseError {
	return &PulseError{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
		Pulse:   op.Name,
		Cause:   cause,
	}
}

// CodeOf returns the code of the PulseError in err's chain, or "".
func CodeOf(err error) ErrorCode {
	var pe *PulseError
	if errors.As(err, &pe) {
		return pe.Code
	}
	return ""
}

// IsInvalidOutputMode returns true if err is an E201 error.
func IsInvalidOutputMode(err error) bool {
	return CodeOf(err) == ErrCodeInvalidOutputMode
}

// IsUnsupportedDigitalMode returns true if err is an E202 error.
func IsUnsupportedDigitalMode(err error) bool {
	return CodeOf(err) == ErrCodeUnsupportedDigitalMode
}

// IsAmplitudeRange returns true if err is an E203 error.
func IsAmplitudeRange(err error) bool {
	return CodeOf(err) == ErrCodeAmplitudeRange
}

// IsWaveformMemoryExceeded returns true if err is an E204 error.
func IsWaveformMemoryExceeded(err error) bool {
	return CodeOf(err) == ErrCodeWaveformMemoryExceeded
}

// IsInvalidTiming returns true if err is an E205 error.
func IsInvalidTiming(err error) bool {
	return CodeOf(err) == ErrCodeInvalidTiming
}

// IsOverlappingPulse returns true if err is an E206 error.
func IsOverlappingPulse(err error) bool {
	return CodeOf(err) == ErrCodeOverlappingPulse
}

// IsUnknownWaveform returns true if err is an E207 error.
func IsUnknownWaveform(err error) bool {
	return CodeOf(err) == ErrCodeUnknownWaveform
}

// IsRegisterExhausted returns true if err is an E208 error.
func IsRegisterExhausted(err error) bool {
	return CodeOf(err) == ErrCodeRegisterExhausted
}

// WarningCode categorizes non-fatal compilation findings.
type WarningCode string

const (
	// WarnMisalignedDuration indicates a duration rounded onto the grid.
	WarnMisalignedDuration WarningCode = "W001"

	// WarnStitchRemainder indicates a stitched pulse whose duration is not a
	// multiple of the stitch chunk.
	WarnStitchRemainder WarningCode = "W002"

	// WarnDeprecatedStrategy indicates use of a deprecated pulse shape.
	WarnDeprecatedStrategy WarningCode = "W003"
)

// Warning is a non-fatal finding recorded during compilation.
type Warning struct {
	Code    WarningCode `json:"code"`
	Message string      `json:"message"`
	Pulse   string      `json:"pulse,omitempty"`
	PulseID string      `json:"pulse_id,omitempty"` // content address of the pulse operation
}

// String implements fmt.Stringer.
func (w Warning) String() string {
	if w.Pulse != "" {
		return fmt.Sprintf("%s: %s (pulse=%s)", w.Code, w.Message, w.Pulse)
	}
	return fmt.Sprintf("%s: %s", w.Code, w.Message)
}

func newWarning(code WarningCode, op ir.PulseOperation, format string, args ...any) Warning {
	// a pulse that fails to hash still gets its warning, without an ID
	id, _ := ir.PulseID(op)
	return Warning{Code: code, Message: fmt.Sprintf(format, args...), Pulse: op.Name, PulseID: id}
}
