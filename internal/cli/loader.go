package cli

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"cuelang.org/go/cue/load"
	"cuelang.org/go/cue/token"

	"github.com/roach88/qpulse/internal/compiler"
	"github.com/roach88/qpulse/internal/ir"
)

// LoadMode controls how errors are handled during schedule loading.
type LoadMode int

const (
	// LoadModeFailFast stops on the first error encountered.
	LoadModeFailFast LoadMode = iota
	// LoadModeCollectAll collects all errors before returning.
	LoadModeCollectAll
)

// LoadResult contains the programs loaded from a schedule directory.
type LoadResult struct {
	Programs  []ir.SequencerProgram
	Hardware  ir.HardwareConfig // top-level defaults, before per-program overrides
	CUEValue  cue.Value         // The raw CUE value for additional processing
	FileCount int               // Number of CUE files found
}

// LoadError represents an error that occurred during schedule loading.
type LoadError struct {
	Code    string
	Message string
	Pos     token.Pos // CUE position if available
}

func (e *LoadError) Error() string {
	if e.Pos.IsValid() {
		return fmt.Sprintf("%s:%d:%d: %s: %s", e.Pos.Filename(), e.Pos.Line(), e.Pos.Column(), e.Code, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// LoadSchedules loads the CUE package in dir and compiles every program it
// declares.
// If mode is LoadModeFailFast, returns on first error.
// If mode is LoadModeCollectAll, collects all errors.
// A nil result means the directory could not be loaded at all.
func LoadSchedules(dir string, mode LoadMode) (*LoadResult, []error) {
	var errs []error

	info, err := os.Stat(dir)
	if os.IsNotExist(err) {
		return nil, []error{&LoadError{Code: ErrCodeNotFound, Message: fmt.Sprintf("schedule directory not found: %s", dir)}}
	}
	if err != nil {
		return nil, []error{&LoadError{Code: ErrCodeNotFound, Message: fmt.Sprintf("error accessing schedule directory: %v", err)}}
	}
	if !info.IsDir() {
		return nil, []error{&LoadError{Code: ErrCodeNotFound, Message: fmt.Sprintf("not a directory: %s", dir)}}
	}

	cueFiles, err := FindCUEFiles(dir)
	if err != nil {
		return nil, []error{&LoadError{Code: ErrCodeScanError, Message: fmt.Sprintf("error scanning directory: %v", err)}}
	}
	if len(cueFiles) == 0 {
		return nil, []error{&LoadError{Code: ErrCodeNoFiles, Message: fmt.Sprintf("no CUE files found in %s", dir)}}
	}

	ctx := cuecontext.New()
	instances := load.Instances([]string{"."}, &load.Config{Dir: dir})
	if len(instances) == 0 {
		return nil, []error{&LoadError{Code: ErrCodeLoadFailed, Message: "no CUE instances loaded"}}
	}
	inst := instances[0]
	if inst.Err != nil {
		return nil, []error{&LoadError{Code: ErrCodeLoadFailed, Message: fmt.Sprintf("loading CUE files: %v", inst.Err)}}
	}

	value := ctx.BuildInstance(inst)
	if err := value.Err(); err != nil {
		return nil, []error{&LoadError{Code: ErrCodeBuildFailed, Message: fmt.Sprintf("building CUE value: %v", err)}}
	}

	result := &LoadResult{
		CUEValue:  value,
		FileCount: len(cueFiles),
	}

	result.Hardware, err = compiler.CompileHardware(value.LookupPath(cue.ParsePath("hardware")), ir.HardwareConfig{})
	if err != nil {
		return result, []error{convertCompileError(err, "hardware")}
	}

	progVal := value.LookupPath(cue.ParsePath("program"))
	if progVal.Exists() {
		iter, iterErr := progVal.Fields()
		if iterErr != nil {
			return result, []error{&LoadError{Code: ErrCodeGeneric, Message: fmt.Sprintf("iterating programs: %v", iterErr)}}
		}
		for iter.Next() {
			prog, compileErr := compiler.CompileProgram(iter.Value(), result.Hardware)
			if compileErr != nil {
				errs = append(errs, convertCompileError(compileErr, "program."+iter.Selector().String()))
				if mode == LoadModeFailFast {
					return result, errs
				}
				continue
			}
			result.Programs = append(result.Programs, *prog)
		}
	}

	if len(result.Programs) == 0 && len(errs) == 0 {
		errs = append(errs, &LoadError{Code: ErrCodeGeneric, Message: "no programs found in schedules"})
	}

	return result, errs
}

// FindCUEFiles walks the directory and returns all .cue file paths.
func FindCUEFiles(dir string) ([]string, error) {
	var files []string
	err := filepath.Walk(dir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if !info.IsDir() && filepath.Ext(path) == ".cue" {
			files = append(files, path)
		}
		return nil
	})
	return files, err
}

// convertCompileError converts a compiler error to a LoadError with position info.
func convertCompileError(err error, context string) *LoadError {
	var compileErr *compiler.CompileError
	if errors.As(err, &compileErr) {
		return &LoadError{
			Code:    MapFieldToErrorCode(compileErr.Field),
			Message: fmt.Sprintf("%s: %s", context, compileErr.Message),
			Pos:     compileErr.Pos,
		}
	}
	return &LoadError{
		Code:    ErrCodeGeneric,
		Message: fmt.Sprintf("%s: %v", context, err),
	}
}

// Error code constants for command-level failures. Schedule and pulse
// errors keep the E1xx and E2xx codes of the compiler and pulse packages.
const (
	ErrCodeGeneric     = "E001" // Generic/unknown error
	ErrCodeScanError   = "E002" // Directory scan error
	ErrCodeNoFiles     = "E003" // No CUE files found
	ErrCodeLoadFailed  = "E004" // CUE load failed
	ErrCodeNotFound    = "E005" // Path not found
	ErrCodeBuildFailed = "E006" // CUE build failed
	ErrCodeWriteFailed = "E007" // File write error
	ErrCodeStoreFailed = "E008" // Database open/read/write error
)

// MapFieldToErrorCode maps a compiler error field to an error code.
// Fields look like "pulses[2].shape.kind"; the last segment decides.
func MapFieldToErrorCode(field string) string {
	if field == "pulses" {
		return compiler.ErrProgramNoPulses
	}
	if field == "hardware" || strings.HasPrefix(field, "hardware.") {
		return compiler.ErrInvalidHardware
	}

	last := field
	if i := strings.LastIndex(field, "."); i >= 0 {
		last = field[i+1:]
	}
	switch last {
	case "name":
		return compiler.ErrPulseNameEmpty
	case "duration":
		return compiler.ErrInvalidDuration
	case "start_time":
		return compiler.ErrInvalidStartTime
	case "io_mode":
		return compiler.ErrInvalidIOMode
	case "shape", "kind":
		return compiler.ErrMissingShape
	case "waveform", "func":
		return compiler.ErrUnknownWaveformFn
	case "num_steps":
		return compiler.ErrInvalidNumSteps
	default:
		return ErrCodeGeneric
	}
}
