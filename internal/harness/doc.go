// Package harness provides a conformance testing framework for the pulse
// compiler.
//
// A scenario is a YAML file that names one or more CUE schedules, selects a
// program from them and states what compiling it must produce:
//
//	name: marker_on_rf
//	description: RF markers keep the output switches on
//	schedules: [schedules/markers.cue]
//	program: seq0
//	assertions:
//	  - type: instruction_contains
//	    mnemonic: set_mrk
//	    args: ["19"]
//	  - type: elapsed
//	    value: 40
//
// Scenarios that must fail carry an expect clause with the error code:
//
//	expect:
//	  error: E206
//
// Run compiles the program with the real compiler, archives the result in a
// fresh in-memory store and evaluates the assertions against the emitted
// instruction trace, the waveform table, the warnings and the archived
// record. RunWithGolden additionally compares the listing against a golden
// file under testdata/golden.
package harness
