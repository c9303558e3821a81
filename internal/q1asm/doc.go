// Package q1asm builds instruction streams for the Q1 sequence processor.
//
// A Program is an ordered list of instruction rows plus an elapsed-time
// counter in integer nanoseconds. The counter is advanced explicitly by the
// code that emits real-time instructions, so callers stay in control of how
// time inside loops is accounted.
//
// TIMING MODEL:
//
// Real-time instructions (play, wait, upd_param) take a duration in ns that
// must be at least one grid time. Waits longer than the largest immediate are
// split by AutoWait. Loops do not advance the counter on their own; the
// emitter that builds a loop adds the time of the repetitions it creates.
//
// FIXED POINT:
//
// Gains and offsets are encoded as signed immediates over a configurable
// range (ExpandFromNormalisedRange). Registers hold unsigned 32-bit values,
// so negative values are wrapped with ToRegisterImmediate before they are
// moved into a register.
//
// The textual listing produced by Format is for inspection and golden tests;
// binary assembly is out of scope.
package q1asm
