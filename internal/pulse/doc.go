// Package pulse implements the pulse compilation engine of a Q1 sequencer.
//
// Each pulse goes through three stages:
//
//  1. Generate: sample the shape, normalize each channel to unit peak
//     amplitude and register the unit arrays in the waveform table. The
//     removed scale is returned as the channel amplitude and applied later by
//     the hardware gain stage, so pulses that differ only in amplitude share
//     waveform memory.
//  2. MapPaths: route the real and imaginary channel onto path0 and path1
//     according to the output mode.
//  3. Emit: append the instructions for the shape and advance the elapsed
//     time counter.
//
// Shapes:
//
//   - generic: set_awg_gain followed by a play that starts the waveform.
//   - stitched square (deprecated): a looped chunk of ones plus a remainder.
//   - staircase (deprecated): DC offsets stepped by register arithmetic.
//   - marker: set_mrk toggled around a wait on digital outputs.
//
// Compiler drives the three stages over a SequencerProgram, places pulses on
// the timeline and collects warnings. Errors are *PulseError values with a
// stable code (E201-E208); any error aborts the program.
package pulse
