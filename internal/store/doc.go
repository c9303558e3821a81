// Package store provides SQLite-backed durable storage for compiled
// sequencer programs.
//
// The store is an append-only archive of:
//   - Runs: one row per compiler invocation, identified by a UUIDv7
//   - Programs: compiled programs keyed by their content hash, with the
//     textual listing and the canonical JSON of the input program
//   - Waveforms: the waveform table of each program
//   - Warnings: non-fatal findings raised while compiling
//
// Programs are content-addressed, so writing the same program twice is a
// no-op; the run that first stored it keeps ownership. Runs are ordered by a
// logical seq, never by wall time.
//
// # Database Configuration
//
//   - WAL mode: Concurrent reads during writes
//   - synchronous=NORMAL: Balance durability/performance
//   - busy_timeout=5000: Wait for locks up to 5 seconds
//   - foreign_keys=ON: Enforce referential integrity
package store
