// Package ir provides the intermediate representation types for qpulse.
//
// This package contains type definitions, canonical serialization and
// content-addressed hashing only. All other internal packages import ir;
// ir imports nothing internal, which keeps it the foundational layer.
//
// Key design constraints:
//   - Pulse shapes form a sealed union (GenericShape, StitchedSquareShape,
//     StaircaseShape, MarkerShape); consumers dispatch with a type switch
//   - Times in the IR are seconds (float64); the instruction layer converts
//     them to integer nanoseconds exactly once
//   - All JSON tags use snake_case
//   - Identity is content-addressed (see hash.go), never positional
package ir
