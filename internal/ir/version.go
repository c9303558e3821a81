package ir

// Version constants for IR schema and compiler.
const (
	// IRVersion is the IR schema version.
	IRVersion = "1"

	// CompilerVersion is the qpulse compiler version.
	CompilerVersion = "0.1.0"
)
