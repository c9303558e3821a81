// Package wavetable holds the waveform memory of one sequencer program.
//
// Waveforms are content addressed: the key of a sample array is the
// domain-separated SHA-256 of its float64 bit patterns (see ir.WaveformKey),
// so bit-identical arrays share one slot regardless of which pulse produced
// them. The table enforces the hardware sample budget and can export its
// contents to Parquet for offline inspection.
package wavetable
