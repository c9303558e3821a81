package ir

import (
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"fmt"
	"math"
)

// Domain prefixes for content-addressed identity.
// Version suffix enables future algorithm migration.
const (
	DomainWaveform = "qpulse/waveform/v1"
	DomainProgram  = "qpulse/program/v1"
	DomainPulse    = "qpulse/pulse/v1"
)

// hashWithDomain computes SHA-256 hash with domain separation.
// Format: SHA256(domain + 0x00 + data)
// The null byte (0x00) separator prevents domain/data boundary ambiguity.
func hashWithDomain(domain string, data []byte) string {
	h := sha256.New()
	h.Write([]byte(domain))
	h.Write([]byte{0x00})
	h.Write(data)
	return hex.EncodeToString(h.Sum(nil))
}

// WaveformKey computes the content key of a real-valued sample array.
// Two arrays get the same key exactly when they are equal element by element:
// samples are hashed by their IEEE-754 bit pattern after folding -0 into +0,
// and the length is part of the hashed data.
func WaveformKey(samples []float64) string {
	data := make([]byte, 8+8*len(samples))
	binary.BigEndian.PutUint64(data, uint64(len(samples)))
	for i, v := range samples {
		if v == 0 {
			v = 0
		}
		binary.BigEndian.PutUint64(data[8+8*i:], math.Float64bits(v))
	}
	return hashWithDomain(DomainWaveform, data)
}

// ProgramID computes the content-addressed ID of a sequencer program.
// The ID is stable across runs given the same pulses and hardware config.
func ProgramID(p SequencerProgram) (string, error) {
	canonical, err := MarshalCanonical(p.CanonicalMap())
	if err != nil {
		return "", fmt.Errorf("ProgramID: failed to marshal: %w", err)
	}
	return hashWithDomain(DomainProgram, canonical), nil
}

// PulseID computes the content-addressed ID of a single pulse operation.
func PulseID(op PulseOperation) (string, error) {
	canonical, err := MarshalCanonical(op.CanonicalMap())
	if err != nil {
		return "", fmt.Errorf("PulseID: failed to marshal: %w", err)
	}
	return hashWithDomain(DomainPulse, canonical), nil
}

// MustProgramID is like ProgramID but panics on error.
// Use only in tests or when inputs are known to be valid.
func MustProgramID(p SequencerProgram) string {
	id, err := ProgramID(p)
	if err != nil {
		panic(err)
	}
	return id
}
