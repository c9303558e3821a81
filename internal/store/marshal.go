package store

import (
	"encoding/json"
	"fmt"

	"github.com/roach88/qpulse/internal/ir"
)

// marshalHardware converts a hardware config to canonical JSON TEXT.
func marshalHardware(hw ir.HardwareConfig) (string, error) {
	data, err := ir.MarshalCanonical(hw.CanonicalMap())
	if err != nil {
		return "", fmt.Errorf("marshal hardware: %w", err)
	}
	return string(data), nil
}

// unmarshalHardware parses hardware JSON TEXT. The canonical keys match the
// config's JSON tags.
func unmarshalHardware(data string) (ir.HardwareConfig, error) {
	var hw ir.HardwareConfig
	if err := json.Unmarshal([]byte(data), &hw); err != nil {
		return ir.HardwareConfig{}, fmt.Errorf("unmarshal hardware: %w", err)
	}
	return hw, nil
}

// marshalSamples converts a sample array to JSON TEXT. encoding/json writes
// the shortest representation that parses back to the same float64.
func marshalSamples(samples []float64) (string, error) {
	if samples == nil {
		samples = []float64{}
	}
	data, err := json.Marshal(samples)
	if err != nil {
		return "", fmt.Errorf("marshal samples: %w", err)
	}
	return string(data), nil
}

// unmarshalSamples parses sample JSON TEXT.
func unmarshalSamples(data string) ([]float64, error) {
	var samples []float64
	if err := json.Unmarshal([]byte(data), &samples); err != nil {
		return nil, fmt.Errorf("unmarshal samples: %w", err)
	}
	return samples, nil
}
