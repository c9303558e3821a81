package ir

import "fmt"

// Instrument types understood by the compiler.
const (
	InstrumentQCM   = "QCM"
	InstrumentQRM   = "QRM"
	InstrumentQCMRF = "QCM-RF"
	InstrumentQRMRF = "QRM-RF"
)

// ValidInstrumentTypes defines allowed instrument types.
var ValidInstrumentTypes = map[string]bool{
	InstrumentQCM:   true,
	InstrumentQRM:   true,
	InstrumentQCMRF: true,
	InstrumentQRMRF: true,
}

// Hardware defaults of the Q1 sequence processor.
const (
	DefaultSamplingRate       = 1e9 // Sa/s
	DefaultGridTimeNs         = 4
	DefaultStitchDurationNs   = 1000
	DefaultImmediateSzGain    = 1<<16 - 1
	DefaultImmediateSzOffset  = 1<<16 - 1
	DefaultRegisterSize       = 1<<32 - 1
	DefaultImmediateMaxWaitNs = 1<<16 - 4
	DefaultMaxWaveformSamples = 16384
	DefaultNumRegisters       = 64
	defaultRFMarker           = 0b0011 // RF output/input switches on
)

// HardwareConfig carries the fixed constants of the target sequencer.
// Zero fields are filled by WithDefaults. DefaultMarker is a pointer so that
// an explicit 0 can be told apart from "use the instrument default".
type HardwareConfig struct {
	InstrumentType     string  `json:"instrument_type"`
	SamplingRate       float64 `json:"sampling_rate,omitempty"`
	GridTimeNs         int64   `json:"grid_time_ns,omitempty"`
	StitchDurationNs   int64   `json:"stitch_duration_ns,omitempty"`
	ImmediateSzGain    int64   `json:"immediate_sz_gain,omitempty"`
	ImmediateSzOffset  int64   `json:"immediate_sz_offset,omitempty"`
	RegisterSize       int64   `json:"register_size,omitempty"`
	ImmediateMaxWaitNs int64   `json:"immediate_max_wait_ns,omitempty"`
	MaxWaveformSamples int     `json:"max_waveform_samples,omitempty"`
	NumRegisters       int     `json:"num_registers,omitempty"`
	DefaultMarker      *int    `json:"default_marker,omitempty"`
}

// DefaultHardwareConfig returns the defaults for an instrument type.
func DefaultHardwareConfig(instrumentType string) HardwareConfig {
	return HardwareConfig{InstrumentType: instrumentType}.WithDefaults()
}

// WithDefaults returns a copy with every zero field set to its default.
func (c HardwareConfig) WithDefaults() HardwareConfig {
	if c.InstrumentType == "" {
		c.InstrumentType = InstrumentQCM
	}
	if c.SamplingRate == 0 {
		c.SamplingRate = DefaultSamplingRate
	}
	if c.GridTimeNs == 0 {
		c.GridTimeNs = DefaultGridTimeNs
	}
	if c.StitchDurationNs == 0 {
		c.StitchDurationNs = DefaultStitchDurationNs
	}
	if c.ImmediateSzGain == 0 {
		c.ImmediateSzGain = DefaultImmediateSzGain
	}
	if c.ImmediateSzOffset == 0 {
		c.ImmediateSzOffset = DefaultImmediateSzOffset
	}
	if c.RegisterSize == 0 {
		c.RegisterSize = DefaultRegisterSize
	}
	if c.ImmediateMaxWaitNs == 0 {
		c.ImmediateMaxWaitNs = DefaultImmediateMaxWaitNs
	}
	if c.MaxWaveformSamples == 0 {
		c.MaxWaveformSamples = DefaultMaxWaveformSamples
	}
	if c.NumRegisters == 0 {
		c.NumRegisters = DefaultNumRegisters
	}
	if c.DefaultMarker == nil {
		marker := 0
		if c.IsRF() {
			marker = defaultRFMarker
		}
		c.DefaultMarker = &marker
	}
	return c
}

// IsRF reports whether the instrument is an RF variant. RF variants use the
// first two marker bits as output/input switches.
func (c HardwareConfig) IsRF() bool {
	return c.InstrumentType == InstrumentQCMRF || c.InstrumentType == InstrumentQRMRF
}

// Marker returns the default marker bits (0 when unset).
func (c HardwareConfig) Marker() int {
	if c.DefaultMarker == nil {
		return 0
	}
	return *c.DefaultMarker
}

// Validate checks the configuration after defaults are applied.
func (c HardwareConfig) Validate() error {
	if !ValidInstrumentTypes[c.InstrumentType] {
		return fmt.Errorf("invalid instrument type %q", c.InstrumentType)
	}
	if c.SamplingRate <= 0 {
		return fmt.Errorf("sampling rate must be positive, got %g", c.SamplingRate)
	}
	if c.GridTimeNs <= 0 {
		return fmt.Errorf("grid time must be positive, got %d ns", c.GridTimeNs)
	}
	if c.StitchDurationNs%c.GridTimeNs != 0 {
		return fmt.Errorf("stitch duration %d ns is not a multiple of the %d ns grid", c.StitchDurationNs, c.GridTimeNs)
	}
	if c.ImmediateMaxWaitNs < c.GridTimeNs || c.ImmediateMaxWaitNs%c.GridTimeNs != 0 {
		return fmt.Errorf("max immediate wait %d ns is not a positive multiple of the %d ns grid", c.ImmediateMaxWaitNs, c.GridTimeNs)
	}
	if c.NumRegisters < 2 {
		return fmt.Errorf("at least 2 registers are required, got %d", c.NumRegisters)
	}
	return nil
}

// CanonicalMap converts the configuration to a map for canonical JSON.
func (c HardwareConfig) CanonicalMap() map[string]any {
	return map[string]any{
		"instrument_type":       c.InstrumentType,
		"sampling_rate":         c.SamplingRate,
		"grid_time_ns":          c.GridTimeNs,
		"stitch_duration_ns":    c.StitchDurationNs,
		"immediate_sz_gain":     c.ImmediateSzGain,
		"immediate_sz_offset":   c.ImmediateSzOffset,
		"register_size":         c.RegisterSize,
		"immediate_max_wait_ns": c.ImmediateMaxWaitNs,
		"max_waveform_samples":  c.MaxWaveformSamples,
		"num_registers":         c.NumRegisters,
		"default_marker":        c.Marker(),
	}
}
