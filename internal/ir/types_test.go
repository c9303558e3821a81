package ir

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestShapeKinds(t *testing.T) {
	tests := []struct {
		shape Shape
		kind  ShapeKind
	}{
		{GenericShape{}, ShapeGeneric},
		{StitchedSquareShape{}, ShapeStitchedSquare},
		{StaircaseShape{}, ShapeStaircase},
		{MarkerShape{}, ShapeMarker},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.kind, tt.shape.Kind())
	}
}

func TestPulseOperationCanonicalMap(t *testing.T) {
	start := 1e-6
	op := PulseOperation{
		Name:      "ramp",
		Shape:     StaircaseShape{StartAmp: -0.5, FinalAmp: 0.5, NumSteps: 5},
		Duration:  100e-9,
		StartTime: &start,
		IOMode:    IOModeImag,
	}

	data, err := MarshalCanonical(op.CanonicalMap())
	require.NoError(t, err)
	assert.Equal(t,
		`{"duration":1e-07,"io_mode":"imag","name":"ramp","shape":{"final_amp":0.5,"kind":"staircase","num_steps":5,"start_amp":-0.5},"start_time":1e-06}`,
		string(data))
}

func TestHardwareConfigDefaults(t *testing.T) {
	qcm := DefaultHardwareConfig(InstrumentQCM)
	assert.Equal(t, 1e9, qcm.SamplingRate)
	assert.Equal(t, int64(4), qcm.GridTimeNs)
	assert.Equal(t, int64(1000), qcm.StitchDurationNs)
	assert.Equal(t, int64(65535), qcm.ImmediateSzGain)
	assert.Equal(t, int64(4294967295), qcm.RegisterSize)
	assert.Equal(t, int64(65532), qcm.ImmediateMaxWaitNs)
	assert.Equal(t, 16384, qcm.MaxWaveformSamples)
	assert.Equal(t, 0, qcm.Marker())
	assert.False(t, qcm.IsRF())
	require.NoError(t, qcm.Validate())

	rf := DefaultHardwareConfig(InstrumentQRMRF)
	assert.True(t, rf.IsRF())
	assert.Equal(t, 0b0011, rf.Marker())

	explicit := 0
	override := HardwareConfig{InstrumentType: InstrumentQCMRF, DefaultMarker: &explicit}.WithDefaults()
	assert.Equal(t, 0, override.Marker(), "explicit zero marker must survive defaults")
}

func TestHardwareConfigValidate(t *testing.T) {
	tests := []struct {
		name string
		cfg  HardwareConfig
	}{
		{"unknown instrument", HardwareConfig{InstrumentType: "AWG"}.WithDefaults()},
		{"off-grid stitch", HardwareConfig{StitchDurationNs: 1002}.WithDefaults()},
		{"negative rate", HardwareConfig{SamplingRate: -1}.WithDefaults()},
		{"one register", HardwareConfig{NumRegisters: 1}.WithDefaults()},
		{"off-grid max wait", HardwareConfig{ImmediateMaxWaitNs: 65534}.WithDefaults()},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Error(t, tt.cfg.Validate())
		})
	}
}

func TestJSONFieldNaming(t *testing.T) {
	data, err := json.Marshal(DefaultHardwareConfig(InstrumentQCM))
	require.NoError(t, err)

	assert.Contains(t, string(data), `"instrument_type"`)
	assert.Contains(t, string(data), `"grid_time_ns"`)
	assert.NotContains(t, string(data), `"GridTimeNs"`)
}
