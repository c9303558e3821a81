package wavetable

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"testing"

	"github.com/segmentio/parquet-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/qpulse/internal/ir"
)

func TestAddIfUniqueDeduplicates(t *testing.T) {
	tbl := New(0)

	a, err := tbl.AddIfUnique([]float64{1, 0.5, 0})
	require.NoError(t, err)
	b, err := tbl.AddIfUnique([]float64{0.5, 1})
	require.NoError(t, err)
	again, err := tbl.AddIfUnique([]float64{1, 0.5, 0})
	require.NoError(t, err)

	assert.Equal(t, 0, a)
	assert.Equal(t, 1, b)
	assert.Equal(t, a, again, "identical content must reuse its slot")
	assert.Equal(t, 2, tbl.Len())
	assert.Equal(t, 5, tbl.TotalSamples())
}

func TestNegativeZeroSharesSlot(t *testing.T) {
	tbl := New(0)
	a, err := tbl.AddIfUnique([]float64{0, 1})
	require.NoError(t, err)
	b, err := tbl.AddIfUnique([]float64{negZero(), 1})
	require.NoError(t, err)
	assert.Equal(t, a, b)
}

func TestAddAllSharesIdenticalArrays(t *testing.T) {
	tbl := New(0)
	ones := []float64{1, 1, 1}
	indices, err := tbl.AddAll(ones, ones)
	require.NoError(t, err)
	assert.Equal(t, []int{0, 0}, indices)
	assert.Equal(t, 1, tbl.Len())
	assert.Equal(t, 3, tbl.TotalSamples())
}

func TestCapacity(t *testing.T) {
	tbl := New(4)
	_, err := tbl.AddIfUnique([]float64{1, 1, 1})
	require.NoError(t, err)

	_, err = tbl.AddIfUnique([]float64{1, 1, 1})
	require.NoError(t, err, "re-adding stored content needs no memory")

	_, err = tbl.AddIfUnique([]float64{0.5, 0.5})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrWaveformMemoryExceeded))
	assert.Equal(t, 1, tbl.Len())
	assert.Equal(t, 3, tbl.TotalSamples())

	_, err = tbl.AddIfUnique([]float64{0.5})
	require.NoError(t, err, "exactly filling memory is allowed")
	assert.Equal(t, 4, tbl.TotalSamples())
}

func TestAddAllIsAtomic(t *testing.T) {
	tbl := New(5)
	_, err := tbl.AddAll([]float64{1, 1, 1}, []float64{0, 0, 0})
	require.ErrorIs(t, err, ErrWaveformMemoryExceeded)
	assert.Equal(t, 0, tbl.Len(), "a failed insertion must not register any array")
	assert.Equal(t, 0, tbl.TotalSamples())
}

func TestStoredSamplesAreCopied(t *testing.T) {
	tbl := New(0)
	samples := []float64{1, 0.5}
	idx, err := tbl.AddIfUnique(samples)
	require.NoError(t, err)
	samples[0] = 0.25

	e, ok := tbl.Get(idx)
	require.True(t, ok)
	assert.Equal(t, []float64{1, 0.5}, e.Samples)

	found, ok := tbl.Lookup([]float64{1, 0.5})
	assert.True(t, ok)
	assert.Equal(t, idx, found)

	_, ok = tbl.Get(7)
	assert.False(t, ok)
}

func TestWriteParquet(t *testing.T) {
	tbl := New(0)
	_, err := tbl.AddAll([]float64{1, 0.5}, []float64{0.25})
	require.NoError(t, err)

	hw := ir.DefaultHardwareConfig(ir.InstrumentQCM)
	var buf bytes.Buffer
	require.NoError(t, tbl.WriteParquet(&buf, &hw))

	data := bytes.NewReader(buf.Bytes())
	f, err := parquet.OpenFile(data, int64(buf.Len()))
	require.NoError(t, err)

	config, ok := f.Lookup(ConfigMetadataKey)
	require.True(t, ok)
	var decoded ir.HardwareConfig
	require.NoError(t, json.Unmarshal([]byte(config), &decoded))
	assert.Equal(t, hw, decoded)

	reader := parquet.NewGenericReader[SampleRow](data)
	defer reader.Close()
	rows := make([]SampleRow, reader.NumRows())
	n, err := reader.Read(rows)
	if err != nil && !errors.Is(err, io.EOF) {
		require.NoError(t, err)
	}
	require.Equal(t, 3, n)

	entries := tbl.Entries()
	assert.Equal(t, SampleRow{WaveformIndex: 0, SampleIndex: 0, Value: 1, Key: entries[0].Key}, rows[0])
	assert.Equal(t, SampleRow{WaveformIndex: 0, SampleIndex: 1, Value: 0.5, Key: entries[0].Key}, rows[1])
	assert.Equal(t, SampleRow{WaveformIndex: 1, SampleIndex: 0, Value: 0.25, Key: entries[1].Key}, rows[2])
}

func negZero() float64 {
	z := 0.0
	return -z
}
