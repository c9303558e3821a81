package wavetable

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/segmentio/parquet-go"

	"github.com/roach88/qpulse/internal/ir"
)

// SampleRow is one stored sample in the Parquet export.
type SampleRow struct {
	WaveformIndex int32   `parquet:"waveform_index"`
	SampleIndex   int32   `parquet:"sample_index"`
	Value         float64 `parquet:"value"`
	Key           string  `parquet:"key,dict"`
}

// ConfigMetadataKey is the Parquet key/value metadata entry holding the
// hardware configuration as JSON.
const ConfigMetadataKey = "config"

// NewParquetWriter creates a writer for SampleRow with the hardware
// configuration attached as metadata.
func NewParquetWriter(w io.Writer, hw *ir.HardwareConfig) (*parquet.GenericWriter[SampleRow], error) {
	configStr := "{}"
	if hw != nil {
		b, err := json.Marshal(hw)
		if err != nil {
			return nil, fmt.Errorf("marshal hardware config: %w", err)
		}
		configStr = string(b)
	}
	return parquet.NewGenericWriter[SampleRow](w,
		parquet.KeyValueMetadata(ConfigMetadataKey, configStr),
	), nil
}

// WriteParquet writes every stored sample of t to w, one row per sample,
// ordered by waveform index then sample index.
func (t *Table) WriteParquet(w io.Writer, hw *ir.HardwareConfig) error {
	pw, err := NewParquetWriter(w, hw)
	if err != nil {
		return err
	}

	for _, e := range t.entries {
		rows := make([]SampleRow, len(e.Samples))
		for i, v := range e.Samples {
			rows[i] = SampleRow{
				WaveformIndex: int32(e.Index),
				SampleIndex:   int32(i),
				Value:         v,
				Key:           e.Key,
			}
		}
		if _, err := pw.Write(rows); err != nil {
			return fmt.Errorf("write waveform %d: %w", e.Index, err)
		}
	}
	if err := pw.Close(); err != nil {
		return fmt.Errorf("close parquet writer: %w", err)
	}
	return nil
}
