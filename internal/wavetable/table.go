package wavetable

import (
	"errors"
	"fmt"

	"github.com/roach88/qpulse/internal/ir"
)

// ErrWaveformMemoryExceeded indicates that storing a waveform would exceed
// the sequencer's waveform memory.
var ErrWaveformMemoryExceeded = errors.New("wavetable: waveform memory exceeded")

// Entry is one stored waveform.
type Entry struct {
	Index   int       `json:"index"`
	Key     string    `json:"key"`
	Samples []float64 `json:"data"`
}

// Table maps waveform content to slot indices. Identical sample arrays
// always resolve to the same slot, and entries are never removed.
//
// A Table is not safe for concurrent use; each sequencer program owns one.
type Table struct {
	maxSamples int
	total      int
	index      map[string]int
	entries    []Entry
}

// New creates an empty table holding at most maxSamples samples in total.
// maxSamples <= 0 means unbounded.
func New(maxSamples int) *Table {
	return &Table{
		maxSamples: maxSamples,
		index:      make(map[string]int),
	}
}

// AddIfUnique returns the index of samples, registering it if no entry with
// identical content exists yet.
func (t *Table) AddIfUnique(samples []float64) (int, error) {
	indices, err := t.AddAll(samples)
	if err != nil {
		return ir.NoWaveform, err
	}
	return indices[0], nil
}

// AddAll registers several arrays at once. Either every new array fits and
// is stored, or the table is left unchanged and ErrWaveformMemoryExceeded is
// returned. Arrays identical to each other share one slot.
func (t *Table) AddAll(arrays ...[]float64) ([]int, error) {
	keys := make([]string, len(arrays))
	pending := make(map[string]bool)
	need := 0
	for i, samples := range arrays {
		keys[i] = ir.WaveformKey(samples)
		if _, ok := t.index[keys[i]]; ok || pending[keys[i]] {
			continue
		}
		pending[keys[i]] = true
		need += len(samples)
	}

	if t.maxSamples > 0 && t.total+need > t.maxSamples {
		return nil, fmt.Errorf("%w: %d samples stored, %d requested, limit %d",
			ErrWaveformMemoryExceeded, t.total, need, t.maxSamples)
	}

	indices := make([]int, len(arrays))
	for i, samples := range arrays {
		if idx, ok := t.index[keys[i]]; ok {
			indices[i] = idx
			continue
		}
		idx := len(t.entries)
		t.entries = append(t.entries, Entry{
			Index:   idx,
			Key:     keys[i],
			Samples: append([]float64(nil), samples...),
		})
		t.index[keys[i]] = idx
		t.total += len(samples)
		indices[i] = idx
	}
	return indices, nil
}

// Lookup returns the index of samples if present.
func (t *Table) Lookup(samples []float64) (int, bool) {
	idx, ok := t.index[ir.WaveformKey(samples)]
	return idx, ok
}

// Len returns the number of stored waveforms.
func (t *Table) Len() int {
	return len(t.entries)
}

// TotalSamples returns the number of samples stored across all entries.
func (t *Table) TotalSamples() int {
	return t.total
}

// MaxSamples returns the capacity the table was created with.
func (t *Table) MaxSamples() int {
	return t.maxSamples
}

// Entries returns the stored waveforms in index order.
// The returned slice must not be modified.
func (t *Table) Entries() []Entry {
	return t.entries
}

// Get returns the entry at index.
func (t *Table) Get(index int) (Entry, bool) {
	if index < 0 || index >= len(t.entries) {
		return Entry{}, false
	}
	return t.entries[index], true
}
