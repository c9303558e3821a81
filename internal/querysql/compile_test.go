package querysql

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCompile(t *testing.T) {
	tests := []struct {
		name       string
		pred       Predicate
		wantSQL    string
		wantParams []any
	}{
		{
			name:    "nil",
			pred:    nil,
			wantSQL: "1 = 1",
		},
		{
			name:       "equals name",
			pred:       Equals{Field: FieldName, Value: "q0"},
			wantSQL:    "p.name = ?",
			wantParams: []any{"q0"},
		},
		{
			name:       "equals pointer",
			pred:       &Equals{Field: FieldRunID, Value: "run-1"},
			wantSQL:    "p.run_id = ?",
			wantParams: []any{"run-1"},
		},
		{
			name:       "instrument",
			pred:       Equals{Field: FieldInstrument, Value: "QRM-RF"},
			wantSQL:    "json_extract(p.hardware, '$.instrument_type') = ?",
			wantParams: []any{"QRM-RF"},
		},
		{
			name:       "warning",
			pred:       HasWarning{Code: "W003"},
			wantSQL:    "EXISTS (SELECT 1 FROM warnings x WHERE x.program_id = p.id AND x.code = ?)",
			wantParams: []any{"W003"},
		},
		{
			name:    "empty and",
			pred:    And{},
			wantSQL: "1 = 1",
		},
		{
			name: "and keeps param order",
			pred: And{Predicates: []Predicate{
				Equals{Field: FieldName, Value: "flux"},
				And{Predicates: []Predicate{
					Equals{Field: FieldProgramID, Value: "abc"},
					HasWarning{Code: "W002"},
				}},
			}},
			wantSQL:    "p.name = ? AND (p.id = ? AND EXISTS (SELECT 1 FROM warnings x WHERE x.program_id = p.id AND x.code = ?))",
			wantParams: []any{"flux", "abc", "W002"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sql, params, err := Compile(tt.pred)
			require.NoError(t, err)
			assert.Equal(t, tt.wantSQL, sql)
			assert.Equal(t, tt.wantParams, params)
		})
	}
}

func TestCompile_NeverInterpolatesValues(t *testing.T) {
	injection := "x' OR '1'='1"
	sql, params, err := Compile(Equals{Field: FieldName, Value: injection})
	require.NoError(t, err)
	assert.NotContains(t, sql, injection)
	assert.Equal(t, []any{injection}, params)
}

func TestCompile_Errors(t *testing.T) {
	tests := []struct {
		name    string
		pred    Predicate
		wantErr string
	}{
		{"unknown field", Equals{Field: "hardware; DROP TABLE runs", Value: "x"}, "unknown field"},
		{"empty warning code", HasWarning{}, "warning code is required"},
		{"nested error", And{Predicates: []Predicate{HasWarning{}}}, "warning code is required"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := Compile(tt.pred)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}
