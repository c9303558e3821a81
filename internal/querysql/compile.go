package querysql

import (
	"fmt"
	"strings"
)

// Predicate is a filter condition over archived programs.
//
// This is a sealed interface - only types in this package implement it.
type Predicate interface {
	predicateNode() // Marker method - seals interface to this package
}

// Field names a filterable program attribute.
type Field string

// Filterable fields.
const (
	FieldName       Field = "name"
	FieldRunID      Field = "run_id"
	FieldProgramID  Field = "id"
	FieldInstrument Field = "instrument_type"
)

// columns maps each field to its SQL expression over programs p.
var columns = map[Field]string{
	FieldName:       "p.name",
	FieldRunID:      "p.run_id",
	FieldProgramID:  "p.id",
	FieldInstrument: "json_extract(p.hardware, '$.instrument_type')",
}

// Equals matches programs whose Field equals Value.
type Equals struct {
	Field Field
	Value string
}

func (Equals) predicateNode() {}

// HasWarning matches programs that raised a warning with Code.
type HasWarning struct {
	Code string
}

func (HasWarning) predicateNode() {}

// And matches programs satisfying every predicate. An empty And matches
// everything.
type And struct {
	Predicates []Predicate
}

func (And) predicateNode() {}

// Compile converts p into a WHERE clause fragment and its parameters.
// A nil predicate compiles to an always-true clause.
func Compile(p Predicate) (string, []any, error) {
	if p == nil {
		return "1 = 1", nil, nil
	}

	switch pred := p.(type) {
	case Equals:
		return compileEquals(pred)
	case *Equals:
		return compileEquals(*pred)
	case HasWarning:
		return compileHasWarning(pred)
	case *HasWarning:
		return compileHasWarning(*pred)
	case And:
		return compileAnd(pred)
	case *And:
		return compileAnd(*pred)
	default:
		return "", nil, fmt.Errorf("unsupported predicate type: %T", p)
	}
}

func compileEquals(eq Equals) (string, []any, error) {
	col, ok := columns[eq.Field]
	if !ok {
		return "", nil, fmt.Errorf("unknown field %q", eq.Field)
	}
	return col + " = ?", []any{eq.Value}, nil
}

func compileHasWarning(hw HasWarning) (string, []any, error) {
	if hw.Code == "" {
		return "", nil, fmt.Errorf("warning code is required")
	}
	sql := "EXISTS (SELECT 1 FROM warnings x WHERE x.program_id = p.id AND x.code = ?)"
	return sql, []any{hw.Code}, nil
}

func compileAnd(and And) (string, []any, error) {
	if len(and.Predicates) == 0 {
		return "1 = 1", nil, nil // vacuous truth
	}

	parts := make([]string, 0, len(and.Predicates))
	var params []any
	for _, pred := range and.Predicates {
		sql, predParams, err := Compile(pred)
		if err != nil {
			return "", nil, err
		}
		switch pred.(type) {
		case And, *And:
			sql = "(" + sql + ")"
		}
		parts = append(parts, sql)
		params = append(params, predParams...)
	}
	return strings.Join(parts, " AND "), params, nil
}
