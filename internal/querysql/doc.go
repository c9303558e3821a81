// Package querysql compiles program filters into parameterized SQLite WHERE
// clauses for the archive.
//
// A filter is a tree of sealed Predicate values:
//
//	querysql.And{Predicates: []querysql.Predicate{
//		querysql.Equals{Field: querysql.FieldInstrument, Value: "QRM-RF"},
//		querysql.HasWarning{Code: "W003"},
//	}}
//
// compiles to
//
//	json_extract(p.hardware, '$.instrument_type') = ? AND EXISTS (
//		SELECT 1 FROM warnings x WHERE x.program_id = p.id AND x.code = ?)
//
// with params ["QRM-RF", "W003"]. Values are never interpolated into the SQL
// text and fields are restricted to a fixed set of columns.
//
// The compiled clause refers to the programs table as "p"; callers own the
// SELECT and the ORDER BY.
package querysql
