package database

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

const (
	calendarDate     = "2006-01-02"
	calendarDateTime = "2006-01-02 15:04:05"
)

// Row is a single result row keyed by column name
type Row map[string]any

// String returns the column value as a string (empty if NULL or missing)
func (r Row) String(column string) string {
	switch v := r[column].(type) {
	case nil:
		return ""
	case string:
		return v
	default:
		return fmt.Sprint(v)
	}
}

// Bool reports whether the column holds a truthy value
func (r Row) Bool(column string) bool {
	switch v := r[column].(type) {
	case bool:
		return v
	case int64:
		return v != 0
	case float64:
		return v != 0
	case string:
		return v == "1" || v == "true"
	default:
		return false
	}
}

// Result holds the rows returned by a query.
// Exactly one row marshals as a flattened object; zero or several rows
// marshal as a list.
type Result struct {
	rows []Row
}

// NewResult wraps rows in a Result
func NewResult(rows []Row) *Result {
	if rows == nil {
		rows = []Row{}
	}
	return &Result{rows: rows}
}

// Rows returns every row, never nil
func (r *Result) Rows() []Row {
	return r.rows
}

// Len returns the number of rows
func (r *Result) Len() int {
	return len(r.rows)
}

// Single returns the only row when the result has exactly one
func (r *Result) Single() (Row, bool) {
	if len(r.rows) == 1 {
		return r.rows[0], true
	}
	return nil, false
}

// MarshalJSON implements json.Marshaler
func (r *Result) MarshalJSON() ([]byte, error) {
	if row, ok := r.Single(); ok {
		return json.Marshal(row)
	}
	return json.Marshal(r.rows)
}

// scanRows reads every row into column-keyed maps
func scanRows(rows *sql.Rows) ([]Row, error) {
	columns, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("failed to read columns: %w", err)
	}

	// declared types decide how time values are rendered
	declared := make([]string, len(columns))
	if types, err := rows.ColumnTypes(); err == nil {
		for i, ct := range types {
			declared[i] = ct.DatabaseTypeName()
		}
	}

	result := make([]Row, 0)
	for rows.Next() {
		values := make([]any, len(columns))
		dest := make([]any, len(columns))
		for i := range values {
			dest[i] = &values[i]
		}

		if err := rows.Scan(dest...); err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}

		row := make(Row, len(columns))
		for i, column := range columns {
			row[column] = normalizeValue(values[i], declared[i])
		}
		result = append(result, row)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate rows: %w", err)
	}

	return result, nil
}

// normalizeValue converts driver values into JSON-friendly values.
// Dates come back as the calendar string that was stored so a client in
// another timezone never sees the day shift. declaredType is the column's
// declared SQL type, empty for expressions.
func normalizeValue(v any, declaredType string) any {
	switch val := v.(type) {
	case []byte:
		return string(val)
	case time.Time:
		return formatCalendar(val, declaredType)
	default:
		return v
	}
}

// formatCalendar renders DATE columns as a day and DATETIME/TIMESTAMP columns
// with their clock, midnight included. Untyped values show the clock only
// when it is set.
func formatCalendar(t time.Time, declaredType string) string {
	switch strings.ToUpper(strings.TrimSpace(declaredType)) {
	case "DATE":
		return t.Format(calendarDate)
	case "DATETIME", "TIMESTAMP":
		return t.Format(calendarDateTime)
	}

	if t.Hour() == 0 && t.Minute() == 0 && t.Second() == 0 && t.Nanosecond() == 0 {
		return t.Format(calendarDate)
	}
	return t.Format(calendarDateTime)
}
