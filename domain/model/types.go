// Package model provides the domain model for sheetql: uploaded tables,
// filter sets and export options.
package model

import (
	"fmt"
	"strings"
)

// Header is the ordered list of column names taken from the first row of a sheet.
type Header []string

// NewHeader create new Header.
func NewHeader(h []string) Header {
	return Header(h)
}

// Equal compare Header.
func (h Header) Equal(h2 Header) bool {
	if len(h) != len(h2) {
		return false
	}
	for i, v := range h {
		if v != h2[i] {
			return false
		}
	}
	return true
}

// Validate reports an error wrapping ErrDuplicateColumnName when the same
// (trimmed) column name appears twice.
func (h Header) Validate() error {
	seen := make(map[string]int, len(h))
	for i, name := range h {
		trimmed := strings.TrimSpace(name)
		if prev, ok := seen[trimmed]; ok {
			return fmt.Errorf("%w: %q at columns %d and %d", ErrDuplicateColumnName, trimmed, prev+1, i+1)
		}
		seen[trimmed] = i
	}
	return nil
}

// Index returns the position of the named column, or -1.
func (h Header) Index(name string) int {
	for i, v := range h {
		if v == name {
			return i
		}
	}
	return -1
}

// Record is one data row of a sheet.
type Record []string

// NewRecord create new Record.
func NewRecord(r []string) Record {
	return Record(r)
}

// Equal compare Record.
func (r Record) Equal(r2 Record) bool {
	if len(r) != len(r2) {
		return false
	}
	for i, v := range r {
		if v != r2[i] {
			return false
		}
	}
	return true
}

// Fit returns a copy of the record padded with empty strings or truncated
// so that it has exactly width fields.
func (r Record) Fit(width int) Record {
	out := make(Record, width)
	copy(out, r)
	return out
}

// ColumnType represents the SQL column type
type ColumnType int

const (
	// ColumnTypeText represents TEXT column type
	ColumnTypeText ColumnType = iota
	// ColumnTypeInteger represents INTEGER column type
	ColumnTypeInteger
	// ColumnTypeReal represents REAL column type
	ColumnTypeReal
	// ColumnTypeDatetime represents datetime stored as TEXT in ISO8601 format
	ColumnTypeDatetime
)

// String returns the generic SQL type name. Dialects map it to their own spelling.
func (ct ColumnType) String() string {
	switch ct {
	case ColumnTypeInteger:
		return "INTEGER"
	case ColumnTypeReal:
		return "REAL"
	default:
		// datetime values are kept as ISO8601 text
		return "TEXT"
	}
}

// ColumnInfo is a column name together with its storage type.
type ColumnInfo struct {
	Name string
	Type ColumnType
}

// TextColumns returns ColumnInfo entries typed TEXT for every name in the header.
func TextColumns(h Header) []ColumnInfo {
	cols := make([]ColumnInfo, len(h))
	for i, name := range h {
		cols[i] = ColumnInfo{Name: name, Type: ColumnTypeText}
	}
	return cols
}
