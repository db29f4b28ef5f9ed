package model

import (
	"path/filepath"
	"strings"
)

// Table is the in-memory result of parsing an uploaded spreadsheet.
// It is replaced wholesale by the next upload and never mutated after creation.
type Table struct {
	// name is derived from the uploaded file name and only used for display.
	name string
	// header is the ordered column list.
	header Header
	// records are padded to the header width.
	records []Record
	// columnInfo holds inferred column types.
	columnInfo []ColumnInfo
}

// NewTable create new Table. Records are fitted to the header width.
func NewTable(
	name string,
	header Header,
	records []Record,
) *Table {
	fitted := make([]Record, len(records))
	for i, r := range records {
		fitted[i] = r.Fit(len(header))
	}

	return &Table{
		name:       name,
		header:     header,
		records:    fitted,
		columnInfo: InferColumnsInfo(header, fitted),
	}
}

// Name return table name.
func (t *Table) Name() string {
	return t.name
}

// Header return table header.
func (t *Table) Header() Header {
	return t.header
}

// Records return table records.
func (t *Table) Records() []Record {
	return t.records
}

// Len returns the number of data rows.
func (t *Table) Len() int {
	return len(t.records)
}

// ColumnInfo returns column information with inferred types
func (t *Table) ColumnInfo() []ColumnInfo {
	return t.columnInfo
}

// Head returns at most n leading records. n <= 0 returns nothing.
func (t *Table) Head(n int) []Record {
	if n <= 0 {
		return []Record{}
	}
	if n > len(t.records) {
		n = len(t.records)
	}
	return t.records[:n]
}

// Row returns the i-th record as a column name to value map.
func (t *Table) Row(i int) map[string]string {
	row := make(map[string]string, len(t.header))
	if i < 0 || i >= len(t.records) {
		return row
	}
	for j, name := range t.header {
		row[name] = t.records[i][j]
	}
	return row
}

// Equal compare Table.
func (t *Table) Equal(t2 *Table) bool {
	if t.Name() != t2.Name() {
		return false
	}
	if !t.header.Equal(t2.header) {
		return false
	}
	if len(t.Records()) != len(t2.Records()) {
		return false
	}
	for i, record := range t.Records() {
		if !record.Equal(t2.Records()[i]) {
			return false
		}
	}
	return true
}

// TableFromFilePath derives a display name from an uploaded file name,
// dropping the compression and format extensions.
func TableFromFilePath(filePath string) string {
	fileName := filepath.Base(filePath)
	for _, c := range []CompressionType{CompressionGZ, CompressionBZ2, CompressionXZ, CompressionZSTD} {
		if strings.HasSuffix(strings.ToLower(fileName), c.Extension()) {
			fileName = fileName[:len(fileName)-len(c.Extension())]
			break
		}
	}
	return strings.TrimSuffix(fileName, filepath.Ext(fileName))
}
