package sheetql

import (
	"database/sql"
	"fmt"
	"strconv"
	"time"

	"github.com/nao1215/sheetql/domain/model"
)

// ResultSet is the tabular outcome of a filter or raw query, with every value as text.
// A write statement yields a ResultSet without columns and with RowsAffected set.
type ResultSet struct {
	Columns      []string
	Rows         []model.Record
	RowsAffected int64
}

// EmptyResult returns a result with no columns and no rows.
// Failed queries degrade to it.
func EmptyResult() *ResultSet {
	return &ResultSet{Columns: []string{}, Rows: []model.Record{}}
}

// Len returns the number of rows.
func (rs *ResultSet) Len() int {
	if rs == nil {
		return 0
	}
	return len(rs.Rows)
}

// Maps returns each row as a column name to value map.
func (rs *ResultSet) Maps() []map[string]string {
	out := make([]map[string]string, 0, rs.Len())
	if rs == nil {
		return out
	}
	for _, row := range rs.Rows {
		m := make(map[string]string, len(rs.Columns))
		for i, c := range rs.Columns {
			if i < len(row) {
				m[c] = row[i]
			}
		}
		out = append(out, m)
	}
	return out
}

// Column returns the values of one column, or nil when it does not exist.
func (rs *ResultSet) Column(name string) []string {
	if rs == nil {
		return nil
	}
	idx := model.Header(rs.Columns).Index(name)
	if idx < 0 {
		return nil
	}
	values := make([]string, len(rs.Rows))
	for i, row := range rs.Rows {
		values[i] = row[idx]
	}
	return values
}

// scanResult reads every row into a ResultSet.
func scanResult(rows *sql.Rows) (*ResultSet, error) {
	columns, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("failed to get columns: %w", err)
	}

	rs := &ResultSet{Columns: columns, Rows: []model.Record{}}
	values := make([]any, len(columns))
	scanArgs := make([]any, len(columns))
	for i := range values {
		scanArgs[i] = &values[i]
	}

	for rows.Next() {
		if err := rows.Scan(scanArgs...); err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}
		rec := make(model.Record, len(columns))
		for i, v := range values {
			rec[i] = textValue(v)
		}
		rs.Rows = append(rs.Rows, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}
	return rs, nil
}

// textValue renders a scanned value. NULL becomes the empty string.
func textValue(v any) string {
	switch val := v.(type) {
	case nil:
		return ""
	case []byte:
		return string(val)
	case string:
		return val
	case int64:
		return strconv.FormatInt(val, 10)
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(val)
	case time.Time:
		return val.Format(time.RFC3339Nano)
	default:
		return fmt.Sprint(val)
	}
}
