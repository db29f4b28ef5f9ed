package model

import (
	"regexp"
	"strconv"
	"strings"
	"time"
)

// datetimeLayout pairs a cheap shape check with the layouts that may parse it.
type datetimeLayout struct {
	shape   *regexp.Regexp
	layouts []string
}

var datetimeLayouts = []datetimeLayout{
	{regexp.MustCompile(`^\d{4}-\d{2}-\d{2}T\d{2}:\d{2}:\d{2}(\.\d+)?(Z|[+-]\d{2}:\d{2})$`), []string{time.RFC3339, time.RFC3339Nano}},
	{regexp.MustCompile(`^\d{4}-\d{2}-\d{2}[T ]\d{2}:\d{2}:\d{2}(\.\d+)?$`), []string{"2006-01-02T15:04:05", "2006-01-02T15:04:05.999999999", "2006-01-02 15:04:05", "2006-01-02 15:04:05.999999999"}},
	{regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`), []string{"2006-01-02"}},
	{regexp.MustCompile(`^\d{1,2}/\d{1,2}/\d{4}( \d{1,2}:\d{2}:\d{2}( (AM|PM))?)?$`), []string{"1/2/2006", "1/2/2006 15:04:05", "1/2/2006 3:04:05 PM"}},
	{regexp.MustCompile(`^\d{1,2}\.\d{1,2}\.\d{4}( \d{1,2}:\d{2}:\d{2})?$`), []string{"2.1.2006", "2.1.2006 15:04:05"}},
	{regexp.MustCompile(`^\d{1,2}:\d{2}(:\d{2}(\.\d+)?)?$`), []string{"15:04", "15:04:05", "15:04:05.999999999"}},
}

// isDatetime checks if a string value represents a datetime
func isDatetime(value string) bool {
	for _, dl := range datetimeLayouts {
		if !dl.shape.MatchString(value) {
			continue
		}
		for _, layout := range dl.layouts {
			if _, err := time.Parse(layout, value); err == nil {
				return true
			}
		}
	}
	return false
}

// InferColumnType infers the SQL column type from a column's values.
// Blank values are ignored. Any text value makes the column TEXT;
// otherwise the widest of datetime, real and integer wins.
func InferColumnType(values []string) ColumnType {
	var seenDatetime, seenReal, seenInteger bool

	for _, v := range values {
		v = strings.TrimSpace(v)
		switch {
		case v == "":
			continue
		case isDatetime(v):
			seenDatetime = true
		case isInteger(v):
			seenInteger = true
		case isReal(v):
			seenReal = true
		default:
			return ColumnTypeText
		}
	}

	switch {
	case seenDatetime:
		return ColumnTypeDatetime
	case seenReal:
		return ColumnTypeReal
	case seenInteger:
		return ColumnTypeInteger
	default:
		return ColumnTypeText
	}
}

func isInteger(v string) bool {
	_, err := strconv.ParseInt(v, 10, 64)
	return err == nil
}

func isReal(v string) bool {
	_, err := strconv.ParseFloat(v, 64)
	return err == nil
}

// InferColumnsInfo infers column information from header and data records
func InferColumnsInfo(header Header, records []Record) []ColumnInfo {
	if len(header) == 0 {
		return nil
	}

	columns := TextColumns(header)
	if len(records) == 0 {
		return columns
	}

	values := make([]string, 0, len(records))
	for i := range columns {
		values = values[:0]
		for _, r := range records {
			if i < len(r) {
				values = append(values, r[i])
			}
		}
		columns[i].Type = InferColumnType(values)
	}
	return columns
}
