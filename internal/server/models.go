package server

import "github.com/nao1215/sheetql/domain/model"

type ErrorResponse struct {
	Timestamp string `json:"timestamp"`
	Error     string `json:"error"`
	Message   string `json:"message"`
}

// QueryErrorResponse is returned when a query fails. The empty columns and
// rows let clients render the failure as an empty table.
type QueryErrorResponse struct {
	ErrorResponse
	Columns []string   `json:"columns"`
	Rows    [][]string `json:"rows"`
}

type OKResponse struct {
	OK bool `json:"ok"`
}

type SessionResponse struct {
	OK        bool   `json:"ok"`
	SessionID string `json:"session_id"`
}

type UploadResponse struct {
	OK      bool       `json:"ok"`
	Name    string     `json:"name"`
	Columns []string   `json:"columns"`
	Total   int        `json:"total"`
	Preview [][]string `json:"preview"`
}

type PreviewResponse struct {
	OK      bool       `json:"ok"`
	Columns []string   `json:"columns"`
	Rows    [][]string `json:"rows"`
}

type PersistResponse struct {
	OK       bool  `json:"ok"`
	Inserted int64 `json:"inserted"`
}

type ColumnsResponse struct {
	OK      bool     `json:"ok"`
	Columns []string `json:"columns"`
}

type FilterRequest struct {
	Column string `json:"column"`
	Value  string `json:"value"`
	// Mode is "contains" (default) or "exact"
	Mode string `json:"mode"`
}

type SearchRequest struct {
	Filters []FilterRequest `json:"filters"`
	Limit   int             `json:"limit"`
}

// FilterSet converts the request into an ordered filter set.
func (r SearchRequest) FilterSet() model.FilterSet {
	fs := make(model.FilterSet, 0, len(r.Filters))
	for _, f := range r.Filters {
		fs = append(fs, model.Filter{
			Column: f.Column,
			Value:  f.Value,
			Mode:   model.ParseMatchMode(f.Mode),
		})
	}
	return fs
}

type SQLRequest struct {
	SQL string `json:"sql"`
}

type ResultResponse struct {
	OK           bool       `json:"ok"`
	QueryMS      float64    `json:"query_ms"`
	Columns      []string   `json:"columns"`
	Rows         [][]string `json:"rows"`
	RowsAffected int64      `json:"rows_affected,omitempty"`
}

// rowsOf converts records for JSON, never yielding null.
func rowsOf(records []model.Record) [][]string {
	rows := make([][]string, len(records))
	for i, r := range records {
		rows[i] = []string(r)
	}
	return rows
}

func columnsOf(columns []string) []string {
	if columns == nil {
		return []string{}
	}
	return columns
}
