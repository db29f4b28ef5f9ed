package server

import (
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/nao1215/sheetql"
)

// conflicts are persistence failures caused by the upload rather than the store.
var conflicts = []error{
	sheetql.ErrNoUpload,
	sheetql.ErrSchemaMismatch,
	sheetql.ErrReservedColumnName,
	sheetql.ErrDuplicateColumnName,
	sheetql.ErrEmptyColumnName,
	sheetql.ErrInvalidColumnName,
	sheetql.ErrTooManyColumns,
	sheetql.ErrEmptyData,
}

// statusFor maps a sheetql error to an HTTP status.
func statusFor(err error) int {
	switch {
	case errors.Is(err, sheetql.ErrRawQueryDisabled):
		return http.StatusForbidden
	case errors.Is(err, sheetql.ErrIngestion):
		return http.StatusBadRequest
	case errors.Is(err, sheetql.ErrPersistence):
		for _, c := range conflicts {
			if errors.Is(err, c) {
				return http.StatusConflict
			}
		}
		return http.StatusInternalServerError
	case errors.Is(err, sheetql.ErrQuery):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func errorTitle(err error) string {
	switch sheetql.Category(err) {
	case sheetql.ErrIngestion:
		return "Ingestion error"
	case sheetql.ErrPersistence:
		return "Persistence error"
	case sheetql.ErrQuery:
		if errors.Is(err, sheetql.ErrRawQueryDisabled) {
			return "Forbidden"
		}
		return "Query error"
	default:
		return "Internal error"
	}
}

func createErrorResponse(c echo.Context, status int, error string, message string) error {
	resp := ErrorResponse{
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Error:     error,
		Message:   message,
	}
	return c.JSON(status, resp)
}

func createQueryErrorResponse(c echo.Context, status int, error string, message string) error {
	resp := QueryErrorResponse{
		ErrorResponse: ErrorResponse{
			Timestamp: time.Now().UTC().Format(time.RFC3339),
			Error:     error,
			Message:   message,
		},
		Columns: []string{},
		Rows:    [][]string{},
	}
	return c.JSON(status, resp)
}
