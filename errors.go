package sheetql

import (
	"errors"
	"fmt"
	"strings"

	"github.com/nao1215/sheetql/domain/model"
)

// Failure categories. Every error returned by a user-facing operation wraps
// exactly one of them, so callers can decide how to report it with errors.Is.
var (
	// ErrIngestion indicates the uploaded file could not be read. Nothing was persisted.
	ErrIngestion = errors.New("sheetql: ingestion failed")

	// ErrPersistence indicates the table could not be created or rows could not be stored.
	ErrPersistence = errors.New("sheetql: persistence failed")

	// ErrQuery indicates a filter or raw query could not be executed.
	ErrQuery = errors.New("sheetql: query failed")
)

// Causes.
var (
	// ErrEmptyData indicates that the data source contains no header or no columns
	ErrEmptyData = errors.New("sheetql: empty data source")

	// ErrUnsupportedFormat indicates an unsupported file format
	ErrUnsupportedFormat = errors.New("sheetql: unsupported file format")

	// ErrDuplicateColumnName indicates the same column name appears twice
	ErrDuplicateColumnName = model.ErrDuplicateColumnName

	// ErrEmptyColumnName indicates a blank column name
	ErrEmptyColumnName = errors.New("sheetql: empty column name")

	// ErrInvalidColumnName indicates a column name the store cannot hold
	ErrInvalidColumnName = errors.New("sheetql: invalid column name")

	// ErrReservedColumnName indicates a column collides with the identity column
	ErrReservedColumnName = errors.New("sheetql: column name is reserved for the identity column")

	// ErrTooManyColumns indicates the header exceeds MaxColumnCount
	ErrTooManyColumns = errors.New("sheetql: too many columns")

	// ErrInvalidTableName indicates an unusable table name
	ErrInvalidTableName = errors.New("sheetql: invalid table name")

	// ErrUnknownColumn indicates a filter names a column the table does not have
	ErrUnknownColumn = errors.New("sheetql: unknown column")

	// ErrSchemaMismatch indicates an upload does not fit the existing table
	ErrSchemaMismatch = errors.New("sheetql: upload does not match existing table")

	// ErrNoTable indicates the target table has not been created yet
	ErrNoTable = errors.New("sheetql: table does not exist")

	// ErrNoUpload indicates an operation needs an uploaded file first
	ErrNoUpload = errors.New("sheetql: no file uploaded")

	// ErrRawQueryDisabled indicates free-text SQL is not permitted for this store
	ErrRawQueryDisabled = errors.New("sheetql: raw SQL is disabled")

	// ErrEmptyQuery indicates a blank raw query
	ErrEmptyQuery = errors.New("sheetql: empty query")

	// ErrNoResult indicates there is no result set to export
	ErrNoResult = errors.New("sheetql: no result to export")

	// ErrLossyExport indicates a result the chosen export format cannot reproduce
	ErrLossyExport = errors.New("sheetql: result cannot be exported in this format without loss")
)

// errorContext records where an error occurred.
type errorContext struct {
	operation string
	fileName  string
	tableName string
	details   string
}

// newErrorContext creates a new error context
func newErrorContext(operation string) *errorContext {
	return &errorContext{operation: operation}
}

// withFile adds the uploaded file name to the error
func (ec *errorContext) withFile(name string) *errorContext {
	ec.fileName = name
	return ec
}

// withTable adds table context to the error
func (ec *errorContext) withTable(tableName string) *errorContext {
	ec.tableName = tableName
	return ec
}

// withDetails adds details to the error context
func (ec *errorContext) withDetails(details string) *errorContext {
	ec.details = details
	return ec
}

// wrap formats the context and wraps both the category and the cause.
// A nil cause yields an error that wraps only the category.
func (ec *errorContext) wrap(category, cause error) error {
	parts := []string{ec.operation + " failed"}
	if ec.fileName != "" {
		parts = append(parts, "file: "+ec.fileName)
	}
	if ec.tableName != "" {
		parts = append(parts, "table: "+ec.tableName)
	}
	if ec.details != "" {
		parts = append(parts, "details: "+ec.details)
	}
	msg := strings.Join(parts, ", ")

	if cause == nil {
		return fmt.Errorf("%w: %s", category, msg)
	}
	return fmt.Errorf("%w: %s: %w", category, msg, cause)
}

// Category returns ErrIngestion, ErrPersistence or ErrQuery for errors produced
// by this package, or nil.
func Category(err error) error {
	for _, c := range []error{ErrIngestion, ErrPersistence, ErrQuery} {
		if errors.Is(err, c) {
			return c
		}
	}
	return nil
}
