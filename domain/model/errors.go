package model

import "errors"

var (
	// ErrDuplicateColumnName is returned when a header contains the same column twice
	ErrDuplicateColumnName = errors.New("duplicate column name")

	// ErrUnknownFormat is returned when an export format name cannot be parsed
	ErrUnknownFormat = errors.New("unknown output format")

	// ErrUnknownCompression is returned when a compression name cannot be parsed
	ErrUnknownCompression = errors.New("unknown compression type")
)
