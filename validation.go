package sheetql

import (
	"fmt"
	"strings"
	"unicode/utf8"
)

// MaxColumnCount defines the maximum number of columns allowed in a table
const MaxColumnCount = 2000

// MaxValueLength defines the maximum length of a single field value
const MaxValueLength = 65536

// maxTableNameLength is the shortest identifier limit among supported stores (MySQL).
const maxTableNameLength = 64

// sanitizeValue truncates extremely long values and removes NUL bytes,
// which several stores reject inside TEXT. Truncation never splits a rune.
func sanitizeValue(value string) string {
	if len(value) > MaxValueLength {
		cut := MaxValueLength
		for cut > 0 && !utf8.RuneStart(value[cut]) {
			cut--
		}
		value = value[:cut]
	}
	return strings.ReplaceAll(value, "\x00", "")
}

// validateColumnCount checks if the number of columns is within acceptable limits
func validateColumnCount(n int) error {
	if n > MaxColumnCount {
		return fmt.Errorf("%w: %d columns, limit is %d", ErrTooManyColumns, n, MaxColumnCount)
	}
	return nil
}

// validateTableName rejects names that cannot be used as a persisted table.
// Any characters are allowed because identifiers are always quoted.
func validateTableName(name string) error {
	switch {
	case strings.TrimSpace(name) == "":
		return fmt.Errorf("%w: name is empty", ErrInvalidTableName)
	case strings.ContainsRune(name, 0):
		return fmt.Errorf("%w: name contains a NUL byte", ErrInvalidTableName)
	case len(name) > maxTableNameLength:
		return fmt.Errorf("%w: %q is longer than %d bytes", ErrInvalidTableName, name, maxTableNameLength)
	case strings.HasPrefix(strings.ToLower(name), "sqlite_"):
		return fmt.Errorf("%w: %q uses a reserved prefix", ErrInvalidTableName, name)
	}
	return nil
}

// SanitizeForLog hides statements that look like they carry secrets and
// limits the length of what ends up in the log.
func SanitizeForLog(input string) string {
	lower := strings.ToLower(input)
	for _, pattern := range []string{"password", "passwd", "secret", "token", "credential", "private"} {
		if strings.Contains(lower, pattern) {
			return "[REDACTED]"
		}
	}

	const maxLogLength = 200
	input = strings.Join(strings.Fields(input), " ")
	if len(input) > maxLogLength {
		input = input[:maxLogLength] + "..."
	}
	return input
}
