package sheetql

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-sql-driver/mysql"
)

// validator handles validation logic for Builder
type validator struct{}

// newValidator creates a new validator instance
func newValidator() *validator {
	return &validator{}
}

func (v *validator) validateBuilder(b *Builder) error {
	if _, err := dialectFor(b.driver); err != nil {
		return err
	}
	if err := validateTableName(b.table); err != nil {
		return err
	}
	if b.maxRows < 0 {
		return fmt.Errorf("sheetql: max rows must not be negative, got %d", b.maxRows)
	}

	switch b.driver {
	case DriverSQLite:
		return v.validateSQLitePath(b.dsn)
	case DriverLibSQL:
		return v.validateLibSQLURL(b.dsn)
	case DriverMySQL:
		return v.validateMySQLDSN(b.dsn)
	}
	return nil
}

// validateSQLitePath checks that the directory holding the database file exists.
func (v *validator) validateSQLitePath(dsn string) error {
	if dsn == "" || dsn == memoryDSN || strings.Contains(dsn, "mode=memory") {
		return nil
	}

	path := strings.TrimPrefix(dsn, "file:")
	if idx := strings.IndexByte(path, '?'); idx >= 0 {
		path = path[:idx]
	}
	if strings.TrimSpace(path) == "" {
		return errors.New("sheetql: sqlite path cannot be empty")
	}

	dir := filepath.Dir(path)
	info, err := os.Stat(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("sheetql: directory of sqlite database does not exist: %s", dir)
		}
		return fmt.Errorf("sheetql: failed to stat %s: %w", dir, err)
	}
	if !info.IsDir() {
		return fmt.Errorf("sheetql: %s is not a directory", dir)
	}
	return nil
}

// validateLibSQLURL accepts remote libSQL endpoints.
func (v *validator) validateLibSQLURL(dsn string) error {
	if dsn == "" {
		return errors.New("sheetql: libsql requires a database URL")
	}
	u, err := url.Parse(dsn)
	if err != nil {
		return fmt.Errorf("sheetql: invalid libsql URL: %w", err)
	}
	switch u.Scheme {
	case "libsql", "https", "http", "wss", "ws":
		return nil
	default:
		return fmt.Errorf("sheetql: unsupported libsql URL scheme %q", u.Scheme)
	}
}

// validateMySQLDSN parses the DSN the same way the driver will.
func (v *validator) validateMySQLDSN(dsn string) error {
	if dsn == "" {
		return errors.New("sheetql: mysql requires a DSN")
	}
	cfg, err := mysql.ParseDSN(dsn)
	if err != nil {
		return fmt.Errorf("sheetql: invalid mysql DSN: %w", err)
	}
	if cfg.DBName == "" {
		return errors.New("sheetql: mysql DSN must name a database")
	}
	return nil
}
