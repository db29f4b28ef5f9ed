package sheetql

import (
	"database/sql/driver"
	"fmt"
	"strings"

	"github.com/nao1215/sheetql/domain/model"
	"modernc.org/sqlite"
)

// unicodeLower is registered with the embedded SQLite driver because its
// built-in LOWER only folds ASCII letters.
const unicodeLower = "unicode_lower"

func init() {
	sqlite.MustRegisterDeterministicScalarFunction(unicodeLower, 1, foldText)
}

func foldText(_ *sqlite.FunctionContext, args []driver.Value) (driver.Value, error) {
	switch v := args[0].(type) {
	case nil:
		return nil, nil
	case string:
		return strings.ToLower(v), nil
	case []byte:
		return strings.ToLower(string(v)), nil
	default:
		return strings.ToLower(fmt.Sprint(v)), nil
	}
}

// Driver identifies the database/sql driver that backs a store.
type Driver string

const (
	// DriverSQLite is modernc.org/sqlite, a file or in-memory database.
	DriverSQLite Driver = "sqlite"
	// DriverLibSQL is a remote libSQL / Turso database.
	DriverLibSQL Driver = "libsql"
	// DriverMySQL is a MySQL compatible server.
	DriverMySQL Driver = "mysql"
)

// ParseDriver parses a driver name. "sqlite3" and "turso" are accepted as aliases.
func ParseDriver(s string) (Driver, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "sqlite", "sqlite3":
		return DriverSQLite, nil
	case "libsql", "turso":
		return DriverLibSQL, nil
	case "mysql":
		return DriverMySQL, nil
	default:
		return "", fmt.Errorf("sheetql: unknown driver %q", s)
	}
}

// Dialect renders the store specific parts of the SQL sheetql emits.
// Every method that takes an identifier quotes it; values are never rendered.
type Dialect interface {
	// Driver returns the database/sql driver name.
	Driver() Driver
	// QuoteIdent quotes an identifier so that any character is taken literally.
	QuoteIdent(name string) string
	// ColumnType spells a column type for CREATE TABLE.
	ColumnType(t model.ColumnType) string
	// IdentityColumn returns the definition of the auto-increment key column.
	IdentityColumn(name string) string
	// TextExpr converts a quoted column to text for comparison.
	TextExpr(quotedColumn string) string
	// LowerExpr lower-cases a text expression. Only the embedded SQLite
	// driver folds beyond ASCII; remote libSQL uses the ASCII-only LOWER.
	LowerExpr(expr string) string
	// ListColumnsQuery returns a query with one placeholder (the table name)
	// yielding one column name per row in table order.
	ListColumnsQuery() string
	// TableExistsQuery returns a query with one placeholder (the table name)
	// yielding a single count.
	TableExistsQuery() string
}

// dialectFor returns the dialect of a driver.
func dialectFor(d Driver) (Dialect, error) {
	switch d {
	case DriverSQLite, DriverLibSQL:
		return sqliteDialect{driver: d}, nil
	case DriverMySQL:
		return mysqlDialect{}, nil
	default:
		return nil, fmt.Errorf("sheetql: unknown driver %q", d)
	}
}

// sqliteDialect serves both SQLite and libSQL, which share the SQL surface.
type sqliteDialect struct {
	driver Driver
}

func (d sqliteDialect) Driver() Driver { return d.driver }

func (sqliteDialect) QuoteIdent(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}

func (sqliteDialect) ColumnType(t model.ColumnType) string {
	return t.String()
}

func (d sqliteDialect) IdentityColumn(name string) string {
	return d.QuoteIdent(name) + " INTEGER PRIMARY KEY AUTOINCREMENT"
}

func (sqliteDialect) TextExpr(col string) string {
	return "CAST(" + col + " AS TEXT)"
}

func (d sqliteDialect) LowerExpr(expr string) string {
	if d.driver == DriverSQLite {
		return unicodeLower + "(" + expr + ")"
	}
	return "LOWER(" + expr + ")"
}

func (sqliteDialect) ListColumnsQuery() string {
	return "SELECT name FROM pragma_table_info(?) ORDER BY cid"
}

func (sqliteDialect) TableExistsQuery() string {
	return "SELECT COUNT(*) FROM sqlite_master WHERE type = 'table' AND name = ?"
}

type mysqlDialect struct{}

func (mysqlDialect) Driver() Driver { return DriverMySQL }

func (mysqlDialect) QuoteIdent(name string) string {
	return "`" + strings.ReplaceAll(name, "`", "``") + "`"
}

func (mysqlDialect) ColumnType(t model.ColumnType) string {
	switch t {
	case model.ColumnTypeInteger:
		return "BIGINT"
	case model.ColumnTypeReal:
		return "DOUBLE"
	default:
		return "TEXT"
	}
}

func (d mysqlDialect) IdentityColumn(name string) string {
	return d.QuoteIdent(name) + " BIGINT NOT NULL AUTO_INCREMENT PRIMARY KEY"
}

func (mysqlDialect) TextExpr(col string) string {
	return "CAST(" + col + " AS CHAR)"
}

func (mysqlDialect) LowerExpr(expr string) string {
	return "LOWER(" + expr + ")"
}

func (mysqlDialect) ListColumnsQuery() string {
	return "SELECT COLUMN_NAME FROM information_schema.COLUMNS " +
		"WHERE TABLE_SCHEMA = DATABASE() AND TABLE_NAME = ? ORDER BY ORDINAL_POSITION"
}

func (mysqlDialect) TableExistsQuery() string {
	return "SELECT COUNT(*) FROM information_schema.TABLES " +
		"WHERE TABLE_SCHEMA = DATABASE() AND TABLE_NAME = ?"
}
