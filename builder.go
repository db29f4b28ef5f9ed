package sheetql

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	_ "github.com/go-sql-driver/mysql"
	_ "github.com/tursodatabase/libsql-client-go/libsql"
)

// memoryDSN is the SQLite DSN of a private in-memory database.
const memoryDSN = ":memory:"

// sqliteBusyTimeout lets concurrent sessions on the same file wait for locks.
const sqliteBusyTimeout = "_pragma=busy_timeout(5000)"

// Builder configures and opens stores. Use NewBuilder to create a new
// instance, chain the With*/Enable* methods, validate with Build and open
// as many stores as needed with Open.
//
// The typical usage pattern is:
//
//	builder, err := sheetql.NewBuilder().
//		WithDSN("data.db").
//		EnableRawQuery().
//		Build(ctx)
//	if err != nil {
//		return err
//	}
//	store, err := builder.Open(ctx)
//	if err != nil {
//		return err
//	}
//	defer store.Close()
//
// Without a DSN every Open returns its own in-memory SQLite database, which
// is what a per-session scratch store needs.
type Builder struct {
	driver     Driver
	dsn        string
	table      string
	allowRaw   bool
	inferTypes bool
	maxRows    int
	built      bool
}

// NewBuilder creates a builder for an in-memory SQLite store with table
// DefaultTableName, raw SQL disabled and all columns typed TEXT.
func NewBuilder() *Builder {
	return &Builder{
		driver: DriverSQLite,
		table:  DefaultTableName,
	}
}

// WithDriver selects the database driver.
func (b *Builder) WithDriver(d Driver) *Builder {
	b.driver = d
	b.built = false
	return b
}

// WithDSN sets the data source. For SQLite it is a file path or ":memory:";
// for libSQL a libsql:// or https:// URL; for MySQL a go-sql-driver DSN.
func (b *Builder) WithDSN(dsn string) *Builder {
	b.dsn = dsn
	b.built = false
	return b
}

// WithTableName sets the persisted table name.
func (b *Builder) WithTableName(name string) *Builder {
	b.table = name
	b.built = false
	return b
}

// WithMaxRows caps search results. 0 means unlimited.
func (b *Builder) WithMaxRows(n int) *Builder {
	b.maxRows = n
	b.built = false
	return b
}

// EnableRawQuery permits Store.Run. Only enable it for trusted users:
// the SQL is executed as given, including statements that modify or drop data.
func (b *Builder) EnableRawQuery() *Builder {
	b.allowRaw = true
	return b
}

// EnableTypeInference stores columns whose values are all numeric as
// INTEGER or REAL instead of TEXT.
func (b *Builder) EnableTypeInference() *Builder {
	b.inferTypes = true
	return b
}

// Build validates the configuration.
func (b *Builder) Build(_ context.Context) (*Builder, error) {
	if err := newValidator().validateBuilder(b); err != nil {
		return nil, err
	}
	b.built = true
	return b, nil
}

// Open connects to the configured database and returns a store.
// This method can only be called after Build() has been successfully executed.
func (b *Builder) Open(ctx context.Context) (*Store, error) {
	if !b.built {
		return nil, errors.New("sheetql: builder is not validated, did you call Build()?")
	}

	dialect, err := dialectFor(b.driver)
	if err != nil {
		return nil, err
	}

	db, err := sql.Open(string(b.driver), b.dataSource())
	if err != nil {
		return nil, fmt.Errorf("sheetql: failed to open %s database: %w", b.driver, err)
	}
	if b.driver == DriverSQLite && b.inMemory() {
		// every connection to :memory: is a different database
		db.SetMaxOpenConns(1)
	}

	if err := db.PingContext(ctx); err != nil {
		var allErrors []error
		allErrors = append(allErrors, fmt.Errorf("sheetql: failed to connect to %s database: %w", b.driver, err))
		if closeErr := db.Close(); closeErr != nil {
			allErrors = append(allErrors, fmt.Errorf("failed to close database: %w", closeErr))
		}
		return nil, errors.Join(allErrors...)
	}

	return &Store{
		db:         db,
		dialect:    dialect,
		table:      b.table,
		allowRaw:   b.allowRaw,
		inferTypes: b.inferTypes,
		maxRows:    b.maxRows,
	}, nil
}

func (b *Builder) inMemory() bool {
	return b.dsn == "" || b.dsn == memoryDSN
}

// dataSource returns the DSN handed to sql.Open.
func (b *Builder) dataSource() string {
	if b.driver != DriverSQLite {
		return b.dsn
	}
	if b.inMemory() {
		return memoryDSN
	}
	if strings.Contains(b.dsn, "_pragma=busy_timeout") {
		return b.dsn
	}
	if strings.Contains(b.dsn, "?") {
		return b.dsn + "&" + sqliteBusyTimeout
	}
	return b.dsn + "?" + sqliteBusyTimeout
}
