package sheetql

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/nao1215/sheetql/domain/model"
)

// Store is the relational table uploads are persisted into, together with
// the dialect needed to talk to it. Create one with a Builder.
type Store struct {
	db         *sql.DB
	dialect    Dialect
	table      string
	allowRaw   bool
	inferTypes bool
	maxRows    int
}

// DB returns the underlying database handle.
func (s *Store) DB() *sql.DB {
	return s.db
}

// Dialect returns the SQL dialect of the store.
func (s *Store) Dialect() Dialect {
	return s.dialect
}

// TableName returns the name of the persisted table.
func (s *Store) TableName() string {
	return s.table
}

// RawQueryEnabled reports whether Run accepts free-text SQL.
func (s *Store) RawQueryEnabled() bool {
	return s.allowRaw
}

// Close closes the database handle.
func (s *Store) Close() error {
	return s.db.Close()
}

// TableExists reports whether the persisted table has been created.
func (s *Store) TableExists(ctx context.Context) (bool, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, s.dialect.TableExistsQuery(), s.table).Scan(&n); err != nil {
		return false, newErrorContext("check table").withTable(s.table).wrap(ErrQuery, err)
	}
	return n > 0, nil
}

// Synthesize derives the schema of the persisted table from an upload.
func (s *Store) Synthesize(t *model.Table) (*Schema, error) {
	var opts []SchemaOption
	if s.inferTypes {
		opts = append(opts, WithColumnTypes(t.ColumnInfo()))
	}
	return SynthesizeSchema(s.table, t.Header(), opts...)
}

// EnsureTable creates the table described by schema unless a table with that
// name exists. An existing table is left untouched, whatever its columns.
func (s *Store) EnsureTable(ctx context.Context, schema *Schema) error {
	if _, err := s.db.ExecContext(ctx, schema.CreateSQL(s.dialect)); err != nil {
		return newErrorContext("create table").withTable(schema.Table).wrap(ErrPersistence, err)
	}
	return nil
}

// Columns lists the columns of the persisted table in table order, identity first.
func (s *Store) Columns(ctx context.Context) ([]string, error) {
	ec := newErrorContext("list columns").withTable(s.table)

	rows, err := s.db.QueryContext(ctx, s.dialect.ListColumnsQuery(), s.table)
	if err != nil {
		return nil, ec.wrap(ErrQuery, err)
	}
	defer rows.Close()

	var columns []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, ec.wrap(ErrQuery, err)
		}
		columns = append(columns, name)
	}
	if err := rows.Err(); err != nil {
		return nil, ec.wrap(ErrQuery, err)
	}
	if len(columns) == 0 {
		return nil, ec.wrap(ErrQuery, ErrNoTable)
	}
	return columns, nil
}

// Persist synthesizes the schema for t, creates the table if needed and
// inserts every record in one transaction. It returns the number of rows inserted.
// On failure nothing is inserted.
func (s *Store) Persist(ctx context.Context, t *model.Table) (int64, error) {
	schema, err := s.Synthesize(t)
	if err != nil {
		return 0, err
	}
	if err := s.EnsureTable(ctx, schema); err != nil {
		return 0, err
	}
	return s.Insert(ctx, schema, t.Records())
}

// Insert adds records to the table described by schema. The table must
// already hold every column of schema; it is never altered to fit.
func (s *Store) Insert(ctx context.Context, schema *Schema, records []model.Record) (n int64, err error) {
	ec := newErrorContext("insert rows").withTable(schema.Table)

	existing, err := s.Columns(ctx)
	if err != nil {
		return 0, ec.wrap(ErrPersistence, err)
	}
	if missing := missingColumns(existing, schema.ColumnNames()); len(missing) > 0 {
		return 0, ec.wrap(ErrPersistence, fmt.Errorf("%w: table lacks columns %s",
			ErrSchemaMismatch, strings.Join(missing, ", ")))
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, ec.wrap(ErrPersistence, err)
	}
	defer func() {
		if err != nil {
			if rbErr := tx.Rollback(); rbErr != nil && !errors.Is(rbErr, sql.ErrTxDone) {
				err = errors.Join(err, rbErr)
			}
		}
	}()

	stmt, err := tx.PrepareContext(ctx, schema.InsertSQL(s.dialect))
	if err != nil {
		return 0, ec.wrap(ErrPersistence, err)
	}
	defer stmt.Close()

	width := len(schema.Columns)
	args := make([]any, width)
	for i, rec := range records {
		for j := range args {
			args[j] = ""
			if j < len(rec) {
				args[j] = rec[j]
			}
		}
		if _, err = stmt.ExecContext(ctx, args...); err != nil {
			return 0, ec.withDetails(fmt.Sprintf("row %d", i+1)).wrap(ErrPersistence, err)
		}
	}

	if err = tx.Commit(); err != nil {
		return 0, ec.wrap(ErrPersistence, err)
	}
	return int64(len(records)), nil
}

// missingColumns returns the wanted names absent from have, compared
// case-insensitively as SQL identifiers are.
func missingColumns(have, want []string) []string {
	set := make(map[string]struct{}, len(have))
	for _, h := range have {
		set[strings.ToLower(h)] = struct{}{}
	}
	var missing []string
	for _, w := range want {
		if _, ok := set[strings.ToLower(w)]; !ok {
			missing = append(missing, w)
		}
	}
	return missing
}

// Search returns the rows matching every active filter, in insertion order.
// When the store has a row cap, it bounds every search: WithLimit can only
// lower it.
func (s *Store) Search(ctx context.Context, filters model.FilterSet, opts ...QueryOption) (*ResultSet, error) {
	columns, err := s.Columns(ctx)
	if err != nil {
		return nil, err
	}

	if s.maxRows > 0 {
		opts = append(opts[:len(opts):len(opts)], withLimitCap(s.maxRows))
	}
	q, err := BuildFilterQuery(s.dialect, s.table, columns, filters, opts...)
	if err != nil {
		return nil, err
	}
	return s.query(ctx, "search", q.SQL, q.Args...)
}

// Count returns the number of persisted rows.
func (s *Store) Count(ctx context.Context) (int64, error) {
	var n int64
	q := "SELECT COUNT(*) FROM " + s.dialect.QuoteIdent(s.table)
	if err := s.db.QueryRowContext(ctx, q).Scan(&n); err != nil {
		return 0, newErrorContext("count rows").withTable(s.table).wrap(ErrQuery, err)
	}
	return n, nil
}

// Reset drops the persisted table. The next persist synthesizes a fresh
// schema and identities start again.
func (s *Store) Reset(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, "DROP TABLE IF EXISTS "+s.dialect.QuoteIdent(s.table)); err != nil {
		return newErrorContext("reset table").withTable(s.table).wrap(ErrPersistence, err)
	}
	return nil
}

// Run executes free-text SQL exactly as given. Reads return their rows;
// any other statement is executed and committed and yields an empty result
// carrying the affected row count.
//
// The text is trusted completely, so Run refuses with ErrRawQueryDisabled
// unless the store was built with EnableRawQuery.
func (s *Store) Run(ctx context.Context, query string) (*ResultSet, error) {
	ec := newErrorContext("raw query").withTable(s.table)

	if !s.allowRaw {
		return nil, ec.wrap(ErrQuery, ErrRawQueryDisabled)
	}
	if strings.TrimSpace(stripLeadingComments(query)) == "" {
		return nil, ec.wrap(ErrQuery, ErrEmptyQuery)
	}

	if IsReadStatement(query) {
		return s.query(ctx, "raw query", query)
	}

	res, err := s.db.ExecContext(ctx, query)
	if err != nil {
		return nil, ec.wrap(ErrQuery, err)
	}
	rs := EmptyResult()
	if n, err := res.RowsAffected(); err == nil {
		rs.RowsAffected = n
	}
	return rs, nil
}

func (s *Store) query(ctx context.Context, op, query string, args ...any) (*ResultSet, error) {
	ec := newErrorContext(op).withTable(s.table)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, ec.wrap(ErrQuery, err)
	}
	defer rows.Close()

	rs, err := scanResult(rows)
	if err != nil {
		return nil, ec.wrap(ErrQuery, err)
	}
	return rs, nil
}

var readKeywords = map[string]struct{}{
	"SELECT":   {},
	"WITH":     {},
	"PRAGMA":   {},
	"EXPLAIN":  {},
	"VALUES":   {},
	"SHOW":     {},
	"DESCRIBE": {},
	"DESC":     {},
	"TABLE":    {},
}

// IsReadStatement reports whether query returns rows, judged by its first
// keyword after any leading comments and parentheses.
func IsReadStatement(query string) bool {
	q := strings.TrimLeft(stripLeadingComments(query), "( \t\r\n")
	end := strings.IndexFunc(q, func(r rune) bool {
		return !(r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z')
	})
	if end >= 0 {
		q = q[:end]
	}
	_, ok := readKeywords[strings.ToUpper(q)]
	return ok
}

// stripLeadingComments removes whitespace, "--" line comments and "/* */"
// block comments from the start of query.
func stripLeadingComments(query string) string {
	for {
		query = strings.TrimLeft(query, " \t\r\n")
		switch {
		case strings.HasPrefix(query, "--"):
			idx := strings.IndexByte(query, '\n')
			if idx < 0 {
				return ""
			}
			query = query[idx+1:]
		case strings.HasPrefix(query, "/*"):
			idx := strings.Index(query, "*/")
			if idx < 0 {
				return ""
			}
			query = query[idx+2:]
		default:
			return query
		}
	}
}
