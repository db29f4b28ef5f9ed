package sheetql

import (
	"fmt"
	"strings"

	"github.com/nao1215/sheetql/domain/model"
)

// IdentityColumn is the name of the synthetic auto-increment key added to every table.
const IdentityColumn = "id"

// DefaultTableName is the persisted table name when none is configured.
const DefaultTableName = "data_table"

// Schema is a table definition synthesized from an upload header: the
// identity key followed by one column per header entry, in header order.
type Schema struct {
	Table    string
	Identity string
	Columns  []model.ColumnInfo
}

// SchemaOption customizes SynthesizeSchema.
type SchemaOption func(*schemaOptions)

type schemaOptions struct {
	types map[string]model.ColumnType
}

// WithColumnTypes assigns the given types to matching column names.
// Columns not listed stay TEXT.
func WithColumnTypes(infos []model.ColumnInfo) SchemaOption {
	return func(o *schemaOptions) {
		for _, info := range infos {
			o.types[info.Name] = info.Type
		}
	}
}

// SynthesizeSchema builds the definition of table from the ordered column
// names of an upload. Every column is TEXT unless WithColumnTypes says otherwise.
//
// It fails, wrapping ErrPersistence, when a name is empty, collides with
// IdentityColumn, or repeats another name ignoring case.
func SynthesizeSchema(table string, columns []string, opts ...SchemaOption) (*Schema, error) {
	ec := newErrorContext("synthesize schema").withTable(table)

	o := &schemaOptions{types: make(map[string]model.ColumnType)}
	for _, opt := range opts {
		opt(o)
	}

	if err := validateTableName(table); err != nil {
		return nil, ec.wrap(ErrPersistence, err)
	}
	if len(columns) == 0 {
		return nil, ec.wrap(ErrPersistence, fmt.Errorf("%w: no columns", ErrEmptyData))
	}
	if err := validateColumnCount(len(columns)); err != nil {
		return nil, ec.wrap(ErrPersistence, err)
	}

	seen := make(map[string]int, len(columns))
	infos := make([]model.ColumnInfo, 0, len(columns))
	for i, name := range columns {
		pos := i + 1
		switch {
		case strings.TrimSpace(name) == "":
			return nil, ec.wrap(ErrPersistence, fmt.Errorf("%w: column %d", ErrEmptyColumnName, pos))
		case strings.ContainsRune(name, 0):
			return nil, ec.wrap(ErrPersistence, fmt.Errorf("%w: column %d contains a NUL byte", ErrInvalidColumnName, pos))
		case strings.EqualFold(name, IdentityColumn):
			return nil, ec.wrap(ErrPersistence, fmt.Errorf("%w: column %d is %q", ErrReservedColumnName, pos, name))
		}

		key := strings.ToLower(name)
		if prev, ok := seen[key]; ok {
			return nil, ec.wrap(ErrPersistence,
				fmt.Errorf("%w: %q (column %d) and %q (column %d)", ErrDuplicateColumnName, columns[prev], prev+1, name, pos))
		}
		seen[key] = i

		infos = append(infos, model.ColumnInfo{Name: name, Type: o.types[name]})
	}

	return &Schema{
		Table:    table,
		Identity: IdentityColumn,
		Columns:  infos,
	}, nil
}

// ColumnNames returns the business column names, identity excluded.
func (s *Schema) ColumnNames() []string {
	names := make([]string, len(s.Columns))
	for i, c := range s.Columns {
		names[i] = c.Name
	}
	return names
}

// AllColumns returns the identity column followed by the business columns,
// which is what listing the columns of the created table yields.
func (s *Schema) AllColumns() []string {
	return append([]string{s.Identity}, s.ColumnNames()...)
}

// CreateSQL renders an idempotent CREATE TABLE statement.
func (s *Schema) CreateSQL(d Dialect) string {
	defs := make([]string, 0, len(s.Columns)+1)
	defs = append(defs, d.IdentityColumn(s.Identity))
	for _, c := range s.Columns {
		defs = append(defs, d.QuoteIdent(c.Name)+" "+d.ColumnType(c.Type))
	}
	return fmt.Sprintf("CREATE TABLE IF NOT EXISTS %s (%s)", d.QuoteIdent(s.Table), strings.Join(defs, ", "))
}

// InsertSQL renders a parameterized INSERT covering the business columns.
func (s *Schema) InsertSQL(d Dialect) string {
	cols := make([]string, len(s.Columns))
	marks := make([]string, len(s.Columns))
	for i, c := range s.Columns {
		cols[i] = d.QuoteIdent(c.Name)
		marks[i] = "?"
	}
	return fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)",
		d.QuoteIdent(s.Table), strings.Join(cols, ", "), strings.Join(marks, ", "))
}
